package ledger

import (
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	postgres2 "github.com/ericlagergren/decimal/sql/postgres"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/queries"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var zero = conv.NewDecimalWithPrecision()

func setupDB() (*gorm.DB, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "ledger").Str("method", "setupDB").Logger()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		logger.Fatal().Msgf("can't create sqlmock: %s", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "postgres-mock",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Fatal().Msgf("can't open gorm connection: %s", err)
	}

	return gormDB, mock
}

func setupRepo() (*queries.Repo, sqlmock.Sqlmock) {
	db, mock := setupDB()
	return &queries.Repo{
		Conn:       db,
		ConnReader: db,
	}, mock
}

func balanceColumn(value int64) *postgres2.Decimal {
	return &postgres2.Decimal{V: decimal.New(value, 0)}
}

func expectBalanceRows(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.
		ExpectQuery("SELECT * FROM \"user_balances\"").
		WillReturnRows(rows)
}
