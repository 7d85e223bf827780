package service

import (
	"context"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	postgres2 "github.com/ericlagergren/decimal/sql/postgres"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/queries"
	"gitlab.com/sfr-tokyo/economy_api/service/ledger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDB() (*gorm.DB, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "service").Str("method", "setupDB").Logger()
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

func setupService(cfg config.Config) (*Service, sqlmock.Sqlmock) {
	db, mock := setupDB()
	ctx := context.TODO()
	repo := queries.NewRepoFromConns(db, db)
	return &Service{
		ctx:    ctx,
		cfg:    cfg,
		repo:   repo,
		Ledger: ledger.Init(repo, ctx),
	}, mock
}

// setupServiceRegexp matches expected SQL as a regular expression instead of
// byte for byte, used by flows that span inserts and updates
func setupServiceRegexp(cfg config.Config) (*Service, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "service").Str("method", "setupServiceRegexp").Logger()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
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

	ctx := context.TODO()
	repo := queries.NewRepoFromConns(gormDB, gormDB)
	return &Service{
		ctx:    ctx,
		cfg:    cfg,
		repo:   repo,
		Ledger: ledger.Init(repo, ctx),
	}, mock
}

func decimalColumn(value int64) *postgres2.Decimal {
	return &postgres2.Decimal{V: decimal.New(value, 0)}
}
