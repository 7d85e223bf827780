package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

const selectPoolBySpace = `SELECT * FROM "token_pools" WHERE space_id = $1 ORDER BY "token_pools"."id" LIMIT 1`

func TestCreateTokenPoolValidation(t *testing.T) {
	srv, mock := setupService(config.Config{})

	Convey("it should return the existing pool untouched", t, func() {
		rows := sqlmock.NewRows([]string{"id", "space_id", "admin_user_id", "circulating_supply"}).
			AddRow(1, 42, 9, decimalColumn(1000))
		mock.ExpectQuery(selectPoolBySpace).WithArgs(42).WillReturnRows(rows)

		pool, err := srv.CreateTokenPool(42, 9, nil, nil, nil)
		So(err, ShouldBeNil)
		So(pool.SpaceID, ShouldEqual, 42)
		So(pool.CirculatingSupply.V.Cmp(decimal.New(1000, 0)), ShouldEqual, 0)
	})

	Convey("it should reject a non positive threshold", t, func() {
		mock.ExpectQuery(selectPoolBySpace).WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := srv.CreateTokenPool(42, 9, decimal.New(0, 0), decimal.New(10, 2), nil)
		So(err, ShouldEqual, model.ErrInvalidThreshold)
	})

	Convey("it should reject a rate above the cap", t, func() {
		mock.ExpectQuery(selectPoolBySpace).WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := srv.CreateTokenPool(42, 9, decimal.New(500, 0), decimal.New(20, 2), nil)
		So(err, ShouldEqual, model.ErrInvalidRate)
	})
}

func TestIssueTokens(t *testing.T) {
	srv, mock := setupServiceRegexp(config.Config{})
	now := time.Now()

	Convey("issuing into an active pool completes and carries the issuer approval", t, func() {
		poolRows := sqlmock.NewRows([]string{
			"id", "space_id", "admin_user_id", "status",
			"total_supply", "issued_amount", "burned_amount", "circulating_supply",
			"reserve_pool", "reward_pool", "governance_pool", "ecosystem_pool",
		}).AddRow(
			1, 1, 9, "active",
			decimalColumn(0), decimalColumn(0), decimalColumn(0), decimalColumn(0),
			decimalColumn(0), decimalColumn(0), decimalColumn(0), decimalColumn(0),
		)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "token_pools"`).WillReturnRows(poolRows)
		mock.ExpectExec(`INSERT INTO "token_transactions"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "token_pools"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		transaction, err := srv.IssueTokens(1, decimal.New(5000, 0), 9, "initial issuance", now)
		So(err, ShouldBeNil)
		So(transaction.Status, ShouldEqual, model.TxStatus_Completed)
		So(transaction.ApprovedBy, ShouldNotBeNil)
		So(*transaction.ApprovedBy, ShouldEqual, 9)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})

	Convey("issuing into a paused pool rolls everything back", t, func() {
		poolRows := sqlmock.NewRows([]string{
			"id", "space_id", "status",
			"total_supply", "issued_amount", "burned_amount", "circulating_supply",
			"reserve_pool", "reward_pool", "governance_pool", "ecosystem_pool",
		}).AddRow(
			1, 1, "paused",
			decimalColumn(0), decimalColumn(0), decimalColumn(0), decimalColumn(0),
			decimalColumn(0), decimalColumn(0), decimalColumn(0), decimalColumn(0),
		)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "token_pools"`).WillReturnRows(poolRows)
		mock.ExpectRollback()

		_, err := srv.IssueTokens(1, decimal.New(5000, 0), 9, "initial issuance", now)
		So(err, ShouldEqual, model.ErrPoolNotActive)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}

func TestGetTokenPoolNotFound(t *testing.T) {
	srv, mock := setupService(config.Config{})

	Convey("it should map an empty result to a pool not found error", t, func() {
		mock.ExpectQuery(selectPoolBySpace).WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := srv.GetTokenPool(7)
		So(err, ShouldEqual, model.ErrPoolNotFound)
	})
}
