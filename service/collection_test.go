package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

func TestResolveCollectionAppealRefund(t *testing.T) {
	srv, mock := setupServiceRegexp(config.Config{})
	now := time.Now()

	Convey("an approved appeal refunds the user and reverses the ecosystem sub pool credit", t, func() {
		recordRows := sqlmock.NewRows([]string{
			"id", "space_id", "user_id", "collected_amount", "balance_before",
			"threshold_at_collection", "collection_rate", "status", "transaction_id", "is_appealed",
		}).AddRow(
			5, 1, 7, decimalColumn(100), decimalColumn(2000),
			decimalColumn(1000), decimalColumn(0), "appealed", "tx-1", true,
		)
		poolRows := sqlmock.NewRows([]string{
			"id", "space_id", "admin_user_id", "status",
			"total_supply", "issued_amount", "burned_amount", "circulating_supply",
			"reserve_pool", "reward_pool", "governance_pool", "ecosystem_pool",
		}).AddRow(
			1, 1, 9, "active",
			decimalColumn(10000), decimalColumn(10000), decimalColumn(0), decimalColumn(10000),
			decimalColumn(2000), decimalColumn(4000), decimalColumn(2000), decimalColumn(2100),
		)
		balanceColumns := []string{
			"id", "user_id", "space_id", "current_balance",
			"total_earned", "total_spent", "total_collected", "frozen",
		}
		balanceRows := sqlmock.NewRows(balanceColumns).AddRow(
			8, 7, 1, decimalColumn(1900),
			decimalColumn(2000), decimalColumn(0), decimalColumn(100), false,
		)
		refreshedRows := sqlmock.NewRows(balanceColumns).AddRow(
			8, 7, 1, decimalColumn(2000),
			decimalColumn(2100), decimalColumn(0), decimalColumn(100), false,
		)

		mock.ExpectQuery(`SELECT \* FROM "collection_histories"`).WillReturnRows(recordRows)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "collection_histories"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "token_pools"`).WillReturnRows(poolRows)
		mock.ExpectQuery(`SELECT \* FROM "user_balances"`).WillReturnRows(balanceRows)
		mock.ExpectExec(`INSERT INTO "balance_histories"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "user_balances"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "token_transactions"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "token_pools"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT \* FROM "user_balances"`).WillReturnRows(refreshedRows)

		record, err := srv.ResolveCollectionAppeal(5, 3, true, "collection was wrong", now)
		So(err, ShouldBeNil)
		So(record.Status, ShouldEqual, model.CollectionStatus_AppealApproved)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})

	Convey("a rejected appeal leaves the balances and the pool alone", t, func() {
		recordRows := sqlmock.NewRows([]string{
			"id", "space_id", "user_id", "collected_amount", "balance_before",
			"threshold_at_collection", "collection_rate", "status", "transaction_id", "is_appealed",
		}).AddRow(
			5, 1, 7, decimalColumn(100), decimalColumn(2000),
			decimalColumn(1000), decimalColumn(0), "appealed", "tx-1", true,
		)

		mock.ExpectQuery(`SELECT \* FROM "collection_histories"`).WillReturnRows(recordRows)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "collection_histories"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		record, err := srv.ResolveCollectionAppeal(5, 3, false, "collection was correct", now)
		So(err, ShouldBeNil)
		So(record.Status, ShouldEqual, model.CollectionStatus_AppealRejected)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}
