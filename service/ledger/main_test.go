package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedgerEngine_InitAccountsAndGetAccountLedger(t *testing.T) {
	r, mock := setupRepo()
	ctx := context.TODO()
	le := Init(r, ctx)

	Convey("it should load every ledger row into the engine", t, func() {
		balanceRows := sqlmock.NewRows([]string{"id", "user_id", "space_id", "current_balance", "total_earned", "total_spent", "total_collected", "collection_exempt", "frozen"}).
			AddRow(1, 1, 1, balanceColumn(1000), balanceColumn(1200), balanceColumn(200), balanceColumn(0), false, false).
			AddRow(2, 2, 1, balanceColumn(300), balanceColumn(300), balanceColumn(0), balanceColumn(0), false, false).
			AddRow(3, 3, 2, balanceColumn(50), balanceColumn(50), balanceColumn(0), balanceColumn(0), false, true)
		expectBalanceRows(mock, balanceRows)

		err := le.InitAccounts()
		So(err, ShouldBeNil)

		account, err := le.GetAccountLedger(1, 1)
		So(err, ShouldBeNil)
		So(account, ShouldResemble, le.spaces[1].accounts[1])
		So(account.GetBalance().Current.Cmp(balanceColumn(1000).V), ShouldEqual, 0)

		frozen, err := le.GetAccountLedger(2, 3)
		So(err, ShouldBeNil)
		So(frozen.IsFrozen(), ShouldBeTrue)
	})

	Convey("return error on getting a ledger from an unknown space", t, func() {
		_, err := le.GetAccountLedger(9, 1)
		So(err, ShouldResemble, errors.New("unable to find the space ledger"))
	})

	Convey("return error on getting a ledger for an unknown user", t, func() {
		_, err := le.GetAccountLedger(1, 9)
		So(err, ShouldResemble, errors.New("unable to find the account ledger"))
	})
}
