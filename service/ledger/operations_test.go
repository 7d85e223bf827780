package ledger

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func initTestEngine() *LedgerEngine {
	r, mock := setupRepo()
	le := Init(r, context.TODO())

	balanceRows := sqlmock.NewRows([]string{"id", "user_id", "space_id", "current_balance", "total_earned", "total_spent", "total_collected", "collection_exempt", "frozen"}).
		AddRow(1, 1, 1, balanceColumn(1000), balanceColumn(1000), balanceColumn(0), balanceColumn(0), false, false).
		AddRow(2, 2, 1, balanceColumn(100), balanceColumn(100), balanceColumn(0), balanceColumn(0), false, false).
		AddRow(3, 3, 1, balanceColumn(5000), balanceColumn(5000), balanceColumn(0), balanceColumn(0), true, false)
	expectBalanceRows(mock, balanceRows)

	if err := le.InitAccounts(); err != nil {
		panic(err)
	}
	return le
}

func TestAccountLedgerOperations(t *testing.T) {
	Convey("Given a loaded ledger engine", t, func() {
		le := initTestEngine()
		account, err := le.GetAccountLedger(1, 1)
		So(err, ShouldBeNil)

		Convey("Credit moves the balance and the earned total together", func() {
			snapshot, err := account.DoCredit(decimal.New(250, 0))
			So(err, ShouldBeNil)
			So(utils.Fmt(snapshot.Before), ShouldEqual, "1000")
			So(utils.Fmt(snapshot.After), ShouldEqual, "1250")

			view := account.GetBalance()
			So(utils.Fmt(view.Current), ShouldEqual, "1250")
			So(utils.Fmt(view.Earned), ShouldEqual, "1250")
		})

		Convey("Debit refuses to overdraw and leaves the balance untouched", func() {
			_, err := account.DoDebit(decimal.New(2000, 0))
			So(err, ShouldEqual, ErrInsufficientFunds)
			So(utils.Fmt(account.GetBalance().Current), ShouldEqual, "1000")

			snapshot, err := account.DoDebit(decimal.New(400, 0))
			So(err, ShouldBeNil)
			So(utils.Fmt(snapshot.After), ShouldEqual, "600")
			So(utils.Fmt(account.GetBalance().Spent), ShouldEqual, "400")
		})

		Convey("Collect reclaims into the collected total", func() {
			snapshot, err := account.DoCollect(decimal.New(100, 0))
			So(err, ShouldBeNil)
			So(utils.Fmt(snapshot.After), ShouldEqual, "900")
			So(utils.Fmt(account.GetBalance().Collected), ShouldEqual, "100")
		})

		Convey("Zero and negative amounts are rejected", func() {
			_, err := account.DoCredit(decimal.New(0, 0))
			So(err, ShouldEqual, ErrInvalidAmount)
			_, err = account.DoDebit(decimal.New(-5, 0))
			So(err, ShouldEqual, ErrInvalidAmount)
		})

		Convey("A frozen account refuses every mutation", func() {
			account.SetFrozen(true)
			_, err := account.DoCredit(decimal.New(10, 0))
			So(err, ShouldEqual, ErrAccountFrozen)
			_, err = account.DoDebit(decimal.New(10, 0))
			So(err, ShouldEqual, ErrAccountFrozen)
			_, err = account.DoCollect(decimal.New(10, 0))
			So(err, ShouldEqual, ErrAccountFrozen)
		})

		Convey("Collection targeting follows threshold, exemption and freeze", func() {
			threshold := decimal.New(500, 0)
			So(account.IsCollectionTarget(threshold), ShouldBeTrue)

			small, err := le.GetAccountLedger(1, 2)
			So(err, ShouldBeNil)
			So(small.IsCollectionTarget(threshold), ShouldBeFalse)

			exempt, err := le.GetAccountLedger(1, 3)
			So(err, ShouldBeNil)
			So(exempt.IsCollectionTarget(threshold), ShouldBeFalse)

			account.SetFrozen(true)
			So(account.IsCollectionTarget(threshold), ShouldBeFalse)
		})

		Convey("Wrap serializes a compound check with the mutation", func() {
			err := le.Wrap(1, 1, func(balance BalanceView) error {
				if balance.Current.Cmp(decimal.New(500, 0)) < 0 {
					return ErrInsufficientFunds
				}
				balance.Current.Sub(balance.Current, decimal.New(500, 0))
				balance.Spent.Add(balance.Spent, decimal.New(500, 0))
				return nil
			})
			So(err, ShouldBeNil)
			So(utils.Fmt(account.GetBalance().Current), ShouldEqual, "500")
		})
	})
}
