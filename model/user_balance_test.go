package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestUserBalance(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a new user balance", t, func() {
		balance := NewUserBalance(7, 1)

		Convey("It should start at zero and be consistent", func() {
			So(balance.CurrentBalance.V.Sign(), ShouldEqual, 0)
			So(balance.IsConsistent(), ShouldBeTrue)
		})

		Convey("Credits and debits should keep the running totals consistent", func() {
			So(balance.Credit(decimal.New(1000, 0), now), ShouldBeNil)
			So(balance.Debit(decimal.New(300, 0), now), ShouldBeNil)
			So(utils.Fmt(balance.CurrentBalance.V), ShouldEqual, "700")
			So(utils.Fmt(balance.TotalEarned.V), ShouldEqual, "1000")
			So(utils.Fmt(balance.TotalSpent.V), ShouldEqual, "300")
			So(balance.IsConsistent(), ShouldBeTrue)
		})

		Convey("Debiting more than the balance should fail without mutation", func() {
			So(balance.Credit(decimal.New(100, 0), now), ShouldBeNil)
			err := balance.Debit(decimal.New(101, 0), now)
			So(err, ShouldEqual, ErrInsufficientBalance)
			So(utils.Fmt(balance.CurrentBalance.V), ShouldEqual, "100")
			So(balance.IsConsistent(), ShouldBeTrue)
		})

		Convey("Collecting should move the amount into the collected total", func() {
			So(balance.Credit(decimal.New(1000, 0), now), ShouldBeNil)
			So(balance.Collect(decimal.New(100, 0), now), ShouldBeNil)
			So(utils.Fmt(balance.CurrentBalance.V), ShouldEqual, "900")
			So(utils.Fmt(balance.TotalCollected.V), ShouldEqual, "100")
			So(balance.LastCollectionDate, ShouldNotBeNil)
			So(balance.IsConsistent(), ShouldBeTrue)
		})

		Convey("Zero and negative amounts should be rejected everywhere", func() {
			So(balance.Credit(decimal.New(0, 0), now), ShouldEqual, ErrInvalidAmount)
			So(balance.Debit(decimal.New(-1, 0), now), ShouldEqual, ErrInvalidAmount)
			So(balance.Collect(nil, now), ShouldEqual, ErrInvalidAmount)
		})

		Convey("A frozen account should refuse every mutation", func() {
			So(balance.Credit(decimal.New(50, 0), now), ShouldBeNil)
			balance.Freeze(now)
			So(balance.Credit(decimal.New(1, 0), now), ShouldEqual, ErrAccountFrozen)
			So(balance.Debit(decimal.New(1, 0), now), ShouldEqual, ErrAccountFrozen)
			So(balance.Collect(decimal.New(1, 0), now), ShouldEqual, ErrAccountFrozen)
			balance.Unfreeze(now)
			So(balance.Debit(decimal.New(1, 0), now), ShouldBeNil)
		})
	})

	Convey("Collection targeting", t, func() {
		threshold := decimal.New(500, 0)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		Convey("A balance strictly over the threshold qualifies", func() {
			balance := NewUserBalance(7, 1)
			So(balance.Credit(decimal.New(1000, 0), now), ShouldBeNil)
			So(balance.IsCollectionTarget(threshold), ShouldBeTrue)
		})

		Convey("A balance exactly at the threshold does not qualify", func() {
			balance := NewUserBalance(7, 1)
			So(balance.Credit(decimal.New(500, 0), now), ShouldBeNil)
			So(balance.IsCollectionTarget(threshold), ShouldBeFalse)
		})

		Convey("Exempt and frozen accounts never qualify", func() {
			balance := NewUserBalance(7, 1)
			So(balance.Credit(decimal.New(1000, 0), now), ShouldBeNil)
			balance.CollectionExempt = true
			So(balance.IsCollectionTarget(threshold), ShouldBeFalse)
			balance.CollectionExempt = false
			balance.Freeze(now)
			So(balance.IsCollectionTarget(threshold), ShouldBeFalse)
		})
	})
}

func TestBalanceHistory(t *testing.T) {
	Convey("Given a history entry from a credit", t, func() {
		entry := NewBalanceHistory(7, 1, HistoryKind_Earn, decimal.New(100, 0), decimal.New(900, 0), decimal.New(1000, 0), "content reward", "ref-1")

		Convey("It should carry a generated id and validate its arithmetic", func() {
			So(entry.ID, ShouldNotBeEmpty)
			So(entry.IsBalanceCalculationValid(), ShouldBeTrue)
			So(entry.IsPositiveChange(), ShouldBeTrue)
			So(entry.IsSystemEntry(), ShouldBeFalse)
		})
	})

	Convey("Given a history entry with a signed negative amount", t, func() {
		entry := NewBalanceHistory(7, 1, HistoryKind_Collect, decimal.New(-100, 0), decimal.New(1000, 0), decimal.New(900, 0), "threshold collection", "col-1")

		Convey("before + amount should equal after", func() {
			So(entry.IsBalanceCalculationValid(), ShouldBeTrue)
			So(entry.IsPositiveChange(), ShouldBeFalse)
			So(entry.IsSystemEntry(), ShouldBeTrue)
		})
	})

	Convey("An entry with broken arithmetic should be flagged", t, func() {
		entry := NewBalanceHistory(7, 1, HistoryKind_Spend, decimal.New(-100, 0), decimal.New(1000, 0), decimal.New(850, 0), "purchase", "")
		So(entry.IsBalanceCalculationValid(), ShouldBeFalse)
	})

	Convey("History kind validation", t, func() {
		So(HistoryKind_Earn.IsValid(), ShouldBeTrue)
		So(HistoryKind_Transfer.IsValid(), ShouldBeTrue)
		So(HistoryKind("mint").IsValid(), ShouldBeFalse)
	})
}
