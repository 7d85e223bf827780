package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestTokenTransaction(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	from := uint64(7)
	to := uint64(8)

	Convey("Given a new transfer transaction", t, func() {
		tx := NewTokenTransaction(1, TxKind_Transfer, &from, &to, decimal.New(100, 0), decimal.New(2, 0))

		Convey("It gets an id and a net amount after the fee", func() {
			So(tx.ID, ShouldNotBeEmpty)
			So(tx.Status, ShouldEqual, TxStatus_Pending)
			So(utils.Fmt(tx.NetAmount.V), ShouldEqual, "98")
			So(tx.MaxRetries, ShouldEqual, 3)
		})

		Convey("The happy path walks pending, processing, completed", func() {
			So(tx.MarkAsProcessing(now), ShouldBeNil)
			So(tx.MarkAsCompleted(now), ShouldBeNil)
			So(tx.Status, ShouldEqual, TxStatus_Completed)
			So(tx.Status.IsFinal(), ShouldBeTrue)
		})

		Convey("Out of order transitions are refused", func() {
			So(tx.MarkAsCompleted(now), ShouldEqual, ErrIllegalTransition)
			So(tx.MarkAsConfirmed(now), ShouldEqual, ErrIllegalTransition)
		})

		Convey("Cancel only works while pending", func() {
			So(tx.Cancel("user aborted", now), ShouldBeNil)
			So(tx.Status, ShouldEqual, TxStatus_Cancelled)

			other := NewTokenTransaction(1, TxKind_Transfer, &from, &to, decimal.New(10, 0), nil)
			So(other.MarkAsProcessing(now), ShouldBeNil)
			So(other.Cancel("too late", now), ShouldEqual, ErrIllegalTransition)
		})

		Convey("Retry is bounded and only re-queues failed transactions", func() {
			So(tx.Retry(now), ShouldEqual, ErrIllegalTransition)

			So(tx.MarkAsProcessing(now), ShouldBeNil)
			So(tx.MarkAsFailed("db timeout", now), ShouldBeNil)
			So(tx.Retry(now), ShouldBeNil)
			So(tx.Status, ShouldEqual, TxStatus_Pending)
			So(tx.RetryCount, ShouldEqual, 1)

			for i := 0; i < 2; i++ {
				So(tx.MarkAsProcessing(now), ShouldBeNil)
				So(tx.MarkAsFailed("db timeout", now), ShouldBeNil)
				So(tx.Retry(now), ShouldBeNil)
			}
			So(tx.MarkAsProcessing(now), ShouldBeNil)
			So(tx.MarkAsFailed("db timeout", now), ShouldBeNil)
			So(tx.Retry(now), ShouldEqual, ErrRetryExhausted)
		})

		Convey("Reversal links the compensating transaction", func() {
			So(tx.MarkAsProcessing(now), ShouldBeNil)
			So(tx.MarkAsCompleted(now), ShouldBeNil)
			So(tx.Reverse("rev-1", "collection appeal approved", now), ShouldBeNil)
			So(tx.Status, ShouldEqual, TxStatus_Reversed)
			So(*tx.ReversalID, ShouldEqual, "rev-1")
		})

		Convey("A non reversible transaction refuses reversal", func() {
			tx.IsReversible = false
			So(tx.MarkAsProcessing(now), ShouldBeNil)
			So(tx.MarkAsCompleted(now), ShouldBeNil)
			So(tx.Reverse("rev-1", "x", now), ShouldEqual, ErrNotReversible)
		})

		Convey("Snapshots record both sides", func() {
			tx.SetFromSnapshot(decimal.New(500, 0), decimal.New(400, 0))
			tx.SetToSnapshot(decimal.New(50, 0), decimal.New(148, 0))
			So(utils.Fmt(tx.FromBalanceAfter.V), ShouldEqual, "400")
			So(utils.Fmt(tx.ToBalanceAfter.V), ShouldEqual, "148")
		})
	})

	Convey("A system issuance has no sender", t, func() {
		tx := NewTokenTransaction(1, TxKind_Issue, nil, &to, decimal.New(1000, 0), nil)
		So(tx.FromUserID, ShouldBeNil)
		So(utils.Fmt(tx.NetAmount.V), ShouldEqual, "1000")
	})

	Convey("Kind and status validation", t, func() {
		So(TxKind_Collection.IsValid(), ShouldBeTrue)
		So(TxKind("teleport").IsValid(), ShouldBeFalse)
		So(TxStatus_Processing.IsValid(), ShouldBeTrue)
		So(TxStatus_Processing.IsFinal(), ShouldBeFalse)
		So(TxStatus("limbo").IsValid(), ShouldBeFalse)
	})
}
