package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestCollectionAmount(t *testing.T) {
	Convey("Given a balance of 1000, a threshold of 500 and a rate of 0.10", t, func() {
		balance := decimal.New(1000, 0)
		threshold := decimal.New(500, 0)
		rate := decimal.New(10, 2)

		Convey("The balance qualifies and the collected amount is 100", func() {
			So(balance.Cmp(threshold) > 0, ShouldBeTrue)
			amount := conv.NewDecimalWithPrecision().Mul(balance, rate)
			So(utils.Fmt(amount), ShouldEqual, "100")
		})
	})
}

func TestCollectionLifecycle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newRecord := func() *CollectionHistory {
		return NewCollectionRecord(1, 7,
			decimal.New(100, 0), decimal.New(1000, 0),
			decimal.New(500, 0), decimal.New(10, 2),
			CollectionTrigger_AutomaticThreshold, CollectionReason_ThresholdExceeded)
	}

	Convey("Given a pending collection record", t, func() {
		record := newRecord()

		Convey("It can be approved directly when no grace period applies", func() {
			So(record.Approve(9, now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_Approved)
		})

		Convey("With a grace period the approval must wait for the window", func() {
			So(record.StartGracePeriod(48*time.Hour, now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_GracePeriod)

			Convey("Approving inside the window is refused", func() {
				So(record.Approve(9, now.Add(time.Hour)), ShouldEqual, ErrIllegalTransition)
			})

			Convey("Approving after the window succeeds", func() {
				So(record.Approve(9, now.Add(49*time.Hour)), ShouldBeNil)
				So(record.Status, ShouldEqual, CollectionStatus_Approved)
			})
		})

		Convey("Execution records the balance after and the transaction link", func() {
			So(record.Approve(9, now), ShouldBeNil)
			So(record.MarkAsExecuting(now), ShouldBeNil)
			So(record.MarkAsCompleted(decimal.New(900, 0), "tx-1", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_Completed)
			So(utils.Fmt(record.BalanceAfter.V), ShouldEqual, "900")
			So(record.TransactionID, ShouldEqual, "tx-1")
		})

		Convey("A failed execution leaves the record failed with the reason noted", func() {
			So(record.Approve(9, now), ShouldBeNil)
			So(record.MarkAsExecuting(now), ShouldBeNil)
			So(record.MarkAsFailed("account frozen", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_Failed)
			So(record.AdminNotes, ShouldContainSubstring, "account frozen")
		})

		Convey("Cancel works before execution, not after", func() {
			So(record.Cancel("manual override", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_Cancelled)

			other := newRecord()
			So(other.Approve(9, now), ShouldBeNil)
			So(other.MarkAsExecuting(now), ShouldBeNil)
			So(other.Cancel("too late", now), ShouldEqual, ErrIllegalTransition)
		})
	})

	Convey("Given a completed collection", t, func() {
		record := newRecord()
		So(record.Approve(9, now), ShouldBeNil)
		So(record.MarkAsExecuting(now), ShouldBeNil)
		So(record.MarkAsCompleted(decimal.New(900, 0), "tx-1", now), ShouldBeNil)

		Convey("The user can appeal and win", func() {
			So(record.SubmitAppeal("collected during outage", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_Appealed)
			So(record.ApproveAppeal(9, "refund issued", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_AppealApproved)
			So(record.IsAppealed, ShouldBeTrue)
		})

		Convey("The appeal can also be rejected", func() {
			So(record.SubmitAppeal("collected during outage", now), ShouldBeNil)
			So(record.RejectAppeal(9, "collection was valid", now), ShouldBeNil)
			So(record.Status, ShouldEqual, CollectionStatus_AppealRejected)
		})

		Convey("The original amounts survive the appeal untouched", func() {
			So(record.SubmitAppeal("x", now), ShouldBeNil)
			So(record.ApproveAppeal(9, "ok", now), ShouldBeNil)
			So(utils.Fmt(record.CollectedAmount.V), ShouldEqual, "100")
			So(utils.Fmt(record.BalanceBefore.V), ShouldEqual, "1000")
		})

		Convey("Appealing twice is refused", func() {
			So(record.SubmitAppeal("x", now), ShouldBeNil)
			So(record.SubmitAppeal("y", now), ShouldEqual, ErrIllegalTransition)
		})
	})

	Convey("Settled statuses", t, func() {
		So(CollectionStatus_Completed.IsSettled(), ShouldBeTrue)
		So(CollectionStatus_AppealRejected.IsSettled(), ShouldBeTrue)
		So(CollectionStatus_GracePeriod.IsSettled(), ShouldBeFalse)
		So(CollectionStatus_Appealed.IsSettled(), ShouldBeFalse)
	})
}
