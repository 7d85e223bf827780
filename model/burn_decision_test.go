package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestBurnDecisionCreation(t *testing.T) {
	circulating := decimal.New(100000, 0)

	Convey("Creating a burn decision", t, func() {
		Convey("A valid proposal records the proposed rate", func() {
			decision, err := NewBurnDecision(1, decimal.New(6000, 0), circulating, BurnDecisionType_GovernanceProposal, BurnTrigger_ExcessSupply, "supply overshoot")
			So(err, ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Proposed)
			So(utils.Fmt(decision.BurnRateProposed.V), ShouldEqual, "0.06")
		})

		Convey("Zero and negative amounts are rejected", func() {
			_, err := NewBurnDecision(1, decimal.New(0, 0), circulating, BurnDecisionType_AdminDecision, BurnTrigger_ExcessSupply, "")
			So(err, ShouldEqual, ErrInvalidAmount)
		})

		Convey("An amount above circulating supply is rejected", func() {
			_, err := NewBurnDecision(1, decimal.New(100001, 0), circulating, BurnDecisionType_AdminDecision, BurnTrigger_ExcessSupply, "")
			So(err, ShouldEqual, ErrExceedsCirculating)
		})

		Convey("A rate above the 10 percent ceiling is rejected, not clamped", func() {
			_, err := NewBurnDecision(1, decimal.New(10001, 0), circulating, BurnDecisionType_AdminDecision, BurnTrigger_ExcessSupply, "")
			So(err, ShouldEqual, ErrInvalidRate)
		})

		Convey("Exactly 10 percent is allowed", func() {
			decision, err := NewBurnDecision(1, decimal.New(10000, 0), circulating, BurnDecisionType_AdminDecision, BurnTrigger_ExcessSupply, "")
			So(err, ShouldBeNil)
			So(utils.Fmt(decision.BurnRateProposed.V), ShouldEqual, "0.1")
		})
	})
}

func TestBurnDecisionVotingFlow(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a burn of 6000 out of 100000 put to a vote", t, func() {
		decision, err := NewBurnDecision(1, decimal.New(6000, 0), decimal.New(100000, 0), BurnDecisionType_GovernanceProposal, BurnTrigger_InflationControl, "inflation control")
		So(err, ShouldBeNil)
		So(decision.StartVoting(72*time.Hour, start), ShouldBeNil)

		during := start.Add(time.Hour)
		after := start.Add(73 * time.Hour)

		Convey("With 150 for and 50 against", func() {
			for i := 0; i < 150; i++ {
				So(decision.AddVote(BurnVote_For, during), ShouldBeNil)
			}
			for i := 0; i < 50; i++ {
				So(decision.AddVote(BurnVote_Against, during), ShouldBeNil)
			}
			So(decision.TotalVotes(), ShouldEqual, 200)
			So(utils.Fmt(decision.ApprovalRate()), ShouldEqual, "75")

			Convey("Quorum of 100 is reached and the decision approves", func() {
				So(decision.CheckQuorum(100), ShouldBeTrue)
				So(decision.Approve(9, after), ShouldBeNil)
				So(decision.Status, ShouldEqual, BurnStatus_Approved)
			})

			Convey("Approving before the window closes is refused", func() {
				decision.CheckQuorum(100)
				So(decision.Approve(9, during), ShouldEqual, ErrVotingOpen)
				So(decision.Status, ShouldEqual, BurnStatus_Voting)
			})

			Convey("Execution completes with the actual rate recomputed", func() {
				decision.CheckQuorum(100)
				So(decision.Approve(9, after), ShouldBeNil)
				So(decision.MarkAsExecuting(after), ShouldBeNil)
				So(decision.MarkAsCompleted(decimal.New(6000, 0), decimal.New(94000, 0), "tx-1", 9, after), ShouldBeNil)
				So(decision.Status, ShouldEqual, BurnStatus_Completed)
				So(utils.Fmt(decision.BurnRateActual.V), ShouldEqual, "0.06")
				So(utils.Fmt(decision.CirculatingAfter.V), ShouldEqual, "94000")
			})

			Convey("A completed decision can roll back, linking the compensating transaction", func() {
				decision.CheckQuorum(100)
				So(decision.Approve(9, after), ShouldBeNil)
				So(decision.MarkAsExecuting(after), ShouldBeNil)
				So(decision.MarkAsCompleted(decimal.New(6000, 0), decimal.New(94000, 0), "tx-1", 9, after), ShouldBeNil)
				So(decision.RollBack("executed in error", "tx-2", after), ShouldBeNil)
				So(decision.Status, ShouldEqual, BurnStatus_RolledBack)
				So(decision.RollbackTransactionID, ShouldEqual, "tx-2")
			})
		})

		Convey("A tie rejects the decision", func() {
			for i := 0; i < 60; i++ {
				So(decision.AddVote(BurnVote_For, during), ShouldBeNil)
				So(decision.AddVote(BurnVote_Against, during), ShouldBeNil)
			}
			decision.CheckQuorum(100)
			So(decision.Approve(9, after), ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Rejected)
		})

		Convey("Missed quorum rejects even with a majority", func() {
			for i := 0; i < 30; i++ {
				So(decision.AddVote(BurnVote_For, during), ShouldBeNil)
			}
			decision.CheckQuorum(100)
			So(decision.Approve(9, after), ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Rejected)
		})

		Convey("Votes after the window are refused", func() {
			So(decision.AddVote(BurnVote_For, after), ShouldEqual, ErrVotingClosed)
		})

		Convey("Vote case is normalized", func() {
			So(decision.AddVote(BurnVote("FOR"), during), ShouldBeNil)
			So(decision.VotesFor, ShouldEqual, 1)
		})
	})
}

func TestBurnDecisionAdminFlow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an admin initiated burn decision", t, func() {
		decision, err := NewBurnDecision(1, decimal.New(500, 0), decimal.New(100000, 0), BurnDecisionType_AdminDecision, BurnTrigger_TokenomicsBalance, "rebalance")
		So(err, ShouldBeNil)

		Convey("It can be approved directly without voting", func() {
			So(decision.Approve(9, now), ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Approved)
		})

		Convey("It can be scheduled and executed later", func() {
			So(decision.Approve(9, now), ShouldBeNil)
			So(decision.Schedule(now.Add(24*time.Hour), now), ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Scheduled)
			So(decision.MarkAsExecuting(now.Add(24*time.Hour)), ShouldBeNil)
		})

		Convey("An executing decision can fail and the failure is terminal", func() {
			So(decision.Approve(9, now), ShouldBeNil)
			So(decision.MarkAsExecuting(now), ShouldBeNil)
			So(decision.MarkAsFailed("pool paused", now), ShouldBeNil)
			So(decision.Status, ShouldEqual, BurnStatus_Failed)
			So(decision.MarkAsExecuting(now), ShouldEqual, ErrIllegalTransition)
		})

		Convey("Cancel is refused once execution starts", func() {
			So(decision.Approve(9, now), ShouldBeNil)
			So(decision.MarkAsExecuting(now), ShouldBeNil)
			So(decision.Cancel("changed our mind", now), ShouldEqual, ErrIllegalTransition)
		})

		Convey("Only completed decisions can roll back", func() {
			So(decision.RollBack("nope", "tx-9", now), ShouldEqual, ErrIllegalTransition)
		})
	})
}
