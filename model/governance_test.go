package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestComputeVotingPower(t *testing.T) {
	Convey("Voting power weighting", t, func() {
		Convey("An unadorned vote weighs exactly its balance snapshot", func() {
			power := ComputeVotingPower(decimal.New(100, 0), nil, nil, nil, nil)
			So(utils.Fmt(power), ShouldEqual, "100")
		})

		Convey("Delegation, bonus and reputation all factor in", func() {
			// (100 + 50) * (1 + 0.5) * 80/100 = 180
			power := ComputeVotingPower(
				decimal.New(100, 0),
				decimal.New(50, 0),
				decimal.New(1, 0),
				decimal.New(5, 1),
				decimal.New(80, 0),
			)
			So(utils.Fmt(power), ShouldEqual, "180")
		})

		Convey("Zero reputation silences the vote entirely", func() {
			power := ComputeVotingPower(decimal.New(100, 0), nil, nil, nil, decimal.New(0, 0))
			So(power.Sign(), ShouldEqual, 0)
		})
	})
}

func TestGovernanceVote(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Casting a vote", t, func() {
		Convey("The power is computed and frozen at cast time", func() {
			vote, err := NewGovernanceVote(10, 7, 1, VoteChoice_For, decimal.New(250, 0), nil, nil, nil, nil, VotingMethod_Direct, now)
			So(err, ShouldBeNil)
			So(utils.Fmt(vote.FinalVotingPower.V), ShouldEqual, "250")
			So(vote.VotedAt.Equal(now), ShouldBeTrue)
		})

		Convey("An invalid choice is rejected", func() {
			_, err := NewGovernanceVote(10, 7, 1, VoteChoice("maybe"), decimal.New(250, 0), nil, nil, nil, nil, VotingMethod_Direct, now)
			So(err, ShouldEqual, ErrInvalidStatus)
		})

		Convey("A negative balance snapshot is rejected", func() {
			_, err := NewGovernanceVote(10, 7, 1, VoteChoice_For, decimal.New(-1, 0), nil, nil, nil, nil, VotingMethod_Direct, now)
			So(err, ShouldEqual, ErrInvalidAmount)
		})
	})

	Convey("Changing a vote", t, func() {
		vote, err := NewGovernanceVote(10, 7, 1, VoteChoice_For, decimal.New(250, 0), nil, nil, nil, nil, VotingMethod_Direct, now)
		So(err, ShouldBeNil)

		Convey("The previous choice is recorded and the power kept", func() {
			later := now.Add(time.Hour)
			So(vote.Change(VoteChoice_Against, "new information", later), ShouldBeNil)
			So(vote.Choice, ShouldEqual, VoteChoice_Against)
			So(*vote.PreviousChoice, ShouldEqual, VoteChoice_For)
			So(vote.IsChanged, ShouldBeTrue)
			So(utils.Fmt(vote.FinalVotingPower.V), ShouldEqual, "250")
		})

		Convey("Re-casting the same choice is refused", func() {
			So(vote.Change(VoteChoice_For, "", now), ShouldEqual, ErrDuplicateVote)
		})
	})
}

func TestGovernanceProposalLifecycle(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	openProposal := func() *GovernanceProposal {
		proposal := NewGovernanceProposal(1, 7, "adjust issue rate", "lower issuance", ProposalCategory_Tokenomics, ProposalType_ParameterChange)
		So(proposal.Submit(start), ShouldBeNil)
		So(proposal.StartReview(9, start), ShouldBeNil)
		So(proposal.ApproveForVoting(9, start), ShouldBeNil)
		So(proposal.StartVoting(start), ShouldBeNil)
		return proposal
	}

	Convey("Given a proposal in active voting", t, func() {
		proposal := openProposal()
		proposal.MinimumQuorum = 2
		during := start.Add(time.Hour)
		after := proposal.VotingEndDate.Add(time.Minute)

		Convey("60/40 power split falls short of the 66.67 threshold and rejects", func() {
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(60, 0), during), ShouldBeNil)
			So(proposal.ApplyVote(VoteChoice_Against, decimal.New(40, 0), during), ShouldBeNil)
			So(utils.Fmt(proposal.ApprovalRateByPower()), ShouldEqual, "60")
			So(proposal.FinalizeVoting(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Rejected)
		})

		Convey("70/30 power split passes and the proposal queues", func() {
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(70, 0), during), ShouldBeNil)
			So(proposal.ApplyVote(VoteChoice_Against, decimal.New(30, 0), during), ShouldBeNil)
			So(proposal.FinalizeVoting(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Passed)
			So(proposal.Queue(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Queued)

			Convey("Execution before the delay elapses is refused", func() {
				So(proposal.Execute(9, after), ShouldEqual, ErrNotExecutable)
			})

			Convey("Execution after the delay succeeds", func() {
				ready := proposal.ExecutableAt().Add(time.Minute)
				So(proposal.Execute(9, ready), ShouldBeNil)
				So(proposal.Status, ShouldEqual, ProposalStatus_Executed)
			})

			Convey("Execution past the deadline expires the proposal", func() {
				late := proposal.ExecutionDeadline.Add(time.Minute)
				So(proposal.Execute(9, late), ShouldEqual, ErrNotExecutable)
				So(proposal.Status, ShouldEqual, ProposalStatus_Expired)
			})
		})

		Convey("Abstain power counts toward quorum but not approval", func() {
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(70, 0), during), ShouldBeNil)
			So(proposal.ApplyVote(VoteChoice_Against, decimal.New(30, 0), during), ShouldBeNil)
			So(proposal.ApplyVote(VoteChoice_Abstain, decimal.New(900, 0), during), ShouldBeNil)
			So(utils.Fmt(proposal.ApprovalRateByPower()), ShouldEqual, "70")
			So(proposal.FinalizeVoting(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Passed)
		})

		Convey("Missed quorum rejects regardless of the split", func() {
			proposal.MinimumQuorum = 100
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(70, 0), during), ShouldBeNil)
			So(proposal.FinalizeVoting(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Rejected)
			So(proposal.QuorumReached, ShouldBeFalse)
		})

		Convey("A configured power quorum threshold overrides the raw count", func() {
			proposal.QuorumThreshold = &postgres.Decimal{V: decimal.New(1000, 0)}
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(70, 0), during), ShouldBeNil)
			So(proposal.FinalizeVoting(after), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Rejected)
		})

		Convey("Finalizing while the window is still open is refused", func() {
			So(proposal.FinalizeVoting(during), ShouldEqual, ErrVotingOpen)
		})

		Convey("Votes after the window close are refused", func() {
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(10, 0), after), ShouldEqual, ErrVotingClosed)
		})

		Convey("Retracting a vote reverses its contribution exactly", func() {
			So(proposal.ApplyVote(VoteChoice_For, decimal.New(60, 0), during), ShouldBeNil)
			So(proposal.RetractVote(VoteChoice_For, decimal.New(60, 0), during), ShouldBeNil)
			So(proposal.ApplyVote(VoteChoice_Against, decimal.New(60, 0), during), ShouldBeNil)
			So(proposal.VotesFor, ShouldEqual, 0)
			So(proposal.VotesAgainst, ShouldEqual, 1)
			So(utils.Fmt(proposal.TotalVotingPower.V), ShouldEqual, "60")
		})
	})

	Convey("Category thresholds", t, func() {
		Convey("Burn proposals need 75 percent", func() {
			proposal := NewGovernanceProposal(1, 7, "burn", "", ProposalCategory_Tokenomics, ProposalType_BurnDecision)
			So(utils.Fmt(proposal.ApprovalThreshold.V), ShouldEqual, "75")
		})

		Convey("Emergency proposals need 80 percent and queue with a one hour delay", func() {
			proposal := NewGovernanceProposal(1, 7, "halt", "", ProposalCategory_Emergency, ProposalType_EmergencyAction)
			So(utils.Fmt(proposal.ApprovalThreshold.V), ShouldEqual, "80")
			So(proposal.ExecutionDelayHours, ShouldEqual, 1)
		})

		Convey("Everything else defaults to 66.67 percent", func() {
			proposal := NewGovernanceProposal(1, 7, "policy", "", ProposalCategory_Community, ProposalType_PolicyChange)
			So(utils.Fmt(proposal.ApprovalThreshold.V), ShouldEqual, "66.67")
		})
	})

	Convey("Cancellation", t, func() {
		proposal := openProposal()

		Convey("An active proposal can be cancelled with a reason", func() {
			So(proposal.Cancel(9, "superseded", start), ShouldBeNil)
			So(proposal.Status, ShouldEqual, ProposalStatus_Cancelled)
			So(proposal.CancellationReason, ShouldEqual, "superseded")
		})

		Convey("An executed proposal cannot", func() {
			proposal.Status = ProposalStatus_Executed
			So(proposal.Cancel(9, "too late", start), ShouldEqual, ErrIllegalTransition)
		})
	})
}
