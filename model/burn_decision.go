package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type BurnStatus string

const (
	BurnStatus_Proposed    BurnStatus = "proposed"
	BurnStatus_UnderReview BurnStatus = "under_review"
	BurnStatus_Voting      BurnStatus = "voting"
	BurnStatus_Approved    BurnStatus = "approved"
	BurnStatus_Scheduled   BurnStatus = "scheduled"
	BurnStatus_Executing   BurnStatus = "executing"
	BurnStatus_Completed   BurnStatus = "completed"
	BurnStatus_Failed      BurnStatus = "failed"
	BurnStatus_Rejected    BurnStatus = "rejected"
	BurnStatus_Cancelled   BurnStatus = "cancelled"
	BurnStatus_RolledBack  BurnStatus = "rolled_back"
)

func (status BurnStatus) String() string {
	return string(status)
}

func (status BurnStatus) IsValid() bool {
	switch status {
	case BurnStatus_Proposed,
		BurnStatus_UnderReview,
		BurnStatus_Voting,
		BurnStatus_Approved,
		BurnStatus_Scheduled,
		BurnStatus_Executing,
		BurnStatus_Completed,
		BurnStatus_Failed,
		BurnStatus_Rejected,
		BurnStatus_Cancelled,
		BurnStatus_RolledBack:
		return true
	default:
		return false
	}
}

func (status BurnStatus) IsFinal() bool {
	switch status {
	case BurnStatus_Failed, BurnStatus_Rejected, BurnStatus_Cancelled, BurnStatus_RolledBack:
		return true
	default:
		return false
	}
}

type BurnDecisionType string

const (
	BurnDecisionType_AiAutomatic        BurnDecisionType = "ai_automatic"
	BurnDecisionType_GovernanceProposal BurnDecisionType = "governance_proposal"
	BurnDecisionType_AdminDecision      BurnDecisionType = "admin_decision"
	BurnDecisionType_EmergencyBurn      BurnDecisionType = "emergency_burn"
	BurnDecisionType_ScheduledBurn      BurnDecisionType = "scheduled_burn"
	BurnDecisionType_CommunityRequest   BurnDecisionType = "community_request"
)

type BurnTriggerReason string

const (
	BurnTrigger_InflationControl  BurnTriggerReason = "inflation_control"
	BurnTrigger_ExcessSupply      BurnTriggerReason = "excess_supply"
	BurnTrigger_LowActivity       BurnTriggerReason = "low_activity"
	BurnTrigger_MarketCorrection  BurnTriggerReason = "market_correction"
	BurnTrigger_TokenomicsBalance BurnTriggerReason = "tokenomics_balance"
	BurnTrigger_GovernanceMandate BurnTriggerReason = "governance_mandate"
	BurnTrigger_SecurityMeasure   BurnTriggerReason = "security_measure"
	BurnTrigger_EcosystemHealth   BurnTriggerReason = "ecosystem_health"
)

type BurnVote string

const (
	BurnVote_For     BurnVote = "for"
	BurnVote_Against BurnVote = "against"
	BurnVote_Abstain BurnVote = "abstain"
)

// maxBurnRate is the hard 10% ceiling on a single burn decision
var maxBurnRate = decimal.New(10, 2) // 0.10

// BurnDecision tracks one burn proposal through review or voting, approval,
// scheduling and execution. Vote counters here are simple majorities; the
// power weighted tally lives on GovernanceProposal.
type BurnDecision struct {
	ID                      uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID                 uint64            `gorm:"column:space_id" json:"space_id"`
	ProposedAmount          *postgres.Decimal `sql:"type:decimal(36,18)" json:"proposed_amount"`
	ActualAmount            *postgres.Decimal `sql:"type:decimal(36,18)" json:"actual_amount"`
	CirculatingBefore       *postgres.Decimal `sql:"type:decimal(36,18)" json:"circulating_before"`
	CirculatingAfter        *postgres.Decimal `sql:"type:decimal(36,18)" json:"circulating_after"`
	BurnRateProposed        *postgres.Decimal `sql:"type:decimal(12,6)" json:"burn_rate_proposed"`
	BurnRateActual          *postgres.Decimal `sql:"type:decimal(12,6)" json:"burn_rate_actual"`
	DecisionType            BurnDecisionType  `sql:"not null;type:burn_decision_type_t" json:"decision_type"`
	TriggerReason           BurnTriggerReason `sql:"not null;type:burn_trigger_reason_t" json:"trigger_reason"`
	Rationale               string            `json:"rationale"`
	Status                  BurnStatus        `sql:"not null;type:burn_status_t;default:'proposed'" json:"status"`
	ProposalID              *uint64           `gorm:"column:proposal_id" json:"proposal_id"`
	AiDecisionID            *uint64           `gorm:"column:ai_decision_id" json:"ai_decision_id"`
	VotingEndDate           *time.Time        `json:"voting_end_date"`
	VotesFor                int               `sql:"not null;default:0" json:"votes_for"`
	VotesAgainst            int               `sql:"not null;default:0" json:"votes_against"`
	VotesAbstain            int               `sql:"not null;default:0" json:"votes_abstain"`
	QuorumReached           bool              `sql:"not null;default:false" json:"quorum_reached"`
	DecisionMakerID         *uint64           `gorm:"column:decision_maker_id" json:"decision_maker_id"`
	ApprovedBy              *uint64           `gorm:"column:approved_by" json:"approved_by"`
	ApprovedAt              *time.Time        `json:"approved_at"`
	ScheduledExecutionDate  *time.Time        `json:"scheduled_execution_date"`
	ActualExecutionDate     *time.Time        `json:"actual_execution_date"`
	ExecutedBy              *uint64           `gorm:"column:executed_by" json:"executed_by"`
	TransactionID           string            `gorm:"column:transaction_id" json:"transaction_id"`
	RollbackReason          string            `json:"rollback_reason"`
	RollbackTransactionID   string            `gorm:"column:rollback_transaction_id" json:"rollback_transaction_id"`
	FailedReason            string            `json:"failed_reason"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// BurnDecisionList structure
type BurnDecisionList struct {
	BurnDecisions []BurnDecision `json:"burn_decisions"`
	Meta          PagingMeta     `json:"meta"`
}

// NewBurnDecision validates the proposal against the circulating supply and
// the 10% rate ceiling. Invalid proposals are rejected at creation, never
// clamped.
func NewBurnDecision(spaceID uint64, proposed, circulating *decimal.Big, decisionType BurnDecisionType, trigger BurnTriggerReason, rationale string) (*BurnDecision, error) {
	if proposed == nil || proposed.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if circulating == nil || proposed.Cmp(circulating) > 0 {
		return nil, ErrExceedsCirculating
	}
	rate := conv.NewDecimalWithPrecision().Quo(proposed, circulating)
	if rate.Sign() <= 0 || rate.Cmp(maxBurnRate) > 0 {
		return nil, ErrInvalidRate
	}
	return &BurnDecision{
		SpaceID:           spaceID,
		ProposedAmount:    &postgres.Decimal{V: proposed},
		CirculatingBefore: &postgres.Decimal{V: circulating},
		BurnRateProposed:  &postgres.Decimal{V: rate},
		DecisionType:      decisionType,
		TriggerReason:     trigger,
		Rationale:         rationale,
		Status:            BurnStatus_Proposed,
	}, nil
}

func (decision *BurnDecision) StartReview(now time.Time) error {
	if decision.Status != BurnStatus_Proposed {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_UnderReview
	decision.UpdatedAt = now
	return nil
}

// StartVoting opens the vote window on a proposed or reviewed decision
func (decision *BurnDecision) StartVoting(duration time.Duration, now time.Time) error {
	if decision.Status != BurnStatus_Proposed && decision.Status != BurnStatus_UnderReview {
		return ErrIllegalTransition
	}
	end := now.Add(duration)
	decision.Status = BurnStatus_Voting
	decision.VotingEndDate = &end
	decision.UpdatedAt = now
	return nil
}

func (decision *BurnDecision) IsVotingEnded(now time.Time) bool {
	return decision.VotingEndDate != nil && now.After(*decision.VotingEndDate)
}

// AddVote increments the counter for one vote. Burn decision votes are one
// voter one vote; duplicates are guarded at the service layer.
func (decision *BurnDecision) AddVote(vote BurnVote, now time.Time) error {
	if decision.Status != BurnStatus_Voting {
		return ErrIllegalTransition
	}
	if decision.IsVotingEnded(now) {
		return ErrVotingClosed
	}
	switch BurnVote(strings.ToLower(string(vote))) {
	case BurnVote_For:
		decision.VotesFor++
	case BurnVote_Against:
		decision.VotesAgainst++
	case BurnVote_Abstain:
		decision.VotesAbstain++
	default:
		return ErrInvalidStatus
	}
	decision.UpdatedAt = now
	return nil
}

func (decision *BurnDecision) TotalVotes() int {
	return decision.VotesFor + decision.VotesAgainst + decision.VotesAbstain
}

// ApprovalRate is the percentage of FOR votes over all votes cast
func (decision *BurnDecision) ApprovalRate() *decimal.Big {
	total := decision.TotalVotes()
	if total == 0 {
		return conv.NewDecimalWithPrecision()
	}
	rate := conv.NewDecimalWithPrecision().Quo(decimal.New(int64(decision.VotesFor), 0), decimal.New(int64(total), 0))
	return rate.Mul(rate, decimal.New(100, 0))
}

// CheckQuorum compares total votes to the required minimum and records the
// result
func (decision *BurnDecision) CheckQuorum(requiredVotes int) bool {
	decision.QuorumReached = decision.TotalVotes() >= requiredVotes
	return decision.QuorumReached
}

// Approve settles the decision. A voting decision needs a closed window,
// quorum and a strict FOR majority; ties and missed quorum reject. A
// proposed or reviewed decision may be approved directly by an admin.
func (decision *BurnDecision) Approve(approver uint64, now time.Time) error {
	switch decision.Status {
	case BurnStatus_Voting:
		if !decision.IsVotingEnded(now) {
			return ErrVotingOpen
		}
		if !decision.QuorumReached || decision.VotesFor <= decision.VotesAgainst {
			decision.Status = BurnStatus_Rejected
			decision.UpdatedAt = now
			return nil
		}
	case BurnStatus_Proposed, BurnStatus_UnderReview:
	default:
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Approved
	decision.ApprovedBy = &approver
	decision.ApprovedAt = &now
	decision.UpdatedAt = now
	return nil
}

func (decision *BurnDecision) Schedule(executionDate time.Time, now time.Time) error {
	if decision.Status != BurnStatus_Approved {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Scheduled
	decision.ScheduledExecutionDate = &executionDate
	decision.UpdatedAt = now
	return nil
}

func (decision *BurnDecision) MarkAsExecuting(now time.Time) error {
	if decision.Status != BurnStatus_Approved && decision.Status != BurnStatus_Scheduled {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Executing
	decision.UpdatedAt = now
	return nil
}

// MarkAsCompleted records the executed burn and recomputes the actual rate
// against the circulating supply before the burn
func (decision *BurnDecision) MarkAsCompleted(actualAmount, circulatingAfter *decimal.Big, transactionID string, executor uint64, now time.Time) error {
	if decision.Status != BurnStatus_Executing {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Completed
	decision.ActualAmount = &postgres.Decimal{V: actualAmount}
	decision.CirculatingAfter = &postgres.Decimal{V: circulatingAfter}
	rate := conv.NewDecimalWithPrecision().Quo(actualAmount, decision.CirculatingBefore.V)
	decision.BurnRateActual = &postgres.Decimal{V: rate}
	decision.TransactionID = transactionID
	decision.ExecutedBy = &executor
	decision.ActualExecutionDate = &now
	decision.UpdatedAt = now
	return nil
}

func (decision *BurnDecision) MarkAsFailed(reason string, now time.Time) error {
	if decision.Status != BurnStatus_Executing {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Failed
	decision.FailedReason = reason
	decision.UpdatedAt = now
	return nil
}

// Cancel is allowed before execution starts
func (decision *BurnDecision) Cancel(reason string, now time.Time) error {
	switch decision.Status {
	case BurnStatus_Proposed, BurnStatus_UnderReview, BurnStatus_Voting, BurnStatus_Approved, BurnStatus_Scheduled:
	default:
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_Cancelled
	decision.FailedReason = reason
	decision.UpdatedAt = now
	return nil
}

// RollBack marks a completed decision as rolled back and links the
// compensating re-issue transaction. Only completed decisions can roll back.
func (decision *BurnDecision) RollBack(reason, rollbackTransactionID string, now time.Time) error {
	if decision.Status != BurnStatus_Completed {
		return ErrIllegalTransition
	}
	decision.Status = BurnStatus_RolledBack
	decision.RollbackReason = reason
	decision.RollbackTransactionID = rollbackTransactionID
	decision.UpdatedAt = now
	return nil
}

// MarshalJSON convert the burn decision into a json string
func (decision *BurnDecision) MarshalJSON() ([]byte, error) {
	var actual, rateActual interface{}
	if decision.ActualAmount != nil && decision.ActualAmount.V != nil {
		actual = utils.Fmt(decision.ActualAmount.V)
	}
	if decision.BurnRateActual != nil && decision.BurnRateActual.V != nil {
		rateActual = utils.Fmt(decision.BurnRateActual.V)
	}
	return json.Marshal(map[string]interface{}{
		"id":                 decision.ID,
		"space_id":           decision.SpaceID,
		"proposed_amount":    utils.Fmt(decision.ProposedAmount.V),
		"actual_amount":      actual,
		"circulating_before": utils.Fmt(decision.CirculatingBefore.V),
		"burn_rate_proposed": utils.Fmt(decision.BurnRateProposed.V),
		"burn_rate_actual":   rateActual,
		"decision_type":      decision.DecisionType,
		"trigger_reason":     decision.TriggerReason,
		"status":             decision.Status,
		"votes_for":          decision.VotesFor,
		"votes_against":      decision.VotesAgainst,
		"votes_abstain":      decision.VotesAbstain,
		"quorum_reached":     decision.QuorumReached,
		"created_at":         decision.CreatedAt,
		"updated_at":         decision.UpdatedAt,
	})
}
