package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type ProposalStatus string

const (
	ProposalStatus_Draft             ProposalStatus = "draft"
	ProposalStatus_Submitted         ProposalStatus = "submitted"
	ProposalStatus_UnderReview       ProposalStatus = "under_review"
	ProposalStatus_ApprovedForVoting ProposalStatus = "approved_for_voting"
	ProposalStatus_VotingActive      ProposalStatus = "voting_active"
	ProposalStatus_VotingEnded       ProposalStatus = "voting_ended"
	ProposalStatus_Passed            ProposalStatus = "passed"
	ProposalStatus_Rejected          ProposalStatus = "rejected"
	ProposalStatus_Queued            ProposalStatus = "queued"
	ProposalStatus_Executed          ProposalStatus = "executed"
	ProposalStatus_Cancelled         ProposalStatus = "cancelled"
	ProposalStatus_Expired           ProposalStatus = "expired"
)

func (status ProposalStatus) String() string {
	return string(status)
}

func (status ProposalStatus) IsValid() bool {
	switch status {
	case ProposalStatus_Draft,
		ProposalStatus_Submitted,
		ProposalStatus_UnderReview,
		ProposalStatus_ApprovedForVoting,
		ProposalStatus_VotingActive,
		ProposalStatus_VotingEnded,
		ProposalStatus_Passed,
		ProposalStatus_Rejected,
		ProposalStatus_Queued,
		ProposalStatus_Executed,
		ProposalStatus_Cancelled,
		ProposalStatus_Expired:
		return true
	default:
		return false
	}
}

func (status ProposalStatus) IsFinal() bool {
	switch status {
	case ProposalStatus_Rejected, ProposalStatus_Executed, ProposalStatus_Cancelled, ProposalStatus_Expired:
		return true
	default:
		return false
	}
}

type ProposalCategory string

const (
	ProposalCategory_Tokenomics ProposalCategory = "tokenomics"
	ProposalCategory_Governance ProposalCategory = "governance"
	ProposalCategory_Technical  ProposalCategory = "technical"
	ProposalCategory_Economic   ProposalCategory = "economic"
	ProposalCategory_Community  ProposalCategory = "community"
	ProposalCategory_Security   ProposalCategory = "security"
	ProposalCategory_Treasury   ProposalCategory = "treasury"
	ProposalCategory_Emergency  ProposalCategory = "emergency"
)

type ProposalType string

const (
	ProposalType_ParameterChange    ProposalType = "parameter_change"
	ProposalType_TreasuryAllocation ProposalType = "treasury_allocation"
	ProposalType_BurnDecision       ProposalType = "burn_decision"
	ProposalType_RewardAdjustment   ProposalType = "reward_adjustment"
	ProposalType_GovernanceChange   ProposalType = "governance_change"
	ProposalType_EmergencyAction    ProposalType = "emergency_action"
	ProposalType_PolicyChange       ProposalType = "policy_change"
)

// Category defaults. Burn and emergency proposals need a larger majority;
// emergency actions execute after a much shorter delay.
const (
	DefaultMinimumQuorum       = 100
	DefaultVotingDurationHours = 168
	DefaultExecutionDelayHours = 24
	EmergencyExecutionDelayHours = 1
)

var (
	DefaultApprovalThreshold   = decimal.New(666700, 4) // 66.67
	BurnApprovalThreshold      = decimal.New(75, 0)
	EmergencyApprovalThreshold = decimal.New(80, 0)
)

// ApprovalThresholdFor returns the approval threshold percentage for a
// proposal category
func ApprovalThresholdFor(category ProposalCategory, proposalType ProposalType) *decimal.Big {
	if proposalType == ProposalType_BurnDecision {
		return conv.CloneToPrecision(BurnApprovalThreshold)
	}
	if category == ProposalCategory_Emergency || proposalType == ProposalType_EmergencyAction {
		return conv.CloneToPrecision(EmergencyApprovalThreshold)
	}
	return conv.CloneToPrecision(DefaultApprovalThreshold)
}

// ExecutionDelayFor returns the queue delay for a proposal category
func ExecutionDelayFor(category ProposalCategory, proposalType ProposalType) time.Duration {
	if category == ProposalCategory_Emergency || proposalType == ProposalType_EmergencyAction {
		return EmergencyExecutionDelayHours * time.Hour
	}
	return DefaultExecutionDelayHours * time.Hour
}

// GovernanceProposal carries the power weighted vote tally. Approval is by
// voting power, not voter count: abstain power never enters the denominator.
type GovernanceProposal struct {
	ID                  uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID             uint64            `gorm:"column:space_id" json:"space_id"`
	ProposerID          uint64            `gorm:"column:proposer_id" json:"proposer_id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Category            ProposalCategory  `sql:"not null;type:proposal_category_t" json:"category"`
	ProposalType        ProposalType      `sql:"not null;type:proposal_type_t" json:"proposal_type"`
	Parameters          string            `sql:"type:jsonb" json:"parameters"`
	MinimumQuorum       int               `sql:"not null;default:100" json:"minimum_quorum"`
	QuorumThreshold     *postgres.Decimal `sql:"type:decimal(36,18)" json:"quorum_threshold"`
	ApprovalThreshold   *postgres.Decimal `sql:"type:decimal(12,6)" json:"approval_threshold"`
	VotingStartDate     *time.Time        `json:"voting_start_date"`
	VotingEndDate       *time.Time        `json:"voting_end_date"`
	VotingDurationHours int               `sql:"not null;default:168" json:"voting_duration_hours"`
	Status              ProposalStatus    `sql:"not null;type:proposal_status_t;default:'draft'" json:"status"`
	VotesFor            int               `sql:"not null;default:0" json:"votes_for"`
	VotesAgainst        int               `sql:"not null;default:0" json:"votes_against"`
	VotesAbstain        int               `sql:"not null;default:0" json:"votes_abstain"`
	TotalVotingPower    *postgres.Decimal `sql:"type:decimal(36,18)" json:"total_voting_power"`
	VotingPowerFor      *postgres.Decimal `sql:"type:decimal(36,18)" json:"voting_power_for"`
	VotingPowerAgainst  *postgres.Decimal `sql:"type:decimal(36,18)" json:"voting_power_against"`
	VotingPowerAbstain  *postgres.Decimal `sql:"type:decimal(36,18)" json:"voting_power_abstain"`
	QuorumReached       bool              `sql:"not null;default:false" json:"quorum_reached"`
	ExecutionDelayHours int               `sql:"not null;default:24" json:"execution_delay_hours"`
	ExecutionDeadline   *time.Time        `json:"execution_deadline"`
	ExecutedAt          *time.Time        `json:"executed_at"`
	ExecutedBy          *uint64           `gorm:"column:executed_by" json:"executed_by"`
	BurnDecisionID      *uint64           `gorm:"column:burn_decision_id" json:"burn_decision_id"`
	ReviewedBy          *uint64           `gorm:"column:reviewed_by" json:"reviewed_by"`
	ReviewedAt          *time.Time        `json:"reviewed_at"`
	ReviewNotes         string            `json:"review_notes"`
	CancelledBy         *uint64           `gorm:"column:cancelled_by" json:"cancelled_by"`
	CancelledAt         *time.Time        `json:"cancelled_at"`
	CancellationReason  string            `json:"cancellation_reason"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// GovernanceProposalList structure
type GovernanceProposalList struct {
	Proposals []GovernanceProposal `json:"proposals"`
	Meta      PagingMeta           `json:"meta"`
}

// NewGovernanceProposal creates a draft with category defaults applied
func NewGovernanceProposal(spaceID, proposerID uint64, title, description string, category ProposalCategory, proposalType ProposalType) *GovernanceProposal {
	delay := int(ExecutionDelayFor(category, proposalType) / time.Hour)
	return &GovernanceProposal{
		SpaceID:             spaceID,
		ProposerID:          proposerID,
		Title:               title,
		Description:         description,
		Category:            category,
		ProposalType:        proposalType,
		MinimumQuorum:       DefaultMinimumQuorum,
		ApprovalThreshold:   &postgres.Decimal{V: ApprovalThresholdFor(category, proposalType)},
		VotingDurationHours: DefaultVotingDurationHours,
		ExecutionDelayHours: delay,
		Status:              ProposalStatus_Draft,
		TotalVotingPower:    &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		VotingPowerFor:      &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		VotingPowerAgainst:  &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		VotingPowerAbstain:  &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
	}
}

func (proposal *GovernanceProposal) Submit(now time.Time) error {
	if proposal.Status != ProposalStatus_Draft {
		return ErrIllegalTransition
	}
	proposal.Status = ProposalStatus_Submitted
	proposal.UpdatedAt = now
	return nil
}

func (proposal *GovernanceProposal) StartReview(reviewer uint64, now time.Time) error {
	if proposal.Status != ProposalStatus_Submitted {
		return ErrIllegalTransition
	}
	proposal.Status = ProposalStatus_UnderReview
	proposal.ReviewedBy = &reviewer
	proposal.ReviewedAt = &now
	proposal.UpdatedAt = now
	return nil
}

func (proposal *GovernanceProposal) ApproveForVoting(approver uint64, now time.Time) error {
	if proposal.Status != ProposalStatus_UnderReview {
		return ErrIllegalTransition
	}
	proposal.Status = ProposalStatus_ApprovedForVoting
	proposal.ReviewedBy = &approver
	proposal.ReviewedAt = &now
	proposal.UpdatedAt = now
	return nil
}

// StartVoting opens the window and fixes the execution deadline
func (proposal *GovernanceProposal) StartVoting(now time.Time) error {
	if proposal.Status != ProposalStatus_ApprovedForVoting {
		return ErrIllegalTransition
	}
	end := now.Add(time.Duration(proposal.VotingDurationHours) * time.Hour)
	deadline := end.Add(time.Duration(proposal.ExecutionDelayHours) * time.Hour * 2)
	proposal.Status = ProposalStatus_VotingActive
	proposal.VotingStartDate = &now
	proposal.VotingEndDate = &end
	proposal.ExecutionDeadline = &deadline
	proposal.UpdatedAt = now
	return nil
}

func (proposal *GovernanceProposal) IsVotingEnded(now time.Time) bool {
	return proposal.VotingEndDate != nil && now.After(*proposal.VotingEndDate)
}

// ApplyVote adds one vote's power to the tally. Vote changes pass the delta
// through RetractVote first.
func (proposal *GovernanceProposal) ApplyVote(choice VoteChoice, power *decimal.Big, now time.Time) error {
	if proposal.Status != ProposalStatus_VotingActive {
		return ErrIllegalTransition
	}
	if proposal.IsVotingEnded(now) {
		return ErrVotingClosed
	}
	switch choice {
	case VoteChoice_For:
		proposal.VotesFor++
		proposal.VotingPowerFor.V.Add(proposal.VotingPowerFor.V, power)
	case VoteChoice_Against:
		proposal.VotesAgainst++
		proposal.VotingPowerAgainst.V.Add(proposal.VotingPowerAgainst.V, power)
	case VoteChoice_Abstain:
		proposal.VotesAbstain++
		proposal.VotingPowerAbstain.V.Add(proposal.VotingPowerAbstain.V, power)
	default:
		return ErrInvalidStatus
	}
	proposal.TotalVotingPower.V.Add(proposal.TotalVotingPower.V, power)
	proposal.UpdatedAt = now
	return nil
}

// RetractVote removes a previously applied vote so it can be re-applied with
// a new choice
func (proposal *GovernanceProposal) RetractVote(choice VoteChoice, power *decimal.Big, now time.Time) error {
	if proposal.Status != ProposalStatus_VotingActive {
		return ErrIllegalTransition
	}
	if proposal.IsVotingEnded(now) {
		return ErrVotingClosed
	}
	switch choice {
	case VoteChoice_For:
		proposal.VotesFor--
		proposal.VotingPowerFor.V.Sub(proposal.VotingPowerFor.V, power)
	case VoteChoice_Against:
		proposal.VotesAgainst--
		proposal.VotingPowerAgainst.V.Sub(proposal.VotingPowerAgainst.V, power)
	case VoteChoice_Abstain:
		proposal.VotesAbstain--
		proposal.VotingPowerAbstain.V.Sub(proposal.VotingPowerAbstain.V, power)
	default:
		return ErrInvalidStatus
	}
	proposal.TotalVotingPower.V.Sub(proposal.TotalVotingPower.V, power)
	proposal.UpdatedAt = now
	return nil
}

func (proposal *GovernanceProposal) TotalVotes() int {
	return proposal.VotesFor + proposal.VotesAgainst + proposal.VotesAbstain
}

// ApprovalRateByPower is votingPowerFor over for+against power, as a
// percentage. Abstain power is excluded from the denominator.
func (proposal *GovernanceProposal) ApprovalRateByPower() *decimal.Big {
	valid := conv.NewDecimalWithPrecision().Add(proposal.VotingPowerFor.V, proposal.VotingPowerAgainst.V)
	if valid.Sign() == 0 {
		return conv.NewDecimalWithPrecision()
	}
	rate := conv.NewDecimalWithPrecision().Quo(proposal.VotingPowerFor.V, valid)
	return rate.Mul(rate, decimal.New(100, 0))
}

// CheckQuorum uses the power threshold when configured, the raw vote count
// minimum otherwise
func (proposal *GovernanceProposal) CheckQuorum() bool {
	if proposal.QuorumThreshold != nil && proposal.QuorumThreshold.V != nil {
		proposal.QuorumReached = proposal.TotalVotingPower.V.Cmp(proposal.QuorumThreshold.V) >= 0
	} else {
		proposal.QuorumReached = proposal.TotalVotes() >= proposal.MinimumQuorum
	}
	return proposal.QuorumReached
}

// FinalizeVoting settles the tally once the window has closed. Quorum plus
// an approval rate at or above the threshold passes and queues the proposal;
// anything else rejects it.
func (proposal *GovernanceProposal) FinalizeVoting(now time.Time) error {
	if proposal.Status != ProposalStatus_VotingActive {
		return ErrIllegalTransition
	}
	if !proposal.IsVotingEnded(now) {
		return ErrVotingOpen
	}
	proposal.Status = ProposalStatus_VotingEnded
	proposal.CheckQuorum()
	if proposal.QuorumReached {
		rate := proposal.ApprovalRateByPower()
		if rate.Cmp(proposal.ApprovalThreshold.V) >= 0 {
			proposal.Status = ProposalStatus_Passed
		} else {
			proposal.Status = ProposalStatus_Rejected
		}
	} else {
		proposal.Status = ProposalStatus_Rejected
	}
	proposal.UpdatedAt = now
	return nil
}

// Queue moves a passed proposal into the execution queue
func (proposal *GovernanceProposal) Queue(now time.Time) error {
	if proposal.Status != ProposalStatus_Passed {
		return ErrIllegalTransition
	}
	proposal.Status = ProposalStatus_Queued
	proposal.UpdatedAt = now
	return nil
}

// ExecutableAt is the earliest moment a queued proposal may execute
func (proposal *GovernanceProposal) ExecutableAt() time.Time {
	return proposal.VotingEndDate.Add(time.Duration(proposal.ExecutionDelayHours) * time.Hour)
}

// Execute runs a queued proposal after its delay and before its deadline
func (proposal *GovernanceProposal) Execute(executor uint64, now time.Time) error {
	if proposal.Status != ProposalStatus_Queued {
		return ErrIllegalTransition
	}
	if now.Before(proposal.ExecutableAt()) {
		return ErrNotExecutable
	}
	if proposal.ExecutionDeadline != nil && now.After(*proposal.ExecutionDeadline) {
		proposal.Status = ProposalStatus_Expired
		proposal.UpdatedAt = now
		return ErrNotExecutable
	}
	proposal.Status = ProposalStatus_Executed
	proposal.ExecutedBy = &executor
	proposal.ExecutedAt = &now
	proposal.UpdatedAt = now
	return nil
}

// Expire marks an overdue queued proposal as expired
func (proposal *GovernanceProposal) Expire(now time.Time) error {
	if proposal.Status != ProposalStatus_Queued {
		return ErrIllegalTransition
	}
	if proposal.ExecutionDeadline == nil || !now.After(*proposal.ExecutionDeadline) {
		return ErrNotExecutable
	}
	proposal.Status = ProposalStatus_Expired
	proposal.UpdatedAt = now
	return nil
}

// Cancel is allowed any time before execution
func (proposal *GovernanceProposal) Cancel(canceller uint64, reason string, now time.Time) error {
	switch proposal.Status {
	case ProposalStatus_Draft,
		ProposalStatus_Submitted,
		ProposalStatus_UnderReview,
		ProposalStatus_ApprovedForVoting,
		ProposalStatus_VotingActive,
		ProposalStatus_Queued:
	default:
		return ErrIllegalTransition
	}
	proposal.Status = ProposalStatus_Cancelled
	proposal.CancelledBy = &canceller
	proposal.CancelledAt = &now
	proposal.CancellationReason = reason
	proposal.UpdatedAt = now
	return nil
}

// MarshalJSON convert the proposal into a json string
func (proposal *GovernanceProposal) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                   proposal.ID,
		"space_id":             proposal.SpaceID,
		"proposer_id":          proposal.ProposerID,
		"title":                proposal.Title,
		"category":             proposal.Category,
		"proposal_type":        proposal.ProposalType,
		"status":               proposal.Status,
		"minimum_quorum":       proposal.MinimumQuorum,
		"approval_threshold":   utils.Fmt(proposal.ApprovalThreshold.V),
		"votes_for":            proposal.VotesFor,
		"votes_against":        proposal.VotesAgainst,
		"votes_abstain":        proposal.VotesAbstain,
		"voting_power_for":     utils.Fmt(proposal.VotingPowerFor.V),
		"voting_power_against": utils.Fmt(proposal.VotingPowerAgainst.V),
		"voting_power_abstain": utils.Fmt(proposal.VotingPowerAbstain.V),
		"total_voting_power":   utils.Fmt(proposal.TotalVotingPower.V),
		"quorum_reached":       proposal.QuorumReached,
		"voting_end_date":      proposal.VotingEndDate,
		"created_at":           proposal.CreatedAt,
		"updated_at":           proposal.UpdatedAt,
	})
}
