package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type VoteChoice string

const (
	VoteChoice_For     VoteChoice = "for"
	VoteChoice_Against VoteChoice = "against"
	VoteChoice_Abstain VoteChoice = "abstain"
)

func (choice VoteChoice) String() string {
	return string(choice)
}

func (choice VoteChoice) IsValid() bool {
	switch choice {
	case VoteChoice_For, VoteChoice_Against, VoteChoice_Abstain:
		return true
	default:
		return false
	}
}

type VotingMethod string

const (
	VotingMethod_Direct    VotingMethod = "direct"
	VotingMethod_Delegated VotingMethod = "delegated"
	VotingMethod_Api       VotingMethod = "api"
)

// GovernanceVote is one voter's position on one proposal. The balance
// snapshot and the final power are frozen at cast time; later balance moves
// never change an already cast vote's weight.
type GovernanceVote struct {
	ID                   uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	ProposalID           uint64            `gorm:"column:proposal_id" json:"proposal_id"`
	VoterID              uint64            `gorm:"column:voter_id" json:"voter_id"`
	SpaceID              uint64            `gorm:"column:space_id" json:"space_id"`
	Choice               VoteChoice        `sql:"not null;type:vote_choice_t" json:"choice"`
	TokenBalanceSnapshot *postgres.Decimal `sql:"type:decimal(36,18)" json:"token_balance_snapshot"`
	DelegatedPower       *postgres.Decimal `sql:"type:decimal(36,18)" json:"delegated_power"`
	DelegationMultiplier *postgres.Decimal `sql:"type:decimal(12,6)" json:"delegation_multiplier"`
	ActivityBonus        *postgres.Decimal `sql:"type:decimal(12,6)" json:"activity_bonus"`
	ReputationScore      *postgres.Decimal `sql:"type:decimal(12,6)" json:"reputation_score"`
	FinalVotingPower     *postgres.Decimal `sql:"type:decimal(36,18)" json:"final_voting_power"`
	VotingMethod         VotingMethod      `sql:"not null;type:voting_method_t;default:'direct'" json:"voting_method"`
	DelegatedFrom        *uint64           `gorm:"column:delegated_from" json:"delegated_from"`
	ConfidenceLevel      *int              `json:"confidence_level"`
	Comment              string            `json:"comment"`
	IsChanged            bool              `sql:"not null;default:false" json:"is_changed"`
	PreviousChoice       *VoteChoice       `sql:"type:vote_choice_t" json:"previous_choice"`
	ChangeReason         string            `json:"change_reason"`
	VotedAt              time.Time         `json:"voted_at"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// GovernanceVoteList structure
type GovernanceVoteList struct {
	Votes []GovernanceVote `json:"votes"`
	Meta  PagingMeta       `json:"meta"`
}

// ComputeVotingPower applies the weighting formula:
//
//	(balance + delegated) * (delegationMultiplier + activityBonus) * reputation/100
//
// A nil multiplier defaults to 1, a nil bonus to 0 and a nil reputation
// to 100, so an unadorned vote weighs exactly its balance snapshot.
func ComputeVotingPower(balance, delegated, multiplier, bonus, reputation *decimal.Big) *decimal.Big {
	if delegated == nil {
		delegated = conv.NewDecimalWithPrecision()
	}
	if multiplier == nil {
		multiplier = decimal.New(1, 0)
	}
	if bonus == nil {
		bonus = conv.NewDecimalWithPrecision()
	}
	if reputation == nil {
		reputation = decimal.New(100, 0)
	}
	base := conv.NewDecimalWithPrecision().Add(balance, delegated)
	weight := conv.NewDecimalWithPrecision().Add(multiplier, bonus)
	power := conv.NewDecimalWithPrecision().Mul(base, weight)
	power.Mul(power, reputation)
	return power.Quo(power, decimal.New(100, 0))
}

// NewGovernanceVote casts a vote with its power computed and frozen
func NewGovernanceVote(proposalID, voterID, spaceID uint64, choice VoteChoice, balance, delegated, multiplier, bonus, reputation *decimal.Big, method VotingMethod, now time.Time) (*GovernanceVote, error) {
	if !choice.IsValid() {
		return nil, ErrInvalidStatus
	}
	if balance == nil || balance.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	power := ComputeVotingPower(balance, delegated, multiplier, bonus, reputation)
	if delegated == nil {
		delegated = conv.NewDecimalWithPrecision()
	}
	if multiplier == nil {
		multiplier = decimal.New(1, 0)
	}
	if bonus == nil {
		bonus = conv.NewDecimalWithPrecision()
	}
	if reputation == nil {
		reputation = decimal.New(100, 0)
	}
	return &GovernanceVote{
		ProposalID:           proposalID,
		VoterID:              voterID,
		SpaceID:              spaceID,
		Choice:               choice,
		TokenBalanceSnapshot: &postgres.Decimal{V: balance},
		DelegatedPower:       &postgres.Decimal{V: delegated},
		DelegationMultiplier: &postgres.Decimal{V: multiplier},
		ActivityBonus:        &postgres.Decimal{V: bonus},
		ReputationScore:      &postgres.Decimal{V: reputation},
		FinalVotingPower:     &postgres.Decimal{V: power},
		VotingMethod:         method,
		VotedAt:              now,
	}, nil
}

// Change switches the vote to a new choice, keeping the original power.
// The proposal tally delta is the caller's responsibility.
func (vote *GovernanceVote) Change(choice VoteChoice, reason string, now time.Time) error {
	if !choice.IsValid() {
		return ErrInvalidStatus
	}
	if choice == vote.Choice {
		return ErrDuplicateVote
	}
	previous := vote.Choice
	vote.PreviousChoice = &previous
	vote.Choice = choice
	vote.IsChanged = true
	vote.ChangeReason = reason
	vote.VotedAt = now
	vote.UpdatedAt = now
	return nil
}

func (vote *GovernanceVote) IsDelegated() bool {
	return vote.VotingMethod == VotingMethod_Delegated || vote.DelegatedFrom != nil
}

// MarshalJSON convert the vote into a json string
func (vote *GovernanceVote) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                     vote.ID,
		"proposal_id":            vote.ProposalID,
		"voter_id":               vote.VoterID,
		"space_id":               vote.SpaceID,
		"choice":                 vote.Choice,
		"token_balance_snapshot": utils.Fmt(vote.TokenBalanceSnapshot.V),
		"delegated_power":        utils.Fmt(vote.DelegatedPower.V),
		"final_voting_power":     utils.Fmt(vote.FinalVotingPower.V),
		"voting_method":          vote.VotingMethod,
		"is_changed":             vote.IsChanged,
		"previous_choice":        vote.PreviousChoice,
		"voted_at":               vote.VotedAt,
	})
}
