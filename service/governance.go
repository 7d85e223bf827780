package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gorm.io/gorm"
)

// VoteInput carries the optional weighting inputs for one vote. Nil fields
// fall back to the neutral defaults, so a plain vote weighs its balance.
type VoteInput struct {
	Choice          model.VoteChoice
	Method          model.VotingMethod
	Delegated       *decimal.Big
	Multiplier      *decimal.Big
	ActivityBonus   *decimal.Big
	Reputation      *decimal.Big
	DelegatedFrom   *uint64
	ConfidenceLevel *int
	Comment         string
}

// CreateProposal creates a draft proposal with config overrides applied
func (s *Service) CreateProposal(spaceID, proposerID uint64, title, description string, category model.ProposalCategory, proposalType model.ProposalType, parameters string) (*model.GovernanceProposal, error) {
	proposal := model.NewGovernanceProposal(spaceID, proposerID, title, description, category, proposalType)
	proposal.Parameters = parameters
	if quorum := s.cfg.Economy.Governance.MinimumQuorum; quorum > 0 {
		proposal.MinimumQuorum = quorum
	}
	if hours := s.cfg.Economy.Governance.VotingDurationHours; hours > 0 {
		proposal.VotingDurationHours = hours
	}
	if err := s.repo.CreateProposal(proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// SubmitProposal godoc
func (s *Service) SubmitProposal(proposalID uint64, now time.Time) (*model.GovernanceProposal, error) {
	proposal, err := s.repo.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err := proposal.Submit(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProposal(nil, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// ReviewProposal moves a submitted proposal through review. Approval opens
// the path to voting, rejection cancels.
func (s *Service) ReviewProposal(proposalID, reviewer uint64, approve bool, notes string, now time.Time) (*model.GovernanceProposal, error) {
	proposal, err := s.repo.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err := proposal.StartReview(reviewer, now); err != nil {
		return nil, err
	}
	proposal.ReviewNotes = notes
	if approve {
		if err := proposal.ApproveForVoting(reviewer, now); err != nil {
			return nil, err
		}
	} else {
		if err := proposal.Cancel(reviewer, notes, now); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateProposal(nil, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// StartProposalVoting opens the voting window
func (s *Service) StartProposalVoting(proposalID uint64, now time.Time) (*model.GovernanceProposal, error) {
	proposal, err := s.repo.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err := proposal.StartVoting(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProposal(nil, proposal); err != nil {
		return nil, err
	}
	s.publishEvent("proposal_voting_started", proposal)
	return proposal, nil
}

// CastVote records one voter's position. The balance snapshot and the final
// power freeze at cast time; the proposal row is locked so concurrent votes
// serialize against the tally.
func (s *Service) CastVote(proposalID, voterID uint64, input VoteInput, now time.Time) (*model.GovernanceVote, error) {
	var vote *model.GovernanceVote

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		proposal, err := s.repo.GetProposalForUpdate(tx, proposalID)
		if err != nil {
			return err
		}

		existing, err := s.repo.GetVote(proposalID, voterID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrDuplicateVote
		}

		balance, err := s.repo.GetUserBalance(voterID, proposal.SpaceID)
		if err != nil {
			return err
		}
		// frozen accounts carry no voting power
		if balance.Frozen {
			return model.ErrAccountFrozen
		}

		vote, err = model.NewGovernanceVote(
			proposalID, voterID, proposal.SpaceID, input.Choice,
			conv.CloneToPrecision(balance.CurrentBalance.V),
			input.Delegated, input.Multiplier, input.ActivityBonus, input.Reputation,
			input.Method, now,
		)
		if err != nil {
			return err
		}
		vote.DelegatedFrom = input.DelegatedFrom
		vote.ConfidenceLevel = input.ConfidenceLevel
		vote.Comment = input.Comment

		if err := proposal.ApplyVote(input.Choice, vote.FinalVotingPower.V, now); err != nil {
			return err
		}
		if err := s.repo.CreateVote(tx, vote); err != nil {
			return err
		}
		return s.repo.UpdateProposal(tx, proposal)
	})
	if err != nil {
		return nil, err
	}

	monitor.VotesCast.WithLabelValues(string(input.Choice)).Inc()
	return vote, nil
}

// ChangeVote switches an existing vote to a new choice inside the open
// window. The original power moves with it; the tally sees a retract plus a
// re-apply in one transaction.
func (s *Service) ChangeVote(proposalID, voterID uint64, newChoice model.VoteChoice, reason string, now time.Time) (*model.GovernanceVote, error) {
	var vote *model.GovernanceVote

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		proposal, err := s.repo.GetProposalForUpdate(tx, proposalID)
		if err != nil {
			return err
		}

		vote, err = s.repo.GetVote(proposalID, voterID)
		if err != nil {
			return err
		}
		if vote == nil {
			return model.ErrAccountNotFound
		}

		balance, err := s.repo.GetUserBalance(voterID, proposal.SpaceID)
		if err != nil {
			return err
		}
		// frozen accounts carry no voting power
		if balance.Frozen {
			return model.ErrAccountFrozen
		}

		previousChoice := vote.Choice
		if err := vote.Change(newChoice, reason, now); err != nil {
			return err
		}
		if err := proposal.RetractVote(previousChoice, vote.FinalVotingPower.V, now); err != nil {
			return err
		}
		if err := proposal.ApplyVote(newChoice, vote.FinalVotingPower.V, now); err != nil {
			return err
		}
		if err := s.repo.UpdateVote(tx, vote); err != nil {
			return err
		}
		return s.repo.UpdateProposal(tx, proposal)
	})
	if err != nil {
		return nil, err
	}

	monitor.VotesCast.WithLabelValues(string(newChoice)).Inc()
	return vote, nil
}

// FinalizeProposals settles every proposal whose voting window has closed
// and queues the passed ones for execution
func (s *Service) FinalizeProposals(now time.Time) error {
	proposals, err := s.repo.GetEndedProposalVotes(now)
	if err != nil {
		return err
	}
	for _, proposal := range proposals {
		if err := proposal.FinalizeVoting(now); err != nil {
			log.Error().Err(err).
				Str("section", "service").
				Uint64("proposal_id", proposal.ID).
				Msg("Unable to finalize proposal voting")
			continue
		}
		if proposal.Status == model.ProposalStatus_Passed {
			if err := proposal.Queue(now); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateProposal(nil, proposal); err != nil {
			return err
		}
		s.publishEvent("proposal_finalized", proposal)
	}
	return nil
}

// ExecuteProposal runs a queued proposal once its delay has passed. A passed
// burn proposal approves its linked burn decision in the same step.
func (s *Service) ExecuteProposal(proposalID, executor uint64, now time.Time) (*model.GovernanceProposal, error) {
	proposal, err := s.repo.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err := proposal.Execute(executor, now); err != nil {
		// an overdue proposal flips to expired inside Execute
		_ = s.repo.UpdateProposal(nil, proposal)
		return nil, err
	}
	if err := s.repo.UpdateProposal(nil, proposal); err != nil {
		return nil, err
	}

	if proposal.ProposalType == model.ProposalType_BurnDecision && proposal.BurnDecisionID != nil {
		if _, err := s.ApproveBurn(*proposal.BurnDecisionID, executor, now); err != nil {
			log.Error().Err(err).
				Str("section", "service").
				Uint64("proposal_id", proposal.ID).
				Uint64("burn_decision_id", *proposal.BurnDecisionID).
				Msg("Unable to approve linked burn decision")
		}
	}

	s.publishEvent("proposal_executed", proposal)
	return proposal, nil
}

// CancelProposal godoc
func (s *Service) CancelProposal(proposalID, canceller uint64, reason string, now time.Time) (*model.GovernanceProposal, error) {
	proposal, err := s.repo.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if err := proposal.Cancel(canceller, reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProposal(nil, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// ExpireOverdueProposals sweeps queued proposals past their execution
// deadline
func (s *Service) ExpireOverdueProposals(now time.Time) error {
	proposals, err := s.repo.GetOverdueQueuedProposals(now)
	if err != nil {
		return err
	}
	for _, proposal := range proposals {
		if err := proposal.Expire(now); err != nil {
			continue
		}
		if err := s.repo.UpdateProposal(nil, proposal); err != nil {
			return err
		}
		s.publishEvent("proposal_expired", proposal)
	}
	return nil
}

// GetProposal godoc
func (s *Service) GetProposal(id uint64) (*model.GovernanceProposal, error) {
	return s.repo.GetProposal(id)
}

// GetProposals godoc
func (s *Service) GetProposals(spaceID uint64, status model.ProposalStatus, limit, page int) (*model.GovernanceProposalList, error) {
	return s.repo.GetProposals(spaceID, status, limit, page)
}

// GetVotes godoc
func (s *Service) GetVotes(proposalID uint64, limit, page int) (*model.GovernanceVoteList, error) {
	return s.repo.GetVotes(proposalID, limit, page)
}
