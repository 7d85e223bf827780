package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/utils"
	"gorm.io/gorm"
)

// ProposeBurn opens a burn decision against the current circulating supply.
// Governance driven burns go straight into their voting window; admin and
// emergency burns stay proposed until approved.
func (s *Service) ProposeBurn(spaceID uint64, amount *decimal.Big, decisionType model.BurnDecisionType, trigger model.BurnTriggerReason, rationale string, proposerID *uint64, now time.Time) (*model.BurnDecision, error) {
	pool, err := s.repo.GetTokenPool(spaceID)
	if err != nil {
		return nil, err
	}

	decision, err := model.NewBurnDecision(spaceID, amount, conv.CloneToPrecision(pool.CirculatingSupply.V), decisionType, trigger, rationale)
	if err != nil {
		return nil, err
	}
	decision.DecisionMakerID = proposerID

	if decisionType == model.BurnDecisionType_GovernanceProposal || decisionType == model.BurnDecisionType_CommunityRequest {
		duration := time.Duration(s.cfg.Economy.Governance.BurnVotingHours) * time.Hour
		if err := decision.StartVoting(duration, now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateBurnDecision(decision); err != nil {
		return nil, err
	}
	s.publishEvent("burn_proposed", decision)
	return decision, nil
}

// VoteOnBurn records one vote on a burn decision in its voting window
func (s *Service) VoteOnBurn(decisionID uint64, vote model.BurnVote, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.AddVote(vote, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
		return nil, err
	}
	monitor.VotesCast.WithLabelValues(string(vote)).Inc()
	return decision, nil
}

// ApproveBurn lets an administrator approve a proposed or reviewed decision
func (s *Service) ApproveBurn(decisionID, approver uint64, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.Approve(approver, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// FinalizeBurnVotes settles every burn vote whose window has closed. Quorum
// and a strict FOR majority approve; anything else rejects.
func (s *Service) FinalizeBurnVotes(now time.Time) error {
	decisions, err := s.repo.GetEndedBurnVotes(now)
	if err != nil {
		return err
	}
	for _, decision := range decisions {
		decision.CheckQuorum(s.cfg.Economy.Governance.MinimumQuorum)
		if err := decision.Approve(0, now); err != nil {
			log.Error().Err(err).
				Str("section", "service").
				Uint64("burn_decision_id", decision.ID).
				Msg("Unable to finalize burn vote")
			continue
		}
		if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
			return err
		}
		s.publishEvent("burn_vote_finalized", decision)
	}
	return nil
}

// ScheduleBurn godoc
func (s *Service) ScheduleBurn(decisionID uint64, executionDate, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.Schedule(executionDate, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// ExecuteBurn removes the approved amount from circulating supply. The pool
// mutation, the system transaction and the decision settlement commit
// together.
func (s *Service) ExecuteBurn(decisionID, executor uint64, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.MarkAsExecuting(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
		return nil, err
	}

	amount := decision.ProposedAmount.V

	execErr := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		pool, err := s.repo.GetTokenPoolForUpdate(tx, decision.SpaceID)
		if err != nil {
			return err
		}
		if err := pool.Burn(amount, now); err != nil {
			return err
		}
		if err := s.repo.UpdateTokenPool(tx, pool); err != nil {
			return err
		}

		transaction := model.NewTokenTransaction(decision.SpaceID, model.TxKind_Burn, nil, nil, conv.CloneToPrecision(amount), nil)
		transaction.ReferenceType = model.TxReference_BurnDecision
		transaction.ReferenceID = utils.Uint64ToString(decision.ID)
		transaction.IsSystem = true
		transaction.IsReversible = false
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(tx, transaction); err != nil {
			return err
		}

		if err := decision.MarkAsCompleted(
			conv.CloneToPrecision(amount),
			conv.CloneToPrecision(pool.CirculatingSupply.V),
			transaction.ID, executor, now,
		); err != nil {
			return err
		}
		return s.repo.UpdateBurnDecision(tx, decision)
	})
	if execErr != nil {
		if err := decision.MarkAsFailed(execErr.Error(), now); err == nil {
			_ = s.repo.UpdateBurnDecision(nil, decision)
		}
		return decision, execErr
	}

	monitor.TokensBurned.WithLabelValues(utils.Uint64ToString(decision.SpaceID)).Add(utils.ToFloat64(amount))
	s.publishEvent("burn_executed", decision)

	return decision, nil
}

// ProcessScheduledBurns executes every scheduled burn whose date has arrived
func (s *Service) ProcessScheduledBurns(now time.Time) error {
	decisions, err := s.repo.GetDueScheduledBurns(now)
	if err != nil {
		return err
	}
	var lastErr error
	for _, decision := range decisions {
		if _, err := s.ExecuteBurn(decision.ID, 0, now); err != nil {
			log.Error().Err(err).
				Str("section", "service").
				Uint64("burn_decision_id", decision.ID).
				Msg("Scheduled burn failed")
			lastErr = err
		}
	}
	return lastErr
}

// CancelBurn godoc
func (s *Service) CancelBurn(decisionID uint64, reason string, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBurnDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// RollbackBurn reverses a completed burn by re-issuing the burned amount.
// The original burn figures stay on record; the compensation is a new system
// transaction.
func (s *Service) RollbackBurn(decisionID, executor uint64, reason string, now time.Time) (*model.BurnDecision, error) {
	decision, err := s.repo.GetBurnDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if decision.Status != model.BurnStatus_Completed {
		return nil, model.ErrIllegalTransition
	}

	amount := decision.ActualAmount.V

	err = s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		pool, err := s.repo.GetTokenPoolForUpdate(tx, decision.SpaceID)
		if err != nil {
			return err
		}
		if err := pool.ReissueBurned(amount, now); err != nil {
			return err
		}
		if err := s.repo.UpdateTokenPool(tx, pool); err != nil {
			return err
		}

		transaction := model.NewTokenTransaction(decision.SpaceID, model.TxKind_SystemAdjustment, nil, nil, conv.CloneToPrecision(amount), nil)
		transaction.ReferenceType = model.TxReference_BurnDecision
		transaction.ReferenceID = utils.Uint64ToString(decision.ID)
		transaction.Description = "burn rollback"
		transaction.IsSystem = true
		transaction.IsReversible = false
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(tx, transaction); err != nil {
			return err
		}

		if err := decision.RollBack(reason, transaction.ID, now); err != nil {
			return err
		}
		return s.repo.UpdateBurnDecision(tx, decision)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent("burn_rolled_back", decision)
	return decision, nil
}

// GetBurnDecision godoc
func (s *Service) GetBurnDecision(id uint64) (*model.BurnDecision, error) {
	return s.repo.GetBurnDecision(id)
}

// GetBurnDecisions godoc
func (s *Service) GetBurnDecisions(spaceID uint64, status model.BurnStatus, limit, page int) (*model.BurnDecisionList, error) {
	return s.repo.GetBurnDecisions(spaceID, status, limit, page)
}
