package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

// AiDecisionInput carries the scored recommendation from a model run
type AiDecisionInput struct {
	DecisionType      model.AiDecisionType
	ModelVersion      string
	AlgorithmName     string
	RecommendedAction string
	DecisionRationale string
	InputParameters   string
	DecisionFactors   string
	ExpectedOutcomes  string
	Confidence        *decimal.Big
	Risk              *decimal.Big
	Impact            *decimal.Big
	ComputationTimeMs int64
}

// LogAiDecision records an automated decision and applies the oversight
// gate. A decision that clears the gate is approved immediately; a gated one
// stays proposed until a human reviews it.
func (s *Service) LogAiDecision(spaceID uint64, input AiDecisionInput, now time.Time) (*model.AiDecision, error) {
	decision, err := model.NewAiDecision(
		spaceID, input.DecisionType, input.ModelVersion, input.AlgorithmName,
		input.RecommendedAction, input.Confidence, input.Risk, input.Impact, now,
	)
	if err != nil {
		return nil, err
	}
	decision.DecisionRationale = input.DecisionRationale
	decision.InputParameters = input.InputParameters
	decision.DecisionFactors = input.DecisionFactors
	decision.ExpectedOutcomes = input.ExpectedOutcomes
	decision.ComputationTimeMs = input.ComputationTimeMs

	if decision.HumanReviewRequired {
		monitor.AiDecisionsGated.WithLabelValues(string(input.DecisionType)).Inc()
	} else {
		if err := decision.AutoApprove(now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateAiDecision(decision); err != nil {
		return nil, err
	}
	s.publishEvent("ai_decision_logged", decision)
	return decision, nil
}

// StartAiReview places a gated decision under human review
func (s *Service) StartAiReview(decisionID, reviewer uint64, now time.Time) (*model.AiDecision, error) {
	decision, err := s.repo.GetAiDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.StartReview(reviewer, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAiDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// CompleteAiReview settles a human review with its result
func (s *Service) CompleteAiReview(decisionID, reviewer uint64, result model.AiReviewResult, notes string, now time.Time) (*model.AiDecision, error) {
	decision, err := s.repo.GetAiDecision(decisionID)
	if err != nil {
		return nil, err
	}
	decision.ReviewedBy = &reviewer
	decision.ReviewedAt = &now
	if err := decision.CompleteReview(result, notes, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAiDecision(nil, decision); err != nil {
		return nil, err
	}
	s.publishEvent("ai_decision_reviewed", decision)
	return decision, nil
}

// ExecuteAiDecision runs an approved decision. Burn and collection decisions
// dispatch into their own workflows, which carry their own state machines;
// everything else just records the execution result. Amount is required for
// token burn decisions and ignored otherwise.
func (s *Service) ExecuteAiDecision(decisionID, executor uint64, amount *decimal.Big, result string, now time.Time) (*model.AiDecision, error) {
	decision, err := s.repo.GetAiDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if !decision.IsExecutable(now) {
		return nil, model.ErrNotExecutable
	}

	switch decision.DecisionType {
	case model.AiDecisionType_TokenBurn:
		// the burn enters its own proposal flow, linked back to this decision
		burn, err := s.ProposeBurn(
			decision.SpaceID,
			amount,
			model.BurnDecisionType_AiAutomatic,
			model.BurnTrigger_EcosystemHealth,
			decision.DecisionRationale,
			nil, now,
		)
		if err != nil {
			if markErr := decision.MarkAsFailed(err.Error(), now); markErr == nil {
				_ = s.repo.UpdateAiDecision(nil, decision)
			}
			return nil, err
		}
		burn.AiDecisionID = &decision.ID
		if err := s.repo.UpdateBurnDecision(nil, burn); err != nil {
			return nil, err
		}
		decision.ReferenceID = utils.Uint64ToString(burn.ID)
		decision.ReferenceType = model.TxReference_BurnDecision

	case model.AiDecisionType_CollectionTrigger:
		if _, err := s.ScanCollectionTargets(decision.SpaceID, model.CollectionTrigger_AiDecision, now); err != nil {
			if markErr := decision.MarkAsFailed(err.Error(), now); markErr == nil {
				_ = s.repo.UpdateAiDecision(nil, decision)
			}
			return nil, err
		}
	}

	if err := decision.Execute(executor, result, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAiDecision(nil, decision); err != nil {
		return nil, err
	}
	s.publishEvent("ai_decision_executed", decision)
	return decision, nil
}

// CancelAiDecision godoc
func (s *Service) CancelAiDecision(decisionID uint64, now time.Time) (*model.AiDecision, error) {
	decision, err := s.repo.GetAiDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.Cancel(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAiDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// RecordAiFeedback stores the observed outcome for model evaluation
func (s *Service) RecordAiFeedback(decisionID uint64, score *decimal.Big, outcomes, variance string, now time.Time) (*model.AiDecision, error) {
	decision, err := s.repo.GetAiDecision(decisionID)
	if err != nil {
		return nil, err
	}
	decision.RecordFeedback(score, outcomes, variance, now)
	if err := s.repo.UpdateAiDecision(nil, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// GetAiDecision godoc
func (s *Service) GetAiDecision(id uint64) (*model.AiDecision, error) {
	return s.repo.GetAiDecision(id)
}

// GetPendingReviewDecisions godoc
func (s *Service) GetPendingReviewDecisions(spaceID uint64) ([]*model.AiDecision, error) {
	return s.repo.GetPendingReviewDecisions(spaceID)
}

// GetAiDecisions godoc
func (s *Service) GetAiDecisions(spaceID uint64, status model.AiDecisionStatus, limit, page int) (*model.AiDecisionList, error) {
	return s.repo.GetAiDecisions(spaceID, status, limit, page)
}
