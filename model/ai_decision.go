package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type AiDecisionStatus string

const (
	AiDecisionStatus_Proposed    AiDecisionStatus = "proposed"
	AiDecisionStatus_UnderReview AiDecisionStatus = "under_review"
	AiDecisionStatus_Approved    AiDecisionStatus = "approved"
	AiDecisionStatus_Rejected    AiDecisionStatus = "rejected"
	AiDecisionStatus_Executed    AiDecisionStatus = "executed"
	AiDecisionStatus_Failed      AiDecisionStatus = "failed"
	AiDecisionStatus_Cancelled   AiDecisionStatus = "cancelled"
	AiDecisionStatus_Monitoring  AiDecisionStatus = "monitoring"
)

func (status AiDecisionStatus) String() string {
	return string(status)
}

func (status AiDecisionStatus) IsValid() bool {
	switch status {
	case AiDecisionStatus_Proposed,
		AiDecisionStatus_UnderReview,
		AiDecisionStatus_Approved,
		AiDecisionStatus_Rejected,
		AiDecisionStatus_Executed,
		AiDecisionStatus_Failed,
		AiDecisionStatus_Cancelled,
		AiDecisionStatus_Monitoring:
		return true
	default:
		return false
	}
}

type AiDecisionType string

const (
	AiDecisionType_TokenIssuance      AiDecisionType = "token_issuance"
	AiDecisionType_TokenBurn          AiDecisionType = "token_burn"
	AiDecisionType_RewardDistribution AiDecisionType = "reward_distribution"
	AiDecisionType_CollectionTrigger  AiDecisionType = "collection_trigger"
	AiDecisionType_GovernanceSupport  AiDecisionType = "governance_support"
	AiDecisionType_MarketIntervention AiDecisionType = "market_intervention"
	AiDecisionType_RiskMitigation     AiDecisionType = "risk_mitigation"
	AiDecisionType_AnomalyDetection   AiDecisionType = "anomaly_detection"
	AiDecisionType_Optimization       AiDecisionType = "optimization"
	AiDecisionType_Prediction         AiDecisionType = "prediction"
	AiDecisionType_Classification     AiDecisionType = "classification"
	AiDecisionType_Recommendation     AiDecisionType = "recommendation"
)

type AiReviewResult string

const (
	AiReviewResult_Approved      AiReviewResult = "approved"
	AiReviewResult_Rejected      AiReviewResult = "rejected"
	AiReviewResult_Modified      AiReviewResult = "modified"
	AiReviewResult_NeedsMoreData AiReviewResult = "needs_more_data"
	AiReviewResult_Escalated     AiReviewResult = "escalated"
)

// Review gate thresholds. A decision below the confidence floor, or above
// either the risk or impact ceiling, cannot skip human review.
var (
	aiReviewConfidenceFloor = decimal.New(80, 0)
	aiReviewRiskCeiling     = decimal.New(70, 0)
	aiReviewImpactCeiling   = decimal.New(80, 0)
)

// AiDecision records one automated decision and the oversight gate it passes
// through before anything irreversible happens.
type AiDecision struct {
	ID                  uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID             uint64            `gorm:"column:space_id" json:"space_id"`
	DecisionType        AiDecisionType    `sql:"not null;type:ai_decision_type_t" json:"decision_type"`
	ReferenceID         string            `gorm:"column:reference_id" json:"reference_id"`
	ReferenceType       TxReferenceType   `sql:"type:tx_reference_type_t" json:"reference_type"`
	ModelVersion        string            `sql:"not null;default:'v1.0'" json:"model_version"`
	AlgorithmName       string            `json:"algorithm_name"`
	InputParameters     string            `sql:"type:jsonb" json:"input_parameters"`
	DecisionFactors     string            `sql:"type:jsonb" json:"decision_factors"`
	ConfidenceScore     *postgres.Decimal `sql:"type:decimal(12,6)" json:"confidence_score"`
	RiskScore           *postgres.Decimal `sql:"type:decimal(12,6)" json:"risk_score"`
	ImpactScore         *postgres.Decimal `sql:"type:decimal(12,6)" json:"impact_score"`
	RecommendedAction   string            `json:"recommended_action"`
	DecisionRationale   string            `json:"decision_rationale"`
	ExpectedOutcomes    string            `json:"expected_outcomes"`
	DecisionDate        time.Time         `json:"decision_date"`
	ExecutionDeadline   *time.Time        `json:"execution_deadline"`
	Status              AiDecisionStatus  `sql:"not null;type:ai_decision_status_t;default:'proposed'" json:"status"`
	HumanReviewRequired bool              `sql:"not null;default:false" json:"human_review_required"`
	ReviewedBy          *uint64           `gorm:"column:reviewed_by" json:"reviewed_by"`
	ReviewedAt          *time.Time        `json:"reviewed_at"`
	ReviewNotes         string            `json:"review_notes"`
	ReviewResult        *AiReviewResult   `sql:"type:ai_review_result_t" json:"review_result"`
	ExecutedAt          *time.Time        `json:"executed_at"`
	ExecutedBy          *uint64           `gorm:"column:executed_by" json:"executed_by"`
	ExecutionResult     string            `sql:"type:jsonb" json:"execution_result"`
	ActualOutcomes      string            `sql:"type:jsonb" json:"actual_outcomes"`
	OutcomeVariance     string            `json:"outcome_variance"`
	FeedbackScore       *postgres.Decimal `sql:"type:decimal(12,6)" json:"feedback_score"`
	ModelAccuracy       *postgres.Decimal `sql:"type:decimal(12,6)" json:"model_accuracy"`
	DataFreshnessScore  *postgres.Decimal `sql:"type:decimal(12,6)" json:"data_freshness_score"`
	ExplainabilityScore *postgres.Decimal `sql:"type:decimal(12,6)" json:"explainability_score"`
	ComputationTimeMs   int64             `sql:"not null;default:0" json:"computation_time_ms"`
	ErrorMessage        string            `json:"error_message"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// AiDecisionList structure
type AiDecisionList struct {
	Decisions []AiDecision `json:"decisions"`
	Meta      PagingMeta   `json:"meta"`
}

// NewAiDecision logs a proposed decision. Scores outside [0, 100] are
// rejected. HumanReviewRequired is derived from the scores at creation.
func NewAiDecision(spaceID uint64, decisionType AiDecisionType, modelVersion, algorithmName, recommendedAction string, confidence, risk, impact *decimal.Big, now time.Time) (*AiDecision, error) {
	hundred := decimal.New(100, 0)
	for _, score := range []*decimal.Big{confidence, risk, impact} {
		if score == nil || score.Sign() < 0 || score.Cmp(hundred) > 0 {
			return nil, ErrInvalidRate
		}
	}
	if modelVersion == "" {
		modelVersion = "v1.0"
	}
	decision := &AiDecision{
		SpaceID:           spaceID,
		DecisionType:      decisionType,
		ModelVersion:      modelVersion,
		AlgorithmName:     algorithmName,
		RecommendedAction: recommendedAction,
		ConfidenceScore:   &postgres.Decimal{V: confidence},
		RiskScore:         &postgres.Decimal{V: risk},
		ImpactScore:       &postgres.Decimal{V: impact},
		DecisionDate:      now,
		Status:            AiDecisionStatus_Proposed,
	}
	decision.HumanReviewRequired = decision.RequiresHumanReview()
	return decision, nil
}

// RequiresHumanReview applies the oversight gate: low confidence, high risk
// or high impact all force a human into the loop
func (decision *AiDecision) RequiresHumanReview() bool {
	return decision.ConfidenceScore.V.Cmp(aiReviewConfidenceFloor) < 0 ||
		decision.RiskScore.V.Cmp(aiReviewRiskCeiling) > 0 ||
		decision.ImpactScore.V.Cmp(aiReviewImpactCeiling) > 0
}

// QualityScore blends the decision's scores into a single 0-100 figure:
// confidence 30%, inverted risk 20%, explainability 20%, model accuracy 20%
// and data freshness 10%. Missing optional scores count as zero.
func (decision *AiDecision) QualityScore() *decimal.Big {
	score := conv.NewDecimalWithPrecision().Mul(decision.ConfidenceScore.V, decimal.New(3, 1))
	invRisk := conv.NewDecimalWithPrecision().Sub(decimal.New(100, 0), decision.RiskScore.V)
	score.Add(score, invRisk.Mul(invRisk, decimal.New(2, 1)))
	if decision.ExplainabilityScore != nil && decision.ExplainabilityScore.V != nil {
		part := conv.NewDecimalWithPrecision().Mul(decision.ExplainabilityScore.V, decimal.New(2, 1))
		score.Add(score, part)
	}
	if decision.ModelAccuracy != nil && decision.ModelAccuracy.V != nil {
		part := conv.NewDecimalWithPrecision().Mul(decision.ModelAccuracy.V, decimal.New(2, 1))
		score.Add(score, part)
	}
	if decision.DataFreshnessScore != nil && decision.DataFreshnessScore.V != nil {
		part := conv.NewDecimalWithPrecision().Mul(decision.DataFreshnessScore.V, decimal.New(1, 1))
		score.Add(score, part)
	}
	return conv.RoundToPrecision(score)
}

// StartReview places the decision under human review
func (decision *AiDecision) StartReview(reviewer uint64, now time.Time) error {
	if decision.Status != AiDecisionStatus_Proposed {
		return ErrIllegalTransition
	}
	decision.Status = AiDecisionStatus_UnderReview
	decision.HumanReviewRequired = true
	decision.ReviewedBy = &reviewer
	decision.ReviewedAt = &now
	decision.UpdatedAt = now
	return nil
}

// AutoApprove approves a decision that passes the gate without review
func (decision *AiDecision) AutoApprove(now time.Time) error {
	if decision.Status != AiDecisionStatus_Proposed {
		return ErrIllegalTransition
	}
	if decision.RequiresHumanReview() {
		return ErrNotExecutable
	}
	decision.Status = AiDecisionStatus_Approved
	decision.UpdatedAt = now
	return nil
}

// CompleteReview settles a review. A modified result sends the decision back
// to proposed; needs_more_data and escalated keep it under review.
func (decision *AiDecision) CompleteReview(result AiReviewResult, notes string, now time.Time) error {
	if decision.Status != AiDecisionStatus_UnderReview {
		return ErrIllegalTransition
	}
	decision.ReviewResult = &result
	decision.ReviewNotes = notes
	switch result {
	case AiReviewResult_Approved:
		decision.Status = AiDecisionStatus_Approved
	case AiReviewResult_Rejected:
		decision.Status = AiDecisionStatus_Rejected
	case AiReviewResult_Modified:
		decision.Status = AiDecisionStatus_Proposed
	case AiReviewResult_NeedsMoreData, AiReviewResult_Escalated:
	default:
		return ErrInvalidStatus
	}
	decision.UpdatedAt = now
	return nil
}

// IsExecutable reports whether an approved decision is still inside its
// deadline
func (decision *AiDecision) IsExecutable(now time.Time) bool {
	return decision.Status == AiDecisionStatus_Approved &&
		(decision.ExecutionDeadline == nil || now.Before(*decision.ExecutionDeadline))
}

func (decision *AiDecision) Execute(executor uint64, result string, now time.Time) error {
	if decision.Status != AiDecisionStatus_Approved {
		return ErrIllegalTransition
	}
	if !decision.IsExecutable(now) {
		return ErrNotExecutable
	}
	decision.Status = AiDecisionStatus_Executed
	decision.ExecutedBy = &executor
	decision.ExecutedAt = &now
	decision.ExecutionResult = result
	decision.UpdatedAt = now
	return nil
}

func (decision *AiDecision) MarkAsFailed(errorMessage string, now time.Time) error {
	if decision.Status != AiDecisionStatus_Approved && decision.Status != AiDecisionStatus_Executed {
		return ErrIllegalTransition
	}
	decision.Status = AiDecisionStatus_Failed
	decision.ErrorMessage = errorMessage
	decision.UpdatedAt = now
	return nil
}

func (decision *AiDecision) Cancel(now time.Time) error {
	switch decision.Status {
	case AiDecisionStatus_Proposed, AiDecisionStatus_UnderReview, AiDecisionStatus_Approved:
	default:
		return ErrIllegalTransition
	}
	decision.Status = AiDecisionStatus_Cancelled
	decision.UpdatedAt = now
	return nil
}

// RecordFeedback stores the observed outcome for model evaluation
func (decision *AiDecision) RecordFeedback(score *decimal.Big, outcomes, variance string, now time.Time) {
	if score != nil {
		decision.FeedbackScore = &postgres.Decimal{V: score}
	}
	decision.ActualOutcomes = outcomes
	decision.OutcomeVariance = variance
	decision.UpdatedAt = now
}

// MarshalJSON convert the decision into a json string
func (decision *AiDecision) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                    decision.ID,
		"space_id":              decision.SpaceID,
		"decision_type":         decision.DecisionType,
		"reference_id":          decision.ReferenceID,
		"reference_type":        decision.ReferenceType,
		"model_version":         decision.ModelVersion,
		"algorithm_name":        decision.AlgorithmName,
		"confidence_score":      utils.Fmt(decision.ConfidenceScore.V),
		"risk_score":            utils.Fmt(decision.RiskScore.V),
		"impact_score":          utils.Fmt(decision.ImpactScore.V),
		"recommended_action":    decision.RecommendedAction,
		"status":                decision.Status,
		"human_review_required": decision.HumanReviewRequired,
		"review_result":         decision.ReviewResult,
		"decision_date":         decision.DecisionDate,
		"executed_at":           decision.ExecutedAt,
		"created_at":            decision.CreatedAt,
		"updated_at":            decision.UpdatedAt,
	})
}
