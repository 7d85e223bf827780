package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type RewardStatus string

const (
	RewardStatus_Pending    RewardStatus = "pending"
	RewardStatus_Approved   RewardStatus = "approved"
	RewardStatus_Processing RewardStatus = "processing"
	RewardStatus_Completed  RewardStatus = "completed"
	RewardStatus_Failed     RewardStatus = "failed"
	RewardStatus_Cancelled  RewardStatus = "cancelled"
	RewardStatus_Expired    RewardStatus = "expired"
)

func (status RewardStatus) String() string {
	return string(status)
}

func (status RewardStatus) IsValid() bool {
	switch status {
	case RewardStatus_Pending,
		RewardStatus_Approved,
		RewardStatus_Processing,
		RewardStatus_Completed,
		RewardStatus_Failed,
		RewardStatus_Cancelled,
		RewardStatus_Expired:
		return true
	default:
		return false
	}
}

func (status RewardStatus) IsFinal() bool {
	switch status {
	case RewardStatus_Completed, RewardStatus_Failed, RewardStatus_Cancelled, RewardStatus_Expired:
		return true
	default:
		return false
	}
}

type RewardCategory string

const (
	RewardCategory_ContentCreation     RewardCategory = "content_creation"
	RewardCategory_ContentCuration     RewardCategory = "content_curation"
	RewardCategory_CommunityEngagement RewardCategory = "community_engagement"
	RewardCategory_LearningProgress    RewardCategory = "learning_progress"
	RewardCategory_SkillDemonstration  RewardCategory = "skill_demonstration"
	RewardCategory_KnowledgeSharing    RewardCategory = "knowledge_sharing"
	RewardCategory_Mentoring           RewardCategory = "mentoring"
	RewardCategory_Governance          RewardCategory = "governance"
	RewardCategory_Referral            RewardCategory = "referral"
	RewardCategory_Achievement         RewardCategory = "achievement"
	RewardCategory_SpecialEvent        RewardCategory = "special_event"
	RewardCategory_Bonus               RewardCategory = "bonus"
	RewardCategory_SystemReward        RewardCategory = "system_reward"
)

type RewardTrigger string

const (
	RewardTrigger_Automatic     RewardTrigger = "automatic"
	RewardTrigger_Manual        RewardTrigger = "manual"
	RewardTrigger_AiDecision    RewardTrigger = "ai_decision"
	RewardTrigger_CommunityVote RewardTrigger = "community_vote"
	RewardTrigger_AdminApproval RewardTrigger = "admin_approval"
	RewardTrigger_Scheduled     RewardTrigger = "scheduled"
	RewardTrigger_EventBased    RewardTrigger = "event_based"
	RewardTrigger_ShopPurchase  RewardTrigger = "shop_purchase"
)

// NeedsManualApproval reports whether a reward from this trigger waits for
// an admin before processing. Automatic, scheduled and event based rewards
// are approved at creation time; AI triggered rewards always wait for a
// human decision.
func (trigger RewardTrigger) NeedsManualApproval() bool {
	switch trigger {
	case RewardTrigger_Manual, RewardTrigger_AdminApproval, RewardTrigger_CommunityVote, RewardTrigger_AiDecision:
		return true
	default:
		return false
	}
}

// Multiplier bounds. Out of range values are rejected at creation, never
// clamped.
var (
	minRewardMultiplier = decimal.New(1, 1)  // 0.1
	maxRewardMultiplier = decimal.New(10, 0) // 10.0
)

// RewardDistribution is one reward grant moving through the distribution
// pipeline. The payable amount is amount * multiplier, computed at payout.
type RewardDistribution struct {
	ID                 uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID            uint64            `gorm:"column:space_id" json:"space_id"`
	UserID             uint64            `gorm:"column:user_id" json:"user_id"`
	Amount             *postgres.Decimal `sql:"type:decimal(36,18)" json:"amount"`
	Category           RewardCategory    `sql:"not null;type:reward_category_t" json:"category"`
	TriggerType        RewardTrigger     `sql:"not null;type:reward_trigger_t" json:"trigger_type"`
	ReferenceID        string            `gorm:"column:reference_id" json:"reference_id"`
	Reason             string            `json:"reason"`
	CalculationDetails string            `sql:"type:jsonb" json:"calculation_details"`
	DistributionDate   time.Time         `json:"distribution_date"`
	Status             RewardStatus      `sql:"not null;type:reward_status_t;default:'pending'" json:"status"`
	ProcessedAt        *time.Time        `json:"processed_at"`
	ProcessedBy        *uint64           `gorm:"column:processed_by" json:"processed_by"`
	TransactionID      string            `gorm:"column:transaction_id" json:"transaction_id"`
	BatchID            string            `gorm:"column:batch_id" json:"batch_id"`
	QualityScore       *postgres.Decimal `sql:"type:decimal(12,6)" json:"quality_score"`
	EngagementScore    *postgres.Decimal `sql:"type:decimal(12,6)" json:"engagement_score"`
	Multiplier         *postgres.Decimal `sql:"type:decimal(12,6)" json:"multiplier"`
	Notes              string            `json:"notes"`
	ExpiresAt          *time.Time        `json:"expires_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RewardDistributionList structure
type RewardDistributionList struct {
	Rewards []RewardDistribution `json:"rewards"`
	Meta    PagingMeta           `json:"meta"`
}

// NewRewardDistribution creates a pending reward. A nil multiplier defaults
// to 1; a multiplier outside [0.1, 10] is rejected.
func NewRewardDistribution(spaceID, userID uint64, amount *decimal.Big, category RewardCategory, trigger RewardTrigger, referenceID, reason string, multiplier *decimal.Big, now time.Time) (*RewardDistribution, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if multiplier == nil {
		multiplier = decimal.New(1, 0)
	}
	if multiplier.Cmp(minRewardMultiplier) < 0 || multiplier.Cmp(maxRewardMultiplier) > 0 {
		return nil, ErrInvalidRate
	}
	return &RewardDistribution{
		SpaceID:          spaceID,
		UserID:           userID,
		Amount:           &postgres.Decimal{V: amount},
		Category:         category,
		TriggerType:      trigger,
		ReferenceID:      referenceID,
		Reason:           reason,
		Multiplier:       &postgres.Decimal{V: multiplier},
		DistributionDate: now,
		Status:           RewardStatus_Pending,
	}, nil
}

// FinalAmount is the payable amount after the multiplier
func (reward *RewardDistribution) FinalAmount() *decimal.Big {
	return conv.NewDecimalWithPrecision().Mul(reward.Amount.V, reward.Multiplier.V)
}

func (reward *RewardDistribution) IsExpired(now time.Time) bool {
	return reward.ExpiresAt != nil && now.After(*reward.ExpiresAt)
}

// IsProcessable reports whether the reward can enter processing
func (reward *RewardDistribution) IsProcessable(now time.Time) bool {
	return reward.Status == RewardStatus_Approved &&
		!reward.IsExpired(now) &&
		reward.Amount.V.Sign() > 0
}

func (reward *RewardDistribution) Approve(approver uint64, now time.Time) error {
	if reward.Status != RewardStatus_Pending {
		return ErrIllegalTransition
	}
	reward.Status = RewardStatus_Approved
	reward.ProcessedBy = &approver
	reward.ProcessedAt = &now
	reward.UpdatedAt = now
	return nil
}

func (reward *RewardDistribution) MarkAsProcessing(now time.Time) error {
	if !reward.IsProcessable(now) {
		if reward.IsExpired(now) {
			return ErrNotExecutable
		}
		return ErrIllegalTransition
	}
	reward.Status = RewardStatus_Processing
	reward.UpdatedAt = now
	return nil
}

func (reward *RewardDistribution) MarkAsCompleted(transactionID string, now time.Time) error {
	if reward.Status != RewardStatus_Processing {
		return ErrIllegalTransition
	}
	reward.Status = RewardStatus_Completed
	reward.TransactionID = transactionID
	reward.ProcessedAt = &now
	reward.UpdatedAt = now
	return nil
}

func (reward *RewardDistribution) MarkAsFailed(reason string, now time.Time) error {
	if reward.Status != RewardStatus_Processing {
		return ErrIllegalTransition
	}
	reward.Status = RewardStatus_Failed
	if reward.Notes != "" {
		reward.Notes += "\n"
	}
	reward.Notes += "failed: " + reason
	reward.UpdatedAt = now
	return nil
}

// Cancel is allowed while the reward has not started processing
func (reward *RewardDistribution) Cancel(canceller uint64, reason string, now time.Time) error {
	if reward.Status != RewardStatus_Pending && reward.Status != RewardStatus_Approved {
		return ErrIllegalTransition
	}
	reward.Status = RewardStatus_Cancelled
	reward.ProcessedBy = &canceller
	reward.ProcessedAt = &now
	if reward.Notes != "" {
		reward.Notes += "\n"
	}
	reward.Notes += "cancelled: " + reason
	reward.UpdatedAt = now
	return nil
}

// MarkAsExpired moves an overdue unprocessed reward to expired
func (reward *RewardDistribution) MarkAsExpired(now time.Time) error {
	if reward.Status != RewardStatus_Pending && reward.Status != RewardStatus_Approved {
		return ErrIllegalTransition
	}
	if !reward.IsExpired(now) {
		return ErrNotExecutable
	}
	reward.Status = RewardStatus_Expired
	reward.UpdatedAt = now
	return nil
}

// SetScores attaches the quality and engagement scores from evaluation
func (reward *RewardDistribution) SetScores(quality, engagement *decimal.Big) {
	if quality != nil {
		reward.QualityScore = &postgres.Decimal{V: quality}
	}
	if engagement != nil {
		reward.EngagementScore = &postgres.Decimal{V: engagement}
	}
}

// MarshalJSON convert the reward into a json string
func (reward *RewardDistribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                reward.ID,
		"space_id":          reward.SpaceID,
		"user_id":           reward.UserID,
		"amount":            utils.Fmt(reward.Amount.V),
		"multiplier":        utils.Fmt(reward.Multiplier.V),
		"final_amount":      utils.Fmt(reward.FinalAmount()),
		"category":          reward.Category,
		"trigger_type":      reward.TriggerType,
		"reference_id":      reward.ReferenceID,
		"reason":            reward.Reason,
		"status":            reward.Status,
		"transaction_id":    reward.TransactionID,
		"batch_id":          reward.BatchID,
		"distribution_date": reward.DistributionDate,
		"expires_at":        reward.ExpiresAt,
		"created_at":        reward.CreatedAt,
		"updated_at":        reward.UpdatedAt,
	})
}
