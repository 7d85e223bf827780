package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type CollectionStatus string

const (
	CollectionStatus_Pending        CollectionStatus = "pending"
	CollectionStatus_GracePeriod    CollectionStatus = "grace_period"
	CollectionStatus_Approved       CollectionStatus = "approved"
	CollectionStatus_Executing      CollectionStatus = "executing"
	CollectionStatus_Completed      CollectionStatus = "completed"
	CollectionStatus_Failed         CollectionStatus = "failed"
	CollectionStatus_Cancelled      CollectionStatus = "cancelled"
	CollectionStatus_Appealed       CollectionStatus = "appealed"
	CollectionStatus_AppealApproved CollectionStatus = "appeal_approved"
	CollectionStatus_AppealRejected CollectionStatus = "appeal_rejected"
)

func (status CollectionStatus) String() string {
	return string(status)
}

func (status CollectionStatus) IsValid() bool {
	switch status {
	case CollectionStatus_Pending,
		CollectionStatus_GracePeriod,
		CollectionStatus_Approved,
		CollectionStatus_Executing,
		CollectionStatus_Completed,
		CollectionStatus_Failed,
		CollectionStatus_Cancelled,
		CollectionStatus_Appealed,
		CollectionStatus_AppealApproved,
		CollectionStatus_AppealRejected:
		return true
	default:
		return false
	}
}

// IsSettled reports whether the record can no longer move except via appeal
func (status CollectionStatus) IsSettled() bool {
	switch status {
	case CollectionStatus_Completed,
		CollectionStatus_Failed,
		CollectionStatus_Cancelled,
		CollectionStatus_AppealApproved,
		CollectionStatus_AppealRejected:
		return true
	default:
		return false
	}
}

type CollectionTrigger string

const (
	CollectionTrigger_AutomaticThreshold CollectionTrigger = "automatic_threshold"
	CollectionTrigger_Scheduled          CollectionTrigger = "scheduled_collection"
	CollectionTrigger_Manual             CollectionTrigger = "manual_trigger"
	CollectionTrigger_AiDecision         CollectionTrigger = "ai_decision"
	CollectionTrigger_Governance         CollectionTrigger = "governance_decision"
)

type CollectionReason string

const (
	CollectionReason_ThresholdExceeded CollectionReason = "threshold_exceeded"
	CollectionReason_InactiveUser      CollectionReason = "inactive_user"
	CollectionReason_WhalePrevention   CollectionReason = "whale_prevention"
	CollectionReason_Redistribution    CollectionReason = "redistribution"
	CollectionReason_GovernanceMandate CollectionReason = "governance_mandate"
)

// CollectionHistory tracks one threshold collection from detection through
// execution and a possible appeal. An appeal never mutates the original
// amounts; its resolution is a separate compensating transaction.
type CollectionHistory struct {
	ID                    uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID               uint64            `gorm:"column:space_id" json:"space_id"`
	UserID                uint64            `gorm:"column:user_id" json:"user_id"`
	CollectedAmount       *postgres.Decimal `sql:"type:decimal(36,18)" json:"collected_amount"`
	BalanceBefore         *postgres.Decimal `sql:"type:decimal(36,18)" json:"balance_before"`
	BalanceAfter          *postgres.Decimal `sql:"type:decimal(36,18)" json:"balance_after"`
	ThresholdAtCollection *postgres.Decimal `sql:"type:decimal(36,18)" json:"threshold_at_collection"`
	CollectionRate        *postgres.Decimal `sql:"type:decimal(12,6)" json:"collection_rate"`
	TriggerType           CollectionTrigger `sql:"not null;type:collection_trigger_t" json:"trigger_type"`
	Reason                CollectionReason  `sql:"not null;type:collection_reason_t" json:"reason"`
	Status                CollectionStatus  `sql:"not null;type:collection_status_t;default:'pending'" json:"status"`
	GracePeriodStart      *time.Time        `json:"grace_period_start"`
	GracePeriodEnd        *time.Time        `json:"grace_period_end"`
	NotificationSentAt    *time.Time        `json:"notification_sent_at"`
	UserResponse          string            `json:"user_response"`
	ExecutedBy            *uint64           `gorm:"column:executed_by" json:"executed_by"`
	CollectedAt           *time.Time        `json:"collected_at"`
	TransactionID         string            `gorm:"column:transaction_id" json:"transaction_id"`
	BatchID               string            `gorm:"column:batch_id" json:"batch_id"`
	IsAppealed            bool              `sql:"not null;default:false" json:"is_appealed"`
	AppealReason          string            `json:"appeal_reason"`
	AppealResult          string            `json:"appeal_result"`
	AdminNotes            string            `json:"admin_notes"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// CollectionHistoryList structure
type CollectionHistoryList struct {
	Collections []CollectionHistory `json:"collections"`
	Meta        PagingMeta          `json:"meta"`
}

// NewCollectionRecord opens a pending collection for a balance over the
// threshold
func NewCollectionRecord(spaceID, userID uint64, amount, balanceBefore, threshold, rate *decimal.Big, trigger CollectionTrigger, reason CollectionReason) *CollectionHistory {
	return &CollectionHistory{
		SpaceID:               spaceID,
		UserID:                userID,
		CollectedAmount:       &postgres.Decimal{V: amount},
		BalanceBefore:         &postgres.Decimal{V: balanceBefore},
		ThresholdAtCollection: &postgres.Decimal{V: threshold},
		CollectionRate:        &postgres.Decimal{V: rate},
		TriggerType:           trigger,
		Reason:                reason,
		Status:                CollectionStatus_Pending,
	}
}

// StartGracePeriod opens the response window for the user
func (record *CollectionHistory) StartGracePeriod(duration time.Duration, now time.Time) error {
	if record.Status != CollectionStatus_Pending {
		return ErrIllegalTransition
	}
	end := now.Add(duration)
	record.GracePeriodStart = &now
	record.GracePeriodEnd = &end
	record.Status = CollectionStatus_GracePeriod
	record.UpdatedAt = now
	return nil
}

func (record *CollectionHistory) IsGracePeriodEnded(now time.Time) bool {
	return record.GracePeriodEnd != nil && now.After(*record.GracePeriodEnd)
}

// Approve moves a pending record, or a grace period record whose window has
// elapsed, to approved
func (record *CollectionHistory) Approve(approver uint64, now time.Time) error {
	switch {
	case record.Status == CollectionStatus_Pending:
	case record.Status == CollectionStatus_GracePeriod && record.IsGracePeriodEnded(now):
	default:
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_Approved
	record.ExecutedBy = &approver
	record.UpdatedAt = now
	return nil
}

func (record *CollectionHistory) MarkAsExecuting(now time.Time) error {
	if record.Status != CollectionStatus_Approved {
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_Executing
	record.UpdatedAt = now
	return nil
}

func (record *CollectionHistory) MarkAsCompleted(balanceAfter *decimal.Big, transactionID string, now time.Time) error {
	if record.Status != CollectionStatus_Executing {
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_Completed
	record.BalanceAfter = &postgres.Decimal{V: balanceAfter}
	record.TransactionID = transactionID
	record.CollectedAt = &now
	record.UpdatedAt = now
	return nil
}

// MarkAsFailed records an execution failure; the account balance is left
// untouched by the caller
func (record *CollectionHistory) MarkAsFailed(reason string, now time.Time) error {
	if record.Status != CollectionStatus_Executing {
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_Failed
	if record.AdminNotes != "" {
		record.AdminNotes += "\n"
	}
	record.AdminNotes += "failed: " + reason
	record.UpdatedAt = now
	return nil
}

// Cancel is only allowed before execution starts
func (record *CollectionHistory) Cancel(reason string, now time.Time) error {
	switch record.Status {
	case CollectionStatus_Pending, CollectionStatus_GracePeriod, CollectionStatus_Approved:
	default:
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_Cancelled
	if record.AdminNotes != "" {
		record.AdminNotes += "\n"
	}
	record.AdminNotes += "cancelled: " + reason
	record.UpdatedAt = now
	return nil
}

// SubmitAppeal opens an appeal on a completed or approved collection
func (record *CollectionHistory) SubmitAppeal(reason string, now time.Time) error {
	if record.Status != CollectionStatus_Completed && record.Status != CollectionStatus_Approved {
		return ErrIllegalTransition
	}
	record.IsAppealed = true
	record.AppealReason = reason
	record.Status = CollectionStatus_Appealed
	record.UpdatedAt = now
	return nil
}

// ApproveAppeal settles the appeal in the user's favor. The reversal itself
// is a separate compensating transaction created by the caller.
func (record *CollectionHistory) ApproveAppeal(approver uint64, result string, now time.Time) error {
	if record.Status != CollectionStatus_Appealed {
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_AppealApproved
	record.AppealResult = result
	record.ExecutedBy = &approver
	record.UpdatedAt = now
	return nil
}

func (record *CollectionHistory) RejectAppeal(rejector uint64, result string, now time.Time) error {
	if record.Status != CollectionStatus_Appealed {
		return ErrIllegalTransition
	}
	record.Status = CollectionStatus_AppealRejected
	record.AppealResult = result
	record.ExecutedBy = &rejector
	record.UpdatedAt = now
	return nil
}

// MarshalJSON convert the collection record into a json string
func (record *CollectionHistory) MarshalJSON() ([]byte, error) {
	var after interface{}
	if record.BalanceAfter != nil && record.BalanceAfter.V != nil {
		after = utils.Fmt(record.BalanceAfter.V)
	}
	return json.Marshal(map[string]interface{}{
		"id":               record.ID,
		"space_id":         record.SpaceID,
		"user_id":          record.UserID,
		"collected_amount": utils.Fmt(record.CollectedAmount.V),
		"balance_before":   utils.Fmt(record.BalanceBefore.V),
		"balance_after":    after,
		"threshold":        utils.Fmt(record.ThresholdAtCollection.V),
		"rate":             utils.Fmt(record.CollectionRate.V),
		"trigger_type":     record.TriggerType,
		"reason":           record.Reason,
		"status":           record.Status,
		"is_appealed":      record.IsAppealed,
		"transaction_id":   record.TransactionID,
		"created_at":       record.CreatedAt,
		"updated_at":       record.UpdatedAt,
	})
}
