package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	gouuid "github.com/nu7hatch/gouuid"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type TxStatus string

const (
	TxStatus_Pending    TxStatus = "pending"
	TxStatus_Processing TxStatus = "processing"
	TxStatus_Confirmed  TxStatus = "confirmed"
	TxStatus_Completed  TxStatus = "completed"
	TxStatus_Failed     TxStatus = "failed"
	TxStatus_Cancelled  TxStatus = "cancelled"
	TxStatus_Reversed   TxStatus = "reversed"
)

func (status TxStatus) String() string {
	return string(status)
}

func (status TxStatus) IsValid() bool {
	switch status {
	case TxStatus_Pending,
		TxStatus_Processing,
		TxStatus_Confirmed,
		TxStatus_Completed,
		TxStatus_Failed,
		TxStatus_Cancelled,
		TxStatus_Reversed:
		return true
	default:
		return false
	}
}

// IsFinal reports whether no further transition is allowed except reversal
func (status TxStatus) IsFinal() bool {
	switch status {
	case TxStatus_Completed, TxStatus_Cancelled, TxStatus_Reversed:
		return true
	default:
		return false
	}
}

type TxKind string

const (
	TxKind_Transfer         TxKind = "transfer"
	TxKind_Issue            TxKind = "issue"
	TxKind_Burn             TxKind = "burn"
	TxKind_Reward           TxKind = "reward_distribution"
	TxKind_Collection       TxKind = "collection"
	TxKind_GovernanceStake  TxKind = "governance_stake"
	TxKind_Penalty          TxKind = "penalty"
	TxKind_Refund           TxKind = "refund"
	TxKind_Purchase         TxKind = "purchase"
	TxKind_SystemAdjustment TxKind = "system_adjustment"
)

func (kind TxKind) IsValid() bool {
	switch kind {
	case TxKind_Transfer,
		TxKind_Issue,
		TxKind_Burn,
		TxKind_Reward,
		TxKind_Collection,
		TxKind_GovernanceStake,
		TxKind_Penalty,
		TxKind_Refund,
		TxKind_Purchase,
		TxKind_SystemAdjustment:
		return true
	default:
		return false
	}
}

type TxReferenceType string

const (
	TxReference_RewardDistribution TxReferenceType = "reward_distribution"
	TxReference_Collection         TxReferenceType = "collection_history"
	TxReference_BurnDecision       TxReferenceType = "burn_decision"
	TxReference_Proposal           TxReferenceType = "governance_proposal"
	TxReference_Purchase           TxReferenceType = "purchase"
	TxReference_External           TxReferenceType = "external_transaction"
	TxReference_Empty              TxReferenceType = ""
)

const defaultMaxRetries = 3

// TokenTransaction is the canonical ledger row for one balance affecting
// operation. From/To are nil for system issuance and burns respectively.
type TokenTransaction struct {
	ID                string            `sql:"type:uuid" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID           uint64            `gorm:"column:space_id" json:"space_id"`
	Kind              TxKind            `sql:"not null;type:tx_kind_t" json:"kind"`
	FromUserID        *uint64           `gorm:"column:from_user_id" json:"from_user_id"`
	ToUserID          *uint64           `gorm:"column:to_user_id" json:"to_user_id"`
	Amount            *postgres.Decimal `sql:"type:decimal(36,18)" json:"amount"`
	FeeAmount         *postgres.Decimal `sql:"type:decimal(36,18)" json:"fee_amount"`
	NetAmount         *postgres.Decimal `sql:"type:decimal(36,18)" json:"net_amount"`
	Status            TxStatus          `sql:"not null;type:tx_status_t;default:'pending'" json:"status"`
	ReferenceID       string            `gorm:"column:reference_id" json:"reference_id"`
	ReferenceType     TxReferenceType   `sql:"not null;type:tx_reference_type_t;default:''" json:"reference_type"`
	Description       string            `json:"description"`
	FromBalanceBefore *postgres.Decimal `sql:"type:decimal(36,18)" json:"from_balance_before"`
	FromBalanceAfter  *postgres.Decimal `sql:"type:decimal(36,18)" json:"from_balance_after"`
	ToBalanceBefore   *postgres.Decimal `sql:"type:decimal(36,18)" json:"to_balance_before"`
	ToBalanceAfter    *postgres.Decimal `sql:"type:decimal(36,18)" json:"to_balance_after"`
	BatchID           string            `gorm:"column:batch_id" json:"batch_id"`
	IsSystem          bool              `sql:"not null;default:false" json:"is_system"`
	IsReversible      bool              `sql:"not null;default:true" json:"is_reversible"`
	ReversalOfID      *string           `gorm:"column:reversal_of_id" json:"reversal_of_id"`
	ReversalID        *string           `gorm:"column:reversal_id" json:"reversal_id"`
	ReversalReason    string            `json:"reversal_reason"`
	ApprovedBy        *uint64           `gorm:"column:approved_by" json:"approved_by"`
	ApprovedAt        *time.Time        `json:"approved_at"`
	FailedReason      string            `json:"failed_reason"`
	RetryCount        int               `sql:"not null;default:0" json:"retry_count"`
	MaxRetries        int               `sql:"not null;default:3" json:"max_retries"`
	IdempotencyKey    string            `gorm:"column:idempotency_key" json:"idempotency_key"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TokenTransactionList structure
type TokenTransactionList struct {
	Transactions []TokenTransaction `json:"transactions"`
	Meta         PagingMeta         `json:"meta"`
}

// NewTokenTransaction creates a pending transaction row
func NewTokenTransaction(spaceID uint64, kind TxKind, from, to *uint64, amount, fee *decimal.Big) *TokenTransaction {
	id, _ := gouuid.NewV4()
	if fee == nil {
		fee = conv.NewDecimalWithPrecision()
	}
	net := conv.NewDecimalWithPrecision().Sub(amount, fee)
	return &TokenTransaction{
		ID:         id.String(),
		SpaceID:    spaceID,
		Kind:       kind,
		FromUserID: from,
		ToUserID:   to,
		Amount:     &postgres.Decimal{V: amount},
		FeeAmount:  &postgres.Decimal{V: fee},
		NetAmount:  &postgres.Decimal{V: net},
		Status:     TxStatus_Pending,
		MaxRetries: defaultMaxRetries,
	}
}

func (tx *TokenTransaction) MarkAsProcessing(now time.Time) error {
	if tx.Status != TxStatus_Pending {
		return ErrIllegalTransition
	}
	tx.Status = TxStatus_Processing
	tx.UpdatedAt = now
	return nil
}

func (tx *TokenTransaction) MarkAsConfirmed(now time.Time) error {
	if tx.Status != TxStatus_Processing {
		return ErrIllegalTransition
	}
	tx.Status = TxStatus_Confirmed
	tx.UpdatedAt = now
	return nil
}

func (tx *TokenTransaction) MarkAsCompleted(now time.Time) error {
	if tx.Status != TxStatus_Processing && tx.Status != TxStatus_Confirmed {
		return ErrIllegalTransition
	}
	tx.Status = TxStatus_Completed
	tx.UpdatedAt = now
	return nil
}

func (tx *TokenTransaction) MarkAsFailed(reason string, now time.Time) error {
	if tx.Status != TxStatus_Processing && tx.Status != TxStatus_Confirmed {
		return ErrIllegalTransition
	}
	tx.Status = TxStatus_Failed
	tx.FailedReason = reason
	tx.UpdatedAt = now
	return nil
}

// Cancel is only allowed while the transaction is still pending
func (tx *TokenTransaction) Cancel(reason string, now time.Time) error {
	if tx.Status != TxStatus_Pending {
		return ErrIllegalTransition
	}
	tx.Status = TxStatus_Cancelled
	tx.FailedReason = reason
	tx.UpdatedAt = now
	return nil
}

// Reverse marks a completed reversible transaction as reversed and links the
// compensating transaction. The original amounts are never touched.
func (tx *TokenTransaction) Reverse(reversalID, reason string, now time.Time) error {
	if tx.Status != TxStatus_Completed {
		return ErrIllegalTransition
	}
	if !tx.IsReversible {
		return ErrNotReversible
	}
	tx.Status = TxStatus_Reversed
	tx.ReversalID = &reversalID
	tx.ReversalReason = reason
	tx.UpdatedAt = now
	return nil
}

// Retry re-queues a failed transaction. Bounded by MaxRetries and only ever
// re-attempts from pending, never from processing.
func (tx *TokenTransaction) Retry(now time.Time) error {
	if tx.Status != TxStatus_Failed {
		return ErrIllegalTransition
	}
	if tx.RetryCount >= tx.MaxRetries {
		return ErrRetryExhausted
	}
	tx.RetryCount++
	tx.Status = TxStatus_Pending
	tx.FailedReason = ""
	tx.UpdatedAt = now
	return nil
}

func (tx *TokenTransaction) Approve(approver uint64, now time.Time) error {
	if tx.Status != TxStatus_Pending {
		return ErrIllegalTransition
	}
	tx.ApprovedBy = &approver
	tx.ApprovedAt = &now
	return nil
}

// SetFromSnapshot records the sender side balance snapshot
func (tx *TokenTransaction) SetFromSnapshot(before, after *decimal.Big) {
	tx.FromBalanceBefore = &postgres.Decimal{V: before}
	tx.FromBalanceAfter = &postgres.Decimal{V: after}
}

// SetToSnapshot records the receiver side balance snapshot
func (tx *TokenTransaction) SetToSnapshot(before, after *decimal.Big) {
	tx.ToBalanceBefore = &postgres.Decimal{V: before}
	tx.ToBalanceAfter = &postgres.Decimal{V: after}
}

// MarshalJSON convert the transaction into a json string
func (tx *TokenTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":             tx.ID,
		"space_id":       tx.SpaceID,
		"kind":           tx.Kind,
		"from_user_id":   tx.FromUserID,
		"to_user_id":     tx.ToUserID,
		"amount":         utils.Fmt(tx.Amount.V),
		"fee_amount":     utils.Fmt(tx.FeeAmount.V),
		"net_amount":     utils.Fmt(tx.NetAmount.V),
		"status":         tx.Status,
		"kind_reference": tx.ReferenceType,
		"reference_id":   tx.ReferenceID,
		"is_reversible":  tx.IsReversible,
		"failed_reason":  tx.FailedReason,
		"created_at":     tx.CreatedAt,
		"updated_at":     tx.UpdatedAt,
	})
}
