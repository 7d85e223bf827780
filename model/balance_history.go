package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/rs/xid"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type HistoryKind string

const (
	HistoryKind_Earn     HistoryKind = "earn"
	HistoryKind_Spend    HistoryKind = "spend"
	HistoryKind_Collect  HistoryKind = "collect"
	HistoryKind_Burn     HistoryKind = "burn"
	HistoryKind_Transfer HistoryKind = "transfer"
)

func (kind HistoryKind) String() string {
	return string(kind)
}

func (kind HistoryKind) IsValid() bool {
	switch kind {
	case HistoryKind_Earn,
		HistoryKind_Spend,
		HistoryKind_Collect,
		HistoryKind_Burn,
		HistoryKind_Transfer:
		return true
	default:
		return false
	}
}

// BalanceHistory is the append only record of one balance delta. Created
// exactly once per mutation, in the same atomic unit, and never updated or
// deleted afterwards. Amount is signed; balanceBefore + amount must equal
// balanceAfter.
type BalanceHistory struct {
	ID            string            `sql:"type:varchar(20)" gorm:"PRIMARY_KEY" json:"id"`
	UserID        uint64            `gorm:"column:user_id" json:"user_id"`
	SpaceID       uint64            `gorm:"column:space_id" json:"space_id"`
	Kind          HistoryKind       `sql:"not null;type:history_kind_t" json:"kind"`
	Amount        *postgres.Decimal `sql:"type:decimal(36,18)" json:"amount"`
	BalanceBefore *postgres.Decimal `sql:"type:decimal(36,18)" json:"balance_before"`
	BalanceAfter  *postgres.Decimal `sql:"type:decimal(36,18)" json:"balance_after"`
	Reason        string            `json:"reason"`
	ReferenceID   string            `gorm:"column:reference_id" json:"reference_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

// BalanceHistoryList structure
type BalanceHistoryList struct {
	Entries []BalanceHistory `json:"entries"`
	Meta    PagingMeta       `json:"meta"`
}

// NewBalanceHistory creates a history entry from a before/after snapshot
func NewBalanceHistory(userID, spaceID uint64, kind HistoryKind, amount, before, after *decimal.Big, reason, referenceID string) *BalanceHistory {
	return &BalanceHistory{
		ID:            xid.New().String(),
		UserID:        userID,
		SpaceID:       spaceID,
		Kind:          kind,
		Amount:        &postgres.Decimal{V: amount},
		BalanceBefore: &postgres.Decimal{V: before},
		BalanceAfter:  &postgres.Decimal{V: after},
		Reason:        reason,
		ReferenceID:   referenceID,
	}
}

// IsBalanceCalculationValid checks balanceBefore + amount == balanceAfter
func (entry *BalanceHistory) IsBalanceCalculationValid() bool {
	if entry.Amount == nil || entry.BalanceBefore == nil || entry.BalanceAfter == nil {
		return false
	}
	expected := conv.NewDecimalWithPrecision().Add(entry.BalanceBefore.V, entry.Amount.V)
	return expected.Cmp(entry.BalanceAfter.V) == 0
}

func (entry *BalanceHistory) IsPositiveChange() bool {
	return entry.Amount != nil && entry.Amount.V.Sign() > 0
}

func (entry *BalanceHistory) IsSystemEntry() bool {
	return entry.Kind == HistoryKind_Collect || entry.Kind == HistoryKind_Burn
}

// MarshalJSON convert the history entry into a json string
func (entry *BalanceHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":             entry.ID,
		"user_id":        entry.UserID,
		"space_id":       entry.SpaceID,
		"kind":           entry.Kind,
		"amount":         utils.Fmt(entry.Amount.V),
		"balance_before": utils.Fmt(entry.BalanceBefore.V),
		"balance_after":  utils.Fmt(entry.BalanceAfter.V),
		"reason":         entry.Reason,
		"reference_id":   entry.ReferenceID,
		"created_at":     entry.CreatedAt,
	})
}
