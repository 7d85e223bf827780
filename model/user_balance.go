package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

// UserBalance is the ledger row for one (user, space) pair. Rows are never
// deleted, only frozen. Invariant: totalEarned - totalSpent - totalCollected
// equals currentBalance after every mutation.
type UserBalance struct {
	ID                 uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	UserID             uint64            `gorm:"column:user_id" json:"user_id"`
	SpaceID            uint64            `gorm:"column:space_id" json:"space_id"`
	CurrentBalance     *postgres.Decimal `sql:"type:decimal(36,18)" json:"current_balance"`
	TotalEarned        *postgres.Decimal `sql:"type:decimal(36,18)" json:"total_earned"`
	TotalSpent         *postgres.Decimal `sql:"type:decimal(36,18)" json:"total_spent"`
	TotalCollected     *postgres.Decimal `sql:"type:decimal(36,18)" json:"total_collected"`
	LastCollectionDate *time.Time        `json:"last_collection_date"`
	CollectionExempt   bool              `sql:"not null;default:false" json:"collection_exempt"`
	Frozen             bool              `sql:"not null;default:false" json:"frozen"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// UserBalanceList structure
type UserBalanceList struct {
	UserBalances []UserBalance `json:"user_balances"`
	Meta         PagingMeta    `json:"meta"`
}

// NewUserBalance creates an empty ledger row for a user in a space
func NewUserBalance(userID, spaceID uint64) *UserBalance {
	return &UserBalance{
		UserID:         userID,
		SpaceID:        spaceID,
		CurrentBalance: &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		TotalEarned:    &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		TotalSpent:     &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		TotalCollected: &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
	}
}

// Credit adds the amount to the balance and the earned total
func (balance *UserBalance) Credit(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance.Frozen {
		return ErrAccountFrozen
	}
	balance.CurrentBalance.V.Add(balance.CurrentBalance.V, amount)
	balance.TotalEarned.V.Add(balance.TotalEarned.V, amount)
	balance.UpdatedAt = now
	return nil
}

// Debit subtracts the amount from the balance and adds it to the spent total
func (balance *UserBalance) Debit(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance.Frozen {
		return ErrAccountFrozen
	}
	if balance.CurrentBalance.V.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance.CurrentBalance.V.Sub(balance.CurrentBalance.V, amount)
	balance.TotalSpent.V.Add(balance.TotalSpent.V, amount)
	balance.UpdatedAt = now
	return nil
}

// Collect reclaims the amount into the collected total
func (balance *UserBalance) Collect(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance.Frozen {
		return ErrAccountFrozen
	}
	if balance.CurrentBalance.V.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance.CurrentBalance.V.Sub(balance.CurrentBalance.V, amount)
	balance.TotalCollected.V.Add(balance.TotalCollected.V, amount)
	balance.LastCollectionDate = &now
	balance.UpdatedAt = now
	return nil
}

// IsCollectionTarget reports whether the account qualifies for collection.
// Frozen and exempt accounts are always excluded.
func (balance *UserBalance) IsCollectionTarget(threshold *decimal.Big) bool {
	return !balance.CollectionExempt &&
		!balance.Frozen &&
		threshold != nil &&
		balance.CurrentBalance.V.Cmp(threshold) > 0
}

// IsConsistent recomputes the ledger invariant
func (balance *UserBalance) IsConsistent() bool {
	expected := conv.NewDecimalWithPrecision().Sub(balance.TotalEarned.V, balance.TotalSpent.V)
	expected.Sub(expected, balance.TotalCollected.V)
	return balance.CurrentBalance.V.Cmp(expected) == 0 &&
		balance.CurrentBalance.V.Sign() >= 0
}

func (balance *UserBalance) Freeze(now time.Time) {
	balance.Frozen = true
	balance.UpdatedAt = now
}

func (balance *UserBalance) Unfreeze(now time.Time) {
	balance.Frozen = false
	balance.UpdatedAt = now
}

// MarshalJSON convert the balance into a json string
func (balance *UserBalance) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"user_id":           balance.UserID,
		"space_id":          balance.SpaceID,
		"current_balance":   utils.Fmt(balance.CurrentBalance.V),
		"total_earned":      utils.Fmt(balance.TotalEarned.V),
		"total_spent":       utils.Fmt(balance.TotalSpent.V),
		"total_collected":   utils.Fmt(balance.TotalCollected.V),
		"collection_exempt": balance.CollectionExempt,
		"frozen":            balance.Frozen,
		"updated_at":        balance.UpdatedAt,
	})
}
