package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

type PoolStatus string

const (
	PoolStatus_Active     PoolStatus = "active"
	PoolStatus_Paused     PoolStatus = "paused"
	PoolStatus_Migrating  PoolStatus = "migrating"
	PoolStatus_Deprecated PoolStatus = "deprecated"
)

func (status PoolStatus) String() string {
	return string(status)
}

func (status PoolStatus) IsValid() bool {
	switch status {
	case PoolStatus_Active,
		PoolStatus_Paused,
		PoolStatus_Migrating,
		PoolStatus_Deprecated:
		return true
	default:
		return false
	}
}

// Sub pool allocation percentages applied on every issuance
var (
	rewardAllocationRate     = decimal.New(40, 2) // 0.40
	governanceAllocationRate = decimal.New(20, 2) // 0.20
	ecosystemAllocationRate  = decimal.New(20, 2) // 0.20
	reserveAllocationRate    = decimal.New(20, 2) // 0.20
)

// defaultIssuableCeiling applies when a pool has no max supply configured
var defaultIssuableCeiling = decimal.New(1000000, 0)

// TokenPool holds the aggregate supply figures for one space. Mutated only
// through Issue, Burn and DistributeReward; circulating supply must equal
// issued minus burned at all times.
type TokenPool struct {
	ID                     uint64            `sql:"type:bigint" gorm:"PRIMARY_KEY" json:"id"`
	SpaceID                uint64            `gorm:"column:space_id" json:"space_id"`
	TotalSupply            *postgres.Decimal `sql:"type:decimal(36,18)" json:"total_supply"`
	IssuedAmount           *postgres.Decimal `sql:"type:decimal(36,18)" json:"issued_amount"`
	BurnedAmount           *postgres.Decimal `sql:"type:decimal(36,18)" json:"burned_amount"`
	CirculatingSupply      *postgres.Decimal `sql:"type:decimal(36,18)" json:"circulating_supply"`
	ReservePool            *postgres.Decimal `sql:"type:decimal(36,18)" json:"reserve_pool"`
	RewardPool             *postgres.Decimal `sql:"type:decimal(36,18)" json:"reward_pool"`
	GovernancePool         *postgres.Decimal `sql:"type:decimal(36,18)" json:"governance_pool"`
	EcosystemPool          *postgres.Decimal `sql:"type:decimal(36,18)" json:"ecosystem_pool"`
	IssueRate              *postgres.Decimal `sql:"type:decimal(12,6)" json:"issue_rate"`
	BurnRate               *postgres.Decimal `sql:"type:decimal(12,6)" json:"burn_rate"`
	CollectionThreshold    *postgres.Decimal `sql:"type:decimal(36,18)" json:"collection_threshold"`
	CollectionRate         *postgres.Decimal `sql:"type:decimal(12,6)" json:"collection_rate"`
	MaxSupply              *postgres.Decimal `sql:"type:decimal(36,18)" json:"max_supply"`
	Status                 PoolStatus        `sql:"not null;type:pool_status_t;default:'active'" json:"status"`
	LastRewardDistribution *time.Time        `json:"last_reward_distribution"`
	LastCollectionCheck    *time.Time        `json:"last_collection_check"`
	LastBurnDecision       *time.Time        `json:"last_burn_decision"`
	AdminUserID            uint64            `gorm:"column:admin_user_id" json:"admin_user_id"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// TokenPoolList structure
type TokenPoolList struct {
	TokenPools []TokenPool `json:"token_pools"`
	Meta       PagingMeta  `json:"meta"`
}

// NewTokenPool creates the pool for a space. One pool per space, created by
// an administrator.
func NewTokenPool(spaceID, adminUserID uint64, collectionThreshold, collectionRate, maxSupply *decimal.Big) *TokenPool {
	pool := &TokenPool{
		SpaceID:             spaceID,
		AdminUserID:         adminUserID,
		TotalSupply:         &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		IssuedAmount:        &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		BurnedAmount:        &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		CirculatingSupply:   &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		ReservePool:         &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		RewardPool:          &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		GovernancePool:      &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		EcosystemPool:       &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		IssueRate:           &postgres.Decimal{V: decimal.New(1, 3)}, // 0.001
		BurnRate:            &postgres.Decimal{V: decimal.New(5, 4)}, // 0.0005
		CollectionThreshold: &postgres.Decimal{V: collectionThreshold},
		CollectionRate:      &postgres.Decimal{V: collectionRate},
		Status:              PoolStatus_Active,
	}
	if maxSupply != nil {
		pool.MaxSupply = &postgres.Decimal{V: maxSupply}
	}
	return pool
}

// Issue mints new tokens into the pool and splits them across the sub pools
// 40/20/20/20 reward/governance/ecosystem/reserve.
func (pool *TokenPool) Issue(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.Status != PoolStatus_Active {
		return ErrPoolNotActive
	}
	if pool.MaxSupply != nil && pool.MaxSupply.V != nil {
		newTotal := conv.NewDecimalWithPrecision().Add(pool.TotalSupply.V, amount)
		if newTotal.Cmp(pool.MaxSupply.V) > 0 {
			return ErrExceedsMaxSupply
		}
	}

	rewardAllocation := conv.NewDecimalWithPrecision().Mul(amount, rewardAllocationRate)
	governanceAllocation := conv.NewDecimalWithPrecision().Mul(amount, governanceAllocationRate)
	ecosystemAllocation := conv.NewDecimalWithPrecision().Mul(amount, ecosystemAllocationRate)
	reserveAllocation := conv.NewDecimalWithPrecision().Mul(amount, reserveAllocationRate)

	pool.TotalSupply.V.Add(pool.TotalSupply.V, amount)
	pool.IssuedAmount.V.Add(pool.IssuedAmount.V, amount)
	pool.CirculatingSupply.V.Add(pool.CirculatingSupply.V, amount)
	pool.RewardPool.V.Add(pool.RewardPool.V, rewardAllocation)
	pool.GovernancePool.V.Add(pool.GovernancePool.V, governanceAllocation)
	pool.EcosystemPool.V.Add(pool.EcosystemPool.V, ecosystemAllocation)
	pool.ReservePool.V.Add(pool.ReservePool.V, reserveAllocation)
	pool.UpdatedAt = now

	return nil
}

// Burn removes tokens from circulating supply permanently
func (pool *TokenPool) Burn(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.Status != PoolStatus_Active {
		return ErrPoolNotActive
	}
	if pool.CirculatingSupply.V.Cmp(amount) < 0 {
		return ErrExceedsCirculating
	}

	pool.BurnedAmount.V.Add(pool.BurnedAmount.V, amount)
	pool.CirculatingSupply.V.Sub(pool.CirculatingSupply.V, amount)
	pool.LastBurnDecision = &now
	pool.UpdatedAt = now

	return nil
}

// ReissueBurned compensates a rolled back burn by issuing the burned amount
// back into circulation. The original burn figures are kept; only issued and
// circulating grow, so conservation still holds.
func (pool *TokenPool) ReissueBurned(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.Status != PoolStatus_Active {
		return ErrPoolNotActive
	}

	pool.TotalSupply.V.Add(pool.TotalSupply.V, amount)
	pool.IssuedAmount.V.Add(pool.IssuedAmount.V, amount)
	pool.CirculatingSupply.V.Add(pool.CirculatingSupply.V, amount)
	pool.UpdatedAt = now

	return nil
}

// DistributeReward takes the amount out of the reward sub pool. Circulating
// supply is unaffected, the tokens were already issued.
func (pool *TokenPool) DistributeReward(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.Status != PoolStatus_Active {
		return ErrPoolNotActive
	}
	if pool.RewardPool.V.Cmp(amount) < 0 {
		return ErrRewardPoolDepleted
	}

	pool.RewardPool.V.Sub(pool.RewardPool.V, amount)
	pool.LastRewardDistribution = &now
	pool.UpdatedAt = now

	return nil
}

// CreditCollectionPool returns collected tokens into the ecosystem sub pool
func (pool *TokenPool) CreditCollectionPool(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool.EcosystemPool.V.Add(pool.EcosystemPool.V, amount)
	pool.LastCollectionCheck = &now
	pool.UpdatedAt = now
	return nil
}

// DebitCollectionPool takes previously collected tokens back out of the
// ecosystem sub pool, used when a collection appeal refunds the user
func (pool *TokenPool) DebitCollectionPool(amount *decimal.Big, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.EcosystemPool.V.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	pool.EcosystemPool.V.Sub(pool.EcosystemPool.V, amount)
	pool.UpdatedAt = now
	return nil
}

// IsCollectionTarget reports whether a balance is over the pool threshold
func (pool *TokenPool) IsCollectionTarget(balance *decimal.Big) bool {
	return balance != nil &&
		balance.Cmp(pool.CollectionThreshold.V) > 0 &&
		pool.Status == PoolStatus_Active
}

// IsHealthy recomputes the conservation invariant. A false result is a fatal
// integrity error and must be surfaced, not corrected.
func (pool *TokenPool) IsHealthy() bool {
	calculated := conv.NewDecimalWithPrecision().Sub(pool.IssuedAmount.V, pool.BurnedAmount.V)
	if pool.CirculatingSupply.V.Cmp(calculated) != 0 {
		return false
	}
	return pool.TotalSupply.V.Sign() >= 0 &&
		pool.IssuedAmount.V.Sign() >= 0 &&
		pool.BurnedAmount.V.Sign() >= 0 &&
		pool.CirculatingSupply.V.Sign() >= 0
}

// IssuableAmount reports how much can still be issued before hitting max
// supply
func (pool *TokenPool) IssuableAmount() *decimal.Big {
	if pool.MaxSupply == nil || pool.MaxSupply.V == nil {
		return conv.CloneToPrecision(defaultIssuableCeiling)
	}
	headroom := conv.NewDecimalWithPrecision().Sub(pool.MaxSupply.V, pool.TotalSupply.V)
	if headroom.Sign() < 0 {
		return conv.NewDecimalWithPrecision()
	}
	return headroom
}

// MarshalJSON converts the pool into a json string
func (pool *TokenPool) MarshalJSON() ([]byte, error) {
	var maxSupply interface{}
	if pool.MaxSupply != nil && pool.MaxSupply.V != nil {
		maxSupply = utils.Fmt(pool.MaxSupply.V)
	}
	return json.Marshal(map[string]interface{}{
		"id":                 pool.ID,
		"space_id":           pool.SpaceID,
		"total_supply":       utils.Fmt(pool.TotalSupply.V),
		"issued_amount":      utils.Fmt(pool.IssuedAmount.V),
		"burned_amount":      utils.Fmt(pool.BurnedAmount.V),
		"circulating_supply": utils.Fmt(pool.CirculatingSupply.V),
		"reserve_pool":       utils.Fmt(pool.ReservePool.V),
		"reward_pool":        utils.Fmt(pool.RewardPool.V),
		"governance_pool":    utils.Fmt(pool.GovernancePool.V),
		"ecosystem_pool":     utils.Fmt(pool.EcosystemPool.V),
		"collection_threshold": utils.Fmt(pool.CollectionThreshold.V),
		"collection_rate":      utils.Fmt(pool.CollectionRate.V),
		"max_supply":           maxSupply,
		"status":               pool.Status,
		"created_at":           pool.CreatedAt,
		"updated_at":           pool.UpdatedAt,
	})
}
