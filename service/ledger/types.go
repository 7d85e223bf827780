package ledger

import (
	"context"
	"sync"

	"github.com/ericlagergren/decimal"
	"gitlab.com/sfr-tokyo/economy_api/queries"
)

// BalanceView is the in memory mirror of one ledger row
type BalanceView struct {
	Current   *decimal.Big `json:"current"`
	Earned    *decimal.Big `json:"earned"`
	Spent     *decimal.Big `json:"spent"`
	Collected *decimal.Big `json:"collected"`
}

// Snapshot captures the balance before and after a mutation, for history
// pairing
type Snapshot struct {
	Before *decimal.Big
	After  *decimal.Big
}

type AccountLedger struct {
	balanceLock      *sync.RWMutex
	balance          BalanceView
	userID           uint64
	spaceID          uint64
	frozen           bool
	collectionExempt bool
}

type space struct {
	accountsLock *sync.RWMutex
	accounts     map[uint64]*AccountLedger
}

// LedgerEngine keeps the hot balance views of every account, one lock per
// account so unrelated users never contend
type LedgerEngine struct {
	ctx        context.Context
	spacesLock *sync.RWMutex
	repo       *queries.Repo
	spaces     map[uint64]*space
}
