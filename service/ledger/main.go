package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/queries"
)

func Init(repo *queries.Repo, ctx context.Context) *LedgerEngine {
	return &LedgerEngine{
		ctx:        ctx,
		spacesLock: &sync.RWMutex{},
		spaces:     map[uint64]*space{},
		repo:       repo,
	}
}

// InitAccounts loads every ledger row into memory at startup
func (le *LedgerEngine) InitAccounts() error {
	le.spacesLock.Lock()
	defer le.spacesLock.Unlock()

	var balances []*model.UserBalance
	if err := le.repo.Conn.Find(&balances).Error; err != nil {
		log.Error().Err(err).Str("section", "ledger").Msg("Unable to load user balances")
		return err
	}

	for _, balance := range balances {
		le.initAccountLedger(balance)
	}

	return nil
}

// InitAccountLedger registers a single ledger row, used when a balance is
// created after startup
func (le *LedgerEngine) InitAccountLedger(balance *model.UserBalance) *AccountLedger {
	le.spacesLock.Lock()
	defer le.spacesLock.Unlock()
	return le.initAccountLedger(balance)
}

func (le *LedgerEngine) initAccountLedger(balance *model.UserBalance) *AccountLedger {
	account := &AccountLedger{
		balanceLock: &sync.RWMutex{},
		balance: BalanceView{
			Current:   conv.CloneToPrecision(balance.CurrentBalance.V),
			Earned:    conv.CloneToPrecision(balance.TotalEarned.V),
			Spent:     conv.CloneToPrecision(balance.TotalSpent.V),
			Collected: conv.CloneToPrecision(balance.TotalCollected.V),
		},
		userID:           balance.UserID,
		spaceID:          balance.SpaceID,
		frozen:           balance.Frozen,
		collectionExempt: balance.CollectionExempt,
	}

	sp, ok := le.spaces[balance.SpaceID]
	if !ok {
		sp = &space{
			accountsLock: &sync.RWMutex{},
			accounts:     map[uint64]*AccountLedger{},
		}
		le.spaces[balance.SpaceID] = sp
	}

	sp.accountsLock.Lock()
	sp.accounts[balance.UserID] = account
	sp.accountsLock.Unlock()

	return account
}

// GetAccountLedger returns the in memory account for a (space, user) pair
func (le *LedgerEngine) GetAccountLedger(spaceID, userID uint64) (*AccountLedger, error) {
	le.spacesLock.RLock()
	sp, ok := le.spaces[spaceID]
	le.spacesLock.RUnlock()

	if !ok {
		return nil, errors.New("unable to find the space ledger")
	}

	sp.accountsLock.RLock()
	account, ok := sp.accounts[userID]
	sp.accountsLock.RUnlock()

	if !ok {
		return nil, errors.New("unable to find the account ledger")
	}

	return account, nil
}
