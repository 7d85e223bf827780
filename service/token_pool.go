package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/utils"
	"gorm.io/gorm"
)

// CreateTokenPool creates the supply pool for a space. Threshold and rate
// fall back to the configured collection defaults when not given.
func (s *Service) CreateTokenPool(spaceID, adminUserID uint64, threshold, rate, maxSupply *decimal.Big) (*model.TokenPool, error) {
	if pool, err := s.repo.GetTokenPool(spaceID); err == nil && pool != nil {
		return pool, nil
	}
	if threshold == nil {
		threshold = s.cfg.Economy.Collection.GetDefaultThreshold()
	}
	if rate == nil {
		rate = s.cfg.Economy.Collection.GetDefaultRate()
	}
	if threshold.Sign() <= 0 {
		return nil, model.ErrInvalidThreshold
	}
	if rate.Sign() <= 0 || rate.Cmp(decimal.New(10, 2)) > 0 {
		return nil, model.ErrInvalidRate
	}

	pool := model.NewTokenPool(spaceID, adminUserID, threshold, rate, maxSupply)
	if err := s.repo.CreateTokenPool(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// GetTokenPool godoc
func (s *Service) GetTokenPool(spaceID uint64) (*model.TokenPool, error) {
	return s.repo.GetTokenPool(spaceID)
}

// GetTokenPools godoc
func (s *Service) GetTokenPools(limit, page int) (*model.TokenPoolList, error) {
	return s.repo.GetTokenPools(limit, page)
}

// IssueTokens mints new supply into the pool and records a system issuance
// transaction in the same database transaction.
func (s *Service) IssueTokens(spaceID uint64, amount *decimal.Big, issuerID uint64, description string, now time.Time) (*model.TokenTransaction, error) {
	var transaction *model.TokenTransaction

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		pool, err := s.repo.GetTokenPoolForUpdate(tx, spaceID)
		if err != nil {
			return err
		}
		if err := pool.Issue(amount, now); err != nil {
			return err
		}

		transaction = model.NewTokenTransaction(spaceID, model.TxKind_Issue, nil, nil, amount, nil)
		transaction.IsSystem = true
		transaction.IsReversible = false
		transaction.Description = description
		// the issuer approves the mint while the row is still pending
		if err := transaction.Approve(issuerID, now); err != nil {
			return err
		}
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}

		if err := s.repo.CreateTransaction(tx, transaction); err != nil {
			return err
		}
		return s.repo.UpdateTokenPool(tx, pool)
	})
	if err != nil {
		return nil, err
	}

	monitor.TokensIssued.WithLabelValues(utils.Uint64ToString(spaceID)).Add(utils.ToFloat64(amount))
	s.publishEvent("tokens_issued", transaction)

	return transaction, nil
}

// CheckPoolHealth recomputes the conservation invariant for one pool. A
// violation is surfaced and counted, never corrected in place.
func (s *Service) CheckPoolHealth(spaceID uint64) error {
	pool, err := s.repo.GetTokenPool(spaceID)
	if err != nil {
		return err
	}
	if !pool.IsHealthy() {
		monitor.PoolHealthCheckFailures.Inc()
		log.Error().
			Str("section", "service").
			Uint64("space_id", spaceID).
			Str("issued", utils.Fmt(pool.IssuedAmount.V)).
			Str("burned", utils.Fmt(pool.BurnedAmount.V)).
			Str("circulating", utils.Fmt(pool.CirculatingSupply.V)).
			Msg("Pool conservation invariant violated")
		return model.ErrPoolConservation
	}
	return nil
}

// CheckAllPoolHealth runs the conservation check over every pool
func (s *Service) CheckAllPoolHealth() error {
	pools, err := s.repo.GetTokenPools(0, 0)
	if err != nil {
		return err
	}
	var lastErr error
	for i := range pools.TokenPools {
		if err := s.CheckPoolHealth(pools.TokenPools[i].SpaceID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
