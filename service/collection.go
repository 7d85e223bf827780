package service

import (
	"time"

	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/utils"
	"gorm.io/gorm"
)

// ScanCollectionTargets detects every account over the pool threshold and
// opens a collection record for each. The amount is fixed at detection time:
// balance times the pool collection rate. An account with an open record is
// skipped, one collection at a time per user.
func (s *Service) ScanCollectionTargets(spaceID uint64, trigger model.CollectionTrigger, now time.Time) ([]*model.CollectionHistory, error) {
	pool, err := s.repo.GetTokenPool(spaceID)
	if err != nil {
		return nil, err
	}
	if pool.Status != model.PoolStatus_Active {
		return nil, model.ErrPoolNotActive
	}

	targets, err := s.repo.GetCollectionTargets(spaceID, pool.CollectionThreshold.V)
	if err != nil {
		return nil, err
	}

	gracePeriod := time.Duration(s.cfg.Economy.Collection.GracePeriodHours) * time.Hour
	opened := make([]*model.CollectionHistory, 0, len(targets))

	for _, balance := range targets {
		open, err := s.repo.GetOpenCollectionForUser(spaceID, balance.UserID)
		if err != nil {
			return opened, err
		}
		if open != nil {
			continue
		}

		amount := conv.RoundToPrecision(
			conv.NewDecimalWithPrecision().Mul(balance.CurrentBalance.V, pool.CollectionRate.V),
		)
		if amount.Sign() <= 0 {
			continue
		}

		record := model.NewCollectionRecord(
			spaceID,
			balance.UserID,
			amount,
			conv.CloneToPrecision(balance.CurrentBalance.V),
			conv.CloneToPrecision(pool.CollectionThreshold.V),
			conv.CloneToPrecision(pool.CollectionRate.V),
			trigger,
			model.CollectionReason_ThresholdExceeded,
		)
		if gracePeriod > 0 {
			if err := record.StartGracePeriod(gracePeriod, now); err != nil {
				return opened, err
			}
		}
		if err := s.repo.CreateCollectionRecord(record); err != nil {
			return opened, err
		}
		opened = append(opened, record)
		s.publishEvent("collection_opened", record)
	}

	return opened, nil
}

// ScanAllCollectionTargets runs the threshold scan over every active pool
func (s *Service) ScanAllCollectionTargets(now time.Time) error {
	pools, err := s.repo.GetTokenPools(0, 0)
	if err != nil {
		return err
	}
	var lastErr error
	for i := range pools.TokenPools {
		if _, err := s.ScanCollectionTargets(pools.TokenPools[i].SpaceID, model.CollectionTrigger_AutomaticThreshold, now); err != nil {
			log.Error().Err(err).
				Str("section", "service").
				Uint64("space_id", pools.TokenPools[i].SpaceID).
				Msg("Collection scan failed")
			lastErr = err
		}
	}
	return lastErr
}

// ProcessGracePeriods approves every collection whose response window has
// elapsed without a successful appeal
func (s *Service) ProcessGracePeriods(now time.Time) error {
	records, err := s.repo.GetElapsedGracePeriods(now)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := record.Approve(0, now); err != nil {
			continue
		}
		if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
			return err
		}
		s.publishEvent("collection_approved", record)
	}
	return nil
}

// ApproveCollection lets an administrator approve a pending collection
// without waiting out the grace period
func (s *Service) ApproveCollection(recordID, approver uint64, now time.Time) (*model.CollectionHistory, error) {
	record, err := s.repo.GetCollectionRecord(recordID)
	if err != nil {
		return nil, err
	}
	if err := record.Approve(approver, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ExecuteCollection debits the fixed amount from the account and credits the
// ecosystem sub pool, all in one database transaction. A failed debit marks
// the record failed and leaves the balance untouched.
func (s *Service) ExecuteCollection(recordID, executor uint64, now time.Time) (*model.CollectionHistory, error) {
	record, err := s.repo.GetCollectionRecord(recordID)
	if err != nil {
		return nil, err
	}
	if err := record.MarkAsExecuting(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
		return nil, err
	}

	amount := record.CollectedAmount.V
	var transaction *model.TokenTransaction
	var balanceAfter = conv.NewDecimalWithPrecision()

	execErr := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		balance, err := s.repo.GetUserBalanceForUpdate(tx, record.UserID, record.SpaceID)
		if err != nil {
			return err
		}
		before := conv.CloneToPrecision(balance.CurrentBalance.V)
		if err := balance.Collect(amount, now); err != nil {
			return err
		}
		balanceAfter = conv.CloneToPrecision(balance.CurrentBalance.V)

		entry := model.NewBalanceHistory(
			record.UserID, record.SpaceID, model.HistoryKind_Collect,
			conv.NewDecimalWithPrecision().Neg(amount), before, balanceAfter,
			string(record.Reason), utils.Uint64ToString(record.ID),
		)
		if err := s.repo.CreateBalanceHistory(tx, entry); err != nil {
			return err
		}
		if err := s.repo.UpdateUserBalance(tx, balance); err != nil {
			return err
		}

		pool, err := s.repo.GetTokenPoolForUpdate(tx, record.SpaceID)
		if err != nil {
			return err
		}
		if err := pool.CreditCollectionPool(amount, now); err != nil {
			return err
		}
		if err := s.repo.UpdateTokenPool(tx, pool); err != nil {
			return err
		}

		transaction = model.NewTokenTransaction(record.SpaceID, model.TxKind_Collection, &record.UserID, nil, amount, nil)
		transaction.ReferenceType = model.TxReference_Collection
		transaction.ReferenceID = utils.Uint64ToString(record.ID)
		transaction.IsSystem = true
		transaction.SetFromSnapshot(before, conv.CloneToPrecision(balanceAfter))
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(tx, transaction); err != nil {
			return err
		}

		if err := record.MarkAsCompleted(conv.CloneToPrecision(balanceAfter), transaction.ID, now); err != nil {
			return err
		}
		return s.repo.UpdateCollectionRecord(tx, record)
	})
	if execErr != nil {
		if err := record.MarkAsFailed(execErr.Error(), now); err == nil {
			_ = s.repo.UpdateCollectionRecord(nil, record)
		}
		return record, execErr
	}

	s.refreshLedger(record.UserID, record.SpaceID)
	monitor.TokensCollected.WithLabelValues(utils.Uint64ToString(record.SpaceID)).Add(utils.ToFloat64(amount))
	s.publishEvent("collection_executed", record)

	return record, nil
}

// ProcessApprovedCollections executes every approved collection across all
// spaces
func (s *Service) ProcessApprovedCollections(now time.Time) error {
	pools, err := s.repo.GetTokenPools(0, 0)
	if err != nil {
		return err
	}
	var lastErr error
	for i := range pools.TokenPools {
		records, err := s.repo.GetCollectionsByStatus(pools.TokenPools[i].SpaceID, model.CollectionStatus_Approved)
		if err != nil {
			lastErr = err
			continue
		}
		for _, record := range records {
			if _, err := s.ExecuteCollection(record.ID, 0, now); err != nil {
				log.Error().Err(err).
					Str("section", "service").
					Uint64("collection_id", record.ID).
					Msg("Collection execution failed")
				lastErr = err
			}
		}
	}
	return lastErr
}

// CancelCollection godoc
func (s *Service) CancelCollection(recordID, admin uint64, reason string, now time.Time) (*model.CollectionHistory, error) {
	record, err := s.repo.GetCollectionRecord(recordID)
	if err != nil {
		return nil, err
	}
	if err := record.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SubmitCollectionAppeal opens an appeal on behalf of the collected user
func (s *Service) SubmitCollectionAppeal(recordID, userID uint64, reason string, now time.Time) (*model.CollectionHistory, error) {
	record, err := s.repo.GetCollectionRecord(recordID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, model.ErrAccountNotFound
	}
	if err := record.SubmitAppeal(reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
		return nil, err
	}
	s.publishEvent("collection_appealed", record)
	return record, nil
}

// ResolveCollectionAppeal settles an appeal. An approved appeal refunds the
// collected amount through a compensating transaction; the original record
// and history entries are never rewritten.
func (s *Service) ResolveCollectionAppeal(recordID, admin uint64, approve bool, result string, now time.Time) (*model.CollectionHistory, error) {
	record, err := s.repo.GetCollectionRecord(recordID)
	if err != nil {
		return nil, err
	}

	if !approve {
		if err := record.RejectAppeal(admin, result, now); err != nil {
			return nil, err
		}
		if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	wasExecuted := record.TransactionID != ""
	if err := record.ApproveAppeal(admin, result, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCollectionRecord(nil, record); err != nil {
		return nil, err
	}

	if wasExecuted {
		var refund *model.TokenTransaction
		amount := conv.CloneToPrecision(record.CollectedAmount.V)

		// the refund and the reversal of the ecosystem sub pool credit
		// commit together, keeping supply conservation intact
		err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
			pool, err := s.repo.GetTokenPoolForUpdate(tx, record.SpaceID)
			if err != nil {
				return err
			}
			if err := pool.DebitCollectionPool(amount, now); err != nil {
				return err
			}

			refund = model.NewTokenTransaction(record.SpaceID, model.TxKind_Refund, nil, &record.UserID, amount, nil)
			refund.ReferenceType = model.TxReference_Collection
			refund.ReferenceID = utils.Uint64ToString(record.ID)
			refund.Description = "collection appeal refund"
			if err := refund.MarkAsProcessing(now); err != nil {
				return err
			}

			balance, err := s.creditWithHistory(tx, record.SpaceID, record.UserID, amount, model.HistoryKind_Earn, "collection appeal refund", refund.ID, now)
			if err != nil {
				return err
			}
			before := conv.NewDecimalWithPrecision().Sub(balance.CurrentBalance.V, amount)
			refund.SetToSnapshot(before, conv.CloneToPrecision(balance.CurrentBalance.V))
			if err := refund.MarkAsCompleted(now); err != nil {
				return err
			}
			if err := s.repo.CreateTransaction(tx, refund); err != nil {
				return err
			}
			return s.repo.UpdateTokenPool(tx, pool)
		})
		if err != nil {
			return record, err
		}

		s.refreshLedger(record.UserID, record.SpaceID)
		monitor.TransactionCount.WithLabelValues(string(refund.Kind), refund.Status.String()).Inc()
	}
	s.publishEvent("collection_appeal_resolved", record)
	return record, nil
}

// GetCollection godoc
func (s *Service) GetCollection(recordID uint64) (*model.CollectionHistory, error) {
	return s.repo.GetCollectionRecord(recordID)
}

// GetCollections godoc
func (s *Service) GetCollections(spaceID uint64, status model.CollectionStatus, limit, page int) (*model.CollectionHistoryList, error) {
	return s.repo.GetCollections(spaceID, status, limit, page)
}
