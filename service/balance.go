package service

import (
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/lib/pq"
	"gitlab.com/sfr-tokyo/economy_api/cache/idempotency"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gorm.io/gorm"
)

// GetUserBalance godoc
func (s *Service) GetUserBalance(userID, spaceID uint64) (*model.UserBalance, error) {
	return s.repo.GetUserBalance(userID, spaceID)
}

// GetUserBalances godoc
func (s *Service) GetUserBalances(spaceID uint64, limit, page int) (*model.UserBalanceList, error) {
	return s.repo.GetUserBalances(spaceID, limit, page)
}

// GetBalanceHistory godoc
func (s *Service) GetBalanceHistory(userID, spaceID uint64, kind model.HistoryKind, from, to *time.Time, limit, page int) (*model.BalanceHistoryList, error) {
	return s.repo.GetBalanceHistory(userID, spaceID, kind, from, to, limit, page)
}

// SetAccountFrozen freezes or unfreezes an account. A frozen account refuses
// every mutation until unfrozen; the row itself is never deleted.
func (s *Service) SetAccountFrozen(userID, spaceID uint64, frozen bool, now time.Time) (*model.UserBalance, error) {
	balance, err := s.repo.GetUserBalance(userID, spaceID)
	if err != nil {
		return nil, err
	}
	if frozen {
		balance.Freeze(now)
	} else {
		balance.Unfreeze(now)
	}
	if err := s.repo.UpdateUserBalance(s.repo.Conn, balance); err != nil {
		return nil, err
	}
	s.Ledger.InitAccountLedger(balance)
	return balance, nil
}

// SetCollectionExempt godoc
func (s *Service) SetCollectionExempt(userID, spaceID uint64, exempt bool, now time.Time) (*model.UserBalance, error) {
	balance, err := s.repo.GetUserBalance(userID, spaceID)
	if err != nil {
		return nil, err
	}
	balance.CollectionExempt = exempt
	balance.UpdatedAt = now
	if err := s.repo.UpdateUserBalance(s.repo.Conn, balance); err != nil {
		return nil, err
	}
	s.Ledger.InitAccountLedger(balance)
	return balance, nil
}

// creditWithHistory applies a credit on a locked balance row and writes the
// matching history entry in the same database transaction
func (s *Service) creditWithHistory(tx *gorm.DB, spaceID, userID uint64, amount *decimal.Big, kind model.HistoryKind, reason, referenceID string, now time.Time) (*model.UserBalance, error) {
	balance, err := s.repo.GetUserBalanceForUpdate(tx, userID, spaceID)
	if err != nil {
		if !errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
		balance = model.NewUserBalance(userID, spaceID)
		if err := tx.Create(balance).Error; err != nil {
			return nil, err
		}
	}

	before := conv.CloneToPrecision(balance.CurrentBalance.V)
	if err := balance.Credit(amount, now); err != nil {
		return nil, err
	}
	after := conv.CloneToPrecision(balance.CurrentBalance.V)

	entry := model.NewBalanceHistory(userID, spaceID, kind, conv.CloneToPrecision(amount), before, after, reason, referenceID)
	if err := s.repo.CreateBalanceHistory(tx, entry); err != nil {
		return nil, err
	}
	return balance, s.repo.UpdateUserBalance(tx, balance)
}

// debitWithHistory mirrors creditWithHistory for the spend side. The history
// amount is stored signed.
func (s *Service) debitWithHistory(tx *gorm.DB, spaceID, userID uint64, amount *decimal.Big, kind model.HistoryKind, reason, referenceID string, now time.Time) (*model.UserBalance, error) {
	balance, err := s.repo.GetUserBalanceForUpdate(tx, userID, spaceID)
	if err != nil {
		return nil, err
	}

	before := conv.CloneToPrecision(balance.CurrentBalance.V)
	if err := balance.Debit(amount, now); err != nil {
		return nil, err
	}
	after := conv.CloneToPrecision(balance.CurrentBalance.V)

	signed := conv.NewDecimalWithPrecision().Neg(amount)
	entry := model.NewBalanceHistory(userID, spaceID, kind, signed, before, after, reason, referenceID)
	if err := s.repo.CreateBalanceHistory(tx, entry); err != nil {
		return nil, err
	}
	return balance, s.repo.UpdateUserBalance(tx, balance)
}

// CreditUser adds tokens to an account with a full transaction record
func (s *Service) CreditUser(spaceID, userID uint64, amount *decimal.Big, kind model.TxKind, referenceType model.TxReferenceType, referenceID, reason string, now time.Time) (*model.TokenTransaction, error) {
	var transaction *model.TokenTransaction

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		transaction = model.NewTokenTransaction(spaceID, kind, nil, &userID, amount, nil)
		transaction.ReferenceType = referenceType
		transaction.ReferenceID = referenceID
		transaction.Description = reason
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}

		balance, err := s.creditWithHistory(tx, spaceID, userID, amount, model.HistoryKind_Earn, reason, transaction.ID, now)
		if err != nil {
			return err
		}

		before := conv.NewDecimalWithPrecision().Sub(balance.CurrentBalance.V, amount)
		transaction.SetToSnapshot(before, conv.CloneToPrecision(balance.CurrentBalance.V))
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		return s.repo.CreateTransaction(tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	s.refreshLedger(userID, spaceID)
	monitor.TransactionCount.WithLabelValues(string(transaction.Kind), transaction.Status.String()).Inc()
	s.publishEvent("balance_credited", transaction)

	return transaction, nil
}

// DebitUser removes tokens from an account with a full transaction record
func (s *Service) DebitUser(spaceID, userID uint64, amount *decimal.Big, kind model.TxKind, referenceType model.TxReferenceType, referenceID, reason string, now time.Time) (*model.TokenTransaction, error) {
	var transaction *model.TokenTransaction

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		transaction = model.NewTokenTransaction(spaceID, kind, &userID, nil, amount, nil)
		transaction.ReferenceType = referenceType
		transaction.ReferenceID = referenceID
		transaction.Description = reason
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}

		balance, err := s.debitWithHistory(tx, spaceID, userID, amount, model.HistoryKind_Spend, reason, transaction.ID, now)
		if err != nil {
			return err
		}

		before := conv.NewDecimalWithPrecision().Add(balance.CurrentBalance.V, amount)
		transaction.SetFromSnapshot(before, conv.CloneToPrecision(balance.CurrentBalance.V))
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		return s.repo.CreateTransaction(tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	s.refreshLedger(userID, spaceID)
	monitor.TransactionCount.WithLabelValues(string(transaction.Kind), transaction.Status.String()).Inc()
	s.publishEvent("balance_debited", transaction)

	return transaction, nil
}

// Transfer moves tokens between two accounts in one atomic unit. The sender
// is debited the gross amount, the receiver is credited the net amount.
// Balance rows are locked in user id order so concurrent transfers can not
// deadlock.
func (s *Service) Transfer(spaceID, fromUserID, toUserID uint64, amount, fee *decimal.Big, description, idempotencyKey string, now time.Time) (*model.TokenTransaction, error) {
	if fromUserID == toUserID {
		return nil, model.ErrInvalidAmount
	}
	if existing, err := s.resolveIdempotency(idempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	var transaction *model.TokenTransaction

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		transaction = model.NewTokenTransaction(spaceID, model.TxKind_Transfer, &fromUserID, &toUserID, amount, fee)
		transaction.Description = description
		transaction.IdempotencyKey = idempotencyKey
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}

		first, second := fromUserID, toUserID
		if second < first {
			first, second = second, first
		}
		if _, err := s.repo.GetUserBalanceForUpdate(tx, first, spaceID); err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return err
		}
		if _, err := s.repo.GetUserBalanceForUpdate(tx, second, spaceID); err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return err
		}

		sender, err := s.debitWithHistory(tx, spaceID, fromUserID, amount, model.HistoryKind_Transfer, description, transaction.ID, now)
		if err != nil {
			return err
		}
		receiver, err := s.creditWithHistory(tx, spaceID, toUserID, transaction.NetAmount.V, model.HistoryKind_Transfer, description, transaction.ID, now)
		if err != nil {
			return err
		}

		senderBefore := conv.NewDecimalWithPrecision().Add(sender.CurrentBalance.V, amount)
		transaction.SetFromSnapshot(senderBefore, conv.CloneToPrecision(sender.CurrentBalance.V))
		receiverBefore := conv.NewDecimalWithPrecision().Sub(receiver.CurrentBalance.V, transaction.NetAmount.V)
		transaction.SetToSnapshot(receiverBefore, conv.CloneToPrecision(receiver.CurrentBalance.V))

		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		return s.repo.CreateTransaction(tx, transaction)
	})
	if err != nil {
		if isUniqueViolation(err) && idempotencyKey != "" {
			return s.repo.GetTransactionByIdempotencyKey(idempotencyKey)
		}
		return nil, err
	}

	s.refreshLedger(fromUserID, spaceID)
	s.refreshLedger(toUserID, spaceID)
	monitor.TransactionCount.WithLabelValues(string(transaction.Kind), transaction.Status.String()).Inc()
	s.publishEvent("transfer_completed", transaction)

	return transaction, nil
}

// resolveIdempotency returns the already executed transaction for a key, or
// nil when the key is fresh. The key is reserved in redis before any write
// so a concurrent replay loses the race instead of double spending.
func (s *Service) resolveIdempotency(key string) (*model.TokenTransaction, error) {
	if key == "" {
		return nil, nil
	}
	if existing, err := s.repo.GetTransactionByIdempotencyKey(key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	_, reserved, err := idempotency.Reserve(key, key)
	if err != nil {
		return nil, err
	}
	if !reserved {
		existing, err := s.repo.GetTransactionByIdempotencyKey(key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		// reserved by a request still in flight
		return nil, model.ErrIdempotentReplay
	}
	return nil, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// refreshLedger reloads the in memory ledger view from the committed row
func (s *Service) refreshLedger(userID, spaceID uint64) {
	balance, err := s.repo.GetUserBalance(userID, spaceID)
	if err != nil {
		return
	}
	s.Ledger.InitAccountLedger(balance)
}
