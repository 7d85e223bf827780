package service

import (
	"time"

	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gorm.io/gorm"
)

// GetTransaction godoc
func (s *Service) GetTransaction(id string) (*model.TokenTransaction, error) {
	return s.repo.GetTransaction(id)
}

// GetTransactions godoc
func (s *Service) GetTransactions(spaceID uint64, status model.TxStatus, userID uint64, from, to *time.Time, limit, page int) (*model.TokenTransactionList, error) {
	return s.repo.GetTransactions(spaceID, status, userID, from, to, limit, page)
}

// RetryTransaction re-queues a failed transaction, bounded by its retry
// limit
func (s *Service) RetryTransaction(id string, now time.Time) (*model.TokenTransaction, error) {
	transaction, err := s.repo.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if err := transaction.Retry(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTransaction(s.repo.Conn, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// CancelTransaction godoc
func (s *Service) CancelTransaction(id, reason string, now time.Time) (*model.TokenTransaction, error) {
	transaction, err := s.repo.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if err := transaction.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTransaction(s.repo.Conn, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ReverseTransaction undoes a completed reversible transaction through a
// compensating transaction. The original row keeps its amounts and gains a
// link to the reversal; balances move back in the same atomic unit.
func (s *Service) ReverseTransaction(id, reason string, now time.Time) (*model.TokenTransaction, error) {
	original, err := s.repo.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if original.Status != model.TxStatus_Completed {
		return nil, model.ErrIllegalTransition
	}
	if !original.IsReversible {
		return nil, model.ErrNotReversible
	}

	var reversal *model.TokenTransaction

	err = s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		reversal = model.NewTokenTransaction(
			original.SpaceID, model.TxKind_Refund,
			original.ToUserID, original.FromUserID,
			conv.CloneToPrecision(original.NetAmount.V), nil,
		)
		reversal.ReferenceType = model.TxReference_External
		reversal.ReferenceID = original.ID
		reversal.ReversalOfID = &original.ID
		reversal.Description = "reversal: " + reason
		reversal.IsReversible = false
		if err := reversal.MarkAsProcessing(now); err != nil {
			return err
		}

		if original.ToUserID != nil {
			receiver, err := s.debitWithHistory(tx, original.SpaceID, *original.ToUserID, original.NetAmount.V, model.HistoryKind_Spend, "reversal: "+reason, reversal.ID, now)
			if err != nil {
				return err
			}
			before := conv.NewDecimalWithPrecision().Add(receiver.CurrentBalance.V, original.NetAmount.V)
			reversal.SetFromSnapshot(before, conv.CloneToPrecision(receiver.CurrentBalance.V))
		}
		if original.FromUserID != nil {
			sender, err := s.creditWithHistory(tx, original.SpaceID, *original.FromUserID, original.Amount.V, model.HistoryKind_Earn, "reversal: "+reason, reversal.ID, now)
			if err != nil {
				return err
			}
			before := conv.NewDecimalWithPrecision().Sub(sender.CurrentBalance.V, original.Amount.V)
			reversal.SetToSnapshot(before, conv.CloneToPrecision(sender.CurrentBalance.V))
		}

		if err := reversal.MarkAsCompleted(now); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(tx, reversal); err != nil {
			return err
		}
		if err := original.Reverse(reversal.ID, reason, now); err != nil {
			return err
		}
		return s.repo.UpdateTransaction(tx, original)
	})
	if err != nil {
		return nil, err
	}

	if original.ToUserID != nil {
		s.refreshLedger(*original.ToUserID, original.SpaceID)
	}
	if original.FromUserID != nil {
		s.refreshLedger(*original.FromUserID, original.SpaceID)
	}
	monitor.TransactionCount.WithLabelValues(string(reversal.Kind), reversal.Status.String()).Inc()
	s.publishEvent("transaction_reversed", original)

	return reversal, nil
}
