package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gorm.io/gorm"
)

// PurchasePoints converts a yen payment into points at the configured rate
// and credits them in one atomic unit. The payment provider reference is the
// idempotency key, so a replayed webhook returns the original transaction.
func (s *Service) PurchasePoints(spaceID, userID uint64, yenAmount *decimal.Big, paymentReference string, now time.Time) (*model.TokenTransaction, error) {
	if yenAmount == nil || yenAmount.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}
	minimum := conv.NewFromFloat(float64(s.cfg.Economy.Purchase.MinimumYen))
	if minimum.Sign() > 0 && yenAmount.Cmp(minimum) < 0 {
		return nil, model.ErrInvalidAmount
	}
	if existing, err := s.resolveIdempotency(paymentReference); existing != nil || err != nil {
		return existing, err
	}

	points := conv.RoundToPrecision(
		conv.NewDecimalWithPrecision().Quo(yenAmount, s.cfg.Economy.Purchase.GetYenPerPoint()),
	)
	if points.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var transaction *model.TokenTransaction

	err := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		transaction = model.NewTokenTransaction(spaceID, model.TxKind_Purchase, nil, &userID, points, nil)
		transaction.ReferenceType = model.TxReference_Purchase
		transaction.ReferenceID = paymentReference
		transaction.IdempotencyKey = paymentReference
		transaction.Description = "point purchase"
		transaction.IsReversible = false
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}

		balance, err := s.creditWithHistory(tx, spaceID, userID, points, model.HistoryKind_Earn, "point purchase", transaction.ID, now)
		if err != nil {
			return err
		}

		before := conv.NewDecimalWithPrecision().Sub(balance.CurrentBalance.V, points)
		transaction.SetToSnapshot(before, conv.CloneToPrecision(balance.CurrentBalance.V))
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		return s.repo.CreateTransaction(tx, transaction)
	})
	if err != nil {
		if isUniqueViolation(err) && paymentReference != "" {
			return s.repo.GetTransactionByIdempotencyKey(paymentReference)
		}
		return nil, err
	}

	s.refreshLedger(userID, spaceID)
	monitor.TransactionCount.WithLabelValues(string(transaction.Kind), transaction.Status.String()).Inc()
	s.publishEvent("points_purchased", transaction)

	return transaction, nil
}
