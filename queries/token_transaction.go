package queries

import (
	"errors"
	"time"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
)

// CreateTransaction persists a new transaction inside the given transaction
func (repo *Repo) CreateTransaction(tx *gorm.DB, transaction *model.TokenTransaction) error {
	return tx.Create(transaction).Error
}

// UpdateTransaction saves transaction changes inside the given transaction
func (repo *Repo) UpdateTransaction(tx *gorm.DB, transaction *model.TokenTransaction) error {
	return tx.Save(transaction).Error
}

// GetTransaction returns a transaction by id
func (repo *Repo) GetTransaction(id string) (*model.TokenTransaction, error) {
	transaction := &model.TokenTransaction{}
	db := repo.ConnReader.First(transaction, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return transaction, db.Error
}

// GetTransactionByIdempotencyKey returns the transaction already recorded for
// an idempotency key, if any
func (repo *Repo) GetTransactionByIdempotencyKey(key string) (*model.TokenTransaction, error) {
	transaction := &model.TokenTransaction{}
	db := repo.Conn.First(transaction, "idempotency_key = ?", key)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return transaction, db.Error
}

// GetTransactions lists transactions of a space with paging. Optional status,
// user and time range filters narrow the listing.
func (repo *Repo) GetTransactions(spaceID uint64, status model.TxStatus, userID uint64, from, to *time.Time, limit, page int) (*model.TokenTransactionList, error) {
	transactions := make([]model.TokenTransaction, 0)
	var rowCount int64

	q := repo.ConnReader.Table("token_transactions").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if userID != 0 {
		q = q.Where("from_user_id = ? OR to_user_id = ?", userID, userID)
	}
	if from != nil {
		q = q.Where("created_at >= ?", from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", to)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&transactions)
	transactionList := model.TokenTransactionList{
		Transactions: transactions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
			Filter: map[string]interface{}{
				"status": status.String(),
			},
		},
	}
	return &transactionList, db.Error
}

// GetRetryableTransactions returns failed transactions that still have
// retries left
func (repo *Repo) GetRetryableTransactions(spaceID uint64) ([]*model.TokenTransaction, error) {
	transactions := make([]*model.TokenTransaction, 0)
	db := repo.ConnReader.
		Where("space_id = ?", spaceID).
		Where("status = ?", model.TxStatus_Failed).
		Where("retry_count < max_retries").
		Find(&transactions)
	return transactions, db.Error
}
