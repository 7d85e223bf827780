package queries

import (
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUserBalance returns the ledger row for a (user, space) pair
func (repo *Repo) GetUserBalance(userID, spaceID uint64) (*model.UserBalance, error) {
	balance := &model.UserBalance{}
	db := repo.ConnReader.First(balance, "user_id = ? AND space_id = ?", userID, spaceID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, model.ErrAccountNotFound
	}
	return balance, db.Error
}

// GetUserBalanceForUpdate loads the ledger row with a row lock inside a
// transaction
func (repo *Repo) GetUserBalanceForUpdate(tx *gorm.DB, userID, spaceID uint64) (*model.UserBalance, error) {
	balance := &model.UserBalance{}
	db := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(balance, "user_id = ? AND space_id = ?", userID, spaceID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, model.ErrAccountNotFound
	}
	return balance, db.Error
}

// GetOrCreateUserBalance returns the existing ledger row or creates an empty
// one
func (repo *Repo) GetOrCreateUserBalance(userID, spaceID uint64) (*model.UserBalance, error) {
	balance, err := repo.GetUserBalance(userID, spaceID)
	if err == nil {
		return balance, nil
	}
	if err != model.ErrAccountNotFound {
		return nil, err
	}
	balance = model.NewUserBalance(userID, spaceID)
	if err := repo.Conn.Create(balance).Error; err != nil {
		return nil, err
	}
	return balance, nil
}

// UpdateUserBalance saves the ledger row inside the given transaction
func (repo *Repo) UpdateUserBalance(tx *gorm.DB, balance *model.UserBalance) error {
	return tx.Save(balance).Error
}

// GetCollectionTargets returns the non exempt, non frozen accounts in a space
// strictly over the threshold
func (repo *Repo) GetCollectionTargets(spaceID uint64, threshold *decimal.Big) ([]*model.UserBalance, error) {
	balances := make([]*model.UserBalance, 0)
	db := repo.ConnReader.
		Where("space_id = ?", spaceID).
		Where("collection_exempt = ?", false).
		Where("frozen = ?", false).
		Where("current_balance > ?", utils.Fmt(threshold)).
		Find(&balances)
	return balances, db.Error
}

// GetUserBalances lists ledger rows of a space with paging
func (repo *Repo) GetUserBalances(spaceID uint64, limit, page int) (*model.UserBalanceList, error) {
	balances := make([]model.UserBalance, 0)
	var rowCount int64

	q := repo.ConnReader.Table("user_balances").Where("space_id = ?", spaceID)
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("current_balance DESC").Limit(limit).Offset((page - 1) * limit).Find(&balances)
	balanceList := model.UserBalanceList{
		UserBalances: balances,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}
	return &balanceList, db.Error
}

// CreateBalanceHistory appends a history entry inside the given transaction.
// History rows are append only and never updated.
func (repo *Repo) CreateBalanceHistory(tx *gorm.DB, entry *model.BalanceHistory) error {
	return tx.Create(entry).Error
}

// GetBalanceHistory lists a user's history entries, newest first. Optional
// kind and time range filters narrow the listing.
func (repo *Repo) GetBalanceHistory(userID, spaceID uint64, kind model.HistoryKind, from, to *time.Time, limit, page int) (*model.BalanceHistoryList, error) {
	entries := make([]model.BalanceHistory, 0)
	var rowCount int64

	q := repo.ConnReader.Table("balance_histories").
		Where("user_id = ? AND space_id = ?", userID, spaceID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
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
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&entries)
	historyList := model.BalanceHistoryList{
		Entries: entries,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}
	return &historyList, db.Error
}
