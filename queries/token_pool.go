package queries

import (
	"errors"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetTokenPool returns the pool for a space
func (repo *Repo) GetTokenPool(spaceID uint64) (*model.TokenPool, error) {
	pool := &model.TokenPool{}
	db := repo.ConnReader.First(pool, "space_id = ?", spaceID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, model.ErrPoolNotFound
	}
	return pool, db.Error
}

// GetTokenPoolForUpdate loads the pool with a row lock inside a transaction.
// Every supply mutation goes through this.
func (repo *Repo) GetTokenPoolForUpdate(tx *gorm.DB, spaceID uint64) (*model.TokenPool, error) {
	pool := &model.TokenPool{}
	db := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(pool, "space_id = ?", spaceID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, model.ErrPoolNotFound
	}
	return pool, db.Error
}

// CreateTokenPool persists a new pool
func (repo *Repo) CreateTokenPool(pool *model.TokenPool) error {
	return repo.Conn.Create(pool).Error
}

// UpdateTokenPool saves pool changes inside the given transaction
func (repo *Repo) UpdateTokenPool(tx *gorm.DB, pool *model.TokenPool) error {
	return tx.Save(pool).Error
}

// GetTokenPools lists pools with paging
func (repo *Repo) GetTokenPools(limit, page int) (*model.TokenPoolList, error) {
	pools := make([]model.TokenPool, 0)
	var rowCount int64

	q := repo.ConnReader.Table("token_pools")
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("id ASC").Limit(limit).Offset((page - 1) * limit).Find(&pools)
	poolList := model.TokenPoolList{
		TokenPools: pools,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}
	return &poolList, db.Error
}
