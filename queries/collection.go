package queries

import (
	"errors"
	"time"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
)

// CreateCollectionRecord persists a new collection record
func (repo *Repo) CreateCollectionRecord(record *model.CollectionHistory) error {
	return repo.Conn.Create(record).Error
}

// UpdateCollectionRecord saves collection changes. Accepts a transaction when
// the update is part of an atomic sweep.
func (repo *Repo) UpdateCollectionRecord(tx *gorm.DB, record *model.CollectionHistory) error {
	if tx == nil {
		tx = repo.Conn
	}
	return tx.Save(record).Error
}

// GetCollectionRecord returns a collection record by id
func (repo *Repo) GetCollectionRecord(id uint64) (*model.CollectionHistory, error) {
	record := &model.CollectionHistory{}
	db := repo.ConnReader.First(record, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return record, db.Error
}

// GetCollectionsByStatus returns all collection records of a space in the
// given status
func (repo *Repo) GetCollectionsByStatus(spaceID uint64, status model.CollectionStatus) ([]*model.CollectionHistory, error) {
	records := make([]*model.CollectionHistory, 0)
	db := repo.ConnReader.
		Where("space_id = ?", spaceID).
		Where("status = ?", status).
		Find(&records)
	return records, db.Error
}

// GetElapsedGracePeriods returns grace period records whose response window
// has closed
func (repo *Repo) GetElapsedGracePeriods(now time.Time) ([]*model.CollectionHistory, error) {
	records := make([]*model.CollectionHistory, 0)
	db := repo.Conn.
		Where("status = ?", model.CollectionStatus_GracePeriod).
		Where("grace_period_end < ?", now).
		Find(&records)
	return records, db.Error
}

// GetOpenCollectionForUser reports whether a user already has a collection in
// flight, to avoid double targeting inside one scan cycle
func (repo *Repo) GetOpenCollectionForUser(spaceID, userID uint64) (*model.CollectionHistory, error) {
	record := &model.CollectionHistory{}
	db := repo.Conn.
		Where("space_id = ? AND user_id = ?", spaceID, userID).
		Where("status IN ?", []model.CollectionStatus{
			model.CollectionStatus_Pending,
			model.CollectionStatus_GracePeriod,
			model.CollectionStatus_Approved,
			model.CollectionStatus_Executing,
		}).
		First(record)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return record, db.Error
}

// GetCollections lists collection records of a space with paging
func (repo *Repo) GetCollections(spaceID uint64, status model.CollectionStatus, limit, page int) (*model.CollectionHistoryList, error) {
	records := make([]model.CollectionHistory, 0)
	var rowCount int64

	q := repo.ConnReader.Table("collection_histories").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&records)
	collectionList := model.CollectionHistoryList{
		Collections: records,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
			Filter: map[string]interface{}{
				"status": status.String(),
			},
		},
	}
	return &collectionList, db.Error
}
