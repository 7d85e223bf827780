package queries

import (
	"errors"
	"time"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
)

// CreateBurnDecision persists a new burn decision
func (repo *Repo) CreateBurnDecision(decision *model.BurnDecision) error {
	return repo.Conn.Create(decision).Error
}

// UpdateBurnDecision saves burn decision changes. Accepts a transaction when
// the update pairs with a supply mutation.
func (repo *Repo) UpdateBurnDecision(tx *gorm.DB, decision *model.BurnDecision) error {
	if tx == nil {
		tx = repo.Conn
	}
	return tx.Save(decision).Error
}

// GetBurnDecision returns a burn decision by id
func (repo *Repo) GetBurnDecision(id uint64) (*model.BurnDecision, error) {
	decision := &model.BurnDecision{}
	db := repo.ConnReader.First(decision, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return decision, db.Error
}

// GetDueScheduledBurns returns scheduled burn decisions whose execution date
// has arrived
func (repo *Repo) GetDueScheduledBurns(now time.Time) ([]*model.BurnDecision, error) {
	decisions := make([]*model.BurnDecision, 0)
	db := repo.Conn.
		Where("status = ?", model.BurnStatus_Scheduled).
		Where("scheduled_execution_date <= ?", now).
		Find(&decisions)
	return decisions, db.Error
}

// GetEndedBurnVotes returns voting burn decisions whose window has closed
func (repo *Repo) GetEndedBurnVotes(now time.Time) ([]*model.BurnDecision, error) {
	decisions := make([]*model.BurnDecision, 0)
	db := repo.Conn.
		Where("status = ?", model.BurnStatus_Voting).
		Where("voting_end_date < ?", now).
		Find(&decisions)
	return decisions, db.Error
}

// GetBurnDecisions lists burn decisions of a space with paging
func (repo *Repo) GetBurnDecisions(spaceID uint64, status model.BurnStatus, limit, page int) (*model.BurnDecisionList, error) {
	decisions := make([]model.BurnDecision, 0)
	var rowCount int64

	q := repo.ConnReader.Table("burn_decisions").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&decisions)
	decisionList := model.BurnDecisionList{
		BurnDecisions: decisions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
			Filter: map[string]interface{}{
				"status": status.String(),
			},
		},
	}
	return &decisionList, db.Error
}
