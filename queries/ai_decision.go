package queries

import (
	"errors"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
)

// CreateAiDecision persists a new AI decision log entry
func (repo *Repo) CreateAiDecision(decision *model.AiDecision) error {
	return repo.Conn.Create(decision).Error
}

// UpdateAiDecision saves AI decision changes. Accepts a transaction when the
// update pairs with the executed action.
func (repo *Repo) UpdateAiDecision(tx *gorm.DB, decision *model.AiDecision) error {
	if tx == nil {
		tx = repo.Conn
	}
	return tx.Save(decision).Error
}

// GetAiDecision returns an AI decision by id
func (repo *Repo) GetAiDecision(id uint64) (*model.AiDecision, error) {
	decision := &model.AiDecision{}
	db := repo.ConnReader.First(decision, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return decision, db.Error
}

// GetPendingReviewDecisions returns decisions waiting for a human reviewer
func (repo *Repo) GetPendingReviewDecisions(spaceID uint64) ([]*model.AiDecision, error) {
	decisions := make([]*model.AiDecision, 0)
	db := repo.ConnReader.
		Where("space_id = ?", spaceID).
		Where("status IN ?", []model.AiDecisionStatus{model.AiDecisionStatus_Proposed, model.AiDecisionStatus_UnderReview}).
		Where("human_review_required = ?", true).
		Find(&decisions)
	return decisions, db.Error
}

// GetAiDecisions lists AI decisions of a space with paging
func (repo *Repo) GetAiDecisions(spaceID uint64, status model.AiDecisionStatus, limit, page int) (*model.AiDecisionList, error) {
	decisions := make([]model.AiDecision, 0)
	var rowCount int64

	q := repo.ConnReader.Table("ai_decisions").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&decisions)
	decisionList := model.AiDecisionList{
		Decisions: decisions,
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
