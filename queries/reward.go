package queries

import (
	"errors"
	"time"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
)

// CreateReward persists a new reward distribution
func (repo *Repo) CreateReward(reward *model.RewardDistribution) error {
	return repo.Conn.Create(reward).Error
}

// UpdateReward saves reward changes. Accepts a transaction when the update
// pairs with the payout.
func (repo *Repo) UpdateReward(tx *gorm.DB, reward *model.RewardDistribution) error {
	if tx == nil {
		tx = repo.Conn
	}
	return tx.Save(reward).Error
}

// GetReward returns a reward distribution by id
func (repo *Repo) GetReward(id uint64) (*model.RewardDistribution, error) {
	reward := &model.RewardDistribution{}
	db := repo.ConnReader.First(reward, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return reward, db.Error
}

// GetProcessableRewards returns approved, unexpired rewards of a space
func (repo *Repo) GetProcessableRewards(spaceID uint64, now time.Time) ([]*model.RewardDistribution, error) {
	rewards := make([]*model.RewardDistribution, 0)
	db := repo.Conn.
		Where("space_id = ?", spaceID).
		Where("status = ?", model.RewardStatus_Approved).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&rewards)
	return rewards, db.Error
}

// GetOverdueRewards returns pending or approved rewards past their expiry
func (repo *Repo) GetOverdueRewards(now time.Time) ([]*model.RewardDistribution, error) {
	rewards := make([]*model.RewardDistribution, 0)
	db := repo.Conn.
		Where("status IN ?", []model.RewardStatus{model.RewardStatus_Pending, model.RewardStatus_Approved}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Find(&rewards)
	return rewards, db.Error
}

// GetRewards lists rewards of a space with paging
func (repo *Repo) GetRewards(spaceID uint64, status model.RewardStatus, userID uint64, limit, page int) (*model.RewardDistributionList, error) {
	rewards := make([]model.RewardDistribution, 0)
	var rowCount int64

	q := repo.ConnReader.Table("reward_distributions").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&rewards)
	rewardList := model.RewardDistributionList{
		Rewards: rewards,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
			Filter: map[string]interface{}{
				"status": status.String(),
			},
		},
	}
	return &rewardList, db.Error
}
