package service

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/utils"
	"gorm.io/gorm"
)

// GrantReward opens a reward grant. Automatic triggers are approved
// immediately; manual and AI triggered rewards wait for a human decision.
// Expiry comes from the configured window.
func (s *Service) GrantReward(spaceID, userID uint64, amount *decimal.Big, category model.RewardCategory, trigger model.RewardTrigger, referenceID, reason string, multiplier *decimal.Big, now time.Time) (*model.RewardDistribution, error) {
	reward, err := model.NewRewardDistribution(spaceID, userID, amount, category, trigger, referenceID, reason, multiplier, now)
	if err != nil {
		return nil, err
	}
	if days := s.cfg.Economy.Rewards.ExpiryDays; days > 0 {
		expiry := now.Add(time.Duration(days) * 24 * time.Hour)
		reward.ExpiresAt = &expiry
	}
	if !trigger.NeedsManualApproval() {
		if err := reward.Approve(0, now); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateReward(reward); err != nil {
		return nil, err
	}
	s.publishEvent("reward_granted", reward)
	return reward, nil
}

// ApproveReward godoc
func (s *Service) ApproveReward(rewardID, approver uint64, now time.Time) (*model.RewardDistribution, error) {
	reward, err := s.repo.GetReward(rewardID)
	if err != nil {
		return nil, err
	}
	if err := reward.Approve(approver, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReward(nil, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// CancelReward godoc
func (s *Service) CancelReward(rewardID, canceller uint64, reason string, now time.Time) (*model.RewardDistribution, error) {
	reward, err := s.repo.GetReward(rewardID)
	if err != nil {
		return nil, err
	}
	if err := reward.Cancel(canceller, reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReward(nil, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// ProcessReward pays out one approved reward: the final amount leaves the
// reward sub pool and lands on the user balance in one database transaction.
// A depleted pool fails the reward without touching the balance.
func (s *Service) ProcessReward(rewardID uint64, now time.Time) (*model.RewardDistribution, error) {
	reward, err := s.repo.GetReward(rewardID)
	if err != nil {
		return nil, err
	}
	if err := reward.MarkAsProcessing(now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReward(nil, reward); err != nil {
		return nil, err
	}

	finalAmount := conv.RoundToPrecision(reward.FinalAmount())

	execErr := s.repo.Conn.Transaction(func(tx *gorm.DB) error {
		pool, err := s.repo.GetTokenPoolForUpdate(tx, reward.SpaceID)
		if err != nil {
			return err
		}
		if err := pool.DistributeReward(finalAmount, now); err != nil {
			return err
		}
		if err := s.repo.UpdateTokenPool(tx, pool); err != nil {
			return err
		}

		transaction := model.NewTokenTransaction(reward.SpaceID, model.TxKind_Reward, nil, &reward.UserID, finalAmount, nil)
		transaction.ReferenceType = model.TxReference_RewardDistribution
		transaction.ReferenceID = utils.Uint64ToString(reward.ID)
		transaction.IsSystem = true
		if err := transaction.MarkAsProcessing(now); err != nil {
			return err
		}

		balance, err := s.creditWithHistory(tx, reward.SpaceID, reward.UserID, finalAmount, model.HistoryKind_Earn, reward.Reason, transaction.ID, now)
		if err != nil {
			return err
		}

		before := conv.NewDecimalWithPrecision().Sub(balance.CurrentBalance.V, finalAmount)
		transaction.SetToSnapshot(before, conv.CloneToPrecision(balance.CurrentBalance.V))
		if err := transaction.MarkAsCompleted(now); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(tx, transaction); err != nil {
			return err
		}

		if err := reward.MarkAsCompleted(transaction.ID, now); err != nil {
			return err
		}
		return s.repo.UpdateReward(tx, reward)
	})
	if execErr != nil {
		if err := reward.MarkAsFailed(execErr.Error(), now); err == nil {
			_ = s.repo.UpdateReward(nil, reward)
		}
		return reward, execErr
	}

	s.refreshLedger(reward.UserID, reward.SpaceID)
	monitor.RewardsDistributed.WithLabelValues(utils.Uint64ToString(reward.SpaceID)).Add(utils.ToFloat64(finalAmount))
	s.publishEvent("reward_processed", reward)

	return reward, nil
}

// ProcessAllRewards pays out every approved unexpired reward across all
// spaces
func (s *Service) ProcessAllRewards(now time.Time) error {
	pools, err := s.repo.GetTokenPools(0, 0)
	if err != nil {
		return err
	}
	var lastErr error
	for i := range pools.TokenPools {
		rewards, err := s.repo.GetProcessableRewards(pools.TokenPools[i].SpaceID, now)
		if err != nil {
			lastErr = err
			continue
		}
		for _, reward := range rewards {
			if _, err := s.ProcessReward(reward.ID, now); err != nil {
				log.Error().Err(err).
					Str("section", "service").
					Uint64("reward_id", reward.ID).
					Msg("Reward payout failed")
				lastErr = err
			}
		}
	}
	return lastErr
}

// ExpireRewards sweeps unprocessed rewards past their expiry
func (s *Service) ExpireRewards(now time.Time) error {
	rewards, err := s.repo.GetOverdueRewards(now)
	if err != nil {
		return err
	}
	for _, reward := range rewards {
		if err := reward.MarkAsExpired(now); err != nil {
			continue
		}
		if err := s.repo.UpdateReward(nil, reward); err != nil {
			return err
		}
		s.publishEvent("reward_expired", reward)
	}
	return nil
}

// GetReward godoc
func (s *Service) GetReward(id uint64) (*model.RewardDistribution, error) {
	return s.repo.GetReward(id)
}

// GetRewards godoc
func (s *Service) GetRewards(spaceID uint64, status model.RewardStatus, userID uint64, limit, page int) (*model.RewardDistributionList, error) {
	return s.repo.GetRewards(spaceID, status, userID, limit, page)
}
