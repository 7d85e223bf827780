package crons

import (
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/config"
)

// Tasks are the periodic sweeps exposed by the economy service. Every sweep
// receives the tick time so state machine deadlines are checked against a
// single clock reading.
type Tasks interface {
	ScanAllCollectionTargets(now time.Time) error
	ProcessGracePeriods(now time.Time) error
	ProcessApprovedCollections(now time.Time) error
	FinalizeProposals(now time.Time) error
	ExpireOverdueProposals(now time.Time) error
	FinalizeBurnVotes(now time.Time) error
	ProcessScheduledBurns(now time.Time) error
	ProcessAllRewards(now time.Time) error
	ExpireRewards(now time.Time) error
	CheckAllPoolHealth() error
}

var cronService *cron.Cron

// Start the cron service with the jobs enabled in the configuration
func Start(crons config.Crons, tasks Tasks) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, tasks)
		if callback == nil {
			log.Warn().Str("section", "crons").Str("cron_id", id).Msg("Unknown cron id, skipping")
			continue
		}
		if err := cronService.AddFunc(schedule, callback); err != nil {
			log.Error().Err(err).Str("section", "crons").Str("cron_id", id).Msg("Unable to schedule cron")
		}
	}
	cronService.Start()
}

// Close stops the cron service
func Close() {
	if cronService != nil {
		cronService.Stop()
	}
}

// GetCronByID godoc
func GetCronByID(id string, tasks Tasks) func() {
	switch id {
	case "collection_scan":
		return runJob(id, tasks.ScanAllCollectionTargets)
	case "grace_period_sweep":
		return runJob(id, tasks.ProcessGracePeriods)
	case "collection_execution":
		return runJob(id, tasks.ProcessApprovedCollections)
	case "proposal_finalize_sweep":
		return runJob(id, tasks.FinalizeProposals)
	case "proposal_expiry_sweep":
		return runJob(id, tasks.ExpireOverdueProposals)
	case "burn_vote_sweep":
		return runJob(id, tasks.FinalizeBurnVotes)
	case "scheduled_burn_sweep":
		return runJob(id, tasks.ProcessScheduledBurns)
	case "reward_processing":
		return runJob(id, tasks.ProcessAllRewards)
	case "reward_expiry_sweep":
		return runJob(id, tasks.ExpireRewards)
	case "pool_health_check":
		return runJob(id, func(time.Time) error {
			return tasks.CheckAllPoolHealth()
		})
	default:
		return nil
	}
}

func runJob(id string, job func(now time.Time) error) func() {
	return func() {
		if err := job(time.Now()); err != nil {
			log.Error().Err(err).Str("section", "crons").Str("cron_id", id).Msg("Cron run failed")
		}
	}
}
