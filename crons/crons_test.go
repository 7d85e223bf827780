package crons

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type stubTasks struct {
	calls []string
}

func (s *stubTasks) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubTasks) ScanAllCollectionTargets(time.Time) error   { return s.record("collection_scan") }
func (s *stubTasks) ProcessGracePeriods(time.Time) error        { return s.record("grace_period_sweep") }
func (s *stubTasks) ProcessApprovedCollections(time.Time) error { return s.record("collection_execution") }
func (s *stubTasks) FinalizeProposals(time.Time) error          { return s.record("proposal_finalize_sweep") }
func (s *stubTasks) ExpireOverdueProposals(time.Time) error     { return s.record("proposal_expiry_sweep") }
func (s *stubTasks) FinalizeBurnVotes(time.Time) error          { return s.record("burn_vote_sweep") }
func (s *stubTasks) ProcessScheduledBurns(time.Time) error      { return s.record("scheduled_burn_sweep") }
func (s *stubTasks) ProcessAllRewards(time.Time) error          { return s.record("reward_processing") }
func (s *stubTasks) ExpireRewards(time.Time) error              { return s.record("reward_expiry_sweep") }
func (s *stubTasks) CheckAllPoolHealth() error                  { return s.record("pool_health_check") }

func TestGetCronByID(t *testing.T) {
	ids := []string{
		"collection_scan",
		"grace_period_sweep",
		"collection_execution",
		"proposal_finalize_sweep",
		"proposal_expiry_sweep",
		"burn_vote_sweep",
		"scheduled_burn_sweep",
		"reward_processing",
		"reward_expiry_sweep",
		"pool_health_check",
	}

	Convey("every configured id should resolve to its sweep", t, func() {
		tasks := &stubTasks{}
		for _, id := range ids {
			job := GetCronByID(id, tasks)
			So(job, ShouldNotBeNil)
			job()
		}
		So(tasks.calls, ShouldResemble, ids)
	})

	Convey("an unknown id should resolve to nothing", t, func() {
		So(GetCronByID("order_matching", &stubTasks{}), ShouldBeNil)
	})
}
