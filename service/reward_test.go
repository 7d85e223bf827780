package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

func TestGrantRewardApprovalGate(t *testing.T) {
	srv, mock := setupServiceRegexp(config.Config{})
	now := time.Now()

	expectInsert := func() {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "reward_distributions"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()
	}

	Convey("an automatic reward is approved at creation", t, func() {
		expectInsert()

		reward, err := srv.GrantReward(1, 7, decimal.New(50, 0), model.RewardCategory_LearningProgress, model.RewardTrigger_Automatic, "progress-1", "course milestone", nil, now)
		So(err, ShouldBeNil)
		So(reward.Status, ShouldEqual, model.RewardStatus_Approved)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})

	Convey("an ai triggered reward stays pending until a human approves", t, func() {
		expectInsert()

		reward, err := srv.GrantReward(1, 7, decimal.New(50, 0), model.RewardCategory_ContentCreation, model.RewardTrigger_AiDecision, "post-1", "quality content", nil, now)
		So(err, ShouldBeNil)
		So(reward.Status, ShouldEqual, model.RewardStatus_Pending)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})

	Convey("a manual reward stays pending as well", t, func() {
		expectInsert()

		reward, err := srv.GrantReward(1, 7, decimal.New(50, 0), model.RewardCategory_Bonus, model.RewardTrigger_Manual, "", "spot bonus", nil, now)
		So(err, ShouldBeNil)
		So(reward.Status, ShouldEqual, model.RewardStatus_Pending)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}
