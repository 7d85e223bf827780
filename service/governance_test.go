package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

func TestCastVoteFrozenAccount(t *testing.T) {
	srv, mock := setupServiceRegexp(config.Config{})
	now := time.Now()

	Convey("a frozen account cannot cast a vote", t, func() {
		proposalRows := sqlmock.NewRows([]string{"id", "space_id", "status"}).
			AddRow(3, 1, "voting_active")
		balanceRows := sqlmock.NewRows([]string{"id", "user_id", "space_id", "current_balance", "total_earned", "total_spent", "total_collected", "frozen"}).
			AddRow(8, 7, 1, decimalColumn(500), decimalColumn(500), decimalColumn(0), decimalColumn(0), true)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "governance_proposals"`).WillReturnRows(proposalRows)
		mock.ExpectQuery(`SELECT \* FROM "governance_votes"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT \* FROM "user_balances"`).WillReturnRows(balanceRows)
		mock.ExpectRollback()

		input := VoteInput{Choice: model.VoteChoice_For, Method: model.VotingMethod_Direct}
		_, err := srv.CastVote(3, 7, input, now)
		So(err, ShouldEqual, model.ErrAccountFrozen)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}
