package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func TestTokenPool(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a fresh token pool", t, func() {
		pool := NewTokenPool(1, 42, decimal.New(1000, 0), decimal.New(5, 2), nil)

		Convey("It should start empty, active and healthy", func() {
			So(pool.Status, ShouldEqual, PoolStatus_Active)
			So(pool.TotalSupply.V.Sign(), ShouldEqual, 0)
			So(pool.IsHealthy(), ShouldBeTrue)
		})

		Convey("When issuing 100000 tokens", func() {
			err := pool.Issue(decimal.New(100000, 0), now)
			So(err, ShouldBeNil)

			Convey("Supply figures should grow together", func() {
				So(utils.Fmt(pool.TotalSupply.V), ShouldEqual, "100000")
				So(utils.Fmt(pool.IssuedAmount.V), ShouldEqual, "100000")
				So(utils.Fmt(pool.CirculatingSupply.V), ShouldEqual, "100000")
				So(pool.IsHealthy(), ShouldBeTrue)
			})

			Convey("The issuance should split 40/20/20/20 across sub pools", func() {
				So(utils.Fmt(pool.RewardPool.V), ShouldEqual, "40000")
				So(utils.Fmt(pool.GovernancePool.V), ShouldEqual, "20000")
				So(utils.Fmt(pool.EcosystemPool.V), ShouldEqual, "20000")
				So(utils.Fmt(pool.ReservePool.V), ShouldEqual, "20000")
			})

			Convey("Burning 6000 should reduce circulating to 94000", func() {
				err := pool.Burn(decimal.New(6000, 0), now)
				So(err, ShouldBeNil)
				So(utils.Fmt(pool.CirculatingSupply.V), ShouldEqual, "94000")
				So(utils.Fmt(pool.BurnedAmount.V), ShouldEqual, "6000")
				So(utils.Fmt(pool.TotalSupply.V), ShouldEqual, "100000")
				So(pool.IsHealthy(), ShouldBeTrue)
			})

			Convey("Burning more than circulating should fail", func() {
				err := pool.Burn(decimal.New(100001, 0), now)
				So(err, ShouldEqual, ErrExceedsCirculating)
			})

			Convey("Reissuing a rolled back burn should keep conservation", func() {
				So(pool.Burn(decimal.New(6000, 0), now), ShouldBeNil)
				So(pool.ReissueBurned(decimal.New(6000, 0), now), ShouldBeNil)
				So(utils.Fmt(pool.CirculatingSupply.V), ShouldEqual, "100000")
				So(utils.Fmt(pool.BurnedAmount.V), ShouldEqual, "6000")
				So(utils.Fmt(pool.IssuedAmount.V), ShouldEqual, "106000")
				So(pool.IsHealthy(), ShouldBeTrue)
			})

			Convey("Distributing a reward should draw from the reward sub pool only", func() {
				err := pool.DistributeReward(decimal.New(500, 0), now)
				So(err, ShouldBeNil)
				So(utils.Fmt(pool.RewardPool.V), ShouldEqual, "39500")
				So(utils.Fmt(pool.CirculatingSupply.V), ShouldEqual, "100000")
			})

			Convey("Distributing more than the reward pool holds should fail", func() {
				err := pool.DistributeReward(decimal.New(40001, 0), now)
				So(err, ShouldEqual, ErrRewardPoolDepleted)
			})

			Convey("Collected tokens should land in the ecosystem sub pool", func() {
				err := pool.CreditCollectionPool(decimal.New(100, 0), now)
				So(err, ShouldBeNil)
				So(utils.Fmt(pool.EcosystemPool.V), ShouldEqual, "20100")
			})

			Convey("An appeal refund should take the collected tokens back out", func() {
				So(pool.CreditCollectionPool(decimal.New(100, 0), now), ShouldBeNil)
				So(pool.DebitCollectionPool(decimal.New(100, 0), now), ShouldBeNil)
				So(utils.Fmt(pool.EcosystemPool.V), ShouldEqual, "20000")
			})

			Convey("Refunding more than the ecosystem sub pool holds should fail", func() {
				err := pool.DebitCollectionPool(decimal.New(20001, 0), now)
				So(err, ShouldEqual, ErrInsufficientBalance)
			})
		})

		Convey("Issuing zero or negative amounts should fail", func() {
			So(pool.Issue(decimal.New(0, 0), now), ShouldEqual, ErrInvalidAmount)
			So(pool.Issue(decimal.New(-5, 0), now), ShouldEqual, ErrInvalidAmount)
			So(pool.Issue(nil, now), ShouldEqual, ErrInvalidAmount)
		})

		Convey("A paused pool should refuse every mutation", func() {
			pool.Status = PoolStatus_Paused
			So(pool.Issue(decimal.New(10, 0), now), ShouldEqual, ErrPoolNotActive)
			So(pool.Burn(decimal.New(10, 0), now), ShouldEqual, ErrPoolNotActive)
			So(pool.DistributeReward(decimal.New(10, 0), now), ShouldEqual, ErrPoolNotActive)
		})

		Convey("The default issuable ceiling should apply without a max supply", func() {
			So(utils.Fmt(pool.IssuableAmount()), ShouldEqual, "1000000")
		})
	})

	Convey("Given a pool with a max supply of 5000", t, func() {
		pool := NewTokenPool(1, 42, decimal.New(1000, 0), decimal.New(5, 2), decimal.New(5000, 0))

		Convey("Issuing past the ceiling should fail and leave the pool untouched", func() {
			So(pool.Issue(decimal.New(4000, 0), now), ShouldBeNil)
			err := pool.Issue(decimal.New(1001, 0), now)
			So(err, ShouldEqual, ErrExceedsMaxSupply)
			So(utils.Fmt(pool.TotalSupply.V), ShouldEqual, "4000")
			So(utils.Fmt(pool.IssuableAmount()), ShouldEqual, "1000")
		})
	})

	Convey("Given a pool with a threshold of 1000", t, func() {
		pool := NewTokenPool(1, 42, decimal.New(1000, 0), decimal.New(5, 2), nil)

		Convey("A balance over the threshold should be a collection target", func() {
			So(pool.IsCollectionTarget(decimal.New(1001, 0)), ShouldBeTrue)
		})

		Convey("A balance exactly at the threshold should not", func() {
			So(pool.IsCollectionTarget(decimal.New(1000, 0)), ShouldBeFalse)
		})
	})
}

func TestPoolStatus(t *testing.T) {
	Convey("Pool status validation", t, func() {
		So(PoolStatus_Active.IsValid(), ShouldBeTrue)
		So(PoolStatus_Deprecated.IsValid(), ShouldBeTrue)
		So(PoolStatus("bogus").IsValid(), ShouldBeFalse)
	})
}
