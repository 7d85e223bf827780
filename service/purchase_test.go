package service

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

func TestPurchasePointsValidation(t *testing.T) {
	cfg := config.Config{}
	cfg.Economy.Purchase.YenPerPoint = 10
	cfg.Economy.Purchase.MinimumYen = 500
	srv, _ := setupService(cfg)
	now := time.Now()

	Convey("it should reject a missing yen amount", t, func() {
		_, err := srv.PurchasePoints(1, 1, nil, "pay-1", now)
		So(err, ShouldEqual, model.ErrInvalidAmount)
	})

	Convey("it should reject a non positive yen amount", t, func() {
		_, err := srv.PurchasePoints(1, 1, decimal.New(0, 0), "pay-2", now)
		So(err, ShouldEqual, model.ErrInvalidAmount)

		_, err = srv.PurchasePoints(1, 1, decimal.New(-100, 0), "pay-3", now)
		So(err, ShouldEqual, model.ErrInvalidAmount)
	})

	Convey("it should reject a payment below the configured minimum", t, func() {
		_, err := srv.PurchasePoints(1, 1, decimal.New(100, 0), "pay-4", now)
		So(err, ShouldEqual, model.ErrInvalidAmount)
	})
}
