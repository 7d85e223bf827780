package conv_test

import (
	"testing"

	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/conv"
)

func TestNewDecimalWithPrecision(t *testing.T) {
	Convey("Given a fresh ledger decimal", t, func() {
		Convey("It should start at zero and keep additions exact", func() {
			z := conv.NewDecimalWithPrecision()
			So(z.Sign(), ShouldEqual, 0)
			z.Add(z, decimal.New(105, 1))
			So(z.String(), ShouldEqual, "10.5")
		})
	})
}

func TestCloneToPrecision(t *testing.T) {
	Convey("Given an amount with excess precision", t, func() {
		amount, _ := new(decimal.Big).SetString("12.123456789123")
		Convey("Cloning should truncate to the ledger precision without touching the source", func() {
			clone := conv.CloneToPrecision(amount)
			So(clone.String(), ShouldEqual, "12.12345678")
			So(amount.String(), ShouldEqual, "12.123456789123")
		})
	})
}

func TestNewFromFloat(t *testing.T) {
	Convey("Given a config supplied float rate", t, func() {
		Convey("It should convert to a ledger decimal", func() {
			rate := conv.NewFromFloat(0.1)
			expected, _ := new(decimal.Big).SetString("0.1")
			So(rate.Cmp(expected), ShouldEqual, 0)
		})
	})
}
