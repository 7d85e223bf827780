package model

import (
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/sfr-tokyo/economy_api/utils"
)

func decimalColumn(value int64) *postgres.Decimal {
	return &postgres.Decimal{V: decimal.New(value, 0)}
}

func TestAiDecisionReviewGate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newDecision := func(confidence, risk, impact int64) *AiDecision {
		decision, err := NewAiDecision(1, AiDecisionType_TokenBurn, "v1.0", "supply-balancer",
			"burn 2 percent", decimal.New(confidence, 0), decimal.New(risk, 0), decimal.New(impact, 0), now)
		So(err, ShouldBeNil)
		return decision
	}

	Convey("The oversight gate", t, func() {
		Convey("High confidence, low risk and low impact skip review", func() {
			decision := newDecision(90, 30, 40)
			So(decision.HumanReviewRequired, ShouldBeFalse)
			So(decision.AutoApprove(now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_Approved)
		})

		Convey("Confidence below 80 forces review", func() {
			decision := newDecision(79, 30, 40)
			So(decision.HumanReviewRequired, ShouldBeTrue)
			So(decision.AutoApprove(now), ShouldEqual, ErrNotExecutable)
		})

		Convey("Risk above 70 forces review", func() {
			So(newDecision(90, 71, 40).HumanReviewRequired, ShouldBeTrue)
		})

		Convey("Impact above 80 forces review", func() {
			So(newDecision(90, 30, 81).HumanReviewRequired, ShouldBeTrue)
		})

		Convey("The boundary values themselves pass", func() {
			So(newDecision(80, 70, 80).HumanReviewRequired, ShouldBeFalse)
		})

		Convey("Scores outside 0 to 100 are rejected at creation", func() {
			_, err := NewAiDecision(1, AiDecisionType_Prediction, "v1.0", "x", "y",
				decimal.New(101, 0), decimal.New(30, 0), decimal.New(40, 0), now)
			So(err, ShouldEqual, ErrInvalidRate)
			_, err = NewAiDecision(1, AiDecisionType_Prediction, "v1.0", "x", "y",
				decimal.New(90, 0), decimal.New(-1, 0), decimal.New(40, 0), now)
			So(err, ShouldEqual, ErrInvalidRate)
		})
	})

	Convey("The review flow", t, func() {
		decision := newDecision(60, 80, 90)
		So(decision.StartReview(9, now), ShouldBeNil)
		So(decision.Status, ShouldEqual, AiDecisionStatus_UnderReview)

		Convey("An approved review unlocks execution", func() {
			So(decision.CompleteReview(AiReviewResult_Approved, "checked against pool health", now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_Approved)
			So(decision.Execute(9, `{"burned":"2000"}`, now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_Executed)
		})

		Convey("A rejected review is terminal", func() {
			So(decision.CompleteReview(AiReviewResult_Rejected, "risk too high", now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_Rejected)
			So(decision.Execute(9, "", now), ShouldEqual, ErrIllegalTransition)
		})

		Convey("A modified result sends the decision back to proposed", func() {
			So(decision.CompleteReview(AiReviewResult_Modified, "reduce amount", now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_Proposed)
		})

		Convey("Needs more data keeps the decision under review", func() {
			So(decision.CompleteReview(AiReviewResult_NeedsMoreData, "", now), ShouldBeNil)
			So(decision.Status, ShouldEqual, AiDecisionStatus_UnderReview)
		})
	})

	Convey("Execution deadlines", t, func() {
		decision := newDecision(90, 30, 40)
		So(decision.AutoApprove(now), ShouldBeNil)
		deadline := now.Add(time.Hour)
		decision.ExecutionDeadline = &deadline

		Convey("Execution inside the deadline succeeds", func() {
			So(decision.Execute(9, "", now.Add(time.Minute)), ShouldBeNil)
		})

		Convey("Execution past the deadline is refused", func() {
			So(decision.Execute(9, "", now.Add(2*time.Hour)), ShouldEqual, ErrNotExecutable)
		})
	})

	Convey("Quality score blending", t, func() {
		decision := newDecision(90, 20, 40)

		Convey("Missing optional scores count as zero", func() {
			// 90*0.3 + 80*0.2 = 43
			So(utils.Fmt(decision.QualityScore()), ShouldEqual, "43")
		})

		Convey("All scores present blend with the full weights", func() {
			decision.ExplainabilityScore = decimalColumn(70)
			decision.ModelAccuracy = decimalColumn(85)
			decision.DataFreshnessScore = decimalColumn(90)
			// 27 + 16 + 14 + 17 + 9 = 83
			So(utils.Fmt(decision.QualityScore()), ShouldEqual, "83")
		})
	})

	Convey("Feedback recording", t, func() {
		decision := newDecision(90, 30, 40)
		decision.RecordFeedback(decimal.New(88, 0), `{"outcome":"ok"}`, "within 2 percent", now)
		So(utils.Fmt(decision.FeedbackScore.V), ShouldEqual, "88")
		So(decision.ActualOutcomes, ShouldEqual, `{"outcome":"ok"}`)
	})
}
