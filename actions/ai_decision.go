package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/service"
)

// GetAiDecisions godoc
func (actions *Actions) GetAiDecisions(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.AiDecisionStatus(c.Query("status"))
	decisions, err := actions.service.GetAiDecisions(spaceID, status, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list ai decisions")
		return
	}
	c.JSON(OK, decisions)
}

// GetAiDecision godoc
func (actions *Actions) GetAiDecision(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	decision, err := actions.service.GetAiDecision(decisionID)
	if err != nil {
		abortWithError(c, NotFound, "The ai decision could not be retrieved")
		return
	}
	c.JSON(OK, decision)
}

// GetPendingReviewDecisions godoc
func (actions *Actions) GetPendingReviewDecisions(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	decisions, err := actions.service.GetPendingReviewDecisions(spaceID)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list pending reviews")
		return
	}
	c.JSON(OK, decisions)
}

// LogAiDecision godoc
// swagger:route POST /spaces/:space_id/ai-decisions ai log_ai_decision
// Log decision
//
// Record an automated decision and apply the oversight gate
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: AiDecision
//	  422: RequestErrorResp
func (actions *Actions) LogAiDecision(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	confidence, ok := getPostFormAsDecimal(c, "confidence_score")
	if !ok {
		abortWithError(c, BadRequest, "Invalid confidence score")
		return
	}
	risk, ok := getPostFormAsDecimal(c, "risk_score")
	if !ok {
		abortWithError(c, BadRequest, "Invalid risk score")
		return
	}
	impact, ok := getPostFormAsDecimal(c, "impact_score")
	if !ok {
		abortWithError(c, BadRequest, "Invalid impact score")
		return
	}

	input := service.AiDecisionInput{
		DecisionType:      model.AiDecisionType(c.PostForm("decision_type")),
		ModelVersion:      c.PostForm("model_version"),
		AlgorithmName:     c.PostForm("algorithm_name"),
		RecommendedAction: c.PostForm("recommended_action"),
		DecisionRationale: c.PostForm("decision_rationale"),
		InputParameters:   c.PostForm("input_parameters"),
		DecisionFactors:   c.PostForm("decision_factors"),
		ExpectedOutcomes:  c.PostForm("expected_outcomes"),
		Confidence:        confidence,
		Risk:              risk,
		Impact:            impact,
	}
	if ms, err := strconv.ParseInt(c.PostForm("computation_time_ms"), 10, 64); err == nil {
		input.ComputationTimeMs = ms
	}

	decision, err := actions.service.LogAiDecision(spaceID, input, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "ai:log").Msg("Unable to log ai decision")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(Created, decision)
}

// StartAiReview godoc
func (actions *Actions) StartAiReview(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	reviewerID, _ := getUserID(c)
	decision, err := actions.service.StartAiReview(decisionID, reviewerID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// CompleteAiReview godoc
func (actions *Actions) CompleteAiReview(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	reviewerID, _ := getUserID(c)
	result := model.AiReviewResult(c.PostForm("result"))
	notes := c.PostForm("notes")
	decision, err := actions.service.CompleteAiReview(decisionID, reviewerID, result, notes, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// ExecuteAiDecision godoc
func (actions *Actions) ExecuteAiDecision(c *gin.Context) {
	log := getlog(c)
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	executorID, _ := getUserID(c)
	amount, _ := getPostFormAsDecimal(c, "amount")
	result := c.PostForm("result")
	decision, err := actions.service.ExecuteAiDecision(decisionID, executorID, amount, result, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "ai:execute").Msg("Unable to execute ai decision")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// CancelAiDecision godoc
func (actions *Actions) CancelAiDecision(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	decision, err := actions.service.CancelAiDecision(decisionID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// RecordAiFeedback godoc
func (actions *Actions) RecordAiFeedback(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	score, _ := getPostFormAsDecimal(c, "feedback_score")
	outcomes := c.PostForm("actual_outcomes")
	variance := c.PostForm("outcome_variance")
	decision, err := actions.service.RecordAiFeedback(decisionID, score, outcomes, variance, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}
