package actions

import (
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// GetBurnDecisions godoc
func (actions *Actions) GetBurnDecisions(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.BurnStatus(c.Query("status"))
	decisions, err := actions.service.GetBurnDecisions(spaceID, status, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list burn decisions")
		return
	}
	c.JSON(OK, decisions)
}

// GetBurnDecision godoc
func (actions *Actions) GetBurnDecision(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	decision, err := actions.service.GetBurnDecision(decisionID)
	if err != nil {
		abortWithError(c, NotFound, "The burn decision could not be retrieved")
		return
	}
	c.JSON(OK, decision)
}

// ProposeBurn godoc
// swagger:route POST /spaces/:space_id/burns burn propose_burn
// Propose burn
//
// Open a burn decision against the circulating supply
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: BurnDecision
//	  422: RequestErrorResp
func (actions *Actions) ProposeBurn(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	amount, ok := getPostFormAsDecimal(c, "amount")
	if !ok {
		abortWithError(c, BadRequest, "Invalid amount")
		return
	}
	decisionType := model.BurnDecisionType(c.PostForm("decision_type"))
	trigger := model.BurnTriggerReason(c.PostForm("trigger_reason"))
	rationale := c.PostForm("rationale")

	var proposerID *uint64
	if userID, ok := getUserID(c); ok {
		proposerID = &userID
	}

	decision, err := actions.service.ProposeBurn(spaceID, amount, decisionType, trigger, rationale, proposerID, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "burn:propose").Msg("Unable to propose burn")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(Created, decision)
}

// VoteOnBurn godoc
func (actions *Actions) VoteOnBurn(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	vote := model.BurnVote(c.PostForm("vote"))
	decision, err := actions.service.VoteOnBurn(decisionID, vote, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// ApproveBurn godoc
func (actions *Actions) ApproveBurn(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	approverID, _ := getUserID(c)
	decision, err := actions.service.ApproveBurn(decisionID, approverID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// ScheduleBurn godoc
func (actions *Actions) ScheduleBurn(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	executionDate, err := time.Parse(time.RFC3339, c.PostForm("execution_date"))
	if err != nil {
		abortWithError(c, BadRequest, "Invalid execution date")
		return
	}
	decision, err := actions.service.ScheduleBurn(decisionID, executionDate, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// ExecuteBurn godoc
// swagger:route POST /spaces/:space_id/burns/:decision_id/execute burn execute_burn
// Execute burn
//
// Remove the approved amount from circulating supply
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: BurnDecision
//	  422: RequestErrorResp
func (actions *Actions) ExecuteBurn(c *gin.Context) {
	log := getlog(c)
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	executorID, _ := getUserID(c)
	decision, err := actions.service.ExecuteBurn(decisionID, executorID, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "burn:execute").Msg("Unable to execute burn")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// CancelBurn godoc
func (actions *Actions) CancelBurn(c *gin.Context) {
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	reason := c.PostForm("reason")
	decision, err := actions.service.CancelBurn(decisionID, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}

// RollbackBurn godoc
func (actions *Actions) RollbackBurn(c *gin.Context) {
	log := getlog(c)
	decisionID, ok := getParamAsUint64(c, "decision_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid decision id")
		return
	}
	executorID, _ := getUserID(c)
	reason := c.PostForm("reason")
	decision, err := actions.service.RollbackBurn(decisionID, executorID, reason, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "burn:rollback").Msg("Unable to roll back burn")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, decision)
}
