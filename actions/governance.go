package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
	"gitlab.com/sfr-tokyo/economy_api/service"
)

// GetProposals godoc
func (actions *Actions) GetProposals(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.ProposalStatus(c.Query("status"))
	proposals, err := actions.service.GetProposals(spaceID, status, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list proposals")
		return
	}
	c.JSON(OK, proposals)
}

// GetProposal godoc
func (actions *Actions) GetProposal(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	proposal, err := actions.service.GetProposal(proposalID)
	if err != nil {
		abortWithError(c, NotFound, "The proposal could not be retrieved")
		return
	}
	c.JSON(OK, proposal)
}

// CreateProposal godoc
// swagger:route POST /spaces/:space_id/proposals governance create_proposal
// Create proposal
//
// Create a draft governance proposal
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: GovernanceProposal
//	  401: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) CreateProposal(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	proposerID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}
	title := c.PostForm("title")
	description := c.PostForm("description")
	category := model.ProposalCategory(c.PostForm("category"))
	proposalType := model.ProposalType(c.PostForm("proposal_type"))
	parameters := c.PostForm("parameters")

	proposal, err := actions.service.CreateProposal(spaceID, proposerID, title, description, category, proposalType, parameters)
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "proposal:create").Msg("Unable to create proposal")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(Created, proposal)
}

// SubmitProposal godoc
func (actions *Actions) SubmitProposal(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	proposal, err := actions.service.SubmitProposal(proposalID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, proposal)
}

// ReviewProposal godoc
func (actions *Actions) ReviewProposal(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	reviewerID, _ := getUserID(c)
	approve := c.PostForm("approve") == "true"
	notes := c.PostForm("notes")
	proposal, err := actions.service.ReviewProposal(proposalID, reviewerID, approve, notes, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, proposal)
}

// StartProposalVoting godoc
func (actions *Actions) StartProposalVoting(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	proposal, err := actions.service.StartProposalVoting(proposalID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, proposal)
}

// CastVote godoc
// swagger:route POST /spaces/:space_id/proposals/:proposal_id/votes governance cast_vote
// Cast vote
//
// Cast a power weighted vote on an active proposal
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: GovernanceVote
//	  401: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) CastVote(c *gin.Context) {
	log := getlog(c)
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	voterID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}

	input := service.VoteInput{
		Choice:  model.VoteChoice(c.PostForm("choice")),
		Method:  model.VotingMethod_Direct,
		Comment: c.PostForm("comment"),
	}
	if method := c.PostForm("voting_method"); method != "" {
		input.Method = model.VotingMethod(method)
	}
	if delegated, ok := getPostFormAsDecimal(c, "delegated_power"); ok {
		input.Delegated = delegated
	}
	if multiplier, ok := getPostFormAsDecimal(c, "delegation_multiplier"); ok {
		input.Multiplier = multiplier
	}
	if bonus, ok := getPostFormAsDecimal(c, "activity_bonus"); ok {
		input.ActivityBonus = bonus
	}
	if reputation, ok := getPostFormAsDecimal(c, "reputation_score"); ok {
		input.Reputation = reputation
	}
	if confidence, err := strconv.Atoi(c.PostForm("confidence_level")); err == nil {
		input.ConfidenceLevel = &confidence
	}

	vote, err := actions.service.CastVote(proposalID, voterID, input, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "proposal:vote").Msg("Unable to cast vote")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, vote)
}

// ChangeVote godoc
func (actions *Actions) ChangeVote(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	voterID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}
	choice := model.VoteChoice(c.PostForm("choice"))
	reason := c.PostForm("reason")
	vote, err := actions.service.ChangeVote(proposalID, voterID, choice, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, vote)
}

// GetVotes godoc
func (actions *Actions) GetVotes(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	page, limit := getPagination(c)
	votes, err := actions.service.GetVotes(proposalID, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list votes")
		return
	}
	c.JSON(OK, votes)
}

// ExecuteProposal godoc
func (actions *Actions) ExecuteProposal(c *gin.Context) {
	log := getlog(c)
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	executorID, _ := getUserID(c)
	proposal, err := actions.service.ExecuteProposal(proposalID, executorID, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "proposal:execute").Msg("Unable to execute proposal")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, proposal)
}

// CancelProposal godoc
func (actions *Actions) CancelProposal(c *gin.Context) {
	proposalID, ok := getParamAsUint64(c, "proposal_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid proposal id")
		return
	}
	cancellerID, _ := getUserID(c)
	reason := c.PostForm("reason")
	proposal, err := actions.service.CancelProposal(proposalID, cancellerID, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, proposal)
}
