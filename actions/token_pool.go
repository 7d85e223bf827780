package actions

import (
	"github.com/gin-gonic/gin"
)

// GetTokenPool godoc
// swagger:route GET /spaces/:space_id/pool pool get_token_pool
// Get pool
//
// Get the token pool for a space
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenPool
//	  404: RequestErrorResp
func (actions *Actions) GetTokenPool(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	pool, err := actions.service.GetTokenPool(spaceID)
	if err != nil {
		abortWithError(c, NotFound, "The token pool could not be retrieved")
		return
	}
	c.JSON(OK, pool)
}

// GetTokenPools godoc
func (actions *Actions) GetTokenPools(c *gin.Context) {
	page, limit := getPagination(c)
	pools, err := actions.service.GetTokenPools(limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list token pools")
		return
	}
	c.JSON(OK, pools)
}

// CreateTokenPool godoc
// swagger:route POST /spaces/:space_id/pool pool create_token_pool
// Create pool
//
// Create the token pool for a space
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: TokenPool
//	  400: RequestErrorResp
func (actions *Actions) CreateTokenPool(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	adminID, _ := getUserID(c)
	threshold, _ := getPostFormAsDecimal(c, "collection_threshold")
	rate, _ := getPostFormAsDecimal(c, "collection_rate")
	maxSupply, _ := getPostFormAsDecimal(c, "max_supply")

	pool, err := actions.service.CreateTokenPool(spaceID, adminID, threshold, rate, maxSupply)
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "pool:create").Msg("Unable to create token pool")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(Created, pool)
}

// IssueTokens godoc
// swagger:route POST /spaces/:space_id/pool/issue pool issue_tokens
// Issue tokens
//
// Mint new supply into the pool
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenTransaction
//	  400: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) IssueTokens(c *gin.Context) {
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
	issuerID, _ := getUserID(c)
	description := c.PostForm("description")

	transaction, err := actions.service.IssueTokens(spaceID, amount, issuerID, description, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "pool:issue").Msg("Unable to issue tokens")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}

// CheckPoolHealth godoc
func (actions *Actions) CheckPoolHealth(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	if err := actions.service.CheckPoolHealth(spaceID); err != nil {
		abortWithError(c, ServerError, err.Error())
		return
	}
	c.JSON(OK, "healthy")
}
