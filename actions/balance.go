package actions

import (
	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// GetUserBalance godoc
// swagger:route GET /spaces/:space_id/balances/:user_id balance get_user_balance
// Get balance
//
// Get the ledger row for one user in a space
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: UserBalance
//	  404: RequestErrorResp
func (actions *Actions) GetUserBalance(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getParamAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	balance, err := actions.service.GetUserBalance(userID, spaceID)
	if err != nil {
		abortWithError(c, NotFound, "The balance could not be retrieved")
		return
	}
	c.JSON(OK, balance)
}

// GetUserBalances godoc
func (actions *Actions) GetUserBalances(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	balances, err := actions.service.GetUserBalances(spaceID, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list balances")
		return
	}
	c.JSON(OK, balances)
}

// GetBalanceHistory godoc
// swagger:route GET /spaces/:space_id/balances/:user_id/history balance get_balance_history
// Balance history
//
// List the append only history for one account, newest first
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: BalanceHistoryList
//	  400: RequestErrorResp
func (actions *Actions) GetBalanceHistory(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getParamAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	page, limit := getPagination(c)
	kind := model.HistoryKind(c.Query("kind"))
	from := getQueryAsTime(c, "from")
	to := getQueryAsTime(c, "to")
	history, err := actions.service.GetBalanceHistory(userID, spaceID, kind, from, to, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to load the balance history")
		return
	}
	c.JSON(OK, history)
}

// Transfer godoc
// swagger:route POST /spaces/:space_id/transfers balance transfer
// Transfer
//
// Move tokens between two accounts
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenTransaction
//	  422: RequestErrorResp
func (actions *Actions) Transfer(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	fromUserID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}
	toUserID, ok := getPostFormAsUint64(c, "to_user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid receiver")
		return
	}
	amount, ok := getPostFormAsDecimal(c, "amount")
	if !ok {
		abortWithError(c, BadRequest, "Invalid amount")
		return
	}
	fee, _ := getPostFormAsDecimal(c, "fee")
	description := c.PostForm("description")
	idempotencyKey := c.GetHeader("X-Idempotency-Key")

	transaction, err := actions.service.Transfer(spaceID, fromUserID, toUserID, amount, fee, description, idempotencyKey, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "balance:transfer").Msg("Unable to transfer")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}

// AdjustBalance godoc
// swagger:route POST /spaces/:space_id/balances/:user_id/adjust balance adjust_balance
// Adjust balance
//
// Apply an administrative credit or debit with a full transaction record
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenTransaction
//	  422: RequestErrorResp
func (actions *Actions) AdjustBalance(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getParamAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	amount, ok := getPostFormAsDecimal(c, "amount")
	if !ok {
		abortWithError(c, BadRequest, "Invalid amount")
		return
	}
	reason := c.PostForm("reason")
	referenceID := c.PostForm("reference_id")

	var err error
	var transaction *model.TokenTransaction
	switch c.PostForm("direction") {
	case "credit":
		transaction, err = actions.service.CreditUser(spaceID, userID, amount, model.TxKind_SystemAdjustment, model.TxReference_External, referenceID, reason, requestTime())
	case "debit":
		transaction, err = actions.service.DebitUser(spaceID, userID, amount, model.TxKind_SystemAdjustment, model.TxReference_External, referenceID, reason, requestTime())
	default:
		abortWithError(c, BadRequest, "Invalid direction")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "balance:adjust").Msg("Unable to adjust balance")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}

// FreezeAccount godoc
func (actions *Actions) FreezeAccount(c *gin.Context) {
	actions.setAccountFrozen(c, true)
}

// UnfreezeAccount godoc
func (actions *Actions) UnfreezeAccount(c *gin.Context) {
	actions.setAccountFrozen(c, false)
}

func (actions *Actions) setAccountFrozen(c *gin.Context, frozen bool) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getParamAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	balance, err := actions.service.SetAccountFrozen(userID, spaceID, frozen, requestTime())
	if err != nil {
		abortWithError(c, NotFound, "The account could not be updated")
		return
	}
	c.JSON(OK, balance)
}

// SetCollectionExempt godoc
func (actions *Actions) SetCollectionExempt(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getParamAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	exempt := c.PostForm("exempt") == "true"
	balance, err := actions.service.SetCollectionExempt(userID, spaceID, exempt, requestTime())
	if err != nil {
		abortWithError(c, NotFound, "The account could not be updated")
		return
	}
	c.JSON(OK, balance)
}
