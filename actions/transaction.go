package actions

import (
	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// GetTransactions godoc
func (actions *Actions) GetTransactions(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.TxStatus(c.Query("status"))
	userID := getQueryAsUint64(c, "user_id", 0)
	from := getQueryAsTime(c, "from")
	to := getQueryAsTime(c, "to")
	transactions, err := actions.service.GetTransactions(spaceID, status, userID, from, to, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list transactions")
		return
	}
	c.JSON(OK, transactions)
}

// GetTransaction godoc
func (actions *Actions) GetTransaction(c *gin.Context) {
	id := c.Param("transaction_id")
	transaction, err := actions.service.GetTransaction(id)
	if err != nil {
		abortWithError(c, NotFound, "The transaction could not be retrieved")
		return
	}
	c.JSON(OK, transaction)
}

// RetryTransaction godoc
func (actions *Actions) RetryTransaction(c *gin.Context) {
	id := c.Param("transaction_id")
	transaction, err := actions.service.RetryTransaction(id, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}

// CancelTransaction godoc
func (actions *Actions) CancelTransaction(c *gin.Context) {
	id := c.Param("transaction_id")
	reason := c.PostForm("reason")
	transaction, err := actions.service.CancelTransaction(id, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}

// ReverseTransaction godoc
// swagger:route POST /spaces/:space_id/transactions/:transaction_id/reverse transaction reverse_transaction
// Reverse
//
// Undo a completed reversible transaction through a compensating one
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
func (actions *Actions) ReverseTransaction(c *gin.Context) {
	log := getlog(c)
	id := c.Param("transaction_id")
	reason := c.PostForm("reason")
	reversal, err := actions.service.ReverseTransaction(id, reason, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "transaction:reverse").Msg("Unable to reverse transaction")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, reversal)
}
