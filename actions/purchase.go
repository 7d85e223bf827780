package actions

import (
	"github.com/gin-gonic/gin"
)

// PurchasePoints godoc
// swagger:route POST /spaces/:space_id/purchases purchase purchase_points
// Purchase points
//
// Convert a yen payment into points at the configured rate. The payment
// reference doubles as the idempotency key, so a replayed provider webhook
// returns the original transaction.
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: TokenTransaction
//	  401: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) PurchasePoints(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}
	yenAmount, ok := getPostFormAsDecimal(c, "yen_amount")
	if !ok {
		abortWithError(c, BadRequest, "Invalid yen amount")
		return
	}
	paymentReference := c.PostForm("payment_reference")
	if paymentReference == "" {
		abortWithError(c, BadRequest, "Missing payment reference")
		return
	}

	transaction, err := actions.service.PurchasePoints(spaceID, userID, yenAmount, paymentReference, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "purchase").Msg("Unable to purchase points")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, transaction)
}
