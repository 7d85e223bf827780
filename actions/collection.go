package actions

import (
	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// GetCollections godoc
// swagger:route GET /spaces/:space_id/collections collection get_collections
// List collections
//
// List collection records for a space, optionally filtered by status
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: CollectionHistoryList
//	  400: RequestErrorResp
func (actions *Actions) GetCollections(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.CollectionStatus(c.Query("status"))
	collections, err := actions.service.GetCollections(spaceID, status, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list collections")
		return
	}
	c.JSON(OK, collections)
}

// GetCollection godoc
func (actions *Actions) GetCollection(c *gin.Context) {
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	record, err := actions.service.GetCollection(recordID)
	if err != nil {
		abortWithError(c, NotFound, "The collection record could not be retrieved")
		return
	}
	c.JSON(OK, record)
}

// ScanCollectionTargets godoc
// swagger:route POST /spaces/:space_id/collections/scan collection scan_collection_targets
// Scan targets
//
// Detect accounts over the threshold and open collection records
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: CollectionHistoryList
//	  422: RequestErrorResp
func (actions *Actions) ScanCollectionTargets(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	opened, err := actions.service.ScanCollectionTargets(spaceID, model.CollectionTrigger_Manual, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "collection:scan").Msg("Unable to scan collection targets")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, opened)
}

// ApproveCollection godoc
func (actions *Actions) ApproveCollection(c *gin.Context) {
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	adminID, _ := getUserID(c)
	record, err := actions.service.ApproveCollection(recordID, adminID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, record)
}

// ExecuteCollection godoc
func (actions *Actions) ExecuteCollection(c *gin.Context) {
	log := getlog(c)
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	adminID, _ := getUserID(c)
	record, err := actions.service.ExecuteCollection(recordID, adminID, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "collection:execute").Msg("Unable to execute collection")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, record)
}

// CancelCollection godoc
func (actions *Actions) CancelCollection(c *gin.Context) {
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	adminID, _ := getUserID(c)
	reason := c.PostForm("reason")
	record, err := actions.service.CancelCollection(recordID, adminID, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, record)
}

// SubmitCollectionAppeal godoc
// swagger:route POST /spaces/:space_id/collections/:collection_id/appeal collection submit_appeal
// Appeal
//
// Appeal a collection within the appeal window
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: CollectionHistory
//	  401: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) SubmitCollectionAppeal(c *gin.Context) {
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		abortWithError(c, Unauthorized, "Authentication required")
		return
	}
	reason := c.PostForm("reason")
	record, err := actions.service.SubmitCollectionAppeal(recordID, userID, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, record)
}

// ResolveCollectionAppeal godoc
func (actions *Actions) ResolveCollectionAppeal(c *gin.Context) {
	log := getlog(c)
	recordID, ok := getParamAsUint64(c, "collection_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid collection id")
		return
	}
	adminID, _ := getUserID(c)
	approve := c.PostForm("approve") == "true"
	result := c.PostForm("result")
	record, err := actions.service.ResolveCollectionAppeal(recordID, adminID, approve, result, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "collection:appeal-resolve").Msg("Unable to resolve appeal")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, record)
}
