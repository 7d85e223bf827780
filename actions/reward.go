package actions

import (
	"github.com/gin-gonic/gin"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// GetRewards godoc
func (actions *Actions) GetRewards(c *gin.Context) {
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	page, limit := getPagination(c)
	status := model.RewardStatus(c.Query("status"))
	userID := getQueryAsUint64(c, "user_id", 0)
	rewards, err := actions.service.GetRewards(spaceID, status, userID, limit, page)
	if err != nil {
		abortWithError(c, ServerError, "Unable to list rewards")
		return
	}
	c.JSON(OK, rewards)
}

// GetReward godoc
func (actions *Actions) GetReward(c *gin.Context) {
	rewardID, ok := getParamAsUint64(c, "reward_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid reward id")
		return
	}
	reward, err := actions.service.GetReward(rewardID)
	if err != nil {
		abortWithError(c, NotFound, "The reward could not be retrieved")
		return
	}
	c.JSON(OK, reward)
}

// GrantReward godoc
// swagger:route POST /spaces/:space_id/rewards reward grant_reward
// Grant reward
//
// Open a reward grant for a user
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: RewardDistribution
//	  422: RequestErrorResp
func (actions *Actions) GrantReward(c *gin.Context) {
	log := getlog(c)
	spaceID, ok := getParamAsUint64(c, "space_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid space id")
		return
	}
	userID, ok := getPostFormAsUint64(c, "user_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	amount, ok := getPostFormAsDecimal(c, "amount")
	if !ok {
		abortWithError(c, BadRequest, "Invalid amount")
		return
	}
	category := model.RewardCategory(c.PostForm("category"))
	trigger := model.RewardTrigger(c.PostForm("trigger_type"))
	referenceID := c.PostForm("reference_id")
	reason := c.PostForm("reason")
	multiplier, _ := getPostFormAsDecimal(c, "multiplier")

	reward, err := actions.service.GrantReward(spaceID, userID, amount, category, trigger, referenceID, reason, multiplier, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "reward:grant").Msg("Unable to grant reward")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(Created, reward)
}

// ApproveReward godoc
func (actions *Actions) ApproveReward(c *gin.Context) {
	rewardID, ok := getParamAsUint64(c, "reward_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid reward id")
		return
	}
	approverID, _ := getUserID(c)
	reward, err := actions.service.ApproveReward(rewardID, approverID, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, reward)
}

// ProcessReward godoc
func (actions *Actions) ProcessReward(c *gin.Context) {
	log := getlog(c)
	rewardID, ok := getParamAsUint64(c, "reward_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid reward id")
		return
	}
	reward, err := actions.service.ProcessReward(rewardID, requestTime())
	if err != nil {
		log.Error().Err(err).Str("section", "actions").Str("action", "reward:process").Msg("Unable to process reward")
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, reward)
}

// CancelReward godoc
func (actions *Actions) CancelReward(c *gin.Context) {
	rewardID, ok := getParamAsUint64(c, "reward_id")
	if !ok {
		abortWithError(c, BadRequest, "Invalid reward id")
		return
	}
	cancellerID, _ := getUserID(c)
	reason := c.PostForm("reason")
	reward, err := actions.service.CancelReward(rewardID, cancellerID, reason, requestTime())
	if err != nil {
		abortWithError(c, ValidationFailed, err.Error())
		return
	}
	c.JSON(OK, reward)
}
