package actions

import (
	"strconv"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/httputils"
	"gitlab.com/sfr-tokyo/economy_api/logger"
)

// Ping godoc
// swagger:route GET /ping misc ping
// Ping
//
// Ping the server
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: StringResp
func Ping(c *gin.Context) {
	c.JSON(OK, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Stack().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, httputils.RequestError{Error: message})
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

func getUserID(c *gin.Context) (uint64, bool) {
	iUserID, ok := c.Get("auth_user_id")
	if !ok {
		return 0, false
	}
	return iUserID.(uint64), true
}

func getQueryAsInt(c *gin.Context, name string, def int) int {
	val := c.Query(name)
	if val == "" {
		return def
	}
	param, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return param
}

func getPagination(c *gin.Context) (int, int) {
	page := getQueryAsInt(c, "page", 1)
	limit := getQueryAsInt(c, "limit", 10)
	return page, limit
}

func getParamAsUint64(c *gin.Context, name string) (uint64, bool) {
	val, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func getQueryAsUint64(c *gin.Context, name string, def uint64) uint64 {
	val := c.Query(name)
	if val == "" {
		return def
	}
	param, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return def
	}
	return param
}

func getPostFormAsDecimal(c *gin.Context, name string) (*decimal.Big, bool) {
	val := c.PostForm(name)
	if val == "" {
		return nil, false
	}
	amount, ok := conv.NewDecimalWithPrecision().SetString(val)
	if !ok {
		return nil, false
	}
	return amount, true
}

func getPostFormAsUint64(c *gin.Context, name string) (uint64, bool) {
	val, err := strconv.ParseUint(c.PostForm(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func getQueryAsTime(c *gin.Context, name string) *time.Time {
	val := c.Query(name)
	if val == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &parsed
}

// requestTime is the single clock reading every handler passes down so all
// deadline checks in one request agree
func requestTime() time.Time {
	return time.Now()
}
