package actions

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ericlagergren/decimal"
	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func testFormContext(form url.Values) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestGetPagination(t *testing.T) {
	Convey("it should fall back to the first page with ten records", t, func() {
		page, limit := getPagination(testContext("/"))
		So(page, ShouldEqual, 1)
		So(limit, ShouldEqual, 10)
	})

	Convey("it should read page and limit from the query", t, func() {
		page, limit := getPagination(testContext("/?page=3&limit=25"))
		So(page, ShouldEqual, 3)
		So(limit, ShouldEqual, 25)
	})

	Convey("it should ignore values that are not numbers", t, func() {
		page, limit := getPagination(testContext("/?page=abc&limit=xyz"))
		So(page, ShouldEqual, 1)
		So(limit, ShouldEqual, 10)
	})
}

func TestGetPostFormAsDecimal(t *testing.T) {
	Convey("it should parse a decimal form value", t, func() {
		form := url.Values{}
		form.Set("amount", "12.5")
		amount, ok := getPostFormAsDecimal(testFormContext(form), "amount")
		So(ok, ShouldBeTrue)
		So(amount.Cmp(decimal.New(125, 1)), ShouldEqual, 0)
	})

	Convey("it should reject a missing or malformed value", t, func() {
		form := url.Values{}
		form.Set("amount", "not-a-number")
		_, ok := getPostFormAsDecimal(testFormContext(form), "amount")
		So(ok, ShouldBeFalse)

		_, ok = getPostFormAsDecimal(testFormContext(url.Values{}), "amount")
		So(ok, ShouldBeFalse)
	})
}

func TestIdentify(t *testing.T) {
	a := &Actions{}

	Convey("it should resolve the caller from the gateway header", t, func() {
		c := testContext("/")
		c.Request.Header.Set("X-User-ID", "42")
		a.Identify()(c)

		userID, ok := getUserID(c)
		So(ok, ShouldBeTrue)
		So(userID, ShouldEqual, 42)
	})

	Convey("it should leave anonymous requests alone", t, func() {
		c := testContext("/")
		a.Identify()(c)

		_, ok := getUserID(c)
		So(ok, ShouldBeFalse)
	})

	Convey("it should abort on a malformed header", t, func() {
		c := testContext("/")
		c.Request.Header.Set("X-User-ID", "not-a-number")
		a.Identify()(c)

		So(c.IsAborted(), ShouldBeTrue)
	})
}
