package response

import (
	"net/http"

	"helium-ledger/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response. The HTTP status follows the error class so that callers
// which ignore the body still see the failure.
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}

func httpStatus(code int) int {
	switch {
	case code == errno.ErrBind.Code, code >= 20000 && code < 30000:
		return http.StatusBadRequest
	case code >= 11000 && code < 12000:
		return http.StatusServiceUnavailable
	case code >= 30000 && code < 40000:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
