package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Alertify/pkg/errors"
)

// Body is the uniform JSON envelope for API responses.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

func Fail(c *gin.Context, message string, data any) {
	c.JSON(http.StatusBadRequest, Body{Code: 1, Message: message, Data: data})
}

func FailWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Body{Code: 1, Message: message})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Body{Code: 1, Message: message})
}

// Error renders an application error, carrying its code through the
// envelope when it is a coded error.
func Error(c *gin.Context, status int, err error) {
	code := errors.GetCode(err)
	if code == 0 {
		code = 1
	}
	c.JSON(status, Body{Code: code, Message: errors.GetMessage(err)})
}
