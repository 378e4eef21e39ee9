package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clubport/clubport/internal/errcode"
)

// Response unified response envelope
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// OkJSON successful response
func OkJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// HandleError maps a coded error to its HTTP status and envelope.
// Unexpected errors become 500 without leaking the cause to the client.
func HandleError(c *gin.Context, log *zap.Logger, err error) {
	coded := errcode.FromError(err)

	if coded.HTTPStatus() >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("error_code", coded.Code()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(coded.HTTPStatus(), Response{
		Code: coded.Code(),
		Msg:  coded.Message(),
	})
}
