package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/service"
)

// Business codes carried in Response.Code.
const (
	CodeOK         = 0
	CodeBadRequest = 1001
	CodeNotReady   = 1002
	CodeNotFound   = 1003
	CodeInternal   = 1500
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "ok", Data: data})
}

func fail(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{Code: code, Message: message})
}

// failErr maps service errors to a status and code.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSnapshot):
		fail(c, http.StatusServiceUnavailable, CodeNotReady, err.Error())
	case errors.Is(err, catalog.ErrUnknownRegion):
		fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrBannerChoice),
		errors.Is(err, service.ErrMissingUser),
		errors.Is(err, service.ErrTrials),
		errors.Is(err, gacha.ErrInvalidCount):
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
