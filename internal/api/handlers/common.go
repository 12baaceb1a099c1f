package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/api/middleware"
	"github.com/yoockh/hirelink/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if id := middleware.Identity(c); id != nil && id.AccountID != "" {
		return id.AccountID, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

func invalidBody(op string, err error) error {
	return utils.E(utils.CodeInvalidArgument, op, "invalid request body", err)
}
