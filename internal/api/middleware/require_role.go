package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/auth"
	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

// RequireRole runs the access gate for the route. auth.AnyRole admits every
// signed-in caller.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.Authorize(Identity(c), required); err != nil {
			msg := "forbidden"
			var ae *utils.AppError
			if errors.As(err, &ae) {
				msg = ae.Message
			}
			c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{Code: utils.CodeOf(err), Message: msg})
			return
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc      { return RequireRole(auth.AnyRole) }
func RequireApplicant() gin.HandlerFunc { return RequireRole(models.RoleApplicant) }
func RequireRecruiter() gin.HandlerFunc { return RequireRole(models.RoleRecruiter) }
