package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/internal/auth"
	"github.com/yoockh/hirelink/internal/utils"
)

const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxIdentity = "identity"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// Verifier turns a bearer credential into an identity.
type Verifier interface {
	Verify(raw string) (auth.Identity, error)
}

// JWTAuth resolves the caller's identity from the Authorization header.
// It never rejects: RequireRole decides what an absent identity means.
func JWTAuth(v Verifier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			// browsers cannot set headers on websocket upgrades
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			c.Next()
			return
		}

		id, err := v.Verify(raw)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Debug("bearer token rejected")
			c.Next()
			return
		}

		c.Set(ctxUserID, id.AccountID)
		c.Set(ctxRole, string(id.Role))
		c.Set(ctxIdentity, id)
		c.Next()
	}
}

// Identity returns the identity resolved by JWTAuth, or nil.
func Identity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return nil
	}
	id, ok := v.(auth.Identity)
	if !ok {
		return nil
	}
	return &id
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
