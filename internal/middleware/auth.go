package middleware

import (
	"errors"
	"strings"

	"trust_backend/internal/auth"
	"trust_backend/internal/logger"
	"trust_backend/pkg/apperrors"
	"trust_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - проверка bearer токена через Verifier.
// Identity кладется в gin context под contextkeys.IdentityKey.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apperrors.HandleError(c, apperrors.ErrMissingToken)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				logger.CtxWithError(c.Request.Context(), "token verification error", err)
			}
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(contextkeys.IdentityKey.String(), identity)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.UID))
		c.Next()
	}
}

// RequireAdmin - только для администраторов. Ставится после AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrMissingToken)
			return
		}
		if !identity.Admin {
			logger.CtxWarn(c.Request.Context(), "admin access denied", "uid", identity.UID, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// GetIdentity извлекает проверенного пользователя из контекста
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	val, exists := c.Get(contextkeys.IdentityKey.String())
	if !exists {
		return nil, false
	}
	identity, ok := val.(*auth.Identity)
	return identity, ok && identity != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
