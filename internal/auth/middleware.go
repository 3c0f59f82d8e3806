package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hexabase/hexabase-ai/internal/metrics"
)

// contextKey is the echo context key holding the validated AuthContext.
const contextKey = "aiops.auth"

var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Middleware returns an echo middleware that authenticates every request
// outside the exempt set and injects the AuthContext.
func Middleware(v *Validator, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := exemptPaths[c.Path()]; ok {
				return next(c)
			}

			raw, err := bearerToken(c.Request())
			if err != nil {
				metrics.RecordJWTValidation("missing")
				return authFailed(c, err.Error())
			}

			authCtx, err := v.ValidateToken(c.Request().Context(), raw)
			if err != nil {
				metrics.RecordJWTValidation("invalid")
				logger.Warn("token validation failed",
					"path", c.Path(),
					"error", err)
				return authFailed(c, "invalid or expired token")
			}

			metrics.RecordJWTValidation("success")
			c.Set(contextKey, authCtx)
			return next(c)
		}
	}
}

// FromContext returns the AuthContext injected by Middleware, or nil for
// unauthenticated paths.
func FromContext(c echo.Context) *AuthContext {
	authCtx, _ := c.Get(contextKey).(*AuthContext)
	return authCtx
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errMissingToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

var errMissingToken = errors.New("missing bearer token")

func authFailed(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":   "AUTH_FAILED",
		"message": message,
	})
}
