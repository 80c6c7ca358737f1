package session

import (
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	tokenContextKey  = "user"
	claimsContextKey = "claims"
)

var publicPaths = map[string]bool{
	"/api/users/login":            true,
	"/api/users/register":         true,
	"/api/users/forgot-password":  true,
	"/api/users/verify-reset-otp": true,
	"/api/users/reset-password":   true,
	"/api/health":                 true,
}

func isPublic(c echo.Context) bool {
	return publicPaths[c.Request().URL.Path]
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
}

// JWT validates the Bearer token on every non-public route.
func JWT(issuer *TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:    isPublic,
		SigningKey: issuer.Secret(),
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized(c)
		},
	})
}

// Registry rejects tokens that are no longer the user's live session, for example
// after logout.
func Registry(store *Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic(c) {
				return next(c)
			}
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				return unauthorized(c)
			}
			live, err := store.Validate(c.Request().Context(), claims.UserID, token.Raw)
			if err != nil {
				logger.Error().Err(err).Msgf("Error validating session for user %d", claims.UserID)
				return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Unable to validate session"})
			}
			if !live {
				return unauthorized(c)
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RBAC enforces the route policy for the caller's role.
func RBAC(policy *Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic(c) {
				return next(c)
			}
			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized(c)
			}
			if !policy.Allow(claims.Role, c.Request().URL.Path, c.Request().Method) {
				return c.JSON(http.StatusForbidden, map[string]string{"message": "Access denied"})
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the verified claims of the current request.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok
}
