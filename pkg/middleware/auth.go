package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/jwtutil"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"go.uber.org/zap"
)

const claimsKey = "user"

// JWTAuthMiddleware creates a middleware that validates JWT tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return unauthorized(c, "Missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return unauthorized(c, "Invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return unauthorized(c, "Invalid or expired token")
			}

			c.Set(claimsKey, claims)
			log.Debug("JWT token validated successfully",
				zap.String("user_id", claims.UserID),
				zap.String("email", claims.Email),
				zap.String("tenant_id", claims.TenantID))

			return next(c)
		}
	}
}

// Claims returns the token claims stored by JWTAuthMiddleware
func Claims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"code":    "unauthorized",
		"error":   message,
	})
}
