package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/jwtutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedEcho(util *jwtutil.JWTUtil, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	chain := append([]echo.MiddlewareFunc{JWTAuthMiddleware(util)}, extra...)
	e.GET("/me", func(c echo.Context) error {
		claims, _ := Claims(c)
		return c.String(http.StatusOK, claims.UserID)
	}, chain...)
	return e
}

func TestJWTAuthMiddleware(t *testing.T) {
	util := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	token, err := util.GenerateToken("m@x.io", "member-1", "member", "", "")
	require.NoError(t, err)

	e := newProtectedEcho(util)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
			if tt.status == http.StatusOK {
				assert.Equal(t, "member-1", rec.Body.String())
			}
		})
	}
}
