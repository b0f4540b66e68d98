package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/jwtutil"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/validation"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the HTTP layer needs
type Deps struct {
	ServiceName   string
	Store         Pinger
	JWT           *jwtutil.JWTUtil
	Directory     *service.DirectoryService
	Inventory     *service.InventoryService
	Requests      *service.RequestService
	Notifications *service.NotificationService
	Billing       *service.BillingService
}

// Handler serves the REST API
type Handler struct {
	Deps
}

// Register mounts every route on e
func Register(e *echo.Echo, d Deps) *Handler {
	if e.Validator == nil {
		e.Validator = validation.New()
	}
	h := &Handler{Deps: d}

	e.GET("/health", h.HealthCheck)
	e.POST("/auth/login", h.Login)
	e.POST("/users", h.CreateUser)
	e.GET("/packages", h.ListPackages)

	auth := mid.JWTAuthMiddleware(d.JWT)
	owner := h.requireOwner

	e.GET("/users/:email", h.GetUser, auth)
	e.PATCH("/users/:email", h.UpdateUser, auth)
	e.GET("/hrs", h.ListOwners, auth)
	e.GET("/employees", h.ListEmployees, auth, owner)
	e.DELETE("/employees/:id", h.RemoveEmployee, auth, owner)

	e.GET("/assets", h.ListAssets, auth)
	e.GET("/assets/:id", h.GetAsset, auth)
	e.POST("/assets", h.CreateAsset, auth)
	e.PATCH("/assets/:id", h.UpdateAsset, auth, owner)
	e.DELETE("/assets/:id", h.DeleteAsset, auth, owner)

	e.POST("/requests", h.CreateRequest, auth)
	e.GET("/requests", h.ListRequests, auth)
	e.GET("/requests/stats", h.RequestStats, auth)
	e.PATCH("/requests/:id/approve", h.ApproveRequest, auth, owner)
	e.PATCH("/requests/:id", h.UpdateRequest, auth, owner)

	e.GET("/notifications", h.ListNotifications, auth)
	e.GET("/notifications/unread-count", h.UnreadCount, auth)
	e.GET("/notifications/analytics", h.NotificationAnalytics, auth, owner)
	e.PATCH("/notifications/read-all", h.MarkAllRead, auth)
	e.PATCH("/notifications/:id/read", h.MarkRead, auth)
	e.DELETE("/notifications/read", h.ClearRead, auth)
	e.DELETE("/notifications/:id", h.DeleteNotification, auth)

	e.POST("/create-checkout-session", h.CreateCheckout, auth, owner)
	e.POST("/payment-success", h.PaymentSuccess, auth, owner)
	e.GET("/payments", h.ListPayments, auth, owner)

	return h
}

// caller loads the live account behind the request token. Affiliations can
// change after the token was issued, so tenant decisions use this record.
func (h *Handler) caller(c echo.Context) (*model.Account, error) {
	claims, ok := mid.Claims(c)
	if !ok {
		return nil, errUnauthenticated
	}
	return h.Directory.GetAccountByID(c.Request().Context(), claims.UserID)
}

// requireOwner admits callers whose stored account is currently an owner.
// A role changed after login takes effect on the next request.
func (h *Handler) requireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		account, err := h.caller(c)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				err = errUnauthenticated
			}
			return respondError(c, err)
		}
		if !account.IsOwner() {
			logger.FromEcho(c).Warn("Owner check failed",
				zap.String("account_id", account.ID),
				zap.String("role", string(account.Role)))
			return forbidden(c, "insufficient role")
		}
		return next(c)
	}
}

var errUnauthenticated = errors.New("authentication required")

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", service.ErrValidation, err.Error())
	}
	return nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", service.ErrValidation)
}

// respondError maps service errors onto status codes
func respondError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	if limit, ok := service.IsLimitReached(err); ok {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false,
			"code":    "limit_reached",
			"error":   "Employee limit reached. Upgrade your package.",
			"current": limit.Current,
			"limit":   limit.Limit,
		})
	}

	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrUnresolvableTenant):
		status, code = http.StatusBadRequest, "unresolvable_tenant"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, errUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrPaymentInProgress):
		status, code = http.StatusConflict, "payment_in_progress"
	case errors.Is(err, service.ErrCheckoutUnavailable):
		status, code = http.StatusServiceUnavailable, "checkout_unavailable"
	case errors.Is(err, service.ErrPaymentUnverified):
		status, code = http.StatusPaymentRequired, "payment_unverified"
	}

	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"success": false, "code": code, "error": "internal server error"})
	}
	log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"success": false, "code": code, "error": err.Error()})
}

func forbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, echo.Map{"success": false, "code": "forbidden", "error": message})
}
