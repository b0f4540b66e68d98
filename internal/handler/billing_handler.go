package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
	"github.com/shopspring/decimal"
)

type checkoutRequest struct {
	PackageID string `json:"packageId" validate:"required"`
}

type paymentRequest struct {
	SessionID   string          `json:"sessionId" validate:"required"`
	PackageID   string          `json:"packageId" validate:"required"`
	PackageName string          `json:"packageName"`
	Amount      decimal.Decimal `json:"amount"`
}

// ListPackages returns the tier catalogue
func (h *Handler) ListPackages(c echo.Context) error {
	pkgs, err := h.Billing.ListPackages(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "packages": pkgs})
}

// CreateCheckout opens a hosted checkout for the caller
func (h *Handler) CreateCheckout(c echo.Context) error {
	claims, _ := mid.Claims(c)

	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	url, err := h.Billing.CreateCheckout(c.Request().Context(), claims.Email, req.PackageID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "url": url})
}

// PaymentSuccess records a completed checkout for the caller. The session is
// confirmed with the processor when one is configured. Replays of the same
// session answer 200 with the original record.
func (h *Handler) PaymentSuccess(c echo.Context) error {
	claims, _ := mid.Claims(c)

	var req paymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.Billing.RecordPayment(c.Request().Context(), service.PaymentInput{
		SessionID:   req.SessionID,
		OwnerEmail:  claims.Email,
		PackageID:   req.PackageID,
		PackageName: req.PackageName,
		Amount:      req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	status := http.StatusCreated
	if res.AlreadyRecorded {
		status = http.StatusOK
	}
	return c.JSON(status, echo.Map{
		"success":         true,
		"payment":         res.Payment,
		"alreadyRecorded": res.AlreadyRecorded,
	})
}

// ListPayments returns the caller's payments newest first
func (h *Handler) ListPayments(c echo.Context) error {
	claims, _ := mid.Claims(c)
	payments, err := h.Billing.ListPayments(c.Request().Context(), claims.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "payments": payments})
}
