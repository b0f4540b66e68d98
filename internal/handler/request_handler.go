package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
)

type createRequestRequest struct {
	ItemID string `json:"assetId" validate:"required"`
	Note   string `json:"note"`
}

// CreateRequest records a pending request by the caller
func (h *Handler) CreateRequest(c echo.Context) error {
	claims, _ := mid.Claims(c)

	var req createRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	request, err := h.Requests.CreateRequest(c.Request().Context(), claims.Email, service.RequestInput{
		ItemID: req.ItemID,
		Note:   req.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "request": request})
}

// ListRequests lists requests newest first. Owners see their tenant's
// requests, members see their own.
func (h *Handler) ListRequests(c echo.Context) error {
	account, err := h.caller(c)
	if err != nil {
		return respondError(c, err)
	}

	filter := store.RequestFilter{Status: model.RequestStatus(c.QueryParam("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		return respondError(c, fmt.Errorf("%w: unknown status %q", service.ErrValidation, filter.Status))
	}
	if account.IsOwner() {
		filter.CompanyID = account.ID
		filter.EmployeeEmail = normalize(c.QueryParam("email"))
	} else {
		filter.EmployeeEmail = account.Email
		filter.CompanyID = c.QueryParam("companyId")
	}

	requests, err := h.Requests.ListRequests(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "requests": requests})
}

// RequestStats returns pending and approved counts for the caller's tenant
func (h *Handler) RequestStats(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := h.caller(c)
	if err != nil {
		return respondError(c, err)
	}
	tenantID, err := service.ResolveTenantID(account)
	if err != nil {
		return respondError(c, err)
	}

	pending, err := h.Requests.PendingCount(ctx, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	approved, err := h.Requests.ApprovedCount(ctx, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"pending":  pending,
		"approved": approved,
	})
}

// ApproveRequest approves a request of the caller's tenant
func (h *Handler) ApproveRequest(c echo.Context) error {
	claims, _ := mid.Claims(c)

	res, err := h.Requests.ApproveForOwner(c.Request().Context(), claims.UserID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"request":          res.Request,
		"currentEmployees": res.CurrentEmployees,
		"packageLimit":     res.PackageLimit,
		"assetQuantity":    res.ItemQuantity,
		"alreadyApproved":  res.AlreadyApproved,
	})
}

// UpdateRequest patches the status or note of a request of the caller's
// tenant
func (h *Handler) UpdateRequest(c echo.Context) error {
	claims, _ := mid.Claims(c)
	ctx := c.Request().Context()

	var patch model.RequestPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return respondError(c, err)
	}
	if _, err := h.Requests.GetRequestInTenant(ctx, claims.UserID, c.Param("id")); err != nil {
		return respondError(c, err)
	}

	request, err := h.Requests.UpdateRequest(ctx, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "request": request})
}
