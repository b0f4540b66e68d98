package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
)

type createAssetRequest struct {
	Name       string           `json:"productName" validate:"required"`
	Type       string           `json:"productType"`
	Image      string           `json:"productImage"`
	Quantity   int              `json:"productQuantity" validate:"min=0"`
	ReturnType model.ReturnType `json:"returnType" validate:"omitempty,oneof=returnable non-returnable"`
}

// ListAssets lists items, optionally narrowed to one tenant and return type
func (h *Handler) ListAssets(c echo.Context) error {
	items, err := h.Inventory.ListItems(c.Request().Context(), store.ItemFilter{
		CompanyID:  c.QueryParam("companyId"),
		ReturnType: model.ReturnType(c.QueryParam("returnType")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "assets": items})
}

// GetAsset returns one item
func (h *Handler) GetAsset(c echo.Context) error {
	item, err := h.Inventory.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "asset": item})
}

// CreateAsset adds an item to the caller's tenant and notifies its members
func (h *Handler) CreateAsset(c echo.Context) error {
	claims, _ := mid.Claims(c)

	var req createAssetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.Inventory.AddItem(c.Request().Context(), service.ItemInput{
		Name:       req.Name,
		Type:       req.Type,
		Image:      req.Image,
		Quantity:   req.Quantity,
		ReturnType: req.ReturnType,
	}, claims.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"asset":    res.Item,
		"notified": res.Notified,
	})
}

// UpdateAsset patches an item of the caller's tenant
func (h *Handler) UpdateAsset(c echo.Context) error {
	claims, _ := mid.Claims(c)
	ctx := c.Request().Context()

	var patch model.ItemPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return respondError(c, err)
	}
	if _, err := h.Inventory.GetItemInTenant(ctx, claims.UserID, c.Param("id")); err != nil {
		return respondError(c, err)
	}

	item, err := h.Inventory.UpdateItem(ctx, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "asset": item})
}

// DeleteAsset removes an item of the caller's tenant
func (h *Handler) DeleteAsset(c echo.Context) error {
	claims, _ := mid.Claims(c)
	ctx := c.Request().Context()

	if _, err := h.Inventory.GetItemInTenant(ctx, claims.UserID, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	if err := h.Inventory.DeleteItem(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
