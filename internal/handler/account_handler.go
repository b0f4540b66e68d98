package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"omitempty,min=6"`
	Role        string   `json:"role" validate:"omitempty,oneof=owner member hr employee"`
	PhotoURL    string   `json:"photoURL"`
	DateOfBirth string   `json:"dateOfBirth"`
	CompanyName string   `json:"companyName"`
	CompanyLogo string   `json:"companyLogo"`
	Skills      []string `json:"skills"`
}

type updateUserRequest struct {
	Name         *string   `json:"name"`
	Role         *string   `json:"role" validate:"omitempty,oneof=owner member hr employee"`
	PhotoURL     *string   `json:"photoURL"`
	DateOfBirth  *string   `json:"dateOfBirth"`
	CompanyName  *string   `json:"companyName"`
	CompanyLogo  *string   `json:"companyLogo"`
	Subscription *string   `json:"subscription"`
	PackageLimit *int      `json:"packageLimit" validate:"omitempty,min=1"`
	Skills       *[]string `json:"skills"`
}

// Login checks credentials and issues a token carrying the resolved tenant
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthAttempt("invalid_request")
		return respondError(c, err)
	}

	account, err := h.Directory.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login rejected", zap.String("email", req.Email))
			prometheus.RecordAuthAttempt("invalid_credentials")
		}
		return respondError(c, err)
	}

	var tenantID, tenantName string
	if id, err := service.ResolveTenantID(account); err == nil {
		tenantID = id
		tenantName = account.CompanyName
		if !account.IsOwner() {
			if owner, err := h.Directory.GetOwner(ctx, id); err == nil {
				tenantName = owner.CompanyName
			}
		}
	}

	token, err := h.JWT.GenerateToken(account.Email, account.ID, string(account.Role), tenantID, tenantName)
	if err != nil {
		prometheus.RecordAuthAttempt("token_error")
		return respondError(c, err)
	}

	prometheus.RecordAuthAttempt("success")
	log.Info("User logged in",
		zap.String("account_id", account.ID),
		zap.String("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"token":      token,
		"user":       account,
		"tenantId":   tenantID,
		"tenantName": tenantName,
	})
}

// CreateUser handles signup for both owners and members
func (h *Handler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return respondError(c, err)
	}

	account, err := h.Directory.CreateAccount(c.Request().Context(), service.AccountInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		PhotoURL:    req.PhotoURL,
		DateOfBirth: dob,
		CompanyName: req.CompanyName,
		CompanyLogo: req.CompanyLogo,
		Skills:      req.Skills,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": account})
}

// GetUser returns the profile behind an email
func (h *Handler) GetUser(c echo.Context) error {
	account, err := h.Directory.GetAccountByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": account})
}

// UpdateUser lets a caller change its own role and profile
func (h *Handler) UpdateUser(c echo.Context) error {
	claims, _ := mid.Claims(c)
	email := c.Param("email")
	if !sameEmail(claims.Email, email) {
		return forbidden(c, "you can only update your own profile")
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	patch := service.AccountPatch{
		Name:         req.Name,
		Role:         req.Role,
		PhotoURL:     req.PhotoURL,
		CompanyName:  req.CompanyName,
		CompanyLogo:  req.CompanyLogo,
		Subscription: req.Subscription,
		PackageLimit: req.PackageLimit,
		Skills:       req.Skills,
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return respondError(c, err)
		}
		patch.DateOfBirth = dob
	}

	account, err := h.Directory.UpdateRoleAndDetails(c.Request().Context(), email, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": account})
}

// ListOwners returns every tenant owner
func (h *Handler) ListOwners(c echo.Context) error {
	owners, err := h.Directory.ListOwners(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "hrs": owners})
}

// ListEmployees returns the members of the caller's tenant
func (h *Handler) ListEmployees(c echo.Context) error {
	owner, err := h.caller(c)
	if err != nil {
		return respondError(c, err)
	}
	members, err := h.Directory.ListMembers(c.Request().Context(), owner.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"employees":        members,
		"currentEmployees": owner.CurrentEmployees,
		"packageLimit":     owner.PackageLimit,
	})
}

// RemoveEmployee drops a member from the caller's tenant
func (h *Handler) RemoveEmployee(c echo.Context) error {
	claims, _ := mid.Claims(c)
	count, err := h.Directory.RemoveMember(c.Request().Context(), claims.UserID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "currentEmployees": count})
}

func sameEmail(a, b string) bool {
	return normalize(a) == normalize(b)
}
