package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/config"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/jwtutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	e         *echo.Echo
	store     *store.MemoryStore
	directory *service.DirectoryService
	jwt       *jwtutil.JWTUtil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	s := store.NewMemoryStore()

	directory := service.NewDirectoryService(s, log)
	notifications := service.NewNotificationService(directory, s, s, log)
	inventory := service.NewInventoryService(directory, notifications, s, log)
	requests := service.NewRequestService(directory, inventory, notifications, s, s, log)
	billing := service.NewBillingService(s, s, store.NewMemoryClaimStore(), nil, service.BillingOptions{}, log)
	require.NoError(t, billing.SeedPackages(context.Background(), config.DefaultPackages()))

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	e := echo.New()
	Register(e, Deps{
		ServiceName:   "assetverse-test",
		Store:         s,
		JWT:           jwt,
		Directory:     directory,
		Inventory:     inventory,
		Requests:      requests,
		Notifications: notifications,
		Billing:       billing,
	})
	return &testServer{e: e, store: s, directory: directory, jwt: jwt}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

// signup creates an account over HTTP and returns its id and a login token
func (ts *testServer) signup(t *testing.T, email, role string) (string, string) {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/users", "", echo.Map{
		"name":        "User " + email,
		"email":       email,
		"password":    "secret1",
		"role":        role,
		"companyName": "Acme",
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := body["user"].(map[string]interface{})["id"].(string)
	return id, ts.login(t, email)
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["success"])
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/users", "", echo.Map{"name": "No Email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, false, body["success"])

	status, body = ts.do(t, http.MethodPost, "/users", "", echo.Map{"email": "x@acme.io", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, _ = ts.signup(t, "hr@acme.io", "hr")
	status, body = ts.do(t, http.MethodPost, "/users", "", echo.Map{"email": "HR@acme.io", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = ts.do(t, http.MethodGet, "/users/hr@acme.io", ts.login(t, "hr@acme.io"), nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "owner", user["role"])
	assert.Equal(t, "basic", user["subscription"])
	assert.EqualValues(t, 5, user["packageLimit"])
	assert.NotContains(t, user, "PasswordHash")

	status, body = ts.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "hr@acme.io", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user["id"], body["tenantId"])
	assert.Equal(t, "Acme", body["tenantName"])
	claims, err := ts.jwt.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.TenantID)
	assert.Equal(t, "Acme", claims.TenantName)

	_, memberToken := ts.signup(t, "m@acme.io", "employee")
	claims, err = ts.jwt.ValidateToken(memberToken)
	require.NoError(t, err)
	assert.Empty(t, claims.TenantID, "an unaffiliated member has no tenant yet")

	status, body = ts.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "hr@acme.io", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["code"])
}

func TestProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)
	_, memberToken := ts.signup(t, "m@acme.io", "employee")

	status, _ := ts.do(t, http.MethodGet, "/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := ts.do(t, http.MethodGet, "/employees", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["code"])

	status, body = ts.do(t, http.MethodPatch, "/users/other@acme.io", memberToken, echo.Map{"name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = ts.do(t, http.MethodPatch, "/users/m@acme.io", memberToken, echo.Map{"name": "Mia", "skills": []string{"go"}})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Mia", body["user"].(map[string]interface{})["name"])

	status, body = ts.do(t, http.MethodGet, "/requests/stats", memberToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unresolvable_tenant", body["code"])

	status, _ = ts.do(t, http.MethodGet, "/assets/missing", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOwnerRoutesFollowStoredRole(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.signup(t, "hr@acme.io", "hr")
	_, memberToken := ts.signup(t, "m@acme.io", "employee")

	status, _ := ts.do(t, http.MethodGet, "/employees", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := ts.do(t, http.MethodPatch, "/users/hr@acme.io", ownerToken, echo.Map{"role": "member"})
	require.Equal(t, http.StatusOK, status, body)
	status, body = ts.do(t, http.MethodGet, "/employees", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, status, "demotion applies before the token expires")
	assert.Equal(t, "forbidden", body["code"])

	status, body = ts.do(t, http.MethodPatch, "/users/m@acme.io", memberToken, echo.Map{"role": "owner"})
	require.Equal(t, http.StatusOK, status, body)
	status, body = ts.do(t, http.MethodGet, "/employees", memberToken, nil)
	assert.Equal(t, http.StatusOK, status, body)
}

func TestRequestApprovalFlow(t *testing.T) {
	ts := newTestServer(t)
	ownerID, ownerToken := ts.signup(t, "hr@acme.io", "hr")
	memberID, memberToken := ts.signup(t, "m@acme.io", "employee")

	status, body := ts.do(t, http.MethodPost, "/assets", ownerToken, echo.Map{
		"productName":     "Laptop",
		"productType":     "Electronics",
		"productQuantity": 3,
		"returnType":      "returnable",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 1, body["notified"])
	assetID := body["asset"].(map[string]interface{})["id"].(string)

	status, body = ts.do(t, http.MethodPost, "/requests", memberToken, echo.Map{"assetId": assetID, "note": "remote work"})
	require.Equal(t, http.StatusCreated, status, body)
	requestID := body["request"].(map[string]interface{})["id"].(string)

	status, body = ts.do(t, http.MethodGet, "/notifications/unread-count", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])

	status, _ = ts.do(t, http.MethodPatch, "/requests/"+requestID+"/approve", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = ts.do(t, http.MethodPatch, "/requests/"+requestID+"/approve", ownerToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["currentEmployees"])
	assert.EqualValues(t, 5, body["packageLimit"])
	assert.EqualValues(t, 2, body["assetQuantity"])
	assert.Equal(t, false, body["alreadyApproved"])

	status, body = ts.do(t, http.MethodPatch, "/requests/"+requestID+"/approve", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["alreadyApproved"])

	status, body = ts.do(t, http.MethodGet, "/employees", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	employees := body["employees"].([]interface{})
	require.Len(t, employees, 1)
	assert.Equal(t, memberID, employees[0].(map[string]interface{})["id"])

	status, body = ts.do(t, http.MethodGet, "/notifications", memberToken, nil)
	require.Equal(t, http.StatusOK, status)
	notes := body["notifications"].([]interface{})
	require.Len(t, notes, 1)
	note := notes[0].(map[string]interface{})
	assert.Equal(t, "request_approved", note["type"])
	assert.Equal(t, false, note["read"])

	status, body = ts.do(t, http.MethodPatch, "/notifications/"+note["id"].(string)+"/read", memberToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["alreadyRead"])
	status, body = ts.do(t, http.MethodDelete, "/notifications/read", memberToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["deletedCount"])

	status, body = ts.do(t, http.MethodGet, "/requests/stats", memberToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 0, body["pending"])
	assert.EqualValues(t, 1, body["approved"])

	status, body = ts.do(t, http.MethodGet, "/requests", memberToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["requests"].([]interface{}), 1)

	status, body = ts.do(t, http.MethodDelete, "/employees/"+memberID, ownerToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 0, body["currentEmployees"])

	owner, err := ts.directory.GetAccountByID(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 0, owner.CurrentEmployees)
}

func TestApproveAtCapacity(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ownerID, ownerToken := ts.signup(t, "hr@acme.io", "hr")
	for i := 0; i < 5; i++ {
		id, _ := ts.signup(t, fmt.Sprintf("m%d@acme.io", i), "employee")
		require.NoError(t, ts.store.AddAffiliation(ctx, id, ownerID))
	}
	_, err := ts.directory.RecountMembers(ctx, ownerID)
	require.NoError(t, err)

	_, newcomerToken := ts.signup(t, "new@acme.io", "employee")
	_, body := ts.do(t, http.MethodPost, "/assets", ownerToken, echo.Map{"productName": "Phone", "productQuantity": 1})
	assetID := body["asset"].(map[string]interface{})["id"].(string)
	_, body = ts.do(t, http.MethodPost, "/requests", newcomerToken, echo.Map{"assetId": assetID})
	requestID := body["request"].(map[string]interface{})["id"].(string)

	status, body := ts.do(t, http.MethodPatch, "/requests/"+requestID+"/approve", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "limit_reached", body["code"])
	assert.EqualValues(t, 5, body["current"])
	assert.EqualValues(t, 5, body["limit"])
}

func TestApproveForeignRequest(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.signup(t, "hr@acme.io", "hr")
	_, strangerToken := ts.signup(t, "hr@other.io", "hr")
	_, memberToken := ts.signup(t, "m@acme.io", "employee")

	_, body := ts.do(t, http.MethodPost, "/assets", ownerToken, echo.Map{"productName": "Phone", "productQuantity": 1})
	assetID := body["asset"].(map[string]interface{})["id"].(string)
	_, body = ts.do(t, http.MethodPost, "/requests", memberToken, echo.Map{"assetId": assetID})
	requestID := body["request"].(map[string]interface{})["id"].(string)

	status, _ := ts.do(t, http.MethodPatch, "/requests/"+requestID+"/approve", strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodDelete, "/assets/"+assetID, strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodDelete, "/assets/"+assetID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPaymentSuccessIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.signup(t, "hr@acme.io", "hr")

	status, body := ts.do(t, http.MethodGet, "/packages", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["packages"].([]interface{}), 3)

	payment := echo.Map{"sessionId": "cs_test_1", "packageId": "standard", "amount": "8"}
	status, body = ts.do(t, http.MethodPost, "/payment-success", ownerToken, payment)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, false, body["alreadyRecorded"])

	status, body = ts.do(t, http.MethodPost, "/payment-success", ownerToken, payment)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["alreadyRecorded"])

	status, body = ts.do(t, http.MethodGet, "/payments", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["payments"].([]interface{}), 1)

	status, body = ts.do(t, http.MethodGet, "/users/hr@acme.io", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "standard", user["subscription"])
	assert.EqualValues(t, 10, user["packageLimit"])
	assert.Len(t, user["subscriptionHistory"].([]interface{}), 1)

	status, body = ts.do(t, http.MethodPost, "/create-checkout-session", ownerToken, echo.Map{"packageId": "premium"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "checkout_unavailable", body["code"])
}
