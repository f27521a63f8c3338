package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tourneyarena/arena-auth/dispatch"
	"github.com/tourneyarena/arena-auth/flow"
	"github.com/tourneyarena/arena-auth/persistence"
	"github.com/tourneyarena/arena-auth/session"
)

func testServer(t *testing.T) *echo.Echo {
	t.Helper()

	repo, err := persistence.NewStorage("sqlite", filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to setup repo: %v", err)
	}

	sessions := session.NewManager("test-secret", session.TokenValidity)
	auth := flow.NewService(repo, sessions, dispatch.NoopDispatcher{}, true)
	h := NewHandler(auth, sessions)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	e := testServer(t)

	rec := doJSON(e, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health failed with code %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["status"] != "ok" || resp["service"] != "arena-auth" {
		t.Errorf("unexpected health body: %v", resp)
	}
}

func TestAPIIntegration(t *testing.T) {
	e := testServer(t)

	// 1. Missing email is rejected.
	rec := doJSON(e, http.MethodPost, "/auth/send-otp", map[string]string{}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("send-otp without email: expected 400, got %d", rec.Code)
	}

	// 2. Request OTP. Dispatch is skipped and disclosure is on, so the code
	// comes back in the response.
	rec = doJSON(e, http.MethodPost, "/auth/send-otp", map[string]string{"email": "a@b.com"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("send-otp failed with code %d: %s", rec.Code, rec.Body.String())
	}
	otp, _ := decode(t, rec)["otp"].(string)
	if !regexp.MustCompile(`^\d{6}$`).MatchString(otp) {
		t.Fatalf("expected disclosed 6-digit otp, got %q", otp)
	}

	// 3. Wrong code fails verification.
	rec = doJSON(e, http.MethodPost, "/auth/verify-otp", map[string]string{
		"name": "X", "email": "a@b.com", "password": "p", "code": "000000",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("verify with wrong code: expected 400, got %d", rec.Code)
	}

	// 4. Correct code registers and returns a token.
	rec = doJSON(e, http.MethodPost, "/auth/verify-otp", map[string]string{
		"name": "X", "email": "a@b.com", "password": "p", "code": otp,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify-otp failed with code %d: %s", rec.Code, rec.Body.String())
	}
	verifyResp := decode(t, rec)
	token, _ := verifyResp["token"].(string)
	if token == "" {
		t.Fatal("expected session token in response")
	}
	user, _ := verifyResp["user"].(map[string]interface{})
	profileID, _ := user["profile_id"].(string)
	if !regexp.MustCompile(`^BGMI-[A-Z0-9]{5}$`).MatchString(profileID) {
		t.Errorf("profile id %q does not match expected pattern", profileID)
	}
	if _, ok := user["password"]; ok {
		t.Error("user payload must not contain the password")
	}
	if _, ok := user["id"]; ok {
		t.Error("user payload must not contain the internal id")
	}

	// 5. The consumed code never verifies again.
	rec = doJSON(e, http.MethodPost, "/auth/verify-otp", map[string]string{
		"name": "X", "email": "a@b.com", "password": "p", "code": otp,
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reused code: expected 400, got %d", rec.Code)
	}

	// 6. Registering again with a fresh valid code fails: user exists.
	rec = doJSON(e, http.MethodPost, "/auth/send-otp", map[string]string{"email": "a@b.com"}, "")
	otp2, _ := decode(t, rec)["otp"].(string)
	rec = doJSON(e, http.MethodPost, "/auth/verify-otp", map[string]string{
		"name": "Y", "email": "a@b.com", "password": "q", "code": otp2,
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate registration: expected 400, got %d", rec.Code)
	}

	// 7. Login.
	rec = doJSON(e, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "wrong"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login with wrong password: expected 401, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/auth/login", map[string]string{"email": "A@B.com", "password": "p"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with code %d: %s", rec.Code, rec.Body.String())
	}
	loginToken, _ := decode(t, rec)["token"].(string)
	if loginToken == "" {
		t.Fatal("expected session token from login")
	}

	// 8. Protected profile route.
	rec = doJSON(e, http.MethodGet, "/me", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: expected 401, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/me", nil, "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me with garbage token: expected 401, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/me", nil, loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me failed with code %d: %s", rec.Code, rec.Body.String())
	}
	me := decode(t, rec)
	if me["profile_id"] != profileID || me["name"] != "X" || me["email"] != "a@b.com" {
		t.Errorf("unexpected profile: %v", me)
	}
	if _, ok := me["id"]; ok {
		t.Error("profile must not contain the internal id")
	}

	// 9. Admin routes.
	rec = doJSON(e, http.MethodGet, "/admin/users", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list failed with code %d", rec.Code)
	}
	var accounts []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("failed to decode account list: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	for _, key := range []string{"CredentialSecret", "credential_secret", "password"} {
		if _, ok := accounts[0][key]; ok {
			t.Errorf("account list must not contain %q", key)
		}
	}
	internalID, _ := accounts[0]["id"].(string)
	if internalID == "" {
		t.Fatal("expected internal id in admin listing")
	}

	rec = doJSON(e, http.MethodDelete, "/admin/users/"+internalID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete failed with code %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/admin/users", nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("failed to decode account list: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected empty account list after delete, got %d", len(accounts))
	}
}

func TestAuthMiddlewareRequiresBearerScheme(t *testing.T) {
	e := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-bearer auth, got %d", rec.Code)
	}
}
