package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func webhookContext(headers map[string]string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestCheckWebhookSecret_OpenWhenUnconfigured(t *testing.T) {
	c := webhookContext(nil)
	if !CheckWebhookSecret(c, "") {
		t.Error("expected open mode when no secret is configured")
	}
}

func TestCheckWebhookSecret_Match(t *testing.T) {
	for _, header := range []string{"X-Webhook-Key", "X-Auth-Key", "Authorization"} {
		c := webhookContext(map[string]string{header: "s3cret"})
		if !CheckWebhookSecret(c, "s3cret") {
			t.Errorf("expected match via %s header", header)
		}
	}
}

func TestCheckWebhookSecret_TrimsWhitespace(t *testing.T) {
	c := webhookContext(map[string]string{"X-Webhook-Key": "  s3cret  "})
	if !CheckWebhookSecret(c, " s3cret ") {
		t.Error("expected whitespace-trimmed match")
	}
}

func TestCheckWebhookSecret_Mismatch(t *testing.T) {
	c := webhookContext(map[string]string{"X-Webhook-Key": "wrong"})
	if CheckWebhookSecret(c, "s3cret") {
		t.Error("expected mismatch to fail")
	}
}

func TestCheckWebhookSecret_Missing(t *testing.T) {
	c := webhookContext(nil)
	if CheckWebhookSecret(c, "s3cret") {
		t.Error("expected missing header to fail when secret configured")
	}
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func dashboardRequest(t *testing.T, secret, bearer string) (error, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/vitals", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	return DashboardAuth(secret)(handler)(c), rec
}

func TestDashboardAuth_OpenWhenUnconfigured(t *testing.T) {
	err, rec := dashboardRequest(t, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDashboardAuth_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "dash-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"viewer"},
	}
	err, rec := dashboardRequest(t, "signing-key", signToken(t, "signing-key", claims))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDashboardAuth_WrongKey(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	err, _ := dashboardRequest(t, "signing-key", signToken(t, "other-key", claims))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDashboardAuth_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	err, _ := dashboardRequest(t, "signing-key", signToken(t, "signing-key", claims))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDashboardAuth_MissingToken(t *testing.T) {
	err, _ := dashboardRequest(t, "signing-key", "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
