package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/nexus-cards-backend/pkg/auth"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

var testAdminAuth = config.AdminAuthConfig{Secret: "secret", Issuer: "nexus-cards", TokenTTL: time.Hour}

func staffToken(t *testing.T, cfg config.AdminAuthConfig, role enums.StaffRole) string {
	t.Helper()
	token, err := auth.MintStaffToken(cfg, time.Now(), "ops@nexus.test", role)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func serveWithAuth(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/skus", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStaffAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := StaffAuth(testAdminAuth, nil)(okHandler())

	if rec := serveWithAuth(handler, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := serveWithAuth(handler, "Bearer not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
	forged := testAdminAuth
	forged.Secret = "forged"
	if rec := serveWithAuth(handler, "Bearer "+staffToken(t, forged, enums.StaffRoleAdmin)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", rec.Code)
	}
}

func TestStaffAuthRejectsEverythingWithoutSecret(t *testing.T) {
	handler := StaffAuth(config.AdminAuthConfig{Issuer: "nexus-cards"}, nil)(okHandler())
	if rec := serveWithAuth(handler, "Bearer "+staffToken(t, testAdminAuth, enums.StaffRoleAdmin)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no secret is configured, got %d", rec.Code)
	}
}

func TestStaffAuthCarriesClaims(t *testing.T) {
	var (
		role    enums.StaffRole
		subject string
	)
	handler := StaffAuth(testAdminAuth, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = StaffRoleFromContext(r.Context())
		subject = StaffSubjectFromContext(r.Context())
	}))

	serveWithAuth(handler, "bearer "+staffToken(t, testAdminAuth, enums.StaffRoleStock))
	if role != enums.StaffRoleStock || subject != "ops@nexus.test" {
		t.Fatalf("unexpected claims role=%q subject=%q", role, subject)
	}
}

func TestRequireStaffRole(t *testing.T) {
	handler := StaffAuth(testAdminAuth, nil)(RequireStaffRole(nil, enums.StaffRoleAdmin)(okHandler()))

	if rec := serveWithAuth(handler, "Bearer "+staffToken(t, testAdminAuth, enums.StaffRoleStock)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stock role, got %d", rec.Code)
	}
	if rec := serveWithAuth(handler, "Bearer "+staffToken(t, testAdminAuth, enums.StaffRoleAdmin)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", rec.Code)
	}
}
