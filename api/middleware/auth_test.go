package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/gaslinkhq/gaslink-backend/pkg/auth"
	"github.com/gaslinkhq/gaslink-backend/pkg/config"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "gaslink"}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole, agencyID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.NewAccessToken(cfg, uuid.New(), role, "Test Actor", agencyID, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsWrongIssuer(t *testing.T) {
	otherIssuer := config.JWTConfig{Secret: "secret", Issuer: "someone-else"}
	token := mintTestToken(t, otherIssuer, enums.ActorRoleCustomer, nil)

	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsActorContext(t *testing.T) {
	cfg := testJWTConfig()
	agencyID := uuid.New()
	token := mintTestToken(t, cfg, enums.ActorRoleAgencyOwner, &agencyID)

	var capturedRole enums.ActorRole
	var capturedName string
	var capturedAgency *uuid.UUID
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		capturedRole = actor.Role
		capturedName = actor.Name
		capturedAgency = AgencyIDFromContext(r.Context())
		if actor.ID == nil {
			t.Error("expected actor id in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if capturedRole != enums.ActorRoleAgencyOwner {
		t.Fatalf("expected agency role got %s", capturedRole)
	}
	if capturedName != "Test Actor" {
		t.Fatalf("unexpected actor name %q", capturedName)
	}
	if capturedAgency == nil || *capturedAgency != agencyID {
		t.Fatalf("expected agency %s in context", agencyID)
	}
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, enums.ActorRoleCustomer, nil)

	handler := Auth(cfg, nil)(RequireRoles(nil, enums.ActorRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
