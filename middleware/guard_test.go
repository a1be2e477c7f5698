package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventhive/authcore"
	"github.com/eventhive/authcore/rbac"
	"github.com/eventhive/authcore/store/memstore"
)

func newGuardedService(t *testing.T) (*authcore.AuthService, *memstore.UserStore) {
	t.Helper()

	users := memstore.NewUserStore()
	sessions := memstore.NewSessionStore(users)

	cfg := authcore.DefaultConfig()
	cfg.Password.BcryptCost = bcrypt.MinCost
	service, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(users).
		WithSessionStore(sessions).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(service.Close)

	return service, users
}

func signUp(t *testing.T, service *authcore.AuthService, email string) *authcore.AuthResult {
	t.Helper()
	result, err := service.SignUp(context.Background(), email, "Str0ngPass", "")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return result
}

// okHandler records whether the guard let the request through and what
// user it resolved.
type okHandler struct {
	called bool
	user   *authcore.CurrentUser
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.user, _ = CurrentUserFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doRequest(t *testing.T, handler http.Handler, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardRejectsMissingToken(t *testing.T) {
	service, _ := newGuardedService(t)
	inner := &okHandler{}
	handler := Guard(service, rbac.Requirement{Required: true})(inner)

	for _, header := range []string{"", "Bearer ", "Basic abc", "sometoken"} {
		rec := doRequest(t, handler, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
	if inner.called {
		t.Fatal("handler reached without credentials")
	}
}

func TestGuardRejectsUnknownToken(t *testing.T) {
	service, _ := newGuardedService(t)
	inner := &okHandler{}
	handler := Guard(service, rbac.Requirement{Required: true})(inner)

	rec := doRequest(t, handler, "Bearer not-a-real-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardPassesValidToken(t *testing.T) {
	service, _ := newGuardedService(t)
	result := signUp(t, service, "alice@example.com")

	inner := &okHandler{}
	handler := Guard(service, rbac.Requirement{Required: true})(inner)

	rec := doRequest(t, handler, "Bearer "+result.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !inner.called {
		t.Fatal("handler never reached")
	}
	if inner.user == nil || inner.user.User.Email != "alice@example.com" {
		t.Fatalf("context user = %+v", inner.user)
	}
}

func TestGuardRejectsRevokedToken(t *testing.T) {
	service, _ := newGuardedService(t)
	result := signUp(t, service, "alice@example.com")
	service.SignOut(context.Background(), result.Token)

	inner := &okHandler{}
	handler := Guard(service, rbac.Requirement{Required: true})(inner)

	rec := doRequest(t, handler, "Bearer "+result.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRoleForbidsInsufficientRole(t *testing.T) {
	service, _ := newGuardedService(t)
	result := signUp(t, service, "alice@example.com")

	inner := &okHandler{}
	handler := RequireRole(service, rbac.RoleAdmin)(inner)

	// New accounts hold the user role, not admin.
	rec := doRequest(t, handler, "Bearer "+result.Token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if inner.called {
		t.Fatal("handler reached despite insufficient role")
	}
}

func TestRequireRoleAllowsPromotedAccount(t *testing.T) {
	service, users := newGuardedService(t)
	result := signUp(t, service, "root@example.com")

	role := rbac.RoleAdmin
	if _, err := users.Update(context.Background(), result.User.ID, authcore.UserUpdate{Role: &role}); err != nil {
		t.Fatalf("promote account: %v", err)
	}

	inner := &okHandler{}
	handler := RequireRole(service, rbac.RoleAdmin)(inner)

	rec := doRequest(t, handler, "Bearer "+result.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequirePermissionsDemandsAll(t *testing.T) {
	service, users := newGuardedService(t)
	result := signUp(t, service, "organizer@example.com")

	role := rbac.RoleOrganizer
	if _, err := users.Update(context.Background(), result.User.ID, authcore.UserUpdate{Role: &role}); err != nil {
		t.Fatalf("promote account: %v", err)
	}

	allowed := RequirePermissions(service, rbac.PermReadEvents, rbac.PermWriteEvents)(&okHandler{})
	rec := doRequest(t, allowed, "Bearer "+result.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("organizer with both permissions: status = %d, want 200", rec.Code)
	}

	// One held permission out of two is not enough under all-of semantics.
	denied := RequirePermissions(service, rbac.PermReadEvents, rbac.PermManageUsers)(&okHandler{})
	rec = doRequest(t, denied, "Bearer "+result.Token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("organizer missing manage:users: status = %d, want 403", rec.Code)
	}
}

func TestCurrentUserFromContextMissing(t *testing.T) {
	if cu, ok := CurrentUserFromContext(context.Background()); ok || cu != nil {
		t.Fatalf("bare context resolved a user: %+v", cu)
	}
}
