package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	authsvc "meytle/internal/app/services/auth"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/infra/security"
	"meytle/internal/infra/storage/memory"
)

// newAuthFixture registers a user holding both the client and companion
// roles and returns a router exercising the auth middleware plus the user's
// bearer token.
func newAuthFixture(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUserRepository()
	svc := &authsvc.Service{
		Users:      users,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
	ctx := context.Background()
	registered, err := svc.Register(ctx, authsvc.RegisterParams{
		Email:    "dual@example.com",
		Name:     "Dual Role",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := users.ByID(ctx, registered.User.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if err := user.EnsureRole(domainuser.RoleCompanion, time.Now()); err != nil {
		t.Fatalf("grant companion: %v", err)
	}
	if err := users.Save(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	router := gin.New()
	router.Use(AuthMiddleware{Service: svc}.Handle)
	router.GET("/whoami", func(c *gin.Context) {
		p, ok := currentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active_role": p.ActiveRole})
	})
	router.GET("/companion-only", func(c *gin.Context) {
		if _, ok := requireRole(c, "companion"); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router, registered.Token
}

func doRequest(t *testing.T, router *gin.Engine, path, token, activeRole string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if activeRole != "" {
		req.Header.Set(activeRoleHeader, activeRole)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func activeRoleOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ActiveRole string `json:"active_role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.ActiveRole
}

func TestActiveRoleDefaultsToClient(t *testing.T) {
	router, token := newAuthFixture(t)
	rec := doRequest(t, router, "/whoami", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if role := activeRoleOf(t, rec); role != "client" {
		t.Fatalf("active role = %q, want client", role)
	}
}

func TestActiveRoleHeaderSelectsHeldRole(t *testing.T) {
	router, token := newAuthFixture(t)
	rec := doRequest(t, router, "/whoami", token, "companion")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if role := activeRoleOf(t, rec); role != "companion" {
		t.Fatalf("active role = %q, want companion", role)
	}
}

func TestActiveRoleHeaderRejectsUnheldRole(t *testing.T) {
	router, token := newAuthFixture(t)
	rec := doRequest(t, router, "/whoami", token, "admin")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRoleChecksActiveRole(t *testing.T) {
	router, token := newAuthFixture(t)

	// Acting as a client, the companion surface is off limits even though
	// the role is held.
	rec := doRequest(t, router, "/companion-only", token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 while acting as client", rec.Code)
	}

	rec = doRequest(t, router, "/companion-only", token, "companion")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 while acting as companion", rec.Code)
	}
}

func TestSelectActiveRole(t *testing.T) {
	cases := []struct {
		name      string
		requested string
		roles     []string
		want      string
		ok        bool
	}{
		{"default prefers client", "", []string{"client", "companion"}, "client", true},
		{"single role user", "", []string{"admin"}, "admin", true},
		{"explicit held role", "Companion", []string{"client", "companion"}, "companion", true},
		{"explicit unheld role", "admin", []string{"client"}, "", false},
		{"no roles", "", nil, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := selectActiveRole(tc.requested, tc.roles)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("selectActiveRole(%q, %v) = %q, %v; want %q, %v",
					tc.requested, tc.roles, got, ok, tc.want, tc.ok)
			}
		})
	}
}
