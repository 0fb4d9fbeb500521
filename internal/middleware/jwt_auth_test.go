package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
	"todo/internal/response"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, interfaces.ErrUserNotFound
}

func issue(t *testing.T, issuer *auth.TokenIssuer, sub string, role models.Role) string {
	t.Helper()
	token, _, err := issuer.Issue(auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: sub}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func serve(h http.Handler, authHeader string) (*httptest.ResponseRecorder, response.Envelope) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env response.Envelope
	_ = json.NewDecoder(rr.Body).Decode(&env)
	return rr, env
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "no user", http.StatusInternalServerError)
			return
		}
		response.JSON(w, http.StatusOK, u.ID, nil)
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "todo-api", time.Hour)
	users := stubUsers{"u1": {ID: "u1", Role: models.RoleUser}}
	h := Authenticate(issuer, users)(okHandler())

	rr, env := serve(h, "")
	if rr.Code != http.StatusUnauthorized || env.Message != "Token not provided" {
		t.Fatalf("missing header: %d %+v", rr.Code, env)
	}

	rr, env = serve(h, "Bearer garbage")
	if rr.Code != http.StatusUnauthorized || env.Message != "Invalid token" {
		t.Fatalf("bad token: %d %+v", rr.Code, env)
	}

	rr, env = serve(h, "Bearer "+issue(t, issuer, "ghost", models.RoleUser))
	if rr.Code != http.StatusUnauthorized || env.Message != "User not found" {
		t.Fatalf("deleted user: %d %+v", rr.Code, env)
	}

	rr, env = serve(h, "Bearer "+issue(t, issuer, "u1", models.RoleUser))
	if rr.Code != http.StatusOK || env.Message != "u1" {
		t.Fatalf("valid token: %d %+v", rr.Code, env)
	}
}

type failingUsers struct{}

func (failingUsers) GetByID(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticateStoreFailure(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "todo-api", time.Hour)
	h := Authenticate(issuer, failingUsers{})(okHandler())

	rr, env := serve(h, "Bearer "+issue(t, issuer, "u1", models.RoleUser))
	if rr.Code != http.StatusInternalServerError || env.Message != "Internal server error" {
		t.Fatalf("expected 500, got %d %+v", rr.Code, env)
	}
}

func TestRequireRolesUsesStoredRole(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "todo-api", time.Hour)
	// the token claims admin but the stored role is user
	users := stubUsers{
		"u1": {ID: "u1", Role: models.RoleUser},
		"a1": {ID: "a1", Role: models.RoleAdmin},
	}
	h := Authenticate(issuer, users)(RequireRoles(models.RoleAdmin)(okHandler()))

	rr, env := serve(h, "Bearer "+issue(t, issuer, "u1", models.RoleAdmin))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %+v", rr.Code, env)
	}

	rr, _ = serve(h, "Bearer "+issue(t, issuer, "a1", models.RoleAdmin))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rr.Code)
	}
}

func TestRequireRolesWithoutAuthenticate(t *testing.T) {
	rr, _ := serve(RequireRoles(models.RoleUser)(okHandler()), "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := bearerToken("bearer abc"); !ok || tok != "abc" {
		t.Fatalf("case-insensitive scheme not accepted")
	}
	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		if _, ok := bearerToken(h); ok {
			t.Errorf("%q should not yield a token", h)
		}
	}
}
