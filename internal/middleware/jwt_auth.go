package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
	"todo/internal/response"
)

type ctxKey string

const ctxUser ctxKey = "user"

type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type userLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate extracts the bearer token, verifies it and loads the user it
// names. The loaded user, not the token claims, decides the caller's role.
func Authenticate(verifier tokenVerifier, users userLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.FromError(w, r, interfaces.Unauthorized("Token not provided"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("token rejected")
				response.FromError(w, r, interfaces.Unauthorized("Invalid token").Wrap(err))
				return
			}

			u, err := users.GetByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, interfaces.ErrUserNotFound) {
					response.FromError(w, r, interfaces.Unauthorized("User not found"))
					return
				}
				response.FromError(w, r, interfaces.Internal(err))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUser, u)
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", u.ID)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles must run after Authenticate.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				response.FromError(w, r, interfaces.Unauthorized("Token not provided"))
				return
			}
			if !auth.AllowsRole(u.Role, roles...) {
				response.FromError(w, r, interfaces.Forbidden("Forbidden resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxUser).(*models.User)
	return u, ok && u != nil
}

// SubjectFromContext returns the caller as seen by auth.Policy.
func SubjectFromContext(ctx context.Context) auth.Subject {
	u, ok := UserFromContext(ctx)
	if !ok {
		return auth.Subject{}
	}
	return auth.Subject{UserID: u.ID, Role: u.Role}
}

// WithUser is used by handlers under test to skip token verification.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
