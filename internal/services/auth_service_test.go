package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
)

type authFixture struct {
	svc    *AuthService
	users  *memUsers
	tokens *memResetTokens
	store  *ResetTokenStore
	mailer *fakeMailer
	issuer *auth.TokenIssuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  newMemUsers(),
		tokens: newMemResetTokens(),
		mailer: &fakeMailer{},
		issuer: auth.NewTokenIssuer("secret", "todo-api", time.Hour),
	}
	f.store = NewResetTokenStore(f.tokens, time.Hour)
	f.svc = NewAuthService(AuthServiceDeps{
		Users:       f.users,
		Tokens:      f.store,
		Issuer:      f.issuer,
		Hasher:      testHasher(t),
		Mailer:      f.mailer,
		FrontendURL: "https://app.example.com/",
		Logger:      zerolog.Nop(),
	})
	return f
}

func signup(email string) *models.SignupRequest {
	return &models.SignupRequest{
		FirstName: "Alice",
		LastName:  "Doe",
		Email:     email,
		Phone:     "+250788000000",
		Password:  "Secret123",
	}
}

func (f *authFixture) register(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), signup(email))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func TestRegisterCreatesUserAndSendsActivation(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "Alice@X.com")

	if u.Email != "alice@x.com" || u.Role != models.RoleUser || u.IsEmailVerified {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "Secret123" {
		t.Fatalf("password stored in plaintext")
	}

	mail := f.mailer.last(t)
	if mail.to != "alice@x.com" || mail.subject != "Account Activation" {
		t.Fatalf("unexpected mail %+v", mail)
	}
	if !strings.Contains(mail.body, "https://app.example.com/auth/verify-email?token=") {
		t.Fatalf("activation link missing: %q", mail.body)
	}
	if len(f.tokens.forUser(u.ID)) != 1 {
		t.Fatalf("expected one stored token")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@x.com")

	_, err := f.svc.Register(context.Background(), signup("ALICE@x.com"))
	if interfaces.KindOf(err) != interfaces.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	var appErr *interfaces.AppError
	if !errors.As(err, &appErr) || appErr.Message != "Account already exists" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRegisterKeepsUserWhenMailFails(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), signup("alice@x.com"))
	if interfaces.KindOf(err) != interfaces.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, err := f.users.GetByEmail(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("user should persist after mail failure: %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice@x.com")

	res, ok, err := f.svc.Login(context.Background(), "alice@x.com", "Secret123")
	if err != nil || !ok {
		t.Fatalf("Login = %v, %v", ok, err)
	}
	claims, err := f.issuer.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != u.ID || claims.Role != models.RoleUser || claims.Username != "alice@x.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if res.TokenType != "Bearer" || res.User.ID != u.ID {
		t.Fatalf("unexpected response %+v", res)
	}

	if _, ok, err := f.svc.Login(context.Background(), "alice@x.com", "Wrong123"); ok || err != nil {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}
	if _, ok, err := f.svc.Login(context.Background(), "nobody@x.com", "Secret123"); ok || err != nil {
		t.Fatalf("unknown email: ok=%v err=%v", ok, err)
	}
}

func TestForgotPassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice@x.com")

	err := f.svc.ForgotPassword(context.Background(), "nobody@x.com")
	if interfaces.KindOf(err) != interfaces.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	before := time.Now()
	if err := f.svc.ForgotPassword(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	mail := f.mailer.last(t)
	if mail.subject != "Password Reset Request" || !strings.Contains(mail.body, "/reset-password?token=") {
		t.Fatalf("unexpected mail %+v", mail)
	}

	raw := tokenFromLink(t, mail.body)
	stored := f.tokens.byHash[hashResetToken(raw)]
	if stored == nil || stored.UserID != u.ID {
		t.Fatalf("reset token not stored by hash")
	}
	if d := stored.ExpiresAt.Sub(before); d < 59*time.Minute || d > 61*time.Minute {
		t.Fatalf("expected ~1h expiry, got %v", d)
	}
}

func TestVerifyEmailPurgesTokens(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice@x.com")
	raw := tokenFromLink(t, f.mailer.last(t).body)
	if err := f.svc.ForgotPassword(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	if err := f.svc.VerifyEmail(context.Background(), raw); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	got, _ := f.users.GetByID(context.Background(), u.ID)
	if !got.IsEmailVerified {
		t.Fatalf("email not marked verified")
	}
	if n := len(f.tokens.forUser(u.ID)); n != 0 {
		t.Fatalf("expected all tokens purged, %d left", n)
	}

	err := f.svc.VerifyEmail(context.Background(), raw)
	if interfaces.KindOf(err) != interfaces.KindBadRequest {
		t.Fatalf("second use should be bad request, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@x.com")
	if err := f.svc.ForgotPassword(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	raw := tokenFromLink(t, f.mailer.last(t).body)

	if err := f.svc.ResetPassword(context.Background(), raw, "NewSecret456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, ok, _ := f.svc.Login(context.Background(), "alice@x.com", "Secret123"); ok {
		t.Fatalf("old password still works")
	}
	if _, ok, _ := f.svc.Login(context.Background(), "alice@x.com", "NewSecret456"); !ok {
		t.Fatalf("new password rejected")
	}

	err := f.svc.ResetPassword(context.Background(), raw, "Another789")
	if interfaces.KindOf(err) != interfaces.KindBadRequest {
		t.Fatalf("reused token should be bad request, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice@x.com")

	f.store.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := f.store.Issue(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	f.store.now = time.Now

	err = f.svc.ResetPassword(context.Background(), raw, "NewSecret456")
	var appErr *interfaces.AppError
	if !errors.As(err, &appErr) || appErr.Kind != interfaces.KindBadRequest || appErr.Message != "Invalid or expired token" {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestResetPasswordUserVanished(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "alice@x.com")
	raw, err := f.store.Issue(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_ = f.users.Delete(context.Background(), u.ID)

	err = f.svc.ResetPassword(context.Background(), raw, "NewSecret456")
	if interfaces.KindOf(err) != interfaces.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLogoutIsNoop(t *testing.T) {
	if err := newAuthFixture(t).svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}
