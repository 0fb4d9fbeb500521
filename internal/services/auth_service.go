package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/metrics"
	"todo/internal/models"
)

type AuthService struct {
	users       interfaces.UserRepository
	tokens      *ResetTokenStore
	issuer      *auth.TokenIssuer
	hasher      auth.PasswordHasher
	mailer      EmailSender
	frontendURL string
	log         zerolog.Logger
}

type AuthServiceDeps struct {
	Users       interfaces.UserRepository
	Tokens      *ResetTokenStore
	Issuer      *auth.TokenIssuer
	Hasher      auth.PasswordHasher
	Mailer      EmailSender
	FrontendURL string
	Logger      zerolog.Logger
}

func NewAuthService(d AuthServiceDeps) *AuthService {
	return &AuthService{
		users:       d.Users,
		tokens:      d.Tokens,
		issuer:      d.Issuer,
		hasher:      d.Hasher,
		mailer:      d.Mailer,
		frontendURL: strings.TrimRight(d.FrontendURL, "/"),
		log:         d.Logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates the account and mails an activation link. A mail failure
// after the insert leaves the user in place and is reported as an error.
func (s *AuthService) Register(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, interfaces.Conflict("Account already exists")
	} else if !errors.Is(err, interfaces.ErrUserNotFound) {
		return nil, registrationFailed(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, registrationFailed(err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, interfaces.ErrEmailTaken) {
			return nil, interfaces.Conflict("Account already exists")
		}
		return nil, registrationFailed(err)
	}
	metrics.AuthEvents.WithLabelValues("register").Inc()

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, registrationFailed(err)
	}

	link := s.link("/auth/verify-email", token)
	body := fmt.Sprintf("Please activate your account by clicking the following link: %s", link)
	if err := s.mailer.Send(u.Email, "Account Activation", body); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("activation email failed")
		return nil, registrationFailed(err)
	}

	return u, nil
}

// Login returns ok=false for an unknown email or a wrong password. Both paths
// run one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, bool, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			s.hasher.CompareDummy(password)
			metrics.AuthEvents.WithLabelValues("login_failed").Inc()
			return nil, false, nil
		}
		return nil, false, interfaces.Internal(err)
	}

	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		return nil, false, interfaces.Internal(err)
	}
	if !ok {
		metrics.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, false, nil
	}

	token, expiresAt, err := s.issuer.Issue(auth.Claims{
		Username:         u.Email,
		Role:             u.Role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	})
	if err != nil {
		return nil, false, interfaces.Internal(err)
	}
	metrics.AuthEvents.WithLabelValues("login").Inc()

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        u.Profile(),
	}, true, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return interfaces.NotFound("User not found")
		}
		return interfaces.Internal(err)
	}

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return interfaces.Internal(err)
	}

	link := s.link("/reset-password", token)
	body := fmt.Sprintf("Please use the following link to reset your password: %s", link)
	if err := s.mailer.Send(u.Email, "Password Reset Request", body); err != nil {
		return interfaces.Internal(err)
	}
	metrics.AuthEvents.WithLabelValues("forgot_password").Inc()
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consume(ctx, token)
	if err != nil {
		return err
	}

	if err := s.users.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return interfaces.NotFound("User not found")
		}
		return interfaces.Internal(err)
	}

	if err := s.tokens.PurgeUser(ctx, userID); err != nil {
		return interfaces.Internal(err)
	}
	metrics.AuthEvents.WithLabelValues("verify_email").Inc()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.consume(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return interfaces.Internal(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return interfaces.NotFound("User not found")
		}
		return interfaces.Internal(err)
	}

	if err := s.tokens.PurgeUser(ctx, userID); err != nil {
		return interfaces.Internal(err)
	}
	metrics.AuthEvents.WithLabelValues("reset_password").Inc()
	return nil
}

// Logout does nothing server side. Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context) error {
	metrics.AuthEvents.WithLabelValues("logout").Inc()
	return nil
}

func (s *AuthService) consume(ctx context.Context, token string) (string, error) {
	userID, err := s.tokens.Consume(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpired) {
			return "", interfaces.BadRequest("Invalid or expired token")
		}
		return "", interfaces.Internal(err)
	}
	return userID, nil
}

func (s *AuthService) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func registrationFailed(err error) *interfaces.AppError {
	return &interfaces.AppError{
		Kind:    interfaces.KindInternal,
		Message: "An error occurred during registration.",
		Err:     err,
	}
}
