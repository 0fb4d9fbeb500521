package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"todo/internal/interfaces"
	"todo/internal/models"
	"todo/internal/response"
	"todo/internal/validation"
)

type authService interface {
	Register(ctx context.Context, req *models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, bool, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	svc authService
	v   *validation.Validator
}

func NewAuthHandler(svc authService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{svc: svc, v: v}
}

// @Tags Auth
// @Summary Register a new account
// @Description Creates the user and emails an activation link.
// @Accept json
// @Produce json
// @Param body body models.SignupRequest true "Signup request"
// @Success 201 {object} response.Envelope{data=models.Profile}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated,
		"User registered successfully. Please check your email to activate your account.",
		u.Profile())
}

// @Tags Auth
// @Summary Log in
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login request"
// @Success 200 {object} response.Envelope{data=models.LoginResponse}
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	res, ok, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if !ok {
		response.Error(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	response.JSON(w, http.StatusOK, "Logged in successfully", res)
}

// @Tags Auth
// @Summary Request a password reset link
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Password reset link sent", nil)
}

// VerifyEmail accepts the token as ?token= (the emailed link) or in a JSON body.
//
// @Tags Auth
// @Summary Verify an email address
// @Accept json
// @Produce json
// @Param token query string false "Verification token"
// @Param body body models.VerifyEmailRequest false "Verification token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/auth/verify-email [get]
// @Router /api/v1/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		var req models.VerifyEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.FromError(w, r, interfaces.BadRequest("Invalid request body"))
			return
		}
		token = strings.TrimSpace(req.Token)
	}
	if token == "" {
		response.Error(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), token); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Email verified successfully", nil)
}

// @Tags Auth
// @Summary Reset a password with an emailed token
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Password reset successfully", nil)
}

// Logout is a no-op; the access token stays valid until it expires.
//
// @Tags Auth
// @Summary Log out
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Logged out successfully", nil)
}
