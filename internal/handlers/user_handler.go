package handlers

import (
	"context"
	"io"
	"net/http"

	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/middleware"
	"todo/internal/models"
	"todo/internal/response"
	"todo/internal/validation"
)

// MaxImageBytes caps a profile image upload.
const MaxImageBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type userService interface {
	UpdateProfile(ctx context.Context, caller auth.Subject, req *models.UpdateProfileRequest) (*models.Profile, error)
	ChangePassword(ctx context.Context, caller auth.Subject, userID string, req *models.ChangePasswordRequest) error
	UploadImage(ctx context.Context, caller auth.Subject, userID, filename, contentType string, body io.Reader) (*models.Profile, error)
	List(ctx context.Context, caller auth.Subject, page models.PageRequest) (models.Page[models.Profile], error)
	Get(ctx context.Context, caller auth.Subject, userID string) (*models.Profile, error)
}

type UserHandler struct {
	svc userService
	v   *validation.Validator
}

func NewUserHandler(svc userService, v *validation.Validator) *UserHandler {
	return &UserHandler{svc: svc, v: v}
}

// @Tags Account
// @Summary Update the caller's profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.Profile}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/v1/user/update-profile [put]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), middleware.SubjectFromContext(r.Context()), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Profile updated successfully", p)
}

// @Tags Account
// @Summary Change password
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/user/updatePassword/{id} [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req models.ChangePasswordRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), middleware.SubjectFromContext(r.Context()), id, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Password updated successfully", nil)
}

// UploadImage takes a single multipart "file" part. The content type is
// sniffed from the bytes, not taken from the part header.
//
// @Tags Account
// @Summary Upload a profile image
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "User ID"
// @Param file formData file true "Image (jpeg, png, gif or webp, max 5MB)"
// @Success 200 {object} response.Envelope{data=models.Profile}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/v1/user/uploadImage/{id} [post]
func (h *UserHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		response.FromError(w, r, interfaces.BadRequest("Failed to parse form").Wrap(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.FromError(w, r, interfaces.BadRequest("file is required").Wrap(err))
		return
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		response.FromError(w, r, interfaces.BadRequest("Image must be 5MB or smaller"))
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		response.FromError(w, r, interfaces.BadRequest("Failed to read file").Wrap(err))
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if !allowedImageTypes[contentType] {
		response.FromError(w, r, interfaces.BadRequest("Only jpeg, png, gif or webp images are allowed"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		response.FromError(w, r, interfaces.Internal(err))
		return
	}

	p, err := h.svc.UploadImage(r.Context(), middleware.SubjectFromContext(r.Context()), id, header.Filename, contentType, file)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Image uploaded successfully", p)
}

// @Tags Account
// @Summary List users (admin)
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} response.Envelope{data=models.Page[models.Profile]}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/v1/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.svc.List(r.Context(), middleware.SubjectFromContext(r.Context()), page)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Users retrieved successfully", result)
}

// @Tags Account
// @Summary Get a user
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope{data=models.Profile}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	p, err := h.svc.Get(r.Context(), middleware.SubjectFromContext(r.Context()), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "User retrieved successfully", p)
}
