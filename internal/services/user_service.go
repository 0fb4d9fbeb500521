package services

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
)

type UserService struct {
	users  interfaces.UserRepository
	hasher auth.PasswordHasher
	images ImageStore
	policy *auth.Policy
}

func NewUserService(users interfaces.UserRepository, hasher auth.PasswordHasher, images ImageStore, policy *auth.Policy) *UserService {
	return &UserService{users: users, hasher: hasher, images: images, policy: policy}
}

func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Subject, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}

	if err := s.users.UpdateProfile(ctx, caller.UserID, req); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrUserNotFound):
			return nil, interfaces.NotFound("User not found")
		case errors.Is(err, interfaces.ErrEmailTaken):
			return nil, interfaces.Conflict("Account already exists")
		}
		return nil, interfaces.Internal(err)
	}
	return s.profile(ctx, caller.UserID)
}

// ChangePassword requires the current password even for the account owner.
func (s *UserService) ChangePassword(ctx context.Context, caller auth.Subject, userID string, req *models.ChangePasswordRequest) error {
	if !s.policy.CanAccess(caller, auth.ActionUpdate, auth.Resource{Kind: auth.ResourceUser, OwnerID: userID}) {
		return interfaces.Forbidden("You are not allowed to change this password")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return interfaces.NotFound("User not found")
		}
		return interfaces.Internal(err)
	}

	ok, err := s.hasher.Compare(u.PasswordHash, req.CurrentPassword)
	if err != nil {
		return interfaces.Internal(err)
	}
	if !ok {
		return interfaces.Unauthorized("Invalid current password")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return interfaces.Internal(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return interfaces.NotFound("User not found")
		}
		return interfaces.Internal(err)
	}
	return nil
}

// UploadImage stores the image under a fresh key and points the profile at it.
func (s *UserService) UploadImage(ctx context.Context, caller auth.Subject, userID, filename, contentType string, body io.Reader) (*models.Profile, error) {
	if !s.policy.CanAccess(caller, auth.ActionUpdate, auth.Resource{Kind: auth.ResourceUser, OwnerID: userID}) {
		return nil, interfaces.Forbidden("You are not allowed to update this profile")
	}
	if s.images == nil {
		return nil, interfaces.Internal(errors.New("image store not configured"))
	}

	key := path.Join("profile-images", userID, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	url, err := s.images.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, interfaces.Internal(err)
	}

	if err := s.users.UpdateImageURL(ctx, userID, url); err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return nil, interfaces.NotFound("User not found")
		}
		return nil, interfaces.Internal(err)
	}
	return s.profile(ctx, userID)
}

func (s *UserService) List(ctx context.Context, caller auth.Subject, page models.PageRequest) (models.Page[models.Profile], error) {
	if !s.policy.CanAccess(caller, auth.ActionList, auth.Resource{Kind: auth.ResourceUser}) {
		return models.Page[models.Profile]{}, interfaces.Forbidden("Forbidden resource")
	}

	users, err := s.users.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return models.Page[models.Profile]{}, interfaces.Internal(err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return models.Page[models.Profile]{}, interfaces.Internal(err)
	}

	profiles := make([]models.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return models.NewPage(profiles, page, total), nil
}

func (s *UserService) Get(ctx context.Context, caller auth.Subject, userID string) (*models.Profile, error) {
	if !s.policy.CanAccess(caller, auth.ActionRead, auth.Resource{Kind: auth.ResourceUser, OwnerID: userID}) {
		return nil, interfaces.Forbidden("You are not allowed to view this user")
	}
	return s.profile(ctx, userID)
}

func (s *UserService) profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return nil, interfaces.NotFound("User not found")
		}
		return nil, interfaces.Internal(err)
	}
	p := u.Profile()
	return &p, nil
}
