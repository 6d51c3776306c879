package users

import (
	"context"
	"errors"
	"fmt"

	"loopyard/internal/auth"
	"loopyard/internal/store"
	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

// Store defines persistence operations required for account workflows.
type Store interface {
	CreateUser(ctx context.Context, email, username, nickname, passwordHash string) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.UserWithPassword, error)
	UserByID(ctx context.Context, id int64) (*store.User, error)
	PasswordHashByID(ctx context.Context, id int64) (string, error)
	UpdateUser(ctx context.Context, id int64, patch store.UserPatch) (*store.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UserStatistics(ctx context.Context, userID int64) (*store.UserStats, error)
}

// Service handles registration, login and profile workflows.
type Service struct {
	store       Store
	tokens      *auth.TokenManager
	attachments upload.Store
}

// New constructs a users Service.
func New(st Store, tokens *auth.TokenManager, attachments upload.Store) *Service {
	return &Service{store: st, tokens: tokens, attachments: attachments}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=50"`
	Nickname string `json:"nickname" validate:"max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, in.Email, in.Username, in.Nickname, hash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a token pair. An unknown email burns
// a dummy bcrypt comparison so timing does not reveal account existence.
func (s *Service) Login(ctx context.Context, email, password string) (auth.TokenPair, *store.User, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.CompareDummy(password)
			return auth.TokenPair{}, nil, store.ErrInvalidCredentials
		}
		return auth.TokenPair{}, nil, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return auth.TokenPair{}, nil, store.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return auth.TokenPair{}, nil, err
	}

	return pair, &user.User, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.TypeRefresh)
	if err != nil {
		return auth.TokenPair{}, err
	}

	// The account may have been deactivated since the token was issued.
	if _, err := s.store.UserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.TokenPair{}, auth.ErrInvalidToken
		}
		return auth.TokenPair{}, err
	}

	return s.tokens.IssuePair(claims.UserID)
}

// Profile returns the user's own profile.
func (s *Service) Profile(ctx context.Context, userID int64) (*store.User, error) {
	return s.store.UserByID(ctx, userID)
}

// ProfileInput carries a partial profile update.
type ProfileInput struct {
	Nickname *string      `json:"nickname" validate:"omitempty,max=50"`
	Bio      *string      `json:"bio"`
	Image    *upload.File `json:"-"`
}

// UpdateProfile applies a partial update to the user's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*store.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("profile_image", in.Image); err != nil {
		return nil, err
	}

	patch := store.UserPatch{Nickname: in.Nickname, Bio: in.Bio}

	if in.Image != nil {
		path, err := s.attachments.Save(ctx, upload.KindProfileImage, in.Image.Name, in.Image.Reader)
		if err != nil {
			return nil, fmt.Errorf("store profile image: %w", err)
		}
		patch.ProfileImage = &path
	}

	return s.store.UpdateUser(ctx, userID, patch)
}

// ChangePasswordInput carries a password change request.
type ChangePasswordInput struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// ChangePassword verifies the current credential and replaces it.
func (s *Service) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.NewPassword != in.NewPasswordConfirm {
		return validate.Field("new_password_confirm", "passwords do not match")
	}

	hash, err := s.store.PasswordHashByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(in.OldPassword, hash); err != nil {
		return validate.Field("old_password", "current password is incorrect")
	}

	newHash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	return s.store.UpdatePassword(ctx, userID, newHash)
}

// Statistics aggregates the user's own content counters.
func (s *Service) Statistics(ctx context.Context, userID int64) (*store.UserStats, error) {
	return s.store.UserStatistics(ctx, userID)
}
