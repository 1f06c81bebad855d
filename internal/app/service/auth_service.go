package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/repository"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/mail"
)

type AuthService struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
	resetExp time.Duration
	baseURL  string
}

func NewAuthService(userRepo repository.UserRepository, mailer mail.Mailer, resetExp time.Duration, baseURL string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mailer:   mailer,
		resetExp: resetExp,
		baseURL:  baseURL,
	}
}

// Register creates the account for an already validated registration form.
// A concurrent registration that slips past the form's check-then-insert is
// caught by the unique constraint and surfaces as common.ErrConflict.
func (s *AuthService) Register(ctx context.Context, f form.Registration) (*model.User, error) {
	hashedPassword, err := security.HashPassword(f.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       f.Username,
		Email:          f.Email,
		HashedPassword: hashedPassword,
		AvatarFile:     model.DefaultAvatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials. Unknown email and wrong password both
// collapse into ErrUnauthorized so the response never reveals which field
// was wrong.
func (s *AuthService) Login(ctx context.Context, f form.Login) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, f.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(f.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

// RequestReset issues a reset token for the account behind email and mails
// the reset link. Issuing has no side effects on the account itself.
func (s *AuthService) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := security.GenerateResetToken(user.ID, s.resetExp)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	resetURL := s.baseURL + "/reset_password/" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// VerifyResetToken resolves a reset token to the user it was issued for.
// A token for a user that no longer exists is as invalid as a forged one.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (*model.User, error) {
	userID, err := security.VerifyResetToken(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CompleteReset re-hashes and stores the new password for the token's user.
func (s *AuthService) CompleteReset(ctx context.Context, token string, f form.ResetPassword) error {
	user, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	hashedPassword, err := security.HashPassword(f.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword)
}
