package service

import (
	"context"
	"mime/multipart"

	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/repository"
)

// AvatarSaver stores an uploaded picture and returns the stored filename.
// Implemented by storage.AvatarStore.
type AvatarSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
}

type AccountService struct {
	userRepo repository.UserRepository
	avatars  AvatarSaver
}

func NewAccountService(userRepo repository.UserRepository, avatars AvatarSaver) *AccountService {
	return &AccountService{userRepo: userRepo, avatars: avatars}
}

func (s *AccountService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// Update applies an already validated account form. When a new avatar was
// uploaded it is resized and written to disk inline before the row update;
// a decode or disk failure aborts the whole operation.
func (s *AccountService) Update(ctx context.Context, userID string, f form.AccountUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if f.Avatar != nil {
		name, err := s.avatars.Save(f.Avatar)
		if err != nil {
			return nil, err
		}
		user.AvatarFile = name
	}
	user.Username = f.Username
	user.Email = f.Email

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
