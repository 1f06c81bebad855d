package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/repository"
)

// Page sizes are fixed per feed, not client-tunable.
const (
	HomePageSize = 15
	UserPageSize = 5
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

func (s *PostService) Create(ctx context.Context, userID string, f form.Post) (*model.Post, error) {
	post := &model.Post{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      f.Title,
		Slug:       slug.Make(f.Title),
		Content:    f.Content,
		DatePosted: time.Now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*model.Post, error) {
	return s.postRepo.FindByID(ctx, postID)
}

// Update edits title and content of the caller's own post. Existence is
// checked before ownership: a missing post is 404, someone else's is 403.
func (s *PostService) Update(ctx context.Context, userID, postID string, f form.Post) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, common.ErrForbidden
	}

	post.Title = f.Title
	post.Slug = slug.Make(f.Title)
	post.Content = f.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return common.ErrForbidden
	}
	return s.postRepo.Delete(ctx, postID)
}

// Feed returns the global feed page, newest first. A page past the end is
// an empty list, not an error.
func (s *PostService) Feed(ctx context.Context, page int) ([]model.Post, int, error) {
	if page < 1 {
		page = 1
	}
	posts, err := s.postRepo.List(ctx, HomePageSize, (page-1)*HomePageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UserFeed returns one user's posts, newest first. An unknown username is
// a not-found failure.
func (s *PostService) UserFeed(ctx context.Context, username string, page int) (*model.User, []model.Post, int, error) {
	if page < 1 {
		page = 1
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, 0, err
	}
	posts, err := s.postRepo.ListByUserID(ctx, user.ID, UserPageSize, (page-1)*UserPageSize)
	if err != nil {
		return nil, nil, 0, err
	}
	total, err := s.postRepo.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	return user, posts, total, nil
}
