package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]model.Post, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
}

type pgPostRepository struct {
	db *sql.DB
}

func NewPgPostRepository(db *sql.DB) PostRepository {
	return &pgPostRepository{db: db}
}

func (r *pgPostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (id, user_id, title, slug, content, date_posted)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.UserID, post.Title, post.Slug, post.Content, post.DatePosted)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT p.id, p.user_id, p.title, p.slug, p.content, p.date_posted, u.username
	          FROM posts p JOIN users u ON u.id = p.user_id
	          WHERE p.id = $1`
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Title, &post.Slug, &post.Content, &post.DatePosted, &post.Author,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	return post, nil
}

// Update rewrites title, slug and content only. date_posted is immutable.
func (r *pgPostRepository) Update(ctx context.Context, post *model.Post) error {
	query := `UPDATE posts SET title = $2, slug = $3, content = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, post.ID, post.Title, post.Slug, post.Content)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgPostRepository) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	query := `SELECT p.id, p.user_id, p.title, p.slug, p.content, p.date_posted, u.username
	          FROM posts p JOIN users u ON u.id = p.user_id
	          ORDER BY p.date_posted DESC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgPostRepository.List: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *pgPostRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Post, error) {
	query := `SELECT p.id, p.user_id, p.title, p.slug, p.content, p.date_posted, u.username
	          FROM posts p JOIN users u ON u.id = p.user_id
	          WHERE p.user_id = $1
	          ORDER BY p.date_posted DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgPostRepository.ListByUserID: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *pgPostRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgPostRepository.Count: %w", err)
	}
	return total, nil
}

func (r *pgPostRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgPostRepository.CountByUserID: %w", err)
	}
	return total, nil
}

func scanPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := []model.Post{}
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Slug, &post.Content, &post.DatePosted, &post.Author,
		); err != nil {
			return nil, fmt.Errorf("scanPosts: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanPosts: %w", err)
	}
	return posts, nil
}
