package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/repository"
)

type TestimonialRepo struct{ db DBTX }

func NewTestimonialRepo(db DBTX) repository.TestimonialRepository {
	return &TestimonialRepo{db: db}
}

const testimonialColumns = `id, user_id, name, content, avatar, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTestimonial(r rowScanner) (*entity.Testimonial, error) {
	var t entity.Testimonial
	if err := r.Scan(&t.ID, &t.UserID, &t.Name, &t.Content, &t.Avatar, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (repo *TestimonialRepo) List(ctx context.Context) ([]*entity.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + `
FROM testimonials
ORDER BY created_at DESC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	testimonials := make([]*entity.Testimonial, 0, 32)
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		testimonials = append(testimonials, t)
	}
	return testimonials, rows.Err()
}

func (repo *TestimonialRepo) GetByUser(ctx context.Context, userID string) (*entity.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + `
FROM testimonials
WHERE user_id = $1
LIMIT 1`
	t, err := scanTestimonial(repo.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUser: %w", err)
	}
	return t, nil
}

func (repo *TestimonialRepo) Upsert(ctx context.Context, t *entity.Testimonial) (*entity.Testimonial, error) {
	query := `
INSERT INTO testimonials (id, user_id, name, content, avatar, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id) DO UPDATE
SET name = EXCLUDED.name,
    content = EXCLUDED.content,
    avatar = EXCLUDED.avatar,
    updated_at = EXCLUDED.updated_at
RETURNING ` + testimonialColumns
	saved, err := scanTestimonial(repo.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.Name, t.Content, t.Avatar, t.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("Upsert: %w", err)
	}
	return saved, nil
}
