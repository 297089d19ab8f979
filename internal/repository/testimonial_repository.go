package repository

import (
	"context"

	"opensox-api/internal/domain/entity"
)

type TestimonialRepository interface {
	// List returns every testimonial, newest first.
	List(ctx context.Context) ([]*entity.Testimonial, error)
	GetByUser(ctx context.Context, userID string) (*entity.Testimonial, error)
	// Upsert creates or replaces the user's single testimonial.
	Upsert(ctx context.Context, t *entity.Testimonial) (*entity.Testimonial, error)
}
