package repository

import (
	"context"

	"opensox-api/internal/domain/entity"
)

type UserRepository interface {
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	// UpdateCompletedSteps replaces the user's steps and returns the stored value.
	// It returns entity.ErrNotFound when the user does not exist.
	UpdateCompletedSteps(ctx context.Context, userID string, steps []string) ([]string, error)
}
