package repository

import (
	"context"
	"time"

	"opensox-api/internal/domain/entity"
)

type SubscriptionRepository interface {
	// GetActive returns the user's subscription that is active at now, or nil.
	GetActive(ctx context.Context, userID string, now time.Time) (*entity.Subscription, error)
	// ExpireOverdue marks active subscriptions whose end date is before now
	// as expired and returns how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
