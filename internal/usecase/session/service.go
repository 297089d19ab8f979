package session

import (
	"context"
	"log/slog"
	"time"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/repository"
	"opensox-api/internal/resilience/retry"
)

// SubscriptionFinder returns the user's active subscription or nil.
type SubscriptionFinder interface {
	GetActive(ctx context.Context, userID string, now time.Time) (*entity.Subscription, error)
}

// Service serves recorded weekly sessions to users with an active subscription.
type Service struct {
	Repo          repository.SessionRepository
	Subscriptions SubscriptionFinder

	Now func() time.Time
	// RetryDelay overrides the initial backoff of both DB reads.
	RetryDelay time.Duration
}

func (s *Service) retryConfig(operation string) retry.Config {
	cfg := retry.DBConfig(operation)
	if s.RetryDelay > 0 {
		cfg.InitialDelay = s.RetryDelay
	}
	return cfg
}

// GetAll returns every session with its topics for a user holding an active
// subscription.
func (s *Service) GetAll(ctx context.Context, userID string) ([]*entity.WeeklySession, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	sub, err := retry.Do(ctx, s.retryConfig("subscription check"), func() (*entity.Subscription, error) {
		return s.Subscriptions.GetActive(ctx, userID, now)
	})
	if err != nil {
		slog.Error("session access check failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil, ErrFetchFailed
	}
	if !sub.IsActiveAt(now) {
		return nil, ErrSubscriptionRequired
	}

	start := time.Now()
	sessions, err := retry.Do(ctx, s.retryConfig("session fetch"), func() ([]*entity.WeeklySession, error) {
		return s.Repo.ListWithTopics(ctx)
	})
	metrics.RecordDBQuery("session fetch", time.Since(start))
	if err != nil {
		slog.Error("session fetch failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil, ErrFetchFailed
	}
	return sessions, nil
}
