package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/repository"
	"opensox-api/internal/resilience/retry"
)

// Status is the paid state of a user.
type Status struct {
	IsPaidUser   bool
	Subscription *entity.Subscription
}

// Service provides subscription use cases.
type Service struct {
	Repo repository.SubscriptionRepository

	// Now defaults to time.Now.
	Now func() time.Time
	// Retry defaults to retry.DBConfig("subscription check").
	Retry *retry.Config
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) retryConfig() retry.Config {
	if s.Retry != nil {
		return *s.Retry
	}
	return retry.DBConfig("subscription check")
}

// Status returns whether the user has an active subscription at the current
// time, along with that subscription.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, ErrUserIDRequired
	}

	now := s.now()
	start := time.Now()
	sub, err := retry.Do(ctx, s.retryConfig(), func() (*entity.Subscription, error) {
		return s.Repo.GetActive(ctx, userID, now)
	})
	metrics.RecordDBQuery("subscription check", time.Since(start))
	if err != nil {
		slog.Error("subscription check failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return Status{}, fmt.Errorf("get active subscription: %w", err)
	}

	if !sub.IsActiveAt(now) {
		return Status{}, nil
	}
	return Status{IsPaidUser: true, Subscription: sub}, nil
}

// IsPaidUser reports whether the user currently has paid access.
func (s *Service) IsPaidUser(ctx context.Context, userID string) (bool, error) {
	st, err := s.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.IsPaidUser, nil
}

// ExpireOverdue marks active subscriptions past their end date as expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.Repo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue subscriptions: %w", err)
	}
	metrics.RecordSubscriptionsExpired(n)
	if n > 0 {
		slog.Info("expired overdue subscriptions",
			slog.Int64("count", n),
			slog.Time("as_of", now))
	}
	return n, nil
}
