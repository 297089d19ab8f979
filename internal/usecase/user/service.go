package user

import (
	"context"
	"errors"
	"fmt"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/repository"
	"opensox-api/internal/usecase/subscription"
)

// StatusReader reports a user's subscription status.
type StatusReader interface {
	Status(ctx context.Context, userID string) (subscription.Status, error)
}

type Service struct {
	Repo          repository.UserRepository
	Subscriptions StatusReader
}

// Count returns the total number of users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	metrics.UpdateUsersTotal(n)
	return n, nil
}

// SubscriptionStatus returns whether the user is on an active paid plan.
func (s *Service) SubscriptionStatus(ctx context.Context, userID string) (subscription.Status, error) {
	return s.Subscriptions.Status(ctx, userID)
}

// GetCompletedSteps returns the user's completed step IDs.
func (s *Service) GetCompletedSteps(ctx context.Context, userID string) ([]string, error) {
	u, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.CompletedSteps == nil {
		return []string{}, nil
	}
	return u.CompletedSteps, nil
}

// UpdateCompletedSteps replaces the user's steps and returns what was stored.
// Step IDs are trimmed; blanks are rejected and duplicates removed.
func (s *Service) UpdateCompletedSteps(ctx context.Context, userID string, in entity.StepsInput) ([]string, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	steps, err := s.Repo.UpdateCompletedSteps(ctx, userID, entity.NormalizeSteps(in.CompletedSteps))
	if errors.Is(err, entity.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update completed steps: %w", err)
	}
	return steps, nil
}
