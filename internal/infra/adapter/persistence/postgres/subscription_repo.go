package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/repository"
)

type SubscriptionRepo struct{ db DBTX }

func NewSubscriptionRepo(db DBTX) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

func (repo *SubscriptionRepo) GetActive(ctx context.Context, userID string, now time.Time) (*entity.Subscription, error) {
	const query = `
SELECT id, user_id, plan_id, status, start_date, end_date
FROM subscriptions
WHERE user_id = $1
  AND status = 'active'
  AND (end_date IS NULL OR end_date >= $2)
ORDER BY start_date DESC
LIMIT 1`
	var (
		s       entity.Subscription
		status  string
		endDate sql.NullTime
	)
	err := repo.db.QueryRowContext(ctx, query, userID, now).Scan(
		&s.ID, &s.UserID, &s.PlanID, &status, &s.StartDate, &endDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetActive: %w", err)
	}
	s.Status = entity.SubscriptionStatus(status)
	if endDate.Valid {
		end := endDate.Time
		s.EndDate = &end
	}
	return &s, nil
}

func (repo *SubscriptionRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
UPDATE subscriptions
SET status = 'expired'
WHERE status = 'active'
  AND end_date IS NOT NULL
  AND end_date < $1`
	res, err := repo.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("ExpireOverdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ExpireOverdue: %w", err)
	}
	return n, nil
}
