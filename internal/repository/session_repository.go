package repository

import (
	"context"

	"opensox-api/internal/domain/entity"
)

type SessionRepository interface {
	// ListWithTopics returns sessions newest first, each with its topics in order.
	ListWithTopics(ctx context.Context) ([]*entity.WeeklySession, error)
}
