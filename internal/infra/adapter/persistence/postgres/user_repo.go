package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/repository"
)

type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *UserRepo) Get(ctx context.Context, id string) (*entity.User, error) {
	const query = `
SELECT id, email, first_name, completed_steps, created_at
FROM users
WHERE id = $1
LIMIT 1`
	var (
		u     entity.User
		steps []byte
	)
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.FirstName, &steps, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if u.CompletedSteps, err = decodeSteps(steps); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &u, nil
}

func (repo *UserRepo) UpdateCompletedSteps(ctx context.Context, userID string, steps []string) ([]string, error) {
	const query = `
UPDATE users
SET completed_steps = $2::jsonb
WHERE id = $1
RETURNING completed_steps`
	if steps == nil {
		steps = []string{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("UpdateCompletedSteps: %w", err)
	}

	var stored []byte
	err = repo.db.QueryRowContext(ctx, query, userID, string(raw)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateCompletedSteps: %w", err)
	}
	out, err := decodeSteps(stored)
	if err != nil {
		return nil, fmt.Errorf("UpdateCompletedSteps: %w", err)
	}
	return out, nil
}

func decodeSteps(raw []byte) ([]string, error) {
	steps := []string{}
	if len(raw) == 0 {
		return steps, nil
	}
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("unmarshal completed_steps: %w", err)
	}
	if steps == nil {
		steps = []string{}
	}
	return steps, nil
}
