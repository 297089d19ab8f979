package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/domain/entity"
	sessUC "opensox-api/internal/usecase/session"
)

type stubSubs struct {
	sub *entity.Subscription
	err error
}

func (s stubSubs) GetActive(context.Context, string, time.Time) (*entity.Subscription, error) {
	return s.sub, s.err
}

type stubRepo struct {
	sessions []*entity.WeeklySession
	errs     []error
	calls    int
}

func (r *stubRepo) ListWithTopics(context.Context) ([]*entity.WeeklySession, error) {
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return r.sessions, nil
}

var (
	now    = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	active = &entity.Subscription{ID: "s1", Status: entity.SubscriptionActive}
)

func newService(repo *stubRepo, subs stubSubs) *sessUC.Service {
	return &sessUC.Service{
		Repo:          repo,
		Subscriptions: subs,
		Now:           func() time.Time { return now },
		RetryDelay:    time.Millisecond,
	}
}

func TestService_GetAll(t *testing.T) {
	repo := &stubRepo{sessions: []*entity.WeeklySession{{ID: "w2"}, {ID: "w1"}}}

	got, err := newService(repo, stubSubs{sub: active}).GetAll(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "w2", got[0].ID)
}

func TestService_GetAll_NoSubscription(t *testing.T) {
	repo := &stubRepo{}
	_, err := newService(repo, stubSubs{}).GetAll(context.Background(), "u1")

	assert.ErrorIs(t, err, sessUC.ErrSubscriptionRequired)
	assert.Equal(t, "Active subscription required to access sessions", err.Error())
	assert.Zero(t, repo.calls)
}

func TestService_GetAll_ExpiredSubscription(t *testing.T) {
	end := now.Add(-time.Hour)
	sub := &entity.Subscription{Status: entity.SubscriptionActive, EndDate: &end}

	_, err := newService(&stubRepo{}, stubSubs{sub: sub}).GetAll(context.Background(), "u1")
	assert.ErrorIs(t, err, sessUC.ErrSubscriptionRequired)
}

func TestService_GetAll_RetriesTransientFetchErrors(t *testing.T) {
	repo := &stubRepo{
		errs:     []error{&pgconn.PgError{Code: "08006"}, nil},
		sessions: []*entity.WeeklySession{{ID: "w1"}},
	}

	got, err := newService(repo, stubSubs{sub: active}).GetAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, repo.calls)
}

func TestService_GetAll_FetchErrorIsSanitised(t *testing.T) {
	repo := &stubRepo{errs: []error{errors.New("relation \"weekly_sessions\" does not exist")}}

	_, err := newService(repo, stubSubs{sub: active}).GetAll(context.Background(), "u1")
	assert.ErrorIs(t, err, sessUC.ErrFetchFailed)
	assert.NotContains(t, err.Error(), "weekly_sessions")
}

func TestService_GetAll_SubscriptionLookupError(t *testing.T) {
	_, err := newService(&stubRepo{}, stubSubs{err: errors.New("boom")}).GetAll(context.Background(), "u1")
	assert.ErrorIs(t, err, sessUC.ErrFetchFailed)
}
