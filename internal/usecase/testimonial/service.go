package testimonial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/infra/avatar"
	"opensox-api/internal/infra/cache"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/repository"
)

const (
	// CacheKey holds the serialized testimonial list.
	CacheKey = "testimonials:all"
	// DefaultCacheTTL is how long the list stays cached.
	DefaultCacheTTL = 300 * time.Second

	cacheName = "testimonials"
)

// AvatarChecker runs the avatar admission pipeline. *avatar.Validator
// implements it.
type AvatarChecker interface {
	Validate(ctx context.Context, raw string) avatar.Verdict
}

// PaidChecker reports whether a user has paid access.
type PaidChecker interface {
	IsPaidUser(ctx context.Context, userID string) (bool, error)
}

// Service provides testimonial use cases.
type Service struct {
	Repo    repository.TestimonialRepository
	Subs    PaidChecker
	Avatars AvatarChecker
	Cache   cache.Cache

	// CacheTTL defaults to DefaultCacheTTL.
	CacheTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultCacheTTL
}

// testimonialDoc is the cached form of a testimonial.
type testimonialDoc struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDocs(ts []*entity.Testimonial) []testimonialDoc {
	docs := make([]testimonialDoc, 0, len(ts))
	for _, t := range ts {
		docs = append(docs, testimonialDoc(*t))
	}
	return docs
}

func fromDocs(docs []testimonialDoc) []*entity.Testimonial {
	out := make([]*entity.Testimonial, 0, len(docs))
	for _, d := range docs {
		t := entity.Testimonial(d)
		out = append(out, &t)
	}
	return out
}

// GetAll returns every testimonial newest first, served from the cache when
// possible. Cache failures fall through to the repository.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Testimonial, error) {
	if s.Cache != nil {
		var docs []testimonialDoc
		err := cache.GetJSON(ctx, s.Cache, CacheKey, &docs)
		switch {
		case err == nil:
			metrics.RecordCacheLookup(cacheName, "hit")
			slog.Debug("testimonials cache hit", slog.Int("count", len(docs)))
			return fromDocs(docs), nil
		case errors.Is(err, cache.ErrMiss):
			metrics.RecordCacheLookup(cacheName, "miss")
			slog.Debug("testimonials cache miss")
		default:
			metrics.RecordCacheLookup(cacheName, "error")
			slog.Warn("testimonials cache read failed", slog.Any("error", err))
		}
	}
	return s.load(ctx)
}

// WarmCache reloads the list from the repository into the cache and returns
// how many testimonials were cached.
func (s *Service) WarmCache(ctx context.Context) (int, error) {
	ts, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(ts), nil
}

func (s *Service) load(ctx context.Context) ([]*entity.Testimonial, error) {
	ts, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	if s.Cache != nil {
		if err := cache.SetJSON(ctx, s.Cache, CacheKey, toDocs(ts), s.cacheTTL()); err != nil {
			slog.Warn("testimonials cache write failed", slog.Any("error", err))
		}
	}
	return ts, nil
}

// GetMine returns the caller's testimonial, or nil when they have none.
// Only paid users may read it.
func (s *Service) GetMine(ctx context.Context, userID string) (*entity.Testimonial, error) {
	if err := s.requirePaid(ctx, userID); err != nil {
		return nil, err
	}
	t, err := s.Repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return t, nil
}

// Submit validates the input, checks paid access, runs the avatar pipeline,
// then creates or replaces the caller's testimonial and invalidates the
// cached list.
//
// A rejected avatar is returned as *avatar.RejectionError.
func (s *Service) Submit(ctx context.Context, userID string, in entity.TestimonialInput) (*entity.Testimonial, error) {
	if err := in.Validate(); err != nil {
		metrics.RecordTestimonialSubmitted("invalid")
		return nil, err
	}
	if err := s.requirePaid(ctx, userID); err != nil {
		if errors.Is(err, ErrPremiumRequired) {
			metrics.RecordTestimonialSubmitted("forbidden")
		}
		return nil, err
	}

	if err := s.checkAvatar(ctx, in.Avatar).Err(); err != nil {
		metrics.RecordTestimonialSubmitted("rejected")
		return nil, err
	}

	now := s.now()
	saved, err := s.Repo.Upsert(ctx, &entity.Testimonial{
		ID:        s.newID(),
		UserID:    userID,
		Name:      in.Name,
		Content:   in.Content,
		Avatar:    in.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		metrics.RecordTestimonialSubmitted("error")
		return nil, fmt.Errorf("save testimonial: %w", err)
	}
	metrics.RecordTestimonialSubmitted("created")

	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, CacheKey); err != nil {
			slog.Warn("testimonials cache invalidation failed", slog.Any("error", err))
		}
	}

	slog.Info("testimonial saved",
		slog.String("user_id", userID),
		slog.String("testimonial_id", saved.ID))
	return saved, nil
}

// CheckAvatar runs the avatar pipeline on raw for live form feedback.
func (s *Service) CheckAvatar(ctx context.Context, raw string) avatar.Verdict {
	return s.checkAvatar(ctx, raw)
}

func (s *Service) checkAvatar(ctx context.Context, raw string) avatar.Verdict {
	start := time.Now()
	v := s.Avatars.Validate(ctx, raw)
	metrics.RecordAvatarVerdict(string(v.Reason), v.Accepted, time.Since(start))

	if v.Unexpected() {
		slog.Error("avatar validation failed unexpectedly",
			slog.String("url", raw),
			slog.Any("error", v.Cause))
	} else if !v.Accepted {
		slog.Info("avatar rejected",
			slog.String("reason", string(v.Reason)))
	}
	return v
}

func (s *Service) requirePaid(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	paid, err := s.Subs.IsPaidUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if !paid {
		return ErrPremiumRequired
	}
	return nil
}
