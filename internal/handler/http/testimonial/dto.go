// Package testimonial provides the HTTP handlers for the testimonial wall.
package testimonial

import (
	"time"

	"opensox-api/internal/domain/entity"
)

// DTO is a testimonial as shown on the wall.
type DTO struct {
	ID        string    `json:"id" example:"2f1c7a0e-5b7d-4d7e-9a4e-0c1d2b3a4f5e"`
	UserID    string    `json:"userId" example:"user_123"`
	Name      string    `json:"name" example:"Ada"`
	Content   string    `json:"content" example:"Opensox helped me land my first open source PR."`
	Avatar    string    `json:"avatar" example:"https://avatars.githubusercontent.com/u/1"`
	CreatedAt time.Time `json:"createdAt" example:"2025-06-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2025-06-01T12:00:00Z"`
}

// MineResponse wraps the caller's testimonial, which may be null.
type MineResponse struct {
	Testimonial *DTO `json:"testimonial"`
}

// SubmitRequest is the body of POST /testimonials.
type SubmitRequest struct {
	Name    string `json:"name" example:"Ada"`
	Content string `json:"content" example:"Opensox helped me land my first open source PR."`
	Avatar  string `json:"avatar" example:"https://avatars.githubusercontent.com/u/1"`
}

// AvatarCheckRequest is the body of POST /testimonials/avatar/check.
type AvatarCheckRequest struct {
	URL string `json:"url" example:"https://avatars.githubusercontent.com/u/1"`
}

// AvatarCheckResponse reports the admission verdict for one URL.
type AvatarCheckResponse struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty" example:"host_not_trusted"`
	Message string `json:"message,omitempty" example:"Avatar host not allowed: example.com"`
}

func toDTO(t *entity.Testimonial) DTO {
	return DTO{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		Content:   t.Content,
		Avatar:    t.Avatar,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toDTOs(ts []*entity.Testimonial) []DTO {
	out := make([]DTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, toDTO(t))
	}
	return out
}
