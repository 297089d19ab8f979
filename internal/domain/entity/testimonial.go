package entity

import "time"

// Testimonial is a paid user's public review. Each user has at most one.
type Testimonial struct {
	ID        string
	UserID    string
	Name      string
	Content   string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TestimonialInput is the user-supplied part of a testimonial.
type TestimonialInput struct {
	Name    string `json:"name" validate:"min=1,max=40"`
	Content string `json:"content" validate:"min=10,max=1000"`
	Avatar  string `json:"avatar" validate:"url"`
}

var testimonialMessages = map[string]string{
	"name.min":    "Name is required",
	"name.max":    "Name must be at most 40 characters",
	"content.min": "Testimonial must be at least 10 characters",
	"content.max": "Testimonial must be at most 1000 characters",
	"avatar.url":  "Invalid avatar URL",
}

// Validate checks field lengths and the avatar URL syntax. It does not run
// the avatar admission pipeline.
func (in TestimonialInput) Validate() error {
	return validateStruct(in, testimonialMessages)
}
