// Package newsletter provides the HTTP handlers for the premium newsletter
// reader.
package newsletter

import (
	"time"

	"opensox-api/internal/common/pagination"
	"opensox-api/internal/domain/entity"
)

// DTO is one newsletter issue. Content is only set on the detail endpoint.
type DTO struct {
	ID          string    `json:"id" example:"issue-12"`
	Title       string    `json:"title" example:"Opensox Weekly #12"`
	Description string    `json:"description"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content,omitempty"`
	Link        string    `json:"link" example:"https://newsletter.opensox.ai/p/issue-12"`
	Date        time.Time `json:"date"`
	ReadTime    string    `json:"readTime" example:"4 min read"`
	Tags        []string  `json:"tags"`
}

// ListResponse is the paginated body of GET /newsletters.
type ListResponse = pagination.Response[DTO]

func toDTO(n entity.Newsletter) DTO {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return DTO{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Excerpt:     n.Excerpt,
		Content:     n.Content,
		Link:        n.Link,
		Date:        n.Date,
		ReadTime:    n.ReadTime,
		Tags:        tags,
	}
}
