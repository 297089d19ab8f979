package entity

import "time"

// Newsletter is one published issue. ID is the URL slug.
type Newsletter struct {
	ID          string
	Title       string
	Description string
	Excerpt     string
	Content     string
	Link        string
	Date        time.Time
	ReadTime    string
	Tags        []string
}
