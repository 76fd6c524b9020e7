package domain

import "time"

// Source identifiers as they appear in configuration and API requests.
const (
	SourceDevTo    = "dev"
	SourceHashnode = "hashnode"
	SourceMedium   = "medium"
)

// Post is the canonical, source-independent shape every adapter produces.
// All top-level fields are always present (possibly zero-valued) so consumers
// never branch per source.
type Post struct {
	ID                 string    `json:"id" db:"external_id"`
	Title              string    `json:"title" db:"title"`
	Description        string    `json:"description" db:"description"`
	Content            *string   `json:"content" db:"content"`
	Slug               string    `json:"slug" db:"slug"`
	URL                string    `json:"url" db:"url"`
	CanonicalURL       string    `json:"canonicalUrl" db:"canonical_url"`
	CoverImage         *string   `json:"coverImage" db:"cover_image"`
	PublishedAt        time.Time `json:"publishedAt" db:"published_at"`
	ReadingTimeMinutes *int      `json:"readingTimeMinutes" db:"reading_time_minutes"`
	Tags               []string  `json:"tags"`
	Author             Author    `json:"author"`
	Stats              PostStats `json:"stats"`
	Source             string    `json:"source" db:"source"`
}

type Author struct {
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	ProfileImage *string `json:"profileImage"`
	URL          string  `json:"url"`
}

type PostStats struct {
	Reactions int `json:"reactions"`
	Comments  int `json:"comments"`
	Views     int `json:"views"`
}
