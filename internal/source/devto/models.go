package devto

import (
	"encoding/json"
	"strings"
)

// Article represents the Dev.to API article structure.
type Article struct {
	ID                 int     `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	BodyHTML           *string `json:"body_html"`
	BodyMarkdown       *string `json:"body_markdown"`
	Slug               string  `json:"slug"`
	URL                string  `json:"url"`
	CanonicalURL       string  `json:"canonical_url"`
	CoverImage         *string `json:"cover_image"`
	PublishedAt        string  `json:"published_at"`
	ReadingTimeMinutes *int    `json:"reading_time_minutes"`
	TagList            TagList `json:"tag_list"`
	User               *User   `json:"user"`
	ReactionsCount     int     `json:"public_reactions_count"`
	CommentsCount      int     `json:"comments_count"`
	PageViewsCount     int     `json:"page_views_count"`
}

type User struct {
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	ProfileImage *string `json:"profile_image"`
}

// TagList tolerates both shapes the API uses: the list endpoint returns an
// array of strings, the detail endpoint a comma-separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var asSlice []string
	if err := json.Unmarshal(data, &asSlice); err == nil {
		*t = asSlice
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	if asString == "" {
		*t = nil
		return nil
	}

	parts := strings.Split(asString, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	*t = tags
	return nil
}
