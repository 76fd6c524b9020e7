package devto

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
)

const (
	SourceID      = "dev"
	defaultAPIURL = "https://dev.to/api"
)

// Source implements source.Adapter for the Dev.to REST API.
type Source struct {
	httpClient *http.Client
	apiURL     string
	username   string
	profileURL string
	logger     *slog.Logger
}

// New creates a new Dev.to source.
func New(cfg config.SourceConfig, logger *slog.Logger) *Source {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := 30 * time.Second

	return &Source{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		username:   cfg.Username,
		profileURL: cfg.ProfileURL,
		logger:     logger.With("source", SourceID),
	}
}

func (s *Source) Source() string {
	return SourceID
}

// FetchPosts fetches up to limit most-recent articles. A 404 from the list
// endpoint means nothing published, not a failure.
func (s *Source) FetchPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(limit))
	if s.username != "" {
		q.Set("username", s.username)
	}
	reqURL := fmt.Sprintf("%s/articles?%s", s.apiURL, q.Encode())

	resp, err := s.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []domain.Post{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dev.to list: unexpected status: %d", resp.StatusCode)
	}

	var articles []Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	posts := make([]domain.Post, 0, len(articles))
	for _, a := range articles {
		posts = append(posts, s.FormatPost(a))
	}
	return posts, nil
}

// FetchPost fetches one article by id. A 404 is a normal not-found outcome
// and yields (nil, nil).
func (s *Source) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	reqURL := fmt.Sprintf("%s/articles/%s", s.apiURL, url.PathEscape(id))

	resp, err := s.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dev.to article %s: unexpected status: %d", id, resp.StatusCode)
	}

	var article Article
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	post := s.FormatPost(article)
	return &post, nil
}

func (s *Source) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "BlogAggregator/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// FormatPost maps a raw Dev.to article to the canonical Post. Pure, no I/O;
// missing optional fields become the canonical defaults.
func (s *Source) FormatPost(a Article) domain.Post {
	publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		s.logger.Warn("failed to parse published_at",
			"external_id", a.ID,
			"published_at", a.PublishedAt,
		)
		publishedAt = time.Time{}
	}

	content := a.BodyHTML
	if content == nil {
		content = a.BodyMarkdown
	}

	author := domain.Author{
		Name:     s.username,
		Username: s.username,
		URL:      s.authorURL(),
	}
	if a.User != nil {
		author.Name = a.User.Name
		author.Username = a.User.Username
		author.ProfileImage = a.User.ProfileImage
		if a.User.Username != "" {
			author.URL = "https://dev.to/" + a.User.Username
		}
	}

	tags := []string(a.TagList)
	if tags == nil {
		tags = []string{}
	}

	return domain.Post{
		ID:                 fmt.Sprint(a.ID),
		Title:              a.Title,
		Description:        a.Description,
		Content:            content,
		Slug:               a.Slug,
		URL:                a.URL,
		CanonicalURL:       a.CanonicalURL,
		CoverImage:         a.CoverImage,
		PublishedAt:        publishedAt,
		ReadingTimeMinutes: a.ReadingTimeMinutes,
		Tags:               tags,
		Author:             author,
		Stats: domain.PostStats{
			Reactions: a.ReactionsCount,
			Comments:  a.CommentsCount,
			Views:     a.PageViewsCount,
		},
		Source: SourceID,
	}
}

func (s *Source) authorURL() string {
	if s.profileURL != "" {
		return s.profileURL
	}
	if s.username != "" {
		return "https://dev.to/" + s.username
	}
	return "https://dev.to"
}
