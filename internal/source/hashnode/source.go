package hashnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
)

const (
	SourceID      = "hashnode"
	defaultAPIURL = "https://gql.hashnode.com"
)

// listQuery intentionally omits content: the upstream list query does not
// return post bodies, so list results carry Content == nil.
const listQuery = `
query UserPosts($username: String!, $pageSize: Int!) {
	user(username: $username) {
		posts(pageSize: $pageSize, page: 1) {
			edges {
				node {
					id
					title
					brief
					slug
					url
					canonicalUrl
					publishedAt
					readTimeInMinutes
					reactionCount
					responseCount
					views
					coverImage { url }
					tags { name }
					author { name username profilePicture }
				}
			}
		}
	}
}`

const detailQuery = `
query PostByID($id: ID!) {
	post(id: $id) {
		id
		title
		brief
		slug
		url
		canonicalUrl
		publishedAt
		readTimeInMinutes
		reactionCount
		responseCount
		views
		coverImage { url }
		tags { name }
		author { name username profilePicture }
		content { html }
	}
}`

// Source implements source.Adapter for the Hashnode GraphQL API.
type Source struct {
	httpClient *http.Client
	apiURL     string
	username   string
	profileURL string
	logger     *slog.Logger
}

// New creates a new Hashnode source.
func New(cfg config.SourceConfig, logger *slog.Logger) *Source {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Source{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		username:   cfg.Username,
		profileURL: cfg.ProfileURL,
		logger:     logger.With("source", SourceID),
	}
}

func (s *Source) Source() string {
	return SourceID
}

// FetchPosts fetches up to limit most-recent posts for the configured user.
// An unknown user yields an empty list, not a failure.
func (s *Source) FetchPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	body, err := s.query(ctx, listQuery, map[string]any{
		"username": s.username,
		"pageSize": limit,
	})
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("hashnode query: %s", resp.Errors[0].Message)
	}
	if resp.Data.User == nil {
		return []domain.Post{}, nil
	}

	posts := make([]domain.Post, 0, len(resp.Data.User.Posts.Edges))
	for _, edge := range resp.Data.User.Posts.Edges {
		posts = append(posts, s.FormatPost(edge.Node))
	}
	return posts, nil
}

// FetchPost fetches one post by Hashnode id; (nil, nil) when the post does
// not exist.
func (s *Source) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	body, err := s.query(ctx, detailQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("hashnode query: %s", resp.Errors[0].Message)
	}
	if resp.Data.Post == nil {
		return nil, nil
	}

	post := s.FormatPost(*resp.Data.Post)
	return &post, nil
}

// query posts a GraphQL request and returns the raw response body. A
// transport-level non-200 is a failure; a 200 body may still carry a
// non-empty errors array, which callers treat as a failure too.
func (s *Source) query(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BlogAggregator/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hashnode: unexpected status: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatPost maps a raw Hashnode post node to the canonical Post.
func (s *Source) FormatPost(n PostNode) domain.Post {
	publishedAt, err := time.Parse(time.RFC3339, n.PublishedAt)
	if err != nil {
		s.logger.Warn("failed to parse publishedAt",
			"external_id", n.ID,
			"publishedAt", n.PublishedAt,
		)
		publishedAt = time.Time{}
	}

	var content *string
	if n.Content != nil {
		content = &n.Content.HTML
	}

	var coverImage *string
	if n.CoverImage != nil && n.CoverImage.URL != "" {
		coverImage = &n.CoverImage.URL
	}

	tags := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, t.Name)
	}

	author := domain.Author{
		Name:     s.username,
		Username: s.username,
		URL:      s.authorURL(),
	}
	if n.Author != nil {
		author.Name = n.Author.Name
		author.Username = n.Author.Username
		author.ProfileImage = n.Author.ProfilePicture
		if n.Author.Username != "" {
			author.URL = "https://hashnode.com/@" + n.Author.Username
		}
	}

	canonical := n.CanonicalURL
	if canonical == "" {
		canonical = n.URL
	}

	return domain.Post{
		ID:                 n.ID,
		Title:              n.Title,
		Description:        n.Brief,
		Content:            content,
		Slug:               n.Slug,
		URL:                n.URL,
		CanonicalURL:       canonical,
		CoverImage:         coverImage,
		PublishedAt:        publishedAt,
		ReadingTimeMinutes: n.ReadTimeInMinutes,
		Tags:               tags,
		Author:             author,
		Stats: domain.PostStats{
			Reactions: n.ReactionCount,
			Comments:  n.ResponseCount,
			Views:     n.Views,
		},
		Source: SourceID,
	}
}

func (s *Source) authorURL() string {
	if s.profileURL != "" {
		return s.profileURL
	}
	if s.username != "" {
		return "https://hashnode.com/@" + s.username
	}
	return "https://hashnode.com"
}
