package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/domain"
	"blog_aggregator/internal/source/devto"
	"blog_aggregator/internal/source/hashnode"
)

// The list and detail routes call the upstream APIs directly instead of
// going through the loader: they bypass the in-memory cache and rely on the
// response-cache header instead. The field mapping here deliberately
// parallels the adapters rather than delegating to them, keeping the two
// code paths and their caching behavior independent.

var directClient = &http.Client{Timeout: 30 * time.Second}

func (s *Server) fetchDevToPosts(ctx context.Context, cfg config.SourceConfig, limit int) ([]domain.Post, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://dev.to/api"
	}

	q := url.Values{}
	q.Set("per_page", fmt.Sprint(limit))
	if cfg.Username != "" {
		q.Set("username", cfg.Username)
	}

	var articles []devto.Article
	status, err := getJSON(ctx, fmt.Sprintf("%s/articles?%s", apiURL, q.Encode()), &articles)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []domain.Post{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("dev.to list: unexpected status: %d", status)
	}

	posts := make([]domain.Post, 0, len(articles))
	for _, a := range articles {
		posts = append(posts, mapDevToArticle(a, cfg))
	}
	return posts, nil
}

func (s *Server) fetchDevToPost(ctx context.Context, cfg config.SourceConfig, id string) (*domain.Post, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://dev.to/api"
	}

	var article devto.Article
	status, err := getJSON(ctx, fmt.Sprintf("%s/articles/%s", apiURL, url.PathEscape(id)), &article)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("dev.to article %s: unexpected status: %d", id, status)
	}

	post := mapDevToArticle(article, cfg)
	return &post, nil
}

func mapDevToArticle(a devto.Article, cfg config.SourceConfig) domain.Post {
	publishedAt, _ := time.Parse(time.RFC3339, a.PublishedAt)

	content := a.BodyHTML
	if content == nil {
		content = a.BodyMarkdown
	}

	author := domain.Author{
		Name:     cfg.Username,
		Username: cfg.Username,
		URL:      cfg.ProfileURL,
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
		Source: domain.SourceDevTo,
	}
}

const directHashnodeListQuery = `
query UserPosts($username: String!, $pageSize: Int!) {
	user(username: $username) {
		posts(pageSize: $pageSize, page: 1) {
			edges {
				node {
					id title brief slug url canonicalUrl publishedAt
					readTimeInMinutes reactionCount responseCount views
					coverImage { url }
					tags { name }
					author { name username profilePicture }
				}
			}
		}
	}
}`

const directHashnodeDetailQuery = `
query PostByID($id: ID!) {
	post(id: $id) {
		id title brief slug url canonicalUrl publishedAt
		readTimeInMinutes reactionCount responseCount views
		coverImage { url }
		tags { name }
		author { name username profilePicture }
		content { html }
	}
}`

func (s *Server) fetchHashnodePosts(ctx context.Context, cfg config.SourceConfig, limit int) ([]domain.Post, error) {
	var resp struct {
		Data struct {
			User *struct {
				Posts struct {
					Edges []struct {
						Node hashnode.PostNode `json:"node"`
					} `json:"edges"`
				} `json:"posts"`
			} `json:"user"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	err := s.hashnodeQuery(ctx, cfg, directHashnodeListQuery, map[string]any{
		"username": cfg.Username,
		"pageSize": limit,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("hashnode query: %s", resp.Errors[0].Message)
	}
	if resp.Data.User == nil {
		return []domain.Post{}, nil
	}

	posts := make([]domain.Post, 0, len(resp.Data.User.Posts.Edges))
	for _, edge := range resp.Data.User.Posts.Edges {
		posts = append(posts, mapHashnodePost(edge.Node, cfg))
	}
	return posts, nil
}

func (s *Server) fetchHashnodePost(ctx context.Context, cfg config.SourceConfig, id string) (*domain.Post, error) {
	var resp struct {
		Data struct {
			Post *hashnode.PostNode `json:"post"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	err := s.hashnodeQuery(ctx, cfg, directHashnodeDetailQuery, map[string]any{"id": id}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("hashnode query: %s", resp.Errors[0].Message)
	}
	if resp.Data.Post == nil {
		return nil, nil
	}

	post := mapHashnodePost(*resp.Data.Post, cfg)
	return &post, nil
}

func mapHashnodePost(n hashnode.PostNode, cfg config.SourceConfig) domain.Post {
	publishedAt, _ := time.Parse(time.RFC3339, n.PublishedAt)

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
		Name:     cfg.Username,
		Username: cfg.Username,
		URL:      cfg.ProfileURL,
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
		Source: domain.SourceHashnode,
	}
}

func (s *Server) hashnodeQuery(ctx context.Context, cfg config.SourceConfig, query string, variables map[string]any, out any) error {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://gql.hashnode.com"
	}

	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BlogAggregator/1.0")

	resp, err := directClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hashnode: unexpected status: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// getJSON performs a GET and decodes the body when the status is 200. The
// status is always returned so callers can treat 404 as a domain outcome.
func getJSON(ctx context.Context, reqURL string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "BlogAggregator/1.0")

	resp, err := directClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
