package hashnode

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog_aggregator/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(apiURL string) *Source {
	return New(config.SourceConfig{
		APIURL:   apiURL,
		Username: "bob",
	}, testLogger())
}

const listResponseBody = `{
	"data": {
		"user": {
			"posts": {
				"edges": [
					{
						"node": {
							"id": "abc123",
							"title": "Hello Hashnode",
							"brief": "an intro",
							"slug": "hello-hashnode",
							"url": "https://bob.hashnode.dev/hello-hashnode",
							"canonicalUrl": "",
							"publishedAt": "2024-03-05T08:30:00Z",
							"readTimeInMinutes": 6,
							"reactionCount": 9,
							"responseCount": 2,
							"views": 150,
							"coverImage": {"url": "https://cdn.hashnode.com/cover.png"},
							"tags": [{"name": "go"}, {"name": "api"}],
							"author": {
								"name": "Bob",
								"username": "bob",
								"profilePicture": "https://cdn.hashnode.com/bob.png"
							}
						}
					}
				]
			}
		}
	}
}`

func TestFetchPosts(t *testing.T) {
	var gotRequest graphQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listResponseBody))
	}))
	defer server.Close()

	posts, err := newTestSource(server.URL).FetchPosts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "bob", gotRequest.Variables["username"])
	assert.Equal(t, float64(3), gotRequest.Variables["pageSize"])
	assert.NotContains(t, gotRequest.Query, "content")

	post := posts[0]
	assert.Equal(t, "abc123", post.ID)
	assert.Equal(t, "Hello Hashnode", post.Title)
	assert.Equal(t, "an intro", post.Description)
	// List results never carry bodies.
	assert.Nil(t, post.Content)
	// Empty canonical falls back to the post URL.
	assert.Equal(t, post.URL, post.CanonicalURL)
	require.NotNil(t, post.CoverImage)
	assert.Equal(t, "https://cdn.hashnode.com/cover.png", *post.CoverImage)
	assert.Equal(t, []string{"go", "api"}, post.Tags)
	assert.Equal(t, 9, post.Stats.Reactions)
	assert.Equal(t, 2, post.Stats.Comments)
	assert.Equal(t, 150, post.Stats.Views)
	assert.Equal(t, "https://hashnode.com/@bob", post.Author.URL)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), post.PublishedAt)
	assert.Equal(t, SourceID, post.Source)
}

func TestFetchPosts_UnknownUserIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"user": null}}`))
	}))
	defer server.Close()

	posts, err := newTestSource(server.URL).FetchPosts(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchPosts_GraphQLErrorsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// GraphQL surfaces failures inside a 200 response.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"user": null}, "errors": [{"message": "rate limited"}]}`))
	}))
	defer server.Close()

	_, err := newTestSource(server.URL).FetchPosts(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFetchPosts_ServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestSource(server.URL).FetchPosts(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 502")
}

func TestFetchPost(t *testing.T) {
	var gotRequest graphQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"post": {
					"id": "abc123",
					"title": "Hello Hashnode",
					"slug": "hello-hashnode",
					"url": "https://bob.hashnode.dev/hello-hashnode",
					"publishedAt": "2024-03-05T08:30:00Z",
					"content": {"html": "<p>body</p>"}
				}
			}
		}`))
	}))
	defer server.Close()

	post, err := newTestSource(server.URL).FetchPost(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, "abc123", gotRequest.Variables["id"])
	assert.Contains(t, gotRequest.Query, "content")

	require.NotNil(t, post.Content)
	assert.Equal(t, "<p>body</p>", *post.Content)
	// Author block missing upstream falls back to the configured user.
	assert.Equal(t, "bob", post.Author.Username)
}

func TestFetchPost_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"post": null}}`))
	}))
	defer server.Close()

	post, err := newTestSource(server.URL).FetchPost(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestFetchPost_GraphQLErrorsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors": [{"message": "invalid id"}]}`))
	}))
	defer server.Close()

	_, err := newTestSource(server.URL).FetchPost(context.Background(), "!!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}
