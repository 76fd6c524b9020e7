package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog_aggregator/internal/domain"
)

// devToCacheControl mirrors the 15-minute response cache the hosting layer
// applies to the Dev.to list path.
const devToCacheControl = "public, s-maxage=900, stale-while-revalidate=59"

func (s *Server) handleListPosts(c *gin.Context) {
	src := normalizeSource(c.DefaultQuery("source", s.cfg.Blog.PrimarySource))
	limit := parseLimit(c.Query("limit"), 10)

	srcCfg, known := s.lookupSource(src)
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported source: %s", src)})
		return
	}
	if !srcCfg.Enabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Source %s is not enabled", src)})
		return
	}

	if username := c.Query("username"); username != "" {
		srcCfg.Username = username
	}

	var (
		posts []domain.Post
		err   error
	)
	switch src {
	case domain.SourceDevTo:
		posts, err = s.fetchDevToPosts(c.Request.Context(), srcCfg, limit)
		if err == nil {
			c.Header("Cache-Control", devToCacheControl)
		}
	case domain.SourceHashnode:
		posts, err = s.fetchHashnodePosts(c.Request.Context(), srcCfg, limit)
	default:
		err = fmt.Errorf("%s integration not implemented", src)
	}

	if err != nil {
		s.logger.Error("list fetch failed", "source", src, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch posts: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"source": src,
		"total":  len(posts),
		"limit":  limit,
	})
}

func (s *Server) handleGetPost(c *gin.Context) {
	id := c.Param("id")
	src := normalizeSource(c.DefaultQuery("source", s.cfg.Blog.PrimarySource))

	srcCfg, known := s.lookupSource(src)
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported source: %s", src)})
		return
	}
	if !srcCfg.Enabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Source %s is not enabled", src)})
		return
	}

	var (
		post *domain.Post
		err  error
	)
	switch src {
	case domain.SourceDevTo:
		post, err = s.fetchDevToPost(c.Request.Context(), srcCfg, id)
	case domain.SourceHashnode:
		post, err = s.fetchHashnodePost(c.Request.Context(), srcCfg, id)
	default:
		err = fmt.Errorf("%s integration not implemented", src)
	}

	if err != nil {
		s.logger.Error("post fetch failed", "source", src, "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch post: %v", err)})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":   post,
		"source": src,
	})
}

func (s *Server) handleFeed(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), s.cfg.Blog.PostsPerPage)

	var posts []domain.Post
	switch view := c.DefaultQuery("view", "all"); view {
	case "all":
		posts = s.loader.GetAllPosts(c.Request.Context(), limit, true)
	case "featured":
		posts = s.loader.GetFeaturedPosts(c.Request.Context(), limit)
	case "recent":
		posts = s.loader.GetRecentPosts(c.Request.Context(), limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported view: %s", view)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": len(posts),
		"limit": limit,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter: q"})
		return
	}

	limit := parseLimit(c.Query("limit"), s.cfg.Blog.PostsPerPage)
	src := c.Query("source")

	posts := s.loader.SearchPosts(c.Request.Context(), query, limit, src)
	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"query": query,
		"total": len(posts),
		"limit": limit,
	})
}

func (s *Server) handlePostsByTag(c *gin.Context) {
	tag := c.Param("tag")
	limit := parseLimit(c.Query("limit"), s.cfg.Blog.PostsPerPage)
	src := c.Query("source")

	posts := s.loader.GetPostsByTag(c.Request.Context(), tag, limit, src)
	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"tag":   tag,
		"total": len(posts),
		"limit": limit,
	})
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.loader.Stats())
}

func (s *Server) handleClearCache(c *gin.Context) {
	s.loader.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
