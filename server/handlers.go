package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/search"
	"github.com/hrygo/paperseek/store"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

// handleSearch answers GET /search/:query. The response is a JSON array of
// paper ids ranked by similarity; ?scores=1 switches to objects carrying
// the score (and summary text when searching that namespace).
func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.Param("query"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "query cannot be empty",
		})
	}

	opts := &search.Options{}
	if namespace := c.QueryParam("namespace"); namespace != "" {
		ns := store.Namespace(namespace)
		if !ns.IsValid() {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "bad_request",
				Message: "unknown namespace: " + namespace,
			})
		}
		opts.Namespace = ns
	}
	if topK := c.QueryParam("top_k"); topK != "" {
		n, err := strconv.Atoi(topK)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "bad_request",
				Message: "top_k must be a positive integer",
			})
		}
		opts.TopK = n
	}

	started := time.Now()
	results, err := s.search.Search(c.Request().Context(), query, opts)
	if s.searchLatency != nil {
		s.searchLatency.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrUpstream):
			return c.JSON(http.StatusBadGateway, errorResponse{
				Error:   "upstream_failure",
				Message: "embedding service unavailable",
			})
		case errors.Is(err, store.ErrIndexNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{
				Error:   "not_found",
				Message: "vector index not found; run ingestion first",
			})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{
				Error:   "internal",
				Message: "search failed",
			})
		}
	}

	if c.QueryParam("scores") == "1" {
		return c.JSON(http.StatusOK, results)
	}
	return c.JSON(http.StatusOK, search.IDs(results))
}
