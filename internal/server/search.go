package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/search"
)

type searchResponse struct {
	Query   string                   `json:"query"`
	Results []restorehq.SearchResult `json:"results"`
	Cached  bool                     `json:"cached"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := search.Options{Kind: restorehq.SearchKind(q.Get("kind"))}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("limit must be a positive integer: %w", restorehq.ErrValidation))
			return
		}
		opts.Limit = n
	}

	query := strings.TrimSpace(q.Get("q"))
	results, cached, err := s.deps.Search.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results, Cached: cached})
}
