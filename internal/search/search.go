// Package search implements site search over the service catalogue, the
// active service areas and static articles, with short-lived result caching.
package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/cache"
	"github.com/eugener/restorehq/internal/telemetry"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	maxQueryLen  = 200
)

// ResultCache stores search results by key.
type ResultCache interface {
	Get(key string) ([]restorehq.SearchResult, bool)
	Set(key string, results []restorehq.SearchResult)
}

// AreaLister supplies the areas currently in service.
type AreaLister interface {
	ListActive() []restorehq.ServiceArea
}

// Options narrows a search.
type Options struct {
	Kind  restorehq.SearchKind
	Limit int
}

// normalized fills defaults and clamps the limit.
func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	o.Limit = min(o.Limit, MaxLimit)
	return o
}

// cacheOptions is the flat option mapping folded into the cache key.
func (o Options) cacheOptions() map[string]any {
	return map[string]any{
		"kind":  string(o.Kind),
		"limit": o.Limit,
	}
}

// Service answers search queries. Results are cached per (query, options).
type Service struct {
	cache    ResultCache
	areas    AreaLister
	services []restorehq.Service
	articles []restorehq.Article
	metrics  *telemetry.Metrics // nil = no metrics
}

// New returns a search Service. metrics may be nil.
func New(c ResultCache, areas AreaLister, services []restorehq.Service, articles []restorehq.Article, metrics *telemetry.Metrics) *Service {
	return &Service{
		cache:    c,
		areas:    areas,
		services: services,
		articles: articles,
		metrics:  metrics,
	}
}

// Search runs query and reports whether the results came from cache.
// A blank query is a validation error.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]restorehq.SearchResult, bool, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, false, fmt.Errorf("query is required: %w", restorehq.ErrValidation)
	}
	if len(query) > maxQueryLen {
		return nil, false, fmt.Errorf("query longer than %d bytes: %w", maxQueryLen, restorehq.ErrValidation)
	}
	if !restorehq.ValidKind(opts.Kind) {
		return nil, false, fmt.Errorf("unknown kind %q: %w", opts.Kind, restorehq.ErrValidation)
	}
	opts = opts.normalized()

	_, span := telemetry.Tracer("restorehq/search").Start(ctx, "search.query")
	defer span.End()

	folded := cases.Fold().String(query)
	key := cache.Key(folded, opts.cacheOptions())
	if results, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.SearchCacheHits.Inc()
		}
		span.SetAttributes(attribute.Bool("search.cached", true), attribute.Int("search.results", len(results)))
		return results, true, nil
	}
	if s.metrics != nil {
		s.metrics.SearchCacheMisses.Inc()
	}

	results := s.run(strings.Fields(folded), opts)
	s.cache.Set(key, results)
	span.SetAttributes(attribute.Bool("search.cached", false), attribute.Int("search.results", len(results)))
	return results, false, nil
}

// document is one indexed item.
type document struct {
	kind    restorehq.SearchKind
	title   string
	url     string
	snippet string
	terms   string // extra searchable text (keywords), never displayed
}

func (s *Service) documents(kind restorehq.SearchKind) []document {
	var docs []document
	if kind == "" || kind == restorehq.KindService {
		for _, svc := range s.services {
			docs = append(docs, document{
				kind:    restorehq.KindService,
				title:   svc.Name,
				url:     "/services/" + svc.Slug,
				snippet: svc.Description,
				terms:   strings.Join(svc.Keywords, " "),
			})
		}
	}
	if (kind == "" || kind == restorehq.KindArea) && s.areas != nil {
		for _, a := range s.areas.ListActive() {
			docs = append(docs, document{
				kind:    restorehq.KindArea,
				title:   a.Name + " " + a.Postcode,
				url:     "/areas/" + a.Postcode,
				snippet: "Emergency restoration services in " + a.Name + " and surrounds.",
			})
		}
	}
	if kind == "" || kind == restorehq.KindArticle {
		for _, art := range s.articles {
			docs = append(docs, document{
				kind:    restorehq.KindArticle,
				title:   art.Title,
				url:     art.URL,
				snippet: art.Summary,
			})
		}
	}
	return docs
}

// run scores every document against the folded query tokens. A title hit
// weighs 3, a snippet or keyword hit 1. Ties break on title.
func (s *Service) run(tokens []string, opts Options) []restorehq.SearchResult {
	fold := cases.Fold()
	var results []restorehq.SearchResult
	for _, d := range s.documents(opts.Kind) {
		title := fold.String(d.title)
		body := fold.String(d.snippet + " " + d.terms)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				score += 3
			}
			if strings.Contains(body, tok) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		results = append(results, restorehq.SearchResult{
			Kind:    d.kind,
			Title:   d.title,
			URL:     d.url,
			Snippet: d.snippet,
			Score:   score,
		})
	}
	slices.SortStableFunc(results, func(a, b restorehq.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	if results == nil {
		results = []restorehq.SearchResult{}
	}
	return results
}
