package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
	"github.com/rs/zerolog"
)

// flushEvery is how many records are written between flushes
const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// NewExportService builds an ExportService over the given repositories
func NewExportService(repos *repository.Repositories, log zerolog.Logger) ExportService {
	return newExportService(repos, log)
}

// StreamArticles streams every article matching the filter in the specified format
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, filter *models.ArticleFilter, format string) error {
	f := *filter
	f.Normalize()

	s.log.Info().Str("format", format).Str("project_id", f.ProjectID).Msg("Starting articles export")

	switch format {
	case "ndjson", "":
		return s.streamArticlesNDJSON(ctx, w, &f)
	case "json":
		return s.streamArticlesJSON(ctx, w, &f)
	default:
		return invalid("format", "unsupported format, must be one of: ndjson, json", format)
	}
}

func (s *exportService) streamArticlesNDJSON(ctx context.Context, w http.ResponseWriter, f *models.ArticleFilter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Article.StreamAll(ctx, f, func(article *models.Article) error {
		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Articles export completed")
	return err
}

func (s *exportService) streamArticlesJSON(ctx context.Context, w http.ResponseWriter, f *models.ArticleFilter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.json")

	w.Write([]byte("["))
	first := true
	count := 0

	err := s.repos.Article.StreamAll(ctx, f, func(article *models.Article) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		count++
		return err
	})

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Articles export completed")
	return err
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "articles":
		return s.repos.Article.Count(ctx)
	case "tags":
		return s.repos.Tag.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
