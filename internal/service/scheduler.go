package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/crm-content-api/internal/config"
	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// scheduler is the concrete implementation of Scheduler
type scheduler struct {
	articles *articleService
	repo     repository.ArticleRepository
	cfg      config.SchedulerConfig
	log      zerolog.Logger
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
	// Semaphore: buffered channel to limit concurrent publications
	sem chan struct{}
}

// newScheduler creates a scheduler with a worker pool of cfg.Workers
func newScheduler(articles *articleService, repo repository.ArticleRepository, cfg config.SchedulerConfig, log zerolog.Logger) *scheduler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}

	return &scheduler{
		articles: articles,
		repo:     repo,
		cfg:      cfg,
		log:      log.With().Str("service", "scheduler").Logger(),
		sem:      make(chan struct{}, workers),
	}
}

// Start registers the publication job and starts the cron runner
func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if !s.cfg.Enabled {
		s.log.Info().Msg("Scheduled publishing disabled")
		return nil
	}

	logger := cronLogger{log: s.log}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	s.ctx, s.cancel = context.WithCancel(context.Background())
	ctx := s.ctx
	if _, err := c.AddFunc(s.cfg.Spec, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("Scheduled publishing run failed")
		}
	}); err != nil {
		s.cancel()
		return fmt.Errorf("invalid scheduler spec %q: %w", s.cfg.Spec, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.log.Info().
		Str("spec", s.cfg.Spec).
		Int("workers", cap(s.sem)).
		Int("batch_size", s.cfg.BatchSize).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron runner and waits for in-flight publications
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Scheduler stopped")
}

// RunOnce publishes every due scheduled article in one batch and returns
// how many were published
func (s *scheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueScheduled(ctx, s.articles.now(), s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due articles: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	var published int64
	var batch sync.WaitGroup

	for _, article := range due {
		// Acquire semaphore slot - blocks if all workers are busy
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			batch.Wait()
			return int(published), ctx.Err()
		}

		s.wg.Add(1)
		batch.Add(1)
		go func(a *models.Article) {
			defer s.wg.Done()
			defer batch.Done()
			defer func() { <-s.sem }()

			// Panic recovery keeps one bad article from stopping the batch
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("article_id", a.ID).
						Msg("Scheduled publication panicked - recovered")
				}
			}()

			if s.publishScheduled(ctx, a) {
				atomic.AddInt64(&published, 1)
			}
		}(article)
	}

	batch.Wait()

	s.log.Info().
		Int("due", len(due)).
		Int64("published", published).
		Msg("Scheduled publishing run completed")
	return int(published), nil
}

// publishScheduled publishes one due article on behalf of its author
func (s *scheduler) publishScheduled(ctx context.Context, due *models.Article) bool {
	select {
	case <-ctx.Done():
		s.log.Warn().Str("article_id", due.ID).Msg("Scheduled publication cancelled due to shutdown")
		return false
	default:
	}

	existing, err := s.articles.repos.Article.GetByID(ctx, due.ID)
	if err != nil {
		s.log.Error().Err(err).Str("article_id", due.ID).Msg("Failed to load scheduled article")
		return false
	}
	if existing == nil || existing.Status != models.StatusScheduled {
		return false
	}

	if _, err := s.articles.publish(ctx, existing, existing.AuthorID); err != nil {
		if errors.Is(err, ErrAlreadyPublished) {
			return false
		}
		s.log.Error().Err(err).Str("article_id", due.ID).Msg("Scheduled publication failed")
		return false
	}
	return true
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
