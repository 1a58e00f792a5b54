package service

import (
	"context"
	"fmt"

	"github.com/crm-content-api/internal/models"
	"golang.org/x/sync/errgroup"
)

// BulkAction applies one action to every id with bounded concurrency.
// A failure for one id never stops the others; errors are reported in input order.
func (s *articleService) BulkAction(ctx context.Context, ids []string, action models.BulkAction, userID string) (*models.BulkResult, error) {
	if !models.ValidBulkActions[action] {
		return nil, invalid("action", "invalid action, must be one of: publish, unpublish, archive, delete", action)
	}

	outcomes := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("article_id", id).
						Str("action", string(action)).
						Msg("Bulk item panicked - recovered")
					outcomes[i] = fmt.Errorf("internal error")
				}
			}()
			outcomes[i] = s.applyBulk(ctx, id, action, userID)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.BulkResult{Errors: []string{}}
	for i, err := range outcomes {
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", ids[i], err))
			continue
		}
		result.Success++
	}

	s.log.Info().
		Str("action", string(action)).
		Str("user_id", userID).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("Bulk action completed")

	return result, nil
}

func (s *articleService) applyBulk(ctx context.Context, id string, action models.BulkAction, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch action {
	case models.BulkPublish:
		_, err := s.Publish(ctx, id, userID)
		return err
	case models.BulkUnpublish:
		status := models.StatusDraft
		_, err := s.Update(ctx, id, &models.UpdateArticleInput{Status: &status}, userID)
		return err
	case models.BulkArchive:
		status := models.StatusArchived
		_, err := s.Update(ctx, id, &models.UpdateArticleInput{Status: &status}, userID)
		return err
	case models.BulkDelete:
		return s.Delete(ctx, id, userID)
	default:
		return fmt.Errorf("unsupported action: %s", action)
	}
}
