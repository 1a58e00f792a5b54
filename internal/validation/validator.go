package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/crm-content-api/internal/models"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Field length limits
const (
	MaxTitleLength          = 255
	MaxSlugLength           = 255
	MaxSEOTitleLength       = 70
	MaxSEODescriptionLength = 160
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of field errors
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Field + ": " + ve.Message
	}
	return strings.Join(parts, "; ")
}

// ValidateCreateArticle validates a create payload
func ValidateCreateArticle(in *models.CreateArticleInput) Errors {
	var errors Errors

	if strings.TrimSpace(in.ProjectID) == "" {
		errors = append(errors, ValidationError{Field: "project_id", Message: "project_id is required"})
	}

	errors = append(errors, validateTitle(in.Title)...)
	errors = append(errors, validateSlug(in.Slug)...)

	if strings.TrimSpace(in.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	if in.Status != "" {
		errors = append(errors, validateStatus(in.Status)...)
	}
	if in.Status == models.StatusScheduled && in.ScheduledAt == nil {
		errors = append(errors, ValidationError{Field: "scheduled_at", Message: "scheduled articles require scheduled_at"})
	}

	errors = append(errors, validateSEO(in.SEOTitle, in.SEODescription)...)
	errors = append(errors, validateTags(in.Tags)...)

	return errors
}

// ValidateUpdateArticle validates the fields present in a partial update.
// Rules that depend on the stored article are checked by the caller.
func ValidateUpdateArticle(in *models.UpdateArticleInput) Errors {
	var errors Errors

	if in.Title != nil {
		errors = append(errors, validateTitle(*in.Title)...)
	}
	if in.Slug != nil {
		errors = append(errors, validateSlug(*in.Slug)...)
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content must not be empty"})
	}
	if in.Status != nil {
		errors = append(errors, validateStatus(*in.Status)...)
	}

	errors = append(errors, validateSEO(in.SEOTitle, in.SEODescription)...)
	if in.Tags != nil {
		errors = append(errors, validateTags(*in.Tags)...)
	}

	return errors
}

// ValidateBulkRequest validates a bulk action payload
func ValidateBulkRequest(req *models.BulkRequest) Errors {
	var errors Errors

	if len(req.IDs) == 0 {
		errors = append(errors, ValidationError{Field: "ids", Message: "at least one id is required"})
	}
	if !models.ValidBulkActions[req.Action] {
		errors = append(errors, ValidationError{
			Field:   "action",
			Message: "invalid action, must be one of: publish, unpublish, archive, delete",
			Value:   req.Action,
		})
	}

	return errors
}

func validateTitle(title string) Errors {
	if strings.TrimSpace(title) == "" {
		return Errors{{Field: "title", Message: "title is required"}}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Errors{{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", MaxTitleLength)}}
	}
	return nil
}

func validateSlug(slug string) Errors {
	switch {
	case slug == "":
		return Errors{{Field: "slug", Message: "slug is required"}}
	case len(slug) > MaxSlugLength:
		return Errors{{Field: "slug", Message: fmt.Sprintf("slug exceeds %d characters", MaxSlugLength)}}
	case !slugRegex.MatchString(slug):
		return Errors{{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: slug}}
	}
	return nil
}

func validateStatus(status models.ArticleStatus) Errors {
	if !models.ValidStatuses[status] {
		return Errors{{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, scheduled, archived",
			Value:   status,
		}}
	}
	return nil
}

func validateSEO(title, description *string) Errors {
	var errors Errors
	if title != nil && utf8.RuneCountInString(*title) > MaxSEOTitleLength {
		errors = append(errors, ValidationError{Field: "seo_title", Message: fmt.Sprintf("seo_title exceeds %d characters", MaxSEOTitleLength)})
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxSEODescriptionLength {
		errors = append(errors, ValidationError{Field: "seo_description", Message: fmt.Sprintf("seo_description exceeds %d characters", MaxSEODescriptionLength)})
	}
	return errors
}

func validateTags(tags []string) Errors {
	if len(tags) > models.MaxTagsPerArticle {
		return Errors{{
			Field:   "tags",
			Message: fmt.Sprintf("at most %d tags allowed (has %d)", models.MaxTagsPerArticle, len(tags)),
		}}
	}
	for _, name := range tags {
		if models.TagSlug(name) == "" {
			return Errors{{Field: "tags", Message: "tag names must contain a letter or digit", Value: name}}
		}
	}
	return nil
}
