package validation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/crm-content-api/internal/models"
)

func strPtr(s string) *string { return &s }

func validCreate() *models.CreateArticleInput {
	return &models.CreateArticleInput{
		ProjectID: "proj-1",
		Title:     "Getting started",
		Slug:      "getting-started",
		Content:   "Welcome to the CRM.",
	}
}

func TestValidateCreateArticle(t *testing.T) {
	scheduledAt := time.Now().Add(time.Hour)

	manyTags := make([]string, models.MaxTagsPerArticle+1)
	for i := range manyTags {
		manyTags[i] = fmt.Sprintf("tag %d", i)
	}

	tests := []struct {
		name       string
		mutate     func(in *models.CreateArticleInput)
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid article",
			mutate:     func(in *models.CreateArticleInput) {},
			wantErrors: 0,
		},
		{
			name:       "missing title - required field",
			mutate:     func(in *models.CreateArticleInput) { in.Title = "  " },
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "title too long",
			mutate:     func(in *models.CreateArticleInput) { in.Title = strings.Repeat("a", MaxTitleLength+1) },
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "slug not kebab-case",
			mutate:     func(in *models.CreateArticleInput) { in.Slug = "Getting_Started" },
			wantErrors: 1,
			wantFields: []string{"slug"},
		},
		{
			name:       "slug with trailing hyphen",
			mutate:     func(in *models.CreateArticleInput) { in.Slug = "intro-" },
			wantErrors: 1,
			wantFields: []string{"slug"},
		},
		{
			name:       "missing project and content",
			mutate:     func(in *models.CreateArticleInput) { in.ProjectID = ""; in.Content = "" },
			wantErrors: 2,
			wantFields: []string{"project_id", "content"},
		},
		{
			name:       "invalid status",
			mutate:     func(in *models.CreateArticleInput) { in.Status = "deleted" },
			wantErrors: 1,
			wantFields: []string{"status"},
		},
		{
			name:       "scheduled without scheduled_at",
			mutate:     func(in *models.CreateArticleInput) { in.Status = models.StatusScheduled },
			wantErrors: 1,
			wantFields: []string{"scheduled_at"},
		},
		{
			name: "scheduled with scheduled_at",
			mutate: func(in *models.CreateArticleInput) {
				in.Status = models.StatusScheduled
				in.ScheduledAt = &scheduledAt
			},
			wantErrors: 0,
		},
		{
			name: "seo fields too long",
			mutate: func(in *models.CreateArticleInput) {
				in.SEOTitle = strPtr(strings.Repeat("t", MaxSEOTitleLength+1))
				in.SEODescription = strPtr(strings.Repeat("d", MaxSEODescriptionLength+1))
			},
			wantErrors: 2,
			wantFields: []string{"seo_title", "seo_description"},
		},
		{
			name:       "too many tags",
			mutate:     func(in *models.CreateArticleInput) { in.Tags = manyTags },
			wantErrors: 1,
			wantFields: []string{"tags"},
		},
		{
			name:       "tag without letters or digits",
			mutate:     func(in *models.CreateArticleInput) { in.Tags = []string{"CRM", "--"} },
			wantErrors: 1,
			wantFields: []string{"tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreate()
			tt.mutate(in)

			errors := ValidateCreateArticle(in)
			if len(errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errors), errors)
			}
			assertFields(t, errors, tt.wantFields)
		})
	}
}

func TestValidateUpdateArticle(t *testing.T) {
	emptyTags := []string{}
	badStatus := models.ArticleStatus("gone")

	tests := []struct {
		name       string
		input      *models.UpdateArticleInput
		wantErrors int
		wantFields []string
	}{
		{
			name:       "empty update is valid",
			input:      &models.UpdateArticleInput{},
			wantErrors: 0,
		},
		{
			name:       "title only",
			input:      &models.UpdateArticleInput{Title: strPtr("New title")},
			wantErrors: 0,
		},
		{
			name:       "explicit empty tags clears",
			input:      &models.UpdateArticleInput{Tags: &emptyTags},
			wantErrors: 0,
		},
		{
			name:       "blank title",
			input:      &models.UpdateArticleInput{Title: strPtr("")},
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "blank content",
			input:      &models.UpdateArticleInput{Content: strPtr(" \n")},
			wantErrors: 1,
			wantFields: []string{"content"},
		},
		{
			name:       "bad slug and status",
			input:      &models.UpdateArticleInput{Slug: strPtr("Bad Slug"), Status: &badStatus},
			wantErrors: 2,
			wantFields: []string{"slug", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateUpdateArticle(tt.input)
			if len(errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errors), errors)
			}
			assertFields(t, errors, tt.wantFields)
		})
	}
}

func TestValidateBulkRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        *models.BulkRequest
		wantFields []string
	}{
		{"valid", &models.BulkRequest{IDs: []string{"a"}, Action: models.BulkArchive}, nil},
		{"no ids", &models.BulkRequest{Action: models.BulkDelete}, []string{"ids"}},
		{"unknown action", &models.BulkRequest{IDs: []string{"a"}, Action: "feature"}, []string{"action"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateBulkRequest(tt.req)
			if len(errors) != len(tt.wantFields) {
				t.Errorf("Expected %d errors, got %v", len(tt.wantFields), errors)
			}
			assertFields(t, errors, tt.wantFields)
		})
	}
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{
		{Field: "title", Message: "title is required"},
		{Field: "slug", Message: "slug is required"},
	}
	want := "title: title is required; slug: slug is required"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}

func assertFields(t *testing.T, errors Errors, want []string) {
	t.Helper()
	for _, field := range want {
		found := false
		for _, e := range errors {
			if e.Field == field {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected error for field %q, got %v", field, errors)
		}
	}
}
