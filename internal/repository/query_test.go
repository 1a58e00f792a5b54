package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/crm-content-api/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestArticleFilterWhere_Empty(t *testing.T) {
	where, args := articleFilterWhere(&models.ArticleFilter{})
	if where != "" {
		t.Errorf("Expected empty WHERE clause, got %q", where)
	}
	if len(args) != 0 {
		t.Errorf("Expected no args, got %v", args)
	}
}

func TestArticleFilterWhere_BindsEveryValue(t *testing.T) {
	featured := true
	f := &models.ArticleFilter{
		ProjectID: "proj-1",
		Status:    models.StatusPublished,
		Category:  "guides",
		AuthorID:  "user-1",
		Featured:  &featured,
		Search:    "50%_off",
		Tags:      []string{"CRM", "Guide"},
	}

	where, args := articleFilterWhere(f)

	for _, want := range []string{
		"a.project_id = $1",
		"a.status = $2",
		"a.category = $3",
		"a.author_id = $4",
		"a.featured = $5",
		"a.title ILIKE $6 OR a.excerpt ILIKE $6 OR a.content ILIKE $6",
		"ANY($7)",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("WHERE clause missing %q:\n%s", want, where)
		}
	}

	if len(args) != 7 {
		t.Fatalf("Expected 7 args, got %d", len(args))
	}
	if args[5] != `%50\%\_off%` {
		t.Errorf("Expected escaped search pattern, got %v", args[5])
	}
	for _, raw := range []string{"proj-1", "guides", "50%_off"} {
		if strings.Contains(where, raw) {
			t.Errorf("Filter value %q interpolated into SQL", raw)
		}
	}
}

func TestArticleOrderBy(t *testing.T) {
	tests := []struct {
		name  string
		sort  string
		order string
		want  string
	}{
		{"default", "", "", "ORDER BY a.created_at DESC"},
		{"title ascending", "title", "asc", "ORDER BY a.title ASC"},
		{"view count", "view_count", "desc", "ORDER BY a.view_count DESC"},
		{"unknown column falls back", "id; DROP TABLE articles", "asc", "ORDER BY a.created_at ASC"},
		{"unknown order is descending", "updated_at", "sideways", "ORDER BY a.updated_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := articleOrderBy(&models.ArticleFilter{Sort: tt.sort, Order: tt.order})
			if !strings.Contains(got, tt.want) {
				t.Errorf("articleOrderBy() = %q, want it to contain %q", got, tt.want)
			}
			if strings.Contains(got, "DROP") {
				t.Errorf("sort input leaked into SQL: %q", got)
			}
		})
	}
}

func TestBuildArticleListQuery_Paging(t *testing.T) {
	f := &models.ArticleFilter{ProjectID: "proj-1", Page: 3, Limit: 10}
	f.Normalize()

	query, args := buildArticleListQuery(f)

	if !strings.Contains(query, "LIMIT $2 OFFSET $3") {
		t.Errorf("Expected LIMIT/OFFSET placeholders after filter args:\n%s", query)
	}
	if diff := cmp.Diff([]interface{}{"proj-1", 10, 20}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(query, "GROUP BY a.id") {
		t.Error("Expected list query to group tag names per article")
	}
}

func TestBuildArticleCountQuery_SharesPredicate(t *testing.T) {
	f := &models.ArticleFilter{Status: models.StatusDraft, Tags: []string{"go"}}

	countQuery, countArgs := buildArticleCountQuery(f)
	where, whereArgs := articleFilterWhere(f)

	if !strings.HasSuffix(countQuery, where) {
		t.Errorf("Count query does not end with the list predicate:\n%s", countQuery)
	}
	if len(countArgs) != len(whereArgs) {
		t.Errorf("Expected %d args, got %d", len(whereArgs), len(countArgs))
	}
}

func TestBuildArticleUpdate_OnlyPresentFields(t *testing.T) {
	title := "New title"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	query, args := buildArticleUpdate("art-1", &models.ArticleChanges{Title: &title, UpdatedAt: now})

	want := "UPDATE articles SET title = $1, updated_at = $2 WHERE id = $3"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if diff := cmp.Diff([]interface{}{"New title", now, "art-1"}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArticleUpdate_PublishedAtNeverOverwritten(t *testing.T) {
	status := models.StatusPublished
	now := time.Now()

	query, _ := buildArticleUpdate("art-1", &models.ArticleChanges{
		Status:      &status,
		PublishedAt: &now,
		UpdatedAt:   now,
	})

	if !strings.Contains(query, "published_at = COALESCE(published_at, $2)") {
		t.Errorf("Expected published_at to be written only when unset:\n%s", query)
	}
}

func TestBuildArticleUpdate_ContentAndReadingTime(t *testing.T) {
	content := "some words here"
	minutes := 1

	query, args := buildArticleUpdate("art-1", &models.ArticleChanges{
		Content:     &content,
		ReadingTime: &minutes,
		UpdatedAt:   time.Now(),
	})

	if !strings.Contains(query, "content = $1") || !strings.Contains(query, "reading_time = $2") {
		t.Errorf("Expected content and reading_time columns:\n%s", query)
	}
	if len(args) != 4 {
		t.Errorf("Expected 4 args, got %d", len(args))
	}
}

func TestVisitorKey(t *testing.T) {
	day := time.Date(2026, 5, 17, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

	got := visitorKey("art-1", day)
	if got != "article:art-1:visitors:20260518" {
		t.Errorf("visitorKey() = %q", got)
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error("Empty string should be NULL")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("Unexpected NullString %+v", ns)
	}
	if optString(nil).Valid {
		t.Error("nil pointer should be NULL")
	}
}
