package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	slugErr := &pq.Error{Code: "23505", Constraint: "articles_project_slug_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil error", nil, "", false},
		{"plain error", errors.New("boom"), "", false},
		{"unique violation any constraint", slugErr, "", true},
		{"unique violation named constraint", slugErr, "articles_project_slug_key", true},
		{"unique violation other constraint", slugErr, "tags_slug_key", false},
		{"wrapped unique violation", fmt.Errorf("insert: %w", slugErr), "articles_project_slug_key", true},
		{"foreign key violation", &pq.Error{Code: "23503"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
