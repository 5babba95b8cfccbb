package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SearchQuery
		wantErr   bool
		wantLimit int
		wantQuery string
	}{
		{"empty query", &SearchQuery{Query: ""}, true, 0, ""},
		{"whitespace query", &SearchQuery{Query: "  \t "}, true, 0, ""},
		{"valid query", &SearchQuery{Query: "hello"}, false, DefaultLimit, "hello"},
		{"trims query", &SearchQuery{Query: "  who wrote hamlet "}, false, DefaultLimit, "who wrote hamlet"},
		{"keeps explicit limit", &SearchQuery{Query: "x", Limit: 3}, false, 3, "x"},
		{"caps limit at max", &SearchQuery{Query: "x", Limit: 200}, false, MaxLimit, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyQuery) {
					t.Errorf("expected ErrEmptyQuery, got %v", err)
				}
				return
			}
			if tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
			if tt.query.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", tt.query.Query, tt.wantQuery)
			}
		})
	}
}

func TestSearchQuery_ValidateBranches(t *testing.T) {
	q := &SearchQuery{Query: "x"}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if !q.OfflineEnabled || !q.LiveEnabled {
		t.Error("expected both branches enabled when neither was requested")
	}

	q = &SearchQuery{Query: "x", LiveEnabled: true}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.OfflineEnabled {
		t.Error("offline branch should stay disabled when only live was requested")
	}
}
