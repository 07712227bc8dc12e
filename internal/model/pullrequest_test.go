package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func intPtr(i int) *int { return &i }

func TestApplyFeatured(t *testing.T) {
	base := PullRequest{ID: 1, Title: "Fix race", Featured: true, FeaturedOrder: intPtr(9)}

	tests := []struct {
		name      string
		status    FeaturedStatus
		wantFlag  bool
		wantOrder *int
	}{
		{
			name:      "featured with order",
			status:    FeaturedStatus{Featured: true, Order: intPtr(1)},
			wantFlag:  true,
			wantOrder: intPtr(1),
		},
		{
			name:     "not featured clears stale order",
			status:   FeaturedStatus{},
			wantFlag: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.ApplyFeatured(tt.status)
			if got.Featured != tt.wantFlag {
				t.Errorf("Featured = %v, want %v", got.Featured, tt.wantFlag)
			}
			switch {
			case tt.wantOrder == nil && got.FeaturedOrder != nil:
				t.Errorf("FeaturedOrder = %d, want nil", *got.FeaturedOrder)
			case tt.wantOrder != nil && (got.FeaturedOrder == nil || *got.FeaturedOrder != *tt.wantOrder):
				t.Errorf("FeaturedOrder = %v, want %d", got.FeaturedOrder, *tt.wantOrder)
			}
			if got.Title != base.Title {
				t.Errorf("Title changed to %q", got.Title)
			}
		})
	}

	if base.FeaturedOrder == nil || *base.FeaturedOrder != 9 {
		t.Error("ApplyFeatured mutated the receiver")
	}
}

func TestApplyFeaturedDoesNotAliasOrder(t *testing.T) {
	order := 3
	got := PullRequest{}.ApplyFeatured(FeaturedStatus{Featured: true, Order: &order})
	order = 7
	if *got.FeaturedOrder != 3 {
		t.Errorf("FeaturedOrder followed the caller's variable: got %d", *got.FeaturedOrder)
	}
}

func TestPullRequestJSONContract(t *testing.T) {
	pr := PullRequest{
		ID:        42,
		Number:    12,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC),
		Labels:    []string{},
	}

	data, err := json.Marshal(pr)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"closed_at":null`,
		`"merged_at":null`,
		`"labels":[]`,
		`"featured":false`,
		`"updated_at":"2024-01-03T03:04:05Z"`,
		`"user":{}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, "featured_order") {
		t.Errorf("featured_order should be omitted when unset: %s", s)
	}
}

func TestIsMerged(t *testing.T) {
	merged := time.Now()
	if (PullRequest{}).IsMerged() {
		t.Error("expected record without merged_at to be unmerged")
	}
	if !(PullRequest{MergedAt: &merged}).IsMerged() {
		t.Error("expected record with merged_at to be merged")
	}
}
