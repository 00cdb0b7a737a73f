package common

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name        string
		url         string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "/quotes", 1, 20},
		{"per_page", "/quotes?page=3&per_page=50", 3, 50},
		{"limit alias", "/quotes?limit=10", 1, 10},
		{"per_page wins over limit", "/quotes?per_page=30&limit=10", 1, 30},
		{"clamped to max", "/quotes?per_page=500", 1, MaxPerPage},
		{"garbage falls back", "/quotes?page=x&per_page=-2", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			page, perPage := ParsePagination(r, 20)
			if page != tc.wantPage || perPage != tc.wantPerPage {
				t.Fatalf("got page=%d perPage=%d, want page=%d perPage=%d", page, perPage, tc.wantPage, tc.wantPerPage)
			}
		})
	}
}

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("", 50); got != 50 {
		t.Fatalf("empty: got %d", got)
	}
	if got := AtoiDefault("-3", 0); got != 0 {
		t.Fatalf("negative: got %d", got)
	}
	if got := AtoiDefault("25", 50); got != 25 {
		t.Fatalf("parsed: got %d", got)
	}
}
