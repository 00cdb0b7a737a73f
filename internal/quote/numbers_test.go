package quote

import (
	"testing"
	"time"
)

func TestMonthPrefix(t *testing.T) {
	now := time.Date(2025, time.November, 14, 10, 30, 0, 0, time.UTC)
	if got := MonthPrefix(now); got != "QUOTE-202511-" {
		t.Fatalf("expected QUOTE-202511-, got %s", got)
	}
}

func TestMonthPrefixUsesUTC(t *testing.T) {
	// 23:30 on Nov 30 in UTC+10 is already December in local time.
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2025, time.December, 1, 9, 30, 0, 0, loc)
	if got := MonthPrefix(now); got != "QUOTE-202511-" {
		t.Fatalf("expected QUOTE-202511-, got %s", got)
	}
}

func TestNextNumber(t *testing.T) {
	cases := []struct {
		name string
		last string
		want string
	}{
		{"empty month starts at one", "", "QUOTE-202511-0001"},
		{"increments last", "QUOTE-202511-0007", "QUOTE-202511-0008"},
		{"carries past padding width", "QUOTE-202511-9999", "QUOTE-202511-10000"},
		{"continues with wide suffix", "QUOTE-202511-10000", "QUOTE-202511-10001"},
		{"unparsable suffix restarts", "QUOTE-202511-garbage", "QUOTE-202511-0001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextNumber("QUOTE-202511-", tc.last); got != tc.want {
				t.Fatalf("NextNumber(%q) = %s, want %s", tc.last, got, tc.want)
			}
		})
	}
}
