package quote

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthPrefix returns the quote number prefix for the month containing now,
// e.g. "QUOTE-202511-". Months are taken in UTC.
func MonthPrefix(now time.Time) string {
	return fmt.Sprintf("QUOTE-%s-", now.UTC().Format("200601"))
}

// NextNumber derives the next quote number in a month sequence from the
// greatest existing number with that prefix. An empty last number starts the
// sequence at 0001; an unparsable suffix is treated as 0 rather than failing.
func NextNumber(prefix, last string) string {
	n := 0
	if last != "" {
		parts := strings.Split(last, "-")
		if parsed, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			n = parsed
		}
	}
	return fmt.Sprintf("%s%04d", prefix, n+1)
}
