/*
numbering.go - Fiscal-year-scoped sequential form numbers

PURPOSE:
  Each register restarts its numbering every fiscal year, per document kind.
  The next number is derived from the numbers already committed, never from a
  stored counter, so it cannot drift and re-reading is side-effect free.

FORMAT:
  Zero-padded integer plus a kind suffix: "001-HF", "012-MF", "0042".
  Width is 3 for transfer/maintenance/return forms, 4 for demand and
  stock-entry forms.

IDEMPOTENCY:
  NextFormNo is pure: calling it twice over the same inputs yields the same
  number. Uniqueness is only guaranteed at commit time; the store's version
  check is what surfaces a losing concurrent commit.
*/
package docflow

import (
	"fmt"
	"strings"
)

// NextFormNo computes the next sequential form number for a fiscal year.
//
// existing holds the form numbers already committed for the same kind and
// fiscal year. Entries may be purely numeric ("0042") or suffix-tagged
// ("003-HF"); entries with a different suffix or no leading integer are
// ignored, not errors. The result is max+1, zero-padded to width, with the
// suffix appended. An empty register seeds at 1 ("001-HF").
func NextFormNo(existing []string, width int, suffix string) string {
	max := 0
	for _, formNo := range existing {
		n, ok := parseFormNo(formNo, suffix)
		if !ok {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%0*d%s", width, max+1, suffix)
}

// parseFormNo extracts the leading integer of a form number, requiring the
// given suffix when one is configured.
func parseFormNo(formNo, suffix string) (int, bool) {
	s := strings.TrimSpace(formNo)
	if suffix != "" {
		if !strings.HasSuffix(s, suffix) {
			return 0, false
		}
		s = strings.TrimSuffix(s, suffix)
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n := 0
	for _, c := range s[:end] {
		n = n*10 + int(c-'0')
	}
	return n, true
}
