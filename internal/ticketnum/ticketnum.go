// Package ticketnum generates and parses human-readable ticket identifiers
// of the form RHD-YYYYMMDD-NNNN: a fixed prefix, the issue date, and a
// zero-padded daily sequence. Identifiers are fixed-width and sort
// lexicographically within a day.
package ticketnum

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix is the fixed literal tag leading every identifier.
	Prefix = "RHD"

	separator  = "-"
	dateLayout = "20060102"
	seqWidth   = 4
)

// Generate returns the next identifier for today given the full set of
// previously issued identifiers. Only identifiers matching today's date
// prefix count; malformed entries are skipped. The result is max+1, so gaps
// in the sequence are never reused.
//
// Uniqueness holds only for a consistent snapshot of existing identifiers.
// Callers racing on the same snapshot will compute the same result; the
// persistence layer must enforce uniqueness and retry with a fresh snapshot
// on conflict, or allocate sequences atomically instead.
func Generate(existing []string, today time.Time) string {
	datePrefix := DatePrefix(today)

	highest := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, datePrefix) {
			continue
		}
		parts := strings.Split(id, separator)
		if len(parts) != 3 {
			continue
		}
		seq, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}

	return FromSequence(today, highest+1)
}

// DatePrefix renders the prefix shared by all identifiers issued on day.
func DatePrefix(day time.Time) string {
	return Prefix + separator + day.Format(dateLayout)
}

// FromSequence renders an identifier for the given day and sequence number.
func FromSequence(day time.Time, seq int) string {
	return fmt.Sprintf("%s%s%s%s%0*d", Prefix, separator, day.Format(dateLayout), separator, seqWidth, seq)
}

// Parsed is the structured decode of a valid identifier.
type Parsed struct {
	Date           time.Time
	Sequence       int
	DateString     string
	SequenceString string
}

// Parse decodes an identifier, returning nil on any structural mismatch:
// wrong segment count, wrong prefix, or wrong digit widths. It never fails
// with an error.
func Parse(id string) *Parsed {
	parts := strings.Split(id, separator)
	if len(parts) != 3 || parts[0] != Prefix {
		return nil
	}
	dateStr, seqStr := parts[1], parts[2]
	if len(dateStr) != 8 || len(seqStr) != seqWidth {
		return nil
	}
	if !allDigits(dateStr) || !allDigits(seqStr) {
		return nil
	}

	year, _ := strconv.Atoi(dateStr[0:4])
	month, _ := strconv.Atoi(dateStr[4:6])
	day, _ := strconv.Atoi(dateStr[6:8])
	seq, _ := strconv.Atoi(seqStr)

	return &Parsed{
		Date:           time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local),
		Sequence:       seq,
		DateString:     dateStr,
		SequenceString: seqStr,
	}
}

// IsValid reports whether id parses as a ticket identifier.
func IsValid(id string) bool {
	return Parse(id) != nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
