package ticketnum

import (
	"testing"
	"time"
)

var july3 = time.Date(2025, 7, 3, 15, 4, 5, 0, time.UTC)

func TestGenerateFirstOfDay(t *testing.T) {
	if got := Generate(nil, july3); got != "RHD-20250703-0001" {
		t.Fatalf("Generate(nil)=%q, want RHD-20250703-0001", got)
	}
	if got := Generate([]string{}, july3); got != "RHD-20250703-0001" {
		t.Fatalf("Generate(empty)=%q, want RHD-20250703-0001", got)
	}
}

func TestGenerateNextSequence(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		today    time.Time
		want     string
	}{
		{
			name:     "gaps are not reused",
			existing: []string{"RHD-20250703-0001", "RHD-20250703-0003"},
			today:    july3,
			want:     "RHD-20250703-0004",
		},
		{
			name:     "only same-day identifiers count",
			existing: []string{"RHD-20250703-0007", "RHD-20250704-0001"},
			today:    time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC),
			want:     "RHD-20250704-0002",
		},
		{
			name:     "previous days ignored entirely",
			existing: []string{"RHD-20250101-0099", "RHD-20250702-0042"},
			today:    july3,
			want:     "RHD-20250703-0001",
		},
		{
			name: "malformed entries are skipped",
			existing: []string{
				"RHD-20250703-0002",
				"RHD-20250703-abcd",
				"RHD-20250703-0005-extra",
				"garbage",
			},
			today: july3,
			want:  "RHD-20250703-0003",
		},
		{
			name:     "order of inputs is irrelevant",
			existing: []string{"RHD-20250703-0005", "RHD-20250703-0002", "RHD-20250703-0004"},
			today:    july3,
			want:     "RHD-20250703-0006",
		},
	}

	for _, tt := range cases {
		if got := Generate(tt.existing, tt.today); got != tt.want {
			t.Fatalf("%s: Generate=%q, want %q", tt.name, got, tt.want)
		}
	}
}

// Two callers working from the same snapshot compute the same identifier.
// That race is resolved at the storage layer (unique constraint plus retry,
// or an atomic per-day counter), not here.
func TestGenerateSameSnapshotSameResult(t *testing.T) {
	existing := []string{"RHD-20250703-0001"}
	first := Generate(existing, july3)
	second := Generate(existing, july3)
	if first != second {
		t.Fatalf("identical snapshots must produce identical results: %q vs %q", first, second)
	}
}

func TestGenerateParseRoundTrip(t *testing.T) {
	existing := []string{"RHD-20250703-0011"}
	id := Generate(existing, july3)

	if !IsValid(id) {
		t.Fatalf("generated identifier %q should be valid", id)
	}
	parsed := Parse(id)
	if parsed == nil {
		t.Fatalf("generated identifier %q should parse", id)
	}
	if parsed.Sequence != 12 {
		t.Fatalf("sequence=%d, want 12", parsed.Sequence)
	}
	if parsed.DateString != "20250703" || parsed.SequenceString != "0012" {
		t.Fatalf("raw segments %q/%q, want 20250703/0012", parsed.DateString, parsed.SequenceString)
	}
	y, m, d := parsed.Date.Date()
	if y != 2025 || m != time.July || d != 3 {
		t.Fatalf("decoded date %v, want 2025-07-03", parsed.Date)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"garbage",
		"",
		"RHD-2025-0001",          // wrong date width
		"RHD-20250703-001",       // wrong sequence width
		"RHD-20250703-00012",     // wrong sequence width
		"XYZ-20250703-0001",      // wrong prefix
		"RHD-20250703",           // wrong segment count
		"RHD-20250703-0001-0002", // wrong segment count
		"RHD-2025070a-0001",      // non-digit date
		"RHD-20250703-00a1",      // non-digit sequence
	}

	for _, id := range cases {
		if Parse(id) != nil {
			t.Fatalf("Parse(%q) should return nil", id)
		}
		if IsValid(id) {
			t.Fatalf("IsValid(%q) should be false", id)
		}
	}
}

func TestFromSequence(t *testing.T) {
	if got := FromSequence(july3, 42); got != "RHD-20250703-0042" {
		t.Fatalf("FromSequence=%q, want RHD-20250703-0042", got)
	}
}
