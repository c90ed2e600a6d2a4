package sla

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var baseTime = time.Date(2025, 7, 3, 9, 0, 0, 0, time.UTC)

func TestComputeDeadline(t *testing.T) {
	cfg := Config{High: 3, Medium: 10, Low: 30}
	cases := []struct {
		priority domain.TicketPriority
		want     time.Duration
	}{
		{domain.TicketPriorityLow, 30 * time.Hour},
		{domain.TicketPriorityMedium, 10 * time.Hour},
		{domain.TicketPriorityHigh, 3 * time.Hour},
		{domain.TicketPriorityCritical, 90 * time.Minute},
		{domain.TicketPriority("BOGUS"), 10 * time.Hour},
		{domain.TicketPriority(""), 10 * time.Hour},
	}

	for _, tt := range cases {
		got := ComputeDeadline(tt.priority, &cfg, baseTime)
		if got.Sub(baseTime) != tt.want {
			t.Fatalf("ComputeDeadline(%q) added %v, want %v", tt.priority, got.Sub(baseTime), tt.want)
		}
	}
}

func TestComputeDeadlineDefaultConfig(t *testing.T) {
	cases := []struct {
		priority domain.TicketPriority
		want     time.Duration
	}{
		{domain.TicketPriorityLow, 24 * time.Hour},
		{domain.TicketPriorityMedium, 8 * time.Hour},
		{domain.TicketPriorityHigh, 4 * time.Hour},
		{domain.TicketPriorityCritical, 2 * time.Hour},
	}

	for _, tt := range cases {
		got := ComputeDeadline(tt.priority, nil, baseTime)
		if got.Sub(baseTime) != tt.want {
			t.Fatalf("ComputeDeadline(%q, nil) added %v, want %v", tt.priority, got.Sub(baseTime), tt.want)
		}
	}
}

func TestCriticalIsHalfOfHigh(t *testing.T) {
	cfg := Config{High: 7, Medium: 8, Low: 24}
	high := ComputeDeadline(domain.TicketPriorityHigh, &cfg, baseTime)
	critical := ComputeDeadline(domain.TicketPriorityCritical, &cfg, baseTime)
	if high.Sub(critical) != 3*time.Hour+30*time.Minute {
		t.Fatalf("critical should trail high by exactly half the high allowance, diff=%v", high.Sub(critical))
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		cfg   Config
		valid bool
	}{
		{Config{High: 4, Medium: 8, Low: 24}, true},
		{Config{High: 24, Medium: 8, Low: 4}, true}, // ordering not enforced
		{Config{High: 0, Medium: 8, Low: 24}, false},
		{Config{High: 4, Medium: -1, Low: 24}, false},
		{Config{}, false},
	}

	for _, tt := range cases {
		err := tt.cfg.Validate()
		if (err == nil) != tt.valid {
			t.Fatalf("Validate(%+v) err=%v, want valid=%v", tt.cfg, err, tt.valid)
		}
	}
}

func TestRemainingAt(t *testing.T) {
	deadline := baseTime.Add(90 * time.Minute)

	got := RemainingAt(deadline, baseTime)
	if got.Overdue || got.Hours != 1 || got.Minutes != 30 || got.TotalMinutes != 90 {
		t.Fatalf("unexpected remaining: %+v", got)
	}

	// exactly at the deadline counts as overdue
	got = RemainingAt(deadline, deadline)
	if !got.Overdue || got.Hours != 0 || got.Minutes != 0 {
		t.Fatalf("deadline == now should be overdue with zero fields, got %+v", got)
	}

	got = RemainingAt(deadline, deadline.Add(-time.Minute))
	if got.Overdue || got.Hours != 0 || got.Minutes != 1 {
		t.Fatalf("one minute before deadline: %+v", got)
	}

	got = RemainingAt(deadline, deadline.Add(48*time.Hour))
	if !got.Overdue {
		t.Fatalf("long past deadline should be overdue, got %+v", got)
	}
}

func TestFormatRemainingAt(t *testing.T) {
	cases := []struct {
		until time.Duration
		want  string
	}{
		{-time.Minute, "Overdue"},
		{0, "Overdue"},
		{-100 * 24 * time.Hour, "Overdue"},
		{25 * time.Minute, "25m remaining"},
		{time.Hour + 5*time.Minute, "1h 5m remaining"},
		{23*time.Hour + 59*time.Minute, "23h 59m remaining"},
		{24 * time.Hour, "1d 0h remaining"},
		{50 * time.Hour, "2d 2h remaining"},
	}

	for _, tt := range cases {
		deadline := baseTime.Add(tt.until)
		if got := FormatRemainingAt(deadline, baseTime); got != tt.want {
			t.Fatalf("FormatRemainingAt(+%v)=%q, want %q", tt.until, got, tt.want)
		}
	}
}

func TestTierAt(t *testing.T) {
	cases := []struct {
		until time.Duration
		want  Tier
	}{
		{-time.Hour, TierCritical},
		{0, TierCritical},
		{30 * time.Minute, TierUrgent},
		{59 * time.Minute, TierUrgent},
		{time.Hour, TierWarning},
		{239 * time.Minute, TierWarning},
		{4 * time.Hour, TierOK},
		{3 * 24 * time.Hour, TierOK},
	}

	for _, tt := range cases {
		deadline := baseTime.Add(tt.until)
		if got := TierAt(deadline, baseTime); got != tt.want {
			t.Fatalf("TierAt(+%v)=%q, want %q", tt.until, got, tt.want)
		}
	}
}

func TestOverdueAt(t *testing.T) {
	deadline := baseTime.Add(4 * time.Hour)
	early := baseTime.Add(time.Hour)
	late := baseTime.Add(6 * time.Hour)

	if OverdueAt(deadline, nil, early) {
		t.Fatal("before deadline with no resolution should not be overdue")
	}
	if !OverdueAt(deadline, nil, late) {
		t.Fatal("past deadline with no resolution should be overdue")
	}
	// resolved before the deadline stays on time even when checked later
	if OverdueAt(deadline, &early, late) {
		t.Fatal("resolved before deadline should not be overdue")
	}
	if !OverdueAt(deadline, &late, late.Add(time.Hour)) {
		t.Fatal("resolved after deadline should be overdue")
	}
}
