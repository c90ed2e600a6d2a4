package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Config holds the resolution allowances, in hours, for the configurable
// priority tiers. Critical has no field of its own: it is always half of High.
type Config struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultConfig is the allowance table applied when a ticket has no project.
// Callers pass it explicitly; nothing in this package reads it implicitly.
func DefaultConfig() Config {
	return Config{High: 4, Medium: 8, Low: 24}
}

// Validate rejects non-positive allowances. Ordering between tiers is not
// checked; a project may legally configure low < high.
func (c Config) Validate() error {
	if c.High <= 0 || c.Medium <= 0 || c.Low <= 0 {
		return fmt.Errorf("sla hours must be positive: high=%v medium=%v low=%v", c.High, c.Medium, c.Low)
	}
	return nil
}

// ComputeDeadline returns the absolute resolution deadline for a ticket
// created at createdAt. A nil config falls back to DefaultConfig, and an
// unrecognized priority falls back to the medium allowance. Critical gets
// half the high allowance, which may be fractional.
func ComputeDeadline(priority domain.TicketPriority, cfg *Config, createdAt time.Time) time.Time {
	table := DefaultConfig()
	if cfg != nil {
		table = *cfg
	}

	var hours float64
	switch priority {
	case domain.TicketPriorityCritical:
		hours = table.High / 2
	case domain.TicketPriorityHigh:
		hours = table.High
	case domain.TicketPriorityMedium:
		hours = table.Medium
	case domain.TicketPriorityLow:
		hours = table.Low
	default:
		hours = table.Medium
	}

	return createdAt.Add(time.Duration(hours * float64(time.Hour)))
}

// Remaining describes the whole-minute distance to a deadline.
type Remaining struct {
	Overdue      bool
	Hours        int
	Minutes      int
	TotalMinutes int
}

// RemainingAt computes the time left until deadline as of now. A deadline
// that is exactly now counts as overdue.
func RemainingAt(deadline, now time.Time) Remaining {
	diff := deadline.Sub(now)
	if diff <= 0 {
		return Remaining{Overdue: true}
	}
	total := int(diff.Minutes())
	return Remaining{
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
	}
}

// FormatRemainingAt renders the countdown for display.
func FormatRemainingAt(deadline, now time.Time) string {
	remaining := RemainingAt(deadline, now)
	switch {
	case remaining.Overdue:
		return "Overdue"
	case remaining.Hours >= 24:
		return fmt.Sprintf("%dd %dh remaining", remaining.Hours/24, remaining.Hours%24)
	case remaining.Hours > 0:
		return fmt.Sprintf("%dh %dm remaining", remaining.Hours, remaining.Minutes)
	default:
		return fmt.Sprintf("%dm remaining", remaining.Minutes)
	}
}

// Tier is the display severity bucket for a deadline. The presentation layer
// maps tiers to colors.
type Tier string

const (
	TierCritical Tier = "critical"
	TierUrgent   Tier = "urgent"
	TierWarning  Tier = "warning"
	TierOK       Tier = "ok"
)

// TierAt classifies how close a deadline is as of now.
func TierAt(deadline, now time.Time) Tier {
	remaining := RemainingAt(deadline, now)
	switch {
	case remaining.Overdue:
		return TierCritical
	case remaining.TotalMinutes < 60:
		return TierUrgent
	case remaining.TotalMinutes < 240:
		return TierWarning
	default:
		return TierOK
	}
}

// OverdueAt reports whether a ticket missed its deadline. Resolved tickets
// are judged against their resolution time instead of now.
func OverdueAt(deadline time.Time, resolvedAt *time.Time, now time.Time) bool {
	compare := now
	if resolvedAt != nil {
		compare = *resolvedAt
	}
	return compare.After(deadline)
}
