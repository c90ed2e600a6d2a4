package domain

import "time"

// TicketFeedback is the post-resolution rating left by the reporter.
// At most one feedback record exists per ticket.
type TicketFeedback struct {
	ID        string
	TicketID  string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}
