package domain

import "time"

// ChangeAction identifies what happened in a change-log entry.
type ChangeAction string

const (
	ChangeActionCreated         ChangeAction = "created"
	ChangeActionStatusChanged   ChangeAction = "status_changed"
	ChangeActionPriorityChanged ChangeAction = "priority_changed"
	ChangeActionAssigned        ChangeAction = "assigned"
	ChangeActionCommentAdded    ChangeAction = "comment_added"
	ChangeActionFeedbackAdded   ChangeAction = "feedback_added"
	ChangeActionUpdated         ChangeAction = "updated"
)

// TicketChangeLog is an immutable audit trail entry for a ticket.
type TicketChangeLog struct {
	ID          string
	TicketID    string
	UserID      string
	UserName    string
	Action      ChangeAction
	OldValue    *string
	NewValue    *string
	Description string
	CreatedAt   time.Time
}
