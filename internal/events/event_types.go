package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventTicketCommentAdded     EventType = "ticket_comment_added"
	EventTicketFeedbackReceived EventType = "ticket_feedback_received"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	ProjectID    *string               `json:"project_id,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
	Subject      string                `json:"subject"`
	SLADeadline  *time.Time            `json:"sla_deadline,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID      string `json:"comment_id"`
	IsInternal     bool   `json:"is_internal"`
	ContentPreview string `json:"content_preview"`
}

// TicketFeedbackReceivedPayload payload.
type TicketFeedbackReceivedPayload struct {
	Rating int `json:"rating"`
}
