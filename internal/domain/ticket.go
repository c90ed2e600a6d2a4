package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketCategory classifies the affected area.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "HARDWARE"
	TicketCategorySoftware TicketCategory = "SOFTWARE"
	TicketCategoryNetwork  TicketCategory = "NETWORK"
	TicketCategorySecurity TicketCategory = "SECURITY"
	TicketCategoryDatabase TicketCategory = "DATABASE"
	TicketCategoryOther    TicketCategory = "OTHER"
)

// Ticket is the aggregate for support requests. SLADeadline is computed once
// at creation from the owning project's SLA snapshot and never recomputed.
type Ticket struct {
	ID            string
	TicketNumber  string
	ReporterName  string
	ReporterEmail string
	ReporterPhone *string
	Category      TicketCategory
	Priority      TicketPriority
	Status        TicketStatus
	Subject       string
	Description   string
	ProjectID     *string
	AssignedTo    *string
	SLADeadline   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
	ClosedAt      *time.Time
}

// Attachment stores metadata for an uploaded file linked to a ticket or
// comment. File contents live in external storage under StorageKey.
type Attachment struct {
	ID         string
	TicketID   string
	CommentID  *string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
