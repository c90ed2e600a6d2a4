package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ReporterName  string                `json:"reporter_name"`
	ReporterEmail string                `json:"reporter_email"`
	ReporterPhone *string               `json:"reporter_phone"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	ProjectID     *string               `json:"project_id"`
	Attachments   []AttachmentRequest   `json:"attachments"`
}

// UpdateTicketRequest payload; omitted fields are left unchanged.
type UpdateTicketRequest struct {
	ReporterName  *string                `json:"reporter_name"`
	ReporterEmail *string                `json:"reporter_email"`
	ReporterPhone *string                `json:"reporter_phone"`
	Category      *domain.TicketCategory `json:"category"`
	Priority      *domain.TicketPriority `json:"priority"`
	Subject       *string                `json:"subject"`
	Description   *string                `json:"description"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	SupplierID string `json:"supplier_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content     string              `json:"content"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// SLAView is the countdown block rendered alongside a ticket.
type SLAView struct {
	Deadline  *time.Time `json:"deadline"`
	Remaining string     `json:"remaining,omitempty"`
	Tier      sla.Tier   `json:"tier,omitempty"`
	Overdue   bool       `json:"overdue"`
}

// TicketSummary list-view response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	ReporterName string                `json:"reporter_name"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	Subject      string                `json:"subject"`
	ProjectID    *string               `json:"project_id"`
	AssignedTo   *string               `json:"assigned_to"`
	SLA          SLAView               `json:"sla"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse full ticket view.
type TicketDetailResponse struct {
	ID            string                `json:"id"`
	TicketNumber  string                `json:"ticket_number"`
	ReporterName  string                `json:"reporter_name"`
	ReporterEmail string                `json:"reporter_email"`
	ReporterPhone *string               `json:"reporter_phone"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	ProjectID     *string               `json:"project_id"`
	AssignedTo    *string               `json:"assigned_to"`
	SLA           SLAView               `json:"sla"`
	Attachments   []AttachmentResponse  `json:"attachments"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
	ClosedAt      *time.Time            `json:"closed_at"`
}

// CommentResponse thread entry.
type CommentResponse struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	UserName    string               `json:"user_name"`
	Content     string               `json:"content"`
	IsInternal  bool                 `json:"is_internal"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ChangeLogResponse audit entry.
type ChangeLogResponse struct {
	ID          string              `json:"id"`
	UserName    string              `json:"user_name"`
	Action      domain.ChangeAction `json:"action"`
	OldValue    *string             `json:"old_value"`
	NewValue    *string             `json:"new_value"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}

// FeedbackResponse rating entry.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
