package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/ticketnum"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// attempts against a stale identifier snapshot before giving up
const maxNumberAttempts = 3

// Actor identifies who performed an operation, for the audit trail.
type Actor struct {
	ID   string
	Name string
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	projects    repository.ProjectRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	changelog   repository.ChangeLogRepository
	feedback    repository.FeedbackRepository
	sequences   repository.SequenceAllocator
	dispatcher  events.Dispatcher
	defaultSLA  sla.Config
	clock       func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ProjectRepo    repository.ProjectRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	ChangeLogRepo  repository.ChangeLogRepository
	FeedbackRepo   repository.FeedbackRepository
	Sequences      repository.SequenceAllocator
	Dispatcher     events.Dispatcher
	DefaultSLA     sla.Config
	Clock          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ReporterName  string
	ReporterEmail string
	ReporterPhone *string
	Category      domain.TicketCategory
	Priority      domain.TicketPriority
	Subject       string
	Description   string
	ProjectID     *string
	Attachments   []AttachmentInput
}

// TicketUpdateInput holds optional field updates; nil fields are untouched.
type TicketUpdateInput struct {
	ReporterName  *string
	ReporterEmail *string
	ReporterPhone *string
	Category      *domain.TicketCategory
	Priority      *domain.TicketPriority
	Subject       *string
	Description   *string
}

// AttachmentInput defines attachment metadata supplied by the upload layer.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// DashboardStats aggregates ticket counters for the dashboard.
type DashboardStats struct {
	Total      int64 `json:"total_tickets"`
	Open       int64 `json:"open_tickets"`
	InProgress int64 `json:"in_progress_tickets"`
	Resolved   int64 `json:"resolved_tickets"`
	Closed     int64 `json:"closed_tickets"`
	Critical   int64 `json:"critical_tickets"`
	OverdueSLA int64 `json:"overdue_sla_tickets"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	defaultSLA := deps.DefaultSLA
	if defaultSLA.Validate() != nil {
		defaultSLA = sla.DefaultConfig()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		projects:    deps.ProjectRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		changelog:   deps.ChangeLogRepo,
		feedback:    deps.FeedbackRepo,
		sequences:   deps.Sequences,
		dispatcher:  deps.Dispatcher,
		defaultSLA:  defaultSLA,
		clock:       clock,
	}
}

// Create files a new ticket: allocates the daily identifier, snapshots the
// project's SLA configuration into an absolute deadline, and records the
// creation in the audit trail.
func (s *TicketService) Create(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.ReporterName) == "" || strings.TrimSpace(input.ReporterEmail) == "" {
		return nil, apperrors.NewValidationError("reporter_name and reporter_email required", nil)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if input.Category == "" {
		input.Category = domain.TicketCategoryOther
	}

	slaConfig := s.defaultSLA
	if input.ProjectID != nil {
		project, err := s.projects.GetByID(ctx, *input.ProjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("project", map[string]any{"project_id": *input.ProjectID})
			}
			return nil, err
		}
		slaConfig = sla.Config{
			High:   project.SLALevel.High,
			Medium: project.SLALevel.Medium,
			Low:    project.SLALevel.Low,
		}
	}

	now := s.clock()
	deadline := sla.ComputeDeadline(input.Priority, &slaConfig, now)

	ticket := &domain.Ticket{
		ReporterName:  strings.TrimSpace(input.ReporterName),
		ReporterEmail: strings.TrimSpace(input.ReporterEmail),
		ReporterPhone: input.ReporterPhone,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        domain.TicketStatusOpen,
		Subject:       strings.TrimSpace(input.Subject),
		Description:   strings.TrimSpace(input.Description),
		ProjectID:     input.ProjectID,
		SLADeadline:   &deadline,
	}

	if err := s.createWithUniqueNumber(ctx, ticket, now); err != nil {
		return nil, err
	}

	for _, att := range input.Attachments {
		record := &domain.Attachment{
			TicketID:   ticket.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, err
		}
	}

	s.recordChange(ctx, actor, ticket.ID, domain.ChangeActionCreated, nil, nil, "Ticket created")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			ProjectID:    ticket.ProjectID,
			Priority:     ticket.Priority,
			Subject:      ticket.Subject,
			SLADeadline:  ticket.SLADeadline,
		},
	})
	return ticket, nil
}

// createWithUniqueNumber inserts the ticket, retrying with a fresh identifier
// when the chosen number collides with a concurrent writer. The atomic
// allocator is preferred; the pure snapshot generator covers the cases where
// Redis is unreachable or its counter lags the table.
func (s *TicketService) createWithUniqueNumber(ctx context.Context, ticket *domain.Ticket, today time.Time) error {
	var lastErr error
	useSnapshot := s.sequences == nil

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := s.nextTicketNumber(ctx, today, useSnapshot)
		if err != nil {
			return err
		}
		ticket.TicketNumber = number

		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if !apperrors.IsUniqueViolation(err) {
			return err
		}
		// stale snapshot or lagging counter; rescan and try again
		lastErr = err
		useSnapshot = true
	}
	return apperrors.NewConflict("could not allocate a unique ticket number", map[string]any{
		"last_error": fmt.Sprint(lastErr),
	})
}

func (s *TicketService) nextTicketNumber(ctx context.Context, today time.Time, useSnapshot bool) (string, error) {
	if !useSnapshot {
		number, err := s.sequences.NextTicketNumber(ctx, today)
		if err == nil {
			return number, nil
		}
	}
	existing, err := s.tickets.ListNumbersByPrefix(ctx, ticketnum.DatePrefix(today))
	if err != nil {
		return "", err
	}
	return ticketnum.Generate(existing, today), nil
}

// Get fetches a single ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// GetByNumber fetches a ticket by its human-facing identifier.
func (s *TicketService) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	if !ticketnum.IsValid(number) {
		return nil, apperrors.NewValidationError("invalid ticket number format", map[string]any{"ticket_number": number})
	}
	return s.tickets.GetByNumber(ctx, number)
}

// List returns tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// ListAttachments returns ticket-level attachment metadata.
func (s *TicketService) ListAttachments(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	return s.attachments.ListByTicket(ctx, ticketID)
}

// Update applies field edits and records one audit entry per changed field.
// Editing priority does not recompute the SLA deadline; the deadline is a
// snapshot taken at creation.
func (s *TicketService) Update(ctx context.Context, actor Actor, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	changes := []fieldChange{}
	applyString(&changes, "reporter_name", &ticket.ReporterName, input.ReporterName)
	applyString(&changes, "reporter_email", &ticket.ReporterEmail, input.ReporterEmail)
	applyOptString(&changes, "reporter_phone", &ticket.ReporterPhone, input.ReporterPhone)
	applyString(&changes, "subject", &ticket.Subject, input.Subject)
	applyString(&changes, "description", &ticket.Description, input.Description)
	if input.Category != nil && *input.Category != ticket.Category {
		changes = append(changes, fieldChange{"category", string(ticket.Category), string(*input.Category), domain.ChangeActionUpdated})
		ticket.Category = *input.Category
	}
	if input.Priority != nil && *input.Priority != ticket.Priority {
		changes = append(changes, fieldChange{"priority", string(ticket.Priority), string(*input.Priority), domain.ChangeActionPriorityChanged})
		ticket.Priority = *input.Priority
	}

	if len(changes) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	for _, change := range changes {
		oldVal, newVal := change.old, change.new
		s.recordChange(ctx, actor, ticket.ID, change.action, &oldVal, &newVal,
			fmt.Sprintf("%s changed from %s to %s", change.field, orEmpty(oldVal), orEmpty(newVal)))
	}
	return ticket, nil
}

// Assign hands the ticket to a supplier of its project and moves an open
// ticket into progress.
func (s *TicketService) Assign(ctx context.Context, actor Actor, ticketID, supplierID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ProjectID == nil {
		return nil, apperrors.NewValidationError("ticket has no project; nothing to assign from", nil)
	}
	project, err := s.projects.GetByID(ctx, *ticket.ProjectID)
	if err != nil {
		return nil, err
	}
	supplier, ok := project.SupplierByID(supplierID)
	if !ok {
		return nil, apperrors.NewValidationError("supplier not part of project", map[string]any{"supplier_id": supplierID})
	}

	oldAssignee := ticket.AssignedTo
	ticket.AssignedTo = &supplier.ID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	var oldVal *string
	if oldAssignee != nil {
		v := *oldAssignee
		oldVal = &v
	}
	s.recordChange(ctx, actor, ticket.ID, domain.ChangeActionAssigned, oldVal, &supplier.ID,
		fmt.Sprintf("Ticket assigned to supplier %s", supplier.Name))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketAssignedPayload{
			SupplierID:   supplier.ID,
			SupplierName: supplier.Name,
		},
	})
	return ticket, nil
}

// UpdateStatus moves the ticket through its lifecycle, stamping resolution
// and closure times.
func (s *TicketService) UpdateStatus(ctx context.Context, actor Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	now := s.clock()
	oldStatus := ticket.Status
	ticket.Status = newStatus
	switch newStatus {
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
	case domain.TicketStatusInProgress:
		// reopened tickets lose their resolution stamp
		ticket.ResolvedAt = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	oldVal, newVal := string(oldStatus), string(newStatus)
	s.recordChange(ctx, actor, ticket.ID, domain.ChangeActionStatusChanged, &oldVal, &newVal,
		fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// AddComment appends a comment; internal notes require an admin author.
func (s *TicketService) AddComment(ctx context.Context, actor Actor, isAdmin bool, ticketID, content string, isInternal bool, attachments []AttachmentInput) (*domain.TicketComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if isInternal && !isAdmin {
		return nil, apperrors.NewForbidden("internal comments require admin role")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Content:    strings.TrimSpace(content),
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	for _, att := range attachments {
		record := &domain.Attachment{
			TicketID:   ticket.ID,
			CommentID:  &comment.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, err
		}
		comment.Attachments = append(comment.Attachments, *record)
	}

	s.recordChange(ctx, actor, ticket.ID, domain.ChangeActionCommentAdded, nil, nil, "Comment added to ticket")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:      comment.ID,
			IsInternal:     comment.IsInternal,
			ContentPreview: stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListComments returns a ticket's comment thread with attachments. Internal
// notes are omitted unless the caller is an admin.
func (s *TicketService) ListComments(ctx context.Context, isAdmin bool, ticketID string) ([]domain.TicketComment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.TicketComment, 0, len(comments))
	for i := range comments {
		if comments[i].IsInternal && !isAdmin {
			continue
		}
		attachments, err := s.attachments.ListByComment(ctx, comments[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i].Attachments = attachments
		visible = append(visible, comments[i])
	}
	return visible, nil
}

// AddFeedback records the reporter's post-resolution rating. One rating per
// ticket; a second submission surfaces the storage conflict.
func (s *TicketService) AddFeedback(ctx context.Context, actor Actor, ticketID string, rating int, comment *string) (*domain.TicketFeedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("feedback requires a resolved or closed ticket", map[string]any{"status": ticket.Status})
	}

	feedback := &domain.TicketFeedback{
		TicketID: ticket.ID,
		Rating:   rating,
		Comment:  comment,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("feedback already submitted for this ticket", nil)
		}
		return nil, err
	}

	s.recordChange(ctx, actor, ticket.ID, domain.ChangeActionFeedbackAdded, nil, nil, "Feedback submitted")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFeedbackReceived,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketFeedbackReceivedPayload{Rating: rating},
	})
	return feedback, nil
}

// GetFeedback returns the ticket's rating, or nil when none exists.
func (s *TicketService) GetFeedback(ctx context.Context, ticketID string) (*domain.TicketFeedback, error) {
	feedback, err := s.feedback.GetByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return feedback, nil
}

// ListChangeLog returns the audit trail for a ticket.
func (s *TicketService) ListChangeLog(ctx context.Context, ticketID string) ([]domain.TicketChangeLog, error) {
	return s.changelog.ListByTicket(ctx, ticketID)
}

// Delete removes a ticket permanently.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	return s.tickets.Delete(ctx, id)
}

// Stats computes dashboard counters as of now.
func (s *TicketService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats, err := s.tickets.Stats(ctx, s.clock())
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Total:      stats.Total,
		Open:       stats.Open,
		InProgress: stats.InProgress,
		Resolved:   stats.Resolved,
		Closed:     stats.Closed,
		Critical:   stats.Critical,
		OverdueSLA: stats.OverdueSLA,
	}, nil
}

type fieldChange struct {
	field  string
	old    string
	new    string
	action domain.ChangeAction
}

func applyString(changes *[]fieldChange, field string, target *string, update *string) {
	if update == nil {
		return
	}
	value := strings.TrimSpace(*update)
	if value == *target {
		return
	}
	*changes = append(*changes, fieldChange{field, *target, value, domain.ChangeActionUpdated})
	*target = value
}

func applyOptString(changes *[]fieldChange, field string, target **string, update *string) {
	if update == nil {
		return
	}
	old := ""
	if *target != nil {
		old = **target
	}
	value := strings.TrimSpace(*update)
	if value == old {
		return
	}
	*changes = append(*changes, fieldChange{field, old, value, domain.ChangeActionUpdated})
	if value == "" {
		*target = nil
	} else {
		v := value
		*target = &v
	}
}

func orEmpty(s string) string {
	if s == "" {
		return "empty"
	}
	return s
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) recordChange(ctx context.Context, actor Actor, ticketID string, action domain.ChangeAction, oldValue, newValue *string, description string) {
	if s.changelog == nil {
		return
	}
	entry := &domain.TicketChangeLog{
		TicketID:    ticketID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
	}
	_ = s.changelog.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
