package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

var testDay = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}
}

type fakeTicketRepo struct {
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	for _, existing := range r.tickets {
		if existing.TicketNumber == ticket.TicketNumber {
			return uniqueViolation()
		}
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = testDay
	ticket.UpdatedAt = testDay
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) ListNumbersByPrefix(_ context.Context, prefix string) ([]string, error) {
	var result []string
	for _, ticket := range r.tickets {
		if strings.HasPrefix(ticket.TicketNumber, prefix) {
			result = append(result, ticket.TicketNumber)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) Stats(_ context.Context, _ time.Time) (*repository.TicketStats, error) {
	return &repository.TicketStats{Total: int64(len(r.tickets))}, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type fakeProjectRepo struct {
	projects map[string]*domain.Project
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return project, nil
}

func (r *fakeProjectRepo) List(_ context.Context) ([]domain.Project, error) { return nil, nil }
func (r *fakeProjectRepo) Delete(_ context.Context, _ string) error         { return nil }

type fakeCommentRepo struct {
	seq      int
	comments []domain.TicketComment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = testDay
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	seq         int
	attachments []domain.Attachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.seq++
	attachment.ID = fmt.Sprintf("attachment-%d", r.seq)
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, att := range r.attachments {
		if att.TicketID == ticketID && att.CommentID == nil {
			result = append(result, att)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) ListByComment(_ context.Context, commentID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, att := range r.attachments {
		if att.CommentID != nil && *att.CommentID == commentID {
			result = append(result, att)
		}
	}
	return result, nil
}

type fakeChangeLogRepo struct {
	entries []domain.TicketChangeLog
}

func (r *fakeChangeLogRepo) Create(_ context.Context, entry *domain.TicketChangeLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeChangeLogRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketChangeLog, error) {
	var result []domain.TicketChangeLog
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeChangeLogRepo) lastAction() domain.ChangeAction {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

type fakeFeedbackRepo struct {
	byTicket map[string]*domain.TicketFeedback
}

func (r *fakeFeedbackRepo) Create(_ context.Context, feedback *domain.TicketFeedback) error {
	if _, ok := r.byTicket[feedback.TicketID]; ok {
		return uniqueViolation()
	}
	feedback.ID = "feedback-" + feedback.TicketID
	r.byTicket[feedback.TicketID] = feedback
	return nil
}

func (r *fakeFeedbackRepo) GetByTicket(_ context.Context, ticketID string) (*domain.TicketFeedback, error) {
	feedback, ok := r.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return feedback, nil
}

type fakeAllocator struct {
	numbers []string
	err     error
	calls   int
}

func (a *fakeAllocator) NextTicketNumber(_ context.Context, _ time.Time) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	if len(a.numbers) == 0 {
		return "", errors.New("allocator exhausted")
	}
	number := a.numbers[0]
	a.numbers = a.numbers[1:]
	return number, nil
}

type harness struct {
	service     *TicketService
	tickets     *fakeTicketRepo
	projects    *fakeProjectRepo
	comments    *fakeCommentRepo
	attachments *fakeAttachmentRepo
	changelog   *fakeChangeLogRepo
	feedback    *fakeFeedbackRepo
	events      *[]events.Event
}

func newHarness(t *testing.T, allocator repository.SequenceAllocator) *harness {
	t.Helper()

	tickets := newFakeTicketRepo()
	projects := &fakeProjectRepo{projects: map[string]*domain.Project{}}
	comments := &fakeCommentRepo{}
	attachments := &fakeAttachmentRepo{}
	changelog := &fakeChangeLogRepo{}
	feedback := &fakeFeedbackRepo{byTicket: map[string]*domain.TicketFeedback{}}

	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	record := func(_ context.Context, event events.Event) error {
		*published = append(*published, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketFeedbackReceived,
	} {
		dispatcher.Subscribe(eventType, record)
	}

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		ProjectRepo:    projects,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		ChangeLogRepo:  changelog,
		FeedbackRepo:   feedback,
		Sequences:      allocator,
		Dispatcher:     dispatcher,
		DefaultSLA:     sla.DefaultConfig(),
		Clock:          func() time.Time { return testDay },
	})

	return &harness{
		service:     svc,
		tickets:     tickets,
		projects:    projects,
		comments:    comments,
		attachments: attachments,
		changelog:   changelog,
		feedback:    feedback,
		events:      published,
	}
}

func (h *harness) addProject(id string, slaLevel domain.SLALevel, suppliers ...domain.Supplier) {
	h.projects.projects[id] = &domain.Project{
		ID:          id,
		ProjectCode: "P-" + id,
		ProjectName: "Project " + id,
		SLALevel:    slaLevel,
		Suppliers:   suppliers,
	}
}

func (h *harness) createTicket(t *testing.T, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := h.service.Create(context.Background(), Actor{ID: "u1", Name: "Alice"}, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func basicInput() TicketCreateInput {
	return TicketCreateInput{
		ReporterName:  "Bob",
		ReporterEmail: "bob@example.com",
		Priority:      domain.TicketPriorityHigh,
		Subject:       "Printer on fire",
		Description:   "Smoke everywhere",
	}
}

func TestCreateFreezesDeadlineFromProjectSLA(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	h.addProject("proj-1", domain.SLALevel{High: 2, Medium: 8, Low: 24})

	input := basicInput()
	projectID := "proj-1"
	input.ProjectID = &projectID

	ticket := h.createTicket(t, input)

	if ticket.TicketNumber != "RHD-20260115-0001" {
		t.Fatalf("ticket number = %q", ticket.TicketNumber)
	}
	if ticket.SLADeadline == nil {
		t.Fatal("expected SLA deadline")
	}
	want := testDay.Add(2 * time.Hour)
	if !ticket.SLADeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", ticket.SLADeadline, want)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %v", ticket.Status)
	}
	if h.changelog.lastAction() != domain.ChangeActionCreated {
		t.Fatalf("last changelog action = %v", h.changelog.lastAction())
	}
	if len(*h.events) != 1 || (*h.events)[0].Type != events.EventTicketCreated {
		t.Fatalf("events = %+v", *h.events)
	}
}

func TestCreateCriticalWithoutProjectUsesDefaultSLA(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})

	input := basicInput()
	input.Priority = domain.TicketPriorityCritical

	ticket := h.createTicket(t, input)

	// half of the default 4h high allowance
	want := testDay.Add(2 * time.Hour)
	if ticket.SLADeadline == nil || !ticket.SLADeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", ticket.SLADeadline, want)
	}
}

func TestCreateRetriesWhenAllocatorNumberTaken(t *testing.T) {
	allocator := &fakeAllocator{numbers: []string{"RHD-20260115-0001"}}
	h := newHarness(t, allocator)

	// an earlier ticket already holds the number the allocator will hand out
	first := &domain.Ticket{
		TicketNumber:  "RHD-20260115-0001",
		ReporterName:  "Eve",
		ReporterEmail: "eve@example.com",
		Subject:       "Existing",
		Status:        domain.TicketStatusOpen,
	}
	if err := h.tickets.Create(context.Background(), first); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	ticket := h.createTicket(t, basicInput())
	if ticket.TicketNumber != "RHD-20260115-0002" {
		t.Fatalf("ticket number = %q, want fallback 0002", ticket.TicketNumber)
	}
}

func TestCreateWithoutAllocatorScansExistingNumbers(t *testing.T) {
	h := newHarness(t, nil)

	for _, number := range []string{"RHD-20260115-0001", "RHD-20260115-0003", "RHD-20260114-0009"} {
		seed := &domain.Ticket{
			TicketNumber:  number,
			ReporterName:  "Eve",
			ReporterEmail: "eve@example.com",
			Subject:       "Seed",
			Status:        domain.TicketStatusOpen,
		}
		if err := h.tickets.Create(context.Background(), seed); err != nil {
			t.Fatalf("seed %s: %v", number, err)
		}
	}

	ticket := h.createTicket(t, basicInput())
	if ticket.TicketNumber != "RHD-20260115-0004" {
		t.Fatalf("ticket number = %q, want 0004 after the 0003 gap", ticket.TicketNumber)
	}
}

func TestCreateFallsBackWhenAllocatorUnavailable(t *testing.T) {
	h := newHarness(t, &fakeAllocator{err: errors.New("redis down")})

	ticket := h.createTicket(t, basicInput())
	if ticket.TicketNumber != "RHD-20260115-0001" {
		t.Fatalf("ticket number = %q", ticket.TicketNumber)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})

	input := basicInput()
	input.ReporterEmail = ""
	if _, err := h.service.Create(context.Background(), Actor{ID: "u1"}, input); err == nil {
		t.Fatal("expected validation error for missing email")
	}

	input = basicInput()
	projectID := "missing"
	input.ProjectID = &projectID
	_, err := h.service.Create(context.Background(), Actor{ID: "u1"}, input)
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil || domainErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for unknown project, got %v", err)
	}
}

func TestAssignRequiresProjectSupplier(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	h.addProject("proj-1", domain.SLALevel{High: 4, Medium: 8, Low: 24},
		domain.Supplier{ID: "sup-1", Name: "Acme Support"})

	input := basicInput()
	projectID := "proj-1"
	input.ProjectID = &projectID
	ticket := h.createTicket(t, input)

	if _, err := h.service.Assign(context.Background(), Actor{ID: "admin"}, ticket.ID, "sup-unknown"); err == nil {
		t.Fatal("expected error assigning a foreign supplier")
	}

	assigned, err := h.service.Assign(context.Background(), Actor{ID: "admin"}, ticket.ID, "sup-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != "sup-1" {
		t.Fatalf("assigned_to = %v", assigned.AssignedTo)
	}
	if assigned.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %v, want IN_PROGRESS after assignment", assigned.Status)
	}
	if h.changelog.lastAction() != domain.ChangeActionAssigned {
		t.Fatalf("last changelog action = %v", h.changelog.lastAction())
	}
}

func TestStatusTransitions(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())
	ctx := context.Background()
	actor := Actor{ID: "admin", Name: "Admin"}

	if _, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusClosed); err == nil {
		t.Fatal("OPEN -> CLOSED should be rejected")
	}

	resolved, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusResolved)
	if err != nil {
		t.Fatalf("OPEN -> RESOLVED: %v", err)
	}
	if resolved.ResolvedAt == nil || !resolved.ResolvedAt.Equal(testDay) {
		t.Fatalf("resolved_at = %v", resolved.ResolvedAt)
	}

	reopened, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("RESOLVED -> IN_PROGRESS: %v", err)
	}
	if reopened.ResolvedAt != nil {
		t.Fatal("reopening should clear resolved_at")
	}

	if _, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusResolved); err != nil {
		t.Fatalf("IN_PROGRESS -> RESOLVED: %v", err)
	}
	closed, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("RESOLVED -> CLOSED: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatal("closed_at not stamped")
	}

	if _, err := h.service.UpdateStatus(ctx, actor, ticket.ID, domain.TicketStatusOpen); err == nil {
		t.Fatal("CLOSED is terminal")
	}
}

func TestUpdatePriorityKeepsDeadline(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())
	originalDeadline := *ticket.SLADeadline

	newPriority := domain.TicketPriorityCritical
	updated, err := h.service.Update(context.Background(), Actor{ID: "admin"}, ticket.ID, TicketUpdateInput{
		Priority: &newPriority,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Priority != domain.TicketPriorityCritical {
		t.Fatalf("priority = %v", updated.Priority)
	}
	if updated.SLADeadline == nil || !updated.SLADeadline.Equal(originalDeadline) {
		t.Fatalf("deadline moved from %v to %v; it must stay frozen", originalDeadline, updated.SLADeadline)
	}
	if h.changelog.lastAction() != domain.ChangeActionPriorityChanged {
		t.Fatalf("last changelog action = %v", h.changelog.lastAction())
	}
}

func TestUpdateNoChangesNoAudit(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())
	before := len(h.changelog.entries)

	samePriority := ticket.Priority
	if _, err := h.service.Update(context.Background(), Actor{ID: "admin"}, ticket.ID, TicketUpdateInput{
		Priority: &samePriority,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(h.changelog.entries) != before {
		t.Fatalf("no-op update wrote %d audit entries", len(h.changelog.entries)-before)
	}
}

func TestInternalCommentsAdminOnly(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())
	ctx := context.Background()

	if _, err := h.service.AddComment(ctx, Actor{ID: "u1", Name: "Bob"}, false, ticket.ID, "secret note", true, nil); err == nil {
		t.Fatal("non-admin must not post internal comments")
	}

	if _, err := h.service.AddComment(ctx, Actor{ID: "admin", Name: "Admin"}, true, ticket.ID, "internal note", true, nil); err != nil {
		t.Fatalf("admin internal comment: %v", err)
	}
	if _, err := h.service.AddComment(ctx, Actor{ID: "u1", Name: "Bob"}, false, ticket.ID, "public reply", false, nil); err != nil {
		t.Fatalf("public comment: %v", err)
	}

	visible, err := h.service.ListComments(ctx, false, ticket.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(visible) != 1 || visible[0].Content != "public reply" {
		t.Fatalf("non-admin sees %+v", visible)
	}

	all, err := h.service.ListComments(ctx, true, ticket.ID)
	if err != nil {
		t.Fatalf("ListComments admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin sees %d comments, want 2", len(all))
	}
}

func TestCommentAttachmentsLinked(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())

	comment, err := h.service.AddComment(context.Background(), Actor{ID: "u1", Name: "Bob"}, false,
		ticket.ID, "see screenshot", false,
		[]AttachmentInput{{StorageKey: "uploads/a.png", FileName: "a.png", MimeType: "image/png", SizeBytes: 1024}})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(comment.Attachments) != 1 || comment.Attachments[0].FileName != "a.png" {
		t.Fatalf("attachments = %+v", comment.Attachments)
	}
	if comment.Attachments[0].CommentID == nil || *comment.Attachments[0].CommentID != comment.ID {
		t.Fatal("attachment not linked to comment")
	}
}

func TestFeedbackRules(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())
	ctx := context.Background()
	actor := Actor{ID: "u1", Name: "Bob"}

	if _, err := h.service.AddFeedback(ctx, actor, ticket.ID, 5, nil); err == nil {
		t.Fatal("feedback on an open ticket must be rejected")
	}

	if _, err := h.service.UpdateStatus(ctx, Actor{ID: "admin"}, ticket.ID, domain.TicketStatusResolved); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := h.service.AddFeedback(ctx, actor, ticket.ID, 0, nil); err == nil {
		t.Fatal("rating 0 must be rejected")
	}
	if _, err := h.service.AddFeedback(ctx, actor, ticket.ID, 6, nil); err == nil {
		t.Fatal("rating 6 must be rejected")
	}

	comment := "great service"
	feedback, err := h.service.AddFeedback(ctx, actor, ticket.ID, 4, &comment)
	if err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	if feedback.Rating != 4 {
		t.Fatalf("rating = %d", feedback.Rating)
	}

	_, err = h.service.AddFeedback(ctx, actor, ticket.ID, 5, nil)
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil || domainErr.Code != "CONFLICT" {
		t.Fatalf("second feedback should conflict, got %v", err)
	}

	stored, err := h.service.GetFeedback(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if stored == nil || stored.Rating != 4 {
		t.Fatalf("stored feedback = %+v", stored)
	}
}

func TestGetByNumberValidatesFormat(t *testing.T) {
	h := newHarness(t, &fakeAllocator{numbers: []string{"RHD-20260115-0001"}})
	ticket := h.createTicket(t, basicInput())

	if _, err := h.service.GetByNumber(context.Background(), "RHD-2026-1"); err == nil {
		t.Fatal("malformed number must be rejected before hitting storage")
	}

	found, err := h.service.GetByNumber(context.Background(), ticket.TicketNumber)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if found.ID != ticket.ID {
		t.Fatalf("found %q, want %q", found.ID, ticket.ID)
	}
}
