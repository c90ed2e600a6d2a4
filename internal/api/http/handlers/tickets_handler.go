package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, _, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), actor, service.TicketCreateInput{
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		ReporterPhone: req.ReporterPhone,
		Category:      req.Category,
		Priority:      req.Priority,
		Subject:       req.Subject,
		Description:   req.Description,
		ProjectID:     req.ProjectID,
		Attachments:   attachmentInputs(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket, time.Now())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, _, err := requireActor(c); err != nil {
		return err
	}
	tickets, err := h.service.List(c.Context(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	now := time.Now()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i], now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, _, err := requireActor(c); err != nil {
		return err
	}
	ticket, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.respondDetail(c, ticket)
}

// GetTicketByNumber GET /tickets/number/:number.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	if _, _, err := requireActor(c); err != nil {
		return err
	}
	ticket, err := h.service.GetByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return err
	}
	return h.respondDetail(c, ticket)
}

func (h *TicketsHandler) respondDetail(c *fiber.Ctx, ticket *domain.Ticket) error {
	attachments, err := h.service.ListAttachments(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, attachments, time.Now())})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, _, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.Context(), actor, c.Params("id"), service.TicketUpdateInput{
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		ReporterPhone: req.ReporterPhone,
		Category:      req.Category,
		Priority:      req.Priority,
		Subject:       req.Subject,
		Description:   req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, time.Now())})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, _, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SupplierID == "" {
		return apperrors.NewValidationError("supplier_id required", nil)
	}
	ticket, err := h.service.Assign(c.Context(), actor, c.Params("id"), req.SupplierID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, time.Now())})
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, _, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.service.UpdateStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, time.Now())})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, isAdmin, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.Context(), actor, isAdmin, c.Params("id"),
		req.Content, req.IsInternal, attachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	_, isAdmin, err := requireActor(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Context(), isAdmin, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddFeedback POST /tickets/:id/feedback.
func (h *TicketsHandler) AddFeedback(c *fiber.Ctx) error {
	actor, _, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	feedback, err := h.service.AddFeedback(c.Context(), actor, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": feedbackResponse(feedback)})
}

// GetFeedback GET /tickets/:id/feedback.
func (h *TicketsHandler) GetFeedback(c *fiber.Ctx) error {
	if _, _, err := requireActor(c); err != nil {
		return err
	}
	feedback, err := h.service.GetFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if feedback == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": feedbackResponse(feedback)})
}

// ListChangeLog GET /tickets/:id/changelog.
func (h *TicketsHandler) ListChangeLog(c *fiber.Ctx) error {
	if _, _, err := requireActor(c); err != nil {
		return err
	}
	entries, err := h.service.ListChangeLog(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ChangeLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ChangeLogResponse{
			ID:          entry.ID,
			UserName:    entry.UserName,
			Action:      entry.Action,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func requireActor(c *fiber.Ctx) (service.Actor, bool, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Actor{}, false, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{ID: principal.User.ID, Name: principal.User.Name}, principal.IsAdmin(), nil
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	if reporter := c.Query("reporter"); reporter != "" {
		filter.ReporterName = &reporter
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func attachmentInputs(reqs []dto.AttachmentRequest) []service.AttachmentInput {
	inputs := make([]service.AttachmentInput, 0, len(reqs))
	for _, att := range reqs {
		inputs = append(inputs, service.AttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	return inputs
}

func slaView(ticket *domain.Ticket, now time.Time) dto.SLAView {
	view := dto.SLAView{Deadline: ticket.SLADeadline}
	if ticket.SLADeadline == nil {
		return view
	}
	view.Remaining = sla.FormatRemainingAt(*ticket.SLADeadline, now)
	view.Tier = sla.TierAt(*ticket.SLADeadline, now)
	view.Overdue = sla.OverdueAt(*ticket.SLADeadline, ticket.ResolvedAt, now)
	return view
}

func ticketSummary(ticket *domain.Ticket, now time.Time) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		ReporterName: ticket.ReporterName,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		Subject:      ticket.Subject,
		ProjectID:    ticket.ProjectID,
		AssignedTo:   ticket.AssignedTo,
		SLA:          slaView(ticket, now),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, attachments []domain.Attachment, now time.Time) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:            ticket.ID,
		TicketNumber:  ticket.TicketNumber,
		ReporterName:  ticket.ReporterName,
		ReporterEmail: ticket.ReporterEmail,
		ReporterPhone: ticket.ReporterPhone,
		Category:      ticket.Category,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		Subject:       ticket.Subject,
		Description:   ticket.Description,
		ProjectID:     ticket.ProjectID,
		AssignedTo:    ticket.AssignedTo,
		SLA:           slaView(ticket, now),
		Attachments:   attachmentResponses(attachments),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ResolvedAt:    ticket.ResolvedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

func attachmentResponses(attachments []domain.Attachment) []dto.AttachmentResponse {
	resp := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		resp = append(resp, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return resp
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		UserID:      comment.UserID,
		UserName:    comment.UserName,
		Content:     comment.Content,
		IsInternal:  comment.IsInternal,
		Attachments: attachmentResponses(comment.Attachments),
		CreatedAt:   comment.CreatedAt,
	}
}

func feedbackResponse(feedback *domain.TicketFeedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:        feedback.ID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
	}
}
