package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing search parameters.
type TicketFilter struct {
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Categories   []domain.TicketCategory
	ReporterName *string
	AssignedTo   *string
	ProjectID    *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketStats aggregates the dashboard counters.
type TicketStats struct {
	Total      int64
	Open       int64
	InProgress int64
	Resolved   int64
	Closed     int64
	Critical   int64
	OverdueSLA int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListNumbersByPrefix(ctx context.Context, prefix string) ([]string, error)
	Stats(ctx context.Context, now time.Time) (*TicketStats, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, reporter_name, reporter_email, reporter_phone, category, priority, status,
            subject, description, project_id, assigned_to, sla_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.ReporterPhone,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Subject,
		ticket.Description,
		ticket.ProjectID,
		ticket.AssignedTo,
		ticket.SLADeadline,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET reporter_name=$1, reporter_email=$2, reporter_phone=$3, category=$4, priority=$5,
            status=$6, subject=$7, description=$8, project_id=$9, assigned_to=$10, sla_deadline=$11,
            resolved_at=$12, closed_at=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.ReporterPhone,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Subject,
		ticket.Description,
		ticket.ProjectID,
		ticket.AssignedTo,
		ticket.SLADeadline,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const ticketColumns = `id, ticket_number, reporter_name, reporter_email, reporter_phone, category, priority, status,
               subject, description, project_id, assigned_to, sla_deadline, created_at, updated_at, resolved_at, closed_at`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ReporterName != nil && strings.TrimSpace(*filter.ReporterName) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.ReporterName))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(reporter_name) LIKE $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListNumbersByPrefix returns issued ticket numbers sharing a date prefix.
// This is the snapshot the pure generator works from when the atomic
// allocator is unavailable.
func (r *ticketRepository) ListNumbersByPrefix(ctx context.Context, prefix string) ([]string, error) {
	const query = `SELECT ticket_number FROM tickets WHERE ticket_number LIKE $1`
	rows, err := r.pool.Query(ctx, query, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		result = append(result, number)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context, now time.Time) (*TicketStats, error) {
	const query = `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status='OPEN'),
            COUNT(*) FILTER (WHERE status='IN_PROGRESS'),
            COUNT(*) FILTER (WHERE status='RESOLVED'),
            COUNT(*) FILTER (WHERE status='CLOSED'),
            COUNT(*) FILTER (WHERE priority='CRITICAL'),
            COUNT(*) FILTER (WHERE sla_deadline IS NOT NULL AND status <> 'CLOSED'
                AND COALESCE(resolved_at, $1) > sla_deadline)
        FROM tickets`
	var stats TicketStats
	if err := r.pool.QueryRow(ctx, query, now).Scan(
		&stats.Total,
		&stats.Open,
		&stats.InProgress,
		&stats.Resolved,
		&stats.Closed,
		&stats.Critical,
		&stats.OverdueSLA,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.ReporterName,
		&ticket.ReporterEmail,
		&ticket.ReporterPhone,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Subject,
		&ticket.Description,
		&ticket.ProjectID,
		&ticket.AssignedTo,
		&ticket.SLADeadline,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
