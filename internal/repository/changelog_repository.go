package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ChangeLogRepository stores immutable audit entries.
type ChangeLogRepository interface {
	Create(ctx context.Context, entry *domain.TicketChangeLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketChangeLog, error)
}

type changeLogRepository struct {
	pool *pgxpool.Pool
}

// NewChangeLogRepository builds repository.
func NewChangeLogRepository(pool *pgxpool.Pool) ChangeLogRepository {
	return &changeLogRepository{pool: pool}
}

func (r *changeLogRepository) Create(ctx context.Context, entry *domain.TicketChangeLog) error {
	const query = `
        INSERT INTO ticket_change_logs (ticket_id, user_id, user_name, action, old_value, new_value, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.UserName,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *changeLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketChangeLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, user_name, action, old_value, new_value, description, created_at
        FROM ticket_change_logs WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketChangeLog
	for rows.Next() {
		var entry domain.TicketChangeLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.UserName,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
