package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ProjectRepository manages project persistence. Suppliers, the SLA level and
// the project manager are stored as JSONB documents on the project row.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository builds the repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	suppliers, slaLevel, manager, err := marshalProjectDocs(project)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO projects (project_code, project_name, contact_number, sign_date, suppliers, sla_level, project_manager)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		project.ProjectCode,
		project.ProjectName,
		project.ContactNumber,
		project.SignDate,
		suppliers,
		slaLevel,
		manager,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	suppliers, slaLevel, manager, err := marshalProjectDocs(project)
	if err != nil {
		return err
	}

	const query = `
        UPDATE projects SET project_code=$1, project_name=$2, contact_number=$3, sign_date=$4,
            suppliers=$5, sla_level=$6, project_manager=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		project.ProjectCode,
		project.ProjectName,
		project.ContactNumber,
		project.SignDate,
		suppliers,
		slaLevel,
		manager,
		project.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
        SELECT id, project_code, project_name, contact_number, sign_date, suppliers, sla_level, project_manager, created_at, updated_at
        FROM projects WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanProject(row)
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const query = `
        SELECT id, project_code, project_name, contact_number, sign_date, suppliers, sla_level, project_manager, created_at, updated_at
        FROM projects ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *project)
	}
	return result, rows.Err()
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func marshalProjectDocs(project *domain.Project) ([]byte, []byte, []byte, error) {
	suppliers := project.Suppliers
	if suppliers == nil {
		suppliers = []domain.Supplier{}
	}
	supplierDoc, err := json.Marshal(suppliers)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal suppliers: %w", err)
	}
	slaDoc, err := json.Marshal(project.SLALevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal sla level: %w", err)
	}
	managerDoc, err := json.Marshal(project.ProjectManager)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal project manager: %w", err)
	}
	return supplierDoc, slaDoc, managerDoc, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project     domain.Project
		supplierDoc []byte
		slaDoc      []byte
		managerDoc  []byte
	)
	if err := row.Scan(
		&project.ID,
		&project.ProjectCode,
		&project.ProjectName,
		&project.ContactNumber,
		&project.SignDate,
		&supplierDoc,
		&slaDoc,
		&managerDoc,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(supplierDoc, &project.Suppliers); err != nil {
		return nil, fmt.Errorf("unmarshal suppliers: %w", err)
	}
	if err := json.Unmarshal(slaDoc, &project.SLALevel); err != nil {
		return nil, fmt.Errorf("unmarshal sla level: %w", err)
	}
	if err := json.Unmarshal(managerDoc, &project.ProjectManager); err != nil {
		return nil, fmt.Errorf("unmarshal project manager: %w", err)
	}
	return &project, nil
}
