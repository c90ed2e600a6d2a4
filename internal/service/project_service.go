package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// ProjectService coordinates project administration.
type ProjectService struct {
	projects repository.ProjectRepository
}

// ProjectInput describes project create/update payload.
type ProjectInput struct {
	ProjectCode    string
	ProjectName    string
	ContactNumber  string
	SignDate       time.Time
	Suppliers      []domain.Supplier
	SLALevel       domain.SLALevel
	ProjectManager domain.ProjectManager
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create registers a new project after validating its SLA table.
func (s *ProjectService) Create(ctx context.Context, input ProjectInput) (*domain.Project, error) {
	if err := validateProjectInput(&input); err != nil {
		return nil, err
	}

	project := &domain.Project{
		ProjectCode:    strings.TrimSpace(input.ProjectCode),
		ProjectName:    strings.TrimSpace(input.ProjectName),
		ContactNumber:  strings.TrimSpace(input.ContactNumber),
		SignDate:       input.SignDate,
		Suppliers:      input.Suppliers,
		SLALevel:       input.SLALevel,
		ProjectManager: input.ProjectManager,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Update replaces a project's fields. Tickets created earlier keep the SLA
// deadline computed from the configuration in force at their creation.
func (s *ProjectService) Update(ctx context.Context, id string, input ProjectInput) (*domain.Project, error) {
	if err := validateProjectInput(&input); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project.ProjectCode = strings.TrimSpace(input.ProjectCode)
	project.ProjectName = strings.TrimSpace(input.ProjectName)
	project.ContactNumber = strings.TrimSpace(input.ContactNumber)
	project.SignDate = input.SignDate
	project.Suppliers = input.Suppliers
	project.SLALevel = input.SLALevel
	project.ProjectManager = input.ProjectManager

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get fetches a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// List returns all projects, newest first.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.projects.List(ctx)
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.projects.Delete(ctx, id)
}

func validateProjectInput(input *ProjectInput) error {
	if strings.TrimSpace(input.ProjectCode) == "" || strings.TrimSpace(input.ProjectName) == "" {
		return apperrors.NewValidationError("project_code and project_name required", nil)
	}

	cfg := sla.Config{High: input.SLALevel.High, Medium: input.SLALevel.Medium, Low: input.SLALevel.Low}
	if err := cfg.Validate(); err != nil {
		return apperrors.NewValidationError("sla hours must be positive", map[string]any{
			"high":   input.SLALevel.High,
			"medium": input.SLALevel.Medium,
			"low":    input.SLALevel.Low,
		})
	}

	for i := range input.Suppliers {
		if strings.TrimSpace(input.Suppliers[i].Name) == "" {
			return apperrors.NewValidationError("supplier name required", nil)
		}
		if input.Suppliers[i].ID == "" {
			input.Suppliers[i].ID = uuid.NewString()
		}
	}
	return nil
}
