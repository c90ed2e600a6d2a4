package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ProjectRequest payload for project create/update.
type ProjectRequest struct {
	ProjectCode    string                `json:"project_code"`
	ProjectName    string                `json:"project_name"`
	ContactNumber  string                `json:"contact_number"`
	SignDate       time.Time             `json:"sign_date"`
	Suppliers      []domain.Supplier     `json:"suppliers"`
	SLALevel       domain.SLALevel       `json:"sla_level"`
	ProjectManager domain.ProjectManager `json:"project_manager"`
}

// ProjectResponse full project view.
type ProjectResponse struct {
	ID             string                `json:"id"`
	ProjectCode    string                `json:"project_code"`
	ProjectName    string                `json:"project_name"`
	ContactNumber  string                `json:"contact_number"`
	SignDate       time.Time             `json:"sign_date"`
	Suppliers      []domain.Supplier     `json:"suppliers"`
	SLALevel       domain.SLALevel       `json:"sla_level"`
	ProjectManager domain.ProjectManager `json:"project_manager"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}
