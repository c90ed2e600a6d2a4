package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func validProjectInput() ProjectInput {
	return ProjectInput{
		ProjectCode:   "RHD-CONTRACT-7",
		ProjectName:   "Regional Helpdesk Rollout",
		ContactNumber: "021-555-0101",
		SignDate:      time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		SLALevel:      domain.SLALevel{High: 4, Medium: 8, Low: 24},
		Suppliers: []domain.Supplier{
			{Name: "Acme Field Services", Email: "support@acme.example"},
		},
		ProjectManager: domain.ProjectManager{Name: "Dana", Email: "dana@example.com"},
	}
}

func newProjectService() (*ProjectService, *fakeProjectRepo) {
	repo := &fakeProjectRepo{projects: map[string]*domain.Project{}}
	return NewProjectService(repo), repo
}

func TestProjectCreateValidation(t *testing.T) {
	svc, _ := newProjectService()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*ProjectInput)
	}{
		{"missing code", func(in *ProjectInput) { in.ProjectCode = "  " }},
		{"missing name", func(in *ProjectInput) { in.ProjectName = "" }},
		{"zero high sla", func(in *ProjectInput) { in.SLALevel.High = 0 }},
		{"negative low sla", func(in *ProjectInput) { in.SLALevel.Low = -1 }},
		{"unnamed supplier", func(in *ProjectInput) { in.Suppliers[0].Name = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validProjectInput()
			tc.mutate(&input)
			if _, err := svc.Create(ctx, input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestProjectCreateAssignsSupplierIDs(t *testing.T) {
	svc, _ := newProjectService()

	project, err := svc.Create(context.Background(), validProjectInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(project.Suppliers) != 1 || project.Suppliers[0].ID == "" {
		t.Fatalf("supplier without generated id: %+v", project.Suppliers)
	}
}

func TestProjectCreateKeepsSuppliedIDs(t *testing.T) {
	svc, _ := newProjectService()

	input := validProjectInput()
	input.Suppliers[0].ID = "sup-keep"
	project, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.Suppliers[0].ID != "sup-keep" {
		t.Fatalf("supplier id rewritten to %q", project.Suppliers[0].ID)
	}
}

func TestProjectLowBelowHighAllowed(t *testing.T) {
	svc, _ := newProjectService()

	input := validProjectInput()
	input.SLALevel = domain.SLALevel{High: 24, Medium: 8, Low: 4}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("inverted tier ordering should be accepted: %v", err)
	}
}
