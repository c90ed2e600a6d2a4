package domain

import "time"

// SLALevel holds the per-project resolution allowances in hours.
// All three values must be positive; no ordering between tiers is enforced.
type SLALevel struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// Supplier is a vendor contact responsible for a project. Suppliers are
// embedded in the project record, not a standalone entity.
type Supplier struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// ProjectManager is the customer-side contact for a project.
type ProjectManager struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// Project is a registered contract that tickets are filed against. Its SLA
// level is read at ticket-creation time only; editing it later never changes
// deadlines of existing tickets.
type Project struct {
	ID             string
	ProjectCode    string
	ProjectName    string
	ContactNumber  string
	SignDate       time.Time
	Suppliers      []Supplier
	SLALevel       SLALevel
	ProjectManager ProjectManager
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SupplierByID returns the embedded supplier with the given ID.
func (p *Project) SupplierByID(id string) (*Supplier, bool) {
	for i := range p.Suppliers {
		if p.Suppliers[i].ID == id {
			return &p.Suppliers[i], true
		}
	}
	return nil, false
}
