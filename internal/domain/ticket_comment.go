package domain

import "time"

// TicketComment captures communications in a ticket thread. Internal comments
// are visible to admins only.
type TicketComment struct {
	ID          string
	TicketID    string
	UserID      string
	UserName    string
	Content     string
	IsInternal  bool
	Attachments []Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
