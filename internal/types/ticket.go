package types

import (
	"time"
)

// Ticket is one support request pulled from the ticketing system. Tickets
// are replace-all synced: every cycle deletes the full table and reinserts
// the fresh snapshot.
type Ticket struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TicketNumber string          `gorm:"not null;index;column:ticket_number" json:"ticket_number"`
	SubmitterID  int64           `gorm:"not null;column:submitter_id" json:"submitter_id"`
	CreatedAt    time.Time       `gorm:"not null;column:created_at" json:"created_at"`
	Comments     []TicketComment `gorm:"foreignKey:TicketID" json:"comments,omitempty"`
}

func (Ticket) TableName() string {
	return "zendesk_ticket"
}

// TicketComment stores the comment body after provenance annotation.
type TicketComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index;column:ticket_id" json:"ticket_id"`
	PlainBody string    `gorm:"not null;column:plain_body" json:"plain_body"`
	AuthorID  int64     `gorm:"not null;column:author_id" json:"author_id"`
	Public    bool      `gorm:"not null;column:public" json:"public"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (TicketComment) TableName() string {
	return "zendesk_ticket_comment"
}
