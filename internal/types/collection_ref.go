package types

import (
	"time"
)

// TicketCollectionRef mirrors the external Forge collection that holds
// ticket-comment documents. Exactly one row should exist after a successful
// sync; the previous row and its backing collection are deleted before a new
// one is created.
type TicketCollectionRef struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ForgeID     string    `gorm:"not null;column:forge_id" json:"forge_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	LastUpdated time.Time `gorm:"not null;column:last_updated" json:"last_updated"`
}

func (TicketCollectionRef) TableName() string {
	return "forge_ticket_collection"
}

// DocCollectionRef is the support-doc counterpart of TicketCollectionRef.
type DocCollectionRef struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ForgeID     string    `gorm:"not null;column:forge_id" json:"forge_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	LastUpdated time.Time `gorm:"not null;column:last_updated" json:"last_updated"`
}

func (DocCollectionRef) TableName() string {
	return "forge_doc_collection"
}
