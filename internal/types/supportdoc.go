package types

import (
	"time"
)

// SupportDoc is one published documentation page. Replace-all synced.
type SupportDoc struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Body        string    `gorm:"not null;column:body" json:"body"`
	LastUpdated time.Time `gorm:"not null;column:last_updated" json:"last_updated"`
}

func (SupportDoc) TableName() string {
	return "support_doc"
}
