package types

import (
	"time"
)

// User mirrors a ticketing-system user. The primary key is the upstream
// numeric ID, which can exceed 53 bits, so it stays int64 end to end. Users
// are upserted incrementally, never replace-all.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Email     string    `gorm:"not null;index;column:email" json:"email"`
	Role      string    `gorm:"not null;column:role" json:"role"`
	Active    bool      `gorm:"not null;column:active" json:"active"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "zendesk_user"
}
