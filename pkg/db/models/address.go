package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved shipping address in a registered user's address book.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	City      string    `gorm:"column:city;not null"`
	Region    string    `gorm:"column:region;not null"`
	Street    string    `gorm:"column:street;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
