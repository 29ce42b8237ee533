package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered buyer or an admin (RoleID set). Phone is the identity
// bridge for guest order adoption, so it is unique once verified.
type User struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name;not null"`
	Phone         string     `gorm:"column:phone;not null;uniqueIndex"`
	PhoneVerified bool       `gorm:"column:phone_verified;not null;default:false"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	RoleID        *uuid.UUID `gorm:"column:role_id;type:uuid"`
	Role          *Role      `gorm:"foreignKey:RoleID"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
