package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is an ephemeral buyer identity scoped to a checkout session. A guest
// may later be merged into a User when the same phone registers and verifies.
type Guest struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     *string   `gorm:"column:phone;index"`
	Name      *string   `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
