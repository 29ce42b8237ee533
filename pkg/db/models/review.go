package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// Review is a product review by a registered user, one per (user, product).
type Review struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_user_product"`
	ProductID uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_reviews_user_product"`
	Rating    int                `gorm:"column:rating;not null"`
	Comment   *string            `gorm:"column:comment"`
	Status    enums.ReviewStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
