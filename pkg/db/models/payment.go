package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// Payment tracks settlement of one order. One row per order.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Method    enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash_on_delivery'"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
