package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// OrderStatusHistory is an append-only log of status transitions. The first
// row of an order has a NULL old status.
type OrderStatusHistory struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	OldStatus *enums.OrderStatus `gorm:"column:old_status;type:text"`
	NewStatus enums.OrderStatus  `gorm:"column:new_status;type:text;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
