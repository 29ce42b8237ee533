package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// StockTransaction is the append-only audit trail of every stock movement.
// Rows are never updated or deleted; the signed changes for a product plus
// its current stock reconstruct its starting stock.
type StockTransaction struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	QuantityChange decimal.Decimal   `gorm:"column:quantity_change;type:numeric(12,3);not null"`
	Reason         enums.StockReason `gorm:"column:reason;type:text;not null"`
	RelatedOrderID *uuid.UUID        `gorm:"column:related_order_id;type:uuid;index"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}
