package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// OrderItem freezes the product fields at purchase time. Rows are immutable
// once written.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName         string          `gorm:"column:product_name;not null"`
	SaleType            enums.SaleType  `gorm:"column:sale_type;type:text;not null"`
	Quantity            decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	PriceAtPurchase     decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(12,2);not null"`
	CostPriceAtPurchase decimal.Decimal `gorm:"column:cost_price_at_purchase;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
