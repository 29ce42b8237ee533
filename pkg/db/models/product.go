package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// Product represents a catalog listing. Products are never deleted; they are
// deactivated so historical order snapshots keep a valid reference.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Description   *string         `gorm:"column:description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CostPrice     decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SaleType      enums.SaleType  `gorm:"column:sale_type;type:text;not null"`
	StockQuantity decimal.Decimal `gorm:"column:stock_quantity;type:numeric(12,3);not null;default:0"`
	ImageURL      *string         `gorm:"column:image_url"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
