package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/pkg/enums"
)

// Order is the root of the order graph. Exactly one of UserID/GuestID is set;
// the shipping fields are a snapshot taken at order time and stay untouched
// by later address edits.
type Order struct {
	ID      uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID  *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	GuestID *uuid.UUID `gorm:"column:guest_id;type:uuid;index"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'created'"`

	TotalProductsPrice decimal.Decimal `gorm:"column:total_products_price;type:numeric(12,2);not null"`
	ShippingFees       decimal.Decimal `gorm:"column:shipping_fees;type:numeric(12,2);not null"`
	DiscountAmount     decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	FinalTotal         decimal.Decimal `gorm:"column:final_total;type:numeric(12,2);not null"`

	ShippingFirstName string `gorm:"column:shipping_first_name;not null"`
	ShippingLastName  string `gorm:"column:shipping_last_name;not null"`
	ShippingCity      string `gorm:"column:shipping_city;not null"`
	ShippingRegion    string `gorm:"column:shipping_region;not null"`
	ShippingStreet    string `gorm:"column:shipping_street;not null"`
	ShippingPhone     string `gorm:"column:shipping_phone;not null"`

	DeliveredAt *time.Time `gorm:"column:delivered_at"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment       *Payment             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
