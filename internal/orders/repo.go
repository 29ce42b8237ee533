package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

// Repository persists the order graph and the collaborator reads the
// assembly transaction needs (fresh product state, address ownership,
// cart clearing).
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error

	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetDeliveredAt(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error

	FindActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindAddressOwned(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	ClearCartItems(ctx context.Context, userID uuid.UUID) error

	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	FindInvoiceByPhone(ctx context.Context, orderID uuid.UUID, phone string) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Payment", "StatusHistory").Create(order).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) SetDeliveredAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivered_at", at).Error
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

// FindActiveProduct returns nil without an error when the product is
// missing or deactivated.
func (r *repository) FindActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAddressOwned returns nil without an error when the address does not
// exist or belongs to another user.
func (r *repository) FindAddressOwned(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// ClearCartItems removes the user's cart items but keeps the cart row.
func (r *repository) ClearCartItems(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`, userID).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID), params)
}

func (r *repository) ListByGuest(ctx context.Context, guestID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, r.db.Where("guest_id = ?", guestID), params)
}

func (r *repository) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	query := r.db
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	err = query.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindInvoiceByPhone matches the phone against the order's shipping
// snapshot and its owner records. The phone match is the only
// authorization applied; see the service for why.
func (r *repository) FindInvoiceByPhone(ctx context.Context, orderID uuid.UUID, phone string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where(`id = ? AND (
			shipping_phone = ?
			OR user_id IN (SELECT id FROM users WHERE phone = ?)
			OR guest_id IN (SELECT id FROM guests WHERE phone = ?)
		)`, orderID, phone, phone, phone).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
