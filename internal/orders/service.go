// Package orders implements the order lifecycle: the all-or-nothing
// placement transaction, the status state machine with its side effects,
// and customer/guest order reads.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/identity"
	"github.com/baladyapp/balady-backend/internal/pricing"
	"github.com/baladyapp/balady-backend/internal/shipping"
	"github.com/baladyapp/balady-backend/internal/stock"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order operations for customers, guests, and admins.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOwnOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListOwn(ctx context.Context, actor Actor, params pagination.Params) ([]models.Order, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	CancelOwnOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	InvoiceByPhone(ctx context.Context, orderID uuid.UUID, phone string) (*models.Order, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	stock        stock.Service
	identity     identity.Service
	rates        shipping.Table
	placeTimeout time.Duration
}

// NewService builds an orders service with the required collaborators.
func NewService(repo Repository, tx txRunner, stockSvc stock.Service, identitySvc identity.Service, rates shipping.Table, placeTimeout time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if identitySvc == nil {
		return nil, fmt.Errorf("identity service required")
	}
	if placeTimeout <= 0 {
		placeTimeout = 30 * time.Second
	}
	return &service{
		repo:         repo,
		tx:           tx,
		stock:        stockSvc,
		identity:     identitySvc,
		rates:        rates,
		placeTimeout: placeTimeout,
	}, nil
}

// PlaceOrder runs the whole assembly as one transaction: identity
// resolution, fresh product snapshots, stock reservation, totals, and the
// order graph. Any failure rolls everything back. A timeout means unknown
// outcome; callers should re-check their orders before retrying.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if input.AddressID == nil && input.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if input.AddressID != nil && input.Actor.UserID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved addresses require an authenticated user")
	}

	items := mergeItems(input.Items)

	ctx, cancel := context.WithTimeout(ctx, s.placeTimeout)
	defer cancel()

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		resolution, err := s.identity.WithTx(tx).ResolveForCheckout(ctx, identity.Request{
			UserID:  input.Actor.UserID,
			GuestID: input.Actor.GuestID,
			Phone:   input.Phone,
			Name:    input.Name,
		})
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, 0, len(items))
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product, err := repo.FindActiveProduct(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product is unavailable").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			if item.Quantity.GreaterThan(product.StockQuantity) {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
					"product_id": product.ID,
					"requested":  item.Quantity.String(),
					"available":  product.StockQuantity.String(),
				})
			}

			lines = append(lines, pricing.Line{Quantity: item.Quantity, UnitPrice: product.Price})
			orderItems = append(orderItems, models.OrderItem{
				ProductID:           product.ID,
				ProductName:         product.Name,
				SaleType:            product.SaleType,
				Quantity:            item.Quantity,
				PriceAtPurchase:     product.Price,
				CostPriceAtPurchase: product.CostPrice,
			})
		}

		destination, err := s.resolveDestination(ctx, repo, input)
		if err != nil {
			return err
		}

		productsTotal := pricing.ProductsTotal(lines)
		shippingFee := s.rates.FeeFor(destination.Region, productsTotal)
		totals := pricing.Compute(lines, shippingFee, decimal.Zero)

		order := &models.Order{
			UserID:             resolution.UserID,
			GuestID:            resolution.GuestID,
			Status:             enums.OrderStatusCreated,
			TotalProductsPrice: totals.TotalProductsPrice,
			ShippingFees:       totals.ShippingFees,
			DiscountAmount:     totals.DiscountAmount,
			FinalTotal:         totals.FinalTotal,
			ShippingFirstName:  destination.FirstName,
			ShippingLastName:   destination.LastName,
			ShippingCity:       destination.City,
			ShippingRegion:     destination.Region,
			ShippingStreet:     destination.Street,
			ShippingPhone:      destination.Phone,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		ledger := s.stock.WithTx(tx)
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		for _, item := range orderItems {
			if err := ledger.Reserve(ctx, item.ProductID, item.Quantity, order.ID); err != nil {
				return err
			}
		}

		payment := &models.Payment{
			OrderID: order.ID,
			Method:  enums.PaymentMethodCashOnDelivery,
			Status:  enums.PaymentStatusPending,
			Amount:  totals.FinalTotal,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if err := repo.AppendStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: nil,
			NewStatus: enums.OrderStatusCreated,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		if resolution.UserID != nil {
			if err := repo.ClearCartItems(ctx, *resolution.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}

		order.Items = orderItems
		order.Payment = payment
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) resolveDestination(ctx context.Context, repo Repository, input PlaceOrderInput) (*ShippingAddressInput, error) {
	if input.AddressID != nil {
		address, err := repo.FindAddressOwned(ctx, *input.AddressID, *input.Actor.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if address == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return &ShippingAddressInput{
			FirstName: address.FirstName,
			LastName:  address.LastName,
			City:      address.City,
			Region:    address.Region,
			Street:    address.Street,
			Phone:     address.Phone,
		}, nil
	}

	dest := input.Address
	if dest.FirstName == "" || dest.LastName == "" || dest.City == "" ||
		dest.Region == "" || dest.Street == "" || dest.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address fields are incomplete")
	}
	return dest, nil
}

func (s *service) GetOwnOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOwn(ctx context.Context, actor Actor, params pagination.Params) ([]models.Order, error) {
	switch {
	case actor.UserID != nil:
		orders, err := s.repo.ListByUser(ctx, *actor.UserID, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return orders, nil
	case actor.GuestID != nil:
		orders, err := s.repo.ListByGuest(ctx, *actor.GuestID, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return orders, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "caller identity required")
	}
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	orders, err := s.repo.ListAll(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// ChangeStatus drives an admin transition through the state machine,
// applying its side effects in the same transaction.
func (s *service) ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.transition(ctx, tx, orderID, to)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelOwnOrder lets a customer cancel an order that has not progressed
// past creation.
func (s *service) CancelOwnOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !ownedBy(order, actor) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CustomerCanCancel(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %q can no longer be cancelled", order.Status))
		}

		order, err = s.transition(ctx, tx, orderID, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// transition applies one legal status move with its side effects inside tx.
func (s *service) transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order, err := s.loadOrder(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := EnsureTransition(order.Status, to); err != nil {
		return nil, err
	}

	from := order.Status
	switch to {
	case enums.OrderStatusCancelled:
		ledger := s.stock.WithTx(tx)
		for _, item := range order.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.Quantity, order.ID); err != nil {
				return nil, err
			}
		}
		if err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusCancelled); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment")
		}
	case enums.OrderStatusDelivered:
		now := time.Now().UTC()
		if err := repo.SetDeliveredAt(ctx, order.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp delivery time")
		}
		if err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusCompleted); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}
		order.DeliveredAt = &now
	}

	if err := repo.UpdateOrderStatus(ctx, order.ID, to); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if err := repo.AppendStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		OldStatus: &from,
		NewStatus: to,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	order.Status = to
	return order, nil
}

// InvoiceByPhone serves a guest's invoice lookup. The supplied phone
// matching the order's shipping snapshot or owner record is the sole
// authorization check. That is a deliberate low-friction trade-off for
// guest checkout, not an oversight; anyone holding both the order id and
// the phone can read the invoice.
func (s *service) InvoiceByPhone(ctx context.Context, orderID uuid.UUID, phone string) (*models.Order, error) {
	if orderID == uuid.Nil || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and phone are required")
	}

	order, err := s.repo.FindInvoiceByPhone(ctx, orderID, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func ownedBy(order *models.Order, actor Actor) bool {
	if actor.UserID != nil {
		return order.UserID != nil && *order.UserID == *actor.UserID
	}
	if actor.GuestID != nil {
		return order.GuestID != nil && *order.GuestID == *actor.GuestID
	}
	return false
}
