package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/pricing"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// View is the cart as returned to callers, with per-line subtotals and
// a grand total computed from the current product prices.
type View struct {
	CartID uuid.UUID
	Items  []ItemView
	Total  decimal.Decimal
}

// ItemView is one cart line joined with its product.
type ItemView struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	SaleType  string
	Quantity  decimal.Decimal
	Subtotal  decimal.Decimal
	IsActive  bool
}

// Service exposes the per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	SetItem(ctx context.Context, userID, productID uuid.UUID, qty decimal.Decimal) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
	db   *gorm.DB
}

// NewService builds the cart service.
func NewService(repo Repository, db *gorm.DB) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart: repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("cart: database handle is required")
	}
	return &service{repo: repo, db: db}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindWithItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		created, err := s.repo.FindOrCreate(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		return &View{CartID: created.ID, Items: []ItemView{}, Total: decimal.Zero}, nil
	}
	return buildView(cart), nil
}

// SetItem upserts one line: quantity replaces any existing quantity for
// the product rather than accumulating, so clients can send the desired
// amount directly.
func (s *service) SetItem(ctx context.Context, userID, productID uuid.UUID, qty decimal.Decimal) (*View, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", productID, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if existing != nil {
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
	} else {
		item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func buildView(cart *models.Cart) *View {
	view := &View{CartID: cart.ID, Items: make([]ItemView, 0, len(cart.Items)), Total: decimal.Zero}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		subtotal := pricing.LineSubtotal(item.Quantity, item.Product.Price)
		view.Items = append(view.Items, ItemView{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			SaleType:  string(item.Product.SaleType),
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
			IsActive:  item.Product.IsActive,
		})
		if item.Product.IsActive {
			view.Total = view.Total.Add(subtotal)
		}
	}
	view.Total = view.Total.Round(2)
	return view
}
