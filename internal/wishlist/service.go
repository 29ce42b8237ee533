package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// Entry is a wishlist row joined with its product snapshot.
type Entry struct {
	Item    models.WishlistItem
	Product models.Product
}

// Service manages a registered user's wishlist. Adding an item that is
// already present succeeds silently so the toggle UX stays idempotent.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Entry, error)
}

type service struct {
	repo     Repository
	database *gorm.DB
}

func NewService(repo Repository, database *gorm.DB) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if database == nil {
		return nil, fmt.Errorf("wishlist database handle required")
	}
	return &service{repo: repo, database: database}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	var product models.Product
	err := s.database.WithContext(ctx).Where("id = ? AND is_active = ?", productID, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.repo.Add(ctx, &models.WishlistItem{UserID: userID, ProductID: productID}); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	if len(items) == 0 {
		return []Entry{}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	if err := s.database.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Item: item, Product: product})
	}
	return entries, nil
}
