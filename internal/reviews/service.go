package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

// CreateInput is a registered user's review submission.
type CreateInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// Service handles review submission and moderation. New reviews start
// pending; only approved ones are publicly listed.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Review, error)
	ListApproved(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.Review, error)
	Moderate(ctx context.Context, reviewID uuid.UUID, status enums.ReviewStatus) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
}

type service struct {
	repo     Repository
	database *gorm.DB
}

func NewService(repo Repository, database *gorm.DB) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if database == nil {
		return nil, fmt.Errorf("reviews database handle required")
	}
	return &service{repo: repo, database: database}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if in.Comment != nil && strings.TrimSpace(*in.Comment) == "" {
		in.Comment = nil
	}

	var product models.Product
	err := s.database.WithContext(ctx).Where("id = ? AND is_active = ?", in.ProductID, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Status:    enums.ReviewStatusPending,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}

func (s *service) ListApproved(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, error) {
	list, err := s.repo.ListByProduct(ctx, productID, enums.ReviewStatusApproved, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

func (s *service) ListPending(ctx context.Context, params pagination.Params) ([]models.Review, error) {
	list, err := s.repo.ListByStatus(ctx, enums.ReviewStatusPending, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return list, nil
}

func (s *service) Moderate(ctx context.Context, reviewID uuid.UUID, status enums.ReviewStatus) (*models.Review, error) {
	if !status.IsValid() || status == enums.ReviewStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or hidden")
	}

	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}

	if err := s.repo.UpdateStatus(ctx, reviewID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review status")
	}
	review.Status = status
	return review, nil
}

func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, reviewID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}
