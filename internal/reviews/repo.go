package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus, params pagination.Params) ([]models.Review, error)
	ListByStatus(ctx context.Context, status enums.ReviewStatus, params pagination.Params) ([]models.Review, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReviewStatus) error
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus, params pagination.Params) ([]models.Review, error) {
	return r.list(ctx, r.db.Where("product_id = ? AND status = ?", productID, status), params)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.ReviewStatus, params pagination.Params) ([]models.Review, error) {
	return r.list(ctx, r.db.Where("status = ?", status), params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Review, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var list []models.Review
	err = query.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReviewStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Review{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
