package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
)

// Repository covers the identity lookups and guest writes the reconciler
// needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVerifiedUserByPhone(ctx context.Context, phone string) (*models.User, error)
	FindGuestByPhone(ctx context.Context, phone string, exclude uuid.UUID) (*models.Guest, error)
	FindGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	CreateGuest(ctx context.Context, guest *models.Guest) error
	UpdateGuestContact(ctx context.Context, id uuid.UUID, phone, name *string) error
	SetGuestName(ctx context.Context, id uuid.UUID, name string) error
	ReassignGuestOrders(ctx context.Context, userID uuid.UUID, phone string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an identity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVerifiedUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("phone = ? AND phone_verified = ?", phone, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindGuestByPhone(ctx context.Context, phone string, exclude uuid.UUID) (*models.Guest, error) {
	var guest models.Guest
	err := r.db.WithContext(ctx).
		Where("phone = ? AND id <> ?", phone, exclude).
		Order("created_at ASC").
		First(&guest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repository) FindGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	var guest models.Guest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&guest).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repository) CreateGuest(ctx context.Context, guest *models.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *repository) UpdateGuestContact(ctx context.Context, id uuid.UUID, phone, name *string) error {
	updates := map[string]any{}
	if phone != nil {
		updates["phone"] = *phone
	}
	if name != nil {
		updates["name"] = *name
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SetGuestName(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("id = ? AND name IS NULL", id).
		Update("name", name).Error
}

// ReassignGuestOrders re-owns every order placed by guests carrying the
// phone to the given user. Runs when that user verifies the phone.
func (r *repository) ReassignGuestOrders(ctx context.Context, userID uuid.UUID, phone string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET user_id = ?, guest_id = NULL
		WHERE guest_id IN (SELECT id FROM guests WHERE phone = ?)
	`, userID, phone)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
