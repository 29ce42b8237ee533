package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input carries the writable address fields for create and update.
type Input struct {
	FirstName string
	LastName  string
	City      string
	Region    string
	Street    string
	Phone     string
	IsDefault bool
}

// Service manages a registered user's address book.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in Input) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, in Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("addresses tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func validateInput(in Input) error {
	for field, value := range map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"city":       in.City,
		"region":     in.Region,
		"street":     in.Street,
		"phone":      in.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", field))
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, in Input) (*models.Address, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:    userID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		City:      strings.TrimSpace(in.City),
		Region:    strings.TrimSpace(in.Region),
		Street:    strings.TrimSpace(in.Street),
		Phone:     strings.TrimSpace(in.Phone),
		IsDefault: in.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if in.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, in Input) (*models.Address, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		address, err := repo.FindOwned(ctx, addressID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if address == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		if in.IsDefault && !address.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		address.FirstName = strings.TrimSpace(in.FirstName)
		address.LastName = strings.TrimSpace(in.LastName)
		address.City = strings.TrimSpace(in.City)
		address.Region = strings.TrimSpace(in.Region)
		address.Street = strings.TrimSpace(in.Street)
		address.Phone = strings.TrimSpace(in.Phone)
		address.IsDefault = in.IsDefault
		if err := repo.Save(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
		}
		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, addressID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindOwned(ctx, addressID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return list, nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		address, err := repo.FindOwned(ctx, addressID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if address == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
		address.IsDefault = true
		if err := repo.Save(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
		}
		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
