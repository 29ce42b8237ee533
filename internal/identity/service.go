package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// Service runs the reconciler against live records and applies its
// mutations. ResolveForCheckout must execute inside the order placement
// transaction via WithTx.
type Service interface {
	WithTx(tx *gorm.DB) Service
	ResolveForCheckout(ctx context.Context, req Request) (Resolution, error)
	EnsureGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	AdoptGuestOrders(ctx context.Context, user *models.User) (int64, error)
}

type service struct {
	repo Repository
}

// NewService wires an identity service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// ResolveForCheckout looks up phone matches, runs the pure resolver, and
// applies the required guest writes.
func (s *service) ResolveForCheckout(ctx context.Context, req Request) (Resolution, error) {
	var matches Matches
	if req.GuestID != nil && req.Phone != nil {
		user, err := s.repo.FindVerifiedUserByPhone(ctx, *req.Phone)
		if err != nil {
			return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user by phone")
		}
		matches.VerifiedUser = user

		guest, err := s.repo.FindGuestByPhone(ctx, *req.Phone, *req.GuestID)
		if err != nil {
			return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup guest by phone")
		}
		matches.OtherGuest = guest
	}

	resolution, mutations, err := Resolve(req, matches)
	if err != nil {
		return Resolution{}, err
	}

	for _, mutation := range mutations {
		if err := s.apply(ctx, mutation); err != nil {
			return Resolution{}, err
		}
	}
	return resolution, nil
}

func (s *service) apply(ctx context.Context, mutation Mutation) error {
	switch mutation.Kind {
	case MutationUpdateGuestContact:
		if err := s.repo.UpdateGuestContact(ctx, mutation.GuestID, mutation.Phone, mutation.Name); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update guest contact")
		}
	case MutationBackfillGuestName:
		if mutation.Name == nil {
			return nil
		}
		if err := s.repo.SetGuestName(ctx, mutation.GuestID, *mutation.Name); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backfill guest name")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown identity mutation %q", mutation.Kind))
	}
	return nil
}

// EnsureGuest returns the guest for a session token, creating the record
// on first use.
func (s *service) EnsureGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}

	guest, err := s.repo.FindGuest(ctx, id)
	if err == nil {
		return guest, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest")
	}

	guest = &models.Guest{ID: id}
	if err := s.repo.CreateGuest(ctx, guest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest")
	}
	return guest, nil
}

// AdoptGuestOrders re-owns guest orders carrying the user's phone. Called
// after the user verifies the phone number.
func (s *service) AdoptGuestOrders(ctx context.Context, user *models.User) (int64, error) {
	if user == nil || user.ID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	if !user.PhoneVerified {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "phone must be verified before adopting orders")
	}

	moved, err := s.repo.ReassignGuestOrders(ctx, user.ID, user.Phone)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign guest orders")
	}
	return moved, nil
}
