// Package users handles registration, login, and phone verification for
// registered buyers and admins.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/identity"
	pkgauth "github.com/baladyapp/balady-backend/pkg/auth"
	"github.com/baladyapp/balady-backend/pkg/config"
	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput carries a new customer registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Phone     string
	Password  string
}

// AuthResult pairs a signed access token with the authenticated user.
type AuthResult struct {
	Token string
	User  *models.User
}

// VerifyResult reports a phone verification and how many guest orders
// moved over to the user.
type VerifyResult struct {
	User          *models.User
	AdoptedOrders int64
}

// Service defines account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, phone, password string) (*AuthResult, error)
	VerifyPhone(ctx context.Context, userID uuid.UUID) (*VerifyResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	identity identity.Service
	jwtCfg   config.JWTConfig
	pwdCfg   config.PasswordConfig
}

// NewService builds a users service with the required collaborators.
func NewService(repo Repository, tx txRunner, identitySvc identity.Service, jwtCfg config.JWTConfig, pwdCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if identitySvc == nil {
		return nil, fmt.Errorf("identity service required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		identity: identitySvc,
		jwtCfg:   jwtCfg,
		pwdCfg:   pwdCfg,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.FirstName == "" || input.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if input.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, phone, password string) (*AuthResult, error) {
	if phone == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and password are required")
	}

	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user == nil || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		RoleID: user.RoleID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResult{Token: token, User: user}, nil
}

// VerifyPhone marks the phone verified and adopts prior guest orders in
// the same transaction. OTP validation happens upstream.
func (s *service) VerifyPhone(ctx context.Context, userID uuid.UUID) (*VerifyResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var result VerifyResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		if !user.PhoneVerified {
			if err := repo.SetPhoneVerified(ctx, user.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark phone verified")
			}
			user.PhoneVerified = true
		}

		adopted, err := s.identity.WithTx(tx).AdoptGuestOrders(ctx, user)
		if err != nil {
			return err
		}
		result = VerifyResult{User: user, AdoptedOrders: adopted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
