package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/pkg/db/models"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines address book operations scoped to the owning user.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// AddressInput carries the editable address fields.
type AddressInput struct {
	Label     string
	Line1     string
	Line2     *string
	City      string
	Region    *string
	Phone     string
	IsDefault bool
}

// NewService wires an address service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (input AddressInput) validate() error {
	if input.Label == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address label is required")
	}
	if input.Line1 == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address line1 is required")
	}
	if input.City == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address city is required")
	}
	if input.Phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address phone is required")
	}
	return nil
}

// Create stores a new address; marking it default clears the previous one in
// the same transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:    userID,
		Label:     input.Label,
		Line1:     input.Line1,
		Line2:     input.Line2,
		City:      input.City,
		Region:    input.Region,
		Phone:     input.Phone,
		IsDefault: input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
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

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	existing, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	existing.Label = input.Label
	existing.Line1 = input.Line1
	existing.Line2 = input.Line2
	existing.City = input.City
	existing.Region = input.Region
	existing.Phone = input.Phone
	existing.IsDefault = input.IsDefault

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.Update(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes an address unless an order references it.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.ownedAddress(ctx, userID, addressID); err != nil {
		return err
	}

	referenced, err := s.repo.HasOrderReferences(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check address references")
	}
	if referenced {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "address is referenced by existing orders")
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, ErrAddressNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}
