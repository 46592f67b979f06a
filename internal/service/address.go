package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/repository"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

// ProfileUpdater mirrors the default address onto the customer's upstream
// profile.
type ProfileUpdater interface {
	UpdateAddress(ctx context.Context, userID, address string) error
}

// AddressInput is a new delivery address.
type AddressInput struct {
	City     string `json:"city" validate:"max=100"`
	District string `json:"district" validate:"max=100"`
	Village  string `json:"village" validate:"max=100"`
	Street   string `json:"street" validate:"max=200"`
}

// AddressPatch changes the given parts of an address. Nil parts are kept.
type AddressPatch struct {
	City     *string `json:"city" validate:"omitempty,max=100"`
	District *string `json:"district" validate:"omitempty,max=100"`
	Village  *string `json:"village" validate:"omitempty,max=100"`
	Street   *string `json:"street" validate:"omitempty,max=200"`
}

// AddressService manages the customer's address book. The first address a
// customer saves becomes the default; removing the default promotes the
// oldest remaining address. Every change of the default's text is pushed to
// the upstream profile on a best-effort basis.
type AddressService struct {
	repo    repository.AddressRepository
	profile ProfileUpdater
	logger  *slog.Logger
	now     func() time.Time
}

// NewAddressService creates an address service. profile may be nil.
func NewAddressService(repo repository.AddressRepository, profile ProfileUpdater, logger *slog.Logger) *AddressService {
	return &AddressService{repo: repo, profile: profile, logger: logger, now: time.Now}
}

// List returns the customer's addresses, oldest first.
func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// Add saves a new address.
func (s *AddressService) Add(ctx context.Context, userID string, in AddressInput) (*domain.Address, error) {
	a := &domain.Address{
		ID:        uuid.NewString(),
		UserID:    userID,
		City:      in.City,
		District:  in.District,
		Village:   in.Village,
		Street:    in.Street,
		CreatedAt: s.now().UTC(),
	}
	a.Normalize()
	if a.FullAddress == "" {
		return nil, apperrors.InvalidInput("at least one address part is required")
	}

	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= domain.MaxAddresses {
		return nil, apperrors.Conflict(fmt.Sprintf("at most %d addresses can be saved", domain.MaxAddresses))
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	if a.IsDefault {
		s.syncProfile(ctx, userID, a.FullAddress)
	}

	s.logger.InfoContext(ctx, "address saved",
		slog.String("user_id", userID),
		slog.String("address_id", a.ID),
		slog.Bool("default", a.IsDefault),
	)
	return a, nil
}

// Update changes parts of an address and recomputes its full text.
func (s *AddressService) Update(ctx context.Context, userID, id string, patch AddressPatch) (*domain.Address, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}

	before := a.FullAddress
	applyPart(&a.City, patch.City)
	applyPart(&a.District, patch.District)
	applyPart(&a.Village, patch.Village)
	applyPart(&a.Street, patch.Street)
	a.Normalize()
	if a.FullAddress == "" {
		return nil, apperrors.InvalidInput("at least one address part is required")
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	if a.IsDefault && a.FullAddress != before {
		s.syncProfile(ctx, userID, a.FullAddress)
	}
	return a, nil
}

// Remove deletes an address.
func (s *AddressService) Remove(ctx context.Context, userID, id string) error {
	wasDefault, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if !wasDefault {
		return nil
	}

	next, err := s.repo.GetDefault(ctx, userID)
	switch {
	case err == nil:
		s.syncProfile(ctx, userID, next.FullAddress)
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		s.logger.WarnContext(ctx, "failed to read promoted default address",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// SetDefault makes an address the customer's default.
func (s *AddressService) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("set default address: %w", err)
	}
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	s.syncProfile(ctx, userID, a.FullAddress)
	return a, nil
}

// Default returns the customer's default address.
func (s *AddressService) Default(ctx context.Context, userID string) (*domain.Address, error) {
	a, err := s.repo.GetDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get default address: %w", err)
	}
	return a, nil
}

func (s *AddressService) syncProfile(ctx context.Context, userID, address string) {
	if s.profile == nil {
		return
	}
	if err := s.profile.UpdateAddress(ctx, userID, address); err != nil {
		s.logger.WarnContext(ctx, "failed to sync profile address",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func applyPart(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
