package service

import (
	"context"
	"fmt"

	"payvault/internal/core/ports"
	"payvault/pkg/apperror"

	"github.com/google/uuid"
)

// PinService implements ports.PinVerifier against the user store.
type PinService struct {
	userRepo ports.UserRepository
	hashSvc  ports.HashService
}

// NewPinService creates a new PinService.
func NewPinService(userRepo ports.UserRepository, hashSvc ports.HashService) *PinService {
	return &PinService{userRepo: userRepo, hashSvc: hashSvc}
}

// HasPin reports whether the user has set a transaction PIN.
func (s *PinService) HasPin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return false, apperror.ErrNotFound("user")
	}
	return user.HasPin(), nil
}

// VerifyPin checks the PIN against the stored hash. Returns false for both
// an unset PIN and a mismatch.
func (s *PinService) VerifyPin(ctx context.Context, userID uuid.UUID, pin string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return false, apperror.ErrNotFound("user")
	}
	if !user.HasPin() {
		return false, nil
	}
	ok, err := s.hashSvc.Verify(pin, *user.PinHash)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("verify pin hash: %w", err))
	}
	return ok, nil
}

// requirePin runs the standard PIN gate used by every confirm-style
// operation: PinNotSet when the user never set one, InvalidPin on mismatch.
// PIN verification always happens before any lock is taken.
func requirePin(ctx context.Context, verifier ports.PinVerifier, userID uuid.UUID, pin string) error {
	hasPin, err := verifier.HasPin(ctx, userID)
	if err != nil {
		return err
	}
	if !hasPin {
		return apperror.ErrPinNotSet()
	}
	ok, err := verifier.VerifyPin(ctx, userID, pin)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrInvalidPin()
	}
	return nil
}
