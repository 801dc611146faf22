package service

import (
	"context"
	"fmt"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"

	"github.com/google/uuid"
)

// BeneficiaryServiceImpl implements ports.BeneficiaryService. Beneficiaries
// are soft-deleted; uniqueness on (category, provider, account number) is
// enforced among active rows only, so a deleted beneficiary can be re-saved.
type BeneficiaryServiceImpl struct {
	repo ports.BeneficiaryRepository
}

// NewBeneficiaryService creates a new BeneficiaryServiceImpl.
func NewBeneficiaryService(repo ports.BeneficiaryRepository) *BeneficiaryServiceImpl {
	return &BeneficiaryServiceImpl{repo: repo}
}

// Create saves a new active beneficiary, rejecting duplicates of an active
// one.
func (s *BeneficiaryServiceImpl) Create(ctx context.Context, b *domain.Beneficiary) (*domain.Beneficiary, error) {
	if b.CategoryCode == "" || b.ProviderCode == "" || b.AccountNumber == "" {
		return nil, apperror.Validation("category_code, provider_code and account_number are required")
	}

	existing, err := s.repo.FindActive(ctx, b.UserID, b.CategoryCode, b.ProviderCode, b.AccountNumber)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check duplicate beneficiary: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateBeneficiary()
	}

	now := time.Now().UTC()
	b.ID = uuid.New()
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create beneficiary: %w", err))
	}
	return b, nil
}

// List returns the user's active beneficiaries.
func (s *BeneficiaryServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	items, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list beneficiaries: %w", err))
	}
	return items, nil
}

// Delete soft-deletes a beneficiary.
func (s *BeneficiaryServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.repo.GetActiveByID(ctx, userID, id)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("fetch beneficiary: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("beneficiary")
	}
	if err := s.repo.Deactivate(ctx, userID, id); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("deactivate beneficiary: %w", err))
	}
	return nil
}
