package postgres

import (
	"context"
	"errors"
	"fmt"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BeneficiaryRepo implements ports.BeneficiaryRepository. Rows are never
// hard-deleted; Deactivate clears is_active and uniqueness applies to active
// rows only.
type BeneficiaryRepo struct {
	pool Pool
}

// NewBeneficiaryRepo creates a new BeneficiaryRepo.
func NewBeneficiaryRepo(pool Pool) *BeneficiaryRepo {
	return &BeneficiaryRepo{pool: pool}
}

const beneficiaryColumns = `id, user_id, category_code, provider_code, account_number, account_name, is_active, created_at, updated_at`

// Create inserts a new beneficiary.
func (r *BeneficiaryRepo) Create(ctx context.Context, b *domain.Beneficiary) error {
	query := `INSERT INTO beneficiaries (id, user_id, category_code, provider_code, account_number, account_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.UserID, b.CategoryCode, b.ProviderCode, b.AccountNumber, b.AccountName,
		b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

// GetActiveByID fetches an active beneficiary owned by the user.
func (r *BeneficiaryRepo) GetActiveByID(ctx context.Context, userID, id uuid.UUID) (*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE id = $1 AND user_id = $2 AND is_active`

	b, err := scanBeneficiary(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	return b, nil
}

// FindActive matches the active-row uniqueness key.
func (r *BeneficiaryRepo) FindActive(ctx context.Context, userID uuid.UUID, categoryCode, providerCode, accountNumber string) (*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries
		WHERE user_id = $1 AND category_code = $2 AND provider_code = $3 AND account_number = $4 AND is_active`

	b, err := scanBeneficiary(r.pool.QueryRow(ctx, query, userID, categoryCode, providerCode, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("find beneficiary: %w", err)
	}
	return b, nil
}

// ListActive fetches a user's active beneficiaries.
func (r *BeneficiaryRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE user_id = $1 AND is_active ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var result []domain.Beneficiary
	for rows.Next() {
		var b domain.Beneficiary
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryCode, &b.ProviderCode, &b.AccountNumber,
			&b.AccountName, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// Deactivate soft-deletes a beneficiary.
func (r *BeneficiaryRepo) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	query := `UPDATE beneficiaries SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_active`

	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate beneficiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("beneficiary not found: %s", id)
	}
	return nil
}

func scanBeneficiary(row pgx.Row) (*domain.Beneficiary, error) {
	b := &domain.Beneficiary{}
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryCode, &b.ProviderCode, &b.AccountNumber,
		&b.AccountName, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}
