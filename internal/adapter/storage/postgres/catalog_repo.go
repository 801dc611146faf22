package postgres

import (
	"context"
	"errors"
	"fmt"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogRepo implements ports.CatalogRepository over the read-only bill
// payment reference tables.
type CatalogRepo struct {
	pool Pool
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(pool Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// GetCategory fetches a bill category by code.
func (r *CatalogRepo) GetCategory(ctx context.Context, code string) (*domain.BillCategory, error) {
	query := `SELECT code, name, has_plans FROM bill_categories WHERE code = $1`

	c := &domain.BillCategory{}
	err := r.pool.QueryRow(ctx, query, code).Scan(&c.Code, &c.Name, &c.HasPlans)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill category: %w", err)
	}
	return c, nil
}

// GetProvider fetches a provider by category and code.
func (r *CatalogRepo) GetProvider(ctx context.Context, categoryCode, providerCode string) (*domain.BillProvider, error) {
	query := `SELECT id, category_code, code, name FROM bill_providers WHERE category_code = $1 AND code = $2`

	p := &domain.BillProvider{}
	err := r.pool.QueryRow(ctx, query, categoryCode, providerCode).Scan(&p.ID, &p.CategoryCode, &p.Code, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill provider: %w", err)
	}
	return p, nil
}

// GetPlan fetches a plan by provider and code.
func (r *CatalogRepo) GetPlan(ctx context.Context, providerID uuid.UUID, planCode string) (*domain.BillPlan, error) {
	query := `SELECT id, provider_id, code, name, amount, currency FROM bill_plans WHERE provider_id = $1 AND code = $2`

	p := &domain.BillPlan{}
	err := r.pool.QueryRow(ctx, query, providerID, planCode).Scan(&p.ID, &p.ProviderID, &p.Code, &p.Name, &p.Amount, &p.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill plan: %w", err)
	}
	return p, nil
}
