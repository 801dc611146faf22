package postgres

import (
	"context"
	"errors"
	"fmt"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `id, user_id, currency, balance, masked_pan, status, created_at, updated_at`

// CreateInTx inserts a new card within the creation transaction, so the card
// row and the fee debit commit together.
func (r *CardRepo) CreateInTx(ctx context.Context, tx pgx.Tx, c *domain.VirtualCard) error {
	query := `INSERT INTO virtual_cards (id, user_id, currency, balance, masked_pan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		c.ID, c.UserID, c.Currency, c.Balance, c.MaskedPAN, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID fetches a card without locking.
func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VirtualCard, error) {
	query := `SELECT ` + cardColumns + ` FROM virtual_cards WHERE id = $1`

	c, err := scanCard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// GetByIDForUpdate fetches a card with a row lock. MUST be called within a
// transaction.
func (r *CardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.VirtualCard, error) {
	query := `SELECT ` + cardColumns + ` FROM virtual_cards WHERE id = $1 FOR UPDATE`

	c, err := scanCard(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get card for update: %w", err)
	}
	return c, nil
}

// ListByUser fetches all cards a user holds.
func (r *CardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.VirtualCard, error) {
	query := `SELECT ` + cardColumns + ` FROM virtual_cards WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.VirtualCard
	for rows.Next() {
		var c domain.VirtualCard
		if err := rows.Scan(&c.ID, &c.UserID, &c.Currency, &c.Balance, &c.MaskedPAN, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// UpdateBalance writes the card balance within a transaction.
func (r *CardRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE virtual_cards SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, cardID)
	if err != nil {
		return fmt.Errorf("update card balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %s", cardID)
	}
	return nil
}

func scanCard(row pgx.Row) (*domain.VirtualCard, error) {
	c := &domain.VirtualCard{}
	err := row.Scan(&c.ID, &c.UserID, &c.Currency, &c.Balance, &c.MaskedPAN, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
