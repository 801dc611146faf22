package postgres

import (
	"context"
	"testing"
	"time"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeposit(userID uuid.UUID) *domain.Deposit {
	amount := decimal.RequireFromString("5000")
	fee := decimal.RequireFromString("200")
	return &domain.Deposit{
		ID:               uuid.New(),
		UserID:           userID,
		DepositReference: "DEP-4A5B6C7D8E",
		Amount:           amount,
		Fee:              fee,
		TotalAmount:      amount.Add(fee),
		Currency:         "NGN",
		Status:           domain.DepositStatusPending,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func depositCols() []string {
	return []string{"id", "user_id", "deposit_reference", "amount", "fee", "total_amount",
		"currency", "status", "transaction_id", "created_at", "confirmed_at"}
}

func depositRow(d *domain.Deposit) *pgxmock.Rows {
	return pgxmock.NewRows(depositCols()).AddRow(
		d.ID, d.UserID, d.DepositReference, d.Amount, d.Fee, d.TotalAmount,
		d.Currency, d.Status, d.TransactionID, d.CreatedAt, d.ConfirmedAt,
	)
}

func TestDepositRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDepositRepo(mock)
	d := newTestDeposit(uuid.New())

	mock.ExpectExec("INSERT INTO deposits").
		WithArgs(d.ID, d.UserID, d.DepositReference, d.Amount, d.Fee, d.TotalAmount,
			d.Currency, d.Status, d.TransactionID, d.CreatedAt, d.ConfirmedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), d)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepo_GetPendingByReferenceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDepositRepo(mock)
	d := newTestDeposit(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM deposits\\s+WHERE user_id .+ status = 'pending' FOR UPDATE").
		WithArgs(d.UserID, d.DepositReference).
		WillReturnRows(depositRow(d))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetPendingByReferenceForUpdate(context.Background(), tx, d.UserID, d.DepositReference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.DepositStatusPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepo_GetPendingByReferenceForUpdate_AlreadyConfirmed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDepositRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM deposits\\s+WHERE user_id .+ status = 'pending' FOR UPDATE").
		WithArgs(userID, "DEP-4A5B6C7D8E").
		WillReturnRows(pgxmock.NewRows(depositCols()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetPendingByReferenceForUpdate(context.Background(), tx, userID, "DEP-4A5B6C7D8E")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepo_MarkCompleted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDepositRepo(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE deposits SET status = 'completed'").
		WithArgs("a1b2c3d4e5f60718", now, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.MarkCompleted(context.Background(), tx, id, "a1b2c3d4e5f60718", now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
