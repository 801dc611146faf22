package service

import (
	"context"
	"testing"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupPinService(t *testing.T) (*PinService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	return NewPinService(userRepo, NewArgon2HashService()), userRepo
}

func userWithPin(t *testing.T, pin string) *domain.User {
	t.Helper()
	hash, err := NewArgon2HashService().Hash(pin)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.User{
		ID:        uuid.New(),
		Email:     "user@example.com",
		PinHash:   &hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPinService_VerifyPin_Correct(t *testing.T) {
	svc, userRepo := setupPinService(t)
	user := userWithPin(t, "1234")
	userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	ok, err := svc.VerifyPin(context.Background(), user.ID, "1234")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPinService_VerifyPin_Wrong(t *testing.T) {
	svc, userRepo := setupPinService(t)
	user := userWithPin(t, "1234")
	userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	ok, err := svc.VerifyPin(context.Background(), user.ID, "4321")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPinService_VerifyPin_NoPinSet(t *testing.T) {
	svc, userRepo := setupPinService(t)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com"}
	userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	ok, err := svc.VerifyPin(context.Background(), user.ID, "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPinService_HasPin(t *testing.T) {
	svc, userRepo := setupPinService(t)
	withPin := userWithPin(t, "1234")
	withoutPin := &domain.User{ID: uuid.New()}

	userRepo.EXPECT().GetByID(gomock.Any(), withPin.ID).Return(withPin, nil)
	userRepo.EXPECT().GetByID(gomock.Any(), withoutPin.ID).Return(withoutPin, nil)

	has, err := svc.HasPin(context.Background(), withPin.ID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasPin(context.Background(), withoutPin.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPinService_HasPin_UserNotFound(t *testing.T) {
	svc, userRepo := setupPinService(t)
	id := uuid.New()
	userRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := svc.HasPin(context.Background(), id)
	require.Error(t, err)
	assertAppError(t, err, "LED_002")
}
