package service

import (
	"context"
	"testing"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc        *AuthServiceImpl
	userRepo   *mocks.MockUserRepository
	walletRepo *mocks.MockWalletRepository
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
	}
	d.svc = NewAuthService(d.userRepo, d.walletRepo, d.hashSvc, d.tokenSvc, zerolog.Nop())
	return d
}

func TestAuthService_Register_Success(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	req := ports.RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
		FullName: "Ada Obi",
	}

	d.userRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.hashSvc.EXPECT().Hash(req.Password).Return("hashed", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, w *domain.Wallet) error {
			assert.Equal(t, "NGN", w.Currency)
			assert.True(t, w.Balance.IsZero())
			return nil
		})

	user, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.Email, user.Email)
	assert.Equal(t, "hashed", user.PasswordHash)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "taken@example.com").Return(&domain.User{ID: uuid.New()}, nil)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{
		Email:    "taken@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assertAppError(t, err, "AUTH_002")
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	d := setupAuthService(t)

	_, err := d.svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "new@example.com",
		Password: "short",
	})
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")

	_, err = d.svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "new@example.com",
		Password: "lettersonly",
	})
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: "hashed"}
	expiresAt := time.Now().Add(time.Hour)

	d.userRepo.EXPECT().GetByEmail(ctx, user.Email).Return(user, nil)
	d.hashSvc.EXPECT().Verify("password123", "hashed").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(user.ID, user.Email).Return("token", expiresAt, nil)

	token, exp, err := d.svc.Login(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, "token", token)
	assert.Equal(t, expiresAt, exp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: "hashed"}

	d.userRepo.EXPECT().GetByEmail(ctx, user.Email).Return(user, nil)
	d.hashSvc.EXPECT().Verify("wrong", "hashed").Return(false, nil)

	_, _, err := d.svc.Login(ctx, user.Email, "wrong")
	require.Error(t, err)
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	_, _, err := d.svc.Login(ctx, "nobody@example.com", "password123")
	require.Error(t, err)
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_SetPin_Success(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "user@example.com"}

	d.userRepo.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	d.hashSvc.EXPECT().Hash("1234").Return("pin-hash", nil)
	d.userRepo.EXPECT().SetPinHash(ctx, user.ID, "pin-hash").Return(nil)

	err := d.svc.SetPin(ctx, user.ID, "1234")
	assert.NoError(t, err)
}

func TestAuthService_SetPin_InvalidFormat(t *testing.T) {
	d := setupAuthService(t)

	for _, pin := range []string{"12", "12345", "abcd", ""} {
		err := d.svc.SetPin(context.Background(), uuid.New(), pin)
		require.Error(t, err, "pin %q", pin)
		assertAppError(t, err, "VAL_001")
	}
}
