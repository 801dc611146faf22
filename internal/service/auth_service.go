package service

import (
	"context"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

// Register creates a user and their default NGN wallet.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create user: %w", err))
	}

	if err := s.walletRepo.Create(ctx, domain.NewWallet(user.ID, "NGN")); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create default wallet: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.ErrDatabaseError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID, user.Email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiresAt, nil
}

// SetPin hashes and stores the user's transaction PIN.
func (s *AuthServiceImpl) SetPin(ctx context.Context, userID uuid.UUID, pin string) error {
	if !pinPattern.MatchString(pin) {
		return apperror.Validation("PIN must be exactly 4 digits")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return apperror.ErrNotFound("user")
	}

	pinHash, err := s.hashSvc.Hash(pin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}
	if err := s.userRepo.SetPinHash(ctx, userID, pinHash); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("store pin hash: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("transaction pin set")
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperror.Validation("Password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperror.Validation("Password must contain both letters and digits")
	}
	return nil
}
