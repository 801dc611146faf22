package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
)

// maxIDAttempts bounds the collision-retry loop for generated identifiers.
// With 64 bits of randomness a second attempt is already vanishingly rare;
// the bound exists so a broken uniqueness query cannot loop forever.
const maxIDAttempts = 5

// randomHex returns n bytes of cryptographic randomness, hex-encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RefGenerator produces the unique identifiers carried by transactions and
// deposits. Every generator checks the store for collisions before handing
// an ID out; uniqueness is still enforced by database constraints, the check
// just keeps the happy path free of constraint-violation retries.
type RefGenerator struct {
	txRepo  ports.TransactionRepository
	depRepo ports.DepositRepository
}

// NewRefGenerator creates a new RefGenerator.
func NewRefGenerator(txRepo ports.TransactionRepository, depRepo ports.DepositRepository) *RefGenerator {
	return &RefGenerator{txRepo: txRepo, depRepo: depRepo}
}

// TransactionID returns a fresh 16-hex-char transaction identifier.
func (g *RefGenerator) TransactionID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := randomHex(8)
		if err != nil {
			return "", apperror.InternalError(err)
		}
		exists, err := g.txRepo.ExistsByTransactionID(ctx, id)
		if err != nil {
			return "", apperror.ErrDatabaseError(fmt.Errorf("transaction id uniqueness check: %w", err))
		}
		if !exists {
			return id, nil
		}
	}
	return "", apperror.InternalError(fmt.Errorf("transaction id generation exhausted %d attempts", maxIDAttempts))
}

// Reference returns a fresh human-shareable reference of the form
// PV-XXXXXXXXXX.
func (g *RefGenerator) Reference(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		suffix, err := randomHex(5)
		if err != nil {
			return "", apperror.InternalError(err)
		}
		ref := "PV-" + strings.ToUpper(suffix)
		exists, err := g.txRepo.ExistsByReference(ctx, ref)
		if err != nil {
			return "", apperror.ErrDatabaseError(fmt.Errorf("reference uniqueness check: %w", err))
		}
		if !exists {
			return ref, nil
		}
	}
	return "", apperror.InternalError(fmt.Errorf("reference generation exhausted %d attempts", maxIDAttempts))
}

// DepositReference returns a fresh deposit reference of the form
// DEP-XXXXXXXXXX.
func (g *RefGenerator) DepositReference(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		suffix, err := randomHex(5)
		if err != nil {
			return "", apperror.InternalError(err)
		}
		ref := "DEP-" + strings.ToUpper(suffix)
		exists, err := g.depRepo.ExistsByReference(ctx, ref)
		if err != nil {
			return "", apperror.ErrDatabaseError(fmt.Errorf("deposit reference uniqueness check: %w", err))
		}
		if !exists {
			return ref, nil
		}
	}
	return "", apperror.InternalError(fmt.Errorf("deposit reference generation exhausted %d attempts", maxIDAttempts))
}

// TxHash returns a synthetic on-chain style transaction hash (0x + 64 hex).
// Crypto sends are settled off-platform; the hash identifies the outbound
// transfer in metadata until a chain integration replaces it.
func (g *RefGenerator) TxHash() (string, error) {
	h, err := randomHex(32)
	if err != nil {
		return "", apperror.InternalError(err)
	}
	return "0x" + h, nil
}

// RechargeToken returns a 16-digit prepaid meter token formatted in groups
// of four.
func (g *RefGenerator) RechargeToken() (string, error) {
	digits := make([]byte, 16)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("reading random digit: %w", err))
		}
		digits[i] = byte('0' + n.Int64())
	}
	var b strings.Builder
	for i := 0; i < 16; i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.Write(digits[i : i+4])
	}
	return b.String(), nil
}
