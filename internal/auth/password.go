package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// bcrypt ignores everything past this many bytes.
const maxPasswordBytes = 72

// PasswordService checks the break-glass admin password against the bcrypt
// hash in ADMIN_PASSWORD_HASH. cmd/hashpw produces that hash with Hash.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: 12}
}

// NewPasswordServiceForTest lowers the work factor, typically to
// bcrypt.MinCost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(password string) (string, error) {
	switch {
	case password == "":
		return "", errors.New("auth: password is empty")
	case len(password) > maxPasswordBytes:
		return "", fmt.Errorf("auth: password longer than %d bytes", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify returns ErrInvalidPassword on a mismatch. A malformed hash is a
// configuration problem and comes back as a different error.
func (p *PasswordService) Verify(hash, password string) error {
	// Hash never accepts these, so no stored hash can match one.
	if len(password) > maxPasswordBytes {
		return ErrInvalidPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidPassword
	default:
		return fmt.Errorf("auth: checking password: %w", err)
	}
}

// CheckHash reports whether hash is a bcrypt hash Verify can use.
func CheckHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("auth: not a bcrypt hash: %w", err)
	}
	return nil
}
