package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor for new hashes. Chosen to keep a single
// verification under ~100ms on commodity hardware while resisting offline
// brute force.
const HashCost = 12

// DummyHash is a precomputed bcrypt hash (cost 12) of a throwaway value.
// When a login identifier resolves to no account, verification still runs
// against this hash so response timing does not reveal account existence.
const DummyHash = "$2b$12$C6UzMDM.H6dfI/f/IKcXeOi5V5n7V6czS4QhIwTZPIYOvTo95OfzK"

// BcryptHasher implements Hasher using bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher at the standard cost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: HashCost}
}

// Hash implements Hasher.Hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// Verify implements Hasher.Verify
func (h *BcryptHasher) Verify(password, hashedPassword string) (bool, error) {
	if password == "" || hashedPassword == "" {
		return false, errors.New("password and hashed password cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil // Password doesn't match, but not an error
		}
		return false, err // Some other error occurred
	}

	return true, nil
}
