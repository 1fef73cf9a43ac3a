package password

import "fmt"

// Policy defines the requirements for password strength.
// Only length is enforced today; the struct leaves room for extension.
type Policy struct {
	MinLength int
}

// DefaultPolicy returns the default password policy
func DefaultPolicy() Policy {
	return Policy{
		MinLength: 8,
	}
}

// Validate verifies that a password meets the policy
func (p Policy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	return nil
}
