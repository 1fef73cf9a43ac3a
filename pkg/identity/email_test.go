package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	variants := []string{
		"User@Example.com",
		"  user@example.com  ",
		"USER@EXAMPLE.COM",
		"\tUser@example.COM\n",
	}
	for _, raw := range variants {
		assert.Equal(t, "user@example.com", NormalizeEmail(raw), "raw=%q", raw)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.com"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail(""))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole(" junior_admin ")
	assert.NoError(t, err)
	assert.Equal(t, RoleJuniorAdmin, role)

	role, err = ParseRole("USER")
	assert.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}
