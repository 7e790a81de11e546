package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserEmailAddress(t *testing.T) {
	email := "test@example.com"
	withEmail := User{Phone: "9000000001", Email: &email}
	phoneOnly := User{Phone: "9000000002"}

	assert.Equal(t, "test@example.com", withEmail.EmailAddress())
	assert.Equal(t, "", phoneOnly.EmailAddress(), "Phone-only accounts have no email")
}

func TestIdentityIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{"customer role", RoleCustomer, false},
		{"tailor role", RoleTailor, false},
		{"admin role", RoleAdmin, true},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := Identity{UserID: 1, Role: tt.role}
			assert.Equal(t, tt.want, identity.IsAdmin())
		})
	}
}

func TestUserIdentity(t *testing.T) {
	email := "owner@example.com"
	user := User{ID: 7, Phone: "9000000003", Email: &email, Role: RoleTailor}

	identity := user.Identity()
	assert.Equal(t, Identity{UserID: 7, Email: "owner@example.com", Role: RoleTailor}, identity)
}
