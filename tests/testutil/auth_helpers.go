package testutil

import (
	"testing"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
)

// MustIssueToken signs a real session token for user with cfg's secret
func MustIssueToken(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()

	token, err := services.NewTokenService(cfg).IssueToken(user)
	if err != nil {
		t.Fatalf("issuing token for user %d: %v", user.ID, err)
	}
	return token
}

func BearerHeader(token string) string {
	return "Bearer " + token
}
