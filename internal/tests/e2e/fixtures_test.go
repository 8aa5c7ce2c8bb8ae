package e2e

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/app"
)

// Account is a logged-in caller.
type Account struct {
	ID           uint
	Phone        string
	AccessToken  string
	RefreshToken string
}

// Login runs the passcode flow for a mobile number end to end.
func (s *TestSuite) Login(t *testing.T, phone string) Account {
	t.Helper()
	resp := s.Do(t, http.MethodPost, "/api/users/request-otp", "", map[string]any{"phoneNumber": phone})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Raw))

	code := s.Notifier.LastCode(phone)
	require.NotEmpty(t, code, "no passcode captured for %s", phone)

	resp = s.Do(t, http.MethodPost, "/api/users/verify-otp", "", map[string]any{"phoneNumber": phone, "otp": code})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Raw))

	user := resp.Body["user"].(map[string]any)
	tokens := resp.Body["tokens"].(map[string]any)
	return Account{
		ID:           uint(user["id"].(float64)),
		Phone:        phone,
		AccessToken:  tokens["accessToken"].(string),
		RefreshToken: tokens["refreshToken"].(string),
	}
}

// LoginAs seeds an account with role and logs it in.
func (s *TestSuite) LoginAs(t *testing.T, phone string, role domain.Role) Account {
	t.Helper()
	ctx := context.Background()
	users := s.Container.UserRepo
	if role == domain.RoleAdmin {
		_, _, err := app.SeedAdmin(ctx, users, phone, "")
		require.NoError(t, err)
	} else {
		require.NoError(t, users.Create(ctx, &domain.User{Phone: phone, Name: string(role), Role: role}))
	}
	return s.Login(t, phone)
}

// NextWeek is a session date a week ahead in the studio's timezone.
func (s *TestSuite) NextWeek() string {
	return time.Now().In(s.Container.Config.Location()).AddDate(0, 0, 7).Format("2006-01-02")
}

// path joins a route prefix with a JSON number id.
func path(prefix string, id any) string {
	if f, ok := id.(float64); ok {
		return fmt.Sprintf("%s%d", prefix, uint(f))
	}
	return fmt.Sprintf("%s%v", prefix, id)
}
