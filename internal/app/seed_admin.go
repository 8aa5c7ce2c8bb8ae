package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/gymdesk/domain"
)

// SeedAdmin promotes the user behind raw (an email or mobile number) to
// admin, creating the account when none exists. It reports whether a new
// account was created.
func SeedAdmin(ctx context.Context, users domain.UserRepository, raw, name string) (*domain.User, bool, error) {
	to, err := domain.ParseIdentifier(raw)
	if err != nil {
		return nil, false, err
	}

	var user *domain.User
	if to.Kind == domain.IdentifierEmail {
		user, err = users.FindByEmail(ctx, to.Value)
	} else {
		user, err = users.FindByPhone(ctx, to.Value)
	}
	switch {
	case err == nil:
		if user.Role == domain.RoleAdmin {
			return user, false, nil
		}
		user.Role = domain.RoleAdmin
		if name != "" {
			user.Name = name
		}
		if err := users.Update(ctx, user); err != nil {
			return nil, false, fmt.Errorf("promote user %d: %w", user.ID, err)
		}
		return user, false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, false, err
	}

	if name == "" {
		name = "Admin"
	}
	user = &domain.User{Name: name, Role: domain.RoleAdmin}
	if to.Kind == domain.IdentifierEmail {
		user.Email = to.Value
	} else {
		user.Phone = to.Value
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return user, true, nil
}
