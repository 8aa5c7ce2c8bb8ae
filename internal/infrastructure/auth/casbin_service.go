package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/you/gymdesk/domain"
)

// RBACModel matches route templates (c.FullPath()) against policies. Roles
// inherit through g, so admin ⊃ trainer ⊃ member.
const RBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// OwnerSubject is granted on routes where callers may act on their own records.
const OwnerSubject = "role_owner"

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService loads the model from modelPath, or the built-in RBACModel
// when modelPath is empty, with policies persisted through gorm.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}
	var m model.Model
	if modelPath != "" {
		m, err = model.NewModelFromFile(modelPath)
	} else {
		m, err = model.NewModelFromString(RBACModel)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, err
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	return &CasbinService{E: e}, nil
}

// SeedDefaults installs DefaultPolicies and the role hierarchy when the
// policy table is empty. It reports whether anything was written.
func (s *CasbinService) SeedDefaults() (bool, error) {
	existing, err := s.E.GetPolicy()
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := s.E.AddPolicies(DefaultPolicies()); err != nil {
		return false, fmt.Errorf("seed policies: %w", err)
	}
	if _, err := s.E.AddGroupingPolicies(RoleHierarchy()); err != nil {
		return false, fmt.Errorf("seed role hierarchy: %w", err)
	}
	return true, s.E.SavePolicy()
}

// RoleHierarchy lists the grouping rules: each role inherits the next one's policies.
func RoleHierarchy() [][]string {
	return [][]string{
		{domain.RoleAdmin.Subject(), domain.RoleTrainer.Subject()},
		{domain.RoleTrainer.Subject(), domain.RoleMember.Subject()},
	}
}

// DefaultPolicies is the route table for a fresh install.
func DefaultPolicies() [][]string {
	member := domain.RoleMember.Subject()
	trainer := domain.RoleTrainer.Subject()
	admin := domain.RoleAdmin.Subject()
	return [][]string{
		{admin, "/api/*", "(GET|POST|PUT|PATCH|DELETE)"},

		{member, "/api/sessions", "GET"},
		{member, "/api/sessions/session/:sessionId", "GET"},
		{member, "/api/sessions/date/:date", "GET"},
		{member, "/api/sessions/date-range", "GET"},
		{member, "/api/sessions/user/:userId", "GET"},
		{member, "/api/sessions/:id", "GET"},
		{member, "/api/sessions/:id/add-user", "POST"},

		{trainer, "/api/sessions", "POST"},
		{trainer, "/api/sessions/:id", "PUT"},
		{trainer, "/api/sessions/:id/remove-user", "POST"},
		{trainer, "/api/sessions/:id/status", "PATCH"},

		{trainer, "/api/payments", "(GET|POST)"},
		{trainer, "/api/payments/super-user/:superUserId", "GET"},
		{trainer, "/api/payments/payment/:paymentId", "GET"},
		{trainer, "/api/payments/user/:userId", "GET"},
		{trainer, "/api/payments/:id", "(GET|PUT)"},
		{trainer, "/api/payments/:id/status", "PATCH"},

		{OwnerSubject, "/api/users/:id", "GET"},
		{OwnerSubject, "/api/profile/:userId", "(GET|PUT)"},
		{OwnerSubject, "/api/profile/:userId/personal", "PUT"},
		{OwnerSubject, "/api/profile/:userId/measurements", "PUT"},
		{OwnerSubject, "/api/profile/:userId/bca", "PUT"},
		{OwnerSubject, "/api/payments/user/:userId", "GET"},
	}
}
