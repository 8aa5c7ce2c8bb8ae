package services

import (
	"strings"

	"github.com/casbin/casbin/v2"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/infrastructure/auth"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin. Roles are
// given by name (member, trainer, admin, owner) and stored as role_ subjects.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

// policySubject maps a role name to its Casbin subject.
func policySubject(role string) (string, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(role)), "role_")
	if name == "owner" {
		return auth.OwnerSubject, nil
	}
	r, err := domain.ParseRole(name)
	if err != nil {
		return "", err
	}
	return r.Subject(), nil
}

func checkRule(resource, action string) error {
	var fields []domain.FieldError
	if !strings.HasPrefix(resource, "/") {
		fields = append(fields, domain.FieldError{Field: "resource", Message: "Resource must be a path starting with /"})
	}
	if strings.TrimSpace(action) == "" {
		fields = append(fields, domain.FieldError{Field: "action", Message: "Action is required"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	sub, err := policySubject(role)
	if err != nil {
		return err
	}
	if err := checkRule(resource, action); err != nil {
		return err
	}
	if _, err := p.enforcer.AddPolicy(sub, resource, action); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	sub, err := policySubject(role)
	if err != nil {
		return err
	}
	if _, err := p.enforcer.RemovePolicy(sub, resource, action); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	sub, err := policySubject(role)
	if err != nil {
		return false, err
	}
	return p.enforcer.Enforce(sub, resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}
