package domain

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries administrative rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsTrainer is true for trainers and for admins, who inherit every trainer capability.
func (r Role) IsTrainer() bool { return r == RoleTrainer || r == RoleAdmin }

// CanAccessUser reports whether an actor holding r may read or edit the
// records of target. Admins bypass the ownership check.
func (r Role) CanAccessUser(actorID, targetID uint) bool {
	return r.IsAdmin() || actorID == targetID
}

// Subject is the policy subject used by the route enforcer.
func (r Role) Subject() string { return "role_" + string(r) }
