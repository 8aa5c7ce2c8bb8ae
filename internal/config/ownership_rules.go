package config

// OwnershipRule marks a route where the caller may act on their own records
// even without the role the route otherwise requires.
type OwnershipRule struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Source    string `yaml:"source"`
	ParamName string `yaml:"paramName"`
}

// DefaultOwnershipRules covers the user, profile and payer-history routes.
func DefaultOwnershipRules() []OwnershipRule {
	return []OwnershipRule{
		{Method: "GET", Path: "/api/users/:id", Source: "path", ParamName: "id"},
		{Method: "GET", Path: "/api/profile/:userId", Source: "path", ParamName: "userId"},
		{Method: "PUT", Path: "/api/profile/:userId", Source: "path", ParamName: "userId"},
		{Method: "PUT", Path: "/api/profile/:userId/personal", Source: "path", ParamName: "userId"},
		{Method: "PUT", Path: "/api/profile/:userId/measurements", Source: "path", ParamName: "userId"},
		{Method: "PUT", Path: "/api/profile/:userId/bca", Source: "path", ParamName: "userId"},
		{Method: "GET", Path: "/api/payments/user/:userId", Source: "path", ParamName: "userId"},
	}
}
