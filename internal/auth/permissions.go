package auth

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Permission names a capability granted to roles.
type Permission string

const (
	PermViewAllTickets   Permission = "view_all_tickets"
	PermCreateTickets    Permission = "create_tickets"
	PermUpdateTickets    Permission = "update_tickets"
	PermCloseTickets     Permission = "close_tickets"
	PermManageUsers      Permission = "manage_users"
	PermManageProperties Permission = "manage_properties"
	PermBlockProperties  Permission = "block_properties"
	PermManageProviders  Permission = "manage_providers"
	PermViewAnalytics    Permission = "view_analytics"
)

//go:embed permissions.yaml
var defaultPolicy []byte

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

type policyFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// Permissions answers role capability checks.
type Permissions struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
}

// NewPermissions loads the built-in role table.
func NewPermissions() (*Permissions, error) {
	return LoadPermissions(defaultPolicy)
}

// LoadPermissions builds an enforcer from a YAML role table.
func LoadPermissions(raw []byte) (*Permissions, error) {
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse permission table: %w", err)
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("build casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	roles := make([]string, 0, len(file.Roles))
	for role := range file.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		if !domain.UserRole(role).Valid() {
			return nil, fmt.Errorf("unknown role %q in permission table", role)
		}
		for _, perm := range file.Roles[role] {
			if _, err := enforcer.AddPolicy(role, perm); err != nil {
				return nil, fmt.Errorf("add policy [%s, %s]: %w", role, perm, err)
			}
		}
	}

	return &Permissions{enforcer: enforcer}, nil
}

// Has reports whether role holds perm. Errors deny.
func (p *Permissions) Has(role domain.UserRole, perm Permission) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	allowed, err := p.enforcer.Enforce(string(role), string(perm))
	if err != nil {
		return false
	}
	return allowed
}

// For lists the permissions held by role, sorted.
func (p *Permissions) For(role domain.UserRole) []Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()

	policies, err := p.enforcer.GetFilteredPolicy(0, string(role))
	if err != nil {
		return nil
	}
	out := make([]Permission, 0, len(policies))
	for _, policy := range policies {
		out = append(out, Permission(policy[1]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
