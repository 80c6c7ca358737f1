package session

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"rmc-erp/internal/entity"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Admins inherit every customer route. Per-user ownership is checked by the handlers.
const rbacPolicy = `
p, CUSTOMER, /api/users/*, *
p, CUSTOMER, /api/orders/*, *
p, CUSTOMER, /api/quality/*, GET
p, CUSTOMER, /api/billing/*, *
p, ADMIN, /api/admin/*, *
p, ADMIN, /api/plants, *
p, ADMIN, /api/plants/*, *
p, ADMIN, /api/mixers, *
p, ADMIN, /api/mixers/*, *
p, ADMIN, /api/assignments, *
p, ADMIN, /api/assignments/*, *
g, ADMIN, CUSTOMER
`

// Policy decides route access by role.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load RBAC model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(rbacPolicy))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}
	return &Policy{enforcer: enforcer}, nil
}

// Allow reports whether role may perform method on path.
func (p *Policy) Allow(role, path, method string) bool {
	allowed, err := p.enforcer.Enforce(NormalizeRole(role), path, method)
	if err != nil {
		logger.Error().Err(err).Msgf("Error enforcing policy for %s %s", method, path)
		return false
	}
	return allowed
}

// CanAccessUser reports whether the caller may read or act on userID's data.
func CanAccessUser(c *Claims, userID int64) bool {
	if c == nil {
		return false
	}
	return c.UserID == userID || NormalizeRole(c.Role) == entity.RoleAdmin
}
