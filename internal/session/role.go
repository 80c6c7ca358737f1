// Package session issues and checks login sessions and decides which role may reach
// which route.
package session

import (
	"strings"

	"rmc-erp/internal/entity"
)

// NormalizeRole maps the role spellings seen in stored sessions and legacy accounts
// onto CUSTOMER or ADMIN. Unknown roles pass through uppercased.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	switch r {
	case "USER", "ROLE_USER", "ROLE_CUSTOMER":
		return entity.RoleCustomer
	case "ROLE_ADMIN":
		return entity.RoleAdmin
	}
	return r
}
