// Package account validates registration and profile forms. The same rules run in
// the console before submit and on the server before anything is stored.
package account

import (
	"regexp"
	"strings"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/session"
)

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z ]+$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	upperPattern  = regexp.MustCompile(`[A-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Number   string `json:"number"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Address  string `json:"address"`
}

// Normalize trims the text fields and maps the role onto CUSTOMER or ADMIN. The
// password is left untouched.
func (r Registration) Normalize() Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Number = strings.TrimSpace(r.Number)
	r.Address = strings.TrimSpace(r.Address)
	if session.NormalizeRole(r.Role) == entity.RoleAdmin {
		r.Role = entity.RoleAdmin
	} else {
		r.Role = entity.RoleCustomer
	}
	return r
}

// Validate returns the first failing rule in form order.
func (r Registration) Validate() error {
	r = r.Normalize()
	switch {
	case r.Name == "":
		return apperr.Validation("Full Name is required")
	case len(r.Name) < 3:
		return apperr.Validation("Name must be at least 3 characters long")
	case !namePattern.MatchString(r.Name):
		return apperr.Validation("Name should contain only letters and spaces")
	case r.Email == "":
		return apperr.Validation("Email is required")
	case !emailPattern.MatchString(r.Email):
		return apperr.Validation("Please enter a valid email address")
	case r.Number == "":
		return apperr.Validation("Mobile number is required")
	case !mobilePattern.MatchString(r.Number):
		return apperr.Validation("Enter valid 10-digit Indian mobile number")
	}
	return ValidatePassword(r.Password)
}

// ValidatePassword applies the password rules shared by registration and reset.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return apperr.Validation("Password is required")
	case len(password) < 6:
		return apperr.Validation("Password must be at least 6 characters long")
	case !upperPattern.MatchString(password):
		return apperr.Validation("Password must contain at least one uppercase letter")
	case !digitPattern.MatchString(password):
		return apperr.Validation("Password must contain at least one number")
	}
	return nil
}

// InitialApproval is APPROVED for customers. Admin accounts wait for an existing
// admin to approve them.
func InitialApproval(role string) string {
	if session.NormalizeRole(role) == entity.RoleAdmin {
		return entity.ApprovalPending
	}
	return entity.ApprovalApproved
}

type ProfileUpdate struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Number  string  `json:"number"`
	Address *string `json:"address"`
}

func (p ProfileUpdate) Normalize() ProfileUpdate {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Number = strings.TrimSpace(p.Number)
	if p.Address != nil {
		trimmed := strings.TrimSpace(*p.Address)
		p.Address = &trimmed
	}
	return p
}

func (p ProfileUpdate) Validate() error {
	p = p.Normalize()
	if p.Name == "" || p.Email == "" || p.Number == "" {
		return apperr.Validation("Name, email and number are required")
	}
	return nil
}
