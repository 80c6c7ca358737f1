package account

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
)

func valid() Registration {
	return Registration{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Number:   "9876543210",
		Password: "Secret1",
	}
}

func TestRegistrationValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Registration)
		want   string
	}{
		{"blank name", func(r *Registration) { r.Name = "   " }, "Full Name is required"},
		{"short name", func(r *Registration) { r.Name = "Al" }, "Name must be at least 3 characters long"},
		{"digits in name", func(r *Registration) { r.Name = "Asha 2" }, "Name should contain only letters and spaces"},
		{"no email", func(r *Registration) { r.Email = "" }, "Email is required"},
		{"bad email", func(r *Registration) { r.Email = "asha@example" }, "Please enter a valid email address"},
		{"no number", func(r *Registration) { r.Number = "" }, "Mobile number is required"},
		{"bad prefix", func(r *Registration) { r.Number = "5876543210" }, "Enter valid 10-digit Indian mobile number"},
		{"short number", func(r *Registration) { r.Number = "98765" }, "Enter valid 10-digit Indian mobile number"},
		{"no password", func(r *Registration) { r.Password = "" }, "Password is required"},
		{"short password", func(r *Registration) { r.Password = "Ab1" }, "Password must be at least 6 characters long"},
		{"no uppercase", func(r *Registration) { r.Password = "secret1" }, "Password must contain at least one uppercase letter"},
		{"no digit", func(r *Registration) { r.Password = "Secrets" }, "Password must contain at least one number"},
	}
	for _, tc := range cases {
		r := valid()
		tc.mutate(&r)
		err := r.Validate()
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve, tc.name)
		require.Equal(t, tc.want, ve.Message, tc.name)
	}
}

func TestRegistrationNormalize(t *testing.T) {
	t.Parallel()

	r := Registration{Name: " Asha ", Email: " a@b.co ", Role: "role_admin", Password: " P1 "}.Normalize()
	require.Equal(t, "Asha", r.Name)
	require.Equal(t, "a@b.co", r.Email)
	require.Equal(t, entity.RoleAdmin, r.Role)
	require.Equal(t, " P1 ", r.Password)

	require.Equal(t, entity.RoleCustomer, Registration{Role: "manager"}.Normalize().Role)
	require.Equal(t, entity.RoleCustomer, Registration{}.Normalize().Role)
}

func TestInitialApproval(t *testing.T) {
	t.Parallel()

	require.Equal(t, entity.ApprovalPending, InitialApproval("ADMIN"))
	require.Equal(t, entity.ApprovalApproved, InitialApproval("CUSTOMER"))
	require.Equal(t, entity.ApprovalApproved, InitialApproval(""))
}

func TestProfileUpdateValidate(t *testing.T) {
	t.Parallel()

	addr := "  12 MG Road "
	p := ProfileUpdate{Name: "Asha", Email: "a@b.co", Number: "9876543210", Address: &addr}
	require.NoError(t, p.Validate())
	require.Equal(t, "12 MG Road", *p.Normalize().Address)

	p.Number = " "
	require.EqualError(t, p.Validate(), "Name, email and number are required")
}
