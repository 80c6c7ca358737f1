package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rmc-erp/internal/account"
	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
)

func registration(name, email, number, role string) account.Registration {
	return account.Registration{
		Name:     name,
		Email:    email,
		Number:   number,
		Password: "Secret123",
		Role:     role,
		Address:  "Pune",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration("Al", "al@example.com", "9876543210", ""))
	require.EqualError(t, err, "Name must be at least 3 characters long")

	customer, err := f.users.Register(ctx, registration(" Asha Rao ", "asha@example.com", "9876543210", "user"))
	require.NoError(t, err)
	require.Equal(t, entity.RoleCustomer, customer.Role)
	require.Equal(t, entity.ApprovalApproved, customer.ApprovalStatus)
	require.Equal(t, "Asha Rao", customer.Name)
	require.NotEqual(t, "Secret123", customer.PasswordHash)

	_, err = f.users.Register(ctx, registration("Asha Again", "ASHA@example.com", "9876543211", ""))
	require.EqualError(t, err, "Email already exists")

	_, err = f.users.Register(ctx, registration("Asha Again", "asha2@example.com", "9876543210", ""))
	require.EqualError(t, err, "Mobile number already exists")

	admin, err := f.users.Register(ctx, registration("Vikram Admin", "vikram@example.com", "9876543212", "admin"))
	require.NoError(t, err)
	require.Equal(t, entity.RoleAdmin, admin.Role)
	require.Equal(t, entity.ApprovalPending, admin.ApprovalStatus)

	pending, err := f.users.ListPendingAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, admin.ID, pending[0].ID)
}

func TestLoginAndAdminApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.users.Register(ctx, registration("Asha Rao", "asha@example.com", "9876543210", ""))
	require.NoError(t, err)
	admin, err := f.users.Register(ctx, registration("Vikram Admin", "vikram@example.com", "9876543212", "ADMIN"))
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "asha@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "nobody@example.com", "Secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := f.users.Login(ctx, " ASHA@example.com ", "Secret123")
	require.NoError(t, err)
	require.Equal(t, customer.ID, res.User.ID)
	live, err := f.sessions.Validate(ctx, customer.ID, res.Token)
	require.NoError(t, err)
	require.True(t, live)

	_, err = f.users.Login(ctx, "vikram@example.com", "Secret123")
	require.ErrorIs(t, err, ErrApprovalPending)

	require.EqualError(t, f.users.ApproveAdmin(ctx, customer.ID), "User is not an admin")
	require.ErrorIs(t, f.users.ApproveAdmin(ctx, 424242), apperr.ErrUserNotFound)

	require.NoError(t, f.users.ApproveAdmin(ctx, admin.ID))
	adminLogin, err := f.users.Login(ctx, "vikram@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, f.users.RejectAdmin(ctx, admin.ID))
	live, err = f.sessions.Validate(ctx, admin.ID, adminLogin.Token)
	require.NoError(t, err)
	require.False(t, live)
	_, err = f.users.Login(ctx, "vikram@example.com", "Secret123")
	require.ErrorIs(t, err, ErrApprovalPending)

	require.NoError(t, f.users.Logout(ctx, customer.ID))
	live, err = f.sessions.Validate(ctx, customer.ID, res.Token)
	require.NoError(t, err)
	require.False(t, live)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asha, err := f.users.Register(ctx, registration("Asha Rao", "asha@example.com", "9876543210", ""))
	require.NoError(t, err)
	_, err = f.users.Register(ctx, registration("Ravi Kumar", "ravi@example.com", "9876543211", ""))
	require.NoError(t, err)

	update := func(name, email, number string, address *string) error {
		return f.users.UpdateProfile(ctx, asha.ID, account.ProfileUpdate{Name: name, Email: email, Number: number, Address: address})
	}

	require.EqualError(t, update("", "asha@example.com", "9876543210", nil), "Name, email and number are required")
	require.EqualError(t, update("Asha", "ravi@example.com", "9876543210", nil), "Email already exists")
	require.EqualError(t, update("Asha", "asha@example.com", "9876543211", nil), "Mobile number already exists")

	newAddress := "  Mumbai <b>HQ</b> "
	require.NoError(t, update("Asha R", "Asha@Example.com", "9876543219", &newAddress))

	got, err := f.users.GetUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha R", got.Name)
	require.Equal(t, "9876543219", got.Number)
	require.Equal(t, "Mumbai HQ", got.Address)

	// A nil address keeps the stored one.
	require.NoError(t, update("Asha R", "asha@example.com", "9876543219", nil))
	got, err = f.users.GetUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Equal(t, "Mumbai HQ", got.Address)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}
