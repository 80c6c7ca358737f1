package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/repository"
	"rmc-erp/internal/repository/sqlitetest"
	"rmc-erp/internal/sharding"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newOrder(id int64, orderID string, userID int64, created time.Time) *entity.Order {
	return &entity.Order{
		ID:           id,
		OrderID:      orderID,
		UserID:       userID,
		Grade:        "M25",
		Quantity:     10,
		TotalPrice:   55000,
		Address:      "Plot 7, MIDC",
		Status:       entity.StatusPendingApproval,
		DeliveryDate: entity.NewDateTime(base.Add(48 * time.Hour)),
		CreatedAt:    created,
	}
}

func setup(t *testing.T) (*repository.OrderRepository, *repository.PaymentRepository, *repository.UserRepository) {
	t.Helper()
	dbs := sqlitetest.Open(t, 3)
	router := sharding.NewShardRouter(len(dbs))
	return repository.NewOrderRepository(dbs, router),
		repository.NewPaymentRepository(dbs, router),
		repository.NewUserRepository(dbs[sharding.PrimaryShard])
}

func TestOrderRoundTrip(t *testing.T) {
	orders, _, _ := setup(t)
	ctx := context.Background()

	o := newOrder(1, "ORD-abc12345", 9, base)
	require.NoError(t, orders.CreateOrder(ctx, o))

	got, err := orders.GetOrderByOrderID(ctx, "ORD-abc12345")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, entity.StatusPendingApproval, got.Status)
	require.True(t, got.DeliveryDate.Equal(base.Add(48*time.Hour)))
	require.Nil(t, got.ApprovedAt)
	require.Nil(t, got.ProductionDate)
	require.True(t, got.CreatedAt.Equal(base))

	got.Status = entity.StatusInProduction
	got.ApprovedAt = entity.NewDateTime(base.Add(time.Hour))
	got.ProductionDate = entity.NewDate(base.Add(24 * time.Hour))
	got.ProductionSlotStart = entity.NewDateTime(base.Add(25 * time.Hour))
	got.ProductionSlotEnd = entity.NewDateTime(base.Add(27 * time.Hour))
	got.PlantAllocation = "Plant A"
	got.PriorityLevel = entity.PriorityUrgent
	got.LatestNotification = "Production schedule updated by admin"
	require.NoError(t, orders.UpdateOrder(ctx, got))

	again, err := orders.GetOrderByOrderID(ctx, "ORD-abc12345")
	require.NoError(t, err)
	require.Equal(t, entity.StatusInProduction, again.Status)
	require.True(t, again.ApprovedAt.Equal(base.Add(time.Hour)))
	require.Equal(t, "2025-06-02", again.ProductionDate.Format(entity.DateLayout))
	require.True(t, again.ProductionSlotEnd.Equal(base.Add(27*time.Hour)))
	require.Equal(t, "Plant A", again.PlantAllocation)
	require.Equal(t, "Production schedule updated by admin", again.LatestNotification)
}

func TestOrderNotFound(t *testing.T) {
	orders, _, _ := setup(t)
	ctx := context.Background()

	_, err := orders.GetOrderByOrderID(ctx, "ORD-missing")
	require.ErrorIs(t, err, apperr.ErrOrderNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.ErrorIs(t, orders.UpdateOrder(ctx, newOrder(5, "ORD-missing", 1, base)), apperr.ErrOrderNotFound)
	require.ErrorIs(t, orders.DeleteOrder(ctx, "ORD-missing"), apperr.ErrOrderNotFound)
}

func TestUpdateOrderRejectsStaleVersion(t *testing.T) {
	orders, _, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, orders.CreateOrder(ctx, newOrder(1, "ORD-race0001", 7, base)))

	first, err := orders.GetOrderByOrderID(ctx, "ORD-race0001")
	require.NoError(t, err)
	second, err := orders.GetOrderByOrderID(ctx, "ORD-race0001")
	require.NoError(t, err)

	first.Status = entity.StatusApproved
	require.NoError(t, orders.UpdateOrder(ctx, first))
	require.Equal(t, int64(1), first.Version)

	second.Status = entity.StatusRejected
	require.ErrorIs(t, orders.UpdateOrder(ctx, second), apperr.ErrStaleOrder)

	stored, err := orders.GetOrderByOrderID(ctx, "ORD-race0001")
	require.NoError(t, err)
	require.Equal(t, entity.StatusApproved, stored.Status)
	require.Equal(t, int64(1), stored.Version)

	// A writer holding the current version goes through.
	stored.Status = entity.StatusDelivered
	require.NoError(t, orders.UpdateOrder(ctx, stored))
}

func TestListingsFanOutAcrossShards(t *testing.T) {
	orders, _, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		o := newOrder(int64(i+1), fmt.Sprintf("ORD-%08d", i), int64(i%2+1), base.Add(time.Duration(i)*time.Minute))
		if i%3 == 0 {
			o.Status = entity.StatusApproved
		}
		require.NoError(t, orders.CreateOrder(ctx, o))
	}

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 12)
	require.Equal(t, "ORD-00000011", all[0].OrderID)
	require.Equal(t, "ORD-00000000", all[11].OrderID)

	mine, err := orders.ListOrdersByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 6)
	for _, o := range mine {
		require.Equal(t, int64(1), o.UserID)
	}

	pending, err := orders.ListOrdersByStatus(ctx, entity.StatusPendingApproval)
	require.NoError(t, err)
	require.Len(t, pending, 8)

	none, err := orders.ListOrdersByUser(ctx, 99)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestListVehicleCandidates(t *testing.T) {
	orders, _, _ := setup(t)
	ctx := context.Background()

	assigned := newOrder(1, "ORD-assigned", 1, base)
	assigned.DispatchDateTime = entity.NewDateTime(base.Add(time.Hour))
	assigned.ExpectedArrivalTime = entity.NewDateTime(base.Add(3 * time.Hour))
	assigned.TransitMixerNumber = "MH-12-1234"
	require.NoError(t, orders.CreateOrder(ctx, assigned))

	unassigned := newOrder(2, "ORD-unassigned", 1, base)
	unassigned.DispatchDateTime = entity.NewDateTime(base.Add(time.Hour))
	unassigned.ExpectedArrivalTime = entity.NewDateTime(base.Add(3 * time.Hour))
	require.NoError(t, orders.CreateOrder(ctx, unassigned))

	noWindow := newOrder(3, "ORD-nowindow", 1, base)
	noWindow.DriverName = "Ravi"
	require.NoError(t, orders.CreateOrder(ctx, noWindow))

	candidates, err := orders.ListVehicleCandidates(ctx, "ORD-unassigned")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "ORD-assigned", candidates[0].OrderID)

	candidates, err = orders.ListVehicleCandidates(ctx, "ORD-assigned")
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestPaymentsAndDeleteCascade(t *testing.T) {
	orders, payments, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, orders.CreateOrder(ctx, newOrder(1, "ORD-pay00001", 4, base)))
	require.NoError(t, orders.CreateOrder(ctx, newOrder(2, "ORD-pay00002", 4, base)))

	for i, key := range []string{"k1", "k2"} {
		require.NoError(t, payments.CreatePayment(ctx, &entity.PaymentRecord{
			ID:             int64(10 + i),
			OrderID:        "ORD-pay00001",
			UserID:         4,
			Amount:         1000,
			Method:         entity.MethodUPI,
			PaidAt:         base.Add(time.Duration(i) * time.Hour),
			TransactionID:  fmt.Sprintf("TXN-%d", i),
			IdempotencyKey: key,
		}))
	}
	require.NoError(t, payments.CreatePayment(ctx, &entity.PaymentRecord{
		ID: 20, OrderID: "ORD-pay00002", UserID: 4, Amount: 50, Method: entity.MethodBankPayment,
		PaidAt: base, TransactionID: "TXN-other", IdempotencyKey: "k3",
	}))

	ledger, err := payments.ListByOrder(ctx, "ORD-pay00001")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	require.Equal(t, "TXN-0", ledger[0].TransactionID)
	require.True(t, ledger[1].PaidAt.Equal(base.Add(time.Hour)))

	all, err := payments.ListByUser(ctx, 4)
	require.NoError(t, err)
	require.Len(t, all, 3)

	found, err := payments.FindByIdempotencyKey(ctx, 4, "k2")
	require.NoError(t, err)
	require.Equal(t, "TXN-1", found.TransactionID)

	found, err = payments.FindByIdempotencyKey(ctx, 4, "k3")
	require.NoError(t, err)
	require.Equal(t, "ORD-pay00002", found.OrderID)

	_, err = payments.FindByIdempotencyKey(ctx, 5, "k2")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	err = payments.CreatePayment(ctx, &entity.PaymentRecord{
		ID: 21, OrderID: "ORD-pay00001", UserID: 4, Amount: 10, Method: entity.MethodUPI,
		PaidAt: base, TransactionID: "TXN-again", IdempotencyKey: "k2",
	})
	require.ErrorIs(t, err, apperr.ErrDuplicate)

	require.NoError(t, orders.DeleteOrder(ctx, "ORD-pay00001"))
	ledger, err = payments.ListByOrder(ctx, "ORD-pay00001")
	require.NoError(t, err)
	require.Empty(t, ledger)

	all, err = payments.ListByUser(ctx, 4)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestUsers(t *testing.T) {
	_, _, users := setup(t)
	ctx := context.Background()

	admin := &entity.User{ID: 1, Name: "Root Admin", Email: "Root@Example.com", Role: entity.RoleAdmin, ApprovalStatus: entity.ApprovalPending, PasswordHash: "h"}
	customer := &entity.User{ID: 2, Name: "Asha", Email: "asha@example.com", Number: "9876543210", Role: entity.RoleCustomer, ApprovalStatus: entity.ApprovalApproved, PasswordHash: "h"}
	noNumber := &entity.User{ID: 3, Name: "Ravi", Email: "ravi@example.com", Role: entity.RoleCustomer, ApprovalStatus: entity.ApprovalApproved, PasswordHash: "h"}
	for _, u := range []*entity.User{admin, customer, noNumber} {
		require.NoError(t, users.CreateUser(ctx, u, base))
	}

	require.Error(t, users.CreateUser(ctx, &entity.User{ID: 4, Name: "Dup", Email: "asha@example.com", Role: entity.RoleCustomer, ApprovalStatus: entity.ApprovalApproved}, base))

	got, err := users.GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)

	got, err = users.GetUserByNumber(ctx, "9876543210")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.ID)

	got, err = users.GetUserByID(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "", got.Number)

	_, err = users.GetUserByID(ctx, 42)
	require.ErrorIs(t, err, apperr.ErrUserNotFound)

	pending, err := users.ListPendingAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, users.UpdateApprovalStatus(ctx, 1, entity.ApprovalApproved))
	pending, err = users.ListPendingAdmins(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	customer.Address = "12 MG Road"
	customer.Number = "9123456789"
	require.NoError(t, users.UpdateProfile(ctx, customer))
	got, err = users.GetUserByID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "12 MG Road", got.Address)
	require.Equal(t, "9123456789", got.Number)

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.ErrorIs(t, users.UpdateApprovalStatus(ctx, 99, entity.ApprovalApproved), apperr.ErrUserNotFound)

	require.NoError(t, users.UpdatePassword(ctx, 2, "h2"))
	got, err = users.GetUserByID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "h2", got.PasswordHash)
	require.ErrorIs(t, users.UpdatePassword(ctx, 99, "h3"), apperr.ErrUserNotFound)
}

func TestFleetRegistry(t *testing.T) {
	dbs := sqlitetest.Open(t, 2)
	fleet := repository.NewFleetRepository(dbs[sharding.PrimaryShard])
	ctx := context.Background()

	require.NoError(t, fleet.CreatePlant(ctx, &entity.Plant{ID: 1, PlantName: "Plant B", CreatedAt: base}))
	require.NoError(t, fleet.CreatePlant(ctx, &entity.Plant{ID: 2, PlantName: "Plant A", CreatedAt: base}))
	require.ErrorIs(t, fleet.CreatePlant(ctx, &entity.Plant{ID: 3, PlantName: "Plant A", CreatedAt: base}), apperr.ErrDuplicate)

	plants, err := fleet.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	require.Equal(t, "Plant A", plants[0].PlantName)

	require.NoError(t, fleet.CreateMixer(ctx, &entity.TransitMixer{ID: 10, MixerNumber: "TM-1", CreatedAt: base}))
	require.NoError(t, fleet.CreateMixer(ctx, &entity.TransitMixer{ID: 11, MixerNumber: "TM-2", CreatedAt: base}))
	require.ErrorIs(t, fleet.RenameMixer(ctx, 11, "TM-1"), apperr.ErrDuplicate)
	require.ErrorIs(t, fleet.RenameMixer(ctx, 99, "TM-9"), apperr.ErrMixerNotFound)

	mixer := int64(10)
	a := &entity.Assignment{ID: 100, OrderID: "ORD-abc12345", PlantID: 1, MixerID: &mixer,
		DriverName: "Ramesh", PriorityLevel: entity.PriorityNormal, PlantAllocation: "Bay 1", CreatedAt: base}
	require.NoError(t, fleet.CreateAssignment(ctx, a))
	dup := *a
	dup.ID = 101
	require.ErrorIs(t, fleet.CreateAssignment(ctx, &dup), apperr.ErrDuplicate)

	got, err := fleet.GetAssignmentByOrder(ctx, "ORD-abc12345")
	require.NoError(t, err)
	require.Equal(t, "Plant B", got.PlantName)
	require.Equal(t, "TM-1", got.MixerNumber)
	require.Nil(t, got.BackupMixerID)
	require.Empty(t, got.BackupMixerNumber)
	require.True(t, got.CreatedAt.Equal(base))

	used, err := fleet.PlantInUse(ctx, 1)
	require.NoError(t, err)
	require.True(t, used)
	used, err = fleet.MixerInUse(ctx, 11)
	require.NoError(t, err)
	require.False(t, used)

	backup := int64(11)
	got.MixerID, got.BackupMixerID = nil, &backup
	require.NoError(t, fleet.UpdateAssignment(ctx, got))
	got, err = fleet.GetAssignment(ctx, 100)
	require.NoError(t, err)
	require.Nil(t, got.MixerID)
	require.Equal(t, "TM-2", got.BackupMixerNumber)
	used, err = fleet.MixerInUse(ctx, 11)
	require.NoError(t, err)
	require.True(t, used)

	all, err := fleet.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, fleet.DeleteAssignment(ctx, 100))
	require.ErrorIs(t, fleet.DeleteAssignment(ctx, 100), apperr.ErrAssignmentNotFound)
	require.NoError(t, fleet.DeletePlant(ctx, 1))
	_, err = fleet.GetPlant(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrPlantNotFound)
}
