package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rmc-erp/internal/account"
	"rmc-erp/internal/api/apitest"
	"rmc-erp/internal/client"
	"rmc-erp/internal/entity"
)

func newClient(t *testing.T, url string) *client.Client {
	t.Helper()
	c, err := client.New(url, nil)
	require.NoError(t, err)
	return c
}

func at(day, hour int) *entity.DateTime {
	return entity.NewDateTime(time.Date(2030, 1, day, hour, 0, 0, 0, time.UTC))
}

func strPtr(s string) *string { return &s }

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := client.New(" ", nil)
	require.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	app := apitest.New(t)
	app.SeedAdmin(t, 1, "admin@example.com", "Admin123")
	ctx := context.Background()

	customer := newClient(t, app.Server.URL)
	admin := newClient(t, app.Server.URL)
	require.NoError(t, customer.Health(ctx))

	userID, err := customer.Register(ctx, account.Registration{
		Name: "Asha Rao", Email: "asha@example.com", Number: "9876543210", Password: "Secret123", Address: "Pune",
	})
	require.NoError(t, err)

	_, err = customer.Login(ctx, "asha@example.com", "wrong")
	require.True(t, client.IsUnauthorized(err))
	require.Empty(t, customer.Token())

	login, err := customer.Login(ctx, "asha@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, userID, login.UserID)
	require.Equal(t, entity.RoleCustomer, login.Role)
	require.Equal(t, login.Token, customer.Token())

	_, err = admin.Login(ctx, "admin@example.com", "Admin123")
	require.NoError(t, err)

	created, err := customer.CreateOrder(ctx, client.CreateOrderRequest{
		Grade: "M25", Quantity: 10, DeliveryDate: at(5, 9), Address: "Plot 7", UserID: userID,
	})
	require.NoError(t, err)
	require.Equal(t, entity.StatusPendingApproval, created.Status)
	require.Equal(t, 55000.0, created.TotalPrice)

	mine, err := customer.MyOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, created.OrderID, mine[0].OrderID)

	pending, err := admin.PendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = customer.AdminOrders(ctx)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	text, err := admin.ApproveOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Equal(t, "Order Approved", text)

	msg, err := admin.ScheduleProduction(ctx, created.OrderID, entity.ProductionSchedule{
		ProductionDate:      entity.NewDate(time.Date(2030, 1, 4, 0, 0, 0, 0, time.UTC)),
		ProductionSlotStart: at(4, 8),
		ProductionSlotEnd:   at(4, 10),
		PlantAllocation:     strPtr("Plant A"),
		PriorityLevel:       strPtr(entity.PriorityNormal),
	})
	require.NoError(t, err)
	require.Equal(t, "Production scheduled successfully", msg)

	msg, err = admin.ScheduleDispatch(ctx, created.OrderID, entity.DispatchSchedule{
		DispatchDateTime:    at(5, 10),
		TripPlanning:        strPtr(entity.TripSingle),
		DeliverySequence:    strPtr("1"),
		ExpectedArrivalTime: at(5, 12),
	})
	require.NoError(t, err)
	require.Equal(t, "Dispatch scheduled successfully", msg)

	msg, err = admin.AssignVehicle(ctx, created.OrderID, entity.VehicleSchedule{
		TransitMixerNumber: "TM-7", DriverName: "Ravi", DriverShift: "Day",
	})
	require.NoError(t, err)
	require.Equal(t, "Vehicle and driver assigned successfully", msg)

	msg, err = admin.Reschedule(ctx, created.OrderID, entity.Reschedule{RescheduleReason: strPtr("Pump breakdown")})
	require.NoError(t, err)
	require.Equal(t, "Order rescheduled successfully", msg)

	order, err := customer.GetOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusDispatched, order.Status)
	require.Equal(t, "TM-7", order.TransitMixerNumber)
	require.Equal(t, "Pump breakdown", order.RescheduleReason)

	update, err := admin.UpdateStatus(ctx, created.OrderID, entity.StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, entity.StatusDelivered, update.NewStatus)

	records, err := customer.QualityRecords(ctx, userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].QualityCertificateGenerated)

	cert, err := customer.Certificate(ctx, userID, created.OrderID)
	require.NoError(t, err)
	require.Contains(t, cert, "QC-"+created.OrderID)

	paid, err := customer.RecordPayment(ctx, userID, created.OrderID, "attempt-1", client.PaymentRequest{Amount: 900, Method: "UPI"})
	require.NoError(t, err)
	require.False(t, paid.Replayed)
	require.Equal(t, "Payment recorded successfully", paid.Message)

	again, err := customer.RecordPayment(ctx, userID, created.OrderID, "attempt-1", client.PaymentRequest{Amount: 900, Method: "UPI"})
	require.NoError(t, err)
	require.True(t, again.Replayed)
	require.Equal(t, paid.Payment.TransactionID, again.Payment.TransactionID)

	statements, err := customer.Statements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	require.Equal(t, 64000.0, statements[0].Outstanding)

	invoice, err := customer.Invoice(ctx, userID, created.OrderID)
	require.NoError(t, err)
	require.Contains(t, invoice, "INV-"+created.OrderID)

	feed, err := customer.Notifications(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	require.Equal(t, entity.EventPaymentRecorded, feed[0].Event)

	workbook, err := admin.ExportOrders(ctx)
	require.NoError(t, err)
	require.True(t, len(workbook) > 4 && string(workbook[:2]) == "PK")

	profileMsg, err := customer.UpdateProfile(ctx, userID, account.ProfileUpdate{
		Name: "Asha R", Email: "asha@example.com", Number: "9876543210",
	})
	require.NoError(t, err)
	require.Equal(t, "Profile updated successfully", profileMsg)
	profile, err := customer.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Asha R", profile.Name)

	user, err := customer.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, entity.ApprovalApproved, user.ApprovalStatus)

	require.NoError(t, customer.Logout(ctx))
	require.Empty(t, customer.Token())
	_, err = customer.MyOrders(ctx, userID)
	require.True(t, client.IsUnauthorized(err))
}

func TestAdminAccounts(t *testing.T) {
	app := apitest.New(t)
	app.SeedAdmin(t, 1, "admin@example.com", "Admin123")
	ctx := context.Background()

	admin := newClient(t, app.Server.URL)
	_, err := admin.Login(ctx, "admin@example.com", "Admin123")
	require.NoError(t, err)

	applicant := newClient(t, app.Server.URL)
	applicantID, err := applicant.Register(ctx, account.Registration{
		Name: "New Admin", Email: "new@example.com", Number: "9876543212", Password: "Secret123", Role: "admin",
	})
	require.NoError(t, err)

	_, err = applicant.Login(ctx, "new@example.com", "Secret123")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "Admin approval pending", apiErr.Message)

	pending, err := admin.PendingAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, applicantID, pending[0].ID)

	_, err = admin.ApproveAdmin(ctx, applicantID)
	require.NoError(t, err)
	_, err = applicant.Login(ctx, "new@example.com", "Secret123")
	require.NoError(t, err)

	users, err := admin.AdminUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = admin.RejectAdmin(ctx, applicantID)
	require.NoError(t, err)
	_, err = applicant.AdminOrders(ctx)
	require.True(t, client.IsUnauthorized(err))

	created, err := admin.CreateOrder(ctx, client.CreateOrderRequest{
		Grade: "M20", Quantity: 4, DeliveryDate: at(6, 9), Address: "Site 2", UserID: 1,
	})
	require.NoError(t, err)
	text, err := admin.RejectOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Equal(t, "Order Rejected", text)

	msg, err := admin.DeleteOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Equal(t, "Order deleted successfully", msg)
	_, err = admin.DeleteOrder(ctx, created.OrderID)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	app := apitest.New(t)
	ctx := context.Background()
	c := newClient(t, app.Server.URL)
	_, err := c.Register(ctx, account.Registration{
		Name: "Asha Rao", Email: "asha@example.com", Number: "9876543210", Password: "Secret123",
	})
	require.NoError(t, err)

	msg, err := c.ForgotPassword(ctx, "asha@example.com")
	require.NoError(t, err)
	require.Equal(t, "Verification code sent to your email", msg)
	mail, ok := app.Mail.Last("asha@example.com")
	require.True(t, ok)
	code := mail.Body[len("Your password reset OTP is: "):][:6]

	_, err = c.VerifyResetOTP(ctx, "asha@example.com", "abcdef")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Invalid verification code", apiErr.Message)

	_, err = c.VerifyResetOTP(ctx, "asha@example.com", code)
	require.NoError(t, err)
	_, err = c.ResetPassword(ctx, "asha@example.com", code, "Fresh123")
	require.NoError(t, err)
	_, err = c.Login(ctx, "asha@example.com", "Fresh123")
	require.NoError(t, err)
}

func TestFleetRegistry(t *testing.T) {
	app := apitest.New(t)
	app.SeedAdmin(t, 1, "admin@example.com", "Admin123")
	ctx := context.Background()

	admin := newClient(t, app.Server.URL)
	_, err := admin.Login(ctx, "admin@example.com", "Admin123")
	require.NoError(t, err)
	created, err := admin.CreateOrder(ctx, client.CreateOrderRequest{
		Grade: "M20", Quantity: 4, DeliveryDate: at(6, 9), Address: "Site 2", UserID: 1,
	})
	require.NoError(t, err)

	plantID, err := admin.CreatePlant(ctx, "Plant A")
	require.NoError(t, err)
	mixerID, err := admin.CreateMixer(ctx, "MH12-TM-01")
	require.NoError(t, err)
	backupID, err := admin.CreateMixer(ctx, "MH12-TM-02")
	require.NoError(t, err)

	mixers, err := admin.Mixers(ctx)
	require.NoError(t, err)
	require.Len(t, mixers, 2)

	assignmentID, err := admin.CreateAssignment(ctx, client.AssignmentRequest{
		OrderID: created.OrderID, PlantID: plantID, MixerID: &mixerID, BackupMixerID: &backupID, DriverName: "Ramesh",
	})
	require.NoError(t, err)

	a, err := admin.AssignmentForOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Equal(t, assignmentID, a.ID)
	require.Equal(t, "MH12-TM-02", a.BackupMixerNumber)
	require.Equal(t, entity.PriorityNormal, a.PriorityLevel)

	_, err = admin.DeleteMixer(ctx, backupID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, "Transit mixer is used by an assignment", apiErr.Message)

	msg, err := admin.UpdateAssignment(ctx, assignmentID, client.AssignmentRequest{PlantID: plantID, MixerID: &mixerID})
	require.NoError(t, err)
	require.Equal(t, "Assignment updated successfully", msg)
	msg, err = admin.DeleteMixer(ctx, backupID)
	require.NoError(t, err)
	require.Equal(t, "Transit mixer deleted successfully", msg)

	msg, err = admin.RenamePlant(ctx, plantID, "Plant North")
	require.NoError(t, err)
	require.Equal(t, "Plant updated successfully", msg)
	plants, err := admin.Plants(ctx)
	require.NoError(t, err)
	require.Equal(t, []entity.Plant{{ID: plantID, PlantName: "Plant North"}}, plants)

	_, err = admin.DeleteAssignment(ctx, assignmentID)
	require.NoError(t, err)
	_, err = admin.DeletePlant(ctx, plantID)
	require.NoError(t, err)
	_, err = admin.AssignmentForOrder(ctx, created.OrderID)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch path.Base(r.URL.Path) {
		case "conflict":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Transit mixer already allocated in this time slot","conflictOrderId":"ORD-1"}`))
		case "text":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		case "empty":
			w.WriteHeader(http.StatusInternalServerError)
		case "garbled":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"orderId":`))
		case "health":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newClient(t, srv.URL)
	var apiErr *client.APIError

	_, err := c.GetOrder(ctx, "conflict")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, "Transit mixer already allocated in this time slot", apiErr.Message)
	require.Equal(t, "ORD-1", apiErr.ConflictOrderID)

	_, err = c.GetOrder(ctx, "text")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "upstream down", apiErr.Message)

	_, err = c.GetOrder(ctx, "empty")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Request failed", apiErr.Message)

	_, err = c.GetOrder(ctx, "garbled")
	require.ErrorIs(t, err, client.ErrInvalidResponse)

	require.True(t, client.IsUnauthorized(c.Health(ctx)))
	c.SetToken("tok")
	require.NoError(t, c.Health(ctx))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	err := c.Health(context.Background())
	var netErr *client.NetworkError
	require.True(t, errors.As(err, &netErr))
	require.False(t, client.IsUnauthorized(err))
}
