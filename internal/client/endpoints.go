package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"rmc-erp/internal/account"
	"rmc-erp/internal/billing"
	"rmc-erp/internal/entity"
)

type messageResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// LoginResponse is the authenticated principal returned by Login.
type LoginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	UserID  int64  `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Number  string `json:"number"`
	Address string `json:"address"`
	Token   string `json:"token"`
}

type Profile struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Number  string `json:"number"`
	Address string `json:"address"`
}

type CreateOrderRequest struct {
	Grade        string           `json:"grade"`
	Quantity     float64          `json:"quantity"`
	DeliveryDate *entity.DateTime `json:"deliveryDate"`
	Address      string           `json:"address"`
	UserID       int64            `json:"userId"`
	TotalPrice   float64          `json:"totalPrice,omitempty"`
}

type CreatedOrder struct {
	Message    string             `json:"message"`
	ID         int64              `json:"id"`
	OrderID    string             `json:"orderId"`
	Grade      string             `json:"grade"`
	Quantity   float64            `json:"quantity"`
	Status     entity.OrderStatus `json:"status"`
	TotalPrice float64            `json:"totalPrice"`
}

type StatusUpdate struct {
	Message   string             `json:"message"`
	OrderID   string             `json:"orderId"`
	NewStatus entity.OrderStatus `json:"newStatus"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

type PaymentResponse struct {
	Message  string               `json:"message"`
	Payment  entity.PaymentRecord `json:"payment"`
	Summary  billing.Summary      `json:"summary"`
	Replayed bool                 `json:"replayed"`
}

func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/users/login", body, &out, nil); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg account.Registration) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/users/register", reg, &out, nil); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

// Logout ends the server session. The local token is dropped even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.call(ctx, http.MethodPost, "/api/users/logout", nil, nil, nil)
}

func (c *Client) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	var out entity.User
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d/profile", id), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id int64, p account.ProfileUpdate) (string, error) {
	var out messageResponse
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d/profile", id), p, &out, nil); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Notifications(ctx context.Context, id int64) ([]entity.OrderEvent, error) {
	var out []entity.OrderEvent
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d/notifications", id), nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	var out CreatedOrder
	if err := c.call(ctx, http.MethodPost, "/api/orders/create", req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context, userID int64) ([]entity.Order, error) {
	return c.orders(ctx, fmt.Sprintf("/api/orders/my-orders/%d", userID))
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	var out entity.Order
	if err := c.call(ctx, http.MethodGet, "/api/orders/orderId/"+url.PathEscape(orderID), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) orders(ctx context.Context, endpoint string) ([]entity.Order, error) {
	var out []entity.Order
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminOrders(ctx context.Context) ([]entity.Order, error) {
	return c.orders(ctx, "/api/admin/orders")
}

func (c *Client) PendingOrders(ctx context.Context) ([]entity.Order, error) {
	return c.orders(ctx, "/api/admin/orders/pending")
}

// ExportOrders downloads the xlsx workbook of all orders.
func (c *Client) ExportOrders(ctx context.Context) ([]byte, error) {
	return c.raw(ctx, http.MethodGet, "/api/admin/orders/export")
}

func orderPath(orderID, suffix string) string {
	return "/api/admin/orders/" + url.PathEscape(orderID) + suffix
}

func (c *Client) UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus) (*StatusUpdate, error) {
	var out StatusUpdate
	endpoint := orderPath(orderID, "/status?status="+url.QueryEscape(string(status)))
	if err := c.call(ctx, http.MethodPut, endpoint, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveOrder returns the server's plain-text confirmation.
func (c *Client) ApproveOrder(ctx context.Context, orderID string) (string, error) {
	body, err := c.raw(ctx, http.MethodPut, orderPath(orderID, "/approve"))
	return string(body), err
}

func (c *Client) RejectOrder(ctx context.Context, orderID string) (string, error) {
	body, err := c.raw(ctx, http.MethodPut, orderPath(orderID, "/reject"))
	return string(body), err
}

func (c *Client) DeleteOrder(ctx context.Context, orderID string) (string, error) {
	var out messageResponse
	if err := c.call(ctx, http.MethodDelete, orderPath(orderID, ""), nil, &out, nil); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) users(ctx context.Context, endpoint string) ([]entity.User, error) {
	var out []entity.User
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]entity.User, error) {
	return c.users(ctx, "/api/admin/users")
}

func (c *Client) PendingAdmins(ctx context.Context) ([]entity.User, error) {
	return c.users(ctx, "/api/admin/admin-logins/pending")
}

func (c *Client) ApproveAdmin(ctx context.Context, userID int64) (string, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/admin/admin-logins/%d/approve", userID), nil)
}

func (c *Client) RejectAdmin(ctx context.Context, userID int64) (string, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/admin/admin-logins/%d/reject", userID), nil)
}

func (c *Client) message(ctx context.Context, method, endpoint string, payload any) (string, error) {
	var out messageResponse
	if err := c.call(ctx, method, endpoint, payload, &out, nil); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ScheduleProduction(ctx context.Context, orderID string, req entity.ProductionSchedule) (string, error) {
	return c.message(ctx, http.MethodPut, orderPath(orderID, "/schedule/production"), req)
}

func (c *Client) ScheduleDispatch(ctx context.Context, orderID string, req entity.DispatchSchedule) (string, error) {
	return c.message(ctx, http.MethodPut, orderPath(orderID, "/schedule/dispatch"), req)
}

func (c *Client) AssignVehicle(ctx context.Context, orderID string, req entity.VehicleSchedule) (string, error) {
	return c.message(ctx, http.MethodPut, orderPath(orderID, "/schedule/vehicle"), req)
}

func (c *Client) Reschedule(ctx context.Context, orderID string, req entity.Reschedule) (string, error) {
	return c.message(ctx, http.MethodPut, orderPath(orderID, "/reschedule"), req)
}

func (c *Client) QualityRecords(ctx context.Context, userID int64) ([]entity.QualityRecord, error) {
	var out []entity.QualityRecord
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/quality/my-orders/%d", userID), nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Certificate downloads the certificate page for a dispatched or delivered order.
func (c *Client) Certificate(ctx context.Context, userID int64, orderID string) (string, error) {
	body, err := c.raw(ctx, http.MethodGet, fmt.Sprintf("/api/quality/my-orders/%d/certificates/%s", userID, url.PathEscape(orderID)))
	return string(body), err
}

func (c *Client) Statements(ctx context.Context, userID int64) ([]billing.Summary, error) {
	var out []billing.Summary
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/billing/my-orders/%d", userID), nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment posts a payment. Retrying with the same idempotencyKey never pays twice.
func (c *Client) RecordPayment(ctx context.Context, userID int64, orderID, idempotencyKey string, req PaymentRequest) (*PaymentResponse, error) {
	var out PaymentResponse
	header := http.Header{}
	header.Set("Idempotent-Key", idempotencyKey)
	endpoint := fmt.Sprintf("/api/billing/my-orders/%d/orders/%s/payments", userID, url.PathEscape(orderID))
	if err := c.call(ctx, http.MethodPost, endpoint, req, &out, header); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Invoice(ctx context.Context, userID int64, orderID string) (string, error) {
	body, err := c.raw(ctx, http.MethodGet, fmt.Sprintf("/api/billing/my-orders/%d/orders/%s/invoice", userID, url.PathEscape(orderID)))
	return string(body), err
}

// ForgotPassword asks the server to email a reset code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/users/forgot-password", map[string]string{"email": email})
}

func (c *Client) VerifyResetOTP(ctx context.Context, email, otp string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/users/verify-reset-otp", map[string]string{"email": email, "otp": otp})
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	body := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	return c.message(ctx, http.MethodPost, "/api/users/reset-password", body)
}

// AssignmentRequest is the admin form for binding an order to a plant and mixers.
type AssignmentRequest struct {
	OrderID          string `json:"orderId"`
	PlantID          int64  `json:"plantId"`
	MixerID          *int64 `json:"mixerId,omitempty"`
	BackupMixerID    *int64 `json:"backupMixerId,omitempty"`
	DriverName       string `json:"driverName,omitempty"`
	BackupDriverName string `json:"backupDriverName,omitempty"`
	PriorityLevel    string `json:"priorityLevel,omitempty"`
	PlantAllocation  string `json:"plantAllocation,omitempty"`
}

func (c *Client) Plants(ctx context.Context) ([]entity.Plant, error) {
	var out []entity.Plant
	if err := c.call(ctx, http.MethodGet, "/api/plants", nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePlant(ctx context.Context, name string) (int64, error) {
	var out struct {
		PlantID int64 `json:"plantId"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/plants", map[string]string{"plantName": name}, &out, nil); err != nil {
		return 0, err
	}
	return out.PlantID, nil
}

func (c *Client) RenamePlant(ctx context.Context, id int64, name string) (string, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/plants/%d", id), map[string]string{"plantName": name})
}

func (c *Client) DeletePlant(ctx context.Context, id int64) (string, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("/api/plants/%d", id), nil)
}

func (c *Client) Mixers(ctx context.Context) ([]entity.TransitMixer, error) {
	var out []entity.TransitMixer
	if err := c.call(ctx, http.MethodGet, "/api/mixers", nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMixer(ctx context.Context, number string) (int64, error) {
	var out struct {
		MixerID int64 `json:"mixerId"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/mixers", map[string]string{"mixerNumber": number}, &out, nil); err != nil {
		return 0, err
	}
	return out.MixerID, nil
}

func (c *Client) DeleteMixer(ctx context.Context, id int64) (string, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("/api/mixers/%d", id), nil)
}

func (c *Client) CreateAssignment(ctx context.Context, req AssignmentRequest) (int64, error) {
	var out struct {
		AssignmentID int64 `json:"assignmentId"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/assignments", req, &out, nil); err != nil {
		return 0, err
	}
	return out.AssignmentID, nil
}

func (c *Client) UpdateAssignment(ctx context.Context, id int64, req AssignmentRequest) (string, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/assignments/%d", id), req)
}

func (c *Client) AssignmentForOrder(ctx context.Context, orderID string) (*entity.Assignment, error) {
	var out entity.Assignment
	if err := c.call(ctx, http.MethodGet, "/api/assignments/order/"+url.PathEscape(orderID), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAssignment(ctx context.Context, id int64) (string, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("/api/assignments/%d", id), nil)
}
