package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/service"
	"rmc-erp/internal/session"
)

// OrderHandler serves the customer order routes.
type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type createOrderRequest struct {
	Grade        string           `json:"grade"`
	Quantity     float64          `json:"quantity"`
	DeliveryDate *entity.DateTime `json:"deliveryDate"`
	Address      string           `json:"address"`
	UserID       int64            `json:"userId"`
	TotalPrice   float64          `json:"totalPrice"`
}

// CreateOrder --> POST /api/orders/create
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid order details")
	}
	if req.UserID != 0 {
		claims, _ := session.ClaimsFrom(c)
		if !session.CanAccessUser(claims, req.UserID) {
			return message(c, http.StatusForbidden, "Access denied")
		}
	}

	// Only admins may override the price; customers are charged the grade rate.
	if roleOf(c) != entity.RoleAdmin {
		req.TotalPrice = 0
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), service.CreateOrderRequest{
		UserID:       req.UserID,
		Grade:        req.Grade,
		Quantity:     req.Quantity,
		DeliveryDate: req.DeliveryDate,
		Address:      req.Address,
		TotalPrice:   req.TotalPrice,
	})
	if err != nil {
		return respondError(c, err, "Unable to create order")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Order created successfully",
		"id":         order.ID,
		"orderId":    order.OrderID,
		"grade":      order.Grade,
		"quantity":   order.Quantity,
		"status":     order.Status,
		"totalPrice": order.TotalPrice,
	})
}

// MyOrders --> /api/orders/my-orders/:userId
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to load orders")
	}
	orders, err := h.orderService.ListOrdersByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to load orders")
	}
	return c.JSON(http.StatusOK, newOrderViews(orders))
}

// GetOrder --> /api/orders/orderId/:orderId. Orders of other customers read as missing.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderService.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err == nil {
		claims, _ := session.ClaimsFrom(c)
		if !session.CanAccessUser(claims, order.UserID) {
			err = apperr.ErrOrderNotFound
		}
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return message(c, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return respondError(c, err, "Unable to load order")
	}
	return c.JSON(http.StatusOK, NewOrderView(*order))
}
