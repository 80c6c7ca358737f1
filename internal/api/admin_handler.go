package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/export"
	"rmc-erp/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves /api/admin. Route access is already limited to admins.
type AdminHandler struct {
	orderService *service.OrderService
	userService  *service.UserService
}

func NewAdminHandler(orderService *service.OrderService, userService *service.UserService) *AdminHandler {
	return &AdminHandler{orderService: orderService, userService: userService}
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load orders")
	}
	return c.JSON(http.StatusOK, newOrderViews(orders))
}

func (h *AdminHandler) PendingOrders(c echo.Context) error {
	orders, err := h.orderService.ListPendingOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load orders")
	}
	return c.JSON(http.StatusOK, newOrderViews(orders))
}

// ExportOrders streams every order as an xlsx workbook.
func (h *AdminHandler) ExportOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to export orders")
	}
	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		return respondError(c, err, "Unable to export orders")
	}
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateStatus --> PUT /api/admin/orders/:orderId/status?status=X
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	orderID := c.Param("orderId")
	order, err := h.orderService.UpdateStatus(c.Request().Context(), orderID, c.QueryParam("status"), roleOf(c))
	if err != nil {
		return respondError(c, err, "Unable to update status")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Order status updated successfully",
		"orderId":   order.OrderID,
		"newStatus": order.Status,
	})
}

func (h *AdminHandler) Approve(c echo.Context) error {
	if _, err := h.orderService.Approve(c.Request().Context(), c.Param("orderId"), roleOf(c)); err != nil {
		return respondError(c, err, "Unable to approve order")
	}
	return c.String(http.StatusOK, "Order Approved")
}

func (h *AdminHandler) Reject(c echo.Context) error {
	if _, err := h.orderService.Reject(c.Request().Context(), c.Param("orderId"), roleOf(c)); err != nil {
		return respondError(c, err, "Unable to reject order")
	}
	return c.String(http.StatusOK, "Order Rejected")
}

func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	orderID := c.Param("orderId")
	err := h.orderService.DeleteOrder(c.Request().Context(), orderID, roleOf(c))
	if errors.Is(err, apperr.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Order not found", "orderId": orderID})
	}
	if err != nil {
		return respondError(c, err, "Unable to delete order")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Order deleted successfully", "orderId": orderID})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load users")
	}
	return c.JSON(http.StatusOK, newUserViews(users))
}

func (h *AdminHandler) PendingAdmins(c echo.Context) error {
	users, err := h.userService.ListPendingAdmins(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load admin requests")
	}
	return c.JSON(http.StatusOK, newUserViews(users))
}

func (h *AdminHandler) ApproveAdmin(c echo.Context) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to approve admin")
	}
	if err := h.userService.ApproveAdmin(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Unable to approve admin")
	}
	return message(c, http.StatusOK, "Admin approved successfully")
}

func (h *AdminHandler) RejectAdmin(c echo.Context) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to reject admin")
	}
	if err := h.userService.RejectAdmin(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Unable to reject admin")
	}
	return message(c, http.StatusOK, "Admin rejected successfully")
}

func scheduled(c echo.Context, order *entity.Order, msg string) error {
	return c.JSON(http.StatusOK, map[string]string{"message": msg, "orderId": order.OrderID})
}

func (h *AdminHandler) ScheduleProduction(c echo.Context) error {
	var req entity.ProductionSchedule
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	order, err := h.orderService.ScheduleProduction(c.Request().Context(), c.Param("orderId"), req, roleOf(c))
	if err != nil {
		return respondError(c, err, "Unable to schedule production")
	}
	return scheduled(c, order, service.MsgProductionScheduled)
}

func (h *AdminHandler) ScheduleDispatch(c echo.Context) error {
	var req entity.DispatchSchedule
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	order, err := h.orderService.ScheduleDispatch(c.Request().Context(), c.Param("orderId"), req, roleOf(c))
	if err != nil {
		return respondError(c, err, "Unable to schedule dispatch")
	}
	return scheduled(c, order, service.MsgDispatchScheduled)
}

func (h *AdminHandler) AssignVehicle(c echo.Context) error {
	var req entity.VehicleSchedule
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	order, err := h.orderService.AssignVehicle(c.Request().Context(), c.Param("orderId"), req, roleOf(c))
	if err != nil {
		return respondError(c, err, "Unable to assign vehicle")
	}
	return scheduled(c, order, service.MsgVehicleAssigned)
}

func (h *AdminHandler) Reschedule(c echo.Context) error {
	var req entity.Reschedule
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	order, err := h.orderService.Reschedule(c.Request().Context(), c.Param("orderId"), req, roleOf(c))
	if err != nil {
		return respondError(c, err, "Unable to reschedule order")
	}
	return scheduled(c, order, service.MsgRescheduled)
}
