package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handlers groups the route handlers mounted by RegisterRoutes.
type Handlers struct {
	Users     *UserHandler
	Orders    *OrderHandler
	Admin     *AdminHandler
	Billing   *BillingHandler
	Quality   *QualityHandler
	Passwords *PasswordHandler
	Fleet     *FleetHandler
}

// Health reports liveness --> /api/health
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "rmc-erp",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// RegisterRoutes mounts every endpoint on e. Authentication and role checks are
// installed by the caller as middleware.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/api/health", Health)

	users := e.Group("/api/users")
	users.POST("/login", h.Users.Login)
	users.POST("/register", h.Users.Register)
	users.POST("/forgot-password", h.Passwords.ForgotPassword)
	users.POST("/verify-reset-otp", h.Passwords.VerifyResetOTP)
	users.POST("/reset-password", h.Passwords.ResetPassword)
	users.POST("/logout", h.Users.Logout)
	users.GET("/:id", h.Users.GetUser)
	users.GET("/:id/profile", h.Users.GetProfile)
	users.PUT("/:id/profile", h.Users.UpdateProfile)
	users.GET("/:id/notifications", h.Users.Notifications)

	orders := e.Group("/api/orders")
	orders.POST("/create", h.Orders.CreateOrder)
	orders.GET("/my-orders/:userId", h.Orders.MyOrders)
	orders.GET("/orderId/:orderId", h.Orders.GetOrder)

	admin := e.Group("/api/admin")
	admin.GET("/orders", h.Admin.ListOrders)
	admin.GET("/orders/pending", h.Admin.PendingOrders)
	admin.GET("/orders/export", h.Admin.ExportOrders)
	admin.PUT("/orders/:orderId/status", h.Admin.UpdateStatus)
	admin.PUT("/orders/:orderId/approve", h.Admin.Approve)
	admin.PUT("/orders/:orderId/reject", h.Admin.Reject)
	admin.DELETE("/orders/:orderId", h.Admin.DeleteOrder)
	admin.PUT("/orders/:orderId/schedule/production", h.Admin.ScheduleProduction)
	admin.PUT("/orders/:orderId/schedule/dispatch", h.Admin.ScheduleDispatch)
	admin.PUT("/orders/:orderId/schedule/vehicle", h.Admin.AssignVehicle)
	admin.PUT("/orders/:orderId/reschedule", h.Admin.Reschedule)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/admin-logins/pending", h.Admin.PendingAdmins)
	admin.PUT("/admin-logins/:userId/approve", h.Admin.ApproveAdmin)
	admin.PUT("/admin-logins/:userId/reject", h.Admin.RejectAdmin)

	quality := e.Group("/api/quality")
	quality.GET("/my-orders/:userId", h.Quality.MyRecords)
	quality.GET("/my-orders/:userId/certificates/:orderId", h.Quality.Certificate)

	billing := e.Group("/api/billing")
	billing.GET("/my-orders/:userId", h.Billing.Statements)
	billing.POST("/my-orders/:userId/orders/:orderId/payments", h.Billing.RecordPayment)
	billing.GET("/my-orders/:userId/orders/:orderId/invoice", h.Billing.Invoice)

	plants := e.Group("/api/plants")
	plants.GET("", h.Fleet.ListPlants)
	plants.POST("", h.Fleet.CreatePlant)
	plants.GET("/:id", h.Fleet.GetPlant)
	plants.PUT("/:id", h.Fleet.UpdatePlant)
	plants.DELETE("/:id", h.Fleet.DeletePlant)

	mixers := e.Group("/api/mixers")
	mixers.GET("", h.Fleet.ListMixers)
	mixers.POST("", h.Fleet.CreateMixer)
	mixers.GET("/:id", h.Fleet.GetMixer)
	mixers.PUT("/:id", h.Fleet.UpdateMixer)
	mixers.DELETE("/:id", h.Fleet.DeleteMixer)

	assignments := e.Group("/api/assignments")
	assignments.GET("", h.Fleet.ListAssignments)
	assignments.POST("", h.Fleet.CreateAssignment)
	assignments.GET("/order/:orderId", h.Fleet.AssignmentForOrder)
	assignments.GET("/:id", h.Fleet.GetAssignment)
	assignments.PUT("/:id", h.Fleet.UpdateAssignment)
	assignments.DELETE("/:id", h.Fleet.DeleteAssignment)
}
