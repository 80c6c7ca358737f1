package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/account"
	"rmc-erp/internal/events"
	"rmc-erp/internal/service"
	"rmc-erp/internal/session"
)

type UserHandler struct {
	userService   *service.UserService
	notifications *events.NotificationStore
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService, notifications *events.NotificationStore) *UserHandler {
	return &UserHandler{userService: userService, notifications: notifications}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string  `json:"message"`
	Role    string  `json:"role"`
	UserID  int64   `json:"userId"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Number  *string `json:"number"`
	Address *string `json:"address"`
	Token   string  `json:"token"`
}

// Login logs in a user --> /api/users/login
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	res, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Role:    session.NormalizeRole(res.User.Role),
		UserID:  res.User.ID,
		Name:    res.User.Name,
		Email:   res.User.Email,
		Number:  optional(res.User.Number),
		Address: optional(res.User.Address),
		Token:   res.Token,
	})
}

// Register creates a new account --> /api/users/register
func (h *UserHandler) Register(c echo.Context) error {
	var reg account.Registration
	if err := c.Bind(&reg); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	user, err := h.userService.Register(c.Request().Context(), reg)
	if err != nil {
		return respondError(c, err, "Registration failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// Logout ends the caller's session --> /api/users/logout
func (h *UserHandler) Logout(c echo.Context) error {
	claims, ok := session.ClaimsFrom(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Unauthorized")
	}
	if err := h.userService.Logout(c.Request().Context(), claims.UserID); err != nil {
		return respondError(c, err, "Logout failed")
	}
	return message(c, http.StatusOK, "Logged out successfully")
}

// GetUser retrieves a user by ID --> /api/users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := ownerID(c, "id")
	if err != nil {
		return respondError(c, err, "Unable to load user")
	}
	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load user")
	}
	return c.JSON(http.StatusOK, NewUserView(*user))
}

type profileView struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Number  *string `json:"number"`
	Address *string `json:"address"`
}

// GetProfile --> /api/users/:id/profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	id, err := ownerID(c, "id")
	if err != nil {
		return respondError(c, err, "Unable to load profile")
	}
	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load profile")
	}
	return c.JSON(http.StatusOK, profileView{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Number:  optional(user.Number),
		Address: optional(user.Address),
	})
}

// UpdateProfile --> PUT /api/users/:id/profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := ownerID(c, "id")
	if err != nil {
		return respondError(c, err, "Unable to update profile")
	}
	var req account.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.userService.UpdateProfile(c.Request().Context(), id, req); err != nil {
		return respondError(c, err, "Unable to update profile")
	}
	return message(c, http.StatusOK, "Profile updated successfully")
}

// Notifications returns the latest lifecycle notifications --> /api/users/:id/notifications
func (h *UserHandler) Notifications(c echo.Context) error {
	id, err := ownerID(c, "id")
	if err != nil {
		return respondError(c, err, "Unable to load notifications")
	}
	feed, err := h.notifications.List(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load notifications")
	}
	return c.JSON(http.StatusOK, feed)
}
