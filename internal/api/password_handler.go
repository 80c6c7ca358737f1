package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/service"
)

// PasswordHandler serves the public forgotten-password routes.
type PasswordHandler struct {
	resets *service.PasswordResetService
}

func NewPasswordHandler(resets *service.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resets: resets}
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword --> POST /api/users/forgot-password
func (h *PasswordHandler) ForgotPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.resets.RequestReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err, "Unable to send verification code")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Verification code sent to your email",
		"email":   req.Email,
	})
}

// VerifyResetOTP --> POST /api/users/verify-reset-otp
func (h *PasswordHandler) VerifyResetOTP(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.resets.VerifyCode(c.Request().Context(), req.Email, req.OTP); err != nil {
		return respondError(c, err, "Unable to verify code")
	}
	return message(c, http.StatusOK, "Code verified")
}

// ResetPassword --> POST /api/users/reset-password
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.resets.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return respondError(c, err, "Unable to reset password")
	}
	return message(c, http.StatusOK, "Password updated successfully")
}
