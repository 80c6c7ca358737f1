package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/quality"
	"rmc-erp/internal/service"
	"rmc-erp/internal/session"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"message": msg})
}

// respondError maps a service error onto a status code and a {"message"} body.
// Unexpected errors are logged and reported with fallback.
func respondError(c echo.Context, err error, fallback string) error {
	var (
		validation *apperr.ValidationError
		authz      *apperr.AuthorizationError
		transition *apperr.InvalidTransitionError
		conflict   *apperr.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return message(c, http.StatusBadRequest, validation.Message)
	case errors.As(err, &authz):
		return message(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrApprovalPending):
		return message(c, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return message(c, http.StatusNotFound, apperr.Message(err, "Not found"))
	case errors.As(err, &transition):
		return message(c, http.StatusConflict, transition.Error())
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, map[string]string{
			"message":         conflict.Message,
			"conflictOrderId": conflict.ConflictOrderID,
		})
	case errors.Is(err, quality.ErrCertificateUnavailable):
		return message(c, http.StatusConflict, err.Error())
	}
	logger.Error().Err(err).Msgf("%s %s failed", c.Request().Method, c.Path())
	return message(c, http.StatusInternalServerError, fallback)
}

func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid ID")
	}
	return id, nil
}

// ownerID parses the user id path parameter and checks the caller may act for it.
func ownerID(c echo.Context, name string) (int64, error) {
	id, err := parseID(c, name)
	if err != nil {
		return 0, err
	}
	claims, _ := session.ClaimsFrom(c)
	if !session.CanAccessUser(claims, id) {
		return 0, &apperr.AuthorizationError{Role: roleOf(c), Required: "OWNER"}
	}
	return id, nil
}

func roleOf(c echo.Context) string {
	claims, ok := session.ClaimsFrom(c)
	if !ok {
		return ""
	}
	return session.NormalizeRole(claims.Role)
}
