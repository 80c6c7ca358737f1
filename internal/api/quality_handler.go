package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/service"
)

type QualityHandler struct {
	qualityService *service.QualityService
}

func NewQualityHandler(qualityService *service.QualityService) *QualityHandler {
	return &QualityHandler{qualityService: qualityService}
}

// MyRecords --> /api/quality/my-orders/:userId
func (h *QualityHandler) MyRecords(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to load quality records")
	}
	records, err := h.qualityService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to load quality records")
	}
	return c.JSON(http.StatusOK, records)
}

// Certificate --> /api/quality/my-orders/:userId/certificates/:orderId
func (h *QualityHandler) Certificate(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to render certificate")
	}
	page, err := h.qualityService.Certificate(c.Request().Context(), userID, c.Param("orderId"))
	if err != nil {
		return respondError(c, err, "Unable to render certificate")
	}
	return c.HTML(http.StatusOK, page)
}
