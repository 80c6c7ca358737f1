package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/service"
)

// FleetHandler serves the admin plant, mixer and assignment registries.
type FleetHandler struct {
	fleet *service.FleetService
}

func NewFleetHandler(fleet *service.FleetService) *FleetHandler {
	return &FleetHandler{fleet: fleet}
}

type plantRequest struct {
	PlantName string `json:"plantName"`
}

type mixerRequest struct {
	MixerNumber string `json:"mixerNumber"`
}

// ListPlants --> GET /api/plants
func (h *FleetHandler) ListPlants(c echo.Context) error {
	plants, err := h.fleet.ListPlants(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load plants")
	}
	return c.JSON(http.StatusOK, plants)
}

// GetPlant --> GET /api/plants/:id
func (h *FleetHandler) GetPlant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	plant, err := h.fleet.GetPlant(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load plant")
	}
	return c.JSON(http.StatusOK, plant)
}

// CreatePlant --> POST /api/plants
func (h *FleetHandler) CreatePlant(c echo.Context) error {
	var req plantRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	plant, err := h.fleet.CreatePlant(c.Request().Context(), req.PlantName)
	if err != nil {
		return respondError(c, err, "Unable to create plant")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plant created successfully",
		"plantId": plant.ID,
	})
}

// UpdatePlant --> PUT /api/plants/:id
func (h *FleetHandler) UpdatePlant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	var req plantRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.fleet.RenamePlant(c.Request().Context(), id, req.PlantName); err != nil {
		return respondError(c, err, "Unable to update plant")
	}
	return message(c, http.StatusOK, "Plant updated successfully")
}

// DeletePlant --> DELETE /api/plants/:id
func (h *FleetHandler) DeletePlant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	if err := h.fleet.DeletePlant(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Unable to delete plant")
	}
	return message(c, http.StatusOK, "Plant deleted successfully")
}

// ListMixers --> GET /api/mixers
func (h *FleetHandler) ListMixers(c echo.Context) error {
	mixers, err := h.fleet.ListMixers(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load transit mixers")
	}
	return c.JSON(http.StatusOK, mixers)
}

// GetMixer --> GET /api/mixers/:id
func (h *FleetHandler) GetMixer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	mixer, err := h.fleet.GetMixer(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load transit mixer")
	}
	return c.JSON(http.StatusOK, mixer)
}

// CreateMixer --> POST /api/mixers
func (h *FleetHandler) CreateMixer(c echo.Context) error {
	var req mixerRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	mixer, err := h.fleet.CreateMixer(c.Request().Context(), req.MixerNumber)
	if err != nil {
		return respondError(c, err, "Unable to create transit mixer")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Transit mixer created successfully",
		"mixerId": mixer.ID,
	})
}

// UpdateMixer --> PUT /api/mixers/:id
func (h *FleetHandler) UpdateMixer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	var req mixerRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.fleet.RenameMixer(c.Request().Context(), id, req.MixerNumber); err != nil {
		return respondError(c, err, "Unable to update transit mixer")
	}
	return message(c, http.StatusOK, "Transit mixer updated successfully")
}

// DeleteMixer --> DELETE /api/mixers/:id
func (h *FleetHandler) DeleteMixer(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	if err := h.fleet.DeleteMixer(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Unable to delete transit mixer")
	}
	return message(c, http.StatusOK, "Transit mixer deleted successfully")
}

// ListAssignments --> GET /api/assignments
func (h *FleetHandler) ListAssignments(c echo.Context) error {
	assignments, err := h.fleet.ListAssignments(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Unable to load assignments")
	}
	return c.JSON(http.StatusOK, assignments)
}

// GetAssignment --> GET /api/assignments/:id
func (h *FleetHandler) GetAssignment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	a, err := h.fleet.GetAssignment(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to load assignment")
	}
	return c.JSON(http.StatusOK, a)
}

// AssignmentForOrder --> GET /api/assignments/order/:orderId
func (h *FleetHandler) AssignmentForOrder(c echo.Context) error {
	a, err := h.fleet.AssignmentForOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return respondError(c, err, "Unable to load assignment")
	}
	return c.JSON(http.StatusOK, a)
}

// CreateAssignment --> POST /api/assignments
func (h *FleetHandler) CreateAssignment(c echo.Context) error {
	var req service.AssignmentRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	a, err := h.fleet.CreateAssignment(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Unable to create assignment")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Assignment created successfully",
		"assignmentId": a.ID,
	})
}

// UpdateAssignment --> PUT /api/assignments/:id
func (h *FleetHandler) UpdateAssignment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	var req service.AssignmentRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if _, err := h.fleet.UpdateAssignment(c.Request().Context(), id, req); err != nil {
		return respondError(c, err, "Unable to update assignment")
	}
	return message(c, http.StatusOK, "Assignment updated successfully")
}

// DeleteAssignment --> DELETE /api/assignments/:id
func (h *FleetHandler) DeleteAssignment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "")
	}
	if err := h.fleet.DeleteAssignment(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Unable to delete assignment")
	}
	return message(c, http.StatusOK, "Assignment deleted successfully")
}
