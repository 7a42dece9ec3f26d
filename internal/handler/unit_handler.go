package handler

import (
	"net/http"

	"casetrack/internal/model"
	"casetrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UnitHandler struct {
	unitService *service.UnitService
}

func NewUnitHandler(unitService *service.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// Handles POST /units - registers a responder unit (admin only).
func (h *UnitHandler) Create(c *gin.Context) {
	identity := identityFrom(c)

	var req model.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.unitService.Create(identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Unit created successfully",
		"unit":    unit,
	})
}

// Handles GET /units.
func (h *UnitHandler) List(c *gin.Context) {
	units, err := h.unitService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"units": units})
}

// Handles PATCH /units/:id/deactivate - soft-disables a unit (admin only).
// Cases already assigned keep their reference.
func (h *UnitHandler) Deactivate(c *gin.Context) {
	identity := identityFrom(c)

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit id"})
		return
	}

	if err := h.unitService.Deactivate(identity, unitID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unit deactivated"})
}
