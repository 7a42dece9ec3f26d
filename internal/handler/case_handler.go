package handler

import (
	"net/http"

	"casetrack/internal/model"
	"casetrack/internal/service"

	"github.com/gin-gonic/gin"
)

type CaseHandler struct {
	caseService *service.CaseService
}

func NewCaseHandler(caseService *service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// Handles POST /cases - submits a new case (or saves a draft).
func (h *CaseHandler) Create(c *gin.Context) {
	identity := identityFrom(c)
	if identity.Role != model.RoleCitizen {
		c.JSON(http.StatusForbidden, gin.H{"error": "only citizens can report cases"})
		return
	}

	var req model.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.caseService.Submit(&req, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Case submitted successfully",
		"case":    created,
	})
}

// Handles GET /cases - lists cases with optional filters, newest first.
func (h *CaseHandler) List(c *gin.Context) {
	filter := model.CaseFilter{
		Query:     c.Query("q"),
		EventType: c.Query("event_type"),
		Status:    model.CaseStatus(c.Query("status")),
	}

	response, err := h.caseService.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Handles GET /cases/my - lists the caller's own cases.
func (h *CaseHandler) ListMine(c *gin.Context) {
	identity := identityFrom(c)

	response, err := h.caseService.ListMine(identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Handles GET /cases/:ref - returns a case with its assignment history.
func (h *CaseHandler) Get(c *gin.Context) {
	found, err := h.caseService.Get(c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	assignments, err := h.caseService.Assignments(c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"case":        found,
		"assignments": assignments,
	})
}

// Handles PUT /cases/:ref - edits citizen-mutable fields (owner only,
// before the case is taken into processing).
func (h *CaseHandler) Update(c *gin.Context) {
	identity := identityFrom(c)

	var req model.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.caseService.Edit(c.Param("ref"), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Case updated successfully",
		"case":    updated,
	})
}

// Handles POST /cases/:ref/transition - applies one lifecycle event.
func (h *CaseHandler) Transition(c *gin.Context) {
	identity := identityFrom(c)

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.caseService.Transition(c.Param("ref"), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Case updated successfully",
		"case":    updated,
	})
}

func (h *CaseHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
