package handler

import (
	"net/http"

	"casetrack/internal/model"
	"casetrack/internal/service"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// Handles POST /cases/:ref/feedback - records the reporter's rating for a
// completed case.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	identity := identityFrom(c)

	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb, err := h.feedbackService.Submit(c.Param("ref"), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Feedback recorded",
		"feedback": fb,
	})
}

// Handles GET /cases/:ref/feedback.
func (h *FeedbackHandler) Get(c *gin.Context) {
	fb, err := h.feedbackService.ForCase(c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fb)
}
