// Package handler provides HTTP handlers for the triage service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/biz"
)

// assessTimeout bounds one full pipeline run, including the model calls.
const assessTimeout = 60 * time.Second

// TriageHandler handles triage HTTP requests.
type TriageHandler struct {
	service biz.TriageService
}

// NewTriageHandler creates a new TriageHandler.
func NewTriageHandler(service biz.TriageService) *TriageHandler {
	return &TriageHandler{service: service}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Assess runs the full triage pipeline.
func (h *TriageHandler) Assess(c *gin.Context) {
	var req model.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), assessTimeout)
	defer cancel()

	resp, err := h.service.Assess(ctx, &req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{
				Code:    408,
				Message: "Assessment timeout: the request took too long to process. Please try again.",
			})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: 422, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: resp})
}

// Extract runs only the symptom extraction stage.
func (h *TriageHandler) Extract(c *gin.Context) {
	var req model.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	result, err := h.service.Extract(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: 422, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// Stats returns pipeline metrics and cache state.
func (h *TriageHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "success",
		Data:    h.service.Stats(c.Request.Context()),
	})
}

// Healthz reports liveness.
func (h *TriageHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
