package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/application/service"
	"github.com/advisornet/reportd/internal/domain/entity"
)

// actorHeader carries the UUID of the acting person. Authentication itself
// sits in front of this service; the header is trusted.
const actorHeader = "X-Person-UUID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	reportService service.ReportService
	people        port.PersonRepository
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(reportService service.ReportService, people port.PersonRepository, logger Logger) *Handlers {
	return &Handlers{
		reportService: reportService,
		people:        people,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CommentRequest carries the comment text for approve, reject and comment
// endpoints.
type CommentRequest struct {
	Text string `json:"text"`
}

// ListReportsRequest represents query parameters for listing reports
type ListReportsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var report entity.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		h.logger.Error("Invalid report payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid report payload"})
		return
	}

	created, err := h.reportService.Create(c.Request.Context(), actor, &report)
	if err != nil {
		h.fail(c, err, "failed to create report")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	var req ListReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	reports, err := h.reportService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err, "failed to list reports")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// GetReport handles GET /api/reports/:uuid
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.reportService.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		h.fail(c, err, "failed to get report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// EditReport handles PUT /api/reports/:uuid
func (h *Handlers) EditReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var report entity.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		h.logger.Error("Invalid report payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid report payload"})
		return
	}
	report.UUID = c.Param("uuid")

	if _, err := h.reportService.Edit(c.Request.Context(), actor, &report); err != nil {
		h.fail(c, err, "failed to edit report")
		return
	}

	updated, err := h.reportService.Get(c.Request.Context(), report.UUID)
	if err != nil {
		h.fail(c, err, "failed to get report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// DeleteReport handles DELETE /api/reports/:uuid
func (h *Handlers) DeleteReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), actor, c.Param("uuid")); err != nil {
		h.fail(c, err, "failed to delete report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// SubmitReport handles POST /api/reports/:uuid/submit
func (h *Handlers) SubmitReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	report, err := h.reportService.Submit(c.Request.Context(), actor, c.Param("uuid"))
	if err != nil {
		h.fail(c, err, "failed to submit report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// ApproveReport handles POST /api/reports/:uuid/approve
func (h *Handlers) ApproveReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CommentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("Invalid approve payload", "error", err)
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid payload"})
			return
		}
	}

	report, err := h.reportService.Approve(c.Request.Context(), actor, c.Param("uuid"), req.Text)
	if err != nil {
		h.fail(c, err, "failed to approve report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// RejectReport handles POST /api/reports/:uuid/reject
func (h *Handlers) RejectReport(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid reject payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid payload"})
		return
	}

	report, err := h.reportService.Reject(c.Request.Context(), actor, c.Param("uuid"), req.Text)
	if err != nil {
		h.fail(c, err, "failed to reject report")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// AddComment handles POST /api/reports/:uuid/comments
func (h *Handlers) AddComment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid comment payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid payload"})
		return
	}

	comment, err := h.reportService.AddComment(c.Request.Context(), actor, c.Param("uuid"), req.Text)
	if err != nil {
		h.fail(c, err, "failed to add comment")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: comment})
}

// ListComments handles GET /api/reports/:uuid/comments
func (h *Handlers) ListComments(c *gin.Context) {
	comments, err := h.reportService.ListComments(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		h.fail(c, err, "failed to list comments")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: comments})
}

// DeleteComment handles DELETE /api/comments/:uuid
func (h *Handlers) DeleteComment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.reportService.DeleteComment(c.Request.Context(), actor, c.Param("uuid")); err != nil {
		h.fail(c, err, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// actor resolves the acting person from the request header. Writes the error
// response itself when resolution fails.
func (h *Handlers) actor(c *gin.Context) (*entity.Person, bool) {
	uuid := c.GetHeader(actorHeader)
	if uuid == "" {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing " + actorHeader + " header"})
		return nil, false
	}

	person, err := h.people.GetByUUID(c.Request.Context(), uuid)
	if err != nil {
		h.logger.Error("Failed to resolve acting person", "person_uuid", uuid, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to resolve acting person"})
		return nil, false
	}
	if person == nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "unknown person"})
		return nil, false
	}
	return person, true
}

// fail translates service errors into HTTP status codes
func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotPending), errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidEngagementDate),
		errors.Is(err, service.ErrMissingPrimaryAttendee),
		errors.Is(err, service.ErrNoApprovalChain):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
