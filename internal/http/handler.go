package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/service"
)

const maxImageBytes = 10 << 20

type Handler struct {
	complaintService  *service.ComplaintService
	assignmentService *service.AssignmentService
	departmentService *service.DepartmentService
	workerService     *service.WorkerService
	analyticsService  *service.AnalyticsService
	log               zerolog.Logger
}

func NewHandler(
	complaintService *service.ComplaintService,
	assignmentService *service.AssignmentService,
	departmentService *service.DepartmentService,
	workerService *service.WorkerService,
	analyticsService *service.AnalyticsService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaintService:  complaintService,
		assignmentService: assignmentService,
		departmentService: departmentService,
		workerService:     workerService,
		analyticsService:  analyticsService,
		log:               log,
	}
}

// Register mounts the API. Role checks live in the services, so routes are not grouped by role.
func (h *Handler) Register(r *gin.Engine, authMiddleware, submissionLimit gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	complaints := protected.Group("/complaints")
	{
		complaints.POST("", submissionLimit, h.createComplaint)
		complaints.POST("/classify", h.classifyImage)
		complaints.GET("", h.listComplaints)
		complaints.GET("/:id", h.getComplaint)
		complaints.PATCH("/:id", h.patchComplaint)
		complaints.GET("/:id/history", h.complaintHistory)
		complaints.POST("/:id/assign", h.assignWorker)
		complaints.GET("/:id/assignments", h.listAssignments)
		complaints.POST("/:id/complete", h.completeComplaint)
		complaints.POST("/:id/rating", h.rateComplaint)
	}

	analytics := protected.Group("/analytics")
	{
		analytics.GET("/dashboard", h.dashboard)
		analytics.GET("/departments", h.departmentStats)
		analytics.GET("/workers", h.workerStats)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", h.listDepartments)
		departments.POST("", h.createDepartment)
		departments.PUT("/:id", h.updateDepartment)
	}

	workers := protected.Group("/workers")
	{
		workers.GET("", h.listWorkers)
		workers.POST("", h.registerWorker)
		workers.PUT("/me/availability", h.updateAvailability)
	}
}

func (h *Handler) createComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Categories []string `json:"categories"`
		Note       string   `json:"note"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		Ward       string   `json:"ward"`
		ImageURL   string   `json:"image_url"`
		Priority   string   `json:"priority"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Create(c.Request.Context(), principal, service.CreateComplaintInput{
		Categories: req.Categories,
		Note:       req.Note,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Ward:       req.Ward,
		ImageURL:   req.ImageURL,
		Priority:   req.Priority,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) classifyImage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("image file is required"))
		return
	}
	if header.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("image is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read image"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read image"))
		return
	}

	categories, err := h.complaintService.SuggestCategories(c.Request.Context(), principal, image, header.Filename)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"categories": categories}))
}

func (h *Handler) listComplaints(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	complaints, err := h.complaintService.List(c.Request.Context(), principal, service.ListComplaintsInput{
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaints))
}

func (h *Handler) getComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	complaint, err := h.complaintService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) patchComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status   *string `json:"status"`
		Priority *string `json:"priority"`
		Notes    *string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Patch(c.Request.Context(), principal, id, service.PatchComplaintInput{
		Status:   req.Status,
		Priority: req.Priority,
		Notes:    req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) complaintHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	history, err := h.complaintService.History(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}

func (h *Handler) assignWorker(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		WorkerID            string  `json:"worker_id" binding:"required"`
		DepartmentID        *string `json:"department_id"`
		EstimatedCompletion *string `json:"estimated_completion"`
		Notes               *string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.AssignWorkerInput{
		WorkerID:     req.WorkerID,
		DepartmentID: req.DepartmentID,
		Notes:        req.Notes,
	}
	if req.EstimatedCompletion != nil && strings.TrimSpace(*req.EstimatedCompletion) != "" {
		eta, err := parseTime(*req.EstimatedCompletion)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid estimated_completion"))
			return
		}
		input.EstimatedCompletion = &eta
	}

	complaint, err := h.assignmentService.Assign(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) listAssignments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListAssignments(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignments))
}

func (h *Handler) completeComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		CompletionImageURL string  `json:"completion_image_url"`
		Notes              *string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Complete(c.Request.Context(), principal, id, service.CompleteComplaintInput{
		EvidenceURL: req.CompletionImageURL,
		Notes:       req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) rateComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Rating   int     `json:"rating" binding:"required"`
		Feedback *string `json:"feedback"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Rate(c.Request.Context(), principal, id, service.RateComplaintInput{
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Sprintf("invalid id %q", c.Param("id"))))
		return uuid.Nil, false
	}
	return id, true
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
