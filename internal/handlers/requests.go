package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickservice"
)

// validateNameRequest is validate_name's payload.
type validateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ValidateName handles POST /api/v1/pick-requests/validate-name
// @Summary Check a pick request name for syntax and availability
// @Description Normalizes the given name and reports whether it is syntactically valid and not already in use. Does not reserve the name.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body validateNameRequest true "Name to validate"
// @Success 200 {object} pickservice.NameAvailability
// @Router /api/v1/pick-requests/validate-name [post]
func (h *Handlers) ValidateName(c *gin.Context) {
	var req validateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ValidateName(c.Request.Context(), req.Name)
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// createRequestBody is create's payload.
type createRequestBody struct {
	Name     string               `json:"name" binding:"required"`
	Priority models.Priority      `json:"priority"`
	Notes    string               `json:"notes"`
	Items    []createRequestItem  `json:"items" binding:"required,min=1"`
}

type createRequestItem struct {
	UPC         string `json:"upc" binding:"required"`
	ProductName string `json:"product_name" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

// Create handles POST /api/v1/pick-requests
// @Summary Create a pick request
// @Description Creates a request with its items in one transaction. Requires the create capability (requester or admin).
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createRequestBody true "Request to create"
// @Success 201 {object} models.Request
// @Failure 403 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/pick-requests [post]
func (h *Handlers) Create(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}

	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]pickservice.ItemInput, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, pickservice.ItemInput{
			UPC:         it.UPC,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}

	req, err := h.service.CreateRequest(c.Request.Context(), actor, pickservice.CreateInput{
		Name:     body.Name,
		Priority: body.Priority,
		Notes:    body.Notes,
		Items:    items,
	})
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// List handles GET /api/v1/pick-requests
// @Summary List pick requests
// @Description Lists requests, optionally filtered by status, priority, or creator, ordered urgent first then newest first.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param creator_id query string false "Filter by creator id"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/pick-requests [get]
func (h *Handlers) List(c *gin.Context) {
	var in pickservice.ListInput

	if s := c.Query("status"); s != "" {
		status := models.Status(s)
		in.Status = &status
	}
	if p := c.Query("priority"); p != "" {
		priority := models.Priority(p)
		in.Priority = &priority
	}
	if cid := c.Query("creator_id"); cid != "" {
		if id, err := uuid.Parse(cid); err == nil {
			in.CreatorID = &id
		}
	}
	in.Limit = 50
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			in.Limit = v
		}
	}
	if o := c.Query("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			in.Offset = v
		}
	}

	requests, total, err := h.service.ListRequests(c.Request.Context(), in)
	if err != nil {
		writeAppErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        requests,
		"total_count": total,
		"limit":       in.Limit,
		"offset":      in.Offset,
	})
}

// Get handles GET /api/v1/pick-requests/:name
// @Summary Get a pick request by name
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name} [get]
func (h *Handlers) Get(c *gin.Context) {
	req, err := h.service.GetRequest(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Delete handles DELETE /api/v1/pick-requests/:name
// @Summary Delete a pending pick request
// @Description Removes a request outright; only permitted while pending. Anything further along must be cancelled instead.
// @Tags requests
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(c.Request.Context(), actor, c.Param("name")); err != nil {
		writeAppErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Start handles POST /api/v1/pick-requests/:name/start
// @Summary Claim a pending request and begin picking
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name}/start [post]
func (h *Handlers) Start(c *gin.Context) {
	h.runClaimOp(c, h.service.StartPicking)
}

// Pause handles POST /api/v1/pick-requests/:name/pause
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Router /api/v1/pick-requests/{name}/pause [post]
func (h *Handlers) Pause(c *gin.Context) {
	h.runClaimOp(c, h.service.PausePicking)
}

// Resume handles POST /api/v1/pick-requests/:name/resume
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Router /api/v1/pick-requests/{name}/resume [post]
func (h *Handlers) Resume(c *gin.Context) {
	h.runClaimOp(c, h.service.ResumePicking)
}

// Release handles POST /api/v1/pick-requests/:name/release
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Router /api/v1/pick-requests/{name}/release [post]
func (h *Handlers) Release(c *gin.Context) {
	h.runClaimOp(c, h.service.ReleaseClaim)
}

// Cancel handles POST /api/v1/pick-requests/:name/cancel
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Success 200 {object} models.Request
// @Router /api/v1/pick-requests/{name}/cancel [post]
func (h *Handlers) Cancel(c *gin.Context) {
	h.runClaimOp(c, h.service.CancelRequest)
}

// runClaimOp loads the acting principal, invokes op against the path's
// request name, and writes the resulting request or tagged error. start,
// pause, resume, release, and cancel all share exactly this shape.
func (h *Handlers) runClaimOp(c *gin.Context, op func(context.Context, *models.Principal, string) (*models.Request, error)) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}
	req, err := op(c.Request.Context(), actor, c.Param("name"))
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type approveRequestBody struct {
	Notes string `json:"notes"`
}

// Approve handles POST /api/v1/pick-requests/:name/approve
// @Summary Approve a partially completed request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Param body body approveRequestBody false "Optional approval notes"
// @Success 200 {object} models.Request
// @Router /api/v1/pick-requests/{name}/approve [post]
func (h *Handlers) Approve(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}
	var body approveRequestBody
	_ = c.ShouldBindJSON(&body)

	req, err := h.service.ApproveRequest(c.Request.Context(), actor, c.Param("name"), body.Notes)
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type submitRequestBody struct {
	SkipShortageValidation bool `json:"skip_shortage_validation"`
}

// Submit handles POST /api/v1/pick-requests/:name/submit
// @Summary Submit a pick as finished
// @Description Runs the submission resolver: validates shortages unless skipped, chooses completed vs partially_completed, and writes a completion log.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Param body body submitRequestBody false "Submission options"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name}/submit [post]
func (h *Handlers) Submit(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}
	var body submitRequestBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.SubmitRequest(c.Request.Context(), actor, c.Param("name"), body.SkipShortageValidation)
	if err != nil {
		writeAppErr(c, err)
		return
	}

	resp := gin.H{"request": result.Request, "log_path": result.LogPath}
	if result.LogErr != nil {
		resp["log_error"] = result.LogErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}
