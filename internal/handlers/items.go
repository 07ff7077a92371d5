package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickservice"
)

// updateItemBody is update_item's payload; exactly one of Absolute or
// Increment must be set (mirrors pickservice.QuantityUpdate).
type updateItemBody struct {
	Absolute  *int `json:"absolute"`
	Increment *int `json:"increment"`
}

// UpdateItem handles PATCH /api/v1/pick-requests/:name/items/:upc
// @Summary Update one item's picked quantity
// @Description Applies an absolute or incremental change to picked_qty. Fails QUANTITY_EXCEEDED if the result would exceed requested_qty.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Param upc path string true "Item UPC"
// @Param body body updateItemBody true "Quantity change"
// @Success 200 {object} models.Request
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name}/items/{upc} [patch]
func (h *Handlers) UpdateItem(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}

	var body updateItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.service.UpdateItemQuantity(c.Request.Context(), actor, c.Param("name"), c.Param("upc"), pickservice.QuantityUpdate{
		Absolute:  body.Absolute,
		Increment: body.Increment,
	})
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// setItemShortageBody is set_item_shortage's payload.
type setItemShortageBody struct {
	Reason models.ShortageReason `json:"reason" binding:"required"`
	Notes  string                `json:"notes"`
}

// SetItemShortage handles POST /api/v1/pick-requests/:name/items/:upc/shortage
// @Summary Annotate an item with a shortage reason
// @Description Last-write-wins per (request, upc). "other" requires non-empty notes.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Request name"
// @Param upc path string true "Item UPC"
// @Param body body setItemShortageBody true "Shortage annotation"
// @Success 200 {object} models.Request
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/pick-requests/{name}/items/{upc}/shortage [post]
func (h *Handlers) SetItemShortage(c *gin.Context) {
	actor, ok := h.currentPrincipal(c)
	if !ok {
		return
	}

	var body setItemShortageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidShortageReason(body.Reason) {
		writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid shortage reason"))
		return
	}

	req, err := h.service.SetItemShortage(c.Request.Context(), actor, c.Param("name"), c.Param("upc"), body.Reason, body.Notes)
	if err != nil {
		writeAppErr(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
