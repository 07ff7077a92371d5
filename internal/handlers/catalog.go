package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pickcoordinator/internal/apperr"
)

// requireCatalog reports CATALOG_NOT_LOADED if no product catalog was
// configured at startup, otherwise returns it ready to query.
func (h *Handlers) requireCatalog(c *gin.Context) bool {
	if h.catalog == nil {
		writeAppErr(c, apperr.New(apperr.CodeCatalogNotLoaded, "product catalog is not loaded"))
		return false
	}
	return true
}

// LookupUPC handles GET /api/v1/catalog/upc/:upc
// @Summary Look up a product by exact UPC
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param upc path string true "Product UPC"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/catalog/upc/{upc} [get]
func (h *Handlers) LookupUPC(c *gin.Context) {
	if !h.requireCatalog(c) {
		return
	}
	product, ok := h.catalog.FindByUPC(c.Param("upc"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no product with that UPC"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// Search handles GET /api/v1/catalog/search
// @Summary Search the product catalog by name substring
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/catalog/search [get]
func (h *Handlers) Search(c *gin.Context) {
	if !h.requireCatalog(c) {
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	results := h.catalog.Search(c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{"data": results})
}
