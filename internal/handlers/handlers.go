// Package handlers implements the HTTP surface of the pick-request
// coordinator: the request lifecycle verbs (validate-name, create, list,
// get, delete, start, pause, resume, release, cancel, approve,
// update-item, set-item-shortage, submit) plus read-only catalog lookup.
// Principal authentication and role gating live in internal/auth;
// handlers here only load the acting Principal and call into
// internal/pickservice, translating its tagged errors to HTTP responses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/catalog"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickservice"
	"pickcoordinator/internal/repository"
)

// Handlers implements the pick-request REST surface.
type Handlers struct {
	service    *pickservice.Service
	principals repository.PrincipalRepository
	catalog    *catalog.Catalog
}

// New builds Handlers. catalog may be nil, in which case the catalog
// lookup endpoints report CATALOG_NOT_LOADED.
func New(service *pickservice.Service, principals repository.PrincipalRepository, cat *catalog.Catalog) *Handlers {
	return &Handlers{service: service, principals: principals, catalog: cat}
}

// currentPrincipal loads the full Principal row for the authenticated
// caller; pickservice methods need the row (role, active flag), not just
// the token's claims.
func (h *Handlers) currentPrincipal(c *gin.Context) (*models.Principal, bool) {
	claims, ok := auth.GetCurrentUser(c)
	if !ok {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "authentication required"))
		return nil, false
	}
	id, err := uuid.Parse(claims.PrincipalID)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeTokenInvalid, "invalid token subject"))
		return nil, false
	}
	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return nil, false
	}
	return principal, true
}

// writeAppErr maps a tagged *apperr.Error to its HTTP status and JSON body.
func writeAppErr(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.CodeInternalError, "message": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Code {
	case apperr.CodeInvalidCredentials, apperr.CodeTokenExpired, apperr.CodeTokenInvalid:
		status = http.StatusUnauthorized
	case apperr.CodeAccountDisabled, apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeUserNotFound, apperr.CodeRequestNotFound:
		status = http.StatusNotFound
	case apperr.CodeUsernameExists, apperr.CodeRequestNameExists, apperr.CodeRequestLocked:
		status = http.StatusConflict
	case apperr.CodeInvalidStatus, apperr.CodeQuantityExceeded, apperr.CodeInvalidRequestName,
		apperr.CodeValidationError, apperr.CodeCatalogNotLoaded:
		status = http.StatusUnprocessableEntity
	}

	body := gin.H{"error": ae.Code, "message": ae.Message}
	if ae.Details != nil {
		body["details"] = ae.Details
	}
	c.JSON(status, body)
}
