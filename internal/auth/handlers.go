package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/repository"
)

// LoginRequest is the bearer-token issuance request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access/refresh tokens and the principal.
type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Principal    PrincipalResponse `json:"principal"`
}

// RefreshRequest rotates a refresh token for a new access/refresh pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PrincipalResponse is a Principal rendered for API responses (never
// carries PasswordHash).
type PrincipalResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toPrincipalResponse(p *models.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:        p.ID.String(),
		Username:  p.Username,
		Role:      p.Role,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CreatePrincipalRequest is the admin-only principal-creation payload.
type CreatePrincipalRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required"`
}

// UpdatePrincipalRequest is the admin-only principal-update payload; zero
// values leave the corresponding field unchanged, Active is a pointer so
// that explicitly deactivating a principal is distinguishable from omission.
type UpdatePrincipalRequest struct {
	Role   models.Role `json:"role"`
	Active *bool       `json:"active"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Handlers implements the authentication and principal-management REST
// surface (login/refresh/me/change-password, plus admin-only principal CRUD).
type Handlers struct {
	service    *Service
	principals repository.PrincipalRepository
}

// NewHandlers builds auth Handlers.
func NewHandlers(service *Service, principals repository.PrincipalRepository) *Handlers {
	return &Handlers{service: service, principals: principals}
}

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

// Login authenticates username/password and issues an access/refresh pair.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, err := h.principals.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "invalid username or password"))
		return
	}
	if !principal.Active {
		writeAppErr(c, apperr.New(apperr.CodeAccountDisabled, "account is disabled"))
		return
	}
	if err := h.service.VerifyPassword(req.Password, principal.PasswordHash); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "invalid username or password"))
		return
	}

	accessToken, err := h.service.GenerateToken(principal)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to issue access token"))
		return
	}
	refreshToken, err := h.service.GenerateRefreshToken(c.Request.Context(), principal)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to issue refresh token"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(h.service.tokenDuration),
		Principal:    toPrincipalResponse(principal),
	})
}

// Refresh rotates a refresh token for a new access/refresh pair.
func (h *Handlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, newRefreshToken, err := h.service.ValidateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeTokenInvalid, "invalid or expired refresh token"))
		return
	}
	if !principal.Active {
		writeAppErr(c, apperr.New(apperr.CodeAccountDisabled, "account is disabled"))
		return
	}

	accessToken, err := h.service.GenerateToken(principal)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to issue access token"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresAt:    time.Now().Add(h.service.tokenDuration),
		Principal:    toPrincipalResponse(principal),
	})
}

// Me returns the authenticated principal's profile.
func (h *Handlers) Me(c *gin.Context) {
	claims, ok := GetCurrentUser(c)
	if !ok {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "authentication required"))
		return
	}

	id, err := uuid.Parse(claims.PrincipalID)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeTokenInvalid, "invalid token subject"))
		return
	}
	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return
	}

	c.JSON(http.StatusOK, toPrincipalResponse(principal))
}

// ChangePassword updates the authenticated principal's own password.
func (h *Handlers) ChangePassword(c *gin.Context) {
	claims, ok := GetCurrentUser(c)
	if !ok {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.Parse(claims.PrincipalID)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeTokenInvalid, "invalid token subject"))
		return
	}
	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return
	}

	if err := h.service.VerifyPassword(req.CurrentPassword, principal.PasswordHash); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInvalidCredentials, "current password is incorrect"))
		return
	}

	newHash, err := h.service.HashPassword(req.NewPassword)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to hash password"))
		return
	}
	principal.PasswordHash = newHash
	if err := h.principals.Update(principal); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to update password"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// CreatePrincipal creates a new principal (admin only, enforced by routing).
func (h *Handlers) CreatePrincipal(c *gin.Context) {
	var req CreatePrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.IsValid() {
		writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid role"))
		return
	}

	passwordHash, err := h.service.HashPassword(req.Password)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to hash password"))
		return
	}

	principal := &models.Principal{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Active:       true,
	}
	if err := h.principals.Create(principal); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUsernameExists, "username already exists"))
		return
	}

	c.JSON(http.StatusCreated, toPrincipalResponse(principal))
}

// ListPrincipals lists every principal (admin only).
func (h *Handlers) ListPrincipals(c *gin.Context) {
	principals, err := h.principals.List(nil, "username", 0, 0)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to list principals"))
		return
	}

	response := make([]PrincipalResponse, 0, len(principals))
	for i := range principals {
		response = append(response, toPrincipalResponse(&principals[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetPrincipal fetches one principal by ID (admin only).
func (h *Handlers) GetPrincipal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid principal id"))
		return
	}
	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return
	}
	c.JSON(http.StatusOK, toPrincipalResponse(principal))
}

// UpdatePrincipal updates a principal's role and/or active flag (admin only).
func (h *Handlers) UpdatePrincipal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid principal id"))
		return
	}

	var req UpdatePrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return
	}

	if req.Role != "" {
		if !req.Role.IsValid() {
			writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid role"))
			return
		}
		principal.Role = req.Role
	}
	if req.Active != nil {
		principal.Active = *req.Active
	}

	if err := h.principals.Update(principal); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to update principal"))
		return
	}

	c.JSON(http.StatusOK, toPrincipalResponse(principal))
}

// DeletePrincipal deactivates a principal rather than destroying the row:
// Principal rows are retained (see models.Principal doc) so that historical
// requests keep a valid creator/claimant reference.
func (h *Handlers) DeletePrincipal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeValidationError, "invalid principal id"))
		return
	}
	principal, err := h.principals.GetByID(id)
	if err != nil {
		writeAppErr(c, apperr.New(apperr.CodeUserNotFound, "principal not found"))
		return
	}

	principal.Active = false
	if err := h.principals.Update(principal); err != nil {
		writeAppErr(c, apperr.New(apperr.CodeInternalError, "failed to deactivate principal"))
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
