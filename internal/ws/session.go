// Package ws implements the picker session WebSocket endpoint: a
// single-threaded, per-connection scan loop that mirrors barcode scans onto
// pickservice.Service.ScanItem with a short debounce against accidental
// double-reads of the same UPC.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/logger"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/observability/metrics"
	"pickcoordinator/internal/pickservice"
	"pickcoordinator/internal/repository"
)

// DebounceWindow is how soon a repeated scan of the same UPC on the same
// connection is dropped instead of applied.
const DebounceWindow = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Picker sessions are opened from the same origin the REST API is
	// served from; this is not a public browser-facing socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// scanMessage is the only inbound frame shape: a scanned barcode.
type scanMessage struct {
	UPC string `json:"upc"`
}

// scanResult is the outbound frame reporting what happened to a scan.
type scanResult struct {
	Status  string          `json:"status"` // applied, debounced, no_match, rejected
	Request *models.Request `json:"request,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Handler upgrades a picker session and pumps scan frames into the
// coordinator's item ledger.
type Handler struct {
	service    *pickservice.Service
	auth       *auth.Service
	principals repository.PrincipalRepository
	metrics    *metrics.Metrics
}

// New builds a picker session Handler. m may be nil, in which case scan
// events are not recorded.
func New(service *pickservice.Service, authService *auth.Service, principals repository.PrincipalRepository, m *metrics.Metrics) *Handler {
	return &Handler{service: service, auth: authService, principals: principals, metrics: m}
}

// Serve handles GET /api/v1/pick-requests/:name/session. The bearer token is
// read from the "token" query parameter or the Sec-WebSocket-Protocol
// header, since browsers cannot set an Authorization header on the upgrade
// request, and is validated before the upgrade completes.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Sec-WebSocket-Protocol")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.CodeInvalidCredentials, "message": "missing session token"})
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.CodeTokenInvalid, "message": "invalid session token"})
		return
	}

	principalID, err := uuid.Parse(claims.PrincipalID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.CodeTokenInvalid, "message": "invalid token subject"})
		return
	}
	principal, err := h.principals.GetByID(principalID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.CodeUserNotFound, "message": "principal not found"})
		return
	}

	name := c.Param("name")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("picker session upgrade failed for %s: %v", name, err)
		return
	}
	defer conn.Close()

	session := &pickerSession{
		handler:   h,
		conn:      conn,
		principal: principal,
		request:   name,
	}
	session.run()
}

// pickerSession is the per-connection debounce state named by §4.5/§9: the
// last-seen UPC and its timestamp, held only in memory and discarded on
// disconnect.
type pickerSession struct {
	handler   *Handler
	conn      *websocket.Conn
	principal *models.Principal
	request   string

	lastUPC string
	lastAt  time.Time
}

func (s *pickerSession) run() {
	for {
		var msg scanMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("picker session %s closed unexpectedly: %v", s.request, err)
			}
			return
		}
		s.handleScan(msg.UPC)
	}
}

func (s *pickerSession) handleScan(upc string) {
	now := time.Now()
	if upc == s.lastUPC && now.Sub(s.lastAt) < DebounceWindow {
		s.recordOutcome("debounced")
		s.send(scanResult{Status: "debounced"})
		return
	}
	s.lastUPC = upc
	s.lastAt = now

	req, autoMode, err := s.handler.service.ScanItem(context.Background(), s.principal, s.request, upc)
	if err != nil {
		s.recordOutcome("rejected")
		s.send(scanResult{Status: "rejected", Message: err.Error()})
		return
	}
	if !autoMode {
		s.recordOutcome("no_match")
		s.send(scanResult{Status: "no_match", Request: req, Message: "above auto-mode threshold; use a manual update"})
		return
	}

	s.recordOutcome("applied")
	s.send(scanResult{Status: "applied", Request: req})
}

func (s *pickerSession) recordOutcome(outcome string) {
	if s.handler.metrics != nil {
		s.handler.metrics.RecordScanEvent(outcome)
	}
}

func (s *pickerSession) send(result scanResult) {
	if err := s.conn.WriteJSON(result); err != nil {
		logger.Warnf("picker session %s write failed: %v", s.request, err)
	}
}
