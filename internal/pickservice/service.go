// Package pickservice is the pick-request coordinator: the state machine,
// claim manager, item ledger, and submission resolver wired together behind
// one operation surface. Every exported method corresponds to one verb of
// the operation surface exposed to the transport; none of them format HTTP
// or know about WebSocket framing.
package pickservice

import (
	"time"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/config"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/observability/metrics"
	"pickcoordinator/internal/repository"
)

// LogWriter renders a finalized request to a completion log and returns its
// filesystem path. Satisfied by internal/picklog's writer; declared here so
// the coordinator depends on the narrow interface it actually calls rather
// than the concrete package.
type LogWriter interface {
	Write(req *models.Request) (path string, err error)
}

// Service is the pick-request coordinator. It holds no in-process state of
// its own beyond its collaborators; every operation reads the request store
// fresh and writes back through a guarded conditional update.
type Service struct {
	requests   repository.RequestRepository
	principals repository.PrincipalRepository
	logs       LogWriter
	cfg        config.PickConfig
	now        func() time.Time
	metrics    *metrics.Metrics
}

// SetMetrics attaches a metrics recorder. Optional; left nil, the service
// simply doesn't record business metrics (used by every unit test).
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// New builds a Service. logs may be nil (submit then reports no log path),
// used in tests that don't care about the completion log writer.
func New(requests repository.RequestRepository, principals repository.PrincipalRepository, logs LogWriter, cfg config.PickConfig) *Service {
	return &Service{
		requests:   requests,
		principals: principals,
		logs:       logs,
		cfg:        cfg,
		now:        time.Now,
	}
}

func requireActive(p *models.Principal) error {
	if !p.Active {
		return apperr.New(apperr.CodeAccountDisabled, "principal is deactivated")
	}
	return nil
}

func forbidden(msg string) error {
	return apperr.New(apperr.CodeForbidden, msg)
}

func invalidStatus(current, expected models.Status) error {
	return apperr.New(apperr.CodeInvalidStatus, "operation not permitted from current status").
		WithDetails(map[string]interface{}{"current": current, "expected": expected})
}

func locked(by string) error {
	return apperr.New(apperr.CodeRequestLocked, "request is claimed by another principal").
		WithDetails(map[string]interface{}{"locked_by": by})
}

// claimantMatches reports whether actor currently holds req's claim.
func claimantMatches(req *models.Request, actor *models.Principal) bool {
	return req.ClaimantID != nil && *req.ClaimantID == actor.ID
}

// claimIdentityError names the current claimant when known.
func claimIdentityError(req *models.Request) error {
	name := "another principal"
	if req.Claimant != nil {
		name = req.Claimant.Username
	}
	return locked(name)
}
