// Package audit records second-factor security events.
package audit

import (
	"context"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/goroutine"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

const recordTimeout = 5 * time.Second

// Recorder appends security events without blocking the request path. A
// failed write is logged and dropped; auditing never fails a verification.
type Recorder struct {
	events mfa.SecurityEventRepository
	logger logger.Interface
}

// NewRecorder creates a security event recorder.
func NewRecorder(events mfa.SecurityEventRepository, logger logger.Interface) *Recorder {
	return &Recorder{
		events: events,
		logger: logger,
	}
}

// Record appends an event asynchronously. The write runs detached from the
// request context so a canceled request does not lose the event.
func (r *Recorder) Record(subjectID uint, kind mfa.SecurityEventKind, metadata map[string]string, ipAddress, userAgent string) {
	event, err := mfa.NewSecurityEvent(subjectID, kind, metadata, ipAddress, userAgent)
	if err != nil {
		r.logger.Warnw("failed to build security event", "kind", kind, "error", err)
		return
	}

	goroutine.SafeGo(r.logger, "audit.record", func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.events.Create(ctx, event); err != nil {
			r.logger.Warnw("failed to record security event",
				"kind", kind,
				"subject_id", subjectID,
				"error", err,
			)
		}
	})
}
