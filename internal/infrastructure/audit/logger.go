// Package audit records structured audit events for report lifecycle
// decisions.
package audit

import (
	"context"

	"github.com/advisornet/reportd/internal/application/port"
	"go.uber.org/zap"
)

// Logger implements port.AuditLogger on top of zap. Audit events go to a
// dedicated named logger so they can be routed separately from application
// logs.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("audit")}
}

// Record appends one audit event. It never fails the calling operation.
func (l *Logger) Record(_ context.Context, action, reportUUID, actorUUID, detail string) {
	l.logger.Info("Audit event",
		zap.String("action", action),
		zap.String("report_uuid", reportUUID),
		zap.String("actor_uuid", actorUUID),
		zap.String("detail", detail))
}

// Verify interface compliance
var _ port.AuditLogger = (*Logger)(nil)
