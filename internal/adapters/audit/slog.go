// Package audit persists the trail of simulated backend calls. The default
// sink writes structured log records; the gorm sink keeps rows in sqlite or
// postgres for later inspection.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/talentops/recruiter-agent/internal/domain"
)

// SlogLog emits each audit entry as one structured log record.
type SlogLog struct {
	logger *slog.Logger
}

func NewSlogLog(logger *slog.Logger) *SlogLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLog{logger: logger}
}

var _ domain.AuditLog = (*SlogLog)(nil)

func (l *SlogLog) Record(ctx context.Context, entry domain.AuditEntry) error {
	args, err := json.Marshal(entry.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	l.logger.InfoContext(ctx, "backend call",
		slog.String("session_id", string(entry.SessionID)),
		slog.String("call_id", entry.CallID),
		slog.String("function", entry.Function),
		slog.String("arguments", string(args)),
		slog.String("result", entry.Result),
		slog.Bool("failed", entry.Failed),
		slog.Time("created_at", entry.CreatedAt),
	)
	return nil
}
