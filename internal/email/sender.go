// Package email delivers reconciliation run summaries to sales managers.
package email

import (
	"context"

	"medical_advisor_backend/platform/config"
	"medical_advisor_backend/platform/logger"
)

// RunSummary is the payload of a reconciliation summary email.
type RunSummary struct {
	Trigger       string
	PlanIDs       []string
	CreatedTasks  int
	SkippedTasks  int
	FailedTuples  int
	LostWrites    int
	ChunkFailures int
}

// Sender delivers transactional email.
type Sender interface {
	SendReconciliationSummary(ctx context.Context, toEmail string, summary RunSummary) error
}

// NewSender selects the sender implementation from configuration: SMTP when
// email is enabled, otherwise a log-only sender so runs stay observable in
// development.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		return &LogSender{log: log}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// LogSender writes summaries to the log instead of sending them.
type LogSender struct {
	log *logger.Logger
}

// SendReconciliationSummary logs the summary.
func (s *LogSender) SendReconciliationSummary(_ context.Context, toEmail string, summary RunSummary) error {
	s.log.Info("reconciliation summary (email disabled)",
		"to", toEmail,
		"trigger", summary.Trigger,
		"created", summary.CreatedTasks,
		"skipped", summary.SkippedTasks,
		"failed", summary.FailedTuples,
		"lost", summary.LostWrites,
	)
	return nil
}
