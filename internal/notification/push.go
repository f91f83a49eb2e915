package notification

import (
	"context"

	"medical_advisor_backend/platform/logger"
)

// PushSender delivers one push notification to a device token. The concrete
// transport (FCM or otherwise) is an external collaborator injected by the
// composition root.
type PushSender interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}

// LogPushSender logs notifications instead of delivering them. Default when
// no push transport is configured.
type LogPushSender struct {
	log *logger.Logger
}

// NewLogPushSender creates a log-only push sender.
func NewLogPushSender(log *logger.Logger) *LogPushSender {
	return &LogPushSender{log: log}
}

// Send logs the notification.
func (s *LogPushSender) Send(_ context.Context, deviceToken, title, body string) error {
	s.log.Info("push notification (no sender configured)",
		"token_suffix", tokenSuffix(deviceToken),
		"title", title,
		"body", body,
	)
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return "..." + token[len(token)-8:]
}
