package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes notifications to the logger instead of delivering them. It is
// the sender used when no mail transport is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, to string, kind Kind, params map[string]string) error {
	subject, body, err := Render(kind, params)
	if err != nil {
		return err
	}
	l.logger.Info("notification not delivered, no mail transport configured",
		zap.String("to", to),
		zap.String("kind", string(kind)),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
