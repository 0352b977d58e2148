package sink

import (
	"context"
	"fmt"

	"notifier/internal/pkg/logger"
)

// LogSink writes notifications to the application log. It always has permission.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a sink that logs every notification at info level.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log.With("sink", "log")}
}

func (s *LogSink) Emit(ctx context.Context, sequence int, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("NOTIFY #%d: %s", sequence, message))
	return nil
}

func (s *LogSink) CheckPermission(ctx context.Context) error {
	return nil
}
