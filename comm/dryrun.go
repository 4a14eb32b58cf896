package comm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/protocol"
)

// NewDryRun returns a Port that logs every frame instead of sending it. Reads always
// time out, so ReadID reports no device.
func NewDryRun(logger *zap.Logger) *Port {
	return NewPort(&frameLogger{logger: logger})
}

type frameLogger struct {
	logger *zap.Logger
}

func (l *frameLogger) Write(p []byte) (int, error) {
	fields := []zap.Field{zap.String("frame", fmt.Sprintf("% X", p))}
	if cmd, payload, err := protocol.Decode(p); err == nil {
		fields = append(fields, zap.Stringer("command", cmd), zap.Binary("payload", payload))
	} else {
		fields = append(fields, zap.Error(err))
	}
	l.logger.Info("dry run: frame", fields...)
	return len(p), nil
}

func (l *frameLogger) Read(p []byte) (int, error) {
	return 0, nil
}

func (l *frameLogger) Close() error {
	return nil
}
