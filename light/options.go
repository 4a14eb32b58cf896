package light

import (
	"time"

	"go.uber.org/zap"
)

type config struct {
	logger      *zap.Logger
	readTimeout time.Duration
}

func defaultConfig() config {
	return config{logger: zap.NewNop()}
}

// Option configures a Controller.
type Option func(*config)

// WithLogger sets the logger used for frame tracing at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReadTimeout sets how long ReadID waits for the device to answer. Only used by Open;
// a Transport passed to New carries its own timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.readTimeout = timeout
	}
}
