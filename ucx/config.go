package ucx

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout matches the module's factory command budget.
	DefaultTimeout = 5 * time.Second
	// DefaultPollInterval paces the read/classify loop between empty
	// drains.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultRxBufferSize is the receive buffer capacity.
	DefaultRxBufferSize = 4096
	// DefaultURCBufferSize caps the length of one unsolicited line.
	DefaultURCBufferSize = 2048

	// lockRetryInterval paces bounded waits for the command slot.
	lockRetryInterval = time.Millisecond
	// lastErrorLimit bounds the retained failure text.
	lastErrorLimit = 256
)

type Config struct {
	// Dialer opens the transport. Required.
	Dialer Dialer
	// Clock drives timeout accounting and the poll sleep. Defaults to the
	// system clock.
	Clock Clock
	// Logger receives engine diagnostics. Defaults to a nop logger.
	Logger *zap.Logger
	// Timeout is the default budget for one command, measured from the
	// moment the request hits the wire. A deadline on the context passed to
	// Begin overrides it per call.
	Timeout time.Duration
	// PollInterval is how long the engine yields when a drain produced no
	// complete line.
	PollInterval time.Duration
	// RxBufferSize is the receive buffer capacity in bytes. A line longer
	// than this ends the command with ErrBufferOverflow.
	RxBufferSize int
	// URCBufferSize caps a single unsolicited line.
	URCBufferSize int
}

func (c *Config) setDefaults() {
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RxBufferSize == 0 {
		c.RxBufferSize = DefaultRxBufferSize
	}
	if c.URCBufferSize == 0 {
		c.URCBufferSize = DefaultURCBufferSize
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%w: negative poll interval", ErrInvalidConfig)
	}
	if c.RxBufferSize < 0 || c.URCBufferSize < 0 {
		return fmt.Errorf("%w: negative buffer size", ErrInvalidConfig)
	}
	return nil
}

// ConfigBuilder assembles a Config fluently. Zero fields keep their
// defaults.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithClock(c Clock) *ConfigBuilder {
	b.config.Clock = c
	return b
}

func (b *ConfigBuilder) WithLogger(l *zap.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.Timeout = d
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.PollInterval = d
	return b
}

func (b *ConfigBuilder) WithRxBufferSize(n int) *ConfigBuilder {
	b.config.RxBufferSize = n
	return b
}

func (b *ConfigBuilder) WithURCBufferSize(n int) *ConfigBuilder {
	b.config.URCBufferSize = n
	return b
}

// Build validates the assembled Config. Defaults for unset fields are
// applied later, by Open.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	return b.config, nil
}
