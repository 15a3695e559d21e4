package wifi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/logging"
)

// Join defaults.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultJoinTimeout  = 10 * time.Second
)

// JoinOptions bounds a join attempt.
type JoinOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o JoinOptions) withDefaults() JoinOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultJoinTimeout
	}
	return o
}

// Join asks c to connect and then polls IsConnected every PollInterval
// until it reports true or Timeout elapses. It returns false when Connect
// fails, the timeout passes, or ctx is cancelled. Connect and every status
// query share the timeout.
func Join(ctx context.Context, c Connector, ssid, password string, opts JoinOptions) bool {
	opts = opts.withDefaults()
	log := logging.Named("wifi").With(zap.String("ssid", ssid), logging.Secret("password", password))

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	log.Info("Joining network", zap.Duration("timeout", opts.Timeout))
	if err := c.Connect(ctx, ssid, password); err != nil {
		log.Warn("Connect request failed", zap.Error(err))
		return false
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		if c.IsConnected(ctx) {
			log.Info("Network joined", zap.Duration("elapsed", time.Since(start)))
			return true
		}
		select {
		case <-ctx.Done():
			log.Warn("Join timed out", zap.Duration("elapsed", time.Since(start)), zap.Error(ctx.Err()))
			return false
		case <-ticker.C:
		}
	}
}
