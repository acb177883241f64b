package connection

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/internal/link"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/errors"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/logger"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// Vehicle bundles both directions of a vehicle link: telemetry in,
// commands out.
type Vehicle interface {
	link.TelemetryLink
	link.CommandLink
}

// Dialer opens a vehicle link for one endpoint. The full config is passed so
// a dialer can derive link parameters from the transition settings.
type Dialer func(ctx context.Context, cfg *protocol.Config) (Vehicle, error)

var (
	mu      sync.RWMutex
	dialers = make(map[string]Dialer)
)

// Register installs a dialer for an endpoint scheme (the part before "://").
// Later registrations replace earlier ones.
func Register(scheme string, d Dialer) {
	mu.Lock()
	defer mu.Unlock()
	dialers[scheme] = d
}

func lookup(scheme string) (Dialer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := dialers[scheme]
	return d, ok
}

func init() {
	// loopback vehicle, always available
	Register("sim", func(_ context.Context, cfg *protocol.Config) (Vehicle, error) {
		return link.NewSim(cfg.Transition.Interval()), nil
	})
}

// Scheme extracts the dialer scheme from an endpoint string.
func Scheme(endpoint string) string {
	if i := strings.Index(endpoint, "://"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// Connect dials the configured endpoint with bounded retries and exponential
// backoff. It returns ErrCodeConnectionFailed once the attempt budget is
// spent or the context is cancelled.
func Connect(ctx context.Context, cfg *protocol.Config) (Vehicle, error) {
	endpoint := cfg.Connection.Endpoint
	d, ok := lookup(Scheme(endpoint))
	if !ok {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "connect",
			"no dialer for endpoint "+endpoint, nil)
	}

	attempts := cfg.Connection.Attempts
	if attempts <= 0 {
		attempts = consts.DefaultConnectAttempts
	}
	backoff := protocol.Seconds(cfg.Connection.Backoff)
	if backoff <= 0 {
		backoff = consts.DefaultConnectBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := d(ctx, cfg)
		if err == nil {
			logger.Log.Info("vehicle link established", "endpoint", endpoint, "attempt", attempt)
			return v, nil
		}
		lastErr = err
		logger.Log.Warn("connection attempt failed",
			"endpoint", endpoint, "attempt", attempt, "of", attempts, "err", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.New(errors.ErrCodeConnectionFailed, "connect",
				"cancelled while retrying "+endpoint, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, errors.New(errors.ErrCodeConnectionFailed, "connect",
		"exhausted attempts dialing "+endpoint, lastErr)
}
