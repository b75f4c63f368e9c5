package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/service/connectivity"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Sync holds CLI flags for fetch coordination, realtime and connectivity
type Sync struct {
	debounce       time.Duration
	fetchTimeout   time.Duration
	settleDelay    time.Duration
	reconnectDelay time.Duration
	probeURL       string
	probeInterval  time.Duration
	probeTimeout   time.Duration
	offline        bool
}

func (s *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "sync-debounce",
			Usage:       "Minimum interval between accepted fetch requests",
			Value:       usecase.DefaultDebounceWindow,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_SYNC_DEBOUNCE"),
			Destination: &s.debounce,
		},
		&cli.DurationFlag{
			Name:        "sync-fetch-timeout",
			Usage:       "Timeout of a remote fetch before falling back to the cache",
			Value:       usecase.DefaultFetchTimeout,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_SYNC_FETCH_TIMEOUT"),
			Destination: &s.fetchTimeout,
		},
		&cli.DurationFlag{
			Name:        "sync-settle-delay",
			Usage:       "Quiet period after a realtime change before refetching",
			Value:       usecase.DefaultSettleDelay,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_SYNC_SETTLE_DELAY"),
			Destination: &s.settleDelay,
		},
		&cli.DurationFlag{
			Name:        "sync-reconnect-delay",
			Usage:       "Wait before resubscribing a failed realtime stream",
			Value:       usecase.DefaultReconnectDelay,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_SYNC_RECONNECT_DELAY"),
			Destination: &s.reconnectDelay,
		},
		&cli.StringFlag{
			Name:        "probe-url",
			Usage:       "URL probed to detect connectivity (empty means always online)",
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_PROBE_URL"),
			Destination: &s.probeURL,
		},
		&cli.DurationFlag{
			Name:        "probe-interval",
			Usage:       "Interval between connectivity probes",
			Value:       15 * time.Second,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_PROBE_INTERVAL"),
			Destination: &s.probeInterval,
		},
		&cli.DurationFlag{
			Name:        "probe-timeout",
			Usage:       "Timeout of a single connectivity probe",
			Value:       3 * time.Second,
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_PROBE_TIMEOUT"),
			Destination: &s.probeTimeout,
		},
		&cli.BoolFlag{
			Name:        "offline",
			Usage:       "Start offline and serve the local cache only",
			Category:    "Sync",
			Sources:     cli.EnvVars("REPAIRDESK_OFFLINE"),
			Destination: &s.offline,
		},
	}
}

// Apply fills unset flags from the [sync] table and validates the result
func (s *Sync) Apply(c *cli.Command, file *FileConfig) error {
	if file != nil {
		fileDuration(c, "sync-debounce", file.Sync.DebounceWindow, &s.debounce)
		fileDuration(c, "sync-fetch-timeout", file.Sync.FetchTimeout, &s.fetchTimeout)
		fileDuration(c, "sync-settle-delay", file.Sync.SettleDelay, &s.settleDelay)
		fileDuration(c, "sync-reconnect-delay", file.Sync.ReconnectDelay, &s.reconnectDelay)
		fileString(c, "probe-url", file.Sync.ProbeURL, &s.probeURL)
		fileDuration(c, "probe-interval", file.Sync.ProbeInterval, &s.probeInterval)
		fileDuration(c, "probe-timeout", file.Sync.ProbeTimeout, &s.probeTimeout)
	}
	return s.Validate()
}

func (s *Sync) Validate() error {
	if s.debounce < 0 {
		return goerr.Wrap(ErrInvalidConfig, "sync-debounce must not be negative", goerr.V(ValueKey, s.debounce))
	}
	if s.fetchTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "sync-fetch-timeout must be positive", goerr.V(ValueKey, s.fetchTimeout))
	}
	if s.settleDelay <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "sync-settle-delay must be positive", goerr.V(ValueKey, s.settleDelay))
	}
	if s.reconnectDelay <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "sync-reconnect-delay must be positive", goerr.V(ValueKey, s.reconnectDelay))
	}
	if s.probeURL != "" && (s.probeInterval <= 0 || s.probeTimeout <= 0) {
		return goerr.Wrap(ErrInvalidConfig, "probe interval and timeout must be positive",
			goerr.V("interval", s.probeInterval), goerr.V("timeout", s.probeTimeout))
	}
	return nil
}

func (s *Sync) DebounceWindow() time.Duration { return s.debounce }
func (s *Sync) FetchTimeout() time.Duration   { return s.fetchTimeout }
func (s *Sync) SettleDelay() time.Duration    { return s.settleDelay }
func (s *Sync) ReconnectDelay() time.Duration { return s.reconnectDelay }
func (s *Sync) Offline() bool                 { return s.offline }

// UseCaseOptions returns the coordinator and listener tuning as use case options
func (s *Sync) UseCaseOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithCaseSyncOptions(
			usecase.WithDebounceWindow(s.debounce),
			usecase.WithFetchTimeout(s.fetchTimeout),
		),
		usecase.WithCaseRealtimeOptions(
			usecase.WithSettleDelay(s.settleDelay),
			usecase.WithReconnectDelay(s.reconnectDelay),
		),
	}
}

// Connectivity builds the connectivity signal. With --offline the signal is
// pinned offline; without a probe URL it is pinned online. The returned
// function stops the prober.
func (s *Sync) Connectivity(ctx context.Context) (interfaces.Connectivity, func(), error) {
	if s.offline {
		logging.Default().Info("Running offline, serving the local cache only")
		return connectivity.NewStatic(false), func() {}, nil
	}
	if s.probeURL == "" {
		return connectivity.NewStatic(true), func() {}, nil
	}

	prober := connectivity.NewProber(s.probeURL, s.probeInterval, s.probeTimeout)
	if err := prober.Start(ctx); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to start connectivity prober")
	}
	return prober, prober.Stop, nil
}

func (s Sync) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("debounce", s.debounce),
		slog.Duration("fetch_timeout", s.fetchTimeout),
		slog.Duration("settle_delay", s.settleDelay),
		slog.Duration("reconnect_delay", s.reconnectDelay),
		slog.String("probe_url", s.probeURL),
		slog.Bool("offline", s.offline),
	)
}
