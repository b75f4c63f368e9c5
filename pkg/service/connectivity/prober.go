package connectivity

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/secmon-lab/repairdesk/pkg/utils/safe"
)

// Prober derives connectivity from periodic HTTP HEAD requests to the
// backend endpoint. Any HTTP response counts as online; a transport error or
// timeout counts as offline.
//
// The state starts online so that the first fetch goes to the backend and
// falls back to the cache by itself if the backend is unreachable.
type Prober struct {
	*Static

	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

var _ interfaces.Connectivity = &Prober{}

type ProberOption func(*Prober)

// WithHTTPClient replaces the HTTP client used for probes
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *Prober) {
		p.client = client
	}
}

func NewProber(url string, interval, timeout time.Duration, opts ...ProberOption) *Prober {
	p := &Prober{
		Static:   NewStatic(true),
		url:      url,
		interval: interval,
		timeout:  timeout,
		client:   http.DefaultClient,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the probe loop in the background
func (p *Prober) Start(ctx context.Context) error {
	if p.url == "" {
		return goerr.New("probe url is required")
	}
	if p.interval <= 0 {
		return goerr.New("probe interval must be positive", goerr.V("interval", p.interval))
	}

	logging.Default().Info("Connectivity prober starting",
		"url", p.url,
		"interval", p.interval.String())

	if !p.started.CompareAndSwap(false, true) {
		return goerr.New("prober already started")
	}
	go p.run(ctx)
	return nil
}

// Stop signals the loop to stop and waits for completion
func (p *Prober) Stop() {
	if !p.started.Load() {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
		logging.Default().Info("Connectivity prober stopped")
	})
}

func (p *Prober) run(ctx context.Context) {
	defer close(p.doneCh)

	p.Set(p.probe(ctx))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Set(p.probe(ctx))

		case <-p.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// Set changes the state and logs transitions
func (p *Prober) Set(online bool) {
	if p.Online() != online {
		logging.Default().Info("Connectivity changed", "online", online, "url", p.url)
	}
	p.Static.Set(online)
}

func (p *Prober) probe(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		logging.Default().Error("Failed to build probe request", "error", err.Error(), "url", p.url)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logging.Default().Debug("Probe failed", "error", err.Error(), "url", p.url)
		return false
	}
	safe.Drain(ctx, resp.Body)
	safe.Close(ctx, resp.Body)
	return true
}
