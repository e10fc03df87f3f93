package netstatus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dwikidiandra/dstory/pkg/logger"
)

// Prober reports current connectivity.
type Prober interface {
	Online(ctx context.Context) bool
}

// HTTPProber checks connectivity with a HEAD request against an origin. It
// deliberately uses a bare client: probes must not be answered from the
// offline cache.
type HTTPProber struct {
	client *http.Client
	url    string
}

func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{Timeout: 5 * time.Second},
		url:    url,
	}
}

var _ Prober = (*HTTPProber)(nil)

func (p *HTTPProber) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	// Any answer at all means the network path is up.
	return true
}

// Subscription is the handle returned by Subscribe; it detaches exactly the
// registration that created it.
type Subscription struct {
	id      int
	monitor *Monitor
}

func (s *Subscription) Unsubscribe() {
	s.monitor.unsubscribe(s.id)
}

// Monitor observes connectivity transitions and notifies subscribers. It is
// an explicit registry instance owned by the application, not package state:
// consumers receive it through dependency injection.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   logger.Logger

	// deliverMu serializes callback delivery so a subscriber's initial
	// status callback always lands before any transition callback meant
	// for it. Always acquired before mu.
	deliverMu sync.Mutex

	mu     sync.Mutex
	subs   map[int]func(online bool)
	nextID int
	online bool

	stop chan struct{}
	done chan struct{}
}

func NewMonitor(prober Prober, interval time.Duration, log logger.Logger) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
		logger:   log.WithComponent("NetworkStatus"),
		subs:     make(map[int]func(online bool)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Online reports the last observed status.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback for online/offline transitions and invokes
// it once immediately with the current status, so subscribers need no
// separate initial check.
func (m *Monitor) Subscribe(callback func(online bool)) *Subscription {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = callback
	current := m.online
	m.mu.Unlock()

	callback(current)
	return &Subscription{id: id, monitor: m}
}

// Unsubscribe detaches the given handle. Equivalent to handle.Unsubscribe.
func (m *Monitor) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	m.unsubscribe(s.id)
}

func (m *Monitor) unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

// Start primes the status with one probe and begins polling.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.online = m.prober.Online(ctx)
	m.mu.Unlock()

	go m.run()
}

// Stop halts polling and waits for the poll loop to exit.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			m.setOnline(m.prober.Online(ctx))
			cancel()
		}
	}
}

// setOnline records a probe result and, on a transition, invokes every
// subscriber exactly once. No coalescing or debouncing.
func (m *Monitor) setOnline(online bool) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	callbacks := make([]func(bool), 0, len(m.subs))
	for _, cb := range m.subs {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("Network is online")
	} else {
		m.logger.Warn("Network is offline")
	}
	for _, cb := range callbacks {
		cb(online)
	}
}
