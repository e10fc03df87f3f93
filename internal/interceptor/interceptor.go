package interceptor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dwikidiandra/dstory/internal/ratelimit"
	"github.com/dwikidiandra/dstory/pkg/config"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"go.uber.org/fx"
)

const revalidateTimeout = 30 * time.Second

// Transport sits at the boundary between application code and the network:
// it classifies every outbound request, applies the class's caching strategy,
// and synthesizes a best-effort response when the network is unreachable. It
// implements http.RoundTripper so the application's HTTP client is built
// directly on top of it.
type Transport struct {
	base        http.RoundTripper
	store       Store
	logger      logger.Logger
	apiOrigin   *url.URL
	shellURL    string
	placeholder string
	limiter     ratelimit.Limiter

	// revalidated is a test hook invoked after a detached revalidation
	// attempt finishes.
	revalidated func(key string, err error)
}

type Opts struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Logger logger.Logger
	Store  Store
}

// NewTransport builds an interceptor over the given base round tripper.
func NewTransport(base http.RoundTripper, store Store, cfg *config.Config, log logger.Logger) (*Transport, error) {
	origin, err := url.Parse(cfg.Api.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	return &Transport{
		base:        base,
		store:       store,
		logger:      log.WithComponent("Interceptor"),
		apiOrigin:   origin,
		shellURL:    cfg.Cache.ShellURL,
		placeholder: cfg.Cache.PlaceholderIcon,
		// Throttle revalidation per URL so serving stale copies does not
		// hammer the origin.
		limiter: ratelimit.NewInMemoryLimiter(1, 10*time.Second, 1),
	}, nil
}

func New(opts Opts) (*Transport, error) {
	t, err := NewTransport(http.DefaultTransport, opts.Store, opts.Config, opts.Logger)
	if err != nil {
		return nil, err
	}

	opts.LC.Append(fx.Hook{
		OnStart: t.Activate,
	})

	return t, nil
}

// NewHTTPClient builds the shared HTTP client on top of the interceptor, so
// every application request passes through it. No client-level timeout: each
// call carries its own deadline.
func NewHTTPClient(t *Transport) *http.Client {
	return &http.Client{Transport: t}
}

// Activate takes over immediately: cache namespaces left behind by previous
// versions are deleted, and the shell page and placeholder icon are warmed
// best-effort so navigation and image fallbacks work from the first offline
// moment.
func (t *Transport) Activate(ctx context.Context) error {
	if err := t.store.DropClassesExcept(ctx, KnownClasses()); err != nil {
		return err
	}
	t.precache(ctx, ClassNavigations, t.shellURL)
	t.precache(ctx, ClassImages, t.placeholder)
	return nil
}

func (t *Transport) precache(ctx context.Context, class Class, rawURL string) {
	if rawURL == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		t.logger.Warn("Invalid precache URL", "url", rawURL, "error", err)
		return
	}
	if _, err := t.fetchAndStore(req, policies[class], rawURL); err != nil {
		t.logger.Warn("Precache fetch failed", "url", rawURL, "error", err)
	}
}

// PruneAll applies every class's eviction policy in one sweep. Driven by the
// maintenance scheduler; strategies also prune lazily on access.
func (t *Transport) PruneAll(ctx context.Context) error {
	for _, pol := range policies {
		if pol.maxEntries == 0 && pol.maxAge == 0 {
			continue
		}
		if err := t.store.Prune(ctx, pol.class, pol.maxEntries, pol.maxAge); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	pol, ok := t.classify(req)
	if !ok {
		return t.base.RoundTrip(req)
	}

	resp, err := t.apply(req, pol)
	if err == nil {
		return resp, nil
	}

	if fb := t.fallback(req, pol); fb != nil {
		return fb, nil
	}
	return nil, err
}

func cacheKey(req *http.Request) string {
	return req.URL.String()
}

func (t *Transport) apply(req *http.Request, pol policy) (*http.Response, error) {
	key := cacheKey(req)

	// Expiry is lazy: each access sweeps the class before the strategy runs.
	if pol.maxEntries > 0 || pol.maxAge > 0 {
		if err := t.store.Prune(req.Context(), pol.class, pol.maxEntries, pol.maxAge); err != nil {
			t.logger.Warn("Cache prune failed", "class", pol.class, "error", err)
		}
	}

	switch pol.strategy {
	case StrategyCacheFirst:
		return t.cacheFirst(req, pol, key)
	case StrategyStaleWhileRevalidate:
		return t.staleWhileRevalidate(req, pol, key)
	default:
		return t.networkFirst(req, pol, key)
	}
}

// networkFirst tries the network and keeps the cache warm; any failure,
// including a server error, is answered from the most recent cached copy.
func (t *Transport) networkFirst(req *http.Request, pol policy, key string) (*http.Response, error) {
	resp, err := t.fetchAndStore(req, pol, key)
	if err == nil && resp.StatusCode < http.StatusInternalServerError {
		return resp, nil
	}

	// The failure may be the caller's own deadline expiring; the cache read
	// must still be able to complete.
	entry, cacheErr := t.store.Get(context.WithoutCancel(req.Context()), pol.class, key)
	if cacheErr != nil {
		t.logger.Warn("Cache read failed", "class", pol.class, "error", cacheErr)
	}
	if entry != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return entry.Response(req), nil
	}

	if err != nil {
		return nil, err
	}
	// Server error with nothing cached: hand the response through untouched.
	return resp, nil
}

// cacheFirst answers from the cache when possible and only then goes to the
// network.
func (t *Transport) cacheFirst(req *http.Request, pol policy, key string) (*http.Response, error) {
	entry, err := t.store.Get(req.Context(), pol.class, key)
	if err != nil {
		t.logger.Warn("Cache read failed", "class", pol.class, "error", err)
	}
	if entry != nil {
		return entry.Response(req), nil
	}
	return t.fetchAndStore(req, pol, key)
}

// staleWhileRevalidate returns the cached copy without blocking on the
// network and refreshes the cache in a detached task. The caller receiving
// the stale copy never cancels the refresh.
func (t *Transport) staleWhileRevalidate(req *http.Request, pol policy, key string) (*http.Response, error) {
	entry, err := t.store.Get(req.Context(), pol.class, key)
	if err != nil {
		t.logger.Warn("Cache read failed", "class", pol.class, "error", err)
	}
	if entry != nil {
		t.spawnRevalidate(req, pol, key)
		return entry.Response(req), nil
	}
	return t.fetchAndStore(req, pol, key)
}

func (t *Transport) spawnRevalidate(req *http.Request, pol policy, key string) {
	if !t.limiter.Allow(key) {
		return
	}

	// Detach from the caller's context so its cancellation or deadline can
	// never abort the refresh.
	clone := req.Clone(context.WithoutCancel(req.Context()))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
		defer cancel()

		_, err := t.fetchAndStore(clone.WithContext(ctx), pol, key)
		if err != nil {
			t.logger.Debug("Revalidation failed", "class", pol.class, "url", key, "error", err)
		}
		if t.revalidated != nil {
			t.revalidated(key, err)
		}
	}()
}

// fetchAndStore performs the network fetch and mirrors cacheable responses
// into the class cache. A failed or error response never poisons the cache.
func (t *Transport) fetchAndStore(req *http.Request, pol policy, key string) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !cacheableStatus(resp.StatusCode) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	entry := Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}
	if putErr := t.store.Put(context.WithoutCancel(req.Context()), pol.class, key, entry); putErr != nil {
		t.logger.Warn("Failed to cache response", "class", pol.class, "url", key, "error", putErr)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// cacheableStatus reports whether a response may be stored: the success range
// plus status 0 (opaque cross-origin outcome).
func cacheableStatus(code int) bool {
	if code == 0 {
		return true
	}
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
