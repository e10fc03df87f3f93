package netstatus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dwikidiandra/dstory/pkg/logger"
)

type fakeProber struct {
	mu     sync.Mutex
	online bool
}

func (p *fakeProber) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *fakeProber) set(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
}

type recorder struct {
	mu     sync.Mutex
	events []bool
}

func (r *recorder) callback(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, online)
}

func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.events...)
}

func newTestMonitor(online bool) *Monitor {
	m := NewMonitor(&fakeProber{online: online}, time.Hour, logger.NewNop())
	m.online = online
	return m
}

func TestSubscribeInvokesImmediatelyWithCurrentStatus(t *testing.T) {
	m := newTestMonitor(true)

	rec := &recorder{}
	sub := m.Subscribe(rec.callback)
	defer sub.Unsubscribe()

	events := rec.snapshot()
	if len(events) != 1 || events[0] != true {
		t.Fatalf("expected one immediate online event, got %v", events)
	}
}

func TestTransitionNotifiesEverySubscriberOnce(t *testing.T) {
	m := newTestMonitor(true)

	first, second := &recorder{}, &recorder{}
	m.Subscribe(first.callback)
	m.Subscribe(second.callback)

	m.setOnline(false)

	for i, rec := range []*recorder{first, second} {
		events := rec.snapshot()
		// One immediate event plus exactly one transition.
		if len(events) != 2 || events[1] != false {
			t.Fatalf("subscriber %d: expected [true false], got %v", i, events)
		}
	}
}

func TestSameStatusIsNotATransition(t *testing.T) {
	m := newTestMonitor(true)

	rec := &recorder{}
	m.Subscribe(rec.callback)

	m.setOnline(true)
	m.setOnline(true)

	if events := rec.snapshot(); len(events) != 1 {
		t.Fatalf("expected no transition events, got %v", events)
	}
}

func TestUnsubscribeDetachesOnlyItsRegistration(t *testing.T) {
	m := newTestMonitor(true)

	kept, dropped := &recorder{}, &recorder{}
	m.Subscribe(kept.callback)
	sub := m.Subscribe(dropped.callback)
	sub.Unsubscribe()

	m.setOnline(false)

	if events := dropped.snapshot(); len(events) != 1 {
		t.Fatalf("unsubscribed callback still invoked: %v", events)
	}
	if events := kept.snapshot(); len(events) != 2 {
		t.Fatalf("remaining subscriber missed the transition: %v", events)
	}
}

func TestMonitorUnsubscribeByHandle(t *testing.T) {
	m := newTestMonitor(true)

	rec := &recorder{}
	sub := m.Subscribe(rec.callback)
	m.Unsubscribe(sub)

	m.setOnline(false)

	if events := rec.snapshot(); len(events) != 1 {
		t.Fatalf("detached callback still invoked: %v", events)
	}

	// A nil handle is ignored.
	m.Unsubscribe(nil)
}

func TestSubscribeRacingTransitionKeepsCallbackOrder(t *testing.T) {
	// Subscribers joining mid-flap must still see their initial status first,
	// then strictly alternating transitions.
	for i := 0; i < 50; i++ {
		m := newTestMonitor(true)

		recorders := make([]*recorder, 4)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for j := range recorders {
			recorders[j] = &recorder{}
			wg.Add(1)
			go func(rec *recorder) {
				defer wg.Done()
				<-start
				m.Subscribe(rec.callback)
			}(recorders[j])
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			m.setOnline(false)
			m.setOnline(true)
			m.setOnline(false)
		}()

		close(start)
		wg.Wait()

		for j, rec := range recorders {
			events := rec.snapshot()
			if len(events) == 0 {
				t.Fatalf("iteration %d subscriber %d: no initial callback", i, j)
			}
			for k := 1; k < len(events); k++ {
				if events[k] == events[k-1] {
					t.Fatalf("iteration %d subscriber %d: out-of-order delivery %v", i, j, events)
				}
			}
		}
	}
}

func TestFlappingDeliversEveryTransition(t *testing.T) {
	m := newTestMonitor(true)

	rec := &recorder{}
	m.Subscribe(rec.callback)

	m.setOnline(false)
	m.setOnline(true)
	m.setOnline(false)

	want := []bool{true, false, true, false}
	events := rec.snapshot()
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestStartAndStopLifecycle(t *testing.T) {
	prober := &fakeProber{online: true}
	m := NewMonitor(prober, 10*time.Millisecond, logger.NewNop())

	m.Start(context.Background())
	if !m.Online() {
		t.Fatal("expected the priming probe to report online")
	}

	rec := &recorder{}
	m.Subscribe(rec.callback)

	prober.set(false)
	deadline := time.After(5 * time.Second)
	for m.Online() {
		select {
		case <-deadline:
			t.Fatal("poll loop never observed the offline transition")
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()

	events := rec.snapshot()
	if len(events) < 2 || events[len(events)-1] != false {
		t.Fatalf("expected an offline notification, got %v", events)
	}
}

func TestHTTPProberAnyAnswerMeansOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even an error status proves the network path is up.
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if !NewHTTPProber(server.URL).Online(context.Background()) {
		t.Fatal("expected a reachable origin to count as online")
	}

	server.Close()
	if NewHTTPProber(server.URL).Online(context.Background()) {
		t.Fatal("expected a refused connection to count as offline")
	}
}
