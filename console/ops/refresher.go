package ops

import (
	"context"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"k8s.io/utils/clock"

	"github.com/luno/optconsole"
)

const DefaultResultInterval = 3 * time.Second

// Trigger is a set of one-shot refresh requests.
type Trigger uint8

const (
	// TriggerReady refreshes the graph, then the results if the graph
	// could be fetched.
	TriggerReady Trigger = 1 << iota
	// TriggerDone refreshes the results even when the graph fails.
	TriggerDone
)

type GraphRefresher interface {
	Refresh(ctx context.Context) (SyncResult, error)
}

type ResultRefresher interface {
	Refresh(ctx context.Context) error
}

type StateReader interface {
	Current() State
}

// Refresher runs graph and result refreshes on its own goroutine, both
// periodically while a job is active and when triggered by the poller.
type Refresher struct {
	graph    GraphRefresher
	results  ResultRefresher
	clock    clock.Clock
	interval time.Duration

	mu      sync.Mutex
	pending Trigger
	signal  chan struct{}
}

type RefresherOption func(*Refresher)

func WithRefresherClock(c clock.Clock) RefresherOption {
	return func(r *Refresher) {
		r.clock = c
	}
}

func WithResultInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.interval = d
	}
}

func NewRefresher(graph GraphRefresher, results ResultRefresher, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		graph:    graph,
		results:  results,
		clock:    clock.RealClock{},
		interval: DefaultResultInterval,
		signal:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fire queues a refresh. Triggers fired before the refresh runs are
// merged into one.
func (r *Refresher) Fire(t Trigger) {
	r.mu.Lock()
	r.pending |= t
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *Refresher) take() Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.pending
	r.pending = 0
	return t
}

// Run refreshes until the context is cancelled. The periodic refresh only
// runs while the poller reports an active job.
func (r *Refresher) Run(ctx context.Context, poller StateReader) error {
	for {
		t := r.clock.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-r.signal:
			t.Stop()
			r.Handle(ctx, r.take())
		case <-t.C():
			if poller.Current() == ConnectedActive {
				r.Handle(ctx, TriggerDone)
			}
		}
	}
}

// Handle performs the refreshes requested by t.
func (r *Refresher) Handle(ctx context.Context, t Trigger) {
	if t == 0 {
		return
	}
	res, graphErr := r.graph.Refresh(ctx)
	logRefreshErr(ctx, "graph", graphErr)

	if t&TriggerDone == 0 && graphErr != nil {
		return
	}
	logRefreshErr(ctx, "results", r.results.Refresh(ctx))

	if res != SyncNoop {
		log.Info(ctx, "graph refreshed", j.KV("result", res.String()))
	}
}

func logRefreshErr(ctx context.Context, what string, err error) {
	if err == nil {
		return
	} else if errors.Is(err, optconsole.ErrUnavailable) {
		log.Info(ctx, "refresh skipped, backend unavailable", j.KV("refresh", what))
		return
	}
	log.Error(ctx, errors.Wrap(err, "refresh failed", j.KV("refresh", what)))
}
