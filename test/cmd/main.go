package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/test/backend"
)

var (
	addr       = flag.String("addr", ":8080", "listen address of the simulated backend")
	iterations = flag.Int("iterations", 10, "iterations of a simulated run")
	step       = flag.Duration("step", time.Second, "duration of one simulated iteration")
)

// utilization levels a simulated element moves to, mostly lightly loaded.
var levels = []weighted[string]{
	{"0", 2},
	{"0.15", 4},
	{"0.35", 4},
	{"0.55", 3},
	{"0.75", 2},
	{"0.95", 1},
	{"1.2", 1},
}

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b := backend.New()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return serve(ctx, b.Handler(), *addr)
	})
	eg.Go(func() error {
		return simulate(ctx, b, rand.New(rand.NewSource(time.Now().UnixNano())))
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, h http.Handler, addr string) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           h,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Info(ctx, "simulated backend listening", j.KV("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// simulate starts a run whenever the backend accepted one and aborts it
// when a stop was requested.
func simulate(ctx context.Context, b *backend.Backend, r *rand.Rand) error {
	ti := time.NewTicker(*step)
	defer ti.Stop()

	var (
		runs, stops int
		iteration   int
		running     bool
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ti.C:
		}

		if n := b.Hits("stop"); n != stops {
			stops = n
			running = false
		}
		if n := b.Hits("run"); n != runs {
			runs = n
			running, iteration = true, 0
		}
		if !running {
			continue
		}

		iteration++
		perturb(b, r)
		b.PushMessage(fmt.Sprintf("iteration %d of %d", iteration, *iterations))
		b.PushOutput(fmt.Sprintf("iteration %d objective %s", iteration,
			decimal.NewFromFloat(r.Float64()*100).Round(3)))

		if iteration >= *iterations {
			running = false
			b.SetResults(randomResults(r))
			b.PushMessage(backend.MsgDone)
		}
	}
}

func perturb(b *backend.Backend, r *rand.Rand) {
	for _, els := range [][]api.Element{b.Servers(), b.Links()} {
		for _, el := range els {
			b.SetUtilization(el.ID(), decimal.RequireFromString(choose(r, levels)))
		}
	}
}

func randomResults(r *rand.Rand) *api.Results {
	summary := func() api.Summary {
		avg := r.Float64()
		return api.Summary{avg, avg / 2, (1 + avg) / 2, avg / 4}
	}
	graph := func() []api.GraphPoint {
		var pts []api.GraphPoint
		for i := 1; i <= 10; i++ {
			pts = append(pts, api.GraphPoint{
				Year:  decimal.New(int64(i), -1).StringFixed(1),
				Value: float64(r.Intn(5)),
			})
		}
		return pts
	}
	return &api.Results{
		LinkUtilization:        summary(),
		ServerUtilization:      summary(),
		FunctionsPerServer:     summary(),
		ServiceDelay:           summary(),
		LinkUtilizationGraph:   graph(),
		ServerUtilizationGraph: graph(),
		ServiceDelayGraph:      graph(),
		Cost:                   r.Float64() * 1000,
		ObjVal:                 r.Float64() * 100,
		ComputationTime:        r.Float64() * 10,
		AvgPathLength:          1 + r.Float64()*3,
		TotalTraffic:           r.Float64() * 500,
		TrafficLinks:           r.Float64() * 500,
		MigrationsNum:          r.Intn(5),
		ReplicationsNum:        r.Intn(5),
	}
}
