package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	jlog "github.com/luno/jettison/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/console/handlers"
	"github.com/luno/optconsole/console/ops"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the backend and serve the live dashboard",
	Long: `Watch polls the backend status, keeps the network graph and result widgets
up to date and serves them as a dashboard. Job commands can be sent from the
dashboard. Prometheus metrics are served on the debug listener.`,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.String("listen", ":8050", "dashboard listen address")
	f.String("debug_listen", ":8051", "metrics listen address, empty to disable")
	f.Duration("short_interval", ops.DefaultShortInterval, "status poll interval while a command is in flight")
	f.Duration("long_interval", ops.DefaultLongInterval, "status poll interval otherwise")
	f.Duration("result_interval", ops.DefaultResultInterval, "results refresh interval while a job runs")
	f.String("web_build", "", "directory with a built web app to serve under /console/")
	f.Float64("control_rate", 1, "job commands per second accepted from the dashboard")
	f.Int("control_burst", 3, "burst of job commands accepted from the dashboard")

	for _, name := range []string{
		"listen", "debug_listen", "short_interval", "long_interval",
		"result_interval", "web_build", "control_rate", "control_burst",
	} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConsoleConfig()
	if err != nil {
		return err
	}
	c := newConsole(cfg, newClient(optconsole.WithMetrics(clientMetrics())),
		[]ops.PollerOption{ops.WithIntervals(
			viper.GetDuration("short_interval"),
			viper.GetDuration("long_interval"),
		)},
		[]ops.RefresherOption{ops.WithResultInterval(viper.GetDuration("result_interval"))},
	)
	if err := c.fillForm(); err != nil {
		return err
	}

	jlog.Info(ctx, "watching backend", j.KV("backend", c.client.BaseURL()))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return c.poller.Run(ctx)
	})
	eg.Go(func() error {
		return c.refresher.Run(ctx, c.poller)
	})
	eg.Go(func() error {
		r := handlers.CreateRouter(ctx, c,
			handlers.WithWebBuild(viper.GetString("web_build")),
			handlers.WithControlLimit(viper.GetFloat64("control_rate"), viper.GetInt("control_burst")),
		)
		return runWebServer(ctx, r, viper.GetString("listen"))
	})
	if addr := viper.GetString("debug_listen"); addr != "" {
		eg.Go(func() error {
			return runWebServer(ctx, handlers.CreateDebugRouter(), addr)
		})
	}

	err = eg.Wait()
	if errors.IsAny(err, context.Canceled) {
		return nil
	}
	return err
}

func runWebServer(ctx context.Context, router *httprouter.Router, addr string) error {
	srv := &http.Server{
		BaseContext:       func(listener net.Listener) context.Context { return ctx },
		Handler:           router,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go shutdownOnCancel(ctx, srv)
	jlog.Info(ctx, "server listening", j.KV("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen", j.KV("addr", addr))
	}
	jlog.Info(ctx, "server terminated", j.KV("addr", addr))
	return nil
}

func shutdownOnCancel(ctx context.Context, server *http.Server) {
	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	jlog.Info(ctx, "shutting down http server")
	_ = server.Shutdown(ctx)
}
