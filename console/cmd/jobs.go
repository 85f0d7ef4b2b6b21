package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/console/ops"
)

var follow bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the input topology on the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, (*ops.Controller).Load)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an optimization run for the scenario",
	Long: `Run sends the scenario given by the flags to the backend. With --follow the
status is polled until the backend reports the run as done and the results are
printed.`,
	RunE: runRun,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running optimization",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, (*ops.Controller).Stop)
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Generate candidate paths for the scenario",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, (*ops.Controller).GeneratePaths)
	},
}

var linkOptCmd = &cobra.Command{
	Use:   "link-opt",
	Short: "Start the link optimization",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, (*ops.Controller).StartLinkOpt)
	},
}

func init() {
	runCmd.Flags().BoolVar(&follow, "follow", false, "poll until the run is done and print the results")
	runCmd.Flags().Duration("follow_timeout", 30*time.Minute, "give up following after this long")
	_ = viper.BindPFlag("follow_timeout", runCmd.Flags().Lookup("follow_timeout"))

	rootCmd.AddCommand(loadCmd, runCmd, stopCmd, pathsCmd, linkOptCmd)
}

// oneShot builds a console for a single command.
func oneShot() (*console, error) {
	cfg, err := loadConsoleConfig()
	if err != nil {
		return nil, err
	}
	c := newConsole(cfg, newClient(), nil, nil)
	if err := c.fillForm(); err != nil {
		return nil, err
	}
	return c, nil
}

type jobReport struct {
	Command  string       `json:"command"`
	Scenario api.Scenario `json:"scenario"`
	Log      []string     `json:"log"`
}

func runJob(cmd *cobra.Command, fn func(*ops.Controller, context.Context) error) error {
	c, err := oneShot()
	if err != nil {
		return err
	}
	err = fn(c.controller, cmd.Context())
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), jobReport{
		Command:  cmd.Name(),
		Scenario: c.controller.BuildScenario(),
		Log:      c.poller.State().Log,
	})
}

func runRun(cmd *cobra.Command, _ []string) error {
	c, err := oneShot()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	err = c.controller.Run(ctx)
	if err != nil {
		return err
	}
	if !follow {
		return printReport(cmd.OutOrStdout(), jobReport{
			Command:  "run",
			Scenario: c.controller.BuildScenario(),
			Log:      c.poller.State().Log,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("follow_timeout"))
	defer cancel()
	err = followRun(ctx, c, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	_ = c.aggregator.Refresh(ctx)
	return printResults(cmd.OutOrStdout(), c.widgets.Results())
}

// followRun ticks the poller until the backend reports the run as done,
// or a job it has seen running goes idle.
func followRun(ctx context.Context, c *console, w io.Writer) error {
	t := time.NewTicker(ops.DefaultShortInterval)
	defer t.Stop()

	seenActive := c.poller.Current() == ops.ConnectedActive
	var last string
	for {
		cat := c.poller.Tick(ctx)

		st := c.poller.State()
		if n := len(st.Log); n > 0 && st.Log[n-1] != last {
			last = st.Log[n-1]
			fmt.Fprintln(w, last)
		}
		if cat == ops.CategoryTerminal {
			return nil
		}

		switch st.State {
		case ops.ConnectedActive:
			seenActive = true
		case ops.ConnectedIdle:
			if seenActive {
				return nil
			}
		case ops.Disconnected:
			if seenActive {
				return errors.Wrap(optconsole.ErrUnavailable, "lost backend while following")
			}
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "follow run", j.KV("seen_active", seenActive))
		case <-t.C:
		}
	}
}

func printReport(w io.Writer, r jobReport) error {
	if isJSONOutput() {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "%s accepted\n", r.Command)
	if len(r.Log) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Message")
	for _, l := range r.Log {
		table.Append(l)
	}
	table.Render()
	return nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
