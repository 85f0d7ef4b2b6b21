package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/api/cytoscape"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print the latest optimization results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := oneShot()
		if err != nil {
			return err
		}
		err = c.aggregator.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		return printResults(cmd.OutOrStdout(), c.widgets.Results())
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the network graph as the dashboard renders it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := oneShot()
		if err != nil {
			return err
		}
		err = c.sync.Initialize(cmd.Context())
		if err != nil {
			return err
		}
		return printGraph(cmd.OutOrStdout(), c.canvas.Graph())
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List model presets and the constraint flags they set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConsoleConfig()
		if err != nil {
			return err
		}
		all := make(map[string]map[string]api.ConstraintFlag)
		for _, name := range cfg.PresetNames() {
			flags, err := cfg.PresetFlags(name)
			if err != nil {
				return err
			}
			all[name] = flags
		}
		if isJSONOutput() {
			return printJSON(cmd.OutOrStdout(), all)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		header := []any{"Constraint"}
		for _, name := range cfg.PresetNames() {
			header = append(header, name)
		}
		table.Header(header...)
		for _, constraint := range cfg.Constraints {
			row := []any{constraint}
			for _, name := range cfg.PresetNames() {
				row = append(row, flagCell(all[name][constraint]))
			}
			table.Append(row...)
		}
		table.Render()
		return nil
	},
}

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Print pending optimizer output",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := oneShot()
		if err != nil {
			return err
		}
		lines, err := c.controller.FetchOutput(cmd.Context())
		if err != nil {
			return err
		}
		if isJSONOutput() {
			return printJSON(cmd.OutOrStdout(), lines)
		}
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd, graphCmd, presetsCmd, outputCmd)
}

func flagCell(f api.ConstraintFlag) string {
	s := "off"
	if f.Checked {
		s = "on"
	}
	if f.Disabled {
		s += " (locked)"
	}
	return s
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func printResults(w io.Writer, r api.Results) error {
	if isJSONOutput() {
		return printJSON(w, r)
	}

	summary := tablewriter.NewWriter(w)
	summary.Header("Metric", "Avg", "Min", "Max", "Std")
	for _, row := range []struct {
		name string
		s    api.Summary
	}{
		{"link utilization", r.LinkUtilization},
		{"server utilization", r.ServerUtilization},
		{"functions per server", r.FunctionsPerServer},
		{"service delay", r.ServiceDelay},
	} {
		summary.Append(row.name, fmtFloat(row.s[0]), fmtFloat(row.s[1]), fmtFloat(row.s[2]), fmtFloat(row.s[3]))
	}
	summary.Render()

	totals := tablewriter.NewWriter(w)
	totals.Header("Total", "Value")
	totals.Append("cost", fmtFloat(r.Cost))
	totals.Append("objective", fmtFloat(r.ObjVal))
	totals.Append("computation time", fmtFloat(r.ComputationTime))
	totals.Append("avg path length", fmtFloat(r.AvgPathLength))
	totals.Append("total traffic", fmtFloat(r.TotalTraffic))
	totals.Append("traffic on links", fmtFloat(r.TrafficLinks))
	totals.Append("migrations", strconv.Itoa(r.MigrationsNum))
	totals.Append("replications", strconv.Itoa(r.ReplicationsNum))
	totals.Render()
	return nil
}

func printGraph(w io.Writer, g cytoscape.Graph) error {
	if isJSONOutput() {
		return printJSON(w, g)
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Kind", "Label", "Color", "Endpoints")
	rows := append(append([]api.Element{}, g.Elements.Nodes...), g.Elements.Edges...)
	for _, el := range rows {
		kind, ends := "node", ""
		if el.IsEdge() {
			kind, ends = "link", el.Data.Source+" -> "+el.Data.Target
		}
		table.Append(el.ID(), kind, el.Data.Label, el.Data.FaveColor, ends)
	}
	table.Render()
	fmt.Fprintf(w, "\nVersion: %d\n", g.Version)
	return nil
}
