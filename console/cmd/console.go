package cmd

import (
	"strconv"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/spf13/viper"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/console/handlers"
	"github.com/luno/optconsole/console/ops"
	"github.com/luno/optconsole/console/ops/config"
	"github.com/luno/optconsole/console/view"
)

var constraintFlags map[string]string

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("input", "", "input topology file name")
	pf.String("objective", "", "objective function")
	pf.Bool("maximization", false, "maximize the objective instead of minimizing it")
	pf.String("weights", "", "objective weights")
	pf.String("model", "initial_placement", "model preset")
	pf.StringToStringVar(&constraintFlags, "flag", nil, "constraint overrides, e.g. --flag noParallelPaths=false")

	for _, name := range []string{"input", "objective", "maximization", "weights", "model"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

// console wires the view model to the backend.
type console struct {
	cfg    config.Config
	client *optconsole.Client

	panel   *view.Panel
	form    *view.Form
	canvas  *view.Canvas
	widgets *view.Widgets

	sync       *ops.Synchronizer
	aggregator *ops.Aggregator
	refresher  *ops.Refresher
	poller     *ops.Poller
	controller *ops.Controller
}

func newConsole(cfg config.Config, cli *optconsole.Client,
	popts []ops.PollerOption, ropts []ops.RefresherOption,
) *console {
	c := &console{
		cfg:     cfg,
		client:  cli,
		panel:   view.NewPanel(),
		form:    view.NewForm(cfg.Constraints, cfg.DefaultFlags()),
		canvas:  view.NewCanvas(),
		widgets: view.NewWidgets(),
	}
	c.sync = ops.NewSynchronizer(cli, c.canvas)
	c.aggregator = ops.NewAggregator(cli, c.widgets)
	c.refresher = ops.NewRefresher(c.sync, c.aggregator, ropts...)

	popts = append([]ops.PollerOption{ops.WithLogCapacity(cfg.LogCapacity)}, popts...)
	c.poller = ops.NewPoller(cli, ops.StatusClassifier(cfg.Status), c.panel, c.panel, c.refresher, popts...)
	c.controller = ops.NewController(cli, c.form, cfg, c.poller, c.panel, c.sync, c.aggregator)
	return c
}

// fillForm sets the scenario form from flags and config.
func (c *console) fillForm() error {
	err := c.controller.ApplyModelPreset(viper.GetString("model"))
	if err != nil {
		return err
	}
	c.form.SetFields(view.Fields{
		InputFileName:     viper.GetString("input"),
		ObjectiveFunction: viper.GetString("objective"),
		Maximization:      viper.GetBool("maximization"),
		Weights:           viper.GetString("weights"),
	})

	flags := make(map[string]bool, len(constraintFlags))
	for name, v := range constraintFlags {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "invalid constraint flag", j.KV("flag", name))
		}
		flags[name] = b
	}
	return c.form.Apply(view.Update{Flags: flags})
}

func (c *console) Panel() *view.Panel          { return c.panel }
func (c *console) Form() *view.Form            { return c.form }
func (c *console) Canvas() *view.Canvas        { return c.canvas }
func (c *console) Widgets() *view.Widgets      { return c.widgets }
func (c *console) Poller() handlers.Poller     { return c.poller }
func (c *console) Controller() *ops.Controller { return c.controller }
func (c *console) PresetNames() []string       { return c.cfg.PresetNames() }

var _ handlers.Deps = (*console)(nil)
