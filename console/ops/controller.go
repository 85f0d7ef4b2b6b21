package ops

import (
	"context"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/luno/optconsole/api"
)

// ErrRejected is returned when the backend did not accept a job command.
var ErrRejected = errors.New("job command rejected", j.C("ERR_a84c17e5f90d2b36"))

type Presets interface {
	PresetFlags(name string) (map[string]api.ConstraintFlag, error)
}

type GraphInitializer interface {
	Initialize(ctx context.Context) error
}

type ResultClearer interface {
	Clear()
}

// Controller sends operator commands to the backend. Commands run one at
// a time.
type Controller struct {
	backend  JobBackend
	form     Form
	presets  Presets
	cadence  Cadence
	controls Controls
	graph    GraphInitializer
	results  ResultClearer

	mu sync.Mutex
}

func NewController(backend JobBackend, form Form, presets Presets, cadence Cadence,
	controls Controls, graph GraphInitializer, results ResultClearer,
) *Controller {
	return &Controller{
		backend:  backend,
		form:     form,
		presets:  presets,
		cadence:  cadence,
		controls: controls,
		graph:    graph,
		results:  results,
	}
}

// BuildScenario reads the form as it is now.
func (c *Controller) BuildScenario() api.Scenario {
	return c.form.Scenario()
}

// ApplyModelPreset selects a model and resets every constraint flag to
// the preset's values. Unknown presets leave the form untouched.
func (c *Controller) ApplyModelPreset(name string) error {
	flags, err := c.presets.PresetFlags(name)
	if err != nil {
		return err
	}
	c.form.ApplyPreset(name, flags)
	return nil
}

func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.cadence.Mode()
	c.cadence.RequestMode(ModeShort)
	_, err := c.backend.Load(ctx, c.form.Scenario())
	if err != nil {
		return c.reject(ctx, "load", prev, err)
	}
	commands.WithLabelValues("load", "ok").Inc()

	c.results.Clear()
	err = c.graph.Initialize(ctx)
	if err != nil {
		log.Info(ctx, "graph not loaded", log.WithError(err))
	}
	return nil
}

func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.cadence.Mode()
	c.cadence.RequestMode(ModeShort)
	_, err := c.backend.Run(ctx, c.form.Scenario())
	if err != nil {
		return c.reject(ctx, "run", prev, err)
	}
	commands.WithLabelValues("run", "ok").Inc()

	c.controls.SetRunEnabled(false)
	c.controls.SetStopEnabled(true)
	return nil
}

func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.backend.Stop(ctx)
	if err != nil {
		return c.reject(ctx, "stop", c.cadence.Mode(), err)
	}
	commands.WithLabelValues("stop", "ok").Inc()

	c.controls.SetRunEnabled(true)
	c.controls.SetStopEnabled(false)
	c.cadence.RequestMode(ModeLong)
	return nil
}

// GeneratePaths asks the backend to compute candidate paths for the
// current scenario. The answer is posted to the message log.
func (c *Controller) GeneratePaths(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ack, err := c.backend.GeneratePaths(ctx, c.form.Scenario())
	if err != nil {
		return c.reject(ctx, "paths", c.cadence.Mode(), err)
	}
	commands.WithLabelValues("paths", "ok").Inc()
	c.cadence.Post(ack)
	return nil
}

func (c *Controller) StartLinkOpt(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ack, err := c.backend.StartLinkOpt(ctx)
	if err != nil {
		return c.reject(ctx, "link_opt", c.cadence.Mode(), err)
	}
	commands.WithLabelValues("link_opt", "ok").Inc()
	c.cadence.Post(ack)
	return nil
}

// FetchOutput posts pending optimizer output to the message log.
func (c *Controller) FetchOutput(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.backend.GetOutput(ctx)
	if err != nil {
		return nil, c.reject(ctx, "output", c.cadence.Mode(), err)
	}
	commands.WithLabelValues("output", "ok").Inc()
	for _, l := range lines {
		c.cadence.Post(l)
	}
	return lines, nil
}

func (c *Controller) reject(ctx context.Context, cmd string, prev Mode, err error) error {
	c.cadence.RequestMode(prev)
	commands.WithLabelValues(cmd, "rejected").Inc()
	c.cadence.Post("Error: " + cmd + " rejected by backend")
	log.Info(ctx, "job command rejected", j.KV("command", cmd), log.WithError(err))
	return errors.Wrap(ErrRejected, "", j.KV("command", cmd))
}
