package ops

import (
	"context"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/console/ops/config"
	"github.com/luno/optconsole/console/view"
)

type fakeBackend struct {
	fail      bool
	scenarios []api.Scenario
	calls     []string
	output    []string
}

func (f *fakeBackend) do(cmd string) (string, error) {
	f.calls = append(f.calls, cmd)
	if f.fail {
		return "", optconsole.ErrUnavailable
	}
	return cmd + " ok", nil
}

func (f *fakeBackend) Load(_ context.Context, s api.Scenario) (string, error) {
	f.scenarios = append(f.scenarios, s)
	return f.do("load")
}

func (f *fakeBackend) Run(_ context.Context, s api.Scenario) (string, error) {
	f.scenarios = append(f.scenarios, s)
	return f.do("run")
}

func (f *fakeBackend) Stop(context.Context) (string, error) {
	return f.do("stop")
}

func (f *fakeBackend) GeneratePaths(_ context.Context, s api.Scenario) (string, error) {
	f.scenarios = append(f.scenarios, s)
	return f.do("paths")
}

func (f *fakeBackend) StartLinkOpt(context.Context) (string, error) {
	return f.do("link_opt")
}

func (f *fakeBackend) GetOutput(context.Context) ([]string, error) {
	if _, err := f.do("output"); err != nil {
		return nil, err
	}
	return f.output, nil
}

type fakeCadence struct {
	mode     Mode
	requests []Mode
	posted   []string
}

func (f *fakeCadence) Mode() Mode {
	return f.mode
}

func (f *fakeCadence) RequestMode(m Mode) {
	f.requests = append(f.requests, m)
	f.mode = m
}

func (f *fakeCadence) Post(line string) {
	f.posted = append(f.posted, line)
}

type fakeGraph struct {
	inits int
}

func (f *fakeGraph) Initialize(context.Context) error {
	f.inits++
	return nil
}

type controllerDeps struct {
	backend *fakeBackend
	cadence *fakeCadence
	panel   *view.Panel
	form    *view.Form
	graph   *fakeGraph
	widgets *view.Widgets
}

func newTestController() (*Controller, controllerDeps) {
	cfg := config.Default()
	d := controllerDeps{
		backend: new(fakeBackend),
		cadence: new(fakeCadence),
		panel:   view.NewPanel(),
		form:    view.NewForm(cfg.Constraints, cfg.DefaultFlags()),
		graph:   new(fakeGraph),
		widgets: view.NewWidgets(),
	}
	c := NewController(d.backend, d.form, cfg, d.cadence, d.panel, d.graph,
		NewAggregator(new(fakeResults), d.widgets))
	return c, d
}

func TestControllerRun(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	d.panel.SetRunEnabled(true)

	jtest.RequireNil(t, c.Run(ctx))

	assert.Equal(t, []Mode{ModeShort}, d.cadence.requests)
	assert.Equal(t, view.PanelState{RunEnabled: false, StopEnabled: true}, d.panel.State())
	assert.Equal(t, []string{"run"}, d.backend.calls)
	assert.Empty(t, d.cadence.posted)
}

func TestControllerRunRejected(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	d.backend.fail = true
	d.panel.SetRunEnabled(true)

	err := c.Run(ctx)
	jtest.Assert(t, ErrRejected, err)

	assert.Equal(t, []Mode{ModeShort, ModeLong}, d.cadence.requests)
	assert.Equal(t, ModeLong, d.cadence.mode)
	assert.Equal(t, view.PanelState{RunEnabled: true}, d.panel.State())
	require.Len(t, d.cadence.posted, 1)
	assert.Contains(t, d.cadence.posted[0], "run rejected")
}

func TestControllerRejectedWhileDisconnected(t *testing.T) {
	ctx := context.Background()
	p, status, board, _ := newTestPoller()
	status.push(msg("Info: solving"), unavailable)

	cfg := config.Default()
	backend := &fakeBackend{fail: true}
	c := NewController(backend, view.NewForm(cfg.Constraints, cfg.DefaultFlags()), cfg,
		p, board, new(fakeGraph), NewAggregator(new(fakeResults), view.NewWidgets()))

	p.Tick(ctx)
	p.Tick(ctx)
	require.Equal(t, Disconnected, p.Current())
	require.Equal(t, UnreachableMessage, board.last())

	err := c.Run(ctx)
	jtest.Assert(t, ErrRejected, err)

	p.Tick(ctx)
	p.Tick(ctx)
	assert.Equal(t, UnreachableMessage, board.last())
	assert.Equal(t, ModeLong, p.Mode())
	assert.Equal(t, []string{"Info: solving", "Error: run rejected by backend"}, p.State().Log)

	status.push(msg("Info: ready"))
	p.Tick(ctx)
	assert.Equal(t, "Info: solving\nError: run rejected by backend\nInfo: ready", board.last())
}

func TestControllerLoad(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()

	jtest.RequireNil(t, c.Load(ctx))

	assert.Equal(t, ModeShort, d.cadence.mode)
	assert.Equal(t, 1, d.graph.inits)
	assert.Equal(t, ZeroResults(), d.widgets.Results())
}

func TestControllerLoadRejected(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	d.backend.fail = true
	d.cadence.mode = ModeShort

	err := c.Load(ctx)
	jtest.Assert(t, ErrRejected, err)

	assert.Equal(t, ModeShort, d.cadence.mode)
	assert.Equal(t, 0, d.graph.inits)
	assert.Equal(t, int64(0), d.widgets.Writes())
}

func TestControllerStop(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	d.cadence.mode = ModeShort
	d.panel.SetStopEnabled(true)

	jtest.RequireNil(t, c.Stop(ctx))
	assert.Equal(t, view.PanelState{RunEnabled: true}, d.panel.State())
	assert.Equal(t, ModeLong, d.cadence.mode)

	d.backend.fail = true
	d.panel.SetStopEnabled(true)
	err := c.Stop(ctx)
	jtest.Assert(t, ErrRejected, err)
	assert.Equal(t, view.PanelState{RunEnabled: true, StopEnabled: true}, d.panel.State())
}

func TestControllerDiagnostics(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	d.backend.output = []string{"line 1", "line 2"}

	jtest.RequireNil(t, c.GeneratePaths(ctx))
	jtest.RequireNil(t, c.StartLinkOpt(ctx))
	lines, err := c.FetchOutput(ctx)
	jtest.RequireNil(t, err)

	assert.Equal(t, []string{"line 1", "line 2"}, lines)
	assert.Equal(t, []string{"paths ok", "link_opt ok", "line 1", "line 2"}, d.cadence.posted)
	assert.Empty(t, d.cadence.requests)
}

func TestBuildScenarioReadsForm(t *testing.T) {
	ctx := context.Background()
	c, d := newTestController()
	jtest.RequireNil(t, c.ApplyModelPreset("migration"))

	d.form.SetFields(view.Fields{InputFileName: "5n_8s", ObjectiveFunction: "num_servers"})
	s := c.BuildScenario()
	assert.Equal(t, "5n_8s", s.InputFileName)
	assert.Equal(t, "migration", s.Model)

	d.form.SetFields(view.Fields{InputFileName: "10n", Maximization: true})
	jtest.RequireNil(t, c.Run(ctx))
	require.Len(t, d.backend.scenarios, 1)
	assert.Equal(t, "10n", d.backend.scenarios[0].InputFileName)
	assert.True(t, d.backend.scenarios[0].Maximization)
}

func TestApplyModelPreset(t *testing.T) {
	cfg := config.Default()

	t.Run("replication after migration", func(t *testing.T) {
		c, d := newTestController()
		jtest.RequireNil(t, c.ApplyModelPreset("migration"))
		jtest.RequireNil(t, c.ApplyModelPreset("replication"))
		got := d.form.State()

		fresh, fd := newTestController()
		jtest.RequireNil(t, fresh.ApplyModelPreset("replication"))
		assert.Equal(t, fd.form.State(), got)

		exp, err := cfg.PresetFlags("replication")
		jtest.RequireNil(t, err)
		for _, f := range got.Flags {
			assert.Equal(t, exp[f.Name], f.ConstraintFlag, f.Name)
		}
		assert.Equal(t, "replication", got.Model)
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, name := range cfg.PresetNames() {
			c, _ := newTestController()
			jtest.RequireNil(t, c.ApplyModelPreset(name))
			once := c.BuildScenario()
			jtest.RequireNil(t, c.ApplyModelPreset(name))
			assert.Equal(t, once, c.BuildScenario(), name)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		c, d := newTestController()
		jtest.RequireNil(t, c.ApplyModelPreset("migration"))
		before := d.form.State()

		err := c.ApplyModelPreset("nope")
		jtest.Assert(t, config.ErrUnknownPreset, err)
		assert.Equal(t, before, d.form.State())
	})
}
