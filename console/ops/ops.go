package ops

import (
	"context"

	"github.com/luno/optconsole/api"
)

type MessageBoard interface {
	SetMessage(msg string)
}

type Controls interface {
	SetRunEnabled(enabled bool)
	SetStopEnabled(enabled bool)
}

// Canvas is the rendered graph. Apply takes a batch of patches which
// must be rendered as a single mutation.
type Canvas interface {
	Reset()
	Add(els ...api.Element)
	Apply(patches []api.Patch)
	Layout()
}

type Widgets interface {
	SetResults(r api.Results)
}

type Form interface {
	Scenario() api.Scenario
	ApplyPreset(model string, flags map[string]api.ConstraintFlag)
}

type StatusSource interface {
	GetMessage(ctx context.Context) (string, error)
}

type TopologySource interface {
	GetNodes(ctx context.Context) ([]api.Element, error)
	GetServers(ctx context.Context) ([]api.Element, error)
	GetLinks(ctx context.Context) ([]api.Element, error)
}

type ResultsSource interface {
	GetResults(ctx context.Context) (*api.Results, error)
}

type JobBackend interface {
	Load(ctx context.Context, s api.Scenario) (string, error)
	Run(ctx context.Context, s api.Scenario) (string, error)
	Stop(ctx context.Context) (string, error)
	GeneratePaths(ctx context.Context, s api.Scenario) (string, error)
	StartLinkOpt(ctx context.Context) (string, error)
	GetOutput(ctx context.Context) ([]string, error)
}

// Cadence is the part of the poller the controller talks to.
type Cadence interface {
	Mode() Mode
	RequestMode(m Mode)
	Post(line string)
}
