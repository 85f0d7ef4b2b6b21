package ops

import (
	"context"
	"strconv"

	"github.com/luno/optconsole/api"
)

const placeholderBuckets = 10

// ZeroResults is shown while no results are available.
func ZeroResults() api.Results {
	return api.Results{
		LinkUtilizationGraph:   zeroGraph(),
		ServerUtilizationGraph: zeroGraph(),
		ServiceDelayGraph:      zeroGraph(),
	}
}

func zeroGraph() []api.GraphPoint {
	g := make([]api.GraphPoint, 0, placeholderBuckets)
	for i := 1; i <= placeholderBuckets; i++ {
		g = append(g, api.GraphPoint{
			Year: strconv.FormatFloat(float64(i)/placeholderBuckets, 'f', 1, 64),
		})
	}
	return g
}

type Aggregator struct {
	src     ResultsSource
	widgets Widgets
}

func NewAggregator(src ResultsSource, widgets Widgets) *Aggregator {
	return &Aggregator{src: src, widgets: widgets}
}

// Refresh forwards the backend results to the widgets as they are.
func (a *Aggregator) Refresh(ctx context.Context) error {
	r, err := a.src.GetResults(ctx)
	if err != nil {
		resultRefreshes.WithLabelValues("unavailable").Inc()
		a.widgets.SetResults(ZeroResults())
		return err
	}
	if r == nil {
		resultRefreshes.WithLabelValues("empty").Inc()
		a.widgets.SetResults(ZeroResults())
		return nil
	}
	resultRefreshes.WithLabelValues("ok").Inc()
	a.widgets.SetResults(*r)
	return nil
}

func (a *Aggregator) Clear() {
	a.widgets.SetResults(ZeroResults())
}
