package ops

import (
	"context"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/log"

	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/console/ops/topology"
)

type SyncResult int

const (
	SyncNoop SyncResult = iota
	SyncPatched
	SyncReloaded
)

func (r SyncResult) String() string {
	switch r {
	case SyncNoop:
		return "noop"
	case SyncPatched:
		return "patched"
	case SyncReloaded:
		return "reloaded"
	default:
		return "unknown"
	}
}

// Synchronizer keeps the canvas consistent with the backend topology,
// patching changed elements instead of redrawing the graph.
type Synchronizer struct {
	src    TopologySource
	canvas Canvas

	mu    sync.Mutex
	snap  topology.Snapshot
	valid bool
}

func NewSynchronizer(src TopologySource, canvas Canvas) *Synchronizer {
	return &Synchronizer{src: src, canvas: canvas}
}

// Initialize clears the canvas and draws the full topology. When a fetch
// fails the canvas stays empty and the next Refresh initializes again.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked(ctx)
}

func (s *Synchronizer) initializeLocked(ctx context.Context) error {
	s.valid = false
	s.snap = topology.Snapshot{}
	s.canvas.Reset()

	nodes, err := s.src.GetNodes(ctx)
	if err != nil {
		return err
	}
	servers, err := s.src.GetServers(ctx)
	if err != nil {
		return err
	}
	links, err := s.src.GetLinks(ctx)
	if err != nil {
		return err
	}

	snap := topology.Snapshot{
		Nodes:   topology.NewSet(nodes),
		Servers: topology.NewSet(servers),
		Links:   topology.NewSet(links),
	}
	els := make([]api.Element, 0, snap.Len())
	els = append(els, snap.Nodes.Elements()...)
	els = append(els, snap.Servers.Elements()...)
	els = append(els, snap.Links.Elements()...)
	if len(els) > 0 {
		s.canvas.Add(els...)
	}
	s.canvas.Layout()

	s.snap = snap
	s.valid = true
	syncRefreshes.WithLabelValues(SyncReloaded.String()).Inc()
	return nil
}

// Refresh fetches servers and links and patches the elements whose color
// or label changed. Nothing is rendered when nothing changed. A change in
// the set of elements reloads the whole topology.
func (s *Synchronizer) Refresh(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		return SyncReloaded, s.initializeLocked(ctx)
	}

	servers, err := s.src.GetServers(ctx)
	if err != nil {
		return SyncNoop, err
	}
	links, err := s.src.GetLinks(ctx)
	if err != nil {
		return SyncNoop, err
	}
	serverSet := topology.NewSet(servers)
	linkSet := topology.NewSet(links)

	patches, err := topology.Diff(s.snap.Servers, serverSet)
	if err == nil {
		var lp []api.Patch
		lp, err = topology.Diff(s.snap.Links, linkSet)
		patches = append(patches, lp...)
	}
	if errors.Is(err, topology.ErrShapeMismatch) {
		log.Info(ctx, "topology shape changed, reloading", log.WithError(err))
		syncRefreshes.WithLabelValues("mismatch").Inc()
		return SyncReloaded, s.initializeLocked(ctx)
	} else if err != nil {
		return SyncNoop, err
	}

	if len(patches) == 0 {
		syncRefreshes.WithLabelValues(SyncNoop.String()).Inc()
		return SyncNoop, nil
	}

	s.canvas.Apply(patches)
	s.canvas.Layout()
	s.snap.Servers = serverSet
	s.snap.Links = linkSet

	syncPatches.Add(float64(len(patches)))
	syncRefreshes.WithLabelValues(SyncPatched.String()).Inc()
	return SyncPatched, nil
}

// Snapshot returns the last applied topology and whether it is valid.
func (s *Synchronizer) Snapshot() (topology.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.valid
}
