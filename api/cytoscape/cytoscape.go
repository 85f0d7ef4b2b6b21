package cytoscape

import "github.com/luno/optconsole/api"

type Layout string

// LayoutPreset places elements at the positions supplied by the backend.
const LayoutPreset Layout = "preset"

type EventType string

const (
	EventReset  EventType = "reset"
	EventAdd    EventType = "add"
	EventPatch  EventType = "patch"
	EventLayout EventType = "layout"
)

type Elements struct {
	Nodes []api.Element `json:"nodes"`
	Edges []api.Element `json:"edges"`
}

// Graph is the full rendering state of the canvas at a version.
type Graph struct {
	Version  int64    `json:"version"`
	Layout   Layout   `json:"layout"`
	Elements Elements `json:"elements"`
}

// Event describes a single canvas mutation, streamed to viewers so they
// can patch their rendering instead of reloading the whole graph.
type Event struct {
	Type     EventType     `json:"type"`
	Version  int64         `json:"version"`
	Elements []api.Element `json:"elements,omitempty"`
	Patches  []api.Patch   `json:"patches,omitempty"`
}
