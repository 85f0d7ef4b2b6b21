package view

import (
	"sync"

	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/api/cytoscape"
)

// Canvas is the rendered topology. Every mutation bumps the version and
// is published to subscribers as a cytoscape event, in version order.
type Canvas struct {
	mu      sync.RWMutex
	version int64
	order   []string
	els     map[string]api.Element

	events feed[cytoscape.Event]
}

func NewCanvas() *Canvas {
	return &Canvas{els: make(map[string]api.Element)}
}

func (c *Canvas) Reset() {
	c.mu.Lock()
	c.order = nil
	c.els = make(map[string]api.Element)
	ev := c.bump(cytoscape.Event{Type: cytoscape.EventReset})
	c.events.publish(ev)
	c.mu.Unlock()
}

// Add inserts elements, replacing any with the same id.
func (c *Canvas) Add(els ...api.Element) {
	c.mu.Lock()
	for _, e := range els {
		if _, ok := c.els[e.ID()]; !ok {
			c.order = append(c.order, e.ID())
		}
		c.els[e.ID()] = e
	}
	ev := c.bump(cytoscape.Event{Type: cytoscape.EventAdd, Elements: els})
	c.events.publish(ev)
	c.mu.Unlock()
}

// Apply sets the patched attributes as one batch. Patches for unknown
// ids are ignored.
func (c *Canvas) Apply(patches []api.Patch) {
	c.mu.Lock()
	for _, p := range patches {
		e, ok := c.els[p.ID]
		if !ok {
			continue
		}
		for k, v := range p.Data {
			switch k {
			case api.AttrColor:
				e.Data.FaveColor = v
			case api.AttrLabel:
				e.Data.Label = v
			}
		}
		c.els[p.ID] = e
	}
	ev := c.bump(cytoscape.Event{Type: cytoscape.EventPatch, Patches: patches})
	c.events.publish(ev)
	c.mu.Unlock()
}

// Layout runs the preset layout pass.
func (c *Canvas) Layout() {
	c.mu.Lock()
	ev := c.bump(cytoscape.Event{Type: cytoscape.EventLayout})
	c.events.publish(ev)
	c.mu.Unlock()
}

func (c *Canvas) bump(ev cytoscape.Event) cytoscape.Event {
	c.version++
	ev.Version = c.version
	return ev
}

// Version counts mutations since creation.
func (c *Canvas) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Canvas) Get(id string) (api.Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.els[id]
	return e, ok
}

func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *Canvas) Graph() cytoscape.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g := cytoscape.Graph{
		Version: c.version,
		Layout:  cytoscape.LayoutPreset,
		Elements: cytoscape.Elements{
			Nodes: []api.Element{},
			Edges: []api.Element{},
		},
	}
	for _, id := range c.order {
		e := c.els[id]
		if e.IsEdge() {
			g.Elements.Edges = append(g.Elements.Edges, e)
		} else {
			g.Elements.Nodes = append(g.Elements.Nodes, e)
		}
	}
	return g
}

// Subscribe streams canvas events. The buffer bounds how far a viewer
// may fall behind before events are dropped, viewers detect gaps from
// the version and reload the graph.
func (c *Canvas) Subscribe(buf int) (<-chan cytoscape.Event, func()) {
	return c.events.subscribe(buf)
}
