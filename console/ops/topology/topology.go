package topology

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/luno/optconsole/api"
)

var ErrShapeMismatch = errors.New("topology shape changed", j.C("ERR_3b7e0d92a1c64f58"))

type Change int

const (
	Unchanged Change = iota
	Updated
	Added
	Removed
)

func (c Change) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Set is one kind of element keyed by id, remembering the fetched order.
type Set struct {
	order []string
	byID  map[string]api.Element
}

func NewSet(els []api.Element) Set {
	s := Set{
		order: make([]string, 0, len(els)),
		byID:  make(map[string]api.Element, len(els)),
	}
	for _, e := range els {
		if _, dup := s.byID[e.ID()]; !dup {
			s.order = append(s.order, e.ID())
		}
		s.byID[e.ID()] = e
	}
	return s
}

func (s Set) Len() int {
	return len(s.order)
}

func (s Set) Get(id string) (api.Element, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Elements returns the elements in fetched order.
func (s Set) Elements() []api.Element {
	ret := make([]api.Element, 0, len(s.order))
	for _, id := range s.order {
		ret = append(ret, s.byID[id])
	}
	return ret
}

// Snapshot is the last applied view of the backend topology.
type Snapshot struct {
	Nodes   Set
	Servers Set
	Links   Set
}

func (s Snapshot) Len() int {
	return s.Nodes.Len() + s.Servers.Len() + s.Links.Len()
}

// Classify compares two sets by id. Elements present in both are updated
// when their color or label differ.
func Classify(prev, cur Set) map[string]Change {
	ret := make(map[string]Change, len(cur.byID))
	for id, p := range prev.byID {
		c, ok := cur.byID[id]
		if !ok {
			ret[id] = Removed
		} else if equal(p, c) {
			ret[id] = Unchanged
		} else {
			ret[id] = Updated
		}
	}
	for id := range cur.byID {
		if _, ok := prev.byID[id]; !ok {
			ret[id] = Added
		}
	}
	return ret
}

// Diff returns attribute patches turning prev into cur, in cur's order.
// Patches only carry the keys that changed. Any added or removed id
// returns ErrShapeMismatch.
func Diff(prev, cur Set) ([]api.Patch, error) {
	changes := Classify(prev, cur)
	for id, c := range changes {
		if c == Added || c == Removed {
			return nil, errors.Wrap(ErrShapeMismatch, "", j.MKV{
				"id":     id,
				"change": c.String(),
			})
		}
	}
	var patches []api.Patch
	for _, id := range cur.order {
		if changes[id] != Updated {
			continue
		}
		patches = append(patches, patch(prev.byID[id], cur.byID[id]))
	}
	return patches, nil
}

func equal(a, b api.Element) bool {
	return a.Data.FaveColor == b.Data.FaveColor && a.Data.Label == b.Data.Label
}

func patch(prev, cur api.Element) api.Patch {
	p := api.Patch{ID: cur.ID(), Data: make(map[string]string)}
	if prev.Data.FaveColor != cur.Data.FaveColor {
		p.Data[api.AttrColor] = cur.Data.FaveColor
	}
	if prev.Data.Label != cur.Data.Label {
		p.Data[api.AttrLabel] = cur.Data.Label
	}
	return p
}
