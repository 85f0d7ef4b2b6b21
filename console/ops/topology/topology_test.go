package topology

import (
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/optconsole/api"
)

func server(id, color, label string) api.Element {
	return api.Element{
		Data:     api.ElementData{ID: id, FaveColor: color, Label: label, FaveShape: "rectangle"},
		Position: &api.Position{X: 1, Y: 2},
	}
}

func link(id, src, tgt, color, label string) api.Element {
	return api.Element{
		Data: api.ElementData{ID: id, Source: src, Target: tgt, FaveColor: color, Label: label},
	}
}

func TestNewSet(t *testing.T) {
	s := NewSet([]api.Element{
		server("s2", "red", "B"),
		server("s1", "red", "A"),
		server("s2", "blue", "B"),
	})
	assert.Equal(t, 2, s.Len())

	els := s.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "s2", els[0].ID())
	assert.Equal(t, "blue", els[0].Data.FaveColor)
	assert.Equal(t, "s1", els[1].ID())

	_, ok := s.Get("s3")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	prev := NewSet([]api.Element{
		server("same", "red", "A"),
		server("color", "red", "A"),
		server("label", "red", "A"),
		server("gone", "red", "A"),
	})
	cur := NewSet([]api.Element{
		server("label", "red", "B"),
		server("color", "blue", "A"),
		server("same", "red", "A"),
		server("new", "red", "A"),
	})

	assert.Equal(t, map[string]Change{
		"same":  Unchanged,
		"color": Updated,
		"label": Updated,
		"gone":  Removed,
		"new":   Added,
	}, Classify(prev, cur))
}

func TestClassifyIgnoresPosition(t *testing.T) {
	a := server("s1", "red", "A")
	b := server("s1", "red", "A")
	b.Position = &api.Position{X: 100, Y: 100}
	b.Data.Width = 40

	assert.Equal(t, map[string]Change{"s1": Unchanged},
		Classify(NewSet([]api.Element{a}), NewSet([]api.Element{b})))
}

func TestDiff(t *testing.T) {
	testCases := []struct {
		name       string
		prev       []api.Element
		cur        []api.Element
		expPatches []api.Patch
		expErr     error
	}{
		{
			name: "empty",
		},
		{
			name: "unchanged",
			prev: []api.Element{server("s1", "red", "A"), link("l1", "s1", "s2", "Gray", "0.1")},
			cur:  []api.Element{server("s1", "red", "A"), link("l1", "s1", "s2", "Gray", "0.1")},
		},
		{
			name: "color only",
			prev: []api.Element{server("s1", "red", "A")},
			cur:  []api.Element{server("s1", "blue", "A")},
			expPatches: []api.Patch{
				{ID: "s1", Data: map[string]string{api.AttrColor: "blue"}},
			},
		},
		{
			name: "reordered fetch is not a change",
			prev: []api.Element{server("s1", "red", "A"), server("s2", "red", "B")},
			cur:  []api.Element{server("s2", "red", "B"), server("s1", "red", "A")},
		},
		{
			name: "patches follow current order",
			prev: []api.Element{server("s1", "red", "A"), server("s2", "red", "B")},
			cur:  []api.Element{server("s2", "red", "C"), server("s1", "Gold", "D")},
			expPatches: []api.Patch{
				{ID: "s2", Data: map[string]string{api.AttrLabel: "C"}},
				{ID: "s1", Data: map[string]string{api.AttrColor: "Gold", api.AttrLabel: "D"}},
			},
		},
		{
			name:   "added",
			prev:   []api.Element{server("s1", "red", "A")},
			cur:    []api.Element{server("s1", "red", "A"), server("s2", "red", "A")},
			expErr: ErrShapeMismatch,
		},
		{
			name:   "removed",
			prev:   []api.Element{server("s1", "red", "A"), server("s2", "red", "A")},
			cur:    []api.Element{server("s1", "blue", "A")},
			expErr: ErrShapeMismatch,
		},
		{
			name:   "same count different ids",
			prev:   []api.Element{server("s1", "red", "A")},
			cur:    []api.Element{server("s9", "red", "A")},
			expErr: ErrShapeMismatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			patches, err := Diff(NewSet(tc.prev), NewSet(tc.cur))
			jtest.Require(t, tc.expErr, err)
			assert.Equal(t, tc.expPatches, patches)
		})
	}
}
