package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/optconsole/api"
)

func TestDecodeConfig(t *testing.T) {
	testCases := []struct {
		name      string
		yaml      string
		expConfig Config
		expError  bool
	}{
		{name: "empty", expConfig: Config{LogCapacity: DefaultLogCapacity}},
		{name: "single preset",
			yaml: `
constraints:
  - a
  - b
presets:
  - name: "only_a"
    force:
      b: false
    disable:
      - b
`,
			expConfig: Config{
				LogCapacity: DefaultLogCapacity,
				Constraints: []string{"a", "b"},
				Presets: []Preset{
					{Name: "only_a", Force: map[string]bool{"b": false}, Disable: []string{"b"}},
				},
			},
		},
		{name: "status patterns",
			yaml: `
log_capacity: 3
status:
  idle: ["*ready*"]
  terminal: ["*done*"]
`,
			expConfig: Config{
				LogCapacity: 3,
				Status:      Status{Idle: []string{"*ready*"}, Terminal: []string{"*done*"}},
			},
		},
		{name: "unknown field",
			yaml: `
notpresets:
  - name: "exchange"
`,
			expError: true,
		},
		{name: "log capacity too large", yaml: "log_capacity: 101", expError: true},
		{name: "log capacity zero", yaml: "log_capacity: 0", expError: true},
		{name: "duplicate constraint",
			yaml: `
constraints: [a, a]
`,
			expError: true,
		},
		{name: "duplicate preset",
			yaml: `
presets:
  - name: x
  - name: x
`,
			expError: true,
		},
		{name: "preset references unknown constraint",
			yaml: `
constraints: [a]
presets:
  - name: x
    disable: [b]
`,
			expError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := decodeConfig([]byte(tc.yaml))
			require.Equal(t, tc.expError, err != nil)
			assert.Equal(t, tc.expConfig, c)
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultLogCapacity, c.LogCapacity)
	assert.Len(t, c.Constraints, 11)
	assert.Equal(t, []string{
		"initial_placement",
		"migration",
		"replication",
		"migration_replication",
		"all_optimization_models",
		"migration_replication_rl",
	}, c.PresetNames())
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	jtest.RequireNil(t, err)
	assert.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "console.yaml")
	err = os.WriteFile(path, []byte("log_capacity: 5\n"), 0o600)
	jtest.RequireNil(t, err)

	c, err = Load(path)
	jtest.RequireNil(t, err)
	assert.Equal(t, 5, c.LogCapacity)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	s := Default().Status

	testCases := []struct {
		msg         string
		expIdle     bool
		expTerminal bool
	}{
		{msg: "INFO - backend is ready", expIdle: true},
		{msg: "topology loaded", expIdle: true},
		{msg: "  Topology Loaded\n", expIdle: true},
		{msg: "Info: please, load the topology", expIdle: true},
		{msg: "done", expTerminal: true},
		{msg: "Optimization DONE", expTerminal: true},
		{msg: "iteration 3 of 10"},
		{msg: "Error: optimizer already running"},
		{msg: "topology loaded from cache, not ready"},
		{msg: "abandoned"},
		{msg: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.expIdle, s.IsIdle(tc.msg))
			assert.Equal(t, tc.expTerminal, s.IsTerminal(tc.msg))
		})
	}
}

func TestPresetFlags(t *testing.T) {
	c := Default()

	t.Run("initial placement", func(t *testing.T) {
		flags, err := c.PresetFlags("initial_placement")
		jtest.RequireNil(t, err)
		for _, name := range c.Constraints {
			f := flags[name]
			assert.False(t, f.Disabled, name)
			switch name {
			case "initialPlacementAsConstraints", "synchronizationTraffic":
				assert.False(t, f.Checked, name)
			default:
				assert.True(t, f.Checked, name)
			}
		}
	})

	t.Run("rl disables everything", func(t *testing.T) {
		flags, err := c.PresetFlags("migration_replication_rl")
		jtest.RequireNil(t, err)
		require.Len(t, flags, len(c.Constraints))
		for name, f := range flags {
			assert.Equal(t, api.ConstraintFlag{Disabled: true}, f, name)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := c.PresetFlags("nope")
		jtest.Assert(t, ErrUnknownPreset, err)
	})

	t.Run("result only depends on preset", func(t *testing.T) {
		want, err := c.PresetFlags("replication")
		jtest.RequireNil(t, err)

		for _, prev := range c.PresetNames() {
			_, err := c.PresetFlags(prev)
			jtest.RequireNil(t, err)
			got, err := c.PresetFlags("replication")
			jtest.RequireNil(t, err)
			assert.Equal(t, want, got, prev)
		}
		assert.Equal(t, api.ConstraintFlag{Checked: false}, want["noParallelPaths"])
		assert.Equal(t, api.ConstraintFlag{Checked: true}, want["initialPlacementAsConstraints"])
	})
}

func TestMatchWildcard(t *testing.T) {
	testCases := []struct {
		name     string
		s        string
		match    string
		expMatch bool
	}{
		{name: "empty doesn't match exact", s: "", match: "one", expMatch: false},
		{name: "empty doesn't match partial wildcard", s: "", match: "one*", expMatch: false},
		{name: "empty matches empty", s: "", match: "", expMatch: true},
		{name: "empty matches *", s: "", match: "*", expMatch: true},
		{name: "exact match", s: "done", match: "done", expMatch: true},
		{name: "exact match on partial wildcard", s: "done", match: "done*", expMatch: true},
		{name: "exact non-match", s: "ready", match: "done", expMatch: false},
		{name: "prefix match", s: "info - ready", match: "info*", expMatch: true},
		{name: "prefix non-match", s: "error - ready", match: "info*", expMatch: false},
		{name: "middle match", s: "backend is ready now", match: "*ready*", expMatch: true},
		{name: "multiple middle match", s: "topology was loaded ok", match: "*topology*loaded*", expMatch: true},
		{name: "partial match", s: "topology was reloaded", match: "*loaded*topology*", expMatch: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expMatch, matchWildcard(tc.s, tc.match))
		})
	}
}
