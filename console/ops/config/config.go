package config

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/optconsole/api"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogCapacity = 10
	maxLogCapacity     = 100
)

var ErrUnknownPreset = errors.New("unknown model preset", j.C("ERR_9d41c3f06b2a7e15"))

//go:embed default.yaml
var defaultConfig []byte

type Config struct {
	LogCapacity int      `yaml:"log_capacity"`
	Status      Status   `yaml:"status"`
	Constraints []string `yaml:"constraints"`
	Presets     []Preset `yaml:"presets"`
}

// Status holds wildcard patterns for the backend messages which carry
// job lifecycle meaning. Matching ignores case and surrounding space.
type Status struct {
	Idle     []string `yaml:"idle"`
	Terminal []string `yaml:"terminal"`
}

func (s Status) IsIdle(msg string) bool {
	return matchAny(s.Idle, msg)
}

func (s Status) IsTerminal(msg string) bool {
	return matchAny(s.Terminal, msg)
}

func matchAny(patterns []string, msg string) bool {
	msg = strings.ToLower(strings.TrimSpace(msg))
	for _, p := range patterns {
		if matchWildcard(msg, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Preset is a named model. Force overrides the default (checked) value of
// a constraint, Disable locks it against operator changes.
type Preset struct {
	Name    string          `yaml:"name"`
	Force   map[string]bool `yaml:"force"`
	Disable []string        `yaml:"disable"`
}

func matchWildcard(s string, match string) bool {
	if match == "" {
		return true
	}
	for i, sub := range strings.Split(match, "*") {
		if i == 0 && !strings.HasPrefix(s, sub) {
			return false
		}
		mIdx := strings.Index(s, sub)
		if mIdx == -1 {
			return false
		}
		s = s[mIdx+len(sub):]
	}
	if len(s) == 0 || match[len(match)-1] == '*' {
		return true
	}
	return false
}

func (c Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for _, p := range c.Presets {
		names = append(names, p.Name)
	}
	return names
}

func (c Config) preset(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// DefaultFlags returns every constraint checked and enabled.
func (c Config) DefaultFlags() map[string]api.ConstraintFlag {
	flags := make(map[string]api.ConstraintFlag, len(c.Constraints))
	for _, name := range c.Constraints {
		flags[name] = api.ConstraintFlag{Checked: true}
	}
	return flags
}

// PresetFlags computes the complete flag set for a model. The result
// depends only on the preset, never on previously applied presets.
func (c Config) PresetFlags(name string) (map[string]api.ConstraintFlag, error) {
	p, ok := c.preset(name)
	if !ok {
		return nil, errors.Wrap(ErrUnknownPreset, "", j.KV("preset", name))
	}
	flags := c.DefaultFlags()
	for k, v := range p.Force {
		f := flags[k]
		f.Checked = v
		flags[k] = f
	}
	for _, k := range p.Disable {
		f := flags[k]
		f.Disabled = true
		flags[k] = f
	}
	return flags, nil
}

func (c Config) validate() error {
	if c.LogCapacity < 1 || c.LogCapacity > maxLogCapacity {
		return errors.New("log capacity out of range", j.KV("log_capacity", c.LogCapacity))
	}
	known := make(map[string]bool, len(c.Constraints))
	for _, name := range c.Constraints {
		if known[name] {
			return errors.New("duplicate constraint", j.KV("constraint", name))
		}
		known[name] = true
	}
	seen := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		if p.Name == "" {
			return errors.New("preset without name")
		}
		if seen[p.Name] {
			return errors.New("duplicate preset", j.KV("preset", p.Name))
		}
		seen[p.Name] = true
		for k := range p.Force {
			if !known[k] {
				return errors.New("preset forces unknown constraint",
					j.MKV{"preset": p.Name, "constraint": k})
			}
		}
		for _, k := range p.Disable {
			if !known[k] {
				return errors.New("preset disables unknown constraint",
					j.MKV{"preset": p.Name, "constraint": k})
			}
		}
	}
	return nil
}

func Default() Config {
	c, err := decodeConfig(defaultConfig)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a config yaml, the embedded default is used when path is empty.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config", j.KV("path", path))
	}
	return decodeConfig(content)
}

func MustLoad(path string) Config {
	c, err := Load(path)
	if err != nil {
		panic(err)
	}
	return c
}

func decodeConfig(content []byte) (Config, error) {
	c := Config{LogCapacity: DefaultLogCapacity}
	d := yaml.NewDecoder(bytes.NewReader(content))
	d.KnownFields(true)
	err := d.Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
