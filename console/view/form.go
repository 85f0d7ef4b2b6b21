package view

import (
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/luno/optconsole/api"
)

var (
	ErrUnknownFlag  = errors.New("unknown constraint flag", j.C("ERR_c27a5e8d4f1b0963"))
	ErrFlagDisabled = errors.New("constraint flag is disabled", j.C("ERR_6e0f3a9b12d7c485"))
)

// Fields are the free-form operator inputs of the scenario form.
type Fields struct {
	InputFileName     string `json:"inputFileName"`
	ObjectiveFunction string `json:"objectiveFunction"`
	Maximization      bool   `json:"maximization"`
	Weights           string `json:"weights"`
}

// Update changes some of the form. Nil fields are left as they are.
type Update struct {
	InputFileName     *string         `json:"inputFileName,omitempty"`
	ObjectiveFunction *string         `json:"objectiveFunction,omitempty"`
	Maximization      *bool           `json:"maximization,omitempty"`
	Weights           *string         `json:"weights,omitempty"`
	Flags             map[string]bool `json:"flags,omitempty"`
}

type FlagState struct {
	Name string `json:"name"`
	api.ConstraintFlag
}

type FormState struct {
	Fields
	Model string      `json:"model"`
	Flags []FlagState `json:"flags"`
}

// Form is the scenario form with its constraint checkboxes.
type Form struct {
	mu     sync.RWMutex
	fields Fields
	model  string
	order  []string
	flags  map[string]api.ConstraintFlag
}

func NewForm(constraints []string, flags map[string]api.ConstraintFlag) *Form {
	f := &Form{
		order: append([]string(nil), constraints...),
		flags: make(map[string]api.ConstraintFlag, len(constraints)),
	}
	for _, name := range constraints {
		f.flags[name] = flags[name]
	}
	return f
}

func (f *Form) SetFields(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// ApplyPreset replaces the model and every flag in one step.
func (f *Form) ApplyPreset(model string, flags map[string]api.ConstraintFlag) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	for _, name := range f.order {
		f.flags[name] = flags[name]
	}
}

// Apply validates the whole update before changing anything. Flags locked
// by the active preset cannot be changed.
func (f *Form) Apply(u Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, checked := range u.Flags {
		flag, ok := f.flags[name]
		if !ok {
			return errors.Wrap(ErrUnknownFlag, "", j.KV("flag", name))
		}
		if flag.Disabled && flag.Checked != checked {
			return errors.Wrap(ErrFlagDisabled, "", j.KV("flag", name))
		}
	}

	if u.InputFileName != nil {
		f.fields.InputFileName = *u.InputFileName
	}
	if u.ObjectiveFunction != nil {
		f.fields.ObjectiveFunction = *u.ObjectiveFunction
	}
	if u.Maximization != nil {
		f.fields.Maximization = *u.Maximization
	}
	if u.Weights != nil {
		f.fields.Weights = *u.Weights
	}
	for name, checked := range u.Flags {
		flag := f.flags[name]
		flag.Checked = checked
		f.flags[name] = flag
	}
	return nil
}

func (f *Form) Scenario() api.Scenario {
	f.mu.RLock()
	defer f.mu.RUnlock()

	constraints := make(map[string]bool, len(f.flags))
	for name, flag := range f.flags {
		constraints[name] = flag.Checked
	}
	return api.Scenario{
		InputFileName:     f.fields.InputFileName,
		ObjectiveFunction: f.fields.ObjectiveFunction,
		Maximization:      f.fields.Maximization,
		Model:             f.model,
		Weights:           f.fields.Weights,
		Constraints:       constraints,
	}
}

func (f *Form) State() FormState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := FormState{
		Fields: f.fields,
		Model:  f.model,
		Flags:  make([]FlagState, 0, len(f.order)),
	}
	for _, name := range f.order {
		s.Flags = append(s.Flags, FlagState{Name: name, ConstraintFlag: f.flags[name]})
	}
	return s
}
