package ops

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"k8s.io/utils/clock"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/console/ops/config"
)

// UnreachableMessage replaces the message board while the backend
// cannot be reached.
const UnreachableMessage = "Info: framework not running"

const (
	DefaultShortInterval = time.Second
	DefaultLongInterval  = 5 * time.Second
)

type State int

const (
	Disconnected State = iota
	ConnectedIdle
	ConnectedActive
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedIdle:
		return "connected_idle"
	case ConnectedActive:
		return "connected_active"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Mode int

const (
	ModeLong Mode = iota
	ModeShort
)

func (m Mode) String() string {
	if m == ModeShort {
		return "short"
	}
	return "long"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

type Category int

const (
	CategoryNothing Category = iota
	CategoryTransient
	CategoryIdle
	CategoryTerminal
	CategoryUnavailable
)

func (c Category) String() string {
	switch c {
	case CategoryNothing:
		return "nothing"
	case CategoryTransient:
		return "transient"
	case CategoryIdle:
		return "idle"
	case CategoryTerminal:
		return "terminal"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classifier maps a status message to its category. It never returns
// CategoryUnavailable, that is decided by the transport.
type Classifier func(msg string) Category

// StatusClassifier classifies with the configured wildcard patterns.
// Terminal patterns win over idle ones.
func StatusClassifier(s config.Status) Classifier {
	return func(msg string) Category {
		if strings.TrimSpace(msg) == "" {
			return CategoryNothing
		} else if s.IsTerminal(msg) {
			return CategoryTerminal
		} else if s.IsIdle(msg) {
			return CategoryIdle
		}
		return CategoryTransient
	}
}

type effect uint8

const (
	// effUnreachable shows the unreachable message and disables both controls.
	effUnreachable effect = 1 << iota
	// effIdleControls enables run and disables stop.
	effIdleControls
	effRefresh
	effRefreshResults
)

type transition struct {
	to      State
	mode    Mode
	effects effect
}

func connectedTransitions(unavailable transition) map[Category]transition {
	return map[Category]transition{
		CategoryUnavailable: unavailable,
		CategoryTransient:   {to: ConnectedActive, mode: ModeShort},
		CategoryIdle:        {to: ConnectedIdle, mode: ModeLong, effects: effIdleControls | effRefresh},
		CategoryTerminal: {to: ConnectedIdle, mode: ModeLong,
			effects: effIdleControls | effRefresh | effRefreshResults},
	}
}

// transitions is the poller state machine. CategoryNothing has no entry
// in any state and leaves everything unchanged.
var transitions = map[State]map[Category]transition{
	Disconnected:    connectedTransitions(transition{to: Disconnected, mode: ModeLong}),
	ConnectedIdle:   connectedTransitions(transition{to: Disconnected, mode: ModeLong, effects: effUnreachable}),
	ConnectedActive: connectedTransitions(transition{to: Disconnected, mode: ModeLong, effects: effUnreachable}),
}

// Triggerer receives one-shot refresh requests. Fire must not block.
type Triggerer interface {
	Fire(t Trigger)
}

type PollerState struct {
	State State    `json:"state"`
	Mode  Mode     `json:"mode"`
	Log   []string `json:"log"`
}

type Poller struct {
	status   StatusSource
	classify Classifier
	board    MessageBoard
	controls Controls
	trigger  Triggerer

	clock     clock.Clock
	intervals map[Mode]time.Duration
	capacity  int

	mu    sync.Mutex
	state State
	mode  Mode
	log   []string

	rearm chan struct{}
}

type PollerOption func(*Poller)

func WithClock(c clock.Clock) PollerOption {
	return func(p *Poller) {
		p.clock = c
	}
}

func WithIntervals(short, long time.Duration) PollerOption {
	return func(p *Poller) {
		p.intervals[ModeShort] = short
		p.intervals[ModeLong] = long
	}
}

func WithLogCapacity(n int) PollerOption {
	return func(p *Poller) {
		p.capacity = n
	}
}

func NewPoller(status StatusSource, classify Classifier, board MessageBoard,
	controls Controls, trigger Triggerer, opts ...PollerOption,
) *Poller {
	p := &Poller{
		status:   status,
		classify: classify,
		board:    board,
		controls: controls,
		trigger:  trigger,
		clock:    clock.RealClock{},
		intervals: map[Mode]time.Duration{
			ModeShort: DefaultShortInterval,
			ModeLong:  DefaultLongInterval,
		},
		capacity: config.DefaultLogCapacity,
		state:    Disconnected,
		mode:     ModeLong,
		rearm:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.capacity < 1 {
		p.capacity = 1
	}
	return p
}

// Run polls until the context is cancelled. Each tick completes before
// the timer for the next one is armed.
func (p *Poller) Run(ctx context.Context) error {
	p.board.SetMessage(UnreachableMessage)
	p.controls.SetRunEnabled(false)
	p.controls.SetStopEnabled(false)
	setStateGauge(Disconnected)

	p.Tick(ctx)
	for {
		// Mode changes made by the tick itself are already reflected in
		// the interval.
		select {
		case <-p.rearm:
		default:
		}
		t := p.clock.NewTimer(p.interval())
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-p.rearm:
			t.Stop()
		case <-t.C():
			p.Tick(ctx)
		}
	}
}

func (p *Poller) interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intervals[p.mode]
}

// Tick polls the status endpoint once, applies the result and returns
// the category of the polled message.
func (p *Poller) Tick(ctx context.Context) Category {
	msg, err := p.status.GetMessage(ctx)
	cat := CategoryUnavailable
	if err == nil {
		cat = p.classify(msg)
	} else if !errors.Is(err, optconsole.ErrUnavailable) {
		log.Error(ctx, errors.Wrap(err, "get status message"))
	}
	pollTicks.WithLabelValues(cat.String()).Inc()
	p.apply(ctx, cat, msg)
	return cat
}

func (p *Poller) apply(ctx context.Context, cat Category, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cat == CategoryNothing {
		return
	}
	if cat != CategoryUnavailable {
		p.appendLocked(msg)
		p.publishLocked()
	}

	tr, ok := transitions[p.state][cat]
	if !ok {
		return
	}
	if tr.to != p.state {
		log.Info(ctx, "poller state changed", j.MKV{
			"from":     p.state.String(),
			"to":       tr.to.String(),
			"category": cat.String(),
		})
		setStateGauge(tr.to)
	}
	p.state = tr.to
	p.setModeLocked(tr.mode)

	if tr.effects&effUnreachable != 0 {
		p.board.SetMessage(UnreachableMessage)
		p.controls.SetRunEnabled(false)
		p.controls.SetStopEnabled(false)
	}
	if tr.effects&effIdleControls != 0 {
		p.controls.SetRunEnabled(true)
		p.controls.SetStopEnabled(false)
	}
	var t Trigger
	if tr.effects&effRefresh != 0 {
		t |= TriggerReady
	}
	if tr.effects&effRefreshResults != 0 {
		t |= TriggerDone
	}
	if t != 0 && p.trigger != nil {
		p.trigger.Fire(t)
	}
}

func (p *Poller) appendLocked(line string) {
	p.log = append(p.log, strings.TrimSpace(line))
	if over := len(p.log) - p.capacity; over > 0 {
		p.log = append([]string(nil), p.log[over:]...)
	}
}

func (p *Poller) publishLocked() {
	p.board.SetMessage(strings.Join(p.log, "\n"))
}

func (p *Poller) setModeLocked(m Mode) {
	if p.mode == m {
		return
	}
	p.mode = m
	select {
	case p.rearm <- struct{}{}:
	default:
	}
}

// RequestMode switches the polling interval. Requesting the current mode
// does nothing.
func (p *Poller) RequestMode(m Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setModeLocked(m)
}

func (p *Poller) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Post appends a line to the message log without affecting the state.
// While disconnected the board keeps the unreachable text, the line shows
// up with the next status message.
func (p *Poller) Post(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendLocked(line)
	if p.state != Disconnected {
		p.publishLocked()
	}
}

func (p *Poller) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerState{
		State: p.state,
		Mode:  p.mode,
		Log:   append([]string(nil), p.log...),
	}
}

func setStateGauge(s State) {
	for _, st := range []State{Disconnected, ConnectedIdle, ConnectedActive} {
		v := 0.0
		if st == s {
			v = 1
		}
		pollerState.WithLabelValues(st.String()).Set(v)
	}
}
