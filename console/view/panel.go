package view

import "sync"

// Panel is the message board and the run/stop controls.
type Panel struct {
	mu      sync.RWMutex
	message string
	run     bool
	stop    bool

	changes feed[struct{}]
}

func NewPanel() *Panel {
	return &Panel{}
}

type PanelState struct {
	Message     string `json:"message"`
	RunEnabled  bool   `json:"runEnabled"`
	StopEnabled bool   `json:"stopEnabled"`
}

func (p *Panel) SetMessage(msg string) {
	p.mu.Lock()
	p.message = msg
	p.mu.Unlock()
	p.changes.publish(struct{}{})
}

func (p *Panel) SetRunEnabled(enabled bool) {
	p.mu.Lock()
	p.run = enabled
	p.mu.Unlock()
	p.changes.publish(struct{}{})
}

func (p *Panel) SetStopEnabled(enabled bool) {
	p.mu.Lock()
	p.stop = enabled
	p.mu.Unlock()
	p.changes.publish(struct{}{})
}

func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PanelState{
		Message:     p.message,
		RunEnabled:  p.run,
		StopEnabled: p.stop,
	}
}

// Subscribe returns a channel signalled after every change.
func (p *Panel) Subscribe() (<-chan struct{}, func()) {
	return p.changes.subscribe(1)
}
