package view

import (
	"sync"

	"github.com/luno/optconsole/api"
)

// Widgets hold the latest results shown by the charts and counters.
type Widgets struct {
	mu      sync.RWMutex
	results api.Results
	writes  int64

	changes feed[struct{}]
}

func NewWidgets() *Widgets {
	return &Widgets{}
}

func (w *Widgets) SetResults(r api.Results) {
	w.mu.Lock()
	w.results = r
	w.writes++
	w.mu.Unlock()
	w.changes.publish(struct{}{})
}

func (w *Widgets) Results() api.Results {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.results
}

// Writes is the number of times results were replaced.
func (w *Widgets) Writes() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.writes
}

func (w *Widgets) Subscribe() (<-chan struct{}, func()) {
	return w.changes.subscribe(1)
}
