package ops

import (
	"context"
	"sync"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/api"
)

type statusReply struct {
	msg         string
	unavailable bool
}

// fakeStatus replays replies, repeating the last one when exhausted.
type fakeStatus struct {
	mu      sync.Mutex
	replies []statusReply
	calls   int
}

func (f *fakeStatus) GetMessage(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if r.unavailable {
		return "", optconsole.ErrUnavailable
	}
	return r.msg, nil
}

func (f *fakeStatus) push(replies ...statusReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *fakeStatus) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTrigger struct {
	mu    sync.Mutex
	fired []Trigger
}

func (f *fakeTrigger) Fire(t Trigger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, t)
}

func (f *fakeTrigger) Fired() []Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Trigger(nil), f.fired...)
}

type fakeBoard struct {
	mu       sync.Mutex
	messages []string
	run      bool
	stop     bool
}

func (f *fakeBoard) SetMessage(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeBoard) SetRunEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.run = enabled
}

func (f *fakeBoard) SetStopEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stop = enabled
}

func (f *fakeBoard) count(msg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, m := range f.messages {
		if m == msg {
			n++
		}
	}
	return n
}

func (f *fakeBoard) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

type fakeTopology struct {
	mu          sync.Mutex
	nodes       []api.Element
	servers     []api.Element
	links       []api.Element
	unavailable bool
}

func (f *fakeTopology) get(els []api.Element) ([]api.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, optconsole.ErrUnavailable
	}
	return append([]api.Element(nil), els...), nil
}

func (f *fakeTopology) GetNodes(context.Context) ([]api.Element, error) {
	return f.get(f.nodes)
}

func (f *fakeTopology) GetServers(context.Context) ([]api.Element, error) {
	return f.get(f.servers)
}

func (f *fakeTopology) GetLinks(context.Context) ([]api.Element, error) {
	return f.get(f.links)
}

type canvasCall struct {
	op      string
	ids     []string
	patches []api.Patch
}

type recordingCanvas struct {
	calls []canvasCall
}

func (c *recordingCanvas) Reset() {
	c.calls = append(c.calls, canvasCall{op: "reset"})
}

func (c *recordingCanvas) Add(els ...api.Element) {
	ids := make([]string, 0, len(els))
	for _, e := range els {
		ids = append(ids, e.ID())
	}
	c.calls = append(c.calls, canvasCall{op: "add", ids: ids})
}

func (c *recordingCanvas) Apply(patches []api.Patch) {
	c.calls = append(c.calls, canvasCall{op: "apply", patches: patches})
}

func (c *recordingCanvas) Layout() {
	c.calls = append(c.calls, canvasCall{op: "layout"})
}

func (c *recordingCanvas) ops() []string {
	var ret []string
	for _, call := range c.calls {
		ret = append(ret, call.op)
	}
	return ret
}

func elem(id, color, label string) api.Element {
	return api.Element{
		Data:     api.ElementData{ID: id, FaveColor: color, Label: label},
		Position: &api.Position{X: 1, Y: 1},
	}
}

func edge(id, src, tgt, color string) api.Element {
	return api.Element{Data: api.ElementData{ID: id, Source: src, Target: tgt, FaveColor: color}}
}
