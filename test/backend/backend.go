package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/luno/optconsole/api"
)

// Status lines the simulated optimizer emits.
const (
	MsgReady          = "INFO - backend is ready"
	MsgTopologyLoaded = "topology loaded"
	MsgLoadTopology   = "Info: please, load the topology"
	MsgDone           = "done"
)

// Backend simulates the optimizer REST surface. Status messages are
// queued and handed out one per poll.
type Backend struct {
	mu        sync.Mutex
	down      bool
	rejecting bool
	loaded    bool

	messages  []string
	nodes     []api.Element
	servers   []api.Element
	links     []api.Element
	results   *api.Results
	output    []string
	scenarios []api.Scenario
	reqIDs    []string
	hits      map[string]int
}

func New() *Backend {
	b := &Backend{hits: make(map[string]int)}
	b.nodes, b.servers, b.links = DefaultTopology()
	b.messages = []string{MsgReady}
	return b
}

// DefaultTopology is a ring of three nodes, each with one server.
func DefaultTopology() (nodes, servers, links []api.Element) {
	for i := 1; i <= 3; i++ {
		x, y := float64(i*100), float64(100+(i%2)*100)
		nodes = append(nodes, api.Element{
			Data: api.ElementData{
				ID: fmt.Sprintf("n%d", i), Label: fmt.Sprintf("n%d", i),
				FaveColor: "Black", FaveShape: "ellipse", Width: 20, Height: 20,
			},
			Position: &api.Position{X: x, Y: y},
		})
		servers = append(servers, api.Element{
			Data: api.ElementData{
				ID: fmt.Sprintf("s%d", i), FaveColor: "Gray",
				FaveShape: "rectangle", Width: 10, Height: 10,
			},
			Position: &api.Position{X: x, Y: y + 30},
		})
		links = append(links, api.Element{
			Data: api.ElementData{
				ID:     fmt.Sprintf("l%d", i),
				Source: fmt.Sprintf("n%d", i), Target: fmt.Sprintf("n%d", i%3+1),
				FaveColor: "Gray",
			},
		})
	}
	return nodes, servers, links
}

func (b *Backend) Handler() http.Handler {
	r := httprouter.New()
	r.GET("/message", b.handle("message", b.getMessage))
	r.GET("/node", b.handle("node", b.getElements(func() []api.Element { return b.nodes })))
	r.GET("/server", b.handle("server", b.getElements(func() []api.Element { return b.servers })))
	r.GET("/link", b.handle("link", b.getElements(func() []api.Element { return b.links })))
	r.GET("/results", b.handle("results", b.getResults))
	r.POST("/load", b.handle("load", b.submit(b.load)))
	r.POST("/run", b.handle("run", b.submit(b.run)))
	r.POST("/paths", b.handle("paths", b.submit(b.paths)))
	r.GET("/stop", b.handle("stop", b.stop))
	r.GET("/link-opt", b.handle("link_opt", b.linkOpt))
	r.GET("/output", b.handle("output", b.getOutput))
	return r
}

// handle holds the lock for the whole request and fails every request
// while the backend is down.
func (b *Backend) handle(name string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.hits[name]++
		if id := r.Header.Get("X-Request-Id"); id != "" {
			b.reqIDs = append(b.reqIDs, id)
		}
		if b.down {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		h(w, r, p)
	}
}

func (b *Backend) getMessage(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if len(b.messages) == 0 {
		return
	}
	msg := b.messages[0]
	b.messages = b.messages[1:]
	_, _ = io.WriteString(w, msg)
}

func (b *Backend) getElements(els func() []api.Element) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, els())
	}
}

func (b *Backend) getResults(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if b.results == nil {
		return
	}
	writeJSON(w, b.results)
}

func (b *Backend) submit(next func(s api.Scenario) (string, int)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var s api.Scenario
		err := json.NewDecoder(r.Body).Decode(&s)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		b.scenarios = append(b.scenarios, s)
		if b.rejecting {
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}
		ack, code := next(s)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, ack)
	}
}

func (b *Backend) load(s api.Scenario) (string, int) {
	if s.InputFileName == "" {
		return "missing input file", http.StatusBadRequest
	}
	b.loaded = true
	b.results = nil
	b.messages = append(b.messages, MsgTopologyLoaded)
	return "loading " + s.InputFileName, http.StatusOK
}

func (b *Backend) run(s api.Scenario) (string, int) {
	if !b.loaded {
		b.messages = append(b.messages, MsgLoadTopology)
		return "", http.StatusOK
	}
	b.messages = append(b.messages, "running "+s.Model)
	return "running " + s.Model, http.StatusOK
}

func (b *Backend) paths(s api.Scenario) (string, int) {
	return "paths generated for " + s.InputFileName, http.StatusOK
}

func (b *Backend) stop(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if b.rejecting {
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	b.messages = append(b.messages, MsgDone)
	_, _ = io.WriteString(w, "stopped")
}

func (b *Backend) linkOpt(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_, _ = io.WriteString(w, "link optimization started")
}

func (b *Backend) getOutput(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	out := b.output
	b.output = nil
	if out == nil {
		out = []string{}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (b *Backend) PushMessage(msgs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msgs...)
}

func (b *Backend) PushOutput(lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.output = append(b.output, lines...)
}

func (b *Backend) SetDown(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = down
}

// SetRejecting makes job commands fail with a server error.
func (b *Backend) SetRejecting(rejecting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejecting = rejecting
}

func (b *Backend) SetResults(r *api.Results) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = r
}

func (b *Backend) SetServers(els []api.Element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.servers = els
}

func (b *Backend) SetLinks(els []api.Element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links = els
}

// SetUtilization recolors and relabels a server or link. It returns false
// when no element has the id.
func (b *Backend) SetUtilization(id string, u decimal.Decimal) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, els := range [][]api.Element{b.servers, b.links} {
		for i := range els {
			if els[i].ID() != id {
				continue
			}
			els[i].Data.FaveColor = UtilizationColor(u)
			els[i].Data.Label = UtilizationLabel(u)
			return true
		}
	}
	return false
}

func (b *Backend) Servers() []api.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Element(nil), b.servers...)
}

func (b *Backend) Links() []api.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Element(nil), b.links...)
}

func (b *Backend) Scenarios() []api.Scenario {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Scenario(nil), b.scenarios...)
}

func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reqIDs...)
}

// Hits returns how often an endpoint was requested, by handler name.
func (b *Backend) Hits(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[name]
}
