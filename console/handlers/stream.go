package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/luno/optconsole/api"
	"github.com/luno/optconsole/api/cytoscape"
)

const (
	streamBuffer = 64
	writeWait    = 5 * time.Second
	pingPeriod   = 30 * time.Second
)

type StreamType string

const (
	StreamGraph   StreamType = "graph"
	StreamEvent   StreamType = "event"
	StreamState   StreamType = "state"
	StreamResults StreamType = "results"
)

// StreamMessage is one websocket frame. A viewer first receives the full
// graph, then canvas events in version order. When events were dropped the
// full graph is sent again.
type StreamMessage struct {
	Type    StreamType       `json:"type"`
	Graph   *cytoscape.Graph `json:"graph,omitempty"`
	Event   *cytoscape.Event `json:"event,omitempty"`
	State   *State           `json:"state,omitempty"`
	Results *api.Results     `json:"results,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func StreamHandler(ctx context.Context, d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Info(ctx, "websocket upgrade failed", log.WithError(err))
			return
		}
		defer conn.Close()

		streamViewers.Inc()
		defer streamViewers.Dec()

		events, stopEvents := d.Canvas().Subscribe(streamBuffer)
		defer stopEvents()
		panel, stopPanel := d.Panel().Subscribe()
		defer stopPanel()
		results, stopResults := d.Widgets().Subscribe()
		defer stopResults()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		s := streamer{conn: conn, d: d}
		if err := s.sendGraph(); err != nil {
			return
		}
		if err := s.sendState(); err != nil {
			return
		}
		if err := s.sendResults(); err != nil {
			return
		}

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			var err error
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			case <-closed:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				err = s.sendEvent(ev)
			case <-panel:
				err = s.sendState()
			case <-results:
				err = s.sendResults()
			case <-ping.C:
				err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
			if err != nil {
				log.Info(ctx, "stream closed", j.KV("remote", r.RemoteAddr), log.WithError(err))
				return
			}
		}
	}
}

type streamer struct {
	conn    *websocket.Conn
	d       Deps
	version int64
}

func (s *streamer) send(m StreamMessage) error {
	err := s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(m)
}

func (s *streamer) sendGraph() error {
	g := s.d.Canvas().Graph()
	s.version = g.Version
	return s.send(StreamMessage{Type: StreamGraph, Graph: &g})
}

func (s *streamer) sendEvent(ev cytoscape.Event) error {
	if ev.Version <= s.version {
		// Already part of the last graph sent.
		return nil
	} else if ev.Version != s.version+1 {
		return s.sendGraph()
	}
	s.version = ev.Version
	return s.send(StreamMessage{Type: StreamEvent, Event: &ev})
}

func (s *streamer) sendState() error {
	st := currentState(s.d)
	return s.send(StreamMessage{Type: StreamState, State: &st})
}

func (s *streamer) sendResults() error {
	r := s.d.Widgets().Results()
	return s.send(StreamMessage{Type: StreamResults, Results: &r})
}
