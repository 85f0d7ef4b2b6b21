package optconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"github.com/luno/optconsole/api"
)

// ErrUnavailable is returned for every failed round trip to the backend.
// Network errors, timeouts, non-2xx responses and undecodable bodies are
// deliberately indistinguishable to callers.
var ErrUnavailable = errors.New("backend unavailable", j.C("ERR_5f0c8e21b7a94d3e"))

type Counter interface {
	Inc()
	Add(v float64)
}

type Measure interface {
	Observe(secs float64)
}

type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Observe(float64) {}

type Metrics struct {
	Requests       Counter
	Unavailable    Counter
	RequestLatency Measure
}

func (m *Metrics) defaultUnused() {
	if m.Requests == nil {
		m.Requests = noopMetric{}
	}
	if m.Unavailable == nil {
		m.Unavailable = noopMetric{}
	}
	if m.RequestLatency == nil {
		m.RequestLatency = noopMetric{}
	}
}

// Paths are the backend endpoints, relative to the base URL.
type Paths struct {
	Message string `mapstructure:"message"`
	Nodes   string `mapstructure:"nodes"`
	Servers string `mapstructure:"servers"`
	Links   string `mapstructure:"links"`
	Load    string `mapstructure:"load"`
	Run     string `mapstructure:"run"`
	Stop    string `mapstructure:"stop"`
	Results string `mapstructure:"results"`
	Paths   string `mapstructure:"paths"`
	LinkOpt string `mapstructure:"link_opt"`
	Output  string `mapstructure:"output"`
}

func DefaultPaths() Paths {
	return Paths{
		Message: "/message",
		Nodes:   "/node",
		Servers: "/server",
		Links:   "/link",
		Load:    "/load",
		Run:     "/run",
		Stop:    "/stop",
		Results: "/results",
		Paths:   "/paths",
		LinkOpt: "/link-opt",
		Output:  "/output",
	}
}

func (p Paths) merge(def Paths) Paths {
	fill := func(s *string, d string) {
		if *s == "" {
			*s = d
		}
	}
	fill(&p.Message, def.Message)
	fill(&p.Nodes, def.Nodes)
	fill(&p.Servers, def.Servers)
	fill(&p.Links, def.Links)
	fill(&p.Load, def.Load)
	fill(&p.Run, def.Run)
	fill(&p.Stop, def.Stop)
	fill(&p.Results, def.Results)
	fill(&p.Paths, def.Paths)
	fill(&p.LinkOpt, def.LinkOpt)
	fill(&p.Output, def.Output)
	return p
}

type Client struct {
	baseURL    string
	cli        *http.Client
	metrics    Metrics
	paths      Paths
	reqTimeout time.Duration
	newID      func() string
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(client *Client) {
		client.baseURL = strings.TrimRight(url, "/")
	}
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.cli = c
	}
}

func WithRequestTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.reqTimeout = d
	}
}

func WithMetrics(m Metrics) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// WithPaths overrides backend endpoints, empty paths keep their default.
func WithPaths(p Paths) ClientOption {
	return func(client *Client) {
		client.paths = p.merge(DefaultPaths())
	}
}

func NewClient(opts ...ClientOption) *Client {
	ret := &Client{
		baseURL:    "http://localhost:8080",
		cli:        http.DefaultClient,
		paths:      DefaultPaths(),
		reqTimeout: 10 * time.Second,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.metrics.defaultUnused()
	if ret.cli == nil {
		panic("no http client specified")
	}
	return ret
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs one blocking round trip. Any failure is reported as
// ErrUnavailable, the cause is only logged.
func (c *Client) Request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "marshal payload")
		}
		body = b
	}

	t0 := time.Now()
	c.metrics.Requests.Inc()
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		c.metrics.Unavailable.Inc()
		log.Info(ctx, "backend request failed",
			j.MKV{"method": method, "path": path}, log.WithError(err))
		return nil, errors.Wrap(ErrUnavailable, "", j.KV("path", path))
	}
	c.metrics.RequestLatency.Observe(time.Since(t0).Seconds())
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", c.newID())

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return b, nil
	}
	s := strings.TrimSpace(string(b))
	return nil, errors.New("unexpected status", j.MKV{
		"status":   resp.StatusCode,
		"response": s,
	})
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	b, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	err = json.Unmarshal(b, v)
	if err != nil {
		log.Info(ctx, "undecodable backend response", j.KV("path", path), log.WithError(err))
		return errors.Wrap(ErrUnavailable, "", j.KV("path", path))
	}
	return nil
}

// GetMessage returns the next status line, empty when the backend has
// nothing to report.
func (c *Client) GetMessage(ctx context.Context) (string, error) {
	b, err := c.Request(ctx, http.MethodGet, c.paths.Message, nil)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) GetNodes(ctx context.Context) ([]api.Element, error) {
	var els []api.Element
	err := c.getJSON(ctx, c.paths.Nodes, &els)
	return els, err
}

func (c *Client) GetServers(ctx context.Context) ([]api.Element, error) {
	var els []api.Element
	err := c.getJSON(ctx, c.paths.Servers, &els)
	return els, err
}

func (c *Client) GetLinks(ctx context.Context) ([]api.Element, error) {
	var els []api.Element
	err := c.getJSON(ctx, c.paths.Links, &els)
	return els, err
}

// GetResults returns nil when the backend has no results yet.
func (c *Client) GetResults(ctx context.Context) (*api.Results, error) {
	var r *api.Results
	err := c.getJSON(ctx, c.paths.Results, &r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Client) Load(ctx context.Context, s api.Scenario) (string, error) {
	b, err := c.Request(ctx, http.MethodPost, c.paths.Load, s)
	return string(b), err
}

func (c *Client) Run(ctx context.Context, s api.Scenario) (string, error) {
	b, err := c.Request(ctx, http.MethodPost, c.paths.Run, s)
	return string(b), err
}

func (c *Client) Stop(ctx context.Context) (string, error) {
	b, err := c.Request(ctx, http.MethodGet, c.paths.Stop, nil)
	return string(b), err
}

func (c *Client) GeneratePaths(ctx context.Context, s api.Scenario) (string, error) {
	b, err := c.Request(ctx, http.MethodPost, c.paths.Paths, s)
	return string(b), err
}

func (c *Client) StartLinkOpt(ctx context.Context) (string, error) {
	b, err := c.Request(ctx, http.MethodGet, c.paths.LinkOpt, nil)
	return string(b), err
}

// GetOutput returns pending optimizer output lines. Backends returning
// plain text instead of a JSON array yield a single line.
func (c *Client) GetOutput(ctx context.Context) ([]string, error) {
	b, err := c.Request(ctx, http.MethodGet, c.paths.Output, nil)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	var lines []string
	if json.Unmarshal(b, &lines) == nil {
		return lines, nil
	}
	return []string{string(b)}, nil
}
