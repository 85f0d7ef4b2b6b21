package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const basePath = "/console"

type Router interface {
	GET(path string, handle httprouter.Handle)
	POST(path string, handle httprouter.Handle)
}

type subRouter struct {
	r    Router
	base string
}

func SubRouter(r Router, basePath string) Router {
	return subRouter{r: r, base: basePath}
}

func (r subRouter) GET(path string, handle httprouter.Handle) {
	p := r.base + path
	r.r.GET(p, wrap(p, handle))
}

func (r subRouter) POST(path string, handle httprouter.Handle) {
	p := r.base + path
	r.r.POST(p, wrap(p, handle))
}

func wrap(path string, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		t0 := time.Now()
		handle(w, r, p)
		httpHandle.WithLabelValues(path).Observe(time.Since(t0).Seconds())
	}
}

type RouterOption func(*routerOptions)

type routerOptions struct {
	webBuild     string
	controlLimit float64
	controlBurst int
}

// WithWebBuild serves a static web app from dir under the console path.
func WithWebBuild(dir string) RouterOption {
	return func(o *routerOptions) {
		o.webBuild = dir
	}
}

// WithControlLimit limits the rate of job commands accepted from viewers.
func WithControlLimit(perSecond float64, burst int) RouterOption {
	return func(o *routerOptions) {
		o.controlLimit = perSecond
		o.controlBurst = burst
	}
}

func CreateRouter(ctx context.Context, d Deps, opts ...RouterOption) *httprouter.Router {
	o := routerOptions{controlLimit: 1, controlBurst: 3}
	for _, opt := range opts {
		opt(&o)
	}

	r := httprouter.New()
	console := SubRouter(r, basePath)

	console.GET("/api/state", GetStateHandler(d))
	console.GET("/api/graph", GetGraphHandler(d))
	console.GET("/api/results", GetResultsHandler(d))
	console.GET("/api/presets", GetPresetsHandler(d))
	console.GET("/api/stream", StreamHandler(ctx, d))

	ctl := newControl(d, o.controlLimit, o.controlBurst)
	console.POST("/api/load", ctl.handle("load", d.Controller().Load))
	console.POST("/api/run", ctl.handle("run", d.Controller().Run))
	console.POST("/api/stop", ctl.handle("stop", d.Controller().Stop))
	console.POST("/api/paths", ctl.handle("paths", d.Controller().GeneratePaths))
	console.POST("/api/link-opt", ctl.handle("link_opt", d.Controller().StartLinkOpt))
	console.POST("/api/preset/:name", ApplyPresetHandler(d))
	console.POST("/api/form", UpdateFormHandler(d))

	createWebApp(console, o.webBuild)

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, basePath+"/api/") {
			http.NotFound(w, req)
		} else if o.webBuild == "" {
			http.Redirect(w, req, basePath+"/api/state", http.StatusTemporaryRedirect)
		} else if strings.HasPrefix(req.URL.Path, basePath+"/") {
			serveIndex(o.webBuild)(w, req, nil)
		} else {
			http.Redirect(w, req, basePath+"/", http.StatusTemporaryRedirect)
		}
	})
	return r
}

func CreateDebugRouter() *httprouter.Router {
	r := httprouter.New()
	r.Handler(http.MethodGet, "/debug/metrics", promhttp.Handler())
	r.HandlerFunc(http.MethodGet, "/debug/ready", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
