package handlers

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"golang.org/x/time/rate"

	"github.com/luno/optconsole/console/ops"
	"github.com/luno/optconsole/console/ops/config"
)

type control struct {
	d       Deps
	limiter *rate.Limiter
}

func newControl(d Deps, perSecond float64, burst int) *control {
	return &control{d: d, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// handle runs a job command. The command is bound to the server context
// rather than the request so that a viewer disconnecting does not abort it.
func (c *control) handle(name string, cmd func(ctx context.Context) error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if !c.limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		ctx := context.WithoutCancel(r.Context())
		err := cmd(ctx)
		if errors.Is(err, ops.ErrRejected) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		} else if err != nil {
			log.Error(ctx, errors.Wrap(err, "job command", j.KV("command", name)))
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, currentState(c.d))
	}
}

func ApplyPresetHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		err := d.Controller().ApplyModelPreset(p.ByName("name"))
		if errors.Is(err, config.ErrUnknownPreset) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		} else if err != nil {
			log.Error(r.Context(), errors.Wrap(err, "apply preset"))
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, d.Form().State())
	}
}
