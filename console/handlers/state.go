package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/log"

	"github.com/luno/optconsole/console/ops"
	"github.com/luno/optconsole/console/view"
)

type State struct {
	Panel  view.PanelState `json:"panel"`
	Poller ops.PollerState `json:"poller"`
	Form   view.FormState  `json:"form"`
}

func currentState(d Deps) State {
	return State{
		Panel:  d.Panel().State(),
		Poller: d.Poller().State(),
		Form:   d.Form().State(),
	}
}

func GetStateHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, r, currentState(d))
	}
}

func GetGraphHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, r, d.Canvas().Graph())
	}
}

func GetResultsHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, r, d.Widgets().Results())
	}
}

func GetPresetsHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, r, d.PresetNames())
	}
}

func UpdateFormHandler(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		var u view.Update
		err = json.Unmarshal(b, &u)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		err = d.Form().Apply(u)
		if errors.IsAny(err, view.ErrUnknownFlag, view.ErrFlagDisabled) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		} else if err != nil {
			log.Error(r.Context(), errors.Wrap(err, "update form"))
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, d.Form().State())
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	ctx := r.Context()
	b, err := json.Marshal(v)
	if err != nil {
		log.Error(ctx, errors.Wrap(err, "json marshal"))
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(b)
	if err != nil {
		log.Error(ctx, err)
	}
}
