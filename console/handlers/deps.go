package handlers

import (
	"github.com/luno/optconsole/console/ops"
	"github.com/luno/optconsole/console/view"
)

type Poller interface {
	State() ops.PollerState
}

type Deps interface {
	Panel() *view.Panel
	Form() *view.Form
	Canvas() *view.Canvas
	Widgets() *view.Widgets
	Poller() Poller
	Controller() *ops.Controller
	PresetNames() []string
}
