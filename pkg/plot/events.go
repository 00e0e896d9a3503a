package plot

import (
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/drawing"
	"github.com/raykavin/chartview/pkg/viewport"
)

// events holds the host callbacks. Listeners run synchronously on the chart goroutine.
type events struct {
	onPan         []func(viewport.Bounds)
	onZoom        []func(viewport.Bounds)
	onAnnotations []func(drawing.Change)
	onSettings    []func(core.Settings)
	onFetch       []func(viewport.FetchRequest)
	onDiagnostic  []func(error)
}

// OnPan is called after every pan that moved the window
func (c *Chart) OnPan(fn func(viewport.Bounds)) {
	c.events.onPan = append(c.events.onPan, fn)
}

// OnZoom is called after every zoom that changed the window
func (c *Chart) OnZoom(fn func(viewport.Bounds)) {
	c.events.onZoom = append(c.events.onZoom, fn)
}

// OnAnnotationsChanged is called when a shape is added, moved or removed
func (c *Chart) OnAnnotationsChanged(fn func(drawing.Change)) {
	c.events.onAnnotations = append(c.events.onAnnotations, fn)
}

func (c *Chart) OnSettingsChanged(fn func(core.Settings)) {
	c.events.onSettings = append(c.events.onSettings, fn)
}

// OnFetchRequest is called when the visible window needs bars outside the loaded range
func (c *Chart) OnFetchRequest(fn func(viewport.FetchRequest)) {
	c.events.onFetch = append(c.events.onFetch, fn)
}

// OnDiagnostic receives rejected input and precondition failures
func (c *Chart) OnDiagnostic(fn func(error)) {
	c.events.onDiagnostic = append(c.events.onDiagnostic, fn)
}

func (e *events) pan(b viewport.Bounds) {
	for _, fn := range e.onPan {
		fn(b)
	}
}

func (e *events) zoom(b viewport.Bounds) {
	for _, fn := range e.onZoom {
		fn(b)
	}
}

func (e *events) annotations(change drawing.Change) {
	for _, fn := range e.onAnnotations {
		fn(change)
	}
}

func (e *events) settings(s core.Settings) {
	for _, fn := range e.onSettings {
		fn(s)
	}
}

func (e *events) fetch(r viewport.FetchRequest) {
	for _, fn := range e.onFetch {
		fn(r)
	}
}

func (e *events) diagnostic(err error) {
	for _, fn := range e.onDiagnostic {
		fn(err)
	}
}
