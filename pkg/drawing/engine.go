package drawing

import (
	"fmt"
	"math"

	"github.com/StudioSol/set"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/logger"
)

// State is the pointer interaction state of the engine
type State int

const (
	StateIdle State = iota
	StatePlacing
	StateSelected
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlacing:
		return "placing"
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

type ChangeOp int

const (
	ChangeAdded ChangeOp = iota
	ChangeUpdated
	ChangeRemoved
)

// Change describes one mutation of the annotation set
type Change struct {
	Op         ChangeOp
	Annotation Annotation
}

type eventKind int

const (
	eventTool eventKind = iota
	eventDown
	eventMove
	eventUp
	eventEscape
	eventDelete
	eventComplete
)

type event struct {
	kind eventKind
	at   Point
	x, y float64
	tool Kind
}

type dragState struct {
	id     int64
	anchor int // -1 moves the whole shape
	origin Point
	saved  []Point
	moved  bool
}

var defaultStyles = map[Kind]canvas.Style{
	KindTrendLine:     {Stroke: canvas.MustColor("#2962ff"), Width: 1.5},
	KindHorizontalRay: {Stroke: canvas.MustColor("#ff9800"), Width: 1},
	KindVerticalLine:  {Stroke: canvas.MustColor("#9c27b0"), Width: 1},
	KindRectangle:     {Stroke: canvas.MustColor("#00897b"), Fill: drawing.Color{R: 0, G: 137, B: 123, A: 40}, Width: 1},
	KindFibonacci:     {Stroke: canvas.MustColor("#607d8b"), Width: 1},
	KindText:          {Stroke: canvas.MustColor("#e0e3eb")},
}

var handleStyle = canvas.Style{Stroke: canvas.MustColor("#2962ff"), Fill: canvas.MustColor("#ffffff"), Width: 1}

// Engine owns the annotations of one chart and turns pointer events into shape edits.
// It is not safe for concurrent use.
type Engine struct {
	m       Mapper
	surface canvas.Surface
	log     logger.Logger

	tolerancePx float64
	sticky      bool
	styles      map[Kind]canvas.Style
	text        string

	tool  Kind
	state State

	nextID   int64
	order    *set.LinkedHashSetINT64
	byID     map[int64]*Annotation
	selected int64

	draft      *Annotation
	preview    Point
	hasPreview bool
	drag       dragState

	changeListeners []func(Change)
	diagListeners   []func(error)
}

type Option func(*Engine)

func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithTolerance sets the hit test radius in pixels
func WithTolerance(px float64) Option {
	return func(e *Engine) {
		if px > 0 && !math.IsInf(px, 0) {
			e.tolerancePx = px
		}
	}
}

// WithStickyTools keeps the drawing tool selected after a shape is committed
func WithStickyTools(sticky bool) Option {
	return func(e *Engine) {
		e.sticky = sticky
	}
}

// WithStyle overrides the default style of a shape kind
func WithStyle(kind Kind, st canvas.Style) Option {
	return func(e *Engine) {
		e.styles[kind] = st
	}
}

// NewEngine creates an engine converting coordinates through m. Pointer events are rejected
// until SetCanvas is called.
func NewEngine(m Mapper, opts ...Option) *Engine {
	e := &Engine{
		m:           m,
		log:         logger.Nop(),
		tolerancePx: core.DefaultSettings().HitTolerancePx,
		styles:      make(map[Kind]canvas.Style, len(defaultStyles)),
		text:        "Text",
		order:       set.NewLinkedHashSetINT64(),
		byID:        make(map[int64]*Annotation),
		nextID:      1,
	}
	for k, st := range defaultStyles {
		e.styles[k] = st
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCanvas attaches the surface used for text measurement and enables pointer handling
func (e *Engine) SetCanvas(s canvas.Surface) {
	e.surface = s
}

// SetTool selects the active tool. Any shape being placed is discarded.
func (e *Engine) SetTool(kind Kind) error {
	if _, ok := shapes[kind]; !ok && kind != KindCursor {
		return core.NewError(core.KindTool, "select tool", fmt.Errorf("%w: %v", core.ErrUnknownTool, kind))
	}
	return e.transition(event{kind: eventTool, tool: kind})
}

// SetText sets the body used by the next text annotation
func (e *Engine) SetText(text string) {
	if text != "" {
		e.text = text
	}
}

func (e *Engine) OnChange(fn func(Change)) {
	e.changeListeners = append(e.changeListeners, fn)
}

// OnDiagnostic registers a listener for recoverable misuse such as pointer events before a canvas
// is attached
func (e *Engine) OnDiagnostic(fn func(error)) {
	e.diagListeners = append(e.diagListeners, fn)
}

func (e *Engine) HandlePointerDown(x, y float64) { e.pointer("pointer down", eventDown, x, y) }
func (e *Engine) HandlePointerMove(x, y float64) { e.pointer("pointer move", eventMove, x, y) }
func (e *Engine) HandlePointerUp(x, y float64) { e.pointer("pointer up", eventUp, x, y) }

func (e *Engine) pointer(op string, kind eventKind, x, y float64) {
	if e.surface == nil {
		err := core.NewError(core.KindPrecondition, op, core.ErrCanvasNotSet)
		e.log.WithError(err).Warn("ignoring pointer event")
		for _, fn := range e.diagListeners {
			fn(err)
		}
		return
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}

	at := Point{Index: e.m.ToDataIndex(x), Price: e.m.ToPrice(y)}
	_ = e.transition(event{kind: kind, at: at, x: x, y: y})
}

// Escape cancels placement or a drag, or clears the selection
func (e *Engine) Escape() {
	_ = e.transition(event{kind: eventEscape})
}

// DeleteSelected removes the selected annotation and reports whether one was removed
func (e *Engine) DeleteSelected() bool {
	before := len(e.byID)
	_ = e.transition(event{kind: eventDelete})
	return len(e.byID) < before
}

// Complete commits the shape being placed, using the live pointer as its last anchor. A shape
// still missing anchors is discarded and a ToolError returned.
func (e *Engine) Complete() error {
	return e.transition(event{kind: eventComplete})
}

// transition is the single entry point of the pointer state machine
func (e *Engine) transition(ev event) error {
	if ev.kind == eventTool {
		e.cancel()
		e.tool = ev.tool
		if ev.tool != KindCursor {
			e.deselect()
		}
		e.log.WithField("tool", ev.tool.String()).Debug("tool selected")
		return nil
	}

	switch e.state {
	case StateIdle, StateSelected:
		switch ev.kind {
		case eventDown:
			if e.tool == KindCursor {
				e.grab(ev.at)
				return nil
			}
			e.deselect()
			e.draft = &Annotation{Kind: e.tool, Style: e.styles[e.tool]}
			e.hasPreview = false
			e.state = StatePlacing
			e.appendAnchor(ev.at)
		case eventEscape:
			e.deselect()
		case eventDelete:
			e.removeSelected()
		}

	case StatePlacing:
		switch ev.kind {
		case eventDown:
			e.appendAnchor(ev.at)
		case eventMove:
			e.preview, e.hasPreview = ev.at, true
		case eventUp:
			// press-drag-release places the next anchor where the pointer was let go
			last := pixel(e.m, e.draft.Anchors[len(e.draft.Anchors)-1])
			if math.Hypot(ev.x-last.X, ev.y-last.Y) > e.tolerancePx {
				e.appendAnchor(ev.at)
			}
		case eventEscape:
			e.cancel()
		case eventComplete:
			return e.completeDraft()
		}

	case StateDragging:
		switch ev.kind {
		case eventMove:
			e.dragTo(ev.at)
		case eventUp:
			e.state = StateSelected
			if e.drag.moved {
				e.emit(ChangeUpdated, e.byID[e.drag.id])
			}
		case eventEscape:
			e.cancel()
		}
	}

	return nil
}

func (e *Engine) appendAnchor(p Point) {
	e.draft.Anchors = append(e.draft.Anchors, p)
	if len(e.draft.Anchors) >= shapes[e.draft.Kind].anchors {
		e.commit()
	}
}

func (e *Engine) completeDraft() error {
	draft := e.draft
	if e.hasPreview && len(draft.Anchors) < shapes[draft.Kind].anchors {
		draft.Anchors = append(draft.Anchors, e.preview)
	}
	if len(draft.Anchors) >= shapes[draft.Kind].anchors {
		e.commit()
		return nil
	}

	err := core.NewError(core.KindTool, "complete "+draft.Kind.String(), core.ErrInsufficientAnchors)
	e.log.WithError(err).Debug("discarding shape")
	e.cancel()
	return err
}

func (e *Engine) commit() {
	a := e.draft
	a.ID = e.nextID
	if a.Kind == KindText {
		a.Text = e.text
	}
	e.nextID++

	e.byID[a.ID] = a
	e.order.Add(a.ID)
	e.draft, e.hasPreview = nil, false
	e.state = StateIdle
	if !e.sticky {
		e.tool = KindCursor
	}

	e.log.WithFields(map[string]any{"id": a.ID, "kind": a.Kind.String()}).Debug("annotation added")
	e.emit(ChangeAdded, a)
}

// cancel drops a shape being placed or restores the anchors of a shape being dragged
func (e *Engine) cancel() {
	switch e.state {
	case StatePlacing:
		e.draft, e.hasPreview = nil, false
		e.state = StateIdle
	case StateDragging:
		if a, ok := e.byID[e.drag.id]; ok {
			a.Anchors = append(a.Anchors[:0], e.drag.saved...)
		}
		e.state = StateSelected
	}
}

// grab selects the topmost shape under the pointer and starts dragging it. Anchor handles take
// precedence over shape bodies.
func (e *Engine) grab(at Point) {
	ctx := hitContext{tol: toleranceAt(e.m, e.tolerancePx), m: e.m, measure: e.surface.MeasureText}
	ids := e.topDown()

	id, anchor := int64(0), -1
	for _, candidate := range ids {
		for i, p := range e.byID[candidate].Anchors {
			if ctx.tol.dist(at, p) <= 1 {
				id, anchor = candidate, i
				break
			}
		}
		if id != 0 {
			break
		}
	}
	if id == 0 {
		for _, candidate := range ids {
			a := e.byID[candidate]
			if shapes[a.Kind].hit(a, at, ctx) {
				id = candidate
				break
			}
		}
	}

	if id == 0 {
		e.deselect()
		return
	}

	e.selectID(id)
	e.drag = dragState{id: id, anchor: anchor, origin: at, saved: append([]Point(nil), e.byID[id].Anchors...)}
	e.state = StateDragging
}

func (e *Engine) dragTo(at Point) {
	a, ok := e.byID[e.drag.id]
	if !ok {
		return
	}

	if e.drag.anchor >= 0 {
		a.Anchors[e.drag.anchor] = at
	} else {
		dIndex, dPrice := at.Index-e.drag.origin.Index, at.Price-e.drag.origin.Price
		for i, p := range e.drag.saved {
			a.Anchors[i] = Point{Index: p.Index + dIndex, Price: p.Price + dPrice}
		}
	}
	e.drag.moved = true
}

func (e *Engine) selectID(id int64) {
	if e.selected != 0 && e.selected != id {
		if prev, ok := e.byID[e.selected]; ok {
			prev.Selected = false
		}
	}
	e.selected = id
	e.byID[id].Selected = true
	e.state = StateSelected
}

func (e *Engine) deselect() {
	if a, ok := e.byID[e.selected]; ok {
		a.Selected = false
	}
	e.selected = 0
	if e.state == StateSelected {
		e.state = StateIdle
	}
}

func (e *Engine) removeSelected() {
	a, ok := e.byID[e.selected]
	if !ok {
		return
	}

	delete(e.byID, a.ID)
	e.order.Remove(a.ID)
	e.selected = 0
	e.state = StateIdle
	a.Selected = false

	e.log.WithField("id", a.ID).Debug("annotation removed")
	e.emit(ChangeRemoved, a)
}

func (e *Engine) emit(op ChangeOp, a *Annotation) {
	if a == nil {
		return
	}
	change := Change{Op: op, Annotation: a.clone()}
	for _, fn := range e.changeListeners {
		fn(change)
	}
}

// topDown returns annotation ids from the most recently drawn to the oldest
func (e *Engine) topDown() []int64 {
	ids := e.zOrder()
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

func (e *Engine) zOrder() []int64 {
	ids := make([]int64, 0, len(e.byID))
	for id := range e.order.Iter() {
		ids = append(ids, id)
	}
	return ids
}

// Annotations returns copies of every committed shape in drawing order
func (e *Engine) Annotations() []Annotation {
	out := make([]Annotation, 0, len(e.byID))
	for _, id := range e.zOrder() {
		out = append(out, e.byID[id].clone())
	}
	return out
}

// Visible returns the shapes whose bar extent intersects [start, end]
func (e *Engine) Visible(start, end float64) []Annotation {
	var out []Annotation
	for _, id := range e.zOrder() {
		a := e.byID[id]
		from, to := shapes[a.Kind].span(a)
		if to >= start && from <= end {
			out = append(out, a.clone())
		}
	}
	return out
}

// Preview returns the shape being placed, including the live pointer as its provisional last
// anchor. ok is false outside placement.
func (e *Engine) Preview() (a Annotation, ok bool) {
	if e.state != StatePlacing || e.draft == nil {
		return Annotation{}, false
	}
	a = e.draft.clone()
	if e.hasPreview && len(a.Anchors) < shapes[a.Kind].anchors {
		a.Anchors = append(a.Anchors, e.preview)
	}
	if a.Kind == KindText {
		a.Text = e.text
	}
	return a, true
}

// Render draws the visible shapes, selection handles and the placement preview onto s
func (e *Engine) Render(s canvas.Surface) {
	w, _ := s.Size()
	start, end := e.m.ToDataIndex(0), e.m.ToDataIndex(w)

	for _, a := range e.Visible(start, end) {
		st := a.Style
		if a.Selected {
			st.Width++
		}
		shapes[a.Kind].render(s, e.m, &a, st)
		if a.Selected {
			for _, p := range a.Anchors {
				at := pixel(e.m, p)
				s.Circle(at.X, at.Y, 4, handleStyle)
			}
		}
	}

	if a, ok := e.Preview(); ok && len(a.Anchors) >= shapes[a.Kind].anchors {
		st := a.Style
		st.Dash = []float64{5, 3}
		shapes[a.Kind].render(s, e.m, &a, st)
	}
}

func (e *Engine) Tool() Kind { return e.tool }
func (e *Engine) State() State { return e.state }
func (e *Engine) Count() int { return len(e.byID) }

// Selected returns the selected annotation, if any
func (e *Engine) Selected() (Annotation, bool) {
	a, ok := e.byID[e.selected]
	if !ok {
		return Annotation{}, false
	}
	return a.clone(), true
}
