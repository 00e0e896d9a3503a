// Package labels keeps axis and level labels from overlapping. Candidates are placed greedily in
// priority order and a box is dropped when it hits one already placed.
package labels

import "sort"

// Box is an axis-aligned rectangle in pixels
type Box struct {
	X, Y, W, H float64
}

// Intersects reports whether the interiors of b and o overlap. Touching edges do not count.
func (b Box) Intersects(o Box) bool {
	return b.X < o.X+o.W && o.X < b.X+b.W && b.Y < o.Y+o.H && o.Y < b.Y+b.H
}

// Inside reports whether b lies entirely within o
func (b Box) Inside(o Box) bool {
	return b.X >= o.X && b.Y >= o.Y && b.X+b.W <= o.X+o.W && b.Y+b.H <= o.Y+o.H
}

// Pad grows b by p on every side
func (b Box) Pad(p float64) Box {
	return Box{X: b.X - p, Y: b.Y - p, W: b.W + 2*p, H: b.H + 2*p}
}

// Candidate is a label competing for screen space. Higher priority wins.
type Candidate struct {
	Box      Box
	Priority float64
	Text     string
	Value    float64
	Group    string
}

type options struct {
	padding   float64
	bounds    Box
	hasBounds bool
}

type Option func(*options)

// WithPadding inflates each box by p pixels before testing for overlap
func WithPadding(p float64) Option {
	return func(o *options) {
		if p > 0 {
			o.padding = p
		}
	}
}

// WithBounds rejects candidates that do not fit inside b
func WithBounds(b Box) Option {
	return func(o *options) {
		o.bounds = b
		o.hasBounds = true
	}
}

// Place returns the accepted candidates in placement order. Ties in priority keep their input
// order, so the same input always yields the same layout.
func Place(candidates []Candidate, opts ...Option) []Candidate {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	order := make([]Candidate, len(candidates))
	copy(order, candidates)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Priority > order[j].Priority })

	accepted := make([]Candidate, 0, len(order))
	placed := make([]Box, 0, len(order))
	for _, c := range order {
		if c.Box.W < 0 || c.Box.H < 0 {
			continue
		}
		if o.hasBounds && !c.Box.Inside(o.bounds) {
			continue
		}

		box := c.Box.Pad(o.padding)
		if collides(box, placed) {
			continue
		}
		placed = append(placed, box)
		accepted = append(accepted, c)
	}
	return accepted
}

func collides(b Box, placed []Box) bool {
	for _, p := range placed {
		if b.Intersects(p) {
			return true
		}
	}
	return false
}
