// Package popup positions the payment-date overlay that opens when an
// operator clicks an emitter.
package popup

import (
	"time"

	"github.com/febros/localesdash/internal/emitter"
)

// Rect is an element's bounding box with a top-left origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the midpoint of r.
func (r Rect) Center() Anchor {
	return Anchor{Top: r.Y + r.Height/2, Left: r.X + r.Width/2}
}

// Contains reports whether the point lies inside r (right and bottom edges
// excluded).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Anchor is the point the overlay is centred on.
type Anchor struct {
	Top, Left float64
}

// Popup is the open overlay.
type Popup struct {
	ID     emitter.ID
	Fecha  emitter.Timestamp
	Text   string
	Anchor Anchor
}

// Positioner holds at most one open popup.
type Positioner struct {
	width, height float64
	loc           *time.Location
	current       *Popup
}

// NewPositioner returns a positioner whose overlay content has the given
// size. Dates are formatted in loc (time.Local when nil).
func NewPositioner(width, height float64, loc *time.Location) *Positioner {
	if loc == nil {
		loc = time.Local
	}
	return &Positioner{width: width, height: height, loc: loc}
}

// Open shows the payment date of rec anchored at the centre of clicked,
// replacing any open popup. Records without fechaAlta open nothing and
// leave the current state untouched; Open then returns false.
func (p *Positioner) Open(rec emitter.Record, clicked Rect) bool {
	rec = emitter.Normalize(rec)
	if rec.FechaAlta == nil {
		return false
	}
	p.current = &Popup{
		ID:     rec.ID,
		Fecha:  *rec.FechaAlta,
		Text:   emitter.FormatDate(rec.FechaAlta, p.loc),
		Anchor: clicked.Center(),
	}
	return true
}

// Close dismisses the popup.
func (p *Positioner) Close() {
	p.current = nil
}

// Current returns the open popup.
func (p *Positioner) Current() (Popup, bool) {
	if p.current == nil {
		return Popup{}, false
	}
	return *p.current, true
}

// Bounds is the content rectangle centred on the anchor.
func (p *Positioner) Bounds() (Rect, bool) {
	if p.current == nil {
		return Rect{}, false
	}
	a := p.current.Anchor
	return Rect{
		X:      a.Left - p.width/2,
		Y:      a.Top - p.height/2,
		Width:  p.width,
		Height: p.height,
	}, true
}

// Click handles a click while the popup may be open. A click inside the
// content is consumed and keeps the popup; a click anywhere else closes
// it. It returns true when the popup was closed.
func (p *Positioner) Click(x, y float64) bool {
	bounds, ok := p.Bounds()
	if !ok {
		return false
	}
	if bounds.Contains(x, y) {
		return false
	}
	p.Close()
	return true
}
