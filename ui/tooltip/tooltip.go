// Package tooltip shows hover tooltips and feature popups anchored to map
// locations.
package tooltip

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/muesli/reflow/wordwrap"
	"github.com/paulmach/orb"

	"flatmap-viewer/internal/interaction"
)

// Tooltip text wraps at this many columns.
const wrapWidth = 36

// Cursor offset so the tooltip does not sit under the pointer.
const anchorOffset = 12

// Presenter displays tooltip content as a fyne popup positioned over the map
// canvas.
type Presenter struct {
	canvas fyne.Canvas

	// toScreen converts a world point to a canvas position.
	toScreen func(orb.Point) fyne.Position

	popup *widget.PopUp
}

var _ interaction.TooltipPresenter = (*Presenter)(nil)

// New creates a tooltip presenter for the given canvas. toScreen converts
// world coordinates to canvas positions; the map widget supplies it.
func New(canvas fyne.Canvas, toScreen func(orb.Point) fyne.Position) *Presenter {
	return &Presenter{canvas: canvas, toScreen: toScreen}
}

// Show displays content anchored at a world point, replacing any visible
// tooltip.
func (p *Presenter) Show(at orb.Point, content interaction.Content) {
	obj := p.render(content)
	if obj == nil {
		return
	}
	p.Remove()

	pos := p.toScreen(at)
	p.popup = widget.NewPopUp(obj, p.canvas)
	p.popup.ShowAtPosition(fyne.NewPos(pos.X+anchorOffset, pos.Y+anchorOffset))
}

func (p *Presenter) render(content interaction.Content) fyne.CanvasObject {
	switch content.Kind {
	case interaction.ContentRich:
		return content.Rich
	case interaction.ContentText:
		if content.Text == "" {
			return nil
		}
		return widget.NewLabel(wordwrap.String(content.Text, wrapWidth))
	default:
		return nil
	}
}

// Hide hides the tooltip.
func (p *Presenter) Hide() {
	if p.popup != nil {
		p.popup.Hide()
	}
}

// Remove hides and discards the tooltip widget.
func (p *Presenter) Remove() {
	if p.popup != nil {
		p.popup.Hide()
		p.popup = nil
	}
}
