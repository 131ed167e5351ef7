// Package contextmenu shows the feature context menu as a fyne popup menu.
package contextmenu

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb"

	"flatmap-viewer/internal/interaction"
)

// Presenter displays context-menu items as a fyne popup menu over the map
// canvas.
type Presenter struct {
	canvas fyne.Canvas

	// toScreen converts a world point to a canvas position.
	toScreen func(orb.Point) fyne.Position

	popup   *widget.PopUpMenu
	onClose func()

	// closed guards the close callback: a menu cycle may end through an
	// item action, an explicit Hide, or an outside-tap dismissal, and the
	// callback must fire exactly once per cycle.
	closed bool
}

var _ interaction.ContextMenuPresenter = (*Presenter)(nil)

// New creates a context-menu presenter for the given canvas.
func New(canvas fyne.Canvas, toScreen func(orb.Point) fyne.Position) *Presenter {
	return &Presenter{canvas: canvas, toScreen: toScreen, closed: true}
}

// Show opens the menu at a world point, replacing any open menu.
func (p *Presenter) Show(at orb.Point, items []interaction.MenuItem) {
	p.Hide()

	menuItems := make([]*fyne.MenuItem, 0, len(items))
	for _, item := range items {
		if item.Separator {
			menuItems = append(menuItems, fyne.NewMenuItemSeparator())
			continue
		}
		action := item.Action
		menuItems = append(menuItems, fyne.NewMenuItem(item.Prompt, func() {
			if action != nil {
				action()
			}
			p.notifyClosed()
		}))
	}

	p.closed = false
	p.popup = widget.NewPopUpMenu(fyne.NewMenu("", menuItems...), p.canvas)
	p.popup.OnDismiss = func() {
		p.popup.Hide()
		p.notifyClosed()
	}
	p.popup.ShowAtPosition(p.toScreen(at))
}

// Hide closes the menu, firing the close callback.
func (p *Presenter) Hide() {
	if p.popup != nil {
		p.popup.Hide()
		p.popup = nil
	}
	p.notifyClosed()
}

// OnClose registers the end-of-cycle callback.
func (p *Presenter) OnClose(fn func()) {
	p.onClose = fn
}

func (p *Presenter) notifyClosed() {
	if p.closed {
		return
	}
	p.closed = true
	if p.onClose != nil {
		p.onClose()
	}
}
