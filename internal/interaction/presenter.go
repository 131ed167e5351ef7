package interaction

import (
	"fyne.io/fyne/v2"
	"github.com/paulmach/orb"
)

// ContentKind tags popup content as plain text or a prebuilt widget.
type ContentKind int

// Popup content kinds.
const (
	ContentText ContentKind = iota
	ContentRich
)

// Content is popup/tooltip content: either plain text or a rich canvas
// object, never runtime-inspected.
type Content struct {
	Kind ContentKind
	Text string
	Rich fyne.CanvasObject
}

// TextContent wraps plain text as popup content.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// RichContent wraps a prebuilt canvas object as popup content.
func RichContent(obj fyne.CanvasObject) Content {
	return Content{Kind: ContentRich, Rich: obj}
}

// Empty reports whether the content has nothing to show.
func (c Content) Empty() bool {
	switch c.Kind {
	case ContentText:
		return c.Text == ""
	case ContentRich:
		return c.Rich == nil
	}
	return true
}

// TooltipPresenter shows a single transient overlay anchored to a map
// coordinate. At most one tooltip is visible at a time; a new Show replaces
// any prior content. The controller hides before showing when the hovered
// feature changes, to avoid flicker.
type TooltipPresenter interface {
	Show(at orb.Point, content Content)
	Hide()
	Remove()
}

// MenuItem is a context-menu entry: either an actionable item or a
// separator marker.
type MenuItem struct {
	ID        string
	Prompt    string
	Action    func()
	Separator bool
}

// Separator returns a separator marker entry.
func Separator() MenuItem {
	return MenuItem{Separator: true}
}

// ContextMenuPresenter shows an ordered item list anchored to a map
// coordinate. The close callback fires exactly once per show/close cycle,
// whether the menu was dismissed by the user or hidden programmatically.
type ContextMenuPresenter interface {
	Show(at orb.Point, items []MenuItem)
	Hide()
	OnClose(func())
}
