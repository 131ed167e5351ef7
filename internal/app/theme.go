package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Accent colors shared with the map surface, so widget chrome and feature
// tints agree.
var (
	accentTeal    = color.NRGBA{R: 0x00, G: 0x6E, B: 0x8C, A: 0xFF}
	selectionGold = color.NRGBA{R: 0xFF, G: 0xD5, B: 0x00, A: 0x80}
)

// ViewerTheme adjusts the stock fyne theme: teal accents, the gold used to
// tint selected features, and scrollbars sized for panning large maps.
// Everything else falls through to the default theme.
type ViewerTheme struct{}

var _ fyne.Theme = (*ViewerTheme)(nil)

func (t *ViewerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return accentTeal
	case theme.ColorNameSelection:
		return selectionGold
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *ViewerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16 // easier to grab while panning
	case theme.SizeNameScrollBarSmall:
		return 12
	}
	return theme.DefaultTheme().Size(name)
}

func (t *ViewerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ViewerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
