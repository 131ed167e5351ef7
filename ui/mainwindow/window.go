// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"flatmap-viewer/internal/app"
	"flatmap-viewer/internal/engine"
	"flatmap-viewer/internal/flatmap"
	"flatmap-viewer/internal/interaction"
	"flatmap-viewer/internal/query"
	mapstate "flatmap-viewer/internal/state"
	"flatmap-viewer/internal/version"
	"flatmap-viewer/ui/canvas"
	"flatmap-viewer/ui/contextmenu"
	"flatmap-viewer/ui/prefs"
	"flatmap-viewer/ui/tooltip"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb"
)

const prefKeyQueryEndpoint = "query-endpoint"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.State
	prefs   *prefs.Prefs

	// Per-map objects, rebuilt on every map load.
	canvas     *canvas.MapCanvas
	controller *interaction.Controller
	flags      *mapstate.FlagStore

	mapArea   *fyne.Container
	toolbar   *fyne.Container
	statusBar *widget.Label

	searchEntry   *widget.Entry
	layerSwitcher *widget.PopUp
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.State, preferences *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Flatmap Viewer")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   preferences,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreLastMap()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("No map loaded")
	mw.mapArea = container.NewStack(widget.NewLabel("Open a map to begin"))

	mw.searchEntry = widget.NewEntry()
	mw.searchEntry.SetPlaceHolder("Search features...")
	mw.searchEntry.OnSubmitted = mw.onSearch
	mw.searchEntry.Hide()

	mw.toolbar = container.NewHBox(
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onFitToMap),
		widget.NewButton("Layers", mw.onShowLayers),
		widget.NewButton("Clear", mw.onClearResults),
		mw.searchEntry,
	)

	content := container.NewBorder(
		mw.toolbar,                        // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.mapArea,                        // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1100, 800))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	recent := mw.recentMenuItems()

	fileItems := []*fyne.MenuItem{
		fyne.NewMenuItem("Open Map...", mw.onOpenMap),
	}
	if len(recent) > 0 {
		openRecent := fyne.NewMenuItem("Open Recent", nil)
		openRecent.ChildMenu = fyne.NewMenu("", recent...)
		fileItems = append(fileItems, openRecent)
	}
	fileItems = append(fileItems,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)
	fileMenu := fyne.NewMenu("File", fileItems...)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Fit to Map", mw.onFitToMap),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Layers...", mw.onShowLayers),
		fyne.NewMenuItem("Clear Results", mw.onClearResults),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) recentMenuItems() []*fyne.MenuItem {
	var items []*fyne.MenuItem
	for _, path := range mw.prefs.RecentMaps() {
		p := path
		items = append(items, fyne.NewMenuItem(filepath.Base(p), func() {
			mw.loadMap(p)
		}))
	}
	return items
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventMapLoaded, func(data interface{}) {
		mw.buildMapView()
		if path, ok := data.(string); ok && path != "" {
			mw.SetTitle("Flatmap Viewer - " + filepath.Base(path))
		}
	})

	mw.session.On(app.EventStatus, func(data interface{}) {
		if text, ok := data.(string); ok {
			mw.updateStatus(text)
		}
	})

	mw.session.On(app.EventFeatureQueried, func(data interface{}) {
		payload, ok := data.(map[string]interface{})
		if !ok {
			return
		}
		mw.updateStatus(fmt.Sprintf("Query requested for %v", payload["feature"]))
	})

	mw.session.On(app.EventFeatureClicked, func(data interface{}) {
		payload, ok := data.(map[string]interface{})
		if !ok {
			return
		}
		if label, ok := payload["label"].(string); ok && label != "" {
			mw.updateStatus("Clicked " + label)
		}
	})
}

// buildMapView rebuilds the canvas and interaction stack for the session map.
func (mw *MainWindow) buildMapView() {
	fm := mw.session.CurrentMap()
	if fm == nil {
		return
	}

	mw.closeLayerSwitcher()
	mw.flags = mapstate.NewFlagStore()
	mw.canvas = canvas.NewMapCanvas(fm, mw.flags)

	toScreen := func(p orb.Point) fyne.Position {
		return mw.canvas.WorldToScreen(p)
	}
	tooltips := tooltip.New(mw.Canvas(), toScreen)
	menu := contextmenu.New(mw.Canvas(), toScreen)

	endpoint := mw.prefs.String(prefKeyQueryEndpoint)
	service := query.NewService(query.NewHTTPRunner(endpoint, nil))
	// Query tasks finish on their own goroutines; completion hooks mutate
	// controller state and must land on the fyne event loop.
	service.Defer = fyne.Do

	mw.controller = interaction.New(interaction.Config{
		Engine:  mw.canvas,
		Events:  mw.canvas,
		Map:     fm,
		Flags:   mw.flags,
		Tooltip: tooltips,
		Menu:    menu,
		Query:   service,
		Policy:  &interaction.AnnotationPolicy{},
		AttachSearch: func() {
			mw.searchEntry.Show()
		},
		CloseLayerSwitcher: mw.closeLayerSwitcher,
		OnLoaded: func() {
			mw.updateStatus(fmt.Sprintf("Loaded %s (%s)", fm.ID(), fm.Describes()))
		},
	})

	// Restore the layer set from the previous session where names still
	// match; otherwise every declared layer stays active.
	if saved := mw.prefs.ActiveLayers(); len(saved) > 0 {
		mw.controller.DeactivateLayer(mw.controller.ActiveLayerNames()...)
		mw.controller.ActivateLayer(saved...)
	}
	mw.syncVisibleLayers()

	if !fm.Options().Searchable {
		mw.searchEntry.Hide()
	}

	mw.mapArea.Objects = []fyne.CanvasObject{mw.canvas}
	mw.mapArea.Refresh()
}

// syncVisibleLayers pushes the controller's active layer set to the canvas
// and records it for the next session.
func (mw *MainWindow) syncVisibleLayers() {
	names := mw.controller.ActiveLayerNames()
	mw.canvas.SetVisibleLayers(names)
	mw.prefs.SetActiveLayers(names)
	mw.session.Emit(app.EventLayersChanged, names)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// restoreLastMap reopens the map from the previous session.
func (mw *MainWindow) restoreLastMap() {
	path := mw.prefs.LastMap()
	if path == "" {
		return
	}
	if err := mw.session.LoadMap(path); err != nil {
		log.Printf("restore last map: %v", err)
	}
}

func (mw *MainWindow) loadMap(path string) {
	if err := mw.session.LoadMap(path); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.AddRecentMap(path)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("save preferences: %v", err)
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenMap() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.loadMap(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func (mw *MainWindow) onZoomIn() {
	if mw.canvas != nil {
		mw.canvas.ZoomIn()
	}
}

func (mw *MainWindow) onZoomOut() {
	if mw.canvas != nil {
		mw.canvas.ZoomOut()
	}
}

func (mw *MainWindow) onFitToMap() {
	fm := mw.session.CurrentMap()
	if fm == nil || mw.canvas == nil {
		return
	}
	mw.canvas.FitBounds(fm.Extent(), engine.FitOptions{Padding: 20})
}

func (mw *MainWindow) onClearResults() {
	if mw.controller != nil {
		mw.controller.ClearResults()
	}
	mw.updateStatus("Results cleared")
}

// onShowLayers opens the layer switcher: one checkbox per declared layer.
func (mw *MainWindow) onShowLayers() {
	fm := mw.session.CurrentMap()
	if fm == nil || mw.controller == nil {
		return
	}
	mw.closeLayerSwitcher()

	active := make(map[string]bool)
	for _, name := range mw.controller.ActiveLayerNames() {
		active[name] = true
	}

	box := container.NewVBox()
	for _, d := range fm.Layers() {
		if d.BackgroundFor != "" {
			continue
		}
		name := d.ID
		check := widget.NewCheck(layerTitle(fm, name), func(on bool) {
			if on {
				mw.controller.ActivateLayer(name)
			} else {
				mw.controller.DeactivateLayer(name)
			}
			mw.syncVisibleLayers()
		})
		check.SetChecked(active[name])
		box.Add(check)
	}

	mw.layerSwitcher = widget.NewPopUp(box, mw.Canvas())
	mw.layerSwitcher.ShowAtPosition(fyne.NewPos(60, 40))
}

func layerTitle(fm *flatmap.FlatMap, name string) string {
	for _, d := range fm.Layers() {
		if d.ID == name && d.Description != "" {
			return d.Description
		}
	}
	return name
}

func (mw *MainWindow) closeLayerSwitcher() {
	if mw.layerSwitcher != nil {
		mw.layerSwitcher.Hide()
		mw.layerSwitcher = nil
	}
}

// onSearch zooms to the features whose labels match the query text.
func (mw *MainWindow) onSearch(text string) {
	fm := mw.session.CurrentMap()
	if fm == nil || mw.controller == nil {
		return
	}
	ids := fm.FindByLabel(text)
	if len(ids) == 0 {
		mw.updateStatus("No features match '" + text + "'")
		return
	}
	mw.controller.ZoomToFeatures(ids)
	mw.updateStatus(fmt.Sprintf("%d feature(s) match '%s'", len(ids), text))
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Flatmap Viewer",
		fmt.Sprintf("Flatmap Viewer v%s\n\n"+
			"An interactive viewer for anatomical flatmaps.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
