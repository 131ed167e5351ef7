// Flatmap viewer: an interactive desktop viewer for anatomical flatmaps.
package main

import (
	"flag"
	"log"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	"flatmap-viewer/internal/app"
	"flatmap-viewer/internal/version"
	"flatmap-viewer/ui/mainwindow"
	"flatmap-viewer/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	watch := flag.Bool("watch", false, "reload the map when its manifest changes on disk")
	flag.Parse()

	log.Printf("flatmap-viewer %s (%s)", version.Version, version.GitCommit)

	fyneApp := fyneapp.NewWithID("io.flatmap.viewer")
	fyneApp.Settings().SetTheme(&app.ViewerTheme{})

	session := app.NewState()
	preferences := prefs.Load()

	win := mainwindow.New(fyneApp, session, preferences)

	if path := flag.Arg(0); path != "" {
		if err := session.LoadMap(path); err != nil {
			log.Fatalf("open %s: %v", path, err)
		}
		preferences.AddRecentMap(path)

		if *watch {
			if w := app.NewMapWatcher(path, 2*time.Second); w != nil {
				w.OnChange(func() {
					log.Printf("manifest changed, reloading %s", path)
					if err := session.LoadMap(path); err != nil {
						log.Printf("reload %s: %v", path, err)
					}
				})
				w.Start()
				defer w.Stop()
			}
		}
	}

	win.ShowAndRun()

	if err := preferences.Save(); err != nil {
		log.Printf("save preferences: %v", err)
	}
}
