// Command annocheck validates a flatmap manifest: it reports annotation
// problems and prints area statistics for the annotated polygons.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"flatmap-viewer/internal/flatmap"
	"flatmap-viewer/internal/layers"
	"flatmap-viewer/pkg/geometry"
)

func main() {
	manifestPath := flag.String("manifest", "", "Path to flatmap manifest JSON")
	verbose := flag.Bool("v", false, "List every annotation, not just problems")
	flag.Parse()

	if *manifestPath == "" && flag.NArg() > 0 {
		*manifestPath = flag.Arg(0)
	}
	if *manifestPath == "" {
		fmt.Println("Usage: annocheck [-v] -manifest <path>")
		os.Exit(1)
	}

	fm, err := flatmap.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Map: %s", fm.ID())
	if fm.Describes() != "" {
		fmt.Printf(" (describes %s)", fm.Describes())
	}
	fmt.Println()

	declared := make(map[string]layers.Descriptor)
	for _, d := range fm.Layers() {
		declared[d.ID] = d
	}
	fmt.Printf("Layers: %d declared, %d selectable\n",
		len(fm.Layers()), len(layers.Partition(fm.Layers())))

	problems := 0
	var areas []float64

	for _, id := range fm.AnnotationIDs() {
		ann := fm.Annotation(id)

		var issues []string
		if ann.Error != "" {
			issues = append(issues, "error: "+ann.Error)
		}
		if !ann.HasModels() {
			issues = append(issues, "no models")
		}
		if ann.Layer == "" {
			issues = append(issues, "no layer")
		} else if _, ok := declared[ann.Layer]; !ok {
			issues = append(issues, "undeclared layer "+ann.Layer)
		}

		area, found := annotatedArea(fm, ann)
		if !found {
			issues = append(issues, "no geometry or bounds")
		} else {
			areas = append(areas, area)
		}

		if len(issues) > 0 {
			problems++
			fmt.Printf("  %-24s %s\n", id, join(issues))
		} else if *verbose {
			fmt.Printf("  %-24s ok (area %.1f)\n", id, area)
		}
	}

	fmt.Printf("\nAnnotations: %d total, %d with problems\n",
		len(fm.AnnotationIDs()), problems)

	if len(areas) > 0 {
		printAreaStats(areas)
	}

	if problems > 0 {
		os.Exit(2)
	}
}

// annotatedArea returns the annotation's feature area, preferring real
// geometry over the precomputed bounding box.
func annotatedArea(fm *flatmap.FlatMap, ann *flatmap.Annotation) (float64, bool) {
	if fc := fm.Features(ann.Layer); fc != nil {
		for _, f := range fc.Features {
			id, _ := f.ID.(string)
			if id == ann.ID && f.Geometry != nil {
				return geometry.Area(f.Geometry), true
			}
		}
	}
	if b, ok := ann.Bound(); ok {
		return geometry.Area(orb.Polygon{b.ToRing()}), true
	}
	return 0, false
}

func printAreaStats(areas []float64) {
	sort.Float64s(areas)

	mean := stat.Mean(areas, nil)
	dev := stat.StdDev(areas, nil)
	median := stat.Quantile(0.5, stat.Empirical, areas, nil)
	p90 := stat.Quantile(0.9, stat.Empirical, areas, nil)

	fmt.Printf("\nPolygon area statistics (%d features):\n", len(areas))
	fmt.Printf("  min:    %.2f\n", areas[0])
	fmt.Printf("  median: %.2f\n", median)
	fmt.Printf("  mean:   %.2f (stddev %.2f)\n", mean, dev)
	fmt.Printf("  p90:    %.2f\n", p90)
	fmt.Printf("  max:    %.2f\n", areas[len(areas)-1])

	// Nested anatomy produces heavy right tails; a mean far above the
	// median usually means a stray map-sized polygon was annotated.
	if median > 0 && mean/median > 10 {
		fmt.Println("  warning: mean far exceeds median, check for oversized polygons")
	}
}

func join(issues []string) string {
	out := issues[0]
	for _, s := range issues[1:] {
		out += "; " + s
	}
	return out
}
