// Package main provides the headless entry point for the Layout Verifier:
// it loads a converted layout, partitions it into a tile grid, classifies
// every tile (or those inside a region of interest), and writes the export
// record. Interactive shells subscribe to the same store events this CLI
// prints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"layout-verifier/internal/app"
	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/layout"
	"layout-verifier/internal/project"
	"layout-verifier/internal/render"
	"layout-verifier/internal/results"
	"layout-verifier/internal/version"
	"layout-verifier/pkg/geometry"
	"layout-verifier/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	projectPath := flag.String("project", "", "Project file (.lvproj) to restore and update")
	layoutPath := flag.String("layout", "", "Path to converted layout JSON")
	demo := flag.Bool("demo", false, "Run against a synthetic demo layout")
	rows := flag.Uint("rows", 0, "Grid rows (default from project or preferences)")
	cols := flag.Uint("cols", 0, "Grid columns (default from project or preferences)")
	overlap := flag.Float64("overlap", -1, "Tile overlap percent [0,100)")
	resolution := flag.Uint("resolution", 0, "Tile render resolution in pixels")
	workers := flag.Int("workers", 0, "Worker count (0 = CPU parallelism)")
	rasterPath := flag.String("raster", "", "Optional pre-rendered raster of the full layout extent")
	roiSpec := flag.String("roi", "", "Restrict analysis to region x1,y1,x2,y2 (world coordinates)")
	out := flag.String("out", "", "Export record path (default results.json or the project's export path)")
	apiKey := flag.String("api-key", "", "Classification service API key (default $GOOGLE_API_KEY or preferences)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s, built %s)\n",
			version.AppName, version.Version, version.GitCommit, version.BuildTime)
		return
	}

	proj := openProject(*projectPath)
	if proj != nil && *layoutPath == "" {
		*layoutPath = proj.GetLayoutPath(*projectPath)
	}
	if *layoutPath == "" && !*demo {
		fmt.Println("Usage: layout-verifier -layout <path> [-project chip.lvproj] [-rows N -cols N -overlap P -resolution PX] [-roi x1,y1,x2,y2] [-out results.json]")
		os.Exit(1)
	}

	p := prefs.Load()
	log.Printf("Starting %s v%s", version.AppName, version.Version)

	state := app.NewState()
	state.SetCacheCapacity(cacheCapacity(p, proj))

	if *demo {
		state.UseLayout(layout.Synthetic(1000, 1000, 4))
	} else if err := state.LoadLayout(*layoutPath); err != nil {
		log.Fatalf("Failed to load layout %s: %v", *layoutPath, err)
	}

	if *rasterPath != "" {
		bounds, _ := state.Bounds()
		rr, err := render.LoadRaster(*rasterPath, bounds)
		if err != nil {
			log.Fatalf("Failed to load raster %s: %v", *rasterPath, err)
		}
		state.SetRenderer(render.Chain{rr, render.NewLayoutRenderer(state.Layout)})
		log.Printf("Raster source wired: %s", *rasterPath)
	}

	cfg := gridConfig(p, proj, *rows, *cols, *overlap, *resolution)
	if err := state.GenerateGrid(cfg); err != nil {
		log.Fatalf("Invalid grid configuration: %v", err)
	}

	setupClassifiers(state, p, *apiKey)
	printProgress(state)

	if *workers <= 0 {
		*workers = p.Int(prefs.KeyWorkers, 0)
	}
	if *workers <= 0 && proj != nil {
		*workers = proj.Settings.Workers
	}

	ctx := context.Background()
	var err error
	switch {
	case *roiSpec != "":
		rect, parseErr := parseROI(*roiSpec)
		if parseErr != nil {
			log.Fatalf("Invalid -roi: %v", parseErr)
		}
		state.AddROI(rect.TopLeft(), rect.BottomRight())
		err = state.StartROIRun(ctx, *workers)
	case proj != nil && len(proj.Regions) > 0:
		state.SetROIs(proj.Regions)
		err = state.StartROIRun(ctx, *workers)
		if errors.Is(err, app.ErrNoSelection) {
			log.Println("Project regions all deselected; analyzing the full grid")
			err = state.StartFullRun(ctx, *workers)
		}
	default:
		err = state.StartFullRun(ctx, *workers)
	}
	if err != nil {
		log.Fatalf("Analysis failed to start: %v", err)
	}

	state.Wait()

	run := state.Store().Run()
	log.Printf("Run %s finished: %s (%d model, %d fallback, %d errors)",
		run.ID, run.Status, run.Succeeded, run.Fallback, run.Failed)

	record, err := state.ExportRecord()
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	exportPath := resolveExportPath(*out, *projectPath, proj)
	if err := record.Save(exportPath); err != nil {
		log.Fatalf("Failed to write %s: %v", exportPath, err)
	}
	log.Printf("Export written to %s (%d results, mean confidence %.2f)",
		exportPath, record.Summary.Total, record.Summary.MeanConfidence)

	saveProject(*projectPath, proj, state, cfg, *layoutPath)
}

// openProject loads an existing project file or seeds a fresh one when the
// path does not exist yet. A missing -project flag means no project at all.
func openProject(path string) *project.File {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		proj, err := project.Load(path)
		if err != nil {
			log.Fatalf("Failed to load project %s: %v", path, err)
		}
		log.Printf("Project loaded: %s", proj.Name)
		return proj
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return project.New(name)
}

func saveProject(path string, proj *project.File, state *app.State, cfg grid.Config, layoutPath string) {
	if proj == nil {
		return
	}
	proj.Grid = &cfg
	proj.Regions = state.ROIs()
	if layoutPath != "" {
		proj.SetLayout(path, layoutPath)
	}
	if err := proj.Save(path); err != nil {
		log.Printf("Failed to save project %s: %v", path, err)
		return
	}
	log.Printf("Project saved to %s", path)
}

func cacheCapacity(p *prefs.Prefs, proj *project.File) int {
	if proj != nil && proj.Settings.CacheCapacity > 0 {
		return proj.Settings.CacheCapacity
	}
	return p.Int(prefs.KeyCacheCapacity, 50)
}

func resolveExportPath(out, projectPath string, proj *project.File) string {
	if out != "" {
		return out
	}
	if proj != nil && projectPath != "" {
		return proj.GetExportPath(projectPath)
	}
	return "results.json"
}

func gridConfig(p *prefs.Prefs, proj *project.File, rows, cols uint, overlap float64, resolution uint) grid.Config {
	cfg := grid.DefaultConfig()
	cfg.OverlapPercent = p.Float(prefs.KeyOverlap, cfg.OverlapPercent)
	cfg.ResolutionPx = uint(p.Int(prefs.KeyResolution, int(cfg.ResolutionPx)))

	if proj != nil && proj.Grid != nil {
		cfg = *proj.Grid
	}

	if rows > 0 {
		cfg.Rows = rows
	}
	if cols > 0 {
		cfg.Cols = cols
	}
	if overlap >= 0 {
		cfg.OverlapPercent = overlap
	}
	if resolution > 0 {
		cfg.ResolutionPx = resolution
	}
	return cfg
}

// setupClassifiers wires the remote service when a key is available. With no
// key the run proceeds fallback-only, which is still useful for grid and
// render validation.
func setupClassifiers(state *app.State, p *prefs.Prefs, flagKey string) {
	key := flagKey
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		key = p.String(prefs.KeyAPIKey, "")
	}
	if key == "" {
		log.Println("No API key configured; classifying with local fallback heuristic only")
		return
	}

	client := classify.NewGeminiClient(key)
	client.DetailedModel = p.String(prefs.KeyDetailedModel, client.DetailedModel)
	client.FastModel = p.String(prefs.KeyFastModel, client.FastModel)
	state.SetClassifiers(client, client)
	log.Printf("Classification service wired: %s + %s", client.DetailedModel, client.FastModel)
}

func printProgress(state *app.State) {
	store := state.Store()
	store.On(results.EventProgress, func(data interface{}) {
		if p, ok := data.(results.Progress); ok {
			log.Printf("Progress: %d/%d tiles", p.Completed, p.Total)
		}
	})
	store.On(results.EventTileError, func(data interface{}) {
		if e, ok := data.(results.Error); ok {
			log.Printf("Tile %s %s error: %s", e.Address, e.Kind, e.Detail)
		}
	})
	store.On(results.EventStatusChanged, func(data interface{}) {
		if s, ok := data.(results.Status); ok {
			log.Printf("Status: %s", s)
		}
	})
}

func parseROI(spec string) (geometry.Rect, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("want x1,y1,x2,y2, got %q", spec)
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("bad coordinate %q: %w", part, err)
		}
		vals[i] = v
	}

	rect := geometry.RectFromCorners(
		geometry.Point2D{X: vals[0], Y: vals[1]},
		geometry.Point2D{X: vals[2], Y: vals[3]},
	)
	if rect.Empty() {
		return geometry.Rect{}, fmt.Errorf("region %q has zero area", spec)
	}
	return rect, nil
}
