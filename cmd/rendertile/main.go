// Command rendertile rasterizes a single grid tile from a converted layout
// and writes it as a PNG. Useful for tuning overlap and resolution without
// running a full analysis pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"layout-verifier/internal/grid"
	"layout-verifier/internal/layout"
	"layout-verifier/internal/render"
)

func main() {
	layoutPath := flag.String("layout", "", "Path to converted layout JSON")
	demo := flag.Bool("demo", false, "Render from a synthetic demo layout")
	row := flag.Uint("row", 0, "Tile row")
	col := flag.Uint("col", 0, "Tile column")
	rows := flag.Uint("rows", 4, "Grid rows")
	cols := flag.Uint("cols", 4, "Grid columns")
	overlap := flag.Float64("overlap", 10, "Tile overlap percent [0,100)")
	resolution := flag.Uint("resolution", 512, "Tile resolution in pixels")
	timeout := flag.Duration("timeout", 30*time.Second, "Render timeout")
	out := flag.String("out", "tile.png", "Output PNG path")
	flag.Parse()

	if *layoutPath == "" && !*demo {
		fmt.Println("Usage: rendertile -layout <path> [-row N -col N] [-rows 4 -cols 4] [-out tile.png]")
		os.Exit(1)
	}

	var l *layout.Layout
	if *demo {
		l = layout.Synthetic(1000, 1000, 4)
	} else {
		var err error
		l, err = layout.Load(*layoutPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load layout: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Loaded layout %q: %d elements, bounds %.1fx%.1f\n",
		l.Name, len(l.Elements), l.Bounds.Width, l.Bounds.Height)

	cfg := grid.Config{
		Rows:           *rows,
		Cols:           *cols,
		OverlapPercent: *overlap,
		ResolutionPx:   *resolution,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid grid: %v\n", err)
		os.Exit(1)
	}

	addr := grid.Address{Row: *row, Col: *col}
	if !cfg.Contains(addr) {
		fmt.Fprintf(os.Stderr, "Address %s outside %dx%d grid\n", addr, cfg.Rows, cfg.Cols)
		os.Exit(1)
	}

	world, err := grid.AddressWorldRect(addr, cfg, l.Bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tile mapping failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Tile %s world rect: (%.2f,%.2f) %.2fx%.2f\n",
		addr, world.X, world.Y, world.Width, world.Height)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	r := render.NewLayoutRenderer(l)
	start := time.Now()
	img, err := r.RenderTile(ctx, world, cfg.ResolutionPx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rendered %dx%d in %v\n",
		img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start).Round(time.Millisecond))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}
