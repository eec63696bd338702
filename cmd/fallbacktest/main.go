// Command fallbacktest runs the local heuristic classifier on a tile image
// and prints the label it would assign when the remote service is down.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"layout-verifier/internal/classify"

	_ "golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to tile image (TIFF, PNG, or JPEG)")
	threshold := flag.Float64("threshold", 0.02, "Minimum foreground coverage for waveguide presence")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: fallbacktest -image <path> [-threshold 0.02]")
		os.Exit(1)
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image: %v\n", err)
		os.Exit(1)
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, bounds.Dx(), bounds.Dy())

	h := classify.NewHeuristic()
	h.Threshold = *threshold

	rationale, err := h.ClassifyDetailed(context.Background(), img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classification failed: %v\n", err)
		os.Exit(1)
	}
	label, confidence, err := h.ClassifyFast(context.Background(), img, rationale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classification failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nRationale: %s\n", rationale)
	fmt.Printf("Label: %s (confidence %.2f)\n", label, confidence)
}
