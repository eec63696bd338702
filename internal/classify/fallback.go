package classify

import (
	"context"
	"image"

	"gocv.io/x/gocv"
)

// Heuristic is the deterministic local fallback used when the remote
// service is unavailable or the tile image is a placeholder. It never calls
// the network and never fails: tiles whose rendered-geometry pixel coverage
// falls below Threshold are labeled NoWaveguide, everything else Continuity.
// Discontinuities cannot be detected locally, which is why fallback results
// carry a fixed low confidence and are flagged for reviewer scrutiny.
type Heuristic struct {
	// Threshold is the minimum fraction of non-background pixels for a tile
	// to count as containing geometry.
	Threshold float64
	// Confidence is attached to every fallback label.
	Confidence float64
}

// NewHeuristic returns the fallback with default tuning.
func NewHeuristic() *Heuristic {
	return &Heuristic{Threshold: 0.02, Confidence: 0.25}
}

// ClassifyDetailed implements Detailed with a canned rationale.
func (h *Heuristic) ClassifyDetailed(ctx context.Context, img image.Image) (string, error) {
	coverage := h.coverage(img)
	if coverage < h.Threshold {
		return "fallback heuristic: no drawn geometry above coverage threshold; no waveguides to inspect", nil
	}
	return "fallback heuristic: drawn geometry present; continuity not verified by model", nil
}

// ClassifyFast implements Fast.
func (h *Heuristic) ClassifyFast(ctx context.Context, img image.Image, rationale string) (Label, float64, error) {
	if h.coverage(img) < h.Threshold {
		return NoWaveguide, h.Confidence, nil
	}
	return Continuity, h.Confidence, nil
}

// coverage measures the fraction of pixels darker than near-white, i.e.
// drawn material rather than background canvas.
func (h *Heuristic) coverage(img image.Image) float64 {
	mat := imageToMat(img)
	defer mat.Close()
	if mat.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Background renders near-white; anything below 240 is drawn material.
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, 240, 255, gocv.ThresholdBinaryInv)

	// Drop speckle so anti-aliasing remnants don't count as geometry.
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 3, Y: 3})
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

func imageToMat(srcImg image.Image) gocv.Mat {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit to 8-bit, BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}
