package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-verifier/internal/roi"
	"layout-verifier/pkg/geometry"
)

func TestAddressesIntersectingNoSelection(t *testing.T) {
	cfg := Config{Rows: 2, Cols: 2, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	got, err := AddressesIntersecting(cfg, bounds, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	// An unselected region contributes nothing.
	r := roi.New(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 90, Y: 90})
	r.Selected = false
	got, err = AddressesIntersecting(cfg, bounds, []roi.Region{r})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddressesIntersectingSingleTile(t *testing.T) {
	cfg := Config{Rows: 2, Cols: 2, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	// A region strictly inside the bottom-right quadrant.
	r := roi.New(geometry.Point2D{X: 60, Y: 60}, geometry.Point2D{X: 90, Y: 90})
	got, err := AddressesIntersecting(cfg, bounds, []roi.Region{r})
	require.NoError(t, err)
	assert.Equal(t, []Address{{Row: 1, Col: 1}}, got)
}

func TestAddressesIntersectingEdgeTouchExcluded(t *testing.T) {
	cfg := Config{Rows: 2, Cols: 2, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	// Region sits exactly on the vertical midline: it touches the left
	// quadrants' edges but only overlaps the right ones.
	r := roi.New(geometry.Point2D{X: 50, Y: 0}, geometry.Point2D{X: 100, Y: 100})
	got, err := AddressesIntersecting(cfg, bounds, []roi.Region{r})
	require.NoError(t, err)
	assert.Equal(t, []Address{{Row: 0, Col: 1}, {Row: 1, Col: 1}}, got)
}

func TestAddressesIntersectingFullCoverage(t *testing.T) {
	cfg := Config{Rows: 3, Cols: 3, OverlapPercent: 15, ResolutionPx: 128}
	bounds := geometry.Rect{X: -10, Y: -10, Width: 120, Height: 120}

	r := roi.New(geometry.Point2D{X: -10, Y: -10}, geometry.Point2D{X: 110, Y: 110})
	got, err := AddressesIntersecting(cfg, bounds, []roi.Region{r})
	require.NoError(t, err)
	assert.Equal(t, AllAddresses(cfg), got)
}

func TestAddressesIntersectingDegenerateRegion(t *testing.T) {
	cfg := Config{Rows: 2, Cols: 2, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	// Zero-area region: selected but matches nothing.
	r := roi.New(geometry.Point2D{X: 25, Y: 25}, geometry.Point2D{X: 25, Y: 80})
	got, err := AddressesIntersecting(cfg, bounds, []roi.Region{r})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddressesIntersectingMultipleRegionsNoDuplicates(t *testing.T) {
	cfg := Config{Rows: 2, Cols: 2, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	// Two overlapping regions both covering the top-left tile.
	r1 := roi.New(geometry.Point2D{X: 5, Y: 5}, geometry.Point2D{X: 40, Y: 40})
	r2 := roi.New(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 45, Y: 45})
	got, err := AddressesIntersecting(cfg, bounds, []roi.Region{r1, r2})
	require.NoError(t, err)
	assert.Equal(t, []Address{{Row: 0, Col: 0}}, got)
}
