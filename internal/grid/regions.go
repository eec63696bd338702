package grid

import (
	"layout-verifier/internal/roi"
	"layout-verifier/pkg/geometry"
)

// AddressesIntersecting returns the addresses whose nominal world rect
// overlaps any selected region with non-zero area. Edge touching does not
// count, and unselected or degenerate regions contribute nothing. The result
// preserves row-major order and contains no duplicates.
func AddressesIntersecting(cfg Config, bounds geometry.Rect, regions []roi.Region) ([]Address, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateBounds(bounds); err != nil {
		return nil, err
	}

	selected := roi.Selected(regions)
	if len(selected) == 0 {
		return nil, nil
	}

	var out []Address
	for _, addr := range AllAddresses(cfg) {
		nominal, err := NominalWorldRect(addr, cfg, bounds)
		if err != nil {
			return nil, err
		}
		for _, region := range selected {
			if nominal.Intersect(region.Rect).Area() > 0 {
				out = append(out, addr)
				break
			}
		}
	}
	return out, nil
}
