package geometry

// PointInPolygon returns true if the point is inside the polygon using the
// ray casting algorithm. Points on the boundary may return either result.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	j := n - 1

	for i := 0; i < n; i++ {
		vi := polygon[i]
		vj := polygon[j]

		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}

	return inside
}
