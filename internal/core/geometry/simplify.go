package geometry

// Simplify reduces a dense polyline to a visually equivalent sparse one
// using Ramer-Douglas-Peucker. The first and last points are always kept;
// an interior point survives only if it deviates from the current anchor
// segment by more than tolerance. The input slice is never mutated and
// re-simplifying an already simplified polyline with the same tolerance
// returns it unchanged.
//
// The recursion is replaced by an explicit stack of index ranges so deeply
// nested near-collinear tracks cannot exhaust the call stack.
func Simplify(points []Point, tolerance float64) []Point {
	if len(points) < 3 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ first, last int }
	stack := []span{{0, len(points) - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist := 0.0
		maxIdx := s.first
		for i := s.first + 1; i < s.last; i++ {
			d := perpendicularDistance(points[i], points[s.first], points[s.last])
			if d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}

		if maxDist > tolerance {
			keep[maxIdx] = true
			stack = append(stack, span{s.first, maxIdx}, span{maxIdx, s.last})
		}
	}

	out := make([]Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
