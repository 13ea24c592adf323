package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyShortInputsUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{name: "empty", points: nil},
		{name: "single point", points: []Point{{1, 2}}},
		{name: "two points", points: []Point{{0, 0}, {1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.points, 0.0003)
			assert.Equal(t, len(tt.points), len(got))
			for i := range tt.points {
				assert.Equal(t, tt.points[i], got[i])
			}
		})
	}
}

func TestSimplifyCollapsesNearDuplicate(t *testing.T) {
	points := []Point{{0, 0}, {0, 0.00001}, {0, 1}, {1, 1}}

	got := Simplify(points, 0.0003)

	require.Equal(t, []Point{{0, 0}, {0, 1}, {1, 1}}, got)
}

func TestSimplifyCollinearCollapsesToEndpoints(t *testing.T) {
	points := []Point{{0, 0}, {0.25, 0.25}, {0.5, 0.5}, {0.75, 0.75}, {1, 1}}

	got := Simplify(points, 0.0003)

	assert.Equal(t, []Point{{0, 0}, {1, 1}}, got)
}

func TestSimplifyAnchorsAlwaysRetained(t *testing.T) {
	points := []Point{{0, 0}, {0.1, 0.9}, {0.2, 0.1}, {0.3, 0.8}, {1, 1}}

	for _, tolerance := range []float64{0, 0.0003, 0.1, 10} {
		got := Simplify(points, tolerance)
		require.GreaterOrEqual(t, len(got), 2)
		assert.Equal(t, points[0], got[0])
		assert.Equal(t, points[len(points)-1], got[len(got)-1])
	}
}

func TestSimplifyMonotonicInTolerance(t *testing.T) {
	points := []Point{
		{0, 0}, {0.001, 0.1}, {0.01, 0.2}, {0.002, 0.3},
		{0.05, 0.4}, {0.001, 0.5}, {0, 0.6}, {0.2, 0.8}, {0, 1},
	}

	prev := len(points)
	for _, tolerance := range []float64{0, 0.0005, 0.005, 0.05, 0.5} {
		got := Simplify(points, tolerance)
		assert.LessOrEqual(t, len(got), prev, "tolerance %v", tolerance)
		prev = len(got)
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	points := []Point{
		{0, 0}, {0.001, 0.1}, {0.01, 0.2}, {0.002, 0.3},
		{0.05, 0.4}, {0.001, 0.5}, {0, 0.6}, {0.2, 0.8}, {0, 1},
	}

	once := Simplify(points, 0.0003)
	twice := Simplify(once, 0.0003)

	assert.Equal(t, once, twice)
}

func TestSimplifyDegenerateAnchors(t *testing.T) {
	// Closed loop: first and last anchor coincide, distance falls back to
	// the plain point distance.
	points := []Point{{0, 0}, {0, 1}, {1, 1}, {0, 0}}

	got := Simplify(points, 0.0003)

	require.Len(t, got, 4)
	assert.Equal(t, points, got)

	// All points identical: everything within tolerance of the anchor.
	same := []Point{{2, 2}, {2, 2}, {2, 2}, {2, 2}}
	assert.Equal(t, []Point{{2, 2}, {2, 2}}, Simplify(same, 0.0003))
}

func TestSimplifyDoesNotMutateInput(t *testing.T) {
	points := []Point{{0, 0}, {0, 0.00001}, {0, 1}, {1, 1}}
	original := make([]Point, len(points))
	copy(original, points)

	Simplify(points, 0.0003)

	assert.Equal(t, original, points)
}
