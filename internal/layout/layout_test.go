package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/domain"
)

const eps = 1e-9

func TestRingEmpty(t *testing.T) {
	assert.Empty(t, Ring(0, DefaultMagnitude))
	assert.Empty(t, Ring(-3, DefaultMagnitude))
	assert.Empty(t, Edges(0))
}

func TestRingGeometry(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 64} {
		positions := Ring(n, 7.5)
		require.Len(t, positions, n)

		for i, p := range positions {
			assert.InDelta(t, 7.5, p.Distance(domain.HubPosition), eps, "n=%d i=%d", n, i)
		}

		step := 2 * math.Pi / float64(n)
		for i := 1; i < n; i++ {
			gap := positions[i].Angle() - positions[i-1].Angle()
			assert.InDelta(t, step, gap, 1e-6, "n=%d i=%d", n, i)
		}
	}
}

func TestRingIsDeterministic(t *testing.T) {
	assert.Equal(t, Ring(4, 5), Ring(4, 5))
}

func TestTwoSpokeScenario(t *testing.T) {
	positions := Ring(2, 5)

	assert.InDelta(t, 5, positions[0].X, eps)
	assert.InDelta(t, 0, positions[0].Y, eps)
	assert.InDelta(t, -5, positions[1].X, eps)
	assert.InDelta(t, 0, positions[1].Y, eps)
}

func TestThreeSpokeAngles(t *testing.T) {
	positions := Ring(3, 5)
	want := []float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}

	for i, p := range positions {
		assert.InDelta(t, want[i], p.Angle(), 1e-6)
	}
}

func TestEdges(t *testing.T) {
	assert.Equal(t, []domain.Edge{{0, 1}, {0, 2}, {0, 3}}, Edges(3))
}

func TestApply(t *testing.T) {
	nodes := []domain.Node{domain.NewNode("a"), domain.NewNode("b")}
	nodes[1].Status = domain.StatusConnected

	Apply(nodes, 5)

	assert.Equal(t, domain.NewHubEdge(1), nodes[0].HubEdge)
	assert.Equal(t, domain.NewHubEdge(2), nodes[1].HubEdge)
	assert.InDelta(t, -5, nodes[1].Position.X, eps)
	assert.Equal(t, domain.StatusConnected, nodes[1].Status, "layout must not touch status")
}
