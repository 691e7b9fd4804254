package hepmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAncestors(t *testing.T) {
	evt := sampleEvents(t)[0]

	tests := []struct {
		name      string
		barcode   int
		threshold float64
		want      []int
	}{
		{"muon through radiating vertex", 6, DefaultDistanceThreshold, []int{3, 5, 6}},
		{"stops at near vertex", 6, 0.3, []int{5, 6}},
		{"stops at own vertex", 6, 1.0, []int{6}},
		{"direct decay product", 4, DefaultDistanceThreshold, []int{3, 4}},
		{"photon", 7, DefaultDistanceThreshold, []int{3, 5, 7}},
		{"beam", 10001, DefaultDistanceThreshold, []int{10001}},
		{"produced at origin", 3, 0, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := GetAncestors(evt.Particle(tt.barcode), tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, barcodes(chain))
			assert.Same(t, evt.Particle(tt.barcode), chain[len(chain)-1])
		})
	}
}

func TestGetAncestorsThresholdMonotonic(t *testing.T) {
	evt := sampleEvents(t)[0]
	thresholds := []float64{0, 1e-5, 0.1, 0.3, 0.8, 1.0, 10}
	for _, p := range evt.Particles() {
		previous := -1
		for _, threshold := range thresholds {
			chain, err := GetAncestors(p, threshold)
			require.NoError(t, err)
			if previous >= 0 {
				assert.LessOrEqual(t, len(chain), previous, "%v at %g", p, threshold)
			}
			previous = len(chain)
		}
	}
}

func TestGetAncestorsNegativeThreshold(t *testing.T) {
	evt := sampleEvents(t)[0]
	_, err := GetAncestors(evt.Particle(6), -1)
	assert.ErrorIs(t, err, ErrNegativeThreshold)
}

func TestGetAncestorsCycle(t *testing.T) {
	evt := NewEvent(1)
	require.NoError(t, evt.AddVertex(&Vertex{Barcode: -1, Position: FourVector{1, 0, 0, 0}}))
	require.NoError(t, evt.AddVertex(&Vertex{Barcode: -2, Position: FourVector{2, 0, 0, 0}}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 1, Start: -1, End: -2}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 2, Start: -2, End: -1}))

	_, err := GetAncestors(evt.Particle(1), DefaultDistanceThreshold)
	assert.ErrorIs(t, err, ErrAncestorCycle)

	// below the first vertex distance the walk never enters the loop
	chain, err := GetAncestors(evt.Particle(1), 1.5)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, barcodes(chain))
}

func TestGetAncestorsDiamond(t *testing.T) {
	evt := NewEvent(1)
	require.NoError(t, evt.AddVertex(&Vertex{Barcode: -1, Position: FourVector{1, 0, 0, 0}}))
	require.NoError(t, evt.AddVertex(&Vertex{Barcode: -2, Position: FourVector{2, 0, 0, 0}}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 1, End: -1}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 2, Start: -1, End: -2}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 3, Start: -1, End: -2}))
	require.NoError(t, evt.AddParticle(&Particle{Barcode: 4, Start: -2}))

	chain, err := GetAncestors(evt.Particle(4), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1, 3, 4}, barcodes(chain))
}

func TestStableParticles(t *testing.T) {
	evt := sampleEvents(t)[0]
	assert.Equal(t, []int{4, 6, 7}, barcodes(StableParticles(evt, 0.5)))
	assert.Equal(t, []int{4, 6}, barcodes(StableParticles(evt, 5)))
	assert.Empty(t, StableParticles(evt, 1000))
}

func TestInterestingParticles(t *testing.T) {
	evt := sampleEvents(t)[0]
	stable, ancestors, err := InterestingParticles(evt, 0.5, DefaultDistanceThreshold)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 6, 7}, barcodes(stable))
	assert.Equal(t, []int{3, 3, 5, 3, 5}, barcodes(ancestors))

	_, _, err = InterestingParticles(evt, 0.5, -1)
	assert.ErrorIs(t, err, ErrNegativeThreshold)
}

func TestCategory(t *testing.T) {
	tests := map[int]string{
		22:   "pho",
		11:   "lep",
		-13:  "lep",
		15:   "lep",
		-12:  "nu",
		16:   "nu",
		211:  "had",
		2212: "had",
	}
	for pid, want := range tests {
		assert.Equal(t, want, Category(pid), "pid %d", pid)
	}
}
