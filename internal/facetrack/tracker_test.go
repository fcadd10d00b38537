package facetrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocula-id/ocula/internal/facedetect"
)

func faceAt(x, y float64) *facedetect.DetectedFace {
	return &facedetect.DetectedFace{
		Norm: facedetect.NormRect{X: x, Y: y, Width: 0.4, Height: 0.4},
	}
}

func TestTracker_StableAfterFullWindow(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultWindowSize; i++ {
		update := tr.Observe(faceAt(0.3, 0.3))
		assert.Equal(t, i == DefaultWindowSize-1, update.Stable, "frame %d", i)
		assert.False(t, update.FaceLost)
	}

	// Stability holds while the face keeps still.
	assert.True(t, tr.Observe(faceAt(0.3, 0.3)).Stable)
}

func TestTracker_SmallDriftStaysStable(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	var update Update
	for i := 0; i < DefaultWindowSize; i++ {
		update = tr.Observe(faceAt(0.3+float64(i)*0.005, 0.3))
	}
	assert.True(t, update.Stable)
}

func TestTracker_MovementBreaksStability(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultWindowSize-1; i++ {
		tr.Observe(faceAt(0.3, 0.3))
	}

	// One pair over tolerance is enough to fail the whole window.
	update := tr.Observe(faceAt(0.35, 0.3))
	assert.False(t, update.Stable)
}

func TestTracker_SizeChangeBreaksStability(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultWindowSize-1; i++ {
		tr.Observe(faceAt(0.3, 0.3))
	}

	update := tr.Observe(&facedetect.DetectedFace{
		Norm: facedetect.NormRect{X: 0.3, Y: 0.3, Width: 0.5, Height: 0.5},
	})
	assert.False(t, update.Stable)
}

func TestTracker_FaceLostFiresOnce(t *testing.T) {
	tr := NewTracker(DefaultOptions())
	tr.Observe(faceAt(0.3, 0.3))

	for i := 0; i < DefaultLostThreshold-1; i++ {
		update := tr.Observe(nil)
		assert.False(t, update.FaceLost, "miss %d", i+1)
	}

	update := tr.Observe(nil)
	assert.True(t, update.FaceLost)

	// Further misses stay quiet until a detection resets the signal.
	assert.False(t, tr.Observe(nil).FaceLost)
	assert.False(t, tr.Observe(nil).FaceLost)
}

func TestTracker_LossClearsWindow(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultWindowSize; i++ {
		tr.Observe(faceAt(0.3, 0.3))
	}

	for i := 0; i < DefaultLostThreshold; i++ {
		tr.Observe(nil)
	}

	// After loss the window restarts; a single detection is not stable.
	update := tr.Observe(faceAt(0.3, 0.3))
	assert.False(t, update.Stable)
}

func TestTracker_DetectionResetsMissCounter(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultLostThreshold-1; i++ {
		tr.Observe(nil)
	}
	tr.Observe(faceAt(0.3, 0.3))

	// The counter restarts from zero, so losing the face again takes the
	// full threshold.
	for i := 0; i < DefaultLostThreshold-1; i++ {
		require.False(t, tr.Observe(nil).FaceLost)
	}
	assert.True(t, tr.Observe(nil).FaceLost)
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(DefaultOptions())

	for i := 0; i < DefaultWindowSize; i++ {
		tr.Observe(faceAt(0.3, 0.3))
	}
	tr.Reset()

	assert.False(t, tr.Observe(faceAt(0.3, 0.3)).Stable)
}
