package docscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocula-id/ocula/internal/vision"
	"github.com/ocula-id/ocula/internal/vision/mock"
)

// cardCorners returns an ID-1 style quadrilateral shifted by dx, dy.
func cardCorners(dx, dy float64) [4]vision.Point {
	return [4]vision.Point{
		{X: 0.1 + dx, Y: 0.2 + dy},
		{X: 0.9 + dx, Y: 0.2 + dy},
		{X: 0.9 + dx, Y: 0.7 + dy},
		{X: 0.1 + dx, Y: 0.7 + dy},
	}
}

func observation(dx, dy float64) *vision.DocumentObservation {
	return &vision.DocumentObservation{
		Corners:    cardCorners(dx, dy),
		Confidence: 0.95,
	}
}

func TestScanner_StableAfterConsecutiveFrames(t *testing.T) {
	provider := mock.New()
	s := NewScanner(provider, DefaultOptions())

	// Five identical observations; stability arrives exactly on the fifth.
	for i := 0; i < DefaultStableFrames; i++ {
		provider.QueueDocuments(observation(0, 0))
		result, err := s.Process(context.Background(), []byte("frame"))
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, i == DefaultStableFrames-1, result.Stable, "frame %d", i)
	}
}

func TestScanner_JitterWithinToleranceStillStable(t *testing.T) {
	provider := mock.New()
	s := NewScanner(provider, DefaultOptions())

	// Per-frame movement below the tolerance keeps the run alive.
	for i := 0; i < DefaultStableFrames; i++ {
		provider.QueueDocuments(observation(float64(i)*0.01, 0))
		result, err := s.Process(context.Background(), []byte("frame"))
		require.NoError(t, err)
		require.NotNil(t, result)
	}

	provider.QueueDocuments(observation(float64(DefaultStableFrames)*0.01, 0))
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Stable)
}

func TestScanner_LargeJumpRestartsRun(t *testing.T) {
	provider := mock.New()
	s := NewScanner(provider, DefaultOptions())

	for i := 0; i < DefaultStableFrames-1; i++ {
		provider.QueueDocuments(observation(0, 0))
		_, err := s.Process(context.Background(), []byte("frame"))
		require.NoError(t, err)
	}

	// A jump past tolerance restarts the run; the fifth overall frame must
	// not report stable.
	provider.QueueDocuments(observation(0.1, 0))
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Stable)
}

func TestScanner_MissedFrameBreaksRun(t *testing.T) {
	provider := mock.New()
	s := NewScanner(provider, DefaultOptions())

	for i := 0; i < DefaultStableFrames-1; i++ {
		provider.QueueDocuments(observation(0, 0))
		_, err := s.Process(context.Background(), []byte("frame"))
		require.NoError(t, err)
	}

	// A frame with no document clears the run entirely.
	provider.QueueDocuments(nil)
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Nil(t, result)

	provider.QueueDocuments(observation(0, 0))
	result, err = s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Stable)
}

func TestScanner_FiltersLowConfidence(t *testing.T) {
	provider := mock.New()
	provider.QueueDocuments(&vision.DocumentObservation{
		Corners:    cardCorners(0, 0),
		Confidence: 0.5,
	})

	s := NewScanner(provider, DefaultOptions())
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestScanner_FiltersExtremeAspect(t *testing.T) {
	provider := mock.New()
	provider.QueueDocuments(&vision.DocumentObservation{
		Corners: [4]vision.Point{
			{X: 0.0, Y: 0.45},
			{X: 1.0, Y: 0.45},
			{X: 1.0, Y: 0.55},
			{X: 0.0, Y: 0.55},
		},
		Confidence: 0.95,
	})

	s := NewScanner(provider, DefaultOptions())
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestScanner_ResetStability(t *testing.T) {
	provider := mock.New()
	s := NewScanner(provider, DefaultOptions())

	for i := 0; i < DefaultStableFrames; i++ {
		provider.QueueDocuments(observation(0, 0))
		_, err := s.Process(context.Background(), []byte("frame"))
		require.NoError(t, err)
	}

	s.ResetStability()

	provider.QueueDocuments(observation(0, 0))
	result, err := s.Process(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Stable)
}
