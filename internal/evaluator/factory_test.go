package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametrack/internal/geom"
	"github.com/banshee-data/frametrack/internal/track"
)

func TestFactoryRejectsAcceleratorDevice(t *testing.T) {
	t.Parallel()

	_, err := NewFactory(DeviceGPU, 0, track.DefaultConfig(), holdFactory(1.0))
	require.ErrorIs(t, err, ErrUnsupportedDevice)
}

func TestFactoryCapabilitiesAndOutputs(t *testing.T) {
	t.Parallel()

	f, err := NewFactory(DeviceCPU, 5, track.DefaultConfig(), holdFactory(1.0))
	require.NoError(t, err)

	caps := f.Capabilities()
	assert.Equal(t, DeviceCPU, caps.DeviceType)
	assert.Equal(t, 1, caps.MaxDevices)
	assert.Equal(t, 5, caps.WarmupSize)

	assert.Equal(t, []string{"image", "before_bboxes", "after_bboxes"}, f.OutputNames())
}

func TestFactoryEvaluatorsOwnDisjointStores(t *testing.T) {
	t.Parallel()

	f, err := NewFactory(DeviceCPU, 0, track.DefaultConfig(), holdFactory(1.0))
	require.NoError(t, err)

	a, err := f.NewEvaluator()
	require.NoError(t, err)
	b, err := f.NewEvaluator()
	require.NoError(t, err)
	require.NoError(t, a.Configure(VideoMetadata{Width: testW, Height: testH}))
	require.NoError(t, b.Configure(VideoMetadata{Width: testW, Height: testH}))

	_, err = a.Evaluate(batch([]geom.Box{{X1: 0, Y1: 0, X2: 10, Y2: 10, Score: 0.9}}))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Store().Len())
	assert.Zero(t, b.Store().Len(), "stores must be disjoint")
}
