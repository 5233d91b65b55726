package main

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametrack/internal/backend"
	"github.com/banshee-data/frametrack/internal/evaluator"
	"github.com/banshee-data/frametrack/internal/track"
)

func newTestEvaluator(t *testing.T) *evaluator.TrackerEvaluator {
	t.Helper()

	factory, err := evaluator.NewFactory(evaluator.DeviceCPU, 0, track.DefaultConfig(), backend.HoldFactory())
	require.NoError(t, err)
	eval, err := factory.NewEvaluator()
	require.NoError(t, err)
	require.NoError(t, eval.Configure(evaluator.VideoMetadata{Width: 8, Height: 6}))
	return eval
}

func scan(s string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(s))
}

func TestRunFramesProcessesEachLine(t *testing.T) {
	t.Parallel()

	eval := newTestEvaluator(t)
	dets := scan(`[{"x1":1,"y1":1,"x2":4,"y2":4,"score":0.9}]
[{"x1":1.2,"y1":1.1,"x2":4.2,"y2":4.1,"score":0.8}]
[]
`)

	processed, err := runFrames(context.Background(), eval, dets, newFrameSource(nil, 8, 6), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), processed)
	assert.Equal(t, int64(3), eval.FramesProcessed())
	assert.Equal(t, 1, eval.Store().Len())
}

func TestRunFramesSkipsBlankLines(t *testing.T) {
	t.Parallel()

	eval := newTestEvaluator(t)
	dets := scan("\n[]\n\n[]\n")

	processed, err := runFrames(context.Background(), eval, dets, newFrameSource(nil, 8, 6), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), processed)
}

func TestRunFramesRejectsMalformedLine(t *testing.T) {
	t.Parallel()

	eval := newTestEvaluator(t)
	dets := scan("[]\nnot json\n[]\n")

	processed, err := runFrames(context.Background(), eval, dets, newFrameSource(nil, 8, 6), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1")
	assert.Equal(t, int64(1), processed)
}

func TestRunFramesStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := newTestEvaluator(t)
	dets := scan("[]\n[]\n")

	processed, err := runFrames(ctx, eval, dets, newFrameSource(nil, 8, 6), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), processed)
}

func TestRunFramesShortFrameData(t *testing.T) {
	t.Parallel()

	eval := newTestEvaluator(t)
	dets := scan("[]\n")
	frames := newFrameSource(strings.NewReader("short"), 8, 6)

	_, err := runFrames(context.Background(), eval, dets, frames, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read frame")
}

func TestBackendFactorySelection(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"hold", "mil"} {
		t.Run(name, func(t *testing.T) {
			f, err := backendFactory(name)
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}

	_, err := backendFactory("kalman")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}
