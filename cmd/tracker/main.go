package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/frametrack/internal/archive"
	"github.com/banshee-data/frametrack/internal/backend"
	"github.com/banshee-data/frametrack/internal/config"
	"github.com/banshee-data/frametrack/internal/evaluator"
	"github.com/banshee-data/frametrack/internal/geom"
	"github.com/banshee-data/frametrack/internal/monitor"
	"github.com/banshee-data/frametrack/internal/track"
	"github.com/banshee-data/frametrack/internal/version"
	"github.com/banshee-data/frametrack/internal/wire"
)

var (
	detsPath    = flag.String("dets", "", "Detections file: one JSON array of boxes per line, one line per frame")
	framesPath  = flag.String("frames", "", "Raw packed RGB frame file (optional; zero frames are synthesized without it)")
	width       = flag.Int("width", 640, "Frame width in pixels")
	height      = flag.Int("height", 480, "Frame height in pixels")
	configPath  = flag.String("config", "", "Tuning config JSON (optional)")
	dbFile      = flag.String("db", "track_data.db", "Track observation archive path")
	listen      = flag.String("listen", ":8080", "Monitor listen address")
	device      = flag.String("device", "", "Device to run on (overrides config)")
	backendName = flag.String("backend", "hold", "Tracker backend: hold or mil")
)

// frameSource yields packed RGB frame buffers. A nil reader synthesizes
// zero frames so detector-only runs need no pixel data on disk.
type frameSource struct {
	r    io.Reader
	size int
}

func newFrameSource(r io.Reader, width, height int) *frameSource {
	return &frameSource{r: r, size: width * height * 3}
}

func (fs *frameSource) next() ([]byte, error) {
	buf := make([]byte, fs.size)
	if fs.r == nil {
		return buf, nil
	}
	if _, err := io.ReadFull(fs.r, buf); err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return buf, nil
}

// runFrames feeds each detection line plus its frame through the
// evaluator as a single-element batch and reports frames processed.
func runFrames(ctx context.Context, eval *evaluator.TrackerEvaluator, dets *bufio.Scanner, frames *frameSource, observe func()) (int64, error) {
	var processed int64
	for dets.Scan() {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		line := dets.Bytes()
		if len(line) == 0 {
			continue
		}
		var boxes []geom.Box
		if err := json.Unmarshal(line, &boxes); err != nil {
			return processed, fmt.Errorf("failed to parse detections for frame %d: %w", processed, err)
		}

		pixels, err := frames.next()
		if err != nil {
			return processed, err
		}

		_, err = eval.Evaluate([]evaluator.Column{
			{pixels},
			{wire.EncodeBoxes(boxes)},
		})
		if err != nil {
			return processed, fmt.Errorf("failed to evaluate frame %d: %w", processed, err)
		}
		processed++
		if observe != nil {
			observe()
		}
	}
	if err := dets.Err(); err != nil {
		return processed, fmt.Errorf("failed to read detections: %w", err)
	}
	return processed, nil
}

func backendFactory(name string) (track.BackendFactory, error) {
	switch name {
	case "hold":
		return backend.HoldFactory(), nil
	case "mil":
		return backend.MILFactory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want hold or mil)", name)
	}
}

func main() {
	flag.Parse()

	log.Printf("tracker %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *detsPath == "" {
		log.Fatal("Detections file is required")
	}
	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid frame dimensions %dx%d", *width, *height)
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *device != "" {
		tuning.Device = device
	}
	if err := tuning.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	dev, err := evaluator.ParseDeviceType(tuning.GetDevice())
	if err != nil {
		log.Fatalf("invalid device: %v", err)
	}

	newBackend, err := backendFactory(*backendName)
	if err != nil {
		log.Fatal(err)
	}

	archivePath := *dbFile
	if p := tuning.GetArchivePath(); p != "" {
		archivePath = p
	}
	db, err := archive.NewDB(archivePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	run, err := db.StartRun(*width, *height)
	if err != nil {
		log.Fatalf("failed to start run: %v", err)
	}
	log.Printf("recording run %s", run.RunID())

	factory, err := evaluator.NewFactory(dev, tuning.GetWarmupCount(), track.ConfigFromTuning(tuning), newBackend)
	if err != nil {
		log.Fatalf("failed to create evaluator factory: %v", err)
	}
	factory.SetSink(run)

	eval, err := factory.NewEvaluator()
	if err != nil {
		log.Fatalf("failed to create evaluator: %v", err)
	}
	if err := eval.Configure(evaluator.VideoMetadata{Width: *width, Height: *height}); err != nil {
		log.Fatalf("failed to configure evaluator: %v", err)
	}

	detsFile, err := os.Open(*detsPath)
	if err != nil {
		log.Fatalf("failed to open detections file: %v", err)
	}
	defer detsFile.Close()

	var framesReader io.Reader
	if *framesPath != "" {
		f, err := os.Open(*framesPath)
		if err != nil {
			log.Fatalf("failed to open frames file: %v", err)
		}
		defer f.Close()
		framesReader = bufio.NewReader(f)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := *listen
	if tuning.ListenAddr != nil && *tuning.ListenAddr != "" {
		addr = tuning.GetListenAddr()
	}
	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address: addr,
		Store:   eval.Store(),
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("monitor server error: %v", err)
		}
	}()

	scanner := bufio.NewScanner(detsFile)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	processed, err := runFrames(ctx, eval, scanner, newFrameSource(framesReader, *width, *height), ws.Observe)
	if err != nil && err != context.Canceled {
		log.Printf("run aborted after %d frames: %v", processed, err)
	}

	metrics := eval.Store().Metrics()
	summary, _ := json.Marshal(metrics)
	log.Printf("processed %d frames: %s", processed, summary)

	stop()
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
