package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/frametrack/internal/httputil"
)

// handleTrackerChart renders a line chart (HTML) of the observed metric
// history using go-echarts. This is a debugging-only endpoint (no auth)
// for a quick look at track population and score trends without a UI.
func (ws *WebServer) handleTrackerChart(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	history := make([]sample, len(ws.history))
	copy(history, ws.history)
	ws.mu.Unlock()

	if len(history) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "no metric samples recorded")
		return
	}

	x := make([]string, 0, len(history))
	active := make([]opts.LineData, 0, len(history))
	created := make([]opts.LineData, 0, len(history))
	expired := make([]opts.LineData, 0, len(history))
	lost := make([]opts.LineData, 0, len(history))
	meanScore := make([]opts.LineData, 0, len(history))
	for _, s := range history {
		x = append(x, s.At.Format("15:04:05"))
		active = append(active, opts.LineData{Value: s.Metrics.ActiveTracks})
		created = append(created, opts.LineData{Value: s.Metrics.TracksCreated})
		expired = append(expired, opts.LineData{Value: s.Metrics.TracksExpired})
		lost = append(lost, opts.LineData{Value: s.Metrics.TracksLost})
		meanScore = append(meanScore, opts.LineData{Value: s.Metrics.MeanTrackScore})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tracker Metrics", Theme: "dark", Width: "1200px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tracker Metrics", Subtitle: fmt.Sprintf("samples=%d latest=%s", len(history), history[len(history)-1].At.Format(time.RFC3339))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("active", active).
		AddSeries("created", created).
		AddSeries("expired", expired).
		AddSeries("lost", lost).
		AddSeries("mean score", meanScore)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
