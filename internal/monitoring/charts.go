package monitoring

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/glint-data/flash.report/internal/db"
	"github.com/glint-data/flash.report/internal/httputil"
)

// echartsAssetsPrefix points chart pages at the public go-echarts asset host.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridis is the shared visual-map palette for detection charts.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ChartServer renders debugging charts from the detection store. These are
// debugging-only endpoints (no auth) to eyeball the detection stream without
// a separate UI.
type ChartServer struct {
	db *db.DB
}

// NewChartServer creates a chart server backed by the given detection store.
func NewChartServer(database *db.DB) *ChartServer {
	return &ChartServer{db: database}
}

// RegisterRoutes attaches the chart endpoints to mux.
func (cs *ChartServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/monitor/", cs.handleDashboard)
	mux.HandleFunc("/monitor/charts/detections", cs.handleDetectionScatter)
	mux.HandleFunc("/monitor/charts/confidence", cs.handleConfidenceTimeline)
	mux.HandleFunc("/monitor/stats/confidence", cs.handleConfidenceSummary)
}

// handleDetectionScatter renders detection positions as a scatter chart,
// colored by confidence. Query params:
//   - session_id (optional; defaults to all sessions)
//   - limit (optional; default 500, max 5000)
func (cs *ChartServer) handleDetectionScatter(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 5000 {
			limit = parsed
		}
	}

	dets, err := cs.db.ListDetections(sessionID, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list detections: %v", err))
		return
	}
	if len(dets) == 0 {
		httputil.NotFound(w, "no detections recorded")
		return
	}

	data := make([]opts.ScatterData, 0, len(dets))
	maxConf := 0.0
	for _, d := range dets {
		if d.Confidence > maxConf {
			maxConf = d.Confidence
		}
		data = append(data, opts.ScatterData{Value: []interface{}{d.X, d.Y, d.Confidence}})
	}
	if maxConf == 0 {
		maxConf = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Flash Detections", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Detection Positions", Subtitle: fmt.Sprintf("session=%s points=%d", sessionID, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "X (normalised)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Y (normalised)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxConf),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("detections", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleConfidenceTimeline renders detection confidence against frame
// sequence as a line chart. Query params:
//   - session_id (optional)
//   - limit (optional; default 500, max 5000)
func (cs *ChartServer) handleConfidenceTimeline(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 5000 {
			limit = parsed
		}
	}

	dets, err := cs.db.ListDetections(sessionID, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list detections: %v", err))
		return
	}
	if len(dets) == 0 {
		httputil.NotFound(w, "no detections recorded")
		return
	}

	// ListDetections returns newest first; flip to frame order for the x axis.
	x := make([]string, 0, len(dets))
	conf := make([]opts.LineData, 0, len(dets))
	mag := make([]opts.LineData, 0, len(dets))
	for i := len(dets) - 1; i >= 0; i-- {
		d := dets[i]
		x = append(x, strconv.FormatInt(d.FrameSeq, 10))
		conf = append(conf, opts.LineData{Value: d.Confidence})
		mag = append(mag, opts.LineData{Value: d.Magnitude})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Confidence Timeline", Theme: "dark", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Detection Confidence", Subtitle: fmt.Sprintf("session=%s points=%d", sessionID, len(conf))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Score"}),
	)
	line.SetXAxis(x).
		AddSeries("confidence", conf).
		AddSeries("magnitude", mag)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleConfidenceSummary returns quantile statistics over recent confidence
// values as JSON. Query params:
//   - window (optional; duration, default 1h)
func (cs *ChartServer) handleConfidenceSummary(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if ws := r.URL.Query().Get("window"); ws != "" {
		parsed, err := time.ParseDuration(ws)
		if err != nil || parsed <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid window %q", ws))
			return
		}
		window = parsed
	}

	values, err := cs.db.ConfidenceValues(time.Now().Add(-window))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query confidences: %v", err))
		return
	}

	summary := SummarizeConfidence(values)
	summary.Window = window.String()
	httputil.WriteJSONOK(w, summary)
}

// handleDashboard renders a simple dashboard with iframes to the debug charts.
func (cs *ChartServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	safeSessionID := html.EscapeString(sessionID)
	qs := ""
	if sessionID != "" {
		qs = "?session_id=" + url.QueryEscape(sessionID)
	}
	safeQs := html.EscapeString(qs)

	doc := fmt.Sprintf(dashboardHTML, safeSessionID, safeQs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}
