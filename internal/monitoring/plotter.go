package monitoring

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/glint-data/flash.report/internal/vision"
)

// DetectionPlotter records detections over a run for offline plotting.
// It accumulates per-session series that can be rendered to PNG files
// after a replay or live capture finishes.
type DetectionPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	// samples holds per-session detection series, keyed by session id.
	samples map[string][]detectionSample

	startTime time.Time
}

type detectionSample struct {
	FrameSeq   int64
	Timestamp  time.Time
	X          float64
	Y          float64
	Confidence float64
	Magnitude  float64
}

// NewDetectionPlotter creates an idle plotter. Call Start to begin recording.
func NewDetectionPlotter() *DetectionPlotter {
	return &DetectionPlotter{
		samples: make(map[string][]detectionSample),
	}
}

// Start initializes the plotter for a new run. outputDir should be a
// timestamped directory (e.g. "plots/run-001/20260823_141500").
func (dp *DetectionPlotter) Start(outputDir string) error {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	dp.outputDir = outputDir
	dp.enabled = true
	dp.startTime = time.Time{}
	dp.samples = make(map[string][]detectionSample)
	return nil
}

// Stop disables recording. Call GeneratePlots() to produce output files.
func (dp *DetectionPlotter) Stop() {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (dp *DetectionPlotter) IsEnabled() bool {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.enabled
}

// Record captures one detection. Call this from the detection sink; it is a
// no-op while the plotter is stopped.
func (dp *DetectionPlotter) Record(sessionID string, d vision.Detection) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if !dp.enabled {
		return
	}

	now := time.Now()
	if dp.startTime.IsZero() {
		dp.startTime = now
	}

	dp.samples[sessionID] = append(dp.samples[sessionID], detectionSample{
		FrameSeq:   int64(d.FrameSeq),
		Timestamp:  now,
		X:          d.X,
		Y:          d.Y,
		Confidence: d.Confidence,
		Magnitude:  d.Magnitude,
	})
}

// SampleCount reports the number of recorded detections across all sessions.
func (dp *DetectionPlotter) SampleCount() int {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	n := 0
	for _, s := range dp.samples {
		n += len(s)
	}
	return n
}

// GeneratePlots creates PNG files per session: a position scatter and a
// confidence timeline. Returns the number of plots generated.
func (dp *DetectionPlotter) GeneratePlots() (int, error) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if dp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(dp.samples) == 0 {
		return 0, nil
	}

	// Stable output order across runs.
	var sessions []string
	for id := range dp.samples {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)

	plotCount := 0
	for _, id := range sessions {
		if err := dp.generateSessionPlots(id, dp.samples[id]); err != nil {
			return plotCount, fmt.Errorf("session %s: %w", id, err)
		}
		plotCount += 2
	}
	return plotCount, nil
}

// generateSessionPlots renders the position scatter and confidence timeline
// for one session.
func (dp *DetectionPlotter) generateSessionPlots(sessionID string, samples []detectionSample) error {
	if len(samples) == 0 {
		return nil
	}

	sort.Slice(samples, func(a, b int) bool {
		return samples[a].FrameSeq < samples[b].FrameSeq
	})

	// Position scatter in normalised frame coordinates.
	pPos := plot.New()
	pPos.Title.Text = fmt.Sprintf("Session %s - Detection Positions", shortID(sessionID))
	pPos.X.Label.Text = "X (normalised)"
	pPos.Y.Label.Text = "Y (normalised)"
	pPos.X.Min, pPos.X.Max = 0, 1
	pPos.Y.Min, pPos.Y.Max = 0, 1

	posPts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		posPts = append(posPts, plotter.XY{X: s.X, Y: s.Y})
	}
	scatter, err := plotter.NewScatter(posPts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 255, G: 82, B: 82, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(2)
	pPos.Add(scatter)

	// Confidence and magnitude over frame sequence.
	pConf := plot.New()
	pConf.Title.Text = fmt.Sprintf("Session %s - Confidence", shortID(sessionID))
	pConf.X.Label.Text = "Frame"
	pConf.Y.Label.Text = "Score"

	confPts := make(plotter.XYs, 0, len(samples))
	magPts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		confPts = append(confPts, plotter.XY{X: float64(s.FrameSeq), Y: s.Confidence})
		magPts = append(magPts, plotter.XY{X: float64(s.FrameSeq), Y: s.Magnitude})
	}

	confLine, err := plotter.NewLine(confPts)
	if err != nil {
		return err
	}
	confLine.Color = color.RGBA{R: 53, G: 183, B: 121, A: 255}
	confLine.Width = vg.Points(1)
	pConf.Add(confLine)
	pConf.Legend.Add("confidence", confLine)

	magLine, err := plotter.NewLine(magPts)
	if err != nil {
		return err
	}
	magLine.Color = color.RGBA{R: 62, G: 73, B: 137, A: 255}
	magLine.Width = vg.Points(1)
	pConf.Add(magLine)
	pConf.Legend.Add("magnitude", magLine)

	pConf.Legend.Top = true
	pConf.Legend.Left = false
	pConf.Legend.XOffs = -10
	pConf.Legend.YOffs = -10

	posFile := filepath.Join(dp.outputDir, fmt.Sprintf("session_%s_positions.png", shortID(sessionID)))
	if err := pPos.Save(8*vg.Inch, 8*vg.Inch, posFile); err != nil {
		return fmt.Errorf("save positions plot: %w", err)
	}

	confFile := filepath.Join(dp.outputDir, fmt.Sprintf("session_%s_confidence.png", shortID(sessionID)))
	if err := pConf.Save(14*vg.Inch, 6*vg.Inch, confFile); err != nil {
		return fmt.Errorf("save confidence plot: %w", err)
	}

	Logf("wrote plots for session %s (%d detections)", shortID(sessionID), len(samples))
	return nil
}

// shortID truncates a session uuid for filenames and titles.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
