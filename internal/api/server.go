// Package api serves the HTTP boundary of the flash detection daemon:
// frame ingest, detection queries, runtime tuning, and stats.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/glint-data/flash.report/internal/config"
	"github.com/glint-data/flash.report/internal/db"
	"github.com/glint-data/flash.report/internal/httputil"
	"github.com/glint-data/flash.report/internal/vision"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// IngestFunc processes one raw RGBA frame and returns a detection when the
// frame contains a flash. The daemon wires this to the frame processor plus
// persistence; tests supply stubs.
type IngestFunc func(raw []byte) (*vision.Detection, error)

// ProcessorInfo exposes the read-only subset of the frame processor the API
// reports on.
type ProcessorInfo interface {
	Config() vision.ProcessorConfig
	SessionID() string
	FrameSeq() uint64
	Stats() *vision.FrameStats
}

type Server struct {
	proc   ProcessorInfo
	ingest IngestFunc
	db     *db.DB

	mu     sync.Mutex
	tuning *config.TuningConfig
	onTune func(*config.TuningConfig)
}

// NewServer creates the API server. tuning may be nil (defaults apply);
// onTune, when non-nil, is invoked with the merged config after each
// successful params update.
func NewServer(proc ProcessorInfo, ingest IngestFunc, database *db.DB, tuning *config.TuningConfig, onTune func(*config.TuningConfig)) *Server {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Server{
		proc:   proc,
		ingest: ingest,
		db:     database,
		tuning: tuning,
		onTune: onTune,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/detections", s.listDetections)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// handleFrame accepts one raw RGBA frame as the request body and runs it
// through the pipeline. Responds 200 with the detection JSON, or 204 when
// the frame contained no flash.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	// Frame size is fixed per session; anything past it is a client error.
	expected := int64(s.proc.Config().FrameSize())
	body := http.MaxBytesReader(w, r.Body, expected+1)
	raw, err := io.ReadAll(body)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to read frame body: %v", err))
		return
	}

	det, err := s.ingest(raw)
	if err != nil {
		if errors.Is(err, vision.ErrInvalidFrameSize) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to process frame: %v", err))
		return
	}

	if det == nil {
		httputil.WriteNoContent(w)
		return
	}
	httputil.WriteJSONOK(w, det)
}

func (s *Server) listDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	dets, err := s.db.ListDetections(r.URL.Query().Get("session_id"), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve detections: %v", err))
		return
	}
	if dets == nil {
		dets = []db.DetectionRecord{}
	}
	httputil.WriteJSONOK(w, dets)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sessions, err := s.db.ListSessions(50)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

// handleParams reads (GET) or merges (POST) the runtime tuning config.
// POST bodies are partial: only the fields present are updated.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		current := *s.tuning
		s.mu.Unlock()
		httputil.WriteJSONOK(w, current)

	case http.MethodPost:
		var update config.TuningConfig
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("failed to parse params: %v", err))
			return
		}
		if err := update.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}

		s.mu.Lock()
		s.tuning.Merge(&update)
		merged := *s.tuning
		s.mu.Unlock()

		if s.onTune != nil {
			s.onTune(&merged)
		}
		httputil.WriteJSONOK(w, merged)

	default:
		httputil.MethodNotAllowed(w)
	}
}

// statsResponse is the JSON shape of /api/stats.
type statsResponse struct {
	SessionID    string  `json:"session_id"`
	FrameSeq     uint64  `json:"frame_seq"`
	Frames       int64   `json:"frames"`
	Bytes        int64   `json:"bytes"`
	Detections   int64   `json:"detections"`
	AvgProcessMS float64 `json:"avg_process_ms"`
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frames, bytes, detections, processTime := s.proc.Stats().Snapshot()
	resp := statsResponse{
		SessionID:  s.proc.SessionID(),
		FrameSeq:   s.proc.FrameSeq(),
		Frames:     frames,
		Bytes:      bytes,
		Detections: detections,
	}
	if frames > 0 {
		resp.AvgProcessMS = float64(processTime.Nanoseconds()) / float64(frames) / 1e6
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	cfg := s.proc.Config()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id":           s.proc.SessionID(),
		"width":                cfg.Width,
		"height":               cfg.Height,
		"brightness_threshold": cfg.BrightnessThreshold,
		"motion_threshold":     cfg.MotionThreshold,
	})
}
