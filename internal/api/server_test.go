package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-data/flash.report/internal/config"
	"github.com/glint-data/flash.report/internal/db"
	"github.com/glint-data/flash.report/internal/vision"
)

// newTestServer wires a real 2x2 processor and store behind the API, the
// same way the daemon does.
func newTestServer(t *testing.T) (*Server, *vision.FrameProcessor, *db.DB) {
	t.Helper()

	database, err := db.OpenDB(filepath.Join(t.TempDir(), "detections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.MigrateUp())

	proc, err := vision.NewFrameProcessor(2, 2)
	require.NoError(t, err)
	t.Cleanup(proc.Close)

	require.NoError(t, database.CreateSession(db.Session{
		ID: proc.SessionID(), Width: 2, Height: 2,
	}))

	ingest := func(raw []byte) (*vision.Detection, error) {
		det, err := proc.Process(raw)
		if err != nil || det == nil {
			return det, err
		}
		err = database.RecordDetection(db.DetectionRecord{
			SessionID:      proc.SessionID(),
			FrameSeq:       int64(det.FrameSeq),
			X:              det.X,
			Y:              det.Y,
			Confidence:     det.Confidence,
			Magnitude:      det.Magnitude,
			PeakBrightness: det.PeakBrightness,
		})
		return det, err
	}

	return NewServer(proc, ingest, database, nil, nil), proc, database
}

// darkFrame and flashFrame form the canonical two-frame flash sequence for a
// 2x2 processor: all-black, then a white pixel at (1,0).
func darkFrame() []byte { return make([]byte, 2*2*vision.BytesPerPixel) }

func flashFrame() []byte {
	f := darkFrame()
	f[4], f[5], f[6] = 255, 255, 255
	return f
}

func postFrame(t *testing.T, s *Server, frame []byte) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/frame", bytes.NewReader(frame))
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestPostFrameDetectsFlash(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postFrame(t, s, darkFrame())
	require.Equal(t, http.StatusNoContent, rec.Code, "first frame establishes history")

	rec = postFrame(t, s, flashFrame())
	require.Equal(t, http.StatusOK, rec.Code)

	var det vision.Detection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&det))
	assert.InDelta(t, 0.5, det.X, 1e-9)
	assert.InDelta(t, 0.0, det.Y, 1e-9)
	assert.InDelta(t, 1.0, det.Confidence, 1e-9)
	assert.Equal(t, uint64(2), det.FrameSeq)
}

func TestPostFrameRejectsWrongSize(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postFrame(t, s, make([]byte, 7))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "frame")
}

func TestPostFrameRejectsOversizedBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postFrame(t, s, make([]byte, 2*2*vision.BytesPerPixel+100))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFrameEndpointMethod(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/frame", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListDetectionsReturnsRecorded(t *testing.T) {
	s, proc, _ := newTestServer(t)

	postFrame(t, s, darkFrame())
	postFrame(t, s, flashFrame())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/detections?session_id="+proc.SessionID(), nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dets []db.DetectionRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dets))
	require.Len(t, dets, 1)
	assert.Equal(t, proc.SessionID(), dets[0].SessionID)
	assert.InDelta(t, 1.0, dets[0].Confidence, 1e-9)
}

func TestListDetectionsEmptyIsJSONArray(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/detections", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListDetectionsRejectsBadLimit(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/detections?limit=zero", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParamsRoundTrip(t *testing.T) {
	s, _, _ := newTestServer(t)

	var tuned *config.TuningConfig
	s.onTune = func(c *config.TuningConfig) { tuned = c }

	body := `{"brightness_threshold": 0.25}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(body))
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, tuned, "onTune callback should fire")
	assert.InDelta(t, 0.25, tuned.GetBrightnessThreshold(), 1e-9)
	assert.InDelta(t, vision.DefaultMotionThreshold, tuned.GetMotionThreshold(), 1e-9,
		"unset fields keep defaults")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/params", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got config.TuningConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.InDelta(t, 0.25, got.GetBrightnessThreshold(), 1e-9)
}

func TestParamsRejectsOutOfRange(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(`{"motion_threshold": 1.5}`))
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s, proc, _ := newTestServer(t)

	postFrame(t, s, darkFrame())
	postFrame(t, s, flashFrame())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats statsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, proc.SessionID(), stats.SessionID)
	assert.Equal(t, int64(2), stats.Frames)
	assert.Equal(t, int64(1), stats.Detections)
	assert.Equal(t, uint64(2), stats.FrameSeq)
}

func TestConfigEndpoint(t *testing.T) {
	s, proc, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	s.ServeMux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, proc.SessionID(), cfg["session_id"])
	assert.Equal(t, float64(2), cfg["width"])
	assert.Equal(t, float64(2), cfg["height"])
}

func TestFrameClientAgainstServer(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.ServeMux())
	defer ts.Close()

	client := NewFrameClient(ts.URL, nil)

	det, err := client.PostFrame(t.Context(), darkFrame())
	require.NoError(t, err)
	assert.Nil(t, det, "first frame should not detect")

	det, err = client.PostFrame(t.Context(), flashFrame())
	require.NoError(t, err)
	require.NotNil(t, det)
	assert.InDelta(t, 1.0, det.Confidence, 1e-9)

	_, err = client.PostFrame(t.Context(), make([]byte, 3))
	require.Error(t, err, "undersized frame should be rejected")
}
