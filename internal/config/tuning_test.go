package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-data/flash.report/internal/vision"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfigFile(t, `{"motion_threshold": 0.2}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.GetMotionThreshold())
	// Omitted fields fall back to defaults.
	assert.Equal(t, vision.DefaultBrightnessThreshold, cfg.GetBrightnessThreshold())
	assert.Equal(t, 250*time.Millisecond, cfg.GetAssembleTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetStatsInterval())
	assert.Equal(t, 4, cfg.GetMaxPendingFrames())
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestValidateRejectsOutOfRangeThresholds(t *testing.T) {
	for _, contents := range []string{
		`{"brightness_threshold": 1.5}`,
		`{"brightness_threshold": -0.1}`,
		`{"motion_threshold": 2.0}`,
		`{"max_pending_frames": 0}`,
		`{"assemble_timeout": "soon"}`,
		`{"stats_interval": "whenever"}`,
	} {
		path := writeConfigFile(t, contents)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Fatalf("expected validation error for %s", contents)
		}
	}
}

func TestMergeOverlaysOnlySetFields(t *testing.T) {
	brightness := 0.3
	motion := 0.25
	base := &TuningConfig{BrightnessThreshold: &brightness}
	update := &TuningConfig{MotionThreshold: &motion}

	base.Merge(update)

	want := &TuningConfig{BrightnessThreshold: &brightness, MotionThreshold: &motion}
	if diff := cmp.Diff(want, base); diff != "" {
		t.Fatalf("merged config mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessorOptionsApplyThresholds(t *testing.T) {
	brightness := 0.4
	motion := 0.2
	cfg := &TuningConfig{BrightnessThreshold: &brightness, MotionThreshold: &motion}

	fp, err := vision.NewFrameProcessor(4, 4, cfg.ProcessorOptions()...)
	require.NoError(t, err)
	defer fp.Close()

	assert.Equal(t, 0.4, fp.Config().BrightnessThreshold)
	assert.Equal(t, 0.2, fp.Config().MotionThreshold)
}
