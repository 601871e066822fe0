package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"window_size": 5}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetWindowSize())
	// untouched fields fall back to defaults
	assert.Equal(t, 1.3, cfg.GetThreshCoef())
	assert.Equal(t, 0.99, cfg.GetPercentile())
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", "window_size: 5")
	_, err := LoadTuningConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json")
}

func TestLoadTuningConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"even window", `{"window_size": 4}`},
		{"negative coef", `{"thresh_coef": -1}`},
		{"percentile above one", `{"percentile": 1.5}`},
		{"zero upload cap", `{"max_upload_bytes": 0}`},
		{"negative scale", `{"microns_per_pixel": -0.2}`},
		{"malformed", `{"window_size": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "tuning.json", tc.content)
			_, err := LoadTuningConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	p := cfg.Params()
	assert.Equal(t, 3, p.WindowSize)
	assert.Equal(t, 1.3, p.ThreshCoef)
	assert.Equal(t, 0.99, p.Percentile)
}

func TestGetImageDirDefault(t *testing.T) {
	assert.Equal(t, "images", EmptyTuningConfig().GetImageDir())
}

func TestGetMicronsPerPixelUnset(t *testing.T) {
	assert.Zero(t, EmptyTuningConfig().GetMicronsPerPixel())
}
