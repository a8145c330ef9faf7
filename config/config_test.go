package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.53, cfg.Thresholds.DL)
	assert.Equal(t, 1.74, cfg.Thresholds.DU)
	assert.Equal(t, 2.98, cfg.Thresholds.FisherValue)
	assert.Equal(t, 16.8, cfg.Thresholds.XSquare)
	assert.Equal(t, 0.6, cfg.TrainingSplit)
	assert.Equal(t, 10, cfg.Top)
	assert.Equal(t, 0.1, cfg.TieWindow)
	assert.Equal(t, 1, cfg.SortColumn)
	assert.Len(t, cfg.Transforms, 4)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	data := []byte(`
training_split: 0.75
top: 4
transforms: [identity, ln]
thresholds:
  x_square: 12.5
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.TrainingSplit)
	assert.Equal(t, 4, cfg.Top)
	assert.Equal(t, []linear.Transform{linear.Identity, linear.NaturalLog}, cfg.Transforms)
	assert.Equal(t, 12.5, cfg.Thresholds.XSquare)
	assert.Equal(t, 1.53, cfg.Thresholds.DL, "unset nested fields keep defaults")
	assert.Equal(t, 0.1, cfg.TieWindow)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"split out of range", "training_split: 1.5"},
		{"top too small", "top: 1"},
		{"unknown transform", "transforms: [sqrt]"},
		{"duplicate transform", "transforms: [square, square]"},
		{"bad thresholds", "thresholds: {dl: 1.9, du: 1.8}"},
		{"bad log level", "log_level: loud"},
		{"negative workers", "workers: -2"},
		{"negative sort column", "sort_column: -1"},
		{"sort column beyond single-variable models", "sort_column: 2"},
		{"not yaml", "top: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindInvalidArgument), "kind = %v (err: %v)", errors.KindOf(err), err)
		})
	}
}

func TestParse_SortColumnIntercept(t *testing.T) {
	cfg, err := Parse([]byte("sort_column: 0"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.SortColumn)
}

func TestWriteDefaultAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stackreg.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fisher_value: 2.98")
	assert.Contains(t, string(raw), "- log")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsKind(err, errors.KindDataUnavailable), "err = %v", err)
}
