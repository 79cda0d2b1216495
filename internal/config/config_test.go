package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidFileApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hyfd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
separator: ";"
learning_factor: 0.3
output:
  path: out.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ";", cfg.Separator)
	assert.Equal(t, 0.3, cfg.LearningFactor)
	assert.Equal(t, "out.json", cfg.Output.Path)
	// Defaults() values survive for fields not in the YAML.
	assert.Equal(t, 0.01, cfg.EfficiencyThreshold)
}

func TestLoad_InvalidLearningFactorRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hyfd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("learning_factor: 1.5\n"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_DefaultsPass(t *testing.T) {
	assert.NoError(t, Validate(Defaults()))
}

func TestThresholdsOf_ExtractsHotReloadableFields(t *testing.T) {
	cfg := Defaults()
	cfg.LearningFactor = 0.2
	th := ThresholdsOf(cfg)
	assert.Equal(t, 0.2, th.LearningFactor)
	assert.Equal(t, cfg.EfficiencyThreshold, th.EfficiencyThreshold)
}
