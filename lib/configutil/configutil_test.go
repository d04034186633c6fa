package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Region  string             `json:"region"`
	Limit   int                `json:"limit"`
	Weights map[string]float64 `json:"weights"`
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "roster.json5"), `{
		// base
		region: "CN",
		limit: 4,
		weights: {bilibili: 0.9, weibo: 0.7},
	}`)
	write(t, filepath.Join(dir, "roster.local.json5"), `{limit: 8, weights: {weibo: 0.5}}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "roster.json5"))
	require.NoError(t, err)
	require.Equal(t, "CN", cfg.Region)
	require.Equal(t, 8, cfg.Limit)
	require.Equal(t, 0.9, cfg.Weights["bilibili"])
	require.Equal(t, 0.5, cfg.Weights["weibo"])
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nothing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json5")
	write(t, path, `{region: `)
	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	write(t, filepath.Join(root, "telemetry.json5"), `{region: "US"}`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, "US", cfg.Region)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("conf", "roster.local.json5"), LocalName(filepath.Join("conf", "roster.json5")))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("INFLUENCE_TEST_SECOND", "from-env")
	value := "from-file"
	ApplyEnv(&value, "INFLUENCE_TEST_FIRST", "INFLUENCE_TEST_SECOND")
	require.Equal(t, "from-env", value)

	untouched := "keep"
	ApplyEnv(&untouched, "INFLUENCE_TEST_UNSET")
	require.Equal(t, "keep", untouched)
}
