package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Project string `json:"project"`
	Folder  string `json:"folder"`
	Rate    int    `json:"rate"`
	Limit   *int   `json:"limit"`
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLocalName(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{name: "seqstats.json5", expected: "seqstats.local.json5"},
		{name: "/etc/seqstats/telemetry.json5", expected: "/etc/seqstats/telemetry.local.json5"},
		{name: "config", expected: "config.local"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, LocalName(test.name))
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "seqstats.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{
		// comments and trailing commas are allowed
		project: "project-a",
		folder: "/",
		rate: 5,
	}`)
	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Project: "project-a", Folder: "/", Rate: 5}, config)

	writeFile(t, filepath.Join(dir, "seqstats.local.json5"), `{ project: "project-b" }`)
	config, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Project: "project-b", Folder: "/", Rate: 5}, config)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "seqstats.json5")
	writeFile(t, name, `{ project: `)

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "seqstats.json5")
	defaults := testConfig{Project: "project-default", Folder: "/", Rate: 10}

	config, err := ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	writeFile(t, name, `{ rate: 2 }`)
	config, err = ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, testConfig{Project: "project-default", Folder: "/", Rate: 2}, config)
}

func TestReadWithDefaultsExplicitZero(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "seqstats.json5")
	limit := 10
	defaults := testConfig{Project: "project-default", Limit: &limit}

	writeFile(t, name, `{ limit: 0 }`)
	config, err := ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.NotNil(t, config.Limit)
	require.Equal(t, 0, *config.Limit)
	require.Equal(t, "project-default", config.Project)

	writeFile(t, name, `{ limit: 3 }`)
	writeFile(t, filepath.Join(dir, "seqstats.local.json5"), `{ limit: 0 }`)
	config, err = ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 0, *config.Limit)

	writeFile(t, filepath.Join(dir, "seqstats.local.json5"), `{ project: "project-b" }`)
	config, err = ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 3, *config.Limit)

	require.NoError(t, os.Remove(filepath.Join(dir, "seqstats.local.json5")))
	writeFile(t, name, `{ project: "project-c" }`)
	config, err = ReadWithDefaults(name, defaults)
	require.NoError(t, err)
	require.Equal(t, 10, *config.Limit)
	require.Equal(t, 10, limit)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	writeFile(t, filepath.Join(root, "seqstats.json5"), `{ project: "found" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() {
		os.Chdir(wd)
	})

	config, err := ReadRecursively[testConfig]("seqstats.json5")
	require.NoError(t, err)
	require.Equal(t, "found", config.Project)

	_, err = ReadRecursively[testConfig]("missing.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
