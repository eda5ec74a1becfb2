package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/test"
)

const energyRecipe = `
generator: loader
nodes:
  - {name: loader, algorithm: AudioLoader}
  - {name: cutter, algorithm: FrameCutter, params: {frameSize: 512, hopSize: 512, startFromZero: true}}
  - {name: energy, algorithm: Energy}
connections:
  - {from: loader.audio, to: cutter.signal}
  - {from: cutter.frame, to: energy.array}
outputs:
  - {from: energy.energy, descriptor: lowlevel.energy}
  - {from: loader.sampleRate, descriptor: metadata.sampleRate, single: true}
unused: [loader.numberChannels]
`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// fixtures writes recipe and n sine files of 2048 samples.
func fixtures(t *testing.T, n int) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	r := filepath.Join(dir, "energy.yaml")
	require.NoError(t, os.WriteFile(r, []byte(energyRecipe), 0o644))
	files := make([]string, n)
	for i := range files {
		files[i] = filepath.Join(dir, "sine"+string(rune('a'+i))+".wav")
		require.NoError(t, test.WriteWav(files[i], test.SampleRate, test.Sine(440*float64(i+1), 0.5, test.SampleRate, 2048)))
	}
	return r, files
}

func TestInit(t *testing.T) {
	names := make([]string, 0)
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"list", "info", "analyze"})
}

func TestList(t *testing.T) {
	out, _, err := execute("list")
	require.NoError(t, err)
	assert.Contains(t, out, "AudioLoader")
	assert.Contains(t, out, "FrameCutter")
	assert.NotContains(t, out, "PoolAggregator")

	out, _, err = execute("list", "--standard")
	require.NoError(t, err)
	assert.Contains(t, out, "PoolAggregator")
	assert.NotContains(t, out, "AudioLoader")
}

func TestInfo(t *testing.T) {
	out, _, err := execute("info", "FrameCutter")
	require.NoError(t, err)
	for _, s := range []string{"FrameCutter", "Inputs:", "signal", "Outputs:", "frame", "frameSize", "= 1024"} {
		assert.Contains(t, out, s)
	}

	out, _, err = execute("info", "PoolAggregator")
	require.NoError(t, err)
	assert.Contains(t, out, "defaultStats")

	_, _, err = execute("info", "Unknown")
	assert.ErrorIs(t, err, timbre.ErrNotFound)
	_, _, err = execute("info")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	r, files := fixtures(t, 3)
	out, logs, err := execute(append([]string{"analyze", "--recipe", r}, files...)...)
	require.NoError(t, err)
	// one document per file in order of arguments.
	assert.Equal(t, 3, strings.Count(out, "sampleRate: 44100"))
	assert.Equal(t, 3, strings.Count(out, "energy:"))
	for _, f := range files {
		assert.Contains(t, logs, f)
	}

	_, logs, err = execute("analyze", "-q", "-r", r, files[0])
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAnalyzeOut(t *testing.T) {
	r, files := fixtures(t, 2)
	dir := filepath.Join(t.TempDir(), "results")
	out, _, err := execute(append([]string{"analyze", "-q", "-r", r, "--format", "json", "--out", dir, "--aggregate", "--stats", "mean,count"}, files...)...)
	require.NoError(t, err)
	assert.Empty(t, out)

	for _, name := range []string{"sinea.json", "sineb.json"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		var tree struct {
			Lowlevel struct {
				Energy map[string]float64 `json:"energy"`
			} `json:"lowlevel"`
			Metadata struct {
				SampleRate float64 `json:"sampleRate"`
			} `json:"metadata"`
		}
		require.NoError(t, json.Unmarshal(b, &tree), name)
		assert.Equal(t, float64(test.SampleRate), tree.Metadata.SampleRate, name)
		assert.Equal(t, 4.0, tree.Lowlevel.Energy["count"], name)
		assert.Greater(t, tree.Lowlevel.Energy["mean"], 0.0, name)
		assert.Len(t, tree.Lowlevel.Energy, 2, name)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	r, files := fixtures(t, 1)
	// same name in another directory.
	twin := filepath.Join(t.TempDir(), filepath.Base(files[0]))
	b, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(twin, b, 0o644))
	results := filepath.Join(t.TempDir(), "results")
	var tests = []struct {
		description string
		args        []string
		err         error
	}{
		{
			description: "no files",
			args:        []string{"analyze", "-r", r},
		},
		{
			description: "no recipe",
			args:        []string{"analyze", files[0]},
		},
		{
			description: "bad format",
			args:        []string{"analyze", "-r", r, "--format", "xml", files[0]},
			err:         timbre.ErrConfiguration,
		},
		{
			description: "bad statistic",
			args:        []string{"analyze", "-r", r, "--aggregate", "--stats", "median", files[0]},
			err:         timbre.ErrNotFound,
		},
		{
			description: "bad jobs",
			args:        []string{"analyze", "-r", r, "-j", "0", files[0]},
			err:         timbre.ErrConfiguration,
		},
		{
			description: "missing recipe file",
			args:        []string{"analyze", "-r", r + ".missing", files[0]},
			err:         os.ErrNotExist,
		},
		{
			description: "missing audio file",
			args:        []string{"analyze", "-q", "-r", r, files[0], files[0] + ".missing.wav"},
			err:         os.ErrNotExist,
		},
		{
			description: "same output name",
			args:        []string{"analyze", "-q", "-r", r, "--out", results, files[0], twin},
			err:         timbre.ErrConfiguration,
		},
		{
			description: "unsupported audio file",
			args:        []string{"analyze", "-q", "-r", r, "song.mp3"},
			err:         timbre.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		_, _, err := execute(tt.args...)
		require.Error(t, err, tt.description)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.description)
		}
	}
	// nothing is written when outputs collide.
	assert.NoDirExists(t, results)
}

func TestOutputPaths(t *testing.T) {
	var tests = []struct {
		description string
		files       []string
		expected    []string
		err         error
	}{
		{
			description: "distinct names",
			files:       []string{"a/song.wav", "b/other.flac"},
			expected:    []string{filepath.Join("out", "song.json"), filepath.Join("out", "other.json")},
		},
		{
			description: "same name in different directories",
			files:       []string{"a/song.wav", "b/song.wav"},
			err:         timbre.ErrConfiguration,
		},
		{
			description: "same name with different extensions",
			files:       []string{"song.wav", "song.flac"},
			err:         timbre.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		paths, err := outputPaths("out", tt.files, pool.JSON)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.description)
			continue
		}
		require.NoError(t, err, tt.description)
		assert.Equal(t, tt.expected, paths, tt.description)
	}
}

func TestRun(t *testing.T) {
	assert.Equal(t, successExitCode, run([]string{"--version"}))
	assert.Equal(t, errorExitCode, run([]string{"unknown"}))
}
