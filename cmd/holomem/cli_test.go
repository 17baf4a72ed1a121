package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestLearnPredictInspect(t *testing.T) {
	dir := t.TempDir()
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--store-path", filepath.Join(dir, "store"),
		"--seed", "42",
	}

	out, err := execute(t, append(base, "learn", "The cat sat", "the dog ran")...)
	require.NoError(t, err)
	assert.Contains(t, out, "learned 2 sentences (vocabulary 5, transitions 4)")
	assert.FileExists(t, filepath.Join(dir, "store", "holomem_brain.hdcs"))

	out, err = execute(t, append(base, "predict", "the", "cat")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sat\t"), out)

	out, err = execute(t, append(base, "predict", "--top", "2", "the dog")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ran\t"), out)
	assert.Contains(t, lines[1], "1. ran")

	out, err = execute(t, append(base, "inspect", "--vocab")...)
	require.NoError(t, err)
	assert.Contains(t, out, "seed:         42")
	assert.Contains(t, out, "vocabulary:   5")
	assert.Contains(t, out, "transitions:  4 / 2 / 0")
	assert.True(t, strings.HasSuffix(out, "the\ncat\nsat\ndog\nran\n"), out)
}

func TestLearnFromFile(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("one two three\n\n  two three four  \n"), 0o644))

	base := []string{"--config", filepath.Join(dir, "none.yaml"), "--store-path", dir, "--brain", "numbers"}

	out, err := execute(t, append(base, "learn", "--file", corpus)...)
	require.NoError(t, err)
	assert.Contains(t, out, "learned 2 sentences (vocabulary 4, transitions 4)")
	assert.FileExists(t, filepath.Join(dir, "numbers"))

	// A second run extends the stored brain.
	out, err = execute(t, append(base, "learn", "four five")...)
	require.NoError(t, err)
	assert.Contains(t, out, "vocabulary 5, transitions 5")
}

func TestLearnRequiresInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--config", filepath.Join(dir, "c.yaml"), "--store-path", dir, "learn")
	assert.ErrorContains(t, err, "nothing to learn")
}

func TestPredictRequiresContext(t *testing.T) {
	_, err := execute(t, "predict")
	assert.Error(t, err)
}

func TestDemo(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--config", filepath.Join(dir, "c.yaml"), "--seed", "7", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "learned: the cat sat on the mat")
	assert.Contains(t, out, "the cat -> sat")
	assert.Contains(t, out, "the dog -> ran")
	assert.Contains(t, out, "a bird -> flew")
}

func TestConfigInitShow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "conf", "holomem.yaml")

	out, err := execute(t, "--config", cfgPath, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+cfgPath)
	assert.FileExists(t, cfgPath)

	_, err = execute(t, "--config", cfgPath, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "--config", cfgPath, "--brain", "x.hdcs", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: local")
	assert.Contains(t, out, "name: x.hdcs")
	assert.Contains(t, out, "dimension: 10000")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  tie_break: sideways\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "inspect")
	assert.ErrorContains(t, err, "invalid configuration")
}
