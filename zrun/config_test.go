package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scummvm/zmachine"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
report_mode: always
undo_slots: 3
random_seed: 7
interpreter_version: B
columns: 100
save_dir: /tmp/saves
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "always", c.ReportMode)
	require.NotNil(t, c.UndoSlots)
	assert.Equal(t, 3, *c.UndoSlots)
	assert.Equal(t, 100, c.Columns)
	assert.Equal(t, "/tmp/saves", c.SaveDir)

	opts, err := c.Options("zork1")
	require.NoError(t, err)
	assert.Equal(t, zmachine.ReportAlways, opts.ReportMode)
	assert.Equal(t, 3, opts.UndoSlots)
	assert.Equal(t, 7, opts.RandomSeed)
	assert.Equal(t, uint8('B'), opts.InterpreterVersion)
	assert.Equal(t, uint8(zmachine.INTERP_MSDOS), opts.InterpreterNumber)
	assert.Equal(t, "zork1.qzl", opts.SaveName)
	assert.Equal(t, "zork1.scr", opts.TranscriptName)
	assert.Equal(t, "zork1.rec", opts.RecordName)
	assert.Equal(t, "zork1.aux", opts.AuxName)
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "ignore_errors: true\n"))
	require.NoError(t, err)
	assert.True(t, c.IgnoreErrors)
	assert.Equal(t, "warn", c.LogLevel)

	opts, err := c.Options("story")
	require.NoError(t, err)
	assert.Equal(t, zmachine.ReportOnce, opts.ReportMode)
	assert.Equal(t, zmachine.DEFAULT_UNDO_SLOTS, opts.UndoSlots)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "undo: 3\n"))
	assert.ErrorContains(t, err, "field undo not found")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigOptionsErrors(t *testing.T) {
	c := DefaultConfig()
	c.ReportMode = "sometimes"
	_, err := c.Options("story")
	assert.Error(t, err)

	c = DefaultConfig()
	negative := -1
	c.UndoSlots = &negative
	_, err = c.Options("story")
	assert.Error(t, err)

	c = DefaultConfig()
	c.InterpreterVersion = "1.0"
	_, err = c.Options("story")
	assert.Error(t, err)
}

func TestOverride(t *testing.T) {
	c := DefaultConfig()
	c.RandomSeed = 5
	c.Columns = 120

	slots := 0
	flags := &Config{RandomSeed: 9, Columns: 0, LogLevel: "trace", UndoSlots: &slots}
	c.Override(flags, map[string]bool{"seed": true, "log-level": true})

	assert.Equal(t, 9, c.RandomSeed)
	assert.Equal(t, 120, c.Columns, "flag not given")
	assert.Equal(t, "trace", c.LogLevel)
	require.NotNil(t, c.UndoSlots)
	assert.Zero(t, *c.UndoSlots)
}

func TestOptionsFromFlags(t *testing.T) {
	path := writeConfig(t, "random_seed: 4\ncolumns: 90\n")
	opts := OptionsFromFlags([]string{"zrun", "-config", path, "-seed", "11", "-undo", "2", "story.z5"})

	assert.Equal(t, "story.z5", opts.StoryFile)
	assert.Equal(t, path, opts.ConfigFile)
	assert.Equal(t, 11, opts.Config.RandomSeed)
	assert.Equal(t, 90, opts.Config.Columns)
	require.NotNil(t, opts.Config.UndoSlots)
	assert.Equal(t, 2, *opts.Config.UndoSlots)
}

func TestDirStorage(t *testing.T) {
	dir := t.TempDir()
	s := DirStorage{Dir: dir}

	w, err := s.Create("game.qzl")
	require.NoError(t, err)
	_, err = w.Write([]byte("saved"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "game.qzl"))
	require.NoError(t, err)
	assert.Equal(t, "saved", string(data))

	abs := filepath.Join(t.TempDir(), "elsewhere.aux")
	require.NoError(t, os.WriteFile(abs, []byte("x"), 0o644))
	r, err := s.Open(abs)
	require.NoError(t, err)
	r.Close()

	_, err = s.Open("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
