package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scummvm/zmachine"
)

// Config is the YAML configuration of zrun. Every field can also be set
// by a flag.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	ReportMode          string `yaml:"report_mode"`
	IgnoreErrors        bool   `yaml:"ignore_errors"`
	UndoSlots           *int   `yaml:"undo_slots"`
	RandomSeed          int    `yaml:"random_seed"`
	RawFrameTokens      bool   `yaml:"raw_frame_tokens"`
	UncompressedSaves   bool   `yaml:"uncompressed_saves"`
	ExpandAbbreviations bool   `yaml:"expand_abbreviations"`

	InterpreterNumber  uint8  `yaml:"interpreter_number"`
	InterpreterVersion string `yaml:"interpreter_version"`
	Columns            int    `yaml:"columns"`
	Lines              int    `yaml:"lines"`

	SaveDir string `yaml:"save_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "warn",
		ReportMode: zmachine.ReportOnce.String(),
	}
}

// LoadConfig reads a configuration file. Missing keys keep their default
// values; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c := DefaultConfig()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// Override copies the fields of o whose flags were set.
func (c *Config) Override(o *Config, set map[string]bool) {
	if set["log-level"] {
		c.LogLevel = o.LogLevel
	}
	if set["log-file"] {
		c.LogFile = o.LogFile
	}
	if set["report"] {
		c.ReportMode = o.ReportMode
	}
	if set["ignore-errors"] {
		c.IgnoreErrors = o.IgnoreErrors
	}
	if set["seed"] {
		c.RandomSeed = o.RandomSeed
	}
	if set["width"] {
		c.Columns = o.Columns
	}
	if set["height"] {
		c.Lines = o.Lines
	}
	if set["save-dir"] {
		c.SaveDir = o.SaveDir
	}
	if set["expand"] {
		c.ExpandAbbreviations = o.ExpandAbbreviations
	}
	if o.UndoSlots != nil {
		c.UndoSlots = o.UndoSlots
	}
}

// Options converts the configuration for a story whose file names start
// with base.
func (c *Config) Options(base string) (zmachine.Options, error) {
	opts := zmachine.DefaultOptions()

	mode, err := zmachine.ParseReportMode(c.ReportMode)
	if err != nil {
		return opts, err
	}
	opts.ReportMode = mode
	opts.IgnoreErrors = c.IgnoreErrors
	if c.UndoSlots != nil {
		if *c.UndoSlots < 0 {
			return opts, fmt.Errorf("config: undo_slots must not be negative")
		}
		opts.UndoSlots = *c.UndoSlots
	}
	opts.RandomSeed = c.RandomSeed
	opts.RawFrameTokens = c.RawFrameTokens
	opts.UncompressedSaves = c.UncompressedSaves
	opts.ExpandAbbreviations = c.ExpandAbbreviations

	if c.InterpreterNumber != 0 {
		opts.InterpreterNumber = c.InterpreterNumber
	}
	switch len(c.InterpreterVersion) {
	case 0:
	case 1:
		opts.InterpreterVersion = c.InterpreterVersion[0]
	default:
		return opts, fmt.Errorf("config: interpreter_version must be a single character")
	}
	opts.Columns = c.Columns
	opts.Lines = c.Lines

	opts.TranscriptName = base + ".scr"
	opts.RecordName = base + ".rec"
	opts.SaveName = base + ".qzl"
	opts.AuxName = base + ".aux"
	return opts, nil
}
