// Binary zrun plays Z-machine story files in a terminal.
// Simple usage:
//
//	zrun zork1.z3
//
// Saves, transcripts and command records are written next to the story
// unless a save directory is configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/scummvm/zmachine"
)

type Options struct {
	StoryFile  string
	ConfigFile string
	Config     *Config
}

func OptionsFromFlags(args []string) *Options {
	var (
		configFile string
		help       bool
	)
	flags := new(Config)

	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&configFile, "config", "", "YAML configuration file")
	fs.BoolVar(&help, "help", false, "show usage information about this command.")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level: panic, fatal, error, warn, info, debug or trace")
	fs.StringVar(&flags.LogFile, "log-file", "", "write the log to this file instead of stderr")
	fs.StringVar(&flags.ReportMode, "report", "", "how to show story errors: never, once, always or fatal")
	fs.BoolVar(&flags.IgnoreErrors, "ignore-errors", false, "keep going after errors that normally stop the story")
	fs.IntVar(&flags.RandomSeed, "seed", 0, "random seed; below 1000 gives a predictable sequence")
	fs.IntVar(&flags.Columns, "width", 0, "screen width in characters")
	fs.IntVar(&flags.Lines, "height", 0, "screen height in lines")
	fs.StringVar(&flags.SaveDir, "save-dir", "", "directory for saves, transcripts and records")
	fs.BoolVar(&flags.ExpandAbbreviations, "expand", false, "expand the commands g, x and z for old stories")
	undo := fs.Int("undo", -1, "number of undo slots, 0 disables undo")

	arg0 := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		usage(fs, arg0)
	}
	if help {
		usage(fs, arg0)
	}
	if len(fs.Args()) != 1 {
		if len(fs.Args()) > 1 {
			pf("ERROR: too many command-line arguments: %s\n\n", fs.Args())
		}
		usage(fs, arg0)
	}

	config := DefaultConfig()
	if configFile != "" {
		loaded, err := LoadConfig(configFile)
		if err != nil {
			pf("ERROR: %v\n", err)
			os.Exit(2)
		}
		config = loaded
	}
	if *undo >= 0 {
		flags.UndoSlots = undo
	}

	// Flags given on the command line win over the file.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	config.Override(flags, set)

	return &Options{
		StoryFile:  fs.Arg(0),
		ConfigFile: configFile,
		Config:     config,
	}
}

func pf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
}

func usage(fs *flag.FlagSet, arg0 string) {
	pf("%s plays Z-machine story files (versions 1 to 8)\n\n", arg0)
	pf("Usage:\n\n")
	pf("%s [flags] <story file>\n", arg0)
	fs.PrintDefaults()
	os.Exit(2)
}

func Main(opts *Options) int {
	if err := setupLogging(opts.Config); err != nil {
		pf("%s\n", err)
		return 1
	}

	story, err := os.ReadFile(opts.StoryFile)
	if err != nil {
		pf("%s\n", err)
		return 1
	}

	base := strings.TrimSuffix(filepath.Base(opts.StoryFile), filepath.Ext(opts.StoryFile))
	zopts, err := opts.Config.Options(base)
	if err != nil {
		pf("%s\n", err)
		return 2
	}

	dir := opts.Config.SaveDir
	if dir == "" {
		dir = filepath.Dir(opts.StoryFile)
	}

	term := NewTerminal(os.Stdin, os.Stdout)
	defer term.Close()

	zm, err := zmachine.New(story, term, term, DirStorage{Dir: dir}, zopts)
	if err != nil {
		pf("%s: %v\n", opts.StoryFile, err)
		return 1
	}
	log.WithFields(log.Fields{
		"story":   opts.StoryFile,
		"version": int(zm.Version()),
	}).Debug("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := zm.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		term.Close()
		pf("\n%v\n", err)
		return 3
	}
	return 0
}

func setupLogging(c *Config) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}
	return nil
}

func main() {
	opts := OptionsFromFlags(os.Args)
	os.Exit(Main(opts))
}
