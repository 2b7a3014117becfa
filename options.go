package zmachine

import (
	log "github.com/sirupsen/logrus"
)

// Interpreter numbers for the header, from the Z-machine standard.
const (
	INTERP_DEC_20      = 1
	INTERP_APPLE_IIE   = 2
	INTERP_MACINTOSH   = 3
	INTERP_AMIGA       = 4
	INTERP_ATARI_ST    = 5
	INTERP_MSDOS       = 6
	INTERP_CBM_128     = 7
	INTERP_CBM_64      = 8
	INTERP_APPLE_IIC   = 9
	INTERP_APPLE_IIGS  = 10
	INTERP_TANDY       = 11
	INTERP_DEFAULT_VER = 'F'
)

// Options configures a ZMachine. The zero value hides warnings and
// disables undo; DefaultOptions gives the usual settings.
type Options struct {
	// ReportMode selects how non-fatal runtime errors are shown.
	ReportMode ReportMode
	// IgnoreErrors turns the errors that are normally fatal into
	// warnings, except for stack and addressing corruption.
	IgnoreErrors bool

	// UndoSlots bounds the in-memory undo list; 0 disables undo.
	UndoSlots int
	// RawFrameTokens makes @catch return the raw frame pointer offset
	// instead of the frame count used by Quetzal.
	RawFrameTokens bool
	// UncompressedSaves writes UMem instead of CMem chunks.
	UncompressedSaves bool
	// ExpandAbbreviations expands the single letter commands g, x and z
	// for old stories that lack them.
	ExpandAbbreviations bool

	// RandomSeed seeds the generator at start and on restart. Seeds
	// below 1000 select the cycling sequence 1, 2, ..., seed.
	RandomSeed int

	InterpreterNumber  uint8
	InterpreterVersion uint8
	// Columns and Lines override the screen size reported by the Screen.
	Columns int
	Lines   int

	TranscriptName string
	RecordName     string
	SaveName       string
	AuxName        string

	Logger *log.Logger
}

// DefaultOptions returns the settings used by the command line host.
func DefaultOptions() Options {
	return Options{
		ReportMode:         ReportOnce,
		UndoSlots:          DEFAULT_UNDO_SLOTS,
		InterpreterNumber:  INTERP_MSDOS,
		InterpreterVersion: INTERP_DEFAULT_VER,
		TranscriptName:     "story.scr",
		RecordName:         "story.rec",
		SaveName:           "story.qzl",
		AuxName:            "story.aux",
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.StandardLogger()
}
