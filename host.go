package zmachine

import (
	"context"
	"io"
	"time"
)

// Text styles for Screen.SetStyle.
const (
	STYLE_ROMAN   = 0
	STYLE_REVERSE = 1
	STYLE_BOLD    = 2
	STYLE_ITALIC  = 4
	STYLE_FIXED   = 8
)

// A Screen receives the text the story prints to output stream 1 and
// carries out its window requests.
type Screen interface {
	PutChar(c rune)
	SetStyle(style uint16)
	SetWindow(window int)
	SplitWindow(lines int)
	// MoveCursor moves the cursor of the current window, 1-based.
	MoveCursor(line, column int)
	CursorPosition() (line, column int)
	// Clear erases a window; -1 unsplits and clears the screen, -2 clears
	// without unsplitting.
	Clear(window int)
	EraseLine()
	SetColour(foreground, background int)
	// SetFont selects a font and reports whether it is available.
	SetFont(font int) bool
	SetFixedPitch(fixed bool)
	// Size returns the screen size in characters.
	Size() (columns, lines int)
}

// StatusLiner is a Screen that can show the version 1-3 status line.
type StatusLiner interface {
	StatusLine(location, right string)
}

// Predefined sound effects.
const (
	HighPitchBleep = 1
	LowPitchBleep  = 2
)

// SoundPlayer is a Screen that can play sampled sounds.
type SoundPlayer interface {
	PrepareSound(n int)
	PlaySound(n int, volume int, repeats int)
	StopSound(n int)
	FinishSound(n int)
	Beep(n int)
}

// Picture is the metadata of one picture resource.
type Picture struct {
	Width, Height int
}

// PictureProvider is a Screen that can draw picture resources.
// PictureData(0) reports the number of pictures as Width and the release
// of the picture file as Height.
type PictureProvider interface {
	PictureData(n int) (Picture, bool)
	DrawPicture(n int, y, x int)
	ErasePicture(n int, y, x int)
}

// An Input supplies the player's keystrokes. A zero timeout waits forever;
// an expired timeout returns terminator ZC_TIME_OUT with the text typed so
// far. ReadChar returns a ZSCII key code.
type Input interface {
	ReadLine(ctx context.Context, prefill string, max int, timeout time.Duration) (line string, terminator uint16, err error)
	ReadChar(ctx context.Context, timeout time.Duration) (uint16, error)
	ReadFilename(ctx context.Context, prompt, def string) (string, error)
}

// Storage opens the files the story names: saves, transcripts, command
// records and auxiliary tables.
type Storage interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
}

// WriterScreen is a Screen for plain text streams. The upper window is
// discarded, the lower window is written to W.
type WriterScreen struct {
	W       io.Writer
	Columns int
	Lines   int

	window int
	line   int
	column int
}

func NewWriterScreen(w io.Writer, columns, lines int) *WriterScreen {
	return &WriterScreen{W: w, Columns: columns, Lines: lines, line: 1, column: 1}
}

func (s *WriterScreen) PutChar(c rune) {
	if s.window != 0 {
		return
	}
	io.WriteString(s.W, string(c))
	if c == '\n' {
		s.column = 1
	} else {
		s.column++
	}
}

func (s *WriterScreen) SetStyle(uint16)      {}
func (s *WriterScreen) SetWindow(window int) { s.window = window }
func (s *WriterScreen) SplitWindow(int)      {}

func (s *WriterScreen) MoveCursor(line, column int) {
	s.line, s.column = line, column
}

func (s *WriterScreen) CursorPosition() (int, int) {
	return s.line, s.column
}

func (s *WriterScreen) Clear(int)          {}
func (s *WriterScreen) EraseLine()         {}
func (s *WriterScreen) SetColour(int, int) {}
func (s *WriterScreen) SetFixedPitch(bool) {}

func (s *WriterScreen) SetFont(font int) bool {
	return font == 1 || font == 4
}

func (s *WriterScreen) Size() (int, int) {
	return s.Columns, s.Lines
}
