package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/scummvm/zmachine"
)

// ZSCII input codes for the cursor keys.
const (
	zcArrowUp    = 129
	zcArrowDown  = 130
	zcArrowLeft  = 131
	zcArrowRight = 132
	zcBackspace  = 8
)

const escapeWait = 20 * time.Millisecond

// Terminal is a zmachine.Screen and zmachine.Input on a text terminal.
// When out is a terminal the upper window and status line are drawn with
// ANSI escapes, otherwise only the lower window is written.
type Terminal struct {
	out     io.Writer
	ansi    bool
	inFd    int
	keys    chan byte
	readErr error

	columns, lines int
	window         int
	upper          int
	line, column   int
	closed         bool
}

func NewTerminal(in *os.File, out *os.File) *Terminal {
	t := &Terminal{
		out:     out,
		ansi:    term.IsTerminal(int(out.Fd())),
		inFd:    -1,
		keys:    make(chan byte, 256),
		columns: 80,
		lines:   24,
		line:    1,
		column:  1,
	}
	if term.IsTerminal(int(in.Fd())) {
		t.inFd = int(in.Fd())
	}
	if t.ansi {
		if w, h, err := term.GetSize(int(out.Fd())); err == nil {
			t.columns, t.lines = w, h
		}
	}
	go t.readLoop(in)
	return t
}

func newTerminal(in io.Reader, out io.Writer, columns, lines int) *Terminal {
	t := &Terminal{
		out:     out,
		inFd:    -1,
		keys:    make(chan byte, 256),
		columns: columns,
		lines:   lines,
		line:    1,
		column:  1,
	}
	go t.readLoop(in)
	return t
}

func (t *Terminal) readLoop(in io.Reader) {
	var b [1]byte
	for {
		n, err := in.Read(b[:])
		if n == 1 {
			t.keys <- b[0]
		}
		if err != nil {
			t.readErr = err
			close(t.keys)
			return
		}
	}
}

// Close resets the terminal attributes.
func (t *Terminal) Close() {
	if t.closed || !t.ansi {
		return
	}
	t.closed = true
	io.WriteString(t.out, "\x1b[0m")
}

func (t *Terminal) escape(format string, args ...interface{}) {
	if t.ansi {
		fmt.Fprintf(t.out, "\x1b"+format, args...)
	}
}

func (t *Terminal) PutChar(c rune) {
	if t.window != 0 && !t.ansi {
		return
	}
	io.WriteString(t.out, string(c))
	if c == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

func (t *Terminal) SetStyle(style uint16) {
	t.escape("[0m")
	if style&zmachine.STYLE_REVERSE != 0 {
		t.escape("[7m")
	}
	if style&zmachine.STYLE_BOLD != 0 {
		t.escape("[1m")
	}
	if style&zmachine.STYLE_ITALIC != 0 {
		t.escape("[3m")
	}
}

func (t *Terminal) SetWindow(window int) {
	if window == t.window {
		return
	}
	if window != 0 {
		t.escape("7")
		t.MoveCursor(1, 1)
	} else {
		t.escape("8")
	}
	t.window = window
}

func (t *Terminal) SplitWindow(lines int) {
	t.upper = lines
	if t.upper > 0 {
		t.escape("[%d;%dr", t.upper+1, t.lines)
	} else {
		t.escape("[r")
	}
}

func (t *Terminal) MoveCursor(line, column int) {
	t.line, t.column = line, column
	t.escape("[%d;%dH", line, column)
}

func (t *Terminal) CursorPosition() (int, int) {
	return t.line, t.column
}

func (t *Terminal) Clear(window int) {
	switch window {
	case -1:
		t.SplitWindow(0)
		fallthrough
	case -2:
		t.escape("[2J")
		t.MoveCursor(1, 1)
	case 1:
		for l := 1; l <= t.upper; l++ {
			t.escape("[%d;1H", l)
			t.escape("[K")
		}
	default:
		if t.upper == 0 {
			t.escape("[2J")
		} else {
			t.escape("[%d;1H", t.upper+1)
			t.escape("[J")
		}
	}
}

func (t *Terminal) EraseLine() {
	t.escape("[K")
}

// SetColour maps the Z-machine colours 2 (black) to 9 (white) onto the
// eight ANSI colours. 1 is the default colour, 0 keeps the current one.
func (t *Terminal) SetColour(foreground, background int) {
	set := func(c, base int) {
		switch {
		case c == 1:
			t.escape("[%dm", base+9)
		case c >= 2 && c <= 9:
			t.escape("[%dm", base+c-2)
		}
	}
	set(foreground, 30)
	set(background, 40)
}

func (t *Terminal) SetFont(font int) bool {
	return font == 1 || font == 4
}

func (t *Terminal) SetFixedPitch(bool) {}

func (t *Terminal) Size() (int, int) {
	return t.columns, t.lines
}

func (t *Terminal) StatusLine(location, right string) {
	if !t.ansi {
		return
	}
	width := t.columns
	left := " " + location
	right = right + " "
	pad := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if pad < 1 {
		pad = 1
	}
	line := left + strings.Repeat(" ", pad) + right
	t.escape("7")
	t.escape("[1;1H")
	t.escape("[7m")
	io.WriteString(t.out, line)
	t.escape("[0m")
	t.escape("8")
}

func (t *Terminal) nextKey(ctx context.Context, timer <-chan time.Time) (byte, bool, error) {
	select {
	case b, ok := <-t.keys:
		if !ok {
			if t.readErr != nil && t.readErr != io.EOF {
				return 0, false, t.readErr
			}
			return 0, false, zmachine.ErrQuit
		}
		return b, true, nil
	case <-timer:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

func (t *Terminal) ReadLine(ctx context.Context, prefill string, max int, timeout time.Duration) (string, uint16, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		timer = tm.C
	}

	line := []byte(prefill)
	for {
		b, ok, err := t.nextKey(ctx, timer)
		if err != nil {
			return string(line), zmachine.ZC_RETURN, err
		}
		if !ok {
			return string(line), zmachine.ZC_TIME_OUT, nil
		}
		switch b {
		case '\r':
		case '\n':
			t.line++
			t.column = 1
			log.WithField("line", string(line)).Trace("read")
			return string(line), zmachine.ZC_RETURN, nil
		default:
			if utf8.RuneCount(line) < max || max <= 0 {
				line = append(line, b)
			}
		}
	}
}

func (t *Terminal) ReadChar(ctx context.Context, timeout time.Duration) (uint16, error) {
	if t.inFd >= 0 {
		state, err := term.MakeRaw(t.inFd)
		if err != nil {
			return 0, err
		}
		defer term.Restore(t.inFd, state)
	}

	var timer <-chan time.Time
	if timeout > 0 {
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		timer = tm.C
	}

	b, ok, err := t.nextKey(ctx, timer)
	if err != nil || !ok {
		return zmachine.ZC_TIME_OUT, err
	}
	switch {
	case b == '\r' || b == '\n':
		return zmachine.ZC_RETURN, nil
	case b == 127 || b == 8:
		return zcBackspace, nil
	case b == 27:
		return t.escapeKey(ctx), nil
	case b == 3:
		// Raw mode swallows the interrupt.
		return 0, context.Canceled
	case b >= 0x80:
		return t.utf8Key(ctx, b), nil
	}
	return uint16(b), nil
}

// escapeKey reads the rest of a cursor key sequence. A lone escape is
// returned as ZC_ESCAPE.
func (t *Terminal) escapeKey(ctx context.Context) uint16 {
	var seq []byte
	for len(seq) < 2 {
		b, ok, err := t.nextKey(ctx, time.After(escapeWait))
		if err != nil || !ok {
			break
		}
		seq = append(seq, b)
	}
	if len(seq) == 2 && (seq[0] == '[' || seq[0] == 'O') {
		switch seq[1] {
		case 'A':
			return zcArrowUp
		case 'B':
			return zcArrowDown
		case 'C':
			return zcArrowRight
		case 'D':
			return zcArrowLeft
		}
	}
	return zmachine.ZC_ESCAPE
}

// utf8Key consumes a multi-byte character, which has no fixed ZSCII
// code and is reported as '?'.
func (t *Terminal) utf8Key(ctx context.Context, first byte) uint16 {
	buf := []byte{first}
	for !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		b, ok, err := t.nextKey(ctx, time.After(escapeWait))
		if err != nil || !ok {
			break
		}
		buf = append(buf, b)
	}
	return '?'
}

func (t *Terminal) ReadFilename(ctx context.Context, prompt, def string) (string, error) {
	fmt.Fprintf(t.out, "%s [%s]: ", prompt, def)
	name, _, err := t.ReadLine(ctx, "", 0, 0)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	return name, nil
}
