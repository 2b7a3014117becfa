package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scummvm/zmachine"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader("look\r\nopen the mailbox\n"), &out, 80, 24)
	ctx := context.Background()

	line, key, err := term.ReadLine(ctx, "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, "look", line)
	assert.Equal(t, uint16(zmachine.ZC_RETURN), key)

	line, _, err = term.ReadLine(ctx, "", 8, 0)
	require.NoError(t, err)
	assert.Equal(t, "open the", line, "input beyond max is dropped")

	_, _, err = term.ReadLine(ctx, "", 20, 0)
	assert.ErrorIs(t, err, zmachine.ErrQuit)
}

func TestReadLineTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := newTerminal(r, io.Discard, 80, 24)

	line, key, err := term.ReadLine(context.Background(), "ab", 20, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "ab", line)
	assert.Equal(t, uint16(zmachine.ZC_TIME_OUT), key)
}

func TestReadCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := newTerminal(r, io.Discard, 80, 24)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.ReadChar(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadChar(t *testing.T) {
	input := "y\r\x7f\x1b[A\x1bOD\x03é"
	term := newTerminal(strings.NewReader(input), io.Discard, 80, 24)
	ctx := context.Background()

	for _, want := range []uint16{'y', zmachine.ZC_RETURN, zcBackspace, zcArrowUp, zcArrowLeft} {
		key, err := term.ReadChar(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, want, key)
	}

	_, err := term.ReadChar(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled, "ctrl-c")

	key, err := term.ReadChar(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16('?'), key)

	_, err = term.ReadChar(ctx, 0)
	assert.ErrorIs(t, err, zmachine.ErrQuit)
}

func TestReadCharLoneEscape(t *testing.T) {
	term := newTerminal(strings.NewReader("\x1b"), io.Discard, 80, 24)
	key, err := term.ReadChar(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(zmachine.ZC_ESCAPE), key)
}

func TestReadFilename(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader("\n  other.qzl \n"), &out, 80, 24)
	ctx := context.Background()

	name, err := term.ReadFilename(ctx, "Save game to:", "story.qzl")
	require.NoError(t, err)
	assert.Equal(t, "story.qzl", name)
	assert.Equal(t, "Save game to: [story.qzl]: ", out.String())

	name, err = term.ReadFilename(ctx, "Save game to:", "story.qzl")
	require.NoError(t, err)
	assert.Equal(t, "other.qzl", name)
}

func TestPlainOutput(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, 80, 24)

	term.SetWindow(1)
	term.StatusLine("West of House", "Score: 0")
	for _, c := range "upper" {
		term.PutChar(c)
	}
	term.SetWindow(0)
	term.SetStyle(zmachine.STYLE_BOLD)
	for _, c := range "lower\n" {
		term.PutChar(c)
	}
	term.Close()

	assert.Equal(t, "lower\n", out.String())
	line, column := term.CursorPosition()
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, column)
}

func TestANSIOutput(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, 40, 24)
	term.ansi = true

	term.SetColour(4, 1)
	assert.Equal(t, "\x1b[32m\x1b[49m", out.String())

	out.Reset()
	term.SplitWindow(2)
	term.SetWindow(1)
	term.PutChar('x')
	term.SetWindow(0)
	assert.Equal(t, "\x1b[3;24r\x1b7\x1b[1;1Hx\x1b8", out.String())

	out.Reset()
	term.StatusLine("Kitchen", "Score: 10")
	status := " Kitchen" + strings.Repeat(" ", 40-8-10) + "Score: 10 "
	assert.Equal(t, "\x1b7\x1b[1;1H\x1b[7m"+status+"\x1b[0m\x1b8", out.String())

	assert.True(t, term.SetFont(4))
	assert.False(t, term.SetFont(3))
}
