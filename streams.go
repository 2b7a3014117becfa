package zmachine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// redirect is one output stream 3 table. width counts the characters
// written, for the version 6 line width.
type redirect struct {
	table uint16
	width int
}

type output struct {
	buffer    []rune
	prevC     rune
	locked    bool
	buffering bool
	screen    bool

	memory *arraystack.Stack

	script       io.WriteCloser
	record       io.WriteCloser
	replay       *bufio.Reader
	replayCloser io.Closer
}

func (o *output) init() {
	o.buffer = make([]rune, 0, TEXT_BUFFER_SIZE)
	o.buffering = true
	o.screen = true
	o.memory = arraystack.New()
}

func (o *output) currentRedirect() *redirect {
	if top, ok := o.memory.Peek(); ok {
		return top.(*redirect)
	}
	return nil
}

// printChar sends a character to the output streams, through the word
// buffer when buffering or writing to memory.
func (zm *ZMachine) printChar(c rune) {
	o := &zm.out
	if !o.memory.Empty() || o.buffering {
		if c == '\n' {
			zm.newLine()
			return
		}
		if c == 0 {
			return
		}
		// Flush the buffer before a whitespace or after a hyphen
		if c == ' ' || (o.prevC == '-' && c != '-') {
			zm.flushBuffer()
		}
		o.prevC = c

		o.buffer = append(o.buffer, c)
		if len(o.buffer) >= TEXT_BUFFER_SIZE {
			zm.runtimeError(ErrTextBufferOverflow)
			zm.flushBuffer()
		}
		return
	}
	if c != 0 {
		zm.streamChar(c)
	}
}

func (zm *ZMachine) printString(s string) {
	for _, r := range s {
		zm.printChar(r)
	}
}

func (zm *ZMachine) printNum(v int16) {
	zm.printString(strconv.Itoa(int(v)))
}

// printZSCII prints a character code from story memory.
func (zm *ZMachine) printZSCII(c uint8) {
	if c == ZC_RETURN {
		zm.newLine()
		return
	}
	zm.printChar(zm.zsciiToUnicode(c))
}

func (zm *ZMachine) newLine() {
	zm.flushBuffer()
	zm.streamChar('\n')
}

// flushBuffer writes the buffered word. Output produced while flushing,
// such as warnings, waits for the next flush.
func (zm *ZMachine) flushBuffer() {
	o := &zm.out
	if o.locked || len(o.buffer) == 0 {
		return
	}

	o.locked = true
	word := o.buffer
	o.buffer = make([]rune, 0, TEXT_BUFFER_SIZE)
	for _, c := range word {
		zm.streamChar(c)
	}
	o.prevC = 0
	o.locked = false
}

// streamChar writes to stream 3 if it is active, and otherwise to the
// screen and the transcript.
func (zm *ZMachine) streamChar(c rune) {
	o := &zm.out
	if r := o.currentRedirect(); r != nil {
		zm.memoryChar(r, c)
		return
	}
	if o.screen {
		zm.screen.PutChar(c)
	}
	if o.script != nil && zm.win.current == 0 {
		zm.scriptWrite(string(c))
	}
}

func (zm *ZMachine) memoryChar(r *redirect, c rune) {
	z, _ := zm.unicodeToZSCII(c)
	size := zm.GetUint16(uint32(r.table))
	zm.storeb(r.table+2+size, z)
	zm.storew(r.table, size+1)
	r.width++
}

// memoryOpen starts writing output into the table at address table.
func (zm *ZMachine) memoryOpen(table uint16) {
	o := &zm.out
	if o.memory.Size() >= MAX_NESTING {
		zm.runtimeError(ErrStream3Nesting)
		return
	}
	o.memory.Push(&redirect{table: table})
	zm.storew(table, 0)
}

func (zm *ZMachine) memoryClose() {
	top, ok := zm.out.memory.Pop()
	if !ok {
		return
	}
	if zm.version == 6 {
		zm.storew(H_LINE_WIDTH, uint16(top.(*redirect).width))
	}
}

// setScriptingBit changes the transcript bit without reporting the change
// back to flagsChanged.
func (zm *ZMachine) setScriptingBit(on bool) {
	flags := zm.GetUint16(H_FLAGS)
	if on {
		flags |= SCRIPTING_FLAG
	} else {
		flags &^= SCRIPTING_FLAG
	}
	zm.SetUint16(H_FLAGS, flags)
	zm.header.Flags = flags
}

// scriptOpen starts the transcript, output stream 2.
func (zm *ZMachine) scriptOpen() {
	if zm.out.script != nil {
		zm.setScriptingBit(true)
		return
	}
	w, err := zm.createFile(zm.opts.TranscriptName)
	if err != nil {
		zm.log.WithError(err).Warn("cannot open transcript")
		zm.setScriptingBit(false)
		return
	}
	zm.out.script = w
	zm.setScriptingBit(true)
}

func (zm *ZMachine) scriptClose() {
	zm.setScriptingBit(false)
	if zm.out.script == nil {
		return
	}
	if err := zm.out.script.Close(); err != nil {
		zm.log.WithError(err).Warn("closing transcript")
	}
	zm.out.script = nil
}

func (zm *ZMachine) scriptWrite(s string) {
	if _, err := io.WriteString(zm.out.script, s); err != nil {
		zm.log.WithError(err).Warn("transcript write failed")
		zm.scriptClose()
	}
}

// recordOpen starts writing the player's input to output stream 4.
func (zm *ZMachine) recordOpen() {
	if zm.out.record != nil {
		return
	}
	w, err := zm.createFile(zm.opts.RecordName)
	if err != nil {
		zm.log.WithError(err).Warn("cannot open command record")
		return
	}
	zm.out.record = w
}

func (zm *ZMachine) recordClose() {
	if zm.out.record == nil {
		return
	}
	if err := zm.out.record.Close(); err != nil {
		zm.log.WithError(err).Warn("closing command record")
	}
	zm.out.record = nil
}

// recordLine writes one input line; terminators other than return are
// written as [code].
func (zm *ZMachine) recordLine(line string, terminator uint16) {
	if zm.out.record == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(line)
	if terminator != ZC_RETURN {
		fmt.Fprintf(&sb, "[%d]", terminator)
	}
	sb.WriteByte('\n')
	if _, err := io.WriteString(zm.out.record, sb.String()); err != nil {
		zm.log.WithError(err).Warn("command record write failed")
		zm.recordClose()
	}
}

func (zm *ZMachine) recordKey(key uint16) {
	if key >= 32 && key <= 126 {
		zm.recordLine(string(rune(key)), ZC_RETURN)
	} else {
		zm.recordLine("", key)
	}
}

// replayOpen switches input to a recorded command file, input stream 1.
func (zm *ZMachine) replayOpen() {
	if zm.out.replay != nil {
		return
	}
	r, err := zm.openFile(zm.opts.RecordName)
	if err != nil {
		zm.log.WithError(err).Warn("cannot open command file")
		return
	}
	zm.out.replay = bufio.NewReader(r)
	zm.out.replayCloser = r
}

func (zm *ZMachine) replayClose() {
	if zm.out.replay == nil {
		return
	}
	zm.out.replayCloser.Close()
	zm.out.replay, zm.out.replayCloser = nil, nil
}

// replayLine reads the next recorded line; ok is false once the file is
// exhausted, which also ends the replay.
func (zm *ZMachine) replayLine() (line string, terminator uint16, ok bool) {
	if zm.out.replay == nil {
		return "", 0, false
	}
	s, err := zm.out.replay.ReadString('\n')
	if err != nil && s == "" {
		zm.replayClose()
		return "", 0, false
	}
	s = strings.TrimRight(s, "\r\n")

	terminator = ZC_RETURN
	if i := strings.LastIndexByte(s, '['); i >= 0 && strings.HasSuffix(s, "]") {
		if n, err := strconv.Atoi(s[i+1 : len(s)-1]); err == nil {
			s, terminator = s[:i], uint16(n)
		}
	}
	return s, terminator, true
}

func (zm *ZMachine) replayKey() (uint16, bool) {
	line, terminator, ok := zm.replayLine()
	if !ok {
		return 0, false
	}
	if line == "" {
		return terminator, true
	}
	c, _ := zm.unicodeToZSCII([]rune(line)[0])
	return uint16(c), true
}

func (zm *ZMachine) closeStreams() {
	zm.flushBuffer()
	if zm.out.script != nil {
		if err := zm.out.script.Close(); err != nil {
			zm.log.WithError(err).Warn("closing transcript")
		}
		zm.out.script = nil
	}
	zm.recordClose()
	zm.replayClose()
}

func (zm *ZMachine) createFile(name string) (io.WriteCloser, error) {
	if zm.storage == nil {
		return nil, ErrNoStorage
	}
	return zm.storage.Create(name)
}

func (zm *ZMachine) openFile(name string) (io.ReadCloser, error) {
	if zm.storage == nil {
		return nil, ErrNoStorage
	}
	return zm.storage.Open(name)
}
