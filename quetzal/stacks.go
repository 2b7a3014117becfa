package quetzal

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	frameLocalsMask = 0x0F
	frameDiscard    = 0x10
	frameHeaderSize = 8
)

// Frame is one Stks record. The dummy frame holding evaluation stack words
// pushed outside any routine has a zero ReturnPC and no locals.
type Frame struct {
	ReturnPC  uint32
	Discard   bool
	ResultVar uint8
	ArgMask   uint8
	Locals    []uint16
	Stack     []uint16
}

// ArgMask returns the Stks argument bitmap for argc supplied arguments.
func ArgMask(argc int) uint8 {
	if argc > 7 {
		argc = 7
	}
	return uint8(1<<uint(argc) - 1)
}

// ArgCount decodes the argument bitmap back into a count.
func (f Frame) ArgCount() int {
	n := 0
	for f.ArgMask&(1<<uint(n)) != 0 && n < 7 {
		n++
	}
	return n
}

// EncodeStacks serializes frames, outermost first, into a Stks payload.
func EncodeStacks(frames []Frame) ([]byte, error) {
	buf := new(bytes.Buffer)
	for i, f := range frames {
		if len(f.Locals) > 15 {
			return nil, fmt.Errorf("%w: frame %d has %d locals", ErrBadStacks, i, len(f.Locals))
		}
		if len(f.Stack) > 0xFFFF || f.ReturnPC > 0xFFFFFF {
			return nil, fmt.Errorf("%w: frame %d out of range", ErrBadStacks, i)
		}

		flags := byte(len(f.Locals))
		if f.Discard {
			flags |= frameDiscard
		}
		buf.Write([]byte{byte(f.ReturnPC >> 16), byte(f.ReturnPC >> 8), byte(f.ReturnPC)})
		buf.WriteByte(flags)
		buf.WriteByte(f.ResultVar)
		buf.WriteByte(f.ArgMask)
		writeWords(buf, uint16(len(f.Stack)))
		writeWords(buf, f.Locals...)
		writeWords(buf, f.Stack...)
	}
	return buf.Bytes(), nil
}

// DecodeStacks parses a Stks payload into frames, outermost first.
func DecodeStacks(data []byte) ([]Frame, error) {
	var frames []Frame
	for p := 0; p < len(data); {
		if len(data)-p < frameHeaderSize {
			return nil, fmt.Errorf("%w: truncated frame header at %d", ErrBadStacks, p)
		}
		f := Frame{
			ReturnPC:  uint32(data[p])<<16 | uint32(data[p+1])<<8 | uint32(data[p+2]),
			Discard:   data[p+3]&frameDiscard != 0,
			ResultVar: data[p+4],
			ArgMask:   data[p+5],
		}
		nlocals := int(data[p+3] & frameLocalsMask)
		nstack := int(binary.BigEndian.Uint16(data[p+6:]))
		p += frameHeaderSize

		if len(data)-p < 2*(nlocals+nstack) {
			return nil, fmt.Errorf("%w: truncated frame body at %d", ErrBadStacks, p)
		}
		f.Locals = readWords(data[p:], nlocals)
		p += 2 * nlocals
		f.Stack = readWords(data[p:], nstack)
		p += 2 * nstack

		frames = append(frames, f)
	}
	return frames, nil
}

func writeWords(buf *bytes.Buffer, words ...uint16) {
	for _, w := range words {
		buf.WriteByte(byte(w >> 8))
		buf.WriteByte(byte(w))
	}
}

func readWords(b []byte, n int) []uint16 {
	w := make([]uint16, n)
	for i := range w {
		w[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return w
}
