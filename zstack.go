package zmachine

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type callType uint16

const (
	// Result is stored in the variable named by the byte at the return PC.
	callFunction callType = 0
	// Result is discarded.
	callProcedure callType = 1
	// Result is left on the stack for directCall; the return also ends
	// the nested Interpret loop.
	callDirect callType = 2
)

// Frame header words, relative to the frame pointer.
const (
	frameInfo = iota
	frameSavedFP
	framePCLow
	framePCHigh
	frameHeaderWords
)

// frameHeader is the decoded form of the four words pushed by a call.
// The info word packs argc in bits 0-7, the local count in bits 8-11 and
// the call type in bits 12-15.
type frameHeader struct {
	ArgCount   int
	LocalCount int
	Type       callType
	ReturnPC   uint32
	SavedFP    int
}

func (h frameHeader) info() uint16 {
	return uint16(h.ArgCount&0xFF) | uint16(h.LocalCount&0x0F)<<8 | uint16(h.Type)<<12
}

type ZStack struct {
	stack      []uint16
	top        int
	localFrame int
	frameCount int
}

func NewStack() *ZStack {
	s := new(ZStack)
	s.stack = make([]uint16, MAX_STACK)
	s.top = MAX_STACK
	s.localFrame = s.top

	return s
}

func (s *ZStack) Push(value uint16) {
	if s.top == 0 {
		panic(&RuntimeError{Code: ErrStackOverflow})
	}
	s.top--
	s.stack[s.top] = value
}

func (s *ZStack) Pop() uint16 {
	if s.top >= s.localFrame {
		panic(&RuntimeError{Code: ErrStackUnderflow})
	}
	retValue := s.stack[s.top]

	s.top++
	return retValue
}

func (s *ZStack) GetTopItem() uint16 {
	if s.top >= s.localFrame {
		panic(&RuntimeError{Code: ErrStackUnderflow})
	}
	return s.stack[s.top]
}

func (s *ZStack) SetTopItem(value uint16) {
	if s.top >= s.localFrame {
		panic(&RuntimeError{Code: ErrStackUnderflow})
	}
	s.stack[s.top] = value
}

// Room reports whether n more words fit on the stack.
func (s *ZStack) Room(n int) bool {
	return s.top >= n
}

// SaveFrame pushes a frame header and makes it the current frame.
func (s *ZStack) SaveFrame(h frameHeader) {
	if !s.Room(frameHeaderWords) {
		panic(&RuntimeError{Code: ErrStackOverflow})
	}
	h.SavedFP = s.localFrame
	s.Push(uint16(h.ReturnPC >> 16))
	s.Push(uint16(h.ReturnPC & 0xFFFF))
	s.Push(uint16(h.SavedFP))
	s.Push(h.info())
	s.localFrame = s.top
	s.frameCount++
}

// RestoreFrame discards the current frame and returns its header.
func (s *ZStack) RestoreFrame() frameHeader {
	// Popping past the frame pointer means the routine corrupted its frame.
	if s.top > s.localFrame || s.frameCount == 0 {
		panic(&RuntimeError{Code: ErrStackUnderflow})
	}

	h := s.frameAt(s.localFrame)
	s.top = s.localFrame + frameHeaderWords
	s.localFrame = h.SavedFP
	s.frameCount--

	return h
}

// Unwind drops frames until frameCount equals depth, leaving the frame
// at that depth current.
func (s *ZStack) Unwind(depth int) {
	for s.frameCount > depth {
		s.localFrame = s.frameAt(s.localFrame).SavedFP
		s.frameCount--
	}
}

func (s *ZStack) frameAt(fp int) frameHeader {
	info := s.stack[fp+frameInfo]
	return frameHeader{
		ArgCount:   int(info & 0xFF),
		LocalCount: int(info>>8) & 0x0F,
		Type:       callType(info >> 12),
		SavedFP:    int(s.stack[fp+frameSavedFP]),
		ReturnPC:   uint32(s.stack[fp+framePCHigh])<<16 | uint32(s.stack[fp+framePCLow]),
	}
}

// Frame returns the header of the current frame; ok is false at top level.
func (s *ZStack) Frame() (h frameHeader, ok bool) {
	if s.frameCount == 0 {
		return frameHeader{}, false
	}
	return s.frameAt(s.localFrame), true
}

// FramePointers lists the active frame pointers, innermost first.
func (s *ZStack) FramePointers() []int {
	fps := make([]int, 0, s.frameCount)
	fp := s.localFrame
	for i := 0; i < s.frameCount; i++ {
		fps = append(fps, fp)
		fp = s.frameAt(fp).SavedFP
	}
	return fps
}

func (s *ZStack) Depth() int {
	return s.frameCount
}

// Offset is the raw distance of the frame pointer from the stack base.
func (s *ZStack) Offset() int {
	return s.localFrame
}

// SetOffset makes the frame at raw offset fp current.
func (s *ZStack) SetOffset(fp int) bool {
	for _, p := range s.FramePointers() {
		if p == fp {
			for s.localFrame != fp {
				s.localFrame = s.frameAt(s.localFrame).SavedFP
				s.frameCount--
			}
			return true
		}
	}
	return false
}

func (s *ZStack) Reset() {
	s.top = MAX_STACK
	s.localFrame = s.top
	s.frameCount = 0
}

func (s *ZStack) ValidateLocalVarIndex(localVarIndex int) {
	if localVarIndex > 0xE || localVarIndex < 0 {
		panic(&RuntimeError{Code: ErrBadFrame, Err: fmt.Errorf("local var index %d out of bounds", localVarIndex+1)})
	}
	if s.frameCount == 0 {
		panic(&RuntimeError{Code: ErrStackUnderflow, Err: fmt.Errorf("local %d read outside a routine", localVarIndex+1)})
	}
}

func (s *ZStack) GetLocalVar(localVarIndex int) uint16 {
	s.ValidateLocalVarIndex(localVarIndex)
	stackIndex := (s.localFrame - localVarIndex) - 1
	r := s.stack[stackIndex]
	return r
}

func (s *ZStack) SetLocalVar(localVarIndex int, value uint16) {
	s.ValidateLocalVarIndex(localVarIndex)
	stackIndex := (s.localFrame - localVarIndex) - 1
	s.stack[stackIndex] = value
}

// Locals returns the locals of the frame at fp.
func (s *ZStack) Locals(fp int) []uint16 {
	h := s.frameAt(fp)
	locals := make([]uint16, h.LocalCount)
	for i := range locals {
		locals[i] = s.stack[fp-1-i]
	}
	return locals
}

// Words returns the stack words between hi (exclusive) and lo (inclusive),
// oldest first.
func (s *ZStack) Words(hi, lo int) []uint16 {
	words := make([]uint16, 0, hi-lo)
	for i := hi - 1; i >= lo; i-- {
		words = append(words, s.stack[i])
	}
	return words
}

func (s *ZStack) Dump() {
	log.Debugf("Top = %d, local frame = %d, frames = %d", s.top, s.localFrame, s.frameCount)

	for i := MAX_STACK - 1; i >= s.top; i-- {
		if i == s.localFrame {
			log.Debugf("0x%X: 0x%X <------ local frame", i, s.stack[i])
		} else {
			log.Debugf("0x%X: 0x%X", i, s.stack[i])
		}
	}
}
