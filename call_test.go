package zmachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opcode bytes used by the hand-assembled routines.
const (
	opAddSmall   = 0x14 // add small small -> (result)
	opJeVarSmall = 0x41 // je variable small ?(label)
	opPrint      = 0xB2
	opNewLine    = 0xBB
	opQuit       = 0xBA
	opRetPopped  = 0xB8
	opPrintNum   = 0xE6
	opCallVS     = 0xE0
	opSread      = 0xE4
	opJump       = 0x8C
)

// callStory holds three routines: depth 1 with two locals, then depth 2
// and 3 without. storeVar is a store byte naming global 0x10.
type callStory struct {
	*testStory
	routines [3]uint16
	storeVar uint32
}

func newCallStory(version uint8) *callStory {
	s := &callStory{testStory: newTestStory(version)}
	s.storeVar = s.emit(0x10)
	s.routines[0] = s.routine(7, 9)
	s.emit(opQuit)
	s.routines[1] = s.routine()
	s.emit(opQuit)
	s.routines[2] = s.routine(1)
	s.emit(opQuit)
	return s
}

type stackState struct {
	top, localFrame, frames int
}

func (tm *testMachine) stackState() stackState {
	return stackState{tm.stack.top, tm.stack.localFrame, tm.stack.frameCount}
}

func TestCallReturnBalance(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		s := newCallStory(version)
		tm := newTestMachine(t, s.testStory)
		tm.stack.Push(0xAAAA)
		before := tm.stackState()

		tm.SetPC(s.storeVar)
		tm.Call(s.routines[0], []uint16{3}, callFunction)
		require.Equal(t, 1, tm.stack.Depth())
		assert.Equal(t, uint16(3), tm.stack.GetLocalVar(0))
		if version <= 4 {
			assert.Equal(t, uint16(9), tm.stack.GetLocalVar(1), "default local")
		} else {
			assert.Equal(t, uint16(0), tm.stack.GetLocalVar(1))
		}
		h, ok := tm.stack.Frame()
		require.True(t, ok)
		assert.Equal(t, 1, h.ArgCount)
		assert.Equal(t, 2, h.LocalCount)

		tm.stack.Push(1)
		tm.stack.Push(2)
		tm.Call(s.routines[1], nil, callProcedure)
		tm.stack.Push(3)
		tm.SetPC(s.storeVar)
		tm.Call(s.routines[2], []uint16{4, 5, 6}, callFunction)
		assert.Equal(t, 3, tm.stack.Depth())
		assert.Equal(t, uint16(4), tm.stack.GetLocalVar(0))

		tm.Ret(11)
		assert.Equal(t, uint16(11), tm.ReadGlobal(0x10))
		tm.Ret(12)
		assert.Equal(t, uint16(11), tm.ReadGlobal(0x10), "procedure result is dropped")
		assert.Equal(t, uint16(2), tm.stack.Pop())
		assert.Equal(t, uint16(1), tm.stack.Pop())
		tm.Ret(13)
		assert.Equal(t, uint16(13), tm.ReadGlobal(0x10))

		assert.Equal(t, before, tm.stackState())
		assert.Equal(t, uint16(0xAAAA), tm.stack.Pop())
	}
}

func TestCallRoutineZero(t *testing.T) {
	s := newCallStory(5)
	tm := newTestMachine(t, s.testStory)
	tm.SetGlobal(0x10, 99)

	tm.SetPC(s.storeVar)
	tm.Call(0, nil, callFunction)
	assert.Zero(t, tm.ReadGlobal(0x10))
	assert.Equal(t, s.storeVar+1, tm.PC())
	assert.Zero(t, tm.stack.Depth())
}

func TestCallNonRoutine(t *testing.T) {
	s := newCallStory(5)
	s.mem[storyCode+0x100] = 16
	tm := newTestMachine(t, s.testStory)
	tm.SetPC(s.storeVar)

	err := tm.guarded(func() { tm.Call(uint16((storyCode+0x100)/4), nil, callFunction) })
	assert.ErrorIs(t, err, ErrCallNonRoutine)
}

func TestThrowUnwinds(t *testing.T) {
	for _, raw := range []bool{false, true} {
		s := newCallStory(5)
		tm := newTestMachine(t, s.testStory, func(o *Options) { o.RawFrameTokens = raw })
		before := tm.stackState()

		tm.SetPC(s.storeVar)
		tm.Call(s.routines[0], nil, callFunction)
		token := tm.catchToken()
		if !raw {
			assert.Equal(t, uint16(1), token)
		}
		tm.stack.Push(5)
		tm.Call(s.routines[1], nil, callProcedure)
		tm.Call(s.routines[2], nil, callProcedure)
		tm.stack.Push(6)
		require.Equal(t, 3, tm.stack.Depth())

		require.NoError(t, tm.guarded(func() { tm.throw(42, token) }))
		assert.Equal(t, uint16(42), tm.ReadGlobal(0x10))
		assert.Equal(t, before, tm.stackState())
		assert.Equal(t, s.storeVar+1, tm.PC())
	}
}

func TestThrowToMissingFrame(t *testing.T) {
	s := newCallStory(5)
	tm := newTestMachine(t, s.testStory)
	tm.SetPC(s.storeVar)
	tm.Call(s.routines[0], nil, callFunction)

	err := tm.guarded(func() { tm.throw(1, 5) })
	assert.ErrorIs(t, err, ErrBadFrame)
}

func TestReturnWithoutFrame(t *testing.T) {
	tm := newTestMachine(t, newTestStory(5))
	err := tm.guarded(func() { tm.Ret(0) })
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestStackOverflow(t *testing.T) {
	s := newCallStory(5)
	tm := newTestMachine(t, s.testStory)
	err := tm.guarded(func() {
		for {
			tm.SetPC(s.storeVar)
			tm.Call(s.routines[0], nil, callFunction)
		}
	})
	assert.ErrorIs(t, err, ErrStackOverflow)
}

func TestRunProgram(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		s := newTestStory(version)
		s.emit(opAddSmall, 2, 3, 0x10)
		s.emit(opJeVarSmall, 0x10, 5)
		branch := s.emit(0xC0)
		s.emit(opPrint)
		s.emit(zstring("no")...)
		s.emit(opQuit)
		target := s.emit(opPrint)
		s.emit(zstring("ok")...)
		s.emit(opNewLine)
		// print_num g0
		s.emit(opPrintNum, 0xBF, 0x10)
		s.emit(opQuit)
		s.mem[branch] |= uint8(target - (branch + 1) + 2)

		tm := newTestMachine(t, s)
		require.NoError(t, tm.Run(context.Background()))
		assert.Equal(t, "ok\n5", tm.out.String())
		assert.Equal(t, uint16(5), tm.ReadGlobal(0x10))
	}
}

func TestRunNestedCall(t *testing.T) {
	s := newTestStory(5)
	// call_vs r 20 -> g0; print_num g0; quit
	call := s.emit(opCallVS, 0x1F, 0, 0, 20, 0x10)
	s.emit(opPrintNum, 0xBF, 0x10)
	s.emit(opQuit)
	// r: add l0 22 -> sp; ret_popped
	r := s.routine(0)
	s.emit(0x54, 0x01, 22, 0x00)
	s.emit(opRetPopped)
	putWord(s.mem, call+2, r)

	tm := newTestMachine(t, s)
	require.NoError(t, tm.Run(context.Background()))
	assert.Equal(t, "42", tm.out.String())
}

func TestRunIllegalOpcode(t *testing.T) {
	s := newTestStory(5)
	s.emit(0x00)
	tm := newTestMachine(t, s)

	err := tm.Run(context.Background())
	assert.ErrorIs(t, err, ErrIllegalOpcode)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, uint32(storyCode), rerr.PC)
}

func TestRunCancelled(t *testing.T) {
	s := newTestStory(5)
	// jump back to itself
	s.emit(opJump, 0xFF, 0xFF)
	tm := newTestMachine(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tm.Run(ctx), context.Canceled)
}

func TestRunReadLowercasesInput(t *testing.T) {
	s := newTestStory(3)
	// sread text parse
	s.emit(opSread, 0x0F, storyText>>8, storyText&0xFF, storyParse>>8, storyParse&0xFF)
	s.emit(opQuit)
	s.mem[storyText] = 20
	s.mem[storyParse] = 4
	tm := newTestMachine(t, s)
	tm.input.lines = []string{"INVENTORY"}

	require.NoError(t, tm.Run(context.Background()))
	assert.Equal(t, "inventory\x00", string(tm.buf[storyText+1:storyText+11]))
	tokens := tm.tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, token{uint16(s.entryAddress("inventory")), 9, 1}, tokens[0])
}

func TestRunEndsWhenInputQuits(t *testing.T) {
	s := newTestStory(5)
	s.mem[storyText] = 20
	// aread text 0 -> sp; jump back
	read := s.emit(opSread, 0x3F, storyText>>8, storyText&0xFF, 0x00)
	jump := s.emit(opJump, 0, 0)
	putWord(s.mem, jump+1, uint16(int16(int32(read)-int32(jump+3)+2)))
	tm := newTestMachine(t, s)
	tm.input.lines = []string{"north", "south"}

	require.NoError(t, tm.Run(context.Background()))
	assert.Empty(t, tm.input.lines)
	assert.Equal(t, "south", string(tm.buf[storyText+2:storyText+7]))
	// Each completed read pushed its terminator.
	assert.Equal(t, uint16(ZC_RETURN), tm.stack.Pop())
	assert.Equal(t, uint16(ZC_RETURN), tm.stack.Pop())
}
