package zmachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interruptStory has a timer routine that increments global 0x11 and
// returns it. Starting the global at 0xFFFF makes it return 0, then 1.
func interruptStory() (*testStory, uint16) {
	s := newTestStory(5)
	putWord(s.mem, storyGlobals+2, 0xFFFF)
	s.emit(opQuit)
	r := s.routine()
	// inc g1; ret g1
	s.emit(0x95, 0x11)
	s.emit(0xAB, 0x11)
	return s, r
}

func TestTimedReadLineCallsRoutine(t *testing.T) {
	s, r := interruptStory()
	tm := newTestMachine(t, s)
	tm.input.timeouts = []string{"no", "rt"}
	tm.input.lines = []string{"unused"}
	tm.stack.Push(0x1234)
	tm.SetPC(storyCode + 0x20)
	before := tm.stackState()

	var line string
	var key uint16
	require.NoError(t, tm.guarded(func() { line, key = tm.readLine("", 20, 5, r) }))

	assert.Equal(t, uint16(ZC_TIME_OUT), key)
	assert.Equal(t, "nort", line)
	assert.Equal(t, []string{"", "no"}, tm.input.prefills, "reading resumes with the text typed so far")
	assert.Equal(t, []string{"unused"}, tm.input.lines)
	assert.Equal(t, uint16(1), tm.ReadGlobal(0x11))

	assert.Zero(t, tm.finished)
	assert.Zero(t, tm.interrupts)
	assert.Equal(t, before, tm.stackState())
	assert.Equal(t, uint32(storyCode+0x20), tm.PC())
	assert.Equal(t, uint16(0x1234), tm.stack.Pop())
}

func TestTimedReadLineContinues(t *testing.T) {
	s, r := interruptStory()
	tm := newTestMachine(t, s)
	tm.input.timeouts = []string{"nor"}
	tm.input.lines = []string{"north"}

	var line string
	var key uint16
	require.NoError(t, tm.guarded(func() { line, key = tm.readLine("", 20, 5, r) }))
	assert.Equal(t, uint16(ZC_RETURN), key)
	assert.Equal(t, "north", line)
	assert.Equal(t, uint16(0), tm.ReadGlobal(0x11), "routine ran once")
}

func TestTimeoutWithoutRoutine(t *testing.T) {
	tm := newTestMachine(t, newTestStory(5))
	tm.input.timeouts = []string{"x"}

	line, key := tm.readLine("", 20, 5, 0)
	assert.Equal(t, uint16(ZC_TIME_OUT), key)
	assert.Equal(t, "x", line)
}

func TestTimedReadKeyCallsRoutine(t *testing.T) {
	s, r := interruptStory()
	tm := newTestMachine(t, s)
	tm.input.timeouts = []string{"", ""}
	tm.input.keys = []uint16{'y'}
	before := tm.stackState()

	var key uint16
	require.NoError(t, tm.guarded(func() { key = tm.readKey(5, r) }))
	assert.Equal(t, uint16(ZC_TIME_OUT), key)
	assert.Equal(t, []uint16{'y'}, tm.input.keys)
	assert.Zero(t, tm.finished)
	assert.Equal(t, before, tm.stackState())
}

func TestDirectCallResult(t *testing.T) {
	s, r := interruptStory()
	tm := newTestMachine(t, s)
	tm.SetPC(storyCode + 0x10)

	var first, second uint16
	require.NoError(t, tm.guarded(func() {
		first = tm.directCall(r)
		second = tm.directCall(r)
	}))
	assert.Equal(t, uint16(0), first)
	assert.Equal(t, uint16(1), second)
	assert.Zero(t, tm.stack.Depth())
	assert.Equal(t, uint32(storyCode+0x10), tm.PC())
	assert.Zero(t, tm.directCall(0))
}
