package zmachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draw(r *random, n, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = r.next(n)
	}
	return out
}

func TestRandomPredictable(t *testing.T) {
	var r random
	r.seed(3)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, draw(&r, 10, 7))

	r.seed(5)
	assert.Equal(t, []int{1, 2, 1, 2, 1, 1}, draw(&r, 2, 6))
}

func TestRandomSeeded(t *testing.T) {
	var a, b random
	a.seed(12345)
	b.seed(12345)
	got := draw(&a, 6, 50)
	assert.Equal(t, got, draw(&b, 6, 50))
	for _, v := range got {
		assert.True(t, v >= 1 && v <= 6, "%d out of range", v)
	}
}

func TestRandomOpcode(t *testing.T) {
	s := newTestStory(5)
	s.emit(0x10)
	tm := newTestMachine(t, s)
	roll := func(arg int16) uint16 {
		tm.SetPC(storyCode)
		ZRandom(tm.ZMachine, []uint16{uint16(arg)}, 1)
		return tm.ReadGlobal(0x10)
	}

	tm.SetGlobal(0x10, 99)
	assert.Zero(t, roll(-3), "reseeding stores 0")

	var got []uint16
	for i := 0; i < 4; i++ {
		got = append(got, roll(100))
	}
	assert.Equal(t, []uint16{1, 2, 3, 1}, got)
}
