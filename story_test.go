package zmachine

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// Layout of the stories built by the tests.
const (
	storyObjects    = 0x100
	storyProperties = 0x300
	storyGlobals    = 0x400
	storyText       = 0x600
	storyParse      = 0x680
	storyTable      = 0x700
	storyStatic     = 0x800
	storyDict       = 0x800
	storyCode       = 0xA00
	storySize       = 0x1000
)

var storyWords = []string{"get", "go", "inventory", "lamp", "look", "north", "take"}

type testStory struct {
	version uint8
	mem     []byte
	props   uint32
	code    uint32
}

func putWord(m []byte, at uint32, v uint16) {
	m[at] = uint8(v >> 8)
	m[at+1] = uint8(v)
}

func newTestStory(version uint8) *testStory {
	s := &testStory{
		version: version,
		mem:     make([]byte, storySize),
		props:   storyProperties,
		code:    storyCode,
	}
	m := s.mem
	m[H_VERSION] = version
	putWord(m, H_RELEASE, 88)
	putWord(m, H_RESIDENT_SIZE, storyCode)
	putWord(m, H_START_PC, storyCode)
	putWord(m, H_DICTIONARY, storyDict)
	putWord(m, H_OBJECTS, storyObjects)
	putWord(m, H_GLOBALS, storyGlobals)
	putWord(m, H_DYNAMIC_SIZE, storyStatic)
	copy(m[H_SERIAL:], "840726")
	putWord(m, H_FILE_SIZE, uint16(storySize/StoryVersion(version).FileLengthScale()))

	s.dictionary(storyDict, []uint8{'.', ',', '"'}, storyWords...)
	return s
}

// encodeLower packs lowercase letters and spaces into Z-characters
// without going through the machine.
func encodeLower(s string, words int) []uint16 {
	var zchars []uint16
	for _, c := range []byte(s) {
		if c == ' ' {
			zchars = append(zchars, 0)
		} else {
			zchars = append(zchars, uint16(c-'a'+6))
		}
	}
	if words == 0 {
		words = (len(zchars) + 2) / 3
	}
	for len(zchars) < 3*words {
		zchars = append(zchars, PAD_EXACT)
	}
	out := make([]uint16, words)
	for i := range out {
		out[i] = zchars[3*i]<<10 | zchars[3*i+1]<<5 | zchars[3*i+2]
	}
	out[words-1] |= 0x8000
	return out
}

// zstring is the encoded form of s as a byte sequence.
func zstring(s string) []byte {
	var b []byte
	for _, w := range encodeLower(s, 0) {
		b = append(b, uint8(w>>8), uint8(w))
	}
	return b
}

func (s *testStory) resolution() int {
	return StoryVersion(s.version).Resolution()
}

// dictionary writes a sorted dictionary of lowercase words at address.
func (s *testStory) dictionary(address uint32, separators []uint8, words ...string) {
	words = append([]string(nil), words...)
	sort.Strings(words)

	res := s.resolution()
	entryLength := 2*res + 3
	m := s.mem
	m[address] = uint8(len(separators))
	copy(m[address+1:], separators)
	at := address + 1 + uint32(len(separators))
	m[at] = uint8(entryLength)
	putWord(m, at+1, uint16(len(words)))
	at += 3
	for _, w := range words {
		if len(w) > 3*res {
			w = w[:3*res]
		}
		for i, code := range encodeLower(w, res) {
			putWord(m, at+2*uint32(i), code)
		}
		at += uint32(entryLength)
	}
}

// entryAddress is where word sits in the story dictionary.
func (s *testStory) entryAddress(word string) uint32 {
	i := sort.SearchStrings(storyWords, word)
	entries := uint32(storyDict + 1 + 3 + 3)
	return entries + uint32(i)*uint32(2*s.resolution()+3)
}

type testProp struct {
	number uint8
	data   []byte
}

func (s *testStory) objectAddress(n uint16) uint32 {
	v := StoryVersion(s.version)
	return storyObjects + 2*v.PropertyDefaults() + uint32(n-1)*v.ObjectEntrySize()
}

// object writes object n with its links, name and properties. Properties
// must be given in descending order.
func (s *testStory) object(n, parent, sibling, child uint16, name string, props ...testProp) {
	v := StoryVersion(s.version)
	m := s.mem
	entry := s.objectAddress(n) + v.AttributeBytes()
	if v.ObjectFieldWidth() == 1 {
		m[entry], m[entry+1], m[entry+2] = uint8(parent), uint8(sibling), uint8(child)
		entry += 3
	} else {
		putWord(m, entry, parent)
		putWord(m, entry+2, sibling)
		putWord(m, entry+4, child)
		entry += 6
	}
	putWord(m, entry, uint16(s.props))

	at := s.props
	if name == "" {
		m[at] = 0
		at++
	} else {
		encoded := zstring(name)
		m[at] = uint8(len(encoded) / 2)
		copy(m[at+1:], encoded)
		at += 1 + uint32(len(encoded))
	}
	for _, p := range props {
		switch {
		case s.version <= 3:
			m[at] = uint8(32*(len(p.data)-1)) | p.number
			at++
		case len(p.data) <= 2:
			m[at] = p.number
			if len(p.data) == 2 {
				m[at] |= 0x40
			}
			at++
		default:
			m[at] = 0x80 | p.number
			m[at+1] = 0x80 | uint8(len(p.data))
			at += 2
		}
		copy(m[at:], p.data)
		at += uint32(len(p.data))
	}
	m[at] = 0
	s.props = at + 1
}

// propertyDefault sets entry n of the property defaults table.
func (s *testStory) propertyDefault(n int, value uint16) {
	putWord(s.mem, storyObjects+2*uint32(n-1), value)
}

// emit appends code at the code cursor and returns its address.
func (s *testStory) emit(b ...byte) uint32 {
	at := s.code
	copy(s.mem[at:], b)
	s.code += uint32(len(b))
	return at
}

// routine starts a routine with the given local defaults at the next
// packed address and returns the packed address.
func (s *testStory) routine(locals ...uint16) uint16 {
	scale := StoryVersion(s.version).PackingMultiplier()
	for s.code%scale != 0 {
		s.code++
	}
	packed := uint16(s.code / scale)
	s.emit(uint8(len(locals)))
	if StoryVersion(s.version).HasDefaultLocals() {
		for _, l := range locals {
			s.emit(uint8(l>>8), uint8(l))
		}
	}
	return packed
}

func (s *testStory) build() []byte {
	var sum uint16
	for _, b := range s.mem[HEADER_SIZE:] {
		sum += uint16(b)
	}
	putWord(s.mem, H_CHECKSUM, sum)
	return append([]byte(nil), s.mem...)
}

// memStorage keeps files in memory.
type memStorage struct {
	files map[string][]byte
}

type memFile struct {
	bytes.Buffer
	name    string
	storage *memStorage
}

func (f *memFile) Close() error {
	f.storage.files[f.name] = f.Bytes()
	return nil
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Create(name string) (io.WriteCloser, error) {
	return &memFile{name: name, storage: s}, nil
}

func (s *memStorage) Open(name string) (io.ReadCloser, error) {
	b, ok := s.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// scriptedInput replays fixed lines and keys, then quits. Each entry of
// timeouts is the text typed before a read times out.
type scriptedInput struct {
	lines    []string
	keys     []uint16
	names    []string
	timeouts []string
	prefills []string
}

func (in *scriptedInput) timedOut(timeout time.Duration) (string, bool) {
	if timeout == 0 || len(in.timeouts) == 0 {
		return "", false
	}
	typed := in.timeouts[0]
	in.timeouts = in.timeouts[1:]
	return typed, true
}

func (in *scriptedInput) ReadLine(ctx context.Context, prefill string, max int, timeout time.Duration) (string, uint16, error) {
	in.prefills = append(in.prefills, prefill)
	if typed, ok := in.timedOut(timeout); ok {
		return prefill + typed, ZC_TIME_OUT, nil
	}
	if len(in.lines) == 0 {
		return "", 0, ErrQuit
	}
	line := in.lines[0]
	in.lines = in.lines[1:]
	return line, ZC_RETURN, nil
}

func (in *scriptedInput) ReadChar(ctx context.Context, timeout time.Duration) (uint16, error) {
	if _, ok := in.timedOut(timeout); ok {
		return ZC_TIME_OUT, nil
	}
	if len(in.keys) == 0 {
		return 0, ErrQuit
	}
	key := in.keys[0]
	in.keys = in.keys[1:]
	return key, nil
}

func (in *scriptedInput) ReadFilename(ctx context.Context, prompt, def string) (string, error) {
	if len(in.names) == 0 {
		return def, nil
	}
	name := in.names[0]
	in.names = in.names[1:]
	return name, nil
}

type testMachine struct {
	*ZMachine
	out     *bytes.Buffer
	input   *scriptedInput
	storage *memStorage
	hook    *logtest.Hook
}

func newTestMachine(t *testing.T, s *testStory, configure ...func(*Options)) *testMachine {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	opts := DefaultOptions()
	opts.Logger = logger
	opts.RandomSeed = 1234
	for _, c := range configure {
		c(&opts)
	}

	tm := &testMachine{
		out:     new(bytes.Buffer),
		input:   new(scriptedInput),
		storage: newMemStorage(),
		hook:    hook,
	}
	zm, err := New(s.build(), NewWriterScreen(tm.out, 80, 24), tm.input, tm.storage, opts)
	require.NoError(t, err)
	tm.ZMachine = zm
	return tm
}

// output flushes the word buffer and returns what reached the screen.
func (tm *testMachine) output() string {
	tm.flushBuffer()
	return tm.out.String()
}

// guarded runs fn the way Run does and returns the resulting error.
func (tm *testMachine) guarded(fn func()) error {
	return tm.guard(func() error {
		fn()
		return nil
	})
}
