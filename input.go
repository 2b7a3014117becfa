package zmachine

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Timeouts of timed input are given in tenths of a second.
func tenths(t uint16) time.Duration {
	return time.Duration(t) * 100 * time.Millisecond
}

func (zm *ZMachine) readInput(read func() (string, uint16, error)) (string, uint16) {
	if zm.input == nil {
		panic(halt{ErrQuit})
	}
	zm.checkContext()
	line, key, err := read()
	if err != nil {
		panic(halt{err})
	}
	return line, key
}

// readLine reads a line of at most max characters. When the timeout
// expires the routine is called; a true result ends the input with
// terminator ZC_TIME_OUT, otherwise reading resumes.
func (zm *ZMachine) readLine(prefill string, max int, timeout uint16, routine uint16) (string, uint16) {
	zm.flushBuffer()

	if line, key, ok := zm.replayLine(); ok {
		zm.printString(line)
		zm.newLine()
		return truncateRunes(line, max), key
	}

	for {
		line, key := zm.readInput(func() (string, uint16, error) {
			return zm.input.ReadLine(zm.context(), prefill, max, tenths(timeout))
		})
		if key != ZC_TIME_OUT || timeout == 0 || routine == 0 {
			if key == ZC_TIME_OUT && timeout == 0 {
				key = ZC_RETURN
			}
			return truncateRunes(line, max), key
		}

		if zm.directCall(routine) != 0 || zm.quit {
			return truncateRunes(line, max), ZC_TIME_OUT
		}
		zm.flushBuffer()
		prefill = line
	}
}

func (zm *ZMachine) readKey(timeout uint16, routine uint16) uint16 {
	zm.flushBuffer()

	if key, ok := zm.replayKey(); ok {
		return key
	}

	for {
		_, key := zm.readInput(func() (string, uint16, error) {
			key, err := zm.input.ReadChar(zm.context(), tenths(timeout))
			return "", key, err
		})
		if key != ZC_TIME_OUT || timeout == 0 || routine == 0 {
			return key
		}
		if zm.directCall(routine) != 0 || zm.quit {
			return ZC_TIME_OUT
		}
		zm.flushBuffer()
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if max >= 0 && len(r) > max {
		return string(r[:max])
	}
	return s
}

// showStatus updates the status line of versions 1-3 from globals 0-2:
// the location object and either the score and moves or the time.
func (zm *ZMachine) showStatus() {
	sl, ok := zm.screen.(StatusLiner)
	if !ok || zm.version > 3 {
		return
	}
	zm.flushBuffer()

	var location string
	if obj := zm.ReadGlobal(0x10); obj != NULL_OBJECT_INDEX {
		location = zm.ObjectName(obj)
	}

	g1, g2 := int16(zm.ReadGlobal(0x11)), int16(zm.ReadGlobal(0x12))
	var right string
	if zm.version == 3 && zm.buf[H_CONFIG]&CONFIG_TIME != 0 {
		hours, minutes := int(g1), int(g2)
		ampm := "AM"
		if hours >= 12 {
			ampm = "PM"
		}
		hours = (hours+11)%12 + 1
		right = fmt.Sprintf("Time: %2d:%02d %s", hours, minutes, ampm)
	} else {
		right = fmt.Sprintf("Score: %d  Moves: %d", g1, g2)
	}
	sl.StatusLine(location, right)
}

// sread/aread text parse time routine -> (result)
func ZRead(zm *ZMachine, args []uint16, numArgs uint16) {
	text := uint32(args[0])
	var parse, timeout, routine uint16
	if numArgs > 1 {
		parse = args[1]
	}
	if numArgs > 3 {
		timeout, routine = args[2], args[3]
	}

	maxChars := int(zm.buf[text])
	if zm.version <= 4 {
		maxChars--
	}
	if maxChars >= INPUT_BUFFER_SIZE {
		maxChars = INPUT_BUFFER_SIZE - 1
	}
	if maxChars < 0 {
		maxChars = 0
	}

	if zm.version <= 3 {
		zm.showStatus()
	}

	var prefill []rune
	if zm.version >= 5 {
		n := uint32(zm.buf[text+1])
		for i := uint32(0); i < n && int(i) < maxChars; i++ {
			prefill = append(prefill, zm.zsciiToUnicode(zm.buf[text+2+i]))
		}
	}

	line, key := zm.readLine(string(prefill), maxChars, timeout, routine)
	if key == ZC_RETURN {
		line = lowerCaser.String(line)
	}

	zscii := make([]uint8, 0, maxChars)
	for _, r := range line {
		if len(zscii) >= maxChars {
			break
		}
		c, _ := zm.unicodeToZSCII(r)
		zscii = append(zscii, c)
	}

	if zm.version <= 4 {
		for i, c := range zscii {
			zm.storeb(uint16(text)+1+uint16(i), c)
		}
		zm.storeb(uint16(text)+1+uint16(len(zscii)), 0)
	} else {
		zm.storeb(uint16(text)+1, uint8(len(zscii)))
		for i, c := range zscii {
			zm.storeb(uint16(text)+2+uint16(i), c)
		}
	}

	if zm.out.script != nil {
		zm.scriptWrite(line + "\n")
	}
	zm.recordLine(line, key)

	if key != ZC_TIME_OUT && parse != 0 {
		zm.Tokenise(text, uint32(parse), 0, false)
	}
	if zm.version >= 5 {
		zm.StoreResult(key)
	}
}

// read_char 1 time routine -> (result)
func ZReadChar(zm *ZMachine, args []uint16, numArgs uint16) {
	var timeout, routine uint16
	if numArgs > 2 {
		timeout, routine = args[1], args[2]
	}
	key := zm.readKey(timeout, routine)
	zm.recordKey(key)
	zm.StoreResult(key)
}
