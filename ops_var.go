package zmachine

// call_vs routine ...up to 3 args... -> (result)
// Also call_vs2 with up to 7 arguments.
func ZCall(zm *ZMachine, args []uint16, numArgs uint16) {
	if numArgs == 0 {
		zm.runtimeError(ErrIllegalCallAddress)
		return
	}
	zm.Call(args[0], args[1:numArgs], callFunction)
}

// call_vn routine ...up to 3 args...
// Also call_vn2 with up to 7 arguments.
func ZCallN(zm *ZMachine, args []uint16, numArgs uint16) {
	if numArgs == 0 {
		zm.runtimeError(ErrIllegalCallAddress)
		return
	}
	zm.Call(args[0], args[1:numArgs], callProcedure)
}

// storew array word-index value
func ZStoreW(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.storew(args[0]+args[1]*2, args[2])
}

// storeb array byte-index value
func ZStoreB(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.storeb(args[0]+args[1], uint8(args[2]))
}

// put_prop object property value
func ZPutProp(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrPutProp0)
		return
	}
	if !zm.SetObjectProperty(args[0], args[1], args[2]) {
		zm.runtimeError(ErrNoProperty)
	}
}

func ZPrintChar(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.printZSCII(uint8(args[0]))
}

func ZPrintNum(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.printNum(int16(args[0]))
}

func ZPush(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.stack.Push(args[0])
}

// pull (variable) before version 6, pull stack -> (result) in version 6
// where stack is an optional user stack.
func ZPull(zm *ZMachine, args []uint16, numArgs uint16) {
	var value uint16
	if zm.version == 6 && numArgs > 0 {
		size := zm.GetUint16(uint32(args[0])) + 1
		zm.storew(args[0], size)
		value = zm.GetUint16(uint32(args[0]) + 2*uint32(size))
	} else {
		value = zm.stack.Pop()
	}

	if zm.version == 6 {
		zm.StoreResult(value)
	} else {
		zm.pokeVariable(args[0], value)
	}
}

// output_stream number table width
func ZOutputStream(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	switch int16(args[0]) {
	case 1:
		zm.out.screen = true
	case -1:
		zm.out.screen = false
	case 2:
		zm.scriptOpen()
	case -2:
		zm.scriptClose()
	case 3:
		zm.memoryOpen(args[1])
	case -3:
		zm.memoryClose()
	case 4:
		zm.recordOpen()
	case -4:
		zm.recordClose()
	}
}

// input_stream number
func ZInputStream(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	switch args[0] {
	case 0:
		zm.replayClose()
	case 1:
		zm.replayOpen()
	}
}

// sound_effect number effect volume routine
// Effects 1-4 prepare, start, stop and finish with a sound; numbers 1 and
// 2 are bleeps.
func ZSoundEffect(zm *ZMachine, args []uint16, numArgs uint16) {
	number := uint16(HighPitchBleep)
	if numArgs > 0 {
		number = args[0]
	}
	player, ok := zm.screen.(SoundPlayer)
	if !ok {
		return
	}
	if number == HighPitchBleep || number == LowPitchBleep {
		player.Beep(int(number))
		return
	}

	var effect, volume uint16
	if numArgs > 1 {
		effect = args[1]
	}
	if numArgs > 2 {
		volume = args[2]
	}
	switch effect {
	case 1:
		player.PrepareSound(int(number))
	case 2:
		player.PlaySound(int(number), int(int8(volume&0xFF)), int(volume>>8))
	case 3:
		player.StopSound(int(number))
	case 4:
		player.FinishSound(int(number))
	}
}

// scan_table x table len form -> (result) ?(label)
// Form bit 7 selects words, bits 0-6 give the entry length.
func ZScanTable(zm *ZMachine, args []uint16, numArgs uint16) {
	form := uint16(0x82)
	if numArgs > 3 {
		form = args[3]
	}
	address := uint32(args[1])
	for i := uint16(0); i < args[2]; i++ {
		var found bool
		if form&0x80 != 0 {
			found = zm.GetUint16(address) == args[0]
		} else {
			found = uint16(zm.buf[address]) == args[0]
		}
		if found {
			zm.StoreResult(uint16(address))
			GenericBranch(zm, true)
			return
		}
		address += uint32(form & 0x7F)
	}
	zm.StoreResult(0)
	GenericBranch(zm, false)
}

// not value -> (result)
func ZNot(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(^args[0])
}

// tokenise text parse dictionary flag
func ZTokenise(zm *ZMachine, args []uint16, numArgs uint16) {
	var dict uint16
	var flag bool
	if numArgs > 2 {
		dict = args[2]
	}
	if numArgs > 3 {
		flag = args[3] != 0
	}
	zm.Tokenise(uint32(args[0]), uint32(args[1]), uint32(dict), flag)
}

// encode_text zscii-text length from coded-text
func ZEncodeText(zm *ZMachine, args []uint16, numArgs uint16) {
	start := uint32(args[0]) + uint32(args[2])
	text := zm.buf[start : start+uint32(args[1])]
	for i, w := range zm.EncodeText(text, zm.Resolution(), PAD_EXACT) {
		zm.storew(args[3]+2*uint16(i), w)
	}
}

// copy_table first second size
// A zero second table clears the first; a negative size forces a forward
// copy even when the tables overlap.
func ZCopyTable(zm *ZMachine, args []uint16, numArgs uint16) {
	first, second := args[0], args[1]
	size := int(int16(args[2]))

	switch {
	case second == 0:
		for i := 0; i < abs(size); i++ {
			zm.storeb(first+uint16(i), 0)
		}
	case size < 0 || first > second:
		for i := 0; i < abs(size); i++ {
			zm.storeb(second+uint16(i), zm.buf[first+uint16(i)])
		}
	default:
		for i := size - 1; i >= 0; i-- {
			zm.storeb(second+uint16(i), zm.buf[first+uint16(i)])
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// print_table zscii-text width height skip
func ZPrintTable(zm *ZMachine, args []uint16, numArgs uint16) {
	height, skip := uint16(1), uint16(0)
	if numArgs > 2 {
		height = args[2]
	}
	if numArgs > 3 {
		skip = args[3]
	}

	zm.flushBuffer()
	line, column := zm.screen.CursorPosition()
	address := uint32(args[0])
	for row := uint16(0); row < height; row++ {
		for i := uint16(0); i < args[1]; i++ {
			zm.printZSCII(zm.buf[address])
			address++
		}
		address += uint32(skip)

		if row+1 < height {
			zm.flushBuffer()
			if zm.win.current != 0 {
				zm.moveCursor(line+int(row)+1, column)
			} else {
				zm.newLine()
			}
		}
	}
}

// check_arg_count argument-number ?(label)
func ZCheckArgCount(zm *ZMachine, args []uint16, numArgs uint16) {
	h, _ := zm.stack.Frame()
	GenericBranch(zm, int(args[0]) <= h.ArgCount)
}
