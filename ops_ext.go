package zmachine

// save table bytes name -> (result)
// Without operands the whole game is saved; otherwise the table.
func ZSaveExt(zm *ZMachine, args []uint16, numArgs uint16) {
	if numArgs == 0 {
		zm.StoreResult(boolToUint16(zm.saveToFile()))
		return
	}
	var name uint16
	if numArgs > 2 {
		name = args[2]
	}
	zm.StoreResult(boolToUint16(zm.saveTable(args[0], args[1], name)))
}

// restore table bytes name -> (result)
func ZRestoreExt(zm *ZMachine, args []uint16, numArgs uint16) {
	if numArgs == 0 {
		zm.StoreResult(zm.restoreFromFile())
		return
	}
	var name uint16
	if numArgs > 2 {
		name = args[2]
	}
	zm.StoreResult(zm.restoreTable(args[0], args[1], name))
}

// log_shift number places -> (result)
func ZLogShift(zm *ZMachine, args []uint16, numArgs uint16) {
	places := int16(args[1])
	if places > 0 {
		zm.StoreResult(args[0] << uint(places))
	} else {
		zm.StoreResult(args[0] >> uint(-places))
	}
}

// art_shift number places -> (result)
func ZArtShift(zm *ZMachine, args []uint16, numArgs uint16) {
	places := int16(args[1])
	if places > 0 {
		zm.StoreResult(uint16(int16(args[0]) << uint(places)))
	} else {
		zm.StoreResult(uint16(int16(args[0]) >> uint(-places)))
	}
}

// draw_picture picture-number y x
func ZDrawPicture(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	if pp, ok := zm.screen.(PictureProvider); ok {
		pp.DrawPicture(int(args[0]), int(args[1]), int(args[2]))
	}
}

// picture_data picture-number array ?(label)
// Picture 0 asks for the number of pictures and the release of the file.
func ZPictureData(zm *ZMachine, args []uint16, numArgs uint16) {
	pp, ok := zm.screen.(PictureProvider)
	if !ok {
		GenericBranch(zm, false)
		return
	}
	pic, ok := pp.PictureData(int(args[0]))
	if ok {
		if args[0] == 0 {
			zm.storew(args[1], uint16(pic.Width))
			zm.storew(args[1]+2, uint16(pic.Height))
		} else {
			zm.storew(args[1], uint16(pic.Height))
			zm.storew(args[1]+2, uint16(pic.Width))
		}
	}
	GenericBranch(zm, ok)
}

// erase_picture picture-number y x
func ZErasePicture(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	if pp, ok := zm.screen.(PictureProvider); ok {
		pp.ErasePicture(int(args[0]), int(args[1]), int(args[2]))
	}
}

// picture_table table
func ZPictureTable(zm *ZMachine, args []uint16, numArgs uint16) {
}

// save_undo -> (result)
func ZSaveUndo(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(uint16(int16(zm.SaveUndo())))
}

// restore_undo -> (result)
func ZRestoreUndo(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(uint16(int16(zm.RestoreUndo())))
}

// print_unicode char-number
func ZPrintUnicode(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == ZC_RETURN {
		zm.newLine()
		return
	}
	if args[0] < 0x20 {
		return
	}
	zm.printChar(rune(args[0]))
}

// check_unicode char-number -> (result)
// Bit 0 is set when the character can be printed, bit 1 when it can be
// typed.
func ZCheckUnicode(zm *ZMachine, args []uint16, numArgs uint16) {
	c := rune(args[0])
	if c < 0x20 || (c >= 0x7F && c < 0xA0) || (c >= 0xD800 && c < 0xE000) {
		zm.StoreResult(0)
		return
	}
	result := uint16(1)
	if _, ok := zm.unicodeToZSCII(c); ok {
		result |= 2
	}
	zm.StoreResult(result)
}

// pop_stack items stack
func ZPopStack(zm *ZMachine, args []uint16, numArgs uint16) {
	if numArgs > 1 && args[1] != 0 {
		zm.storew(args[1], zm.GetUint16(uint32(args[1]))+args[0])
		return
	}
	for i := uint16(0); i < args[0]; i++ {
		zm.stack.Pop()
	}
}

// push_stack value stack ?(label)
// Branches if the user stack had room.
func ZPushStack(zm *ZMachine, args []uint16, numArgs uint16) {
	stack := args[1]
	size := zm.GetUint16(uint32(stack))
	if size == 0 {
		GenericBranch(zm, false)
		return
	}
	zm.storew(stack+2*size, args[0])
	zm.storew(stack, size-1)
	GenericBranch(zm, true)
}

// print_form formatted-table
// The table holds lines as a length word followed by the characters, up
// to a zero length.
func ZPrintForm(zm *ZMachine, args []uint16, numArgs uint16) {
	address := uint32(args[0])
	for {
		count := uint32(zm.GetUint16(address))
		if count == 0 {
			return
		}
		address += 2
		for i := uint32(0); i < count; i++ {
			zm.printZSCII(zm.buf[address+i])
		}
		address += count
		zm.newLine()
	}
}
