package zmachine

// unpack turns a packed routine or string address into a byte address.
// offset is the header's routine or string offset for versions 6 and 7.
func (zm *ZMachine) unpack(packed uint16, offset uint16) uint32 {
	v := zm.version
	if v.Indirect() {
		at := uint32(packed) * 4
		if int(at)+4 > len(zm.buf) {
			return uint32(len(zm.buf))
		}
		return GetUint32(zm.buf, at)
	}
	address := uint32(packed) * v.PackingMultiplier()
	if v.HasPackingOffset() {
		address += uint32(offset) * 8
	}
	return address
}

func (zm *ZMachine) routineAddress(packed uint16) uint32 {
	return zm.unpack(packed, zm.header.functionsOffset)
}

func (zm *ZMachine) stringAddress(packed uint16) uint32 {
	return zm.unpack(packed, zm.header.stringsOffset)
}

// Call enters the routine at the packed address with the given arguments.
// The program counter must point just past the operands, at the store
// byte for function calls.
//
// "When a routine is called, its local variables are created with initial values taken from the routine header.
// Next, the arguments are written into the local variables (argument 1 into local 1 and so on)."
func (zm *ZMachine) Call(routine uint16, args []uint16, ct callType) {
	returnPC := zm.ip

	if routine == 0 {
		switch ct {
		case callFunction:
			zm.StoreResult(0)
		case callDirect:
			zm.stack.Push(0)
		}
		return
	}

	pc := zm.routineAddress(routine)
	if pc >= uint32(len(zm.buf)) {
		zm.fatal(ErrIllegalCallAddress, nil)
	}

	numLocals := int(zm.buf[pc])
	if numLocals > 15 {
		zm.fatal(ErrCallNonRoutine, nil)
	}
	if !zm.stack.Room(frameHeaderWords + numLocals) {
		zm.fatal(ErrStackOverflow, nil)
	}

	zm.stack.SaveFrame(frameHeader{
		ArgCount:   len(args),
		LocalCount: numLocals,
		Type:       ct,
		ReturnPC:   returnPC,
	})
	zm.ip = pc + 1

	for i := 0; i < numLocals; i++ {
		var value uint16
		if zm.version.HasDefaultLocals() {
			value = zm.ReadUint16()
		}
		if i < len(args) {
			value = args[i]
		}
		zm.stack.Push(value)
	}

	if zm.trace {
		zm.log.Tracef("call 0x%X with %v, %d locals", pc, args, numLocals)
	}

	if ct == callDirect {
		zm.interpret()
	}
}

// Ret leaves the current routine and delivers value the way the call
// asked for it.
func (zm *ZMachine) Ret(value uint16) {
	if _, ok := zm.stack.Frame(); !ok {
		zm.fatal(ErrStackUnderflow, nil)
	}
	h := zm.stack.RestoreFrame()
	zm.ip = h.ReturnPC

	switch h.Type {
	case callFunction:
		zm.StoreResult(value)
	case callDirect:
		zm.stack.Push(value)
		zm.finished++
	}
}

// directCall runs a routine to completion from inside an opcode, for
// timed input and sound callbacks, and returns its result.
func (zm *ZMachine) directCall(routine uint16) uint16 {
	if routine == 0 {
		return 0
	}
	savedPC := zm.ip
	zm.interrupts++
	zm.Call(routine, nil, callDirect)
	zm.interrupts--
	zm.ip = savedPC

	if zm.quit {
		return 0
	}
	return zm.stack.Pop()
}

// catchToken identifies the current frame for a later throw. By default
// it is the frame count, which survives a save.
func (zm *ZMachine) catchToken() uint16 {
	if zm.opts.RawFrameTokens {
		return uint16(zm.stack.Offset())
	}
	return uint16(zm.stack.Depth())
}

// throw returns value from the routine whose frame token was taken by catch.
func (zm *ZMachine) throw(value uint16, token uint16) {
	if zm.opts.RawFrameTokens {
		if !zm.stack.SetOffset(int(token)) {
			zm.fatal(ErrBadFrame, nil)
		}
	} else {
		if token == 0 || int(token) > zm.stack.Depth() {
			zm.fatal(ErrBadFrame, nil)
		}
		zm.stack.Unwind(int(token))
	}
	zm.Ret(value)
}

// "Otherwise, a branch moves execution to the instruction at address
// Address after branch data + Offset - 2."
func GenericBranch(zm *ZMachine, conditionSatisfied bool) {
	branchInfo := zm.ReadByte()

	// "If bit 7 of the first byte is 0, a branch occurs when the condition was false; if 1, then branch is on true"
	branchOnFalse := (branchInfo >> 7) == 0

	var branchOffset int32
	// "If bit 6 is set, then the branch occupies 1 byte only, and the "offset" is in the range 0 to 63, given in the bottom 6 bits"
	if (branchInfo & (1 << 6)) != 0 {
		branchOffset = int32(branchInfo & 0x3F)
	} else {
		// If bit 6 is clear, then the offset is a signed 14-bit number given in bits 0 to 5 of the first
		// byte followed by all 8 of the second.
		secondPart := zm.ReadByte()
		firstPart := uint16(branchInfo & 0x3F)
		// Propagate sign bit (2 complement)
		if (firstPart & 0x20) != 0 {
			firstPart |= (1 << 6) | (1 << 7)
		}
		branchOffset = int32(int16(firstPart<<8) | int16(secondPart))
	}

	if conditionSatisfied == branchOnFalse {
		return
	}

	// "An offset of 0 means "return false from the current routine", and 1 means "return true from the current routine".
	if branchOffset == 0 || branchOffset == 1 {
		zm.Ret(uint16(branchOffset))
		return
	}
	zm.jumpBy(branchOffset)
}

func (zm *ZMachine) jumpBy(offset int32) {
	jumpAddress := int64(zm.ip) + int64(offset) - 2
	if jumpAddress < 0 || jumpAddress >= int64(len(zm.buf)) {
		zm.fatal(ErrIllegalJumpAddress, nil)
	}
	zm.ip = uint32(jumpAddress)
}
