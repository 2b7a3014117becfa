package zmachine

// based on: http://msinilo.pl/blog2/post/p1252/

import (
	"context"
	"fmt"
	"io"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
	log "github.com/sirupsen/logrus"
)

// quitSentinel is large enough to unwind every nested interpreter loop.
const quitSentinel = 9999

// The context is polled every pollInterval instructions.
const pollInterval = 4096

type ZMachine struct {
	ip       uint32
	header   ZHeader
	version  StoryVersion
	buf      []uint8
	original []uint8
	stack    *ZStack

	opts    Options
	log     *log.Logger
	trace   bool
	screen  Screen
	input   Input
	storage Storage
	ctx     context.Context

	instructionPC uint32
	finished      int
	quit          bool
	interrupts    int
	steps         uint64
	errorCount    [numErrors]int

	resolution int
	quirk      *quirk
	rng        random
	undo       *doublylinkedlist.List
	out        output
	win        windows
}

// New prepares a machine for the story image. The image is copied; the
// screen defaults to a discarding WriterScreen, a nil input ends the
// session at the first read and a nil storage makes every file operation
// fail.
func New(story []byte, screen Screen, input Input, storage Storage, opts Options) (*ZMachine, error) {
	if len(story) < HEADER_SIZE {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortStory, len(story))
	}
	version := StoryVersion(story[H_VERSION])
	if !version.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if screen == nil {
		screen = NewWriterScreen(io.Discard, 80, 24)
	}

	zm := &ZMachine{
		version:  version,
		buf:      make([]uint8, len(story)),
		original: make([]uint8, len(story)),
		stack:    NewStack(),
		opts:     opts,
		log:      opts.logger(),
		screen:   screen,
		input:    input,
		storage:  storage,
		undo:     doublylinkedlist.New(),
	}
	copy(zm.buf, story)
	copy(zm.original, story)
	zm.header.Read(zm.buf)

	if zm.header.staticMemAddress < HEADER_SIZE || int(zm.header.staticMemAddress) > len(story) {
		return nil, fmt.Errorf("%w: dynamic memory ends at 0x%X", ErrBadHeader, zm.header.staticMemAddress)
	}
	if int(zm.header.globalVarAddress)+480 > len(story) || int(zm.header.objTableAddress) >= len(story) {
		return nil, fmt.Errorf("%w: tables outside the story", ErrBadHeader)
	}

	zm.quirk = lookupQuirk(zm.header.Release, zm.header.Serial)
	zm.out.init()
	zm.log.WithFields(log.Fields{
		"version": int(version),
		"release": zm.header.Release,
		"serial":  string(zm.header.Serial[:]),
	}).Info("story loaded")

	if err := zm.guard(func() error { zm.restart(); return nil }); err != nil {
		return nil, err
	}
	return zm, nil
}

// Load reads a story image from r and calls New.
func Load(r io.Reader, screen Screen, input Input, storage Storage, opts Options) (*ZMachine, error) {
	story, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(story, screen, input, storage, opts)
}

// Run interprets the story until it quits, the context is cancelled or a
// fatal error occurs. Open transcript and record files are closed on
// return.
func (zm *ZMachine) Run(ctx context.Context) error {
	zm.ctx = ctx
	zm.trace = zm.log.IsLevelEnabled(log.TraceLevel)
	defer zm.closeStreams()

	return zm.guard(func() error {
		zm.interpret()
		zm.flushBuffer()
		return nil
	})
}

// interpret runs instructions until a quit or the return of a direct call.
func (zm *ZMachine) interpret() {
	for zm.finished == 0 {
		zm.InterpretInstruction()
		zm.steps++
		if zm.steps%pollInterval == 0 {
			zm.checkContext()
		}
	}
	zm.finished--
}

func (zm *ZMachine) context() context.Context {
	if zm.ctx == nil {
		return context.Background()
	}
	return zm.ctx
}

func (zm *ZMachine) checkContext() {
	if err := zm.context().Err(); err != nil {
		panic(halt{err})
	}
}

func (zm *ZMachine) Version() StoryVersion {
	return zm.version
}

func (zm *ZMachine) Header() ZHeader {
	return zm.header
}

func (zm *ZMachine) PC() uint32 {
	return zm.ip
}

func (zm *ZMachine) SetPC(pc uint32) {
	zm.ip = pc
}

// Doesn't modify IP
func (zm *ZMachine) PeekByte() uint8 {
	return zm.buf[zm.ip]
}

// Reads & moves to the next one (advances IP)
func (zm *ZMachine) ReadByte() uint8 {
	zm.ip++
	return zm.buf[zm.ip-1]
}

// Reads 2 bytes and advances IP
func (zm *ZMachine) ReadUint16() uint16 {
	retVal := zm.GetUint16(zm.ip)
	zm.ip += 2
	return retVal
}

// We can only write to dynamic memory
func (zm *ZMachine) IsSafeToWrite(address uint32) bool {
	return address < zm.header.staticMemAddress
}

func (zm *ZMachine) GetUint16(offset uint32) uint16 {
	return (uint16(zm.buf[offset]) << 8) | (uint16)(zm.buf[offset+1])
}

// SetUint16 writes without the dynamic memory check.
func (zm *ZMachine) SetUint16(offset uint32, v uint16) {
	zm.buf[offset] = uint8(v >> 8)
	zm.buf[offset+1] = uint8(v & 0xFF)
}

// storeb is the story's byte write: it is limited to dynamic memory and
// watches the flags byte of the header.
func (zm *ZMachine) storeb(address uint16, value uint8) {
	if !zm.IsSafeToWrite(uint32(address)) {
		zm.runtimeError(ErrStoreRange)
		if int(address) >= len(zm.buf) {
			return
		}
	}
	zm.buf[address] = value
	if address == H_FLAGS+1 {
		zm.flagsChanged(value)
	}
}

func (zm *ZMachine) storew(address uint16, value uint16) {
	zm.storeb(address, uint8(value>>8))
	zm.storeb(address+1, uint8(value))
}

// flagsChanged follows the story's writes to the low flags byte: the
// transcript bit opens or closes output stream 2.
func (zm *ZMachine) flagsChanged(value uint8) {
	if value&SCRIPTING_FLAG != 0 {
		zm.scriptOpen()
	} else {
		zm.scriptClose()
	}
	zm.screen.SetFixedPitch(value&FIXED_FONT_FLAG != 0)
}

// restart reloads dynamic memory and starts the story from the beginning.
// The transcript and fixed pitch bits survive.
func (zm *ZMachine) restart() {
	zm.flushBuffer()

	static := zm.header.staticMemAddress
	kept := zm.buf[H_FLAGS+1] & (SCRIPTING_FLAG | FIXED_FONT_FLAG)
	copy(zm.buf[:static], zm.original[:static])
	zm.buf[H_FLAGS+1] = zm.buf[H_FLAGS+1]&^(SCRIPTING_FLAG|FIXED_FONT_FLAG) | kept

	zm.restartHeader()
	zm.rng.seed(zm.opts.RandomSeed)
	zm.stack.Reset()
	zm.resetWindows()

	if zm.version.HasTopLevelStack() {
		zm.ip = uint32(zm.header.ip)
	} else {
		zm.ip = 0
		zm.Call(zm.header.ip, nil, callProcedure)
	}
}

// restartHeader writes the interpreter's fields into the header and reloads
// the cached copy. It runs after loading, restarting and restoring.
func (zm *ZMachine) restartHeader() {
	v := zm.version
	_, sound := zm.screen.(SoundPlayer)
	_, pictures := zm.screen.(PictureProvider)

	config := zm.buf[H_CONFIG]
	flags := GetUint16(zm.buf, H_FLAGS)
	if v <= 3 {
		config &^= CONFIG_NOSTATUSLINE | CONFIG_PROPORTIONAL
		config |= CONFIG_SPLITSCREEN
	} else {
		config |= CONFIG_BOLDFACE | CONFIG_EMPHASIS | CONFIG_FIXED | CONFIG_TIMEDINPUT
		if v >= 5 {
			config |= CONFIG_COLOUR
		}
		if pictures && v == 6 {
			config |= CONFIG_PICTURES
		}
		if sound {
			config |= CONFIG_SOUND
		}
	}
	if v >= 5 {
		if zm.opts.UndoSlots <= 0 {
			flags &^= UNDO_FLAG
		}
		if !pictures {
			flags &^= GRAPHICS_FLAG
		}
		if !sound {
			flags &^= SOUND_FLAG
		}
		flags &^= MOUSE_FLAG | MENU_FLAG
	}
	zm.buf[H_CONFIG] = config
	zm.SetUint16(H_FLAGS, flags)

	columns, lines := zm.screenSize()
	if v >= 4 {
		zm.buf[H_INTERPRETER_NUMBER] = zm.opts.InterpreterNumber
		zm.buf[H_INTERPRETER_VERSION] = zm.opts.InterpreterVersion
		zm.buf[H_SCREEN_ROWS] = uint8(min(lines, 255))
		zm.buf[H_SCREEN_COLS] = uint8(min(columns, 255))
	}
	if v >= 5 {
		zm.SetUint16(H_SCREEN_WIDTH, uint16(columns))
		zm.SetUint16(H_SCREEN_HEIGHT, uint16(lines))
		zm.buf[H_FONT_HEIGHT] = 1
		zm.buf[H_FONT_WIDTH] = 1
		zm.buf[H_DEFAULT_BACKGROUND] = 9
		zm.buf[H_DEFAULT_FOREGROUND] = 2
	}
	zm.buf[H_STANDARD_HIGH] = 1
	zm.buf[H_STANDARD_LOW] = 1

	zm.header.Read(zm.buf)
	zm.resolution = 0
}

func (zm *ZMachine) ReadGlobal(x uint8) uint16 {
	if x < 0x10 {
		panic("Invalid global variable")
	}

	return zm.GetUint16(zm.header.globalVarAddress + 2*(uint32(x)-0x10))
}

func (zm *ZMachine) SetGlobal(x uint16, v uint16) {
	if x < 0x10 {
		panic("Invalid global variable")
	}

	zm.SetUint16(zm.header.globalVarAddress+2*(uint32(x&0xFF)-0x10), v)
}

// ReadVariable reads a variable operand: 0 pops the stack, 1-15 are the
// locals and 16-255 the globals.
func (zm *ZMachine) ReadVariable(varType uint8) uint16 {
	switch {
	case varType == 0:
		return zm.stack.Pop()
	case varType < 0x10:
		return zm.stack.GetLocalVar(int(varType - 1))
	}
	return zm.ReadGlobal(varType)
}

// peekVariable and pokeVariable access the stack top in place. They serve
// the opcodes that name a variable by number rather than take its value.
func (zm *ZMachine) peekVariable(varType uint16) uint16 {
	varType &= 0xFF
	switch {
	case varType == 0:
		return zm.stack.GetTopItem()
	case varType < 0x10:
		return zm.stack.GetLocalVar(int(varType - 1))
	}
	return zm.ReadGlobal(uint8(varType))
}

func (zm *ZMachine) pokeVariable(varType uint16, v uint16) {
	varType &= 0xFF
	switch {
	case varType == 0:
		zm.stack.SetTopItem(v)
	case varType < 0x10:
		zm.stack.SetLocalVar(int(varType-1), v)
	default:
		zm.SetGlobal(varType, v)
	}
}

// Returns new value.
func (zm *ZMachine) AddToVar(varType uint16, value int16) uint16 {
	retValue := zm.peekVariable(varType) + uint16(value)
	zm.pokeVariable(varType, retValue)
	return retValue
}

func (zm *ZMachine) GetOperand(operandType byte) uint16 {

	var retValue uint16

	switch operandType {
	case OPERAND_SMALL:
		retValue = uint16(zm.ReadByte())
	case OPERAND_VARIABLE:
		retValue = zm.ReadVariable(zm.ReadByte())
	case OPERAND_LARGE:
		retValue = zm.ReadUint16()
	case OPERAND_OMITTED:
		return 0
	default:
		panic("Unknown operand type")
	}

	return retValue
}

// GetOperands loads up to four operands described by a type byte into
// operandValues, stopping at the first omitted one.
func (zm *ZMachine) GetOperands(opTypesByte uint8, operandValues []uint16) uint16 {
	numOperands := uint16(0)

	for shift := 6; shift >= 0; shift -= 2 {
		opType := (opTypesByte >> uint(shift)) & 0x3
		if opType == OPERAND_OMITTED {
			break
		}

		operandValues[numOperands] = zm.GetOperand(opType)
		numOperands++
	}

	return numOperands
}

func (zm *ZMachine) StoreAtLocation(storeLocation uint16, v uint16) {
	// Same deal as read variable
	// 0 = top of the stack, 0x1-0xF = local var, 0x10 - 0xFF = global var
	storeLocation &= 0xFF

	if storeLocation == 0 {
		zm.stack.Push(v)
	} else if storeLocation < 0x10 {
		zm.stack.SetLocalVar((int)(storeLocation-1), v)
	} else {
		zm.SetGlobal(storeLocation, v)
	}
}

func (zm *ZMachine) StoreResult(v uint16) {
	storeLocation := zm.ReadByte()

	zm.StoreAtLocation(uint16(storeLocation), v)
}

func (zm *ZMachine) InterpretVARInstruction(opcode uint8) {
	// "In variable form, if bit 5 is 0 then the count is 2OP; if it is 1, then the count is VAR.
	// The opcode number is given in the bottom 5 bits.
	instruction := (opcode & 0x1F)
	twoOp := ((opcode >> 5) & 0x1) == 0

	// "In variable or extended forms, a byte of 4 operand types is given next.
	// This contains 4 2-bit fields: bits 6 and 7 are the first field, bits 0 and 1 the fourth."
	// call_vs2 and call_vn2 carry a second type byte for up to 8 operands.
	var opValues [8]uint16
	opTypesByte := zm.ReadByte()
	var numOperands uint16
	if opcode == 0xEC || opcode == 0xFA {
		opTypesByte2 := zm.ReadByte()
		numOperands = zm.GetOperands(opTypesByte, opValues[:4])
		numOperands += zm.GetOperands(opTypesByte2, opValues[numOperands:numOperands+4])
	} else {
		numOperands = zm.GetOperands(opTypesByte, opValues[:4])
	}

	if twoOp {
		zm.dispatch(ZFunctions_2OP[instruction], opValues[:], numOperands)
	} else {
		zm.dispatch(ZFunctions_VAR[instruction], opValues[:], numOperands)
	}
}

func (zm *ZMachine) InterpretShortInstruction(opcode uint8) {
	// "In short form, bits 4 and 5 of the opcode byte give an operand type.
	// If this is $11 then the operand count is 0OP; otherwise, 1OP. In either case the opcode number is given in the bottom 4 bits."
	opType := (opcode >> 4) & 0x3
	instruction := (opcode & 0x0F)

	if opType != OPERAND_OMITTED {
		opValue := zm.GetOperand(opType)

		op := ZFunctions_1OP[instruction]
		if op.Fn == nil {
			zm.runtimeError(ErrIllegalOpcode)
			return
		}
		if zm.trace {
			zm.traceOp(op.Name, []uint16{opValue})
		}
		op.Fn(zm, opValue)
	} else {
		op := ZFunctions_0P[instruction]
		if op.Fn == nil {
			zm.runtimeError(ErrIllegalOpcode)
			return
		}
		if zm.trace {
			zm.traceOp(op.Name, nil)
		}
		op.Fn(zm)
	}
}

func (zm *ZMachine) InterpretLongInstruction(opcode uint8) {
	// In long form the operand count is always 2OP. The opcode number is given in the bottom 5 bits.
	instruction := (opcode & 0x1F)

	// Operand types:
	// In long form, bit 6 of the opcode gives the type of the first operand, bit 5 of the second.
	// A value of 0 means a small constant and 1 means a variable.
	operandType0 := ((opcode & 0x40) >> 6) + 1
	operandType1 := ((opcode & 0x20) >> 5) + 1

	var opValues [8]uint16
	opValues[0] = zm.GetOperand(operandType0)
	opValues[1] = zm.GetOperand(operandType1)

	zm.dispatch(ZFunctions_2OP[instruction], opValues[:], 2)
}

// InterpretExtendedInstruction decodes the opcode following the 0xBE
// escape byte.
func (zm *ZMachine) InterpretExtendedInstruction() {
	opcode := zm.ReadByte()
	opTypesByte := zm.ReadByte()

	var opValues [8]uint16
	numOperands := zm.GetOperands(opTypesByte, opValues[:4])

	if int(opcode) >= len(ZFunctions_EXT) {
		zm.log.Debugf("unknown extended opcode 0x%X at 0x%X ignored", opcode, zm.instructionPC)
		return
	}
	zm.dispatch(ZFunctions_EXT[opcode], opValues[:], numOperands)
}

func (zm *ZMachine) dispatch(op ZOpcode, args []uint16, numArgs uint16) {
	if op.Fn == nil {
		zm.runtimeError(ErrIllegalOpcode)
		return
	}
	if zm.trace {
		zm.traceOp(op.Name, args[:numArgs])
	}
	op.Fn(zm, args, numArgs)
}

func (zm *ZMachine) traceOp(name string, args []uint16) {
	zm.log.Tracef("%05X: %-16s %v (frames %d)", zm.instructionPC, name, args, zm.stack.Depth())
}

func (zm *ZMachine) InterpretInstruction() {
	zm.instructionPC = zm.ip
	opcode := zm.ReadByte()

	// Form is stored in top 2 bits
	// "If the top two bits of the opcode are $$11 the form is variable; if $$10, the form is short.
	// If the opcode is 190 ($BE in hexadecimal) and the version is 5 or later, the form is "extended".
	// Otherwise, the form is "long"."
	form := (opcode >> 6) & 0x3

	if form == 0x2 {
		zm.InterpretShortInstruction(opcode)
	} else if form == 0x3 {
		zm.InterpretVARInstruction(opcode)
	} else {
		zm.InterpretLongInstruction(opcode)
	}
}

// verify sums the story bytes after the header, as read from the file.
func (zm *ZMachine) verify() bool {
	end := zm.header.StoryLength()
	if end > uint32(len(zm.original)) {
		end = uint32(len(zm.original))
	}
	var sum uint16
	for _, b := range zm.original[HEADER_SIZE:end] {
		sum += uint16(b)
	}
	return sum == zm.header.Checksum
}
