package zmachine

func boolToUint16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// je a b c d ?(label)
// Jump if a is equal to any of the subsequent operands.
func ZJumpEqual(zm *ZMachine, args []uint16, numArgs uint16) {
	conditionSatisfied := (numArgs > 1 && args[0] == args[1]) ||
		(numArgs > 2 && args[0] == args[2]) || (numArgs > 3 && args[0] == args[3])
	GenericBranch(zm, conditionSatisfied)
}

func ZJumpLess(zm *ZMachine, args []uint16, numArgs uint16) {
	conditionSatisfied := int16(args[0]) < int16(args[1])
	GenericBranch(zm, conditionSatisfied)
}

func ZJumpGreater(zm *ZMachine, args []uint16, numArgs uint16) {
	conditionSatisfied := int16(args[0]) > int16(args[1])
	GenericBranch(zm, conditionSatisfied)
}

// dec_chk (variable) value ?(label)
// Decrement variable, and branch if it is now less than the given value.
func ZDecChk(zm *ZMachine, args []uint16, numArgs uint16) {
	newValue := zm.AddToVar(args[0], -1)
	GenericBranch(zm, int16(newValue) < int16(args[1]))
}

// inc_chk (variable) value ?(label)
// Increment variable, and branch if now greater than value.
func ZIncChk(zm *ZMachine, args []uint16, numArgs uint16) {
	newValue := zm.AddToVar(args[0], 1)
	GenericBranch(zm, int16(newValue) > int16(args[1]))
}

// jin obj1 obj2 ?(label)
// Jump if object a is a direct child of b, i.e., if parent of a is b.
func ZJin(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrJin0)
		GenericBranch(zm, args[1] == NULL_OBJECT_INDEX)
		return
	}
	GenericBranch(zm, zm.IsDirectParent(args[0], args[1]))
}

// test bitmap flags ?(label)
// Jump if all of the flags in bitmap are set (i.e. if bitmap & flags == flags).
func ZTest(zm *ZMachine, args []uint16, numArgs uint16) {
	bitmap := args[0]
	flags := args[1]
	GenericBranch(zm, (bitmap&flags) == flags)
}

func ZOr(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(args[0] | args[1])
}

func ZAnd(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(args[0] & args[1])
}

func ZTestAttr(zm *ZMachine, args []uint16, numArgs uint16) {
	if !zm.attributeInRange(args[1]) {
		GenericBranch(zm, false)
		return
	}
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrTestAttr0)
		GenericBranch(zm, false)
		return
	}
	GenericBranch(zm, zm.TestObjectAttr(args[0], args[1]))
}

func ZSetAttr(zm *ZMachine, args []uint16, numArgs uint16) {
	if !zm.attributeInRange(args[1]) {
		return
	}
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrSetAttr0)
		return
	}
	zm.SetObjectAttr(args[0], args[1])
}

func ZClearAttr(zm *ZMachine, args []uint16, numArgs uint16) {
	if !zm.attributeInRange(args[1]) {
		return
	}
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrClearAttr0)
		return
	}
	zm.ClearObjectAttr(args[0], args[1])
}

// store (variable) value
func ZStore(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.pokeVariable(args[0], args[1])
}

// insert_obj object destination
// Moves object to be the first child of destination.
func ZInsertObj(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrMoveObject0)
		return
	}
	if args[1] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrMoveObjectTo0)
		return
	}
	zm.InsertObject(args[0], args[1])
}

// loadw array word-index -> (result)
func ZLoadW(zm *ZMachine, args []uint16, numArgs uint16) {
	address := uint32(args[0] + args[1]*2)
	zm.StoreResult(zm.GetUint16(address))
}

// loadb array byte-index -> (result)
func ZLoadB(zm *ZMachine, args []uint16, numArgs uint16) {
	address := uint32(args[0] + args[1])
	zm.StoreResult(uint16(zm.buf[address]))
}

func ZGetProp(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetProp0)
		zm.StoreResult(0)
		return
	}
	zm.StoreResult(zm.GetObjectProperty(args[0], args[1]))
}

func ZGetPropAddr(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetPropAddr0)
		zm.StoreResult(0)
		return
	}
	zm.StoreResult(uint16(zm.GetObjectPropertyAddress(args[0], args[1])))
}

func ZGetNextProp(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[0] == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetNextProp0)
		zm.StoreResult(0)
		return
	}
	next, ok := zm.GetNextObjectProperty(args[0], args[1])
	if !ok {
		zm.runtimeError(ErrNoProperty)
	}
	zm.StoreResult(next)
}

func ZAdd(zm *ZMachine, args []uint16, numArgs uint16) {
	r := int16(args[0]) + int16(args[1])
	zm.StoreResult(uint16(r))
}

func ZSub(zm *ZMachine, args []uint16, numArgs uint16) {
	r := int16(args[0]) - int16(args[1])
	zm.StoreResult(uint16(r))
}

func ZMul(zm *ZMachine, args []uint16, numArgs uint16) {
	r := int16(args[0]) * int16(args[1])
	zm.StoreResult(uint16(r))
}

func ZDiv(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[1] == 0 {
		zm.runtimeError(ErrDivisionByZero)
		zm.StoreResult(0)
		return
	}

	r := int16(args[0]) / int16(args[1])
	zm.StoreResult(uint16(r))
}

func ZMod(zm *ZMachine, args []uint16, numArgs uint16) {
	if args[1] == 0 {
		zm.runtimeError(ErrDivisionByZero)
		zm.StoreResult(0)
		return
	}

	r := int16(args[0]) % int16(args[1])
	zm.StoreResult(uint16(r))
}

// call_2s routine arg1 -> (result)
func ZCall2S(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.Call(args[0], args[1:numArgs], callFunction)
}

// call_2n routine arg1
func ZCall2N(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.Call(args[0], args[1:numArgs], callProcedure)
}

// throw value stack-frame
func ZThrow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.throw(args[0], args[1])
}

func ZJumpZero(zm *ZMachine, arg uint16) {
	GenericBranch(zm, arg == 0)
}

// get_sibling object -> (result) ?(label)
// Get next object in tree, branching if this exists, i.e. is not 0.
func ZGetSibling(zm *ZMachine, arg uint16) {
	if arg == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetSibling0)
		zm.StoreResult(0)
		GenericBranch(zm, false)
		return
	}
	sibling := zm.GetSibling(arg)
	zm.StoreResult(sibling)
	GenericBranch(zm, sibling != NULL_OBJECT_INDEX)
}

// get_child object -> (result) ?(label)
// Get first object contained in given object, branching if this exists, i.e. is not nothing (i.e., is not 0).
func ZGetChild(zm *ZMachine, arg uint16) {
	if arg == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetChild0)
		zm.StoreResult(0)
		GenericBranch(zm, false)
		return
	}
	childIndex := zm.GetFirstChild(arg)
	zm.StoreResult(childIndex)
	GenericBranch(zm, childIndex != NULL_OBJECT_INDEX)
}

func ZGetParent(zm *ZMachine, arg uint16) {
	if arg == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrGetParent0)
		zm.StoreResult(0)
		return
	}
	zm.StoreResult(zm.GetParentObject(arg))
}

// get_prop_len property-address -> (result)
func ZGetPropLen(zm *ZMachine, arg uint16) {
	zm.StoreResult(zm.PropertyLength(uint32(arg)))
}

func ZInc(zm *ZMachine, arg uint16) {
	zm.AddToVar(arg, 1)
}

func ZDec(zm *ZMachine, arg uint16) {
	zm.AddToVar(arg, -1)
}

func ZPrintAddr(zm *ZMachine, arg uint16) {
	zm.DecodeZString(uint32(arg), zm.printChar)
}

// call_1s routine -> (result)
func ZCall1S(zm *ZMachine, arg uint16) {
	zm.Call(arg, nil, callFunction)
}

func ZRemoveObj(zm *ZMachine, arg uint16) {
	if arg == NULL_OBJECT_INDEX {
		zm.runtimeError(ErrRemoveObject0)
		return
	}
	zm.UnlinkObject(arg)
}

func ZPrintObj(zm *ZMachine, arg uint16) {
	zm.PrintObjectName(arg)
}

func ZRet(zm *ZMachine, arg uint16) {
	zm.Ret(arg)
}

// Unconditional jump
func ZJump(zm *ZMachine, arg uint16) {
	zm.jumpBy(int32(int16(arg)))
}

// print_paddr packed-address-of-string
func ZPrintPAddr(zm *ZMachine, arg uint16) {
	zm.DecodeZString(zm.stringAddress(arg), zm.printChar)
}

// load (variable) -> (result)
func ZLoad(zm *ZMachine, arg uint16) {
	zm.StoreResult(zm.peekVariable(arg))
}

// not value -> (result) before version 5, call_1n routine after.
func ZNot1(zm *ZMachine, arg uint16) {
	if zm.version >= 5 {
		zm.Call(arg, nil, callProcedure)
		return
	}
	zm.StoreResult(^arg)
}

func ZReturnTrue(zm *ZMachine) {
	zm.Ret(1)
}

func ZReturnFalse(zm *ZMachine) {
	zm.Ret(0)
}

func ZPrint(zm *ZMachine) {
	zm.ip = zm.DecodeZString(zm.ip, zm.printChar)
}

func ZPrintRet(zm *ZMachine) {
	zm.ip = zm.DecodeZString(zm.ip, zm.printChar)
	zm.newLine()
	zm.Ret(1)
}

func ZNOP(zm *ZMachine) {
}

// save ?(label) in versions 1-3, save -> (result) in version 4.
func ZSave(zm *ZMachine) {
	if zm.version >= 5 {
		zm.runtimeError(ErrIllegalOpcode)
		return
	}
	success := zm.saveToFile()
	if zm.version <= 3 {
		GenericBranch(zm, success)
	} else {
		zm.StoreResult(boolToUint16(success))
	}
}

// restore ?(label) in versions 1-3, restore -> (result) in version 4.
// A successful restore continues after the save with result 2.
func ZRestore(zm *ZMachine) {
	if zm.version >= 5 {
		zm.runtimeError(ErrIllegalOpcode)
		return
	}
	r := zm.restoreFromFile()
	if zm.version <= 3 {
		GenericBranch(zm, r != 0)
	} else {
		zm.StoreResult(r)
	}
}

func ZRestart(zm *ZMachine) {
	zm.restart()
}

func ZRetPopped(zm *ZMachine) {
	retValue := zm.stack.Pop()
	zm.Ret(retValue)
}

// pop before version 5, catch -> (result) after.
func ZPop(zm *ZMachine) {
	if zm.version >= 5 {
		zm.StoreResult(zm.catchToken())
		return
	}
	zm.stack.Pop()
}

func ZQuit(zm *ZMachine) {
	zm.finished = quitSentinel
	zm.quit = true
}

func ZNewLine(zm *ZMachine) {
	zm.newLine()
}

func ZShowStatus(zm *ZMachine) {
	if zm.version == 3 {
		zm.showStatus()
	}
}

// verify ?(label)
// Branch if the story checksum matches the header.
func ZVerify(zm *ZMachine) {
	GenericBranch(zm, zm.verify())
}

// 0xBE escapes to the extended opcodes from version 5 on.
func ZExtended(zm *ZMachine) {
	if !zm.version.HasExtended() {
		zm.runtimeError(ErrIllegalOpcode)
		return
	}
	zm.InterpretExtendedInstruction()
}

// piracy ?(label)
// Interpreters are asked to be gullible and to unconditionally branch.
func ZPiracy(zm *ZMachine) {
	GenericBranch(zm, true)
}
