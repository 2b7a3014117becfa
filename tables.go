package zmachine

type ZFunction func(*ZMachine, []uint16, uint16)
type ZFunction1 func(*ZMachine, uint16)
type ZFunction0 func(*ZMachine)

// Opcode table entries. Name is used when tracing; a nil Fn is an illegal
// opcode.
type ZOpcode struct {
	Name string
	Fn   ZFunction
}

type ZOpcode1 struct {
	Name string
	Fn   ZFunction1
}

type ZOpcode0 struct {
	Name string
	Fn   ZFunction0
}

var ZFunctions_VAR [32]ZOpcode
var ZFunctions_2OP [32]ZOpcode
var ZFunctions_1OP [16]ZOpcode1
var ZFunctions_0P [16]ZOpcode0
var ZFunctions_EXT [30]ZOpcode

// The tables refer to handlers that reach the tables again through the
// interpreter, so they are filled in at init.
func init() {
	ZFunctions_2OP = [32]ZOpcode{
		{},
		{"je", ZJumpEqual},
		{"jl", ZJumpLess},
		{"jg", ZJumpGreater},
		{"dec_chk", ZDecChk},
		{"inc_chk", ZIncChk},
		{"jin", ZJin},
		{"test", ZTest},
		{"or", ZOr},
		{"and", ZAnd},
		{"test_attr", ZTestAttr},
		{"set_attr", ZSetAttr},
		{"clear_attr", ZClearAttr},
		{"store", ZStore},
		{"insert_obj", ZInsertObj},
		{"loadw", ZLoadW},
		{"loadb", ZLoadB},
		{"get_prop", ZGetProp},
		{"get_prop_addr", ZGetPropAddr},
		{"get_next_prop", ZGetNextProp},
		{"add", ZAdd},
		{"sub", ZSub},
		{"mul", ZMul},
		{"div", ZDiv},
		{"mod", ZMod},
		{"call_2s", ZCall2S},
		{"call_2n", ZCall2N},
		{"set_colour", ZSetColour},
		{"throw", ZThrow},
	}

	ZFunctions_1OP = [16]ZOpcode1{
		{"jz", ZJumpZero},
		{"get_sibling", ZGetSibling},
		{"get_child", ZGetChild},
		{"get_parent", ZGetParent},
		{"get_prop_len", ZGetPropLen},
		{"inc", ZInc},
		{"dec", ZDec},
		{"print_addr", ZPrintAddr},
		{"call_1s", ZCall1S},
		{"remove_obj", ZRemoveObj},
		{"print_obj", ZPrintObj},
		{"ret", ZRet},
		{"jump", ZJump},
		{"print_paddr", ZPrintPAddr},
		{"load", ZLoad},
		{"not/call_1n", ZNot1},
	}

	ZFunctions_0P = [16]ZOpcode0{
		{"rtrue", ZReturnTrue},
		{"rfalse", ZReturnFalse},
		{"print", ZPrint},
		{"print_ret", ZPrintRet},
		{"nop", ZNOP},
		{"save", ZSave},
		{"restore", ZRestore},
		{"restart", ZRestart},
		{"ret_popped", ZRetPopped},
		{"pop/catch", ZPop},
		{"quit", ZQuit},
		{"new_line", ZNewLine},
		{"show_status", ZShowStatus},
		{"verify", ZVerify},
		{"extended", ZExtended},
		{"piracy", ZPiracy},
	}

	ZFunctions_VAR = [32]ZOpcode{
		{"call_vs", ZCall},
		{"storew", ZStoreW},
		{"storeb", ZStoreB},
		{"put_prop", ZPutProp},
		{"read", ZRead},
		{"print_char", ZPrintChar},
		{"print_num", ZPrintNum},
		{"random", ZRandom},
		{"push", ZPush},
		{"pull", ZPull},
		{"split_window", ZSplitWindow},
		{"set_window", ZSetWindow},
		{"call_vs2", ZCall},
		{"erase_window", ZEraseWindow},
		{"erase_line", ZEraseLine},
		{"set_cursor", ZSetCursor},
		{"get_cursor", ZGetCursor},
		{"set_text_style", ZSetTextStyle},
		{"buffer_mode", ZBufferMode},
		{"output_stream", ZOutputStream},
		{"input_stream", ZInputStream},
		{"sound_effect", ZSoundEffect},
		{"read_char", ZReadChar},
		{"scan_table", ZScanTable},
		{"not", ZNot},
		{"call_vn", ZCallN},
		{"call_vn2", ZCallN},
		{"tokenise", ZTokenise},
		{"encode_text", ZEncodeText},
		{"copy_table", ZCopyTable},
		{"print_table", ZPrintTable},
		{"check_arg_count", ZCheckArgCount},
	}

	ZFunctions_EXT = [30]ZOpcode{
		{"save", ZSaveExt},
		{"restore", ZRestoreExt},
		{"log_shift", ZLogShift},
		{"art_shift", ZArtShift},
		{"set_font", ZSetFont},
		{"draw_picture", ZDrawPicture},
		{"picture_data", ZPictureData},
		{"erase_picture", ZErasePicture},
		{"set_margins", ZSetMargins},
		{"save_undo", ZSaveUndo},
		{"restore_undo", ZRestoreUndo},
		{"print_unicode", ZPrintUnicode},
		{"check_unicode", ZCheckUnicode},
		{"set_true_colour", ZSetTrueColour},
		{},
		{},
		{"move_window", ZMoveWindow},
		{"window_size", ZWindowSize},
		{"window_style", ZWindowStyle},
		{"get_wind_prop", ZGetWindProp},
		{"scroll_window", ZScrollWindow},
		{"pop_stack", ZPopStack},
		{"read_mouse", ZReadMouse},
		{"mouse_window", ZMouseWindow},
		{"push_stack", ZPushStack},
		{"put_wind_prop", ZPutWindProp},
		{"print_form", ZPrintForm},
		{"make_menu", ZMakeMenu},
		{"picture_table", ZPictureTable},
		{"buffer_screen", ZBufferScreen},
	}
}
