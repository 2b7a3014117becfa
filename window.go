package zmachine

// Window properties of get_wind_prop and put_wind_prop.
const (
	WINDOW_Y_POS = iota
	WINDOW_X_POS
	WINDOW_Y_SIZE
	WINDOW_X_SIZE
	WINDOW_Y_CURSOR
	WINDOW_X_CURSOR
	WINDOW_LEFT_MARGIN
	WINDOW_RIGHT_MARGIN
	WINDOW_NL_ROUTINE
	WINDOW_NL_COUNTDOWN
	WINDOW_STYLE
	WINDOW_COLOUR_DATA
	WINDOW_FONT_NUMBER
	WINDOW_FONT_SIZE
	WINDOW_ATTRIBUTES
	WINDOW_LINE_COUNT

	numWindowProps
)

const (
	numWindows     = 8
	currentWindow  = -3
	defaultFont    = 1
	defaultColours = 9<<8 | 2
)

// windows mirrors the window layout the story asked for. Drawing is up to
// the Screen; this only answers the story's questions about it.
type windows struct {
	current int
	font    int
	props   [numWindows][numWindowProps]uint16
}

func (zm *ZMachine) screenSize() (columns, lines int) {
	columns, lines = zm.screen.Size()
	if zm.opts.Columns > 0 {
		columns = zm.opts.Columns
	}
	if zm.opts.Lines > 0 {
		lines = zm.opts.Lines
	}
	return columns, lines
}

func (zm *ZMachine) resetWindows() {
	columns, lines := zm.screenSize()
	w := &zm.win
	w.current = 0
	w.font = defaultFont
	for i := range w.props {
		p := &w.props[i]
		*p = [numWindowProps]uint16{}
		p[WINDOW_Y_POS], p[WINDOW_X_POS] = 1, 1
		p[WINDOW_Y_CURSOR], p[WINDOW_X_CURSOR] = 1, 1
		p[WINDOW_FONT_NUMBER] = defaultFont
		p[WINDOW_FONT_SIZE] = 1<<8 | 1
		p[WINDOW_COLOUR_DATA] = defaultColours
	}
	w.props[0][WINDOW_Y_SIZE] = uint16(lines)
	w.props[0][WINDOW_X_SIZE] = uint16(columns)
	w.props[0][WINDOW_ATTRIBUTES] = 0x0B
	w.props[1][WINDOW_X_SIZE] = uint16(columns)
}

// windowArg checks a window operand; -3 means the current window.
func (zm *ZMachine) windowArg(arg uint16) int {
	if int16(arg) == currentWindow {
		return zm.win.current
	}
	if arg >= numWindows {
		zm.runtimeError(ErrIllegalWindow)
		return zm.win.current
	}
	return int(arg)
}

func (zm *ZMachine) splitWindow(lines int) {
	zm.flushBuffer()
	_, total := zm.screenSize()
	if lines > total {
		lines = total
	}
	p := &zm.win.props
	p[1][WINDOW_Y_POS] = 1
	p[1][WINDOW_Y_SIZE] = uint16(lines)
	p[0][WINDOW_Y_POS] = uint16(lines + 1)
	p[0][WINDOW_Y_SIZE] = uint16(total - lines)
	zm.screen.SplitWindow(lines)
}

func (zm *ZMachine) setWindow(window int) {
	zm.flushBuffer()
	zm.win.current = window
	zm.screen.SetWindow(window)
	// Selecting the upper window homes its cursor before version 6.
	if window == 1 && zm.version != 6 {
		zm.moveCursor(1, 1)
	}
}

func (zm *ZMachine) moveCursor(line, column int) {
	p := &zm.win.props[zm.win.current]
	p[WINDOW_Y_CURSOR], p[WINDOW_X_CURSOR] = uint16(line), uint16(column)
	zm.screen.MoveCursor(line, column)
}

// split_window lines
func ZSplitWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.splitWindow(int(int16(args[0])))
}

// set_window window
func ZSetWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.setWindow(zm.windowArg(args[0]))
}

// erase_window window
// -1 unsplits the screen and clears it, -2 clears it and keeps the split.
func ZEraseWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	window := int(int16(args[0]))
	switch {
	case window == -1:
		zm.splitWindow(0)
		zm.screen.Clear(-1)
		zm.setWindow(0)
	case window == -2:
		zm.screen.Clear(-2)
	default:
		zm.screen.Clear(zm.windowArg(args[0]))
	}
}

// erase_line value
func ZEraseLine(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	if args[0] == 1 {
		zm.screen.EraseLine()
	}
}

// set_cursor line column window
func ZSetCursor(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	if zm.version == 6 && numArgs > 2 && zm.windowArg(args[2]) != zm.win.current {
		p := &zm.win.props[zm.windowArg(args[2])]
		p[WINDOW_Y_CURSOR], p[WINDOW_X_CURSOR] = args[0], args[1]
		return
	}
	line := int(int16(args[0]))
	if line < 0 {
		// -1 hides the cursor, -2 shows it.
		return
	}
	zm.moveCursor(line, int(args[1]))
}

// get_cursor array
func ZGetCursor(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	line, column := zm.screen.CursorPosition()
	zm.storew(args[0], uint16(line))
	zm.storew(args[0]+2, uint16(column))
}

// set_text_style style
func ZSetTextStyle(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	p := &zm.win.props[zm.win.current]
	if args[0] == STYLE_ROMAN {
		p[WINDOW_STYLE] = 0
	} else {
		p[WINDOW_STYLE] |= args[0]
	}
	zm.screen.SetStyle(p[WINDOW_STYLE])
}

// buffer_mode flag
func ZBufferMode(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	zm.out.buffering = args[0] != 0
}

// set_colour foreground background window
func ZSetColour(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	window := zm.win.current
	if zm.version == 6 && numArgs > 2 {
		window = zm.windowArg(args[2])
	}
	fg, bg := int(int16(args[0])), int(int16(args[1]))
	p := &zm.win.props[window]
	if fg != 0 {
		p[WINDOW_COLOUR_DATA] = p[WINDOW_COLOUR_DATA]&0xFF00 | uint16(fg)&0xFF
	}
	if bg != 0 {
		p[WINDOW_COLOUR_DATA] = p[WINDOW_COLOUR_DATA]&0x00FF | (uint16(bg)&0xFF)<<8
	}
	zm.screen.SetColour(fg, bg)
}

// set_true_colour foreground background window
func ZSetTrueColour(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	zm.log.Debugf("set_true_colour 0x%X 0x%X not supported", args[0], args[1])
}

// set_font font -> (result)
// Returns the previous font, or 0 if the font is unavailable.
func ZSetFont(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	font := int(args[0])
	previous := zm.win.font
	if font == 0 {
		zm.StoreResult(uint16(previous))
		return
	}
	if !zm.screen.SetFont(font) {
		zm.StoreResult(0)
		return
	}
	zm.win.font = font
	zm.win.props[zm.win.current][WINDOW_FONT_NUMBER] = uint16(font)
	zm.StoreResult(uint16(previous))
}

// move_window window y x
func ZMoveWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	p := &zm.win.props[zm.windowArg(args[0])]
	p[WINDOW_Y_POS], p[WINDOW_X_POS] = args[1], args[2]
}

// window_size window y x
func ZWindowSize(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	p := &zm.win.props[zm.windowArg(args[0])]
	p[WINDOW_Y_SIZE], p[WINDOW_X_SIZE] = args[1], args[2]
}

// window_style window flags operation
// Operation 0 sets the attributes, 1 adds, 2 clears and 3 toggles them.
func ZWindowStyle(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	p := &zm.win.props[zm.windowArg(args[0])]
	operation := uint16(0)
	if numArgs > 2 {
		operation = args[2]
	}
	switch operation {
	case 0:
		p[WINDOW_ATTRIBUTES] = args[1]
	case 1:
		p[WINDOW_ATTRIBUTES] |= args[1]
	case 2:
		p[WINDOW_ATTRIBUTES] &^= args[1]
	case 3:
		p[WINDOW_ATTRIBUTES] ^= args[1]
	}
}

// set_margins left right window
func ZSetMargins(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	window := zm.win.current
	if numArgs > 2 {
		window = zm.windowArg(args[2])
	}
	p := &zm.win.props[window]
	p[WINDOW_LEFT_MARGIN], p[WINDOW_RIGHT_MARGIN] = args[0], args[1]
}

// scroll_window window pixels
func ZScrollWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	zm.log.Debugf("scroll_window %d by %d ignored", zm.windowArg(args[0]), int16(args[1]))
}

// get_wind_prop window property-number -> (result)
func ZGetWindProp(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	window := zm.windowArg(args[0])
	if args[1] >= numWindowProps {
		zm.runtimeError(ErrIllegalWindowProperty)
		zm.StoreResult(0)
		return
	}
	zm.StoreResult(zm.win.props[window][args[1]])
}

// put_wind_prop window property-number value
func ZPutWindProp(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.flushBuffer()
	window := zm.windowArg(args[0])
	if args[1] >= numWindowProps {
		zm.runtimeError(ErrIllegalWindowProperty)
		return
	}
	zm.win.props[window][args[1]] = args[2]
}

// mouse_window window
func ZMouseWindow(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.windowArg(args[0])
}

// read_mouse array
// There is no mouse: the position and buttons read as zero.
func ZReadMouse(zm *ZMachine, args []uint16, numArgs uint16) {
	for i := uint16(0); i < 4; i++ {
		zm.storew(args[0]+2*i, 0)
	}
}

// buffer_screen mode -> (result)
func ZBufferScreen(zm *ZMachine, args []uint16, numArgs uint16) {
	zm.StoreResult(0)
}

// make_menu number table ?(label)
func ZMakeMenu(zm *ZMachine, args []uint16, numArgs uint16) {
	GenericBranch(zm, false)
}
