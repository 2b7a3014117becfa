package zmachine

import (
	"errors"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// ErrorCode identifies a runtime error of the story. Codes up to
// lastFatalError stop the machine unless errors are ignored.
type ErrorCode int

const (
	ErrTextBufferOverflow ErrorCode = 1 + iota
	ErrStoreRange
	ErrDivisionByZero
	ErrIllegalObject
	ErrIllegalAttribute
	ErrNoProperty
	ErrStackOverflow
	ErrIllegalCallAddress
	ErrCallNonRoutine
	ErrStackUnderflow
	ErrIllegalOpcode
	ErrBadFrame
	ErrIllegalJumpAddress
	ErrSaveInInterrupt
	ErrStream3Nesting
	ErrIllegalWindow
	ErrIllegalWindowProperty
	ErrIllegalPrintAddress
	ErrDictionaryLength
	ErrJin0
	ErrGetChild0
	ErrGetParent0
	ErrGetSibling0
	ErrGetPropAddr0
	ErrGetProp0
	ErrPutProp0
	ErrClearAttr0
	ErrSetAttr0
	ErrTestAttr0
	ErrMoveObject0
	ErrMoveObjectTo0
	ErrRemoveObject0
	ErrGetNextProp0

	numErrors      = int(ErrGetNextProp0)
	lastFatalError = ErrDictionaryLength
)

var errorMessages = [numErrors]string{
	"Text buffer overflow",
	"Store out of dynamic memory",
	"Division by zero",
	"Illegal object",
	"Illegal attribute",
	"No such property",
	"Stack overflow",
	"Call to illegal address",
	"Call to non-routine",
	"Stack underflow",
	"Illegal opcode",
	"Bad stack frame",
	"Jump to illegal address",
	"Can't save while in interrupt",
	"Nesting stream #3 too deep",
	"Illegal window",
	"Illegal window property",
	"Print at illegal address",
	"Illegal dictionary word length",
	"@jin called with object 0",
	"@get_child called with object 0",
	"@get_parent called with object 0",
	"@get_sibling called with object 0",
	"@get_prop_addr called with object 0",
	"@get_prop called with object 0",
	"@put_prop called with object 0",
	"@clear_attr called with object 0",
	"@set_attr called with object 0",
	"@test_attr called with object 0",
	"@move_object called moving object 0",
	"@move_object called moving into object 0",
	"@remove_object called with object 0",
	"@get_next_prop called with object 0",
}

func (c ErrorCode) Error() string {
	if c < 1 || int(c) > numErrors {
		return fmt.Sprintf("unknown error %d", int(c))
	}
	return errorMessages[c-1]
}

// alwaysFatal covers the errors after which the stack or PC can no
// longer be trusted.
func (c ErrorCode) alwaysFatal() bool {
	switch c {
	case ErrStackOverflow, ErrStackUnderflow, ErrBadFrame,
		ErrIllegalCallAddress, ErrCallNonRoutine, ErrIllegalJumpAddress:
		return true
	}
	return false
}

// RuntimeError is a fatal error raised while interpreting a story.
type RuntimeError struct {
	Code ErrorCode
	PC   uint32
	Err  error
}

func (e *RuntimeError) Error() string {
	switch {
	case e.Code == 0:
		return fmt.Sprintf("zmachine: %v (PC = %X)", e.Err, e.PC)
	case e.Err != nil:
		return fmt.Sprintf("zmachine: %v: %v (PC = %X)", e.Code, e.Err, e.PC)
	}
	return fmt.Sprintf("zmachine: %v (PC = %X)", e.Code, e.PC)
}

func (e *RuntimeError) Unwrap() []error {
	var errs []error
	if e.Code != 0 {
		errs = append(errs, e.Code)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ReportMode selects how non-fatal runtime errors are shown.
type ReportMode int

const (
	ReportNever ReportMode = iota
	ReportOnce
	ReportAlways
	ReportFatal
)

func (m ReportMode) String() string {
	switch m {
	case ReportNever:
		return "never"
	case ReportOnce:
		return "once"
	case ReportAlways:
		return "always"
	case ReportFatal:
		return "fatal"
	}
	return fmt.Sprintf("ReportMode(%d)", int(m))
}

// ParseReportMode accepts the names printed by ReportMode.String.
func ParseReportMode(s string) (ReportMode, error) {
	for m := ReportNever; m <= ReportFatal; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ReportOnce, fmt.Errorf("zmachine: unknown report mode %q", s)
}

var (
	// ErrQuit may be returned by an Input to end the session. Run then
	// stops and returns nil, as it does after @quit.
	ErrQuit = errors.New("zmachine: quit")

	ErrShortStory         = errors.New("zmachine: story file too short")
	ErrUnsupportedVersion = errors.New("zmachine: unsupported story version")
	ErrBadHeader          = errors.New("zmachine: bad story header")
	// ErrMemoryAccess wraps reads outside the story image.
	ErrMemoryAccess = errors.New("zmachine: memory access out of range")
	// ErrWrongStory is returned when a save belongs to another story.
	ErrWrongStory = errors.New("zmachine: save file is for a different story")
	ErrNoStorage  = errors.New("zmachine: no storage configured")
)

// halt carries a host error (cancelled context, failed input) out of the
// interpreter loop.
type halt struct {
	err error
}

// runtimeError reports an error of the running story. Fatal errors flush
// pending output and unwind to Run; others may print a warning and return.
func (zm *ZMachine) runtimeError(code ErrorCode) {
	if code < 1 || int(code) > numErrors {
		return
	}

	if zm.opts.ReportMode == ReportFatal || code.alwaysFatal() ||
		(!zm.opts.IgnoreErrors && code <= lastFatalError) {
		zm.fatal(code, nil)
		return
	}

	wasFirst := zm.errorCount[code-1] == 0
	zm.errorCount[code-1]++

	zm.log.WithFields(log.Fields{
		"code":  int(code),
		"pc":    fmt.Sprintf("%X", zm.instructionPC),
		"count": zm.errorCount[code-1],
	}).Warn(code.Error())

	if zm.opts.ReportMode == ReportAlways || (zm.opts.ReportMode == ReportOnce && wasFirst) {
		zm.printString("Warning: ")
		zm.printString(code.Error())
		zm.printString(fmt.Sprintf(" (PC = %X)", zm.instructionPC))
		if zm.opts.ReportMode == ReportOnce {
			zm.printString(" (will ignore further occurrences)")
		} else {
			zm.printString(fmt.Sprintf(" (occurrence %d)", zm.errorCount[code-1]))
		}
		zm.newLine()
	}
}

// ErrorCount returns how often a non-fatal error has occurred.
func (zm *ZMachine) ErrorCount(code ErrorCode) int {
	if code < 1 || int(code) > numErrors {
		return 0
	}
	return zm.errorCount[code-1]
}

func (zm *ZMachine) fatal(code ErrorCode, err error) {
	zm.flushBuffer()
	panic(&RuntimeError{Code: code, PC: zm.instructionPC, Err: err})
}

// recovered turns a panic raised while interpreting into the error that
// Run returns. Panics that did not come from the machine are re-raised.
func (zm *ZMachine) recovered(r any) error {
	switch e := r.(type) {
	case *RuntimeError:
		if e.PC == 0 {
			e.PC = zm.instructionPC
		}
		zm.flushBuffer()
		zm.log.WithError(e).Error("story stopped")
		return e
	case halt:
		zm.flushBuffer()
		if errors.Is(e.err, ErrQuit) {
			return nil
		}
		return e.err
	case runtime.Error:
		err := &RuntimeError{PC: zm.instructionPC, Err: fmt.Errorf("%w: %v", ErrMemoryAccess, e)}
		zm.log.WithError(err).Error("story stopped")
		return err
	}
	panic(r)
}

// guard runs fn, converting machine panics into errors.
func (zm *ZMachine) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zm.recovered(r)
		}
	}()
	return fn()
}
