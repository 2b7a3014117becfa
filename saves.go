package zmachine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/scummvm/zmachine/quetzal"
)

const saveAnnotation = "Saved by github.com/scummvm/zmachine"

func (zm *ZMachine) storyID() quetzal.IFhd {
	return quetzal.IFhd{
		Release:  zm.header.Release,
		Serial:   zm.header.Serial,
		Checksum: zm.header.Checksum,
		PC:       zm.ip,
	}
}

// snapshot captures the machine state. The saved PC is the current one,
// which for the save opcodes is their branch or store byte.
func (zm *ZMachine) snapshot() (*quetzal.Save, error) {
	static := zm.header.staticMemAddress
	s := &quetzal.Save{
		Header:     zm.storyID(),
		Annotation: saveAnnotation,
	}
	if zm.opts.UncompressedSaves {
		s.Memory = append([]byte(nil), zm.buf[:static]...)
	} else {
		s.Memory = quetzal.CompressMemory(zm.original[:static], zm.buf[:static])
		s.Compressed = true
	}

	frames, err := zm.saveFrames()
	if err != nil {
		return nil, err
	}
	s.Frames = frames
	return s, nil
}

// saveFrames lists the call frames oldest first, preceded by the dummy
// frame that holds the words pushed outside any routine.
func (zm *ZMachine) saveFrames() ([]quetzal.Frame, error) {
	st := zm.stack
	fps := st.FramePointers()
	var frames []quetzal.Frame

	if zm.version.HasTopLevelStack() {
		bottom := st.top
		if len(fps) > 0 {
			bottom = fps[len(fps)-1] + frameHeaderWords
		}
		frames = append(frames, quetzal.Frame{Stack: st.Words(MAX_STACK, bottom)})
	}

	for i := len(fps) - 1; i >= 0; i-- {
		fp := fps[i]
		h := st.frameAt(fp)

		lo := st.top
		if i > 0 {
			lo = fps[i-1] + frameHeaderWords
		}
		f := quetzal.Frame{
			ArgMask: quetzal.ArgMask(h.ArgCount),
			Locals:  st.Locals(fp),
			Stack:   st.Words(fp-h.LocalCount, lo),
		}
		switch h.Type {
		case callFunction:
			f.ResultVar = zm.buf[h.ReturnPC]
			f.ReturnPC = h.ReturnPC + 1
		case callProcedure:
			f.Discard = true
			f.ReturnPC = h.ReturnPC
		default:
			return nil, ErrSaveInInterrupt
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// rebuildStack replaces the stack with the saved frames.
func (zm *ZMachine) rebuildStack(frames []quetzal.Frame) error {
	st := zm.stack
	st.Reset()

	if zm.version.HasTopLevelStack() {
		if len(frames) == 0 {
			return errors.New("missing dummy frame")
		}
		dummy := frames[0]
		if dummy.ReturnPC != 0 || len(dummy.Locals) != 0 {
			return errors.New("first frame is not a dummy frame")
		}
		if !st.Room(len(dummy.Stack)) {
			return errors.New("stack overflow")
		}
		for _, w := range dummy.Stack {
			st.Push(w)
		}
		frames = frames[1:]
	}

	for i, f := range frames {
		argc := f.ArgCount()
		if quetzal.ArgMask(argc) != f.ArgMask {
			return fmt.Errorf("frame %d: argument mask 0x%X is not contiguous", i, f.ArgMask)
		}

		h := frameHeader{
			ArgCount:   argc,
			LocalCount: len(f.Locals),
			Type:       callProcedure,
			ReturnPC:   f.ReturnPC,
		}
		if !f.Discard {
			if f.ReturnPC == 0 || f.ReturnPC > uint32(len(zm.buf)) {
				return fmt.Errorf("frame %d: return PC 0x%X out of range", i, f.ReturnPC)
			}
			h.Type = callFunction
			h.ReturnPC = f.ReturnPC - 1
			if zm.buf[h.ReturnPC] != f.ResultVar {
				return fmt.Errorf("frame %d: result variable %d does not match the call at 0x%X", i, f.ResultVar, h.ReturnPC)
			}
		}

		if !st.Room(frameHeaderWords + len(f.Locals) + len(f.Stack)) {
			return fmt.Errorf("frame %d: stack overflow", i)
		}
		st.SaveFrame(h)
		for _, w := range f.Locals {
			st.Push(w)
		}
		for _, w := range f.Stack {
			st.Push(w)
		}
	}
	return nil
}

// restoreSnapshot loads a decoded save. Problems found before the machine
// state changes are returned; later ones stop the machine.
func (zm *ZMachine) restoreSnapshot(s *quetzal.Save) error {
	if !s.Header.SameStory(zm.storyID()) {
		return ErrWrongStory
	}
	static := zm.header.staticMemAddress
	mem, err := s.DynamicMemory(zm.original[:static])
	if err != nil {
		return err
	}
	if s.Header.PC >= uint32(len(zm.buf)) {
		return fmt.Errorf("%w: PC 0x%X", quetzal.ErrBadStacks, s.Header.PC)
	}

	kept := zm.buf[H_FLAGS+1] & (SCRIPTING_FLAG | FIXED_FONT_FLAG)
	copy(zm.buf[:static], mem)
	zm.buf[H_FLAGS+1] = zm.buf[H_FLAGS+1]&^(SCRIPTING_FLAG|FIXED_FONT_FLAG) | kept
	zm.ip = s.Header.PC

	if err := zm.rebuildStack(s.Frames); err != nil {
		zm.fatal(ErrBadFrame, err)
	}
	zm.restartHeader()
	return nil
}

func (zm *ZMachine) restore(r io.Reader) error {
	s, err := quetzal.Decode(r)
	if err != nil {
		return err
	}
	return zm.restoreSnapshot(s)
}

// SaveGame writes the machine state to w as a Quetzal file.
func (zm *ZMachine) SaveGame(w io.Writer) error {
	return zm.guard(func() error {
		s, err := zm.snapshot()
		if err != nil {
			return err
		}
		return quetzal.Encode(w, s)
	})
}

// RestoreGame loads a Quetzal file written by SaveGame. A save of another
// story returns ErrWrongStory and leaves the machine unchanged.
func (zm *ZMachine) RestoreGame(r io.Reader) error {
	return zm.guard(func() error {
		return zm.restore(r)
	})
}

// SaveUndo records the state in the undo list: -1 when undo is disabled,
// 0 on failure and 1 on success. The oldest state goes when the list is
// full.
func (zm *ZMachine) SaveUndo() int {
	if zm.opts.UndoSlots <= 0 {
		return -1
	}
	s, err := zm.snapshot()
	if err != nil {
		zm.log.WithError(err).Warn("save_undo failed")
		return 0
	}
	var buf bytes.Buffer
	if err := quetzal.Encode(&buf, s); err != nil {
		zm.log.WithError(err).Warn("save_undo failed")
		return 0
	}

	for zm.undo.Size() >= zm.opts.UndoSlots {
		zm.undo.Remove(0)
	}
	zm.undo.Add(buf.Bytes())
	return 1
}

// RestoreUndo returns to the latest undo state: -1 when undo is disabled,
// 0 when there is nothing to undo and 2 on success.
func (zm *ZMachine) RestoreUndo() int {
	if zm.opts.UndoSlots <= 0 {
		return -1
	}
	if zm.undo.Empty() {
		return 0
	}
	last := zm.undo.Size() - 1
	v, _ := zm.undo.Get(last)
	zm.undo.Remove(last)

	if err := zm.restore(bytes.NewReader(v.([]byte))); err != nil {
		zm.log.WithError(err).Warn("restore_undo failed")
		return 0
	}
	return 2
}

// UndoDepth is the number of states in the undo list.
func (zm *ZMachine) UndoDepth() int {
	return zm.undo.Size()
}

// askFilename asks the player for a file name; ok is false when the
// player cancels.
func (zm *ZMachine) askFilename(prompt, def string) (string, bool) {
	if zm.input == nil {
		return def, def != ""
	}
	zm.flushBuffer()
	name, err := zm.input.ReadFilename(zm.context(), prompt, def)
	switch {
	case errors.Is(err, ErrQuit), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		panic(halt{err})
	case err != nil:
		zm.log.WithError(err).Warn("no file name")
		return "", false
	}
	return name, name != ""
}

// saveToFile carries out the save opcode; it reports success.
func (zm *ZMachine) saveToFile() bool {
	if zm.interrupts > 0 {
		zm.runtimeError(ErrSaveInInterrupt)
		return false
	}
	name, ok := zm.askFilename("Save game to: ", zm.opts.SaveName)
	if !ok {
		return false
	}
	s, err := zm.snapshot()
	if err != nil {
		zm.log.WithError(err).Warn("save failed")
		return false
	}

	w, err := zm.createFile(name)
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("save failed")
		return false
	}
	err = quetzal.Encode(w, s)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("save failed")
		return false
	}
	zm.opts.SaveName = name
	zm.log.WithField("file", name).Info("game saved")
	return true
}

// restoreFromFile carries out the restore opcode: 2 on success and 0 when
// the file cannot be used.
func (zm *ZMachine) restoreFromFile() uint16 {
	name, ok := zm.askFilename("Restore game from: ", zm.opts.SaveName)
	if !ok {
		return 0
	}
	r, err := zm.openFile(name)
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("restore failed")
		return 0
	}
	defer r.Close()

	if err := zm.restore(r); err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("restore failed")
		return 0
	}
	zm.opts.SaveName = name
	zm.log.WithFields(log.Fields{"file": name, "pc": fmt.Sprintf("%X", zm.ip)}).Info("game restored")

	if zm.version == 3 {
		zm.screen.SplitWindow(0)
	}
	return 2
}

// auxName reads the file name of an auxiliary table save, stored as a
// length byte followed by the characters.
func (zm *ZMachine) auxName(address uint16) string {
	if address == 0 {
		return zm.opts.AuxName
	}
	n := uint32(zm.buf[address])
	name := make([]rune, 0, n)
	for i := uint32(1); i <= n; i++ {
		name = append(name, zm.zsciiToUnicode(zm.buf[uint32(address)+i]))
	}
	return string(name)
}

// saveTable writes length bytes at table to a file; it reports success.
func (zm *ZMachine) saveTable(table, length, nameAddress uint16) bool {
	name, ok := zm.askFilename("Save table to: ", zm.auxName(nameAddress))
	if !ok {
		return false
	}
	w, err := zm.createFile(name)
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("table save failed")
		return false
	}
	_, err = w.Write(zm.buf[table : uint32(table)+uint32(length)])
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("table save failed")
		return false
	}
	return true
}

// restoreTable reads at most length bytes into table and returns how
// many were read.
func (zm *ZMachine) restoreTable(table, length, nameAddress uint16) uint16 {
	name, ok := zm.askFilename("Restore table from: ", zm.auxName(nameAddress))
	if !ok {
		return 0
	}
	r, err := zm.openFile(name)
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("table restore failed")
		return 0
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, int64(length)))
	if err != nil {
		zm.log.WithError(err).WithField("file", name).Warn("table restore failed")
		return 0
	}
	for i, b := range data {
		zm.storeb(table+uint16(i), b)
	}
	return uint16(len(data))
}
