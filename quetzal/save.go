package quetzal

import (
	"fmt"
	"io"
)

// Save is the decoded content of a Quetzal file.
type Save struct {
	Header IFhd

	// Memory is the CMem payload when Compressed is set, otherwise a raw
	// copy of dynamic memory (UMem).
	Memory     []byte
	Compressed bool

	Frames     []Frame
	Annotation string
}

// Encode writes s as an IFZS form.
func Encode(w io.Writer, s *Save) error {
	ifhd, err := s.Header.MarshalBinary()
	if err != nil {
		return err
	}
	stks, err := EncodeStacks(s.Frames)
	if err != nil {
		return err
	}

	memID := idUMem
	if s.Compressed {
		memID = idCMem
	}
	chunks := []Chunk{
		{ID: idIFhd, Data: ifhd},
		{ID: memID, Data: s.Memory},
		{ID: idStks, Data: stks},
	}
	if s.Annotation != "" {
		chunks = append(chunks, Chunk{ID: idANNO, Data: []byte(s.Annotation)})
	}
	return WriteForm(w, FormType, chunks)
}

// Decode reads an IFZS form. Exactly one IFhd, one Stks and one memory
// chunk must be present; unknown chunks are skipped.
func Decode(r io.Reader) (*Save, error) {
	formType, chunks, err := ReadForm(r, idIFhd, idCMem, idUMem, idStks, idANNO)
	if err != nil {
		return nil, err
	}
	if formType != FormType {
		return nil, fmt.Errorf("%w: form type %q", ErrNotQuetzal, formType)
	}

	s := new(Save)
	seen := map[string]bool{}
	for _, c := range chunks {
		switch c.ID {
		case idIFhd, idStks, idCMem, idUMem:
		case idANNO:
			s.Annotation = string(c.Data)
			continue
		default:
			continue
		}

		kind := c.ID
		if kind == idUMem {
			kind = idCMem
		}
		if seen[kind] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChunk, c.ID)
		}
		seen[kind] = true

		switch c.ID {
		case idIFhd:
			if err := s.Header.UnmarshalBinary(c.Data); err != nil {
				return nil, err
			}
		case idCMem, idUMem:
			s.Compressed = c.ID == idCMem
			s.Memory = c.Data
		case idStks:
			if s.Frames, err = DecodeStacks(c.Data); err != nil {
				return nil, err
			}
		}
	}

	for _, id := range []string{idIFhd, idCMem, idStks} {
		if !seen[id] {
			if id == idCMem {
				id = "CMem/UMem"
			}
			return nil, fmt.Errorf("%w: %s", ErrMissingChunk, id)
		}
	}
	return s, nil
}

// DynamicMemory reconstructs dynamic memory from the save, given the unmodified
// story bytes covering the same region.
func (s *Save) DynamicMemory(original []byte) ([]byte, error) {
	if s.Compressed {
		return DecompressMemory(s.Memory, original)
	}
	if len(s.Memory) != len(original) {
		return nil, fmt.Errorf("%w: UMem has %d bytes, want %d", ErrBadMemory, len(s.Memory), len(original))
	}
	mem := make([]byte, len(s.Memory))
	copy(mem, s.Memory)
	return mem, nil
}
