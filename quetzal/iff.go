// Package quetzal reads and writes Z-machine save states in the Quetzal
// format: an IFF FORM of type IFZS holding IFhd, CMem or UMem and Stks chunks.
package quetzal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	chunk "github.com/Katharine/chunk.go"
)

const (
	// FormType is the IFF form type of a Quetzal file.
	FormType = "IFZS"

	idForm = "FORM"
	idIFhd = "IFhd"
	idCMem = "CMem"
	idUMem = "UMem"
	idStks = "Stks"
	idANNO = "ANNO"

	// maxFormSize bounds the save files read; real ones are well below it.
	maxFormSize = 16 << 20
)

var (
	ErrNotForm        = errors.New("quetzal: not an IFF FORM")
	ErrNotQuetzal     = errors.New("quetzal: not a Quetzal save file")
	ErrBadLength      = errors.New("quetzal: bad chunk length")
	ErrMissingChunk   = errors.New("quetzal: missing chunk")
	ErrDuplicateChunk = errors.New("quetzal: duplicate chunk")
	ErrShortChunk     = errors.New("quetzal: chunk too short")
	ErrBadMemory      = errors.New("quetzal: malformed memory chunk")
	ErrBadStacks      = errors.New("quetzal: malformed stack chunk")
)

// Chunk is one tagged block of an IFF FORM.
type Chunk struct {
	ID   string
	Data []byte
}

func writeChunk(buf *bytes.Buffer, c Chunk) {
	buf.WriteString(c.ID)
	binary.Write(buf, binary.BigEndian, uint32(len(c.Data)))
	buf.Write(c.Data)
	// Odd chunks get a pad byte that the length does not count.
	if len(c.Data)&1 == 1 {
		buf.WriteByte(0)
	}
}

// WriteForm writes chunks wrapped in a FORM of the given type.
func WriteForm(w io.Writer, formType string, chunks []Chunk) error {
	if len(formType) != 4 {
		return fmt.Errorf("quetzal: bad form type %q", formType)
	}

	body := new(bytes.Buffer)
	body.WriteString(formType)
	for _, c := range chunks {
		if len(c.ID) != 4 {
			return fmt.Errorf("quetzal: bad chunk id %q", c.ID)
		}
		writeChunk(body, c)
	}

	out := new(bytes.Buffer)
	writeChunk(out, Chunk{ID: idForm, Data: body.Bytes()})
	_, err := out.WriteTo(w)
	return err
}

// ReadForm reads a FORM and returns its type and chunks in file order.
// When ids are given, only chunks with those ids are kept and the others
// are skipped unread.
func ReadForm(r io.Reader, ids ...string) (string, []Chunk, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFormSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotForm, err)
	}
	if len(data) > maxFormSize {
		return "", nil, fmt.Errorf("%w: more than %d bytes", ErrBadLength, maxFormSize)
	}
	if len(data) < 8 {
		return "", nil, ErrNotForm
	}

	form, err := chunk.Make(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotForm, err)
	}
	if form.Name() != idForm {
		return "", nil, ErrNotForm
	}
	// Declared lengths are checked against the bytes actually read.
	length := int64(form.Size())
	if length < 4 || length&1 == 1 || length > int64(len(data)-8) {
		return "", nil, fmt.Errorf("%w: form length %d of %d bytes", ErrBadLength, length, len(data)-8)
	}
	var formType [4]byte
	if _, err := io.ReadFull(form, formType[:]); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadLength, err)
	}

	keep := func(id string) bool {
		if len(ids) == 0 {
			return true
		}
		for _, k := range ids {
			if k == id {
				return true
			}
		}
		return false
	}

	body := bytes.NewReader(data[12 : 8+length])
	var chunks []Chunk
	for body.Len() > 0 {
		start := body.Size() - int64(body.Len())
		if body.Len() < 8 {
			return "", nil, fmt.Errorf("%w: trailing %d bytes", ErrBadLength, body.Len())
		}
		c, err := chunk.Make(body)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadLength, err)
		}
		size := int64(c.Size())
		if size > int64(body.Len()) {
			return "", nil, fmt.Errorf("%w: chunk %s length %d", ErrBadLength, c.Name(), size)
		}

		if keep(c.Name()) {
			buf := make([]byte, size)
			if _, err := io.ReadFull(c, buf); err != nil {
				return "", nil, fmt.Errorf("%w: chunk %s: %v", ErrBadLength, c.Name(), err)
			}
			chunks = append(chunks, Chunk{ID: c.Name(), Data: buf})
		} else {
			c.Skip()
		}
		// Odd chunks are followed by a pad byte.
		if _, err := body.Seek(start+8+size+size&1, io.SeekStart); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadLength, err)
		}
	}

	return string(formType[:]), chunks, nil
}
