package quetzal

import (
	"encoding/binary"
	"fmt"
)

// maxRun is the longest run of unchanged bytes one (0, n-1) pair can encode.
const maxRun = 256

// CompressMemory encodes current as a CMem payload: current XOR original,
// with every run of zero bytes written as a zero followed by the run length
// minus one.
func CompressMemory(original, current []byte) []byte {
	cmem := make([]byte, 0, len(current)/8)

	run := 0
	flush := func() {
		for run > 0 {
			n := run
			if n > maxRun {
				n = maxRun
			}
			cmem = append(cmem, 0, byte(n-1))
			run -= n
		}
	}

	for i, b := range current {
		xor := b ^ original[i]
		if xor == 0 {
			run++
			continue
		}
		flush()
		cmem = append(cmem, xor)
	}
	flush()

	return cmem
}

// DecompressMemory replays a CMem payload against original. A payload that
// stops early leaves the remaining bytes equal to original.
func DecompressMemory(cmem, original []byte) ([]byte, error) {
	mem := make([]byte, len(original))
	copy(mem, original)

	i := 0
	for j := 0; j < len(cmem); j++ {
		b := cmem[j]
		if b == 0 {
			j++
			if j == len(cmem) {
				return nil, fmt.Errorf("%w: run length missing at end", ErrBadMemory)
			}
			i += int(cmem[j]) + 1
			if i > len(mem) {
				return nil, fmt.Errorf("%w: run overruns dynamic memory", ErrBadMemory)
			}
			continue
		}
		if i >= len(mem) {
			return nil, fmt.Errorf("%w: data overruns dynamic memory", ErrBadMemory)
		}
		mem[i] ^= b
		i++
	}

	return mem, nil
}

// IFhd identifies the story a save belongs to and the PC to resume at.
type IFhd struct {
	Release  uint16
	Serial   [6]byte
	Checksum uint16
	PC       uint32
}

const ifhdSize = 13

func (h IFhd) MarshalBinary() ([]byte, error) {
	if h.PC > 0xFFFFFF {
		return nil, fmt.Errorf("quetzal: PC 0x%X does not fit 24 bits", h.PC)
	}
	b := make([]byte, ifhdSize)
	binary.BigEndian.PutUint16(b[0:], h.Release)
	copy(b[2:8], h.Serial[:])
	binary.BigEndian.PutUint16(b[8:], h.Checksum)
	b[10] = byte(h.PC >> 16)
	b[11] = byte(h.PC >> 8)
	b[12] = byte(h.PC)
	return b, nil
}

func (h *IFhd) UnmarshalBinary(b []byte) error {
	if len(b) < ifhdSize {
		return fmt.Errorf("%w: IFhd has %d bytes", ErrShortChunk, len(b))
	}
	h.Release = binary.BigEndian.Uint16(b[0:])
	copy(h.Serial[:], b[2:8])
	h.Checksum = binary.BigEndian.Uint16(b[8:])
	h.PC = uint32(b[10])<<16 | uint32(b[11])<<8 | uint32(b[12])
	return nil
}

// SameStory reports whether h and o were written for the same story file.
func (h IFhd) SameStory(o IFhd) bool {
	return h.Release == o.Release && h.Serial == o.Serial && h.Checksum == o.Checksum
}
