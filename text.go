package zmachine

import (
	"unicode/utf16"
)

// ZSCII 155-223 when the story has no Unicode translation table.
var defaultUnicode = [...]rune{
	'ä', 'ö', 'ü', 'Ä', 'Ö', 'Ü', 'ß', '»', '«', 'ë', 'ï', 'ÿ', 'Ë', 'Ï', 'á', 'é',
	'í', 'ó', 'ú', 'ý', 'Á', 'É', 'Í', 'Ó', 'Ú', 'Ý', 'à', 'è', 'ì', 'ò', 'ù', 'À',
	'È', 'Ì', 'Ò', 'Ù', 'â', 'ê', 'î', 'ô', 'û', 'Â', 'Ê', 'Î', 'Ô', 'Û', 'å', 'Å',
	'ø', 'Ø', 'ã', 'ñ', 'õ', 'Ã', 'Ñ', 'Õ', 'æ', 'Æ', 'ç', 'Ç', 'þ', 'ð', 'Þ', 'Ð',
	'£', 'œ', 'Œ', '¡', '¿',
}

const (
	zsciiExtraFirst = 155
	zsciiExtraLast  = 251
)

// Decoder states.
const (
	decodeNormal = iota
	decodeAbbreviation
	decodeZSCIIHigh
	decodeZSCIILow
)

// zsciiToUnicode translates an output character. Codes with no printable
// meaning come back as '?', except 0 which prints nothing.
func (zm *ZMachine) zsciiToUnicode(c uint8) rune {
	switch {
	case c == 0:
		return 0
	case c == ZC_RETURN:
		return '\n'
	case c == 9 && zm.version == 6:
		return '\t'
	case c >= 32 && c <= 126:
		return rune(c)
	case c >= zsciiExtraFirst && c <= zsciiExtraLast:
		if table := zm.header.unicodeTable; table != 0 {
			if int(c-zsciiExtraFirst) >= int(zm.buf[table]) {
				return '?'
			}
			u := zm.GetUint16(table + 1 + 2*uint32(c-zsciiExtraFirst))
			if u < 0x20 {
				return '?'
			}
			return rune(u)
		}
		if int(c-zsciiExtraFirst) < len(defaultUnicode) {
			return defaultUnicode[c-zsciiExtraFirst]
		}
	}
	return '?'
}

// unicodeToZSCII translates an input character; ok is false when the
// character has no ZSCII code, and '?' is returned instead.
func (zm *ZMachine) unicodeToZSCII(r rune) (c uint8, ok bool) {
	switch {
	case r == '\n' || r == '\r':
		return ZC_RETURN, true
	case r >= 32 && r <= 126:
		return uint8(r), true
	case r < 0xA0:
		return '?', false
	}
	if table := zm.header.unicodeTable; table != 0 {
		n := uint32(zm.buf[table])
		for i := uint32(0); i < n; i++ {
			if rune(zm.GetUint16(table+1+2*i)) == r {
				return uint8(zsciiExtraFirst + i), true
			}
		}
		return '?', false
	}
	for i, u := range defaultUnicode {
		if u == r {
			return uint8(zsciiExtraFirst + i), true
		}
	}
	return '?', false
}

// alphabet returns the character at index of alphabet set 0, 1 or 2.
func (zm *ZMachine) alphabet(set int, index uint8) rune {
	if zm.version > 1 && set == 2 && index == 1 {
		return '\n'
	}
	if table := zm.header.alphabetTable; table != 0 {
		return zm.zsciiToUnicode(zm.buf[table+uint32(set)*26+uint32(index)])
	}
	if zm.version == 1 && set == 2 {
		return rune(alphabetV1A2[index])
	}
	return rune(alphabets[set][index])
}

// DecodeZString decodes the string at startOffset, passing each character
// to emit. Returns offset pointing just after the string data.
func (zm *ZMachine) DecodeZString(startOffset uint32, emit func(rune)) uint32 {
	return zm.decodeZString(startOffset, emit, false)
}

func (zm *ZMachine) decodeZString(address uint32, emit func(rune), inAbbreviation bool) uint32 {
	v := zm.version
	status := decodeNormal
	shiftState, shiftLock := 0, 0
	var prevC uint8

	for {
		if int(address)+2 > len(zm.buf) {
			zm.runtimeError(ErrIllegalPrintAddress)
			return address
		}

		//--first byte-------   --second byte---
		//7    6 5 4 3 2  1 0   7 6 5  4 3 2 1 0
		//bit  --first--  --second---  --third--
		w16 := zm.GetUint16(address)
		address += 2

		for shift := 10; shift >= 0; shift -= 5 {
			c := uint8(w16>>uint(shift)) & 0x1F

			switch status {
			case decodeNormal:
				shifted := false
				switch {
				// Z-character 6 from A2 means that the two subsequent Z-characters specify a ten-bit ZSCII character code
				case shiftState == 2 && c == 6:
					status = decodeZSCIIHigh
				case v == 1 && c == 1:
					emit('\n')
				case v >= 2 && shiftState == 2 && c == 7:
					emit('\n')
				case c >= 6:
					emit(zm.alphabet(shiftState, c-6))
				case c == 0:
					emit(' ')
				case v >= 2 && c == 1, v >= 3 && c <= 3:
					status = decodeAbbreviation
				default:
					shiftState = (shiftLock + int(c&1) + 1) % 3
					if v <= 2 && c >= 4 {
						shiftLock = shiftState
					}
					shifted = true
				}
				if !shifted {
					shiftState = shiftLock
				}

			case decodeAbbreviation:
				// "If z is the first Z-character (1, 2 or 3) and x the subsequent one,
				// then the interpreter must look up entry 32(z-1)+x in the abbreviations table"
				if !inAbbreviation {
					entry := zm.header.abbreviationTable + 64*uint32(prevC-1) + 2*uint32(c)
					zm.decodeZString(uint32(zm.GetUint16(entry))*2, emit, true)
				}
				status = decodeNormal

			case decodeZSCIIHigh:
				status = decodeZSCIILow

			case decodeZSCIILow:
				zc := uint16(prevC)<<5 | uint16(c)
				if zc > 767 {
					address = zm.decodeUnicodeEscape(address, int(zc-767), emit)
				} else if r := zm.zsciiToUnicode(uint8(zc)); r != 0 {
					emit(r)
				}
				status = decodeNormal
			}

			prevC = c
		}

		if w16&0x8000 != 0 {
			return address
		}
	}
}

// decodeUnicodeEscape reads n words of UTF-16, each stored inverted, and
// emits the characters they encode.
func (zm *ZMachine) decodeUnicodeEscape(address uint32, n int, emit func(rune)) uint32 {
	units := make([]uint16, 0, n)
	for i := 0; i < n && int(address)+2 <= len(zm.buf); i++ {
		units = append(units, zm.GetUint16(address)^0xFFFF)
		address += 2
	}
	for _, r := range utf16.Decode(units) {
		emit(r)
	}
	return address
}

// EncodeText encodes ZSCII text to resolution words of Z-characters,
// filling up with padding and marking the last word. Characters outside
// the alphabets use the ten-bit escape.
func (zm *ZMachine) EncodeText(text []uint8, resolution int, padding uint8) []uint16 {
	n := 3 * resolution
	zchars := make([]uint8, 0, n+3)

	for _, c := range text {
		if len(zchars) >= n {
			break
		}
		if c == ' ' {
			zchars = append(zchars, 0)
			continue
		}
		if set, index, ok := zm.findInAlphabet(c); ok {
			if set != 0 {
				zchars = append(zchars, zm.shiftChar(set))
			}
			zchars = append(zchars, index+6)
			continue
		}
		// 10-bit ZC
		zchars = append(zchars, zm.shiftChar(2), 6, c>>5, c&0x1F)
	}
	for len(zchars) < n {
		zchars = append(zchars, padding)
	}

	encodedWords := make([]uint16, resolution)
	for i := range encodedWords {
		encodedWords[i] = (uint16(zchars[i*3+0]) << 10) | (uint16(zchars[i*3+1]) << 5) |
			uint16(zchars[i*3+2])
	}
	encodedWords[resolution-1] |= 0x8000
	return encodedWords
}

// shiftChar is the single shift to an alphabet set.
func (zm *ZMachine) shiftChar(set int) uint8 {
	if zm.version <= 2 {
		return uint8(1 + set)
	}
	return uint8(3 + set)
}

// findInAlphabet looks for a ZSCII character in the alphabet sets,
// skipping the escape slot of A2.
func (zm *ZMachine) findInAlphabet(c uint8) (set int, index uint8, ok bool) {
	r := zm.zsciiToUnicode(c)
	if r == 0 || (r == '?' && c != '?') {
		return 0, 0, false
	}
	for set = 0; set < 3; set++ {
		for index = 0; index < 26; index++ {
			if set == 2 && index == 0 {
				continue
			}
			if zm.alphabet(set, index) == r {
				return set, index, true
			}
		}
	}
	return 0, 0, false
}

// Resolution is the number of words in dictionary entries and encoded
// text: 2 before version 4, 3 after, and declared by the dictionary in
// version 9.
func (zm *ZMachine) Resolution() int {
	if zm.resolution == 0 {
		zm.resolution = zm.findResolution()
	}
	return zm.resolution
}

func (zm *ZMachine) findResolution() int {
	if !zm.version.Indirect() {
		return zm.version.Resolution()
	}

	// The first dictionary entry ends with the word that has its top bit set.
	dict := zm.header.dictAddress
	entries := dict + 1 + uint32(zm.buf[dict]) + 3
	entryLength := int(zm.buf[dict+1+uint32(zm.buf[dict])])
	for i := 0; 2*i+1 < entryLength; i++ {
		if zm.GetUint16(entries+2*uint32(i))&0x8000 != 0 {
			return i + 1
		}
	}
	zm.fatal(ErrDictionaryLength, nil)
	return 0
}
