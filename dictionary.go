package zmachine

import (
	"strings"
)

// Completion results.
const (
	CompleteUnique = iota
	CompleteAmbiguous
	CompleteImpossible
)

// Words that old stories did not know, expanded before lookup when
// Options.ExpandAbbreviations is set.
var commandAbbreviations = map[uint8]string{
	'g': "again",
	'x': "examine",
	'z': "wait",
}

type dictionary struct {
	separators  []uint8
	entryLength uint32
	entryCount  int
	sorted      bool
	entries     uint32
}

func (zm *ZMachine) readDictionary(address uint32) dictionary {
	numSeparators := uint32(zm.buf[address])
	d := dictionary{
		separators:  zm.buf[address+1 : address+1+numSeparators],
		entryLength: uint32(zm.buf[address+1+numSeparators]),
		entries:     address + 1 + numSeparators + 3,
		sorted:      true,
	}
	count := int16(zm.GetUint16(address + 1 + numSeparators + 1))
	// A negative count marks an unsorted user dictionary.
	if count < 0 {
		d.sorted = false
		count = -count
	}
	d.entryCount = int(count)
	return d
}

func (d dictionary) isSeparator(c uint8) bool {
	for _, s := range d.separators {
		if s == c {
			return true
		}
	}
	return false
}

// LookupText finds the ZSCII word in the dictionary at dict.
// Return DICT_NOT_FOUND (= 0) if not found, address in dictionary otherwise.
// With PAD_FIRST or PAD_LAST padding a failed search returns the entry
// just after or just before the place the word would go.
func (zm *ZMachine) LookupText(word []uint8, padding uint8, dict uint32) uint32 {
	resolution := zm.Resolution()
	d := zm.readDictionary(dict)
	encodedText := zm.EncodeText(word, resolution, padding)

	compare := func(entry int) int {
		address := d.entries + uint32(entry)*d.entryLength
		for i := 0; i < resolution; i++ {
			dictValue := zm.GetUint16(address + 2*uint32(i))
			if encodedText[i] < dictValue {
				return -1
			} else if encodedText[i] > dictValue {
				return 1
			}
		}
		return 0
	}

	// Dictionary entries are sorted, so we can use binary search
	lowerBound := 0
	upperBound := d.entryCount - 1
	for lowerBound <= upperBound {
		currentIndex := lowerBound
		if d.sorted {
			currentIndex = lowerBound + (upperBound-lowerBound)/2
		}

		result := compare(currentIndex)
		if result == 0 {
			return d.entries + uint32(currentIndex)*d.entryLength
		}
		switch {
		case !d.sorted:
			lowerBound++
		case result > 0:
			lowerBound = currentIndex + 1
		default:
			upperBound = currentIndex - 1
		}
	}

	var entry int
	switch padding {
	case PAD_FIRST:
		entry = lowerBound
	case PAD_LAST:
		entry = upperBound
	default:
		return DICT_NOT_FOUND
	}
	if entry < 0 || entry >= d.entryCount {
		return DICT_NOT_FOUND
	}
	return d.entries + uint32(entry)*d.entryLength
}

// tokeniseWord adds the word at text+from to the parse buffer if there is
// room. With flag set unknown words leave their parse entry untouched.
func (zm *ZMachine) tokeniseWord(text uint32, length int, from int, parse uint32, dict uint32, flag bool) {
	maxTokens := zm.buf[parse]
	numTokens := zm.buf[parse+1]
	if numTokens >= maxTokens {
		return
	}
	numTokens++
	zm.storeb(uint16(parse+1), numTokens)

	word := zm.buf[text+uint32(from) : text+uint32(from)+uint32(length)]
	if expansion, ok := commandAbbreviations[word[0]]; ok &&
		length == 1 && zm.opts.ExpandAbbreviations && zm.version <= 4 {
		word = []uint8(expansion)
	}
	dictionaryAddress := zm.LookupText(word, PAD_EXACT, dict)
	if flag && dictionaryAddress == DICT_NOT_FOUND {
		return
	}

	// "Each block consists of the byte address of the word in the dictionary, if it is in the dictionary, or 0 if it isn't;
	// followed by a byte giving the number of letters in the word; and finally a byte giving the position in the text-buffer
	// of the first letter of the word.
	entry := parse + 2 + 4*uint32(numTokens-1)
	zm.storew(uint16(entry), uint16(dictionaryAddress))
	zm.storeb(uint16(entry+2), uint8(length))
	zm.storeb(uint16(entry+3), uint8(from))
}

// Tokenise splits the text buffer into words and fills the parse buffer.
// Separators from the dictionary are words of their own; spaces only
// divide words. dict 0 selects the story's dictionary.
func (zm *ZMachine) Tokenise(text uint32, parse uint32, dict uint32, flag bool) {
	if dict == 0 {
		dict = zm.header.dictAddress
	}
	d := zm.readDictionary(dict)
	zm.storeb(uint16(parse+1), 0)

	start, end := 1, len(zm.buf)-int(text)
	if zm.version >= 5 {
		start = 2
		end = start + int(zm.buf[text+1])
	}

	wordStart := -1
	for i := start; ; i++ {
		var ch uint8
		if i < end {
			ch = zm.buf[text+uint32(i)]
		}

		separator := ch != 0 && d.isSeparator(ch)
		if ch == ' ' || ch == 0 || separator {
			if wordStart >= 0 {
				zm.tokeniseWord(text, i-wordStart, wordStart, parse, dict, flag)
				wordStart = -1
			}
			if separator {
				zm.tokeniseWord(text, 1, i, parse, dict, flag)
			}
		} else if wordStart < 0 {
			wordStart = i
		}

		if ch == 0 {
			break
		}
	}
}

// Complete looks up the last word of prefix in the story's dictionary.
// It returns the characters that all matching entries share beyond the
// prefix and whether the match is unique, ambiguous or impossible.
func (zm *ZMachine) Complete(prefix string) (string, int) {
	if i := strings.LastIndexByte(prefix, ' '); i >= 0 {
		prefix = prefix[i+1:]
	}
	word := make([]uint8, 0, len(prefix))
	for _, r := range strings.ToLower(prefix) {
		c, _ := zm.unicodeToZSCII(r)
		word = append(word, c)
	}

	dict := zm.header.dictAddress
	minAddress := zm.LookupText(word, PAD_FIRST, dict)
	maxAddress := zm.LookupText(word, PAD_LAST, dict)
	if minAddress == DICT_NOT_FOUND || maxAddress == DICT_NOT_FOUND || minAddress > maxAddress {
		return "", CompleteImpossible
	}

	first := []rune(zm.dictionaryWord(minAddress))
	last := []rune(zm.dictionaryWord(maxAddress))
	n := len([]rune(prefix))
	if n > len(first) || n > len(last) {
		return "", CompleteImpossible
	}
	first, last = first[n:], last[n:]

	shared := 0
	for shared < len(first) && shared < len(last) && first[shared] == last[shared] {
		shared++
	}
	if minAddress == maxAddress {
		return string(first), CompleteUnique
	}
	return string(first[:shared]), CompleteAmbiguous
}

func (zm *ZMachine) dictionaryWord(address uint32) string {
	var sb strings.Builder
	zm.DecodeZString(address, func(r rune) {
		sb.WriteRune(r)
	})
	return sb.String()
}
