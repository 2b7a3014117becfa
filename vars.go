package zmachine

import (
	log "github.com/sirupsen/logrus"
)

const (
	OPERAND_LARGE    = 0x0
	OPERAND_SMALL    = 0x1
	OPERAND_VARIABLE = 0x2
	OPERAND_OMITTED  = 0x3

	MAX_STACK = 1024

	// Byte offsets inside a V1-3 (9 byte) or V4+ (14 byte) object entry.
	OBJECT_PARENT_V3  = 4
	OBJECT_SIBLING_V3 = 5
	OBJECT_CHILD_V3   = 6
	OBJECT_PROPS_V3   = 7
	OBJECT_PARENT_V4  = 6
	OBJECT_SIBLING_V4 = 8
	OBJECT_CHILD_V4   = 10
	OBJECT_PROPS_V4   = 12
	NULL_OBJECT_INDEX = 0

	DICT_NOT_FOUND = 0

	// Padding Z-characters for dictionary lookups.
	PAD_EXACT = 0x05
	PAD_FIRST = 0x00
	PAD_LAST  = 0x1F

	MAX_NESTING        = 16
	TEXT_BUFFER_SIZE   = 200
	INPUT_BUFFER_SIZE  = 200
	DEFAULT_UNDO_SLOTS = 25

	ZC_RETURN      = 13
	ZC_TIME_OUT    = 0
	ZC_ESCAPE      = 27
	UNICODE_ESCAPE = 0x3FF
)

// Header byte offsets.
const (
	H_VERSION             = 0x00
	H_CONFIG              = 0x01
	H_RELEASE             = 0x02
	H_RESIDENT_SIZE       = 0x04
	H_START_PC            = 0x06
	H_DICTIONARY          = 0x08
	H_OBJECTS             = 0x0A
	H_GLOBALS             = 0x0C
	H_DYNAMIC_SIZE        = 0x0E
	H_FLAGS               = 0x10
	H_SERIAL              = 0x12
	H_ABBREVIATIONS       = 0x18
	H_FILE_SIZE           = 0x1A
	H_CHECKSUM            = 0x1C
	H_INTERPRETER_NUMBER  = 0x1E
	H_INTERPRETER_VERSION = 0x1F
	H_SCREEN_ROWS         = 0x20
	H_SCREEN_COLS         = 0x21
	H_SCREEN_WIDTH        = 0x22
	H_SCREEN_HEIGHT       = 0x24
	H_FONT_HEIGHT         = 0x26
	H_FONT_WIDTH          = 0x27
	H_FUNCTIONS_OFFSET    = 0x28
	H_STRINGS_OFFSET      = 0x2A
	H_DEFAULT_BACKGROUND  = 0x2C
	H_DEFAULT_FOREGROUND  = 0x2D
	H_TERMINATING_KEYS    = 0x2E
	H_LINE_WIDTH          = 0x30
	H_STANDARD_HIGH       = 0x32
	H_STANDARD_LOW        = 0x33
	H_ALPHABET            = 0x34
	H_EXTENSION_TABLE     = 0x36

	HEADER_SIZE = 0x40
)

// Bits of the flags word at H_FLAGS.
const (
	SCRIPTING_FLAG  = 0x0001
	FIXED_FONT_FLAG = 0x0002
	REFRESH_FLAG    = 0x0004
	GRAPHICS_FLAG   = 0x0008
	OLD_SOUND_FLAG  = 0x0010
	UNDO_FLAG       = 0x0010
	MOUSE_FLAG      = 0x0020
	COLOUR_FLAG     = 0x0040
	SOUND_FLAG      = 0x0080
	MENU_FLAG       = 0x0100
)

// Bits of the configuration byte at H_CONFIG.
const (
	CONFIG_BYTE_SWAPPED = 0x01
	CONFIG_TIME         = 0x02
	CONFIG_TWODISKS     = 0x04
	CONFIG_TANDY        = 0x08
	CONFIG_NOSTATUSLINE = 0x10
	CONFIG_SPLITSCREEN  = 0x20
	CONFIG_PROPORTIONAL = 0x40

	CONFIG_COLOUR     = 0x01
	CONFIG_PICTURES   = 0x02
	CONFIG_BOLDFACE   = 0x04
	CONFIG_EMPHASIS   = 0x08
	CONFIG_FIXED      = 0x10
	CONFIG_SOUND      = 0x20
	CONFIG_TIMEDINPUT = 0x80
)

var alphabets = []string{"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	" \n0123456789.,!?_#'\"/\\-:()"}

// Version 1 has no newline in A2 and an extra '<'.
const alphabetV1A2 = " 0123456789.,!?_#'\"/\\<-:()"

// ZHeader caches the fixed-offset story header fields.
type ZHeader struct {
	Version           uint8
	Config            uint8
	Release           uint16
	hiMemBase         uint16
	ip                uint16
	dictAddress       uint32
	objTableAddress   uint32
	globalVarAddress  uint32
	staticMemAddress  uint32
	Flags             uint16
	Serial            [6]byte
	abbreviationTable uint32
	FileSize          uint16
	Checksum          uint16
	functionsOffset   uint16
	stringsOffset     uint16
	terminatingKeys   uint32
	alphabetTable     uint32
	extensionTable    uint32
	unicodeTable      uint32
}

func (h *ZHeader) Read(buf []byte) {

	h.Version = buf[H_VERSION]
	h.Config = buf[H_CONFIG]
	h.Release = GetUint16(buf, H_RELEASE)
	h.hiMemBase = GetUint16(buf, H_RESIDENT_SIZE)
	h.ip = GetUint16(buf, H_START_PC)
	h.dictAddress = uint32(GetUint16(buf, H_DICTIONARY))
	h.objTableAddress = uint32(GetUint16(buf, H_OBJECTS))
	h.globalVarAddress = uint32(GetUint16(buf, H_GLOBALS))
	h.staticMemAddress = uint32(GetUint16(buf, H_DYNAMIC_SIZE))
	h.Flags = GetUint16(buf, H_FLAGS)
	copy(h.Serial[:], buf[H_SERIAL:H_SERIAL+6])
	h.abbreviationTable = uint32(GetUint16(buf, H_ABBREVIATIONS))
	h.FileSize = GetUint16(buf, H_FILE_SIZE)
	h.Checksum = GetUint16(buf, H_CHECKSUM)

	h.functionsOffset, h.stringsOffset = 0, 0
	h.terminatingKeys, h.alphabetTable, h.extensionTable, h.unicodeTable = 0, 0, 0, 0
	if h.Version == 6 || h.Version == 7 || h.Version == 9 {
		h.functionsOffset = GetUint16(buf, H_FUNCTIONS_OFFSET)
		h.stringsOffset = GetUint16(buf, H_STRINGS_OFFSET)
	}
	if h.Version >= 5 {
		h.terminatingKeys = uint32(GetUint16(buf, H_TERMINATING_KEYS))
		h.alphabetTable = uint32(GetUint16(buf, H_ALPHABET))
		h.extensionTable = uint32(GetUint16(buf, H_EXTENSION_TABLE))
		// Word 3 of the extension table points at the Unicode translation table.
		if h.extensionTable != 0 && int(h.extensionTable)+8 <= len(buf) && GetUint16(buf, h.extensionTable) >= 3 {
			h.unicodeTable = uint32(GetUint16(buf, h.extensionTable+6))
		}
	}

	log.Debugf("End of dyn mem: 0x%X", h.staticMemAddress)
	log.Debugf("Global vars: 0x%X", h.globalVarAddress)
}

// StoryLength is the file length declared by the header, in bytes.
func (h *ZHeader) StoryLength() uint32 {
	return uint32(h.FileSize) * StoryVersion(h.Version).FileLengthScale()
}

func GetUint16(buf []byte, offset uint32) uint16 {
	return (uint16(buf[offset]) << 8) | (uint16)(buf[offset+1])
}

func GetUint32(buf []byte, offset uint32) uint32 {
	return (uint32(buf[offset]) << 24) | (uint32(buf[offset+1]) << 16) | (uint32(buf[offset+2]) << 8) | uint32(buf[offset+3])
}
