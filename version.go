package zmachine

// StoryVersion is the Z-machine version byte of a story file. The version
// decides address packing, object layout, frame encoding and text details;
// the accessors below are the only place those choices are made.
type StoryVersion uint8

func (v StoryVersion) Valid() bool {
	return v >= 1 && v <= 9
}

// " Given a packed address P, the formula to obtain the corresponding byte address B is:
//  2P           Versions 1, 2 and 3
//  4P           Versions 4 and 5
//  4P + 8R_O    Versions 6 and 7, for routine calls
//  4P + 8S_O    Versions 6 and 7, for print_paddr
//  8P           Version 8"
// Version 9 addresses are indirect: the byte address is the 32 bit word
// stored at 4P.
func (v StoryVersion) PackingMultiplier() uint32 {
	switch {
	case v <= 3:
		return 2
	case v <= 7:
		return 4
	case v == 8:
		return 8
	}
	return 4
}

// Indirect reports whether packed addresses go through an address table.
func (v StoryVersion) Indirect() bool {
	return v == 9
}

// HasPackingOffset reports whether routine and string offsets from the
// header are added to packed addresses.
func (v StoryVersion) HasPackingOffset() bool {
	return v == 6 || v == 7
}

func (v StoryVersion) ObjectFieldWidth() uint32 {
	if v <= 3 {
		return 1
	}
	return 2
}

func (v StoryVersion) ObjectEntrySize() uint32 {
	if v <= 3 {
		return 9
	}
	return 14
}

func (v StoryVersion) MaxObject() uint16 {
	if v <= 3 {
		return 255
	}
	return 0xFFFF
}

func (v StoryVersion) MaxAttribute() uint16 {
	if v <= 3 {
		return 31
	}
	return 47
}

func (v StoryVersion) AttributeBytes() uint32 {
	if v <= 3 {
		return 4
	}
	return 6
}

func (v StoryVersion) PropertyDefaults() uint32 {
	if v <= 3 {
		return 31
	}
	return 63
}

func (v StoryVersion) MaxProperty() uint16 {
	return uint16(v.PropertyDefaults())
}

// HasDefaultLocals reports whether routine headers carry initial values
// for their locals.
func (v StoryVersion) HasDefaultLocals() bool {
	return v <= 4
}

// Resolution is the number of words in a dictionary word. Version 9
// dictionaries declare it by their entries; see ZMachine.Resolution.
func (v StoryVersion) Resolution() int {
	if v <= 3 {
		return 2
	}
	return 3
}

func (v StoryVersion) FileLengthScale() uint32 {
	switch {
	case v <= 3:
		return 2
	case v <= 5:
		return 4
	}
	return 8
}

// HasTopLevelStack reports whether the evaluation stack can hold values
// outside of any routine. Version 6 starts inside a main routine.
func (v StoryVersion) HasTopLevelStack() bool {
	return v != 6
}

// Abbreviations returns how many Z-characters introduce abbreviations.
func (v StoryVersion) Abbreviations() int {
	switch v {
	case 1:
		return 0
	case 2:
		return 1
	}
	return 3
}

// HasExtended reports whether opcode 0xBE escapes to the extended set.
func (v StoryVersion) HasExtended() bool {
	return v >= 5
}
