package zmachine

import (
	"strings"
)

// objectAddress returns the address of the object's entry. Object 0 and
// numbers past the version's limit are illegal.
func (zm *ZMachine) objectAddress(objectIndex uint16) uint32 {
	if objectIndex == NULL_OBJECT_INDEX || objectIndex > zm.version.MaxObject() {
		zm.runtimeError(ErrIllegalObject)
	}

	// Convert from 1-based (0 = NULL = no object) to 0-based
	// and skip the property defaults table.
	return zm.header.objTableAddress + zm.version.PropertyDefaults()*2 +
		uint32(objectIndex-1)*zm.version.ObjectEntrySize()
}

type objectLink int

const (
	linkParent objectLink = iota
	linkSibling
	linkChild
)

func (zm *ZMachine) linkOffset(link objectLink) uint32 {
	if zm.version <= 3 {
		return [...]uint32{OBJECT_PARENT_V3, OBJECT_SIBLING_V3, OBJECT_CHILD_V3}[link]
	}
	return [...]uint32{OBJECT_PARENT_V4, OBJECT_SIBLING_V4, OBJECT_CHILD_V4}[link]
}

func (zm *ZMachine) getLink(objectIndex uint16, link objectLink) uint16 {
	address := zm.objectAddress(objectIndex) + zm.linkOffset(link)
	if zm.version.ObjectFieldWidth() == 1 {
		return uint16(zm.buf[address])
	}
	return zm.GetUint16(address)
}

func (zm *ZMachine) setLink(objectIndex uint16, link objectLink, value uint16) {
	address := zm.objectAddress(objectIndex) + zm.linkOffset(link)
	if zm.version.ObjectFieldWidth() == 1 {
		zm.buf[address] = uint8(value)
	} else {
		zm.SetUint16(address, value)
	}
}

func (zm *ZMachine) GetParentObject(objectIndex uint16) uint16 {
	return zm.getLink(objectIndex, linkParent)
}

func (zm *ZMachine) GetSibling(objectIndex uint16) uint16 {
	return zm.getLink(objectIndex, linkSibling)
}

func (zm *ZMachine) GetFirstChild(objectIndex uint16) uint16 {
	return zm.getLink(objectIndex, linkChild)
}

func (zm *ZMachine) IsDirectParent(childIndex uint16, parentIndex uint16) bool {
	return zm.GetParentObject(childIndex) == parentIndex
}

// Unlink object from its parent
func (zm *ZMachine) UnlinkObject(objectIndex uint16) {
	parent := zm.GetParentObject(objectIndex)
	if parent == NULL_OBJECT_INDEX {
		return
	}

	olderSibling := zm.GetSibling(objectIndex)
	zm.setLink(objectIndex, linkParent, NULL_OBJECT_INDEX)
	zm.setLink(objectIndex, linkSibling, NULL_OBJECT_INDEX)

	// If we're the first child -> move to sibling
	younger := zm.GetFirstChild(parent)
	if younger == objectIndex {
		zm.setLink(parent, linkChild, olderSibling)
		return
	}
	for younger != NULL_OBJECT_INDEX {
		next := zm.GetSibling(younger)
		if next == objectIndex {
			zm.setLink(younger, linkSibling, olderSibling)
			return
		}
		younger = next
	}
}

// InsertObject makes objectIndex the first child of newParentIndex.
func (zm *ZMachine) InsertObject(objectIndex uint16, newParentIndex uint16) {
	zm.UnlinkObject(objectIndex)

	zm.setLink(objectIndex, linkParent, newParentIndex)
	zm.setLink(objectIndex, linkSibling, zm.GetFirstChild(newParentIndex))
	zm.setLink(newParentIndex, linkChild, objectIndex)
}

// attributeInRange checks an attribute number. Out of range numbers the
// running story is known to use are ignored without a report.
func (zm *ZMachine) attributeInRange(attribute uint16) bool {
	if attribute <= zm.version.MaxAttribute() {
		return true
	}
	if !zm.quirk.ignoresAttribute(attribute) {
		zm.runtimeError(ErrIllegalAttribute)
	}
	return false
}

// True if set
func (zm *ZMachine) TestObjectAttr(objectIndex uint16, attribute uint16) bool {
	objectEntryAddress := zm.objectAddress(objectIndex)
	byteIndex := uint32(attribute >> 3)
	mask := uint8(0x80 >> (attribute & 0x7))

	return zm.buf[objectEntryAddress+byteIndex]&mask != 0
}

func (zm *ZMachine) SetObjectAttr(objectIndex uint16, attribute uint16) {
	objectEntryAddress := zm.objectAddress(objectIndex)
	byteIndex := uint32(attribute >> 3)
	shift := 7 - (attribute & 0x7)

	zm.buf[objectEntryAddress+byteIndex] |= (1 << shift)
}

func (zm *ZMachine) ClearObjectAttr(objectIndex uint16, attribute uint16) {
	objectEntryAddress := zm.objectAddress(objectIndex)
	byteIndex := uint32(attribute >> 3)
	shift := 7 - (attribute & 0x7)

	zm.buf[objectEntryAddress+byteIndex] &= ^(1 << shift)
}

func (zm *ZMachine) propertyTable(objectIndex uint16) uint32 {
	offset := uint32(OBJECT_PROPS_V3)
	if zm.version > 3 {
		offset = OBJECT_PROPS_V4
	}
	return uint32(zm.GetUint16(zm.objectAddress(objectIndex) + offset))
}

func (zm *ZMachine) GetFirstPropertyAddress(objectIndex uint16) uint32 {
	propertiesAddress := zm.propertyTable(objectIndex)
	nameLength := uint32(zm.buf[propertiesAddress]) * 2 // in 2-byte words
	return propertiesAddress + nameLength + 1
}

func (zm *ZMachine) propertyMask() uint8 {
	if zm.version <= 3 {
		return 0x1F
	}
	return 0x3F
}

// propertyHeader decodes the size byte(s) at address: the property
// number, the address of its data and its length in bytes.
func (zm *ZMachine) propertyHeader(address uint32) (number uint16, data uint32, length uint16) {
	sizeByte := zm.buf[address]
	number = uint16(sizeByte & zm.propertyMask())

	if zm.version <= 3 {
		return number, address + 1, uint16(sizeByte>>5) + 1
	}
	if sizeByte&0x80 == 0 {
		return number, address + 1, uint16(sizeByte>>6&1) + 1
	}
	length = uint16(zm.buf[address+1] & 0x3F)
	if length == 0 {
		length = 64
	}
	return number, address + 2, length
}

// Returns prop data address, number of property bytes
// (0 if not found)
func (zm *ZMachine) GetObjectPropertyInfo(objectIndex uint16, propertyId uint16) (uint32, uint16) {
	propData := zm.GetFirstPropertyAddress(objectIndex)

	for {
		number, data, length := zm.propertyHeader(propData)
		// Props are sorted in descending order, 0 ends the list
		if number < propertyId || number == 0 {
			return 0, 0
		}
		if number == propertyId {
			return data, length
		}
		propData = data + uint32(length)
	}
}

func (zm *ZMachine) GetObjectPropertyAddress(objectIndex uint16, propertyId uint16) uint32 {
	address, _ := zm.GetObjectPropertyInfo(objectIndex, propertyId)
	return address
}

// GetNextObjectProperty returns the number of the property after
// propertyId, or the first one when propertyId is 0. ok is false when
// propertyId is not a property of the object.
func (zm *ZMachine) GetNextObjectProperty(objectIndex uint16, propertyId uint16) (next uint16, ok bool) {
	var nextAddress uint32

	// " if called with zero, it gives the first property number present."
	if propertyId == 0 {
		nextAddress = zm.GetFirstPropertyAddress(objectIndex)
	} else {
		propData, numBytes := zm.GetObjectPropertyInfo(objectIndex, propertyId)
		if propData == 0 {
			return 0, false
		}
		nextAddress = propData + uint32(numBytes)
	}
	// "zero, indicating the end of the property list"
	return uint16(zm.buf[nextAddress] & zm.propertyMask()), true
}

// GetObjectProperty reads a one or two byte property, falling back to
// the defaults table.
func (zm *ZMachine) GetObjectProperty(objectIndex uint16, propertyId uint16) uint16 {
	propData, numBytes := zm.GetObjectPropertyInfo(objectIndex, propertyId)
	if propData == 0 {
		return zm.GetPropertyDefault(propertyId)
	}
	if numBytes == 1 {
		return uint16(zm.buf[propData])
	}
	return zm.GetUint16(propData)
}

// SetObjectProperty reports false when the object lacks the property.
func (zm *ZMachine) SetObjectProperty(objectIndex uint16, propertyId uint16, value uint16) bool {
	propData, numBytes := zm.GetObjectPropertyInfo(objectIndex, propertyId)
	if propData == 0 {
		return false
	}
	if numBytes == 1 {
		zm.buf[propData] = uint8(value & 0xFF)
	} else {
		zm.SetUint16(propData, value)
	}
	return true
}

func (zm *ZMachine) GetPropertyDefault(propertyIndex uint16) uint16 {
	if propertyIndex < 1 || propertyIndex > zm.version.MaxProperty() {
		zm.runtimeError(ErrNoProperty)
		return 0
	}

	// 1-based -> 0-based
	propertyIndex--
	return zm.GetUint16(zm.header.objTableAddress + uint32(propertyIndex)*2)
}

// PropertyLength is the length of the property whose data starts at
// dataAddress, as returned by get_prop_addr.
func (zm *ZMachine) PropertyLength(dataAddress uint32) uint16 {
	if dataAddress == 0 {
		return 0
	}
	// To get size, we need to go 1 byte back
	sizeByte := zm.buf[dataAddress-1]
	switch {
	case zm.version <= 3:
		return uint16(sizeByte>>5) + 1
	case sizeByte&0x80 == 0:
		return uint16(sizeByte>>6) + 1
	}
	if length := uint16(sizeByte & 0x3F); length != 0 {
		return length
	}
	return 64
}

// ObjectName decodes the short name in the object's property table.
func (zm *ZMachine) ObjectName(objectIndex uint16) string {
	var sb strings.Builder
	zm.decodeObjectName(objectIndex, func(r rune) {
		sb.WriteRune(r)
	})
	return sb.String()
}

func (zm *ZMachine) PrintObjectName(objectIndex uint16) {
	zm.decodeObjectName(objectIndex, zm.printChar)
}

func (zm *ZMachine) decodeObjectName(objectIndex uint16, emit func(rune)) {
	table := zm.propertyTable(objectIndex)
	if zm.buf[table] == 0 {
		return
	}
	zm.DecodeZString(table+1, emit)
}
