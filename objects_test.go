package zmachine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numTestObjects = 12

// forestStory has objects 1-12 without parents, except that 10 holds 7.
func forestStory(version uint8) *testStory {
	s := newTestStory(version)
	for n := uint16(1); n <= numTestObjects; n++ {
		switch n {
		case 7:
			s.object(n, 10, 0, 0, "")
		case 10:
			s.object(n, 0, 0, 7, "")
		default:
			s.object(n, 0, 0, 0, "")
		}
	}
	return s
}

func TestInsertObjectAtFront(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		tm := newTestMachine(t, forestStory(version))

		tm.InsertObject(5, 10)
		assert.Equal(t, uint16(5), tm.GetFirstChild(10))
		assert.Equal(t, uint16(7), tm.GetSibling(5))
		assert.Equal(t, uint16(10), tm.GetParentObject(5))
		assert.Equal(t, uint16(0), tm.GetSibling(7))
	}
}

func TestUnlinkObject(t *testing.T) {
	tm := newTestMachine(t, forestStory(3))
	for _, n := range []uint16{1, 2, 3} {
		tm.InsertObject(n, 10)
	}
	// 10: 3, 2, 1, 7

	tm.UnlinkObject(2)
	assert.Equal(t, uint16(0), tm.GetParentObject(2))
	assert.Equal(t, uint16(0), tm.GetSibling(2))
	assert.Equal(t, []uint16{3, 1, 7}, tm.children(10))

	tm.UnlinkObject(3)
	assert.Equal(t, []uint16{1, 7}, tm.children(10))

	tm.UnlinkObject(7)
	assert.Equal(t, []uint16{1}, tm.children(10))

	// Unlinking an object without a parent changes nothing.
	tm.UnlinkObject(7)
	assert.Equal(t, []uint16{1}, tm.children(10))
}

func (tm *testMachine) children(parent uint16) []uint16 {
	var out []uint16
	for c := tm.GetFirstChild(parent); c != 0; c = tm.GetSibling(c) {
		out = append(out, c)
		if len(out) > numTestObjects {
			break
		}
	}
	return out
}

// objectModel is the expected tree: the parent and ordered children of
// every object.
type objectModel struct {
	parent   map[uint16]uint16
	children map[uint16][]uint16
}

func (m *objectModel) remove(o uint16) {
	p := m.parent[o]
	if p == 0 {
		return
	}
	kids := m.children[p]
	for i, c := range kids {
		if c == o {
			m.children[p] = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	m.parent[o] = 0
}

func (m *objectModel) insert(o, dest uint16) {
	m.remove(o)
	m.parent[o] = dest
	m.children[dest] = append([]uint16{o}, m.children[dest]...)
}

func (m *objectModel) isAncestor(a, o uint16) bool {
	for p := o; p != 0; p = m.parent[p] {
		if p == a {
			return true
		}
	}
	return false
}

func TestObjectTreeInvariants(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		tm := newTestMachine(t, forestStory(version))
		m := &objectModel{
			parent:   map[uint16]uint16{7: 10},
			children: map[uint16][]uint16{10: {7}},
		}
		rng := rand.New(rand.NewSource(int64(version)))

		for step := 0; step < 500; step++ {
			o := uint16(1 + rng.Intn(numTestObjects))
			if rng.Intn(3) == 0 {
				tm.UnlinkObject(o)
				m.remove(o)
				assert.Zero(t, tm.GetParentObject(o))
				assert.Zero(t, tm.GetSibling(o))
			} else {
				dest := uint16(1 + rng.Intn(numTestObjects))
				// Moving an object into its own subtree is a story bug.
				if m.isAncestor(o, dest) {
					continue
				}
				tm.InsertObject(o, dest)
				m.insert(o, dest)
			}

			seen := map[uint16]uint16{}
			for p := uint16(1); p <= numTestObjects; p++ {
				kids := tm.children(p)
				require.Equal(t, nilIfEmpty(m.children[p]), nilIfEmpty(kids), "children of %d after step %d", p, step)
				for _, c := range kids {
					_, dup := seen[c]
					require.False(t, dup, "object %d in two child chains", c)
					seen[c] = p
					require.Equal(t, p, tm.GetParentObject(c))
				}
			}
			for n := uint16(1); n <= numTestObjects; n++ {
				require.Equal(t, m.parent[n], tm.GetParentObject(n), "parent of %d", n)
			}
		}
	}
}

func nilIfEmpty(s []uint16) []uint16 {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestAttributes(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		tm := newTestMachine(t, forestStory(version))
		last := tm.version.MaxAttribute()

		for _, a := range []uint16{0, 7, 8, last} {
			assert.False(t, tm.TestObjectAttr(4, a))
			tm.SetObjectAttr(4, a)
			assert.True(t, tm.TestObjectAttr(4, a))
		}
		tm.ClearObjectAttr(4, 7)
		assert.False(t, tm.TestObjectAttr(4, 7))
		assert.True(t, tm.TestObjectAttr(4, 8))
		assert.False(t, tm.TestObjectAttr(5, 8))

		err := tm.guarded(func() { tm.attributeInRange(last + 1) })
		assert.ErrorIs(t, err, ErrIllegalAttribute)
	}
}

func TestAttributeQuirk(t *testing.T) {
	s := forestStory(5)
	putWord(s.mem, H_RELEASE, 21)
	copy(s.mem[H_SERIAL:], "871214")
	tm := newTestMachine(t, s)

	var ok bool
	require.NoError(t, tm.guarded(func() { ok = tm.attributeInRange(48) }))
	assert.False(t, ok)
	assert.Zero(t, tm.ErrorCount(ErrIllegalAttribute))

	err := tm.guarded(func() { tm.attributeInRange(49) })
	assert.ErrorIs(t, err, ErrIllegalAttribute)
}

func TestIllegalObject(t *testing.T) {
	tm := newTestMachine(t, forestStory(3))
	err := tm.guarded(func() { tm.GetParentObject(0) })
	assert.ErrorIs(t, err, ErrIllegalObject)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrIllegalObject, rerr.Code)
}

func propertyStory(version uint8) *testStory {
	s := newTestStory(version)
	s.propertyDefault(3, 0x1234)
	s.object(1, 0, 0, 0, "brass lamp",
		testProp{18, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		testProp{12, []byte{0xAB, 0xCD}},
		testProp{5, []byte{0x42}},
	)
	s.object(2, 0, 0, 0, "")
	return s
}

func TestProperties(t *testing.T) {
	for _, version := range []uint8{3, 5} {
		tm := newTestMachine(t, propertyStory(version))

		assert.Equal(t, uint16(0xABCD), tm.GetObjectProperty(1, 12))
		assert.Equal(t, uint16(0x42), tm.GetObjectProperty(1, 5))
		assert.Equal(t, uint16(0x1234), tm.GetObjectProperty(1, 3), "default")

		addr := tm.GetObjectPropertyAddress(1, 18)
		require.NotZero(t, addr)
		assert.Equal(t, uint16(8), tm.PropertyLength(addr))
		assert.Equal(t, uint8(1), tm.buf[addr])
		assert.Equal(t, uint16(2), tm.PropertyLength(tm.GetObjectPropertyAddress(1, 12)))
		assert.Equal(t, uint16(1), tm.PropertyLength(tm.GetObjectPropertyAddress(1, 5)))
		assert.Zero(t, tm.GetObjectPropertyAddress(1, 13))
		assert.Zero(t, tm.PropertyLength(0))

		next, ok := tm.GetNextObjectProperty(1, 0)
		assert.True(t, ok)
		assert.Equal(t, uint16(18), next)
		next, _ = tm.GetNextObjectProperty(1, 18)
		assert.Equal(t, uint16(12), next)
		next, _ = tm.GetNextObjectProperty(1, 5)
		assert.Equal(t, uint16(0), next)
		_, ok = tm.GetNextObjectProperty(1, 7)
		assert.False(t, ok)

		assert.True(t, tm.SetObjectProperty(1, 12, 0x0102))
		assert.Equal(t, uint16(0x0102), tm.GetObjectProperty(1, 12))
		assert.True(t, tm.SetObjectProperty(1, 5, 0x0199))
		assert.Equal(t, uint16(0x99), tm.GetObjectProperty(1, 5))
		assert.False(t, tm.SetObjectProperty(1, 3, 1))

		assert.Equal(t, "brass lamp", tm.ObjectName(1))
		assert.Equal(t, "", tm.ObjectName(2))
	}
}
