package key

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressStringIsHex(t *testing.T) {
	a := NewAddress([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Equal(t, "deadbeef", a.String())
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, a.Bytes())
}

func TestAddressUsableAsMapKey(t *testing.T) {
	a := NewAddress([]byte("node-a"))
	b := NewAddress([]byte("node-b"))
	m := map[Address]int{a: 1, b: 2}
	require.Equal(t, 1, m[a])
	require.Equal(t, 2, m[b])
}

func addresses(names ...string) []Address {
	out := make([]Address, len(names))
	for i, n := range names {
		out[i] = NewAddress([]byte(n))
	}
	return out
}

func TestNewCabinetIndexing(t *testing.T) {
	members := addresses("a", "b", "c", "d")
	cab := NewCabinet(members)
	require.Equal(t, 4, cab.Size())

	for i, m := range members {
		idx, ok := cab.IndexOf(m)
		require.True(t, ok)
		require.Equal(t, CabinetIndex(i), idx)
		require.Equal(t, m, cab.At(idx))
		require.True(t, cab.Contains(m))
	}

	_, ok := cab.IndexOf(NewAddress([]byte("stranger")))
	require.False(t, ok)
	require.False(t, cab.Contains(NewAddress([]byte("stranger"))))
}

func TestNewCabinetDuplicateAddressKeepsFirstIndex(t *testing.T) {
	a := NewAddress([]byte("a"))
	b := NewAddress([]byte("b"))
	cab := NewCabinet([]Address{a, b, a})
	idx, ok := cab.IndexOf(a)
	require.True(t, ok)
	require.Equal(t, CabinetIndex(0), idx)
}

func TestCabinetMembersReturnsOrderedCopy(t *testing.T) {
	members := addresses("x", "y", "z")
	cab := NewCabinet(members)
	got := cab.Members()
	require.Equal(t, members, got)

	got[0] = NewAddress([]byte("mutated"))
	idx, ok := cab.IndexOf(members[0])
	require.True(t, ok)
	require.Equal(t, CabinetIndex(0), idx)
}
