// Package key holds the participant-identity and cabinet types shared by
// the DKG and beacon packages. It is adapted from drand's key.Group,
// which plays the same "ordered list of participants with an index
// lookup" role for drand's own DKG/resharing group, generalised here to
// an opaque Address type instead of a network-identity struct (node
// identity, signing of envelopes and peer discovery are explicitly out
// of this core's scope; the embedder supplies Addresses that are
// meaningful to it).
package key

import "encoding/hex"

// Address is an opaque participant identity. It is defined as a string
// wrapping raw bytes (rather than []byte) so it can be used directly as
// a map key, the same trick github.com/libp2p/go-libp2p-core uses for
// peer.ID.
type Address string

// NewAddress wraps a raw byte identity.
func NewAddress(b []byte) Address { return Address(b) }

// Bytes returns the raw bytes behind the address.
func (a Address) Bytes() []byte { return []byte(a) }

// String returns a hex-encoded representation suitable for logging.
func (a Address) String() string { return hex.EncodeToString(a.Bytes()) }

// CabinetIndex is a participant's dense position within an ordered
// Cabinet, starting at zero.
type CabinetIndex = uint32

// Cabinet is the ordered set of participants for one DKG instance. Order
// matters: a participant's CabinetIndex is its position in this slice,
// and polynomial evaluation uses index+1 as the evaluation point.
type Cabinet struct {
	members         []Address
	identityToIndex map[Address]CabinetIndex
}

// NewCabinet builds a Cabinet from an ordered member list. Duplicate
// addresses collapse to their first occurrence's index, matching the
// spec's "identity-to-index mapping is rebuilt on each reset_cabinet".
func NewCabinet(members []Address) *Cabinet {
	idx := make(map[Address]CabinetIndex, len(members))
	for i, m := range members {
		if _, exists := idx[m]; !exists {
			idx[m] = uint32(i)
		}
	}
	return &Cabinet{members: append([]Address(nil), members...), identityToIndex: idx}
}

// Size returns n, the number of cabinet members.
func (c *Cabinet) Size() int { return len(c.members) }

// Members returns a copy of the ordered member list.
func (c *Cabinet) Members() []Address { return append([]Address(nil), c.members...) }

// At returns the address at the given cabinet index.
func (c *Cabinet) At(i CabinetIndex) Address { return c.members[i] }

// IndexOf returns the cabinet index of an address and whether it was
// found.
func (c *Cabinet) IndexOf(a Address) (CabinetIndex, bool) {
	i, ok := c.identityToIndex[a]
	return i, ok
}

// Contains reports whether the address belongs to the cabinet.
func (c *Cabinet) Contains(a Address) bool {
	_, ok := c.identityToIndex[a]
	return ok
}
