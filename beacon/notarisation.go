package beacon

import (
	"errors"

	"github.com/fetchai/dkg-beacon/curve"
	"github.com/fetchai/dkg-beacon/key"
	"github.com/fetchai/dkg-beacon/poly"
)

// PublicKeyMessage pairs a member's public-key share with the round
// range it is valid for. Its Less ordering is the inverse of the natural
// < on round numbers, matching notarisation_manager.hpp's
// PublicKeyMessage::operator<.
type PublicKeyMessage struct {
	PublicKey  curve.G2
	RoundStart uint64
	RoundEnd   uint64
}

// Less implements the inverted ordering: a is Less than b when a's
// round range starts later, so that sorting a slice of these puts the
// message covering the current round first when rounds only increase.
func (a PublicKeyMessage) Less(b PublicKeyMessage) bool {
	return a.RoundStart > b.RoundStart
}

// aeon bundles the per-epoch notarisation key material for one cabinet
// member, grounded on notarisation_manager.hpp's AeonNotarisationUnit.
// members fixes the cabinet order the aggregation hash is computed
// over; it never reorders once set.
type aeon struct {
	publicKeys  map[key.Address]PublicKeyMessage
	secretShare curve.Fr
	groupKey    curve.G2
	members     []key.Address
	threshold   uint32
	roundStart  uint64
	roundEnd    uint64
}

// NotarisationManager computes and verifies BDN aggregate BLS
// signatures over arbitrary notarised statements (e.g. block headers),
// on top of a completed DKG's key material. One instance can track
// several overlapping aeons, keyed by their round-start.
type NotarisationManager struct {
	self           key.Address
	aggregationPad string
	aeons          map[uint64]*aeon
}

// NewNotarisationManager returns an empty manager using pad as the
// domain-separation prefix for aggregation coefficients. Pass
// DefaultAggregationPad unless the embedder's config overrides it.
func NewNotarisationManager(self key.Address, pad string) *NotarisationManager {
	return &NotarisationManager{self: self, aggregationPad: pad, aeons: make(map[uint64]*aeon)}
}

// SetAeonDetails installs the key material for the aeon starting at
// roundStart, ending at roundEnd, using the cabinet member ordering and
// per-member public-key shares produced by a completed DKG. members'
// order is the fixed order aggregation coefficients hash over.
func (n *NotarisationManager) SetAeonDetails(
	roundStart, roundEnd uint64,
	threshold uint32,
	members []key.Address,
	secretShare curve.Fr,
	groupKey curve.G2,
	publicKeyShares []curve.G2,
) error {
	if len(members) != len(publicKeyShares) {
		return errors.New("beacon: members and public key shares length mismatch")
	}
	pk := make(map[key.Address]PublicKeyMessage, len(members))
	for i, m := range members {
		pk[m] = PublicKeyMessage{PublicKey: publicKeyShares[i], RoundStart: roundStart, RoundEnd: roundEnd}
	}
	n.aeons[roundStart] = &aeon{
		publicKeys:  pk,
		secretShare: secretShare,
		groupKey:    groupKey,
		members:     append([]key.Address(nil), members...),
		threshold:   threshold,
		roundStart:  roundStart,
		roundEnd:    roundEnd,
	}
	return nil
}

func (n *NotarisationManager) aeonFor(round uint64) (*aeon, error) {
	var best *aeon
	for _, a := range n.aeons {
		if round < a.roundStart || round > a.roundEnd {
			continue
		}
		if best == nil || a.roundStart > best.roundStart {
			best = a
		}
	}
	if best == nil {
		return nil, errors.New("beacon: no aeon covers the requested round")
	}
	return best, nil
}

// Index returns self's position within the aeon covering round.
func (n *NotarisationManager) Index(round uint64) (key.CabinetIndex, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return 0, err
	}
	for i, m := range a.members {
		if m == n.self {
			return uint32(i), nil
		}
	}
	return 0, errors.New("beacon: self is not a member of the aeon covering this round")
}

// CanSign reports whether self holds key material for round.
func (n *NotarisationManager) CanSign(round uint64) bool {
	_, err := n.Index(round)
	return err == nil
}

// Threshold returns t+1, the number of shares required to reconstruct a
// non-aggregate threshold signature for the aeon covering round.
func (n *NotarisationManager) Threshold(round uint64) (uint32, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return 0, err
	}
	return a.threshold + 1, nil
}

// Members returns the notarisation cabinet covering round, in its fixed
// aggregation order.
func (n *NotarisationManager) Members(round uint64) ([]key.Address, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return nil, err
	}
	return append([]key.Address(nil), a.members...), nil
}

// Sign returns self's BLS signature share over statement, for the aeon
// covering round.
func (n *NotarisationManager) Sign(round uint64, statement []byte) (curve.G1, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return nil, err
	}
	h := curve.HashToG1(statement)
	return curve.ScalarMulG1(a.secretShare, h), nil
}

// Verify checks a single member's signature share against its
// public-key share.
func (n *NotarisationManager) Verify(round uint64, signer key.Address, statement []byte, signature curve.G1) (bool, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return false, err
	}
	pkMsg, ok := a.publicKeys[signer]
	if !ok {
		return false, errors.New("beacon: signer is not a member of the aeon covering this round")
	}
	h := curve.HashToG1(statement)
	lhs := curve.Pairing(signature, curve.G())
	rhs := curve.Pairing(h, pkMsg.PublicKey)
	return curve.EqualGT(lhs, rhs), nil
}

// aggregationCoefficient derives the per-signer BDN coefficient
// alpha_i = hash_to_Fr(pad || pk_i || pk_1 || ... || pk_n), hashed over
// the aeon's full fixed cabinet order (not just the signers of one
// particular message), so every verifier derives the same coefficients
// regardless of who actually contributed a share.
func aggregationCoefficient(pad string, signer key.Address, cabinetOrder []key.Address, pubKeys map[key.Address]curve.G2) (curve.Fr, error) {
	signerPk, ok := pubKeys[signer]
	if !ok {
		return nil, errors.New("beacon: missing public key for aggregation")
	}
	buf := make([]byte, 0, 512)
	buf = append(buf, []byte(pad)...)
	appendG2 := func(p curve.G2) error {
		enc, err := curve.ToStringG2(p)
		if err != nil {
			return err
		}
		buf = append(buf, []byte(enc)...)
		return nil
	}
	if err := appendG2(signerPk); err != nil {
		return nil, err
	}
	for _, member := range cabinetOrder {
		pk, ok := pubKeys[member]
		if !ok {
			return nil, errors.New("beacon: missing public key for aggregation")
		}
		if err := appendG2(pk); err != nil {
			return nil, err
		}
	}
	return curve.HashToFr(buf), nil
}

// ComputeAggregateSignature combines one signature share per signer in
// `signatures` into a single BDN aggregate signature: sum_i alpha_i *
// sig_i, where alpha_i is each signer's rogue-key-resistant coefficient
// computed over the aeon's full cabinet order.
func (n *NotarisationManager) ComputeAggregateSignature(round uint64, signatures map[key.Address]curve.G1) (curve.G1, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return nil, err
	}
	return computeAggregateSignature(n.aggregationPad, signatures, a.members, memberPubKeys(a))
}

func memberPubKeys(a *aeon) map[key.Address]curve.G2 {
	pks := make(map[key.Address]curve.G2, len(a.publicKeys))
	for addr, msg := range a.publicKeys {
		pks[addr] = msg.PublicKey
	}
	return pks
}

func computeAggregateSignature(pad string, signatures map[key.Address]curve.G1, cabinetOrder []key.Address, pubKeys map[key.Address]curve.G2) (curve.G1, error) {
	if len(signatures) == 0 {
		return nil, errors.New("beacon: no signature shares to aggregate")
	}
	result := curve.ZeroG1()
	for _, signer := range cabinetOrder {
		sig, contributed := signatures[signer]
		if !contributed {
			continue
		}
		alpha, err := aggregationCoefficient(pad, signer, cabinetOrder, pubKeys)
		if err != nil {
			return nil, err
		}
		result = curve.AddG1(result, curve.ScalarMulG1(alpha, sig))
	}
	return result, nil
}

// VerifyAggregateSignature verifies a signature previously produced by
// ComputeAggregateSignature against the aggregate public key
// sum_i alpha_i * pk_i over the contributing signers.
func (n *NotarisationManager) VerifyAggregateSignature(round uint64, signers []key.Address, statement []byte, aggregateSignature curve.G1) (bool, error) {
	a, err := n.aeonFor(round)
	if err != nil {
		return false, err
	}
	return VerifyAggregateSignature(n.aggregationPad, a.members, signers, memberPubKeys(a), statement, aggregateSignature)
}

// VerifyAggregateSignature is the static, aeon-independent form: given
// the fixed cabinet order, the signer subset that actually contributed,
// and everyone's public keys, verify an aggregate signature over
// statement. Exposed separately so a verifier that only has the
// public-key shares (no live NotarisationManager) can still check an
// aggregate signature, mirroring notarisation_manager.hpp's static
// VerifyAggregateSignature.
func VerifyAggregateSignature(pad string, cabinetOrder, signers []key.Address, pubKeys map[key.Address]curve.G2, statement []byte, aggregateSignature curve.G1) (bool, error) {
	if len(signers) == 0 {
		return false, errors.New("beacon: no signers supplied")
	}
	contributed := make(map[key.Address]struct{}, len(signers))
	for _, s := range signers {
		contributed[s] = struct{}{}
	}
	aggregateKey := curve.ZeroG2()
	for _, member := range cabinetOrder {
		if _, ok := contributed[member]; !ok {
			continue
		}
		pk, ok := pubKeys[member]
		if !ok {
			return false, errors.New("beacon: missing public key for signer")
		}
		alpha, err := aggregationCoefficient(pad, member, cabinetOrder, pubKeys)
		if err != nil {
			return false, err
		}
		aggregateKey = curve.AddG2(aggregateKey, curve.ScalarMulG2(alpha, pk))
	}
	h := curve.HashToG1(statement)
	lhs := curve.Pairing(aggregateSignature, curve.G())
	rhs := curve.Pairing(h, aggregateKey)
	return curve.EqualGT(lhs, rhs), nil
}

// ThresholdSign combines t+1 individual signature shares into a single
// non-aggregate threshold signature via Lagrange interpolation, the
// alternative to BDN aggregation when every signer shares one group key
// (the same reconstruction poly uses for beacon entropy signing).
func ThresholdSign(shares []poly.SignatureShare) (curve.G1, error) {
	return poly.LagrangeInterpolateG1(shares)
}
