package beacon

import (
	"errors"
	"fmt"

	"github.com/fetchai/dkg-beacon/curve"
	"github.com/fetchai/dkg-beacon/key"
	"github.com/fetchai/dkg-beacon/poly"
)

// AddResult enumerates the outcomes of adding a signature share, mirroring
// the original source's BeaconManager::AddResult enum.
type AddResult int

const (
	AddSuccess AddResult = iota
	AddNotMember
	AddAlreadyAdded
	AddInvalid
)

// DuplicateCoefficientsError is returned when AddCoefficients or
// AddQualCoefficients is called twice for the same dealer with a
// non-zero slot already stored.
type DuplicateCoefficientsError struct {
	From key.Address
}

func (e *DuplicateCoefficientsError) Error() string {
	return fmt.Sprintf("beacon: duplicate coefficients received from %s", e.From)
}

// Output is the snapshot of what a successful DKG run produces: the
// group public key, per-member public-key shares, this node's secret
// share, and QUAL. Grounded on original_source's beacon::DkgOutput.
type Output struct {
	SecretShare     curve.Fr
	GroupPublicKey  curve.G2
	PublicKeyShares []curve.G2
	Qual            []key.Address
}

// reconstructionEntry tracks, for one misbehaving dealer, which cabinet
// positions contributed a reconstruction share and what they contributed.
type reconstructionEntry struct {
	contributors map[key.CabinetIndex]struct{}
	shares       map[key.CabinetIndex]curve.Fr
}

// BeaconManager is the DKG arithmetic engine (C3). It holds no internal
// lock: spec 4.3 and 5 both specify the caller (the C5 setup service)
// serialises every call.
type BeaconManager struct {
	cabinet      *key.Cabinet
	threshold    uint32
	cabinetIndex key.CabinetIndex
	self         key.Address

	// Own dealer polynomials, set by GenerateCoefficients.
	a, b []curve.Fr
	zi   curve.Fr // a[0], this node's share of the secret it deals
	xi   curve.Fr // accumulated zero-knowledge randomness (sum of received s')

	// Per-dealer state, indexed by CabinetIndex.
	C    [][]curve.G2 // Pedersen commitments C_{i,.}
	A    [][]curve.G2 // qual coefficients A_{i,.}
	gS   [][]curve.G2 // g^{s_{i,self}}, recomputed opportunistically
	sij  []curve.Fr   // s_{i,self} shares received from each dealer i
	spij []curve.Fr   // s'_{i,self}

	// Shares this node deals to everyone else, precomputed once.
	ownS, ownSPrime []curve.Fr

	reconstructionShares map[key.Address]*reconstructionEntry

	secretShare     curve.Fr
	groupPublicKey  curve.G2
	publicKeyShares []curve.G2
	qual            map[key.Address]struct{}

	// Signing state.
	currentMessage  []byte
	alreadySigned   map[key.Address]struct{}
	signatureBuffer map[key.CabinetIndex]curve.G1
}

// NewBeaconManager returns a manager with no cabinet configured; call
// ResetCabinet before use.
func NewBeaconManager() *BeaconManager {
	return &BeaconManager{}
}

// ResetCabinet sets n, t, rebuilds the identity-to-index mapping, sizes
// all buffers, and clears QUAL and outputs. Safe to call at any state.
func (m *BeaconManager) ResetCabinet(self key.Address, cabinet *key.Cabinet, threshold uint32) error {
	idx, ok := cabinet.IndexOf(self)
	if !ok {
		return fmt.Errorf("beacon: self %s is not a member of the cabinet", self)
	}
	n := cabinet.Size()
	m.cabinet = cabinet
	m.threshold = threshold
	m.cabinetIndex = idx
	m.self = self

	m.a, m.b = nil, nil
	m.zi, m.xi = curve.ZeroFr(), curve.ZeroFr()

	m.C = make([][]curve.G2, n)
	m.A = make([][]curve.G2, n)
	m.gS = make([][]curve.G2, n)
	m.sij = make([]curve.Fr, n)
	m.spij = make([]curve.Fr, n)
	for i := 0; i < n; i++ {
		m.sij[i] = curve.ZeroFr()
		m.spij[i] = curve.ZeroFr()
	}

	m.ownS, m.ownSPrime = nil, nil
	m.reconstructionShares = make(map[key.Address]*reconstructionEntry)

	m.secretShare = curve.ZeroFr()
	m.groupPublicKey = curve.ZeroG2()
	m.publicKeyShares = nil
	m.qual = make(map[key.Address]struct{})

	m.currentMessage = nil
	m.alreadySigned = make(map[key.Address]struct{})
	m.signatureBuffer = make(map[key.CabinetIndex]curve.G1)
	return nil
}

// GenerateCoefficients samples fresh random degree-t polynomials a, b,
// stores z_i = a_0, computes this node's own Pedersen commitments, and
// pre-computes the shares for every cabinet member, recording its own
// share as the share received from itself.
func (m *BeaconManager) GenerateCoefficients() {
	t := int(m.threshold)
	m.a = make([]curve.Fr, t+1)
	m.b = make([]curve.Fr, t+1)
	for k := 0; k <= t; k++ {
		m.a[k] = curve.RandomFr()
		m.b[k] = curve.RandomFr()
	}
	m.zi = m.a[0]

	n := m.cabinet.Size()
	m.ownS = make([]curve.Fr, n)
	m.ownSPrime = make([]curve.Fr, n)
	for j := 0; j < n; j++ {
		s, sp := poly.ComputeShares(m.a, m.b, uint32(j))
		m.ownS[j] = s
		m.ownSPrime[j] = sp
	}
	m.sij[m.cabinetIndex] = m.ownS[m.cabinetIndex]
	m.spij[m.cabinetIndex] = m.ownSPrime[m.cabinetIndex]

	commitments := make([]curve.G2, t+1)
	for k := 0; k <= t; k++ {
		commitments[k] = curve.AddG2(
			curve.ScalarMulG2(m.a[k], curve.G()),
			curve.ScalarMulG2(m.b[k], curve.H()),
		)
	}
	m.C[m.cabinetIndex] = commitments
}

// GetCoefficients returns a copy of this node's Pedersen commitments
// C_{self,.}, ready to encode and broadcast.
func (m *BeaconManager) GetCoefficients() []curve.G2 {
	return append([]curve.G2(nil), m.C[m.cabinetIndex]...)
}

// GetQualCoefficients returns A_{self,.} = g^{a_{self,k}}, computing it
// (and caching into m.A[self]) on first call.
func (m *BeaconManager) GetQualCoefficients() []curve.G2 {
	if m.A[m.cabinetIndex] == nil {
		qualCoeffs := make([]curve.G2, len(m.a))
		for k, ak := range m.a {
			qualCoeffs[k] = curve.ScalarMulG2(ak, curve.G())
		}
		m.A[m.cabinetIndex] = qualCoeffs
	}
	return append([]curve.G2(nil), m.A[m.cabinetIndex]...)
}

// GetOwnShares returns the (s, s') this node computed for receiver.
func (m *BeaconManager) GetOwnShares(receiver key.CabinetIndex) (curve.Fr, curve.Fr) {
	return m.ownS[receiver], m.ownSPrime[receiver]
}

// AddCoefficients stores a dealer's already-decoded Pedersen commitments.
// Fails if a non-empty vector was already stored for that dealer.
func (m *BeaconManager) AddCoefficients(from key.Address, coeffs []curve.G2) error {
	idx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return fmt.Errorf("beacon: %s is not a cabinet member", from)
	}
	if m.C[idx] != nil {
		return &DuplicateCoefficientsError{From: from}
	}
	m.C[idx] = coeffs
	return nil
}

// AddShares stores the already-decoded private (s, s') a dealer sent
// this node.
func (m *BeaconManager) AddShares(from key.Address, s, sPrime curve.Fr) error {
	idx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return fmt.Errorf("beacon: %s is not a cabinet member", from)
	}
	m.sij[idx] = s
	m.spij[idx] = sPrime
	return nil
}

// isDegenerate reports whether a commitment vector is all-zero, one of
// the conditions that makes compute_complaints accuse a sender outright
// regardless of invariant (2).
func isDegenerate(coeffs []curve.G2) bool {
	if len(coeffs) == 0 {
		return true
	}
	zero := curve.ZeroG2()
	for _, c := range coeffs {
		if !c.Equal(zero) {
			return false
		}
	}
	return true
}

// verifyPhase1 checks invariant (2): g^s * h^s' == prod C_k^{(j+1)^k}.
func verifyPhase1(s, sPrime curve.Fr, commitments []curve.G2, j key.CabinetIndex) bool {
	lhs := curve.AddG2(curve.ScalarMulG2(s, curve.G()), curve.ScalarMulG2(sPrime, curve.H()))
	rhs := poly.VerificationRHS(j, commitments)
	return lhs.Equal(rhs)
}

// verifyPhase2 checks invariant (3): g^s == prod A_k^{(j+1)^k}.
func verifyPhase2(s curve.Fr, qualCoeffs []curve.G2, j key.CabinetIndex) bool {
	lhs := curve.ScalarMulG2(s, curve.G())
	rhs := poly.VerificationRHS(j, qualCoeffs)
	return lhs.Equal(rhs)
}

// ComputeComplaints checks invariant (2) at j=self for every sender in
// coeffReceived, returning accusations against senders whose check
// fails, or who sent degenerate commitments, or a zero share.
func (m *BeaconManager) ComputeComplaints(coeffReceived map[key.Address]struct{}) map[key.Address]struct{} {
	out := make(map[key.Address]struct{})
	zero := curve.ZeroFr()
	for sender := range coeffReceived {
		if sender == m.self {
			continue
		}
		idx, ok := m.cabinet.IndexOf(sender)
		if !ok {
			continue
		}
		commitments := m.C[idx]
		if isDegenerate(commitments) {
			out[sender] = struct{}{}
			continue
		}
		s, sp := m.sij[idx], m.spij[idx]
		if s.Equal(zero) && sp.Equal(zero) {
			out[sender] = struct{}{}
			continue
		}
		if !verifyPhase1(s, sp, commitments, m.cabinetIndex) {
			out[sender] = struct{}{}
		}
	}
	return out
}

// VerifyComplaintAnswer recomputes invariant (2) at j=index(accuser)
// using the dealer's exposed defence. If it passes and accuser == self,
// the stored share for that dealer is overwritten with the authoritative
// exposed value.
func (m *BeaconManager) VerifyComplaintAnswer(from key.Address, accuser key.Address, answer ExposedShare) bool {
	dealerIdx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return false
	}
	accuserIdx, ok := m.cabinet.IndexOf(accuser)
	if !ok {
		return false
	}
	ok = verifyPhase1(answer.S, answer.SPrime, m.C[dealerIdx], accuserIdx)
	if ok && accuser == m.self {
		m.sij[dealerIdx] = answer.S
		m.spij[dealerIdx] = answer.SPrime
	}
	return ok
}

// ComputeSecretShare accumulates this node's share of the group secret
// from every QUAL dealer, and the corresponding x' zero-knowledge
// randomness accumulator.
func (m *BeaconManager) ComputeSecretShare(qual map[key.Address]struct{}) {
	secret := curve.ZeroFr()
	xPrime := curve.ZeroFr()
	for addr := range qual {
		idx, ok := m.cabinet.IndexOf(addr)
		if !ok {
			continue
		}
		secret = curve.AddFr(secret, m.sij[idx])
		xPrime = curve.AddFr(xPrime, m.spij[idx])
	}
	m.secretShare = secret
	m.xi = xPrime
}

// AddQualCoefficients stores a dealer's already-decoded qual coefficients.
// Same duplicate-slot discipline as AddCoefficients.
func (m *BeaconManager) AddQualCoefficients(from key.Address, coeffs []curve.G2) error {
	idx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return fmt.Errorf("beacon: %s is not a cabinet member", from)
	}
	if m.A[idx] != nil {
		return &DuplicateCoefficientsError{From: from}
	}
	m.A[idx] = coeffs
	return nil
}

// ComputeQualComplaints checks invariant (3) for every QUAL member other
// than self, returning a map of accused address to the exposed (s, s')
// evidence for members that fail.
func (m *BeaconManager) ComputeQualComplaints(qual map[key.Address]struct{}) map[key.Address]ExposedShare {
	out := make(map[key.Address]ExposedShare)
	for addr := range qual {
		if addr == m.self {
			continue
		}
		idx, ok := m.cabinet.IndexOf(addr)
		if !ok {
			continue
		}
		qualCoeffs := m.A[idx]
		s := m.sij[idx]
		if qualCoeffs == nil || !verifyPhase2(s, qualCoeffs, m.cabinetIndex) {
			out[addr] = ExposedShare{S: s, SPrime: m.spij[idx]}
		}
	}
	return out
}

// VerifyQualComplaint decides culpability for a received qual-complaint:
// `from` accuses `victim`, offering (s, s') as evidence that victim's
// phase-2 commitments don't check out. Returns the address to blame.
func (m *BeaconManager) VerifyQualComplaint(from, victim key.Address, evidence ExposedShare) key.Address {
	fromIdx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return from
	}
	victimIdx, ok := m.cabinet.IndexOf(victim)
	if !ok {
		return from
	}
	victimCommitments := m.C[victimIdx]
	if victimCommitments == nil || !verifyPhase1(evidence.S, evidence.SPrime, victimCommitments, fromIdx) {
		// The "evidence" does not even satisfy phase-1 against the
		// victim's own commitments: it was forged.
		return from
	}
	victimQualCoeffs := m.A[victimIdx]
	if victimQualCoeffs == nil || !verifyPhase2(evidence.S, victimQualCoeffs, fromIdx) {
		return victim
	}
	return from
}

// AddReconstructionShare records a good share s_{owner,from} exposed
// during a qual-complaint, used to reconstruct owner's polynomial.
// Duplicate contributions from the same `from` for the same owner are
// dropped silently.
func (m *BeaconManager) AddReconstructionShare(owner, from key.Address, share curve.Fr) {
	entry, ok := m.reconstructionShares[owner]
	if !ok {
		entry = &reconstructionEntry{
			contributors: make(map[key.CabinetIndex]struct{}),
			shares:       make(map[key.CabinetIndex]curve.Fr),
		}
		m.reconstructionShares[owner] = entry
	}
	fromIdx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return
	}
	if _, already := entry.contributors[fromIdx]; already {
		return
	}
	entry.contributors[fromIdx] = struct{}{}
	entry.shares[fromIdx] = share
}

// RunReconstruction interpolates, for every owner in reconstructionShares
// other than self, the owner's polynomial a_{owner,.} from the collected
// shares (requiring strictly more than t good contributors), then
// recomputes A_{owner,k} = g^{a_{owner,k}}. Returns false if any owner
// lacked enough contributors.
func (m *BeaconManager) RunReconstruction() bool {
	for owner, entry := range m.reconstructionShares {
		if owner == m.self {
			continue
		}
		if uint32(len(entry.contributors)) <= m.threshold {
			return false
		}
		xs := make([]int64, 0, len(entry.shares))
		ys := make([]curve.Fr, 0, len(entry.shares))
		for idx, share := range entry.shares {
			xs = append(xs, int64(idx)+1)
			ys = append(ys, share)
		}
		coeffs, err := poly.InterpolatePolynomial(xs, ys)
		if err != nil {
			return false
		}
		ownerIdx, ok := m.cabinet.IndexOf(owner)
		if !ok {
			continue
		}
		qualCoeffs := make([]curve.G2, len(coeffs))
		for k, c := range coeffs {
			qualCoeffs[k] = curve.ScalarMulG2(c, curve.G())
		}
		m.A[ownerIdx] = qualCoeffs
	}
	return true
}

// ComputePublicKeys evaluates invariants (6) and (7): the group public
// key as the sum of QUAL dealers' A_{i,0}, and each member's public key
// share as the sum of QUAL dealers' verification-vector evaluations at
// that member's index.
func (m *BeaconManager) ComputePublicKeys(qual map[key.Address]struct{}) {
	groupKey := curve.ZeroG2()
	n := m.cabinet.Size()
	shares := make([]curve.G2, n)
	for j := 0; j < n; j++ {
		shares[j] = curve.ZeroG2()
	}
	for addr := range qual {
		idx, ok := m.cabinet.IndexOf(addr)
		if !ok {
			continue
		}
		qualCoeffs := m.A[idx]
		if qualCoeffs == nil {
			continue
		}
		groupKey = curve.AddG2(groupKey, qualCoeffs[0])
		for j := 0; j < n; j++ {
			shares[j] = curve.AddG2(shares[j], poly.VerificationRHS(uint32(j), qualCoeffs))
		}
	}
	m.groupPublicKey = groupKey
	m.publicKeyShares = shares
	m.qual = make(map[key.Address]struct{}, len(qual))
	for addr := range qual {
		m.qual[addr] = struct{}{}
	}
}

// SetDkgOutput loads a pre-computed DKG result, e.g. handed down from a
// trusted dealer rather than produced by running the protocol.
func (m *BeaconManager) SetDkgOutput(out Output) {
	m.secretShare = out.SecretShare
	m.groupPublicKey = out.GroupPublicKey
	m.publicKeyShares = append([]curve.G2(nil), out.PublicKeyShares...)
	m.qual = make(map[key.Address]struct{}, len(out.Qual))
	for _, a := range out.Qual {
		m.qual[a] = struct{}{}
	}
}

// GetDkgOutput snapshots the current DKG output.
func (m *BeaconManager) GetDkgOutput() Output {
	qual := make([]key.Address, 0, len(m.qual))
	for a := range m.qual {
		qual = append(qual, a)
	}
	return Output{
		SecretShare:     m.secretShare,
		GroupPublicKey:  m.groupPublicKey,
		PublicKeyShares: append([]curve.G2(nil), m.publicKeyShares...),
		Qual:            qual,
	}
}

// SetQual assigns QUAL directly, bypassing the complaint rounds (used
// when loading a dealer-produced configuration).
func (m *BeaconManager) SetQual(qual map[key.Address]struct{}) {
	m.qual = make(map[key.Address]struct{}, len(qual))
	for a := range qual {
		m.qual[a] = struct{}{}
	}
}

// InQual reports whether address is a member of QUAL.
func (m *BeaconManager) InQual(address key.Address) bool {
	_, ok := m.qual[address]
	return ok
}

// Qual returns the qualified set.
func (m *BeaconManager) Qual() map[key.Address]struct{} {
	out := make(map[key.Address]struct{}, len(m.qual))
	for a := range m.qual {
		out[a] = struct{}{}
	}
	return out
}

// PolynomialDegree returns t.
func (m *BeaconManager) PolynomialDegree() uint32 { return m.threshold }

// CabinetIndexOf returns this node's own cabinet index.
func (m *BeaconManager) CabinetIndexOf() key.CabinetIndex { return m.cabinetIndex }

// GroupPublicKey returns the group public key established by the DKG.
func (m *BeaconManager) GroupPublicKey() curve.G2 { return m.groupPublicKey }

// --- Signing path (post-DKG) ---

// SetMessage resets the per-message signature buffer for a new message.
func (m *BeaconManager) SetMessage(message []byte) {
	m.currentMessage = append([]byte(nil), message...)
	m.alreadySigned = make(map[key.Address]struct{})
	m.signatureBuffer = make(map[key.CabinetIndex]curve.G1)
}

// Sign returns this node's signature share H(m)^{secret_share}.
func (m *BeaconManager) Sign() curve.G1 {
	hm := curve.HashToG1(m.currentMessage)
	return curve.ScalarMulG1(m.secretShare, hm)
}

// AddSignaturePart verifies and stores a peer's signature share.
func (m *BeaconManager) AddSignaturePart(from key.Address, signature curve.G1) AddResult {
	idx, ok := m.cabinet.IndexOf(from)
	if !ok {
		return AddNotMember
	}
	if _, signed := m.alreadySigned[from]; signed {
		return AddAlreadyAdded
	}
	hm := curve.HashToG1(m.currentMessage)
	lhs := curve.Pairing(signature, curve.G())
	rhs := curve.Pairing(hm, m.publicKeyShares[idx])
	if !curve.EqualGT(lhs, rhs) {
		return AddInvalid
	}
	m.alreadySigned[from] = struct{}{}
	m.signatureBuffer[idx] = signature
	return AddSuccess
}

// CanVerify reports whether enough signature shares have accumulated to
// reconstruct the group signature.
func (m *BeaconManager) CanVerify() bool {
	return uint32(len(m.signatureBuffer)) >= m.threshold+1
}

// Verify Lagrange-interpolates the buffered shares into the group
// signature and checks it against the group public key.
func (m *BeaconManager) Verify() (bool, error) {
	if !m.CanVerify() {
		return false, errors.New("beacon: insufficient signature shares buffered")
	}
	shares := make([]poly.SignatureShare, 0, len(m.signatureBuffer))
	for idx, sig := range m.signatureBuffer {
		shares = append(shares, poly.SignatureShare{Index: idx, Signature: sig})
	}
	groupSig, err := poly.LagrangeInterpolateG1(shares)
	if err != nil {
		return false, err
	}
	hm := curve.HashToG1(m.currentMessage)
	lhs := curve.Pairing(groupSig, curve.G())
	rhs := curve.Pairing(hm, m.groupPublicKey)
	return curve.EqualGT(lhs, rhs), nil
}
