// Package curve wraps the pairing library used by the DKG and threshold/
// aggregate BLS signing core. It is the only package in this module that
// imports github.com/drand/kyber and github.com/drand/kyber-bls12381
// directly; every other package talks to curve types (Fr, G1, G2, GT)
// instead.
package curve

import (
	"encoding/hex"
	"errors"
	"sync"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/util/random"
)

// Fr, G1, G2 and GT are the four algebraic structures the core operates
// on: Fr is the scalar field, G1 the signature group, G2 the public-key /
// generator group, GT the pairing target group.
type (
	Fr = kyber.Scalar
	G1 = kyber.Point
	G2 = kyber.Point
	GT = kyber.Point
)

// domain-separation tags for hash-to-curve, one per group, following the
// RFC9380 suite naming convention kyber-bls12381 expects.
const (
	g1DST = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_FETCH_BEACON_"
	g2DST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_FETCH_BEACON_"
)

// Suite is the pairing suite backing every group operation. G1 holds
// signatures, G2 holds public keys and the two Pedersen generators.
var Suite = bls.NewBLS12381SuiteWithDST([]byte(g1DST), []byte(g2DST))

var (
	g1 = Suite.G1()
	g2 = Suite.G2()
	gt = Suite.GT()
)

// DecodeError is returned whenever a string does not decode into a valid
// curve element or scalar.
type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return "curve: decode " + e.Kind + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	// generatorG and generatorH are the two fixed, non-identity, distinct
	// Pedersen-commitment generators in G2. They are set once by
	// SetGenerators (normally via Init) and are immutable afterwards.
	generatorG   G2
	generatorH   G2
	generatorsMu sync.RWMutex
	initOnce     sync.Once
)

// DefaultGeneratorGSeed and DefaultGeneratorHSeed are the frozen default
// domain-separation strings for G and H. Init and SetGenerators take
// both seeds as arguments; this package never applies these defaults on
// its own.
const (
	DefaultGeneratorGSeed = "Fetch.ai Elliptic Curve Generator G"
	DefaultGeneratorHSeed = "Fetch.ai Elliptic Curve Generator H"
)

// Init performs the one-time pairing initialisation and derives the
// fixed generators G and H from two distinct, non-empty seed strings. It
// is idempotent: concurrent callers block on the same sync.Once, and
// only the first call's seeds take effect.
func Init(gSeed, hSeed string) error {
	var err error
	initOnce.Do(func() {
		err = SetGenerators(gSeed, hSeed)
	})
	return err
}

// SetGenerators hashes the two seed strings to G2 and stores the results
// as the process-wide Pedersen generators. It is exported separately from
// Init so tests can reset generators between cases; production code
// should call Init exactly once at process start.
func SetGenerators(gSeed, hSeed string) error {
	if gSeed == "" || hSeed == "" {
		return errors.New("curve: generator seeds must be non-empty")
	}
	if gSeed == hSeed {
		return errors.New("curve: generator seeds must differ")
	}
	g := hashToG2(gSeed)
	h := hashToG2(hSeed)
	if g.Equal(ZeroG2()) || h.Equal(ZeroG2()) {
		return errors.New("curve: derived generator is the identity element")
	}
	if g.Equal(h) {
		return errors.New("curve: derived generators must be distinct")
	}
	generatorsMu.Lock()
	generatorG = g
	generatorH = h
	generatorsMu.Unlock()
	return nil
}

// G returns the fixed Pedersen generator G in G2.
func G() G2 {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	return generatorG
}

// H returns the fixed Pedersen generator H in G2.
func H() G2 {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	return generatorH
}

func hashToG2(seed string) kyber.Point {
	xof := Suite.XOF([]byte(seed))
	return g2.Point().Pick(xof)
}

// ZeroFr returns the additive identity of the scalar field.
func ZeroFr() Fr { return g1.Scalar().Zero() }

// ZeroG1 returns the additive identity of G1.
func ZeroG1() G1 { return g1.Point().Null() }

// ZeroG2 returns the additive identity of G2.
func ZeroG2() G2 { return g2.Point().Null() }

// RandomFr returns a uniformly random scalar, used to pick dealer
// polynomial coefficients.
func RandomFr() Fr { return g1.Scalar().Pick(random.New()) }

// AddFr, SubFr, MulFr, InvFr and NegFr implement the Fr field operations.
func AddFr(a, b Fr) Fr { return g1.Scalar().Add(a, b) }
func SubFr(a, b Fr) Fr { return g1.Scalar().Sub(a, b) }
func MulFr(a, b Fr) Fr { return g1.Scalar().Mul(a, b) }
func NegFr(a Fr) Fr    { return g1.Scalar().Neg(a) }

// InvFr returns the multiplicative inverse of a non-zero scalar.
func InvFr(a Fr) (Fr, error) {
	if a.Equal(ZeroFr()) {
		return nil, errors.New("curve: cannot invert zero scalar")
	}
	return g1.Scalar().Inv(a), nil
}

// FrFromInt64 builds a scalar from a small integer, used for evaluation
// points (participant index + 1) and Lagrange numerators/denominators.
func FrFromInt64(v int64) Fr {
	return g1.Scalar().SetInt64(v)
}

// PowFr computes base^exp for a non-negative integer exponent using
// square-and-multiply.
func PowFr(base Fr, exp uint64) Fr {
	result := g1.Scalar().One()
	b := base.Clone()
	for exp > 0 {
		if exp&1 == 1 {
			result = MulFr(result, b)
		}
		b = MulFr(b, b)
		exp >>= 1
	}
	return result
}

// Group operations shared by G1 and G2: both are kyber.Point
// implementations so the same helpers apply to either, parameterised by
// which concrete group factory produced the operands.
func AddG1(a, b G1) G1    { return g1.Point().Add(a, b) }
func NegG1(a G1) G1       { return g1.Point().Neg(a) }
func ScalarMulG1(s Fr, p G1) G1 {
	if p == nil {
		return g1.Point().Mul(s, nil)
	}
	return g1.Point().Mul(s, p)
}

func AddG2(a, b G2) G2 { return g2.Point().Add(a, b) }
func NegG2(a G2) G2    { return g2.Point().Neg(a) }
func ScalarMulG2(s Fr, p G2) G2 {
	if p == nil {
		return g2.Point().Mul(s, nil)
	}
	return g2.Point().Mul(s, p)
}

// HashToG1 hashes an arbitrary message into G1, used both as the BLS
// signature hash function H(m) and by callers that need a
// message-dependent point.
func HashToG1(msg []byte) G1 {
	xof := Suite.XOF(msg)
	return g1.Point().Pick(xof)
}

// HashToFr derives a scalar from arbitrary bytes, used by the aggregate
// signature scheme to compute per-signer aggregation coefficients.
func HashToFr(b []byte) Fr {
	xof := Suite.XOF(b)
	return g1.Scalar().Pick(xof)
}

// Pairing computes e(a, b) for a in G1, b in G2.
func Pairing(a G1, b G2) GT {
	return Suite.Pair(a, b)
}

// EqualGT reports whether two GT elements are equal.
func EqualGT(a, b GT) bool { return a.Equal(b) }

// ZeroGT returns the identity element of the pairing target group.
func ZeroGT() GT { return gt.Point().Null() }

// ToStringG1, ToStringG2 and ToStringFr reversibly serialise curve
// elements to hex strings.
func ToStringG1(p G1) (string, error) { return marshalHex(p) }
func ToStringG2(p G2) (string, error) { return marshalHex(p) }
func ToStringFr(s Fr) (string, error) { return marshalHex(s) }

func marshalHex(m kyber.Marshaling) (string, error) {
	b, err := m.MarshalBinary()
	if err != nil {
		return "", &DecodeError{Kind: "marshal", Err: err}
	}
	return hex.EncodeToString(b), nil
}

// FromStringG1 parses a hex string produced by ToStringG1.
func FromStringG1(s string) (G1, error) { return unmarshalHex(g1.Point(), s, "G1") }

// FromStringG2 parses a hex string produced by ToStringG2.
func FromStringG2(s string) (G2, error) { return unmarshalHex(g2.Point(), s, "G2") }

// FromStringFr parses a hex string produced by ToStringFr.
func FromStringFr(s string) (Fr, error) {
	sc := g1.Scalar()
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Kind: "Fr", Err: err}
	}
	if err := sc.UnmarshalBinary(b); err != nil {
		return nil, &DecodeError{Kind: "Fr", Err: err}
	}
	return sc, nil
}

func unmarshalHex(target kyber.Marshaling, s, kind string) (kyber.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	p, ok := target.(kyber.Point)
	if !ok {
		return nil, &DecodeError{Kind: kind, Err: errors.New("not a point")}
	}
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	return p, nil
}
