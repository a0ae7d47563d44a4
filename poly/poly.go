// Package poly implements the polynomial arithmetic the DKG needs:
// evaluating a dealer's secret-sharing polynomials, assembling the
// verification right-hand side from Pedersen commitments, Lagrange
// interpolation of polynomial coefficients from points, and Lagrange
// interpolation of signature shares over G1.
//
// It follows the same basis-function idiom as github.com/drand/kyber's
// share package (PriPoly/PubPoly), generalised to the two use cases the
// beacon DKG needs that kyber's own share package does not expose
// directly: recovering a full coefficient vector (not just the constant
// term) and interpolating G1 points indexed by cabinet position rather
// than by kyber's own PubShare type.
package poly

import (
	"errors"
	"fmt"

	"github.com/fetchai/dkg-beacon/curve"
)

// DegenerateInterpolationError is returned by InterpolatePolynomial when
// it is asked to interpolate from zero points or from points that share
// an x-coordinate. Per spec this is a programmer-error signal: the
// service layer treats it as fatal for the round rather than retrying.
type DegenerateInterpolationError struct {
	Reason string
}

func (e *DegenerateInterpolationError) Error() string {
	return "poly: degenerate interpolation: " + e.Reason
}

// EvalPoly evaluates a degree-len(coeffs)-1 polynomial at x using
// Horner's method. coeffs[0] is the constant term.
func EvalPoly(coeffs []curve.Fr, x curve.Fr) curve.Fr {
	if len(coeffs) == 0 {
		return curve.ZeroFr()
	}
	acc := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = curve.AddFr(curve.MulFr(acc, x), coeffs[i])
	}
	return acc
}

// ComputeShares evaluates both dealer polynomials at the 1-indexed
// evaluation point for cabinet position j (participants are evaluated at
// j+1 so index 0 is a valid participant distinct from the secret-holding
// point x=0).
func ComputeShares(a, b []curve.Fr, j uint32) (sij, sprimeij curve.Fr) {
	x := curve.FrFromInt64(int64(j) + 1)
	return EvalPoly(a, x), EvalPoly(b, x)
}

// UpdateRHS multiplies acc by coeffs[k]^{(j+1)^k} for k=1..len(coeffs)-1
// and accumulates the product, implementing the "RHS" side of invariants
// (2) and (3): the caller combines coeffs[0] (k=0, exponent 1) with the
// returned accumulator to get the full verification right-hand side.
func UpdateRHS(j uint32, acc curve.G2, coeffs []curve.G2) curve.G2 {
	x := curve.FrFromInt64(int64(j) + 1)
	xk := x.Clone()
	result := acc
	for k := 1; k < len(coeffs); k++ {
		result = curve.AddG2(result, curve.ScalarMulG2(xk, coeffs[k]))
		xk = curve.MulFr(xk, x)
	}
	return result
}

// VerificationRHS computes the full right-hand side of invariants (2)
// and (3): prod_{k=0..t} coeffs[k]^{(j+1)^k}.
func VerificationRHS(j uint32, coeffs []curve.G2) curve.G2 {
	if len(coeffs) == 0 {
		return curve.ZeroG2()
	}
	return UpdateRHS(j, coeffs[0], coeffs)
}

// InterpolatePolynomial performs ordinary Lagrange-basis interpolation:
// given m distinct points (xs[i], ys[i]), it returns the m coefficients
// of the unique degree-(m-1) polynomial through them. It accepts m
// greater than t+1 (extra points); the DKG's reconstruction step passes
// every share it collected, so m can exceed t+1, in which case the
// coefficients above degree t come out zero for shares of a degree-t
// polynomial.
func InterpolatePolynomial(xs []int64, ys []curve.Fr) ([]curve.Fr, error) {
	m := len(xs)
	if m == 0 || len(ys) != m {
		return nil, &DegenerateInterpolationError{Reason: "no points supplied"}
	}
	seen := make(map[int64]struct{}, m)
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			return nil, &DegenerateInterpolationError{Reason: fmt.Sprintf("duplicate x-coordinate %d", x)}
		}
		seen[x] = struct{}{}
	}

	coeffs := make([]curve.Fr, m)
	for i := range coeffs {
		coeffs[i] = curve.ZeroFr()
	}

	for i := 0; i < m; i++ {
		// Build the i-th Lagrange basis polynomial L_i(X) = prod_{k!=i}
		// (X - xs[k]) / (xs[i] - xs[k]), as a coefficient vector, then add
		// ys[i] * L_i to the running total.
		basis := []curve.Fr{curve.FrFromInt64(1)} // polynomial "1"
		denom := curve.FrFromInt64(1)
		for k := 0; k < m; k++ {
			if k == i {
				continue
			}
			basis = multiplyLinear(basis, xs[k])
			diff := curve.SubFr(curve.FrFromInt64(xs[i]), curve.FrFromInt64(xs[k]))
			denom = curve.MulFr(denom, diff)
		}
		invDenom, err := curve.InvFr(denom)
		if err != nil {
			return nil, &DegenerateInterpolationError{Reason: "duplicate x-coordinate after basis construction"}
		}
		scale := curve.MulFr(ys[i], invDenom)
		for k, c := range basis {
			coeffs[k] = curve.AddFr(coeffs[k], curve.MulFr(scale, c))
		}
	}
	return coeffs, nil
}

// multiplyLinear multiplies the polynomial p (low-degree-first
// coefficients) by (X - root) and returns the new coefficient vector.
func multiplyLinear(p []curve.Fr, root int64) []curve.Fr {
	negRoot := curve.FrFromInt64(-root)
	out := make([]curve.Fr, len(p)+1)
	for i := range out {
		out[i] = curve.ZeroFr()
	}
	for i, c := range p {
		out[i+1] = curve.AddFr(out[i+1], c)
		out[i] = curve.AddFr(out[i], curve.MulFr(c, negRoot))
	}
	return out
}

// SignatureShare pairs a cabinet index with its BLS signature share on
// G1, the unit lagrange_interpolate_G1 operates on.
type SignatureShare struct {
	Index     uint32
	Signature curve.G1
}

// LagrangeInterpolateG1 combines t+1 or more signature shares into the
// group signature: sum_j lambda_j * Sig_j where
// lambda_j = prod_{k!=j} (k+1) / ((k+1) - (j+1)).
func LagrangeInterpolateG1(shares []SignatureShare) (curve.G1, error) {
	if len(shares) == 0 {
		return nil, errors.New("poly: no signature shares supplied")
	}
	result := curve.ZeroG1()
	for _, s := range shares {
		lambda, err := lagrangeCoefficient(s.Index, shares)
		if err != nil {
			return nil, err
		}
		result = curve.AddG1(result, curve.ScalarMulG1(lambda, s.Signature))
	}
	return result, nil
}

func lagrangeCoefficient(j uint32, shares []SignatureShare) (curve.Fr, error) {
	num := curve.FrFromInt64(1)
	den := curve.FrFromInt64(1)
	jx := int64(j) + 1
	for _, s := range shares {
		if s.Index == j {
			continue
		}
		kx := int64(s.Index) + 1
		num = curve.MulFr(num, curve.FrFromInt64(kx))
		den = curve.MulFr(den, curve.FrFromInt64(kx-jx))
	}
	invDen, err := curve.InvFr(den)
	if err != nil {
		return nil, &DegenerateInterpolationError{Reason: "duplicate share index in lagrange interpolation"}
	}
	return curve.MulFr(num, invDen), nil
}
