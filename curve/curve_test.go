package curve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ensureGenerators(t *testing.T) {
	t.Helper()
	require.NoError(t, SetGenerators(DefaultGeneratorGSeed, DefaultGeneratorHSeed))
}

func TestSetGeneratorsRejectsEmptyOrEqualSeeds(t *testing.T) {
	require.Error(t, SetGenerators("", "h"))
	require.Error(t, SetGenerators("g", ""))
	require.Error(t, SetGenerators("same", "same"))
}

func TestSetGeneratorsProducesDistinctNonIdentityPoints(t *testing.T) {
	ensureGenerators(t)
	require.False(t, G().Equal(ZeroG2()))
	require.False(t, H().Equal(ZeroG2()))
	require.False(t, G().Equal(H()))
}

func TestInitIsIdempotent(t *testing.T) {
	require.NoError(t, Init("one seed", "other seed"))
	g1 := G()
	require.NoError(t, Init("ignored seed", "also ignored"))
	require.True(t, g1.Equal(G()))
}

func TestFrArithmetic(t *testing.T) {
	a := FrFromInt64(7)
	b := FrFromInt64(5)
	require.True(t, AddFr(a, b).Equal(FrFromInt64(12)))
	require.True(t, SubFr(a, b).Equal(FrFromInt64(2)))
	require.True(t, MulFr(a, b).Equal(FrFromInt64(35)))
	require.True(t, NegFr(ZeroFr()).Equal(ZeroFr()))

	inv, err := InvFr(a)
	require.NoError(t, err)
	require.True(t, MulFr(a, inv).Equal(FrFromInt64(1)))

	_, err = InvFr(ZeroFr())
	require.Error(t, err)
}

func TestPowFr(t *testing.T) {
	base := FrFromInt64(3)
	require.True(t, PowFr(base, 0).Equal(FrFromInt64(1)))
	require.True(t, PowFr(base, 1).Equal(base))
	require.True(t, PowFr(base, 4).Equal(FrFromInt64(81)))
}

func TestG1AdditionAndScalarMul(t *testing.T) {
	p := HashToG1([]byte("some message"))
	sum := AddG1(p, NegG1(p))
	require.True(t, sum.Equal(ZeroG1()))

	doubled := AddG1(p, p)
	require.True(t, doubled.Equal(ScalarMulG1(FrFromInt64(2), p)))
}

func TestPairingBilinearity(t *testing.T) {
	ensureGenerators(t)
	a := FrFromInt64(4)
	b := FrFromInt64(6)

	p1 := HashToG1([]byte("bilinearity check"))
	lhs := Pairing(ScalarMulG1(a, p1), ScalarMulG2(b, G()))
	rhs := Pairing(ScalarMulG1(MulFr(a, b), p1), G())
	require.True(t, EqualGT(lhs, rhs))
}

func TestStringRoundTrip(t *testing.T) {
	ensureGenerators(t)
	s := RandomFr()
	encS, err := ToStringFr(s)
	require.NoError(t, err)
	decS, err := FromStringFr(encS)
	require.NoError(t, err)
	require.True(t, s.Equal(decS))

	p1 := HashToG1([]byte("round trip"))
	enc1, err := ToStringG1(p1)
	require.NoError(t, err)
	dec1, err := FromStringG1(enc1)
	require.NoError(t, err)
	require.True(t, p1.Equal(dec1))

	enc2, err := ToStringG2(G())
	require.NoError(t, err)
	dec2, err := FromStringG2(enc2)
	require.NoError(t, err)
	require.True(t, G().Equal(dec2))
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := FromStringFr("not hex!!")
	require.Error(t, err)

	_, err = FromStringG1("not hex either")
	require.Error(t, err)
}
