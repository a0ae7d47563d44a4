package beacon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fetchai/dkg-beacon/curve"
	"github.com/fetchai/dkg-beacon/key"
	"github.com/fetchai/dkg-beacon/poly"
)

func init() {
	if err := curve.SetGenerators(curve.DefaultGeneratorGSeed, curve.DefaultGeneratorHSeed); err != nil {
		panic(err)
	}
}

// honestCabinet wires up n BeaconManagers (t threshold) and runs the
// happy-path coefficient/share exchange with no complaints, leaving every
// member in QUAL. It returns the managers keyed by cabinet index.
func honestCabinet(t *testing.T, n int, threshold uint32) ([]*BeaconManager, *key.Cabinet, []key.Address) {
	t.Helper()
	members := addrs(namesFor(n)...)
	cab := key.NewCabinet(members)

	managers := make([]*BeaconManager, n)
	for i, m := range members {
		bm := NewBeaconManager()
		require.NoError(t, bm.ResetCabinet(m, cab, threshold))
		bm.GenerateCoefficients()
		managers[i] = bm
	}

	// Exchange commitments and private shares.
	for i, dealer := range members {
		coeffs := managers[i].GetCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddCoefficients(dealer, coeffs))
			s, sp := managers[i].GetOwnShares(key.CabinetIndex(j))
			require.NoError(t, managers[j].AddShares(dealer, s, sp))
		}
	}

	return managers, cab, members
}

func namesFor(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	return names
}

func TestGenerateCoefficientsAndPhase1VerificationPass(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)

	coeffReceived := make(map[key.Address]struct{})
	for _, m := range members {
		coeffReceived[m] = struct{}{}
	}

	for _, bm := range managers {
		complaints := bm.ComputeComplaints(coeffReceived)
		require.Empty(t, complaints)
	}
}

func TestAddCoefficientsRejectsDuplicate(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)
	coeffs := managers[0].GetCoefficients()
	err := managers[1].AddCoefficients(members[0], coeffs)
	var dup *DuplicateCoefficientsError
	require.ErrorAs(t, err, &dup)
}

func TestComputeComplaintsDetectsBadShare(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)

	// Corrupt the share node 1 received from node 0.
	managers[1].sij[0] = curve.AddFr(managers[1].sij[0], curve.FrFromInt64(1))

	coeffReceived := make(map[key.Address]struct{})
	for _, m := range members {
		coeffReceived[m] = struct{}{}
	}

	complaints := managers[1].ComputeComplaints(coeffReceived)
	_, accused := complaints[members[0]]
	require.True(t, accused)
}

func TestVerifyComplaintAnswerReconciles(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)

	// Node 1's copy of the share from dealer 0 gets corrupted locally...
	managers[1].sij[0] = curve.AddFr(managers[1].sij[0], curve.FrFromInt64(1))

	// ...dealer 0 answers with the true (s, s'), which node 1 verifies and
	// uses to repair its local copy.
	trueS, trueSPrime := managers[0].GetOwnShares(1)
	ok := managers[1].VerifyComplaintAnswer(members[0], members[1], ExposedShare{S: trueS, SPrime: trueSPrime})
	require.True(t, ok)
	require.True(t, managers[1].sij[0].Equal(trueS))
}

func TestVerifyComplaintAnswerRejectsForgedEvidence(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)
	forged := ExposedShare{S: curve.RandomFr(), SPrime: curve.RandomFr()}
	ok := managers[1].VerifyComplaintAnswer(members[0], members[1], forged)
	require.False(t, ok)
}

func TestSecretSharesReconstructGroupSecret(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}

	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}

	xs := make([]int64, n)
	ys := make([]curve.Fr, n)
	for i, bm := range managers {
		xs[i] = int64(i) + 1
		ys[i] = bm.secretShare
	}
	recovered, err := poly.InterpolatePolynomial(xs, ys)
	require.NoError(t, err)

	expected := curve.ZeroFr()
	for _, bm := range managers {
		expected = curve.AddFr(expected, bm.zi)
	}
	require.True(t, expected.Equal(recovered[0]))
}

func TestQualCoefficientsAndPublicKeysAgree(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}
	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}

	// Exchange qual coefficients.
	for i, dealer := range members {
		qc := managers[i].GetQualCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddQualCoefficients(dealer, qc))
		}
	}

	for _, bm := range managers {
		complaints := bm.ComputeQualComplaints(qual)
		require.Empty(t, complaints)
	}

	for _, bm := range managers {
		bm.ComputePublicKeys(qual)
	}

	for i := 1; i < n; i++ {
		require.True(t, managers[0].GroupPublicKey().Equal(managers[i].GroupPublicKey()))
	}
}

func TestVerifyQualComplaintBlamesForger(t *testing.T) {
	managers, _, members := honestCabinet(t, 4, 1)

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}
	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}
	for i, dealer := range members {
		qc := managers[i].GetQualCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddQualCoefficients(dealer, qc))
		}
	}

	// Node 2 forges a qual-complaint against dealer 0 using garbage evidence.
	forged := ExposedShare{S: curve.RandomFr(), SPrime: curve.RandomFr()}
	blamed := managers[1].VerifyQualComplaint(members[2], members[0], forged)
	require.Equal(t, members[2], blamed)

	// Node 2 submits the true evidence: dealer 0 really is at fault only if
	// its qual coefficients don't check out, which they do here, so the
	// accuser is blamed again.
	trueS, trueSPrime := managers[0].GetOwnShares(2)
	blamed = managers[1].VerifyQualComplaint(members[2], members[0], ExposedShare{S: trueS, SPrime: trueSPrime})
	require.Equal(t, members[2], blamed)
}

func TestRunReconstructionRecoversDealerPolynomial(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	// Simulate dealer 0 being disqualified post-QUAL: every other member
	// contributes its received share of dealer 0's polynomial.
	for j := 1; j < n; j++ {
		s, _ := managers[0].GetOwnShares(key.CabinetIndex(j))
		for k := 1; k < n; k++ {
			managers[k].AddReconstructionShare(members[0], members[j], s)
		}
	}

	for k := 1; k < n; k++ {
		require.True(t, managers[k].RunReconstruction())
	}

	expectedA0 := curve.ScalarMulG2(managers[0].zi, curve.G())
	for k := 1; k < n; k++ {
		require.True(t, managers[k].A[0][0].Equal(expectedA0))
	}
}

func TestRunReconstructionFailsWithTooFewContributors(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	// Only one contributor, but threshold = 1 requires > 1.
	s, _ := managers[0].GetOwnShares(1)
	managers[1].AddReconstructionShare(members[0], members[1], s)

	require.False(t, managers[1].RunReconstruction())
}

func TestSigningRoundTrip(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}
	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}
	for i, dealer := range members {
		qc := managers[i].GetQualCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddQualCoefficients(dealer, qc))
		}
	}
	for _, bm := range managers {
		bm.ComputePublicKeys(qual)
	}

	message := []byte("reticulating splines")
	for _, bm := range managers {
		bm.SetMessage(message)
	}

	verifier := managers[0]
	for i, bm := range managers {
		if i == 0 {
			continue
		}
		sig := bm.Sign()
		result := verifier.AddSignaturePart(members[i], sig)
		require.Equal(t, AddSuccess, result)
	}
	// threshold+1 = 2 shares needed; we added n-1 = 3, well above.
	require.True(t, verifier.CanVerify())

	ok, err := verifier.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAddSignaturePartRejectsBadShare(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}
	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}
	for i, dealer := range members {
		qc := managers[i].GetQualCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddQualCoefficients(dealer, qc))
		}
	}
	for _, bm := range managers {
		bm.ComputePublicKeys(qual)
	}

	message := []byte("attack at dawn")
	for _, bm := range managers {
		bm.SetMessage(message)
	}

	bogus := curve.HashToG1([]byte("not a real signature share"))
	result := managers[0].AddSignaturePart(members[1], bogus)
	require.Equal(t, AddInvalid, result)
}

func TestAddSignaturePartRejectsDuplicateSender(t *testing.T) {
	n, threshold := 4, 1
	managers, _, members := honestCabinet(t, n, uint32(threshold))

	qual := make(map[key.Address]struct{})
	for _, m := range members {
		qual[m] = struct{}{}
	}
	for _, bm := range managers {
		bm.ComputeSecretShare(qual)
	}
	for i, dealer := range members {
		qc := managers[i].GetQualCoefficients()
		for j := range members {
			if j == i {
				continue
			}
			require.NoError(t, managers[j].AddQualCoefficients(dealer, qc))
		}
	}
	for _, bm := range managers {
		bm.ComputePublicKeys(qual)
	}

	message := []byte("duplicate check")
	for _, bm := range managers {
		bm.SetMessage(message)
	}

	sig := managers[1].Sign()
	require.Equal(t, AddSuccess, managers[0].AddSignaturePart(members[1], sig))
	require.Equal(t, AddAlreadyAdded, managers[0].AddSignaturePart(members[1], sig))
}
