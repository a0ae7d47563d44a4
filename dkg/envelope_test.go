package dkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageTypeString(t *testing.T) {
	cases := map[MessageType]string{
		MessageCoefficient:     "Coefficient",
		MessageComplaint:       "Complaint",
		MessageQualComplaint:   "QualComplaint",
		MessageReconstruction:  "Reconstruction",
		MessageNotarisationKey: "NotarisationKey",
		MessageFinalState:      "FinalState",
	}
	for mt, want := range cases {
		require.Equal(t, want, mt.String())
	}
	require.Equal(t, "MessageType(99)", MessageType(99).String())
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		PhaseWaitShares:               "WaitShares",
		PhaseWaitComplaints:           "WaitComplaints",
		PhaseWaitComplaintAnswers:     "WaitComplaintAnswers",
		PhaseWaitQualShares:           "WaitQualShares",
		PhaseWaitQualComplaints:       "WaitQualComplaints",
		PhaseWaitReconstructionShares: "WaitReconstructionShares",
	}
	for p, want := range cases {
		require.Equal(t, want, p.String())
	}
	require.Equal(t, "Phase(42)", Phase(42).String())
}
