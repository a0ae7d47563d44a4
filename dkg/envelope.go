// Package dkg drives the BeaconManager (beacon.BeaconManager) and its
// three complaint containers through the Pedersen-VSS setup protocol: a
// round-tagged state machine that turns inbound envelopes into
// BeaconManager calls, and emits outbound envelopes
// via caller-supplied broadcast/private-send callbacks.
//
// It is grounded on
// _examples/original_source/libs/dkg/include/dkg/dkg_setup_service.hpp
// (state names, transition triggers, message handlers) and on drand's
// own dkg package for the explicit-state-enum, mutex-guarded-handler Go
// idiom (core/dkg_state_machine.go).
package dkg

import (
	"fmt"

	"github.com/fetchai/dkg-beacon/key"
)

// MessageType tags the arm of a DKGEnvelope.
type MessageType uint8

const (
	MessageCoefficient MessageType = iota
	MessageComplaint
	MessageQualComplaint
	MessageReconstruction
	MessageNotarisationKey
	MessageFinalState
)

func (t MessageType) String() string {
	switch t {
	case MessageCoefficient:
		return "Coefficient"
	case MessageComplaint:
		return "Complaint"
	case MessageQualComplaint:
		return "QualComplaint"
	case MessageReconstruction:
		return "Reconstruction"
	case MessageNotarisationKey:
		return "NotarisationKey"
	case MessageFinalState:
		return "FinalState"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// Phase tags which round a broadcast envelope belongs to, so a message
// that arrives late cannot be misrouted into the handler for a
// different state.
type Phase uint8

const (
	PhaseWaitShares Phase = iota
	PhaseWaitComplaints
	PhaseWaitComplaintAnswers
	PhaseWaitQualShares
	PhaseWaitQualComplaints
	PhaseWaitReconstructionShares
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitShares:
		return "WaitShares"
	case PhaseWaitComplaints:
		return "WaitComplaints"
	case PhaseWaitComplaintAnswers:
		return "WaitComplaintAnswers"
	case PhaseWaitQualShares:
		return "WaitQualShares"
	case PhaseWaitQualComplaints:
		return "WaitQualComplaints"
	case PhaseWaitReconstructionShares:
		return "WaitReconstructionShares"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// CoefficientPayload carries a dealer's t+1 G2 points: either the
// phase-1 Pedersen commitments C_i (Phase WaitShares) or the phase-2
// qual-coefficients A_i (Phase WaitQualShares). Both reuse
// MessageCoefficient; Phase disambiguates which verification equation
// they feed.
type CoefficientPayload struct {
	Phase  Phase
	Coeffs []string // G2 points, hex-stringified via curve.ToStringG2
}

// ComplaintPayload lists the addresses this sender accuses.
type ComplaintPayload struct {
	Accused []key.Address
}

// QualComplaintPayload exposes (s, s') evidence keyed by the address
// the evidence concerns. Reused for two rounds, disambiguated by Phase:
// at PhaseWaitComplaintAnswers the key is the accuser a dealer is
// answering; at PhaseWaitQualComplaints the key is the member being
// accused of failing phase-2 verification.
type QualComplaintPayload struct {
	Phase  Phase
	Shares map[key.Address]ExposedShareWire
}

// ExposedShareWire is the hex-stringified form of beacon.ExposedShare,
// the wire twin of the algebraic Fr pair.
type ExposedShareWire struct {
	S, SPrime string
}

// ReconstructionPayload carries the shares a node exposes during
// reconstruction: for each owner whose polynomial is being rebuilt, the
// share this node originally received from them.
type ReconstructionPayload struct {
	Shares map[key.Address]string // owner -> this sender's s_{owner,self}, hex Fr
}

// NotarisationKeyPayload announces a member's long-lived notarisation
// public key, signed by an out-of-band identity key (ecdsa_sig is
// opaque to this core; verifying it is the embedder's job).
type NotarisationKeyPayload struct {
	PublicKey string // G2 point, hex
	Signature []byte
}

// FinalStatePayload is an opaque snapshot of a completed BeaconManager,
// offered as an optional handoff mechanism. No handler in this core
// consumes it; it exists so an embedder can persist or transmit a
// completed DKG's state without re-deriving beacon.Output's fields one
// by one.
type FinalStatePayload struct {
	Snapshot []byte
}

// Envelope is the tagged union every DKG wire message is carried in.
// Exactly one of the payload fields is populated, selected by Type.
type Envelope struct {
	Type MessageType
	Round   string
	From key.Address

	Coefficient   *CoefficientPayload
	Complaint     *ComplaintPayload
	QualComplaint *QualComplaintPayload
	Reconstruction *ReconstructionPayload
	NotarisationKey *NotarisationKeyPayload
	FinalState      *FinalStatePayload
}

// SharePayload is the private, point-to-point twin of CoefficientPayload:
// the (s, s') pair a dealer sends one specific receiver outside the
// broadcast medium.
type SharePayload struct {
	S, SPrime string // hex Fr
}
