package dkg

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/fetchai/dkg-beacon/beacon"
	"github.com/fetchai/dkg-beacon/curve"
	"github.com/fetchai/dkg-beacon/key"
	"github.com/fetchai/dkg-beacon/log"
)

// State enumerates the setup service's run states, in protocol order.
// Grounded on dkg_setup_service.hpp's DkgSetupService::State.
type State uint8

const (
	Initial State = iota
	WaitShares
	WaitComplaints
	WaitComplaintAnswers
	WaitQualShares
	WaitQualComplaints
	WaitReconstructionShares
	Final
)

func (s State) String() string {
	switch s {
	case Initial:
		return "Initial"
	case WaitShares:
		return "WaitShares"
	case WaitComplaints:
		return "WaitComplaints"
	case WaitComplaintAnswers:
		return "WaitComplaintAnswers"
	case WaitQualShares:
		return "WaitQualShares"
	case WaitQualComplaints:
		return "WaitQualComplaints"
	case WaitReconstructionShares:
		return "WaitReconstructionShares"
	case Final:
		return "Final"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Status is the terminal outcome recorded once the service reaches
// Final.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailedNotInQual
	StatusFailedQualTooSmall
	StatusFailedReconstruction
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSuccess:
		return "Success"
	case StatusFailedNotInQual:
		return "FailedNotInQual"
	case StatusFailedQualTooSmall:
		return "FailedQualTooSmall"
	case StatusFailedReconstruction:
		return "FailedReconstruction"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Broadcast sends an envelope to the other cabinet members. The
// handlers do not discard envelopes whose From is this node, so an
// envelope delivered back to its sender is handled and counted like a
// peer's.
type Broadcast func(Envelope)

// PrivateSend delivers a SharePayload to exactly one cabinet member,
// outside the broadcast medium.
type PrivateSend func(to key.Address, payload SharePayload)

// SetupService drives one BeaconManager and its three complaint
// managers through the Pedersen-VSS setup protocol. Every exported
// method acquires the service's own mutex before touching engine state,
// per the single-caller, serialised-access model the embedder must
// honour (spec's concurrency model: the service is the sole caller of
// the arithmetic engine, and holds its lock for the full duration of a
// transition).
type SetupService struct {
	mu sync.Mutex

	self      key.Address
	cabinet   *key.Cabinet
	threshold uint32
	round     string

	broadcast   Broadcast
	privateSend PrivateSend
	logger      log.Logger

	manager         *beacon.BeaconManager
	complaints      *beacon.ComplaintsManager
	complaintAnswer *beacon.ComplaintAnswersManager
	qualComplaints  *beacon.QualComplaintsManager

	state  State
	status Status

	coeffReceived map[key.Address]struct{}
	sharesReceived map[key.Address]struct{}
	qualCoeffReceived map[key.Address]struct{}
	reconstructionReceived map[key.Address]struct{}

	qual map[key.Address]struct{}
}

// NewSetupService constructs a service for one round with no cabinet
// configured; call ResetCabinet before Start.
func NewSetupService(self key.Address, round string, broadcast Broadcast, privateSend PrivateSend, logger log.Logger) *SetupService {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	logger = logger.Named("dkg").With("round", round, "self", self.String())
	return &SetupService{
		self:        self,
		round:       round,
		broadcast:   broadcast,
		privateSend: privateSend,
		logger:      logger,
		manager:     beacon.NewBeaconManager(),
	}
}

// ResetCabinet configures (or reconfigures) the cabinet and threshold
// and returns the service to Initial. Safe at any state: all
// in-progress arithmetic and message counters are discarded.
func (s *SetupService) ResetCabinet(cabinet *key.Cabinet, threshold uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.ResetCabinet(s.self, cabinet, threshold); err != nil {
		return err
	}
	s.cabinet = cabinet
	s.threshold = threshold
	s.complaints = beacon.NewComplaintsManager(s.self, threshold)
	s.complaintAnswer = beacon.NewComplaintAnswersManager()
	s.qualComplaints = beacon.NewQualComplaintsManager()
	s.state = Initial
	s.status = StatusPending
	s.coeffReceived = make(map[key.Address]struct{})
	s.sharesReceived = make(map[key.Address]struct{})
	s.qualCoeffReceived = make(map[key.Address]struct{})
	s.reconstructionReceived = make(map[key.Address]struct{})
	s.qual = nil
	return nil
}

// State returns the service's current state.
func (s *SetupService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finished reports whether the service has reached Final.
func (s *SetupService) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Final
}

// Status returns the terminal status; StatusPending before Final.
func (s *SetupService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Output returns the completed DKG output. Only meaningful once
// Status() == StatusSuccess.
func (s *SetupService) Output() beacon.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.GetDkgOutput()
}

// finish moves the service to Final with the given terminal status,
// logging it at Info for success and Error for every failure kind so
// an embedder watching its logger alone can tell rounds apart without
// polling Status().
func (s *SetupService) finish(status Status) {
	s.status = status
	s.state = Final
	if status == StatusSuccess {
		s.logger.Infow("dkg: round finished", "status", status.String())
		return
	}
	s.logger.Errorw("dkg: round failed", "status", status.String())
}

// Start runs the Initial -> WaitShares transition: sample fresh
// polynomials, broadcast this node's Pedersen commitments, privately
// send every cabinet member its share, and advance.
func (s *SetupService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Initial {
		return fmt.Errorf("dkg: Start called from state %s, expected Initial", s.state)
	}

	s.manager.GenerateCoefficients()

	coeffs := s.manager.GetCoefficients()
	wire, err := encodeG2Slice(coeffs)
	if err != nil {
		return err
	}
	s.broadcast(Envelope{
		Type:  MessageCoefficient,
		Round: s.round,
		From:  s.self,
		Coefficient: &CoefficientPayload{
			Phase:  PhaseWaitShares,
			Coeffs: wire,
		},
	})

	for _, member := range s.cabinet.Members() {
		idx, _ := s.cabinet.IndexOf(member)
		sij, spij := s.manager.GetOwnShares(idx)
		if member == s.self {
			// Dealt directly: routing this through PrivateSend and back
			// into OnShares would reenter this service's own (locked,
			// non-reentrant) mutex.
			if err := s.manager.AddShares(s.self, sij, spij); err != nil {
				return err
			}
			continue
		}
		sStr, err := curve.ToStringFr(sij)
		if err != nil {
			return err
		}
		spStr, err := curve.ToStringFr(spij)
		if err != nil {
			return err
		}
		s.privateSend(member, SharePayload{S: sStr, SPrime: spStr})
	}

	// s.coeffReceived/s.sharesReceived count only the *other* n-1 cabinet
	// members: self's commitments and shares are already folded into the
	// manager directly above, so seeding self into these maps would make
	// the WaitShares->WaitComplaints transition fire one peer short.
	s.state = WaitShares
	s.maybeAdvanceFromWaitShares()
	return nil
}

func encodeG2Slice(points []curve.G2) ([]string, error) {
	out := make([]string, len(points))
	for i, p := range points {
		enc, err := curve.ToStringG2(p)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// decodeExposedShares decodes a wire-level ExposedShareWire map,
// collecting every decode failure instead of stopping at the first one
// so one malformed entry among many doesn't hide the rest.
func decodeExposedShares(wire map[key.Address]ExposedShareWire) (map[key.Address]beacon.ExposedShare, error) {
	out := make(map[key.Address]beacon.ExposedShare, len(wire))
	var errs *multierror.Error
	for addr, w := range wire {
		s, err := curve.FromStringFr(w.S)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("share from %s: %w", addr, err))
			continue
		}
		sp, err := curve.FromStringFr(w.SPrime)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("share-prime from %s: %w", addr, err))
			continue
		}
		out[addr] = beacon.ExposedShare{S: s, SPrime: sp}
	}
	return out, errs.ErrorOrNil()
}

// encodeExposedShares is decodeExposedShares's inverse.
func encodeExposedShares(shares map[key.Address]beacon.ExposedShare) (map[key.Address]ExposedShareWire, error) {
	out := make(map[key.Address]ExposedShareWire, len(shares))
	var errs *multierror.Error
	for addr, share := range shares {
		sStr, err := curve.ToStringFr(share.S)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("share for %s: %w", addr, err))
			continue
		}
		spStr, err := curve.ToStringFr(share.SPrime)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("share-prime for %s: %w", addr, err))
			continue
		}
		out[addr] = ExposedShareWire{S: sStr, SPrime: spStr}
	}
	return out, errs.ErrorOrNil()
}

func decodeG2Slice(wire []string) ([]curve.G2, error) {
	out := make([]curve.G2, len(wire))
	for i, w := range wire {
		p, err := curve.FromStringG2(w)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// OnCoefficient ingests a broadcast CoefficientPayload, whether phase-1
// commitments (Phase WaitShares) or phase-2 qual-coefficients (Phase
// WaitQualShares). Dispatch checks sender membership, state/phase
// agreement, and not-already-processed before calling into the engine.
func (s *SetupService) OnCoefficient(from key.Address, payload CoefficientPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cabinet.Contains(from) {
		s.logger.Warnw("dkg: coefficient from non-member", "from", from)
		return
	}
	coeffs, err := decodeG2Slice(payload.Coeffs)
	if err != nil {
		s.logger.Warnw("dkg: coefficient decode failed", "from", from, "err", err)
		return
	}

	switch payload.Phase {
	case PhaseWaitShares:
		if s.state != WaitShares && s.state != Initial {
			return
		}
		if _, seen := s.coeffReceived[from]; seen {
			return
		}
		if err := s.manager.AddCoefficients(from, coeffs); err != nil {
			s.logger.Warnw("dkg: duplicate coefficients", "from", from, "err", err)
			return
		}
		s.coeffReceived[from] = struct{}{}
		s.maybeAdvanceFromWaitShares()
	case PhaseWaitQualShares:
		if s.state != WaitQualShares {
			return
		}
		if s.qual == nil || !contains(s.qual, from) {
			return
		}
		if _, seen := s.qualCoeffReceived[from]; seen {
			return
		}
		if err := s.manager.AddQualCoefficients(from, coeffs); err != nil {
			s.logger.Warnw("dkg: duplicate qual coefficients", "from", from, "err", err)
			return
		}
		s.qualCoeffReceived[from] = struct{}{}
		s.maybeAdvanceFromWaitQualShares()
	default:
		s.logger.Warnw("dkg: coefficient envelope with unexpected phase", "phase", payload.Phase)
	}
}

// OnShares ingests the private (s, s') a dealer sent this node. This is
// delivered out-of-band (the embedder's transport calls this directly
// rather than routing through the broadcast envelope path).
func (s *SetupService) OnShares(from key.Address, payload SharePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != WaitShares && s.state != Initial {
		return
	}
	if !s.cabinet.Contains(from) {
		s.logger.Warnw("dkg: shares from non-member", "from", from)
		return
	}
	if _, seen := s.sharesReceived[from]; seen {
		return
	}
	sij, err := curve.FromStringFr(payload.S)
	if err != nil {
		s.logger.Warnw("dkg: share decode failed", "from", from, "err", err)
		return
	}
	spij, err := curve.FromStringFr(payload.SPrime)
	if err != nil {
		s.logger.Warnw("dkg: share decode failed", "from", from, "err", err)
		return
	}
	if err := s.manager.AddShares(from, sij, spij); err != nil {
		s.logger.Warnw("dkg: add shares failed", "from", from, "err", err)
		return
	}
	s.sharesReceived[from] = struct{}{}
	s.maybeAdvanceFromWaitShares()
}

func contains(set map[key.Address]struct{}, a key.Address) bool {
	_, ok := set[a]
	return ok
}

// maybeAdvanceFromWaitShares fires the WaitShares -> WaitComplaints
// transition once coeff_count = shares_count = n-1.
func (s *SetupService) maybeAdvanceFromWaitShares() {
	if s.state != WaitShares {
		return
	}
	n := s.cabinet.Size()
	if len(s.coeffReceived) < n-1 || len(s.sharesReceived) < n-1 {
		return
	}

	accusations := s.manager.ComputeComplaints(s.coeffReceived)
	for accused := range accusations {
		s.complaints.AddComplaintAgainst(accused)
	}
	s.broadcast(Envelope{
		Type:  MessageComplaint,
		Round: s.round,
		From:  s.self,
		Complaint: &ComplaintPayload{
			Accused: setToSlice(accusations),
		},
	})
	s.state = WaitComplaints
}

func setToSlice(set map[key.Address]struct{}) []key.Address {
	out := make([]key.Address, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	return out
}

func sliceToSet(s []key.Address) map[key.Address]struct{} {
	out := make(map[key.Address]struct{}, len(s))
	for _, a := range s {
		out[a] = struct{}{}
	}
	return out
}

// OnComplaint ingests a broadcast Complaint.
func (s *SetupService) OnComplaint(from key.Address, payload ComplaintPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != WaitComplaints {
		return
	}
	if !s.cabinet.Contains(from) {
		s.logger.Warnw("dkg: complaint from non-member", "from", from)
		return
	}
	s.complaints.AddComplaintsFrom(from, sliceToSet(payload.Accused), s.cabinet)
	s.maybeAdvanceFromWaitComplaints()
}

// maybeAdvanceFromWaitComplaints fires WaitComplaints -> WaitComplaintAnswers
// once ComplaintsManager.IsFinished.
func (s *SetupService) maybeAdvanceFromWaitComplaints() {
	if s.state != WaitComplaints {
		return
	}
	s.tryFinishComplaints()
}

func (s *SetupService) tryFinishComplaints() {
	n := s.cabinet.Size()
	if int(s.complaints.NumComplaintsReceived(s.cabinet)) < n-1 {
		return
	}
	s.complaints.Finish(s.cabinet)
	complaintsAgainstSelf := s.complaints.ComplaintsAgainstSelf()

	answer := make(map[key.Address]beacon.ExposedShare, len(complaintsAgainstSelf))
	for accuser := range complaintsAgainstSelf {
		idx, ok := s.cabinet.IndexOf(accuser)
		if !ok {
			continue
		}
		sij, spij := s.manager.GetOwnShares(idx)
		answer[accuser] = beacon.ExposedShare{S: sij, SPrime: spij}
	}
	s.complaintAnswer.Init(s.complaints.Complaints())

	wire, err := encodeExposedShares(answer)
	if err != nil {
		s.logger.Warnw("dkg: some complaint answers failed to encode", "err", err)
	}
	s.broadcast(Envelope{
		Type:  MessageQualComplaint,
		Round: s.round,
		From:  s.self,
		QualComplaint: &QualComplaintPayload{
			Phase:  PhaseWaitComplaintAnswers,
			Shares: wire,
		},
	})
	s.state = WaitComplaintAnswers
}

// OnComplaintAnswer ingests a broadcast defence answering accusations
// against `from`.
func (s *SetupService) OnComplaintAnswer(from key.Address, payload QualComplaintPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != WaitComplaintAnswers || payload.Phase != PhaseWaitComplaintAnswers {
		return
	}
	if !s.cabinet.Contains(from) {
		s.logger.Warnw("dkg: complaint answer from non-member", "from", from)
		return
	}
	decoded, err := decodeExposedShares(payload.Shares)
	if err != nil {
		s.logger.Warnw("dkg: some complaint-answer entries failed to decode", "from", from, "err", err)
	}
	s.complaintAnswer.AddComplaintAnswerFrom(from, decoded)

	for accuser, share := range decoded {
		if !s.manager.VerifyComplaintAnswer(from, accuser, share) {
			s.complaintAnswer.AddComplaintAgainst(from)
		}
	}
	s.tryFinishComplaintAnswers()
}

func (s *SetupService) tryFinishComplaintAnswers() {
	n := s.cabinet.Size()
	expected := n - 1 - len(s.complaints.Complaints())
	if expected < 0 {
		expected = 0
	}
	if int(s.complaintAnswer.NumComplaintAnswersReceived(s.cabinet)) < expected {
		return
	}
	s.complaintAnswer.Finish(s.cabinet, s.self)

	qual := s.complaintAnswer.BuildQual(s.cabinet)
	s.qual = qual

	_, selfInQual := qual[s.self]
	if !selfInQual {
		s.finish(StatusFailedNotInQual)
		return
	}
	if uint32(len(qual)) <= s.threshold {
		s.finish(StatusFailedQualTooSmall)
		return
	}

	s.manager.ComputeSecretShare(qual)

	qualCoeffs := s.manager.GetQualCoefficients()
	wire, err := encodeG2Slice(qualCoeffs)
	if err != nil {
		s.finish(StatusFailedReconstruction)
		return
	}
	s.broadcast(Envelope{
		Type:  MessageCoefficient,
		Round: s.round,
		From:  s.self,
		Coefficient: &CoefficientPayload{
			Phase:  PhaseWaitQualShares,
			Coeffs: wire,
		},
	})
	s.qualCoeffReceived[s.self] = struct{}{}
	s.state = WaitQualShares
}

// maybeAdvanceFromWaitQualShares fires WaitQualShares -> WaitQualComplaints
// once qual-coefficients have arrived from every QUAL member.
func (s *SetupService) maybeAdvanceFromWaitQualShares() {
	if s.state != WaitQualShares {
		return
	}
	for addr := range s.qual {
		if _, ok := s.qualCoeffReceived[addr]; !ok {
			return
		}
	}

	complaints := s.manager.ComputeQualComplaints(s.qual)
	for accused := range complaints {
		s.qualComplaints.AddComplaintAgainst(accused)
	}
	wire, err := encodeExposedShares(complaints)
	if err != nil {
		s.logger.Warnw("dkg: some qual-complaints failed to encode", "err", err)
	}
	s.broadcast(Envelope{
		Type:  MessageQualComplaint,
		Round: s.round,
		From:  s.self,
		QualComplaint: &QualComplaintPayload{
			Phase:  PhaseWaitQualComplaints,
			Shares: wire,
		},
	})
	s.state = WaitQualComplaints
}

// OnQualComplaint ingests a broadcast qual-complaint from a QUAL
// member. Non-QUAL senders' messages are retained provisionally and
// dropped when the round Finishes, per
// QualComplaintsManager.Finish.
func (s *SetupService) OnQualComplaint(from key.Address, payload QualComplaintPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != WaitQualComplaints || payload.Phase != PhaseWaitQualComplaints {
		return
	}
	decoded, err := decodeExposedShares(payload.Shares)
	if err != nil {
		s.logger.Warnw("dkg: some qual-complaint entries failed to decode", "from", from, "err", err)
	}
	s.qualComplaints.AddComplaintsFrom(from, decoded)
	s.tryFinishQualComplaints()
}

func (s *SetupService) tryFinishQualComplaints() {
	if int(s.qualComplaints.NumComplaintsReceived(s.qual)) < len(s.qual)-1 {
		return
	}
	s.qualComplaints.Finish(s.qual, s.self)

	for accuser, accusations := range s.qualComplaints.ComplaintsReceived() {
		for victim, evidence := range accusations {
			blamed := s.manager.VerifyQualComplaint(accuser, victim, evidence)
			s.qualComplaints.AddComplaintAgainst(blamed)
		}
	}

	if s.qualComplaints.ComplaintsSize() > int(s.threshold) {
		s.finish(StatusFailedQualTooSmall)
		return
	}
	if s.qualComplaints.FindComplaint(s.self) {
		s.finish(StatusFailedNotInQual)
		return
	}

	s.broadcastReconstructionShares()
	s.reconstructionReceived[s.self] = struct{}{}
	s.state = WaitReconstructionShares
	s.maybeAdvanceFromWaitReconstruction()
}

// broadcastReconstructionShares exposes this node's received share for
// every member in the qual-complaints set, so honest peers can rebuild
// their polynomials.
func (s *SetupService) broadcastReconstructionShares() {
	blamed := s.qualComplaints.Complaints()
	shares := make(map[key.Address]string, len(blamed))
	for owner := range blamed {
		idx, ok := s.cabinet.IndexOf(owner)
		if !ok {
			continue
		}
		sij, _ := s.manager.GetOwnShares(idx)
		enc, err := curve.ToStringFr(sij)
		if err != nil {
			continue
		}
		shares[owner] = enc
	}
	s.broadcast(Envelope{
		Type:  MessageReconstruction,
		Round: s.round,
		From:  s.self,
		Reconstruction: &ReconstructionPayload{
			Shares: shares,
		},
	})
}

// OnReconstructionShare ingests one peer's exposed shares for the
// members under reconstruction.
func (s *SetupService) OnReconstructionShare(from key.Address, payload ReconstructionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != WaitReconstructionShares {
		return
	}
	if _, seen := s.reconstructionReceived[from]; seen {
		return
	}
	for owner, wire := range payload.Shares {
		share, err := curve.FromStringFr(wire)
		if err != nil {
			continue
		}
		s.manager.AddReconstructionShare(owner, from, share)
	}
	s.reconstructionReceived[from] = struct{}{}
	s.maybeAdvanceFromWaitReconstruction()
}

// maybeAdvanceFromWaitReconstruction fires WaitReconstructionShares -> Final
// once reconstruction-share count = |QUAL| - |qual_complaints| - 1.
func (s *SetupService) maybeAdvanceFromWaitReconstruction() {
	if s.state != WaitReconstructionShares {
		return
	}
	expected := len(s.qual) - s.qualComplaints.ComplaintsSize() - 1
	if expected < 0 {
		expected = 0
	}
	if len(s.reconstructionReceived) <= expected {
		return
	}
	if !s.manager.RunReconstruction() {
		s.finish(StatusFailedReconstruction)
		return
	}
	s.manager.ComputePublicKeys(s.qual)
	s.finish(StatusSuccess)
}

// Dispatch routes one broadcast envelope to its handler by Type. It is
// the single entry point an embedder's transport layer needs for
// inbound broadcasts; private shares arrive through OnShares instead,
// since they never travel wrapped in an Envelope.
func (s *SetupService) Dispatch(env Envelope) {
	switch env.Type {
	case MessageCoefficient:
		if env.Coefficient != nil {
			s.OnCoefficient(env.From, *env.Coefficient)
		}
	case MessageComplaint:
		if env.Complaint != nil {
			s.OnComplaint(env.From, *env.Complaint)
		}
	case MessageQualComplaint:
		if env.QualComplaint == nil {
			return
		}
		switch env.QualComplaint.Phase {
		case PhaseWaitComplaintAnswers:
			s.OnComplaintAnswer(env.From, *env.QualComplaint)
		case PhaseWaitQualComplaints:
			s.OnQualComplaint(env.From, *env.QualComplaint)
		default:
			s.logger.Warnw("dkg: qual-complaint envelope with unexpected phase", "phase", env.QualComplaint.Phase)
		}
	case MessageReconstruction:
		if env.Reconstruction != nil {
			s.OnReconstructionShare(env.From, *env.Reconstruction)
		}
	case MessageNotarisationKey, MessageFinalState:
		// Not consumed by the setup protocol itself; the embedder's
		// layer above may handle these directly.
	default:
		s.logger.Warnw("dkg: envelope with unknown type", "type", env.Type)
	}
}
