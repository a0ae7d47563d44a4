// Package beacon implements the DKG arithmetic engine (BeaconManager),
// its three complaint-tracking containers, and the post-DKG aggregate/
// notarisation BLS manager. It is grounded on
// _examples/original_source/libs/beacon/{beacon_manager,
// beacon_complaints_manager, notarisation_manager}.* and generalises
// drand's own DKG bookkeeping style (drand/dkg package: explicit state
// enums, one mutex per stateful container) to the Pedersen-VSS
// complaint/answer/qual-complaint protocol this spec requires.
package beacon

import (
	"sync"

	"github.com/fetchai/dkg-beacon/curve"
	"github.com/fetchai/dkg-beacon/key"
)

// ExposedShare is the (s, s') pair a dealer or a defending node reveals
// as evidence during a complaint answer or a qual-complaint.
type ExposedShare struct {
	S, SPrime curve.Fr
}

// containerState co-locates the "have we finished collecting" flag with
// the data it guards, so is_finished can never observe true while the
// collecting map is still being mutated (see spec Design Notes,
// "Concurrency in complaint managers").
type containerState int

const (
	collecting containerState = iota
	finished
)

// ComplaintsManager records phase-1 complaints: who accuses whom of
// sending bad coefficients or shares.
type ComplaintsManager struct {
	mu sync.Mutex

	threshold uint32
	self      key.Address

	complaintsAgainstSelf map[key.Address]struct{}            // accusers of self, deduped
	complaintsCounter     map[key.Address]map[key.Address]struct{} // accused -> set of accusers
	complaintsReceived    map[key.Address]map[key.Address]struct{} // sender -> set of addresses they accused
	complaints            map[key.Address]struct{}            // terminal: members to disqualify

	state containerState
}

// NewComplaintsManager creates a manager ready for a fresh cabinet.
func NewComplaintsManager(self key.Address, threshold uint32) *ComplaintsManager {
	return &ComplaintsManager{
		threshold:             threshold,
		self:                  self,
		complaintsAgainstSelf: make(map[key.Address]struct{}),
		complaintsCounter:     make(map[key.Address]map[key.Address]struct{}),
		complaintsReceived:    make(map[key.Address]map[key.Address]struct{}),
		complaints:            make(map[key.Address]struct{}),
	}
}

// Reset returns the manager to its initial, empty, collecting state for
// a new cabinet/threshold.
func (c *ComplaintsManager) Reset(self key.Address, threshold uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = threshold
	c.self = self
	c.complaintsAgainstSelf = make(map[key.Address]struct{})
	c.complaintsCounter = make(map[key.Address]map[key.Address]struct{})
	c.complaintsReceived = make(map[key.Address]map[key.Address]struct{})
	c.complaints = make(map[key.Address]struct{})
	c.state = collecting
}

// AddComplaintAgainst records that `self` observed accused misbehaving,
// counting self among accused's accusers (used locally, before
// broadcasting). It does not touch ComplaintsAgainstSelf.
func (c *ComplaintsManager) AddComplaintAgainst(accused key.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addAccusation(accused, c.self)
}

// AddComplaintsFrom ingests a broadcast Complaint message: `from`
// accuses every address in `complaints`. A second submission from the
// same sender is silently discarded, per spec's duplicate-submission
// handling.
func (c *ComplaintsManager) AddComplaintsFrom(from key.Address, complaints map[key.Address]struct{}, cabinet *key.Cabinet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.complaintsReceived[from]; seen {
		return
	}
	if len(c.complaintsReceived) >= cabinet.Size()-1 {
		return
	}
	accusedSet := make(map[key.Address]struct{}, len(complaints))
	for accused := range complaints {
		accusedSet[accused] = struct{}{}
		c.addAccusation(accused, from)
		if accused == c.self {
			c.complaintsAgainstSelf[from] = struct{}{}
		}
	}
	c.complaintsReceived[from] = accusedSet
}

func (c *ComplaintsManager) addAccusation(accused, accuser key.Address) {
	set, ok := c.complaintsCounter[accused]
	if !ok {
		set = make(map[key.Address]struct{})
		c.complaintsCounter[accused] = set
	}
	set[accuser] = struct{}{}
}

// Finish closes the collecting phase: every cabinet member who sent no
// phase-1 message (other than self) and every member with at least
// `threshold` accusers is added to the terminal complaints set.
func (c *ComplaintsManager) Finish(cabinet *key.Cabinet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range cabinet.Members() {
		if m == c.self {
			continue
		}
		if _, received := c.complaintsReceived[m]; !received {
			c.complaints[m] = struct{}{}
		}
	}
	for accused, accusers := range c.complaintsCounter {
		if uint32(len(accusers)) >= c.threshold {
			c.complaints[accused] = struct{}{}
		}
	}
	c.state = finished
}

// NumComplaintsReceived counts senders intersected with the current
// cabinet, so a member removed after the fact is not over-counted.
func (c *ComplaintsManager) NumComplaintsReceived(cabinet *key.Cabinet) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n uint32
	for sender := range c.complaintsReceived {
		if cabinet.Contains(sender) {
			n++
		}
	}
	return n
}

// ComplaintsAgainstSelf returns the set of addresses that accused self.
func (c *ComplaintsManager) ComplaintsAgainstSelf() map[key.Address]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[key.Address]struct{}, len(c.complaintsAgainstSelf))
	for a := range c.complaintsAgainstSelf {
		out[a] = struct{}{}
	}
	return out
}

// Complaints returns the terminal disqualification set. Valid after
// Finish.
func (c *ComplaintsManager) Complaints() map[key.Address]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[key.Address]struct{}, len(c.complaints))
	for a := range c.complaints {
		out[a] = struct{}{}
	}
	return out
}

// IsFinished reports whether Finish has closed the collecting phase.
func (c *ComplaintsManager) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == finished
}

// ComplaintAnswer is the defence a dealer broadcasts against an accuser:
// the exact (s, s') it originally sent.
type ComplaintAnswer struct {
	Accuser key.Address
	Shares  ExposedShare
}

// ComplaintAnswersManager records ComplaintAnswer broadcasts and builds
// QUAL once every expected answer is in.
type ComplaintAnswersManager struct {
	mu sync.Mutex

	complaintsInitial map[key.Address]struct{} // accused from ComplaintsManager, before answers
	received          map[key.Address]map[key.Address]ExposedShare
	complaints        map[key.Address]struct{}
	state             containerState
}

// NewComplaintAnswersManager returns an empty, collecting manager.
func NewComplaintAnswersManager() *ComplaintAnswersManager {
	return &ComplaintAnswersManager{
		complaintsInitial: make(map[key.Address]struct{}),
		received:          make(map[key.Address]map[key.Address]ExposedShare),
		complaints:        make(map[key.Address]struct{}),
	}
}

// Init seeds the manager with the accused set from the complaints round.
func (m *ComplaintAnswersManager) Init(complaints map[key.Address]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaintsInitial = make(map[key.Address]struct{}, len(complaints))
	for a := range complaints {
		m.complaintsInitial[a] = struct{}{}
	}
}

// Reset clears the manager for a new cabinet.
func (m *ComplaintAnswersManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaintsInitial = make(map[key.Address]struct{})
	m.received = make(map[key.Address]map[key.Address]ExposedShare)
	m.complaints = make(map[key.Address]struct{})
	m.state = collecting
}

// AddComplaintAnswerFrom ingests the answers `from` broadcast, keyed by
// the accuser each answer addresses. A second submission from the same
// sender is dropped.
func (m *ComplaintAnswersManager) AddComplaintAnswerFrom(from key.Address, answer map[key.Address]ExposedShare) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.received[from]; seen {
		return
	}
	cp := make(map[key.Address]ExposedShare, len(answer))
	for k, v := range answer {
		cp[k] = v
	}
	m.received[from] = cp
}

// Finish closes the collecting phase, adding to the disqualification set
// any accused member whose answer never arrived.
func (m *ComplaintAnswersManager) Finish(cabinet *key.Cabinet, self key.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for accused := range m.complaintsInitial {
		if accused == self {
			continue
		}
		if _, answered := m.received[accused]; !answered {
			m.complaints[accused] = struct{}{}
		}
	}
	_ = cabinet
	m.state = finished
}

// NumComplaintAnswersReceived counts senders intersected with cabinet.
func (m *ComplaintAnswersManager) NumComplaintAnswersReceived(cabinet *key.Cabinet) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uint32
	for sender := range m.received {
		if cabinet.Contains(sender) {
			n++
		}
	}
	return n
}

// ComplaintAnswersReceived exposes the raw received answers, used by the
// service to feed each answer through VerifyComplaintAnswer.
func (m *ComplaintAnswersManager) ComplaintAnswersReceived() map[key.Address]map[key.Address]ExposedShare {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[key.Address]map[key.Address]ExposedShare, len(m.received))
	for k, v := range m.received {
		cp := make(map[key.Address]ExposedShare, len(v))
		for kk, vv := range v {
			cp[kk] = vv
		}
		out[k] = cp
	}
	return out
}

// AddComplaintAgainst grows the post-answer disqualification set, used
// when VerifyComplaintAnswer fails for a received answer.
func (m *ComplaintAnswersManager) AddComplaintAgainst(member key.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints[member] = struct{}{}
}

// BuildQual returns cabinet \ complaints: the liveness condition
// |QUAL| > t is checked by the caller (the C5 service).
func (m *ComplaintAnswersManager) BuildQual(cabinet *key.Cabinet) map[key.Address]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	qual := make(map[key.Address]struct{})
	for _, member := range cabinet.Members() {
		if _, disqualified := m.complaints[member]; !disqualified {
			qual[member] = struct{}{}
		}
	}
	return qual
}

// IsFinished reports whether Finish has closed the collecting phase.
func (m *ComplaintAnswersManager) IsFinished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == finished
}

// QualComplaintsManager records post-QUAL complaints, each carrying the
// exposed private share used as evidence. Only messages from QUAL
// members are retained, even if a non-QUAL broadcast happens to arrive.
type QualComplaintsManager struct {
	mu sync.Mutex

	received   map[key.Address]map[key.Address]ExposedShare
	complaints map[key.Address]struct{}
	state      containerState
}

// NewQualComplaintsManager returns an empty, collecting manager.
func NewQualComplaintsManager() *QualComplaintsManager {
	return &QualComplaintsManager{
		received:   make(map[key.Address]map[key.Address]ExposedShare),
		complaints: make(map[key.Address]struct{}),
	}
}

// Reset clears the manager for a new cabinet.
func (q *QualComplaintsManager) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.received = make(map[key.Address]map[key.Address]ExposedShare)
	q.complaints = make(map[key.Address]struct{})
	q.state = collecting
}

// AddComplaintAgainst records a local accusation against id (used before
// the accuser's own broadcast, and directly by VerifyQualComplaint
// results).
func (q *QualComplaintsManager) AddComplaintAgainst(id key.Address) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.complaints[id] = struct{}{}
}

// AddComplaintsFrom ingests a QualComplaint broadcast from a QUAL
// member, keyed by the accused address. The caller is responsible for
// checking `id` is itself in QUAL before calling this.
func (q *QualComplaintsManager) AddComplaintsFrom(id key.Address, complaints map[key.Address]ExposedShare) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, seen := q.received[id]; seen {
		return
	}
	cp := make(map[key.Address]ExposedShare, len(complaints))
	for k, v := range complaints {
		cp[k] = v
	}
	q.received[id] = cp
}

// Finish closes the collecting phase, retaining only messages whose
// sender is in qual.
func (q *QualComplaintsManager) Finish(qual map[key.Address]struct{}, self key.Address) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for sender := range q.received {
		if sender == self {
			continue
		}
		if _, inQual := qual[sender]; !inQual {
			delete(q.received, sender)
		}
	}
	q.state = finished
}

// NumComplaintsReceived counts senders intersected with qual.
func (q *QualComplaintsManager) NumComplaintsReceived(qual map[key.Address]struct{}) uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n uint32
	for sender := range q.received {
		if _, ok := qual[sender]; ok {
			n++
		}
	}
	return n
}

// ComplaintsReceived exposes the raw received qual-complaints, keyed by
// accuser then accused.
func (q *QualComplaintsManager) ComplaintsReceived() map[key.Address]map[key.Address]ExposedShare {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[key.Address]map[key.Address]ExposedShare, len(q.received))
	for k, v := range q.received {
		cp := make(map[key.Address]ExposedShare, len(v))
		for kk, vv := range v {
			cp[kk] = vv
		}
		out[k] = cp
	}
	return out
}

// ComplaintsSize returns the size of the terminal complaints set.
func (q *QualComplaintsManager) ComplaintsSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.complaints)
}

// FindComplaint reports whether id is in the terminal complaints set.
func (q *QualComplaintsManager) FindComplaint(id key.Address) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.complaints[id]
	return ok
}

// Complaints returns the terminal set of members who failed phase-2
// verification.
func (q *QualComplaintsManager) Complaints() map[key.Address]struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[key.Address]struct{}, len(q.complaints))
	for a := range q.complaints {
		out[a] = struct{}{}
	}
	return out
}

// IsFinished reports whether Finish has closed the collecting phase.
func (q *QualComplaintsManager) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state == finished
}
