package dkg

import "github.com/google/uuid"

// NewRound generates a fresh round identifier for tagging a SetupService
// instance. An embedder that already has its own round-numbering scheme
// (a block height, an epoch counter) should use that instead; this helper
// exists for embedders that don't, mirroring how the original project's
// client tooling mints ad hoc identifiers with uuid.New().
func NewRound() string {
	return uuid.New().String()
}
