// Package coordinator is the single-writer process that owns a
// GameCoordinator's LedgerState: every signed message for a hand is
// funneled through one bounded inbox and applied in submission order,
// so the ledger's "sole mutator" invariant holds even when many
// shufflers and players are submitting concurrently.
package coordinator

import (
	"github.com/wu-s-john/pokerledger/internal/ledger"
)

// ApplyResult is delivered back to a Submit caller once its envelope has
// been folded into the hand's chain (or rejected as malformed).
type ApplyResult struct {
	Snapshot *ledger.TableSnapshot
	Err      error
}

// Submission is one inbox entry: an envelope bound for a specific hand,
// plus the channel its caller is waiting on for the outcome.
type Submission struct {
	HandID   int64
	Envelope ledger.AnyMessageEnvelope
	Result   chan<- ApplyResult
}

// Transport delivers a freshly produced snapshot to whoever is
// listening for this hand's updates (shufflers awaiting their turn,
// players' clients, spectators). Broadcast must not block the
// coordinator's apply loop for long; slow subscribers are the
// implementation's problem, not the coordinator's.
type Transport interface {
	Broadcast(snapshot *ledger.TableSnapshot)
}

// EventStore is the durable append-only log of accepted and rejected
// messages, the source of truth Replay reconstructs a hand's chain
// from. AppendMessage is called once per processed submission, in
// order, after the corresponding snapshot has been produced.
type EventStore interface {
	AppendMessage(handID int64, rec ledger.RecordedMessage) error
}

// SnapshotStore persists a hand's latest snapshot so a restarted
// coordinator can resume without replaying from genesis. Implementations
// may also serve SnapshotAtSequence for the catchup reader contract;
// GameCoordinator only relies on the in-memory LedgerState for that,
// treating SnapshotStore purely as a write-behind cache.
type SnapshotStore interface {
	SaveSnapshot(snapshot *ledger.TableSnapshot) error
}

// Lobby produces a hand's genesis Shuffling snapshot once seating,
// stacks, and the committee roster are decided outside the ledger's
// concern (matchmaking, buy-ins, shuffler assignment).
type Lobby interface {
	CommenceGameOutcome(gameID, handID int64) (*ledger.TableSnapshot, error)
}
