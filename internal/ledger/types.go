// Package ledger implements the phase-indexed, hash-linked snapshot chain
// that drives one poker hand from shuffling through showdown. It is the
// sole mutator of hand state: apply_transition folds one signed message
// at a time into the prior snapshot and returns a fresh one, never
// mutating the snapshot it was given.
package ledger

import (
	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

// CanonicalKey is re-exported from ocpcrypto: every roster, seating, and
// stack key in this package is an affine-normalized group point.
type CanonicalKey = ocpcrypto.CanonicalKey

// HandConfig mirrors betting.HandConfig; the betting engine and the
// ledger agree on one definition so a Betting sub-snapshot's state
// carries exactly the config the ledger froze at hand commencement.
type HandConfig = betting.HandConfig

// ShufflerIdentity is one committee member assigned to a hand. All
// identities in a hand's roster carry the same AggregatedKey.
type ShufflerIdentity struct {
	PublicKey     ocpcrypto.Point
	CanonicalKey  CanonicalKey
	ShufflerID    string
	AggregatedKey ocpcrypto.Point
}

// PlayerIdentity is one seated player. The transition handler does not
// read Nonce: it checks each signed message against the actor's last
// accepted nonce in TableSnapshot.Nonces.
type PlayerIdentity struct {
	PublicKey    ocpcrypto.Point
	CanonicalKey CanonicalKey
	PlayerID     string
	Nonce        uint64
	Seat         int
}

// Seating maps a seat to the occupying player's canonical key; an empty
// seat holds the zero CanonicalKey.
type Seating map[int]CanonicalKey

// PlayerStackInfo tracks one seat's chip position for the hand, shared
// by reference across every snapshot until a betting transition
// produces a new betting.PlayerState that supersedes it.
type PlayerStackInfo struct {
	Seat            int
	PlayerKey       CanonicalKey
	StartingStack   uint64
	CommittedBlind  uint64
	Status          betting.SeatStatus
}
