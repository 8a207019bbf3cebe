package ledger

import "fmt"

// handChain is one hand's full snapshot history plus its current tip.
type handChain struct {
	snapshots []*TableSnapshot
	byHash    map[string]*TableSnapshot
}

// LedgerState holds every hand's chain the coordinator has seen. It is
// the only mutable shared state in the process; callers serialize
// access to it (the coordinator does this by owning it exclusively).
type LedgerState struct {
	hands map[int64]*handChain
}

func NewLedgerState() *LedgerState {
	return &LedgerState{hands: map[int64]*handChain{}}
}

// Commence registers a hand's initial Shuffling snapshot, provided by
// the lobby's CommenceGameOutcome.
func (l *LedgerState) Commence(initial *TableSnapshot) error {
	if _, exists := l.hands[initial.HandID]; exists {
		return fmt.Errorf("ledger: hand %d already commenced", initial.HandID)
	}
	l.hands[initial.HandID] = &handChain{
		snapshots: []*TableSnapshot{initial},
		byHash:    map[string]*TableSnapshot{string(initial.StateHash): initial},
	}
	return nil
}

func (l *LedgerState) TipSnapshot(handID int64) (*TableSnapshot, bool) {
	chain, ok := l.hands[handID]
	if !ok || len(chain.snapshots) == 0 {
		return nil, false
	}
	return chain.snapshots[len(chain.snapshots)-1], true
}

func (l *LedgerState) Snapshot(handID int64, hash []byte) (*TableSnapshot, bool) {
	chain, ok := l.hands[handID]
	if !ok {
		return nil, false
	}
	s, ok := chain.byHash[string(hash)]
	return s, ok
}

// SnapshotAtSequence returns the first snapshot in the chain whose
// Sequence is >= fromSequence, supporting the catchup reader contract.
// When fromSequence is past the tip, it returns the tip.
func (l *LedgerState) SnapshotAtSequence(handID int64, fromSequence uint32) (*TableSnapshot, bool) {
	chain, ok := l.hands[handID]
	if !ok {
		return nil, false
	}
	for _, s := range chain.snapshots {
		if s.Sequence >= fromSequence {
			return s, true
		}
	}
	if len(chain.snapshots) == 0 {
		return nil, false
	}
	return chain.snapshots[len(chain.snapshots)-1], true
}

// InsertMessageSnapshot applies env against the hand's current tip and
// appends the result (success or failure) to the chain.
func (l *LedgerState) InsertMessageSnapshot(handID int64, env AnyMessageEnvelope, hasher Hasher) (*TableSnapshot, error) {
	chain, ok := l.hands[handID]
	if !ok {
		return nil, fmt.Errorf("ledger: hand %d has not commenced", handID)
	}
	tip := chain.snapshots[len(chain.snapshots)-1]
	next, err := ApplyTransition(tip, env, hasher)
	if err != nil {
		return nil, err
	}
	chain.snapshots = append(chain.snapshots, next)
	chain.byHash[string(next.StateHash)] = next
	return next, nil
}

// RecordedMessage pairs an envelope with the status its original
// application produced, the unit Replay iterates over.
type RecordedMessage struct {
	Envelope AnyMessageEnvelope
	Status   SnapshotStatus
	Phase    Phase
	Hash     []byte
}

// Replay reconstructs a hand's chain from its initial snapshot and a
// recorded message sequence. A Success entry is re-run through
// ApplyTransition and must reproduce the recorded hash and phase
// byte-for-byte; a Failure entry is stamped without re-verification, so
// that history survives later changes to validation rules.
func Replay(initial *TableSnapshot, messages []RecordedMessage, hasher Hasher) (*TableSnapshot, error) {
	tip := initial
	for i, rec := range messages {
		if !rec.Status.Failed {
			next, err := ApplyTransition(tip, rec.Envelope, hasher)
			if err != nil {
				return nil, err
			}
			if next.Phase != rec.Phase {
				return nil, fmt.Errorf("ledger: replay mismatch at message %d: phase %s != recorded %s", i, next.Phase, rec.Phase)
			}
			if string(next.StateHash) != string(rec.Hash) {
				return nil, fmt.Errorf("ledger: replay mismatch at message %d: state_hash differs from recorded value", i)
			}
			tip = next
			continue
		}
		stamped := tip.cloneShallow()
		stamped.Sequence = tip.Sequence + 1
		stamped.PreviousHash = tip.StateHash
		stamped.Status = Failure(rec.Status.Reason)
		stamped.StateHash = rec.Hash
		tip = stamped
	}
	return tip, nil
}
