package main

import (
	"fmt"

	"github.com/wu-s-john/pokerledger/internal/ledger"
)

// stdoutTransport prints a one-line progress update for every snapshot
// the coordinator produces, standing in for a websocket fan-out to
// shufflers and player clients.
type stdoutTransport struct{}

func (stdoutTransport) Broadcast(s *ledger.TableSnapshot) {
	status := "ok"
	if s.Status.Failed {
		status = "rejected: " + s.Status.Reason
	}
	fmt.Printf("[hand %d] seq=%d phase=%-10s %s\n", s.HandID, s.Sequence, s.Phase, status)
}

// memoryEventStore appends every processed message to an in-process
// slice per hand; nothing in this demo reads it back. A real deployment
// would durably persist RecordedMessage to a log or database.
type memoryEventStore struct {
	byHand map[int64][]ledger.RecordedMessage
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{byHand: map[int64][]ledger.RecordedMessage{}}
}

func (m *memoryEventStore) AppendMessage(handID int64, rec ledger.RecordedMessage) error {
	m.byHand[handID] = append(m.byHand[handID], rec)
	return nil
}

// memorySnapshotStore keeps only the latest snapshot per hand.
type memorySnapshotStore struct {
	latest map[int64]*ledger.TableSnapshot
}

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{latest: map[int64]*ledger.TableSnapshot{}}
}

func (m *memorySnapshotStore) SaveSnapshot(s *ledger.TableSnapshot) error {
	m.latest[s.HandID] = s
	return nil
}
