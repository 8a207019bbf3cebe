package coordinator

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/wu-s-john/pokerledger/internal/ledger"
)

// defaultInboxCapacity bounds how many submitted envelopes may sit
// waiting for the apply loop before Submit starts blocking its callers.
const defaultInboxCapacity = 256

// GameCoordinator is the process that owns a LedgerState: Run drains a
// single bounded inbox and applies one envelope at a time, so the
// ledger's cloned-not-mutated snapshots are produced in a strict,
// reproducible order no matter how many goroutines call Submit.
type GameCoordinator struct {
	mu deadlock.RWMutex

	ledgerState *ledger.LedgerState
	hasher      ledger.Hasher
	logger      cmtlog.Logger

	transport Transport
	events    EventStore
	snapshots SnapshotStore

	inbox chan Submission
}

// Option configures a GameCoordinator at construction time.
type Option func(*GameCoordinator)

func WithTransport(t Transport) Option         { return func(c *GameCoordinator) { c.transport = t } }
func WithEventStore(s EventStore) Option       { return func(c *GameCoordinator) { c.events = s } }
func WithSnapshotStore(s SnapshotStore) Option { return func(c *GameCoordinator) { c.snapshots = s } }
func WithInboxCapacity(n int) Option {
	return func(c *GameCoordinator) {
		if n > 0 {
			c.inbox = make(chan Submission, n)
		}
	}
}

// NewGameCoordinator builds a coordinator around ledgerState, ready to
// have Run started in its own goroutine.
func NewGameCoordinator(ledgerState *ledger.LedgerState, hasher ledger.Hasher, logger cmtlog.Logger, opts ...Option) *GameCoordinator {
	c := &GameCoordinator{
		ledgerState: ledgerState,
		hasher:      hasher,
		logger:      logger,
		inbox:       make(chan Submission, defaultInboxCapacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commence registers a new hand's genesis snapshot and broadcasts it.
func (c *GameCoordinator) Commence(initial *ledger.TableSnapshot) error {
	c.mu.Lock()
	err := c.ledgerState.Commence(initial)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.logger.Info("hand commenced", "game_id", initial.GameID, "hand_id", initial.HandID)
	c.persistAndBroadcast(initial)
	return nil
}

// Submit enqueues env for hand handID and blocks until the apply loop
// has processed it or ctx is done. It never applies the envelope
// itself: only the Run goroutine applies envelopes to ledgerState, so two
// concurrent Submit callers can never race on the same hand's chain.
func (c *GameCoordinator) Submit(ctx context.Context, handID int64, env ledger.AnyMessageEnvelope) (*ledger.TableSnapshot, error) {
	result := make(chan ApplyResult, 1)
	sub := Submission{HandID: handID, Envelope: env, Result: result}

	select {
	case c.inbox <- sub:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-result:
		return r.Snapshot, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drains the inbox until ctx is cancelled. It is the only goroutine
// that applies envelopes to ledgerState; the one other mutation,
// Commence registering a genesis snapshot, runs on the caller's
// goroutine under the same lock.
func (c *GameCoordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub := <-c.inbox:
			c.applyOne(sub)
		}
	}
}

func (c *GameCoordinator) applyOne(sub Submission) {
	c.mu.Lock()
	next, err := c.ledgerState.InsertMessageSnapshot(sub.HandID, sub.Envelope, c.hasher)
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("apply failed", "hand_id", sub.HandID, "err", err)
		sub.Result <- ApplyResult{Err: err}
		return
	}
	if next.Status.Failed {
		c.logger.Info("message rejected", "hand_id", sub.HandID, "reason", next.Status.Reason)
	} else {
		c.logger.Debug("message applied", "hand_id", sub.HandID, "phase", next.Phase.String(), "sequence", next.Sequence)
	}

	if c.events != nil {
		rec := ledger.RecordedMessage{Envelope: sub.Envelope, Status: next.Status, Phase: next.Phase, Hash: next.StateHash}
		if err := c.events.AppendMessage(sub.HandID, rec); err != nil {
			c.logger.Error("event store append failed", "hand_id", sub.HandID, "err", err)
		}
	}
	c.persistAndBroadcast(next)

	sub.Result <- ApplyResult{Snapshot: next}
}

func (c *GameCoordinator) persistAndBroadcast(snapshot *ledger.TableSnapshot) {
	if c.snapshots != nil {
		if err := c.snapshots.SaveSnapshot(snapshot); err != nil {
			c.logger.Error("snapshot store save failed", "hand_id", snapshot.HandID, "err", err)
		}
	}
	if c.transport != nil {
		c.transport.Broadcast(snapshot)
	}
}

// TipSnapshot returns a hand's current chain tip.
func (c *GameCoordinator) TipSnapshot(handID int64) (*ledger.TableSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledgerState.TipSnapshot(handID)
}

// SnapshotAtSequence serves the catchup reader contract: the first
// snapshot in the chain at or beyond fromSequence, or the tip when
// fromSequence is past it.
func (c *GameCoordinator) SnapshotAtSequence(handID int64, fromSequence uint32) (*ledger.TableSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledgerState.SnapshotAtSequence(handID, fromSequence)
}
