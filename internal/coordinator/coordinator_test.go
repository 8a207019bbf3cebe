package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/wu-s-john/pokerledger/internal/ledger"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/shuffler"
)

type fakeTransport struct {
	mu        sync.Mutex
	snapshots []*ledger.TableSnapshot
}

func (f *fakeTransport) Broadcast(s *ledger.TableSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

type fakeEventStore struct {
	mu   sync.Mutex
	recs []ledger.RecordedMessage
}

func (f *fakeEventStore) AppendMessage(handID int64, rec ledger.RecordedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	saved int
}

func (f *fakeSnapshotStore) SaveSnapshot(s *ledger.TableSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return nil
}

// buildOneShufflerGenesis produces a minimal single-committee-member
// Shuffling snapshot, enough to exercise the coordinator's apply loop
// without re-deriving the full dealing harness from the ledger package.
func buildOneShufflerGenesis(t *testing.T, hasher ledger.Hasher, sk ocpcrypto.Scalar) (*ledger.TableSnapshot, *shuffler.Engine) {
	t.Helper()
	e := shuffler.NewEngine(sk, "solo-shuffler")

	deck := ledger.Deck{}
	for i := 0; i < ledger.NumDeckCards; i++ {
		m, err := ocpcrypto.CardPoint(uint8(i))
		if err != nil {
			t.Fatalf("CardPoint: %v", err)
		}
		ct, err := ocpcrypto.ElGamalEncrypt(e.PublicKey, m, ocpcrypto.ScalarFromUint64(uint64(7000+i)))
		if err != nil {
			t.Fatalf("ElGamalEncrypt: %v", err)
		}
		deck[i] = ct
	}

	snap := &ledger.TableSnapshot{
		GameID: 1,
		HandID: 1,
		Cfg:    ledger.HandConfig{SmallBlind: 1, BigBlind: 2, ButtonSeat: 0, SmallBlindSeat: 0, BigBlindSeat: 1},
		Shufflers: []ledger.ShufflerIdentity{
			{PublicKey: e.PublicKey, CanonicalKey: ocpcrypto.CanonicalKeyOf(e.PublicKey), ShufflerID: "solo-shuffler", AggregatedKey: e.PublicKey},
		},
		Stacks: map[int]*ledger.PlayerStackInfo{},
		Phase:  ledger.PhaseShuffling,
		Nonces: map[string]uint64{},
		Shuffling: &ledger.ShufflingSubSnapshot{
			InitialDeck:   deck,
			FinalDeck:     deck,
			ExpectedOrder: []ocpcrypto.CanonicalKey{ocpcrypto.CanonicalKeyOf(e.PublicKey)},
		},
	}
	snap.StateHash = ledger.ComputeStateHash(hasher, nil, nil, snap.CanonicalBytes())
	return snap, &e
}

func TestGameCoordinator_CommenceAndSubmitAdvancesPhase(t *testing.T) {
	hasher := ledger.Sha256Hasher{}
	genesis, e := buildOneShufflerGenesis(t, hasher, ocpcrypto.ScalarFromUint64(314))

	transport := &fakeTransport{}
	events := &fakeEventStore{}
	snapshots := &fakeSnapshotStore{}

	c := NewGameCoordinator(ledger.NewLedgerState(), hasher, cmtlog.NewNopLogger(),
		WithTransport(transport), WithEventStore(events), WithSnapshotStore(snapshots))

	if err := c.Commence(genesis); err != nil {
		t.Fatalf("Commence: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	seed := make([]byte, 32)
	seed[0] = 1
	env, err := e.ShuffleAndSign(1, 1, e.PublicKey, genesis.Shuffling.InitialDeck.Slice(), seed)
	if err != nil {
		t.Fatalf("ShuffleAndSign: %v", err)
	}

	submitCtx, submitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer submitCancel()
	next, err := c.Submit(submitCtx, 1, env)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if next.Status.Failed {
		t.Fatalf("message rejected: %s", next.Status.Reason)
	}
	if next.Phase != ledger.PhaseDealing {
		t.Fatalf("phase = %v, want PhaseDealing (single-member committee completes in one step)", next.Phase)
	}

	tip, ok := c.TipSnapshot(1)
	if !ok || tip.Sequence != next.Sequence {
		t.Fatalf("TipSnapshot did not reflect the applied message")
	}
	if transport.count() != 2 {
		t.Fatalf("broadcast count = %d, want 2 (commence + one message)", transport.count())
	}
	if len(events.recs) != 1 {
		t.Fatalf("event store recorded %d messages, want 1", len(events.recs))
	}
	if snapshots.saved != 2 {
		t.Fatalf("snapshot store saved %d times, want 2", snapshots.saved)
	}
}

func TestGameCoordinator_SubmitRespectsContextCancellation(t *testing.T) {
	hasher := ledger.Sha256Hasher{}
	genesis, e := buildOneShufflerGenesis(t, hasher, ocpcrypto.ScalarFromUint64(271))

	c := NewGameCoordinator(ledger.NewLedgerState(), hasher, cmtlog.NewNopLogger(), WithInboxCapacity(1))
	if err := c.Commence(genesis); err != nil {
		t.Fatalf("Commence: %v", err)
	}
	// No Run goroutine started: Submit must give up once ctx is cancelled
	// rather than block forever on an inbox nobody drains.
	seed := make([]byte, 32)
	env, err := e.ShuffleAndSign(1, 1, e.PublicKey, genesis.Shuffling.InitialDeck.Slice(), seed)
	if err != nil {
		t.Fatalf("ShuffleAndSign: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Submit(ctx, 1, env); err == nil {
		t.Fatalf("expected Submit to time out with no Run loop draining the inbox")
	}
}
