package ledger

import (
	"testing"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/ocpshuffle"
	"github.com/wu-s-john/pokerledger/internal/shuffler"
)

// dealTestHarness wires a two-shuffler, two-seat hand from genesis and
// exposes the pieces a test needs to drive messages through it.
type dealTestHarness struct {
	t *testing.T

	shufflers []*shuffler.Engine
	aggKey    ocpcrypto.Point

	playerSK [2]ocpcrypto.Scalar
	playerPK [2]ocpcrypto.Point

	hasher Hasher
	state  *LedgerState
}

func newDealTestHarness(t *testing.T) *dealTestHarness {
	t.Helper()
	h := &dealTestHarness{t: t, hasher: Sha256Hasher{}, state: NewLedgerState()}

	e1 := shuffler.NewEngine(ocpcrypto.ScalarFromUint64(101), "shuffler-a")
	e2 := shuffler.NewEngine(ocpcrypto.ScalarFromUint64(202), "shuffler-b")
	h.shufflers = []*shuffler.Engine{&e1, &e2}
	h.aggKey = ocpcrypto.PointAdd(e1.PublicKey, e2.PublicKey)

	h.playerSK[0] = ocpcrypto.ScalarFromUint64(11)
	h.playerSK[1] = ocpcrypto.ScalarFromUint64(12)
	h.playerPK[0] = ocpcrypto.MulBase(h.playerSK[0])
	h.playerPK[1] = ocpcrypto.MulBase(h.playerSK[1])

	genesis := h.buildGenesis()
	if err := h.state.Commence(genesis); err != nil {
		t.Fatalf("Commence: %v", err)
	}
	return h
}

func (h *dealTestHarness) buildGenesis() *TableSnapshot {
	t := h.t
	initialDeck := Deck{}
	for i := 0; i < NumDeckCards; i++ {
		m, err := ocpcrypto.CardPoint(uint8(i))
		if err != nil {
			t.Fatalf("CardPoint: %v", err)
		}
		r := ocpcrypto.ScalarFromUint64(uint64(5000 + i))
		ct, err := ocpcrypto.ElGamalEncrypt(h.aggKey, m, r)
		if err != nil {
			t.Fatalf("ElGamalEncrypt: %v", err)
		}
		initialDeck[i] = ct
	}

	snap := &TableSnapshot{
		GameID: 1,
		HandID: 1,
		Cfg: HandConfig{
			SmallBlind:     1,
			BigBlind:       2,
			ButtonSeat:     0,
			SmallBlindSeat: 0,
			BigBlindSeat:   1,
		},
		Shufflers: []ShufflerIdentity{
			{PublicKey: h.shufflers[0].PublicKey, CanonicalKey: ocpcrypto.CanonicalKeyOf(h.shufflers[0].PublicKey), ShufflerID: "shuffler-a", AggregatedKey: h.aggKey},
			{PublicKey: h.shufflers[1].PublicKey, CanonicalKey: ocpcrypto.CanonicalKeyOf(h.shufflers[1].PublicKey), ShufflerID: "shuffler-b", AggregatedKey: h.aggKey},
		},
		Players: []PlayerIdentity{
			{PublicKey: h.playerPK[0], CanonicalKey: ocpcrypto.CanonicalKeyOf(h.playerPK[0]), PlayerID: "p0", Seat: 0},
			{PublicKey: h.playerPK[1], CanonicalKey: ocpcrypto.CanonicalKeyOf(h.playerPK[1]), PlayerID: "p1", Seat: 1},
		},
		Seating: Seating{
			0: ocpcrypto.CanonicalKeyOf(h.playerPK[0]),
			1: ocpcrypto.CanonicalKeyOf(h.playerPK[1]),
		},
		Stacks: map[int]*PlayerStackInfo{
			0: {Seat: 0, PlayerKey: ocpcrypto.CanonicalKeyOf(h.playerPK[0]), StartingStack: 1000, Status: betting.Active},
			1: {Seat: 1, PlayerKey: ocpcrypto.CanonicalKeyOf(h.playerPK[1]), StartingStack: 1000, Status: betting.Active},
		},
		Phase:  PhaseShuffling,
		Nonces: map[string]uint64{},
		Shuffling: &ShufflingSubSnapshot{
			InitialDeck: initialDeck,
			FinalDeck:   initialDeck,
			ExpectedOrder: []ocpcrypto.CanonicalKey{
				ocpcrypto.CanonicalKeyOf(h.shufflers[0].PublicKey),
				ocpcrypto.CanonicalKeyOf(h.shufflers[1].PublicKey),
			},
		},
	}
	snap.StateHash = ComputeStateHash(h.hasher, nil, nil, snap.CanonicalBytes())
	return snap
}

func (h *dealTestHarness) tip() *TableSnapshot {
	tip, ok := h.state.TipSnapshot(1)
	if !ok {
		h.t.Fatalf("no tip snapshot for hand 1")
	}
	return tip
}

func (h *dealTestHarness) apply(env AnyMessageEnvelope, wantFailure bool) *TableSnapshot {
	h.t.Helper()
	next, err := h.state.InsertMessageSnapshot(1, env, h.hasher)
	if err != nil {
		h.t.Fatalf("InsertMessageSnapshot: %v", err)
	}
	if next.Status.Failed != wantFailure {
		h.t.Fatalf("status.Failed = %v (reason=%q), want %v", next.Status.Failed, next.Status.Reason, wantFailure)
	}
	return next
}

// runShuffling drives both committee members' shuffle steps in
// ExpectedOrder, leaving the chain in the Dealing phase.
func (h *dealTestHarness) runShuffling() {
	t := h.t
	for i, e := range h.shufflers {
		tip := h.tip()
		deckIn := tip.Shuffling.FinalDeck
		if len(tip.Shuffling.Steps) == 0 {
			deckIn = tip.Shuffling.InitialDeck
		}
		seed := make([]byte, 32)
		seed[0] = byte(i + 1)
		env, err := e.ShuffleAndSign(1, 1, h.aggKey, deckIn.Slice(), seed)
		if err != nil {
			t.Fatalf("ShuffleAndSign[%d]: %v", i, err)
		}
		h.apply(env, false)
	}
}

// dealHole drives both shufflers' Phase A and Phase B messages for one
// hole position, leaving its card value combinable at showdown.
func (h *dealTestHarness) dealHole(seat, holeIndex int) {
	t := h.t
	playerPK := h.playerPK[seat]

	for i, e := range h.shufflers {
		rng, err := ocpshuffle.NewDeterministicRng([]byte(h.seedFor("blind", i, seat, holeIndex)))
		if err != nil {
			t.Fatalf("rng: %v", err)
		}
		env, err := e.PlayerBlindingAndSign(1, 1, seat, holeIndex, h.aggKey, playerPK, rng)
		if err != nil {
			t.Fatalf("PlayerBlindingAndSign: %v", err)
		}
		h.apply(env, false)
	}

	tip := h.tip()
	combined, ok := tip.Dealing.PlayerCiphertexts[HoleKey{Seat: seat, HoleIndex: holeIndex}]
	if !ok {
		t.Fatalf("hole (%d,%d) ciphertext not combined after both blinding contributions", seat, holeIndex)
	}

	for i, e := range h.shufflers {
		rng, err := ocpshuffle.NewDeterministicRng([]byte(h.seedFor("unblind", i, seat, holeIndex)))
		if err != nil {
			t.Fatalf("rng: %v", err)
		}
		env, err := e.PlayerUnblindingAndSign(1, 1, seat, holeIndex, combined.A, rng)
		if err != nil {
			t.Fatalf("PlayerUnblindingAndSign: %v", err)
		}
		h.apply(env, false)
	}
}

// seedFor derives a distinct deterministic rng seed per (purpose,
// shuffler, target) so proof witnesses never repeat across positions.
func (h *dealTestHarness) seedFor(purpose string, shufflerIdx, a, b int) string {
	return purpose + ":" + h.shufflers[shufflerIdx].ShufflerID + ":" + string(rune('0'+a)) + ":" + string(rune('0'+b))
}

func (h *dealTestHarness) dealCommunity(boardIndex int) {
	t := h.t
	tip := h.tip()
	ct, found := lookupDeckCiphertext(tip.Dealing.CardPlan, tip.Shuffling.FinalDeck, Destination{Kind: DestBoard, BoardIndex: boardIndex})
	if !found {
		t.Fatalf("no deck position assigned to board index %d", boardIndex)
	}
	for i, e := range h.shufflers {
		rng, err := ocpshuffle.NewDeterministicRng([]byte(h.seedFor("community", i, boardIndex, 0)))
		if err != nil {
			t.Fatalf("rng: %v", err)
		}
		env, err := e.CommunityShareAndSign(1, 1, boardIndex, ct.C1, rng)
		if err != nil {
			t.Fatalf("CommunityShareAndSign: %v", err)
		}
		h.apply(env, false)
	}
}

func TestLedger_ShufflingToDealingTransition(t *testing.T) {
	h := newDealTestHarness(t)
	h.runShuffling()

	tip := h.tip()
	if tip.Phase != PhaseDealing {
		t.Fatalf("phase = %v, want PhaseDealing", tip.Phase)
	}
	if tip.Dealing == nil {
		t.Fatalf("Dealing sub-snapshot missing after shuffling completed")
	}
	if len(tip.Shuffling.Steps) != 2 {
		t.Fatalf("shuffling steps = %d, want 2", len(tip.Shuffling.Steps))
	}
}

func TestLedger_FullDealingReachesPreflop(t *testing.T) {
	h := newDealTestHarness(t)
	h.runShuffling()

	for _, seat := range []int{0, 1} {
		for holeIdx := 0; holeIdx < 2; holeIdx++ {
			h.dealHole(seat, holeIdx)
		}
	}
	for boardIdx := 0; boardIdx < 5; boardIdx++ {
		h.dealCommunity(boardIdx)
	}

	tip := h.tip()
	if tip.Phase != PhasePreflop {
		t.Fatalf("phase = %v, want PhasePreflop", tip.Phase)
	}
	if tip.Betting == nil || tip.Betting.State == nil {
		t.Fatalf("betting sub-snapshot missing after dealing completed")
	}
	if len(tip.Dealing.CommunityCards) != 5 {
		t.Fatalf("community cards = %d, want 5", len(tip.Dealing.CommunityCards))
	}
	for seat := 0; seat < 2; seat++ {
		for holeIdx := 0; holeIdx < 2; holeIdx++ {
			if _, ok := tip.Dealing.PlayerUnblindingCombined[HoleKey{Seat: seat, HoleIndex: holeIdx}]; !ok {
				t.Fatalf("hole (%d,%d) never combined", seat, holeIdx)
			}
		}
	}
}

func TestLedger_StateHashChainsAndIsDeterministic(t *testing.T) {
	h1 := newDealTestHarness(t)
	h1.runShuffling()
	tip1 := h1.tip()

	h2 := newDealTestHarness(t)
	h2.runShuffling()
	tip2 := h2.tip()

	if string(tip1.StateHash) != string(tip2.StateHash) {
		t.Fatalf("replaying the same messages produced different state hashes")
	}

	stepOne, ok := h1.state.SnapshotAtSequence(1, 1)
	if !ok {
		t.Fatalf("no snapshot at sequence 1")
	}
	if string(tip1.PreviousHash) != string(stepOne.StateHash) {
		t.Fatalf("tip's previous_hash does not chain to the prior snapshot's state_hash")
	}
}

func TestLedger_WrongTurnShuffleStepRejected(t *testing.T) {
	h := newDealTestHarness(t)

	// shuffler-b tries to go first, out of ExpectedOrder.
	tip := h.tip()
	seed := make([]byte, 32)
	seed[0] = 9
	env, err := h.shufflers[1].ShuffleAndSign(1, 1, h.aggKey, tip.Shuffling.InitialDeck.Slice(), seed)
	if err != nil {
		t.Fatalf("ShuffleAndSign: %v", err)
	}
	next := h.apply(env, true)
	if next.Status.Reason == "" {
		t.Fatalf("expected a failure reason")
	}
	if next.Phase != PhaseShuffling {
		t.Fatalf("phase advanced despite rejected step")
	}
}

func TestLedger_StaleNonceRejected(t *testing.T) {
	h := newDealTestHarness(t)
	tip := h.tip()
	seed := make([]byte, 32)
	seed[0] = 1
	env, err := h.shufflers[0].ShuffleAndSign(1, 1, h.aggKey, tip.Shuffling.InitialDeck.Slice(), seed)
	if err != nil {
		t.Fatalf("ShuffleAndSign: %v", err)
	}
	h.apply(env, false)

	// Replaying the exact same envelope reuses nonce 1, which is now stale.
	next := h.apply(env, true)
	if next.Status.Reason == "" {
		t.Fatalf("expected a failure reason for the replayed nonce")
	}
}
