// Command ocpsim drives one poker hand end to end through the
// coordinator and ledger packages: a two-member shuffling committee
// encrypts and shuffles a deck, deals both hole cards and the board,
// plays a check/call line to the river, and reveals both hands at
// showdown. It exists to exercise the whole pipeline outside of tests,
// the way a demo client would.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/coordinator"
	"github.com/wu-s-john/pokerledger/internal/ledger"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/ocpshuffle"
	"github.com/wu-s-john/pokerledger/internal/shuffler"
)

const (
	gameID = 1
	handID = 1
)

func mustRng() *ocpshuffle.DeterministicRng {
	rng, err := ocpshuffle.NewDeterministicRng(randomSeed())
	if err != nil {
		panic(err)
	}
	return rng
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ocpsim:", err)
		os.Exit(1)
	}
}

func run() error {
	hasher := ledger.Sha256Hasher{}
	logger := cmtlog.NewTMLogger(os.Stdout)

	shuffKeyA, err := ocpcrypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	shuffKeyB, err := ocpcrypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	engineA := shuffler.NewEngine(shuffKeyA.Secret, "shuffler-a")
	engineB := shuffler.NewEngine(shuffKeyB.Secret, "shuffler-b")
	engines := []*shuffler.Engine{&engineA, &engineB}
	aggSecret := ocpcrypto.ScalarAdd(shuffKeyA.Secret, shuffKeyB.Secret)

	playerKeyA, err := ocpcrypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	playerKeyB, err := ocpcrypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	players := []participant{
		{seat: 0, id: "alice", keys: playerKeyA},
		{seat: 1, id: "bob", keys: playerKeyB},
	}

	var lobby coordinator.Lobby = &tableLobby{
		cfg:        ledger.HandConfig{SmallBlind: 1, BigBlind: 2, ButtonSeat: 0, SmallBlindSeat: 0, BigBlindSeat: 1},
		hasher:     hasher,
		shufflers:  engines,
		players:    players,
		startStack: 200,
	}
	genesis, err := lobby.CommenceGameOutcome(gameID, handID)
	if err != nil {
		return fmt.Errorf("commence: %w", err)
	}

	coord := coordinator.NewGameCoordinator(ledger.NewLedgerState(), hasher, logger,
		coordinator.WithTransport(stdoutTransport{}),
		coordinator.WithEventStore(newMemoryEventStore()),
		coordinator.WithSnapshotStore(newMemorySnapshotStore()),
	)
	if err := coord.Commence(genesis); err != nil {
		return fmt.Errorf("commence: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = coord.Run(ctx) }()

	if err := runShuffling(ctx, coord, engines, genesis); err != nil {
		return fmt.Errorf("shuffling: %w", err)
	}
	if err := runDealing(ctx, coord, engines, players); err != nil {
		return fmt.Errorf("dealing: %w", err)
	}
	bettingNonces, err := runBetting(ctx, coord, players)
	if err != nil {
		return fmt.Errorf("betting: %w", err)
	}
	if err := runShowdown(ctx, coord, players, aggSecret, bettingNonces); err != nil {
		return fmt.Errorf("showdown: %w", err)
	}

	tip, _ := coord.TipSnapshot(handID)
	fmt.Printf("\nhand complete: phase=%s sequence=%d\n", tip.Phase, tip.Sequence)
	for seat, reveal := range tip.Reveals.RevealedHoles {
		fmt.Printf("  seat %d: hole=%v category=%s\n", seat, reveal.Hole, reveal.BestCategory)
	}
	return nil
}

func submit(ctx context.Context, coord *coordinator.GameCoordinator, env ledger.AnyMessageEnvelope) (*ledger.TableSnapshot, error) {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	next, err := coord.Submit(sctx, handID, env)
	if err != nil {
		return nil, err
	}
	if next.Status.Failed {
		return next, fmt.Errorf("message rejected: %s", next.Status.Reason)
	}
	return next, nil
}

func runShuffling(ctx context.Context, coord *coordinator.GameCoordinator, engines []*shuffler.Engine, genesis *ledger.TableSnapshot) error {
	byKey := map[ocpcrypto.CanonicalKey]*shuffler.Engine{}
	for _, e := range engines {
		byKey[ocpcrypto.CanonicalKeyOf(e.PublicKey)] = e
	}
	aggKey := genesis.Shufflers[0].AggregatedKey
	deck := genesis.Shuffling.InitialDeck.Slice()
	for _, key := range genesis.Shuffling.ExpectedOrder {
		e := byKey[key]
		env, err := e.ShuffleAndSign(gameID, handID, aggKey, deck, randomSeed())
		if err != nil {
			return err
		}
		next, err := submit(ctx, coord, env)
		if err != nil {
			return err
		}
		deck = next.Shuffling.FinalDeck.Slice()
	}
	return nil
}

// runDealing drives both hole positions for both seats (Phase A then
// Phase B) and all five community shares. Unlike shuffling, dealing
// messages carry no turn order: the ledger folds in whichever committee
// member's contribution arrives first for a given target.
func runDealing(ctx context.Context, coord *coordinator.GameCoordinator, engines []*shuffler.Engine, players []participant) error {
	for _, p := range players {
		for holeIndex := 0; holeIndex < 2; holeIndex++ {
			if err := dealHole(ctx, coord, engines, p, holeIndex); err != nil {
				return err
			}
		}
	}
	for boardIndex := 0; boardIndex < 5; boardIndex++ {
		if err := dealCommunity(ctx, coord, engines, boardIndex); err != nil {
			return err
		}
	}
	return nil
}

func dealHole(ctx context.Context, coord *coordinator.GameCoordinator, engines []*shuffler.Engine, p participant, holeIndex int) error {
	tip, ok := coord.TipSnapshot(handID)
	if !ok {
		return fmt.Errorf("ocpsim: no tip snapshot yet")
	}
	aggKey := tip.Shufflers[0].AggregatedKey
	for _, e := range engines {
		env, err := e.PlayerBlindingAndSign(gameID, handID, p.seat, holeIndex, aggKey, p.keys.Public, mustRng())
		if err != nil {
			return err
		}
		if _, err := submit(ctx, coord, env); err != nil {
			return err
		}
	}

	tip, _ = coord.TipSnapshot(handID)
	key := ledger.HoleKey{Seat: p.seat, HoleIndex: holeIndex}
	combined, ok := tip.Dealing.PlayerCiphertexts[key]
	if !ok {
		return fmt.Errorf("ocpsim: hole %+v not combined after both blinding contributions", key)
	}
	for _, e := range engines {
		env, err := e.PlayerUnblindingAndSign(gameID, handID, p.seat, holeIndex, combined.A, mustRng())
		if err != nil {
			return err
		}
		if _, err := submit(ctx, coord, env); err != nil {
			return err
		}
	}
	return nil
}

func dealCommunity(ctx context.Context, coord *coordinator.GameCoordinator, engines []*shuffler.Engine, boardIndex int) error {
	tip, ok := coord.TipSnapshot(handID)
	if !ok {
		return fmt.Errorf("ocpsim: no tip snapshot yet")
	}
	pos, ok := findBoardPosition(tip.Dealing.CardPlan, boardIndex)
	if !ok {
		return fmt.Errorf("ocpsim: board index %d has no deck position", boardIndex)
	}
	c1 := tip.Shuffling.FinalDeck[pos].C1
	for _, e := range engines {
		env, err := e.CommunityShareAndSign(gameID, handID, boardIndex, c1, mustRng())
		if err != nil {
			return err
		}
		if _, err := submit(ctx, coord, env); err != nil {
			return err
		}
	}
	return nil
}

func findBoardPosition(plan ledger.CardPlan, boardIndex int) (int, bool) {
	for i, dest := range plan.Assignments {
		if dest.Kind == ledger.DestBoard && dest.BoardIndex == boardIndex {
			return i, true
		}
	}
	return 0, false
}

// runBetting plays every street as a check/call line: both seats always
// check when nothing is owed and call otherwise, until the hand reaches
// showdown. It tries each seat in turn and accepts whichever one the
// betting engine currently recognizes as next to act, since the ledger
// itself enforces turn order and rejects the other.
func runBetting(ctx context.Context, coord *coordinator.GameCoordinator, players []participant) (map[int]uint64, error) {
	nonces := map[int]uint64{}
	for iter := 0; iter < 200; iter++ {
		tip, ok := coord.TipSnapshot(handID)
		if !ok {
			return nil, fmt.Errorf("ocpsim: no tip snapshot yet")
		}
		if tip.Phase == ledger.PhaseShowdown || tip.Phase == ledger.PhaseComplete {
			return nonces, nil
		}
		street := phaseStreet(tip.Phase)

		progressed := false
		for _, p := range players {
			seatState, ok := tip.Betting.State.Players[p.seat]
			if !ok || seatState.Status != betting.Active {
				continue
			}
			var action betting.Action
			if seatState.CommittedThisRound < tip.Betting.State.CurrentBetToMatch {
				action = betting.Action{Kind: betting.Call}
			} else {
				action = betting.Action{Kind: betting.Check}
			}
			env := buildBettingEnvelope(p, nonces[p.seat]+1, street, action)
			next, err := submit(ctx, coord, env)
			if err != nil {
				continue
			}
			nonces[p.seat]++
			_ = next
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("ocpsim: betting stalled on street %s", street)
		}
	}
	return nil, fmt.Errorf("ocpsim: betting did not reach showdown within the iteration budget")
}

func phaseStreet(p ledger.Phase) betting.Street {
	switch p {
	case ledger.PhaseFlop:
		return betting.Flop
	case ledger.PhaseTurn:
		return betting.Turn
	case ledger.PhaseRiver:
		return betting.River
	default:
		return betting.Preflop
	}
}

func buildBettingEnvelope(p participant, nonce uint64, street betting.Street, action betting.Action) ledger.AnyMessageEnvelope {
	env := ledger.AnyMessageEnvelope{
		GameID:    gameID,
		HandID:    handID,
		Actor:     ledger.Actor{Kind: ledger.ActorPlayer, Seat: p.seat, PlayerID: p.id},
		Nonce:     nonce,
		PublicKey: p.keys.Public,
		Kind:      ledger.MsgPlayerBettingAction,
		BettingAction: &ledger.PlayerBettingActionPayload{
			Street: street,
			Action: action,
		},
	}
	if err := env.Sign(p.keys.Secret); err != nil {
		panic(err)
	}
	return env
}

// runShowdown reveals both seats' hole cards. The simulator plays every
// seat itself, so it can recover each card by decrypting the relevant
// deck position directly with the committee's combined secret; a real
// player instead recovers their own hole cards off-ledger with their own
// secret key and the committee's published shares.
func runShowdown(ctx context.Context, coord *coordinator.GameCoordinator, players []participant, aggSecret ocpcrypto.Scalar, nonces map[int]uint64) error {
	tip, ok := coord.TipSnapshot(handID)
	if !ok {
		return fmt.Errorf("ocpsim: no tip snapshot yet")
	}
	for _, p := range players {
		var hole [2]uint8
		var proofs [2]ocpcrypto.ChaumPedersenProof
		for holeIndex := 0; holeIndex < 2; holeIndex++ {
			key := ledger.HoleKey{Seat: p.seat, HoleIndex: holeIndex}
			pos, ok := findHolePosition(tip.Dealing.CardPlan, p.seat, holeIndex)
			if !ok {
				return fmt.Errorf("ocpsim: no deck position for %+v", key)
			}
			gm := ocpcrypto.ElGamalDecrypt(aggSecret, tip.Shuffling.FinalDeck[pos])
			card, err := ocpcrypto.CardValue(gm)
			if err != nil {
				return err
			}
			hole[holeIndex] = card

			combined := tip.Dealing.PlayerCiphertexts[key]
			rhs := ocpcrypto.MulPoint(combined.D, p.keys.Secret)
			w, err := ocpcrypto.RandomScalar()
			if err != nil {
				return err
			}
			proof, err := ocpcrypto.ChaumPedersenProve(p.keys.Public, combined.D, rhs, p.keys.Secret, w)
			if err != nil {
				return err
			}
			proofs[holeIndex] = proof
		}

		env := ledger.AnyMessageEnvelope{
			GameID:    gameID,
			HandID:    handID,
			Actor:     ledger.Actor{Kind: ledger.ActorPlayer, Seat: p.seat, PlayerID: p.id},
			Nonce:     nonces[p.seat] + 1,
			PublicKey: p.keys.Public,
			Kind:      ledger.MsgShowdownReveal,
			ShowdownReveal: &ledger.ShowdownRevealPayload{
				Hole:       hole,
				HoleProofs: proofs,
			},
		}
		if err := env.Sign(p.keys.Secret); err != nil {
			return err
		}
		nonces[p.seat]++
		if _, err := submit(ctx, coord, env); err != nil {
			return err
		}
	}
	return nil
}

func findHolePosition(plan ledger.CardPlan, seat, holeIndex int) (int, bool) {
	for i, dest := range plan.Assignments {
		if dest.Kind == ledger.DestHole && dest.Seat == seat && dest.HoleIndex == holeIndex {
			return i, true
		}
	}
	return 0, false
}
