package main

import (
	"crypto/rand"
	"fmt"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/ledger"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/shuffler"
)

// participant is one seated player: the simulator holds the secret key
// directly since it plays every seat itself for this demo.
type participant struct {
	seat int
	id   string
	keys ocpcrypto.KeyPair
}

// tableLobby builds a single hand's genesis snapshot for a fixed
// committee and seating, satisfying coordinator.Lobby. A production
// lobby would draw its committee and seating from matchmaking; this one
// is wired for exactly the one table main() plays out.
type tableLobby struct {
	cfg        ledger.HandConfig
	hasher     ledger.Hasher
	shufflers  []*shuffler.Engine
	players    []participant
	startStack uint64
}

func (l *tableLobby) aggregatedKey() ocpcrypto.Point {
	pts := make([]ocpcrypto.Point, len(l.shufflers))
	for i, e := range l.shufflers {
		pts[i] = e.PublicKey
	}
	return ocpcrypto.SumPoints(pts...)
}

// CommenceGameOutcome builds the genesis Shuffling snapshot for gameID,
// handID: a full 52-card deck encrypted under the committee's aggregated
// key, two seated players at their starting stacks, and the turn order
// the committee must take through the shuffling phase.
func (l *tableLobby) CommenceGameOutcome(gameID, handID int64) (*ledger.TableSnapshot, error) {
	aggKey := l.aggregatedKey()

	var deck ledger.Deck
	for i := 0; i < ledger.NumDeckCards; i++ {
		m, err := ocpcrypto.CardPoint(uint8(i))
		if err != nil {
			return nil, err
		}
		r, err := ocpcrypto.RandomScalar()
		if err != nil {
			return nil, fmt.Errorf("ocpsim: deck randomness: %w", err)
		}
		ct, err := ocpcrypto.ElGamalEncrypt(aggKey, m, r)
		if err != nil {
			return nil, err
		}
		deck[i] = ct
	}

	shuffIdentities := make([]ledger.ShufflerIdentity, len(l.shufflers))
	expectedOrder := make([]ocpcrypto.CanonicalKey, len(l.shufflers))
	for i, e := range l.shufflers {
		key := ocpcrypto.CanonicalKeyOf(e.PublicKey)
		shuffIdentities[i] = ledger.ShufflerIdentity{PublicKey: e.PublicKey, CanonicalKey: key, ShufflerID: e.ShufflerID, AggregatedKey: aggKey}
		expectedOrder[i] = key
	}

	players := make([]ledger.PlayerIdentity, len(l.players))
	seating := ledger.Seating{}
	stacks := map[int]*ledger.PlayerStackInfo{}
	for i, p := range l.players {
		key := ocpcrypto.CanonicalKeyOf(p.keys.Public)
		players[i] = ledger.PlayerIdentity{PublicKey: p.keys.Public, CanonicalKey: key, PlayerID: p.id, Seat: p.seat}
		seating[p.seat] = key
		stacks[p.seat] = &ledger.PlayerStackInfo{Seat: p.seat, PlayerKey: key, StartingStack: l.startStack, Status: betting.Active}
	}

	snap := &ledger.TableSnapshot{
		GameID:    gameID,
		HandID:    handID,
		Cfg:       l.cfg,
		Shufflers: shuffIdentities,
		Players:   players,
		Seating:   seating,
		Stacks:    stacks,
		Phase:     ledger.PhaseShuffling,
		Nonces:    map[string]uint64{},
		Shuffling: &ledger.ShufflingSubSnapshot{
			InitialDeck:   deck,
			FinalDeck:     deck,
			ExpectedOrder: expectedOrder,
		},
	}
	snap.StateHash = ledger.ComputeStateHash(l.hasher, nil, nil, snap.CanonicalBytes())
	return snap, nil
}

func randomSeed() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
