package holdem

import (
	"testing"

	"github.com/wu-s-john/pokerledger/internal/cards"
)

func parseCard(rank uint8, suit uint8) cards.Card {
	return cards.Card((rank-2)%13 + suit*13)
}

func TestStraightFlushBeatsQuads(t *testing.T) {
	// AsKsQsJsTs (straight flush, suit=3 spades)
	straightFlush := []cards.Card{
		parseCard(14, 3), parseCard(13, 3), parseCard(12, 3), parseCard(11, 3), parseCard(10, 3),
		parseCard(2, 0), parseCard(3, 0),
	}
	// AhAdAcAsKh (four aces + king)
	quads := []cards.Card{
		parseCard(14, 2), parseCard(14, 1), parseCard(14, 0), parseCard(14, 3), parseCard(13, 2),
		parseCard(4, 0), parseCard(5, 0),
	}

	sfRank, sfBest, err := Evaluate7(straightFlush)
	if err != nil {
		t.Fatalf("evaluate straight flush: %v", err)
	}
	quadRank, quadBest, err := Evaluate7(quads)
	if err != nil {
		t.Fatalf("evaluate quads: %v", err)
	}
	if sfRank.Category != StraightFlush {
		t.Fatalf("expected StraightFlush category, got %v", sfRank.Category)
	}
	if quadRank.Category != FourOfAKind {
		t.Fatalf("expected FourOfAKind category, got %v", quadRank.Category)
	}
	if CompareHandRank(sfRank, quadRank) != 1 {
		t.Fatalf("expected straight flush to score strictly higher than quads")
	}
	if sfRank.Score() <= quadRank.Score() {
		t.Fatalf("expected straight flush packed score to exceed quads packed score")
	}
	if err := cards.AssertDistinct(sfBest[:], "sfBest"); err != nil {
		t.Fatalf("expected 5 distinct cards in the winning straight flush combo: %v", err)
	}
	if err := cards.AssertDistinct(quadBest[:], "quadBest"); err != nil {
		t.Fatalf("expected 5 distinct cards in the winning quads combo: %v", err)
	}
}

func TestWheelStraightRanksBelowSixHigh(t *testing.T) {
	wheel := []cards.Card{
		parseCard(14, 0), parseCard(5, 1), parseCard(4, 2), parseCard(3, 3), parseCard(2, 0),
		parseCard(9, 1), parseCard(8, 2),
	}
	sixHigh := []cards.Card{
		parseCard(6, 0), parseCard(5, 1), parseCard(4, 2), parseCard(3, 3), parseCard(2, 1),
		parseCard(9, 1), parseCard(8, 2),
	}

	wheelRank, _, err := Evaluate7(wheel)
	if err != nil {
		t.Fatalf("evaluate wheel: %v", err)
	}
	sixRank, _, err := Evaluate7(sixHigh)
	if err != nil {
		t.Fatalf("evaluate six-high: %v", err)
	}
	if wheelRank.Category != Straight || sixRank.Category != Straight {
		t.Fatalf("expected both hands to classify as straights, got %v and %v", wheelRank.Category, sixRank.Category)
	}
	if wheelRank.Tiebreakers[0] != 5 {
		t.Fatalf("expected wheel straight high card 5, got %d", wheelRank.Tiebreakers[0])
	}
	if CompareHandRank(wheelRank, sixRank) != -1 {
		t.Fatalf("expected wheel straight to rank strictly below six-high straight")
	}
}

func TestEvaluate7RejectsWrongCardCount(t *testing.T) {
	if _, _, err := Evaluate7([]cards.Card{0, 1, 2}); err == nil {
		t.Fatalf("expected error for wrong card count")
	}
}

func TestEvaluate7RejectsDuplicateCards(t *testing.T) {
	seven := []cards.Card{0, 0, 1, 2, 3, 4, 5}
	if _, _, err := Evaluate7(seven); err == nil {
		t.Fatalf("expected error for duplicate cards")
	}
}

func TestCategoryOrderingIsMonotonicAcrossBoundaries(t *testing.T) {
	// HighCard hand vs OnePair hand: higher category always outranks regardless of kickers.
	highCard := HandRank{Category: HighCard, Tiebreakers: []uint8{14, 13, 12, 11, 9}}
	onePair := HandRank{Category: OnePair, Tiebreakers: []uint8{2, 3, 4, 5}}
	if CompareHandRank(onePair, highCard) != 1 {
		t.Fatalf("expected any OnePair to outrank any HighCard")
	}
}

func TestWinnersBreaksTies(t *testing.T) {
	board := []cards.Card{
		parseCard(10, 0), parseCard(9, 1), parseCard(8, 2), parseCard(2, 3), parseCard(3, 0),
	}
	hole := map[int][2]cards.Card{
		0: {parseCard(14, 1), parseCard(13, 2)},
		1: {parseCard(14, 2), parseCard(13, 3)},
	}
	winners, err := Winners(board, hole)
	if err != nil {
		t.Fatalf("winners: %v", err)
	}
	if len(winners) != 2 || winners[0] != 0 || winners[1] != 1 {
		t.Fatalf("expected both seats to tie, got %v", winners)
	}
}

func TestWinnersRejectsBadBoardSize(t *testing.T) {
	if _, err := Winners([]cards.Card{0, 1, 2}, map[int][2]cards.Card{0: {3, 4}}); err == nil {
		t.Fatalf("expected error for malformed board")
	}
}
