package ledger

import (
	"fmt"
	"sort"

	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

// NumDeckCards is the size of a standard deck; deck positions are
// addressed 0..51.
const NumDeckCards = ocpcrypto.NumCards

// Deck is the fixed-size array of ciphertexts that moves through the
// shuffling phase, one ciphertext per deck position.
type Deck [NumDeckCards]ocpcrypto.ElGamalCiphertext

func (d Deck) Slice() []ocpcrypto.ElGamalCiphertext {
	return d[:]
}

func DeckFromSlice(cts []ocpcrypto.ElGamalCiphertext) (Deck, error) {
	var d Deck
	if len(cts) != NumDeckCards {
		return d, fmt.Errorf("ledger: deck must have %d ciphertexts, got %d", NumDeckCards, len(cts))
	}
	copy(d[:], cts)
	return d, nil
}

// decksEqual compares two decks position-by-position via canonical point
// bytes; Point wraps a ristretto255 element and is not compared with ==.
func decksEqual(a, b Deck) bool {
	for i := range a {
		if !ocpcrypto.PointEq(a[i].C1, b[i].C1) || !ocpcrypto.PointEq(a[i].C2, b[i].C2) {
			return false
		}
	}
	return true
}

// DestinationKind classifies where a deck position ends up.
type DestinationKind int

const (
	DestHole DestinationKind = iota
	DestBoard
	DestBurn
	DestUnused
)

// Destination is one deck position's assignment.
type Destination struct {
	Kind      DestinationKind
	Seat      int // valid when Kind == DestHole
	HoleIndex int // valid when Kind == DestHole; 0 or 1
	BoardIndex int // valid when Kind == DestBoard; 0..4
}

// CardPlan is the deterministic assignment of every deck position to its
// destination, derived once from seating and the button at Dealing entry
// and never recomputed for the life of the hand.
type CardPlan struct {
	Assignments [NumDeckCards]Destination
}

// BuildCardPlan lays out a standard two-hole-card, five-board deal: two
// hole cards to each active seat in button-relative order, one burn card
// before each of flop/turn/river, five board cards, remaining positions
// unused. seatOrder must list active seats clockwise starting just after
// the button.
func BuildCardPlan(seatOrder []int) (CardPlan, error) {
	var plan CardPlan
	for i := range plan.Assignments {
		plan.Assignments[i] = Destination{Kind: DestUnused}
	}
	pos := 0
	need := 2 * len(seatOrder)
	if pos+need > NumDeckCards {
		return plan, fmt.Errorf("ledger: too many seats for a 52-card deck")
	}
	for holeIdx := 0; holeIdx < 2; holeIdx++ {
		for _, seat := range seatOrder {
			plan.Assignments[pos] = Destination{Kind: DestHole, Seat: seat, HoleIndex: holeIdx}
			pos++
		}
	}
	// Burn, flop (3), burn, turn, burn, river.
	boardCounts := []int{3, 1, 1}
	boardIdx := 0
	for _, count := range boardCounts {
		if pos >= NumDeckCards {
			return plan, fmt.Errorf("ledger: deck exhausted building card plan")
		}
		plan.Assignments[pos] = Destination{Kind: DestBurn}
		pos++
		for i := 0; i < count; i++ {
			if pos >= NumDeckCards {
				return plan, fmt.Errorf("ledger: deck exhausted building card plan")
			}
			plan.Assignments[pos] = Destination{Kind: DestBoard, BoardIndex: boardIdx}
			pos++
			boardIdx++
		}
	}
	return plan, nil
}

// SortedSeats returns seatOrder's seats in ascending numeric order, used
// wherever the ledger needs a deterministic iteration order over a seat
// set (map keys are not ordered in Go).
func SortedSeats(seats map[int]bool) []int {
	out := make([]int, 0, len(seats))
	for s := range seats {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
