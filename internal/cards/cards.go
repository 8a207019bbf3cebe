// Package cards defines the plaintext card encoding shared by the
// showdown evaluator and the ledger's card plan: values 0..51 mapped to
// rank/suit via `rank = (idx mod 13) + 2, suit = idx div 13` with
// idx = card value.
package cards

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Card is a deck position's plaintext value, 0..51.
type Card uint8

const NumCards = 52

func (c Card) Valid() bool { return c < NumCards }

// Rank returns 2..14 (14 = Ace).
func (c Card) Rank() uint8 { return uint8(c%13) + 2 }

// Suit returns 0..3 (clubs, diamonds, hearts, spades).
func (c Card) Suit() uint8 { return uint8(c / 13) }

func (c Card) String() string {
	r := c.Rank()
	var rch byte
	switch r {
	case 14:
		rch = 'A'
	case 13:
		rch = 'K'
	case 12:
		rch = 'Q'
	case 11:
		rch = 'J'
	case 10:
		rch = 'T'
	default:
		rch = byte('0' + r)
	}
	var sch byte
	switch c.Suit() {
	case 0:
		sch = 'c'
	case 1:
		sch = 'd'
	case 2:
		sch = 'h'
	case 3:
		sch = 's'
	}
	return string([]byte{rch, sch})
}

// AssertDistinct returns an error if cs contains an out-of-range or
// duplicate card id. label is used only to identify the offending slice
// in the error message.
func AssertDistinct(cs []Card, label string) error {
	var seen [NumCards]bool
	for _, c := range cs {
		if !c.Valid() {
			return fmt.Errorf("%s: invalid card id %d", label, c)
		}
		if seen[c] {
			return fmt.Errorf("%s: duplicate card id %d", label, c)
		}
		seen[c] = true
	}
	return nil
}

// DeterministicDeck returns a seed-derived permutation of the 52 card
// ids. It is a development/testing helper for building ElGamal decks
// with a known plaintext ordering; it is never used to decide the real
// deal order, which only the committee's shuffle steps determine.
func DeterministicDeck(seed []byte) []Card {
	deck := make([]Card, NumCards)
	for i := range deck {
		deck[i] = Card(i)
	}
	var counter uint64
	for i := NumCards - 1; i > 0; i-- {
		buf := make([]byte, len(seed)+8)
		copy(buf, seed)
		binary.LittleEndian.PutUint64(buf[len(seed):], counter)
		h := sha256.Sum256(buf)
		counter++
		j := int(binary.LittleEndian.Uint64(h[:8]) % uint64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}
