package ocpcrypto

import (
	"fmt"
	"sync"
)

// NumCards is the size of a standard deck; card values are the integers
// 0..NumCards-1, each encoded as the group element g*m.
const NumCards = 52

// cardTable is the process-wide plaintext<->point lookup table used to
// recover a card value from g*m after decryption. It is built once,
// lazily, behind a mutex: the
// values involved are public constants (g*0 .. g*51), never a live secret,
// so sharing it across every goroutine in the process is safe.
var (
	cardTableOnce  sync.Once
	cardTablePoint [NumCards]Point
	cardTableIndex map[CanonicalKey]uint8
)

func ensureCardTable() {
	cardTableOnce.Do(func() {
		cardTableIndex = make(map[CanonicalKey]uint8, NumCards)
		acc := PointZero()
		g := PointBase()
		for m := 0; m < NumCards; m++ {
			cardTablePoint[m] = acc
			cardTableIndex[CanonicalKeyOf(acc)] = uint8(m)
			acc = PointAdd(acc, g)
		}
	})
}

// CardPoint returns g*m for a card value m in 0..51.
func CardPoint(m uint8) (Point, error) {
	if m >= NumCards {
		return Point{}, fmt.Errorf("ocpcrypto: card value %d out of range", m)
	}
	ensureCardTable()
	return cardTablePoint[m], nil
}

// CardValue recovers m from g*m in O(1) using the precomputed table.
// Values outside 0..51 are an error rather than a silently wrapped value.
func CardValue(p Point) (uint8, error) {
	ensureCardTable()
	m, ok := cardTableIndex[CanonicalKeyOf(p)]
	if !ok {
		return 0, fmt.Errorf("ocpcrypto: point does not encode a card in 0..%d", NumCards-1)
	}
	return m, nil
}
