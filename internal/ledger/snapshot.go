package ledger

import (
	"crypto/sha256"
	"encoding/json"
	"sort"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/holdem"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

type Phase int

const (
	PhaseShuffling Phase = iota
	PhaseDealing
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseShuffling:
		return "shuffling"
	case PhaseDealing:
		return "dealing"
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// SnapshotStatus is either Success or a recorded Failure(reason); a
// failure snapshot still advances sequence and the chain but clones
// every sub-snapshot from the prior snapshot unchanged.
type SnapshotStatus struct {
	Failed bool
	Reason string
}

func Success() SnapshotStatus           { return SnapshotStatus{} }
func Failure(reason string) SnapshotStatus { return SnapshotStatus{Failed: true, Reason: reason} }

// ShufflingStep is one committee member's turn: it binds the deck before
// the step to the deck after via a shuffle proof.
type ShufflingStep struct {
	ShufflerKey CanonicalKey
	ProofBytes  []byte
	OutputDeck  Deck
}

type ShufflingSubSnapshot struct {
	InitialDeck   Deck
	Steps         []ShufflingStep
	FinalDeck     Deck
	ExpectedOrder []CanonicalKey
}

func (s *ShufflingSubSnapshot) clone() *ShufflingSubSnapshot {
	out := &ShufflingSubSnapshot{
		InitialDeck:   s.InitialDeck,
		Steps:         append([]ShufflingStep(nil), s.Steps...),
		FinalDeck:     s.FinalDeck,
		ExpectedOrder: append([]CanonicalKey(nil), s.ExpectedOrder...),
	}
	return out
}

// HoleKey addresses one (seat, hole_index) deal position.
type HoleKey struct {
	Seat      int
	HoleIndex int
}

// PlayerCiphertext is the combined per-player ciphertext produced once
// every committee member's blinding contribution for a hole position is
// present: A = c1 + Sum(alpha), B = c2 + Sum(beta), D = Sum(alpha).
type PlayerCiphertext struct {
	A, B, D ocpcrypto.Point
}

// BlindingContribution is committee member j's Phase A contribution for
// one hole position.
type BlindingContribution struct {
	ShufflerKey CanonicalKey
	Alpha       ocpcrypto.Point
	Beta        ocpcrypto.Point
	Proof       ocpcrypto.ChaumPedersenProof
}

// UnblindingShare is committee member j's Phase B partial unblinding
// share for one hole position.
type UnblindingShare struct {
	ShufflerKey CanonicalKey
	Mu          ocpcrypto.Point
	Proof       ocpcrypto.ChaumPedersenProof
}

// CommunityShare is committee member j's share toward decrypting one
// board card.
type CommunityShare struct {
	ShufflerKey CanonicalKey
	Share       ocpcrypto.Point
	Proof       ocpcrypto.ChaumPedersenProof
}

type DealingSubSnapshot struct {
	CardPlan                  CardPlan
	PlayerCiphertexts         map[HoleKey]PlayerCiphertext
	PlayerBlindingContribs    map[HoleKey][]BlindingContribution
	PlayerUnblindingShares    map[HoleKey][]UnblindingShare
	PlayerUnblindingCombined  map[HoleKey]ocpcrypto.Point
	CommunityDecryptionShares map[int][]CommunityShare
	CommunityCards            map[int]uint8
}

func newDealingSubSnapshot(plan CardPlan) *DealingSubSnapshot {
	return &DealingSubSnapshot{
		CardPlan:                  plan,
		PlayerCiphertexts:         map[HoleKey]PlayerCiphertext{},
		PlayerBlindingContribs:    map[HoleKey][]BlindingContribution{},
		PlayerUnblindingShares:    map[HoleKey][]UnblindingShare{},
		PlayerUnblindingCombined:  map[HoleKey]ocpcrypto.Point{},
		CommunityDecryptionShares: map[int][]CommunityShare{},
		CommunityCards:            map[int]uint8{},
	}
}

func (d *DealingSubSnapshot) clone() *DealingSubSnapshot {
	out := &DealingSubSnapshot{
		CardPlan:                  d.CardPlan,
		PlayerCiphertexts:         make(map[HoleKey]PlayerCiphertext, len(d.PlayerCiphertexts)),
		PlayerBlindingContribs:    make(map[HoleKey][]BlindingContribution, len(d.PlayerBlindingContribs)),
		PlayerUnblindingShares:    make(map[HoleKey][]UnblindingShare, len(d.PlayerUnblindingShares)),
		PlayerUnblindingCombined:  make(map[HoleKey]ocpcrypto.Point, len(d.PlayerUnblindingCombined)),
		CommunityDecryptionShares: make(map[int][]CommunityShare, len(d.CommunityDecryptionShares)),
		CommunityCards:            make(map[int]uint8, len(d.CommunityCards)),
	}
	for k, v := range d.PlayerCiphertexts {
		out.PlayerCiphertexts[k] = v
	}
	for k, v := range d.PlayerBlindingContribs {
		out.PlayerBlindingContribs[k] = append([]BlindingContribution(nil), v...)
	}
	for k, v := range d.PlayerUnblindingShares {
		out.PlayerUnblindingShares[k] = append([]UnblindingShare(nil), v...)
	}
	for k, v := range d.PlayerUnblindingCombined {
		out.PlayerUnblindingCombined[k] = v
	}
	for k, v := range d.CommunityDecryptionShares {
		out.CommunityDecryptionShares[k] = append([]CommunityShare(nil), v...)
	}
	for k, v := range d.CommunityCards {
		out.CommunityCards[k] = v
	}
	return out
}

type BettingSubSnapshot struct {
	State      *betting.State
	LastEvents []betting.PlayerActionEvent
}

func (b *BettingSubSnapshot) clone() *BettingSubSnapshot {
	return &BettingSubSnapshot{
		State:      b.State.Clone(),
		LastEvents: append([]betting.PlayerActionEvent(nil), b.LastEvents...),
	}
}

type HoleReveal struct {
	Hole         [2]uint8
	BestFive     []uint8
	BestCategory holdem.HandCategory
	BestTiebreak []uint8
	BestScore    uint32
}

type RevealsSubSnapshot struct {
	Board         []uint8
	RevealedHoles map[int]HoleReveal
}

func newRevealsSubSnapshot(board []uint8) *RevealsSubSnapshot {
	return &RevealsSubSnapshot{Board: append([]uint8(nil), board...), RevealedHoles: map[int]HoleReveal{}}
}

func (r *RevealsSubSnapshot) clone() *RevealsSubSnapshot {
	out := &RevealsSubSnapshot{
		Board:         append([]uint8(nil), r.Board...),
		RevealedHoles: make(map[int]HoleReveal, len(r.RevealedHoles)),
	}
	for k, v := range r.RevealedHoles {
		out.RevealedHoles[k] = v
	}
	return out
}

// TableSnapshot is the single concrete representation realizing the
// typestate family described for this system: Phase tags which
// sub-snapshots are populated, and a finalized phase's sub-snapshot is
// never mutated by a later transition (only replaced wholesale by a
// freshly cloned TableSnapshot).
type TableSnapshot struct {
	GameID   int64
	HandID   int64
	Sequence uint32
	Cfg      HandConfig

	Shufflers []ShufflerIdentity
	Players   []PlayerIdentity
	Seating   Seating
	Stacks    map[int]*PlayerStackInfo

	PreviousHash []byte
	StateHash    []byte
	Phase        Phase
	Status       SnapshotStatus

	// Nonces tracks the last-accepted nonce per actor (actor.bytes()
	// stringified), used to enforce that every message's nonce is exactly
	// prior_nonce + 1 for that actor in this hand.
	Nonces map[string]uint64

	Shuffling *ShufflingSubSnapshot
	Dealing   *DealingSubSnapshot
	Betting   *BettingSubSnapshot
	Reveals   *RevealsSubSnapshot
}

// FindShuffler looks up a committee member's identity by canonical key.
func (s *TableSnapshot) FindShuffler(key CanonicalKey) (ShufflerIdentity, bool) {
	for _, sh := range s.Shufflers {
		if sh.CanonicalKey == key {
			return sh, true
		}
	}
	return ShufflerIdentity{}, false
}

// FindPlayer looks up a seated player's identity by canonical key.
func (s *TableSnapshot) FindPlayer(key CanonicalKey) (PlayerIdentity, bool) {
	for _, p := range s.Players {
		if p.CanonicalKey == key {
			return p, true
		}
	}
	return PlayerIdentity{}, false
}

// PlayerBySeat looks up a seated player's identity by seat number.
func (s *TableSnapshot) PlayerBySeat(seat int) (PlayerIdentity, bool) {
	for _, p := range s.Players {
		if p.Seat == seat {
			return p, true
		}
	}
	return PlayerIdentity{}, false
}

// cloneShallow copies the header and shares every sub-snapshot pointer
// with the receiver; callers replace only the sub-snapshot(s) their
// transition actually changes, matching the "may share the same
// reference as its predecessor" rule for unchanged sub-state.
func (s *TableSnapshot) cloneShallow() *TableSnapshot {
	out := *s
	return &out
}

// canonicalView is the deterministic, map-free mirror of a snapshot used
// for hashing: Go map iteration order is not stable, so every map is
// flattened into a key-sorted slice before marshaling.
type canonicalView struct {
	GameID   int64
	HandID   int64
	Sequence uint32
	Phase    string
	Failed   bool
	Reason   string

	Stacks []canonicalStack

	Shuffling *canonicalShuffling `json:",omitempty"`
	Dealing   *canonicalDealing   `json:",omitempty"`
	Betting   *canonicalBetting   `json:",omitempty"`
	Reveals   *canonicalReveals   `json:",omitempty"`
}

type canonicalStack struct {
	Seat      int
	Committed uint64
	Status    int
}

type canonicalShuffling struct {
	StepCount  int
	FinalDeck  string
}

type canonicalDealing struct {
	PlayerCiphertextCount int
	CombinedShareCount    int
	CommunityCardCount    int
}

type canonicalBetting struct {
	Street            int
	CurrentBetToMatch uint64
	PotTotal          uint64
	LockedAllIn       bool
}

type canonicalReveals struct {
	Board         []uint8
	RevealedSeats []int
}

// CanonicalBytes produces the deterministic serialization hashed into
// StateHash. It intentionally summarizes rather than embeds: the final
// deck is bound by a content hash, dealing and reveal state by counts and
// seat lists, and betting state by street, bet to match, pot total and
// the all-in lock. Proofs, nonces, individual blinding/unblinding/
// community shares and per-seat betting fields are not part of it.
func (s *TableSnapshot) CanonicalBytes() []byte {
	view := canonicalView{
		GameID:   s.GameID,
		HandID:   s.HandID,
		Sequence: s.Sequence,
		Phase:    s.Phase.String(),
		Failed:   s.Status.Failed,
		Reason:   s.Status.Reason,
	}
	seats := make([]int, 0, len(s.Stacks))
	for seat := range s.Stacks {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	for _, seat := range seats {
		st := s.Stacks[seat]
		view.Stacks = append(view.Stacks, canonicalStack{Seat: seat, Committed: st.CommittedBlind, Status: int(st.Status)})
	}

	if s.Shuffling != nil {
		view.Shuffling = &canonicalShuffling{
			StepCount: len(s.Shuffling.Steps),
			FinalDeck: string(deckDigest(s.Shuffling.FinalDeck)),
		}
	}
	if s.Dealing != nil {
		view.Dealing = &canonicalDealing{
			PlayerCiphertextCount: len(s.Dealing.PlayerCiphertexts),
			CombinedShareCount:    len(s.Dealing.PlayerUnblindingCombined),
			CommunityCardCount:    len(s.Dealing.CommunityCards),
		}
	}
	if s.Betting != nil && s.Betting.State != nil {
		view.Betting = &canonicalBetting{
			Street:            int(s.Betting.State.Street),
			CurrentBetToMatch: s.Betting.State.CurrentBetToMatch,
			PotTotal:          s.Betting.State.TotalPotAmount(),
			LockedAllIn:       s.Betting.State.BettingLockedAllIn,
		}
	}
	if s.Reveals != nil {
		seatsRevealed := make([]int, 0, len(s.Reveals.RevealedHoles))
		for seat := range s.Reveals.RevealedHoles {
			seatsRevealed = append(seatsRevealed, seat)
		}
		sort.Ints(seatsRevealed)
		view.Reveals = &canonicalReveals{Board: s.Reveals.Board, RevealedSeats: seatsRevealed}
	}

	b, _ := json.Marshal(view)
	return b
}

func deckDigest(d Deck) []byte {
	h := sha256.New()
	for _, ct := range d {
		h.Write(ct.C1.Bytes())
		h.Write(ct.C2.Bytes())
	}
	return h.Sum(nil)
}
