package ledger

import (
	"fmt"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/cards"
	"github.com/wu-s-john/pokerledger/internal/holdem"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/ocpshuffle"
)

// ApplyTransition is the ledger's sole mutator. It never mutates prior:
// on any outcome it returns a fresh snapshot whose hash binds the prior
// hash, the message, and the resulting canonical state.
func ApplyTransition(prior *TableSnapshot, env AnyMessageEnvelope, hasher Hasher) (*TableSnapshot, error) {
	next := prior.cloneShallow()
	next.Sequence = prior.Sequence + 1
	next.PreviousHash = prior.StateHash

	reason, err := applyMessage(prior, next, env)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		*next = *prior
		next.Sequence = prior.Sequence + 1
		next.PreviousHash = prior.StateHash
		next.Status = Failure(reason)
	} else {
		next.Status = Success()
	}

	messageHash := hasher.Sum(env.Transcript)
	next.StateHash = ComputeStateHash(hasher, next.PreviousHash, messageHash, next.CanonicalBytes())
	return next, nil
}

func actorKeyString(a Actor) string { return string(a.bytes()) }

func cloneNonces(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func findShufflerByID(s *TableSnapshot, id string) (ShufflerIdentity, bool) {
	for _, sh := range s.Shufflers {
		if sh.ShufflerID == id {
			return sh, true
		}
	}
	return ShufflerIdentity{}, false
}

// checkCommon implements steps 1-3 of the per-message handler: actor/key
// match, signature verification, and nonce sequencing.
func checkCommon(prior *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	switch env.Actor.Kind {
	case ActorShuffler:
		sh, ok := findShufflerByID(prior, env.Actor.ShufflerID)
		if !ok {
			return "unknown shuffler actor", nil
		}
		if !ocpcrypto.PointEq(sh.PublicKey, env.PublicKey) {
			return "public key does not match shuffler roster entry", nil
		}
	case ActorPlayer:
		p, ok := prior.PlayerBySeat(env.Actor.Seat)
		if !ok || p.PlayerID != env.Actor.PlayerID {
			return "unknown player actor", nil
		}
		if !ocpcrypto.PointEq(p.PublicKey, env.PublicKey) {
			return "public key does not match player roster entry", nil
		}
	default:
		return "unrecognized actor kind", nil
	}

	ok, err := env.VerifySignature()
	if err != nil {
		return fmt.Sprintf("signature check error: %v", err), nil
	}
	if !ok {
		return "signature verification failed", nil
	}

	priorNonce := prior.Nonces[actorKeyString(env.Actor)]
	if env.Nonce != priorNonce+1 {
		return "nonce is not the actor's prior nonce plus one", nil
	}
	return "", nil
}

// applyMessage runs the common checks then dispatches by (phase, kind).
// A non-empty reason means the message is a protocol failure; a non-nil
// err means the envelope or snapshot was malformed in a way that should
// never happen from well-formed callers (propagated, not recorded).
func applyMessage(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if reason, err := checkCommon(prior, env); reason != "" || err != nil {
		return reason, err
	}

	var reason string
	var err error
	switch prior.Phase {
	case PhaseShuffling:
		if env.Kind != MsgShuffleStep {
			return "message kind not accepted during shuffling", nil
		}
		reason, err = applyShuffleStep(prior, next, env)
	case PhaseDealing:
		switch env.Kind {
		case MsgBlindingContribution:
			reason, err = applyBlindingContribution(prior, next, env)
		case MsgPartialUnblindingShare:
			reason, err = applyUnblindingOrCommunityShare(prior, next, env)
		default:
			return "message kind not accepted during dealing", nil
		}
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		if env.Kind != MsgPlayerBettingAction {
			return "message kind not accepted on a betting street", nil
		}
		reason, err = applyBettingAction(prior, next, env)
	case PhaseShowdown:
		if env.Kind != MsgShowdownReveal {
			return "message kind not accepted at showdown", nil
		}
		reason, err = applyShowdownReveal(prior, next, env)
	default:
		return "no messages are accepted once the hand is complete", nil
	}
	if reason != "" || err != nil {
		return reason, err
	}

	next.Nonces = cloneNonces(prior.Nonces)
	next.Nonces[actorKeyString(env.Actor)] = env.Nonce
	return "", nil
}

// --- Shuffling ---

func applyShuffleStep(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if env.Actor.Kind != ActorShuffler {
		return "shuffle step must come from a shuffler actor", nil
	}
	sh, _ := findShufflerByID(prior, env.Actor.ShufflerID)
	sub := prior.Shuffling
	if sub == nil {
		return "", fmt.Errorf("ledger: shuffling phase with nil sub-snapshot")
	}
	if len(sub.Steps) >= len(sub.ExpectedOrder) {
		return "shuffle phase already has every expected step", nil
	}
	if sub.ExpectedOrder[len(sub.Steps)] != sh.CanonicalKey {
		return "it is not this shuffler's turn", nil
	}
	if env.ShuffleStep == nil {
		return "missing shuffle step payload", nil
	}

	inDeck := sub.FinalDeck
	if len(sub.Steps) == 0 {
		inDeck = sub.InitialDeck
	}
	result := ocpshuffle.Verify(sh.AggregatedKey, inDeck.Slice(), env.ShuffleStep.ProofBytes)
	if !result.OK {
		return fmt.Sprintf("shuffle proof rejected: %s", result.Error), nil
	}
	outDeck, err := DeckFromSlice(result.DeckOut)
	if err != nil {
		return "", err
	}
	if !decksEqual(outDeck, env.ShuffleStep.OutputDeck) {
		return "declared output deck does not match the verified proof's output", nil
	}

	newSub := sub.clone()
	newSub.Steps = append(newSub.Steps, ShufflingStep{ShufflerKey: sh.CanonicalKey, ProofBytes: env.ShuffleStep.ProofBytes, OutputDeck: outDeck})
	newSub.FinalDeck = outDeck
	next.Shuffling = newSub

	if len(newSub.Steps) == len(newSub.ExpectedOrder) {
		plan, err := BuildCardPlan(activeSeatOrder(prior))
		if err != nil {
			return "", err
		}
		next.Dealing = newDealingSubSnapshot(plan)
		next.Phase = PhaseDealing
	}
	return "", nil
}

// activeSeatOrder returns active seats in clockwise order starting just
// after the button, the order new committee deals hole cards in.
func activeSeatOrder(s *TableSnapshot) []int {
	seats := SortedSeats(stackSeatSet(s))
	button := s.Cfg.ButtonSeat
	startIdx := 0
	for i, seat := range seats {
		if seat > button {
			startIdx = i
			break
		}
	}
	ordered := append(append([]int{}, seats[startIdx:]...), seats[:startIdx]...)
	out := make([]int, 0, len(ordered))
	for _, seat := range ordered {
		if s.Stacks[seat].Status != betting.SittingOut {
			out = append(out, seat)
		}
	}
	return out
}

func stackSeatSet(s *TableSnapshot) map[int]bool {
	out := make(map[int]bool, len(s.Stacks))
	for seat := range s.Stacks {
		out[seat] = true
	}
	return out
}

// --- Dealing ---

func applyBlindingContribution(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if env.Actor.Kind != ActorShuffler {
		return "blinding contribution must come from a shuffler actor", nil
	}
	if env.BlindingContrib == nil {
		return "missing blinding contribution payload", nil
	}
	target := env.BlindingContrib.Target
	if target.Kind != DealTargetHole {
		return "blinding contribution only applies to hole targets", nil
	}
	sh, _ := findShufflerByID(prior, env.Actor.ShufflerID)
	player, ok := prior.PlayerBySeat(target.Hole.Seat)
	if !ok {
		return "blinding target seat is not seated", nil
	}

	newDealing := prior.Dealing.clone()
	aggPlusPlayer := ocpcrypto.PointAdd(sh.AggregatedKey, player.PublicKey)
	contrib := BlindingContribution{ShufflerKey: sh.CanonicalKey, Alpha: env.BlindingContrib.Alpha, Beta: env.BlindingContrib.Beta, Proof: env.BlindingContrib.Proof}
	if err := newDealing.recordBlindingContribution(target.Hole, aggPlusPlayer, contrib); err != nil {
		return err.Error(), nil
	}

	ct, found := lookupDeckCiphertext(newDealing.CardPlan, prior.Shuffling.FinalDeck, Destination{Kind: DestHole, Seat: target.Hole.Seat, HoleIndex: target.Hole.HoleIndex})
	if !found {
		return "", fmt.Errorf("ledger: hole target has no deck position in the card plan")
	}
	if _, err := newDealing.combineBlindingContributions(target.Hole, ct.C1, ct.C2, len(prior.Shufflers)); err != nil {
		return "", err
	}
	next.Dealing = newDealing
	maybeAdvancePastDealing(prior, next)
	return "", nil
}

func applyUnblindingOrCommunityShare(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if env.Actor.Kind != ActorShuffler {
		return "unblinding/community share must come from a shuffler actor", nil
	}
	if env.UnblindingShare == nil {
		return "missing unblinding share payload", nil
	}
	sh, _ := findShufflerByID(prior, env.Actor.ShufflerID)
	newDealing := prior.Dealing.clone()
	target := env.UnblindingShare.Target

	switch target.Kind {
	case DealTargetHole:
		share := UnblindingShare{ShufflerKey: sh.CanonicalKey, Mu: env.UnblindingShare.Value, Proof: env.UnblindingShare.Proof}
		if err := newDealing.recordUnblindingShare(target.Hole, sh.PublicKey, share); err != nil {
			return err.Error(), nil
		}
		if _, err := newDealing.combineUnblindingShares(target.Hole, len(prior.Shufflers)); err != nil {
			return "", err
		}
	case DealTargetCommunity:
		ct, found := lookupDeckCiphertext(newDealing.CardPlan, prior.Shuffling.FinalDeck, Destination{Kind: DestBoard, BoardIndex: target.BoardIndex})
		if !found {
			return "", fmt.Errorf("ledger: community target has no deck position in the card plan")
		}
		share := CommunityShare{ShufflerKey: sh.CanonicalKey, Share: env.UnblindingShare.Value, Proof: env.UnblindingShare.Proof}
		if err := newDealing.recordCommunityShare(target.BoardIndex, sh.PublicKey, ct.C1, share); err != nil {
			return err.Error(), nil
		}
		if _, _, err := newDealing.combineCommunityShares(target.BoardIndex, ct.C2, len(prior.Shufflers)); err != nil {
			return "", err
		}
	default:
		return "unknown deal target kind", nil
	}

	next.Dealing = newDealing
	maybeAdvancePastDealing(prior, next)
	return "", nil
}

// maybeAdvancePastDealing checks the dealing exit condition: every active
// seat's two hole positions have a combined unblinding share, and every
// one of the five community positions has been revealed. All cards are
// decrypted up front; Preflop through River only expose already-known
// community values as betting progresses, so no further dealing messages
// are needed once this fires.
func maybeAdvancePastDealing(prior *TableSnapshot, next *TableSnapshot) {
	seats := activeSeatOrder(prior)
	for _, seat := range seats {
		for holeIdx := 0; holeIdx < 2; holeIdx++ {
			if _, ok := next.Dealing.PlayerUnblindingCombined[HoleKey{Seat: seat, HoleIndex: holeIdx}]; !ok {
				return
			}
		}
	}
	for boardIdx := 0; boardIdx < 5; boardIdx++ {
		if _, ok := next.Dealing.CommunityCards[boardIdx]; !ok {
			return
		}
	}

	stacks := make(map[int]uint64, len(seats))
	for _, seat := range seats {
		stacks[seat] = prior.Stacks[seat].StartingStack
	}
	state, err := betting.NewPreflopState(prior.Cfg, seats, stacks)
	if err != nil {
		return
	}
	next.Betting = &BettingSubSnapshot{State: state}
	next.Reveals = newRevealsSubSnapshot(nil)
	next.Phase = PhasePreflop
}

// --- Betting ---

func applyBettingAction(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if env.Actor.Kind != ActorPlayer {
		return "betting action must come from a player actor", nil
	}
	if env.BettingAction == nil {
		return "missing betting action payload", nil
	}
	wantStreet := phaseStreet(prior.Phase)
	if env.BettingAction.Street != wantStreet {
		return "betting action street does not match the current phase", nil
	}

	cloned := prior.Betting.State.Clone()
	tr, err := cloned.Apply(env.Actor.Seat, env.BettingAction.Action)
	if err != nil {
		return err.Error(), nil
	}
	next.Betting = &BettingSubSnapshot{State: cloned, LastEvents: tr.Events}

	switch tr.Kind {
	case betting.Continued:
		// phase unchanged
	case betting.HandEndKind:
		next.Phase = PhaseComplete
	case betting.StreetEndKind:
		advanceStreet(prior, next, cloned)
	}
	if cloned.BettingLockedAllIn && next.Phase != PhaseComplete {
		runOutRemainingStreets(prior, next)
	}
	return "", nil
}

func phaseStreet(p Phase) betting.Street {
	switch p {
	case PhasePreflop:
		return betting.Preflop
	case PhaseFlop:
		return betting.Flop
	case PhaseTurn:
		return betting.Turn
	case PhaseRiver:
		return betting.River
	default:
		return betting.Preflop
	}
}

// advanceStreet moves from the street that just ended to the next one,
// exposing the community cards due at that street from values already
// decrypted during Dealing.
func advanceStreet(prior, next *TableSnapshot, settled *betting.State) {
	reveals := prior.Reveals.clone()
	switch prior.Phase {
	case PhasePreflop:
		for i := 0; i < 3; i++ {
			reveals.Board = append(reveals.Board, prior.Dealing.CommunityCards[i])
		}
		next.Betting.State = betting.NewStreetState(settled, betting.Flop)
		next.Phase = PhaseFlop
	case PhaseFlop:
		reveals.Board = append(reveals.Board, prior.Dealing.CommunityCards[3])
		next.Betting.State = betting.NewStreetState(settled, betting.Turn)
		next.Phase = PhaseTurn
	case PhaseTurn:
		reveals.Board = append(reveals.Board, prior.Dealing.CommunityCards[4])
		next.Betting.State = betting.NewStreetState(settled, betting.River)
		next.Phase = PhaseRiver
	case PhaseRiver:
		next.Phase = PhaseShowdown
	}
	next.Reveals = reveals
}

// runOutRemainingStreets mechanically exposes every remaining community
// card and jumps straight to Showdown once no further action is possible.
func runOutRemainingStreets(prior, next *TableSnapshot) {
	reveals := next.Reveals.clone()
	for len(reveals.Board) < 5 {
		reveals.Board = append(reveals.Board, prior.Dealing.CommunityCards[len(reveals.Board)])
	}
	next.Reveals = reveals
	next.Phase = PhaseShowdown
}

// --- Showdown ---

func applyShowdownReveal(prior, next *TableSnapshot, env AnyMessageEnvelope) (string, error) {
	if env.Actor.Kind != ActorPlayer {
		return "showdown reveal must come from a player actor", nil
	}
	if env.ShowdownReveal == nil {
		return "missing showdown reveal payload", nil
	}
	seat := env.Actor.Seat
	playerState, ok := prior.Betting.State.Players[seat]
	if !ok || playerState.Status == betting.Folded {
		return "seat is not eligible to reveal at showdown", nil
	}

	var holeCards [2]cards.Card
	for i := 0; i < 2; i++ {
		key := HoleKey{Seat: seat, HoleIndex: i}
		combined, ok := prior.Dealing.PlayerCiphertexts[key]
		if !ok {
			return "", fmt.Errorf("ledger: showdown reveal before hole ciphertext combined")
		}
		mu := prior.Dealing.PlayerUnblindingCombined[key]
		claimed := env.ShowdownReveal.Hole[i]
		gm, err := ocpcrypto.CardPoint(claimed)
		if err != nil {
			return "claimed card value is out of range", nil
		}
		rhs := ocpcrypto.PointSub(ocpcrypto.PointSub(combined.B, mu), gm)
		ok2, err := ocpcrypto.ChaumPedersenVerify(env.PublicKey, combined.D, rhs, env.ShowdownReveal.HoleProofs[i])
		if err != nil {
			return "", err
		}
		if !ok2 {
			return "showdown reveal proof failed to verify", nil
		}
		holeCards[i] = cards.Card(claimed)
	}

	board := make([]cards.Card, 5)
	for i, m := range prior.Reveals.Board {
		board[i] = cards.Card(m)
	}
	rank, bestFive, err := holdem.Evaluate7(append(append([]cards.Card{}, board...), holeCards[0], holeCards[1]))
	if err != nil {
		return "revealed hole cards do not form a valid hand with the board", nil
	}

	reveals := prior.Reveals.clone()
	reveals.RevealedHoles[seat] = HoleReveal{
		Hole:         [2]uint8{uint8(holeCards[0]), uint8(holeCards[1])},
		BestFive:     []uint8{uint8(bestFive[0]), uint8(bestFive[1]), uint8(bestFive[2]), uint8(bestFive[3]), uint8(bestFive[4])},
		BestCategory: rank.Category,
		BestTiebreak: rank.Tiebreakers,
		BestScore:    rank.Score(),
	}
	next.Reveals = reveals

	if allEligibleSeatsRevealed(prior, reveals) {
		next.Phase = PhaseComplete
	}
	return "", nil
}

func allEligibleSeatsRevealed(s *TableSnapshot, reveals *RevealsSubSnapshot) bool {
	for seat, p := range s.Betting.State.Players {
		if p.Status == betting.Folded {
			continue
		}
		if _, ok := reveals.RevealedHoles[seat]; !ok {
			return false
		}
	}
	return true
}
