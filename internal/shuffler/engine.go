// Package shuffler implements one committee member's local engine: it
// holds the member's secret key and produces the signed envelopes the
// ledger accepts during Shuffling and Dealing, deriving its proof
// randomness deterministically per hand so the same inputs always
// reproduce the same transcript.
package shuffler

import (
	"github.com/wu-s-john/pokerledger/internal/ledger"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/ocpshuffle"
)

// scalarSource supplies the deterministic proof-randomness an Engine
// needs for each Chaum-Pedersen witness. *ocpshuffle.DeterministicRng
// satisfies this.
type scalarSource interface {
	NextScalar() (ocpcrypto.Scalar, error)
}

// Engine is one committee member's local signing and proving context.
type Engine struct {
	SecretKey  ocpcrypto.Scalar
	PublicKey  ocpcrypto.Point
	ShufflerID string

	nonce uint64
}

func NewEngine(sk ocpcrypto.Scalar, shufflerID string) Engine {
	return Engine{SecretKey: sk, PublicKey: ocpcrypto.MulBase(sk), ShufflerID: shufflerID}
}

func (e *Engine) actor() ledger.Actor {
	return ledger.Actor{Kind: ledger.ActorShuffler, ShufflerID: e.ShufflerID}
}

// nextNonce hands out this engine's next per-hand nonce. Callers
// construct one Engine per (shuffler, hand) pair, so a simple counter
// started at 1 matches the ledger's prior_nonce+1 rule.
func (e *Engine) nextNonce() uint64 {
	e.nonce++
	return e.nonce
}

// Shuffle runs a full verifiable shuffle of deckIn under the committee's
// aggregated key, using seed as the deterministic proof-randomness
// source for this turn.
func (e *Engine) Shuffle(aggKey ocpcrypto.Point, deckIn []ocpcrypto.ElGamalCiphertext, seed []byte) (ocpshuffle.ShuffleProveResult, error) {
	return ocpshuffle.Prove(aggKey, deckIn, ocpshuffle.ShuffleProveOpts{Seed: seed, Rounds: len(deckIn)})
}

// ShuffleAndSign wraps Shuffle in a signed envelope addressed to hand/game.
func (e *Engine) ShuffleAndSign(gameID, handID int64, aggKey ocpcrypto.Point, deckIn []ocpcrypto.ElGamalCiphertext, seed []byte) (ledger.AnyMessageEnvelope, error) {
	result, err := e.Shuffle(aggKey, deckIn, seed)
	if err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	deck, err := ledger.DeckFromSlice(result.DeckOut)
	if err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	env := ledger.AnyMessageEnvelope{
		GameID:    gameID,
		HandID:    handID,
		Actor:     e.actor(),
		Nonce:     e.nextNonce(),
		PublicKey: e.PublicKey,
		Kind:      ledger.MsgShuffleStep,
		ShuffleStep: &ledger.ShuffleStepPayload{
			ProofBytes: result.ProofBytes,
			OutputDeck: deck,
		},
	}
	if err := env.Sign(e.SecretKey); err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	return env, nil
}

// PlayerBlinding produces this member's Phase A targeted blinding
// contribution for a hole position: a fresh delta, alpha = g*delta,
// beta = (aggKey+playerPK)*delta, and a Chaum-Pedersen proof that both
// share delta.
func (e *Engine) PlayerBlinding(aggKey, playerPK ocpcrypto.Point, rng scalarSource) (alpha, beta ocpcrypto.Point, proof ocpcrypto.ChaumPedersenProof, err error) {
	delta, err := rng.NextScalar()
	if err != nil {
		return alpha, beta, proof, err
	}
	w, err := rng.NextScalar()
	if err != nil {
		return alpha, beta, proof, err
	}
	base := ocpcrypto.PointAdd(aggKey, playerPK)
	alpha = ocpcrypto.MulBase(delta)
	beta = ocpcrypto.MulPoint(base, delta)
	proof, err = ocpcrypto.ChaumPedersenProve(alpha, base, beta, delta, w)
	return alpha, beta, proof, err
}

// PlayerBlindingAndSign wraps PlayerBlinding in a signed hole-target envelope.
func (e *Engine) PlayerBlindingAndSign(gameID, handID int64, seat, holeIndex int, aggKey, playerPK ocpcrypto.Point, rng scalarSource) (ledger.AnyMessageEnvelope, error) {
	alpha, beta, proof, err := e.PlayerBlinding(aggKey, playerPK, rng)
	if err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	env := ledger.AnyMessageEnvelope{
		GameID:    gameID,
		HandID:    handID,
		Actor:     e.actor(),
		Nonce:     e.nextNonce(),
		PublicKey: e.PublicKey,
		Kind:      ledger.MsgBlindingContribution,
		BlindingContrib: &ledger.BlindingContributionPayload{
			Target: ledger.DealTarget{Kind: ledger.DealTargetHole, Hole: ledger.HoleKey{Seat: seat, HoleIndex: holeIndex}},
			Alpha:  alpha,
			Beta:   beta,
			Proof:  proof,
		},
	}
	if err := env.Sign(e.SecretKey); err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	return env, nil
}

// PlayerUnblinding produces this member's Phase B partial unblinding
// share mu = A*x_j plus a proof that log_g(PublicKey) = log_A(mu).
func (e *Engine) PlayerUnblinding(playerCiphertextA ocpcrypto.Point, rng scalarSource) (mu ocpcrypto.Point, proof ocpcrypto.ChaumPedersenProof, err error) {
	w, err := rng.NextScalar()
	if err != nil {
		return mu, proof, err
	}
	mu = ocpcrypto.MulPoint(playerCiphertextA, e.SecretKey)
	proof, err = ocpcrypto.ChaumPedersenProve(e.PublicKey, playerCiphertextA, mu, e.SecretKey, w)
	return mu, proof, err
}

// PlayerUnblindingAndSign wraps PlayerUnblinding in a signed hole-target envelope.
func (e *Engine) PlayerUnblindingAndSign(gameID, handID int64, seat, holeIndex int, playerCiphertextA ocpcrypto.Point, rng scalarSource) (ledger.AnyMessageEnvelope, error) {
	mu, proof, err := e.PlayerUnblinding(playerCiphertextA, rng)
	if err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	env := ledger.AnyMessageEnvelope{
		GameID:    gameID,
		HandID:    handID,
		Actor:     e.actor(),
		Nonce:     e.nextNonce(),
		PublicKey: e.PublicKey,
		Kind:      ledger.MsgPartialUnblindingShare,
		UnblindingShare: &ledger.PartialUnblindingSharePayload{
			Target: ledger.DealTarget{Kind: ledger.DealTargetHole, Hole: ledger.HoleKey{Seat: seat, HoleIndex: holeIndex}},
			Value:  mu,
			Proof:  proof,
		},
	}
	if err := env.Sign(e.SecretKey); err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	return env, nil
}

// CommunityShare produces this member's contribution toward decrypting
// a community card: share = c1*x_j plus a proof that
// log_g(PublicKey) = log_c1(share).
func (e *Engine) CommunityShare(c1 ocpcrypto.Point, rng scalarSource) (share ocpcrypto.Point, proof ocpcrypto.ChaumPedersenProof, err error) {
	w, err := rng.NextScalar()
	if err != nil {
		return share, proof, err
	}
	share = ocpcrypto.MulPoint(c1, e.SecretKey)
	proof, err = ocpcrypto.ChaumPedersenProve(e.PublicKey, c1, share, e.SecretKey, w)
	return share, proof, err
}

// CommunityShareAndSign wraps CommunityShare in a signed community-target envelope.
func (e *Engine) CommunityShareAndSign(gameID, handID int64, boardIndex int, c1 ocpcrypto.Point, rng scalarSource) (ledger.AnyMessageEnvelope, error) {
	share, proof, err := e.CommunityShare(c1, rng)
	if err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	env := ledger.AnyMessageEnvelope{
		GameID:    gameID,
		HandID:    handID,
		Actor:     e.actor(),
		Nonce:     e.nextNonce(),
		PublicKey: e.PublicKey,
		Kind:      ledger.MsgPartialUnblindingShare,
		UnblindingShare: &ledger.PartialUnblindingSharePayload{
			Target: ledger.DealTarget{Kind: ledger.DealTargetCommunity, BoardIndex: boardIndex},
			Value:  share,
			Proof:  proof,
		},
	}
	if err := env.Sign(e.SecretKey); err != nil {
		return ledger.AnyMessageEnvelope{}, err
	}
	return env, nil
}

// ExpectedShuffleTurn reports whether it is e's turn to shuffle, given
// the Shuffling sub-snapshot's expected_order and steps so far.
func ExpectedShuffleTurn(e *Engine, expectedOrder []ocpcrypto.CanonicalKey, stepsSoFar int) bool {
	if stepsSoFar >= len(expectedOrder) {
		return false
	}
	return expectedOrder[stepsSoFar] == ocpcrypto.CanonicalKeyOf(e.PublicKey)
}
