// Package ocpshuffle implements the verifiable re-encryption shuffle used
// by one committee member's turn in the Shuffling phase. A shuffle proof
// is a switching network: opts.Rounds rounds (len(deckIn) by default) of
// adjacent-pair "switch" gates, each proved by a disjunctive
// Chaum-Pedersen (OR) proof that either passes the pair through unchanged
// or swaps it, in both cases re-randomizing under the committee's
// aggregated key. A position left unpaired in a round (an end of the deck)
// gets a plain equality-of-dlog re-encryption proof instead. The verifier only ever sees the input deck, the
// output deck, and this proof: it can reject any change other than a
// permutation plus re-randomization under the stated key, without
// learning the permutation itself.
package ocpshuffle

import "github.com/wu-s-john/pokerledger/internal/ocpcrypto"

// Prove runs a full verifiable shuffle of deckIn under the committee's
// aggregated key. opts.Seed should come from the shuffler's deterministic
// per-hand RNG derivation; opts.Rounds defaults to len(deckIn) rounds,
// which for 52 cards gives every position enough opportunities to mix
// with every other position.
func Prove(aggregatedKey ocpcrypto.Point, deckIn []ocpcrypto.ElGamalCiphertext, opts ShuffleProveOpts) (ShuffleProveResult, error) {
	return ShuffleProveV1(aggregatedKey, deckIn, opts)
}

// Verify checks a shuffle proof against the claimed input and recovers
// the output deck it attests to. A verifier never needs to reconstruct
// the permutation; it only needs deckIn, proofBytes, and the key.
func Verify(aggregatedKey ocpcrypto.Point, deckIn []ocpcrypto.ElGamalCiphertext, proofBytes []byte) ShuffleVerifyResult {
	return ShuffleVerifyV1(aggregatedKey, deckIn, proofBytes)
}
