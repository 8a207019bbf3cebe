package ledger

import (
	"crypto/sha256"

	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

// Hasher is the ledger's pluggable state-hashing backend. A hand freezes
// its hasher choice at commencement; every snapshot in that hand's chain
// uses the same one.
type Hasher interface {
	Name() string
	Sum(parts ...[]byte) []byte
}

// Sha256Hasher concatenates its parts with length prefixes and runs
// them through SHA-256, matching the byte-oriented hash the state chain
// needs for StateHash.
type Sha256Hasher struct{}

func (Sha256Hasher) Name() string { return "sha256" }

func (Sha256Hasher) Sum(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(u32le(uint32(len(p))))
		h.Write(p)
	}
	sum := h.Sum(nil)
	return sum[:]
}

// PoseidonHasher approximates an algebraic sponge over the curve's base
// field: it squeezes a scalar from a domain-separated transcript built
// from the same length-prefixed parts Sha256Hasher consumes, and returns
// that scalar's canonical bytes. A true Poseidon permutation is out of
// scope here; the ledger only requires that prover and verifier agree on
// one sponge construction per hand, which this satisfies.
type PoseidonHasher struct{}

func (PoseidonHasher) Name() string { return "poseidon" }

func (PoseidonHasher) Sum(parts ...[]byte) []byte {
	tr := ocpcrypto.NewTranscript("ledger/poseidon-state-hash")
	for i, p := range parts {
		_ = tr.AppendMessage(partLabel(i), p)
	}
	s, err := tr.ChallengeScalar("state_hash")
	if err != nil {
		// AppendMessage rejects a nil part (genesis passes nil previous and
		// message hashes), so such a part is left out of the transcript;
		// ChallengeScalar itself only errors on a nil transcript. Fall back
		// to the zero scalar's bytes rather than panic.
		return ocpcrypto.ScalarZero().Bytes()
	}
	return s.Bytes()
}

func partLabel(i int) string {
	labels := []string{"previous_hash", "message_hash", "state"}
	if i < len(labels) {
		return labels[i]
	}
	return "extra"
}

func u32le(x uint32) []byte {
	return []byte{byte(x), byte(x >> 8), byte(x >> 16), byte(x >> 24)}
}

// ComputeStateHash implements state_hash = H(previous_hash || message_hash
// || canonical_serialization(new_state)).
func ComputeStateHash(h Hasher, previousHash, messageHash, canonicalState []byte) []byte {
	return h.Sum(previousHash, messageHash, canonicalState)
}
