package shuffler

import (
	"testing"

	"github.com/wu-s-john/pokerledger/internal/ledger"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
	"github.com/wu-s-john/pokerledger/internal/ocpshuffle"
)

func makeFullDeck(t *testing.T, pk ocpcrypto.Point, seed uint64) []ocpcrypto.ElGamalCiphertext {
	t.Helper()
	deck := make([]ocpcrypto.ElGamalCiphertext, ledger.NumDeckCards)
	for i := range deck {
		m := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(uint64(i + 1)))
		r := ocpcrypto.ScalarFromUint64(seed + uint64(i+1))
		ct, err := ocpcrypto.ElGamalEncrypt(pk, m, r)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		deck[i] = ct
	}
	return deck
}

func TestEngine_ShuffleAndSign_VerifiesAndSigns(t *testing.T) {
	sk := ocpcrypto.ScalarFromUint64(42)
	e := NewEngine(sk, "shuffler-1")

	aggKey := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(777))
	deckIn := makeFullDeck(t, aggKey, 9000)
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 3
	}

	env, err := e.ShuffleAndSign(1, 1, aggKey, deckIn, seed)
	if err != nil {
		t.Fatalf("ShuffleAndSign: %v", err)
	}
	if env.Kind != ledger.MsgShuffleStep {
		t.Fatalf("kind = %v, want MsgShuffleStep", env.Kind)
	}
	if env.ShuffleStep == nil {
		t.Fatalf("ShuffleStep payload missing")
	}

	ok, err := env.VerifySignature()
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if !ok {
		t.Fatalf("signature did not verify")
	}

	vr := ocpshuffle.Verify(aggKey, deckIn, env.ShuffleStep.ProofBytes)
	if !vr.OK {
		t.Fatalf("shuffle proof failed: %s", vr.Error)
	}
}

func TestEngine_PlayerBlindingAndSign_ProducesValidProof(t *testing.T) {
	sk := ocpcrypto.ScalarFromUint64(11)
	e := NewEngine(sk, "shuffler-1")

	aggKey := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(5))
	playerPK := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(6))
	base := ocpcrypto.PointAdd(aggKey, playerPK)

	rng, err := ocpshuffle.NewDeterministicRng([]byte("blinding-test-seed"))
	if err != nil {
		t.Fatalf("rng: %v", err)
	}

	env, err := e.PlayerBlindingAndSign(1, 1, 0, 0, aggKey, playerPK, rng)
	if err != nil {
		t.Fatalf("PlayerBlindingAndSign: %v", err)
	}
	if env.Kind != ledger.MsgBlindingContribution {
		t.Fatalf("kind = %v, want MsgBlindingContribution", env.Kind)
	}
	c := env.BlindingContrib
	if c == nil {
		t.Fatalf("BlindingContrib payload missing")
	}
	if c.Target.Kind != ledger.DealTargetHole || c.Target.Hole != (ledger.HoleKey{Seat: 0, HoleIndex: 0}) {
		t.Fatalf("target mismatch: %+v", c.Target)
	}

	ok, err := ocpcrypto.ChaumPedersenVerify(c.Alpha, base, c.Beta, c.Proof)
	if err != nil {
		t.Fatalf("ChaumPedersenVerify: %v", err)
	}
	if !ok {
		t.Fatalf("blinding proof did not verify")
	}

	sigOK, err := env.VerifySignature()
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if !sigOK {
		t.Fatalf("signature did not verify")
	}
}

func TestEngine_PlayerUnblindingAndSign_ProducesValidProof(t *testing.T) {
	sk := ocpcrypto.ScalarFromUint64(23)
	e := NewEngine(sk, "shuffler-2")

	playerCiphertextA := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(91))

	rng, err := ocpshuffle.NewDeterministicRng([]byte("unblinding-test-seed"))
	if err != nil {
		t.Fatalf("rng: %v", err)
	}

	env, err := e.PlayerUnblindingAndSign(1, 1, 2, 1, playerCiphertextA, rng)
	if err != nil {
		t.Fatalf("PlayerUnblindingAndSign: %v", err)
	}
	if env.Kind != ledger.MsgPartialUnblindingShare {
		t.Fatalf("kind = %v, want MsgPartialUnblindingShare", env.Kind)
	}
	s := env.UnblindingShare
	if s == nil {
		t.Fatalf("UnblindingShare payload missing")
	}
	if s.Target.Kind != ledger.DealTargetHole || s.Target.Hole != (ledger.HoleKey{Seat: 2, HoleIndex: 1}) {
		t.Fatalf("target mismatch: %+v", s.Target)
	}

	ok, err := ocpcrypto.ChaumPedersenVerify(e.PublicKey, playerCiphertextA, s.Value, s.Proof)
	if err != nil {
		t.Fatalf("ChaumPedersenVerify: %v", err)
	}
	if !ok {
		t.Fatalf("unblinding proof did not verify")
	}
}

func TestEngine_CommunityShareAndSign_ProducesValidProof(t *testing.T) {
	sk := ocpcrypto.ScalarFromUint64(57)
	e := NewEngine(sk, "shuffler-3")

	c1 := ocpcrypto.MulBase(ocpcrypto.ScalarFromUint64(64))

	rng, err := ocpshuffle.NewDeterministicRng([]byte("community-test-seed"))
	if err != nil {
		t.Fatalf("rng: %v", err)
	}

	env, err := e.CommunityShareAndSign(1, 1, 3, c1, rng)
	if err != nil {
		t.Fatalf("CommunityShareAndSign: %v", err)
	}
	s := env.UnblindingShare
	if s == nil {
		t.Fatalf("UnblindingShare payload missing")
	}
	if s.Target.Kind != ledger.DealTargetCommunity || s.Target.BoardIndex != 3 {
		t.Fatalf("target mismatch: %+v", s.Target)
	}

	ok, err := ocpcrypto.ChaumPedersenVerify(e.PublicKey, c1, s.Value, s.Proof)
	if err != nil {
		t.Fatalf("ChaumPedersenVerify: %v", err)
	}
	if !ok {
		t.Fatalf("community share proof did not verify")
	}
}

func TestExpectedShuffleTurn(t *testing.T) {
	e1 := NewEngine(ocpcrypto.ScalarFromUint64(1), "a")
	e2 := NewEngine(ocpcrypto.ScalarFromUint64(2), "b")
	order := []ocpcrypto.CanonicalKey{
		ocpcrypto.CanonicalKeyOf(e1.PublicKey),
		ocpcrypto.CanonicalKeyOf(e2.PublicKey),
	}

	if !ExpectedShuffleTurn(&e1, order, 0) {
		t.Fatalf("expected e1's turn at step 0")
	}
	if ExpectedShuffleTurn(&e2, order, 0) {
		t.Fatalf("did not expect e2's turn at step 0")
	}
	if !ExpectedShuffleTurn(&e2, order, 1) {
		t.Fatalf("expected e2's turn at step 1")
	}
	if ExpectedShuffleTurn(&e1, order, 2) {
		t.Fatalf("no one's turn once steps exceed the order")
	}
}
