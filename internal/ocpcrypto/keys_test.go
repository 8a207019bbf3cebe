package ocpcrypto

import "testing"

func TestGenerateKeyPairPublicMatchesSecret(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !PointEq(kp.Public, MulBase(kp.Secret)) {
		t.Fatalf("public key does not match secret")
	}
}

func TestGenerateKeyPairIsNotDeterministic(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate a: %v", err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate b: %v", err)
	}
	if PointEq(a.Public, b.Public) {
		t.Fatalf("two independently generated keypairs collided")
	}
}

func TestCanonicalKeyRoundTrip(t *testing.T) {
	p := MulBase(ScalarFromUint64(77))
	k := CanonicalKeyOf(p)

	p2, err := k.Point()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !PointEq(p, p2) {
		t.Fatalf("canonical key round trip mismatch")
	}
}

func TestCanonicalKeyLessIsAntisymmetric(t *testing.T) {
	a := CanonicalKeyOf(MulBase(ScalarFromUint64(1)))
	b := CanonicalKeyOf(MulBase(ScalarFromUint64(2)))
	if a == b {
		t.Fatalf("expected distinct keys")
	}
	if a.Less(b) == b.Less(a) {
		t.Fatalf("Less must be antisymmetric for distinct keys")
	}
}
