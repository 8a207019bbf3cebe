package ocpcrypto

import "testing"

func TestElGamalEncryptDecryptRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	m, err := CardPoint(7)
	if err != nil {
		t.Fatalf("card point: %v", err)
	}
	r := ScalarFromUint64(12345)

	ct, err := ElGamalEncrypt(kp.Public, m, r)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got := ElGamalDecrypt(kp.Secret, ct)
	if !PointEq(got, m) {
		t.Fatalf("decrypt did not recover plaintext")
	}
}

func TestElGamalEncryptRejectsZeroRandomness(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	m, _ := CardPoint(0)
	if _, err := ElGamalEncrypt(kp.Public, m, ScalarZero()); err == nil {
		t.Fatalf("expected error for zero randomness")
	}
}

func TestElGamalWrongKeyFailsToRecoverPlaintext(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate other: %v", err)
	}
	m, _ := CardPoint(3)
	ct, err := ElGamalEncrypt(kp.Public, m, ScalarFromUint64(99))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got := ElGamalDecrypt(other.Secret, ct)
	if PointEq(got, m) {
		t.Fatalf("decryption with wrong key unexpectedly recovered plaintext")
	}
}

func TestElGamalAdditiveHomomorphism(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	m1, _ := CardPoint(2)
	m2, _ := CardPoint(5)

	ct1, err := ElGamalEncrypt(kp.Public, m1, ScalarFromUint64(10))
	if err != nil {
		t.Fatalf("encrypt 1: %v", err)
	}
	ct2, err := ElGamalEncrypt(kp.Public, m2, ScalarFromUint64(20))
	if err != nil {
		t.Fatalf("encrypt 2: %v", err)
	}

	sumCt := ElGamalCiphertext{C1: PointAdd(ct1.C1, ct2.C1), C2: PointAdd(ct1.C2, ct2.C2)}
	got := ElGamalDecrypt(kp.Secret, sumCt)
	want := PointAdd(m1, m2)
	if !PointEq(got, want) {
		t.Fatalf("homomorphic sum mismatch")
	}
}
