package ocpcrypto

import "testing"

func TestSchnorrSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := []byte("ledger/msg||1||2||3")
	sig, err := Sign(kp.Secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := Verify(kp.Public, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestSchnorrRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	sig, err := Sign(kp.Secret, []byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := Verify(kp.Public, []byte("tampered"), sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered message to fail verification")
	}
}

func TestSchnorrRejectsWrongKey(t *testing.T) {
	kp1, _ := GenerateKeyPair()
	kp2, _ := GenerateKeyPair()
	msg := []byte("hello")
	sig, err := Sign(kp1.Secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := Verify(kp2.Public, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected signature under a different key to fail")
	}
}

func TestSchnorrEncodeDecodeRoundTrip(t *testing.T) {
	kp, _ := GenerateKeyPair()
	sig, err := Sign(kp.Secret, []byte("roundtrip"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	enc := EncodeSignature(sig)
	dec, err := DecodeSignature(enc)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	if !PointEq(sig.R, dec.R) || string(dec.S.Bytes()) != string(sig.S.Bytes()) {
		t.Fatalf("decoded signature does not match original")
	}
}
