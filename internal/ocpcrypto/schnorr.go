package ocpcrypto

import "fmt"

// Signature is a Schnorr signature over the group: R = g*k, s = k + e*sk,
// where e is squeezed from a transcript binding R and the signed message.
type Signature struct {
	R Point
	S Scalar
}

const schnorrDomain = "ocp/v1/schnorr-sig"

// Sign produces a signature over msg using sk. Every ledger message
// envelope is signed this way: the signed bytes are the domain-separated
// transcript of "ledger/msg" described alongside the envelope type, not
// the raw message struct.
func Sign(sk Scalar, msg []byte) (Signature, error) {
	k, err := RandomScalar()
	if err != nil {
		return Signature{}, err
	}
	return signWithNonce(sk, msg, k)
}

func signWithNonce(sk Scalar, msg []byte, k Scalar) (Signature, error) {
	if k.IsZero() {
		return Signature{}, fmt.Errorf("schnorr: nonce must be non-zero")
	}
	r := MulBase(k)
	e, err := schnorrChallenge(r, msg)
	if err != nil {
		return Signature{}, err
	}
	s := ScalarAdd(k, ScalarMul(e, sk))
	return Signature{R: r, S: s}, nil
}

// Verify checks sig against pk and msg.
func Verify(pk Point, msg []byte, sig Signature) (bool, error) {
	e, err := schnorrChallenge(sig.R, msg)
	if err != nil {
		return false, err
	}
	lhs := MulBase(sig.S)
	rhs := PointAdd(sig.R, MulPoint(pk, e))
	return PointEq(lhs, rhs), nil
}

func schnorrChallenge(r Point, msg []byte) (Scalar, error) {
	tr := NewTranscript(schnorrDomain)
	if err := tr.AppendMessage("r", r.Bytes()); err != nil {
		return Scalar{}, err
	}
	if err := tr.AppendMessage("msg", msg); err != nil {
		return Scalar{}, err
	}
	return tr.ChallengeScalar("e")
}

// EncodeSignature: R(32) || S(32).
func EncodeSignature(sig Signature) []byte {
	return concatBytes(sig.R.Bytes(), sig.S.Bytes())
}

func DecodeSignature(b []byte) (Signature, error) {
	if len(b) != 64 {
		return Signature{}, fmt.Errorf("schnorr: expected 64 bytes")
	}
	r, err := PointFromBytesCanonical(b[0:32])
	if err != nil {
		return Signature{}, err
	}
	s, err := ScalarFromBytesCanonical(b[32:64])
	if err != nil {
		return Signature{}, err
	}
	return Signature{R: r, S: s}, nil
}
