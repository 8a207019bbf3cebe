package ocpcrypto

import (
	"crypto/rand"
	"fmt"
)

// CanonicalKey is the affine-normalized serialization of a group point,
// used as a "canonical key" for roster membership, map keys, and
// signature/transcript domains. It prevents representation
// aliasing because two points that are mathematically equal always
// produce the same CanonicalKey bytes.
type CanonicalKey [PointBytes]byte

func CanonicalKeyOf(p Point) CanonicalKey {
	var k CanonicalKey
	copy(k[:], p.Bytes())
	return k
}

func (k CanonicalKey) Bytes() []byte {
	return append([]byte(nil), k[:]...)
}

func (k CanonicalKey) Hex() string {
	return bytesToHex(k[:])
}

func (k CanonicalKey) Point() (Point, error) {
	return PointFromBytesCanonical(k[:])
}

func (k CanonicalKey) Less(other CanonicalKey) bool {
	for i := range k {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}

// KeyPair is a participant's ElGamal keypair: sk is never serialized
// alongside snapshots, only pk/canonical key are.
type KeyPair struct {
	Secret Scalar
	Public Point
}

func GenerateKeyPair() (KeyPair, error) {
	var b [64]byte
	if _, err := rand.Read(b[:]); err != nil {
		return KeyPair{}, fmt.Errorf("ocpcrypto: generate keypair: %w", err)
	}
	sk, err := ScalarFromUniformBytes(b[:])
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Secret: sk, Public: MulBase(sk)}, nil
}

// RandomScalar samples a uniform non-deterministic scalar using the
// system CSPRNG. Proof generation inside the shuffler/dealer engines
// instead draws from a per-hand DeterministicRng for testability.
func RandomScalar() (Scalar, error) {
	var b [64]byte
	if _, err := rand.Read(b[:]); err != nil {
		return Scalar{}, fmt.Errorf("ocpcrypto: random scalar: %w", err)
	}
	return ScalarFromUniformBytes(b[:])
}
