package ocpcrypto

import "testing"

func TestPointCanonicalRoundTrip(t *testing.T) {
	k := ScalarFromUint64(42)
	p := MulBase(k)

	b := p.Bytes()
	if len(b) != PointBytes {
		t.Fatalf("unexpected point length: %d", len(b))
	}

	p2, err := PointFromBytesCanonical(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !PointEq(p, p2) {
		t.Fatalf("round trip mismatch")
	}
}

func TestPointFromBytesCanonicalRejectsWrongLength(t *testing.T) {
	if _, err := PointFromBytesCanonical(make([]byte, 31)); err == nil {
		t.Fatalf("expected error on short input")
	}
}

func TestSumPointsMatchesRepeatedAdd(t *testing.T) {
	a := MulBase(ScalarFromUint64(3))
	b := MulBase(ScalarFromUint64(5))
	c := MulBase(ScalarFromUint64(7))

	want := PointAdd(PointAdd(a, b), c)
	got := SumPoints(a, b, c)
	if !PointEq(want, got) {
		t.Fatalf("SumPoints mismatch")
	}
}

func TestPointAddSubInverse(t *testing.T) {
	a := MulBase(ScalarFromUint64(11))
	b := MulBase(ScalarFromUint64(13))

	sum := PointAdd(a, b)
	back := PointSub(sum, b)
	if !PointEq(a, back) {
		t.Fatalf("add/sub did not invert")
	}
}

func TestMulPointDistributesOverScalarAdd(t *testing.T) {
	p := MulBase(ScalarFromUint64(9))
	x := ScalarFromUint64(4)
	y := ScalarFromUint64(6)

	lhs := MulPoint(p, ScalarAdd(x, y))
	rhs := PointAdd(MulPoint(p, x), MulPoint(p, y))
	if !PointEq(lhs, rhs) {
		t.Fatalf("scalar mult did not distribute")
	}
}
