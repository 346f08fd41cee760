package bits128

import "testing"

func TestShiftRoundTrip(t *testing.T) {
	v := New(0x1234, 0xfedcba9876543210)
	for _, n := range []uint{0, 1, 7, 63, 64, 65, 100, 127} {
		got := v.Shl(n).Shr(n)
		want := v.And(Mask(128 - n))
		if !got.Eq(want) {
			t.Errorf("shift n=%d: got %v, want %v", n, got, want)
		}
	}
}

func TestMask(t *testing.T) {
	cases := []struct {
		n    uint
		want Uint128
	}{
		{0, Uint128{}},
		{1, New(0, 1)},
		{20, New(0, 0xfffff)},
		{64, New(0, ^uint64(0))},
		{65, New(1, ^uint64(0))},
		{128, New(^uint64(0), ^uint64(0))},
	}
	for _, c := range cases {
		if got := Mask(c.n); !got.Eq(c.want) {
			t.Errorf("Mask(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestBitAndSetBit(t *testing.T) {
	v := Uint128{}
	for _, n := range []uint{0, 5, 63, 64, 90, 127} {
		v = v.SetBit(n, 1)
		if v.Bit(n) != 1 {
			t.Fatalf("bit %d not set", n)
		}
	}
	for _, n := range []uint{0, 5, 63, 64, 90, 127} {
		v = v.SetBit(n, 0)
		if v.Bit(n) != 0 {
			t.Fatalf("bit %d not cleared", n)
		}
	}
	if !v.IsZero() {
		t.Fatalf("expected zero, got %v", v)
	}
}

func TestParity(t *testing.T) {
	if New(0, 0).Parity() != 0 {
		t.Fatal("parity of 0 should be 0")
	}
	if New(0, 1).Parity() != 1 {
		t.Fatal("parity of 1 should be 1")
	}
	if New(0, 3).Parity() != 0 {
		t.Fatal("parity of 3 (0b11) should be 0")
	}
	if New(1, 0).Parity() != 1 {
		t.Fatal("parity of bit 64 set should be 1")
	}
}

func TestXorAndOr(t *testing.T) {
	a := New(0xf0f0, 0x0f0f)
	b := New(0x0f0f, 0xf0f0)
	if got := a.Xor(b); !got.Eq(New(0xffff, 0xffff)) {
		t.Fatalf("xor got %v", got)
	}
	if got := a.And(b); !got.IsZero() {
		t.Fatalf("and got %v, want zero", got)
	}
	if got := a.Or(b); !got.Eq(New(0xffff, 0xffff)) {
		t.Fatalf("or got %v", got)
	}
}
