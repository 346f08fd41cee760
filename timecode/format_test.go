package timecode

import (
	"errors"
	"testing"

	"github.com/edorfaus/dvs-timecode/bits128"
)

func TestFindDefinitionNotFound(t *testing.T) {
	_, err := FindDefinition("does_not_exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestFindDefinitionBuildsLUT(t *testing.T) {
	defer FreeAllLookups()

	f, err := FindDefinition("serato_2a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	if f.Bits != 20 || f.Seed.Lo != 0x59017 || f.Taps.Lo != 0x361e4 {
		t.Fatalf("unexpected format fields: %+v", f)
	}
	if f.Length != 712000 {
		t.Fatalf("length = %d, want 712000", f.Length)
	}
	if !f.Built() {
		t.Fatal("format should be built after FindDefinition")
	}

	pos, ok := f.Lookup(f.Seed)
	if !ok || pos != 0 {
		t.Fatalf("lookup(seed) = %d, %v; want 0, true", pos, ok)
	}
}

// TestLFSRAllStatesDistinct is scenario 1 from the testable properties:
// walking the sequence for its declared length never revisits a state.
func TestLFSRAllStatesDistinct(t *testing.T) {
	defer FreeAllLookups()

	f, err := FindDefinition("serato_2a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}

	seen := make(map[bits128.Uint128]bool, f.Length)
	cur := f.Seed
	for i := 0; i < f.Length; i++ {
		if seen[cur] {
			t.Fatalf("state repeated after %d steps", i)
		}
		seen[cur] = true
		cur = fwd(cur, f.Bits, f.Taps)
	}
	if len(seen) != f.Length {
		t.Fatalf("got %d distinct states, want %d", len(seen), f.Length)
	}
}

// TestMK2LUTOrdinals is scenario 2: build the 110-bit traktor_mk2_a
// table and check the first two ordinal positions.
func TestMK2LUTOrdinals(t *testing.T) {
	defer FreeAllLookups()

	f, err := FindDefinition("traktor_mk2_a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	if f.Bits != 110 {
		t.Fatalf("bits = %d, want 110", f.Bits)
	}

	pos, ok := f.Lookup(f.Seed)
	if !ok || pos != 0 {
		t.Fatalf("lookup(seed) = %d, %v; want 0, true", pos, ok)
	}

	next := fwd(f.Seed, f.Bits, f.Taps)
	pos, ok = f.Lookup(next)
	if !ok || pos != 1 {
		t.Fatalf("lookup(fwd(seed)) = %d, %v; want 1, true", pos, ok)
	}
}

// TestRevFwdSymmetry is scenario 3.
func TestRevFwdSymmetry(t *testing.T) {
	f, err := FindDefinition("traktor_a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	defer FreeAllLookups()

	x := bits128.FromUint64(0x134503)
	next := fwd(x, f.Bits, f.Taps)
	if got := rev(next, f.Bits, f.Taps); !got.Eq(x) {
		t.Fatalf("rev(fwd(x)) = %v, want %v", got, x)
	}
}

func TestLUTMissingKeyNotPresent(t *testing.T) {
	defer FreeAllLookups()

	f, err := FindDefinition("serato_2a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}

	// A state that can't appear: bit width is only 20 bits, so any
	// value with a bit set above that is guaranteed absent.
	bogus := bits128.FromUint64(1 << 25)
	if _, ok := f.Lookup(bogus); ok {
		t.Fatal("expected bogus key to be absent from LUT")
	}
}

func TestFreeAllLookupsAllowsRebuild(t *testing.T) {
	f, err := FindDefinition("mixvibes_7inch")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	if !f.Built() {
		t.Fatal("expected built")
	}
	FreeAllLookups()
	if f.Built() {
		t.Fatal("expected not built after FreeAllLookups")
	}

	f2, err := FindDefinition("mixvibes_7inch")
	if err != nil {
		t.Fatalf("FindDefinition after free: %v", err)
	}
	if !f2.Built() {
		t.Fatal("expected built again after rebuild")
	}
	FreeAllLookups()
}

func TestAllCatalogFormatsBuild(t *testing.T) {
	defer FreeAllLookups()
	for _, f := range catalog {
		if _, err := FindDefinition(f.Name); err != nil {
			t.Errorf("%s: build failed: %v", f.Name, err)
		}
	}
}

func TestBuildLUTInvalidParametersReturnsError(t *testing.T) {
	f := &Format{Name: "bad-bits", Bits: 0, Length: 10}
	if _, err := buildLUT(f); !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("got %v, want ErrBuildFailed", err)
	}

	f2 := &Format{Name: "bad-length", Bits: 20, Length: 0}
	if _, err := buildLUT(f2); !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("got %v, want ErrBuildFailed", err)
	}
}

func TestNextBuilt(t *testing.T) {
	defer FreeAllLookups()

	a, err := FindDefinition("serato_2a")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	b, err := FindDefinition("serato_2b")
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}

	next := NextBuilt(a)
	if next != b {
		t.Fatalf("NextBuilt(a) = %v, want %v (only those two built)", next.Name, b.Name)
	}
}
