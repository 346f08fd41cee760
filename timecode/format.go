// Package timecode holds the static catalog of supported vinyl/CD
// timecode formats, the LFSR primitives that generate their chip
// sequences, and the lazily-built reverse lookup table that maps a
// decoded LFSR state back to its ordinal position on the medium.
package timecode

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edorfaus/dvs-timecode/bits128"
)

// Channels is the number of interleaved PCM channels a decoder
// expects: stereo left/right from the turntable cartridge.
const Channels = 2

// Flag is a bitmask of per-format decoding quirks.
type Flag uint8

const (
	// SwitchPhase means the tone phase difference is 270 degrees, not
	// the usual 90; the decoded direction must be inverted.
	SwitchPhase Flag = 1 << iota
	// SwitchPrimary means the left channel (not right) drives the
	// bitstream.
	SwitchPrimary
	// SwitchPolarity means bit values are read on the negative half of
	// the primary channel's cycle, not the positive half.
	SwitchPolarity
	// OffsetModulation marks Traktor Scratch MK2 formats, whose
	// sinusoid is vertically offset rather than centred on zero.
	OffsetModulation
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// ErrNotFound is returned by FindDefinition when no format with the
// given name exists in the catalog.
var ErrNotFound = errors.New("timecode: format not found")

// ErrBuildFailed is returned by FindDefinition when the format's
// lookup table could not be built.
var ErrBuildFailed = errors.New("timecode: lookup table build failed")

// Format describes one supported timecode: its LFSR parameters and
// physical timing. Formats are immutable except for the lazily built,
// write-once lookup table, which is safe to build concurrently for
// the same format (guarded by a sync.Once) and lock-free to read
// afterwards.
type Format struct {
	Name       string
	Desc       string
	Resolution int // chips per second on the medium
	Bits       int // LFSR register width, up to 128
	Seed       bits128.Uint128
	Taps       bits128.Uint128
	Length     int // total distinct LFSR states in the sequence
	Safe       int // largest position considered safely inside the pressed area
	Flags      Flag

	once     sync.Once
	table    atomic.Pointer[lut]
	buildErr error
}

// Built reports whether this format's lookup table has been
// successfully built.
func (f *Format) Built() bool {
	return f.table.Load() != nil
}

// ensureBuilt builds the lookup table on first call, and is a no-op
// (and lock-free) on every call after that, whether or not the first
// build succeeded.
func (f *Format) ensureBuilt() error {
	f.once.Do(func() {
		t, err := buildLUT(f)
		if err != nil {
			f.buildErr = err
			return
		}
		f.table.Store(t)
	})
	if f.table.Load() == nil {
		return f.buildErr
	}
	return nil
}

// Fwd steps state forwards by one chip according to this format's
// register width and tap mask.
func (f *Format) Fwd(state bits128.Uint128) bits128.Uint128 {
	return fwd(state, f.Bits, f.Taps)
}

// Rev steps state backwards by one chip: the inverse of Fwd.
func (f *Format) Rev(state bits128.Uint128) bits128.Uint128 {
	return rev(state, f.Bits, f.Taps)
}

// Lookup returns the ordinal position of the given LFSR state in this
// format's sequence, or ok=false if it is not part of the sequence
// (or the table has not been built).
func (f *Format) Lookup(state bits128.Uint128) (pos int32, ok bool) {
	t := f.table.Load()
	if t == nil {
		return 0, false
	}
	return t.lookup(state)
}

// buildLUT constructs the reverse lookup table for a format by
// walking its LFSR sequence forward from the seed for Length steps.
// It panics if the sequence revisits a state before Length steps (the
// LFSR period does not cover the declared Length) or if the reverse
// step fails to invert the forward step: both indicate a corrupt
// static catalog entry, not a runtime condition, so per the error
// handling design they abort with a diagnostic rather than returning
// an error. Allocating the table itself is a runtime condition, not a
// catalog defect (some formats' tables run to hundreds of megabytes),
// so that failure alone is turned into ErrBuildFailed instead of
// panicking, the same way Decoder.MonitorInit guards its own
// allocation.
func buildLUT(f *Format) (*lut, error) {
	if f.Length <= 0 || f.Bits <= 0 || f.Bits > 128 {
		return nil, fmt.Errorf(
			"%w: %s: invalid parameters (length=%d, bits=%d)",
			ErrBuildFailed, f.Name, f.Length, f.Bits,
		)
	}

	t, err := allocateLUT(f)
	if err != nil {
		return nil, err
	}

	cur := f.Seed
	for n := 0; n < f.Length; n++ {
		if _, ok := t.lookup(cur); ok {
			panic(fmt.Sprintf(
				"timecode: %s: LFSR wrapped after %d of %d states",
				f.Name, n, f.Length,
			))
		}
		t.insert(cur, int32(n))

		next := fwd(cur, f.Bits, f.Taps)
		if got := rev(next, f.Bits, f.Taps); !got.Eq(cur) {
			panic(fmt.Sprintf(
				"timecode: %s: rev(fwd(x)) != x at position %d", f.Name, n,
			))
		}
		cur = next
	}

	return t, nil
}

// allocateLUT sizes and allocates the table for f, converting an
// allocation panic into ErrBuildFailed rather than letting it escape.
func allocateLUT(f *Format) (t *lut, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf(
				"%w: %s: lookup table allocation failed: %v",
				ErrBuildFailed, f.Name, r,
			)
		}
	}()
	return newLUT(f.Length), nil
}

// FindDefinition looks up a format by name, building its lookup table
// if this is the first request for it. Returns ErrNotFound if no
// format with that name is in the catalog, or ErrBuildFailed if the
// table could not be built.
func FindDefinition(name string) (*Format, error) {
	for _, f := range catalog {
		if f.Name != name {
			continue
		}
		if err := f.ensureBuilt(); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// FreeAllLookups discards every built lookup table in the catalog.
// Safe to call multiple times, and safe to call while formats not yet
// built remain untouched; a subsequent FindDefinition for a freed
// format rebuilds it from scratch.
func FreeAllLookups() {
	for _, f := range catalog {
		f.table.Store(nil)
		f.once = sync.Once{}
		f.buildErr = nil
	}
}

// Formats returns the catalog, sorted by name.
func Formats() []*Format {
	out := make([]*Format, len(catalog))
	copy(out, catalog)
	sortFormats(out)
	return out
}

// NextBuilt returns the next format in catalog order after cur whose
// lookup table has been built, wrapping around. It panics if no
// format in the catalog is built, since that would mean cur itself
// (which by precondition is already in use by a decoder) isn't built.
func NextBuilt(cur *Format) *Format {
	idx := -1
	for i, f := range catalog {
		if f == cur {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic("timecode: NextBuilt called with a format not in the catalog")
	}
	for i := 1; i <= len(catalog); i++ {
		next := catalog[(idx+i)%len(catalog)]
		if next.Built() {
			return next
		}
	}
	panic("timecode: no built format in catalog")
}
