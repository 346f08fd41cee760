package timecode

import (
	"sort"

	"github.com/edorfaus/dvs-timecode/bits128"
)

// sortFormats sorts a slice of formats by name, in place.
func sortFormats(fs []*Format) {
	sort.Slice(fs, func(i, j int) bool {
		return fs[i].Name < fs[j].Name
	})
}

// catalog is the static, process-wide table of supported timecode
// formats, reproduced verbatim (resolution, bits, seed, taps, length,
// safe, flags) from the reference decoder this package implements.
var catalog = []*Format{
	{
		Name:       "serato_2a",
		Desc:       "Serato 2nd Ed., side A",
		Resolution: 1000,
		Bits:       20,
		Seed:       bits128.FromUint64(0x59017),
		Taps:       bits128.FromUint64(0x361e4),
		Length:     712000,
		Safe:       707000,
	},
	{
		Name:       "serato_2b",
		Desc:       "Serato 2nd Ed., side B",
		Resolution: 1000,
		Bits:       20,
		Seed:       bits128.FromUint64(0x8f3c6),
		Taps:       bits128.FromUint64(0x4f0d8), // reverse of side A
		Length:     922000,
		Safe:       917000,
	},
	{
		Name:       "serato_cd",
		Desc:       "Serato CD",
		Resolution: 1000,
		Bits:       20,
		Seed:       bits128.FromUint64(0xd8b40),
		Taps:       bits128.FromUint64(0x34d54),
		Length:     950000,
		Safe:       940000,
	},
	{
		Name:       "traktor_a",
		Desc:       "Traktor Scratch, side A",
		Resolution: 2000,
		Flags:      SwitchPrimary | SwitchPolarity | SwitchPhase,
		Bits:       23,
		Seed:       bits128.FromUint64(0x134503),
		Taps:       bits128.FromUint64(0x041040),
		Length:     1500000,
		Safe:       1480000,
	},
	{
		Name:       "traktor_b",
		Desc:       "Traktor Scratch, side B",
		Resolution: 2000,
		Flags:      SwitchPrimary | SwitchPolarity | SwitchPhase,
		Bits:       23,
		Seed:       bits128.FromUint64(0x32066c),
		Taps:       bits128.FromUint64(0x041040), // same as side A
		Length:     2110000,
		Safe:       2090000,
	},
	{
		Name:       "traktor_mk2_a",
		Desc:       "Traktor Scratch MK2, side A",
		Resolution: 2500,
		Flags:      OffsetModulation,
		Bits:       110,
		Seed:       bits128.New(0x339c1f39f18c, 0x7fe0063f8f83e0f9),
		Taps:       bits128.New(0x400000000040, 0x0000010800000001),
		Length:     1620000,
		Safe:       1600000,
	},
	{
		Name:       "traktor_mk2_b",
		Desc:       "Traktor Scratch MK2, side B",
		Resolution: 2500,
		Flags:      OffsetModulation,
		Bits:       110,
		Seed:       bits128.New(0x20e73fc0707c, 0xf8c00e7ffcf807c0),
		Taps:       bits128.New(0x400000000040, 0x0000010800000001),
		Length:     2295000,
		Safe:       2285000,
	},
	{
		Name:       "traktor_mk2_cd",
		Desc:       "Traktor Scratch MK2, CD",
		Resolution: 3000,
		Flags:      OffsetModulation,
		Bits:       113,
		Seed:       bits128.New(0x1f9fff01f1ff9, 0xfe7f9c1ff9cff3e3),
		Taps:       bits128.New(0x400000000000, 0x1000010800000001),
		Length:     4950000,
		Safe:       4940000,
	},
	{
		Name:       "mixvibes_v2",
		Desc:       "MixVibes V2",
		Resolution: 1300,
		Flags:      SwitchPhase,
		Bits:       20,
		Seed:       bits128.FromUint64(0x22c90),
		Taps:       bits128.FromUint64(0x00008),
		Length:     950000,
		Safe:       923000,
	},
	{
		Name:       "mixvibes_7inch",
		Desc:       `MixVibes 7"`,
		Resolution: 1300,
		Flags:      SwitchPhase,
		Bits:       20,
		Seed:       bits128.FromUint64(0x22c90),
		Taps:       bits128.FromUint64(0x00008),
		Length:     312000,
		Safe:       310000,
	},
	{
		Name:       "pioneer_a",
		Desc:       "Pioneer RekordBox DVS Control Vinyl, side A",
		Resolution: 1000,
		Flags:      SwitchPolarity,
		Bits:       20,
		Seed:       bits128.FromUint64(0x78370),
		Taps:       bits128.FromUint64(0x7933a),
		Length:     635000,
		Safe:       614000,
	},
	{
		Name:       "pioneer_b",
		Desc:       "Pioneer RekordBox DVS Control Vinyl, side B",
		Resolution: 1000,
		Flags:      SwitchPolarity,
		Bits:       20,
		Seed:       bits128.FromUint64(0xf7012),
		Taps:       bits128.FromUint64(0x2ef1c),
		Length:     918500,
		Safe:       913000,
	},
}
