package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/edorfaus/dvs-timecode/decoder"
	"github.com/edorfaus/dvs-timecode/filter"
	"github.com/edorfaus/dvs-timecode/log"
	"github.com/edorfaus/dvs-timecode/timecode"
	"github.com/edorfaus/dvs-timecode/wavsource"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var args = struct {
	Input  string `arg:"positional,required" help:"input wav file"`
	Output string `arg:"positional" help:"output png scope image [scope.png]"`

	Format string `help:"timecode format name"`
	Size   int    `help:"monitor raster size in pixels"`

	DumpMono string `help:"also write the discrete-derivative-filtered primary channel to this mono wav, for calibrating offset-modulation (MK2) captures"`
}{
	Output: "scope.png",
	Format: "serato_2a",
	Size:   256,
}

func run() error {
	arg.MustParse(&args)

	format, err := timecode.FindDefinition(args.Format)
	if err != nil {
		return err
	}

	samples, meta, err := wavsource.LoadStereo16(args.Input)
	if err != nil {
		return err
	}

	dec := decoder.New(format, 1.0, meta.SampleRate, false)
	if err := dec.MonitorInit(args.Size); err != nil {
		return err
	}

	if args.DumpMono != "" {
		if err := dumpMono(args.DumpMono, samples, meta.SampleRate, format.Flags); err != nil {
			return err
		}
	}

	stop := log.Time(1, "Decoding %s...", args.Input)
	dec.Submit(samples)
	stop(" done in")

	img, ok := dec.MonitorImage()
	if !ok {
		return fmt.Errorf("tc-scope: monitor was not initialized")
	}

	out, err := os.Create(args.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return err
	}

	log.F(1, "wrote %s\n", args.Output)
	return nil
}

// dumpMono writes the discrete derivative of the primary channel (the
// right channel, or the left one on SwitchPrimary formats) to a mono
// wav, mirroring the preprocessing the decoder itself applies
// internally on OffsetModulation formats, so a calibration issue can
// be inspected outside the raster too.
func dumpMono(fn string, samples []int16, rate int, flags timecode.Flag) error {
	ch := 1
	if flags.Has(timecode.SwitchPrimary) {
		ch = 0
	}
	var deriv filter.Derivative
	out := make([]int16, len(samples)/timecode.Channels)
	for i, j := 0, 0; j+1 < len(samples); i, j = i+1, j+timecode.Channels {
		out[i] = int16(deriv.Step(float64(samples[j+ch])))
	}
	return wavsource.SaveMonitorWAV(fn, out, rate)
}
