package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/exp/slices"

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
	Input  string `arg:"positional,required" help:"input wav file (stereo capture off a turntable)"`
	Format string `help:"timecode format name"`

	LogLevel int  `help:"set the logging level (verbosity)"`
	Phono    bool `help:"input is phono level, not line level"`

	BlockSize int `help:"samples per decode block"`

	Clean      bool `help:"clean DC wander from the input before decoding"`
	NoiseFloor int  `help:"noise floor for --clean; -1 means use 2% of full scale"`
}{
	Format:     "serato_2a",
	LogLevel:   log.Level,
	BlockSize:  1024,
	NoiseFloor: -1,
}

func run() error {
	arg.MustParse(&args)
	log.Level = args.LogLevel

	format, err := timecode.FindDefinition(args.Format)
	if err != nil {
		return err
	}

	samples, meta, err := wavsource.LoadStereo16(args.Input)
	if err != nil {
		return err
	}

	log.F(
		1, "Input: %v stereo samples at %v Hz = %v\n",
		len(samples)/timecode.Channels, meta.SampleRate,
		time.Duration(len(samples)/timecode.Channels)*time.Second/time.Duration(meta.SampleRate),
	)
	if len(samples) > 0 {
		log.F(2, "Input sample min: %v, max: %v\n", slices.Min(samples), slices.Max(samples))
	}

	if args.Clean {
		stop := log.Time(1, "Cleaning DC wander...")
		samples = cleanStereo(samples, format.Resolution, meta.SampleRate, meta.BitDepth, args.NoiseFloor)
		stop(" done in")
	}

	dec := decoder.New(format, 1.0, meta.SampleRate, args.Phono)

	block := args.BlockSize * timecode.Channels
	var lastPos int32 = -1
	for i := 0; i < len(samples); i += block {
		end := i + block
		if end > len(samples) {
			end = len(samples)
		}
		dec.Submit(samples[i:end])

		pos, age, ok := dec.GetPosition()
		dir := "fwd"
		if !dec.Forwards() {
			dir = "rev"
		}
		if ok && pos != lastPos {
			log.F(
				2, "t=%.3fs pos=%d age=%.4fs pitch=%.3f dir=%s\n",
				float64(i/timecode.Channels)/float64(meta.SampleRate),
				pos, age, dec.Pitch(), dir,
			)
			lastPos = pos
		}
	}

	pos, _, ok := dec.GetPosition()
	if !ok {
		fmt.Println("no lock at end of capture")
		return nil
	}
	fmt.Printf("final position: %d (pitch %.3f, %s)\n", pos, dec.Pitch(), map[bool]string{true: "forward", false: "reverse"}[dec.Forwards()])
	return nil
}

// cleanStereo runs filter.DCOffset independently over each channel of
// an interleaved stereo capture, subtracting the tracked baseline
// wander before it ever reaches the decoder's own, much narrower,
// zero-crossing baseline tracker.
func cleanStereo(samples []int16, resolution, sampleRate, bitDepth, noiseFloor int) []int16 {
	if noiseFloor < 0 {
		noiseFloor = filter.DefaultNoiseFloor(bitDepth)
	}
	peakWidth := filter.ChipPeakWidth(resolution, sampleRate)

	n := len(samples) / timecode.Channels
	left := make([]int, n)
	right := make([]int, n)
	for i, j := 0, 0; i < n; i, j = i+1, j+timecode.Channels {
		left[i] = int(samples[j])
		right[i] = int(samples[j+1])
	}

	leftOffset := filter.NewDCOffset(noiseFloor, peakWidth).Run(left)
	rightOffset := filter.NewDCOffset(noiseFloor, peakWidth).Run(right)

	out := make([]int16, len(samples))
	for i, j := 0, 0; i < n; i, j = i+1, j+timecode.Channels {
		out[j] = int16(left[i] - leftOffset[i])
		out[j+1] = int16(right[i] - rightOffset[i])
	}
	return out
}
