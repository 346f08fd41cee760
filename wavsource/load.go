// Package wavsource loads captured turntable audio from WAV files and
// hands it to a decoder.Decoder in the same interleaved 16-bit stereo
// shape a live audio callback would, so the decoder core itself never
// touches a file. This is the only place in the module that performs
// file I/O for timecode audio.
package wavsource

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/edorfaus/dvs-timecode/log"
)

// Meta describes the format of a loaded WAV capture.
type Meta struct {
	SampleRate  int
	BitDepth    int
	NumChannels int
}

func readFile(filename string) ([]byte, error) {
	defer log.Time(1, "Reading: %v ...", filename)(" done in")
	return os.ReadFile(filename)
}

// LoadStereo16 loads a WAV file's PCM samples and returns them as
// interleaved 16-bit stereo, suitable for passing directly to
// decoder.Decoder.Submit in fixed-size blocks. If the source has more
// than two channels, only the first two are kept; if it has one
// channel, it is duplicated to both.
func LoadStereo16(filename string) ([]int16, Meta, error) {
	data, meta, err := loadInterleaved(filename)
	if err != nil {
		return nil, Meta{}, err
	}

	defer log.Time(1, "Converting to stereo 16-bit...")(" done in")

	out := make([]int16, (len(data)/max(meta.NumChannels, 1))*2)

	shift := meta.BitDepth - 16
	scale := func(v int) int16 {
		if shift > 0 {
			return int16(v >> uint(shift))
		}
		if shift < 0 {
			return int16(v << uint(-shift))
		}
		return int16(v)
	}

	switch meta.NumChannels {
	case 1:
		for i, j := 0, 0; j < len(data); i, j = i+2, j+1 {
			v := scale(data[j])
			out[i] = v
			out[i+1] = v
		}
	default:
		ch := meta.NumChannels
		for i, j := 0, 0; j+1 < len(data); i, j = i+2, j+ch {
			out[i] = scale(data[j])
			out[i+1] = scale(data[j+1])
		}
	}

	meta.NumChannels = 2
	meta.BitDepth = 16

	return out, meta, nil
}

// loadInterleaved loads the wave samples from the given file, without
// de-interleaving or rescaling them.
func loadInterleaved(filename string) ([]int, Meta, error) {
	fileData, err := readFile(filename)
	if err != nil {
		return nil, Meta{}, err
	}

	defer log.Time(1, "Decoding WAVE data...\n")("Decoding done in")

	d := wav.NewDecoder(bytes.NewReader(fileData))

	if err := d.FwdToPCM(); err != nil {
		return nil, Meta{}, err
	}

	if d.BitDepth < 8 || d.BitDepth > 64 || d.BitDepth%8 != 0 {
		return nil, Meta{}, fmt.Errorf("bad bit depth: %v", d.BitDepth)
	}
	expectedSamples := int(d.PCMLen() / int64(d.BitDepth/8))
	log.Ln(2, "Expected samples:", expectedSamples)

	// +1 just in case our calculation isn't quite right.
	buf := &audio.IntBuffer{
		Data: make([]int, expectedSamples+1),
	}
	n, err := d.PCMBuffer(buf)
	if err != nil {
		return nil, Meta{}, err
	}
	buf.Data = buf.Data[:n]
	log.Ln(2, "     Got samples:", n)

	if n > expectedSamples {
		log.Warn("unexpected sample, may have lost some")
	}
	if n < expectedSamples {
		log.Warn("got fewer samples than expected")
	}

	if err := d.Err(); err != nil {
		return nil, Meta{}, err
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, Meta{}, fmt.Errorf("missing or bad PCM format information")
	}

	meta := Meta{
		SampleRate:  buf.Format.SampleRate,
		BitDepth:    buf.SourceBitDepth,
		NumChannels: buf.Format.NumChannels,
	}
	return buf.Data, meta, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
