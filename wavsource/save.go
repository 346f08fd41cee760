package wavsource

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/edorfaus/dvs-timecode/log"
)

// SaveMonitorWAV writes a mono 16-bit debug capture, used by cmd/tc-scope
// to dump the discrete-derivative-filtered feed the monitor raster
// plots for offset-modulation (Traktor MK2) formats, so the
// calibration of a capture can be inspected outside the raster too.
func SaveMonitorWAV(fn string, samples []int16, rate int) (er error) {
	defer log.Time(1, "Saving WAVE to: %v ...", fn)(" done in")

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && er == nil {
			er = err
		}
	}()

	e := wav.NewEncoder(f, rate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := e.Write(buf); err != nil {
		return err
	}

	return e.Close()
}
