package filter

import (
	"golang.org/x/exp/slices"
)

// DefaultNoiseFloor returns 2% of the max value representable at the
// given bit depth, a reasonable default noise floor for DCOffset.
func DefaultNoiseFloor(bits int) int {
	maxValue := 1 << (bits - 1)
	return maxValue * 2 / 100
}

// ChipPeakWidth returns the expected sample width of one timecode
// chip at the given resolution (chips/second) and sample rate,
// rounded up; used to size DCOffset's peak-detection window.
func ChipPeakWidth(resolution, sampleRate int) int {
	return (sampleRate + resolution - 1) / resolution
}

func lowHigh(v []int) (low, high int) {
	return slices.Min(v), slices.Max(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
