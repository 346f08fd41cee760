package decoder

// channel tracks zero crossings on one audio channel (left or right),
// with a low-pass-tracked DC baseline that follows slow drift without
// reacting to the signal itself.
type channel struct {
	zero           int32
	positive       bool
	swapped        bool // a crossing occurred on the most recent sample
	crossingTicker uint32
}

// detect runs one sample of zero-crossing detection: it updates
// positive/swapped/crossingTicker and low-pass-tracks zero, in that
// order, exactly mirroring the reference decoder's per-sample update.
func (c *channel) detect(v int32, alpha float64, threshold int32) {
	c.crossingTicker++
	c.swapped = false

	if v > c.zero+threshold && !c.positive {
		c.positive = true
		c.swapped = true
		c.crossingTicker = 0
	} else if v < c.zero-threshold && c.positive {
		c.positive = false
		c.swapped = true
		c.crossingTicker = 0
	}

	c.zero += int32(alpha * float64(v-c.zero))
}
