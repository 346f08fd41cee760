package decoder

// ringBuffer is a small fixed-size circular buffer of recent
// amplitude samples, pushed to on every offset-modulation bit decode.
// It mirrors the reference decoder's cbuf, reserved (per its inline
// TODO) for a future envelope-based offset computation; nothing reads
// from it yet, but pushing to it does not change the decoded bit.
type ringBuffer struct {
	buf      [10]int32
	writePtr int
}

func (r *ringBuffer) push(v int32) {
	r.buf[r.writePtr] = v
	r.writePtr = (r.writePtr + 1) % len(r.buf)
}
