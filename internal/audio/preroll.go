package audio

import "time"

// PreRoll is a FIFO of recent frames bounded by a byte budget. Pushing past
// the budget evicts the oldest frames first.
type PreRoll struct {
	frames   []Frame
	bytes    int
	maxBytes int
}

// NewPreRoll sizes the budget as d of PCM16 mono audio at rate.
func NewPreRoll(d time.Duration, rate int) *PreRoll {
	return &PreRoll{maxBytes: PreRollBytes(d, rate)}
}

// PreRollBytes is the byte budget for d of PCM16 mono audio at rate.
func PreRollBytes(d time.Duration, rate int) int {
	return int(int64(rate) * BytesPerSample * d.Milliseconds() / 1000)
}

// Push appends f and evicts from the front until the budget holds.
func (p *PreRoll) Push(f Frame) {
	p.frames = append(p.frames, f)
	p.bytes += len(f)
	evict := 0
	for p.bytes > p.maxBytes && evict < len(p.frames) {
		p.bytes -= len(p.frames[evict])
		p.frames[evict] = nil
		evict++
	}
	if evict > 0 {
		p.frames = append(p.frames[:0], p.frames[evict:]...)
	}
}

// Drain returns the buffered frames oldest-first and empties the buffer.
func (p *PreRoll) Drain() []Frame {
	out := p.frames
	p.frames = nil
	p.bytes = 0
	return out
}

// Clear drops every buffered frame.
func (p *PreRoll) Clear() {
	p.frames = nil
	p.bytes = 0
}

// Len returns the number of buffered frames.
func (p *PreRoll) Len() int { return len(p.frames) }

// Bytes returns the buffered byte count.
func (p *PreRoll) Bytes() int { return p.bytes }

// MaxBytes returns the byte budget.
func (p *PreRoll) MaxBytes() int { return p.maxBytes }
