package audio

import (
	"encoding/binary"
	"math"
)

// Frame is a block of little-endian PCM16 mono samples at the target rate.
// Frames are never mutated once produced.
type Frame []byte

// Resample converts samples from srcRate to dstRate by averaging each output
// sample's slice of the input. Slice boundaries are rounded indices, so they
// never overlap and are deterministic. Equal rates return the input unchanged.
//
// This is block averaging, not a band-limited resampler, and it keeps no
// phase between calls.
func Resample(in []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return in
	}
	ratio := float64(srcRate) / float64(dstRate)
	n := int(math.Round(float64(len(in)) / ratio))
	out := make([]float32, n)

	start := 0
	for i := 0; i < n; i++ {
		end := int(math.Round(float64(i+1) * ratio))
		var sum float64
		count := 0
		for j := start; j < end && j < len(in); j++ {
			sum += float64(in[j])
			count++
		}
		if count > 0 {
			out[i] = float32(sum / float64(count))
		}
		start = end
	}
	return out
}

// AppendPCM16 clamps each sample to [-1,1], scales it to int16 and appends
// it little-endian to dst.
func AppendPCM16(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(toInt16(s)))
	}
	return dst
}

func toInt16(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}

// Encode resamples a device block to dstRate and encodes it as a Frame.
func Encode(in []float32, srcRate, dstRate int) Frame {
	down := Resample(in, srcRate, dstRate)
	return AppendPCM16(make([]byte, 0, len(down)*BytesPerSample), down)
}
