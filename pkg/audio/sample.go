// ABOUTME: Per-format sample conversion helpers
// ABOUTME: Encodes, decodes, silences and scales interleaved PCM buffers
package audio

import (
	"encoding/binary"
	"math"
)

// Sample decodes the i-th sample of buf as a float64 in [-1, 1].
func Sample(f SampleFormat, buf []byte, i int) float64 {
	switch f {
	case FormatU8:
		return (float64(buf[i]) - 128) / 128
	case FormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(buf[i*2:]))) / 32768
	case FormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	default:
		return 0
	}
}

// PutSample encodes v, clamped to [-1, 1], as the i-th sample of buf.
func PutSample(f SampleFormat, buf []byte, i int, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	switch f {
	case FormatU8:
		buf[i] = SampleToUint8(v)
	case FormatS16LE:
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(SampleToInt16(v)))
	case FormatFloat32LE:
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
}

// SampleToInt16 converts a float sample in [-1, 1] to 16-bit PCM.
func SampleToInt16(v float64) int16 {
	s := math.Round(v * 32768)
	if s > math.MaxInt16 {
		s = math.MaxInt16
	} else if s < math.MinInt16 {
		s = math.MinInt16
	}
	return int16(s)
}

// SampleToUint8 converts a float sample in [-1, 1] to unsigned 8-bit PCM.
func SampleToUint8(v float64) uint8 {
	s := math.Round(v*128) + 128
	if s > 255 {
		s = 255
	} else if s < 0 {
		s = 0
	}
	return uint8(s)
}

// Silence fills buf with the zero level of f.
func Silence(f SampleFormat, buf []byte) {
	fill := byte(0)
	if f == FormatU8 {
		fill = 0x80
	}
	for i := range buf {
		buf[i] = fill
	}
}

// ApplyGain scales every whole sample in buf by gain in place. A gain of 1
// leaves the buffer untouched.
func ApplyGain(f SampleFormat, buf []byte, gain float32) {
	if gain == 1 {
		return
	}
	size := f.BytesPerSample()
	if size == 0 {
		return
	}
	if gain <= 0 {
		Silence(f, buf[:len(buf)/size*size])
		return
	}
	g := float64(gain)
	switch f {
	case FormatU8:
		for i := range buf {
			buf[i] = SampleToUint8((float64(buf[i]) - 128) / 128 * g)
		}
	case FormatS16LE:
		for i := 0; i+1 < len(buf); i += 2 {
			s := int16(binary.LittleEndian.Uint16(buf[i:]))
			binary.LittleEndian.PutUint16(buf[i:], uint16(int16(float64(s)*g)))
		}
	case FormatFloat32LE:
		for i := 0; i+3 < len(buf); i += 4 {
			s := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
			binary.LittleEndian.PutUint32(buf[i:], math.Float32bits(s*gain))
		}
	}
}
