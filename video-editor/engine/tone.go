package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// WAVHeaderSize is the fixed size of a canonical PCM WAVE header
const WAVHeaderSize = 44

// ToneParams describes one notification beep
type ToneParams struct {
	Frequency  float64
	Seconds    float64
	SampleRate int
}

// SynthesizeTone samples a sine at frequency under an e^(-10t) envelope so
// the beep starts and ends without a click.
func SynthesizeTone(frequency, seconds float64, sampleRate int) []int16 {
	n := int(float64(sampleRate) * seconds)
	if n <= 0 {
		return nil
	}

	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		v := math.Sin(2*math.Pi*frequency*t) * math.Exp(-10*t)
		samples[i] = int16(v * math.MaxInt16)
	}
	return samples
}

// leWriter keeps the first write error so the header can be written
// field by field.
type leWriter struct {
	w   io.Writer
	err error
}

func (lw *leWriter) tag(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = io.WriteString(lw.w, s)
}

func (lw *leWriter) u32(v uint32) {
	if lw.err != nil {
		return
	}
	lw.err = binary.Write(lw.w, binary.LittleEndian, v)
}

func (lw *leWriter) u16(v uint16) {
	if lw.err != nil {
		return
	}
	lw.err = binary.Write(lw.w, binary.LittleEndian, v)
}

// EncodeWAV wraps mono 16-bit samples in a RIFF/WAVE container
func EncodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
		blockAlign    = channels * bitsPerSample / 8
	)
	dataSize := uint32(len(samples) * blockAlign)

	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+int(dataSize)))
	lw := &leWriter{w: buf}

	lw.tag("RIFF")
	lw.u32(36 + dataSize)
	lw.tag("WAVE")

	lw.tag("fmt ")
	lw.u32(16) // fmt chunk size
	lw.u16(1)  // PCM
	lw.u16(channels)
	lw.u32(uint32(sampleRate))
	lw.u32(uint32(sampleRate * blockAlign))
	lw.u16(blockAlign)
	lw.u16(bitsPerSample)

	lw.tag("data")
	lw.u32(dataSize)
	if lw.err == nil {
		lw.err = binary.Write(buf, binary.LittleEndian, samples)
	}

	// bytes.Buffer writes only fail when out of memory, which panics
	if lw.err != nil {
		panic(fmt.Sprintf("encode wav: %v", lw.err))
	}
	return buf.Bytes()
}

// WriteTone synthesizes a tone and writes it as a WAV file
func WriteTone(path string, p ToneParams) error {
	samples := SynthesizeTone(p.Frequency, p.Seconds, p.SampleRate)
	if err := os.WriteFile(path, EncodeWAV(samples, p.SampleRate), 0644); err != nil {
		return fmt.Errorf("failed to write tone %s: %w", path, err)
	}
	return nil
}
