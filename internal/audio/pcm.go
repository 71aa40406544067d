package audio

import (
	"encoding/binary"
	"fmt"
)

// ReadMonoPCM16 decodes a canonical wav file into float32 samples in [-1, 1).
func ReadMonoPCM16(path string) ([]float32, error) {
	format, data, err := readWAV(path)
	if err != nil {
		return nil, err
	}
	if !format.IsCanonical() {
		return nil, fmt.Errorf("%w: want 16 kHz mono pcm_s16le, got format=%d channels=%d rate=%d bits=%d",
			ErrUnsupportedWAV, format.AudioFormat, format.Channels, format.SampleRate, format.BitsPerSample)
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}
