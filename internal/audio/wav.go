package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// Format describes the fmt chunk of a RIFF/WAVE file.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// IsCanonical reports whether f is 16 kHz mono signed 16-bit PCM.
func (f Format) IsCanonical() bool {
	return f.AudioFormat == formatPCM && f.Channels == 1 && f.SampleRate == 16000 && f.BitsPerSample == 16
}

// Inspect reads only the header chunks of the wav file at path.
func Inspect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	format, _, _, err := scanChunks(f)
	return format, err
}

// readWAV returns the format and the raw contents of the data chunk.
func readWAV(path string) (Format, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	format, dataOffset, dataSize, err := scanChunks(f)
	if err != nil {
		return Format{}, nil, err
	}
	if err := validateFormat(format.AudioFormat, format.BitsPerSample); err != nil {
		return Format{}, nil, err
	}

	if _, err := f.Seek(dataOffset, io.SeekStart); err != nil {
		return Format{}, nil, fmt.Errorf("seek wav data offset: %w", err)
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(f, data); err != nil {
		return Format{}, nil, fmt.Errorf("read wav data: %w", err)
	}
	return format, data, nil
}

func scanChunks(f io.ReadSeeker) (Format, int64, uint32, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Format{}, 0, 0, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Format{}, 0, 0, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Format{}, 0, 0, ErrInvalidWAV
	}

	var (
		format     Format
		dataOffset int64
		dataSize   uint32
		hasFmt     bool
		hasData    bool
	)

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Format{}, 0, 0, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		chunkStart, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return Format{}, 0, 0, fmt.Errorf("seek wav chunk start: %w", err)
		}

		skip := int64(chunkSize)
		if chunkSize%2 != 0 {
			skip++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Format{}, 0, 0, ErrInvalidWAV
			}

			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, buf); err != nil {
				return Format{}, 0, 0, fmt.Errorf("read wav fmt chunk: %w", err)
			}

			format = Format{
				AudioFormat:   binary.LittleEndian.Uint16(buf[0:2]),
				Channels:      binary.LittleEndian.Uint16(buf[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(buf[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(buf[14:16]),
			}
			hasFmt = true

			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return Format{}, 0, 0, fmt.Errorf("seek wav fmt padding: %w", err)
				}
			}
		case "data":
			dataOffset = chunkStart
			dataSize = chunkSize
			hasData = true
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return Format{}, 0, 0, fmt.Errorf("seek wav data chunk: %w", err)
			}
		default:
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return Format{}, 0, 0, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Format{}, 0, 0, ErrInvalidWAV
	}
	return format, dataOffset, dataSize, nil
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	if audioFormat != formatPCM && audioFormat != formatFloat {
		return ErrUnsupportedWAV
	}

	if audioFormat == formatPCM {
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		default:
			return ErrUnsupportedWAV
		}
	}

	if audioFormat == formatFloat {
		switch bitsPerSample {
		case 32, 64:
			return nil
		default:
			return ErrUnsupportedWAV
		}
	}

	return ErrUnsupportedWAV
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == formatFloat {
		switch bitsPerSample {
		case 32:
			bits := binary.LittleEndian.Uint32(sample)
			return float64(math.Float32frombits(bits)), nil
		case 64:
			bits := binary.LittleEndian.Uint64(sample)
			return math.Float64frombits(bits), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		u := float64(sample[0])
		return (u - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(sample))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(sample))
		return float64(v) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}
