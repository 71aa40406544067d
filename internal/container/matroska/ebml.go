package matroska

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	idEBML               = 0x1A45DFA3
	idEBMLVersion        = 0x4286
	idEBMLReadVersion    = 0x42F7
	idEBMLMaxIDLength    = 0x42F2
	idEBMLMaxSizeLength  = 0x42F3
	idDocType            = 0x4282
	idDocTypeVersion     = 0x4287
	idDocTypeReadVersion = 0x4285

	idSegment       = 0x18538067
	idInfo          = 0x1549A966
	idTimecodeScale = 0x2AD7B1
	idMuxingApp     = 0x4D80
	idWritingApp    = 0x5741

	idTracks            = 0x1654AE6B
	idTrackEntry        = 0xAE
	idTrackNumber       = 0xD7
	idTrackUID          = 0x73C5
	idTrackType         = 0x83
	idFlagLacing        = 0x9C
	idCodecID           = 0x86
	idCodecPrivate      = 0x63A2
	idAudio             = 0xE1
	idSamplingFrequency = 0xB5
	idChannels          = 0x9F
	idBitDepth          = 0x6264

	idCluster     = 0x1F43B675
	idTimecode    = 0xE7
	idSimpleBlock = 0xA3
)

// unknownSize marks a master element whose length is not known up front.
var unknownSize = []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func putID(buf *bytes.Buffer, id uint32) {
	switch {
	case id > 0xFFFFFF:
		buf.Write([]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)})
	case id > 0xFFFF:
		buf.Write([]byte{byte(id >> 16), byte(id >> 8), byte(id)})
	case id > 0xFF:
		buf.Write([]byte{byte(id >> 8), byte(id)})
	default:
		buf.WriteByte(byte(id))
	}
}

// putSize writes n as an EBML variable-length integer of minimal width.
func putSize(buf *bytes.Buffer, n uint64) {
	width := 1
	for width < 8 && n >= (uint64(1)<<(7*width))-1 {
		width++
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(n)
		n >>= 8
	}
	out[0] |= 0x80 >> (width - 1)
	buf.Write(out)
}

func element(buf *bytes.Buffer, id uint32, payload []byte) {
	putID(buf, id)
	putSize(buf, uint64(len(payload)))
	buf.Write(payload)
}

func uintElement(buf *bytes.Buffer, id uint32, v uint64) {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	i := 0
	for i < 7 && raw[i] == 0 {
		i++
	}
	element(buf, id, raw[i:])
}

func floatElement(buf *bytes.Buffer, id uint32, v float64) {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], math.Float64bits(v))
	element(buf, id, raw[:])
}

func stringElement(buf *bytes.Buffer, id uint32, v string) {
	element(buf, id, []byte(v))
}
