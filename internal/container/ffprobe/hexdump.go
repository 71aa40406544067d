package ffprobe

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// hex area of one dump line: 16 bytes as eight 4-digit groups plus separators
const hexColumnWidth = 40

// ParseHexDump decodes the payload listing ffprobe prints for -show_data:
//
//	00000000: 2111 4500 1400 5000 0100 0000 0000 0000  !.E...P.........
func ParseHexDump(dump string) ([]byte, error) {
	var out []byte
	for lineNo, line := range strings.Split(dump, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		colon := strings.Index(line, ": ")
		if colon < 0 {
			return nil, fmt.Errorf("hex dump line %d: missing offset", lineNo+1)
		}

		body := line[colon+2:]
		if len(body) > hexColumnWidth {
			body = body[:hexColumnWidth]
		}
		digits := strings.ReplaceAll(body, " ", "")

		decoded, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("hex dump line %d: %w", lineNo+1, err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}
