// Package ffprobe provides a typed wrapper around ffprobe JSON output and a
// container.Reader that streams compressed packets of one stream with their
// original presentation timestamps.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Demuxer: opens files for sequential packet reads
//
// Packets are read with `-show_packets -show_data`, which makes ffprobe dump
// every payload as a hex listing; ParseHexDump turns that back into bytes.
package ffprobe
