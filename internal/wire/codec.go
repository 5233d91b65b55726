// Package wire implements the channel framing for detection buffers
// exchanged with the pipeline host: a leading box count, a leading
// fixed record size, then count fixed-size box records. All integers
// and floats are little-endian.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/frametrack/internal/geom"
)

// RecordSize is the encoded size of one box record:
// x1, y1, x2, y2, score, track_score as float32 followed by
// track_id as int64.
const RecordSize = 6*4 + 8

// headerSize is the channel framing prefix: uint64 count + uint32 record size.
const headerSize = 8 + 4

// EncodeBoxes serialises boxes into a framed detection buffer.
func EncodeBoxes(boxes []geom.Box) []byte {
	buf := make([]byte, headerSize+len(boxes)*RecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(boxes)))
	binary.LittleEndian.PutUint32(buf[8:12], RecordSize)

	off := headerSize
	for _, b := range boxes {
		binary.LittleEndian.PutUint32(buf[off+0:], math.Float32bits(float32(b.X1)))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(float32(b.Y1)))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(float32(b.X2)))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(float32(b.Y2)))
		binary.LittleEndian.PutUint32(buf[off+16:], math.Float32bits(float32(b.Score)))
		binary.LittleEndian.PutUint32(buf[off+20:], math.Float32bits(float32(b.TrackScore)))
		binary.LittleEndian.PutUint64(buf[off+24:], uint64(b.TrackID))
		off += RecordSize
	}
	return buf
}

// DecodeBoxes parses a framed detection buffer. The declared count and
// record size are validated against the buffer length before any record
// is read, so a malformed buffer surfaces as an error rather than an
// out-of-bounds read.
func DecodeBoxes(buf []byte) ([]geom.Box, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("detection buffer too short: %d bytes, need at least %d", len(buf), headerSize)
	}
	count := binary.LittleEndian.Uint64(buf[0:8])
	recordSize := binary.LittleEndian.Uint32(buf[8:12])

	if recordSize != RecordSize {
		return nil, fmt.Errorf("unexpected box record size %d, want %d", recordSize, RecordSize)
	}
	// Bound the count before multiplying so a crafted value cannot wrap
	// the length computation.
	if count > (uint64(len(buf))-headerSize)/RecordSize {
		return nil, fmt.Errorf("declared count %d exceeds detection buffer length %d", count, len(buf))
	}
	need := uint64(headerSize) + count*RecordSize
	if uint64(len(buf)) != need {
		return nil, fmt.Errorf("detection buffer length %d inconsistent with declared count %d (need %d)", len(buf), count, need)
	}

	boxes := make([]geom.Box, 0, count)
	off := headerSize
	for i := uint64(0); i < count; i++ {
		boxes = append(boxes, geom.Box{
			X1:         float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+0:]))),
			Y1:         float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))),
			X2:         float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:]))),
			Y2:         float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+12:]))),
			Score:      float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+16:]))),
			TrackScore: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+20:]))),
			TrackID:    int64(binary.LittleEndian.Uint64(buf[off+24:])),
		})
		off += RecordSize
	}
	return boxes, nil
}
