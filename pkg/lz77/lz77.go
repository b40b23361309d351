// Package lz77 implements the sliding-window compression format used for
// some titles' content (component 4.9): decompression plus a fast greedy
// encoder and a smaller dynamic-programming encoder.
package lz77

import (
	"bytes"
	"fmt"

	"github.com/ninjacheetah/gowiipkg/werr"
)

const (
	minDistance = 0x01
	maxDistance = 0x1000
	minLength   = 0x03
	maxLength   = 0x12
)

// Level selects which encoder Compress uses.
type Level int

const (
	// LevelGreedy is the fast, slightly-larger-output encoder.
	LevelGreedy Level = 1
	// LevelOptimal is the smaller-output dynamic-programming encoder.
	LevelOptimal Level = 2
)

// Decompress expands LZ-compressed data. The 4-byte "LZ77" magic is
// optional; if absent, decompression starts from the type byte.
func Decompress(data []byte) ([]byte, error) {
	if len(data) >= 4 && bytes.Equal(data[0:4], []byte("LZ77")) {
		data = data[4:]
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: data shorter than the compression header", werr.ErrMalformedStructure)
	}
	if data[0] != 0x10 {
		return nil, fmt.Errorf("%w: unsupported compression type %#x", werr.ErrUnsupportedVersion, data[0])
	}
	decompressedSize := int(data[1]) | int(data[2])<<8 | int(data[3])<<16
	out := make([]byte, decompressedSize)
	src := data[4:]
	srcPos := 0
	pos := 0
	readByte := func() (byte, error) {
		if srcPos >= len(src) {
			return 0, fmt.Errorf("%w: truncated compressed stream", werr.ErrMalformedStructure)
		}
		b := src[srcPos]
		srcPos++
		return b, nil
	}
	for pos < decompressedSize {
		flag, err := readByte()
		if err != nil {
			return nil, err
		}
		for bit := 7; bit >= 0; bit-- {
			if pos >= decompressedSize {
				break
			}
			if flag&(1<<uint(bit)) != 0 {
				if srcPos+2 > len(src) {
					return nil, fmt.Errorf("%w: truncated reference", werr.ErrMalformedStructure)
				}
				ref := int(src[srcPos])<<8 | int(src[srcPos+1])
				srcPos += 2
				length := 3 + ((ref >> 12) & 0xF)
				offset := pos - (ref & 0xFFF) - 1
				if offset < 0 {
					return nil, fmt.Errorf("%w: back-reference before start of output", werr.ErrMalformedStructure)
				}
				for i := 0; i < length && pos < decompressedSize; i++ {
					out[pos] = out[offset]
					pos++
					offset++
				}
			} else {
				b, err := readByte()
				if err != nil {
					return nil, err
				}
				out[pos] = b
				pos++
			}
		}
	}
	return out, nil
}

func compareBytes(buf []byte, off1, off2, maxLen int) int {
	n := 0
	for n < maxLen && buf[off1+n] == buf[off2+n] {
		n++
	}
	return n
}

// searchMatchesBest scans the full allowed window for the longest match,
// used by the optimal encoder.
func searchMatchesBest(buf []byte, pos int) (length, dist int) {
	bytesLeft := len(buf) - pos
	maxDist := maxDistance
	if pos < maxDist {
		maxDist = pos
	}
	maxLen := maxLength
	if bytesLeft < maxLen {
		maxLen = bytesLeft
	}
	best, bestPos := 0, 0
	for i := minDistance; i <= maxDist; i++ {
		n := compareBytes(buf, pos-i, pos, maxLen)
		if n > best {
			best = n
			bestPos = i
			if best == maxLen {
				break
			}
		}
	}
	return best, bestPos
}

// searchMatchesGreedy returns the first match at least minLength long (or
// the longest available match if none reaches that length), rather than
// the best one.
func searchMatchesGreedy(buf []byte, pos int) (length, dist int) {
	bytesLeft := len(buf) - pos
	maxDist := maxDistance
	if pos < maxDist {
		maxDist = pos
	}
	maxLen := maxLength
	if bytesLeft < maxLen {
		maxLen = bytesLeft
	}
	match, matchPos := 0, 0
	for i := minDistance; i <= maxDist; i++ {
		match = compareBytes(buf, pos-i, pos, maxLen)
		matchPos = i
		if match >= minLength || match == maxLen {
			break
		}
	}
	return match, matchPos
}

func nodeCost(length int) int {
	numBytes := 1
	if length >= minLength {
		numBytes = 2
	}
	return 1 + numBytes*8
}

func writeHeader(buf *bytes.Buffer, size int) {
	buf.WriteString("LZ77")
	buf.WriteByte(0x10)
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size >> 8))
	buf.WriteByte(byte(size >> 16))
}

// chunkWriter buffers up to 8 symbols, writing a placeholder flag byte
// first and rewriting it once the chunk is known, shared by both
// encoders.
type chunkWriter struct {
	buf     *bytes.Buffer
	headPos int
	head    byte
	count   int
}

func newChunkWriter(buf *bytes.Buffer) *chunkWriter {
	w := &chunkWriter{buf: buf}
	w.startChunk()
	return w
}

func (w *chunkWriter) startChunk() {
	w.headPos = w.buf.Len()
	w.buf.WriteByte(0)
	w.head = 0
	w.count = 0
}

func (w *chunkWriter) flushChunk() {
	out := w.buf.Bytes()
	out[w.headPos] = w.head
}

func (w *chunkWriter) literal(b byte) {
	w.buf.WriteByte(b)
	w.advance()
}

func (w *chunkWriter) reference(length, dist int) {
	encoded := uint16((length-minLength)&0xF)<<12 | uint16((dist-minDistance)&0xFFF)
	w.buf.WriteByte(byte(encoded >> 8))
	w.buf.WriteByte(byte(encoded))
	w.head |= 1 << uint(7-w.count)
	w.advance()
}

func (w *chunkWriter) advance() {
	w.count++
	if w.count == 8 {
		w.flushChunk()
		w.startChunk()
	}
}

func (w *chunkWriter) finish() {
	if w.count > 0 {
		w.flushChunk()
	} else {
		// No symbols were written into this chunk; drop its placeholder.
		w.buf.Truncate(w.headPos)
	}
}

// CompressGreedy compresses data with the fast, first-match encoder.
func CompressGreedy(data []byte) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, len(data))
	w := newChunkWriter(&buf)
	pos := 0
	for pos < len(data) {
		length, dist := searchMatchesGreedy(data, pos)
		if length >= minLength {
			w.reference(length, dist)
			pos += length
		} else {
			w.literal(data[pos])
			pos++
		}
	}
	w.finish()
	return buf.Bytes()
}

type lzNode struct {
	dist, len, weight int
}

// CompressOptimal compresses data with the dynamic-programming encoder,
// which produces smaller output at higher cost.
func CompressOptimal(data []byte) []byte {
	n := len(data)
	nodes := make([]lzNode, n)
	for pos := n - 1; pos >= 0; pos-- {
		maxSearchLen := maxLength
		if n-pos < maxSearchLen {
			maxSearchLen = n - pos
		}
		if maxSearchLen < minDistance {
			maxSearchLen = 1
		}
		length, dist := 1, 1
		if maxSearchLen >= minLength {
			length, dist = searchMatchesBest(data, pos)
		}
		if length == 0 || length < minLength {
			length = 1
		}
		if pos+length == n {
			nodes[pos] = lzNode{dist: dist, len: length, weight: nodeCost(length)}
			continue
		}
		weightBest := 1 << 30 // larger than any real node cost, used as a sentinel
		lenBest := 1
		for l := length; l > 0; {
			weight := nodeCost(l) + nodes[pos+l].weight
			if weight < weightBest {
				lenBest = l
				weightBest = weight
			}
			l--
			if l != 0 && l < minLength {
				l = 1
			}
		}
		nodes[pos] = lzNode{dist: dist, len: lenBest, weight: weightBest}
	}

	var buf bytes.Buffer
	writeHeader(&buf, n)
	w := newChunkWriter(&buf)
	pos := 0
	for pos < n {
		node := nodes[pos]
		if node.len >= minLength {
			w.reference(node.len, node.dist)
		} else {
			w.literal(data[pos])
		}
		pos += node.len
	}
	w.finish()
	return buf.Bytes()
}

// Compress dispatches to the encoder selected by level.
func Compress(data []byte, level Level) ([]byte, error) {
	switch level {
	case LevelGreedy:
		return CompressGreedy(data), nil
	case LevelOptimal:
		return CompressOptimal(data), nil
	default:
		return nil, fmt.Errorf("%w: invalid compression level %d", werr.ErrInvalidArgument, level)
	}
}
