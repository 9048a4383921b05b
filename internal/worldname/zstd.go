package worldname

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// findMagicOffsets returns every offset where a zstd frame header may
// start. Offsets can overlap; decompression decides which are real.
func findMagicOffsets(raw []byte) []int {
	var offsets []int
	start := 0
	for {
		position := bytes.Index(raw[start:], zstdMagic)
		if position == -1 {
			break
		}
		offsets = append(offsets, start+position)
		start += position + 1
	}
	return offsets
}

// tryDecompressFromOffset decodes as much as it can starting at offset.
// Frames are embedded mid-file, so trailing garbage after a frame is
// normal; whatever decoded before the error is kept. Output above
// maxOutput bytes is discarded entirely.
func tryDecompressFromOffset(raw []byte, offset int, maxOutput int64) []byte {
	if offset < 0 || offset >= len(raw) {
		return nil
	}

	reader, err := zstd.NewReader(bytes.NewReader(raw[offset:]))
	if err != nil {
		return nil
	}
	defer reader.Close()

	var buf bytes.Buffer
	copied, err := io.Copy(&buf, io.LimitReader(reader, maxOutput+1))
	if copied > maxOutput {
		return nil
	}
	if err != nil && buf.Len() == 0 {
		return nil
	}
	return buf.Bytes()
}
