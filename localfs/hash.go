package localfs

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/trawl-media/trawl/filesystem"
)

const hashChunk = 64 * 1024

// Hash computes the OpenSubtitles movie hash of a file: its size plus the
// 64-bit little-endian word sums of the first and last 64 KiB.
func Hash(path string) (string, error) {
	f, err := filesystem.API().Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	size := info.Size()
	if size < hashChunk {
		return "", fmt.Errorf("%s: file too small to hash", path)
	}

	sum := uint64(size)
	buf := make([]byte, hashChunk)
	for _, offset := range []int64{0, size - hashChunk} {
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return "", err
		}
		for i := 0; i < hashChunk; i += 8 {
			sum += binary.LittleEndian.Uint64(buf[i:])
		}
	}

	return fmt.Sprintf("%016x", sum), nil
}
