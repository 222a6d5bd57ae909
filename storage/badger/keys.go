package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/optimfinance/kbase/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix   = "chkrec"
	chunkFilenamePrefix = "chkfn"
)

// keySeparator separates variable-length key parts. Filenames never contain
// a NUL byte.
const keySeparator = 0x00

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkFilenameKey generates a composite key for the filename index.
// Format: prefix 0x00 filename 0x00 id
func makeChunkFilenameKey(filename string, id core.ID) []byte {
	partial := makePartialFilenameKey(filename)
	totalSize := len(partial) + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, partial)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialFilenameKey generates the iteration prefix for one filename.
// Format: prefix 0x00 filename 0x00
func makePartialFilenameKey(filename string) []byte {
	buf := make([]byte, 0, len(chunkFilenamePrefix)+len(filename)+2)
	buf = append(buf, chunkFilenamePrefix...)
	buf = append(buf, keySeparator)
	buf = append(buf, filename...)
	buf = append(buf, keySeparator)
	return buf
}
