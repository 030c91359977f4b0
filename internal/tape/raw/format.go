// Package raw implements the one tape format this module carries as
// a reference behind the tape contract: a raw sequential tape of
// concatenated blocks, each preceded by a 4-byte big-endian length
// prefix. A zero-length block is an in-band tape mark; two
// consecutive tape marks signal end-of-medium.
package raw

import (
	"encoding/binary"
	"io"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

const lengthPrefixSize = 4

// blockRecord locates one data block's payload within the backing
// filter.
type blockRecord struct {
	offset int64
	length uint32
}

// scanResult is the structure produced by one pass over the tape.
type scanResult struct {
	blocksByFile map[int][]blockRecord
	fileOrder    []int
}

// scan walks data from byte 0, grouping data blocks into files on
// tape-mark boundaries. Two consecutive tape marks end the scan
// early; reaching the end of data with an open file also closes it,
// tolerating a tape with no trailing end-of-medium marker.
func scan(data filter.Seekable, size int64) (*scanResult, error) {
	res := &scanResult{blocksByFile: map[int][]blockRecord{}}

	var (
		pos         int64
		fileNum     = 1
		consecMarks int
	)

	flushFile := func() {
		if len(res.blocksByFile[fileNum]) == 0 {
			return
		}
		res.fileOrder = append(res.fileOrder, fileNum)
		fileNum++
	}

	lenBuf := make([]byte, lengthPrefixSize)
	for pos+lengthPrefixSize <= size {
		if _, err := data.ReadAt(lenBuf, pos); err != nil && err != io.EOF {
			return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read block length prefix at %d", pos)
		}
		length := binary.BigEndian.Uint32(lenBuf)
		pos += lengthPrefixSize

		if length == 0 {
			consecMarks++
			if len(res.blocksByFile[fileNum]) > 0 {
				flushFile()
			}
			if consecMarks == 2 {
				return res, nil
			}
			continue
		}

		consecMarks = 0
		if pos+int64(length) > size {
			return nil, imagevault.NewError(imagevault.KindCorruptImage,
				"block at offset %d declares length %d, exceeding tape size %d", pos-lengthPrefixSize, length, size)
		}
		res.blocksByFile[fileNum] = append(res.blocksByFile[fileNum], blockRecord{offset: pos, length: length})
		pos += int64(length)
	}

	flushFile()
	return res, nil
}
