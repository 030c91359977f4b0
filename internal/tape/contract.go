// Package tape holds the tape-image contract: a shape distinct from
// the optical/byte-addressable image hierarchy, since a tape has no
// fixed sector size and groups its blocks into sequentially-traversed
// files rather than overlapping tracks.
package tape

import "github.com/deploymenttheory/go-imagevault/internal/filter"

// File is one ordered file on a tape: the span of block indices
// (file-local, zero-based) between the tape marks that bound it.
type File struct {
	FileNumber int
	FirstBlock int64
	LastBlock  int64
}

// Image is the capability surface a tape container plugin exposes.
// Unlike BaseImage, it has no Info/VerifySector/ReadDiskTag: a tape
// carries no fixed sector size or disc-wide metadata blob, so those
// concepts don't apply.
type Image interface {
	// Identify performs a cheap, side-effect-free sniff.
	Identify(f filter.Filter) bool

	// Open parses the tape's file/block structure.
	Open(f filter.Filter) error

	// Files returns the ordered file list discovered at Open.
	Files() []File

	// ReadBlock returns one block's data, addressed by file number and
	// a block index local to that file.
	ReadBlock(file int, block int64) ([]byte, error)

	// Close releases the backing Filter.
	Close() error
}
