// Package filter implements the input byte-source abstraction every
// image plugin consumes: a seekable data fork, an optional resource
// fork, and the metadata (name, size, timestamps) the registry and
// format plugins need before they ever look at file content.
package filter

import (
	"io"
	"time"
)

// Seekable is the random-access surface a fork exposes. os.File and
// bytes.Reader both satisfy it; OffsetStream adapts any Seekable into
// a windowed sub-view of another one.
type Seekable interface {
	io.ReaderAt
	io.ReadSeeker
}

// Filter is an opened artifact: a logical display name, a primary
// data fork, an optional resource fork, and size/timestamp metadata.
// A Filter is immutable after Open; Close releases the backing
// resources. Every higher layer (the registry, every image plugin)
// consumes only this interface, never an *os.File directly.
type Filter interface {
	// BasePath is the artifact's display name (e.g. the path it was
	// opened from, or a synthetic name for an in-memory blob).
	BasePath() string

	// Filename is BasePath's last path element.
	Filename() string

	// ParentFolder is BasePath's directory ("." when BasePath has no
	// directory part).
	ParentFolder() string

	// DataFork returns the primary seekable byte sequence.
	DataFork() Seekable

	// ResourceFork returns the secondary fork, if the container
	// format carries one (AppleSingle, MacBinary). ok is false for
	// filters with no resource fork.
	ResourceFork() (fork Seekable, ok bool)

	// Length is the data fork's length in bytes.
	Length() int64

	// CreationTime and LastWriteTime report the artifact's recorded
	// timestamps; filters that cannot determine one of these return
	// the zero time.Time.
	CreationTime() time.Time
	LastWriteTime() time.Time

	// Close releases any resources (open file descriptors) the
	// filter owns.
	Close() error
}

// Identifier is the probe shape of a filter kind that can be sniffed
// before a full open, mirroring the Plugin.Identify contract at the
// format layer. No type in this package implements it: the container
// filters expose the same check as the package-level functions
// IdentifyAppleSingle and IdentifyMacBinary, which OpenAuto calls
// directly rather than through a registry.
type Identifier interface {
	// Identify reports whether data (the artifact's leading bytes)
	// matches this filter kind. It must not mutate data or any
	// shared state.
	Identify(data []byte) bool
}
