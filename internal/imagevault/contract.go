package imagevault

import "github.com/deploymenttheory/go-imagevault/internal/filter"

// VerifyResult is three-valued logic for a sector/range verification:
// nil means "unknown" (no checksum material to check against).
type VerifyResult = *bool

// VerifyTrue and VerifyFalse build the two known VerifyResult values;
// plugins return a bare nil for "unknown".
func VerifyTrue() VerifyResult  { v := true; return &v }
func VerifyFalse() VerifyResult { v := false; return &v }

// BaseImage is the capability every container plugin exposes,
// regardless of whether it is optical, tape, or byte-addressable.
type BaseImage interface {
	// Identify performs a cheap, side-effect-free sniff of filter
	// content and position.
	Identify(f filter.Filter) bool

	// Open performs the full parse, populating Info/tracks/etc.
	// Calling Open twice against the same filter must yield
	// identical observable state (idempotent open, §8.9).
	Open(f filter.Filter) error

	// Info returns the populated ImageInfo. Valid only after Open.
	Info() *ImageInfo

	// ReadDiskTag returns a disc-wide metadata blob (full TOC,
	// CD-Text, ATIP, ...).
	ReadDiskTag(tag MediaTagType) ([]byte, error)

	// VerifySector reports whether the sector at lba passes whatever
	// checksum the format carries, or nil if unknown.
	VerifySector(lba int64) (VerifyResult, error)

	// VerifySectors reports the aggregate verification result over
	// [lba, lba+n), plus the LBAs that failed and the LBAs for which
	// verification is unknown.
	VerifySectors(lba, n int64) (VerifyResult, []int64, []int64, error)

	// Close releases the backing Filter(s).
	Close() error
}

// OpticalImage is the capability surface for track/session/partition
// based images (CloneCD and siblings).
type OpticalImage interface {
	BaseImage

	Tracks() []Track
	Sessions() []Session
	Partitions() []Partition

	// ReadSector returns effective-size bytes for lba, resolving
	// which track it falls in.
	ReadSector(lba int64) ([]byte, error)

	// ReadSectorInTrack is ReadSector scoped to a specific track;
	// OutOfBounds if lba falls outside that track.
	ReadSectorInTrack(lba int64, track int) ([]byte, error)

	ReadSectors(lba, n int64) ([]byte, error)
	ReadSectorsInTrack(lba, n int64, track int) ([]byte, error)

	// ReadSectorLong returns the raw 2352-byte record.
	ReadSectorLong(lba int64, track int) ([]byte, error)

	// ReadSectorTag slices out a named subregion of the raw record
	// (or, for SectorTagSubchannel, the subchannel fork).
	ReadSectorTag(lba int64, track int, tag SectorTagType) ([]byte, error)
}

// ByteAddressableImage is the capability surface for flat block
// images with no track concept (QCOW and siblings).
type ByteAddressableImage interface {
	BaseImage

	ReadSector(lba int64) ([]byte, error)
	ReadSectors(lba, n int64) ([]byte, error)
}

// Plugin is what the registry holds and probes: every container
// format plugin is at minimum a BaseImage factory.
type Plugin interface {
	// Name is the plugin's short identifier, e.g. "clonecd", "qcow".
	Name() string

	// Identify is a cheap, side-effect-free sniff, identical in
	// contract to BaseImage.Identify but callable before Open.
	Identify(f filter.Filter) bool

	// New returns a fresh, unopened instance implementing at least
	// BaseImage (callers type-assert to OpticalImage/ByteAddressableImage
	// as appropriate for the plugin).
	New() BaseImage
}
