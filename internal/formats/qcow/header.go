// Package qcow implements the QCOW v1 sparse block image container:
// a big-endian fixed header, a two-level L1/L2 cluster indirection
// table, and optional per-cluster zlib (raw deflate) compression.
package qcow

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/deploymenttheory/go-imagevault/internal/primitives"
)

const (
	qcowMagic   = 0x514649FB
	qcowVersion = 1

	minClusterBits = 9
	maxClusterBits = 16
	minL2Bits      = 6
	maxL2Bits      = 13

	sectorSize = 512
)

// header is the 48-byte on-disk QCOW v1 header, big-endian, no
// trailing padding beyond the explicit 2-byte pad field.
type header struct {
	Magic              uint32
	Version            uint32
	BackingFileOffset  uint64
	BackingFileSize    uint32
	Mtime              uint32
	Size               uint64
	ClusterBits        uint8
	L2Bits             uint8
	Padding            uint16
	CryptMethod        uint32
	L1TableOffset      uint64
}

func parseHeader(data []byte) (*header, error) {
	var h header
	if err := primitives.DecodeFixedLayout(binary.BigEndian, data, &h); err != nil {
		return nil, imagevault.WrapError(imagevault.KindCorruptImage, err, "failed to decode QCOW header")
	}
	if h.Magic != qcowMagic {
		return nil, imagevault.NewError(imagevault.KindNotIdentified, "bad QCOW magic 0x%08x", h.Magic)
	}
	if h.Version != qcowVersion {
		return nil, imagevault.NewError(imagevault.KindFeatureNotImplemented, "unsupported QCOW version %d (only v1)", h.Version)
	}
	if h.ClusterBits < minClusterBits || h.ClusterBits > maxClusterBits {
		return nil, imagevault.NewError(imagevault.KindCorruptImage, "cluster_bits %d out of range [%d,%d]", h.ClusterBits, minClusterBits, maxClusterBits)
	}
	if h.L2Bits < minL2Bits || h.L2Bits > maxL2Bits {
		return nil, imagevault.NewError(imagevault.KindCorruptImage, "l2_bits %d out of range [%d,%d]", h.L2Bits, minL2Bits, maxL2Bits)
	}
	if h.CryptMethod != 0 {
		return nil, imagevault.NewError(imagevault.KindFeatureNotImplemented, "QCOW AES encryption (crypt_method=%d) is not implemented", h.CryptMethod)
	}
	if h.BackingFileOffset != 0 {
		return nil, imagevault.NewError(imagevault.KindFeatureNotImplemented, "QCOW differencing images (backing_file_offset != 0) are not implemented")
	}

	shift := uint(h.ClusterBits) + uint(h.L2Bits)
	if shift < 63 && h.Size > (^uint64(0))-(uint64(1)<<shift) {
		return nil, imagevault.NewError(imagevault.KindCorruptImage, "size %d overflows with cluster/L2 shift %d", h.Size, shift)
	}

	return &h, nil
}

// geometry derives the layout constants the read path works from; it
// is computed once at open and held alongside the header.
type geometry struct {
	clusterBits uint
	l2Bits      uint
	shift       uint

	clusterSize    uint64
	clusterSectors uint64
	l1Size         uint64
	l2Size         uint64

	l1Mask uint64
	l2Mask uint64
	sectorMask uint64

	l1TableOffset uint64
	size          uint64
}

func newGeometry(h *header) geometry {
	g := geometry{
		clusterBits:   uint(h.ClusterBits),
		l2Bits:        uint(h.L2Bits),
		l1TableOffset: h.L1TableOffset,
		size:          h.Size,
	}
	g.shift = g.clusterBits + g.l2Bits
	g.clusterSize = uint64(1) << g.clusterBits
	g.clusterSectors = g.clusterSize / sectorSize
	g.l1Size = (h.Size + (uint64(1) << g.shift) - 1) >> g.shift
	g.l2Size = uint64(1) << g.l2Bits

	g.l1Mask = ^uint64(0) << g.shift
	g.l2Mask = (g.l2Size - 1) << g.clusterBits
	g.sectorMask = g.clusterSize - 1
	return g
}

// cylinders/heads/spt is the synthesized CHS geometry every opened
// image reports, per the fixed 16-head/63-sector-per-track convention.
func (g geometry) chs() (cylinders, heads, spt uint32) {
	sectors := g.size / sectorSize
	return uint32(sectors / 16 / 63), 16, 63
}
