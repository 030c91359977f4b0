package qcow

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

const headerSize = 48

// Image is the QCOW v1 container plugin: a flat, byte-addressable
// block image backed by a sparse, optionally-compressed cluster store.
type Image struct {
	info imagevault.ImageInfo

	// CacheSizeBytes bounds each of the L2/cluster/sector caches'
	// memory footprint; zero means use the built-in default. Set this
	// on the prototype registered with the registry to have it
	// propagate to every image New opens.
	CacheSizeBytes int64

	g       geometry
	tables  *tableSet
	sectors int64

	dataFork filter.Seekable
	dataFile io.Closer
}

// Name implements imagevault.Plugin.
func (*Image) Name() string { return "qcow" }

// New implements imagevault.Plugin.
func (img *Image) New() imagevault.BaseImage { return &Image{CacheSizeBytes: img.CacheSizeBytes} }

// Identify implements imagevault.Plugin/BaseImage: a cheap magic check.
func (*Image) Identify(f filter.Filter) bool {
	buf := make([]byte, 4)
	if _, err := f.DataFork().ReadAt(buf, 0); err != nil {
		return false
	}
	return binary.BigEndian.Uint32(buf) == qcowMagic
}

// Open implements imagevault.BaseImage.
func (img *Image) Open(f filter.Filter) error {
	raw := make([]byte, headerSize)
	if _, err := f.DataFork().ReadAt(raw, 0); err != nil && err != io.EOF {
		return imagevault.WrapError(imagevault.KindIOError, err, "failed to read QCOW header from %q", f.BasePath())
	}

	h, err := parseHeader(raw)
	if err != nil {
		return err
	}
	g := newGeometry(h)

	if img.dataFile != nil {
		img.dataFile.Close()
	}
	img.dataFork = f.DataFork()
	img.dataFile = f

	l1, err := loadL1(img.dataFork, g)
	if err != nil {
		return err
	}

	cacheSize := img.CacheSizeBytes
	if cacheSize <= 0 {
		cacheSize = maxCacheSize
	}

	img.g = g
	img.tables = newTableSet(l1, g, cacheSize)
	img.sectors = int64(h.Size / sectorSize)

	cylinders, heads, spt := g.chs()
	img.info = imagevault.ImageInfo{
		Sectors:         uint64(img.sectors),
		SectorSize:      sectorSize,
		MediaType:       imagevault.MediaTypeGenericHDD,
		XMLMediaCategory: imagevault.XMLMediaCategoryBlock,
		Application:     "go-imagevault",
		Cylinders:       cylinders,
		Heads:           heads,
		SectorsPerTrack: spt,
	}

	fmt.Printf("[qcow] opened %q: %d sectors, cluster_bits=%d, l2_bits=%d\n",
		f.BasePath(), img.sectors, h.ClusterBits, h.L2Bits)
	return nil
}

// Info implements imagevault.BaseImage.
func (img *Image) Info() *imagevault.ImageInfo { return &img.info }

// ReadSector implements imagevault.ByteAddressableImage, following
// the L1->L2->cluster resolution chain with cache lookups at each
// level.
func (img *Image) ReadSector(s int64) ([]byte, error) {
	if s < 0 || s >= img.sectors {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "sector %d out of range [0,%d)", s, img.sectors)
	}
	if cached, ok := img.tables.sectorCache.Get(s); ok {
		return cached, nil
	}

	byteAddr := uint64(s) * sectorSize
	l1Off := (byteAddr & img.g.l1Mask) >> img.g.shift
	if l1Off >= uint64(len(img.tables.l1)) {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "l1 offset %d exceeds table of %d entries", l1Off, len(img.tables.l1))
	}
	if img.tables.l1[l1Off] == 0 {
		return make([]byte, sectorSize), nil
	}

	l2, err := img.tables.loadL2(img.dataFork, img.g, l1Off)
	if err != nil {
		return nil, err
	}

	l2Off := (byteAddr & img.g.l2Mask) >> img.g.clusterBits
	entry := l2[l2Off]
	if entry == 0 {
		return make([]byte, sectorSize), nil
	}

	cluster, err := img.tables.loadCluster(img.dataFork, img.g, entry)
	if err != nil {
		return nil, err
	}

	within := byteAddr & img.g.sectorMask
	sector := make([]byte, sectorSize)
	copy(sector, cluster[within:within+sectorSize])

	img.tables.sectorCache.Add(s, sector)
	return sector, nil
}

// ReadSectors implements imagevault.ByteAddressableImage by
// concatenating per-sector reads; the cluster cache absorbs repeat
// access within one cluster so this never re-decompresses.
func (img *Image) ReadSectors(s, n int64) ([]byte, error) {
	out := make([]byte, 0, n*sectorSize)
	for i := int64(0); i < n; i++ {
		sector, err := img.ReadSector(s + i)
		if err != nil {
			return nil, err
		}
		out = append(out, sector...)
	}
	return out, nil
}

// ReadDiskTag implements imagevault.BaseImage. QCOW carries no
// disc-wide metadata blob analogous to a CD's TOC/CD-Text/ATIP.
func (img *Image) ReadDiskTag(tag imagevault.MediaTagType) ([]byte, error) {
	return nil, imagevault.NewError(imagevault.KindFeatureNotPresent, "QCOW images carry no disk tags")
}

// VerifySector implements imagevault.BaseImage. QCOW carries no
// per-sector checksum of its own.
func (img *Image) VerifySector(lba int64) (imagevault.VerifyResult, error) {
	if lba < 0 || lba >= img.sectors {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "sector %d out of range [0,%d)", lba, img.sectors)
	}
	return nil, nil
}

// VerifySectors implements imagevault.BaseImage.
func (img *Image) VerifySectors(lba, n int64) (imagevault.VerifyResult, []int64, []int64, error) {
	if lba < 0 || lba+n > img.sectors {
		return nil, nil, nil, imagevault.NewError(imagevault.KindOutOfBounds, "range [%d,%d) out of range [0,%d)", lba, lba+n, img.sectors)
	}
	unknown := make([]int64, n)
	for i := range unknown {
		unknown[i] = lba + int64(i)
	}
	return nil, nil, unknown, nil
}

// Close implements imagevault.BaseImage.
func (img *Image) Close() error {
	if img.dataFile == nil {
		return nil
	}
	return img.dataFile.Close()
}

var _ imagevault.ByteAddressableImage = (*Image)(nil)
var _ imagevault.Plugin = (*Image)(nil)
