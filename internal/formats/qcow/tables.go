package qcow

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

const compressedFlag = uint64(1) << 63

// tableSet holds the L1 table (loaded once, in full, at open) and the
// bounded L2/cluster/sector caches the read path consults before
// touching the backing filter again.
type tableSet struct {
	l1 []uint64

	l2Cache      *evictAllCache[uint64, []uint64]
	clusterCache *evictAllCache[uint64, []byte]
	sectorCache  *evictAllCache[int64, []byte]
}

func loadL1(data filter.Seekable, g geometry) ([]uint64, error) {
	raw := make([]byte, g.l1Size*8)
	if _, err := data.ReadAt(raw, int64(g.l1TableOffset)); err != nil && err != io.EOF {
		return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read L1 table (%d entries at offset %d)", g.l1Size, g.l1TableOffset)
	}
	l1 := make([]uint64, g.l1Size)
	for i := range l1 {
		l1[i] = binary.BigEndian.Uint64(raw[i*8 : i*8+8])
	}
	return l1, nil
}

func newTableSet(l1 []uint64, g geometry, maxCacheBytes int64) *tableSet {
	return &tableSet{
		l1:           l1,
		l2Cache:      newBoundedCache[uint64, []uint64](maxCacheBytes, g.l2Size*8),
		clusterCache: newBoundedCache[uint64, []byte](maxCacheBytes, g.clusterSize),
		sectorCache:  newBoundedCache[int64, []byte](maxCacheBytes, sectorSize),
	}
}

// loadL2 returns the L2 table for l1Off, serving it from cache when
// present.
func (ts *tableSet) loadL2(data filter.Seekable, g geometry, l1Off uint64) ([]uint64, error) {
	if cached, ok := ts.l2Cache.Get(l1Off); ok {
		return cached, nil
	}
	offset := ts.l1[l1Off]
	raw := make([]byte, g.l2Size*8)
	if _, err := data.ReadAt(raw, int64(offset)); err != nil && err != io.EOF {
		return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read L2 table at offset %d", offset)
	}
	l2 := make([]uint64, g.l2Size)
	for i := range l2 {
		l2[i] = binary.BigEndian.Uint64(raw[i*8 : i*8+8])
	}
	ts.l2Cache.Add(l1Off, l2)
	return l2, nil
}

// loadCluster resolves an L2 entry to its cluster_size-byte cluster,
// transparently decompressing the zlib-compressed branch, serving
// from cache when present.
func (ts *tableSet) loadCluster(data filter.Seekable, g geometry, entry uint64) ([]byte, error) {
	if cached, ok := ts.clusterCache.Get(entry); ok {
		return cached, nil
	}

	var cluster []byte
	if entry&compressedFlag != 0 {
		compMask := (g.clusterSize - 1) << (63 - g.clusterBits)
		compSize := ((entry & compMask) >> (63 - g.clusterBits)) + 1
		realOff := entry &^ compMask &^ compressedFlag

		compressed := make([]byte, compSize)
		if _, err := data.ReadAt(compressed, int64(realOff)); err != nil && err != io.EOF {
			return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read compressed cluster at offset %d", realOff)
		}

		r := flate.NewReader(bytes.NewReader(compressed))
		defer r.Close()
		decompressed, err := io.ReadAll(io.LimitReader(r, int64(g.clusterSize)+1))
		if err != nil {
			return nil, imagevault.WrapError(imagevault.KindCorruptImage, err, "failed to inflate compressed cluster at offset %d", realOff)
		}
		if uint64(len(decompressed)) != g.clusterSize {
			return nil, imagevault.NewError(imagevault.KindCorruptImage,
				"compressed cluster at offset %d inflated to %d bytes, want %d", realOff, len(decompressed), g.clusterSize)
		}
		cluster = decompressed
	} else {
		realOff := entry &^ compressedFlag
		cluster = make([]byte, g.clusterSize)
		if _, err := data.ReadAt(cluster, int64(realOff)); err != nil && err != io.EOF {
			return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read raw cluster at offset %d", realOff)
		}
	}

	ts.clusterCache.Add(entry, cluster)
	return cluster, nil
}
