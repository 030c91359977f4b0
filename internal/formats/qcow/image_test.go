package qcow

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQcowFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.qcow")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// buildSparseImage builds a QCOW v1 file whose L1 table is entirely
// zero (per S2): the header plus an all-zero L1 table, nothing else.
func buildSparseImage(t *testing.T) string {
	t.Helper()
	h := baseHeader()
	buf := encodeHeader(t, h)
	buf = append(buf, make([]byte, int(h.L1TableOffset)-len(buf))...)
	buf = append(buf, make([]byte, 8)...) // single all-zero L1 entry
	return writeQcowFile(t, buf)
}

// buildCompressedImage builds a QCOW v1 file (per S3) with one
// compressed cluster reachable via L1[0]->L2[0], holding 4096 bytes
// of 0xA5 compressed with raw deflate.
func buildCompressedImage(t *testing.T) string {
	t.Helper()
	const (
		l2Offset      = 4096
		payloadOffset = 8192
		clusterSize   = 4096
		clusterBits   = 12
	)

	var payload bytes.Buffer
	w, err := flate.NewWriter(&payload, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte{0xA5}, clusterSize))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	compSize := uint64(payload.Len())
	compMask := uint64(clusterSize-1) << (63 - clusterBits)
	entry := compressedFlag | ((compSize - 1) << (63 - clusterBits) & compMask) | uint64(payloadOffset)

	h := baseHeader()
	buf := encodeHeader(t, h)
	buf = append(buf, make([]byte, int(h.L1TableOffset)-len(buf))...)

	l1 := make([]byte, 8)
	binary.BigEndian.PutUint64(l1, uint64(l2Offset))
	buf = append(buf, l1...)

	buf = append(buf, make([]byte, l2Offset-len(buf))...)
	l2 := make([]byte, 512*8)
	binary.BigEndian.PutUint64(l2[0:8], entry)
	buf = append(buf, l2...)

	buf = append(buf, make([]byte, payloadOffset-len(buf))...)
	buf = append(buf, payload.Bytes()...)

	return writeQcowFile(t, buf)
}

func openQcow(t *testing.T, path string) *Image {
	t.Helper()
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	img := &Image{}
	require.NoError(t, img.Open(f))
	t.Cleanup(func() { img.Close() })
	return img
}

func TestQcowIdentify(t *testing.T) {
	path := buildSparseImage(t)
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, (&Image{}).Identify(f))
}

func TestQcowSparseReadsAllZero(t *testing.T) {
	img := openQcow(t, buildSparseImage(t))

	for _, s := range []int64{0, 1, 2047} {
		data, err := img.ReadSector(s)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, 512), data)
	}

	all, err := img.ReadSectors(0, 2048)
	require.NoError(t, err)
	assert.Len(t, all, 1048576)
}

func TestQcowSparseOutOfBounds(t *testing.T) {
	img := openQcow(t, buildSparseImage(t))
	_, err := img.ReadSector(2048)
	require.Error(t, err)
	var ive *imagevault.Error
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, imagevault.KindOutOfBounds, ive.Kind)
}

func TestQcowCompressedCluster(t *testing.T) {
	img := openQcow(t, buildCompressedImage(t))

	want := bytes.Repeat([]byte{0xA5}, 512)
	data, err := img.ReadSector(0)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	data, err = img.ReadSector(7)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	data, err = img.ReadSector(8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 512), data)
}

func TestQcowClusterCacheTransparency(t *testing.T) {
	img := openQcow(t, buildCompressedImage(t))

	first, err := img.ReadSector(3)
	require.NoError(t, err)
	second, err := img.ReadSector(3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
