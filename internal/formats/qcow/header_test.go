package qcow

import (
	"encoding/binary"
	"testing"

	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/deploymenttheory/go-imagevault/internal/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeHeader(t *testing.T, h header) []byte {
	t.Helper()
	buf, err := primitives.EncodeFixedLayout(binary.BigEndian, &h)
	require.NoError(t, err)
	return buf
}

func baseHeader() header {
	return header{
		Magic:         qcowMagic,
		Version:       1,
		Size:          1 << 20,
		ClusterBits:   12,
		L2Bits:        9,
		CryptMethod:   0,
		L1TableOffset: 0x40,
	}
}

func TestParseHeaderValid(t *testing.T) {
	h, err := parseHeader(encodeHeader(t, baseHeader()))
	require.NoError(t, err)
	assert.Equal(t, uint8(12), h.ClusterBits)
	assert.Equal(t, uint8(9), h.L2Bits)
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	h := baseHeader()
	h.Magic = 0xDEADBEEF
	_, err := parseHeader(encodeHeader(t, h))
	require.Error(t, err)
	var ive *imagevault.Error
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, imagevault.KindNotIdentified, ive.Kind)
}

func TestParseHeaderRejectsClusterBitsOutOfRange(t *testing.T) {
	h := baseHeader()
	h.ClusterBits = 8
	_, err := parseHeader(encodeHeader(t, h))
	require.Error(t, err)
}

func TestParseHeaderRejectsL2BitsOutOfRange(t *testing.T) {
	h := baseHeader()
	h.L2Bits = 14
	_, err := parseHeader(encodeHeader(t, h))
	require.Error(t, err)
}

func TestParseHeaderRejectsCryptMethod(t *testing.T) {
	h := baseHeader()
	h.CryptMethod = 1
	_, err := parseHeader(encodeHeader(t, h))
	require.Error(t, err)
	var ive *imagevault.Error
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, imagevault.KindFeatureNotImplemented, ive.Kind)
}

func TestParseHeaderRejectsBackingFile(t *testing.T) {
	h := baseHeader()
	h.BackingFileOffset = 1024
	_, err := parseHeader(encodeHeader(t, h))
	require.Error(t, err)
}

func TestGeometryDerivation(t *testing.T) {
	h, err := parseHeader(encodeHeader(t, baseHeader()))
	require.NoError(t, err)
	g := newGeometry(h)

	assert.Equal(t, uint64(4096), g.clusterSize)
	assert.Equal(t, uint64(8), g.clusterSectors)
	assert.Equal(t, uint64(512), g.l2Size)
	// shift = 12+9 = 21; l1_size = ceil(size / 2^21)
	assert.Equal(t, uint64(1), g.l1Size)
}
