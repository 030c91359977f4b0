package raw

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(data []byte) []byte {
	var buf bytes.Buffer
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	buf.Write(lenPrefix[:])
	buf.Write(data)
	return buf.Bytes()
}

func tapeMark() []byte {
	return []byte{0, 0, 0, 0}
}

func writeTape(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tape.raw")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// buildTwoFileTape builds: file 1 = {"aaa","bb"}, mark, file 2 = {"cccc"}, mark, mark (EOM).
func buildTwoFileTape() []byte {
	var buf bytes.Buffer
	buf.Write(block([]byte("aaa")))
	buf.Write(block([]byte("bb")))
	buf.Write(tapeMark())
	buf.Write(block([]byte("cccc")))
	buf.Write(tapeMark())
	buf.Write(tapeMark())
	return buf.Bytes()
}

func TestRawTapeIdentify(t *testing.T) {
	path := writeTape(t, buildTwoFileTape())
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, (&Image{}).Identify(f))
}

func TestRawTapeOpenAndFiles(t *testing.T) {
	path := writeTape(t, buildTwoFileTape())
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()

	img := &Image{}
	require.NoError(t, img.Open(f))
	defer img.Close()

	files := img.Files()
	require.Len(t, files, 2)
	assert.Equal(t, 1, files[0].FileNumber)
	assert.Equal(t, int64(0), files[0].FirstBlock)
	assert.Equal(t, int64(1), files[0].LastBlock)
	assert.Equal(t, 2, files[1].FileNumber)
	assert.Equal(t, int64(0), files[1].LastBlock)
}

func TestRawTapeReadBlock(t *testing.T) {
	path := writeTape(t, buildTwoFileTape())
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()

	img := &Image{}
	require.NoError(t, img.Open(f))
	defer img.Close()

	data, err := img.ReadBlock(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(data))

	data, err = img.ReadBlock(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))

	data, err = img.ReadBlock(2, 0)
	require.NoError(t, err)
	assert.Equal(t, "cccc", string(data))
}

func TestRawTapeReadBlockOutOfBounds(t *testing.T) {
	path := writeTape(t, buildTwoFileTape())
	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()

	img := &Image{}
	require.NoError(t, img.Open(f))
	defer img.Close()

	_, err = img.ReadBlock(1, 99)
	require.Error(t, err)
	_, err = img.ReadBlock(99, 0)
	require.Error(t, err)
}

func TestRawTapeTrailingFileWithoutEndOfMedium(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(block([]byte("x")))
	path := writeTape(t, buf.Bytes())

	f, err := filter.OpenLocal(path)
	require.NoError(t, err)
	defer f.Close()

	img := &Image{}
	require.NoError(t, img.Open(f))
	defer img.Close()

	require.Len(t, img.Files(), 1)
	data, err := img.ReadBlock(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
