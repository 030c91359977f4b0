package filter

import (
	"encoding/binary"
	"testing"
	"time"
)

// buildAppleSingle assembles a minimal AppleSingle artifact with a
// data fork and a MacFileInfo (id 10) entry carrying the given
// modification timestamp (Mac-epoch seconds).
func buildAppleSingle(t *testing.T, dataFork []byte, modifySeconds uint32) []byte {
	t.Helper()

	const entryCount = 2
	header := make([]byte, appleSingleHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], appleSingleMagic)
	binary.BigEndian.PutUint32(header[4:8], appleSingleVersion2)
	copy(header[8:24], []byte("Macintosh       "))
	binary.BigEndian.PutUint16(header[24:26], entryCount)

	entryTable := make([]byte, entryCount*appleSingleEntrySize)
	fileInfo := make([]byte, 8)
	binary.BigEndian.PutUint32(fileInfo[0:4], 0) // creation, unused here
	binary.BigEndian.PutUint32(fileInfo[4:8], modifySeconds)

	dataOffset := appleSingleHeaderSize + len(entryTable)
	infoOffset := dataOffset + len(dataFork)

	binary.BigEndian.PutUint32(entryTable[0:4], entryDataFork)
	binary.BigEndian.PutUint32(entryTable[4:8], uint32(dataOffset))
	binary.BigEndian.PutUint32(entryTable[8:12], uint32(len(dataFork)))

	binary.BigEndian.PutUint32(entryTable[12:16], entryMacFileInfo)
	binary.BigEndian.PutUint32(entryTable[16:20], uint32(infoOffset))
	binary.BigEndian.PutUint32(entryTable[20:24], uint32(len(fileInfo)))

	out := append([]byte{}, header...)
	out = append(out, entryTable...)
	out = append(out, dataFork...)
	out = append(out, fileInfo...)
	return out
}

func TestAppleSingleIdentifyAndOpen(t *testing.T) {
	data := buildAppleSingle(t, []byte("hello world"), 0x858A6080-0) // 1974-12-30 relative to Mac epoch

	if !IdentifyAppleSingle(data) {
		t.Fatalf("expected IdentifyAppleSingle to match constructed blob")
	}

	f, err := OpenAppleSingleBytes("test.as", data)
	if err != nil {
		t.Fatalf("OpenAppleSingleBytes: %v", err)
	}
	defer f.Close()

	buf := make([]byte, f.Length())
	if _, err := f.DataFork().ReadAt(buf, 0); err != nil {
		t.Fatalf("read data fork: %v", err)
	}
	if string(buf) != "hello world" {
		t.Fatalf("got data fork %q", buf)
	}

	want := time.Date(1974, time.December, 30, 0, 0, 0, 0, time.UTC)
	if !f.LastWriteTime().Equal(want) {
		t.Fatalf("got last_write_time %v want %v", f.LastWriteTime(), want)
	}

	if _, ok := f.ResourceFork(); ok {
		t.Fatalf("expected no resource fork")
	}
}

func TestIdentifyAppleSingleRejectsGarbage(t *testing.T) {
	if IdentifyAppleSingle([]byte("not an apple single file at all")) {
		t.Fatalf("garbage should not be identified as AppleSingle")
	}
}
