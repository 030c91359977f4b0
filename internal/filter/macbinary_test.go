package filter

import (
	"encoding/binary"
	"testing"
)

func buildMacBinary(t *testing.T, name string, dataFork, rsrcFork []byte) []byte {
	t.Helper()
	header := make([]byte, macBinaryHeaderSize)
	header[0] = 0
	header[macBinaryNameLenOff] = byte(len(name))
	copy(header[2:2+len(name)], name)
	header[74] = 0
	binary.BigEndian.PutUint32(header[macBinaryDataLenOff:macBinaryDataLenOff+4], uint32(len(dataFork)))
	binary.BigEndian.PutUint32(header[macBinaryRsrcLenOff:macBinaryRsrcLenOff+4], uint32(len(rsrcFork)))
	binary.BigEndian.PutUint32(header[macBinaryCreateOff:macBinaryCreateOff+4], 0x858A6080)
	binary.BigEndian.PutUint32(header[macBinaryModifyOff:macBinaryModifyOff+4], 0x858A6080)

	out := append([]byte{}, header...)
	out = append(out, dataFork...)
	out = append(out, make([]byte, padTo128(len(dataFork))-len(dataFork))...)
	out = append(out, rsrcFork...)
	return out
}

func TestMacBinaryIdentifyAndOpen(t *testing.T) {
	data := buildMacBinary(t, "Test", []byte("payload data"), []byte("ICON"))
	if !IdentifyMacBinary(data) {
		t.Fatalf("expected IdentifyMacBinary to match constructed blob")
	}

	f, err := OpenMacBinaryBytes("test.bin", data)
	if err != nil {
		t.Fatalf("OpenMacBinaryBytes: %v", err)
	}
	defer f.Close()

	buf := make([]byte, f.Length())
	if _, err := f.DataFork().ReadAt(buf, 0); err != nil {
		t.Fatalf("read data fork: %v", err)
	}
	if string(buf) != "payload data" {
		t.Fatalf("got data fork %q", buf)
	}

	rsrc, ok := f.ResourceFork()
	if !ok {
		t.Fatalf("expected a resource fork")
	}
	rbuf := make([]byte, 4)
	if _, err := rsrc.ReadAt(rbuf, 0); err != nil {
		t.Fatalf("read resource fork: %v", err)
	}
	if string(rbuf) != "ICON" {
		t.Fatalf("got resource fork %q", rbuf)
	}
}

func TestIdentifyMacBinaryRejectsGarbage(t *testing.T) {
	if IdentifyMacBinary([]byte("not a macbinary file")) {
		t.Fatalf("garbage should not be identified as MacBinary")
	}
}
