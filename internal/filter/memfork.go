package filter

import (
	"fmt"
	"io"
)

// memFork is the Seekable implementation backing in-memory forks
// extracted from a containerized filter (AppleSingle, MacBinary).
type memFork struct {
	data []byte
	pos  int64
}

func newMemFork(data []byte) *memFork {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &memFork{data: cp}
}

func (m *memFork) Len() int64 { return int64(len(m.data)) }

func (m *memFork) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("filter: negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (m *memFork) Read(p []byte) (int, error) {
	n, err := m.ReadAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *memFork) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("filter: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("filter: negative seek result %d", newPos)
	}
	m.pos = newPos
	return newPos, nil
}
