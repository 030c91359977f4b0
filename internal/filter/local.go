package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalFilter is the os.File-backed Filter opened for a plain path on
// disk: no container unwrapping, data fork only.
type LocalFilter struct {
	file *os.File
	path string
	size int64
	mod  time.Time

	diagID string // short uuid tag used only in log lines
}

// OpenLocal opens path as a plain Filter with no resource fork.
func OpenLocal(path string) (*LocalFilter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filter: failed to open %q: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filter: failed to stat %q: %w", path, err)
	}

	lf := &LocalFilter{
		file:   f,
		path:   path,
		size:   stat.Size(),
		mod:    stat.ModTime(),
		diagID: uuid.NewString()[:8],
	}
	fmt.Printf("[filter:%s] opened %q (%d bytes)\n", lf.diagID, path, lf.size)
	return lf, nil
}

func (l *LocalFilter) BasePath() string     { return l.path }
func (l *LocalFilter) Filename() string     { return filepath.Base(l.path) }
func (l *LocalFilter) ParentFolder() string { return filepath.Dir(l.path) }
func (l *LocalFilter) DataFork() Seekable   { return l.file }

func (l *LocalFilter) ResourceFork() (Seekable, bool) { return nil, false }

func (l *LocalFilter) Length() int64 { return l.size }

func (l *LocalFilter) CreationTime() time.Time { return l.mod }
func (l *LocalFilter) LastWriteTime() time.Time { return l.mod }

func (l *LocalFilter) Close() error {
	fmt.Printf("[filter:%s] closed %q\n", l.diagID, l.path)
	return l.file.Close()
}

// SiblingPath builds the path of a file sharing this filter's stem
// but with a different extension, e.g. SiblingPath(".sub") for a
// CloneCD image opened from its .ccd descriptor.
func (l *LocalFilter) SiblingPath(ext string) string {
	dir := filepath.Dir(l.path)
	base := filepath.Base(l.path)
	stem := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, stem+ext)
}
