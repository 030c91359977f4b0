package raw

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/deploymenttheory/go-imagevault/internal/tape"
)

// Image implements tape.Image for the raw sequential tape format.
type Image struct {
	dataFork filter.Seekable
	dataFile filter.Filter
	result   *scanResult
	files    []tape.File
}

// Identify scans the whole tape structure and reports true only if
// the scan succeeds and finds at least one file. A tape holding only
// tape marks (an empty tape) is not identified.
func (*Image) Identify(f filter.Filter) bool {
	size := f.Length()
	if size < lengthPrefixSize {
		return false
	}
	res, err := scan(f.DataFork(), size)
	if err != nil {
		return false
	}
	return len(res.fileOrder) > 0
}

// Open parses the full file/block structure.
func (img *Image) Open(f filter.Filter) error {
	size := f.Length()
	res, err := scan(f.DataFork(), size)
	if err != nil {
		return err
	}
	if len(res.fileOrder) == 0 {
		return imagevault.NewError(imagevault.KindCorruptImage, "tape %q contains no files", f.BasePath())
	}

	img.dataFork = f.DataFork()
	img.dataFile = f
	img.result = res

	img.files = make([]tape.File, 0, len(res.fileOrder))
	for _, num := range res.fileOrder {
		blocks := res.blocksByFile[num]
		img.files = append(img.files, tape.File{
			FileNumber: num,
			FirstBlock: 0,
			LastBlock:  int64(len(blocks)) - 1,
		})
	}

	fmt.Printf("[tape:raw] opened %q: %d file(s)\n", f.BasePath(), len(img.files))
	return nil
}

// Files implements tape.Image.
func (img *Image) Files() []tape.File { return append([]tape.File(nil), img.files...) }

// ReadBlock implements tape.Image.
func (img *Image) ReadBlock(file int, block int64) ([]byte, error) {
	blocks, ok := img.result.blocksByFile[file]
	if !ok {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "no file numbered %d", file)
	}
	if block < 0 || block >= int64(len(blocks)) {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "block %d out of range [0,%d) in file %d", block, len(blocks), file)
	}
	rec := blocks[block]
	buf := make([]byte, rec.length)
	if _, err := img.dataFork.ReadAt(buf, rec.offset); err != nil && err != io.EOF {
		return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read file %d block %d", file, block)
	}
	return buf, nil
}

// Close implements tape.Image.
func (img *Image) Close() error {
	if img.dataFile == nil {
		return nil
	}
	return img.dataFile.Close()
}

var _ tape.Image = (*Image)(nil)
