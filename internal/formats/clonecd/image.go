package clonecd

import (
	"fmt"
	"io"
	"sort"

	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/deploymenttheory/go-imagevault/internal/primitives"
)

const (
	rawSectorSize  = 2352
	subchannelSize = 96
)

// SiblingPather is implemented by filters that can resolve the
// descriptor's sibling .img/.sub paths (in practice, filter.LocalFilter).
type SiblingPather interface {
	SiblingPath(ext string) string
}

// Image is the CloneCD container plugin: parses the .ccd descriptor,
// reconstructs the TOC, and serves sectors out of the .img data fork
// (and, if present, the .sub subchannel fork).
type Image struct {
	info       imagevault.ImageInfo
	tracks     []imagevault.Track
	sessions   []imagevault.Session
	partitions []imagevault.Partition
	descriptor *Descriptor
	meta       discMeta

	dataFork filter.Seekable
	subFork  filter.Seekable
	subFile  io.Closer
	dataFile io.Closer
}

// Name implements imagevault.Plugin.
func (*Image) Name() string { return "clonecd" }

// New implements imagevault.Plugin.
func (*Image) New() imagevault.BaseImage { return &Image{} }

// Identify implements imagevault.Plugin/BaseImage: it is a
// side-effect-free sniff of the first 512 bytes guarded by the
// registry's textual-plugin rule, then a check for the [CloneCD]
// section header.
func (*Image) Identify(f filter.Filter) bool {
	buf := make([]byte, 512)
	n, err := f.DataFork().ReadAt(buf, 0)
	if err != nil && n == 0 {
		return false
	}
	buf = buf[:n]
	if !imagevault.LooksTextual(buf) {
		return false
	}
	return containsFold(buf, "[clonecd]")
}

func containsFold(buf []byte, needle string) bool {
	lower := make([]byte, len(buf))
	for i, b := range buf {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		lower[i] = b
	}
	return indexOf(string(lower), needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// Open implements imagevault.BaseImage.
func (img *Image) Open(f filter.Filter) error {
	raw := make([]byte, f.Length())
	if _, err := f.DataFork().ReadAt(raw, 0); err != nil && err != io.EOF {
		return imagevault.WrapError(imagevault.KindIOError, err, "failed to read descriptor %q", f.BasePath())
	}

	d, err := ParseDescriptor(raw)
	if err != nil {
		return err
	}
	img.descriptor = d

	sp, ok := f.(SiblingPather)
	if !ok {
		return imagevault.NewError(imagevault.KindIncompleteImage,
			"filter for %q cannot resolve sibling .img/.sub paths", f.BasePath())
	}

	if img.dataFile != nil {
		img.dataFile.Close()
	}
	if img.subFile != nil {
		img.subFile.Close()
		img.subFile = nil
		img.subFork = nil
	}

	imgFilter, err := filter.OpenLocal(sp.SiblingPath(".img"))
	if err != nil {
		return imagevault.WrapError(imagevault.KindIncompleteImage, err, "missing .img data fork next to %q", f.BasePath())
	}
	img.dataFork = imgFilter.DataFork()
	img.dataFile = imgFilter

	if subFilter, err := filter.OpenLocal(sp.SiblingPath(".sub")); err == nil {
		img.subFork = subFilter.DataFork()
		img.subFile = subFilter
	}

	reconstructed, meta := ComputeTrackBoundaries(d.Entries)
	img.meta = meta
	if err := img.buildTracks(reconstructed); err != nil {
		return err
	}
	img.buildSessions()
	img.buildPartitions()
	img.buildImageInfo()

	fmt.Printf("[clonecd] opened %q: %d session(s), %d track(s), media=%s\n",
		f.BasePath(), len(img.sessions), len(img.tracks), img.info.MediaType)
	return nil
}

func (img *Image) buildTracks(reconstructed []reconstructedTrack) error {
	img.tracks = make([]imagevault.Track, 0, len(reconstructed))
	for _, rt := range reconstructed {
		sectorType := imagevault.SectorTypeAudio
		if isDataTrack(rt.Control) {
			rawRecord := make([]byte, rawSectorSize)
			if _, err := img.dataFork.ReadAt(rawRecord, rt.StartSector*rawSectorSize); err != nil && err != io.EOF {
				return imagevault.WrapError(imagevault.KindIOError, err,
					"failed to read track %d's first sector for mode detection", rt.Sequence)
			}
			st, err := DetectSectorType(rawRecord, img.descriptor.DataTracksScrambled)
			if err != nil {
				return err
			}
			sectorType = st
		}

		t := imagevault.Track{
			Sequence:                rt.Sequence,
			Session:                 rt.Session,
			StartSector:             rt.StartSector,
			EndSector:               rt.EndSector,
			RawBytesPerSector:       rawSectorSize,
			EffectiveBytesPerSector: sectorType.EffectiveSize(),
			Type:                    sectorType,
			DataFilterOffset:        rt.StartSector * rawSectorSize,
			SubchannelOffset:        -1,
			SubchannelType:          imagevault.SubchannelNone,
		}
		if img.subFork != nil {
			t.SubchannelOffset = rt.StartSector * subchannelSize
			t.SubchannelType = imagevault.SubchannelRaw
		}
		img.tracks = append(img.tracks, t)
	}
	return nil
}

func (img *Image) buildSessions() {
	bySession := map[int]*imagevault.Session{}
	var order []int
	for _, t := range img.tracks {
		s, ok := bySession[t.Session]
		if !ok {
			s = &imagevault.Session{Sequence: t.Session, FirstTrack: t.Sequence, LastTrack: t.Sequence,
				FirstSector: t.StartSector, LastSector: t.EndSector}
			bySession[t.Session] = s
			order = append(order, t.Session)
			continue
		}
		if t.Sequence < s.FirstTrack {
			s.FirstTrack = t.Sequence
		}
		if t.Sequence > s.LastTrack {
			s.LastTrack = t.Sequence
		}
		if t.StartSector < s.FirstSector {
			s.FirstSector = t.StartSector
		}
		if t.EndSector > s.LastSector {
			s.LastSector = t.EndSector
		}
	}
	sort.Ints(order)
	img.sessions = make([]imagevault.Session, 0, len(order))
	for _, seq := range order {
		img.sessions = append(img.sessions, *bySession[seq])
	}
}

func (img *Image) buildPartitions() {
	img.partitions = make([]imagevault.Partition, 0, len(img.tracks))
	for _, t := range img.tracks {
		length := t.EndSector - t.StartSector + 1
		img.partitions = append(img.partitions, imagevault.Partition{
			StartSector: t.StartSector,
			Length:      length,
			ByteOffset:  t.StartSector * rawSectorSize,
			Size:        length * int64(rawSectorSize),
			Type:        t.Type.String(),
		})
	}
}

func (img *Image) buildImageInfo() {
	var (
		hasAudio, hasData, hasMode2 bool
		firstIsAudio                bool
		maxEffective                int
		maxSector                   int64
		tags                        = map[imagevault.SectorTagType]bool{}
	)
	for i, t := range img.tracks {
		if t.Type == imagevault.SectorTypeAudio {
			hasAudio = true
			if i == 0 {
				firstIsAudio = true
			}
		} else {
			hasData = true
		}
		if t.Type == imagevault.SectorTypeCdMode2Form1 || t.Type == imagevault.SectorTypeCdMode2Form2 || t.Type == imagevault.SectorTypeCdMode2Formless {
			hasMode2 = true
		}
		if t.EffectiveBytesPerSector > maxEffective {
			maxEffective = t.EffectiveBytesPerSector
		}
		if t.EndSector > maxSector {
			maxSector = t.EndSector
		}
		for _, tag := range imagevault.SupportedTags(t.Type) {
			tags[tag] = true
		}
		if t.SubchannelType != imagevault.SubchannelNone {
			tags[imagevault.SectorTagSubchannel] = true
		}
	}

	media := imagevault.MediaTypeCD
	switch {
	case !hasData:
		media = imagevault.MediaTypeCDDA
	case firstIsAudio && hasData && len(img.sessions) > 1 && hasMode2:
		media = imagevault.MediaTypeCDPlus
	case (!firstIsAudio && hasAudio) || hasMode2:
		media = imagevault.MediaTypeCDROMXA
	case !hasAudio:
		media = imagevault.MediaTypeCDROM
	}

	readableTags := make([]imagevault.SectorTagType, 0, len(tags))
	for tag := range tags {
		readableTags = append(readableTags, tag)
	}

	mediaTags := []imagevault.MediaTagType{imagevault.MediaTagFullTOC}
	if len(img.descriptor.CDText) > 0 {
		mediaTags = append(mediaTags, imagevault.MediaTagCDText)
	}
	if img.meta.HasATIP {
		mediaTags = append(mediaTags, imagevault.MediaTagATIP)
	}

	img.info = imagevault.ImageInfo{
		Sectors:            uint64(maxSector + 1),
		SectorSize:         uint32(maxEffective),
		MediaType:          media,
		XMLMediaCategory:   imagevault.XMLMediaCategoryOptical,
		Application:        "go-imagevault",
		ReadableSectorTags: readableTags,
		ReadableMediaTags:  mediaTags,
		MediaSerialNumber:  img.meta.DiscSerial,
	}
}

// Info implements imagevault.BaseImage.
func (img *Image) Info() *imagevault.ImageInfo { return &img.info }

func (img *Image) Tracks() []imagevault.Track         { return append([]imagevault.Track(nil), img.tracks...) }
func (img *Image) Sessions() []imagevault.Session     { return append([]imagevault.Session(nil), img.sessions...) }
func (img *Image) Partitions() []imagevault.Partition { return append([]imagevault.Partition(nil), img.partitions...) }

func (img *Image) findTrack(lba int64) (*imagevault.Track, error) {
	for i := range img.tracks {
		t := &img.tracks[i]
		if lba >= t.StartSector && lba <= t.EndSector {
			return t, nil
		}
	}
	return nil, imagevault.NewError(imagevault.KindOutOfBounds, "no track contains lba %d", lba)
}

func (img *Image) trackBySequence(track int) (*imagevault.Track, error) {
	for i := range img.tracks {
		if img.tracks[i].Sequence == track {
			return &img.tracks[i], nil
		}
	}
	return nil, imagevault.NewError(imagevault.KindOutOfBounds, "no track numbered %d", track)
}

func (img *Image) readRaw(lba int64, t *imagevault.Track) ([]byte, error) {
	if lba < t.StartSector || lba > t.EndSector {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "lba %d outside track %d [%d,%d]", lba, t.Sequence, t.StartSector, t.EndSector)
	}
	buf := make([]byte, rawSectorSize)
	off := lba * rawSectorSize
	if _, err := img.dataFork.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read raw sector %d", lba)
	}
	return buf, nil
}

func (img *Image) cook(raw []byte, t *imagevault.Track) []byte {
	record := raw
	if img.descriptor.DataTracksScrambled && t.Type != imagevault.SectorTypeAudio {
		record = primitives.DescrambleSector(record)
	}
	switch t.Type {
	case imagevault.SectorTypeAudio:
		return record
	case imagevault.SectorTypeCdMode1:
		return record[16:2064]
	case imagevault.SectorTypeCdMode2Form1:
		return record[24:2072]
	case imagevault.SectorTypeCdMode2Form2:
		return record[24:2348]
	case imagevault.SectorTypeCdMode2Formless:
		return record[16:2352]
	default:
		return record
	}
}

// ReadSector implements imagevault.OpticalImage.
func (img *Image) ReadSector(lba int64) ([]byte, error) {
	t, err := img.findTrack(lba)
	if err != nil {
		return nil, err
	}
	return img.ReadSectorInTrack(lba, t.Sequence)
}

// ReadSectorInTrack implements imagevault.OpticalImage.
func (img *Image) ReadSectorInTrack(lba int64, track int) ([]byte, error) {
	t, err := img.trackBySequence(track)
	if err != nil {
		return nil, err
	}
	raw, err := img.readRaw(lba, t)
	if err != nil {
		return nil, err
	}
	return img.cook(raw, t), nil
}

// ReadSectors implements imagevault.OpticalImage.
func (img *Image) ReadSectors(lba, n int64) ([]byte, error) {
	t, err := img.findTrack(lba)
	if err != nil {
		return nil, err
	}
	return img.ReadSectorsInTrack(lba, n, t.Sequence)
}

// ReadSectorsInTrack implements imagevault.OpticalImage.
func (img *Image) ReadSectorsInTrack(lba, n int64, track int) ([]byte, error) {
	t, err := img.trackBySequence(track)
	if err != nil {
		return nil, err
	}
	if lba+n-1 > t.EndSector || lba < t.StartSector {
		return nil, imagevault.NewError(imagevault.KindOutOfBounds, "range [%d,%d) exceeds track %d bounds", lba, lba+n, track)
	}
	out := make([]byte, 0, n*int64(t.EffectiveBytesPerSector))
	for i := int64(0); i < n; i++ {
		raw, err := img.readRaw(lba+i, t)
		if err != nil {
			return nil, err
		}
		out = append(out, img.cook(raw, t)...)
	}
	return out, nil
}

// ReadSectorLong implements imagevault.OpticalImage.
func (img *Image) ReadSectorLong(lba int64, track int) ([]byte, error) {
	t, err := img.trackBySequence(track)
	if err != nil {
		return nil, err
	}
	raw, err := img.readRaw(lba, t)
	if err != nil {
		return nil, err
	}
	if img.descriptor.DataTracksScrambled && t.Type != imagevault.SectorTypeAudio {
		raw = primitives.DescrambleSector(raw)
	}
	return raw, nil
}

// ReadSectorTag implements imagevault.OpticalImage.
func (img *Image) ReadSectorTag(lba int64, track int, tag imagevault.SectorTagType) ([]byte, error) {
	t, err := img.trackBySequence(track)
	if err != nil {
		return nil, err
	}
	if tag == imagevault.SectorTagSubchannel {
		if img.subFork == nil {
			return nil, imagevault.NewError(imagevault.KindFeatureNotPresent, "image has no subchannel fork")
		}
		if t.SubchannelType == imagevault.SubchannelNone {
			return nil, imagevault.NewError(imagevault.KindTagNotSupportedForTrack, "track %d has no subchannel", track)
		}
		buf := make([]byte, subchannelSize)
		off := lba * subchannelSize
		if _, err := img.subFork.ReadAt(buf, off); err != nil && err != io.EOF {
			return nil, imagevault.WrapError(imagevault.KindIOError, err, "failed to read subchannel for lba %d", lba)
		}
		return buf, nil
	}

	raw, err := img.ReadSectorLong(lba, track)
	if err != nil {
		return nil, err
	}
	return imagevault.SliceSectorTag(raw, t.Type, tag)
}

// ReadDiskTag implements imagevault.BaseImage.
func (img *Image) ReadDiskTag(tag imagevault.MediaTagType) ([]byte, error) {
	switch tag {
	case imagevault.MediaTagFullTOC:
		return BuildFullTOC(img.descriptor.Entries), nil
	case imagevault.MediaTagCDText:
		if len(img.descriptor.CDText) == 0 {
			return nil, imagevault.NewError(imagevault.KindFeatureNotPresent, "descriptor has no [CDText] section")
		}
		return append([]byte(nil), img.descriptor.CDText...), nil
	case imagevault.MediaTagATIP:
		if !img.meta.HasATIP {
			return nil, imagevault.NewError(imagevault.KindFeatureNotPresent, "descriptor has no ATIP entry")
		}
		return append([]byte(nil), img.meta.ATIPManufacturer[:]...), nil
	default:
		return nil, imagevault.NewError(imagevault.KindFeatureNotImplemented, "unsupported disk tag %v", tag)
	}
}

// VerifySector implements imagevault.BaseImage. CloneCD carries no
// per-sector checksum material of its own (that's an external checksum
// engine's job), so verification is always unknown.
func (img *Image) VerifySector(lba int64) (imagevault.VerifyResult, error) {
	if _, err := img.findTrack(lba); err != nil {
		return nil, err
	}
	return nil, nil
}

// VerifySectors implements imagevault.BaseImage.
func (img *Image) VerifySectors(lba, n int64) (imagevault.VerifyResult, []int64, []int64, error) {
	unknown := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		if _, err := img.findTrack(lba + i); err != nil {
			return nil, nil, nil, err
		}
		unknown = append(unknown, lba+i)
	}
	return nil, nil, unknown, nil
}

// Close implements imagevault.BaseImage.
func (img *Image) Close() error {
	var firstErr error
	if img.dataFile != nil {
		if err := img.dataFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if img.subFile != nil {
		if err := img.subFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ imagevault.OpticalImage = (*Image)(nil)
var _ imagevault.Plugin = (*Image)(nil)
