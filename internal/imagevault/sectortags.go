package imagevault

// tagRegion holds the offset and size of the (offset, size, skip)
// triple spec.md §4.C defines per (SectorType, SectorTagType): offset
// and size locate the tagged subregion within a raw 2352-byte record.
// skip (the remaining untagged byte count) is not stored, since
// slicing does not use it.
type tagRegion struct {
	offset int
	size   int
}

var sectorTagTable = map[SectorType]map[SectorTagType]tagRegion{
	SectorTypeCdMode1: {
		SectorTagSync:   {0, 12},
		SectorTagHeader: {12, 4},
		SectorTagECC:    {2076, 276},
		SectorTagECCP:   {2076, 172},
		SectorTagECCQ:   {2248, 104},
		SectorTagEDC:    {2064, 4},
	},
	SectorTypeCdMode2Formless: {
		SectorTagSubHeader: {0, 8},
		SectorTagEDC:        {2332, 4},
	},
	SectorTypeCdMode2Form1: {
		SectorTagSubHeader: {16, 8},
		SectorTagECC:        {2076, 276},
		SectorTagEDC:        {2072, 4},
	},
	SectorTypeCdMode2Form2: {
		SectorTagSubHeader: {16, 8},
		SectorTagEDC:        {2348, 4},
	},
}

// SupportedTags returns the sector tags a SectorType carries, per the
// (SectorType, SectorTagType) table above.
func SupportedTags(t SectorType) []SectorTagType {
	regions, ok := sectorTagTable[t]
	if !ok {
		return nil
	}
	tags := make([]SectorTagType, 0, len(regions))
	for tag := range regions {
		tags = append(tags, tag)
	}
	return tags
}

// SliceSectorTag extracts the (tag) subregion of a raw 2352-byte
// record for the given sector type, or TagNotSupportedForTrack if the
// (type, tag) pair has no defined region (spec.md §4.C table).
func SliceSectorTag(rawRecord []byte, sectorType SectorType, tag SectorTagType) ([]byte, error) {
	if tag == SectorTagSubchannel {
		return nil, NewError(KindTagNotSupportedForTrack, "subchannel tag is read from the subchannel fork, not the raw record")
	}
	regions, ok := sectorTagTable[sectorType]
	if !ok {
		return nil, NewError(KindTagNotSupportedForTrack, "sector type %v carries no sector tags", sectorType)
	}
	region, ok := regions[tag]
	if !ok {
		return nil, NewError(KindTagNotSupportedForTrack, "sector type %v has no tag %v", sectorType, tag)
	}
	if region.offset+region.size > len(rawRecord) {
		return nil, NewError(KindCorruptImage, "raw record too short (%d bytes) to slice tag at offset %d size %d",
			len(rawRecord), region.offset, region.size)
	}
	out := make([]byte, region.size)
	copy(out, rawRecord[region.offset:region.offset+region.size])
	return out, nil
}
