package clonecd

import (
	"bytes"

	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
	"github.com/deploymenttheory/go-imagevault/internal/primitives"
)

// cdSyncPattern is the 12-byte sync mark every CdMode1/CdMode2 raw
// sector begins with: 00 FF*10 00.
var cdSyncPattern = append(append([]byte{0x00}, bytes.Repeat([]byte{0xFF}, 10)...), 0x00)

// isDataTrack reports whether control marks the track as data, per
// spec.md §4.D: CONTROL & 0x0D ∈ {DataTrack, DataTrackIncremental}.
func isDataTrack(control byte) bool {
	masked := control & controlDataMask
	return masked == controlDataTrack || masked == controlDataIncremental
}

// DetectSectorType inspects one raw 2352-byte record at a data
// track's first sector and returns the sector type it autodetects,
// descrambling first if scrambled is set. Non-data tracks are always
// Audio and never reach this function.
func DetectSectorType(rawRecord []byte, scrambled bool) (imagevault.SectorType, error) {
	if len(rawRecord) < 2352 {
		return imagevault.SectorTypeUnknown, imagevault.NewError(imagevault.KindCorruptImage,
			"raw sector record is %d bytes, need 2352", len(rawRecord))
	}

	record := rawRecord
	if scrambled {
		record = primitives.DescrambleSector(rawRecord)
	}

	if !bytes.Equal(record[0:12], cdSyncPattern) {
		// No recognizable sync mark: treat conservatively as the most
		// permissive data mode rather than failing the whole open.
		return imagevault.SectorTypeCdMode2Formless, nil
	}

	switch record[15] {
	case 1:
		return imagevault.SectorTypeCdMode1, nil
	case 2:
		sub1 := record[16:20]
		sub2 := record[20:24]
		if bytes.Equal(sub1, sub2) && !allZero(sub1) {
			if sub1[2]&0x20 != 0 {
				return imagevault.SectorTypeCdMode2Form2, nil
			}
			return imagevault.SectorTypeCdMode2Form1, nil
		}
		return imagevault.SectorTypeCdMode2Formless, nil
	default:
		return imagevault.SectorTypeCdMode2Formless, nil
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
