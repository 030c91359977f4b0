package clonecd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-imagevault/internal/primitives"
)

// toLBA applies the MSF-with-hour conversion used throughout the
// reconstructed TOC: h*60*60*75 + m*60*75 + s*75 + f - 150.
func toLBA(hour, min, sec, frame byte) int64 {
	return primitives.MSFToLBA(hour, min, sec, frame)
}

// reconstructedTrack is the intermediate boundary the TOC walk
// produces, before byte offsets/mode detection fill in the rest of
// imagevault.Track.
type reconstructedTrack struct {
	Sequence    int
	Session     int
	StartSector int64
	EndSector   int64
	Control     byte
}

// discMeta carries the informational fields the TOC walk harvests
// beyond plain track boundaries.
type discMeta struct {
	DiscType         int  // from POINT 0xA0's PSEC
	ATIPManufacturer [2]byte
	HasATIP          bool
	DiscSerial       string
}

// ComputeTrackBoundaries walks the sorted TOC entries and derives
// per-session track start/end sectors, following spec.md §4.D's
// algorithm exactly.
func ComputeTrackBoundaries(entries []TocEntry) ([]reconstructedTrack, discMeta) {
	sorted := append([]TocEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Session != sorted[j].Session {
			return sorted[i].Session < sorted[j].Session
		}
		return sorted[i].Point < sorted[j].Point
	})

	var (
		tracks       []reconstructedTrack
		meta         discMeta
		curSession   = -1
		leadOutStart int64
		trackSeq     int
	)

	flushOpenTrack := func(endSector int64) {
		if len(tracks) == 0 {
			return
		}
		last := &tracks[len(tracks)-1]
		if last.EndSector < last.StartSector {
			last.EndSector = endSector
		}
	}

	for _, e := range sorted {
		if e.ADR != 1 && e.ADR != 4 {
			if e.ADR == adrDiscSerial {
				meta.DiscSerial = fmt.Sprintf("%06x", (uint32(e.PMin)<<16)|(uint32(e.PSec)<<8)|uint32(e.PFrame))
			}
			if e.ADR == adrATIP && e.Point == pointATIP && e.PMin == 97 {
				meta.HasATIP = true
				meta.ATIPManufacturer = [2]byte{e.PSec, e.PFrame - e.PFrame%10}
			}
			continue
		}

		if e.Session != curSession {
			if curSession != -1 {
				flushOpenTrack(leadOutStart - 1)
			}
			curSession = e.Session
		}

		switch {
		case e.Point == pointDiscType:
			meta.DiscType = int(e.PSec)
		case e.Point == pointLeadOutSession:
			leadOutStart = toLBA(e.PHour(), e.PMin, e.PSec, e.PFrame)
		case e.Point >= pointTrackMin && e.Point <= pointTrackMax:
			start := toLBA(e.PHour(), e.PMin, e.PSec, e.PFrame)
			if len(tracks) > 0 && tracks[len(tracks)-1].Session == curSession {
				tracks[len(tracks)-1].EndSector = start - 1
			}
			trackSeq++
			tracks = append(tracks, reconstructedTrack{
				Sequence:    trackSeq,
				Session:     curSession,
				StartSector: start,
				EndSector:   start - 1, // placeholder, fixed up by the next track or the lead-out flush
				Control:     e.Control,
			})
		}
	}
	if curSession != -1 {
		flushOpenTrack(leadOutStart - 1)
	}

	return tracks, meta
}

// BuildFullTOC serializes the reconstructed TOC to the canonical
// binary block a CD drive's READ TOC/PMA/ATIP (format 0010b) command
// would return: u16 data_length BE, first/last session, then an
// 11-byte record per entry.
func BuildFullTOC(entries []TocEntry) []byte {
	firstSession, lastSession := 0, 0
	if len(entries) > 0 {
		firstSession, lastSession = entries[0].Session, entries[0].Session
		for _, e := range entries {
			if e.Session < firstSession {
				firstSession = e.Session
			}
			if e.Session > lastSession {
				lastSession = e.Session
			}
		}
	}

	dataLength := uint16(len(entries)*11 + 2)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, dataLength)
	buf.WriteByte(byte(firstSession))
	buf.WriteByte(byte(lastSession))
	for _, e := range entries {
		buf.WriteByte(byte(e.Session))
		buf.WriteByte((e.ADR << 4) | (e.Control & 0x0F))
		buf.WriteByte(byte(e.TrackNo))
		buf.WriteByte(e.Point)
		buf.WriteByte(e.AMin)
		buf.WriteByte(e.ASec)
		buf.WriteByte(e.AFrame)
		buf.WriteByte(e.Zero)
		buf.WriteByte(e.PMin)
		buf.WriteByte(e.PSec)
		buf.WriteByte(e.PFrame)
	}
	return buf.Bytes()
}
