package clonecd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCCD = `[CloneCD]
Version=3

[Disc]
TocEntries=6
Sessions=1
DataTracksScrambled=1
CDTextLength=0
Catalog=0000000000000

[Entry 0]
Session=1
Point=0xa0
ADR=0x01
Control=0x04
TrackNo=0
AMin=0
ASec=0
AFrame=0
Zero=0
PMin=1
PSec=0
PFrame=0

[Entry 1]
Session=1
Point=0x01
ADR=0x01
Control=0x04
TrackNo=0
AMin=0
ASec=0
AFrame=0
Zero=0
PMin=0
PSec=2
PFrame=0

[Entry 2]
Session=1
Point=0xa2
ADR=0x01
Control=0x04
TrackNo=0
AMin=0
ASec=0
AFrame=0
Zero=0
PMin=5
PSec=0
PFrame=0
`

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor([]byte(sampleCCD))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Version)
	assert.Equal(t, 1, d.Sessions)
	assert.True(t, d.DataTracksScrambled)
	assert.Len(t, d.Entries, 3)
	assert.Equal(t, byte(0x01), d.Entries[1].Point)
}

func TestParseDescriptorRejectsCloneCDSectionOutOfOrder(t *testing.T) {
	bad := "[Disc]\nSessions=1\n\n[CloneCD]\nVersion=3\n"
	_, err := ParseDescriptor([]byte(bad))
	require.Error(t, err)
}

func TestParseDescriptorRejectsEmpty(t *testing.T) {
	_, err := ParseDescriptor([]byte("[CloneCD]\nVersion=3\n"))
	require.Error(t, err)
}

func TestComputeTrackBoundariesSingleDataTrack(t *testing.T) {
	d, err := ParseDescriptor([]byte(sampleCCD))
	require.NoError(t, err)

	tracks, _ := ComputeTrackBoundaries(d.Entries)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(0), tracks[0].StartSector)
	assert.Equal(t, int64(22349), tracks[0].EndSector) // lead-out at 05:00:00 -> lba 22350, minus 1
}

func TestComputeTrackBoundariesMultiTrackContiguous(t *testing.T) {
	entries := []TocEntry{
		{Session: 1, Point: pointDiscType, ADR: adrPositionData, PSec: 0x00},
		{Session: 1, Point: 0x01, ADR: adrPositionData, Control: controlDataTrack, PMin: 0, PSec: 2, PFrame: 0},
		{Session: 1, Point: 0x02, ADR: adrPositionData, Control: 0x00, PMin: 1, PSec: 0, PFrame: 0},
		{Session: 1, Point: pointLeadOutSession, ADR: adrPositionData, PMin: 2, PSec: 0, PFrame: 0},
	}
	tracks, _ := ComputeTrackBoundaries(entries)
	require.Len(t, tracks, 2)
	assert.Equal(t, tracks[0].EndSector+1, tracks[1].StartSector)
	assert.Equal(t, int64(0), tracks[0].StartSector)
}

func TestBuildFullTOCShape(t *testing.T) {
	d, err := ParseDescriptor([]byte(sampleCCD))
	require.NoError(t, err)
	toc := BuildFullTOC(d.Entries)
	require.Len(t, toc, 4+len(d.Entries)*11)
	dataLength := int(toc[0])<<8 | int(toc[1])
	assert.Equal(t, len(d.Entries)*11+2, dataLength)
}
