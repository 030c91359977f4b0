// Package clonecd implements the CloneCD optical-image container: a
// textual descriptor (.ccd) plus a raw 2352-byte-per-sector data fork
// (.img) and an optional 96-byte-per-sector subchannel fork (.sub).
package clonecd

import "fmt"

// TocEntry is one raw CD TOC entry as reconstructed from a [Entry N]
// section of the descriptor.
type TocEntry struct {
	Session int
	Point   byte
	ADR     byte
	Control byte
	TrackNo int
	AMin    byte
	ASec    byte
	AFrame  byte
	Zero    byte // carries HOUR in the high nibble, PHOUR in the low nibble
	PMin    byte
	PSec    byte
	PFrame  byte
}

// PHour and AHour extract the packed hour nibbles from Zero.
func (e TocEntry) AHour() byte { return e.Zero >> 4 }
func (e TocEntry) PHour() byte { return e.Zero & 0x0F }

// Descriptor is the fully parsed contents of a .ccd file.
type Descriptor struct {
	Version int // [CloneCD] Version=

	// [Disc]
	TocEntries          int
	Sessions            int
	DataTracksScrambled bool
	CDTextLength        int
	Catalog             string

	Entries []TocEntry

	// [CDText] Entry N = HH HH HH ... concatenated in encounter order.
	CDText []byte
}

// ADR/CONTROL constants used by track-boundary reconstruction and
// mode autodetection.
const (
	adrPositionData     = 1
	adrCatalogOrISRC    = 5
	adrATIP             = 5 // ADR 5 doubles for ATIP manufacturer code and disc serial, disambiguated by POINT
	adrDiscSerial       = 6
	pointLeadOutSession = 0xA2
	pointDiscType       = 0xA0
	pointATIP           = 0xC0
	pointTrackMin       = 0x01
	pointTrackMax       = 0x63

	controlDataMask         = 0x0D
	controlDataTrack        = 0x04
	controlDataIncremental  = 0x05
)

func (d *Descriptor) String() string {
	return fmt.Sprintf("clonecd descriptor: version=%d sessions=%d entries=%d scrambled=%v",
		d.Version, d.Sessions, len(d.Entries), d.DataTracksScrambled)
}
