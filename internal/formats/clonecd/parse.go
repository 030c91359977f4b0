package clonecd

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

// ParseDescriptor parses the textual .ccd descriptor from data. It is
// a small hand-rolled line tokenizer rather than a regex-driven parser
// (SPEC_FULL.md §9): the grammar is trivial ([section] headers,
// key = value pairs, hex/decimal integers) and a tokenizer avoids
// pulling in a regex engine for it.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	d := &Descriptor{}

	var (
		section      string
		sawAnySection bool
		cur          *TocEntry
		cdTextChunks = map[int][]byte{}
	)

	flush := func() {
		if cur != nil {
			d.Entries = append(d.Entries, *cur)
			cur = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			newSection := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			if newSection == "clonecd" && sawAnySection {
				return nil, imagevault.NewError(imagevault.KindCorruptImage,
					"line %d: [CloneCD] section must be first, found after %q", lineNo, section)
			}
			section = newSection
			sawAnySection = true
			if strings.HasPrefix(section, "entry ") {
				cur = &TocEntry{}
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue // tolerate stray lines rather than hard-failing on noise
		}
		lowerKey := strings.ToLower(key)

		switch {
		case section == "clonecd":
			if lowerKey == "version" {
				v, _ := strconv.Atoi(value)
				d.Version = v
				if v != 2 && v != 3 {
					fmt.Printf("[clonecd] warning: unrecognized descriptor version %d, proceeding anyway\n", v)
				}
			}
		case section == "disc":
			parseDiscField(d, lowerKey, value)
		case strings.HasPrefix(section, "entry "):
			if cur == nil {
				cur = &TocEntry{}
			}
			parseEntryField(cur, lowerKey, value)
		case section == "cdtext":
			if strings.HasPrefix(lowerKey, "entry ") {
				idx, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(lowerKey, "entry ")))
				cdTextChunks[idx] = parseHexBytes(value)
			}
		}
	}
	flush()

	// Concatenate CD-Text entries in numeric encounter order.
	if len(cdTextChunks) > 0 {
		maxIdx := 0
		for idx := range cdTextChunks {
			if idx > maxIdx {
				maxIdx = idx
			}
		}
		for i := 0; i <= maxIdx; i++ {
			if chunk, ok := cdTextChunks[i]; ok {
				d.CDText = append(d.CDText, chunk...)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, imagevault.WrapError(imagevault.KindCorruptImage, err, "failed to scan descriptor")
	}
	if len(d.Entries) == 0 {
		return nil, imagevault.NewError(imagevault.KindCorruptImage, "descriptor has no [Entry N] sections")
	}
	return d, nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func parseDiscField(d *Descriptor, key, value string) {
	switch key {
	case "tocentries":
		d.TocEntries = atoiOrZero(value)
	case "sessions":
		d.Sessions = atoiOrZero(value)
	case "datatracksscrambled":
		d.DataTracksScrambled = atoiOrZero(value) == 1
	case "cdtextlength":
		d.CDTextLength = atoiOrZero(value)
	case "catalog":
		d.Catalog = value
	}
}

func parseEntryField(e *TocEntry, key, value string) {
	switch key {
	case "session":
		e.Session = atoiOrZero(value)
	case "point":
		e.Point = byte(hexOrZero(value))
	case "adr":
		e.ADR = byte(hexOrZero(value))
	case "control":
		e.Control = byte(hexOrZero(value))
	case "trackno":
		e.TrackNo = atoiOrZero(value)
	case "amin":
		e.AMin = byte(atoiOrZero(value))
	case "asec":
		e.ASec = byte(atoiOrZero(value))
	case "aframe":
		e.AFrame = byte(atoiOrZero(value))
	case "alba":
		// Some encoders emit ALBA instead of AMin/ASec/AFrame; ignored
		// here since the A-address only informs TocEntry metadata, not
		// track boundary computation (which uses the P-address).
	case "zero":
		e.Zero = byte(atoiOrZero(value))
	case "pmin":
		e.PMin = byte(atoiOrZero(value))
	case "psec":
		e.PSec = byte(atoiOrZero(value))
	case "pframe":
		e.PFrame = byte(atoiOrZero(value))
	}
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func hexOrZero(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseHexBytes(s string) []byte {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}
