package primitives

import "time"

// macEpoch is 1904-01-01T00:00:00Z, the epoch Mac OS classic and
// AppleSingle/AppleDouble FileInfo/ProDOSFileInfo timestamps count
// seconds from.
var macEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// MacTimeToUnix converts a Mac-epoch unsigned seconds count (the
// convention classic Mac OS and its file-format descendants actually
// ship, covering 1904 through 2040) to a time.Time.
func MacTimeToUnix(seconds uint32) time.Time {
	return macEpoch.Add(time.Duration(seconds) * time.Second)
}

// UnixTimeToTime converts a Unix-epoch seconds count to a time.Time.
// The AppleSingle UnixFileInfo decoder passes unsigned 32-bit values.
func UnixTimeToTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

// DOSDateTimeToTime converts a FAT/DOS packed 16-bit date and 16-bit
// time pair to a time.Time. DOS dates have no timezone; the result is
// treated as UTC like the rest of this module's timestamps.
//
// date: bits 15-9 year since 1980, bits 8-5 month (1-12), bits 4-0 day.
// time: bits 15-11 hour, bits 10-5 minute, bits 4-0 seconds/2.
func DOSDateTimeToTime(date, dosTime uint16) time.Time {
	year := int(date>>9) + 1980
	month := int((date >> 5) & 0x0F)
	day := int(date & 0x1F)
	hour := int(dosTime >> 11)
	minute := int((dosTime >> 5) & 0x3F)
	second := int(dosTime&0x1F) * 2

	if month < 1 {
		month = 1
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}
