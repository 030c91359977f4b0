package primitives

// MSF is a CD minute-second-frame address, optionally carrying an
// hour component (full-TOC entries pack HOUR into the high nibble of
// the Zero field).
type MSF struct {
	Hour  byte
	Min   byte
	Sec   byte
	Frame byte
}

const (
	framesPerSecond = 75
	secondsPerMinute = 60
	minutesPerHour   = 60
	// pregapFrames is the 2-second pregap offset between LBA 0 and
	// the disc's 00:02:00 MSF origin.
	pregapFrames = 2 * framesPerSecond
)

// MSFToLBA converts an (hour, minute, second, frame) address to a
// zero-based LBA, applying the 2-second pregap offset.
func MSFToLBA(hour, min, sec, frame byte) int64 {
	total := int64(hour)*minutesPerHour*secondsPerMinute*framesPerSecond +
		int64(min)*secondsPerMinute*framesPerSecond +
		int64(sec)*framesPerSecond +
		int64(frame)
	return total - pregapFrames
}

// LBAToMSF is MSFToLBA's inverse.
func LBAToMSF(lba int64) MSF {
	total := lba + pregapFrames
	hour := total / (minutesPerHour * secondsPerMinute * framesPerSecond)
	total -= hour * minutesPerHour * secondsPerMinute * framesPerSecond
	min := total / (secondsPerMinute * framesPerSecond)
	total -= min * secondsPerMinute * framesPerSecond
	sec := total / framesPerSecond
	frame := total - sec*framesPerSecond
	return MSF{Hour: byte(hour), Min: byte(min), Sec: byte(sec), Frame: byte(frame)}
}
