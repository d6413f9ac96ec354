package wire

// Byte layout of a QueueItem as the badge readers lay out their C struct
// (little-endian, natural alignment):
//
//	offset size field
//	0      20   uid              19 chars + NUL
//	20     25   timestamp        24 chars + NUL
//	45     3    padding
//	48     4    number           int32 LE
//	52     1    removeFromQueue  0 or 1
//	53     1    addToQueue       0 or 1
//	54     2    padding
const (
	UIDSize       = 20
	TimestampSize = 25

	// MaxUIDLen and MaxTimestampLen are the visible characters a field can
	// carry; one byte of each buffer is reserved for the terminator.
	MaxUIDLen       = UIDSize - 1
	MaxTimestampLen = TimestampSize - 1

	offUID       = 0
	offTimestamp = offUID + UIDSize
	offNumber    = 48
	offRemove    = offNumber + 4
	offAdd       = offRemove + 1

	// Size is the encoded length of a QueueItem.
	Size = 56
)
