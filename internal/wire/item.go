package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	// ErrMalformedMessage means a decoded item has both or neither flag set.
	ErrMalformedMessage = errors.New("wire: malformed message")
	// ErrShortFrame means fewer than Size bytes were received.
	ErrShortFrame = errors.New("wire: short frame")
	// ErrBufferTruncation marks a field that did not fit its fixed buffer.
	ErrBufferTruncation = errors.New("wire: buffer truncation")
	// ErrNumberRange means a number does not fit the int32 wire field.
	ErrNumberRange = errors.New("wire: number out of range")
)

// Kind is the mutation an Event carries.
type Kind uint8

const (
	KindAdd Kind = iota + 1
	KindRemove
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is one replicated mutation above the wire boundary.
type Event struct {
	Kind      Kind
	UID       string
	Timestamp string
	Number    int
}

// QueueItem is the fixed-layout wire record. The two flags exist only for
// compatibility with the C peers; use Event above this layer.
type QueueItem struct {
	UID             [UIDSize]byte
	Timestamp       [TimestampSize]byte
	Number          int32
	RemoveFromQueue bool
	AddToQueue      bool
}

// Truncation reports which fields Encode had to shorten.
type Truncation struct {
	UID       bool
	Timestamp bool
}

// Any reports whether anything was truncated.
func (t Truncation) Any() bool { return t.UID || t.Timestamp }

// Err returns an error wrapping ErrBufferTruncation naming the shortened
// fields, or nil.
func (t Truncation) Err() error {
	switch {
	case t.UID && t.Timestamp:
		return fmt.Errorf("%w: uid and timestamp", ErrBufferTruncation)
	case t.UID:
		return fmt.Errorf("%w: uid exceeds %d bytes or holds a NUL", ErrBufferTruncation, MaxUIDLen)
	case t.Timestamp:
		return fmt.Errorf("%w: timestamp exceeds %d bytes or holds a NUL", ErrBufferTruncation, MaxTimestampLen)
	}
	return nil
}

// Encode builds the wire item for ev. Oversized strings are cut to the
// field capacity (on a UTF-8 boundary) and strings holding a NUL are cut at
// it; both are reported in the Truncation. A
// truncated uid may collide with another identity on the receiving side, so
// callers should surface it. Numbers outside int32 fail with ErrNumberRange.
func Encode(ev Event) (QueueItem, Truncation, error) {
	var it QueueItem
	var tr Truncation
	switch ev.Kind {
	case KindAdd:
		it.AddToQueue = true
	case KindRemove:
		it.RemoveFromQueue = true
	default:
		return QueueItem{}, tr, fmt.Errorf("wire: unknown event kind %d", ev.Kind)
	}
	if ev.Number > math.MaxInt32 || ev.Number < math.MinInt32 {
		return QueueItem{}, tr, fmt.Errorf("%w: %d", ErrNumberRange, ev.Number)
	}
	tr.UID = putCString(it.UID[:], ev.UID)
	tr.Timestamp = putCString(it.Timestamp[:], ev.Timestamp)
	it.Number = int32(ev.Number)
	return it, tr, nil
}

// Event validates the flags and returns the tagged event.
func (it QueueItem) Event() (Event, error) {
	ev := Event{
		UID:       cString(it.UID[:]),
		Timestamp: cString(it.Timestamp[:]),
		Number:    int(it.Number),
	}
	switch {
	case it.AddToQueue && !it.RemoveFromQueue:
		ev.Kind = KindAdd
	case it.RemoveFromQueue && !it.AddToQueue:
		ev.Kind = KindRemove
	case it.AddToQueue:
		return Event{}, fmt.Errorf("%w: both add and remove set", ErrMalformedMessage)
	default:
		return Event{}, fmt.Errorf("%w: neither add nor remove set", ErrMalformedMessage)
	}
	return ev, nil
}

// MarshalBinary returns the Size-byte encoding.
func (it QueueItem) MarshalBinary() ([]byte, error) {
	return it.AppendBinary(make([]byte, 0, Size))
}

// AppendBinary appends the Size-byte encoding to b.
func (it QueueItem) AppendBinary(b []byte) ([]byte, error) {
	var buf [Size]byte
	copy(buf[offUID:], it.UID[:])
	copy(buf[offTimestamp:], it.Timestamp[:])
	binary.LittleEndian.PutUint32(buf[offNumber:], uint32(it.Number))
	buf[offRemove] = boolByte(it.RemoveFromQueue)
	buf[offAdd] = boolByte(it.AddToQueue)
	return append(b, buf[:]...), nil
}

// UnmarshalBinary decodes exactly Size bytes. It never reads beyond the
// fixed field buffers; any non-zero flag byte counts as true, as it does on
// the C side.
func (it *QueueItem) UnmarshalBinary(b []byte) error {
	if len(b) < Size {
		return fmt.Errorf("%w: %d bytes, want %d", ErrShortFrame, len(b), Size)
	}
	if len(b) > Size {
		return fmt.Errorf("wire: frame is %d bytes, want %d", len(b), Size)
	}
	copy(it.UID[:], b[offUID:offUID+UIDSize])
	copy(it.Timestamp[:], b[offTimestamp:offTimestamp+TimestampSize])
	it.Number = int32(binary.LittleEndian.Uint32(b[offNumber:]))
	it.RemoveFromQueue = b[offRemove] != 0
	it.AddToQueue = b[offAdd] != 0
	return nil
}

// Parse decodes a frame into a QueueItem.
func Parse(b []byte) (QueueItem, error) {
	var it QueueItem
	err := it.UnmarshalBinary(b)
	return it, err
}

// Decode parses a frame and validates it into an Event.
func Decode(b []byte) (Event, error) {
	it, err := Parse(b)
	if err != nil {
		return Event{}, err
	}
	return it.Event()
}

// putCString copies s into dst, NUL-terminating and zero-filling the rest.
// It reports whether s had to be cut, either to fit or at an embedded NUL
// the receiver would stop at.
func putCString(dst []byte, s string) bool {
	truncated := false
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
		truncated = true
	}
	limit := len(dst) - 1
	n := len(s)
	if n > limit {
		truncated = true
		n = limit
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
	}
	copy(dst, s[:n])
	clear(dst[n:])
	return truncated
}

// cString reads up to the first NUL. An unterminated buffer is taken whole.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
