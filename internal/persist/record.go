package persist

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/fxamacker/cbor/v2"

	"github.com/rzbill/sharedq/internal/entrystore"
)

// Snapshot record: version(1B) | cbor(snapshot) | crc32c(version|cbor)

const formatVersion byte = 1

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("persist: cbor encoder mode: %v", err))
	}
	// Unknown fields are ignored so newer firmware can add keys.
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("persist: cbor decoder mode: %v", err))
	}
}

type snapshot struct {
	Entries   []entrystore.Entry `cbor:"1,keyasint"`
	SavedAtMs int64              `cbor:"2,keyasint,omitempty"`
}

func encodeSnapshot(s snapshot) ([]byte, error) {
	body, err := encMode.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(body)+4)
	out = append(out, formatVersion)
	out = append(out, body...)
	crc := crc32.Checksum(out, castagnoli)
	return binary.BigEndian.AppendUint32(out, crc), nil
}

func decodeSnapshot(b []byte) (snapshot, error) {
	if len(b) < 1+4 {
		return snapshot{}, fmt.Errorf("%w: snapshot too short (%d bytes)", ErrCorrupt, len(b))
	}
	payload := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(payload, castagnoli) != expect {
		return snapshot{}, fmt.Errorf("%w: snapshot checksum mismatch", ErrCorrupt)
	}
	if payload[0] != formatVersion {
		return snapshot{}, fmt.Errorf("%w: unsupported snapshot version %d", ErrCorrupt, payload[0])
	}
	var s snapshot
	if err := decMode.Unmarshal(payload[1:], &s); err != nil {
		return snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

func encodeCounter(v int) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

func decodeCounter(b []byte) (int, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: counter is %d bytes", ErrCorrupt, len(b))
	}
	return int(binary.BigEndian.Uint64(b)), nil
}
