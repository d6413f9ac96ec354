package persist

// Keyspace for one queue namespace:
//
//	ns/{ns}/sq/counter  next permanent number (8B big-endian)
//	ns/{ns}/sq/entries  framed entry snapshot (see record.go)

const queueSeg = "/sq/"

func queuePrefix(namespace string) []byte {
	k := make([]byte, 0, 3+len(namespace)+len(queueSeg))
	k = append(k, "ns/"...)
	k = append(k, namespace...)
	k = append(k, queueSeg...)
	return k
}

// CounterKey is the key of the persisted counter for a namespace.
func CounterKey(namespace string) []byte {
	return append(queuePrefix(namespace), "counter"...)
}

// EntriesKey is the key of the persisted entry snapshot for a namespace.
func EntriesKey(namespace string) []byte {
	return append(queuePrefix(namespace), "entries"...)
}
