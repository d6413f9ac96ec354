package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TextFormatter renders human readable single-line entries:
//
//	2026-10-18T09:12:44.120Z INFO  entry assigned namespace=lobby number=3 uid=04A1
type TextFormatter struct {
	// DisableTimestamp drops the leading timestamp, mostly for tests.
	DisableTimestamp bool
	// ShowCaller appends file:line of the call site.
	ShowCaller bool
}

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	if !f.DisableTimestamp {
		buf.WriteString(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(&buf, "%-5s %s", e.Level.String(), e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, " %s=%v", k, e.Fields[k])
	}
	if f.ShowCaller && e.Caller != "" {
		buf.WriteString(" caller=")
		buf.WriteString(e.Caller)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders one JSON object per entry. Field keys that collide
// with the reserved ts/level/msg/caller keys are prefixed with "field.".
type JSONFormatter struct {
	TimestampFormat string
}

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}
	m := make(map[string]interface{}, len(e.Fields)+4)
	for k, v := range e.Fields {
		switch k {
		case "ts", "level", "msg", "caller":
			m["field."+k] = v
		default:
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			m[k] = v
		}
	}
	m["ts"] = e.Timestamp.UTC().Format(layout)
	m["level"] = e.Level.String()
	m["msg"] = e.Message
	if e.Caller != "" {
		m["caller"] = e.Caller
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
