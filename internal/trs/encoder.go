package trs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Encode is the exact inverse of Decode for version 1 files. It exists
// to build test fixtures and to verify round-trip identity against
// captures; the instrument itself is the only producer that matters in
// practice.
func Encode(tf *TraceFile) ([]byte, error) {
	version := tf.Header.Version
	if version == 0 {
		version = Version1
	}
	if version != Version1 {
		return nil, fmt.Errorf("cannot encode trace format version %d", version)
	}
	if len(tf.Traces) > math.MaxUint16 {
		return nil, fmt.Errorf("%d traces exceed the format limit", len(tf.Traces))
	}

	var flags uint16
	if tf.Metadata != nil {
		flags |= flagMetadata
	}
	if tf.Header.Extra != nil {
		flags |= flagExtHeader
	}

	w := &bytes.Buffer{}
	w.Write(magic[:])
	writeU16(w, version)
	writeU16(w, flags)
	if err := writeFixedString(w, tf.Header.Model, modelFieldSize, "model"); err != nil {
		return nil, err
	}
	if err := writeFixedString(w, tf.Header.Firmware, firmwareFieldSize, "firmware"); err != nil {
		return nil, err
	}
	writeF64(w, tf.Header.StartFreq)
	writeF64(w, tf.Header.StopFreq)
	writeU16(w, uint16(len(tf.Traces)))
	w.Write(make([]byte, reservedSize))

	for i := range tf.Traces {
		if err := encodeTrace(w, &tf.Traces[i]); err != nil {
			return nil, err
		}
	}

	if flags&flagExtHeader != 0 {
		if err := writeEntries(w, flattenFlat(tf.Header.Extra)); err != nil {
			return nil, err
		}
	}
	if flags&flagMetadata != 0 {
		if err := writeEntries(w, flattenNested(tf.Metadata)); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func encodeTrace(w *bytes.Buffer, t *Trace) error {
	if t.Name == "" || len(t.Name) > math.MaxUint8 {
		return fmt.Errorf("trace name %q must be 1 to 255 bytes", t.Name)
	}
	if t.Format > FormatMagPhase {
		return fmt.Errorf("trace %q: unknown sample format %d", t.Name, t.Format)
	}
	c := t.Format.Components()
	if len(t.Samples)%c != 0 {
		return fmt.Errorf("trace %q: %d sample values do not divide into %d-component points", t.Name, len(t.Samples), c)
	}
	points := len(t.Samples) / c
	if t.Axis != nil && len(t.Axis) != points {
		return fmt.Errorf("trace %q: axis has %d values for %d points", t.Name, len(t.Axis), points)
	}

	w.WriteByte(byte(len(t.Name)))
	w.WriteString(t.Name)
	w.WriteByte(byte(t.Format))
	var tflags byte
	if t.Axis != nil {
		tflags |= traceFlagExplicitAxis
	}
	w.WriteByte(tflags)
	writeU32(w, uint32(points))
	for _, v := range t.Axis {
		writeF64(w, v)
	}
	for _, v := range t.Samples {
		writeF64(w, v)
	}
	return nil
}

type entry struct {
	key   string
	value any
}

// flattenFlat orders a verbatim-key mapping for deterministic output.
func flattenFlat(m map[string]any) []entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]entry, len(keys))
	for i, k := range keys {
		entries[i] = entry{key: k, value: m[k]}
	}
	return entries
}

// flattenNested walks a nested metadata mapping depth-first in sorted
// key order and re-encodes the paths in the vendor convention, using
// "-%3E" as the canonical nesting delimiter.
func flattenNested(m map[string]any) []entry {
	var entries []entry
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := strings.ReplaceAll(k, " ", "%20")
			if prefix != "" {
				key = prefix + "-%3E" + key
			}
			if sub, ok := m[k].(map[string]any); ok {
				walk(key, sub)
				continue
			}
			entries = append(entries, entry{key: key, value: m[k]})
		}
	}
	walk("", m)
	return entries
}

func writeEntries(w *bytes.Buffer, entries []entry) error {
	writeU32(w, uint32(len(entries)))
	for _, e := range entries {
		if len(e.key) > math.MaxUint16 {
			return fmt.Errorf("entry key %q too long", e.key)
		}
		writeU16(w, uint16(len(e.key)))
		w.WriteString(e.key)
		if err := writeValue(w, e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w *bytes.Buffer, key string, v any) error {
	switch v := v.(type) {
	case bool:
		w.WriteByte(valueBool)
		if v {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case int:
		return writeValue(w, key, int64(v))
	case int64:
		w.WriteByte(valueInt)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		w.Write(b[:])
	case float64:
		w.WriteByte(valueFloat)
		writeF64(w, v)
	case string:
		if len(v) > math.MaxUint16 {
			return fmt.Errorf("entry %q: string value too long", key)
		}
		w.WriteByte(valueString)
		writeU16(w, uint16(len(v)))
		w.WriteString(v)
	default:
		return fmt.Errorf("entry %q: cannot encode value of type %T", key, v)
	}
	return nil
}

func writeFixedString(w *bytes.Buffer, s string, size int, what string) error {
	if len(s) > size {
		return fmt.Errorf("%s %q exceeds %d bytes", what, s, size)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%s %q contains a NUL byte", what, s)
	}
	w.WriteString(s)
	w.Write(make([]byte, size-len(s)))
	return nil
}

func writeU16(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func writeU32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeF64(w *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.Write(b[:])
}
