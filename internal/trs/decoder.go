package trs

import (
	"encoding/binary"
	"strings"
)

// Key/value entry type tags used by the extended header and metadata
// sections.
const (
	valueBool   = 0 // 1 byte, 0 or 1
	valueInt    = 1 // int64
	valueFloat  = 2 // float64
	valueString = 3 // uint16 length + bytes
)

type decodeOptions struct {
	metadata bool
}

// Option configures Decode.
type Option func(*decodeOptions)

// WithMetadata asks Decode to populate TraceFile.Metadata from the
// trailing metadata section. Without it the section is still validated
// but its contents are discarded.
func WithMetadata() Option {
	return func(o *decodeOptions) { o.metadata = true }
}

// Decode parses a .trs capture. It is a pure function of the buffer: on
// any structural problem it returns a *FormatError (or an
// *UnsupportedVersionError for a recognized-but-unhandled version) and
// no TraceFile at all.
func Decode(buf []byte, opts ...Option) (*TraceFile, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &reader{buf: buf}

	m, err := r.bytes(len(magic), "magic")
	if err != nil {
		return nil, err
	}
	if string(m) != string(magic[:]) {
		return nil, formatErrf(0, "bad magic %q, want %q", m, magic[:])
	}

	version, err := r.u16("format version")
	if err != nil {
		return nil, err
	}
	if version != Version1 {
		return nil, &UnsupportedVersionError{Version: version}
	}

	flagsOff := r.off
	flags, err := r.u16("section flags")
	if err != nil {
		return nil, err
	}
	if flags&^(flagMetadata|flagExtHeader) != 0 {
		return nil, formatErrf(flagsOff, "unknown section flags %#x", flags)
	}

	tf := &TraceFile{Header: Header{Version: version}}
	if tf.Header.Model, err = fixedString(r, modelFieldSize, "model"); err != nil {
		return nil, err
	}
	if tf.Header.Firmware, err = fixedString(r, firmwareFieldSize, "firmware"); err != nil {
		return nil, err
	}
	if tf.Header.StartFreq, err = r.f64("start frequency"); err != nil {
		return nil, err
	}
	if tf.Header.StopFreq, err = r.f64("stop frequency"); err != nil {
		return nil, err
	}
	traceCount, err := r.u16("trace count")
	if err != nil {
		return nil, err
	}
	if err := r.skip(reservedSize, "reserved header bytes"); err != nil {
		return nil, err
	}

	// sharedPoints is the sample count every implicit-axis trace must
	// agree on; -1 until the first such trace is seen.
	sharedPoints := -1
	for i := 0; i < int(traceCount); i++ {
		t, countOff, err := decodeTrace(r)
		if err != nil {
			return nil, err
		}
		if t.Axis == nil {
			if sharedPoints >= 0 && t.Points() != sharedPoints {
				return nil, formatErrf(countOff, "trace %q has %d samples on the shared axis, previous traces have %d",
					t.Name, t.Points(), sharedPoints)
			}
			sharedPoints = t.Points()
		}
		tf.Traces = append(tf.Traces, *t)
	}

	if flags&flagExtHeader != 0 {
		extra, err := decodeEntries(r, "extended header", nil)
		if err != nil {
			return nil, err
		}
		tf.Header.Extra = extra
	}

	if flags&flagMetadata != 0 {
		nested := map[string]any{}
		if _, err := decodeEntries(r, "metadata", nested); err != nil {
			return nil, err
		}
		if o.metadata {
			tf.Metadata = nested
		}
	}

	if r.remaining() != 0 {
		return nil, formatErrf(r.off, "%d trailing bytes after last section", r.remaining())
	}
	return tf, nil
}

func decodeTrace(r *reader) (t *Trace, countOff int, err error) {
	nameOff := r.off
	nameLen, err := r.u8("trace name length")
	if err != nil {
		return nil, 0, err
	}
	if nameLen == 0 {
		return nil, 0, formatErrf(nameOff, "empty trace name")
	}
	name, err := r.bytes(int(nameLen), "trace name")
	if err != nil {
		return nil, 0, err
	}

	t = &Trace{Name: string(name)}

	fmtOff := r.off
	code, err := r.u8("sample format")
	if err != nil {
		return nil, 0, err
	}
	t.Format = SampleFormat(code)
	if t.Format > FormatMagPhase {
		return nil, 0, formatErrf(fmtOff, "trace %q: unknown sample format code %d", t.Name, code)
	}

	tflagsOff := r.off
	tflags, err := r.u8("trace flags")
	if err != nil {
		return nil, 0, err
	}
	if tflags&^traceFlagExplicitAxis != 0 {
		return nil, 0, formatErrf(tflagsOff, "trace %q: unknown trace flags %#x", t.Name, tflags)
	}

	countOff = r.off
	count, err := r.u32("sample count")
	if err != nil {
		return nil, 0, err
	}

	if tflags&traceFlagExplicitAxis != 0 {
		if t.Axis, err = r.f64s(int(count), "axis values"); err != nil {
			return nil, 0, err
		}
	}
	if t.Samples, err = r.f64s(int(count)*t.Format.Components(), "sample values"); err != nil {
		return nil, 0, err
	}
	return t, countOff, nil
}

// decodeEntries reads a counted key/value list. Entries go into nested
// when it is non-nil, with vendor key paths expanded; otherwise they are
// returned as a flat mapping with keys kept verbatim. Either way every
// entry is fully decoded, so the section is validated even when the
// caller discards it.
func decodeEntries(r *reader, section string, nested map[string]any) (map[string]any, error) {
	count, err := r.u32(section + " entry count")
	if err != nil {
		return nil, err
	}
	var flat map[string]any
	if nested == nil {
		flat = map[string]any{}
	}
	for i := 0; i < int(count); i++ {
		keyOff := r.off
		key, err := entryKey(r, section)
		if err != nil {
			return nil, err
		}
		value, err := entryValue(r, section)
		if err != nil {
			return nil, err
		}
		if nested != nil {
			if ferr := insertKey(nested, key, value); ferr != nil {
				ferr.Offset = keyOff
				return nil, ferr
			}
		} else {
			flat[key] = value
		}
	}
	return flat, nil
}

func entryKey(r *reader, section string) (string, error) {
	keyOff := r.off
	keyLen, err := r.u16(section + " key length")
	if err != nil {
		return "", err
	}
	if keyLen == 0 {
		return "", formatErrf(keyOff, "empty %s key", section)
	}
	key, err := r.bytes(int(keyLen), section+" key")
	if err != nil {
		return "", err
	}
	return string(key), nil
}

func entryValue(r *reader, section string) (any, error) {
	tagOff := r.off
	tag, err := r.u8(section + " value type")
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueBool:
		b, err := r.u8(section + " bool value")
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, formatErrf(tagOff+1, "%s bool value %d is neither 0 nor 1", section, b)
		}
		return b == 1, nil
	case valueInt:
		b, err := r.bytes(8, section+" int value")
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case valueFloat:
		return r.f64(section + " float value")
	case valueString:
		sLen, err := r.u16(section + " string length")
		if err != nil {
			return nil, err
		}
		s, err := r.bytes(int(sLen), section+" string value")
		if err != nil {
			return nil, err
		}
		// Firmware serializes typed settings as strings; recover the
		// type where it parses as one.
		return autoCast(string(s)), nil
	}
	return nil, formatErrf(tagOff, "unknown %s value type tag %d", section, tag)
}

func fixedString(r *reader, size int, what string) (string, error) {
	b, err := r.bytes(size, what)
	if err != nil {
		return "", err
	}
	// NUL-padded; everything past the first NUL is padding.
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
