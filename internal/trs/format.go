// Package trs decodes binary trace captures saved by Rigol vector
// network analysers (e.g. RSA3045N). A capture holds a fixed header,
// one section per measured trace and an optional trailing key/value
// metadata section; everything is little-endian.
//
// Version 1 layout:
//
//	0   4   magic "TRS\x1a"
//	4   2   format version (uint16), only 1 is supported
//	6   2   section flags: bit0 metadata section, bit1 extended header
//	8   16  instrument model, NUL-padded ASCII
//	24  16  firmware version, NUL-padded ASCII
//	40  8   sweep start frequency in Hz (float64)
//	48  8   sweep stop frequency in Hz (float64)
//	56  2   trace count (uint16)
//	58  6   reserved
//
// Each trace section is a uint8-length name, a sample format code, a
// trace flags byte, a uint32 sample count, the explicit x-axis values
// when the flags ask for one, and the sample values themselves (one or
// two float64 per point depending on the format code). The extended
// header and metadata sections are counted lists of typed key/value
// entries; see decoder.go for the entry encoding.
package trs

const (
	headerSize = 64

	// Version1 is the only trace file format version this package
	// decodes.
	Version1 = 1

	flagMetadata  = 1 << 0
	flagExtHeader = 1 << 1

	traceFlagExplicitAxis = 1 << 0

	modelFieldSize    = 16
	firmwareFieldSize = 16
	reservedSize      = 6
)

var magic = [4]byte{'T', 'R', 'S', 0x1a}

// SampleFormat is the per-trace numeric encoding of sample values.
type SampleFormat uint8

const (
	// FormatReal is one float64 per point.
	FormatReal SampleFormat = iota
	// FormatRealImag is a real/imaginary float64 pair per point.
	FormatRealImag
	// FormatMagPhase is a magnitude/phase float64 pair per point.
	FormatMagPhase
)

func (f SampleFormat) String() string {
	switch f {
	case FormatReal:
		return "real"
	case FormatRealImag:
		return "real/imag"
	case FormatMagPhase:
		return "mag/phase"
	}
	return "unknown"
}

// Components is the number of float64 values stored per sample point.
func (f SampleFormat) Components() int {
	if f == FormatReal {
		return 1
	}
	return 2
}

// Header holds the instrument-identifying fields from the fixed header
// region. Fields the v1 layout does not know about, delivered by newer
// firmware through the extended header section, land in Extra with their
// keys preserved verbatim.
type Header struct {
	Version   uint16
	Model     string
	Firmware  string
	StartFreq float64 // Hz
	StopFreq  float64 // Hz

	Extra map[string]any
}

// Fields flattens the typed header fields and the Extra bucket into one
// enumerable mapping for the serializers. Extra entries never shadow the
// known fields.
func (h *Header) Fields() map[string]any {
	m := map[string]any{
		"format_version":     int(h.Version),
		"model":              h.Model,
		"firmware":           h.Firmware,
		"start_frequency_hz": h.StartFreq,
		"stop_frequency_hz":  h.StopFreq,
	}
	for k, v := range h.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return m
}

// Trace is one measured sweep.
type Trace struct {
	Name   string
	Format SampleFormat

	// Axis holds explicit per-point x-axis values. A nil Axis means the
	// trace uses the frequency grid shared by all implicit-axis traces
	// in the file.
	Axis []float64

	// Samples is the flat sample data, Format.Components() float64
	// values per point, in file order.
	Samples []float64
}

// Points is the number of sample points in the trace.
func (t *Trace) Points() int {
	return len(t.Samples) / t.Format.Components()
}

// Point returns the point at index i. For FormatReal the second value
// is always zero.
func (t *Trace) Point(i int) (float64, float64) {
	c := t.Format.Components()
	if c == 1 {
		return t.Samples[i], 0
	}
	return t.Samples[i*2], t.Samples[i*2+1]
}

// TraceFile is the fully decoded result of one capture. It is populated
// by Decode in one pass and never mutated afterwards.
type TraceFile struct {
	Header Header
	Traces []Trace

	// Metadata is the nested auxiliary key/value mapping, populated
	// only when decoding was asked for it and the file carries a
	// metadata section.
	Metadata map[string]any
}

// FrequencyAxis derives the shared x-axis for implicit-axis traces from
// the sweep bounds: n evenly spaced points from start to stop frequency.
func (tf *TraceFile) FrequencyAxis(n int) []float64 {
	axis := make([]float64, n)
	if n == 0 {
		return axis
	}
	start, stop := tf.Header.StartFreq, tf.Header.StopFreq
	if n == 1 {
		axis[0] = start
		return axis
	}
	step := (stop - start) / float64(n-1)
	for i := range axis {
		axis[i] = start + float64(i)*step
	}
	return axis
}
