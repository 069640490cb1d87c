package trs

import (
	"strconv"
	"strings"
)

// The instrument percent-encodes nested setting paths into flat metadata
// keys, e.g. "VNAGloble%5Bm_f64StartFreq" or "Cal-%3EState". All the
// delimiter spellings below mean "descend one level"; %20 is a literal
// space inside a segment.
var keyDelims = strings.NewReplacer(
	"%5B", "\\",
	"%5D.", "\\",
	"%5D", "\\",
	"-%3E", "\\",
	"%20", " ",
)

// splitKey decodes a vendor key into its nesting segments.
func splitKey(key string) []string {
	key = strings.TrimSuffix(keyDelims.Replace(key), "\\")
	return strings.Split(key, "\\")
}

// insertKey places value into the nested mapping at the path encoded in
// key, creating intermediate maps as needed. A path that descends
// through an already-assigned scalar is a malformed file, not something
// to silently repair.
func insertKey(m map[string]any, key string, value any) *FormatError {
	segs := splitKey(key)
	for _, seg := range segs[:len(segs)-1] {
		sub, ok := m[seg]
		if !ok {
			sub = map[string]any{}
			m[seg] = sub
		}
		next, ok := sub.(map[string]any)
		if !ok {
			return &FormatError{Msg: "metadata key " + strconv.Quote(key) + " descends through scalar field " + strconv.Quote(seg)}
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
	return nil
}

// autoCast turns the string representation the firmware uses for typed
// settings back into a bool, int64 or float64 where it parses as one,
// and returns the string untouched otherwise.
func autoCast(s string) any {
	switch s {
	case "True", "true":
		return true
	case "False", "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
