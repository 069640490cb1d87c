// Package export serializes a decoded TraceFile into the output formats:
// a CSV table of the trace samples and a JSON sidecar for the header and
// auxiliary metadata.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bopaquin/convert-trace/internal/trs"
)

// WriteCSV writes one row per sample index. Column 0 is the x-axis
// ("frequency"): the explicit axis of the first trace carrying one, or
// the frequency grid derived from the sweep bounds. Each real trace
// contributes one column named after it; complex traces contribute two,
// suffixed _real/_imag or _mag/_phase. The layout is stable across runs.
func WriteCSV(w io.Writer, tf *trs.TraceFile) error {
	cw := csv.NewWriter(w)

	header := []string{"frequency"}
	for i := range tf.Traces {
		t := &tf.Traces[i]
		switch t.Format {
		case trs.FormatReal:
			header = append(header, t.Name)
		case trs.FormatRealImag:
			header = append(header, t.Name+"_real", t.Name+"_imag")
		case trs.FormatMagPhase:
			header = append(header, t.Name+"_mag", t.Name+"_phase")
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if len(tf.Traces) == 0 {
		cw.Flush()
		return cw.Error()
	}

	points := tf.Traces[0].Points()
	var axis []float64
	for i := range tf.Traces {
		t := &tf.Traces[i]
		if t.Points() != points {
			return fmt.Errorf("cannot tabulate traces of different lengths: %q has %d points, %q has %d",
				tf.Traces[0].Name, points, t.Name, t.Points())
		}
		if axis == nil && t.Axis != nil {
			axis = t.Axis
		}
	}
	if axis == nil {
		axis = tf.FrequencyAxis(points)
	}

	row := make([]string, 0, len(header))
	for i := 0; i < points; i++ {
		row = row[:0]
		row = append(row, formatFloat(axis[i]))
		for j := range tf.Traces {
			t := &tf.Traces[j]
			a, b := t.Point(i)
			row = append(row, formatFloat(a))
			if t.Format.Components() == 2 {
				row = append(row, formatFloat(b))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat keeps the full float64 precision: the shortest decimal
// form that parses back to the same bits.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
