package export

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/bopaquin/convert-trace/internal/trs"
)

// Stdlib-compatible config sorts map keys, so sidecar bytes are stable
// across runs.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

type sidecar struct {
	Header   map[string]any `json:"header"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WriteJSON writes the header fields and the metadata mapping as an
// indented JSON document.
func WriteJSON(w io.Writer, tf *trs.TraceFile) error {
	doc := sidecar{
		Header:   tf.Header.Fields(),
		Metadata: tf.Metadata,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
