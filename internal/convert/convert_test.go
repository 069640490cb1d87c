package convert

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bopaquin/convert-trace/internal/trs"
)

func writeCapture(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	tf := &trs.TraceFile{
		Header: trs.Header{
			Model:     "RSA3045N",
			Firmware:  "00.01.05",
			StartFreq: 1e6,
			StopFreq:  2e9,
		},
		Traces: []trs.Trace{
			{Name: "S11", Format: trs.FormatRealImag, Samples: []float64{0.5, -0.25, 0.75, 0.125}},
		},
		Metadata: map[string]any{
			"Cal": map[string]any{"State": true},
		},
	}
	buf, err := trs.Encode(tf)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, buf, 0o644))
}

func TestRunWritesCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCapture(t, fs, "sweep.trs")

	res, err := Run(fs, zap.NewNop(), Options{Input: "sweep.trs"})
	require.NoError(t, err)
	assert.Equal(t, "sweep.csv", res.CSVPath)
	assert.Empty(t, res.JSONPath)
	assert.Equal(t, 1, res.Traces)

	csv, err := afero.ReadFile(fs, "sweep.csv")
	require.NoError(t, err)
	assert.Contains(t, string(csv), "frequency,S11_real,S11_imag\n")

	exists, err := afero.Exists(fs, "sweep.json")
	require.NoError(t, err)
	assert.False(t, exists, "sidecar written without being requested")
}

func TestRunWritesSidecarOnRequest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCapture(t, fs, "sweep.trs")

	res, err := Run(fs, zap.NewNop(), Options{Input: "sweep.trs", Sidecar: true})
	require.NoError(t, err)
	assert.Equal(t, "sweep.json", res.JSONPath)

	sidecar, err := afero.ReadFile(fs, "sweep.json")
	require.NoError(t, err)
	assert.Contains(t, string(sidecar), `"model": "RSA3045N"`)
	assert.Contains(t, string(sidecar), `"State": true`)
}

func TestRunOutputBase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCapture(t, fs, "sweep.trs")

	res, err := Run(fs, zap.NewNop(), Options{Input: "sweep.trs", OutputBase: "out/converted", Sidecar: true})
	require.NoError(t, err)
	assert.Equal(t, "out/converted.csv", res.CSVPath)
	assert.Equal(t, "out/converted.json", res.JSONPath)
}

func TestRunDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCapture(t, fs, "sweep.trs")

	_, err := Run(fs, zap.NewNop(), Options{Input: "sweep.trs", OutputBase: "a", Sidecar: true})
	require.NoError(t, err)
	_, err = Run(fs, zap.NewNop(), Options{Input: "sweep.trs", OutputBase: "b", Sidecar: true})
	require.NoError(t, err)

	for _, ext := range []string{".csv", ".json"} {
		a, err := afero.ReadFile(fs, "a"+ext)
		require.NoError(t, err)
		b, err := afero.ReadFile(fs, "b"+ext)
		require.NoError(t, err)
		assert.Equal(t, a, b, "outputs for %s differ between runs", ext)
	}
}

func TestRunMissingInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Run(fs, zap.NewNop(), Options{Input: "nope.trs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.trs")
}

func TestRunDecodeErrorWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.trs", []byte("not a capture"), 0o644))

	_, err := Run(fs, zap.NewNop(), Options{Input: "bad.trs"})
	var ferr *trs.FormatError
	require.ErrorAs(t, err, &ferr)

	exists, err := afero.Exists(fs, "bad.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunUnsupportedVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCapture(t, fs, "sweep.trs")
	buf, err := afero.ReadFile(fs, "sweep.trs")
	require.NoError(t, err)
	buf[4] = 9
	require.NoError(t, afero.WriteFile(fs, "sweep.trs", buf, 0o644))

	_, err = Run(fs, zap.NewNop(), Options{Input: "sweep.trs"})
	var verr *trs.UnsupportedVersionError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, uint16(9), verr.Version)
}
