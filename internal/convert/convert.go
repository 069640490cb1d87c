// Package convert runs the read → decode → serialize → write pipeline
// for one capture file.
package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bopaquin/convert-trace/internal/export"
	"github.com/bopaquin/convert-trace/internal/trs"
)

// Options selects what one conversion produces.
type Options struct {
	// Input is the path of the .trs capture to convert.
	Input string

	// OutputBase, when set, is the extension-less base path for the
	// output files; otherwise the input path with its extension
	// stripped is used.
	OutputBase string

	// Sidecar asks for the .json header/metadata sidecar next to the
	// .csv file.
	Sidecar bool
}

// Result reports what a conversion wrote.
type Result struct {
	CSVPath  string
	JSONPath string
	Traces   int
}

// Run converts one capture. It either writes the full set of requested
// output files or returns an error having written nothing.
func Run(fs afero.Fs, log *zap.Logger, opts Options) (*Result, error) {
	buf, err := afero.ReadFile(fs, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	log.Debug("read capture", zap.String("path", opts.Input), zap.Int("bytes", len(buf)))

	var decodeOpts []trs.Option
	if opts.Sidecar {
		decodeOpts = append(decodeOpts, trs.WithMetadata())
	}
	tf, err := trs.Decode(buf, decodeOpts...)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", opts.Input, err)
	}
	log.Debug("decoded capture",
		zap.String("model", tf.Header.Model),
		zap.String("firmware", tf.Header.Firmware),
		zap.Int("traces", len(tf.Traces)))

	base := opts.OutputBase
	if base == "" {
		base = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input))
	}
	res := &Result{CSVPath: base + ".csv", Traces: len(tf.Traces)}

	var csvBuf bytes.Buffer
	if err := export.WriteCSV(&csvBuf, tf); err != nil {
		return nil, fmt.Errorf("serialize %s: %w", res.CSVPath, err)
	}
	var jsonBuf bytes.Buffer
	if opts.Sidecar {
		res.JSONPath = base + ".json"
		if err := export.WriteJSON(&jsonBuf, tf); err != nil {
			return nil, fmt.Errorf("serialize %s: %w", res.JSONPath, err)
		}
	}

	// Both outputs serialize in memory before the first file is
	// created, so a serialization failure writes nothing.
	if err := afero.WriteFile(fs, res.CSVPath, csvBuf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.CSVPath, err)
	}
	log.Debug("wrote csv", zap.String("path", res.CSVPath))
	if opts.Sidecar {
		if err := afero.WriteFile(fs, res.JSONPath, jsonBuf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", res.JSONPath, err)
		}
		log.Debug("wrote json sidecar", zap.String("path", res.JSONPath))
	}
	return res, nil
}
