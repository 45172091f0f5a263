package reader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/nwocg/internal/ir"
)

// Format identifies a model description format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
	FormatHCL  Format = "hcl"
)

// decodeFunc parses one document. name is used in error positions.
type decodeFunc func(data []byte, name string) (ir.ModelRecords, error)

var decoders = map[Format]decodeFunc{
	FormatXML:  decodeXML,
	FormatJSON: decodeJSON,
	FormatYAML: decodeYAML,
	FormatCUE:  decodeCUE,
	FormatHCL:  decodeHCL,
}

var extensions = map[string]Format{
	".xml":  FormatXML,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".cue":  FormatCUE,
	".hcl":  FormatHCL,
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DetectFormat maps a path onto a format by its extension (case-insensitive).
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", &LoadError{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf("unsupported model format %q (expected one of %s)", ext, strings.Join(Extensions(), ", ")),
		Path:    path,
	}
}

// ReadFile loads the model at path, choosing the format by extension.
func ReadFile(path string) (ir.ModelRecords, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return ir.ModelRecords{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ir.ModelRecords{}, &LoadError{Code: ErrCodeNotFound, Message: "model file not found", Path: path}
	}
	if err != nil {
		return ir.ModelRecords{}, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading model: %v", err), Path: path}
	}

	m, err := Decode(data, format, path)
	if err != nil {
		return ir.ModelRecords{}, err
	}
	slog.Debug("model read", "path", path, "format", format, "blocks", len(m.Blocks), "lines", len(m.Lines))
	return m, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format, name string) (ir.ModelRecords, error) {
	decode, ok := decoders[format]
	if !ok {
		return ir.ModelRecords{}, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported model format %q", format), Path: name}
	}
	return decode(data, name)
}

// parseDestination parses optional destination text; empty means none.
func parseDestination(text, path string, line int) (*ir.Endpoint, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	ep, err := ir.ParseEndpoint(text)
	if err != nil {
		return nil, parseError(path, line, "%v", err)
	}
	return &ep, nil
}

// parseSource parses source text; empty text yields an empty endpoint that
// the graph builder reports as a missing attribute.
func parseSource(text, path string, line int) (ir.Endpoint, error) {
	if strings.TrimSpace(text) == "" {
		return ir.Endpoint{}, nil
	}
	ep, err := ir.ParseEndpoint(text)
	if err != nil {
		return ir.Endpoint{}, parseError(path, line, "%v", err)
	}
	return ep, nil
}
