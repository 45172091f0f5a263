package reader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nwocg/internal/ir"
)

func decodeYAML(data []byte, path string) (ir.ModelRecords, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return ir.ModelRecords{}, parseError(path, 0, "%v", err)
	}
	if generic == nil {
		return ir.ModelRecords{}, &LoadError{Code: ErrCodeSchemaViolation, Message: "empty model document", Path: path}
	}
	if err := validateDocument(generic, path); err != nil {
		return ir.ModelRecords{}, err
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return ir.ModelRecords{}, parseError(path, 0, "%v", err)
	}
	return doc.records(path)
}
