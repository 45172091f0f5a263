package reader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/nwocg/internal/ir"
)

//go:embed schema/model.schema.json
var modelSchemaJSON string

const modelSchemaURL = "https://nwocg.schemas.local/model.schema.json"

var (
	modelSchemaOnce sync.Once
	modelSchema     *jsonschema.Schema
	modelSchemaErr  error
)

// ModelSchema returns the compiled JSON Schema for model documents.
func ModelSchema() (*jsonschema.Schema, error) {
	modelSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(modelSchemaURL, bytes.NewReader([]byte(modelSchemaJSON))); err != nil {
			modelSchemaErr = fmt.Errorf("model schema load failed: %w", err)
			return
		}
		modelSchema, modelSchemaErr = c.Compile(modelSchemaURL)
	})
	return modelSchema, modelSchemaErr
}

// validateDocument checks a generic decoded document against the schema.
func validateDocument(doc any, path string) error {
	schema, err := ModelSchema()
	if err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &LoadError{Code: ErrCodeSchemaViolation, Message: schemaMessage(ve), Path: path}
		}
		return &LoadError{Code: ErrCodeSchemaViolation, Message: err.Error(), Path: path}
	}
	return nil
}

// schemaMessage reports the most specific cause of a validation failure.
func schemaMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}

func decodeJSON(data []byte, path string) (ir.ModelRecords, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return ir.ModelRecords{}, jsonParseError(data, path, err)
	}
	if err := validateDocument(generic, path); err != nil {
		return ir.ModelRecords{}, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ir.ModelRecords{}, jsonParseError(data, path, err)
	}
	return doc.records(path)
}

func jsonParseError(data []byte, path string, err error) *LoadError {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return parseError(path, lineAt(data, se.Offset), "%v", err)
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return parseError(path, lineAt(data, te.Offset), "%v", err)
	}
	return parseError(path, 0, "%v", err)
}

// lineAt returns the 1-based line containing byte offset off.
func lineAt(data []byte, off int64) int {
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	return bytes.Count(data[:off], []byte{'\n'}) + 1
}
