package reader

import (
	"encoding/json"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/nwocg/internal/ir"
)

// decodeCUE evaluates the file and reads the concrete result as a JSON
// document, so CUE models may use definitions, defaults and comprehensions.
func decodeCUE(data []byte, path string) (ir.ModelRecords, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return ir.ModelRecords{}, cueError(path, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return ir.ModelRecords{}, cueError(path, err)
	}

	out, err := v.MarshalJSON()
	if err != nil {
		return ir.ModelRecords{}, cueError(path, err)
	}
	if !v.LookupPath(cue.ParsePath("blocks")).Exists() {
		return ir.ModelRecords{}, &LoadError{Code: ErrCodeSchemaViolation, Message: "no blocks field", Path: path}
	}

	var generic any
	if err := json.Unmarshal(out, &generic); err != nil {
		return ir.ModelRecords{}, parseError(path, 0, "%v", err)
	}
	if err := validateDocument(generic, path); err != nil {
		return ir.ModelRecords{}, err
	}

	var doc document
	if err := json.Unmarshal(out, &doc); err != nil {
		return ir.ModelRecords{}, parseError(path, 0, "%v", err)
	}
	return doc.records(path)
}

// cueError keeps the position of the first CUE error when it has one.
func cueError(path string, err error) *LoadError {
	line := 0
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		if pos := errs[0].Position(); pos.IsValid() {
			line = pos.Line()
		}
	}
	return parseError(path, line, "%v", err)
}
