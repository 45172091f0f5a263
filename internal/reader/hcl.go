package reader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/roach88/nwocg/internal/ir"
)

// hclModelSchema lists the top-level blocks of an HCL model.
var hclModelSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "block", LabelNames: []string{"kind", "name"}},
		{Type: "line"},
	},
}

type hclBlock struct {
	ID       string    `hcl:"id,attr"`
	Port     bool      `hcl:"port,optional"`
	PortName string    `hcl:"port_name,optional"`
	Params   cty.Value `hcl:"params,optional"`
}

type hclLine struct {
	Src      string       `hcl:"src,attr"`
	Dst      string       `hcl:"dst,optional"`
	Branches []*hclBranch `hcl:"branch,block"`
}

type hclBranch struct {
	Dst      string       `hcl:"dst,optional"`
	Branches []*hclBranch `hcl:"branch,block"`
}

func decodeHCL(data []byte, path string) (ir.ModelRecords, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return ir.ModelRecords{}, hclError(path, diags)
	}

	content, diags := file.Body.Content(hclModelSchema)
	if diags.HasErrors() {
		return ir.ModelRecords{}, hclError(path, diags)
	}

	var m ir.ModelRecords
	for _, blk := range content.Blocks {
		line := blk.DefRange.Start.Line
		switch blk.Type {
		case "block":
			rec, err := hclBlockRecord(blk, path)
			if err != nil {
				return ir.ModelRecords{}, err
			}
			m.Blocks = append(m.Blocks, rec)
		case "line":
			var hl hclLine
			if diags := gohcl.DecodeBody(blk.Body, nil, &hl); diags.HasErrors() {
				return ir.ModelRecords{}, hclError(path, diags)
			}
			src, err := parseSource(hl.Src, path, line)
			if err != nil {
				return ir.ModelRecords{}, err
			}
			dst, err := parseDestination(hl.Dst, path, line)
			if err != nil {
				return ir.ModelRecords{}, err
			}
			branches, err := hclBranches(hl.Branches, path, line)
			if err != nil {
				return ir.ModelRecords{}, err
			}
			m.Lines = append(m.Lines, ir.LineRecord{Src: src, Dst: dst, Branches: branches, Line: line})
		}
	}
	return m, nil
}

func hclBlockRecord(blk *hcl.Block, path string) (ir.BlockRecord, error) {
	var hb hclBlock
	if diags := gohcl.DecodeBody(blk.Body, nil, &hb); diags.HasErrors() {
		return ir.BlockRecord{}, hclError(path, diags)
	}
	kind, name := blk.Labels[0], blk.Labels[1]
	line := blk.DefRange.Start.Line

	params, err := hclParams(hb.Params)
	if err != nil {
		return ir.BlockRecord{}, parseError(path, line, "block %q params: %v", name, err)
	}
	return ir.BlockRecord{
		ID:       hb.ID,
		Name:     name,
		Kind:     kind,
		Port:     hb.Port,
		PortName: hb.PortName,
		Params:   params,
		Line:     line,
	}, nil
}

// hclParams converts a params object to text values. Numbers keep their
// shortest decimal form.
func hclParams(v cty.Value) (map[string]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("params must be known values")
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", v.Type().FriendlyName())
	}
	if v.LengthInt() == 0 {
		return nil, nil
	}

	asMap, err := convert.Convert(v, cty.Map(cty.String))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, asMap.LengthInt())
	for k, val := range asMap.AsValueMap() {
		if val.IsNull() {
			return nil, fmt.Errorf("param %q is null", k)
		}
		out[k] = val.AsString()
	}
	return out, nil
}

func hclBranches(in []*hclBranch, path string, line int) ([]ir.BranchRecord, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]ir.BranchRecord, 0, len(in))
	for _, b := range in {
		dst, err := parseDestination(b.Dst, path, line)
		if err != nil {
			return nil, err
		}
		nested, err := hclBranches(b.Branches, path, line)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.BranchRecord{Dst: dst, Branches: nested})
	}
	return out, nil
}

// hclError reports the first error diagnostic with its position.
func hclError(path string, diags hcl.Diagnostics) *LoadError {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if d.Subject != nil {
			line = d.Subject.Start.Line
		}
		return parseError(path, line, "%s: %s", d.Summary, d.Detail)
	}
	return parseError(path, 0, "%v", diags)
}
