package reader

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nwocg/internal/ir"
)

// scalar keeps the source text of a number or string value.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	switch {
	case text == "null":
		return nil
	case strings.HasPrefix(text, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = scalar(str)
	default:
		*s = scalar(text)
	}
	return nil
}

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	*s = scalar(n.Value)
	return nil
}

// document is the shape shared by the JSON, YAML and CUE formats.
type document struct {
	Blocks []docBlock `json:"blocks" yaml:"blocks"`
	Lines  []docLine  `json:"lines" yaml:"lines"`
}

type docBlock struct {
	ID       scalar            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Kind     string            `json:"kind" yaml:"kind"`
	Port     bool              `json:"port" yaml:"port"`
	PortName string            `json:"port_name" yaml:"port_name"`
	Params   map[string]scalar `json:"params" yaml:"params"`

	line int
}

func (b *docBlock) UnmarshalYAML(n *yaml.Node) error {
	type plain docBlock
	if err := n.Decode((*plain)(b)); err != nil {
		return err
	}
	b.line = n.Line
	return nil
}

type docBranch struct {
	Dst      scalar      `json:"dst" yaml:"dst"`
	Branches []docBranch `json:"branches" yaml:"branches"`
}

type docLine struct {
	Src      scalar      `json:"src" yaml:"src"`
	Dst      scalar      `json:"dst" yaml:"dst"`
	Branches []docBranch `json:"branches" yaml:"branches"`

	line int
}

func (l *docLine) UnmarshalYAML(n *yaml.Node) error {
	type plain docLine
	if err := n.Decode((*plain)(l)); err != nil {
		return err
	}
	l.line = n.Line
	return nil
}

// records converts a decoded document, parsing endpoint text.
func (d *document) records(path string) (ir.ModelRecords, error) {
	m := ir.ModelRecords{
		Blocks: make([]ir.BlockRecord, 0, len(d.Blocks)),
		Lines:  make([]ir.LineRecord, 0, len(d.Lines)),
	}
	for _, b := range d.Blocks {
		rec := ir.BlockRecord{
			ID:       string(b.ID),
			Name:     b.Name,
			Kind:     b.Kind,
			Port:     b.Port,
			PortName: b.PortName,
			Line:     b.line,
		}
		if len(b.Params) > 0 {
			rec.Params = make(map[string]string, len(b.Params))
			for k, v := range b.Params {
				rec.Params[k] = string(v)
			}
		}
		m.Blocks = append(m.Blocks, rec)
	}

	for _, l := range d.Lines {
		src, err := parseSource(string(l.Src), path, l.line)
		if err != nil {
			return ir.ModelRecords{}, err
		}
		dst, err := parseDestination(string(l.Dst), path, l.line)
		if err != nil {
			return ir.ModelRecords{}, err
		}
		branches, err := docBranches(l.Branches, path, l.line)
		if err != nil {
			return ir.ModelRecords{}, err
		}
		m.Lines = append(m.Lines, ir.LineRecord{Src: src, Dst: dst, Branches: branches, Line: l.line})
	}
	return m, nil
}

func docBranches(in []docBranch, path string, line int) ([]ir.BranchRecord, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]ir.BranchRecord, 0, len(in))
	for _, b := range in {
		dst, err := parseDestination(string(b.Dst), path, line)
		if err != nil {
			return nil, err
		}
		nested, err := docBranches(b.Branches, path, line)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.BranchRecord{Dst: dst, Branches: nested})
	}
	return out, nil
}
