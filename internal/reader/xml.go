package reader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/roach88/nwocg/internal/ir"
)

type xmlParam struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

type xmlBlock struct {
	Kind   string     `xml:"BlockType,attr"`
	Name   string     `xml:"Name,attr"`
	SID    string     `xml:"SID,attr"`
	Params []xmlParam `xml:"P"`
	Ports  []xmlPort  `xml:"Port"`
}

type xmlPort struct {
	Params []xmlParam `xml:"P"`
}

type xmlLine struct {
	Params   []xmlParam  `xml:"P"`
	Branches []xmlBranch `xml:"Branch"`
}

type xmlBranch struct {
	Params   []xmlParam  `xml:"P"`
	Branches []xmlBranch `xml:"Branch"`
}

func param(params []xmlParam, name string) string {
	for _, p := range params {
		if p.Name == name {
			return strings.TrimSpace(p.Value)
		}
	}
	return ""
}

// decodeXML reads the block-diagram markup. Blocks and lines are direct
// children of the <System> root; anything else is skipped.
func decodeXML(data []byte, path string) (ir.ModelRecords, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var m ir.ModelRecords
	depth := 0
	sawRoot := false

	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return ir.ModelRecords{}, parseError(path, se.Line, "%s", se.Msg)
			}
			return ir.ModelRecords{}, parseError(path, line, "%v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != "System" {
					return ir.ModelRecords{}, parseError(path, line, "root element is <%s>, expected <System>", t.Name.Local)
				}
				sawRoot = true
				depth++
				continue
			}
			if depth > 1 {
				depth++
				continue
			}
			switch t.Name.Local {
			case "Block":
				var xb xmlBlock
				if err := dec.DecodeElement(&xb, &t); err != nil {
					return ir.ModelRecords{}, parseError(path, line, "block: %v", err)
				}
				m.Blocks = append(m.Blocks, xb.record(line))
			case "Line":
				var xl xmlLine
				if err := dec.DecodeElement(&xl, &t); err != nil {
					return ir.ModelRecords{}, parseError(path, line, "line: %v", err)
				}
				rec, err := xl.record(path, line)
				if err != nil {
					return ir.ModelRecords{}, err
				}
				m.Lines = append(m.Lines, rec)
			default:
				if err := dec.Skip(); err != nil {
					return ir.ModelRecords{}, parseError(path, line, "%v", err)
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return ir.ModelRecords{}, parseError(path, 0, "no <System> root element")
	}
	return m, nil
}

// record converts the markup. A block is an external port when it carries a
// <Port> child with a named parameter; the port's "Name" parameter, when
// present, is the user-facing name.
func (xb xmlBlock) record(line int) ir.BlockRecord {
	rec := ir.BlockRecord{
		ID:   strings.TrimSpace(xb.SID),
		Name: xb.Name,
		Kind: xb.Kind,
		Line: line,
	}
	for _, p := range xb.Params {
		if p.Name == "" {
			continue
		}
		if rec.Params == nil {
			rec.Params = make(map[string]string)
		}
		rec.Params[p.Name] = strings.TrimSpace(p.Value)
	}
	for _, port := range xb.Ports {
		for _, p := range port.Params {
			if p.Name != "" && strings.TrimSpace(p.Value) != "" {
				rec.Port = true
				break
			}
		}
		if name := param(port.Params, "Name"); name != "" && rec.PortName == "" {
			rec.PortName = name
		}
	}
	if !rec.Port {
		rec.PortName = ""
	}
	return rec
}

func (xl xmlLine) record(path string, line int) (ir.LineRecord, error) {
	src, err := parseSource(param(xl.Params, "Src"), path, line)
	if err != nil {
		return ir.LineRecord{}, err
	}
	dst, err := parseDestination(param(xl.Params, "Dst"), path, line)
	if err != nil {
		return ir.LineRecord{}, err
	}
	branches, err := xmlBranches(xl.Branches, path, line)
	if err != nil {
		return ir.LineRecord{}, err
	}
	return ir.LineRecord{Src: src, Dst: dst, Branches: branches, Line: line}, nil
}

func xmlBranches(in []xmlBranch, path string, line int) ([]ir.BranchRecord, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]ir.BranchRecord, 0, len(in))
	for _, b := range in {
		dst, err := parseDestination(param(b.Params, "Dst"), path, line)
		if err != nil {
			return nil, err
		}
		nested, err := xmlBranches(b.Branches, path, line)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.BranchRecord{Dst: dst, Branches: nested})
	}
	return out, nil
}
