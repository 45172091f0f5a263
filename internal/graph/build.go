package graph

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/nwocg/internal/ir"
)

// Build constructs the dataflow graph from a complete record set.
//
// All blocks are materialized first so that line resolution can assume every
// id is known; then lines are resolved into edges. The first structural
// problem aborts the build: a graph with dangling references has no
// well-defined step semantics, so no partial graph is returned.
func Build(records ir.ModelRecords) (*Graph, error) {
	b := &builder{
		g: &Graph{
			blocks: make([]*Block, 0, len(records.Blocks)),
			byID:   make(map[int]Ref, len(records.Blocks)),
		},
		names:     make(map[string]*Block, len(records.Blocks)),
		sumInputs: make(map[Ref]map[int]Ref),
	}

	for _, rec := range records.Blocks {
		if err := b.addBlock(rec); err != nil {
			return nil, err
		}
	}

	edges := 0
	for _, line := range records.Lines {
		n, err := b.addLine(line)
		if err != nil {
			return nil, err
		}
		edges += n
	}

	if err := b.finish(); err != nil {
		return nil, err
	}

	slog.Debug("graph built", "blocks", b.g.Len(), "lines", len(records.Lines), "edges", edges)
	return b.g, nil
}

type builder struct {
	g     *Graph
	names map[string]*Block

	// sumInputs collects Sum connections by port until finish sorts them.
	sumInputs map[Ref]map[int]Ref
}

func (b *builder) addBlock(rec ir.BlockRecord) error {
	idText := strings.TrimSpace(rec.ID)
	if idText == "" {
		return &StructuralError{
			Code:    CodeMissingAttribute,
			Subject: fmt.Sprintf("block %q", rec.Name),
			Message: "block id is required",
			Line:    rec.Line,
		}
	}
	id, err := parseIndex(idText)
	if err != nil {
		return &MalformedNumericError{Subject: fmt.Sprintf("block %q", rec.Name), Field: "id", Text: rec.ID, Line: rec.Line, Err: err}
	}
	if prev, dup := b.g.byID[id]; dup {
		return &StructuralError{
			Code:    CodeDuplicateID,
			Subject: blockSubject(id),
			Message: fmt.Sprintf("id already used by block %q", b.g.blocks[prev].RawName),
			Line:    rec.Line,
		}
	}

	if strings.TrimSpace(rec.Name) == "" {
		return &StructuralError{Code: CodeMissingAttribute, Subject: blockSubject(id), Message: "block name is required", Line: rec.Line}
	}
	if rec.Kind == "" {
		return &StructuralError{Code: CodeMissingAttribute, Subject: blockSubject(id), Message: "block kind is required", Line: rec.Line}
	}
	kind, ok := ParseKind(rec.Kind)
	if !ok {
		return &UnknownBlockKindError{BlockID: idText, Kind: rec.Kind, Line: rec.Line}
	}

	name := SanitizeName(rec.Name)
	if !ValidIdentifier(name) {
		return &StructuralError{
			Code:    CodeInvalidName,
			Subject: blockSubject(id),
			Message: fmt.Sprintf("name %q does not form a valid identifier (sanitized: %q)", rec.Name, name),
			Line:    rec.Line,
		}
	}
	if other, dup := b.names[name]; dup {
		return &StructuralError{
			Code:    CodeDuplicateName,
			Subject: blockSubject(id),
			Message: fmt.Sprintf("name %q collides with block %d %q (both sanitize to %q)", rec.Name, other.ID, other.RawName, name),
			Line:    rec.Line,
		}
	}

	if rec.Port && kind != KindInputPort && kind != KindOutputPort {
		return &StructuralError{
			Code:    CodeExternalNonPort,
			Subject: blockSubject(id),
			Message: fmt.Sprintf("%s block cannot be an external port", kind),
			Line:    rec.Line,
		}
	}

	op, err := newOp(kind, id, rec)
	if err != nil {
		return err
	}

	blk := &Block{
		Ref:      Ref(len(b.g.blocks)),
		ID:       id,
		Name:     name,
		RawName:  rec.Name,
		External: rec.Port,
		Op:       op,
		line:     rec.Line,
	}
	if blk.External {
		blk.PortName = rec.PortName
		if blk.PortName == "" {
			blk.PortName = rec.Name
		}
	}

	b.g.blocks = append(b.g.blocks, blk)
	b.g.byID[id] = blk.Ref
	b.names[name] = blk
	return nil
}

// newOp parses the kind-specific parameters of a block record.
func newOp(kind Kind, id int, rec ir.BlockRecord) (Op, error) {
	switch kind {
	case KindInputPort:
		return &InputPort{}, nil
	case KindOutputPort:
		return &OutputPort{Input: NoRef}, nil
	case KindUnitDelay:
		return &UnitDelay{Input: NoRef}, nil
	case KindSum:
		signs, err := ParseSigns(rec.Params[ir.ParamInputs])
		if err != nil {
			return nil, &StructuralError{Code: CodeInvalidParameter, Subject: blockSubject(id), Message: err.Error(), Line: rec.Line}
		}
		return &Sum{Signs: signs}, nil
	case KindGain:
		gain := &Gain{Factor: 1, Input: NoRef}
		text, ok := rec.Params[ir.ParamGain]
		if ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
				err = fmt.Errorf("non-finite value")
			}
			if err != nil {
				return nil, &MalformedNumericError{Subject: blockSubject(id), Field: ir.ParamGain, Text: text, Line: rec.Line, Err: err}
			}
			gain.Factor = f
		}
		return gain, nil
	}
	return nil, &UnknownBlockKindError{BlockID: strconv.Itoa(id), Kind: rec.Kind, Line: rec.Line}
}

// addLine resolves one line and its branches. Returns the number of edges added.
func (b *builder) addLine(line ir.LineRecord) (int, error) {
	src, err := b.resolve(line.Src, "source", line.Line)
	if err != nil {
		return 0, err
	}

	dsts := line.Destinations()
	if len(dsts) == 0 {
		slog.Debug("line without destination ignored", "src", src.ID)
		return 0, nil
	}

	for _, ep := range dsts {
		dst, err := b.resolve(ep, "destination", line.Line)
		if err != nil {
			return 0, err
		}
		port, err := parsePort(ep, line.Line)
		if err != nil {
			return 0, err
		}
		if err := b.connect(src, dst, port, line.Line); err != nil {
			return 0, err
		}
		src.Outputs = append(src.Outputs, dst.Ref)
	}
	return len(dsts), nil
}

func (b *builder) resolve(ep ir.Endpoint, role string, line int) (*Block, error) {
	text := strings.TrimSpace(ep.Block)
	if text == "" {
		return nil, &StructuralError{Code: CodeMissingAttribute, Subject: "line", Message: fmt.Sprintf("line %s id is required", role), Line: line}
	}
	id, err := parseIndex(text)
	if err != nil {
		return nil, &MalformedNumericError{Subject: "line " + role, Field: "id", Text: ep.Block, Line: line, Err: err}
	}
	blk, ok := b.g.Lookup(id)
	if !ok {
		return nil, &StructuralError{
			Code:    CodeUnresolvedRef,
			Subject: blockSubject(id),
			Message: fmt.Sprintf("line %s references unknown block id %d", role, id),
			Line:    line,
		}
	}
	return blk, nil
}

func parsePort(ep ir.Endpoint, line int) (int, error) {
	text := strings.TrimSpace(ep.Port)
	if text == "" {
		return 0, nil
	}
	port, err := parseIndex(text)
	if err != nil {
		return 0, &MalformedNumericError{Subject: "line destination " + ep.Block, Field: "port", Text: ep.Port, Line: line, Err: err}
	}
	return port, nil
}

// connect registers src as an input of dst.
func (b *builder) connect(src, dst *Block, port, line int) error {
	dup := func(msg string) error {
		return &StructuralError{Code: CodeDuplicatePort, Subject: blockSubject(dst.ID), Message: msg, Line: line}
	}

	switch op := dst.Op.(type) {
	case *Sum:
		ports := b.sumInputs[dst.Ref]
		if ports == nil {
			ports = make(map[int]Ref)
			b.sumInputs[dst.Ref] = ports
		}
		if prev, taken := ports[port]; taken {
			return dup(fmt.Sprintf("input port %d already connected to block %d", port, b.g.blocks[prev].ID))
		}
		ports[port] = src.Ref
	case *Gain:
		if op.Input != NoRef {
			if op.Port == port {
				return dup(fmt.Sprintf("input port %d already connected to block %d", port, b.g.blocks[op.Input].ID))
			}
			return &StructuralError{
				Code:    CodeMultiInputGain,
				Subject: blockSubject(dst.ID),
				Message: fmt.Sprintf("gain accepts a single input, got ports %d and %d", op.Port, port),
				Line:    line,
			}
		}
		op.Input, op.Port = src.Ref, port
	case *UnitDelay:
		if op.Input != NoRef {
			return dup(fmt.Sprintf("unit delay input already connected to block %d", b.g.blocks[op.Input].ID))
		}
		op.Input = src.Ref
	case *OutputPort:
		if op.Input != NoRef {
			return dup(fmt.Sprintf("output port already connected to block %d", b.g.blocks[op.Input].ID))
		}
		op.Input = src.Ref
	case *InputPort:
		return &StructuralError{
			Code:    CodeInputDestination,
			Subject: blockSubject(dst.ID),
			Message: fmt.Sprintf("input port cannot be driven by block %d", src.ID),
			Line:    line,
		}
	}
	return nil
}

// finish sorts Sum inputs by port and checks them against the sign pattern.
func (b *builder) finish() error {
	for _, blk := range b.g.blocks {
		sum, ok := blk.Op.(*Sum)
		if !ok {
			continue
		}
		ports := b.sumInputs[blk.Ref]
		sum.Inputs = make([]PortInput, 0, len(ports))
		for port, src := range ports {
			sum.Inputs = append(sum.Inputs, PortInput{Port: port, Src: src})
		}
		sort.Slice(sum.Inputs, func(i, j int) bool {
			return sum.Inputs[i].Port < sum.Inputs[j].Port
		})

		if sum.Signs == "" {
			continue
		}
		if len(sum.Signs) != len(sum.Inputs) {
			return &StructuralError{
				Code:    CodeSignMismatch,
				Subject: blockSubject(blk.ID),
				Message: fmt.Sprintf("sign pattern %q has %d signs but %d inputs are connected", sum.Signs, len(sum.Signs), len(sum.Inputs)),
				Line:    blk.line,
			}
		}
		for _, in := range sum.Inputs {
			if in.Port < 1 || in.Port > len(sum.Signs) {
				return &StructuralError{
					Code:    CodeSignMismatch,
					Subject: blockSubject(blk.ID),
					Message: fmt.Sprintf("input port %d has no sign in pattern %q", in.Port, sum.Signs),
					Line:    blk.line,
				}
			}
		}
	}
	return nil
}

// parseIndex parses a non-negative decimal id or port.
func parseIndex(text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
