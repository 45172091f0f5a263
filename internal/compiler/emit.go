package compiler

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/nwocg/internal/graph"
)

const indent = "    "

// DefaultPrefix namespaces generated symbols when the caller supplies none.
const DefaultPrefix = "nwocg"

// SourceFileName returns the name of the generated C source for prefix.
func SourceFileName(prefix string) string {
	return prefix + ".c"
}

// HeaderFileName returns the name of the companion header for prefix.
func HeaderFileName(prefix string) string {
	return prefix + "_run.h"
}

// EmitSource renders the generated C source: header inclusion, state
// storage, initializer, step function and external port table.
func EmitSource(g *graph.Graph, p *Plan, prefix string) []byte {
	e := &emitter{g: g, prefix: prefix}
	e.includes()
	e.state()
	e.init()
	e.step(p)
	e.portTable()
	return e.buf.Bytes()
}

type emitter struct {
	buf    bytes.Buffer
	g      *graph.Graph
	prefix string
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// slot is the expression naming a block's storage.
func (e *emitter) slot(r graph.Ref) string {
	return e.prefix + "." + e.g.Block(r).Name
}

func (e *emitter) includes() {
	e.line("#include %q", HeaderFileName(e.prefix))
	e.line("#include <math.h>")
	e.line("")
}

// state declares one slot per block, reachable or not.
func (e *emitter) state() {
	e.line("static struct")
	e.line("{")
	for _, b := range e.g.Blocks() {
		e.line("%sdouble %s;", indent, b.Name)
	}
	e.line("} %s;", e.prefix)
	e.line("")
}

// init zeroes unit delay state. Other slots are owned by the caller.
func (e *emitter) init() {
	e.line("void %s_generated_init()", e.prefix)
	e.line("{")
	for _, b := range e.g.Blocks() {
		if b.Kind() == graph.KindUnitDelay {
			e.line("%s%s = 0;", indent, e.slot(b.Ref))
		}
	}
	e.line("}")
	e.line("")
}

func (e *emitter) step(p *Plan) {
	e.line("void %s_generated_step()", e.prefix)
	e.line("{")
	for _, r := range p.Order {
		e.line("%s%s = %s;", indent, e.slot(r), e.expression(r))
	}
	for _, r := range p.Rotating {
		e.line("%sdouble %s = %s;", indent, nextName(e.g.Block(r)), e.delaySource(r))
	}
	for _, r := range p.Delays {
		if e.delayInput(r) == graph.NoRef {
			continue
		}
		e.line("%s%s = %s;", indent, e.slot(r), e.delaySource(r))
	}
	for _, r := range p.Rotating {
		e.line("%s%s = %s;", indent, e.slot(r), nextName(e.g.Block(r)))
	}
	e.line("}")
	e.line("")
}

// expression renders the right-hand side of a scheduled block's statement.
// Unconnected inputs contribute zero.
func (e *emitter) expression(r graph.Ref) string {
	switch op := e.g.Block(r).Op.(type) {
	case *graph.Sum:
		if len(op.Inputs) == 0 {
			return "0"
		}
		var b strings.Builder
		for i, in := range op.Inputs {
			sign := op.Sign(in.Port)
			switch {
			case i == 0 && sign == '-':
				// a negated first input keeps its sign as unary minus
				b.WriteString("-")
			case i > 0:
				b.WriteString(" " + string(sign) + " ")
			}
			b.WriteString(e.slot(in.Src))
		}
		return b.String()
	case *graph.Gain:
		if op.Input == graph.NoRef {
			return "0"
		}
		return e.slot(op.Input) + " * " + FormatFactor(op.Factor)
	case *graph.OutputPort:
		if op.Input == graph.NoRef {
			return "0"
		}
		return e.slot(op.Input)
	case *graph.InputPort, *graph.UnitDelay:
		// never in Plan.Order
	}
	return "0"
}

func (e *emitter) delayInput(r graph.Ref) graph.Ref {
	return e.g.Block(r).Op.(*graph.UnitDelay).Input
}

// delaySource is the slot a delay copies at the end of the step. An
// unconnected delay keeps its state.
func (e *emitter) delaySource(r graph.Ref) string {
	in := e.delayInput(r)
	if in == graph.NoRef {
		return e.slot(r)
	}
	return e.slot(in)
}

func nextName(b *graph.Block) string {
	return b.Name + "_next"
}

func (e *emitter) portTable() {
	e.line("static const %s_ExtPort", e.prefix)
	e.line("%sext_ports[] =", indent)
	e.line("{")
	for _, b := range e.g.Blocks() {
		if !b.External {
			continue
		}
		direction := 0
		if b.Kind() == graph.KindInputPort {
			direction = 1
		}
		e.line("%s{ %s, &%s, %d },", indent, cString(b.PortName), e.slot(b.Ref), direction)
	}
	e.line("%s{ 0, 0, 0 },", indent)
	e.line("};")
	e.line("")
	e.line("const %s_ExtPort * const", e.prefix)
	e.line("%s%s_generated_ext_ports = ext_ports;", indent, e.prefix)
	e.line("")
	e.line("const size_t")
	e.line("%s%s_generated_ext_ports_size = sizeof(ext_ports);", indent, e.prefix)
}

// FormatFactor prints a gain with the shortest text that round-trips the float64.
func FormatFactor(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// cString quotes s as a C string literal. Bytes outside printable ASCII are
// written as octal escapes.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
