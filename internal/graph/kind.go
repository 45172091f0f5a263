package graph

import "github.com/roach88/nwocg/internal/ir"

// Kind enumerates the supported block kinds.
type Kind int

const (
	KindInputPort Kind = iota + 1
	KindOutputPort
	KindSum
	KindGain
	KindUnitDelay
)

var kindNames = map[Kind]string{
	KindInputPort:  ir.KindInport,
	KindOutputPort: ir.KindOutport,
	KindSum:        ir.KindSum,
	KindGain:       ir.KindGain,
	KindUnitDelay:  ir.KindUnitDelay,
}

// String returns the model-format spelling of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// ParseKind maps a kind string onto the enumeration by exact match.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// IsOperation reports whether blocks of this kind compute a value from inputs.
func (k Kind) IsOperation() bool {
	return k == KindSum || k == KindGain
}

// Op is the kind-specific payload of a block.
type Op interface {
	Kind() Kind
}

// InputPort is written by the surrounding program before each step.
type InputPort struct{}

// OutputPort copies its single input.
type OutputPort struct {
	Input Ref
}

// Sum adds or subtracts its inputs.
type Sum struct {
	// Signs holds one '+' or '-' per input port; empty means all inputs add.
	Signs string
	// Inputs is sorted by port.
	Inputs []PortInput
}

// PortInput is one connected input port.
type PortInput struct {
	Port int
	Src  Ref
}

// Gain multiplies its single input by Factor.
type Gain struct {
	Factor float64
	Port   int
	Input  Ref
}

// UnitDelay outputs the value its input had in the previous step.
type UnitDelay struct {
	Input Ref
}

func (*InputPort) Kind() Kind  { return KindInputPort }
func (*OutputPort) Kind() Kind { return KindOutputPort }
func (*Sum) Kind() Kind        { return KindSum }
func (*Gain) Kind() Kind       { return KindGain }
func (*UnitDelay) Kind() Kind  { return KindUnitDelay }

// Sign returns the sign applied to the given input port.
func (s *Sum) Sign(port int) byte {
	if s.Signs == "" || port < 1 || port > len(s.Signs) {
		return '+'
	}
	return s.Signs[port-1]
}
