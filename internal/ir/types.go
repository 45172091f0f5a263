package ir

// Block kind strings accepted by the graph builder (exact, case-sensitive).
const (
	KindInport    = "Inport"
	KindOutport   = "Outport"
	KindSum       = "Sum"
	KindGain      = "Gain"
	KindUnitDelay = "UnitDelay"
)

// Well-known parameter names.
const (
	ParamInputs = "Inputs" // sign pattern or input count of a Sum block
	ParamGain   = "Gain"   // multiplier of a Gain block
)

// BlockRecord is one block as read from a model description.
type BlockRecord struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind"`
	Port     bool              `json:"port"`                // exposed to the surrounding program
	PortName string            `json:"port_name,omitempty"` // user-facing name, defaults to Name
	Params   map[string]string `json:"params,omitempty"`

	// Line is the 1-based source line of the record, 0 when unknown.
	Line int `json:"-"`
}

// Endpoint names one end of a signal connection.
type Endpoint struct {
	Block string `json:"block"`
	Port  string `json:"port,omitempty"` // empty means unspecified
}

// BranchRecord is an additional destination of a line. Branches nest.
type BranchRecord struct {
	Dst      *Endpoint      `json:"dst,omitempty"`
	Branches []BranchRecord `json:"branches,omitempty"`
}

// LineRecord is one signal connection from a source to one or more destinations.
type LineRecord struct {
	Src      Endpoint       `json:"src"`
	Dst      *Endpoint      `json:"dst,omitempty"`
	Branches []BranchRecord `json:"branches,omitempty"`

	Line int `json:"-"`
}

// ModelRecords is the complete record set of one model.
type ModelRecords struct {
	Blocks []BlockRecord `json:"blocks"`
	Lines  []LineRecord  `json:"lines"`
}

// Destinations flattens the line's direct destination and every nested
// branch destination, in document order.
func (l LineRecord) Destinations() []Endpoint {
	var out []Endpoint
	if l.Dst != nil {
		out = append(out, *l.Dst)
	}
	return appendBranches(out, l.Branches)
}

func appendBranches(out []Endpoint, branches []BranchRecord) []Endpoint {
	for _, b := range branches {
		if b.Dst != nil {
			out = append(out, *b.Dst)
		}
		out = appendBranches(out, b.Branches)
	}
	return out
}
