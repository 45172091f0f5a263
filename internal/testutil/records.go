// Package testutil provides record-set fixtures shared by package tests.
package testutil

import (
	"strconv"

	"github.com/roach88/nwocg/internal/ir"
)

// ModelBuilder assembles an ir.ModelRecords fluently.
type ModelBuilder struct {
	m ir.ModelRecords
}

// NewModel starts an empty record set.
func NewModel() *ModelBuilder {
	return &ModelBuilder{}
}

// Block appends a raw block record.
func (b *ModelBuilder) Block(rec ir.BlockRecord) *ModelBuilder {
	b.m.Blocks = append(b.m.Blocks, rec)
	return b
}

// Inport appends an external input port.
func (b *ModelBuilder) Inport(id int, name string) *ModelBuilder {
	return b.Block(ir.BlockRecord{ID: strconv.Itoa(id), Name: name, Kind: ir.KindInport, Port: true})
}

// Outport appends an external output port.
func (b *ModelBuilder) Outport(id int, name string) *ModelBuilder {
	return b.Block(ir.BlockRecord{ID: strconv.Itoa(id), Name: name, Kind: ir.KindOutport, Port: true})
}

// Sum appends a Sum block; signs may be empty.
func (b *ModelBuilder) Sum(id int, name, signs string) *ModelBuilder {
	rec := ir.BlockRecord{ID: strconv.Itoa(id), Name: name, Kind: ir.KindSum}
	if signs != "" {
		rec.Params = map[string]string{ir.ParamInputs: signs}
	}
	return b.Block(rec)
}

// Gain appends a Gain block with the given factor text.
func (b *ModelBuilder) Gain(id int, name, factor string) *ModelBuilder {
	return b.Block(ir.BlockRecord{
		ID:     strconv.Itoa(id),
		Name:   name,
		Kind:   ir.KindGain,
		Params: map[string]string{ir.ParamGain: factor},
	})
}

// Delay appends a UnitDelay block.
func (b *ModelBuilder) Delay(id int, name string) *ModelBuilder {
	return b.Block(ir.BlockRecord{ID: strconv.Itoa(id), Name: name, Kind: ir.KindUnitDelay})
}

// Line appends a line from src to the given destinations ("5#in:1" or "5").
// The first destination is the line's own, the rest become branches.
func (b *ModelBuilder) Line(src int, dsts ...string) *ModelBuilder {
	line := ir.LineRecord{Src: ir.Endpoint{Block: strconv.Itoa(src), Port: "1"}}
	for i, d := range dsts {
		ep, err := ir.ParseEndpoint(d)
		if err != nil {
			panic(err)
		}
		if i == 0 {
			line.Dst = &ep
			continue
		}
		line.Branches = append(line.Branches, ir.BranchRecord{Dst: &ep})
	}
	b.m.Lines = append(b.m.Lines, line)
	return b
}

// Records returns the assembled record set.
func (b *ModelBuilder) Records() ir.ModelRecords {
	return b.m
}

// PIController is a discrete PI controller with an integrator closed
// through a unit delay:
//
//	Add1      = setpoint - feedback
//	P_gain    = Add1 * 3
//	I_gain    = Add1 * 2
//	Ts        = I_gain * 0.01
//	Add2      = Ts + UnitDelay1
//	Add3      = P_gain + UnitDelay1
//	command   = Add3
//	UnitDelay1 <- Add2
func PIController() ir.ModelRecords {
	return NewModel().
		Inport(1, "setpoint").
		Inport(2, "feedback").
		Sum(3, "Add1", "+-").
		Gain(4, "P_gain", "3").
		Gain(5, "I_gain", "2").
		Gain(6, "Ts", "0.01").
		Sum(7, "Add2", "++").
		Delay(8, "Unit Delay1").
		Sum(9, "Add3", "++").
		Outport(10, "command").
		Line(1, "3#in:1").
		Line(2, "3#in:2").
		Line(3, "4#in:1", "5#in:1").
		Line(5, "6#in:1").
		Line(6, "7#in:1").
		Line(8, "7#in:2", "9#in:2").
		Line(7, "8#in:1").
		Line(4, "9#in:1").
		Line(9, "10#in:1").
		Records()
}

// FeedbackLoop is Sum → Gain → UnitDelay → back to Sum.
func FeedbackLoop() ir.ModelRecords {
	return NewModel().
		Inport(1, "u").
		Sum(2, "acc", "+-").
		Gain(3, "k", "0.5").
		Delay(4, "z").
		Outport(5, "y").
		Line(1, "2#in:1").
		Line(2, "3#in:1", "5#in:1").
		Line(3, "4#in:1").
		Line(4, "2#in:2").
		Records()
}
