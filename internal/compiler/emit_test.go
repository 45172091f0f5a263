package compiler

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nwocg/internal/ir"
	"github.com/roach88/nwocg/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func generate(t *testing.T, m ir.ModelRecords, prefix string) string {
	t.Helper()
	res, err := Generate(m, Options{Prefix: prefix})
	require.NoError(t, err)
	return string(res.Source)
}

// stepBody returns the statements of the step function, trimmed.
func stepBody(t *testing.T, src, prefix string) []string {
	t.Helper()
	start := strings.Index(src, "void "+prefix+"_generated_step()\n{\n")
	require.GreaterOrEqual(t, start, 0, "step function missing")
	body := src[start:]
	body = body[strings.Index(body, "{\n")+2:]
	body = body[:strings.Index(body, "}\n")]

	var out []string
	for _, l := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		out = append(out, strings.TrimSpace(l))
	}
	return out
}

func TestEmit_PIControllerGolden(t *testing.T) {
	res, err := Generate(testutil.PIController(), Options{Header: true})
	require.NoError(t, err)

	g := newGoldie(t)
	g.Assert(t, "pi_controller_source", res.Source)
	g.Assert(t, "pi_controller_header", res.Header)
}

func TestEmit_FeedbackLoopGolden(t *testing.T) {
	src := generate(t, testutil.FeedbackLoop(), "ctl")
	newGoldie(t).Assert(t, "feedback_loop_source", []byte(src))
}

func TestEmit_SumSigns(t *testing.T) {
	tests := []struct {
		name  string
		signs string
		want  string
	}{
		{"all add by default", "", "p.s = p.a + p.b + p.c;"},
		{"input count", "3", "p.s = p.a + p.b + p.c;"},
		{"mixed", "+-+", "p.s = p.a - p.b + p.c;"},
		{"leading minus", "-++", "p.s = -p.a + p.b + p.c;"},
		{"separators", "|--|-", "p.s = -p.a - p.b - p.c;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewModel().
				Inport(1, "a").
				Inport(2, "b").
				Inport(3, "c").
				Sum(4, "s", tt.signs).
				Line(1, "4#in:1").
				Line(2, "4#in:2").
				Line(3, "4#in:3").
				Records()

			assert.Equal(t, []string{tt.want}, stepBody(t, generate(t, m, "p"), "p"))
		})
	}
}

func TestEmit_SumInputsInPortOrder(t *testing.T) {
	// lines arrive out of port order
	m := testutil.NewModel().
		Inport(1, "a").
		Inport(2, "b").
		Sum(3, "s", "-+").
		Line(2, "3#in:2").
		Line(1, "3#in:1").
		Records()

	assert.Equal(t, []string{"p.s = -p.a + p.b;"}, stepBody(t, generate(t, m, "p"), "p"))
}

func TestEmit_UnconnectedInputs(t *testing.T) {
	m := testutil.NewModel().
		Inport(1, "u").
		Sum(2, "s", "").
		Gain(3, "k", "2").
		Outport(4, "y").
		Delay(5, "z").
		Line(1, "4#in:1").
		Line(2, "3#in:1").
		Line(5, "2#in:1").
		Records()

	src := generate(t, m, "p")
	// z has no input: it is zeroed in init and never updated
	assert.Contains(t, src, "    p.z = 0;\n")
	assert.NotContains(t, src, "p.z = p.")
	assert.Equal(t, []string{"p.y = p.u;"}, stepBody(t, src, "p"))
}

func TestEmit_RotatingDelaysUseTemporaries(t *testing.T) {
	m := testutil.NewModel().
		Inport(1, "u").
		Delay(2, "a").
		Delay(3, "b").
		Sum(4, "s", "++").
		Line(1, "4#in:1").
		Line(2, "3#in:1", "4#in:2").
		Line(3, "2#in:1").
		Records()

	assert.Equal(t, []string{
		"p.s = p.u + p.a;",
		"double a_next = p.b;",
		"double b_next = p.a;",
		"p.a = a_next;",
		"p.b = b_next;",
	}, stepBody(t, generate(t, m, "p"), "p"))
}

func TestEmit_DelayChainOrder(t *testing.T) {
	m := testutil.NewModel().
		Inport(1, "u").
		Delay(2, "d1").
		Delay(3, "d2").
		Outport(4, "y").
		Line(1, "2#in:1").
		Line(2, "3#in:1").
		Line(3, "4#in:1").
		Records()

	assert.Equal(t, []string{
		"p.y = p.d2;",
		"p.d2 = p.d1;",
		"p.d1 = p.u;",
	}, stepBody(t, generate(t, m, "p"), "p"))
}

func TestEmit_UnreachedBlocksKeepSlots(t *testing.T) {
	m := testutil.NewModel().
		Inport(1, "u").
		Gain(2, "dead", "5").
		Records()

	src := generate(t, m, "p")
	assert.Contains(t, src, "    double dead;\n")
	assert.Empty(t, strings.TrimSpace(strings.Join(stepBody(t, src, "p"), "")))
}

func TestEmit_PortTable(t *testing.T) {
	m := testutil.NewModel().
		Block(ir.BlockRecord{ID: "1", Name: "in speed", Kind: ir.KindInport, Port: true, PortName: `speed "rpm"`}).
		Block(ir.BlockRecord{ID: "2", Name: "local", Kind: ir.KindInport}).
		Outport(3, "out").
		Line(1, "3").
		Records()

	src := generate(t, m, "p")
	assert.Contains(t, src, "    { \"speed \\\"rpm\\\"\", &p.inspeed, 1 },\n")
	assert.Contains(t, src, "    { \"out\", &p.out, 0 },\n")
	assert.NotContains(t, src, "&p.local")
	assert.True(t, strings.HasSuffix(src, "sizeof(ext_ports);\n"))
}

func TestFormatFactor(t *testing.T) {
	tests := map[float64]string{
		3:     "3",
		0.01:  "0.01",
		-2.5:  "-2.5",
		1e-7:  "1e-07",
		1e6:   "1e+06",
		0.1:   "0.1",
		12345: "12345",
	}
	for f, want := range tests {
		assert.Equal(t, want, FormatFactor(f))
	}
}

func TestCString(t *testing.T) {
	assert.Equal(t, `"plain"`, cString("plain"))
	assert.Equal(t, `"a\\b"`, cString(`a\b`))
	assert.Equal(t, `"tab\t"`, cString("tab\t"))
	assert.Equal(t, `"\303\251"`, cString("é"))
}

func TestEmitHeader_Guard(t *testing.T) {
	h := string(EmitHeader("motor_ctl"))
	assert.True(t, strings.HasPrefix(h, "#ifndef MOTOR_CTL_RUN_H\n#define MOTOR_CTL_RUN_H\n"))
	assert.Contains(t, h, "} motor_ctl_ExtPort;")
	assert.Contains(t, h, "void motor_ctl_generated_step(void);")
	assert.Equal(t, "motor_ctl_run.h", HeaderFileName("motor_ctl"))
	assert.Equal(t, "motor_ctl.c", SourceFileName("motor_ctl"))
}
