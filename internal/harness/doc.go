// Package harness runs conformance scenarios against the code generator.
//
// A scenario names a model file, generates code for it, and checks the
// schedule and the emitted source against a list of assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: pi_controller
//	description: "Integrator state is read before it is updated"
//	model: ../models/pi.xml
//	prefix: nwocg
//	assertions:
//	  - type: schedule_order
//	    blocks: [Add1, Add3, command]
//	  - type: source_contains
//	    text: "nwocg.UnitDelay1 = nwocg.Add2;"
//	  - type: stats
//	    stats: {delays: 1}
//
// A scenario that sets expect_error must fail generation with that code
// instead; its assertions are optional.
//
// # Assertion Types
//
//   - schedule_order: blocks appear in the step order in this relative order
//   - delay_order: the state updates are exactly these delays, in order
//   - unreached: none of these blocks is scheduled
//   - source_contains: the generated source contains the text
//   - stats: each listed counter has the given value
//
// # Golden Files
//
// RunWithGolden compares the generated source against
// testdata/golden/{name}.golden. The CLI keeps goldens next to the scenario
// in a golden/ directory.
package harness
