// Package compiler schedules a dataflow graph and emits the C source that
// computes one discrete time step of the model.
//
// The pipeline is single-threaded and synchronous:
//
//	graph.Build → Schedule → EmitSource / EmitHeader
//
// Schedule rejects algebraic loops (feedback that does not pass through a
// unit delay) before the work-list pass, which guarantees termination.
// Emission never fails for a graph that scheduled successfully.
package compiler
