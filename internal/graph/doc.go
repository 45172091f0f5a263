// Package graph builds the dataflow graph of a block-diagram model.
//
// Blocks live in a single arena owned by the Graph and refer to each other
// through Ref indices into that arena. A shared upstream source is therefore
// just a repeated Ref, never an owning pointer.
//
// The block kind is a closed variant: Block.Op holds exactly one of
// *InputPort, *OutputPort, *Sum, *Gain or *UnitDelay, and consumers switch
// over it exhaustively.
//
// A Graph is constructed once by Build from a complete record set and is
// read-only afterwards. Independent generation runs must use independent
// Graphs.
package graph
