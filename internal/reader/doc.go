// Package reader turns model description files into ir.ModelRecords.
//
// Every format yields the same record shapes with ids, ports and parameter
// values kept as text; numeric validation belongs to the graph builder.
// The format is chosen by file extension:
//
//	.xml         block-diagram markup (<System>/<Block>/<Line>)
//	.json        document validated against an embedded JSON Schema
//	.yaml, .yml  same document shape as JSON
//	.cue         same document shape, evaluated by CUE first
//	.hcl         block "<Kind>" "<Name>" { ... } and line { ... } blocks
package reader
