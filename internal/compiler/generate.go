package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/nwocg/internal/graph"
	"github.com/roach88/nwocg/internal/ir"
)

// ErrInvalidPrefix is returned when the identifier prefix is not a C identifier.
var ErrInvalidPrefix = errors.New("invalid prefix")

// Options controls a generation run.
type Options struct {
	// Prefix namespaces every generated symbol. Empty means DefaultPrefix.
	Prefix string
	// Header also renders the companion declarations.
	Header bool
}

// Stats summarizes a generation run.
type Stats struct {
	Blocks        int `json:"blocks"`
	Operations    int `json:"operations"`
	Delays        int `json:"delays"`
	ExternalPorts int `json:"external_ports"`
	Unreached     int `json:"unreached"`
}

// Result holds the artifacts and intermediate state of one run.
type Result struct {
	Prefix string
	Source []byte
	Header []byte // nil unless Options.Header
	Graph  *graph.Graph
	Plan   *Plan
	Stats  Stats
}

// Build constructs and schedules the graph without emitting code.
func Build(records ir.ModelRecords) (*graph.Graph, *Plan, error) {
	g, err := graph.Build(records)
	if err != nil {
		return nil, nil, err
	}
	plan, err := Schedule(g)
	if err != nil {
		return nil, nil, err
	}
	return g, plan, nil
}

// Generate runs the whole pipeline on a record set. Nothing is returned on
// error; partial output is never valid.
func Generate(records ir.ModelRecords, opts Options) (*Result, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !graph.ValidIdentifier(prefix) {
		return nil, fmt.Errorf("%w %q: must be a C identifier", ErrInvalidPrefix, prefix)
	}

	g, plan, err := Build(records)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Prefix: prefix,
		Source: EmitSource(g, plan, prefix),
		Graph:  g,
		Plan:   plan,
		Stats:  ComputeStats(g, plan),
	}
	if opts.Header {
		res.Header = EmitHeader(prefix)
	}

	slog.Info("code generated",
		"prefix", prefix,
		"blocks", res.Stats.Blocks,
		"ops", res.Stats.Operations,
		"delays", res.Stats.Delays,
		"unreached", res.Stats.Unreached)
	return res, nil
}

// ComputeStats counts blocks by role.
func ComputeStats(g *graph.Graph, p *Plan) Stats {
	s := Stats{Blocks: g.Len()}
	for _, b := range g.Blocks() {
		if b.External {
			s.ExternalPorts++
		}
		if !p.Scheduled(b.Ref) {
			s.Unreached++
		}
	}
	for _, r := range p.Order {
		if g.Block(r).Kind().IsOperation() {
			s.Operations++
		}
	}
	s.Delays = len(p.Delays) + len(p.Rotating)
	return s
}
