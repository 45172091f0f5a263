package graph

// Ref is the arena index of a block within its Graph.
type Ref int

// NoRef marks an unconnected single input.
const NoRef Ref = -1

// Block is a node of the dataflow graph.
type Block struct {
	Ref     Ref
	ID      int
	Name    string // sanitized, unique, used as the storage slot identifier
	RawName string

	External bool
	PortName string

	Op Op

	// Outputs lists downstream blocks in line order, once per connection.
	Outputs []Ref

	line int
}

// Kind returns the block kind.
func (b *Block) Kind() Kind {
	return b.Op.Kind()
}

// Upstream returns every block feeding this one, in port order.
func (b *Block) Upstream() []Ref {
	switch op := b.Op.(type) {
	case *Sum:
		refs := make([]Ref, 0, len(op.Inputs))
		for _, in := range op.Inputs {
			refs = append(refs, in.Src)
		}
		return refs
	case *Gain:
		return single(op.Input)
	case *UnitDelay:
		return single(op.Input)
	case *OutputPort:
		return single(op.Input)
	case *InputPort:
		return nil
	}
	return nil
}

func single(r Ref) []Ref {
	if r == NoRef {
		return nil
	}
	return []Ref{r}
}

// Graph owns every block of one model.
type Graph struct {
	blocks []*Block
	byID   map[int]Ref
}

// Len returns the number of blocks.
func (g *Graph) Len() int {
	return len(g.blocks)
}

// Block returns the block at r.
func (g *Graph) Block(r Ref) *Block {
	return g.blocks[r]
}

// Blocks returns all blocks in record order. The slice must not be modified.
func (g *Graph) Blocks() []*Block {
	return g.blocks
}

// Lookup finds a block by its model id.
func (g *Graph) Lookup(id int) (*Block, bool) {
	r, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return g.blocks[r], true
}

// InputPorts returns all InputPort blocks in record order.
func (g *Graph) InputPorts() []Ref {
	var refs []Ref
	for _, b := range g.blocks {
		if b.Kind() == KindInputPort {
			refs = append(refs, b.Ref)
		}
	}
	return refs
}

// CountKind returns how many blocks have kind k.
func (g *Graph) CountKind(k Kind) int {
	n := 0
	for _, b := range g.blocks {
		if b.Kind() == k {
			n++
		}
	}
	return n
}
