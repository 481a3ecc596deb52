// Package xref builds symbol cross-reference graphs from a FAS file.
package xref

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"fas2sym/internal/disasm"
	"fas2sym/internal/fas"
)

// Index finds the label enclosing an address.
type Index struct {
	addrs []uint64
	names []string
	exact map[uint64]string
}

// NewIndex indexes the defined, named labels of f. Assembly-time variables
// and markers are not labels. When several labels share an address the
// first one in the symbols table names it.
func NewIndex(f *fas.File) *Index {
	ix := &Index{exact: make(map[uint64]string)}
	for _, s := range f.Symbols {
		if !s.Defined() || s.Flags.Has(fas.FlagVariable) || s.Flags.Has(fas.FlagMarker) {
			continue
		}
		if _, ext := s.Relative.External(); ext {
			continue
		}
		name := f.SymbolName(s)
		if name == "" {
			continue
		}
		if _, dup := ix.exact[s.Value]; dup {
			continue
		}
		ix.exact[s.Value] = name
		ix.addrs = append(ix.addrs, s.Value)
	}
	sort.Slice(ix.addrs, func(i, j int) bool { return ix.addrs[i] < ix.addrs[j] })
	ix.names = make([]string, len(ix.addrs))
	for i, a := range ix.addrs {
		ix.names[i] = ix.exact[a]
	}
	return ix
}

// Len returns the number of indexed labels.
func (ix *Index) Len() int { return len(ix.addrs) }

// At returns the label defined exactly at addr.
func (ix *Index) At(addr uint64) (string, bool) {
	name, ok := ix.exact[addr]
	return name, ok
}

// Enclosing returns the nearest label at or below addr.
func (ix *Index) Enclosing(addr uint64) (string, bool) {
	i := sort.Search(len(ix.addrs), func(i int) bool { return ix.addrs[i] > addr })
	if i == 0 {
		return "", false
	}
	return ix.names[i-1], true
}

// nodeName names the code at addr: its enclosing label, or the address.
func (ix *Index) nodeName(addr uint64) string {
	if name, ok := ix.Enclosing(addr); ok {
		return name
	}
	return fmt.Sprintf("0x%08x", addr)
}

type builder struct {
	g     *lattice.Graph
	nodes map[string]bool
	edges map[[2]string]bool
}

func newBuilder() *builder {
	return &builder{g: &lattice.Graph{}, nodes: map[string]bool{}, edges: map[[2]string]bool{}}
}

func (b *builder) node(name string) {
	if !b.nodes[name] {
		b.nodes[name] = true
		b.g.Nodes = append(b.g.Nodes, name)
	}
}

func (b *builder) edge(from, to string) {
	b.node(from)
	b.node(to)
	key := [2]string{from, to}
	if !b.edges[key] {
		b.edges[key] = true
		b.g.Edges = append(b.g.Edges, lattice.Edge{Caller: from, Callee: to})
	}
}

// Build constructs a lattice.Graph from the symbol references of f.
// Each reference becomes an edge from the label enclosing the referencing
// row to the referenced symbol. Every label is a node, referenced or not.
// When insts is non-empty, branch instructions add edges from the label
// enclosing the branch to the label at or enclosing its target.
func Build(f *fas.File, insts []disasm.Inst) *lattice.Graph {
	ix := NewIndex(f)
	b := newBuilder()
	for _, name := range ix.names {
		b.node(name)
	}

	log := fas.Logger()
	for _, r := range f.References {
		sym, ok := f.SymbolAt(r.SymbolOffset)
		if !ok {
			log.Debug("reference to unknown symbol")
			continue
		}
		callee := f.SymbolName(sym)
		if callee == "" {
			continue
		}
		row, ok := f.RowAt(r.RowOffset)
		if !ok {
			log.Debug("reference from unknown row")
			continue
		}
		b.edge(ix.nodeName(row.Address), callee)
	}

	for _, inst := range insts {
		if !inst.HasTarget {
			continue
		}
		callee, ok := ix.At(inst.Target)
		if !ok {
			callee = ix.nodeName(inst.Target)
		}
		b.edge(ix.nodeName(inst.Addr), callee)
	}

	b.g.Dedup()
	return b.g
}

// DOT renders g in Graphviz format.
func DOT(g *lattice.Graph, title string) string {
	return render.DOT(g, title)
}
