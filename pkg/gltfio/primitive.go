package gltfio

import (
	"fmt"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// meshEntry caches the buffers of every primitive of one mesh.
type meshEntry struct {
	prims []Primitive
}

// meshPrimitives returns the cached buffers for a mesh, creating them on the
// first reference. Later references reuse the handles unconditionally.
func (b *buildContext) meshPrimitives(node, mesh int) *meshEntry {
	if e, ok := b.meshes[mesh]; ok {
		return e
	}
	src := &b.doc.Meshes[mesh]
	e := &meshEntry{prims: make([]Primitive, len(src.Primitives))}
	b.meshes[mesh] = e

	for i := range src.Primitives {
		prim := &src.Primitives[i]
		if _, err := PrimitiveTypeOf(prim.Mode); err != nil {
			continue // reported per node by createRenderable
		}
		out, err := b.createPrimitive(node, mesh, i, prim)
		if err != nil {
			d := newDiagnostic(SeverityError, err)
			d.Node, d.Mesh, d.Primitive = node, mesh, i
			b.report(d)
			continue
		}
		e.prims[i] = out
	}
	return e
}

// createPrimitive creates the vertex and index buffers of a primitive and
// emits their bindings.
func (b *buildContext) createPrimitive(node, mesh, index int, prim *formats.Primitive) (Primitive, error) {
	if prim.Indices == formats.None {
		return Primitive{}, ErrMissingIndices
	}
	indexAcc := &b.doc.Accessors[prim.Indices]
	indexType, err := IndexTypeOf(indexAcc)
	if err != nil {
		return Primitive{}, err
	}
	if indexAcc.BufferView == formats.None {
		return Primitive{}, fmt.Errorf("indices: %w", ErrMissingBufferView)
	}

	var (
		attrs       []VertexAttributeDesc
		views       []int
		vertexCount int
	)
	for _, a := range prim.Attributes {
		attr, ok := vertexAttributeOf(a.Semantic)
		if !ok {
			d := newDiagnostic(SeverityWarning, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, a.Semantic))
			d.Node, d.Mesh, d.Primitive = node, mesh, index
			b.warn(d)
			continue
		}
		acc := &b.doc.Accessors[a.Accessor]
		elem, err := ElementTypeOf(acc)
		if err != nil {
			return Primitive{}, fmt.Errorf("%s: %w", a.Semantic, err)
		}
		if acc.BufferView == formats.None {
			return Primitive{}, fmt.Errorf("%s: %w", a.Semantic, ErrMissingBufferView)
		}
		stride := b.doc.BufferViews[acc.BufferView].ByteStride
		if stride == 0 {
			stride = acc.ElementSize()
		}
		attrs = append(attrs, VertexAttributeDesc{
			Attribute:  attr,
			Slot:       len(views),
			Type:       elem,
			Offset:     acc.ByteOffset,
			Stride:     stride,
			Normalized: acc.Normalized,
		})
		views = append(views, acc.BufferView)
		vertexCount = acc.Count
	}

	vb, err := b.engine.CreateVertexBuffer(VertexBufferDesc{
		VertexCount: vertexCount,
		BufferCount: len(views),
		Attributes:  attrs,
	})
	if err != nil {
		return Primitive{}, fmt.Errorf("%w: vertex buffer: %w", ErrEngine, err)
	}
	b.vertexBuffers = append(b.vertexBuffers, vb)

	ib, err := b.engine.CreateIndexBuffer(IndexBufferDesc{
		IndexCount: indexAcc.Count,
		Type:       indexType,
	})
	if err != nil {
		return Primitive{}, fmt.Errorf("%w: index buffer: %w", ErrEngine, err)
	}
	b.indexBuffers = append(b.indexBuffers, ib)

	for slot, view := range views {
		b.addVertexBinding(vb, slot, view)
	}
	b.addIndexBinding(ib, indexAcc)

	return Primitive{Vertices: vb, Indices: ib}, nil
}
