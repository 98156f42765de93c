package gltfio_test

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/internal/engine/headless"
	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// docBuilder assembles a normalized document with a single buffer in code.
type docBuilder struct {
	doc  *formats.Document
	data []byte
}

func newDoc() *docBuilder {
	return &docBuilder{doc: &formats.Document{
		Buffers: []formats.Buffer{{Name: "data", URI: "data.bin"}},
	}}
}

// accessor appends payload as its own buffer view and returns the accessor index.
func (b *docBuilder) accessor(ct formats.ComponentType, typ formats.AccessorType, count int, payload []byte) int {
	for len(b.data)%4 != 0 {
		b.data = append(b.data, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, formats.BufferView{
		Buffer:     0,
		ByteOffset: len(b.data),
		ByteLength: len(payload),
	})
	b.data = append(b.data, payload...)
	b.doc.Accessors = append(b.doc.Accessors, formats.Accessor{
		BufferView:    len(b.doc.BufferViews) - 1,
		ComponentType: ct,
		Count:         count,
		Type:          typ,
	})
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) floats(typ formats.AccessorType, vals ...float32) int {
	var payload []byte
	for _, v := range vals {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v))
	}
	return b.accessor(formats.ComponentFloat, typ, len(vals)/typ.Components(), payload)
}

func (b *docBuilder) indices16(vals ...uint16) int {
	var payload []byte
	for _, v := range vals {
		payload = binary.LittleEndian.AppendUint16(payload, v)
	}
	return b.accessor(formats.ComponentUnsignedShort, formats.AccessorScalar, len(vals), payload)
}

// positions adds a triangle POSITION accessor spanning [-1,1] x [-1,1] x 0.
func (b *docBuilder) positions() int {
	acc := b.floats(formats.AccessorVec3, -1, -1, 0, 1, -1, 0, 0, 1, 0)
	b.doc.Accessors[acc].Min = []float32{-1, -1, 0}
	b.doc.Accessors[acc].Max = []float32{1, 1, 0}
	return acc
}

// triangle adds a single-primitive indexed triangle mesh.
func (b *docBuilder) triangle(material int) int {
	return b.mesh(formats.Primitive{
		Mode:       formats.TopologyTriangles,
		Attributes: []formats.Attribute{{Semantic: "POSITION", Accessor: b.positions()}},
		Indices:    b.indices16(0, 1, 2),
		Material:   material,
	})
}

func (b *docBuilder) mesh(prims ...formats.Primitive) int {
	b.doc.Meshes = append(b.doc.Meshes, formats.Mesh{Primitives: prims})
	return len(b.doc.Meshes) - 1
}

func (b *docBuilder) material(m formats.Material) int {
	b.doc.Materials = append(b.doc.Materials, m)
	return len(b.doc.Materials) - 1
}

// node adds a node with an identity rest pose.
func (b *docBuilder) node(name string, mesh int, children ...int) int {
	b.doc.Nodes = append(b.doc.Nodes, formats.Node{
		Name:     name,
		Parent:   formats.None,
		Children: children,
		Mesh:     mesh,
		Local:    mgl32.Ident4(),
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	})
	return len(b.doc.Nodes) - 1
}

// translate sets a node's rest translation and local matrix.
func (b *docBuilder) translate(node int, t mgl32.Vec3) {
	n := &b.doc.Nodes[node]
	n.Translation = t
	n.Local = formats.ComposeTRS(n.Translation, n.Rotation, n.Scale)
}

// build finalizes parents and buffer data and returns the document.
func (b *docBuilder) build(roots ...int) *formats.Document {
	for i := range b.doc.Nodes {
		for _, c := range b.doc.Nodes[i].Children {
			b.doc.Nodes[c].Parent = i
		}
	}
	b.doc.Roots = roots
	b.doc.Buffers[0].Data = b.data
	b.doc.Buffers[0].ByteLength = len(b.data)
	return b.doc
}

func newLoader(engine *headless.Engine, opts ...gltfio.Option) *gltfio.Loader {
	return gltfio.NewLoader(engine, opts...)
}

func defaultMaterial() formats.Material {
	return formats.Material{
		AlphaCutoff:       0.5,
		HasPBR:            true,
		BaseColorFactor:   mgl32.Vec4{1, 1, 1, 1},
		MetallicFactor:    1,
		RoughnessFactor:   1,
		NormalScale:       1,
		OcclusionStrength: 1,
		BaseColor:         formats.TextureRef{Texture: formats.None},
		MetallicRoughness: formats.TextureRef{Texture: formats.None},
		Normal:            formats.TextureRef{Texture: formats.None},
		Occlusion:         formats.TextureRef{Texture: formats.None},
		Emissive:          formats.TextureRef{Texture: formats.None},
	}
}
