package gltfio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// Entity is an opaque engine handle. The zero value is the null entity.
type Entity uint32

// VertexBuffer is an opaque engine vertex buffer handle.
type VertexBuffer uint32

// IndexBuffer is an opaque engine index buffer handle.
type IndexBuffer uint32

// Material is an opaque handle to a generated shader variant.
type Material uint32

// Texture is an opaque engine texture handle.
type Texture uint32

// PrimitiveType is an engine-recognized topology.
type PrimitiveType int

const (
	PrimitivePoints PrimitiveType = iota
	PrimitiveLines
	PrimitiveTriangles
)

// IndexType is the storage type of an index buffer.
type IndexType int

const (
	IndexUShort IndexType = iota
	IndexUInt
)

// VertexAttribute is an engine vertex attribute semantic.
type VertexAttribute int

const (
	AttributePosition VertexAttribute = iota
	AttributeNormal
	AttributeTangent
	AttributeColor
	AttributeUV0
	AttributeUV1
	AttributeBoneIndices
	AttributeBoneWeights
)

// String returns the attribute name.
func (a VertexAttribute) String() string {
	switch a {
	case AttributePosition:
		return "position"
	case AttributeNormal:
		return "normal"
	case AttributeTangent:
		return "tangent"
	case AttributeColor:
		return "color"
	case AttributeUV0:
		return "uv0"
	case AttributeUV1:
		return "uv1"
	case AttributeBoneIndices:
		return "bone_indices"
	case AttributeBoneWeights:
		return "bone_weights"
	default:
		return fmt.Sprintf("attribute(%d)", int(a))
	}
}

// ElementType is the layout of one vertex attribute element.
type ElementType struct {
	Component  formats.ComponentType
	Components int
}

// String returns e.g. "FLOAT3".
func (e ElementType) String() string {
	if e.Components == 1 {
		return e.Component.String()
	}
	return fmt.Sprintf("%s%d", e.Component, e.Components)
}

// VertexAttributeDesc places one attribute in a vertex buffer slot.
type VertexAttributeDesc struct {
	Attribute  VertexAttribute
	Slot       int
	Type       ElementType
	Offset     int
	Stride     int
	Normalized bool
}

// VertexBufferDesc describes a vertex buffer to create. Each attribute lives in its own slot.
type VertexBufferDesc struct {
	VertexCount int
	BufferCount int
	Attributes  []VertexAttributeDesc
}

// IndexBufferDesc describes an index buffer to create.
type IndexBufferDesc struct {
	IndexCount int
	Type       IndexType
}

// RenderPrimitive is one geometry/material pair of a renderable.
type RenderPrimitive struct {
	Type     PrimitiveType
	Vertices VertexBuffer
	Indices  IndexBuffer
	Material *MaterialInstance
}

// Renderable describes the renderable component attached to an entity.
type Renderable struct {
	Primitives     []RenderPrimitive
	CastShadows    bool
	ReceiveShadows bool
	Culling        bool
	Bounds         Box
}

// EntityManager allocates entities.
type EntityManager interface {
	CreateEntity() Entity
	DestroyEntity(e Entity)
}

// TransformManager owns the transform hierarchy. A null parent attaches to the world.
type TransformManager interface {
	CreateTransform(e Entity, parent Entity, local mgl32.Mat4)
	SetTransform(e Entity, local mgl32.Mat4)
	DestroyTransform(e Entity)
}

// RenderableManager attaches renderable components.
type RenderableManager interface {
	CreateRenderable(e Entity, r Renderable) error
	DestroyRenderable(e Entity)
}

// BufferFactory creates empty GPU buffers; contents arrive later through bindings.
type BufferFactory interface {
	CreateVertexBuffer(desc VertexBufferDesc) (VertexBuffer, error)
	CreateIndexBuffer(desc IndexBufferDesc) (IndexBuffer, error)
	DestroyVertexBuffer(vb VertexBuffer)
	DestroyIndexBuffer(ib IndexBuffer)
}

// MaterialProvider generates (and caches) a shader variant per material shape.
type MaterialProvider interface {
	GetOrCreateMaterial(key MaterialKey) (Material, error)
}

// Engine is everything the loader needs from the host render engine.
type Engine interface {
	EntityManager
	TransformManager
	RenderableManager
	BufferFactory
	MaterialProvider
}
