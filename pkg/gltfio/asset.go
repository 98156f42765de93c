package gltfio

import (
	"github.com/Faultbox/gltfio/pkg/formats"
)

// Asset is a scene built from one glTF document: the entity hierarchy, the
// shared GPU objects and the bindings that tell the resource stage how to fill them.
type Asset interface {
	// Entities returns one entity per source node, in traversal order.
	Entities() []Entity
	// Root returns the entity every source root is parented to.
	Root() Entity
	// Renderables returns the entities that carry a renderable component.
	Renderables() []Entity
	MaterialInstances() []*MaterialInstance
	BufferBindings() []BufferBinding
	TextureBindings() []TextureBinding
	// BoundingBox returns the world-space bounds of all renderables, or an
	// empty box when none could be computed.
	BoundingBox() Box
	// Source returns the document the asset was built from, or nil after
	// ReleaseSourceData.
	Source() *formats.Document
	// NodeEntity returns the entity created for a source node.
	NodeEntity(node int) (Entity, bool)
	// Warnings returns the non-fatal diagnostics recorded during the build.
	Warnings() Diagnostics
	// ReleaseSourceData drops the source document, the node map and the
	// bindings. Build animators before calling it.
	ReleaseSourceData()
}

type asset struct {
	source            *formats.Document
	root              Entity
	entities          []Entity
	renderables       []Entity
	nodeMap           map[int]Entity
	materialInstances []*MaterialInstance
	bufferBindings    []BufferBinding
	textureBindings   []TextureBinding
	boundingBx        Box
	warnings          Diagnostics

	// Owned GPU objects, destroyed with the asset.
	vertexBuffers []VertexBuffer
	indexBuffers  []IndexBuffer
}

func (a *asset) Entities() []Entity                     { return a.entities }
func (a *asset) Root() Entity                           { return a.root }
func (a *asset) Renderables() []Entity                  { return a.renderables }
func (a *asset) MaterialInstances() []*MaterialInstance { return a.materialInstances }
func (a *asset) BufferBindings() []BufferBinding        { return a.bufferBindings }
func (a *asset) TextureBindings() []TextureBinding      { return a.textureBindings }
func (a *asset) BoundingBox() Box                       { return a.boundingBx }
func (a *asset) Source() *formats.Document              { return a.source }
func (a *asset) Warnings() Diagnostics                  { return a.warnings }

func (a *asset) NodeEntity(node int) (Entity, bool) {
	e, ok := a.nodeMap[node]
	return e, ok
}

func (a *asset) ReleaseSourceData() {
	a.source = nil
	a.nodeMap = nil
	a.bufferBindings = nil
	a.textureBindings = nil
}
