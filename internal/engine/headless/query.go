package headless

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// Stats counts the live objects of an engine.
type Stats struct {
	Entities         int
	Transforms       int
	Renderables      int
	VertexBuffers    int
	IndexBuffers     int
	MaterialVariants int
}

// Stats returns the current object counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Entities:         len(e.entities),
		Transforms:       len(e.transforms),
		Renderables:      len(e.renderables),
		VertexBuffers:    len(e.vertexBuffers),
		IndexBuffers:     len(e.indexBuffers),
		MaterialVariants: len(e.materials),
	}
}

// Alive reports whether an entity exists.
func (e *Engine) Alive(ent gltfio.Entity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.entities[ent]
	return ok
}

// Parent returns the parent of ent, or 0 for world-level or unknown entities.
func (e *Engine) Parent(ent gltfio.Entity) gltfio.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.transforms[ent]; ok {
		return t.parent
	}
	return 0
}

// Children returns the children of ent in creation order.
func (e *Engine) Children(ent gltfio.Entity) []gltfio.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.transforms[ent]
	if !ok {
		return nil
	}
	return append([]gltfio.Entity(nil), t.children...)
}

// LocalTransform returns the local transform of ent.
func (e *Engine) LocalTransform(ent gltfio.Entity) (mgl32.Mat4, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.transforms[ent]
	if !ok {
		return mgl32.Mat4{}, false
	}
	return t.local, true
}

// WorldTransform composes the local transforms from the world down to ent.
func (e *Engine) WorldTransform(ent gltfio.Entity) (mgl32.Mat4, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.transforms[ent]
	if !ok {
		return mgl32.Mat4{}, false
	}
	world := t.local
	for p, ok := e.transforms[t.parent]; ok; p, ok = e.transforms[p.parent] {
		world = p.local.Mul4(world)
	}
	return world, true
}

// Renderable returns the renderable attached to ent.
func (e *Engine) Renderable(ent gltfio.Entity) (gltfio.Renderable, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.renderables[ent]
	return r, ok
}

// VertexBuffer returns the description a vertex buffer was created with.
func (e *Engine) VertexBuffer(vb gltfio.VertexBuffer) (gltfio.VertexBufferDesc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.vertexBuffers[vb]
	return d, ok
}

// IndexBuffer returns the description an index buffer was created with.
func (e *Engine) IndexBuffer(ib gltfio.IndexBuffer) (gltfio.IndexBufferDesc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.indexBuffers[ib]
	return d, ok
}
