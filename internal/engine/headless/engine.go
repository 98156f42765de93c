// Package headless provides an in-memory render engine that records every
// entity, transform, renderable, buffer and material variant it is asked to
// create. It backs the command line tools and the loader tests.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// Engine errors.
var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrLimit         = errors.New("engine object limit reached")
)

// transform is one node of the transform hierarchy.
type transform struct {
	parent   gltfio.Entity
	children []gltfio.Entity
	local    mgl32.Mat4
}

// Limits caps object creation. Zero means unlimited.
type Limits struct {
	VertexBuffers int
	IndexBuffers  int
	Renderables   int
}

// Engine is a headless gltfio.Engine. It is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	nextEntity uint32
	nextBuffer uint32

	entities      map[gltfio.Entity]struct{}
	transforms    map[gltfio.Entity]*transform
	renderables   map[gltfio.Entity]gltfio.Renderable
	vertexBuffers map[gltfio.VertexBuffer]gltfio.VertexBufferDesc
	indexBuffers  map[gltfio.IndexBuffer]gltfio.IndexBufferDesc
	materials     map[gltfio.MaterialKey]gltfio.Material

	buffers gltfio.BufferFactory
	limits  Limits
}

// Option configures an Engine.
type Option func(*Engine)

// WithBufferFactory delegates buffer creation to another factory (for example
// a GPU backend) while the headless engine keeps the scene tables.
func WithBufferFactory(f gltfio.BufferFactory) Option {
	return func(e *Engine) {
		e.buffers = f
	}
}

// WithLimits caps object creation, making the engine fail once a limit is hit.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		entities:      make(map[gltfio.Entity]struct{}),
		transforms:    make(map[gltfio.Entity]*transform),
		renderables:   make(map[gltfio.Entity]gltfio.Renderable),
		vertexBuffers: make(map[gltfio.VertexBuffer]gltfio.VertexBufferDesc),
		indexBuffers:  make(map[gltfio.IndexBuffer]gltfio.IndexBufferDesc),
		materials:     make(map[gltfio.MaterialKey]gltfio.Material),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateEntity allocates a new entity.
func (e *Engine) CreateEntity() gltfio.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextEntity++
	ent := gltfio.Entity(e.nextEntity)
	e.entities[ent] = struct{}{}
	return ent
}

// DestroyEntity releases an entity.
func (e *Engine) DestroyEntity(ent gltfio.Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entities, ent)
}

// CreateTransform attaches a transform to ent under parent (0 for the world).
func (e *Engine) CreateTransform(ent, parent gltfio.Entity, local mgl32.Mat4) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transforms[ent] = &transform{parent: parent, local: local}
	if p, ok := e.transforms[parent]; ok {
		p.children = append(p.children, ent)
	}
}

// SetTransform replaces the local transform of ent.
func (e *Engine) SetTransform(ent gltfio.Entity, local mgl32.Mat4) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.transforms[ent]; ok {
		t.local = local
	}
}

// DestroyTransform removes the transform of ent and detaches it from its parent.
func (e *Engine) DestroyTransform(ent gltfio.Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.transforms[ent]
	if !ok {
		return
	}
	if p, ok := e.transforms[t.parent]; ok {
		for i, c := range p.children {
			if c == ent {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	delete(e.transforms, ent)
}

// CreateRenderable attaches a renderable to ent.
func (e *Engine) CreateRenderable(ent gltfio.Entity, r gltfio.Renderable) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.entities[ent]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, ent)
	}
	if e.limits.Renderables > 0 && len(e.renderables) >= e.limits.Renderables {
		return fmt.Errorf("%w: %d renderables", ErrLimit, e.limits.Renderables)
	}
	e.renderables[ent] = r
	return nil
}

// DestroyRenderable removes the renderable of ent.
func (e *Engine) DestroyRenderable(ent gltfio.Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.renderables, ent)
}

// CreateVertexBuffer records a vertex buffer, delegating the handle to the
// configured buffer factory if any.
func (e *Engine) CreateVertexBuffer(desc gltfio.VertexBufferDesc) (gltfio.VertexBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.limits.VertexBuffers > 0 && len(e.vertexBuffers) >= e.limits.VertexBuffers {
		return 0, fmt.Errorf("%w: %d vertex buffers", ErrLimit, e.limits.VertexBuffers)
	}
	var vb gltfio.VertexBuffer
	if e.buffers != nil {
		h, err := e.buffers.CreateVertexBuffer(desc)
		if err != nil {
			return 0, err
		}
		vb = h
	} else {
		e.nextBuffer++
		vb = gltfio.VertexBuffer(e.nextBuffer)
	}
	e.vertexBuffers[vb] = desc
	return vb, nil
}

// CreateIndexBuffer records an index buffer, delegating the handle to the
// configured buffer factory if any.
func (e *Engine) CreateIndexBuffer(desc gltfio.IndexBufferDesc) (gltfio.IndexBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.limits.IndexBuffers > 0 && len(e.indexBuffers) >= e.limits.IndexBuffers {
		return 0, fmt.Errorf("%w: %d index buffers", ErrLimit, e.limits.IndexBuffers)
	}
	var ib gltfio.IndexBuffer
	if e.buffers != nil {
		h, err := e.buffers.CreateIndexBuffer(desc)
		if err != nil {
			return 0, err
		}
		ib = h
	} else {
		e.nextBuffer++
		ib = gltfio.IndexBuffer(e.nextBuffer)
	}
	e.indexBuffers[ib] = desc
	return ib, nil
}

// DestroyVertexBuffer releases a vertex buffer.
func (e *Engine) DestroyVertexBuffer(vb gltfio.VertexBuffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffers != nil {
		e.buffers.DestroyVertexBuffer(vb)
	}
	delete(e.vertexBuffers, vb)
}

// DestroyIndexBuffer releases an index buffer.
func (e *Engine) DestroyIndexBuffer(ib gltfio.IndexBuffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffers != nil {
		e.buffers.DestroyIndexBuffer(ib)
	}
	delete(e.indexBuffers, ib)
}

// GetOrCreateMaterial returns the variant for a material shape, generating a
// new one the first time the shape is seen.
func (e *Engine) GetOrCreateMaterial(key gltfio.MaterialKey) (gltfio.Material, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.materials[key]; ok {
		return m, nil
	}
	m := gltfio.Material(len(e.materials) + 1)
	e.materials[key] = m
	return m, nil
}
