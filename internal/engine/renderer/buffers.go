package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

type vertexBuffer struct {
	vao  uint32
	vbos []uint32
	desc gltfio.VertexBufferDesc
}

type indexBuffer struct {
	ebo  uint32
	desc gltfio.IndexBufferDesc
}

// Buffers is a gltfio.BufferFactory backed by GL buffer objects. Vertex
// buffers map to a vertex array with one GL buffer per slot. All methods
// must run on the thread owning the GL context.
type Buffers struct {
	mu      sync.Mutex
	next    uint32
	vertex  map[gltfio.VertexBuffer]*vertexBuffer
	index   map[gltfio.IndexBuffer]*indexBuffer
	log     *zap.Logger
	uploads int
}

// NewBuffers creates an empty buffer factory.
func NewBuffers(log *zap.Logger) *Buffers {
	return &Buffers{
		vertex: make(map[gltfio.VertexBuffer]*vertexBuffer),
		index:  make(map[gltfio.IndexBuffer]*indexBuffer),
		log:    log,
	}
}

// CreateVertexBuffer allocates the vertex array and its slot buffers and
// records the attribute layout. Contents arrive through Upload.
func (b *Buffers) CreateVertexBuffer(desc gltfio.VertexBufferDesc) (gltfio.VertexBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vb := &vertexBuffer{desc: desc, vbos: make([]uint32, desc.BufferCount)}
	gl.GenVertexArrays(1, &vb.vao)
	if desc.BufferCount > 0 {
		gl.GenBuffers(int32(desc.BufferCount), &vb.vbos[0])
	}

	gl.BindVertexArray(vb.vao)
	for _, a := range desc.Attributes {
		if a.Slot < 0 || a.Slot >= len(vb.vbos) {
			gl.BindVertexArray(0)
			return 0, fmt.Errorf("attribute %s: slot %d out of range", a.Attribute, a.Slot)
		}
		loc := attribLocation(a.Attribute)
		gl.BindBuffer(gl.ARRAY_BUFFER, vb.vbos[a.Slot])
		gl.EnableVertexAttribArray(loc)
		if isInteger(a) {
			gl.VertexAttribIPointer(loc, int32(a.Type.Components), glComponentType(a.Type.Component),
				int32(a.Stride), gl.PtrOffset(a.Offset))
		} else {
			gl.VertexAttribPointerWithOffset(loc, int32(a.Type.Components), glComponentType(a.Type.Component),
				a.Normalized || normalizedByDefault(a.Attribute), int32(a.Stride), uintptr(a.Offset))
		}
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	b.next++
	handle := gltfio.VertexBuffer(b.next)
	b.vertex[handle] = vb
	return handle, nil
}

// isInteger reports whether an attribute is read as integers in the shader.
func isInteger(a gltfio.VertexAttributeDesc) bool {
	return a.Attribute == gltfio.AttributeBoneIndices
}

// normalizedByDefault reports whether integer data of an attribute is
// always normalized in glTF.
func normalizedByDefault(a gltfio.VertexAttribute) bool {
	switch a {
	case gltfio.AttributeColor, gltfio.AttributeUV0, gltfio.AttributeUV1, gltfio.AttributeBoneWeights:
		return true
	default:
		return false
	}
}

// CreateIndexBuffer allocates an element buffer.
func (b *Buffers) CreateIndexBuffer(desc gltfio.IndexBufferDesc) (gltfio.IndexBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ib := &indexBuffer{desc: desc}
	gl.GenBuffers(1, &ib.ebo)

	b.next++
	handle := gltfio.IndexBuffer(b.next)
	b.index[handle] = ib
	return handle, nil
}

// DestroyVertexBuffer deletes the vertex array and its slot buffers.
func (b *Buffers) DestroyVertexBuffer(handle gltfio.VertexBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	vb, ok := b.vertex[handle]
	if !ok {
		return
	}
	if len(vb.vbos) > 0 {
		gl.DeleteBuffers(int32(len(vb.vbos)), &vb.vbos[0])
	}
	gl.DeleteVertexArrays(1, &vb.vao)
	delete(b.vertex, handle)
}

// DestroyIndexBuffer deletes an element buffer.
func (b *Buffers) DestroyIndexBuffer(handle gltfio.IndexBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ib, ok := b.index[handle]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &ib.ebo)
	delete(b.index, handle)
}

// DataFunc returns the bytes a binding refers to.
type DataFunc func(gltfio.BufferBinding) ([]byte, error)

// Upload fills GL buffers from buffer bindings.
func (b *Buffers) Upload(bindings []gltfio.BufferBinding, data DataFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, binding := range bindings {
		bytes, err := data(binding)
		if err != nil {
			return fmt.Errorf("binding %q %d+%d: %w", binding.URI, binding.Offset, binding.Size, err)
		}
		if len(bytes) == 0 {
			continue
		}

		var name uint32
		if binding.IsIndex() {
			ib, ok := b.index[binding.IndexBuffer]
			if !ok {
				return fmt.Errorf("unknown index buffer %d", binding.IndexBuffer)
			}
			name = ib.ebo
		} else {
			vb, ok := b.vertex[binding.VertexBuffer]
			if !ok || binding.BufferIndex >= len(vb.vbos) {
				return fmt.Errorf("unknown vertex buffer %d slot %d", binding.VertexBuffer, binding.BufferIndex)
			}
			name = vb.vbos[binding.BufferIndex]
		}

		// COPY_WRITE_BUFFER leaves vertex array state untouched.
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, name)
		gl.BufferData(gl.COPY_WRITE_BUFFER, len(bytes), gl.Ptr(bytes), gl.STATIC_DRAW)
		b.uploads++
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	b.log.Debug("uploaded buffer bindings", zap.Int("count", len(bindings)), zap.Int("total", b.uploads))
	return nil
}

// draw issues one indexed draw call.
func (b *Buffers) draw(p gltfio.RenderPrimitive) {
	b.mu.Lock()
	vb, okV := b.vertex[p.Vertices]
	ib, okI := b.index[p.Indices]
	b.mu.Unlock()
	if !okV || !okI {
		return
	}
	indexType, _ := glIndexType(ib.desc.Type)
	gl.BindVertexArray(vb.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.ebo)
	gl.DrawElementsWithOffset(glPrimitive(p.Type), int32(ib.desc.IndexCount), indexType, 0)
}
