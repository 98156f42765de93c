package gltfio

import (
	"github.com/Faultbox/gltfio/pkg/formats"
)

// BufferBinding tells the resource stage which byte range of a source buffer
// fills a vertex buffer slot or an index buffer. Exactly one of VertexBuffer and
// IndexBuffer is set.
type BufferBinding struct {
	URI       string
	Buffer    int // source buffer index; lets embedded GLB buffers resolve without a URI
	TotalSize int

	VertexBuffer VertexBuffer
	IndexBuffer  IndexBuffer
	BufferIndex  int // vertex buffer slot

	Offset int
	Size   int
}

// IsIndex reports whether the binding fills an index buffer.
func (b BufferBinding) IsIndex() bool {
	return b.IndexBuffer != 0
}

// TextureBinding tells the resource stage which image to decode for which
// material parameter and with which sampler state.
type TextureBinding struct {
	URI      string
	MimeType string
	Image    int // source image index; images may live in a buffer view

	MaterialInstance  *MaterialInstance
	MaterialParameter string
	Sampler           TextureSampler
}

// Primitive is the pair of GPU buffers created for one mesh primitive.
type Primitive struct {
	Vertices VertexBuffer
	Indices  IndexBuffer
}

func (b *buildContext) addVertexBinding(vb VertexBuffer, slot int, view int) {
	v := &b.doc.BufferViews[view]
	buf := &b.doc.Buffers[v.Buffer]
	b.asset.bufferBindings = append(b.asset.bufferBindings, BufferBinding{
		URI:          buf.URI,
		Buffer:       v.Buffer,
		TotalSize:    buf.ByteLength,
		VertexBuffer: vb,
		BufferIndex:  slot,
		Offset:       v.ByteOffset,
		Size:         v.ByteLength,
	})
}

func (b *buildContext) addIndexBinding(ib IndexBuffer, acc *formats.Accessor) {
	v := &b.doc.BufferViews[acc.BufferView]
	buf := &b.doc.Buffers[v.Buffer]
	b.asset.bufferBindings = append(b.asset.bufferBindings, BufferBinding{
		URI:         buf.URI,
		Buffer:      v.Buffer,
		TotalSize:   buf.ByteLength,
		IndexBuffer: ib,
		Offset:      v.ByteOffset + acc.ByteOffset,
		Size:        v.ByteLength - acc.ByteOffset,
	})
}
