package gltfio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// BlobSource returns the bytes of the source buffer with the given index.
type BlobSource func(buffer int) ([]byte, error)

// DocumentBlobs serves buffer data already held by the document, then falls back
// to blobs keyed by buffer URI.
func DocumentBlobs(doc *formats.Document, byURI map[string][]byte) BlobSource {
	return func(buffer int) ([]byte, error) {
		if buffer < 0 || buffer >= len(doc.Buffers) {
			return nil, fmt.Errorf("%w: buffer %d", formats.ErrInvalidReference, buffer)
		}
		b := &doc.Buffers[buffer]
		if b.Data != nil {
			return b.Data, nil
		}
		if data, ok := byURI[b.URI]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("%w %d (%q)", ErrMissingBlob, buffer, b.URI)
	}
}

// accessorRange locates the bytes of an accessor inside its buffer.
type accessorRange struct {
	data     []byte
	offset   int
	stride   int
	elemSize int
	count    int
}

func (r accessorRange) element(i int) []byte {
	start := r.offset + i*r.stride
	return r.data[start : start+r.elemSize]
}

func resolveAccessor(doc *formats.Document, accessor int, blobs BlobSource) (accessorRange, error) {
	if accessor < 0 || accessor >= len(doc.Accessors) {
		return accessorRange{}, fmt.Errorf("%w: accessor %d", formats.ErrInvalidReference, accessor)
	}
	acc := &doc.Accessors[accessor]
	if acc.BufferView == formats.None {
		return accessorRange{}, fmt.Errorf("accessor %d: %w", accessor, ErrMissingBufferView)
	}
	view := &doc.BufferViews[acc.BufferView]
	data, err := blobs(view.Buffer)
	if err != nil {
		return accessorRange{}, err
	}

	r := accessorRange{
		data:     data,
		offset:   view.ByteOffset + acc.ByteOffset,
		stride:   view.ByteStride,
		elemSize: acc.ElementSize(),
		count:    acc.Count,
	}
	if r.stride == 0 {
		r.stride = r.elemSize
	}
	if r.count == 0 {
		return r, nil
	}
	end := r.offset + (r.count-1)*r.stride + r.elemSize
	if r.offset < 0 || end > len(data) || end > view.ByteOffset+view.ByteLength {
		return accessorRange{}, fmt.Errorf("accessor %d: %w (needs %d bytes, buffer has %d)",
			accessor, ErrTruncated, end, len(data))
	}
	return r, nil
}

// componentDecoder converts one stored component to float.
type componentDecoder func(b []byte) float32

func decoderFor(ct formats.ComponentType) componentDecoder {
	switch ct {
	case formats.ComponentByte:
		return func(b []byte) float32 {
			return max(float32(int8(b[0]))/127, -1)
		}
	case formats.ComponentUnsignedByte:
		return func(b []byte) float32 {
			return float32(b[0]) / 255
		}
	case formats.ComponentShort:
		return func(b []byte) float32 {
			return max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
		}
	case formats.ComponentUnsignedShort:
		return func(b []byte) float32 {
			return float32(binary.LittleEndian.Uint16(b)) / 65535
		}
	case formats.ComponentFloat:
		return func(b []byte) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	default:
		return nil
	}
}

// DecodeFloats converts an accessor's elements to a flat float slice. Integer
// encodings are normalized to [0,1] (unsigned) or [-1,1] (signed).
func DecodeFloats(doc *formats.Document, accessor int, blobs BlobSource) ([]float32, error) {
	if accessor < 0 || accessor >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d", formats.ErrInvalidReference, accessor)
	}
	acc := &doc.Accessors[accessor]
	comps := acc.Type.Components()
	switch acc.Type {
	case formats.AccessorScalar, formats.AccessorVec2, formats.AccessorVec3, formats.AccessorVec4:
	default:
		return nil, fmt.Errorf("accessor %d: %w: %s", accessor, ErrUnsupportedEncoding, acc.Type)
	}
	decode := decoderFor(acc.ComponentType)
	if decode == nil {
		return nil, fmt.Errorf("accessor %d: %w: %s", accessor, ErrUnsupportedEncoding, acc.ComponentType)
	}

	r, err := resolveAccessor(doc, accessor, blobs)
	if err != nil {
		return nil, err
	}

	size := acc.ComponentType.Size()
	out := make([]float32, 0, r.count*comps)
	for i := 0; i < r.count; i++ {
		elem := r.element(i)
		for c := 0; c < comps; c++ {
			out = append(out, decode(elem[c*size:]))
		}
	}
	return out, nil
}

// DecodeTimes reads float keyframe times into an ascending, duplicate-free set.
// keys[i] is the source keyframe holding the value for times[i]; for a run of
// equal times it is the last of the run.
func DecodeTimes(doc *formats.Document, accessor int, blobs BlobSource) (times []float32, keys []int, err error) {
	if accessor < 0 || accessor >= len(doc.Accessors) {
		return nil, nil, fmt.Errorf("%w: accessor %d", formats.ErrInvalidReference, accessor)
	}
	acc := &doc.Accessors[accessor]
	if acc.ComponentType != formats.ComponentFloat || acc.Type != formats.AccessorScalar {
		return nil, nil, fmt.Errorf("accessor %d: %w: times must be float scalars, got %s %s",
			accessor, ErrUnsupportedEncoding, acc.ComponentType, acc.Type)
	}
	raw, err := DecodeFloats(doc, accessor, blobs)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range raw {
		if math.IsNaN(float64(v)) {
			return nil, nil, fmt.Errorf("accessor %d: %w: time %d is NaN", accessor, ErrUnsupportedEncoding, i)
		}
	}

	order := make([]int, len(raw))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return raw[order[a]] < raw[order[b]]
	})

	times = make([]float32, 0, len(raw))
	keys = make([]int, 0, len(raw))
	for _, k := range order {
		n := len(times)
		if n > 0 && times[n-1] == raw[k] {
			keys[n-1] = k
			continue
		}
		times = append(times, raw[k])
		keys = append(keys, k)
	}
	return times, keys, nil
}

// PrimitiveTypeOf maps a source topology to an engine primitive type.
func PrimitiveTypeOf(mode formats.Topology) (PrimitiveType, error) {
	switch mode {
	case formats.TopologyPoints:
		return PrimitivePoints, nil
	case formats.TopologyLines:
		return PrimitiveLines, nil
	case formats.TopologyTriangles:
		return PrimitiveTriangles, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedTopology, mode)
	}
}

// IndexTypeOf maps an index accessor to an engine index type.
func IndexTypeOf(acc *formats.Accessor) (IndexType, error) {
	if acc.Type == formats.AccessorScalar {
		switch acc.ComponentType {
		case formats.ComponentUnsignedShort:
			return IndexUShort, nil
		case formats.ComponentUnsignedInt:
			return IndexUInt, nil
		}
	}
	return 0, fmt.Errorf("%w: index %s %s", ErrUnsupportedElementType, acc.ComponentType, acc.Type)
}

// ElementTypeOf maps a vertex attribute accessor to an engine element type.
// Matrices and multi-component unsigned ints have no engine equivalent.
func ElementTypeOf(acc *formats.Accessor) (ElementType, error) {
	comps := acc.Type.Components()
	switch acc.Type {
	case formats.AccessorScalar, formats.AccessorVec2, formats.AccessorVec3, formats.AccessorVec4:
	default:
		return ElementType{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, acc.Type)
	}
	switch acc.ComponentType {
	case formats.ComponentByte, formats.ComponentUnsignedByte,
		formats.ComponentShort, formats.ComponentUnsignedShort, formats.ComponentFloat:
	case formats.ComponentUnsignedInt:
		if comps != 1 {
			return ElementType{}, fmt.Errorf("%w: %s %s", ErrUnsupportedElementType, acc.ComponentType, acc.Type)
		}
	default:
		return ElementType{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, acc.ComponentType)
	}
	return ElementType{Component: acc.ComponentType, Components: comps}, nil
}

// vertexAttributeOf maps a glTF semantic to an engine attribute.
func vertexAttributeOf(semantic string) (VertexAttribute, bool) {
	switch semantic {
	case "POSITION":
		return AttributePosition, true
	case "NORMAL":
		return AttributeNormal, true
	case "TANGENT":
		return AttributeTangent, true
	case "COLOR_0":
		return AttributeColor, true
	case "TEXCOORD_0":
		return AttributeUV0, true
	case "TEXCOORD_1":
		return AttributeUV1, true
	case "JOINTS_0":
		return AttributeBoneIndices, true
	case "WEIGHTS_0":
		return AttributeBoneWeights, true
	default:
		return 0, false
	}
}
