package gltfio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// singleAccessor wraps payload in a one-view, one-accessor document.
func singleAccessor(ct formats.ComponentType, typ formats.AccessorType, count, stride int, payload []byte) *formats.Document {
	return &formats.Document{
		Buffers:     []formats.Buffer{{ByteLength: len(payload), Data: payload}},
		BufferViews: []formats.BufferView{{Buffer: 0, ByteLength: len(payload), ByteStride: stride}},
		Accessors:   []formats.Accessor{{BufferView: 0, ComponentType: ct, Type: typ, Count: count}},
	}
}

func f32bytes(vals ...float32) []byte {
	var out []byte
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func TestDecodeFloats_Encodings(t *testing.T) {
	tests := []struct {
		name    string
		ct      formats.ComponentType
		payload []byte
		want    []float32
	}{
		{"snorm8", formats.ComponentByte, []byte{127, 0x81, 0x80}, []float32{1, -1, -1}},
		{"unorm8", formats.ComponentUnsignedByte, []byte{255, 0, 51}, []float32{1, 0, 0.2}},
		{"snorm16", formats.ComponentShort, []byte{0xff, 0x7f, 0x00, 0x80, 0x00, 0x00}, []float32{1, -1, 0}},
		{"unorm16", formats.ComponentUnsignedShort, []byte{0xff, 0xff, 0x00, 0x00, 0xff, 0x7f}, []float32{1, 0, 32767.0 / 65535.0}},
		{"float", formats.ComponentFloat, f32bytes(1.5, -2, 1e6), []float32{1.5, -2, 1e6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := singleAccessor(tt.ct, formats.AccessorVec3, 1, 0, tt.payload)
			got, err := DecodeFloats(doc, 0, DocumentBlobs(doc, nil))
			if err != nil {
				t.Fatalf("DecodeFloats failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d values, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("value %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecodeFloats_Unorm16Midpoint(t *testing.T) {
	doc := singleAccessor(formats.ComponentUnsignedShort, formats.AccessorScalar, 1, 0, []byte{0xff, 0x7f})
	got, err := DecodeFloats(doc, 0, DocumentBlobs(doc, nil))
	if err != nil {
		t.Fatalf("DecodeFloats failed: %v", err)
	}
	want := float32(32767) / 65535
	if math.Abs(float64(got[0]-want)) > 1e-6 {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}

func TestDecodeFloats_Stride(t *testing.T) {
	// two VEC2 elements interleaved with 4 bytes of padding each
	payload := append(f32bytes(1, 2), 0, 0, 0, 0)
	payload = append(payload, f32bytes(3, 4)...)
	payload = append(payload, 0, 0, 0, 0)
	doc := singleAccessor(formats.ComponentFloat, formats.AccessorVec2, 2, 12, payload)

	got, err := DecodeFloats(doc, 0, DocumentBlobs(doc, nil))
	if err != nil {
		t.Fatalf("DecodeFloats failed: %v", err)
	}
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDecodeFloats_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  *formats.Document
		want error
	}{
		{
			name: "uint32",
			doc:  singleAccessor(formats.ComponentUnsignedInt, formats.AccessorScalar, 1, 0, make([]byte, 4)),
			want: ErrUnsupportedEncoding,
		},
		{
			name: "matrix",
			doc:  singleAccessor(formats.ComponentFloat, formats.AccessorMat2, 1, 0, make([]byte, 16)),
			want: ErrUnsupportedEncoding,
		},
		{
			name: "truncated",
			doc:  singleAccessor(formats.ComponentFloat, formats.AccessorVec3, 2, 0, make([]byte, 12)),
			want: ErrTruncated,
		},
		{
			name: "no buffer view",
			doc: &formats.Document{Accessors: []formats.Accessor{{
				BufferView: formats.None, ComponentType: formats.ComponentFloat, Count: 1,
			}}},
			want: ErrMissingBufferView,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFloats(tt.doc, 0, DocumentBlobs(tt.doc, nil))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	doc := singleAccessor(formats.ComponentFloat, formats.AccessorScalar, 1, 0, make([]byte, 4))
	if _, err := DecodeFloats(doc, 3, DocumentBlobs(doc, nil)); !errors.Is(err, formats.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestDecodeTimes(t *testing.T) {
	tests := []struct {
		name      string
		in        []float32
		wantTimes []float32
		wantKeys  []int
	}{
		{"ascending", []float32{0, 1, 2}, []float32{0, 1, 2}, []int{0, 1, 2}},
		{"duplicate", []float32{0, 0.5, 0.5, 1}, []float32{0, 0.5, 1}, []int{0, 2, 3}},
		{"unordered", []float32{2, 0, 1}, []float32{0, 1, 2}, []int{1, 2, 0}},
		{"single", []float32{3}, []float32{3}, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := singleAccessor(formats.ComponentFloat, formats.AccessorScalar, len(tt.in), 0, f32bytes(tt.in...))
			times, keys, err := DecodeTimes(doc, 0, DocumentBlobs(doc, nil))
			if err != nil {
				t.Fatalf("DecodeTimes failed: %v", err)
			}
			if len(times) != len(tt.wantTimes) {
				t.Fatalf("expected %d times, got %d: %v", len(tt.wantTimes), len(times), times)
			}
			for i := range tt.wantTimes {
				if times[i] != tt.wantTimes[i] || keys[i] != tt.wantKeys[i] {
					t.Errorf("entry %d: expected (%v, %d), got (%v, %d)",
						i, tt.wantTimes[i], tt.wantKeys[i], times[i], keys[i])
				}
			}
		})
	}

	doc := singleAccessor(formats.ComponentUnsignedShort, formats.AccessorScalar, 1, 0, []byte{1, 0})
	if _, _, err := DecodeTimes(doc, 0, DocumentBlobs(doc, nil)); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding for integer times, got %v", err)
	}
	nan := float32(math.NaN())
	doc = singleAccessor(formats.ComponentFloat, formats.AccessorScalar, 2, 0, f32bytes(0, nan))
	if _, _, err := DecodeTimes(doc, 0, DocumentBlobs(doc, nil)); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding for NaN times, got %v", err)
	}
}

func TestDocumentBlobs(t *testing.T) {
	doc := &formats.Document{Buffers: []formats.Buffer{
		{Data: []byte{1}},
		{URI: "ext.bin"},
		{URI: "missing.bin"},
	}}
	blobs := DocumentBlobs(doc, map[string][]byte{"ext.bin": {2}})

	if b, err := blobs(0); err != nil || b[0] != 1 {
		t.Errorf("expected embedded data, got %v, %v", b, err)
	}
	if b, err := blobs(1); err != nil || b[0] != 2 {
		t.Errorf("expected external data, got %v, %v", b, err)
	}
	if _, err := blobs(2); !errors.Is(err, ErrMissingBlob) {
		t.Errorf("expected ErrMissingBlob, got %v", err)
	}
	if _, err := blobs(5); !errors.Is(err, formats.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestPrimitiveTypeOf(t *testing.T) {
	supported := map[formats.Topology]PrimitiveType{
		formats.TopologyPoints:    PrimitivePoints,
		formats.TopologyLines:     PrimitiveLines,
		formats.TopologyTriangles: PrimitiveTriangles,
	}
	for mode, want := range supported {
		got, err := PrimitiveTypeOf(mode)
		if err != nil || got != want {
			t.Errorf("%s: expected %d, got %d (%v)", mode, want, got, err)
		}
	}
	for _, mode := range []formats.Topology{formats.TopologyLineLoop, formats.TopologyLineStrip,
		formats.TopologyTriangleStrip, formats.TopologyTriangleFan} {
		if _, err := PrimitiveTypeOf(mode); !errors.Is(err, ErrUnsupportedTopology) {
			t.Errorf("%s: expected ErrUnsupportedTopology, got %v", mode, err)
		}
	}
}

func TestElementTypeOf(t *testing.T) {
	tests := []struct {
		ct   formats.ComponentType
		typ  formats.AccessorType
		ok   bool
		want string
	}{
		{formats.ComponentFloat, formats.AccessorVec3, true, "FLOAT3"},
		{formats.ComponentUnsignedByte, formats.AccessorVec4, true, "UNSIGNED_BYTE4"},
		{formats.ComponentShort, formats.AccessorVec2, true, "SHORT2"},
		{formats.ComponentUnsignedInt, formats.AccessorScalar, true, "UNSIGNED_INT"},
		{formats.ComponentUnsignedInt, formats.AccessorVec2, false, ""},
		{formats.ComponentFloat, formats.AccessorMat3, false, ""},
	}
	for _, tt := range tests {
		acc := &formats.Accessor{ComponentType: tt.ct, Type: tt.typ}
		got, err := ElementTypeOf(acc)
		if tt.ok {
			if err != nil || got.String() != tt.want {
				t.Errorf("%s %s: expected %s, got %s (%v)", tt.ct, tt.typ, tt.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnsupportedElementType) {
			t.Errorf("%s %s: expected ErrUnsupportedElementType, got %v", tt.ct, tt.typ, err)
		}
	}
}

func TestIndexTypeOf(t *testing.T) {
	if it, err := IndexTypeOf(&formats.Accessor{ComponentType: formats.ComponentUnsignedShort}); err != nil || it != IndexUShort {
		t.Errorf("expected ushort, got %d (%v)", it, err)
	}
	if it, err := IndexTypeOf(&formats.Accessor{ComponentType: formats.ComponentUnsignedInt}); err != nil || it != IndexUInt {
		t.Errorf("expected uint, got %d (%v)", it, err)
	}
	if _, err := IndexTypeOf(&formats.Accessor{ComponentType: formats.ComponentUnsignedByte}); !errors.Is(err, ErrUnsupportedElementType) {
		t.Errorf("expected ErrUnsupportedElementType for ubyte, got %v", err)
	}
}
