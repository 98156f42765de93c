package formats

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Topology is the primitive assembly mode, numbered as in glTF.
type Topology int

const (
	TopologyPoints        Topology = 0
	TopologyLines         Topology = 1
	TopologyLineLoop      Topology = 2
	TopologyLineStrip     Topology = 3
	TopologyTriangles     Topology = 4
	TopologyTriangleStrip Topology = 5
	TopologyTriangleFan   Topology = 6
)

// String returns the glTF name of the topology.
func (t Topology) String() string {
	switch t {
	case TopologyPoints:
		return "POINTS"
	case TopologyLines:
		return "LINES"
	case TopologyLineLoop:
		return "LINE_LOOP"
	case TopologyLineStrip:
		return "LINE_STRIP"
	case TopologyTriangles:
		return "TRIANGLES"
	case TopologyTriangleStrip:
		return "TRIANGLE_STRIP"
	case TopologyTriangleFan:
		return "TRIANGLE_FAN"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// ComponentType is the numeric storage encoding of an accessor, numbered as in glTF.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// String returns a short name for the component type.
func (c ComponentType) String() string {
	switch c {
	case ComponentByte:
		return "BYTE"
	case ComponentUnsignedByte:
		return "UNSIGNED_BYTE"
	case ComponentShort:
		return "SHORT"
	case ComponentUnsignedShort:
		return "UNSIGNED_SHORT"
	case ComponentUnsignedInt:
		return "UNSIGNED_INT"
	case ComponentFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// AccessorType is the element shape of an accessor.
type AccessorType int

const (
	AccessorScalar AccessorType = iota
	AccessorVec2
	AccessorVec3
	AccessorVec4
	AccessorMat2
	AccessorMat3
	AccessorMat4
)

// Components returns the number of components per element.
func (a AccessorType) Components() int {
	switch a {
	case AccessorScalar:
		return 1
	case AccessorVec2:
		return 2
	case AccessorVec3:
		return 3
	case AccessorVec4, AccessorMat2:
		return 4
	case AccessorMat3:
		return 9
	case AccessorMat4:
		return 16
	default:
		return 0
	}
}

// String returns the glTF name of the accessor type.
func (a AccessorType) String() string {
	switch a {
	case AccessorScalar:
		return "SCALAR"
	case AccessorVec2:
		return "VEC2"
	case AccessorVec3:
		return "VEC3"
	case AccessorVec4:
		return "VEC4"
	case AccessorMat2:
		return "MAT2"
	case AccessorMat3:
		return "MAT3"
	case AccessorMat4:
		return "MAT4"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Filter is a texture filter in glTF numeric codes; FilterUndefined lets the consumer choose.
type Filter int

const (
	FilterUndefined            Filter = 0
	FilterNearest              Filter = 9728
	FilterLinear               Filter = 9729
	FilterNearestMipmapNearest Filter = 9984
	FilterLinearMipmapNearest  Filter = 9985
	FilterNearestMipmapLinear  Filter = 9986
	FilterLinearMipmapLinear   Filter = 9987
)

// Wrap is a texture wrapping mode in glTF numeric codes.
type Wrap int

const (
	WrapRepeat         Wrap = 10497
	WrapClampToEdge    Wrap = 33071
	WrapMirroredRepeat Wrap = 33648
)

// AlphaMode is the material alpha rendering mode.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Interpolation is the keyframe interpolation mode of an animation sampler.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// String returns the glTF name of the interpolation mode.
func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "LINEAR"
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return fmt.Sprintf("Unknown(%d)", int(i))
	}
}

// TargetPath is the node property an animation channel drives.
type TargetPath int

const (
	PathInvalid TargetPath = iota
	PathTranslation
	PathRotation
	PathScale
	PathWeights
)

// String returns the glTF name of the target path.
func (p TargetPath) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	case PathWeights:
		return "weights"
	default:
		return "invalid"
	}
}

// Node is one element of the scene forest.
type Node struct {
	Name     string
	Parent   int
	Children []int
	Mesh     int

	// Local is the resolved local transform (matrix, or T*R*S).
	Local mgl32.Mat4

	// Rest pose, used as the base that animation channels override.
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Mesh is an ordered list of primitives.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// Attribute binds a vertex semantic (POSITION, NORMAL, TEXCOORD_0, ...) to an accessor.
type Attribute struct {
	Semantic string
	Accessor int
}

// Primitive is one drawable piece of a mesh.
type Primitive struct {
	Mode       Topology
	Attributes []Attribute // sorted by semantic
	Indices    int
	Material   int
}

// Attribute returns the accessor index of the given semantic, or None.
func (p *Primitive) Attribute(semantic string) int {
	for _, a := range p.Attributes {
		if a.Semantic == semantic {
			return a.Accessor
		}
	}
	return None
}

// Accessor is a typed view over a byte range of a buffer view.
type Accessor struct {
	Name          string
	BufferView    int
	ByteOffset    int
	ComponentType ComponentType
	Normalized    bool
	Count         int
	Type          AccessorType
	Min           []float32
	Max           []float32
}

// ElementSize returns the packed byte size of one element.
func (a *Accessor) ElementSize() int {
	return a.ComponentType.Size() * a.Type.Components()
}

// BufferView is a byte range of a buffer.
type BufferView struct {
	Buffer     int
	ByteOffset int
	ByteLength int
	ByteStride int // 0 means tightly packed
}

// Buffer is a source blob. Data is set for GLB chunks, data URIs and files
// resolved by Parse or Open.
type Buffer struct {
	Name       string
	URI        string
	ByteLength int
	Data       []byte
}

// Image is a texture image source.
type Image struct {
	Name       string
	URI        string
	MimeType   string
	BufferView int
}

// Sampler holds texture filtering and wrapping state.
type Sampler struct {
	MagFilter Filter
	MinFilter Filter
	WrapS     Wrap
	WrapT     Wrap
}

// Texture pairs an image with a sampler.
type Texture struct {
	Name    string
	Image   int
	Sampler int
}

// TextureRef references a texture from a material slot.
type TextureRef struct {
	Texture  int
	TexCoord int
}

// Present reports whether the slot references a texture.
func (r TextureRef) Present() bool {
	return r.Texture != None
}

// Material is a metallic-roughness material definition.
type Material struct {
	Name        string
	DoubleSided bool
	Unlit       bool
	AlphaMode   AlphaMode
	AlphaCutoff float32

	HasPBR          bool
	BaseColorFactor mgl32.Vec4
	MetallicFactor  float32
	RoughnessFactor float32
	EmissiveFactor  mgl32.Vec3

	NormalScale       float32
	OcclusionStrength float32

	BaseColor         TextureRef
	MetallicRoughness TextureRef
	Normal            TextureRef
	Occlusion         TextureRef
	Emissive          TextureRef

	HasSpecularGlossiness bool
}

// AnimationSampler maps keyframe times to output values.
type AnimationSampler struct {
	Input         int
	Output        int
	Interpolation Interpolation
}

// Channel binds a sampler to a node property.
type Channel struct {
	Sampler int
	Node    int
	Path    TargetPath
}

// Animation is a named set of samplers and channels.
type Animation struct {
	Name     string
	Samplers []AnimationSampler
	Channels []Channel
}

// Document is a normalized glTF asset.
type Document struct {
	Nodes       []Node
	Roots       []int
	Meshes      []Mesh
	Materials   []Material
	Textures    []Texture
	Images      []Image
	Samplers    []Sampler
	Accessors   []Accessor
	BufferViews []BufferView
	Buffers     []Buffer
	Animations  []Animation
}

// NodeCount returns the number of nodes reachable from the roots.
func (d *Document) NodeCount() int {
	count := 0
	stack := append([]int(nil), d.Roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, d.Nodes[n].Children...)
	}
	return count
}

// BufferURI returns the URI of the buffer behind an accessor's view, or "" if none.
func (d *Document) BufferURI(accessor int) string {
	if accessor < 0 || accessor >= len(d.Accessors) {
		return ""
	}
	view := d.Accessors[accessor].BufferView
	if view == None {
		return ""
	}
	return d.Buffers[d.BufferViews[view].Buffer].URI
}
