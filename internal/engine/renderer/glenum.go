package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

func glPrimitive(p gltfio.PrimitiveType) uint32 {
	switch p {
	case gltfio.PrimitivePoints:
		return gl.POINTS
	case gltfio.PrimitiveLines:
		return gl.LINES
	default:
		return gl.TRIANGLES
	}
}

func glIndexType(t gltfio.IndexType) (uint32, int) {
	if t == gltfio.IndexUInt {
		return gl.UNSIGNED_INT, 4
	}
	return gl.UNSIGNED_SHORT, 2
}

func glComponentType(c formats.ComponentType) uint32 {
	switch c {
	case formats.ComponentByte:
		return gl.BYTE
	case formats.ComponentUnsignedByte:
		return gl.UNSIGNED_BYTE
	case formats.ComponentShort:
		return gl.SHORT
	case formats.ComponentUnsignedShort:
		return gl.UNSIGNED_SHORT
	case formats.ComponentUnsignedInt:
		return gl.UNSIGNED_INT
	default:
		return gl.FLOAT
	}
}

func glWrap(w gltfio.WrapMode) int32 {
	switch w {
	case gltfio.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case gltfio.WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}

func glMinFilter(f gltfio.MinFilter) int32 {
	switch f {
	case gltfio.MinNearest:
		return gl.NEAREST
	case gltfio.MinLinear:
		return gl.LINEAR
	case gltfio.MinNearestMipmapNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case gltfio.MinLinearMipmapNearest:
		return gl.LINEAR_MIPMAP_NEAREST
	case gltfio.MinNearestMipmapLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	default:
		return gl.LINEAR_MIPMAP_LINEAR
	}
}

func glMagFilter(f gltfio.MagFilter) int32 {
	if f == gltfio.MagNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

// attribLocation is the shader input location of a vertex attribute.
func attribLocation(a gltfio.VertexAttribute) uint32 {
	return uint32(a)
}

// textureUnit is the sampler unit a material parameter is bound to.
func textureUnit(param string) (int32, bool) {
	switch param {
	case gltfio.ParamBaseColorMap:
		return 0, true
	case gltfio.ParamMetallicRoughnessMap:
		return 1, true
	case gltfio.ParamNormalMap:
		return 2, true
	case gltfio.ParamOcclusionMap:
		return 3, true
	case gltfio.ParamEmissiveMap:
		return 4, true
	default:
		return 0, false
	}
}
