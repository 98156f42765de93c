package gltfio

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// Material parameter names for texture slots.
const (
	ParamBaseColorMap         = "baseColorMap"
	ParamMetallicRoughnessMap = "metallicRoughnessMap"
	ParamNormalMap            = "normalMap"
	ParamOcclusionMap         = "occlusionMap"
	ParamEmissiveMap          = "emissiveMap"
)

// MaterialKey is the shape of a material: the features that select a shader variant.
// It is comparable and usable as a map key.
type MaterialKey struct {
	DoubleSided        bool
	Unlit              bool
	HasVertexColors    bool
	AlphaMode          formats.AlphaMode
	AlphaMaskThreshold float32

	HasBaseColorTexture         bool
	HasMetallicRoughnessTexture bool
	HasNormalTexture            bool
	HasOcclusionTexture         bool
	HasEmissiveTexture          bool

	BaseColorUV         int
	MetallicRoughnessUV int
	NormalUV            int
	OcclusionUV         int
	EmissiveUV          int
}

// DefaultMaterialKey is the shape used by primitives without a material.
func DefaultMaterialKey() MaterialKey {
	return MaterialKey{AlphaMaskThreshold: 0.5}
}

// MaterialInstance is a material variant with its parameter values.
// Texture slots are filled later by the resource stage.
type MaterialInstance struct {
	Name     string
	Material Material
	Key      MaterialKey

	BaseColorFactor   mgl32.Vec4
	MetallicFactor    float32
	RoughnessFactor   float32
	EmissiveFactor    mgl32.Vec3
	NormalScale       float32
	OcclusionStrength float32

	mu       sync.RWMutex
	textures map[string]Texture
}

// SetTexture assigns a texture to a parameter slot.
func (mi *MaterialInstance) SetTexture(param string, tex Texture) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	if mi.textures == nil {
		mi.textures = make(map[string]Texture)
	}
	mi.textures[param] = tex
}

// Texture returns the texture assigned to a parameter slot.
func (mi *MaterialInstance) Texture(param string) (Texture, bool) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()
	tex, ok := mi.textures[param]
	return tex, ok
}

// WrapMode is an engine texture wrapping mode.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// MinFilter is an engine minification filter.
type MinFilter int

const (
	MinNearest MinFilter = iota
	MinLinear
	MinNearestMipmapNearest
	MinLinearMipmapNearest
	MinNearestMipmapLinear
	MinLinearMipmapLinear
)

// Mipmapped reports whether the filter samples mip levels.
func (f MinFilter) Mipmapped() bool {
	return f >= MinNearestMipmapNearest
}

// MagFilter is an engine magnification filter.
type MagFilter int

const (
	MagNearest MagFilter = iota
	MagLinear
)

// TextureSampler is the engine sampler state of a texture binding.
type TextureSampler struct {
	WrapS WrapMode
	WrapT WrapMode
	Min   MinFilter
	Mag   MagFilter
}

// DefaultTextureSampler is used for textures without a sampler.
func DefaultTextureSampler() TextureSampler {
	return TextureSampler{
		WrapS: WrapRepeat,
		WrapT: WrapRepeat,
		Min:   MinLinearMipmapLinear,
		Mag:   MagLinear,
	}
}

func wrapModeOf(w formats.Wrap) WrapMode {
	switch w {
	case formats.WrapClampToEdge:
		return WrapClampToEdge
	case formats.WrapMirroredRepeat:
		return WrapMirroredRepeat
	default:
		return WrapRepeat
	}
}

func minFilterOf(f formats.Filter) MinFilter {
	switch f {
	case formats.FilterNearest:
		return MinNearest
	case formats.FilterLinear:
		return MinLinear
	case formats.FilterNearestMipmapNearest:
		return MinNearestMipmapNearest
	case formats.FilterLinearMipmapNearest:
		return MinLinearMipmapNearest
	case formats.FilterNearestMipmapLinear:
		return MinNearestMipmapLinear
	default:
		return MinLinearMipmapLinear
	}
}

func magFilterOf(f formats.Filter) MagFilter {
	if f == formats.FilterNearest {
		return MagNearest
	}
	return MagLinear
}

func textureSamplerOf(s *formats.Sampler) TextureSampler {
	return TextureSampler{
		WrapS: wrapModeOf(s.WrapS),
		WrapT: wrapModeOf(s.WrapT),
		Min:   minFilterOf(s.MinFilter),
		Mag:   magFilterOf(s.MagFilter),
	}
}

// materialKeyOf derives the shape of a material definition.
func materialKeyOf(m *formats.Material) MaterialKey {
	key := MaterialKey{
		DoubleSided:        m.DoubleSided,
		Unlit:              m.Unlit,
		AlphaMode:          m.AlphaMode,
		AlphaMaskThreshold: m.AlphaCutoff,

		HasNormalTexture:    m.Normal.Present(),
		HasOcclusionTexture: m.Occlusion.Present(),
		HasEmissiveTexture:  m.Emissive.Present(),
		NormalUV:            m.Normal.TexCoord,
		OcclusionUV:         m.Occlusion.TexCoord,
		EmissiveUV:          m.Emissive.TexCoord,
	}
	if m.HasPBR {
		key.HasBaseColorTexture = m.BaseColor.Present()
		key.HasMetallicRoughnessTexture = m.MetallicRoughness.Present()
		key.BaseColorUV = m.BaseColor.TexCoord
		key.MetallicRoughnessUV = m.MetallicRoughness.TexCoord
	}
	return key
}

// createMaterialInstance returns the cached instance for a material index,
// creating it and its texture bindings on first use. Index None selects the
// default material.
func (b *buildContext) createMaterialInstance(material int) (*MaterialInstance, error) {
	if mi, ok := b.materials[material]; ok {
		return mi, nil
	}

	if material == formats.None {
		key := DefaultMaterialKey()
		variant, err := b.engine.GetOrCreateMaterial(key)
		if err != nil {
			return nil, err
		}
		mi := &MaterialInstance{
			Name:              "default",
			Material:          variant,
			Key:               key,
			BaseColorFactor:   mgl32.Vec4{1, 1, 1, 1},
			MetallicFactor:    1,
			RoughnessFactor:   1,
			NormalScale:       1,
			OcclusionStrength: 1,
		}
		b.addMaterialInstance(material, mi)
		return mi, nil
	}

	src := &b.doc.Materials[material]
	key := materialKeyOf(src)
	variant, err := b.engine.GetOrCreateMaterial(key)
	if err != nil {
		return nil, err
	}
	mi := &MaterialInstance{
		Name:              src.Name,
		Material:          variant,
		Key:               key,
		BaseColorFactor:   mgl32.Vec4{1, 1, 1, 1},
		MetallicFactor:    1,
		RoughnessFactor:   1,
		EmissiveFactor:    src.EmissiveFactor,
		NormalScale:       src.NormalScale,
		OcclusionStrength: src.OcclusionStrength,
	}

	if src.HasPBR {
		mi.BaseColorFactor = src.BaseColorFactor
		mi.MetallicFactor = src.MetallicFactor
		mi.RoughnessFactor = src.RoughnessFactor
		b.addTextureBinding(material, mi, src.BaseColor, ParamBaseColorMap)
		b.addTextureBinding(material, mi, src.MetallicRoughness, ParamMetallicRoughnessMap)
	}
	if src.HasSpecularGlossiness {
		b.warn(b.materialDiag(material, ErrUnsupportedWorkflow))
	}
	b.addTextureBinding(material, mi, src.Normal, ParamNormalMap)
	b.addTextureBinding(material, mi, src.Occlusion, ParamOcclusionMap)
	b.addTextureBinding(material, mi, src.Emissive, ParamEmissiveMap)

	b.addMaterialInstance(material, mi)
	return mi, nil
}

func (b *buildContext) addMaterialInstance(material int, mi *MaterialInstance) {
	b.materials[material] = mi
	b.asset.materialInstances = append(b.asset.materialInstances, mi)
}

// addTextureBinding emits one texture binding for a present slot. A texture
// without an image is a warning and emits nothing.
func (b *buildContext) addTextureBinding(material int, mi *MaterialInstance, ref formats.TextureRef, param string) {
	if !ref.Present() {
		return
	}
	tex := &b.doc.Textures[ref.Texture]
	if tex.Image == formats.None {
		b.warn(b.materialDiag(material, ErrMissingTextureImage))
		return
	}
	img := &b.doc.Images[tex.Image]

	sampler := DefaultTextureSampler()
	if tex.Sampler != formats.None {
		sampler = textureSamplerOf(&b.doc.Samplers[tex.Sampler])
	}

	b.asset.textureBindings = append(b.asset.textureBindings, TextureBinding{
		URI:               img.URI,
		MimeType:          img.MimeType,
		Image:             tex.Image,
		MaterialInstance:  mi,
		MaterialParameter: param,
		Sampler:           sampler,
	})
}

func (b *buildContext) materialDiag(material int, err error) Diagnostic {
	d := newDiagnostic(SeverityWarning, err)
	d.Material = material
	return d
}
