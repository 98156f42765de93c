package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// glTF document errors.
var (
	ErrParse            = errors.New("malformed glTF document")
	ErrInvalidReference = errors.New("index out of range")
	ErrNotAForest       = errors.New("node hierarchy is not a forest")
)

const (
	extUnlit               = "KHR_materials_unlit"
	extSpecularGlossiness  = "KHR_materials_pbrSpecularGlossiness"
	defaultAlphaCutoff     = 0.5
	defaultMetallicFactor  = 1.0
	defaultRoughnessFactor = 1.0
)

// Parse decodes a glTF JSON or GLB payload. External buffers and images referenced
// by relative URIs are resolved against dir. Every failure wraps ErrParse.
func Parse(data []byte, dir string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrParse)
	}

	if dir == "" {
		dir = "."
	}
	var doc gltf.Document
	dec := gltf.NewDecoderFS(bytes.NewReader(data), os.DirFS(dir))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return FromGLTF(&doc)
}

// Open reads and decodes a .gltf or .glb file along with its external buffers.
func Open(path string) (*Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return FromGLTF(doc)
}

// FromGLTF normalizes a decoded document and validates every cross reference.
func FromGLTF(src *gltf.Document) (*Document, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil document", ErrParse)
	}
	n := &normalizer{src: src, dst: &Document{}}
	if err := n.run(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return n.dst, nil
}

type normalizer struct {
	src *gltf.Document
	dst *Document
}

func (n *normalizer) run() error {
	steps := []func() error{
		n.buffers,
		n.bufferViews,
		n.accessors,
		n.images,
		n.samplers,
		n.textures,
		n.materials,
		n.meshes,
		n.nodes,
		n.scene,
		n.animations,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// ref converts an optional glTF index, checking it against the target length.
func ref(idx *uint32, length int, what string) (int, error) {
	if idx == nil {
		return None, nil
	}
	return index(*idx, length, what)
}

func index(idx uint32, length int, what string) (int, error) {
	if int(idx) >= length {
		return None, fmt.Errorf("%w: %s %d (have %d)", ErrInvalidReference, what, idx, length)
	}
	return int(idx), nil
}

func (n *normalizer) buffers() error {
	n.dst.Buffers = make([]Buffer, len(n.src.Buffers))
	for i, b := range n.src.Buffers {
		n.dst.Buffers[i] = Buffer{
			Name:       b.Name,
			URI:        b.URI,
			ByteLength: int(b.ByteLength),
			Data:       b.Data,
		}
	}
	return nil
}

func (n *normalizer) bufferViews() error {
	n.dst.BufferViews = make([]BufferView, len(n.src.BufferViews))
	for i, v := range n.src.BufferViews {
		buf, err := index(v.Buffer, len(n.dst.Buffers), "buffer")
		if err != nil {
			return fmt.Errorf("bufferView %d: %w", i, err)
		}
		end := int(v.ByteOffset) + int(v.ByteLength)
		if bl := n.dst.Buffers[buf].ByteLength; bl > 0 && end > bl {
			return fmt.Errorf("bufferView %d: range %d exceeds buffer length %d", i, end, bl)
		}
		n.dst.BufferViews[i] = BufferView{
			Buffer:     buf,
			ByteOffset: int(v.ByteOffset),
			ByteLength: int(v.ByteLength),
			ByteStride: int(v.ByteStride),
		}
	}
	return nil
}

func (n *normalizer) accessors() error {
	n.dst.Accessors = make([]Accessor, len(n.src.Accessors))
	for i, a := range n.src.Accessors {
		view, err := ref(a.BufferView, len(n.dst.BufferViews), "bufferView")
		if err != nil {
			return fmt.Errorf("accessor %d: %w", i, err)
		}
		n.dst.Accessors[i] = Accessor{
			Name:          a.Name,
			BufferView:    view,
			ByteOffset:    int(a.ByteOffset),
			ComponentType: componentType(a.ComponentType),
			Normalized:    a.Normalized,
			Count:         int(a.Count),
			Type:          accessorType(a.Type),
			Min:           a.Min,
			Max:           a.Max,
		}
	}
	return nil
}

func (n *normalizer) images() error {
	n.dst.Images = make([]Image, len(n.src.Images))
	for i, img := range n.src.Images {
		view, err := ref(img.BufferView, len(n.dst.BufferViews), "bufferView")
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		n.dst.Images[i] = Image{
			Name:       img.Name,
			URI:        img.URI,
			MimeType:   img.MimeType,
			BufferView: view,
		}
	}
	return nil
}

func (n *normalizer) samplers() error {
	n.dst.Samplers = make([]Sampler, len(n.src.Samplers))
	for i, s := range n.src.Samplers {
		n.dst.Samplers[i] = Sampler{
			MagFilter: magFilter(s.MagFilter),
			MinFilter: minFilter(s.MinFilter),
			WrapS:     wrapMode(s.WrapS),
			WrapT:     wrapMode(s.WrapT),
		}
	}
	return nil
}

func (n *normalizer) textures() error {
	n.dst.Textures = make([]Texture, len(n.src.Textures))
	for i, t := range n.src.Textures {
		img, err := ref(t.Source, len(n.dst.Images), "image")
		if err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		smp, err := ref(t.Sampler, len(n.dst.Samplers), "sampler")
		if err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		n.dst.Textures[i] = Texture{Name: t.Name, Image: img, Sampler: smp}
	}
	return nil
}

func (n *normalizer) textureInfo(info *gltf.TextureInfo) (TextureRef, error) {
	if info == nil {
		return TextureRef{Texture: None}, nil
	}
	tex, err := index(info.Index, len(n.dst.Textures), "texture")
	if err != nil {
		return TextureRef{Texture: None}, err
	}
	return TextureRef{Texture: tex, TexCoord: int(info.TexCoord)}, nil
}

func (n *normalizer) materials() error {
	n.dst.Materials = make([]Material, len(n.src.Materials))
	for i, m := range n.src.Materials {
		mat := Material{
			Name:              m.Name,
			DoubleSided:       m.DoubleSided,
			AlphaCutoff:       defaultAlphaCutoff,
			BaseColorFactor:   mgl32.Vec4{1, 1, 1, 1},
			MetallicFactor:    defaultMetallicFactor,
			RoughnessFactor:   defaultRoughnessFactor,
			EmissiveFactor:    mgl32.Vec3(m.EmissiveFactor),
			NormalScale:       1,
			OcclusionStrength: 1,
			BaseColor:         TextureRef{Texture: None},
			MetallicRoughness: TextureRef{Texture: None},
			Normal:            TextureRef{Texture: None},
			Occlusion:         TextureRef{Texture: None},
			Emissive:          TextureRef{Texture: None},
		}

		switch m.AlphaMode {
		case gltf.AlphaMask:
			mat.AlphaMode = AlphaMask
		case gltf.AlphaBlend:
			mat.AlphaMode = AlphaBlend
		default:
			mat.AlphaMode = AlphaOpaque
		}
		if m.AlphaCutoff != nil {
			mat.AlphaCutoff = *m.AlphaCutoff
		}
		if m.Extensions != nil {
			_, mat.Unlit = m.Extensions[extUnlit]
			_, mat.HasSpecularGlossiness = m.Extensions[extSpecularGlossiness]
		}

		var err error
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			mat.HasPBR = true
			if pbr.BaseColorFactor != nil {
				mat.BaseColorFactor = mgl32.Vec4(*pbr.BaseColorFactor)
			}
			if pbr.MetallicFactor != nil {
				mat.MetallicFactor = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.RoughnessFactor = *pbr.RoughnessFactor
			}
			if mat.BaseColor, err = n.textureInfo(pbr.BaseColorTexture); err != nil {
				return fmt.Errorf("material %d: baseColorTexture: %w", i, err)
			}
			if mat.MetallicRoughness, err = n.textureInfo(pbr.MetallicRoughnessTexture); err != nil {
				return fmt.Errorf("material %d: metallicRoughnessTexture: %w", i, err)
			}
		}
		if mat.Emissive, err = n.textureInfo(m.EmissiveTexture); err != nil {
			return fmt.Errorf("material %d: emissiveTexture: %w", i, err)
		}
		if nt := m.NormalTexture; nt != nil {
			if nt.Scale != nil {
				mat.NormalScale = *nt.Scale
			}
			if nt.Index != nil {
				tex, err := index(*nt.Index, len(n.dst.Textures), "texture")
				if err != nil {
					return fmt.Errorf("material %d: normalTexture: %w", i, err)
				}
				mat.Normal = TextureRef{Texture: tex, TexCoord: int(nt.TexCoord)}
			}
		}
		if ot := m.OcclusionTexture; ot != nil {
			if ot.Strength != nil {
				mat.OcclusionStrength = *ot.Strength
			}
			if ot.Index != nil {
				tex, err := index(*ot.Index, len(n.dst.Textures), "texture")
				if err != nil {
					return fmt.Errorf("material %d: occlusionTexture: %w", i, err)
				}
				mat.Occlusion = TextureRef{Texture: tex, TexCoord: int(ot.TexCoord)}
			}
		}
		n.dst.Materials[i] = mat
	}
	return nil
}

func (n *normalizer) meshes() error {
	n.dst.Meshes = make([]Mesh, len(n.src.Meshes))
	for i, m := range n.src.Meshes {
		mesh := Mesh{Name: m.Name, Primitives: make([]Primitive, len(m.Primitives))}
		for j, p := range m.Primitives {
			prim := Primitive{Mode: topology(p.Mode)}
			var err error
			if prim.Indices, err = ref(p.Indices, len(n.dst.Accessors), "accessor"); err != nil {
				return fmt.Errorf("mesh %d primitive %d: indices: %w", i, j, err)
			}
			if prim.Material, err = ref(p.Material, len(n.dst.Materials), "material"); err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", i, j, err)
			}
			for semantic, acc := range p.Attributes {
				idx, err := index(acc, len(n.dst.Accessors), "accessor")
				if err != nil {
					return fmt.Errorf("mesh %d primitive %d: %s: %w", i, j, semantic, err)
				}
				prim.Attributes = append(prim.Attributes, Attribute{Semantic: semantic, Accessor: idx})
			}
			sort.Slice(prim.Attributes, func(a, b int) bool {
				return prim.Attributes[a].Semantic < prim.Attributes[b].Semantic
			})
			mesh.Primitives[j] = prim
		}
		n.dst.Meshes[i] = mesh
	}
	return nil
}

func (n *normalizer) nodes() error {
	n.dst.Nodes = make([]Node, len(n.src.Nodes))
	for i := range n.dst.Nodes {
		n.dst.Nodes[i].Parent = None
	}
	for i, src := range n.src.Nodes {
		node := &n.dst.Nodes[i]
		node.Name = src.Name

		var err error
		if node.Mesh, err = ref(src.Mesh, len(n.dst.Meshes), "mesh"); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		for _, c := range src.Children {
			child, err := index(c, len(n.dst.Nodes), "node")
			if err != nil {
				return fmt.Errorf("node %d child: %w", i, err)
			}
			if child == i {
				return fmt.Errorf("%w: node %d is its own child", ErrNotAForest, i)
			}
			if p := n.dst.Nodes[child].Parent; p != None {
				return fmt.Errorf("%w: node %d has parents %d and %d", ErrNotAForest, child, p, i)
			}
			n.dst.Nodes[child].Parent = i
			node.Children = append(node.Children, child)
		}
		resolveTransform(node, src)
	}
	return nil
}

// resolveTransform fills the local matrix and the rest pose of a node.
func resolveTransform(node *Node, src *gltf.Node) {
	m := mgl32.Mat4(src.Matrix)
	if m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		node.Local = m
		node.Translation = m.Col(3).Vec3()
		node.Scale = mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
		rot := m
		for c := 0; c < 3; c++ {
			if s := node.Scale[c]; s != 0 {
				col := m.Col(c).Mul(1 / s)
				rot.SetCol(c, col)
			}
		}
		rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
		node.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
		return
	}

	node.Translation = mgl32.Vec3(src.Translation)
	node.Rotation = mgl32.Quat{W: src.Rotation[3], V: mgl32.Vec3{src.Rotation[0], src.Rotation[1], src.Rotation[2]}}
	if node.Rotation.Len() == 0 {
		node.Rotation = mgl32.QuatIdent()
	}
	node.Scale = mgl32.Vec3(src.Scale)
	if node.Scale == (mgl32.Vec3{}) {
		node.Scale = mgl32.Vec3{1, 1, 1}
	}
	node.Local = ComposeTRS(node.Translation, node.Rotation, node.Scale)
}

// ComposeTRS builds T * R * S.
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func (n *normalizer) scene() error {
	// If no default scene is declared the first one is used; zero scenes is valid.
	if len(n.src.Scenes) == 0 {
		return nil
	}
	sceneIdx := 0
	if n.src.Scene != nil {
		idx, err := index(*n.src.Scene, len(n.src.Scenes), "scene")
		if err != nil {
			return err
		}
		sceneIdx = idx
	}
	seen := make(map[int]bool)
	for _, r := range n.src.Scenes[sceneIdx].Nodes {
		root, err := index(r, len(n.dst.Nodes), "node")
		if err != nil {
			return fmt.Errorf("scene %d: %w", sceneIdx, err)
		}
		if seen[root] {
			return fmt.Errorf("%w: scene root %d listed twice", ErrNotAForest, root)
		}
		seen[root] = true
		if p := n.dst.Nodes[root].Parent; p != None {
			return fmt.Errorf("%w: scene root %d is a child of node %d", ErrNotAForest, root, p)
		}
		n.dst.Roots = append(n.dst.Roots, root)
	}
	return nil
}

func (n *normalizer) animations() error {
	n.dst.Animations = make([]Animation, len(n.src.Animations))
	for i, a := range n.src.Animations {
		anim := Animation{
			Name:     a.Name,
			Samplers: make([]AnimationSampler, len(a.Samplers)),
			Channels: make([]Channel, len(a.Channels)),
		}
		for j, s := range a.Samplers {
			in, err := ref(s.Input, len(n.dst.Accessors), "accessor")
			if err != nil {
				return fmt.Errorf("animation %d sampler %d input: %w", i, j, err)
			}
			out, err := ref(s.Output, len(n.dst.Accessors), "accessor")
			if err != nil {
				return fmt.Errorf("animation %d sampler %d output: %w", i, j, err)
			}
			if in == None || out == None {
				return fmt.Errorf("animation %d sampler %d: missing input or output accessor", i, j)
			}
			anim.Samplers[j] = AnimationSampler{Input: in, Output: out, Interpolation: interpolation(s.Interpolation)}
		}
		for j, c := range a.Channels {
			smp, err := ref(c.Sampler, len(anim.Samplers), "sampler")
			if err != nil {
				return fmt.Errorf("animation %d channel %d: %w", i, j, err)
			}
			if smp == None {
				return fmt.Errorf("animation %d channel %d: missing sampler", i, j)
			}
			node, err := ref(c.Target.Node, len(n.dst.Nodes), "node")
			if err != nil {
				return fmt.Errorf("animation %d channel %d: %w", i, j, err)
			}
			anim.Channels[j] = Channel{Sampler: smp, Node: node, Path: targetPath(c.Target.Path)}
		}
		n.dst.Animations[i] = anim
	}
	return nil
}

func topology(m gltf.PrimitiveMode) Topology {
	switch m {
	case gltf.PrimitivePoints:
		return TopologyPoints
	case gltf.PrimitiveLines:
		return TopologyLines
	case gltf.PrimitiveLineLoop:
		return TopologyLineLoop
	case gltf.PrimitiveLineStrip:
		return TopologyLineStrip
	case gltf.PrimitiveTriangleStrip:
		return TopologyTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return TopologyTriangleFan
	default:
		return TopologyTriangles
	}
}

func componentType(c gltf.ComponentType) ComponentType {
	switch c {
	case gltf.ComponentByte:
		return ComponentByte
	case gltf.ComponentUbyte:
		return ComponentUnsignedByte
	case gltf.ComponentShort:
		return ComponentShort
	case gltf.ComponentUshort:
		return ComponentUnsignedShort
	case gltf.ComponentUint:
		return ComponentUnsignedInt
	default:
		return ComponentFloat
	}
}

func accessorType(t gltf.AccessorType) AccessorType {
	switch t {
	case gltf.AccessorVec2:
		return AccessorVec2
	case gltf.AccessorVec3:
		return AccessorVec3
	case gltf.AccessorVec4:
		return AccessorVec4
	case gltf.AccessorMat2:
		return AccessorMat2
	case gltf.AccessorMat3:
		return AccessorMat3
	case gltf.AccessorMat4:
		return AccessorMat4
	default:
		return AccessorScalar
	}
}

func magFilter(f gltf.MagFilter) Filter {
	switch f {
	case gltf.MagNearest:
		return FilterNearest
	case gltf.MagLinear:
		return FilterLinear
	default:
		return FilterUndefined
	}
}

func minFilter(f gltf.MinFilter) Filter {
	switch f {
	case gltf.MinNearest:
		return FilterNearest
	case gltf.MinLinear:
		return FilterLinear
	case gltf.MinNearestMipMapNearest:
		return FilterNearestMipmapNearest
	case gltf.MinLinearMipMapNearest:
		return FilterLinearMipmapNearest
	case gltf.MinNearestMipMapLinear:
		return FilterNearestMipmapLinear
	case gltf.MinLinearMipMapLinear:
		return FilterLinearMipmapLinear
	default:
		return FilterUndefined
	}
}

func wrapMode(w gltf.WrappingMode) Wrap {
	switch w {
	case gltf.WrapClampToEdge:
		return WrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return WrapMirroredRepeat
	default:
		return WrapRepeat
	}
}

func interpolation(i gltf.Interpolation) Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return InterpolationStep
	case gltf.InterpolationCubicSpline:
		return InterpolationCubicSpline
	default:
		return InterpolationLinear
	}
}

func targetPath(p gltf.TRSProperty) TargetPath {
	switch p {
	case gltf.TRSTranslation:
		return PathTranslation
	case gltf.TRSRotation:
		return PathRotation
	case gltf.TRSScale:
		return PathScale
	case gltf.TRSWeights:
		return PathWeights
	default:
		return PathInvalid
	}
}
