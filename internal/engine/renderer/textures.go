package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/engine/texture"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

type textureKey struct {
	image   int
	sampler gltfio.TextureSampler
}

// Textures uploads texture bindings as GL textures. An image referenced with
// the same sampler by several materials is uploaded once.
type Textures struct {
	next   uint32
	names  map[gltfio.Texture]uint32
	loaded map[textureKey]gltfio.Texture
	log    *zap.Logger
}

// NewTextures creates an empty texture set.
func NewTextures(log *zap.Logger) *Textures {
	return &Textures{
		names:  make(map[gltfio.Texture]uint32),
		loaded: make(map[textureKey]gltfio.Texture),
		log:    log,
	}
}

// Load decodes the image of a binding, uploads it and assigns it to the
// material instance parameter the binding names.
func (t *Textures) Load(tb gltfio.TextureBinding, data []byte) error {
	key := textureKey{image: tb.Image, sampler: tb.Sampler}
	if handle, ok := t.loaded[key]; ok {
		tb.MaterialInstance.SetTexture(tb.MaterialParameter, handle)
		return nil
	}

	img, err := texture.Decode(data, tb.MimeType)
	if err != nil {
		return fmt.Errorf("image %d: %w", tb.Image, err)
	}

	var name uint32
	gl.GenTextures(1, &name)
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(tb.Sampler.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(tb.Sampler.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glMinFilter(tb.Sampler.Min))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glMagFilter(tb.Sampler.Mag))

	size := img.Bounds().Size()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if tb.Sampler.Min.Mipmapped() {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	t.next++
	handle := gltfio.Texture(t.next)
	t.names[handle] = name
	t.loaded[key] = handle
	tb.MaterialInstance.SetTexture(tb.MaterialParameter, handle)

	t.log.Debug("texture uploaded",
		zap.Int("image", tb.Image),
		zap.String("param", tb.MaterialParameter),
		zap.Int("width", size.X),
		zap.Int("height", size.Y),
	)
	return nil
}

// bind binds a texture handle to a texture unit.
func (t *Textures) bind(unit int32, handle gltfio.Texture) bool {
	name, ok := t.names[handle]
	if !ok {
		return false
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, name)
	return true
}

// Close deletes every uploaded texture.
func (t *Textures) Close() {
	for handle, name := range t.names {
		gl.DeleteTextures(1, &name)
		delete(t.names, handle)
	}
	clear(t.loaded)
}
