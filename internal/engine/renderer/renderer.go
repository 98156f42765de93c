// Package renderer draws gltfio assets with OpenGL. It provides the GPU
// buffer factory the loader creates vertex and index buffers through, the
// texture uploader for texture bindings and one shader variant per material
// shape.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor mgl32.Vec4
}

// Scene is the engine state the renderer reads each frame.
type Scene interface {
	WorldTransform(e gltfio.Entity) (mgl32.Mat4, bool)
	Renderable(e gltfio.Entity) (gltfio.Renderable, bool)
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config   Config
	buffers  *Buffers
	textures *Textures
	programs map[gltfio.MaterialKey]*program
	failed   map[gltfio.MaterialKey]struct{}
	lightDir mgl32.Vec3
	log      *zap.Logger
}

// New creates a new renderer.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log := logger.Named("renderer")
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	r := &Renderer{
		config:   cfg,
		buffers:  NewBuffers(log.Named("buffers")),
		textures: NewTextures(log.Named("textures")),
		programs: make(map[gltfio.MaterialKey]*program),
		failed:   make(map[gltfio.MaterialKey]struct{}),
		lightDir: mgl32.Vec3{-0.4, -1, -0.6}.Normalize(),
		log:      log,
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.CullFace(gl.BACK)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])

	// Values seen by shaders when a primitive lacks the attribute.
	gl.VertexAttrib3f(attribLocation(gltfio.AttributeNormal), 0, 0, 1)
	gl.VertexAttrib4f(attribLocation(gltfio.AttributeColor), 1, 1, 1, 1)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Buffers returns the GPU buffer factory.
func (r *Renderer) Buffers() *Buffers {
	return r.buffers
}

// Textures returns the texture uploader.
func (r *Renderer) Textures() *Textures {
	return r.textures
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for key, p := range r.programs {
		gl.DeleteProgram(p.id)
		delete(r.programs, key)
	}
	r.textures.Close()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders the given renderable entities. Opaque primitives are drawn
// before blended ones.
func (r *Renderer) Draw(scene Scene, entities []gltfio.Entity, viewProj mgl32.Mat4) {
	var blended []drawItem
	for _, e := range entities {
		rend, ok := scene.Renderable(e)
		if !ok {
			continue
		}
		world, ok := scene.WorldTransform(e)
		if !ok {
			continue
		}
		for _, p := range rend.Primitives {
			item := drawItem{world: world, prim: p}
			if p.Material != nil && p.Material.Key.AlphaMode == formats.AlphaBlend {
				blended = append(blended, item)
				continue
			}
			r.drawItem(item, viewProj)
		}
	}

	gl.DepthMask(false)
	for _, item := range blended {
		r.drawItem(item, viewProj)
	}
	gl.DepthMask(true)
	gl.BindVertexArray(0)
}

type drawItem struct {
	world mgl32.Mat4
	prim  gltfio.RenderPrimitive
}

func (r *Renderer) drawItem(item drawItem, viewProj mgl32.Mat4) {
	mi := item.prim.Material
	if mi == nil {
		return
	}
	if _, failed := r.failed[mi.Key]; failed {
		return
	}
	p, err := r.bindMaterial(mi)
	if err != nil {
		r.log.Error("material variant failed", zap.String("material", mi.Name), zap.Error(err))
		r.failed[mi.Key] = struct{}{}
		return
	}
	gl.UniformMatrix4fv(p.model, 1, false, &item.world[0])
	gl.UniformMatrix4fv(p.viewProj, 1, false, &viewProj[0])
	r.buffers.draw(item.prim)
}
