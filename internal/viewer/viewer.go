// Package viewer implements the interactive asset viewer: it loads a glTF
// asset onto the GPU, plays its animations and runs the frame loop.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/config"
	"github.com/Faultbox/gltfio/internal/engine/camera"
	"github.com/Faultbox/gltfio/internal/engine/framebuffer"
	"github.com/Faultbox/gltfio/internal/engine/headless"
	"github.com/Faultbox/gltfio/internal/engine/input"
	"github.com/Faultbox/gltfio/internal/engine/renderer"
	"github.com/Faultbox/gltfio/internal/engine/window"
	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/internal/resources"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

const windowTitle = "gltfview"

// Viewer is the main viewer instance.
type Viewer struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera

	engine    *headless.Engine
	loader    *gltfio.Loader
	asset     gltfio.Asset
	animator  *gltfio.Animator
	durations []float32
	playback  Playback

	log *zap.Logger
}

// New opens a window and loads the asset at path into it.
func New(cfg *config.Config, path string) (*Viewer, error) {
	v := &Viewer{
		config: cfg,
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		playback: Playback{
			Index:   cfg.Playback.Animation,
			Speed:   cfg.Playback.Speed,
			Loop:    cfg.Playback.Loop,
			Playing: true,
		},
		log: logger.Named("viewer"),
	}

	v.log.Info("initializing viewer",
		zap.String("asset", path),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	// Creating the window also creates the OpenGL context.
	var err error
	v.window, err = window.New(window.Config{
		Title:      windowTitle + " - " + filepath.Base(path),
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Hidden:     cfg.Window.Hidden,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: [4]float32{0.1, 0.1, 0.15, 1.0},
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := v.load(path); err != nil {
		v.Close()
		return nil, err
	}

	v.log.Info("viewer initialized successfully")
	return v, nil
}

// load builds the asset, uploads its bindings and prepares the animator.
func (v *Viewer) load(path string) error {
	v.engine = headless.New(headless.WithBufferFactory(v.renderer.Buffers()))
	v.loader = gltfio.NewLoader(v.engine,
		gltfio.WithShadows(v.config.Loader.CastShadows, v.config.Loader.ReceiveShadows),
		gltfio.WithBounds(v.config.Loader.ComputeBounds),
	)

	res := resources.NewManager(v.config.Resources.BasePath)
	asset, err := res.OpenAsset(v.loader, path)
	if err != nil {
		return err
	}
	v.asset = asset
	doc := asset.Source()

	for _, d := range asset.Warnings() {
		v.log.Warn("asset warning", zap.Error(d))
	}

	err = v.renderer.Buffers().Upload(asset.BufferBindings(), func(b gltfio.BufferBinding) ([]byte, error) {
		return res.BufferData(doc, b)
	})
	if err != nil {
		return fmt.Errorf("uploading buffers: %w", err)
	}

	// Missing textures leave the material untextured.
	for _, tb := range asset.TextureBindings() {
		data, err := res.ImageData(doc, tb)
		if err == nil {
			err = v.renderer.Textures().Load(tb, data)
		}
		if err != nil {
			v.log.Warn("texture not loaded",
				zap.Int("image", tb.Image),
				zap.String("param", tb.MaterialParameter),
				zap.Error(err))
		}
	}

	blobs, err := res.Blobs(asset)
	if err != nil {
		return fmt.Errorf("loading animation data: %w", err)
	}
	v.animator = gltfio.NewAnimator(asset, v.engine, gltfio.WithBlobs(blobs))
	for i := 0; i < v.animator.Count(); i++ {
		v.durations = append(v.durations, v.animator.Duration(i))
		v.log.Info("animation",
			zap.Int("index", i),
			zap.String("name", v.animator.Name(i)),
			zap.Float32("duration", v.animator.Duration(i)))
	}

	asset.ReleaseSourceData()
	res.Clear()

	v.camera.FitToBox(asset.BoundingBox())
	return nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	start := time.Now()
	lastTime := start
	frameCount := 0
	fpsTimer := start

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		v.handleInput(v.input.Update())
		if !v.running {
			break
		}

		v.update(dt)
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if limit := v.config.Playback.Duration; limit > 0 && time.Since(start) >= limit {
			v.log.Info("run duration reached", zap.Duration("duration", limit))
			v.running = false
		}
	}

	return nil
}

func (v *Viewer) handleInput(s input.State) {
	if s.Quit {
		v.running = false
		return
	}
	if s.Resized {
		v.renderer.Resize(s.Width, s.Height)
	}
	if s.DragX != 0 || s.DragY != 0 {
		v.camera.HandleDrag(s.DragX, s.DragY)
	}
	if s.Zoom != 0 {
		v.camera.HandleZoom(s.Zoom)
	}
	if s.TogglePlay {
		v.playback.Playing = !v.playback.Playing
	}
	if s.NextAnimation {
		v.playback.Next(v.animator.Count())
		v.log.Info("playing animation", zap.Int("index", v.playback.Index))
	}
	if s.Restart {
		v.playback.Restart()
	}
}

// update advances the animation clock and poses the asset.
func (v *Viewer) update(dt float32) {
	if v.animator.Count() == 0 {
		return
	}
	v.playback.Advance(dt, v.playback.duration(v.durations))
	if v.playback.Index >= 0 {
		v.animator.Apply(v.playback.Index, v.playback.Time)
		return
	}
	for i := 0; i < v.animator.Count(); i++ {
		v.animator.Apply(i, v.playback.Time)
	}
}

// render draws the current frame.
func (v *Viewer) render() {
	v.renderer.Begin()
	viewProj := v.camera.ProjectionMatrix(v.renderer.Aspect()).Mul4(v.camera.ViewMatrix())
	v.renderer.Draw(v.engine, v.asset.Renderables(), viewProj)
}

// Snapshot poses the asset at the configured capture time, renders one frame
// offscreen at the window size and writes it as PNG.
func (v *Viewer) Snapshot() error {
	width, height := v.window.Size()
	fb, err := framebuffer.New(int32(width), int32(height))
	if err != nil {
		return err
	}
	defer fb.Destroy()

	v.playback.Playing = false
	v.playback.Time = v.config.Capture.Time
	v.update(0)

	restore := fb.BindWithViewport()
	v.render()
	restore()

	path := v.config.Capture.Path
	if err := framebuffer.WritePNG(path, fb.ReadImage()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	v.log.Info("snapshot written",
		zap.String("path", path),
		zap.Float32("time", v.playback.Time),
		zap.Int("width", width),
		zap.Int("height", height))
	return nil
}

// Close releases the asset and the GL resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.asset != nil && v.loader != nil {
		v.loader.DestroyAsset(v.asset)
		v.asset = nil
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
