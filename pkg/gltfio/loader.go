package gltfio

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/pkg/formats"
)

var glbMagic = []byte("glTF")

// Loader builds assets into an engine. It holds no per-build state, so
// concurrent builds are safe when the engine is.
type Loader struct {
	engine         Engine
	castShadows    bool
	receiveShadows bool
	computeBounds  bool
	log            *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithShadows sets the shadow flags of every created renderable.
func WithShadows(cast, receive bool) Option {
	return func(l *Loader) {
		l.castShadows = cast
		l.receiveShadows = receive
	}
}

// WithBounds toggles bounding box computation. Without bounds, renderables
// are created with culling disabled.
func WithBounds(enabled bool) Option {
	return func(l *Loader) {
		l.computeBounds = enabled
	}
}

// WithLogger sets the logger for build diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a loader for the given engine.
func NewLoader(engine Engine, opts ...Option) *Loader {
	l := &Loader{
		engine:         engine,
		castShadows:    true,
		receiveShadows: true,
		computeBounds:  true,
		log:            logger.Named("gltfio"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateAssetFromJSON parses a .gltf document and builds it. External
// resources resolve relative to dir.
func (l *Loader) CreateAssetFromJSON(data []byte, dir string) (Asset, error) {
	if bytes.HasPrefix(data, glbMagic) {
		return nil, fmt.Errorf("%w: binary container passed as JSON", formats.ErrParse)
	}
	doc, err := formats.Parse(data, dir)
	if err != nil {
		return nil, err
	}
	return l.CreateAsset(doc)
}

// CreateAssetFromBinary parses a .glb container and builds it.
func (l *Loader) CreateAssetFromBinary(data []byte) (Asset, error) {
	if !bytes.HasPrefix(data, glbMagic) {
		return nil, fmt.Errorf("%w: missing glTF binary header", formats.ErrParse)
	}
	doc, err := formats.Parse(data, "")
	if err != nil {
		return nil, err
	}
	return l.CreateAsset(doc)
}

// CreateAsset builds a parsed document. On failure every engine object created
// so far is destroyed and a *BuildError listing all error diagnostics is returned.
func (l *Loader) CreateAsset(doc *formats.Document) (Asset, error) {
	b := newBuildContext(l, doc)
	b.build()
	b.diags.log(l.log, "asset diagnostic")

	if b.diags.HasErrors() {
		b.rollback()
		return nil, &BuildError{Diagnostics: b.diags}
	}

	a := b.asset
	a.warnings = b.diags.Warnings()
	a.vertexBuffers = b.vertexBuffers
	a.indexBuffers = b.indexBuffers

	l.log.Debug("asset created",
		zap.Int("entities", len(a.entities)),
		zap.Int("renderables", len(a.renderables)),
		zap.Int("materials", len(a.materialInstances)),
		zap.Int("buffer_bindings", len(a.bufferBindings)),
		zap.Int("texture_bindings", len(a.textureBindings)),
		zap.Int("warnings", len(a.warnings)))
	return a, nil
}

// DestroyAsset destroys every engine object owned by an asset built by this loader.
func (l *Loader) DestroyAsset(a Asset) {
	impl, ok := a.(*asset)
	if !ok || impl == nil {
		return
	}
	for _, e := range impl.renderables {
		l.engine.DestroyRenderable(e)
	}
	for i := len(impl.entities) - 1; i >= 0; i-- {
		l.engine.DestroyTransform(impl.entities[i])
		l.engine.DestroyEntity(impl.entities[i])
	}
	l.engine.DestroyTransform(impl.root)
	l.engine.DestroyEntity(impl.root)
	for _, vb := range impl.vertexBuffers {
		l.engine.DestroyVertexBuffer(vb)
	}
	for _, ib := range impl.indexBuffers {
		l.engine.DestroyIndexBuffer(ib)
	}
	impl.entities = nil
	impl.renderables = nil
	impl.vertexBuffers = nil
	impl.indexBuffers = nil
	impl.root = 0
}
