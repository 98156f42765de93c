package gltfio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// buildContext is the state of one CreateAsset call.
type buildContext struct {
	engine Engine
	opts   *Loader
	doc    *formats.Document
	asset  *asset
	log    *zap.Logger

	meshes    map[int]*meshEntry
	materials map[int]*MaterialInstance

	// Engine objects created so far, destroyed on failure.
	transforms    []Entity
	renderables   []Entity
	vertexBuffers []VertexBuffer
	indexBuffers  []IndexBuffer

	diags Diagnostics
}

func newBuildContext(l *Loader, doc *formats.Document) *buildContext {
	return &buildContext{
		engine: l.engine,
		opts:   l,
		doc:    doc,
		log:    l.log,
		asset: &asset{
			source:     doc,
			nodeMap:    make(map[int]Entity, len(doc.Nodes)),
			boundingBx: EmptyBox(),
		},
		meshes:    make(map[int]*meshEntry),
		materials: make(map[int]*MaterialInstance),
	}
}

func (b *buildContext) report(d Diagnostic) {
	b.diags = append(b.diags, d)
}

func (b *buildContext) warn(d Diagnostic) {
	d.Severity = SeverityWarning
	b.diags = append(b.diags, d)
}

// frame is a pending node of the depth-first walk.
type frame struct {
	node   int
	parent Entity
	world  mgl32.Mat4
}

// build walks the node forest, creating one entity per node. It never stops at
// the first problem so that every diagnosable node is reported.
func (b *buildContext) build() {
	root := b.engine.CreateEntity()
	b.asset.root = root
	b.engine.CreateTransform(root, 0, mgl32.Ident4())
	b.transforms = append(b.transforms, root)

	stack := make([]frame, 0, len(b.doc.Roots))
	for i := len(b.doc.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: b.doc.Roots[i], parent: root, world: mgl32.Ident4()})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &b.doc.Nodes[f.node]
		entity := b.engine.CreateEntity()
		b.engine.CreateTransform(entity, f.parent, node.Local)
		b.transforms = append(b.transforms, entity)
		b.asset.entities = append(b.asset.entities, entity)
		b.asset.nodeMap[f.node] = entity

		world := f.world.Mul4(node.Local)
		if node.Mesh != formats.None {
			b.createRenderable(f.node, entity, world)
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: node.Children[i], parent: entity, world: world})
		}
	}
}

// createRenderable attaches a renderable for the node's mesh, one engine
// primitive per supported source primitive.
func (b *buildContext) createRenderable(node int, entity Entity, world mgl32.Mat4) {
	mesh := b.doc.Nodes[node].Mesh
	src := &b.doc.Meshes[mesh]
	cached := b.meshPrimitives(node, mesh)

	r := Renderable{
		CastShadows:    b.opts.castShadows,
		ReceiveShadows: b.opts.receiveShadows,
		Bounds:         EmptyBox(),
	}
	hasBounds := true

	for i := range src.Primitives {
		prim := &src.Primitives[i]
		ptype, err := PrimitiveTypeOf(prim.Mode)
		if err != nil {
			d := newDiagnostic(SeverityError, err)
			d.Node, d.Mesh, d.Primitive = node, mesh, i
			b.report(d)
			continue
		}
		out := cached.prims[i]
		if out.Vertices == 0 {
			continue // creation failed and was reported on first reference
		}

		mi, err := b.createMaterialInstance(prim.Material)
		if err != nil {
			d := newDiagnostic(SeverityError, fmt.Errorf("%w: material: %w", ErrEngine, err))
			d.Node, d.Mesh, d.Primitive, d.Material = node, mesh, i, prim.Material
			b.report(d)
			continue
		}

		r.Primitives = append(r.Primitives, RenderPrimitive{
			Type:     ptype,
			Vertices: out.Vertices,
			Indices:  out.Indices,
			Material: mi,
		})

		if !b.opts.computeBounds {
			hasBounds = false
			continue
		}
		pos := prim.Attribute("POSITION")
		if pos == formats.None {
			hasBounds = false
			continue
		}
		acc := &b.doc.Accessors[pos]
		box, ok := boxFromMinMax(acc.Min, acc.Max)
		if !ok {
			hasBounds = false
			continue
		}
		r.Bounds = r.Bounds.Union(box)
	}

	if len(r.Primitives) == 0 {
		return
	}
	if hasBounds && !r.Bounds.IsEmpty() {
		r.Culling = true
		b.asset.boundingBx = b.asset.boundingBx.Union(r.Bounds.Transform(world))
	} else {
		r.Bounds = Box{}
	}

	if err := b.engine.CreateRenderable(entity, r); err != nil {
		d := newDiagnostic(SeverityError, fmt.Errorf("%w: renderable: %w", ErrEngine, err))
		d.Node, d.Mesh = node, mesh
		b.report(d)
		return
	}
	b.renderables = append(b.renderables, entity)
	b.asset.renderables = append(b.asset.renderables, entity)
}

// rollback destroys every engine object created by the build, children first.
func (b *buildContext) rollback() {
	for i := len(b.renderables) - 1; i >= 0; i-- {
		b.engine.DestroyRenderable(b.renderables[i])
	}
	for i := len(b.transforms) - 1; i >= 0; i-- {
		b.engine.DestroyTransform(b.transforms[i])
		b.engine.DestroyEntity(b.transforms[i])
	}
	for _, vb := range b.vertexBuffers {
		b.engine.DestroyVertexBuffer(vb)
	}
	for _, ib := range b.indexBuffers {
		b.engine.DestroyIndexBuffer(ib)
	}
	b.log.Debug("rolled back asset",
		zap.Int("entities", len(b.transforms)),
		zap.Int("renderables", len(b.renderables)),
		zap.Int("vertex_buffers", len(b.vertexBuffers)),
		zap.Int("index_buffers", len(b.indexBuffers)))
}
