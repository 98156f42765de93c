package headless

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

func TestTransformHierarchy(t *testing.T) {
	e := New()
	root := e.CreateEntity()
	child := e.CreateEntity()
	e.CreateTransform(root, 0, mgl32.Translate3D(1, 0, 0))
	e.CreateTransform(child, root, mgl32.Translate3D(0, 2, 0))

	if got := e.Children(root); len(got) != 1 || got[0] != child {
		t.Fatalf("expected children [%d], got %v", child, got)
	}
	if p := e.Parent(child); p != root {
		t.Errorf("expected parent %d, got %d", root, p)
	}

	world, ok := e.WorldTransform(child)
	if !ok {
		t.Fatal("expected world transform")
	}
	if pos := world.Col(3).Vec3(); !pos.ApproxEqual(mgl32.Vec3{1, 2, 0}) {
		t.Errorf("expected world position (1,2,0), got %v", pos)
	}

	e.SetTransform(child, mgl32.Translate3D(0, 5, 0))
	world, _ = e.WorldTransform(child)
	if pos := world.Col(3).Vec3(); !pos.ApproxEqual(mgl32.Vec3{1, 5, 0}) {
		t.Errorf("expected world position (1,5,0), got %v", pos)
	}

	e.DestroyTransform(child)
	if got := e.Children(root); len(got) != 0 {
		t.Errorf("expected no children after destroy, got %v", got)
	}
	if _, ok := e.LocalTransform(child); ok {
		t.Error("expected child transform to be gone")
	}
}

func TestRenderables(t *testing.T) {
	e := New()
	ent := e.CreateEntity()
	if err := e.CreateRenderable(ent, gltfio.Renderable{CastShadows: true}); err != nil {
		t.Fatalf("CreateRenderable failed: %v", err)
	}
	r, ok := e.Renderable(ent)
	if !ok || !r.CastShadows {
		t.Errorf("expected stored renderable, got %+v (%v)", r, ok)
	}

	if err := e.CreateRenderable(999, gltfio.Renderable{}); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}

	e.DestroyRenderable(ent)
	e.DestroyEntity(ent)
	if e.Alive(ent) {
		t.Error("expected entity to be destroyed")
	}
	if s := e.Stats(); s.Renderables != 0 || s.Entities != 0 {
		t.Errorf("expected empty engine, got %+v", s)
	}
}

func TestBuffersAndLimits(t *testing.T) {
	e := New(WithLimits(Limits{VertexBuffers: 1}))
	desc := gltfio.VertexBufferDesc{VertexCount: 3, BufferCount: 1}
	vb, err := e.CreateVertexBuffer(desc)
	if err != nil {
		t.Fatalf("CreateVertexBuffer failed: %v", err)
	}
	if got, ok := e.VertexBuffer(vb); !ok || got.VertexCount != 3 {
		t.Errorf("expected recorded desc, got %+v (%v)", got, ok)
	}
	if _, err := e.CreateVertexBuffer(desc); !errors.Is(err, ErrLimit) {
		t.Errorf("expected ErrLimit, got %v", err)
	}

	ib, err := e.CreateIndexBuffer(gltfio.IndexBufferDesc{IndexCount: 6, Type: gltfio.IndexUInt})
	if err != nil {
		t.Fatalf("CreateIndexBuffer failed: %v", err)
	}
	if uint32(ib) == uint32(vb) {
		t.Error("expected distinct buffer handles")
	}

	e.DestroyVertexBuffer(vb)
	e.DestroyIndexBuffer(ib)
	if s := e.Stats(); s.VertexBuffers != 0 || s.IndexBuffers != 0 {
		t.Errorf("expected no buffers, got %+v", s)
	}
}

// recordingFactory hands out fixed handles and records destruction.
type recordingFactory struct {
	destroyed []uint32
}

func (f *recordingFactory) CreateVertexBuffer(gltfio.VertexBufferDesc) (gltfio.VertexBuffer, error) {
	return 100, nil
}

func (f *recordingFactory) CreateIndexBuffer(gltfio.IndexBufferDesc) (gltfio.IndexBuffer, error) {
	return 200, nil
}

func (f *recordingFactory) DestroyVertexBuffer(vb gltfio.VertexBuffer) {
	f.destroyed = append(f.destroyed, uint32(vb))
}

func (f *recordingFactory) DestroyIndexBuffer(ib gltfio.IndexBuffer) {
	f.destroyed = append(f.destroyed, uint32(ib))
}

func TestWithBufferFactory(t *testing.T) {
	f := &recordingFactory{}
	e := New(WithBufferFactory(f))

	vb, _ := e.CreateVertexBuffer(gltfio.VertexBufferDesc{})
	ib, _ := e.CreateIndexBuffer(gltfio.IndexBufferDesc{})
	if vb != 100 || ib != 200 {
		t.Errorf("expected delegated handles 100/200, got %d/%d", vb, ib)
	}
	e.DestroyVertexBuffer(vb)
	e.DestroyIndexBuffer(ib)
	if len(f.destroyed) != 2 {
		t.Errorf("expected 2 delegated destroys, got %d", len(f.destroyed))
	}
}

func TestMaterialVariants(t *testing.T) {
	e := New()
	opaque := gltfio.DefaultMaterialKey()
	unlit := opaque
	unlit.Unlit = true

	a, _ := e.GetOrCreateMaterial(opaque)
	b, _ := e.GetOrCreateMaterial(unlit)
	c, _ := e.GetOrCreateMaterial(opaque)
	if a != c {
		t.Errorf("expected same variant for same key, got %d and %d", a, c)
	}
	if a == b {
		t.Error("expected different variants for different keys")
	}
	if got := e.Stats().MaterialVariants; got != 2 {
		t.Errorf("expected 2 variants, got %d", got)
	}
}

func TestConcurrentEntities(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ent := e.CreateEntity()
				e.CreateTransform(ent, 0, mgl32.Ident4())
			}
		}()
	}
	wg.Wait()
	if s := e.Stats(); s.Entities != 800 || s.Transforms != 800 {
		t.Errorf("expected 800 entities and transforms, got %+v", s)
	}
}
