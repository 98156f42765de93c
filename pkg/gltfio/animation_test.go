package gltfio_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/internal/engine/headless"
	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// animated builds a document with one node and the given animation, and
// returns the built asset and its engine.
func animated(t *testing.T, b *docBuilder, node int, anims ...formats.Animation) (gltfio.Asset, *headless.Engine) {
	t.Helper()
	b.doc.Animations = anims
	doc := b.build(node)
	engine := headless.New()
	asset, err := newLoader(engine).CreateAsset(doc)
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	return asset, engine
}

func translationOf(t *testing.T, engine *headless.Engine, e gltfio.Entity) mgl32.Vec3 {
	t.Helper()
	m, ok := engine.LocalTransform(e)
	if !ok {
		t.Fatalf("no transform for entity %d", e)
	}
	return m.Col(3).Vec3()
}

func TestAnimator_DuplicateTimes(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	times := b.floats(formats.AccessorScalar, 0, 0.5, 0.5, 1)
	values := b.floats(formats.AccessorVec3,
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
		3, 0, 0)
	asset, _ := animated(t, b, n, formats.Animation{
		Name:     "jump",
		Samplers: []formats.AnimationSampler{{Input: times, Output: values, Interpolation: formats.InterpolationLinear}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathTranslation}},
	})

	an := gltfio.NewAnimator(asset, headless.New())
	s := an.Animation(0).Samplers[0]
	if len(s.Times) != 3 {
		t.Fatalf("expected 3 distinct times, got %d: %v", len(s.Times), s.Times)
	}
	wantKeys := []int{0, 2, 3}
	for i, k := range wantKeys {
		if s.Keys[i] != k {
			t.Errorf("key %d: expected %d, got %d", i, k, s.Keys[i])
		}
	}
	if an.Name(0) != "jump" {
		t.Errorf("expected name jump, got %q", an.Name(0))
	}
}

func TestAnimator_Translation(t *testing.T) {
	tests := []struct {
		name   string
		interp formats.Interpolation
		at     float32
		want   float32
	}{
		{"linear midpoint", formats.InterpolationLinear, 0.5, 5},
		{"linear quarter", formats.InterpolationLinear, 0.25, 2.5},
		{"step holds earlier", formats.InterpolationStep, 0.9, 0},
		{"clamped before", formats.InterpolationLinear, -1, 0},
		{"clamped after", formats.InterpolationLinear, 5, 10},
		{"at end", formats.InterpolationStep, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDoc()
			n := b.node("n", formats.None)
			times := b.floats(formats.AccessorScalar, 0, 1)
			values := b.floats(formats.AccessorVec3, 0, 0, 0, 10, 0, 0)
			asset, engine := animated(t, b, n, formats.Animation{
				Samplers: []formats.AnimationSampler{{Input: times, Output: values, Interpolation: tt.interp}},
				Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathTranslation}},
			})

			an := gltfio.NewAnimator(asset, engine)
			an.Apply(0, tt.at)

			e, _ := asset.NodeEntity(n)
			got := translationOf(t, engine, e)
			if math.Abs(float64(got[0]-tt.want)) > 1e-5 {
				t.Errorf("expected x=%v, got %v", tt.want, got[0])
			}
		})
	}
}

func TestAnimator_RotationSlerp(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	q0 := mgl32.QuatIdent()
	q1 := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	times := b.floats(formats.AccessorScalar, 0, 1)
	values := b.floats(formats.AccessorVec4,
		q0.V[0], q0.V[1], q0.V[2], q0.W,
		q1.V[0], q1.V[1], q1.V[2], q1.W)
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{{Input: times, Output: values, Interpolation: formats.InterpolationLinear}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathRotation}},
	})

	an := gltfio.NewAnimator(asset, engine)
	an.Apply(0, 0.5)

	e, _ := asset.NodeEntity(n)
	got, _ := engine.LocalTransform(e)
	want := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0}).Mat4()
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("expected 45 degree rotation\n%v\ngot\n%v", want, got)
	}
}

func TestAnimator_KeepsRestPose(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	b.translate(n, mgl32.Vec3{1, 2, 3})
	times := b.floats(formats.AccessorScalar, 0, 1)
	scales := b.floats(formats.AccessorVec3, 1, 1, 1, 3, 3, 3)
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{{Input: times, Output: scales, Interpolation: formats.InterpolationLinear}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathScale}},
	})

	an := gltfio.NewAnimator(asset, engine)
	an.Apply(0, 1)

	e, _ := asset.NodeEntity(n)
	got, _ := engine.LocalTransform(e)
	want := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(3, 3, 3))
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("expected translated scaled matrix\n%v\ngot\n%v", want, got)
	}
}

func TestAnimator_CubicSpline(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	times := b.floats(formats.AccessorScalar, 0, 2)
	// [in-tangent, value, out-tangent] per keyframe
	values := b.floats(formats.AccessorVec3,
		0, 0, 0, 0, 0, 0, 1, 0, 0,
		1, 0, 0, 4, 0, 0, 0, 0, 0)
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{{Input: times, Output: values, Interpolation: formats.InterpolationCubicSpline}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathTranslation}},
	})
	an := gltfio.NewAnimator(asset, engine)
	e, _ := asset.NodeEntity(n)

	an.Apply(0, 2)
	if got := translationOf(t, engine, e); math.Abs(float64(got[0]-4)) > 1e-5 {
		t.Errorf("expected keyframe value 4 at t=2, got %v", got[0])
	}

	// u=0.5, dt=2: 0.5*0 + 0.125*2*1 + 0.5*4 + (-0.125)*2*1 = 2
	an.Apply(0, 1)
	if got := translationOf(t, engine, e); math.Abs(float64(got[0]-2)) > 1e-5 {
		t.Errorf("expected 2 at t=1, got %v", got[0])
	}
}

func TestAnimator_Duration(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	short := b.floats(formats.AccessorScalar, 0, 1)
	long := b.floats(formats.AccessorScalar, 0, 1, 2.5)
	v2 := b.floats(formats.AccessorVec3, 0, 0, 0, 1, 1, 1)
	v3 := b.floats(formats.AccessorVec3, 1, 1, 1, 2, 2, 2, 3, 3, 3)
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{
			{Input: short, Output: v2},
			{Input: long, Output: v3},
		},
		Channels: []formats.Channel{
			{Sampler: 0, Node: n, Path: formats.PathTranslation},
			{Sampler: 1, Node: n, Path: formats.PathScale},
		},
	})

	an := gltfio.NewAnimator(asset, engine)
	if an.Count() != 1 {
		t.Fatalf("expected 1 animation, got %d", an.Count())
	}
	if got := an.Duration(0); got != 2.5 {
		t.Errorf("expected duration 2.5, got %v", got)
	}
}

func TestAnimator_DroppedChannels(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	orphan := b.node("orphan", formats.None)
	times := b.floats(formats.AccessorScalar, 0, 1)
	vec3 := b.floats(formats.AccessorVec3, 0, 0, 0, 1, 1, 1)
	weights := b.floats(formats.AccessorScalar, 0, 1)
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{
			{Input: times, Output: vec3},
			{Input: times, Output: weights},
		},
		Channels: []formats.Channel{
			{Sampler: 1, Node: n, Path: formats.PathWeights},
			{Sampler: 0, Node: n, Path: formats.PathTranslation},
			{Sampler: 0, Node: orphan, Path: formats.PathScale},
			{Sampler: 0, Node: n, Path: formats.PathRotation},
		},
	})

	an := gltfio.NewAnimator(asset, engine)
	channels := an.Animation(0).Channels
	if len(channels) != 1 {
		t.Fatalf("expected 1 surviving channel, got %d", len(channels))
	}
	if channels[0].Path != formats.PathTranslation {
		t.Errorf("expected translation channel, got %s", channels[0].Path)
	}

	diags := an.Diagnostics()
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %v", len(diags), diags)
	}
	if !errors.Is(diags[0], gltfio.ErrUnsupportedTargetPath) || diags[0].Channel != 0 {
		t.Errorf("expected unsupported path on channel 0, got %v", diags[0])
	}
	if !errors.Is(diags[1], gltfio.ErrMissingTarget) || diags[1].Channel != 2 {
		t.Errorf("expected missing target on channel 2, got %v", diags[1])
	}
	if !errors.Is(diags[2], gltfio.ErrUnsupportedElementType) || diags[2].Channel != 3 {
		t.Errorf("expected component mismatch on channel 3, got %v", diags[2])
	}
}

func TestAnimator_NormalizedOutput(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	times := b.floats(formats.AccessorScalar, 0)
	// unorm16 scale (65535, 0, 32767)
	scale := b.accessor(formats.ComponentUnsignedShort, formats.AccessorVec3, 1,
		[]byte{0xff, 0xff, 0x00, 0x00, 0xff, 0x7f})
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{{Input: times, Output: scale}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathScale}},
	})

	an := gltfio.NewAnimator(asset, engine)
	values := an.Animation(0).Samplers[0].Values
	want := []float32{1, 0, 32767.0 / 65535.0}
	for i := range want {
		if math.Abs(float64(values[i]-want[i])) > 1e-6 {
			t.Errorf("value %d: expected %v, got %v", i, want[i], values[i])
		}
	}
}

func TestAnimator_UnsupportedEncoding(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	times := b.floats(formats.AccessorScalar, 0)
	bad := b.accessor(formats.ComponentUnsignedInt, formats.AccessorVec3, 1, make([]byte, 12))
	asset, engine := animated(t, b, n, formats.Animation{
		Samplers: []formats.AnimationSampler{{Input: times, Output: bad}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathTranslation}},
	})

	an := gltfio.NewAnimator(asset, engine)
	if an.Animation(0).Samplers[0].Values != nil {
		t.Error("expected sampler values to be dropped")
	}
	if len(an.Animation(0).Channels) != 0 {
		t.Error("expected channel without values to be dropped")
	}
	if !errors.Is(an.Diagnostics().Err(), gltfio.ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", an.Diagnostics().Err())
	}
}

func TestAnimator_WithBlobs(t *testing.T) {
	b := newDoc()
	n := b.node("n", formats.None)
	times := b.floats(formats.AccessorScalar, 0, 1)
	values := b.floats(formats.AccessorVec3, 0, 0, 0, 0, 8, 0)
	b.doc.Animations = []formats.Animation{{
		Samplers: []formats.AnimationSampler{{Input: times, Output: values}},
		Channels: []formats.Channel{{Sampler: 0, Node: n, Path: formats.PathTranslation}},
	}}
	doc := b.build(n)
	blob := doc.Buffers[0].Data
	doc.Buffers[0].Data = nil

	engine := headless.New()
	asset, err := newLoader(engine).CreateAsset(doc)
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	missing := gltfio.NewAnimator(asset, engine)
	if !errors.Is(missing.Diagnostics().Err(), gltfio.ErrMissingBlob) {
		t.Errorf("expected ErrMissingBlob without blobs, got %v", missing.Diagnostics().Err())
	}

	an := gltfio.NewAnimator(asset, engine, gltfio.WithBlobs(map[string][]byte{"data.bin": blob}))
	if len(an.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", an.Diagnostics())
	}
	an.Apply(0, 0.5)
	e, _ := asset.NodeEntity(n)
	if got := translationOf(t, engine, e); math.Abs(float64(got[1]-4)) > 1e-5 {
		t.Errorf("expected y=4, got %v", got[1])
	}
}

func TestAnimator_ReleasedSource(t *testing.T) {
	b := newDoc()
	doc := b.build(b.node("n", formats.None))
	engine := headless.New()
	asset, err := newLoader(engine).CreateAsset(doc)
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	asset.ReleaseSourceData()

	an := gltfio.NewAnimator(asset, engine)
	if an.Count() != 0 {
		t.Errorf("expected no animations, got %d", an.Count())
	}
	an.Apply(0, 1) // out of range is a no-op
}
