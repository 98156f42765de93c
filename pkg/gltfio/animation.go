package gltfio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/pkg/formats"
)

// Sampler is a decoded animation sampler: an ascending, duplicate-free time set
// with the source keyframe for each time, and flat output values.
type Sampler struct {
	Times         []float32
	Keys          []int
	Values        []float32
	Components    int
	Interpolation formats.Interpolation
}

// Channel binds a sampler to a transform component of an entity.
type Channel struct {
	Sampler int
	Node    int
	Target  Entity
	Path    formats.TargetPath
}

// Animation is one decoded animation.
type Animation struct {
	Name     string
	Duration float32
	Samplers []Sampler
	Channels []Channel
}

// pose is the TRS state of an animated entity.
type pose struct {
	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3
}

func (p *pose) matrix() mgl32.Mat4 {
	return formats.ComposeTRS(p.translation, p.rotation, p.scale)
}

// Animator applies the animations of an asset to entity transforms.
type Animator struct {
	animations []Animation
	transforms TransformManager
	poses      map[Entity]*pose
	diags      Diagnostics
	log        *zap.Logger
	blobs      map[string][]byte
}

// AnimatorOption configures an Animator.
type AnimatorOption func(*Animator)

// WithBlobs supplies buffer contents by URI for buffers the document does not hold.
func WithBlobs(blobs map[string][]byte) AnimatorOption {
	return func(a *Animator) {
		a.blobs = blobs
	}
}

// WithAnimatorLogger sets the logger for animation diagnostics.
func WithAnimatorLogger(log *zap.Logger) AnimatorOption {
	return func(a *Animator) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAnimator decodes every animation of the asset's source document. Problems
// drop only the affected sampler values or channel and are reported by
// Diagnostics. The asset's source data must not have been released.
func NewAnimator(a Asset, transforms TransformManager, opts ...AnimatorOption) *Animator {
	an := &Animator{
		transforms: transforms,
		poses:      make(map[Entity]*pose),
		log:        logger.Named("animator"),
	}
	for _, opt := range opts {
		opt(an)
	}

	doc := a.Source()
	if doc == nil {
		an.log.Warn("asset source data released, no animations decoded")
		return an
	}
	blobs := DocumentBlobs(doc, an.blobs)

	an.animations = make([]Animation, len(doc.Animations))
	for i := range doc.Animations {
		an.animations[i] = an.buildAnimation(a, doc, i, blobs)
	}
	an.diags.log(an.log, "animation diagnostic")
	return an
}

func (an *Animator) buildAnimation(a Asset, doc *formats.Document, index int, blobs BlobSource) Animation {
	src := &doc.Animations[index]
	out := Animation{
		Name:     src.Name,
		Samplers: make([]Sampler, len(src.Samplers)),
	}

	for j := range src.Samplers {
		ss := &src.Samplers[j]
		dst := &out.Samplers[j]
		dst.Interpolation = ss.Interpolation

		times, keys, err := DecodeTimes(doc, ss.Input, blobs)
		if err != nil {
			an.samplerError(index, j, err)
			continue
		}
		dst.Times, dst.Keys = times, keys
		if n := len(times); n > 0 {
			out.Duration = max(out.Duration, times[n-1])
		}

		values, err := DecodeFloats(doc, ss.Output, blobs)
		if err != nil {
			an.samplerError(index, j, err)
			continue
		}
		dst.Values = values
		dst.Components = doc.Accessors[ss.Output].Type.Components()

		keyframes := doc.Accessors[ss.Input].Count
		if ss.Interpolation == formats.InterpolationCubicSpline {
			keyframes *= 3
		}
		if len(values) < keyframes*dst.Components {
			an.samplerError(index, j, fmt.Errorf("%w: %d values for %d keyframes", ErrTruncated, len(values), keyframes))
			dst.Values = nil
		}
	}

	for k := range src.Channels {
		sc := &src.Channels[k]
		if sc.Path != formats.PathTranslation && sc.Path != formats.PathRotation && sc.Path != formats.PathScale {
			an.channelError(index, k, fmt.Errorf("%w: %s", ErrUnsupportedTargetPath, sc.Path))
			continue
		}
		target, ok := a.NodeEntity(sc.Node)
		if sc.Node == formats.None || !ok {
			an.channelError(index, k, ErrMissingTarget)
			continue
		}
		s := &out.Samplers[sc.Sampler]
		if s.Values == nil {
			an.channelError(index, k, fmt.Errorf("sampler %d has no values", sc.Sampler))
			continue
		}
		want := 3
		if sc.Path == formats.PathRotation {
			want = 4
		}
		if s.Components != want {
			an.channelError(index, k, fmt.Errorf("%w: %s needs %d components, sampler has %d",
				ErrUnsupportedElementType, sc.Path, want, s.Components))
			continue
		}

		if _, seen := an.poses[target]; !seen {
			n := &doc.Nodes[sc.Node]
			an.poses[target] = &pose{translation: n.Translation, rotation: n.Rotation, scale: n.Scale}
		}
		out.Channels = append(out.Channels, Channel{
			Sampler: sc.Sampler,
			Node:    sc.Node,
			Target:  target,
			Path:    sc.Path,
		})
	}
	return out
}

func (an *Animator) samplerError(animation, sampler int, err error) {
	d := newDiagnostic(SeverityError, err)
	d.Animation, d.Sampler = animation, sampler
	an.diags = append(an.diags, d)
}

func (an *Animator) channelError(animation, channel int, err error) {
	d := newDiagnostic(SeverityError, err)
	d.Animation, d.Channel = animation, channel
	an.diags = append(an.diags, d)
}

// Count returns the number of animations.
func (an *Animator) Count() int {
	return len(an.animations)
}

// Name returns the name of an animation.
func (an *Animator) Name(index int) string {
	return an.animations[index].Name
}

// Duration returns the largest keyframe time of an animation, in seconds.
func (an *Animator) Duration(index int) float32 {
	return an.animations[index].Duration
}

// Animation returns the decoded animation at index.
func (an *Animator) Animation(index int) *Animation {
	return &an.animations[index]
}

// Diagnostics returns the problems found while decoding animations.
func (an *Animator) Diagnostics() Diagnostics {
	return an.diags
}

// Apply evaluates animation index at time t (seconds, clamped to each sampler's
// range) and writes the resulting local transforms.
func (an *Animator) Apply(index int, t float32) {
	if index < 0 || index >= len(an.animations) {
		return
	}
	anim := &an.animations[index]
	dirty := make(map[Entity]*pose, len(anim.Channels))

	for _, ch := range anim.Channels {
		s := &anim.Samplers[ch.Sampler]
		if len(s.Times) == 0 || len(s.Values) == 0 {
			continue
		}
		p := an.poses[ch.Target]
		switch ch.Path {
		case formats.PathTranslation:
			v := s.sampleVec(t)
			p.translation = mgl32.Vec3{v[0], v[1], v[2]}
		case formats.PathScale:
			v := s.sampleVec(t)
			p.scale = mgl32.Vec3{v[0], v[1], v[2]}
		case formats.PathRotation:
			p.rotation = s.sampleQuat(t)
		}
		dirty[ch.Target] = p
	}

	for e, p := range dirty {
		an.transforms.SetTransform(e, p.matrix())
	}
}
