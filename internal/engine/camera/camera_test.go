package camera

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

func TestFitToBox(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBox(gltfio.Box{Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}})

	if !c.Center.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected center (0,1,0), got %v", c.Center)
	}
	radius := float32(gomath.Sqrt(12)) / 2
	want := radius / float32(gomath.Sin(float64(c.FovY/2)))
	if gomath.Abs(float64(c.Distance-want)) > 1e-4 {
		t.Errorf("expected distance %v, got %v", want, c.Distance)
	}
	if c.Near >= c.Distance || c.Far <= c.Distance {
		t.Errorf("expected near < distance < far, got %v < %v < %v", c.Near, c.Distance, c.Far)
	}
}

func TestFitToEmptyBox(t *testing.T) {
	c := NewOrbitCamera()
	before := *c
	c.FitToBox(gltfio.EmptyBox())
	if *c != before {
		t.Error("expected empty box to leave the camera unchanged")
	}
}

func TestPositionAndView(t *testing.T) {
	c := NewOrbitCamera()
	c.RotationX = 0
	c.RotationY = 0
	c.Distance = 3
	c.Center = mgl32.Vec3{1, 0, 0}

	if pos := c.Position(); !pos.ApproxEqual(mgl32.Vec3{1, 0, 3}) {
		t.Errorf("expected position (1,0,3), got %v", pos)
	}

	// the center lands on the view axis
	center := mgl32.TransformCoordinate(c.Center, c.ViewMatrix())
	if !center.ApproxEqualThreshold(mgl32.Vec3{0, 0, -3}, 1e-5) {
		t.Errorf("expected center at (0,0,-3) in view space, got %v", center)
	}
}

func TestClamping(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MaxPitch, c.RotationX)
	}
	c.HandleZoom(1e6)
	if c.Distance != c.MinDistance {
		t.Errorf("expected distance clamped to %v, got %v", c.MinDistance, c.Distance)
	}
}
