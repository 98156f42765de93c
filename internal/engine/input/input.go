// Package input turns SDL2 events into viewer controls.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// State is the input gathered during one frame.
type State struct {
	Quit          bool
	Resized       bool
	Width         int
	Height        int
	DragX         float32
	DragY         float32
	Zoom          float32
	TogglePlay    bool
	NextAnimation bool
	Restart       bool
}

// Input tracks mouse button state across frames.
type Input struct {
	dragging bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{}
}

// Update drains the SDL event queue.
func (i *Input) Update() State {
	var s State
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.handle(event, &s)
	}
	return s
}

func (i *Input) handle(event sdl.Event, s *State) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.Quit = true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED {
			s.Resized = true
			s.Width = int(e.Data1)
			s.Height = int(e.Data2)
		}

	case *sdl.MouseButtonEvent:
		if e.Button == sdl.BUTTON_LEFT {
			i.dragging = e.Type == sdl.MOUSEBUTTONDOWN
		}

	case *sdl.MouseMotionEvent:
		if i.dragging {
			s.DragX += float32(e.XRel)
			s.DragY += float32(e.YRel)
		}

	case *sdl.MouseWheelEvent:
		s.Zoom += float32(e.Y)

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			return
		}
		switch e.Keysym.Scancode {
		case sdl.SCANCODE_ESCAPE:
			s.Quit = true
		case sdl.SCANCODE_SPACE:
			s.TogglePlay = true
		case sdl.SCANCODE_N:
			s.NextAnimation = true
		case sdl.SCANCODE_R:
			s.Restart = true
		}
	}
}
