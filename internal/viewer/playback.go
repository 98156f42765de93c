package viewer

import "math"

// Playback is the animation clock of the viewer. Index -1 plays every
// animation at once.
type Playback struct {
	Index   int
	Time    float32
	Speed   float32
	Loop    bool
	Playing bool
}

// Advance moves the clock forward by dt seconds. duration is the length of
// the current selection. A looping clock wraps, otherwise it holds at the end
// and stops.
func (p *Playback) Advance(dt, duration float32) {
	if !p.Playing {
		return
	}
	p.Time += dt * p.Speed
	if duration <= 0 {
		p.Time = 0
		return
	}
	if p.Time < duration {
		return
	}
	if p.Loop {
		p.Time = float32(math.Mod(float64(p.Time), float64(duration)))
		return
	}
	p.Time = duration
	p.Playing = false
}

// Next selects the following animation, cycling through "all" (-1) after the
// last one, and restarts the clock.
func (p *Playback) Next(count int) {
	if count == 0 {
		p.Index = -1
	} else if p.Index+1 >= count {
		p.Index = -1
	} else {
		p.Index++
	}
	p.Restart()
}

// Restart rewinds the clock and resumes playback.
func (p *Playback) Restart() {
	p.Time = 0
	p.Playing = true
}

// duration returns the length of the current selection.
func (p *Playback) duration(durations []float32) float32 {
	if p.Index >= 0 {
		if p.Index < len(durations) {
			return durations[p.Index]
		}
		return 0
	}
	var longest float32
	for _, d := range durations {
		longest = max(longest, d)
	}
	return longest
}
