package viewer

import (
	"fmt"
	"time"

	"github.com/fogleman/fauxgl"

	"github.com/netisu/planet-renderer/fresnel"
	"github.com/netisu/planet-renderer/globe"
)

const (
	MaxDimension  = 4096
	MaxFrames     = 240
	MaxStars      = 100000
	// MaxSupersample and MaxRenderDimension bound the internal render
	// buffer, which is the output size times the supersampling factor.
	MaxSupersample     = 4
	MaxRenderDimension = 2 * MaxDimension
	DefaultFrames = 36
	DefaultDelay  = 5
)

// View describes one render request: output size, camera, starfield and
// sun. Zero values fall back to the viewer defaults.
type View struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Supersample int     `json:"supersample"`
	Azimuth     float64 `json:"azimuth"`  // degrees
	Polar       float64 `json:"polar"`    // degrees from the north pole, 0 means 90
	Distance    float64 `json:"distance"` // 0 means 5
	Stars       *int    `json:"stars"`
	Seed        *int64  `json:"seed"`
	SunTime     string  `json:"sun_time"` // RFC 3339
	Info        bool    `json:"info"`
	RimColor    string  `json:"rim_color"` // hex
	AutoRotate  bool    `json:"auto_rotate"`
	Frames      int     `json:"frames"`
	Steps       int     `json:"steps"`
	Delay       int     `json:"delay"`
}

// Options converts the view into scene options.
func (v View) Options() (globe.Options, error) {
	opts := globe.DefaultOptions()
	if v.Width != 0 || v.Height != 0 {
		if v.Width <= 0 || v.Height <= 0 || v.Width > MaxDimension || v.Height > MaxDimension {
			return opts, fmt.Errorf("invalid size %dx%d", v.Width, v.Height)
		}
		opts.Width, opts.Height = v.Width, v.Height
	}
	if v.Supersample < 0 || v.Supersample > MaxSupersample {
		return opts, fmt.Errorf("invalid supersample %d", v.Supersample)
	}
	if v.Supersample > 0 {
		opts.Supersample = v.Supersample
	}
	if w, h := opts.Width*opts.Supersample, opts.Height*opts.Supersample; w > MaxRenderDimension || h > MaxRenderDimension {
		return opts, fmt.Errorf("render buffer %dx%d too large", w, h)
	}
	if v.Stars != nil {
		if *v.Stars < 0 || *v.Stars > MaxStars {
			return opts, fmt.Errorf("invalid star count %d", *v.Stars)
		}
		opts.Stars = *v.Stars
	}
	if v.Seed != nil {
		opts.Seed = *v.Seed
	}
	if v.SunTime != "" {
		t, err := time.Parse(time.RFC3339, v.SunTime)
		if err != nil {
			return opts, fmt.Errorf("invalid sun_time: %w", err)
		}
		opts.SunTime = &t
	}
	if v.RimColor != "" {
		opts.Glow = fresnel.DefaultParams(fauxgl.HexColor(v.RimColor), fresnel.DefaultFace)
	}
	opts.ShowInfo = v.Info
	return opts, nil
}

// Apply positions the camera of a freshly built scene.
func (v View) Apply(s *globe.Scene) {
	polar, dist := v.Polar, v.Distance
	if polar == 0 {
		polar = 90
	}
	if dist == 0 {
		dist = 5
	}
	s.Camera.SetOrbit(v.Azimuth, polar, dist)
	s.Camera.SaveState()
	s.Camera.AutoRotate = v.AutoRotate
}

// Animation returns the turntable frame count, steps between frames and
// GIF delay.
func (v View) Animation() (frames, steps, delay int, err error) {
	frames, steps, delay = v.Frames, v.Steps, v.Delay
	if frames == 0 {
		frames = DefaultFrames
	}
	if frames < 0 || frames > MaxFrames {
		return 0, 0, 0, fmt.Errorf("invalid frame count %d", frames)
	}
	if steps <= 0 {
		steps = globe.DefaultTurntableSteps
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return frames, steps, delay, nil
}
