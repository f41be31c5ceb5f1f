package globe

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"log"
)

// DefaultTurntableSteps is half a second of animation at 60 fps.
const DefaultTurntableSteps = 30

// Turntable renders frames images with auto-rotate on, advancing the
// animation by steps frames between images, and writes them as a looping
// GIF. delay is in 100ths of a second. It stops between frames once ctx
// is done.
func (s *Scene) Turntable(ctx context.Context, w io.Writer, frames, steps, delay int) error {
	if frames <= 0 {
		return fmt.Errorf("invalid frame count %d", frames)
	}
	if steps < 1 {
		steps = 1
	}
	autoRotate := s.Camera.AutoRotate
	s.Camera.AutoRotate = true
	defer func() { s.Camera.AutoRotate = autoRotate }()

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, frames),
		Delay:     make([]int, 0, frames),
		LoopCount: 0,
	}
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("turntable stopped at frame %d: %w", i, err)
		}
		if i%maxInt(1, frames/10) == 0 {
			log.Printf("[turntable] frame %d/%d", i+1, frames)
		}
		im := s.Render()
		p := image.NewPaletted(im.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, p.Bounds(), im, im.Bounds().Min)
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
		for j := 0; j < steps; j++ {
			s.Step()
		}
	}
	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
