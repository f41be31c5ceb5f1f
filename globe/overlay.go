package globe

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/netisu/planet-renderer/sun"
)

const (
	panelPadding = 8
	lineHeight   = 16
)

// InfoLines returns the text of the info panel for the current frame.
func (s *Scene) InfoLines() []string {
	az, polar := s.Camera.Angles()
	lines := []string{
		"Earth",
		"Radius: 6,371 km",
		fmt.Sprintf("Axial tilt: %.1f deg", math.Abs(s.Tilt*180/math.Pi)),
		fmt.Sprintf("Camera: az %.1f pol %.1f dist %.2f",
			math.Mod(az*180/math.Pi, 360), polar*180/math.Pi, s.Camera.Distance()),
		fmt.Sprintf("Stars: %d", len(s.Stars.Points)),
	}
	if s.SunTime != nil {
		lat, lon := sun.SubsolarPoint(*s.SunTime)
		lines = append(lines,
			s.SunTime.UTC().Format("2006-01-02 15:04 UTC"),
			fmt.Sprintf("Subsolar: %.1f, %.1f", lat, lon))
	}
	if s.Camera.AutoRotate {
		lines = append(lines, "Auto-rotate: on")
	}
	return lines
}

// DrawInfo returns a copy of im with a translucent text panel in the top
// left corner.
func DrawInfo(im image.Image, lines []string) image.Image {
	b := im.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, im, b.Min, draw.Src)
	if len(lines) == 0 {
		return dst
	}

	face := basicfont.Face7x13
	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	panel := image.Rect(0, 0, width+2*panelPadding, len(lines)*lineHeight+2*panelPadding).Add(b.Min)
	draw.Draw(dst, panel.Intersect(b), image.NewUniform(color.NRGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{230, 240, 255, 255}),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(b.Min.X+panelPadding, b.Min.Y+panelPadding+(i+1)*lineHeight-4)
		d.DrawString(l)
	}
	return dst
}
