// Command planetshot renders a single planet still or turntable GIF to a
// local file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/netisu/planet-renderer/globe"
	"github.com/netisu/planet-renderer/viewer"
)

type options struct {
	textures string
	output   string
	view     viewer.View
	stars    int
	seed     int64
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("planetshot", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.textures, "textures", "textures", "directory or URL prefix holding the earth maps")
	fs.StringVar(&o.output, "o", "planet.png", "output file, .png or .gif")
	fs.IntVar(&o.view.Width, "width", globe.DefaultDimensions, "output width")
	fs.IntVar(&o.view.Height, "height", globe.DefaultDimensions, "output height")
	fs.IntVar(&o.view.Supersample, "ss", globe.DefaultSupersample, "supersampling factor")
	fs.Float64Var(&o.view.Azimuth, "azimuth", 0, "camera azimuth in degrees")
	fs.Float64Var(&o.view.Polar, "polar", 90, "camera polar angle in degrees")
	fs.Float64Var(&o.view.Distance, "distance", 5, "camera distance")
	fs.IntVar(&o.stars, "stars", -1, "star count, -1 for the default")
	fs.Int64Var(&o.seed, "seed", 0, "starfield seed, 0 for random")
	fs.StringVar(&o.view.SunTime, "sun", "", "RFC 3339 time for the sun position")
	fs.BoolVar(&o.view.Info, "info", false, "draw the info panel")
	fs.StringVar(&o.view.RimColor, "rim", "", "atmosphere rim colour (hex)")
	fs.IntVar(&o.view.Frames, "frames", viewer.DefaultFrames, "turntable frames")
	fs.IntVar(&o.view.Steps, "steps", globe.DefaultTurntableSteps, "animation steps between turntable frames")
	fs.IntVar(&o.view.Delay, "delay", viewer.DefaultDelay, "turntable frame delay in 1/100 s")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.stars >= 0 {
		o.view.Stars = &o.stars
	}
	if o.seed != 0 {
		o.view.Seed = &o.seed
	}
	return o, nil
}

func run(ctx context.Context, o *options) error {
	ext := strings.ToLower(filepath.Ext(o.output))
	if ext != ".png" && ext != ".gif" {
		return fmt.Errorf("unsupported output %q", o.output)
	}
	opts, err := o.view.Options()
	if err != nil {
		return err
	}
	frames, steps, delay, err := o.view.Animation()
	if err != nil {
		return err
	}
	textures, err := globe.LoadTextureSet(ctx, globe.NewAssetCache(nil), globe.DefaultSources(o.textures))
	if err != nil {
		return err
	}
	scene, err := globe.NewScene(textures, opts)
	if err != nil {
		return err
	}
	o.view.Apply(scene)

	if err := os.MkdirAll(filepath.Dir(o.output), 0o755); err != nil {
		return err
	}
	f, err := os.Create(o.output)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".gif" {
		err = scene.Turntable(ctx, f, frames, steps, delay)
	} else {
		err = scene.RenderToWriter(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(context.Background(), o); err != nil {
		log.Fatalf("planetshot: %v", err)
	}
	log.Printf("Wrote %s", o.output)
}
