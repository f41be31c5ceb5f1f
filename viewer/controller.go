// Package viewer holds the view state of a planet session and turns key
// commands into scene changes and screenshots.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"sync"
	"time"

	"github.com/netisu/planet-renderer/globe"
)

// ErrClosed is returned by a controller after Close.
var ErrClosed = errors.New("viewer closed")

// Key commands.
const (
	KeyAutoRotate = 'a'
	KeyReset      = 'r'
	KeyInfo       = 'i'
	KeyFullscreen = 'f'
	KeyScreenshot = 's'
)

// Config sizes the two display modes and names screenshot keys.
type Config struct {
	FullscreenWidth  int
	FullscreenHeight int
	ScreenshotPrefix string
}

// DefaultConfig returns a 1920x1080 fullscreen mode.
func DefaultConfig() Config {
	return Config{
		FullscreenWidth:  1920,
		FullscreenHeight: 1080,
		ScreenshotPrefix: "screenshots",
	}
}

// Controller owns the UI state of one viewing session. It is created when
// the scene is ready and torn down with Close.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	scene  *globe.Scene
	store  Store
	now    func() time.Time
	closed bool

	fullscreen     bool
	windowedWidth  int
	windowedHeight int
	screenshots    int
}

// Mount loads the textures, builds the scene and returns a controller for
// it. It returns only after every texture is ready.
func Mount(ctx context.Context, cache *globe.AssetCache, src globe.TextureSources, opts globe.Options, store Store, cfg Config) (*Controller, error) {
	textures, err := globe.LoadTextureSet(ctx, cache, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load textures: %w", err)
	}
	scene, err := globe.NewScene(textures, opts)
	if err != nil {
		return nil, err
	}
	return NewController(scene, store, cfg), nil
}

// NewController wraps a ready scene.
func NewController(scene *globe.Scene, store Store, cfg Config) *Controller {
	return &Controller{
		cfg:            cfg,
		scene:          scene,
		store:          store,
		now:            time.Now,
		windowedWidth:  scene.Width,
		windowedHeight: scene.Height,
	}
}

// State is a snapshot of the toggles.
type State struct {
	AutoRotate  bool
	InfoVisible bool
	Fullscreen  bool
	Width       int
	Height      int
	Frame       int
	Screenshots int
}

// State returns the current toggles.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return State{}
	}
	return State{
		AutoRotate:  c.scene.Camera.AutoRotate,
		InfoVisible: c.scene.ShowInfo,
		Fullscreen:  c.fullscreen,
		Width:       c.scene.Width,
		Height:      c.scene.Height,
		Frame:       c.scene.Frame,
		Screenshots: c.screenshots,
	}
}

// Handle applies a key command and returns a status message for the
// user. Unknown keys are ignored.
func (c *Controller) Handle(ctx context.Context, key rune) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	switch key {
	case KeyAutoRotate:
		cam := c.scene.Camera
		cam.AutoRotate = !cam.AutoRotate
		return fmt.Sprintf("Auto-rotate: %t", cam.AutoRotate), nil
	case KeyReset:
		c.scene.Camera.Reset()
		return "Camera reset", nil
	case KeyInfo:
		c.scene.ShowInfo = !c.scene.ShowInfo
		return fmt.Sprintf("Info panel: %t", c.scene.ShowInfo), nil
	case KeyFullscreen:
		c.toggleFullscreen()
		return fmt.Sprintf("Fullscreen: %t (%dx%d)", c.fullscreen, c.scene.Width, c.scene.Height), nil
	case KeyScreenshot:
		name, err := c.screenshot(ctx)
		if err != nil {
			log.Printf("Screenshot failed: %v", err)
			return "Screenshot failed", err
		}
		return "Screenshot saved: " + name, nil
	}
	return "", nil
}

func (c *Controller) toggleFullscreen() {
	c.fullscreen = !c.fullscreen
	if c.fullscreen {
		c.scene.Width, c.scene.Height = c.cfg.FullscreenWidth, c.cfg.FullscreenHeight
	} else {
		c.scene.Width, c.scene.Height = c.windowedWidth, c.windowedHeight
	}
}

// Screenshot renders the current frame and stores it. It returns the key
// the image was stored under.
func (c *Controller) Screenshot(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	return c.screenshot(ctx)
}

func (c *Controller) screenshot(ctx context.Context) (string, error) {
	if c.store == nil {
		return "", errors.New("no screenshot store configured")
	}
	var buf bytes.Buffer
	if err := c.scene.RenderToWriter(&buf); err != nil {
		return "", err
	}
	c.screenshots++
	key := fmt.Sprintf("%s/planet-%s-%d.png", c.cfg.ScreenshotPrefix, c.now().UTC().Format("20060102-150405"), c.screenshots)
	if err := c.store.Put(ctx, key, "image/png", buf.Bytes()); err != nil {
		return "", err
	}
	return key, nil
}

// Advance runs n animation frames.
func (c *Controller) Advance(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for i := 0; i < n; i++ {
		c.scene.Step()
	}
	return nil
}

// Frame renders the current view.
func (c *Controller) Frame() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.scene.Render(), nil
}

// EncodeFrame renders the current view as PNG bytes.
func (c *Controller) EncodeFrame() ([]byte, error) {
	im, err := c.Frame()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the scene. Further calls return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.scene = nil
}
