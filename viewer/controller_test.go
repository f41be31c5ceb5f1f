package viewer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/netisu/planet-renderer/globe"
)

type memStore struct {
	mu   sync.Mutex
	keys []string
	data map[string][]byte
	err  error
}

func (m *memStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.keys = append(m.keys, key)
	m.data[key] = data
	return nil
}

func solid(c color.Color) *globe.ImageTexture {
	im := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			im.Set(x, y, c)
		}
	}
	return globe.NewImageTexture(im)
}

func testScene(t *testing.T) *globe.Scene {
	t.Helper()
	opts := globe.DefaultOptions()
	opts.Width, opts.Height = 32, 24
	opts.Supersample = 1
	opts.Segments = 12
	opts.Stars = 50
	opts.Seed = 3
	s, err := globe.NewScene(&globe.TextureSet{Day: solid(color.NRGBA{30, 80, 200, 255})}, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testController(t *testing.T, store Store) *Controller {
	c := NewController(testScene(t), store, Config{FullscreenWidth: 48, FullscreenHeight: 27, ScreenshotPrefix: "shots"})
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

func TestControllerToggles(t *testing.T) {
	c := testController(t, &memStore{})
	ctx := context.Background()

	tests := []struct {
		key   rune
		msg   string
		check func(State) bool
	}{
		{KeyAutoRotate, "Auto-rotate: true", func(s State) bool { return s.AutoRotate }},
		{KeyAutoRotate, "Auto-rotate: false", func(s State) bool { return !s.AutoRotate }},
		{KeyInfo, "Info panel: true", func(s State) bool { return s.InfoVisible }},
		{KeyFullscreen, "Fullscreen: true (48x27)", func(s State) bool { return s.Fullscreen && s.Width == 48 && s.Height == 27 }},
		{KeyFullscreen, "Fullscreen: false (32x24)", func(s State) bool { return !s.Fullscreen && s.Width == 32 && s.Height == 24 }},
		{'x', "", func(s State) bool { return true }},
	}
	for _, tt := range tests {
		msg, err := c.Handle(ctx, tt.key)
		if err != nil {
			t.Fatalf("key %q: %v", tt.key, err)
		}
		if msg != tt.msg {
			t.Errorf("key %q: message %q, want %q", tt.key, msg, tt.msg)
		}
		if !tt.check(c.State()) {
			t.Errorf("key %q: unexpected state %+v", tt.key, c.State())
		}
	}
}

func TestControllerReset(t *testing.T) {
	c := testController(t, &memStore{})
	c.scene.Camera.SetOrbit(45, 30, 9)
	if _, err := c.Handle(context.Background(), KeyReset); err != nil {
		t.Fatal(err)
	}
	if d := c.scene.Camera.Distance(); d != 5 {
		t.Errorf("distance after reset %f, want 5", d)
	}
}

func TestControllerScreenshot(t *testing.T) {
	store := &memStore{}
	c := testController(t, store)
	msg, err := c.Handle(context.Background(), KeyScreenshot)
	if err != nil {
		t.Fatal(err)
	}
	want := "shots/planet-20240102-030405-1.png"
	if msg != "Screenshot saved: "+want {
		t.Errorf("message %q", msg)
	}
	if len(store.keys) != 1 || store.keys[0] != want {
		t.Fatalf("stored keys %v", store.keys)
	}
	im, err := png.Decode(bytes.NewReader(store.data[want]))
	if err != nil {
		t.Fatal(err)
	}
	if im.Bounds().Dx() != 32 {
		t.Errorf("screenshot width %d, want 32", im.Bounds().Dx())
	}
	if c.State().Screenshots != 1 {
		t.Errorf("screenshot count %d", c.State().Screenshots)
	}
}

func TestControllerScreenshotFailure(t *testing.T) {
	boom := errors.New("bucket unavailable")
	c := testController(t, &memStore{err: boom})
	msg, err := c.Handle(context.Background(), KeyScreenshot)
	if !errors.Is(err, boom) {
		t.Fatalf("error %v, want %v", err, boom)
	}
	if msg != "Screenshot failed" {
		t.Errorf("message %q", msg)
	}
	// The controller keeps working after a failed screenshot.
	if _, err := c.Handle(context.Background(), KeyAutoRotate); err != nil {
		t.Errorf("controller unusable after failure: %v", err)
	}

	c = testController(t, nil)
	if _, err := c.Screenshot(context.Background()); err == nil {
		t.Error("expected error without a store")
	}
}

func TestControllerAdvanceAndFrame(t *testing.T) {
	c := testController(t, &memStore{})
	if err := c.Advance(5); err != nil {
		t.Fatal(err)
	}
	if c.State().Frame != 5 {
		t.Errorf("frame %d, want 5", c.State().Frame)
	}
	data, err := c.EncodeFrame()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("frame is not a png: %v", err)
	}
}

func TestControllerClose(t *testing.T) {
	c := testController(t, &memStore{})
	c.Close()
	if _, err := c.Handle(context.Background(), KeyAutoRotate); !errors.Is(err, ErrClosed) {
		t.Errorf("Handle after Close: %v", err)
	}
	if err := c.Advance(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Advance after Close: %v", err)
	}
	if _, err := c.Frame(); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close: %v", err)
	}
	if s := c.State(); s != (State{}) {
		t.Errorf("state after Close %+v", s)
	}
}

func TestMount(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(color.White).Image); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, globe.DayMap), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := globe.DefaultOptions()
	opts.Width, opts.Height, opts.Supersample, opts.Stars = 16, 16, 1, 10

	c, err := Mount(context.Background(), globe.NewAssetCache(nil),
		globe.TextureSources{Day: filepath.Join(dir, globe.DayMap)}, opts, &memStore{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if s := c.State(); s.Width != 16 {
		t.Errorf("mounted state %+v", s)
	}

	_, err = Mount(context.Background(), globe.NewAssetCache(nil),
		globe.DefaultSources(dir), opts, &memStore{}, DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "failed to load textures") {
		t.Errorf("expected texture error, got %v", err)
	}
}
