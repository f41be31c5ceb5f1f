package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netisu/planet-renderer/globe"
	"github.com/netisu/planet-renderer/viewer"
)

const (
	RenderTimeout    = 20 * time.Second
	TurntableTimeout = 2 * time.Minute
	closeupDistance  = 2.5
)

// hashPattern keeps output keys inside the thumbnails prefix.
var hashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type RenderEvent struct {
	Hash       string      `json:"Hash"`
	RenderJson viewer.View `json:"RenderJson"`
}

type RenderRequestType struct {
	RenderType string `json:"RenderType"`
}

// Holds shared dependencies like config, store, and texture cache.
type Server struct {
	config           *Config
	store            viewer.Store
	cache            *globe.AssetCache
	renderTimeout    time.Duration
	turntableTimeout time.Duration
}

func NewServer(cfg *Config, store viewer.Store, cache *globe.AssetCache) *Server {
	return &Server{
		config:           cfg,
		store:            store,
		cache:            cache,
		renderTimeout:    RenderTimeout,
		turntableTimeout: TurntableTimeout,
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.config.PostKey != "" && r.Header.Get("Aeo-Access-Key") != s.config.PostKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Peek at the RenderType
	var reqType RenderRequestType
	if err := json.Unmarshal(body, &reqType); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	log.Printf("Received RenderType: %s", reqType.RenderType)

	var e RenderEvent
	switch reqType.RenderType {
	case "planet", "turntable":
		if err := json.Unmarshal(body, &e); err != nil {
			http.Error(w, "Invalid render body", http.StatusBadRequest)
			return
		}
		if !hashPattern.MatchString(e.Hash) {
			http.Error(w, "Invalid hash", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Unknown RenderType", http.StatusBadRequest)
		return
	}

	if reqType.RenderType == "planet" {
		s.handlePlanetRender(w, r, e)
	} else {
		s.handleTurntableRender(w, r, e)
	}
}

// errRenderTimeout marks a render that ran past its deadline.
var errRenderTimeout = errors.New("render timeout")

// buildScene loads the textures and assembles a scene for an already
// validated view.
func (s *Server) buildScene(ctx context.Context, view viewer.View, opts globe.Options) (*globe.Scene, error) {
	textures, err := globe.LoadTextureSet(ctx, s.cache, globe.DefaultSources(s.config.TextureSource))
	if err != nil {
		return nil, err
	}
	scene, err := globe.NewScene(textures, opts)
	if err != nil {
		return nil, err
	}
	view.Apply(scene)
	return scene, nil
}

// runWithTimeout runs fn in its own goroutine, turning panics into errors
// and giving up after timeout. fn receives the deadline context so it can
// stop early.
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context, io.Writer) error) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{nil, fmt.Errorf("panic in renderer: %v", r)}
			}
		}()

		var buf bytes.Buffer
		err := fn(ctx, &buf)
		resChan <- result{data: buf.Bytes(), err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errRenderTimeout
		}
		return nil, ctx.Err()
	case res := <-resChan:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errRenderTimeout
		}
		return res.data, res.err
	}
}

// renderStatus maps a failed render to its HTTP status.
func renderStatus(err error) int {
	if errors.Is(err, errRenderTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func renderPNG(scene *globe.Scene) func(context.Context, io.Writer) error {
	return func(_ context.Context, w io.Writer) error {
		return scene.RenderToWriter(w)
	}
}

// handlePlanetRender renders the requested view and a close-up in parallel
// and stores both.
func (s *Server) handlePlanetRender(w http.ResponseWriter, r *http.Request, e RenderEvent) {
	start := time.Now()

	closeup := e.RenderJson
	closeup.Distance = closeupDistance
	closeup.Info = false

	jobs := []struct {
		name string
		view viewer.View
		opts globe.Options
		key  string
	}{
		{name: "planet", view: e.RenderJson, key: path.Join("thumbnails", e.Hash+".png")},
		{name: "closeup", view: closeup, key: path.Join("thumbnails", e.Hash+"_closeup.png")},
	}
	for i := range jobs {
		opts, err := jobs[i].view.Options()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		jobs[i].opts = opts
	}

	g, ctx := errgroup.WithContext(r.Context())
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			scene, err := s.buildScene(ctx, job.view, job.opts)
			if err != nil {
				return fmt.Errorf("%s scene: %w", job.name, err)
			}
			buf, err := runWithTimeout(ctx, s.renderTimeout, renderPNG(scene))
			if err != nil {
				return fmt.Errorf("%s render: %w", job.name, err)
			}
			if err := s.store.Put(ctx, job.key, "image/png", buf); err != nil {
				return fmt.Errorf("%s upload: %w", job.name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("Planet render %s failed: %v", e.Hash, err)
		http.Error(w, "Render failed", renderStatus(err))
		return
	}

	log.Printf("Completed planet render for %s in %v", e.Hash, time.Since(start))
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Planet render and close-up processed successfully.")
}

func (s *Server) handleTurntableRender(w http.ResponseWriter, r *http.Request, e RenderEvent) {
	start := time.Now()

	frames, steps, delay, err := e.RenderJson.Animation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := e.RenderJson.Options()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scene, err := s.buildScene(r.Context(), e.RenderJson, opts)
	if err != nil {
		log.Printf("Turntable scene failed: %v", err)
		http.Error(w, "Render failed", http.StatusInternalServerError)
		return
	}

	buf, err := runWithTimeout(r.Context(), s.turntableTimeout, func(ctx context.Context, w io.Writer) error {
		return scene.Turntable(ctx, w, frames, steps, delay)
	})
	if err != nil {
		log.Printf("Turntable render failed: %v", err)
		http.Error(w, "Render failed", renderStatus(err))
		return
	}

	if err := s.store.Put(r.Context(), path.Join("thumbnails", e.Hash+".gif"), "image/gif", buf); err != nil {
		log.Printf("Turntable upload failed: %v", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	log.Printf("Turntable render %s finished in %v", e.Hash, time.Since(start))
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Turntable processed.")
}
