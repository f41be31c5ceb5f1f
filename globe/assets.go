package globe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Default texture file names, relative to a texture directory.
const (
	DayMap        = "00_earthmap1k.jpg"
	BumpMap       = "01_earthbump1k.jpg"
	SpecularMap   = "02_earthspec1k.jpg"
	LightsMap     = "03_earthlights1k.jpg"
	CloudMap      = "04_earthcloudmap.jpg"
	CloudAlphaMap = "05_earthcloudmaptrans.jpg"
)

// ErrTextureNotFound is returned when a texture source does not exist.
var ErrTextureNotFound = errors.New("texture not found")

// AssetCache is a thread-safe texture cache keyed by source. A source is a
// file path or an http(s) URL.
type AssetCache struct {
	mu         sync.RWMutex
	textures   map[string]*ImageTexture
	httpClient *http.Client
}

// NewAssetCache returns an empty cache fetching URLs through client.
func NewAssetCache(client *http.Client) *AssetCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &AssetCache{
		textures:   make(map[string]*ImageTexture),
		httpClient: client,
	}
}

// GetTexture returns the cached texture for source, loading it on a miss.
func (c *AssetCache) GetTexture(ctx context.Context, source string) (*ImageTexture, error) {
	c.mu.RLock()
	tex, ok := c.textures[source]
	c.mu.RUnlock()
	if ok {
		return tex, nil
	}

	// Loads run outside the lock so independent textures download in
	// parallel; a duplicate load of the same source is harmless.
	tex, err := c.load(ctx, source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.textures[source]; ok {
		return cached, nil
	}
	c.textures[source] = tex
	return tex, nil
}

// Len reports the number of cached textures.
func (c *AssetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.textures)
}

func (c *AssetCache) load(ctx context.Context, source string) (*ImageTexture, error) {
	if !isURL(source) {
		tex, err := LoadTexture(source)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTextureNotFound, source)
		}
		return tex, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTextureNotFound, source)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", source, resp.StatusCode)
	}
	return DecodeTexture(resp.Body)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// TextureSources names where each layer's map lives. Only Day is required.
type TextureSources struct {
	Day        string
	Bump       string
	Specular   string
	Lights     string
	Clouds     string
	CloudAlpha string
}

// DefaultSources returns the standard earth maps under base, which may be
// a directory or a URL prefix.
func DefaultSources(base string) TextureSources {
	join := func(name string) string {
		if isURL(base) {
			return strings.TrimSuffix(base, "/") + "/" + name
		}
		return filepath.Join(base, name)
	}
	return TextureSources{
		Day:        join(DayMap),
		Bump:       join(BumpMap),
		Specular:   join(SpecularMap),
		Lights:     join(LightsMap),
		Clouds:     join(CloudMap),
		CloudAlpha: join(CloudAlphaMap),
	}
}

// TextureSet holds the loaded maps. Optional maps may be nil.
type TextureSet struct {
	Day        *ImageTexture
	Bump       *ImageTexture
	Specular   *ImageTexture
	Lights     *ImageTexture
	Clouds     *ImageTexture
	CloudAlpha *ImageTexture
}

// LoadTextureSet loads every configured map concurrently and returns once
// all of them are ready. A missing optional map is left nil; any other
// failure cancels the remaining loads.
func LoadTextureSet(ctx context.Context, cache *AssetCache, src TextureSources) (*TextureSet, error) {
	if src.Day == "" {
		return nil, fmt.Errorf("day map is required")
	}

	set := &TextureSet{}
	jobs := []struct {
		source   string
		dst      **ImageTexture
		optional bool
	}{
		{src.Day, &set.Day, false},
		{src.Bump, &set.Bump, true},
		{src.Specular, &set.Specular, true},
		{src.Lights, &set.Lights, true},
		{src.Clouds, &set.Clouds, true},
		{src.CloudAlpha, &set.CloudAlpha, true},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		if job.source == "" {
			continue
		}
		job := job
		g.Go(func() error {
			tex, err := cache.GetTexture(ctx, job.source)
			if job.optional && errors.Is(err, ErrTextureNotFound) {
				log.Printf("Warning: texture %s is inaccessible, skipping layer", job.source)
				return nil
			}
			if err != nil {
				return err
			}
			*job.dst = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("Loaded %d textures", set.count())
	return set, nil
}

func (s *TextureSet) count() int {
	n := 0
	for _, t := range []*ImageTexture{s.Day, s.Bump, s.Specular, s.Lights, s.Clouds, s.CloudAlpha} {
		if t != nil {
			n++
		}
	}
	return n
}
