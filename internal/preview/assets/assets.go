// Package assets holds the process-wide font cache. Each (family, weight)
// is downloaded at most once per successful population and then shared,
// immutably, by every request.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/gg/text"

	"card-preview/internal/common/logger"
	"card-preview/internal/common/metrics"
	"card-preview/pkg/registry"
)

const maxFontBytes = 8 << 20

// FontAsset is a downloaded, parsed face. It must not be modified.
type FontAsset struct {
	Family string
	Weight int
	Data   []byte
	Source *text.FontSource
}

// Face returns the face at size pixels.
func (a *FontAsset) Face(size float64) text.Face {
	return a.Source.Face(size)
}

// FontSet is what the layout engine and rasterizer shape text with.
type FontSet struct {
	Regular *FontAsset
	Bold    *FontAsset
}

// ForWeight picks bold for weights of 600 and above.
func (s FontSet) ForWeight(weight int) *FontAsset {
	if weight >= 600 {
		return s.Bold
	}
	return s.Regular
}

// Fonts returns s itself so a preloaded set can stand in for a Cache.
func (s FontSet) Fonts(context.Context) (FontSet, error) {
	if s.Regular == nil || s.Bold == nil {
		return FontSet{}, errors.New("font set is incomplete")
	}
	return s, nil
}

// Fetcher downloads font files. internal/common/http.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error)
}

type key struct {
	family string
	weight int
}

// call is an in-flight download that later callers wait on.
type call struct {
	done  chan struct{}
	asset *FontAsset
	err   error
}

type Cache struct {
	registry *registry.FontRegistry
	fetcher  Fetcher
	timeout  time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	assets   map[key]*FontAsset
	inflight map[key]*call
}

type Option func(*Cache)

// WithTimeout bounds each font download.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func NewCache(reg *registry.FontRegistry, fetcher Fetcher, opts ...Option) *Cache {
	if reg == nil {
		reg = registry.Default()
	}
	c := &Cache{
		registry: reg,
		fetcher:  fetcher,
		timeout:  5 * time.Second,
		logger:   logger.NewNoOpLogger(),
		assets:   make(map[key]*FontAsset),
		inflight: make(map[key]*call),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetOrLoad returns the cached asset, downloading it on first use.
// Concurrent first callers share one download. A failed download is not
// remembered, so the next call tries again. The cache mutex is never held
// while downloading.
func (c *Cache) GetOrLoad(ctx context.Context, family string, weight int) (*FontAsset, error) {
	k := key{family: family, weight: weight}

	c.mu.Lock()
	if a, ok := c.assets[k]; ok {
		c.mu.Unlock()
		return a, nil
	}
	if cl, ok := c.inflight[k]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.asset, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[k] = cl
	c.mu.Unlock()

	cl.asset, cl.err = c.load(ctx, k)

	c.mu.Lock()
	delete(c.inflight, k)
	if cl.err == nil {
		c.assets[k] = cl.asset
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.asset, cl.err
}

// Fonts returns the regular and bold faces of the registry's primary family.
func (c *Cache) Fonts(ctx context.Context) (FontSet, error) {
	regular, bold, err := c.registry.Primary()
	if err != nil {
		return FontSet{}, err
	}
	r, err := c.GetOrLoad(ctx, regular.Family, regular.Weight)
	if err != nil {
		return FontSet{}, err
	}
	b, err := c.GetOrLoad(ctx, bold.Family, bold.Weight)
	if err != nil {
		return FontSet{}, err
	}
	return FontSet{Regular: r, Bold: b}, nil
}

// Warm populates the primary faces ahead of the first request.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.Fonts(ctx)
	return err
}

func (c *Cache) load(ctx context.Context, k key) (*FontAsset, error) {
	src, ok := c.registry.Lookup(k.family, k.weight)
	if !ok {
		return nil, fmt.Errorf("font %s/%d is not registered", k.family, k.weight)
	}

	// The download outlives a caller that disconnects; waiters still need it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	metrics.FontFetches.WithLabelValues(k.family, strconv.Itoa(k.weight)).Inc()
	start := time.Now()
	data, _, err := c.fetcher.Fetch(fetchCtx, src.URL, maxFontBytes)
	if err != nil {
		c.logger.Error("font download failed", map[string]interface{}{
			"family": k.family,
			"weight": k.weight,
			"url":    src.URL,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("fetch font %s/%d: %w", k.family, k.weight, err)
	}

	asset, err := newAsset(k.family, k.weight, data)
	if err != nil {
		return nil, err
	}

	c.logger.Info("font loaded", map[string]interface{}{
		"family":   k.family,
		"weight":   k.weight,
		"bytes":    len(data),
		"duration": time.Since(start).String(),
	})
	return asset, nil
}
