// Package resources resolves the URIs referenced by asset bindings to bytes.
package resources

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

// Resource errors.
var (
	ErrBadDataURI  = errors.New("malformed data URI")
	ErrOutOfRange  = errors.New("binding range exceeds buffer")
	ErrNoImageData = errors.New("image has neither URI nor buffer view")
)

// Manager loads binding data from data URIs and files relative to a base path.
// Loaded blobs are cached by URI.
type Manager struct {
	base  string
	cache *Cache
	log   *zap.Logger
}

// NewManager creates a manager resolving relative URIs against basePath.
func NewManager(basePath string) *Manager {
	return &Manager{
		base:  basePath,
		cache: NewCache(),
		log:   logger.Named("resources"),
	}
}

// Load returns the bytes behind a URI.
func (m *Manager) Load(uri string) ([]byte, error) {
	if data, ok := m.cache.Get(uri); ok {
		return data, nil
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(uri, "data:") {
		data, err = decodeDataURI(uri)
	} else {
		data, err = m.readFile(uri)
	}
	if err != nil {
		return nil, err
	}

	m.cache.Set(uri, data)
	m.log.Debug("loaded resource", zap.String("uri", shortURI(uri)), zap.Int("bytes", len(data)))
	return data, nil
}

func (m *Manager) readFile(uri string) ([]byte, error) {
	name, err := url.PathUnescape(uri)
	if err != nil {
		name = uri
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.base, filepath.FromSlash(name))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// decodeDataURI decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma", ErrBadDataURI)
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadDataURI, err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDataURI, err)
	}
	return []byte(text), nil
}

func shortURI(uri string) string {
	if len(uri) > 48 {
		return uri[:48] + "..."
	}
	return uri
}

// Blobs loads every distinct buffer URI referenced by the asset's bindings,
// skipping buffers the source document already holds.
func (m *Manager) Blobs(asset gltfio.Asset) (map[string][]byte, error) {
	doc := asset.Source()
	out := make(map[string][]byte)
	for _, b := range asset.BufferBindings() {
		if b.URI == "" {
			continue
		}
		if _, seen := out[b.URI]; seen {
			continue
		}
		if doc != nil && doc.Buffers[b.Buffer].Data != nil {
			continue
		}
		data, err := m.Load(b.URI)
		if err != nil {
			return nil, err
		}
		out[b.URI] = data
	}

	// animation buffers are not referenced by geometry bindings
	if doc != nil {
		for _, buf := range doc.Buffers {
			if buf.Data != nil || buf.URI == "" {
				continue
			}
			if _, seen := out[buf.URI]; seen {
				continue
			}
			data, err := m.Load(buf.URI)
			if err != nil {
				return nil, err
			}
			out[buf.URI] = data
		}
	}
	return out, nil
}

// BufferData returns the byte range a buffer binding refers to.
func (m *Manager) BufferData(doc *formats.Document, b gltfio.BufferBinding) ([]byte, error) {
	var data []byte
	if doc != nil && b.Buffer >= 0 && b.Buffer < len(doc.Buffers) {
		data = doc.Buffers[b.Buffer].Data
	}
	if data == nil {
		var err error
		if data, err = m.Load(b.URI); err != nil {
			return nil, err
		}
	}
	if b.Offset < 0 || b.Size < 0 || b.Offset+b.Size > len(data) {
		return nil, fmt.Errorf("%w: %d+%d of %d bytes", ErrOutOfRange, b.Offset, b.Size, len(data))
	}
	return data[b.Offset : b.Offset+b.Size], nil
}

// ImageData returns the encoded image bytes of a texture binding. Images
// embedded in a buffer view are read through the document.
func (m *Manager) ImageData(doc *formats.Document, tb gltfio.TextureBinding) ([]byte, error) {
	if tb.URI != "" {
		return m.Load(tb.URI)
	}
	if doc == nil || tb.Image < 0 || tb.Image >= len(doc.Images) {
		return nil, ErrNoImageData
	}
	view := doc.Images[tb.Image].BufferView
	if view == formats.None {
		return nil, ErrNoImageData
	}
	v := doc.BufferViews[view]
	return m.BufferData(doc, gltfio.BufferBinding{
		URI:    doc.Buffers[v.Buffer].URI,
		Buffer: v.Buffer,
		Offset: v.ByteOffset,
		Size:   v.ByteLength,
	})
}

// Clear drops every cached blob.
func (m *Manager) Clear() {
	m.cache.Clear()
}

// CacheStats returns cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is an in-memory blob cache keyed by URI.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from the cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in the cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
