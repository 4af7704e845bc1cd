// Package assets loads viewer resources (images, sounds, models) in the
// background and exposes each one as a handle that the frame loop polls.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrResourceLoad marks a failed fetch or decode. It is never fatal: the
// feature depending on the resource stays inert.
var ErrResourceLoad = errors.New("resource load failed")

// State is the lifecycle of a loaded resource.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handle is the result of an asynchronous load. It moves from Pending to
// exactly one of Ready or Failed.
type Handle[T any] struct {
	path  string
	mu    sync.RWMutex
	state State
	value T
	err   error
	done  chan struct{}
}

func newHandle[T any](path string) *Handle[T] {
	return &Handle[T]{path: path, done: make(chan struct{})}
}

// ReadyHandle returns a handle that is already Ready with v.
func ReadyHandle[T any](path string, v T) *Handle[T] {
	h := newHandle[T](path)
	h.finish(v, nil)
	return h
}

// FailedHandle returns a handle that is already Failed with err.
func FailedHandle[T any](path string, err error) *Handle[T] {
	h := newHandle[T](path)
	var zero T
	h.finish(zero, err)
	return h
}

func (h *Handle[T]) finish(v T, err error) {
	h.mu.Lock()
	if err != nil {
		h.state = Failed
		h.err = err
	} else {
		h.state = Ready
		h.value = v
	}
	h.mu.Unlock()
	close(h.done)
}

// Path returns the requested resource path.
func (h *Handle[T]) Path() string { return h.path }

// State returns the current state.
func (h *Handle[T]) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Value returns the loaded value and whether it is Ready.
func (h *Handle[T]) Value() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.state == Ready
}

// Err returns the failure cause once Failed.
func (h *Handle[T]) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Done is closed when the handle leaves Pending.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks until the handle settles or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Fetcher reads raw resource bytes.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// DefaultFetcher reads local files and http(s) URLs.
type DefaultFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f DefaultFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return os.ReadFile(strings.TrimPrefix(path, "file://"))
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Manager runs background loads and caches fetched bytes.
type Manager struct {
	fetcher Fetcher
	cache   *Cache
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager. A nil fetcher uses DefaultFetcher.
func NewManager(fetcher Fetcher, log *zap.Logger) *Manager {
	if fetcher == nil {
		fetcher = DefaultFetcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		fetcher: fetcher,
		cache:   NewCache(),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Fetch returns the bytes of path, consulting the cache first.
func (m *Manager) Fetch(ctx context.Context, path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}
	data, err := m.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	m.cache.Set(path, data)
	return data, nil
}

// Cache exposes the byte cache, mainly for statistics.
func (m *Manager) Cache() *Cache { return m.cache }

// Load fetches path in the background and decodes it. The returned handle
// is Pending until the goroutine finishes. Failures are logged once and
// wrap ErrResourceLoad.
func Load[T any](m *Manager, path string, decode func([]byte) (T, error)) *Handle[T] {
	return load(m, path, decode, m.Fetch)
}

// LoadUncached is Load for one-shot resources such as video frames: the
// bytes go straight to decode and are never stored in the cache.
func LoadUncached[T any](m *Manager, path string, decode func([]byte) (T, error)) *Handle[T] {
	return load(m, path, decode, m.fetcher.Fetch)
}

func load[T any](m *Manager, path string, decode func([]byte) (T, error), fetch func(context.Context, string) ([]byte, error)) *Handle[T] {
	h := newHandle[T](path)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		var zero T
		data, err := fetch(m.ctx, path)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrResourceLoad, path, err)
			m.log.Warn("fetch failed", zap.String("path", path), zap.Error(err))
			h.finish(zero, err)
			return
		}

		v, err := decode(data)
		if err != nil {
			err = fmt.Errorf("%w: decoding %s: %w", ErrResourceLoad, path, err)
			m.log.Warn("decode failed", zap.String("path", path), zap.Error(err))
			h.finish(zero, err)
			return
		}

		m.log.Debug("resource ready", zap.String("path", path), zap.Int("bytes", len(data)))
		h.finish(v, nil)
	}()

	return h
}

// Close cancels outstanding fetches, waits for loaders to exit and clears
// the cache.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
	m.cache.Clear()
}

// Cache is a simple in-memory cache for fetched bytes.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
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

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
