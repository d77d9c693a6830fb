// Package framecache provides bounded memoization of transformed frames.
package framecache

import (
	"image"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
)

// DefaultCapacity is the default number of cached frames.
const DefaultCapacity = 100

// CachedFrame owns a transformed pixel buffer and its dimensions.
type CachedFrame struct {
	Pixels *image.RGBA
	Width  int
	Height int
}

// Cache memoizes transformed frames keyed by (presentation time, crop
// parameters). Eviction is FIFO: once the capacity is reached, inserting a
// new entry evicts the single oldest-inserted one.
//
// A key either matches exactly or misses; there is no interpolation between
// cached frames.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[pipeline.FrameTask]CachedFrame
	order    []pipeline.FrameTask // insertion order, oldest first
}

// New creates a cache with the given capacity. Non-positive capacities fall
// back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[pipeline.FrameTask]CachedFrame, capacity),
	}
}

// Get returns the cached frame for the task, if present.
func (c *Cache) Get(task pipeline.FrameTask) (CachedFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, ok := c.entries[task]
	return frame, ok
}

// Put inserts a frame, evicting the oldest entry when at capacity.
// Re-inserting an existing key replaces the frame without touching the
// insertion order.
func (c *Cache) Put(task pipeline.FrameTask, frame CachedFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[task]; exists {
		c.entries[task] = frame
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[task] = frame
	c.order = append(c.order, task)
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all cached frames. Called between sessions to bound memory.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[pipeline.FrameTask]CachedFrame, c.capacity)
	c.order = c.order[:0]
}
