package framecache

import (
	"image"
	"testing"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
)

func task(ms int64) pipeline.FrameTask {
	return pipeline.FrameTask{TimeMs: ms, Crop: pipeline.CropRect{Width: 10, Height: 10}}
}

func frame() CachedFrame {
	return CachedFrame{Pixels: image.NewRGBA(image.Rect(0, 0, 10, 10)), Width: 10, Height: 10}
}

func TestCache_GetMiss(t *testing.T) {
	c := New(10)
	if _, ok := c.Get(task(0)); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestCache_PutAndGet(t *testing.T) {
	c := New(10)
	c.Put(task(33), frame())

	got, ok := c.Get(task(33))
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Width != 10 || got.Height != 10 {
		t.Errorf("unexpected frame %dx%d", got.Width, got.Height)
	}

	// Different crop means a different key.
	other := pipeline.FrameTask{TimeMs: 33, Crop: pipeline.CropRect{Width: 20, Height: 20}}
	if _, ok := c.Get(other); ok {
		t.Error("expected miss for different crop")
	}
}

func TestCache_FIFOEviction(t *testing.T) {
	c := New(DefaultCapacity)

	for i := 0; i <= DefaultCapacity; i++ {
		c.Put(task(int64(i)), frame())
	}

	if c.Len() != DefaultCapacity {
		t.Errorf("expected %d entries, got %d", DefaultCapacity, c.Len())
	}
	if _, ok := c.Get(task(0)); ok {
		t.Error("expected the oldest entry to be evicted")
	}
	if _, ok := c.Get(task(1)); !ok {
		t.Error("expected the second entry to survive")
	}
	if _, ok := c.Get(task(DefaultCapacity)); !ok {
		t.Error("expected the newest entry to be present")
	}
}

func TestCache_EvictionIsInsertionOrderNotAccessOrder(t *testing.T) {
	c := New(3)
	c.Put(task(1), frame())
	c.Put(task(2), frame())
	c.Put(task(3), frame())

	// An LRU would protect task(1) after this read; FIFO must not.
	c.Get(task(1))

	c.Put(task(4), frame())
	if _, ok := c.Get(task(1)); ok {
		t.Error("expected FIFO eviction of the oldest insert despite recent read")
	}
	if _, ok := c.Get(task(2)); !ok {
		t.Error("expected second insert to survive")
	}
}

func TestCache_ReinsertDoesNotResetOrder(t *testing.T) {
	c := New(2)
	c.Put(task(1), frame())
	c.Put(task(2), frame())

	// Overwrite the oldest key; it keeps its original queue position.
	c.Put(task(1), frame())

	c.Put(task(3), frame())
	if _, ok := c.Get(task(1)); ok {
		t.Error("expected re-inserted oldest key to still be evicted first")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(10)
	for i := 0; i < 5; i++ {
		c.Put(task(int64(i)), frame())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}

	// Cache stays usable after Clear.
	c.Put(task(7), frame())
	if _, ok := c.Get(task(7)); !ok {
		t.Error("expected hit after clear and re-put")
	}
}

func TestCache_NonPositiveCapacityUsesDefault(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		c.Put(task(int64(i)), frame())
	}
	if c.Len() != DefaultCapacity {
		t.Errorf("expected %d entries, got %d", DefaultCapacity, c.Len())
	}
}
