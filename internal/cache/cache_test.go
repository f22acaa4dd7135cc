package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestPutAndGet(t *testing.T) {
	c, err := New(t.TempDir(), 1024*1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := []byte("RIFF....WAVE")
	if err := c.Put("key1", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get("key1")
	if !ok {
		t.Fatal("Get returned false, want true")
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}
	if c.Size() != int64(len(data)) {
		t.Errorf("Size = %d, want %d", c.Size(), len(data))
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	if _, err := New(t.TempDir(), 0, nil); err == nil {
		t.Fatal("expected error for zero max size")
	}
}

func TestGetMiss(t *testing.T) {
	c, err := New(t.TempDir(), 1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("Get returned true for nonexistent key")
	}
}

func TestEvictionOrder(t *testing.T) {
	// Room for two 50-byte segments.
	c, err := New(t.TempDir(), 150, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("old", make([]byte, 50))
	c.Put("mid", make([]byte, 50))
	c.Get("old")
	c.Put("new", make([]byte, 60))

	if _, ok := c.Get("mid"); ok {
		t.Error("'mid' should have been evicted as least recently used")
	}
	if _, ok := c.Get("old"); !ok {
		t.Error("'old' was used recently and should survive")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("'new' should exist")
	}
	if c.Size() != 110 {
		t.Errorf("Size = %d, want 110", c.Size())
	}
}

func TestReplaceKeepsAccounting(t *testing.T) {
	c, err := New(t.TempDir(), 100, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("a", make([]byte, 40))
	c.Put("a", make([]byte, 70))
	if c.Size() != 70 {
		t.Errorf("Size = %d, want 70", c.Size())
	}
}

func TestPutOversized(t *testing.T) {
	c, err := New(t.TempDir(), 50, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Put("big", make([]byte, 100)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := c.Get("big"); ok {
		t.Error("oversized segment should not be cached")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New(t.TempDir(), 1024*1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key("text", "model", "digest")
			c.Put(key, make([]byte, 100))
			c.Get(key)
		}()
	}
	wg.Wait()
}

func TestKey(t *testing.T) {
	base := Key("hello", "m1", "ref-a")
	if base != Key("hello", "m1", "ref-a") {
		t.Error("same input produced different keys")
	}
	for name, other := range map[string]string{
		"text":      Key("world", "m1", "ref-a"),
		"model":     Key("hello", "m2", "ref-a"),
		"reference": Key("hello", "m1", "ref-b"),
	} {
		if other == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestIndexExisting(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "abc123.wav"), []byte("audio data"), 0o644)
	os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not audio"), 0o644)

	c, err := New(dir, 1024*1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, ok := c.Get("abc123")
	if !ok || string(got) != "audio data" {
		t.Errorf("abc123 = %q, %v", got, ok)
	}
	if _, ok := c.Get("ignored"); ok {
		t.Error("non-wav files must not be indexed")
	}
}

func TestIndexEvictsOverCapacity(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"aaa", "bbb", "ccc"} {
		os.WriteFile(filepath.Join(dir, name+".wav"), make([]byte, 50), 0o644)
	}

	c, err := New(dir, 100, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Size() > 100 {
		t.Errorf("Size after indexing = %d, want <= 100", c.Size())
	}
	left, _ := filepath.Glob(filepath.Join(dir, "*.wav"))
	if len(left) > 2 {
		t.Errorf("%d files left on disk, want <= 2", len(left))
	}
}

func TestStaleFileCleanup(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 1024*1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("stale", []byte("data"))
	os.Remove(filepath.Join(dir, "stale.wav"))

	if _, ok := c.Get("stale"); ok {
		t.Error("Get should return false for a deleted file")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d after dropping stale segment, want 0", c.Size())
	}
}
