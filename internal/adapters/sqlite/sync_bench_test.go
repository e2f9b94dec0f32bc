package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// benchWiki returns WIKI_PATH, or a generated wiki of cities when unset
func benchWiki(b *testing.B) string {
	b.Helper()
	if p := os.Getenv("WIKI_PATH"); p != "" {
		return p
	}

	root := b.TempDir()
	for i := range 500 {
		content := fmt.Sprintf("[[Located in::Country %d]] [[Has population::%d]] [[Category:City]]\n"+
			"{{#subobject:census|Has year=2020|Has population=%d}}", i%20, i*1000, i*990)
		path := filepath.Join(root, fmt.Sprintf("City %03d.md", i))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			b.Fatalf("failed to write page: %v", err)
		}
	}
	return root
}

// BenchmarkSyncFull benchmarks just the sync operation (DB already open)
func BenchmarkSyncFull(b *testing.B) {
	wikiPath := benchWiki(b)
	b.Setenv("XDG_DATA_HOME", b.TempDir())

	idx := NewIndex(nil)
	if err := idx.Open(wikiPath); err != nil {
		b.Fatalf("failed to open index: %v", err)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			b.Fatalf("failed to close index: %v", err)
		}
	}()

	b.ResetTimer()
	for b.Loop() {
		_, err := idx.SyncFull()
		if err != nil {
			b.Fatalf("sync failed: %v", err)
		}
	}
}

// BenchmarkFullStartup benchmarks cold startup: open + full sync + close (no existing DB)
func BenchmarkFullStartup(b *testing.B) {
	wikiPath := benchWiki(b)

	// Use a temp DB path for each run
	tmpDir := b.TempDir()
	b.Setenv("XDG_DATA_HOME", tmpDir)

	b.ResetTimer()
	for b.Loop() {
		idx := NewIndex(nil)
		if err := idx.Open(wikiPath); err != nil {
			b.Fatalf("failed to open index: %v", err)
		}

		_, err := idx.SyncFull()
		if err != nil {
			b.Fatalf("sync failed: %v", err)
		}

		if err := idx.Close(); err != nil {
			b.Fatalf("failed to close index: %v", err)
		}

		// Clean up for next iteration
		if err := os.RemoveAll(filepath.Join(tmpDir, "semcache")); err != nil {
			b.Fatalf("failed to clean up: %v", err)
		}
	}
}

// BenchmarkWarmStartup benchmarks warm startup: open + incremental sync (DB exists, no changes)
func BenchmarkWarmStartup(b *testing.B) {
	wikiPath := benchWiki(b)

	tmpDir := b.TempDir()
	b.Setenv("XDG_DATA_HOME", tmpDir)

	// First, create the DB with a full sync
	idx := NewIndex(nil)
	if err := idx.Open(wikiPath); err != nil {
		b.Fatalf("failed to open index: %v", err)
	}
	if _, err := idx.SyncFull(); err != nil {
		b.Fatalf("initial sync failed: %v", err)
	}
	if err := idx.Close(); err != nil {
		b.Fatalf("failed to close index: %v", err)
	}

	// Wait a moment to ensure mtime won't trigger updates
	time.Sleep(10 * time.Millisecond)

	b.ResetTimer()
	for b.Loop() {
		idx := NewIndex(nil)
		if err := idx.Open(wikiPath); err != nil {
			b.Fatalf("failed to open index: %v", err)
		}

		_, err := idx.SyncIncremental()
		if err != nil {
			b.Fatalf("sync failed: %v", err)
		}

		if err := idx.Close(); err != nil {
			b.Fatalf("failed to close index: %v", err)
		}
	}
}
