package sequencer

import (
	"sync"
	"testing"
)

func TestNextStartsAtOne(t *testing.T) {
	s := New()
	if got := s.Next(Bookmarks); got != 1 {
		t.Errorf("first Next() = %d, want 1", got)
	}
}

func TestNextStrictlyIncreasing(t *testing.T) {
	s := New()
	prev := uint64(0)
	for i := 0; i < 50; i++ {
		tok := s.Next(OriginPopular)
		if tok <= prev {
			t.Fatalf("token %d not greater than previous %d", tok, prev)
		}
		prev = tok
	}
}

func TestIsStale(t *testing.T) {
	s := New()

	first := s.Next(Bookmarks)
	if s.IsStale(Bookmarks, first) {
		t.Error("latest token must not be stale")
	}

	second := s.Next(Bookmarks)
	if !s.IsStale(Bookmarks, first) {
		t.Error("older token should be stale once a newer one exists")
	}
	if s.IsStale(Bookmarks, second) {
		t.Error("latest token must not be stale")
	}
	if s.IsStale(Bookmarks, 0) {
		t.Error("token 0 is never stale")
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	s := New()

	b := s.Next(Bookmarks)
	s.Next(OriginPopular)
	s.Next(OriginPopular)

	if s.IsStale(Bookmarks, b) {
		t.Error("origin-popular tokens must not invalidate bookmark tokens")
	}
	if s.Current(Bookmarks) != 1 || s.Current(OriginPopular) != 2 {
		t.Errorf("Current() = %d/%d, want 1/2", s.Current(Bookmarks), s.Current(OriginPopular))
	}
}

func TestConcurrentNextUnique(t *testing.T) {
	s := New()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := s.Next(Bookmarks)
			mu.Lock()
			seen[tok] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 200 {
		t.Errorf("got %d unique tokens, want 200", len(seen))
	}
	if s.Current(Bookmarks) != 200 {
		t.Errorf("Current() = %d, want 200", s.Current(Bookmarks))
	}
}

func TestStreamString(t *testing.T) {
	if Bookmarks.String() != "bookmarks" || OriginPopular.String() != "origin-popular" {
		t.Error("unexpected stream names")
	}
}

func TestParseStream(t *testing.T) {
	for _, s := range []Stream{Bookmarks, OriginPopular} {
		got, ok := ParseStream(s.String())
		if !ok || got != s {
			t.Errorf("ParseStream(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseStream("unknown"); ok {
		t.Error("ParseStream(unknown) should fail")
	}
}
