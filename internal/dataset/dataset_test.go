package dataset

import (
	"sync"
	"testing"
)

func TestStoreZeroValue(t *testing.T) {
	var s Store
	if got := s.Get("tok"); got != nil {
		t.Errorf("Get on empty store = %v, want nil", got)
	}
	d := &Dataset{Fingerprint: 1}
	s.Put("tok", d)
	if got := s.Get("tok"); got != d {
		t.Errorf("Get = %v, want the stored dataset", got)
	}
}

func TestStoreReplaceAndDrop(t *testing.T) {
	var s Store
	s.Put("tok", &Dataset{Fingerprint: 1})
	second := &Dataset{Fingerprint: 2}
	s.Put("tok", second)
	if got := s.Get("tok"); got != second {
		t.Error("Put should replace wholesale")
	}
	s.Drop("tok")
	if got := s.Get("tok"); got != nil {
		t.Errorf("Get after Drop = %v, want nil", got)
	}
	s.Drop("never-existed")
}

func TestStoreIsolatesTokens(t *testing.T) {
	var s Store
	a, b := &Dataset{Fingerprint: 1}, &Dataset{Fingerprint: 2}
	s.Put("a", a)
	s.Put("b", b)
	if s.Get("a") != a || s.Get("b") != b {
		t.Error("tokens should not share state")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put("tok", &Dataset{})
				_ = s.Get("tok")
			}
		}()
	}
	wg.Wait()
	if s.Get("tok") == nil {
		t.Error("dataset lost after concurrent writes")
	}
}
